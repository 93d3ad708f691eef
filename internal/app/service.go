package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/minimax"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/store"
)

// Errors exposed by the service layer.
var (
	ErrNotFound    = errors.New("game not found")
	ErrNotYourTurn = errors.New("not your turn")
	ErrNotAPlayer  = errors.New("not a player")
	ErrBadSeat     = errors.New("computer must play X or O")
)

// Mover picks the move for the side to move on a board.
type Mover interface {
	BestMove(b domain.Board) (domain.Action, error)
}

// Archive stores finished games.
type Archive interface {
	Save(ctx context.Context, rec store.Record) error
	Recent(ctx context.Context, limit int) ([]store.Record, error)
	FindByGame(ctx context.Context, gameID string) (store.Record, error)
}

var (
	_ Mover   = (*minimax.Searcher)(nil)
	_ Archive = (*store.MemoryStore)(nil)
	_ Archive = (*store.MongoStore)(nil)
)

const archiveTimeout = 5 * time.Second

// GameState is the in-memory state tracked per game.
type GameState struct {
	ID       string
	Game     domain.Game
	X        string
	O        string
	Created  time.Time
	Updated  time.Time
	archived bool
}

// Seat returns the side held by playerID, or Empty for spectators.
func (gs GameState) Seat(playerID string) domain.Cell {
	switch {
	case playerID == "":
		return domain.Empty
	case gs.X == playerID:
		return domain.X
	case gs.O == playerID:
		return domain.O
	default:
		return domain.Empty
	}
}

// Computer returns the side played by the engine, or Empty.
func (gs GameState) Computer() domain.Cell {
	return gs.Seat(ComputerID)
}

func (gs GameState) computerToMove() bool {
	return !gs.Game.Over && gs.Game.Turn != domain.Empty && gs.Game.Turn == gs.Computer()
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service manages games and subscribers.
type Service struct {
	mu      sync.Mutex
	games   map[string]*GameState
	subs    map[string]map[*subscriber]struct{}
	render  func(GameState) []byte
	mover   Mover
	archive Archive
	logger  zerolog.Logger
}

type Option func(s *Service)

// WithRenderer sets the function producing broadcast payloads.
func WithRenderer(renderer func(GameState) []byte) Option {
	return func(s *Service) {
		if renderer != nil {
			s.render = renderer
		}
	}
}

// WithMover sets the engine used for computer moves and hints.
func WithMover(m Mover) Option {
	return func(s *Service) {
		if m != nil {
			s.mover = m
		}
	}
}

// WithArchive sets where finished games are recorded.
func WithArchive(a Archive) Option {
	return func(s *Service) {
		if a != nil {
			s.archive = a
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a service. By default it renders nothing, plays the
// computer with a sequential minimax searcher and archives in memory.
func NewService(options ...Option) *Service {
	s := &Service{
		games:   make(map[string]*GameState),
		subs:    make(map[string]map[*subscriber]struct{}),
		render:  func(gs GameState) []byte { return nil },
		mover:   minimax.New(),
		archive: store.NewMemoryStore(),
		logger:  zerolog.Nop(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = func(gs GameState) []byte { return nil }
		return
	}
	s.render = renderer
}

// CreateGame creates and registers a new game between two humans.
func (s *Service) CreateGame() (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs := s.newGameLocked()
	s.logger.Info().Str("game", gs.ID).Msg("game created")
	cp := *gs
	return &cp, nil
}

// CreateComputerGame creates a game where the engine holds the computer
// seat. When the computer plays X its opening move is already made.
func (s *Service) CreateComputerGame(computer domain.Cell) (*GameState, error) {
	if computer != domain.X && computer != domain.O {
		return nil, ErrBadSeat
	}
	s.mu.Lock()
	gs := s.newGameLocked()
	if computer == domain.X {
		gs.X = ComputerID
	} else {
		gs.O = ComputerID
	}
	cp := *gs
	s.mu.Unlock()
	s.logger.Info().Str("game", cp.ID).Stringer("computer", computer).Msg("game created")

	if cp.computerToMove() {
		next, err := s.reply(cp)
		if err != nil {
			return nil, err
		}
		cp = next
	}
	return &cp, nil
}

func (s *Service) newGameLocked() *GameState {
	now := time.Now()
	gs := &GameState{ID: newGameID(), Game: domain.New(), Created: now, Updated: now}
	s.games[gs.ID] = gs
	return gs
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return nil, false
	}
	cp := *gs
	return &cp, true
}

// Join assigns a seat to the player if available; returns Empty for spectators.
func (s *Service) Join(id, playerID string) (domain.Cell, *GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return domain.Empty, nil, ErrNotFound
	}
	side := domain.Empty
	if playerID != "" && playerID != ComputerID {
		if gs.X == "" || gs.X == playerID {
			gs.X = playerID
			side = domain.X
		} else if gs.O == "" || gs.O == playerID {
			gs.O = playerID
			side = domain.O
		}
	}
	gs.Updated = time.Now()
	cp := *gs
	return side, &cp, nil
}

// Play validates seat and turn, applies a move, answers with the computer's
// move when it holds the other seat, and broadcasts the result.
func (s *Service) Play(id, playerID string, r, c int) (*GameState, error) {
	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	// Validate player is seated
	seat := gs.Seat(playerID)
	if seat == domain.Empty || playerID == ComputerID {
		s.mu.Unlock()
		return nil, ErrNotAPlayer
	}
	if gs.Game.Over {
		s.mu.Unlock()
		return nil, fmt.Errorf("play %d,%d: %w", r, c, domain.ErrGameOver)
	}
	// Validate turn
	if seat != gs.Game.Turn {
		s.mu.Unlock()
		return nil, ErrNotYourTurn
	}
	if err := gs.Game.Play(r, c); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	gs.Updated = time.Now()
	cp := *gs
	s.mu.Unlock()

	if cp.computerToMove() {
		return s.replyAndPublish(cp)
	}
	s.publish(cp)
	return &cp, nil
}

func (s *Service) replyAndPublish(cp GameState) (*GameState, error) {
	next, err := s.reply(cp)
	if err != nil {
		// the human move stands; subscribers still see it
		s.publish(cp)
		return nil, err
	}
	return &next, nil
}

// reply searches outside the lock and then plays the computer's move, which
// is safe because nobody else may move while it is the computer's turn.
func (s *Service) reply(cp GameState) (GameState, error) {
	a, err := s.mover.BestMove(cp.Game.Board)
	if err != nil {
		s.logger.Error().Err(err).Str("game", cp.ID).Str("board", cp.Game.Board.String()).Msg("computer move failed")
		return cp, fmt.Errorf("computer move: %w", err)
	}

	s.mu.Lock()
	gs, ok := s.games[cp.ID]
	if !ok {
		s.mu.Unlock()
		return cp, ErrNotFound
	}
	if gs.Game.Board != cp.Game.Board {
		s.mu.Unlock()
		return cp, errors.New("computer move: board changed during search")
	}
	if err := gs.Game.Apply(a); err != nil {
		s.mu.Unlock()
		return cp, fmt.Errorf("computer move %v: %w", a, err)
	}
	gs.Updated = time.Now()
	next := *gs
	s.mu.Unlock()

	s.logger.Debug().Str("game", cp.ID).Stringer("action", a).Msg("computer moved")
	s.publish(next)
	return next, nil
}

// publish broadcasts gs to subscribers and archives it once it is over.
func (s *Service) publish(gs GameState) {
	var toDrop []*subscriber

	s.mu.Lock()
	subs := s.copySubsLocked(gs.ID)
	payload := s.render(gs)
	archive := false
	if live, ok := s.games[gs.ID]; ok && gs.Game.Over && !live.archived {
		live.archived = true
		archive = true
	}
	s.mu.Unlock()

	// Fan-out; drop slow subscribers by closing and marking for deletion
	for sub := range subs {
		select {
		case sub.ch <- payload:
		default:
			sub.close()
			toDrop = append(toDrop, sub)
		}
	}
	if len(toDrop) > 0 {
		s.mu.Lock()
		for _, sub := range toDrop {
			if set, ok := s.subs[gs.ID]; ok {
				delete(set, sub)
			}
		}
		s.mu.Unlock()
	}

	if archive {
		s.record(gs)
	}
}

func (s *Service) record(gs GameState) {
	rec := store.Record{
		GameID:     gs.ID,
		Moves:      append([]domain.Action(nil), gs.Game.History...),
		Board:      gs.Game.Board.String(),
		Winner:     winnerName(gs.Game.Winner),
		CreateAt:   gs.Created,
		FinishedAt: gs.Updated,
	}
	if c := gs.Computer(); c != domain.Empty {
		rec.Computer = c.String()
	}

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if err := s.archive.Save(ctx, rec); err != nil {
		s.logger.Error().Err(err).Str("game", gs.ID).Msg("archiving finished game failed")
		return
	}
	s.logger.Info().Str("game", gs.ID).Stringer("result", gs.Game.Result()).Msg("game finished")
}

func winnerName(c domain.Cell) string {
	if c == domain.Empty {
		return ""
	}
	return c.String()
}

// Hint returns the engine's move for the side to move.
func (s *Service) Hint(id string) (domain.Action, error) {
	gs, ok := s.Get(id)
	if !ok {
		return domain.Action{}, ErrNotFound
	}
	if gs.Game.Over {
		return domain.Action{}, domain.ErrGameOver
	}
	return s.mover.BestMove(gs.Game.Board)
}

// Recent lists up to limit finished games, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]store.Record, error) {
	return s.archive.Recent(ctx, limit)
}

// Archived returns the record of a finished game, or store.ErrNotFound.
func (s *Service) Archived(ctx context.Context, id string) (store.Record, error) {
	return s.archive.FindByGame(ctx, id)
}

// Subscribe registers a subscriber for an existing game. Returns a channel
// and an unsubscribe func, or ErrNotFound.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return nil, nil, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			s.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}

func (s *Service) copySubsLocked(id string) map[*subscriber]struct{} {
	out := make(map[*subscriber]struct{})
	if set, ok := s.subs[id]; ok {
		for k := range set {
			out[k] = struct{}{}
		}
	}
	return out
}
