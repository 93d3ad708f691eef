// Package selfplay pits the engine against itself, optionally from random
// openings, and tallies the results.
package selfplay

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
)

// Mover picks the move for the side to move on a board.
type Mover interface {
	BestMove(b domain.Board) (domain.Action, error)
}

type Config struct {
	Games int
	// RandomPlies is the number of opening plies chosen at random before the
	// engine takes over both sides.
	RandomPlies int
	Seed        uint64
}

type Summary struct {
	Games int
	XWins int
	OWins int
	Draws int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d games: X won %d, O won %d, %d draws", s.Games, s.XWins, s.OWins, s.Draws)
}

func (s *Summary) add(r domain.Result) {
	s.Games++
	switch r {
	case domain.XWins:
		s.XWins++
	case domain.OWins:
		s.OWins++
	default:
		s.Draws++
	}
}

type Option func(a *Arena)

// WithObserver is called after every finished game with its index.
func WithObserver(fn func(i int, g domain.Game)) Option {
	return func(a *Arena) {
		a.observe = fn
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(a *Arena) {
		a.logger = logger
	}
}

type Arena struct {
	mover   Mover
	cfg     Config
	observe func(i int, g domain.Game)
	logger  zerolog.Logger
}

func NewArena(m Mover, cfg Config, options ...Option) *Arena {
	a := &Arena{
		mover:   m,
		cfg:     cfg,
		observe: func(int, domain.Game) {},
		logger:  zerolog.Nop(),
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// Run plays the configured number of games. It stops between games when ctx
// is done.
func (a *Arena) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	r := rand.New(rand.NewSource(a.cfg.Seed))
	a.logger.Info().Int("games", a.cfg.Games).Int("random_plies", a.cfg.RandomPlies).Uint64("seed", a.cfg.Seed).Msg("starting self-play")
	for i := 0; i < a.cfg.Games; i++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		g, err := a.play(r)
		if err != nil {
			return sum, fmt.Errorf("game %d: %w", i+1, err)
		}
		sum.add(g.Result())
		a.logger.Debug().Int("game", i+1).Str("board", g.Board.String()).Stringer("result", g.Result()).Msg("game finished")
		a.observe(i, g)
	}
	a.logger.Info().Stringer("summary", sum).Msg("self-play complete")
	return sum, nil
}

func (a *Arena) play(r *rand.Rand) (domain.Game, error) {
	g := domain.New()
	for ply := 0; !g.Over; ply++ {
		var (
			action domain.Action
			err    error
		)
		if ply < a.cfg.RandomPlies {
			legal := g.Board.LegalActions()
			action = legal[r.Intn(len(legal))]
		} else if action, err = a.mover.BestMove(g.Board); err != nil {
			return g, err
		}
		if err := g.Apply(action); err != nil {
			return g, err
		}
	}
	return g, nil
}
