// Package minimax picks optimal Tic-Tac-Toe moves by exhaustive game-tree
// search. The tree is at most nine plies deep, so the search is exact and
// needs no depth limit or evaluation heuristic.
package minimax

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
)

// ErrNoMoveAvailable is returned when the board is already terminal.
var ErrNoMoveAvailable = errors.New("no move available")

const (
	best  = 1
	worst = -1
)

type Option func(s *Searcher)

// WithLogger sets the logger used to report finished searches.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Searcher) {
		s.logger = logger
	}
}

// WithParallel evaluates the root's children on separate goroutines. The
// chosen move and its value are the same as in a sequential search.
func WithParallel() Option {
	return func(s *Searcher) {
		s.parallel = true
	}
}

// Searcher runs minimax searches. It holds no per-search state and is safe
// for concurrent use.
type Searcher struct {
	parallel bool
	logger   zerolog.Logger
}

// Result is the outcome of one search.
type Result struct {
	Action domain.Action `json:"action"`
	// Value is the proven game value from X's point of view.
	Value int   `json:"value"`
	Stats Stats `json:"stats"`
}

func New(options ...Option) *Searcher {
	s := &Searcher{logger: zerolog.Nop()}
	for _, option := range options {
		option(s)
	}
	return s
}

var defaultSearcher = New()

// BestMove returns the optimal action for the side to move on b using a
// sequential searcher.
func BestMove(b domain.Board) (domain.Action, error) {
	return defaultSearcher.BestMove(b)
}

// BestMove returns the optimal action for the side to move on b.
func (s *Searcher) BestMove(b domain.Board) (domain.Action, error) {
	res, err := s.Search(b)
	if err != nil {
		return domain.Action{}, err
	}
	return res.Action, nil
}

// Search finds the optimal action for the side to move on b, assuming both
// sides play perfectly. Among equally good actions the first in row-major
// order wins. A terminal b yields ErrNoMoveAvailable and a malformed one
// domain.ErrMalformedBoard.
func (s *Searcher) Search(b domain.Board) (Result, error) {
	if err := b.Validate(); err != nil {
		return Result{}, err
	}
	side := b.SideToMove()
	if side == domain.Empty {
		return Result{}, ErrNoMoveAvailable
	}

	start := time.Now()
	var (
		res Result
		err error
	)
	if s.parallel {
		res, err = searchParallel(b, side == domain.X)
	} else {
		var st Stats
		res.Value, res.Action, err = value(b, side == domain.X, &st)
		res.Stats = st
	}
	if err != nil {
		return Result{}, err
	}

	s.logger.Debug().
		Str("board", b.String()).
		Stringer("side", side).
		Stringer("action", res.Action).
		Int("value", res.Value).
		Int64("nodes", res.Stats.Nodes).
		Int64("cutoffs", res.Stats.Cutoffs).
		Dur("elapsed", time.Since(start)).
		Msg("search complete")
	return res, nil
}

// value is maxValue when maximizing is true and minValue otherwise.
func value(b domain.Board, maximizing bool, st *Stats) (int, domain.Action, error) {
	st.Nodes++
	if b.IsTerminal() {
		st.Leaves++
		u, err := b.Utility()
		return u, domain.Action{}, err
	}

	v, target := worst-1, best
	if !maximizing {
		v, target = best+1, worst
	}
	var chosen domain.Action
	for _, a := range b.LegalActions() {
		next, err := b.Apply(a)
		if err != nil {
			return 0, domain.Action{}, fmt.Errorf("minimax: legal action %v rejected on %v: %w", a, b, err)
		}
		child, _, err := value(next, !maximizing, st)
		if err != nil {
			return 0, domain.Action{}, err
		}
		if improves(child, v, maximizing) {
			v, chosen = child, a
			if v == target {
				st.Cutoffs++
				break
			}
		}
	}
	return v, chosen, nil
}

func improves(candidate, current int, maximizing bool) bool {
	if maximizing {
		return candidate > current
	}
	return candidate < current
}

// searchParallel scores every root action concurrently and then picks the
// winner in enumeration order, so ties resolve exactly as in value.
func searchParallel(b domain.Board, maximizing bool) (Result, error) {
	actions := b.LegalActions()
	values := make([]int, len(actions))
	stats := make([]Stats, len(actions))

	var g errgroup.Group
	for i, a := range actions {
		g.Go(func() error {
			next, err := b.Apply(a)
			if err != nil {
				return fmt.Errorf("minimax: legal action %v rejected on %v: %w", a, b, err)
			}
			values[i], _, err = value(next, !maximizing, &stats[i])
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Value: worst - 1}
	if !maximizing {
		res.Value = best + 1
	}
	res.Stats.Nodes = 1
	for i, a := range actions {
		res.Stats.add(stats[i])
		if improves(values[i], res.Value, maximizing) {
			res.Value, res.Action = values[i], a
		}
	}
	return res, nil
}
