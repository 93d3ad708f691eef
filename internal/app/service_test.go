package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/store"
)

// minimal renderer for tests: encode moves count as bytes
func testRenderer(gs GameState) []byte { return []byte(fmt.Sprintf("moves=%d", gs.Game.Moves)) }

// failingMover always errors.
type failingMover struct{}

func (failingMover) BestMove(domain.Board) (domain.Action, error) {
	return domain.Action{}, errors.New("engine down")
}

func TestCreateAndGet(t *testing.T) {
	s := NewService(WithRenderer(testRenderer))
	gs, err := s.CreateGame()
	if err != nil {
		t.Fatalf("CreateGame error: %v", err)
	}
	if gs.ID == "" {
		t.Fatalf("expected non-empty game ID")
	}
	if gs.Game.Turn != domain.X {
		t.Fatalf("expected initial turn X")
	}
	if gs.Created.IsZero() || gs.Updated.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}
	got, ok := s.Get(gs.ID)
	if !ok || got.ID != gs.ID {
		t.Fatalf("Get should find created game")
	}
}

func TestJoinSeatsAndRejoin(t *testing.T) {
	s := NewService(WithRenderer(testRenderer))
	gs, _ := s.CreateGame()
	p1, p2, p3 := "p1", "p2", "p3"

	side, _, err := s.Join(gs.ID, p1)
	if err != nil || side != domain.X {
		t.Fatalf("p1 should claim X, got %v, err=%v", side, err)
	}
	side, _, err = s.Join(gs.ID, p2)
	if err != nil || side != domain.O {
		t.Fatalf("p2 should claim O, got %v, err=%v", side, err)
	}
	side, _, err = s.Join(gs.ID, p1)
	if err != nil || side != domain.X {
		t.Fatalf("p1 rejoin should keep X, got %v, err=%v", side, err)
	}
	side, _, err = s.Join(gs.ID, p3)
	if err != nil || side != domain.Empty {
		t.Fatalf("p3 should spectate (Empty), got %v, err=%v", side, err)
	}
	if _, _, err := s.Join("missing", p1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlayEnforcesTurnAndSpectatorBlocked(t *testing.T) {
	s := NewService(WithRenderer(testRenderer))
	gs, _ := s.CreateGame()
	p1, p2, p3 := "p1", "p2", "p3"
	s.Join(gs.ID, p1) // X
	s.Join(gs.ID, p2) // O
	s.Join(gs.ID, p3) // spectator

	// O cannot play first
	if _, err := s.Play(gs.ID, p2, 0, 0); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	// spectator cannot play
	if _, err := s.Play(gs.ID, p3, 0, 0); !errors.Is(err, ErrNotAPlayer) {
		t.Fatalf("expected ErrNotAPlayer, got %v", err)
	}
	// X plays
	st, err := s.Play(gs.ID, p1, 0, 0)
	if err != nil {
		t.Fatalf("X play failed: %v", err)
	}
	if st.Game.Board[0] != domain.X || st.Game.Turn != domain.O || st.Game.Moves != 1 {
		t.Fatalf("unexpected state after X move: turn=%v moves=%d cell0=%v", st.Game.Turn, st.Game.Moves, st.Game.Board[0])
	}
	// X cannot play again
	if _, err := s.Play(gs.ID, p1, 1, 1); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn for X again, got %v", err)
	}
	// O cannot take an occupied cell
	if _, err := s.Play(gs.ID, p2, 0, 0); !errors.Is(err, domain.ErrOccupied) {
		t.Fatalf("expected ErrOccupied, got %v", err)
	}
}

func TestSubscribeAndBroadcast(t *testing.T) {
	s := NewService(WithRenderer(testRenderer))
	gs, _ := s.CreateGame()
	p1, p2 := "p1", "p2"
	s.Join(gs.ID, p1)
	s.Join(gs.ID, p2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	ch, unsub, err := s.Subscribe(ctx, gs.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsub()

	// Trigger an update: X plays
	if _, err := s.Play(gs.ID, p1, 0, 0); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	select {
	case b, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed unexpectedly")
		}
		if string(b) != "moves=1" {
			t.Fatalf("unexpected broadcast payload: %q", string(b))
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for broadcast")
	}
}

func TestSubscribeUnknownGame(t *testing.T) {
	s := NewService()
	if _, _, err := s.Subscribe(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatalf("subscribing must not create a game")
	}
}

func TestDropSlowSubscriber(t *testing.T) {
	s := NewService(WithRenderer(testRenderer))
	gs, _ := s.CreateGame()
	p1, p2 := "p1", "p2"
	s.Join(gs.ID, p1)
	s.Join(gs.ID, p2)

	// Slow subscriber: never read
	ctxSlow, cancelSlow := context.WithCancel(context.Background())
	defer cancelSlow()
	slowCh, _, err := s.Subscribe(ctxSlow, gs.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// Two quick updates; the second overflows the slow subscriber's buffer
	if _, err := s.Play(gs.ID, p1, 0, 0); err != nil {
		t.Fatalf("play1: %v", err)
	}
	if _, err := s.Play(gs.ID, p2, 1, 1); err != nil {
		t.Fatalf("play2: %v", err)
	}

	// The buffered payload is still there, then the channel is closed.
	if _, ok := <-slowCh; !ok {
		t.Fatalf("expected the first payload before close")
	}
	select {
	case _, ok := <-slowCh:
		if ok {
			t.Fatalf("expected slow subscriber to be dropped")
		}
	case <-time.After(time.Second):
		t.Fatalf("slow subscriber channel was not closed")
	}
}

func TestComputerGame(t *testing.T) {
	t.Run("computer as X opens", func(t *testing.T) {
		s := NewService()
		gs, err := s.CreateComputerGame(domain.X)
		require.NoError(t, err)
		require.Equal(t, ComputerID, gs.X)
		require.Equal(t, domain.X, gs.Computer())
		require.Equal(t, 1, gs.Game.Moves)
		require.Equal(t, domain.O, gs.Game.Turn)

		side, _, err := s.Join(gs.ID, "human")
		require.NoError(t, err)
		require.Equal(t, domain.O, side)
	})

	t.Run("computer answers every move and never loses", func(t *testing.T) {
		archive := store.NewMemoryStore()
		s := NewService(WithArchive(archive))
		gs, err := s.CreateComputerGame(domain.O)
		require.NoError(t, err)
		require.Zero(t, gs.Game.Moves)

		side, _, err := s.Join(gs.ID, "human")
		require.NoError(t, err)
		require.Equal(t, domain.X, side)

		for !gs.Game.Over {
			// the human always takes the first free cell
			a := gs.Game.Board.LegalActions()[0]
			moves := gs.Game.Moves
			gs, err = s.Play(gs.ID, "human", a.Row, a.Col)
			require.NoError(t, err)
			if !gs.Game.Over {
				require.Equal(t, moves+2, gs.Game.Moves, "computer should have replied")
				require.Equal(t, domain.X, gs.Game.Turn)
			}
		}
		require.NotEqual(t, domain.X, gs.Game.Winner, "the computer must not lose")

		recs, err := s.Recent(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		require.Equal(t, gs.ID, recs[0].GameID)
		require.Equal(t, "O", recs[0].Computer)
		require.Equal(t, gs.Game.History, recs[0].Moves)

		rec, err := s.Archived(context.Background(), gs.ID)
		require.NoError(t, err)
		require.Equal(t, recs[0].ID, rec.ID)
		_, err = s.Archived(context.Background(), "missing")
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.Play(gs.ID, "human", 0, 0)
		require.ErrorIs(t, err, domain.ErrGameOver)
	})

	t.Run("computer seat cannot be played by hand", func(t *testing.T) {
		s := NewService()
		gs, err := s.CreateComputerGame(domain.O)
		require.NoError(t, err)
		_, err = s.Play(gs.ID, ComputerID, 0, 0)
		require.ErrorIs(t, err, ErrNotAPlayer)

		side, _, err := s.Join(gs.ID, ComputerID)
		require.NoError(t, err)
		require.Equal(t, domain.Empty, side)
	})

	t.Run("bad seat", func(t *testing.T) {
		_, err := NewService().CreateComputerGame(domain.Empty)
		require.ErrorIs(t, err, ErrBadSeat)
	})

	t.Run("engine failure surfaces", func(t *testing.T) {
		s := NewService(WithMover(failingMover{}))
		_, err := s.CreateComputerGame(domain.X)
		require.Error(t, err)
	})
}

func TestHint(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateGame()
	s.Join(gs.ID, "p1")
	s.Join(gs.ID, "p2")
	// X holds (0,0) and (0,1) against O at (1,0); the engine blocks at (0,2)
	for _, m := range []struct {
		player string
		r, c   int
	}{{"p1", 0, 0}, {"p2", 1, 0}, {"p1", 0, 1}} {
		_, err := s.Play(gs.ID, m.player, m.r, m.c)
		require.NoError(t, err)
	}
	a, err := s.Hint(gs.ID)
	require.NoError(t, err)
	require.Equal(t, domain.Action{Row: 0, Col: 2}, a)

	_, err = s.Hint("missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Play(gs.ID, "p2", 2, 2)
	require.NoError(t, err)
	_, err = s.Play(gs.ID, "p1", 0, 2)
	require.NoError(t, err)
	_, err = s.Hint(gs.ID)
	require.ErrorIs(t, err, domain.ErrGameOver)
}
