package store

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(_ context.Context, rec Record) error {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	rec.Moves = append([]domain.Action(nil), rec.Moves...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *MemoryStore) FindByGame(_ context.Context, gameID string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.GameID == gameID {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

// Recent returns up to limit records, most recently finished first.
func (m *MemoryStore) Recent(_ context.Context, limit int) ([]Record, error) {
	m.mu.Lock()
	out := append([]Record(nil), m.records...)
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].FinishedAt.After(out[j].FinishedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
