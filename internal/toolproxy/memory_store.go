package toolproxy

import (
	"context"
	"sort"
	"sync"

	"github.com/mbd888/fraudgate/internal/pagination"
)

// MemoryStore is an in-memory review queue for development and tests.
type MemoryStore struct {
	flags []*FlaggedTransaction
	mu    sync.RWMutex
}

// NewMemoryStore creates a new in-memory review queue.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Record(_ context.Context, f *FlaggedTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	m.flags = append(m.flags, &cp)
	return nil
}

func (m *MemoryStore) List(_ context.Context, limit int, after *pagination.Cursor) ([]*FlaggedTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*FlaggedTransaction, 0, len(m.flags))
	for _, f := range m.flags {
		if after.After(f.CreatedAt, f.ID) {
			cp := *f
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
