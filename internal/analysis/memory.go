package analysis

import (
	"context"
	"sort"
	"sync"
)

type MemoryRepository struct {
	mu   sync.RWMutex
	docs []Analysis
}

func NewMemoryRepository() *MemoryRepository { return &MemoryRepository{} }

func (m *MemoryRepository) Insert(ctx context.Context, a *Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, *a)
	return nil
}

func (m *MemoryRepository) History(ctx context.Context, uid string, limit int64) ([]Analysis, error) {
	m.mu.RLock()
	out := []Analysis{}
	for _, a := range m.docs {
		if a.UserID == uid {
			out = append(out, a)
		}
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].AnalyzedAt.After(out[j].AnalyzedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
