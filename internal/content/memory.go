package content

import (
	"context"
	"sort"
	"sync"
)

type MemoryRepository struct {
	mu            sync.RWMutex
	news          []NewsItem
	announcements []Announcement
}

func NewMemoryRepository() *MemoryRepository { return &MemoryRepository{} }

func (m *MemoryRepository) PutNews(n NewsItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.news = append(m.news, n)
}

func (m *MemoryRepository) PutAnnouncement(a Announcement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.announcements = append(m.announcements, a)
}

func (m *MemoryRepository) LatestNews(ctx context.Context, n int64) ([]NewsItem, error) {
	m.mu.RLock()
	out := append([]NewsItem(nil), m.news...)
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *MemoryRepository) ActiveAnnouncements(ctx context.Context, n int64) ([]Announcement, error) {
	m.mu.RLock()
	out := []Announcement{}
	for _, a := range m.announcements {
		if a.IsActive {
			out = append(out, a)
		}
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > n {
		out = out[:n]
	}
	return out, nil
}
