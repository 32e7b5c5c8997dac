package users

import (
	"context"
	"sync"
	"time"

	"github.com/Omarrawas/Atmetny1/internal/models"
)

// MemoryRepository keeps profiles in process memory. It backs the unit tests
// and the server when MongoDB is not configured.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*models.UserProfile
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*models.UserProfile)}
}

func (m *MemoryRepository) Get(ctx context.Context, uid string) (*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[uid]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryRepository) Create(ctx context.Context, p *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[p.UID]; ok {
		return nil
	}
	cp := *p
	m.store[p.UID] = &cp
	return nil
}

func (m *MemoryRepository) Update(ctx context.Context, uid string, w models.ProfileWrite, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[uid]
	if !ok {
		return ErrNotFound
	}
	w.Apply(p)
	p.UpdatedAt = now
	return nil
}

func (m *MemoryRepository) IncrementPoints(ctx context.Context, uid string, delta int, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[uid]
	if !ok {
		return ErrNotFound
	}
	p.Points += delta
	p.UpdatedAt = now
	return nil
}

// AttachSubscription sets the active subscription, creating the profile with
// defaults when it does not exist yet. The activation memory store calls it
// while holding its own transaction lock.
func (m *MemoryRepository) AttachSubscription(ctx context.Context, uid, email string, sub models.SubscriptionDetails, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[uid]
	if !ok {
		p = models.NewUserProfile(uid, "", email, now)
		m.store[uid] = p
	}
	s := sub
	p.ActiveSubscription = &s
	p.UpdatedAt = now
	return nil
}
