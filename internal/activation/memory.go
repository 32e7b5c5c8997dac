package activation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Omarrawas/Atmetny1/internal/models"
)

// ProfileStore is the profile write the memory store commits with a redemption.
type ProfileStore interface {
	AttachSubscription(ctx context.Context, uid, email string, sub models.SubscriptionDetails, now time.Time) error
}

// MemoryStore is an in-process Store. Transactions are serialized by a single
// lock and their writes are staged until fn returns nil.
type MemoryStore struct {
	mu       sync.Mutex
	codes    map[string]*Code
	logs     []*Log
	profiles ProfileStore
}

func NewMemoryStore(profiles ProfileStore) *MemoryStore {
	return &MemoryStore{codes: map[string]*Code{}, profiles: profiles}
}

func cloneCode(c *Code) *Code {
	cp := *c
	return &cp
}

func (m *MemoryStore) FindByValue(ctx context.Context, encoded string) (*Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.codes {
		if c.EncodedValue == encoded {
			return cloneCode(c), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.codes[id]; ok {
		return cloneCode(c), nil
	}
	return nil, nil
}

func (m *MemoryStore) Insert(ctx context.Context, codes []*Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	for _, c := range m.codes {
		seen[c.EncodedValue] = true
	}
	for _, c := range codes {
		if seen[c.EncodedValue] {
			return ErrDuplicate
		}
		seen[c.EncodedValue] = true
	}
	for _, c := range codes {
		m.codes[c.ID] = cloneCode(c)
	}
	return nil
}

func (m *MemoryStore) List(ctx context.Context, f ListFilter) ([]*Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Code
	for _, c := range m.codes {
		if f.Type != "" && c.Type != f.Type {
			continue
		}
		if f.OnlyUnused && c.IsUsed {
			continue
		}
		out = append(out, cloneCode(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && int64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryStore) Deactivate(ctx context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[id]
	if !ok {
		return ErrNotFound
	}
	c.IsActive = false
	c.UpdatedAt = now
	return nil
}

// Logs returns a copy of the activation log.
func (m *MemoryStore) Logs() []Log {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Log, len(m.logs))
	for i, l := range m.logs {
		out[i] = *l
	}
	return out
}

func (m *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memoryTx{m: m, staged: map[string]*Code{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit(ctx)
}

type stagedSubscription struct {
	uid, email string
	sub        models.SubscriptionDetails
	now        time.Time
}

type memoryTx struct {
	m      *MemoryStore
	staged map[string]*Code
	subs   []stagedSubscription
	logs   []*Log
}

func (t *memoryTx) CodeByID(ctx context.Context, id string) (*Code, error) {
	if c, ok := t.staged[id]; ok {
		return cloneCode(c), nil
	}
	if c, ok := t.m.codes[id]; ok {
		return cloneCode(c), nil
	}
	return nil, nil
}

func (t *memoryTx) MarkUsed(ctx context.Context, id string, u Usage) error {
	c, err := t.CodeByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil || c.IsUsed {
		return newError(CodeUsed, msgUsed)
	}
	c.IsActive = false
	c.IsUsed = true
	uid := u.UserID
	usedAt := u.UsedAt
	c.UsedByUserID = &uid
	c.UsedAt = &usedAt
	c.UpdatedAt = u.UsedAt
	if u.UsedForSubjectID != nil {
		sid := *u.UsedForSubjectID
		c.UsedForSubjectID = &sid
	}
	t.staged[id] = c
	return nil
}

func (t *memoryTx) AttachSubscription(ctx context.Context, uid, email string, sub models.SubscriptionDetails, now time.Time) error {
	t.subs = append(t.subs, stagedSubscription{uid: uid, email: email, sub: sub, now: now})
	return nil
}

func (t *memoryTx) AppendLog(ctx context.Context, l *Log) error {
	cp := *l
	t.logs = append(t.logs, &cp)
	return nil
}

// commit applies staged profile writes before code and log writes, which
// cannot fail.
func (t *memoryTx) commit(ctx context.Context) error {
	for _, s := range t.subs {
		if t.m.profiles == nil {
			continue
		}
		if err := t.m.profiles.AttachSubscription(ctx, s.uid, s.email, s.sub, s.now); err != nil {
			return err
		}
	}
	for id, c := range t.staged {
		t.m.codes[id] = c
	}
	t.m.logs = append(t.m.logs, t.logs...)
	return nil
}
