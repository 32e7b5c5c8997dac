package exams

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-process Repository. Put* methods seed it.
type MemoryRepository struct {
	mu        sync.RWMutex
	exams     map[string]Exam
	questions map[string]Question
	order     []string // question insertion order
	attempts  []Attempt
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{exams: map[string]Exam{}, questions: map[string]Question{}}
}

func (m *MemoryRepository) PutExam(e Exam) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exams[e.ID] = e
}

func (m *MemoryRepository) PutQuestion(q Question) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[q.ID]; !ok {
		m.order = append(m.order, q.ID)
	}
	m.questions[q.ID] = q
}

func (m *MemoryRepository) ListPublished(ctx context.Context, f ListFilter) ([]Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Exam{}
	for _, e := range m.exams {
		if !e.Published {
			continue
		}
		if f.SubjectID != "" && e.SubjectID != f.SubjectID {
			continue
		}
		if f.TeacherID != "" && e.TeacherID != f.TeacherID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepository) GetExam(ctx context.Context, id string) (*Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *MemoryRepository) ExamsByIDs(ctx context.Context, ids []string) ([]Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Exam{}
	for id := range uniq(ids) {
		if e, ok := m.exams[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryRepository) QuestionsByIDs(ctx context.Context, ids []string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Question{}
	for id := range uniq(ids) {
		if q, ok := m.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *MemoryRepository) QuestionsBySubject(ctx context.Context, subjectID string, limit int64) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Question{}
	for _, id := range m.order {
		q := m.questions[id]
		if q.SubjectID != subjectID {
			continue
		}
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
		out = append(out, q)
	}
	return out, nil
}

func (m *MemoryRepository) InsertAttempt(ctx context.Context, a *Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, *a)
	return nil
}

func (m *MemoryRepository) ListAttempts(ctx context.Context, uid string, limit int64) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Attempt{}
	for _, a := range m.attempts {
		if a.UserID == uid {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func uniq(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
