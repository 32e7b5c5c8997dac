package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-process Repository seeded through the Put methods.
type MemoryRepository struct {
	mu       sync.RWMutex
	subjects map[string]Subject
	sections map[string]Section
	lessons  map[string]Lesson
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		subjects: map[string]Subject{},
		sections: map[string]Section{},
		lessons:  map[string]Lesson{},
	}
}

func (m *MemoryRepository) PutSubject(s Subject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects[s.ID] = s
}

func (m *MemoryRepository) PutSection(s Section) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sections[s.ID] = s
}

func (m *MemoryRepository) PutLesson(l Lesson) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lessons[l.ID] = l
}

func (m *MemoryRepository) Subjects(ctx context.Context) ([]Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Subject, 0, len(m.subjects))
	for _, s := range m.subjects {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepository) Subject(ctx context.Context, id string) (*Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subjects[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryRepository) SubjectsByIDs(ctx context.Context, ids []string) ([]Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Subject{}
	seen := map[string]bool{}
	for _, id := range ids {
		if s, ok := m.subjects[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryRepository) Sections(ctx context.Context, subjectID string) ([]Section, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Section{}
	for _, s := range m.sections {
		if s.SubjectID == subjectID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryRepository) Section(ctx context.Context, subjectID, id string) (*Section, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sections[id]
	if !ok || s.SubjectID != subjectID {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryRepository) Lessons(ctx context.Context, subjectID, sectionID string) ([]Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Lesson{}
	for _, l := range m.lessons {
		if l.SubjectID == subjectID && l.SectionID == sectionID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryRepository) Lesson(ctx context.Context, subjectID, sectionID, id string) (*Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lessons[id]
	if !ok || l.SubjectID != subjectID || l.SectionID != sectionID {
		return nil, nil
	}
	return &l, nil
}
