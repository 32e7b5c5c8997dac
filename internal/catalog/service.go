package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Omarrawas/Atmetny1/internal/cache"
	"github.com/Omarrawas/Atmetny1/internal/exams"
	"github.com/Omarrawas/Atmetny1/internal/models"
	"github.com/Omarrawas/Atmetny1/pkg/logger"
)

const (
	DefaultSubjectName  = "مادة بدون اسم"
	DefaultSectionTitle = "قسم بدون عنوان"
	DefaultLessonTitle  = "درس بدون عنوان"
	DefaultTeacherName  = "مدرس غير معروف"
	DefaultFileName     = "ملف غير مسمى"

	// LockedMessage is shown to signed-in students without a covering subscription.
	LockedMessage = "يرجى تفعيل اشتراكك في هذه المادة أو اشتراك عام للوصول لهذا الدرس."
	// LoginRequiredMessage is shown to anonymous callers opening a locked lesson.
	LoginRequiredMessage = "يرجى تسجيل الدخول أولاً ثم تفعيل المادة للوصول لهذا الدرس."

	subjectsCacheKey = "subjects"
)

var (
	ErrNotFound = errors.New("catalog entry not found")
	ErrLocked   = errors.New("lesson is locked")
	log         = logger.Named("catalog")
)

// FileSigner issues download URLs for stored lesson files.
type FileSigner interface {
	SignURL(ctx context.Context, key, fileName string) (string, error)
}

// ExamResolver loads exams by id, in the given order.
type ExamResolver interface {
	GetByIDs(ctx context.Context, ids []string) ([]exams.Exam, error)
}

type Service struct {
	repo  Repository
	cache *cache.Cache
	files FileSigner
	exams ExamResolver
	now   func() time.Time
}

// NewService builds the catalog service. The cache and files may be nil.
func NewService(repo Repository, c *cache.Cache, files FileSigner) *Service {
	return &Service{repo: repo, cache: c, files: files, now: func() time.Time { return time.Now().UTC() }}
}

// UseExams sets the resolver used by LessonExams. The exam service depends on
// the catalog for subject names, so it is attached after both exist.
func (s *Service) UseExams(e ExamResolver) { s.exams = e }

func normalizeSubject(sub Subject) Subject {
	if strings.TrimSpace(sub.Name) == "" {
		sub.Name = DefaultSubjectName
	}
	if sub.Branch == "" {
		sub.Branch = BranchCommon
	}
	return sub
}

func normalizeSection(sec Section, subjectID string) Section {
	if sec.Title == "" {
		sec.Title = DefaultSectionTitle
	}
	if sec.SubjectID == "" {
		sec.SubjectID = subjectID
	}
	return sec
}

func normalizeLesson(l Lesson, subjectID, sectionID string) Lesson {
	if l.Title == "" {
		l.Title = DefaultLessonTitle
	}
	if l.SubjectID == "" {
		l.SubjectID = subjectID
	}
	if l.SectionID == "" {
		l.SectionID = sectionID
	}
	teachers := make([]Teacher, len(l.Teachers))
	for i, t := range l.Teachers {
		if t.Name == "" {
			t.Name = DefaultTeacherName
		}
		teachers[i] = t
	}
	l.Teachers = teachers
	files := make([]LessonFile, len(l.Files))
	for i, f := range l.Files {
		if f.Name == "" {
			f.Name = DefaultFileName
		}
		files[i] = f
	}
	l.Files = files
	if l.LinkedExamIDs == nil {
		l.LinkedExamIDs = []string{}
	}
	return l
}

// Subjects returns every subject ordered by name. The list is cached.
func (s *Service) Subjects(ctx context.Context) ([]Subject, error) {
	list, err := cache.Remember(ctx, s.cache, subjectsCacheKey, s.repo.Subjects)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	out := make([]Subject, len(list))
	for i, sub := range list {
		out[i] = normalizeSubject(sub)
	}
	return out, nil
}

func (s *Service) Subject(ctx context.Context, id string) (*Subject, error) {
	sub, err := s.repo.Subject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get subject %s: %w", id, err)
	}
	if sub == nil {
		return nil, ErrNotFound
	}
	n := normalizeSubject(*sub)
	return &n, nil
}

// SubjectNames maps the known ids to their stored names. Unknown ids and blank
// names are left out.
func (s *Service) SubjectNames(ctx context.Context, ids []string) (map[string]string, error) {
	list, err := s.repo.SubjectsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("subjects by ids: %w", err)
	}
	out := make(map[string]string, len(list))
	for _, sub := range list {
		if n := strings.TrimSpace(sub.Name); n != "" {
			out[sub.ID] = n
		}
	}
	return out, nil
}

// InvalidateSubjects drops the cached subject list.
func (s *Service) InvalidateSubjects(ctx context.Context) error {
	return s.cache.Invalidate(ctx, subjectsCacheKey)
}

func (s *Service) Sections(ctx context.Context, subjectID string) ([]Section, error) {
	list, err := s.repo.Sections(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list sections of %s: %w", subjectID, err)
	}
	for i := range list {
		list[i] = normalizeSection(list[i], subjectID)
	}
	return list, nil
}

func (s *Service) Section(ctx context.Context, subjectID, id string) (*Section, error) {
	sec, err := s.repo.Section(ctx, subjectID, id)
	if err != nil {
		return nil, fmt.Errorf("get section %s: %w", id, err)
	}
	if sec == nil {
		return nil, ErrNotFound
	}
	n := normalizeSection(*sec, subjectID)
	return &n, nil
}

func (s *Service) signFiles(ctx context.Context, files []LessonFile) {
	if s.files == nil {
		return
	}
	for i := range files {
		if files[i].Key == "" {
			continue
		}
		u, err := s.files.SignURL(ctx, files[i].Key, files[i].Name)
		if err != nil {
			log.Warnf("sign %s: %v", files[i].Key, err)
			continue
		}
		files[i].URL = u
	}
}

// locked reports whether the caller may not open the lesson at index.
func (s *Service) locked(l *Lesson, index int, sub *models.SubscriptionDetails) bool {
	if !l.LockedByDefault(index) {
		return false
	}
	return !sub.CoversSubject(l.SubjectID, s.now())
}

// Lessons lists a section's lessons with the caller's effective lock state.
// Locked entries carry no body.
func (s *Service) Lessons(ctx context.Context, subjectID, sectionID string, sub *models.SubscriptionDetails) ([]LessonSummary, error) {
	list, err := s.repo.Lessons(ctx, subjectID, sectionID)
	if err != nil {
		return nil, fmt.Errorf("list lessons of %s/%s: %w", subjectID, sectionID, err)
	}
	out := make([]LessonSummary, len(list))
	for i, l := range list {
		l = normalizeLesson(l, subjectID, sectionID)
		ls := LessonSummary{Lesson: l, Locked: s.locked(&l, i, sub)}
		if ls.Locked {
			ls.Content, ls.Notes, ls.VideoURL = "", "", ""
			ls.Files = []LessonFile{}
		} else {
			s.signFiles(ctx, ls.Files)
		}
		out[i] = ls
	}
	return out, nil
}

// Lesson returns a lesson the caller may open, ErrLocked when the lesson
// needs a subscription covering its subject, or ErrNotFound.
func (s *Service) Lesson(ctx context.Context, subjectID, sectionID, id string, sub *models.SubscriptionDetails) (*Lesson, error) {
	l, err := s.repo.Lesson(ctx, subjectID, sectionID, id)
	if err != nil {
		return nil, fmt.Errorf("get lesson %s: %w", id, err)
	}
	if l == nil {
		return nil, ErrNotFound
	}
	n := normalizeLesson(*l, subjectID, sectionID)
	index := 0
	if n.IsLocked == LockUnset {
		if index, err = s.lessonIndex(ctx, subjectID, sectionID, id); err != nil {
			return nil, err
		}
	}
	if s.locked(&n, index, sub) {
		return nil, ErrLocked
	}
	s.signFiles(ctx, n.Files)
	return &n, nil
}

func (s *Service) lessonIndex(ctx context.Context, subjectID, sectionID, id string) (int, error) {
	list, err := s.repo.Lessons(ctx, subjectID, sectionID)
	if err != nil {
		return 0, fmt.Errorf("list lessons of %s/%s: %w", subjectID, sectionID, err)
	}
	for i, l := range list {
		if l.ID == id {
			return i, nil
		}
	}
	return 0, ErrNotFound
}

// LessonExams resolves the exams linked to a lesson the caller may open.
func (s *Service) LessonExams(ctx context.Context, subjectID, sectionID, id string, sub *models.SubscriptionDetails) ([]exams.Exam, error) {
	l, err := s.Lesson(ctx, subjectID, sectionID, id, sub)
	if err != nil {
		return nil, err
	}
	if s.exams == nil || len(l.LinkedExamIDs) == 0 {
		return []exams.Exam{}, nil
	}
	list, err := s.exams.GetByIDs(ctx, l.LinkedExamIDs)
	if err != nil {
		return nil, fmt.Errorf("lesson %s exams: %w", id, err)
	}
	return list, nil
}
