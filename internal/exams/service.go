package exams

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Omarrawas/Atmetny1/internal/users"
	"github.com/Omarrawas/Atmetny1/pkg/logger"
	"github.com/Omarrawas/Atmetny1/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	UnknownSubjectName  = "مادة غير معروفة"
	DefaultExamTitle    = "اختبار بدون عنوان"
	DefaultQuestionText = "نص السؤال مفقود"
	unknownSubjectID    = "unknown"
	unknownSubjectLabel = "Unknown Subject"

	DefaultSubjectQuestionLimit = 20
	PointsPerCorrectAnswer      = 10
)

var (
	ErrNotFound    = errors.New("exam not found")
	ErrNoQuestions = errors.New("attempt has no questions")
	log            = logger.Named("exams")
)

// SubjectNamer resolves subject display names by id.
type SubjectNamer interface {
	SubjectNames(ctx context.Context, ids []string) (map[string]string, error)
}

// PointsAwarder credits points to a user profile.
type PointsAwarder interface {
	AddPoints(ctx context.Context, uid string, delta int) error
}

type Service struct {
	repo     Repository
	subjects SubjectNamer
	points   PointsAwarder
	validate *validator.Validate
	now      func() time.Time
}

// NewService wires the exam service. subjects and points may be nil.
func NewService(repo Repository, subjects SubjectNamer, points PointsAwarder) *Service {
	return &Service{
		repo:     repo,
		subjects: subjects,
		points:   points,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func isPlaceholderSubject(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	return n == "" || strings.Contains(n, UnknownSubjectName) || strings.Contains(n, "unknown")
}

func wildcard(v string) string {
	if v == "all" {
		return ""
	}
	return v
}

func (s *Service) subjectNames(ctx context.Context, list []Exam) map[string]string {
	if s.subjects == nil {
		return nil
	}
	ids := make([]string, 0, len(list))
	for _, e := range list {
		if e.SubjectID != "" {
			ids = append(ids, e.SubjectID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	names, err := s.subjects.SubjectNames(ctx, ids)
	if err != nil {
		log.Warnf("resolve subject names: %v", err)
		return nil
	}
	return names
}

// normalizeExam fills the display defaults. A looked-up subject name replaces
// the denormalized one when it is not blank.
func normalizeExam(e Exam, names map[string]string) Exam {
	if n := strings.TrimSpace(names[e.SubjectID]); n != "" {
		e.SubjectName = n
	}
	if isPlaceholderSubject(e.SubjectName) {
		e.SubjectName = UnknownSubjectName
	}
	if e.SubjectID == "" {
		e.SubjectID = unknownSubjectID
	}
	if e.Title == "" {
		e.Title = DefaultExamTitle
	}
	if e.QuestionIDs == nil {
		e.QuestionIDs = []string{}
	}
	if e.TotalQuestions == 0 {
		e.TotalQuestions = len(e.QuestionIDs)
	}
	return e
}

func normalizeQuestion(q Question, optPrefix, subjectID, subjectName string) Question {
	opts := make([]Option, len(q.Options))
	for i, o := range q.Options {
		if o.ID == "" {
			o.ID = fmt.Sprintf("%s-%s-%d", optPrefix, q.ID, i)
		}
		if o.Text == "" {
			o.Text = fmt.Sprintf("خيار %d", i+1)
		}
		opts[i] = o
	}
	q.Options = opts
	if q.QuestionText == "" {
		q.QuestionText = DefaultQuestionText
	}
	if q.SubjectID == "" {
		q.SubjectID = subjectID
	}
	if q.SubjectName == "" {
		q.SubjectName = subjectName
	}
	if q.Points == nil {
		one := 1
		q.Points = &one
	}
	if q.Difficulty == "" {
		q.Difficulty = DifficultyMedium
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
	return q
}

// ListPublic returns published exams, newest first.
func (s *Service) ListPublic(ctx context.Context, f ListFilter) ([]Exam, error) {
	f.SubjectID = wildcard(f.SubjectID)
	f.TeacherID = wildcard(f.TeacherID)
	list, err := s.repo.ListPublished(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	names := s.subjectNames(ctx, list)
	out := make([]Exam, len(list))
	for i, e := range list {
		out[i] = normalizeExam(e, names)
	}
	return out, nil
}

// Get returns the exam with its questions in questionIds order.
func (s *Service) Get(ctx context.Context, id string) (*Exam, error) {
	e, err := s.repo.GetExam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get exam %s: %w", id, err)
	}
	if e == nil {
		return nil, ErrNotFound
	}
	questions, err := s.QuestionsByIDs(ctx, e.QuestionIDs)
	if err != nil {
		return nil, err
	}
	var names map[string]string
	if isPlaceholderSubject(e.SubjectName) {
		names = s.subjectNames(ctx, []Exam{*e})
	}
	out := normalizeExam(*e, names)
	out.Questions = questions
	if e.TotalQuestions == 0 && len(questions) > 0 {
		out.TotalQuestions = len(questions)
	}
	return &out, nil
}

// GetByIDs returns the exams in input order, dropping unknown ids.
func (s *Service) GetByIDs(ctx context.Context, ids []string) ([]Exam, error) {
	if len(ids) == 0 {
		return []Exam{}, nil
	}
	list, err := s.repo.ExamsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("exams by ids: %w", err)
	}
	names := s.subjectNames(ctx, list)
	byID := make(map[string]Exam, len(list))
	for _, e := range list {
		byID[e.ID] = normalizeExam(e, names)
	}
	out := make([]Exam, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// QuestionsByIDs returns the questions in input order, dropping unknown ids.
func (s *Service) QuestionsByIDs(ctx context.Context, ids []string) ([]Question, error) {
	if len(ids) == 0 {
		return []Question{}, nil
	}
	list, err := s.repo.QuestionsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("questions by ids: %w", err)
	}
	byID := make(map[string]Question, len(list))
	for _, q := range list {
		byID[q.ID] = normalizeQuestion(q, "opt", unknownSubjectID, unknownSubjectLabel)
	}
	out := make([]Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

// QuestionsBySubject returns up to limit practice questions of a subject.
func (s *Service) QuestionsBySubject(ctx context.Context, subjectID string, limit int) ([]Question, error) {
	if limit <= 0 {
		limit = DefaultSubjectQuestionLimit
	}
	list, err := s.repo.QuestionsBySubject(ctx, subjectID, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("questions for subject %s: %w", subjectID, err)
	}
	out := make([]Question, len(list))
	for i, q := range list {
		out[i] = normalizeQuestion(q, "opt-subj", subjectID, UnknownSubjectName)
	}
	return out, nil
}

// Grade scores the answers against the questions. Scores are percentages
// rounded to two decimals.
func Grade(questions []Question, answers map[string]string) (score float64, correct int, graded []Answer) {
	graded = make([]Answer, 0, len(questions))
	for _, q := range questions {
		sel := strings.TrimSpace(answers[q.ID])
		a := Answer{QuestionID: q.ID, SelectedOptionID: sel}
		if sel == "" {
			a.SelectedOptionID = NotAnswered
		} else if q.CorrectOptionID != "" && sel == q.CorrectOptionID {
			a.IsCorrect = true
			correct++
		}
		graded = append(graded, a)
	}
	if len(questions) == 0 {
		return 0, 0, graded
	}
	score = math.Round(float64(correct)/float64(len(questions))*100*100) / 100
	return score, correct, graded
}

// SubmitAttempt grades and stores an attempt, then credits points per
// correct answer.
func (s *Service) SubmitAttempt(ctx context.Context, in AttemptInput) (*AttemptResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	ids := in.QuestionIDs
	subjectID := in.SubjectID
	if in.ExamType == GeneralExam {
		e, err := s.repo.GetExam(ctx, in.ExamID)
		if err != nil {
			return nil, fmt.Errorf("get exam %s: %w", in.ExamID, err)
		}
		if e == nil {
			return nil, ErrNotFound
		}
		if len(ids) == 0 {
			ids = e.QuestionIDs
		}
		if subjectID == "" {
			subjectID = e.SubjectID
		}
	}
	questions, err := s.QuestionsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	score, correct, graded := Grade(questions, in.Answers)
	now := s.now()
	a := &Attempt{
		ID:                      uuid.NewString(),
		UserID:                  in.UserID,
		ExamID:                  in.ExamID,
		SubjectID:               subjectID,
		ExamType:                in.ExamType,
		Score:                   score,
		CorrectAnswersCount:     correct,
		TotalQuestionsAttempted: len(questions),
		Answers:                 graded,
		StartedAt:               in.StartedAt,
		CompletedAt:             in.CompletedAt,
		CreatedAt:               now,
	}
	if a.CompletedAt.IsZero() {
		a.CompletedAt = now
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = a.CompletedAt
	}
	if err := s.repo.InsertAttempt(ctx, a); err != nil {
		return nil, fmt.Errorf("save attempt: %w", err)
	}
	metrics.ExamAttempts.WithLabelValues(string(in.ExamType)).Inc()

	res := &AttemptResult{Attempt: a}
	earned := correct * PointsPerCorrectAnswer
	if s.points != nil && earned > 0 {
		switch err := s.points.AddPoints(ctx, in.UserID, earned); {
		case err == nil:
			res.PointsEarned = earned
			log.Infof("user %s earned %d points", in.UserID, earned)
		case errors.Is(err, users.ErrNotFound):
			log.Warnf("user profile not found for uid %s while updating points", in.UserID)
		default:
			log.Errorf("award %d points to %s for attempt %s: %v", earned, in.UserID, a.ID, err)
		}
	}
	return res, nil
}

// ListAttempts returns the user's attempts, newest first.
func (s *Service) ListAttempts(ctx context.Context, uid string, limit int) ([]Attempt, error) {
	list, err := s.repo.ListAttempts(ctx, uid, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list attempts for %s: %w", uid, err)
	}
	return list, nil
}
