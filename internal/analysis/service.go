package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Omarrawas/Atmetny1/internal/exams"
	"github.com/Omarrawas/Atmetny1/pkg/logger"
	"github.com/Omarrawas/Atmetny1/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel        = openai.GPT4oMini
	DefaultHistoryLimit = 20
	recentAttempts      = 10

	// ResultsTooShortMessage asks the student for more detailed results.
	ResultsTooShortMessage = "الرجاء إدخال نتائج اختبارات مفصلة."
	// FailedMessage is shown when the analysis or its storage fails.
	FailedMessage = "حدث خطأ أثناء محاولة تحليل أدائك أو حفظ النتائج. الرجاء المحاولة مرة أخرى."
)

var (
	ErrResultsTooShort = errors.New("exam results too short")
	ErrNoResults       = errors.New("no exam results to analyze")
	ErrEmptyReply      = errors.New("model returned no recommendations")
	log                = logger.Named("analysis")
)

// AttemptLister returns a user's attempts, newest first.
type AttemptLister interface {
	ListAttempts(ctx context.Context, uid string, limit int) ([]exams.Attempt, error)
}

type Service struct {
	repo     Repository
	llm      Completer
	attempts AttemptLister
	subjects exams.SubjectNamer
	model    string
	persona  string
	validate *validator.Validate
	now      func() time.Time
}

// Options tune the model call. Zero values select the defaults.
type Options struct {
	Model   string
	Persona string
}

// NewService wires the analyzer. llm nil makes Analyze return
// ErrNotConfigured; attempts and subjects may be nil.
func NewService(repo Repository, llm Completer, attempts AttemptLister, subjects exams.SubjectNamer, opts Options) *Service {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Persona == "" {
		opts.Persona = defaultPersona
	}
	return &Service{
		repo:     repo,
		llm:      llm,
		attempts: attempts,
		subjects: subjects,
		model:    opts.Model,
		persona:  opts.Persona,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) recentResults(ctx context.Context, uid string) (string, error) {
	if s.attempts == nil {
		return "", ErrNoResults
	}
	list, err := s.attempts.ListAttempts(ctx, uid, recentAttempts)
	if err != nil {
		return "", fmt.Errorf("recent attempts: %w", err)
	}
	if len(list) == 0 {
		return "", ErrNoResults
	}
	var names map[string]string
	if s.subjects != nil {
		ids := make([]string, 0, len(list))
		for _, a := range list {
			if a.SubjectID != "" {
				ids = append(ids, a.SubjectID)
			}
		}
		if names, err = s.subjects.SubjectNames(ctx, ids); err != nil {
			log.Warnf("resolve subject names: %v", err)
		}
	}
	return summarizeAttempts(list, names), nil
}

// parseReply reads the JSON reply. Replies that are not JSON are taken as the
// recommendations text.
func parseReply(content string) Output {
	raw := strings.TrimSpace(content)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	var out Output
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &out); err != nil {
		return Output{Recommendations: strings.TrimSpace(content)}
	}
	out.Recommendations = strings.TrimSpace(out.Recommendations)
	out.FollowUpQuestions = strings.TrimSpace(out.FollowUpQuestions)
	return out
}

// Analyze asks the model for recommendations and stores the result.
func (s *Service) Analyze(ctx context.Context, uid string, in Input) (*Analysis, error) {
	if s.llm == nil {
		return nil, ErrNotConfigured
	}
	in.ExamResults = strings.TrimSpace(in.ExamResults)
	in.StudentGoals = strings.TrimSpace(in.StudentGoals)
	if err := s.validate.Struct(in); err != nil {
		return nil, ErrResultsTooShort
	}
	if in.ExamResults == "" {
		results, err := s.recentResults(ctx, uid)
		if err != nil {
			return nil, err
		}
		in.ExamResults = results
	}

	resp, err := s.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: s.persona},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(in.ExamResults, in.StudentGoals)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		metrics.AIAnalyses.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		metrics.AIAnalyses.WithLabelValues("empty").Inc()
		return nil, ErrEmptyReply
	}
	out := parseReply(resp.Choices[0].Message.Content)
	if out.Recommendations == "" {
		metrics.AIAnalyses.WithLabelValues("empty").Inc()
		return nil, ErrEmptyReply
	}

	a := &Analysis{
		ID:                    uuid.NewString(),
		UserID:                uid,
		UserExamAttemptID:     in.AttemptID,
		InputExamResultsText:  in.ExamResults,
		InputStudentGoalsText: in.StudentGoals,
		Recommendations:       out.Recommendations,
		FollowUpQuestions:     out.FollowUpQuestions,
		AnalyzedAt:            s.now(),
	}
	if err := s.repo.Insert(ctx, a); err != nil {
		metrics.AIAnalyses.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	metrics.AIAnalyses.WithLabelValues("ok").Inc()
	log.Infof("analysis %s saved for %s", a.ID, uid)
	return a, nil
}

// History returns the user's analyses, newest first.
func (s *Service) History(ctx context.Context, uid string, limit int) ([]Analysis, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	list, err := s.repo.History(ctx, uid, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("analysis history for %s: %w", uid, err)
	}
	return list, nil
}
