package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Omarrawas/Atmetny1/internal/activation"
	"github.com/Omarrawas/Atmetny1/internal/analysis"
	"github.com/Omarrawas/Atmetny1/internal/catalog"
	"github.com/Omarrawas/Atmetny1/internal/content"
	"github.com/Omarrawas/Atmetny1/internal/exams"
	"github.com/Omarrawas/Atmetny1/internal/models"
	"github.com/Omarrawas/Atmetny1/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// api wires every handler over in-memory stores.
type api struct {
	t          *testing.T
	router     *gin.Engine
	users      *users.Service
	usersRepo  *users.MemoryRepository
	codes      *activation.MemoryStore
	catalog    *catalog.MemoryRepository
	exams      *exams.MemoryRepository
	content    *content.MemoryRepository
	llm        *stubLLM
	analysisDB *analysis.MemoryRepository
}

type stubLLM struct {
	reply string
	err   error
}

func (s *stubLLM) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Content: s.reply}},
	}}, nil
}

func newAPI(t *testing.T) *api {
	a := &api{
		t:          t,
		usersRepo:  users.NewMemoryRepository(),
		catalog:    catalog.NewMemoryRepository(),
		exams:      exams.NewMemoryRepository(),
		content:    content.NewMemoryRepository(),
		llm:        &stubLLM{reply: `{"recommendations":"راجع التكامل","followUpQuestions":"ما هدفك؟"}`},
		analysisDB: analysis.NewMemoryRepository(),
	}
	a.users = users.NewService(a.usersRepo)
	a.codes = activation.NewMemoryStore(a.usersRepo)

	catalogSvc := catalog.NewService(a.catalog, nil, nil)
	examsSvc := exams.NewService(a.exams, catalogSvc, a.users)
	catalogSvc.UseExams(examsSvc)
	analysisSvc := analysis.NewService(a.analysisDB, a.llm, examsSvc, catalogSvc, analysis.Options{})

	r, public, authed := newRouter()
	NewProfileHandler(a.users).Register(authed)
	NewActivationHandler(activation.NewService(a.codes), a.users).Register(authed)
	NewExamsHandler(examsSvc).Register(public, authed)
	NewCatalogHandler(catalogSvc, a.users).Register(public)
	NewContentHandler(content.NewService(a.content, nil)).Register(public)
	NewAnalysisHandler(analysisSvc).Register(authed)
	a.router = r
	return a
}

func (a *api) token(uid string) string {
	return unsignedToken(a.t, map[string]interface{}{"sub": uid, "email": uid + "@atmetny.test", "name": "Student " + uid})
}

func TestProfileEndpoints(t *testing.T) {
	a := newAPI(t)
	tok := a.token("u1")

	w := do(a.router, "GET", "/api/v1/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(a.router, "GET", "/api/v1/me", "", tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var p models.UserProfile
	decode(t, w, &p)
	assert.Equal(t, "u1", p.UID)
	assert.Equal(t, "u1@atmetny.test", p.Email)

	w = do(a.router, "PUT", "/api/v1/me", `{"name":"منى","university":"دمشق","points":9999}`, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &p)
	assert.Equal(t, "منى", p.Name)
	assert.Zero(t, p.Points)

	w = do(a.router, "GET", "/api/v1/me/subscription", "", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subscription":null}`, w.Body.String())
}

func TestActivationFlow(t *testing.T) {
	a := newAPI(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, a.codes.Insert(ctx, []*activation.Code{
		{ID: "c1", EncodedValue: "ABCD-EFGH-JKLM", Name: "شهري", Type: "choose_single_subject_monthly", IsActive: true, ValidFrom: now.Add(-time.Hour), ValidUntil: now.Add(30 * 24 * time.Hour)},
	}))
	tok := a.token("u2")

	w := do(a.router, "POST", "/api/v1/activation/check", `{"code":"NOPE"}`, tok)
	require.Equal(t, http.StatusOK, w.Code)
	var check activation.CheckResult
	decode(t, w, &check)
	assert.False(t, check.IsValid)
	assert.Equal(t, activation.CodeNotFound, check.Reason)

	w = do(a.router, "POST", "/api/v1/activation/check", `{"code":" ABCD-EFGH-JKLM "}`, tok)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &check)
	assert.True(t, check.IsValid)
	assert.True(t, check.NeedsSubjectChoice)

	w = do(a.router, "POST", "/api/v1/activation/confirm", `{"codeId":"c1","codeType":"choose_single_subject_monthly"}`, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, activation.CodeSubjectRequired, errorCode(t, w))

	w = do(a.router, "POST", "/api/v1/activation/confirm", `{"codeId":"missing","codeType":"general_monthly"}`, tok)
	assert.Equal(t, http.StatusNotFound, w.Code)

	body := `{"codeId":"c1","codeType":"choose_single_subject_monthly","chosenSubjectId":"math","chosenSubjectName":"الرياضيات"}`
	w = do(a.router, "POST", "/api/v1/activation/confirm", body, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res activation.ConfirmationResult
	decode(t, w, &res)
	assert.True(t, res.Success)

	w = do(a.router, "POST", "/api/v1/activation/confirm", body, a.token("u3"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, activation.CodeInactive, errorCode(t, w))

	w = do(a.router, "GET", "/api/v1/me/subscription", "", tok)
	require.Equal(t, http.StatusOK, w.Code)
	var sub struct {
		Subscription struct {
			SubjectID       string `json:"subjectId"`
			EffectiveStatus string `json:"effectiveStatus"`
			Active          bool   `json:"active"`
		} `json:"subscription"`
	}
	decode(t, w, &sub)
	assert.Equal(t, "math", sub.Subscription.SubjectID)
	assert.Equal(t, string(models.SubscriptionActive), sub.Subscription.EffectiveStatus)
	assert.True(t, sub.Subscription.Active)
}

func seedExams(a *api) {
	a.catalog.PutSubject(catalog.Subject{ID: "math", Name: "الرياضيات"})
	for i := 1; i <= 3; i++ {
		a.exams.PutQuestion(exams.Question{
			ID:              fmt.Sprintf("q%d", i),
			QuestionText:    fmt.Sprintf("سؤال %d", i),
			SubjectID:       "math",
			Options:         []exams.Option{{ID: "a", Text: "أ"}, {ID: "b", Text: "ب"}},
			CorrectOptionID: "a",
		})
	}
	a.exams.PutExam(exams.Exam{ID: "e1", Title: "نموذج أول", SubjectID: "math", Published: true, QuestionIDs: []string{"q1", "q2", "q3"}})
	a.exams.PutExam(exams.Exam{ID: "draft", SubjectID: "math", QuestionIDs: []string{"q1"}})
}

func TestExamEndpoints(t *testing.T) {
	a := newAPI(t)
	seedExams(a)
	ctx := context.Background()
	_, err := a.users.Save(ctx, models.ProfileWrite{UID: "u4"})
	require.NoError(t, err)
	tok := a.token("u4")

	w := do(a.router, "GET", "/api/v1/exams", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []exams.Exam
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "الرياضيات", list[0].SubjectName)

	w = do(a.router, "GET", "/api/v1/exams/e1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var e exams.Exam
	decode(t, w, &e)
	assert.Len(t, e.Questions, 3)

	w = do(a.router, "GET", "/api/v1/exams/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(a.router, "GET", "/api/v1/subjects/math/questions?limit=2", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var qs []exams.Question
	decode(t, w, &qs)
	assert.Len(t, qs, 2)

	w = do(a.router, "POST", "/api/v1/attempts", `{"examType":"general_exam","examId":"e1","answers":{"q1":"a"}}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(a.router, "POST", "/api/v1/attempts", `{"examType":"general_exam","examId":"e1","answers":{"q1":"a","q2":"a","q3":"b"}}`, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res exams.AttemptResult
	decode(t, w, &res)
	assert.Equal(t, 2, res.Attempt.CorrectAnswersCount)
	assert.InDelta(t, 66.67, res.Attempt.Score, 0.001)
	assert.Equal(t, 2*exams.PointsPerCorrectAnswer, res.PointsEarned)

	w = do(a.router, "POST", "/api/v1/attempts", `{"examType":"subject_practice","subjectId":"math"}`, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(a.router, "POST", "/api/v1/attempts", `{"examType":"general_exam","examId":"ghost"}`, tok)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(a.router, "GET", "/api/v1/attempts", "", tok)
	require.Equal(t, http.StatusOK, w.Code)
	var attempts []exams.Attempt
	decode(t, w, &attempts)
	require.Len(t, attempts, 1)

	p, err := a.users.Get(ctx, "u4")
	require.NoError(t, err)
	assert.Equal(t, 2*exams.PointsPerCorrectAnswer, p.Points)
}

func TestCatalogLockedLesson(t *testing.T) {
	a := newAPI(t)
	a.catalog.PutSubject(catalog.Subject{ID: "phys", Name: "الفيزياء"})
	a.catalog.PutSection(catalog.Section{ID: "s1", SubjectID: "phys", Title: "الحركة"})
	a.catalog.PutLesson(catalog.Lesson{ID: "free", SubjectID: "phys", SectionID: "s1", Order: 1, Content: "مجاني"})
	a.catalog.PutLesson(catalog.Lesson{ID: "paid", SubjectID: "phys", SectionID: "s1", Order: 2, Content: "مدفوع"})
	base := "/api/v1/subjects/phys/sections/s1/lessons"

	w := do(a.router, "GET", "/api/v1/subjects", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = do(a.router, "GET", "/api/v1/subjects/ghost", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(a.router, "GET", base, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []catalog.LessonSummary
	decode(t, w, &list)
	require.Len(t, list, 2)
	assert.False(t, list[0].Locked)
	assert.True(t, list[1].Locked)
	assert.Empty(t, list[1].Content)

	w = do(a.router, "GET", base+"/free", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(a.router, "GET", base+"/paid", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "login_required", errorCode(t, w))

	tok := a.token("u5")
	w = do(a.router, "GET", base+"/paid", "", tok)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "lesson_locked", errorCode(t, w))

	require.NoError(t, a.usersRepo.AttachSubscription(context.Background(), "u5", "u5@atmetny.test", models.SubscriptionDetails{
		Status:    models.SubscriptionActive,
		StartDate: time.Now().UTC().Add(-time.Hour),
		EndDate:   time.Now().UTC().Add(time.Hour),
		SubjectID: models.StringPtr("phys"),
	}, time.Now().UTC()))
	w = do(a.router, "GET", base+"/paid", "", tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var l catalog.Lesson
	decode(t, w, &l)
	assert.Equal(t, "مدفوع", l.Content)

	w = do(a.router, "GET", base+"/paid/exams", "", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestContentEndpoints(t *testing.T) {
	a := newAPI(t)
	now := time.Now().UTC()
	a.content.PutNews(content.NewsItem{ID: "n1", Title: "قديم", PublishedAt: now.Add(-time.Hour), CreatedAt: now.Add(-time.Hour)})
	a.content.PutNews(content.NewsItem{ID: "n2", CreatedAt: now})
	a.content.PutAnnouncement(content.Announcement{ID: "a1", Message: "تنبيه", IsActive: true, CreatedAt: now})
	a.content.PutAnnouncement(content.Announcement{ID: "a2", IsActive: false, CreatedAt: now})

	w := do(a.router, "GET", "/api/v1/news?limit=1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var news []content.NewsItem
	decode(t, w, &news)
	require.Len(t, news, 1)
	assert.Equal(t, "n2", news[0].ID)
	assert.Equal(t, content.DefaultNewsTitle, news[0].Title)

	w = do(a.router, "GET", "/api/v1/announcements", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ann []content.Announcement
	decode(t, w, &ann)
	require.Len(t, ann, 1)
	assert.Equal(t, "a1", ann[0].ID)
}

func TestAnalysisEndpoints(t *testing.T) {
	a := newAPI(t)
	tok := a.token("u6")

	w := do(a.router, "POST", "/api/v1/analysis", `{"examResults":"قصير"}`, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "results_too_short", errorCode(t, w))

	w = do(a.router, "POST", "/api/v1/analysis", "", tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no_results", errorCode(t, w))

	w = do(a.router, "POST", "/api/v1/analysis", `{"examResults":"الرياضيات: 45% في التكامل والاشتقاق"}`, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var got analysis.Analysis
	decode(t, w, &got)
	assert.Equal(t, "راجع التكامل", got.Recommendations)

	a.llm.err = errors.New("upstream down")
	w = do(a.router, "POST", "/api/v1/analysis", `{"examResults":"الرياضيات: 45% في التكامل والاشتقاق"}`, tok)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, analysis.FailedMessage, decodeMessage(t, w))

	w = do(a.router, "GET", "/api/v1/analysis", "", tok)
	require.Equal(t, http.StatusOK, w.Code)
	var history []analysis.Analysis
	decode(t, w, &history)
	assert.Len(t, history, 1)
}
