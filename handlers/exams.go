package handlers

import (
	"errors"
	"net/http"

	"github.com/Omarrawas/Atmetny1/internal/exams"
	"github.com/Omarrawas/Atmetny1/pkg/middleware"
	"github.com/gin-gonic/gin"
)

const (
	msgExamNotFound = "لم يتم العثور على الاختبار."
	msgNoQuestions  = "لا توجد أسئلة في هذه المحاولة."
)

type ExamsHandler struct {
	svc *exams.Service
}

func NewExamsHandler(svc *exams.Service) *ExamsHandler {
	return &ExamsHandler{svc: svc}
}

// Register mounts the public read routes on public and the attempt routes on
// authed.
func (h *ExamsHandler) Register(public, authed gin.IRouter) {
	public.GET("/exams", h.List)
	public.GET("/exams/:examId", h.Get)
	public.GET("/questions", h.Questions)
	public.GET("/subjects/:subjectId/questions", h.SubjectQuestions)

	authed.POST("/attempts", h.Submit)
	authed.GET("/attempts", h.Attempts)
}

// List returns published exams filtered by subjectId/teacherId, or the exams
// named by ids (comma separated) in that order.
func (h *ExamsHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	if ids := listQuery(c, "ids"); len(ids) > 0 {
		list, err := h.svc.GetByIDs(ctx, ids)
		if err != nil {
			internalError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, list)
		return
	}
	list, err := h.svc.ListPublic(ctx, exams.ListFilter{SubjectID: c.Query("subjectId"), TeacherID: c.Query("teacherId")})
	if err != nil {
		internalError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ExamsHandler) Get(c *gin.Context) {
	e, err := h.svc.Get(c.Request.Context(), c.Param("examId"))
	if errors.Is(err, exams.ErrNotFound) {
		fail(c, http.StatusNotFound, "not_found", msgExamNotFound)
		return
	}
	if err != nil {
		internalError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *ExamsHandler) Questions(c *gin.Context) {
	list, err := h.svc.QuestionsByIDs(c.Request.Context(), listQuery(c, "ids"))
	if err != nil {
		internalError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ExamsHandler) SubjectQuestions(c *gin.Context) {
	limit := intQuery(c, "limit", exams.DefaultSubjectQuestionLimit)
	list, err := h.svc.QuestionsBySubject(c.Request.Context(), c.Param("subjectId"), limit)
	if err != nil {
		internalError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}

// Submit grades an answer sheet for the caller and credits points.
func (h *ExamsHandler) Submit(c *gin.Context) {
	var in exams.AttemptInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	in.UserID = middleware.Subject(c)
	res, err := h.svc.SubmitAttempt(c.Request.Context(), in)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, res)
	case isValidation(err):
		badRequest(c, err)
	case errors.Is(err, exams.ErrNotFound):
		fail(c, http.StatusNotFound, "not_found", msgExamNotFound)
	case errors.Is(err, exams.ErrNoQuestions):
		fail(c, http.StatusBadRequest, "no_questions", msgNoQuestions)
	default:
		internalError(c, err, "")
	}
}

func (h *ExamsHandler) Attempts(c *gin.Context) {
	list, err := h.svc.ListAttempts(c.Request.Context(), middleware.Subject(c), intQuery(c, "limit", 50))
	if err != nil {
		internalError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}
