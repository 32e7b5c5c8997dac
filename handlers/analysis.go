package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/Omarrawas/Atmetny1/internal/analysis"
	"github.com/Omarrawas/Atmetny1/pkg/middleware"
	"github.com/gin-gonic/gin"
)

const msgNoResults = "لا توجد نتائج اختبارات لتحليلها بعد."

type AnalysisHandler struct {
	svc *analysis.Service
}

func NewAnalysisHandler(svc *analysis.Service) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

// Register mounts /analysis; rg must be behind AuthMiddleware.
func (h *AnalysisHandler) Register(rg gin.IRouter) {
	rg.POST("/analysis", h.Analyze)
	rg.GET("/analysis", h.History)
}

func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var in analysis.Input
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	a, err := h.svc.Analyze(c.Request.Context(), middleware.Subject(c), in)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, a)
	case errors.Is(err, analysis.ErrResultsTooShort):
		fail(c, http.StatusBadRequest, "results_too_short", analysis.ResultsTooShortMessage)
	case errors.Is(err, analysis.ErrNoResults):
		fail(c, http.StatusBadRequest, "no_results", msgNoResults)
	case errors.Is(err, analysis.ErrNotConfigured):
		fail(c, http.StatusServiceUnavailable, "analysis_unavailable", analysis.FailedMessage)
	case errors.Is(err, analysis.ErrEmptyReply):
		fail(c, http.StatusBadGateway, "empty_reply", analysis.FailedMessage)
	default:
		internalError(c, err, analysis.FailedMessage)
	}
}

func (h *AnalysisHandler) History(c *gin.Context) {
	list, err := h.svc.History(c.Request.Context(), middleware.Subject(c), intQuery(c, "limit", analysis.DefaultHistoryLimit))
	if err != nil {
		internalError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}
