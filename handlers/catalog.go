package handlers

import (
	"errors"
	"net/http"

	"github.com/Omarrawas/Atmetny1/internal/catalog"
	"github.com/Omarrawas/Atmetny1/internal/models"
	"github.com/Omarrawas/Atmetny1/internal/users"
	"github.com/Omarrawas/Atmetny1/pkg/middleware"
	"github.com/gin-gonic/gin"
)

const msgCatalogNotFound = "لم يتم العثور على المحتوى المطلوب."

type CatalogHandler struct {
	svc   *catalog.Service
	users *users.Service
}

func NewCatalogHandler(svc *catalog.Service, u *users.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc, users: u}
}

// Register mounts the subject tree; rg should use OptionalAuth so lesson
// locks see the caller's subscription.
func (h *CatalogHandler) Register(rg gin.IRouter) {
	s := rg.Group("/subjects")
	s.GET("", h.Subjects)
	s.GET("/:subjectId", h.Subject)
	s.GET("/:subjectId/sections", h.Sections)
	s.GET("/:subjectId/sections/:sectionId", h.Section)
	s.GET("/:subjectId/sections/:sectionId/lessons", h.Lessons)
	s.GET("/:subjectId/sections/:sectionId/lessons/:lessonId", h.Lesson)
	s.GET("/:subjectId/sections/:sectionId/lessons/:lessonId/exams", h.LessonExams)
}

// catalogError writes the response for a catalog failure.
func (h *CatalogHandler) catalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		fail(c, http.StatusNotFound, "not_found", msgCatalogNotFound)
	case errors.Is(err, catalog.ErrLocked) && middleware.Subject(c) == "":
		fail(c, http.StatusUnauthorized, "login_required", catalog.LoginRequiredMessage)
	case errors.Is(err, catalog.ErrLocked):
		fail(c, http.StatusForbidden, "lesson_locked", catalog.LockedMessage)
	default:
		internalError(c, err, "")
	}
}

// subscription loads the caller's subscription; anonymous callers have none.
func (h *CatalogHandler) subscription(c *gin.Context) (*models.SubscriptionDetails, bool) {
	sub, err := h.users.Subscription(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		internalError(c, err, "")
		return nil, false
	}
	return sub, true
}

func (h *CatalogHandler) Subjects(c *gin.Context) {
	list, err := h.svc.Subjects(c.Request.Context())
	if err != nil {
		h.catalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) Subject(c *gin.Context) {
	s, err := h.svc.Subject(c.Request.Context(), c.Param("subjectId"))
	if err != nil {
		h.catalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *CatalogHandler) Sections(c *gin.Context) {
	list, err := h.svc.Sections(c.Request.Context(), c.Param("subjectId"))
	if err != nil {
		h.catalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) Section(c *gin.Context) {
	s, err := h.svc.Section(c.Request.Context(), c.Param("subjectId"), c.Param("sectionId"))
	if err != nil {
		h.catalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *CatalogHandler) Lessons(c *gin.Context) {
	sub, ok := h.subscription(c)
	if !ok {
		return
	}
	list, err := h.svc.Lessons(c.Request.Context(), c.Param("subjectId"), c.Param("sectionId"), sub)
	if err != nil {
		h.catalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) Lesson(c *gin.Context) {
	sub, ok := h.subscription(c)
	if !ok {
		return
	}
	l, err := h.svc.Lesson(c.Request.Context(), c.Param("subjectId"), c.Param("sectionId"), c.Param("lessonId"), sub)
	if err != nil {
		h.catalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *CatalogHandler) LessonExams(c *gin.Context) {
	sub, ok := h.subscription(c)
	if !ok {
		return
	}
	list, err := h.svc.LessonExams(c.Request.Context(), c.Param("subjectId"), c.Param("sectionId"), c.Param("lessonId"), sub)
	if err != nil {
		h.catalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
