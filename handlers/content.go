package handlers

import (
	"net/http"

	"github.com/Omarrawas/Atmetny1/internal/content"
	"github.com/gin-gonic/gin"
)

type ContentHandler struct {
	svc *content.Service
}

func NewContentHandler(svc *content.Service) *ContentHandler {
	return &ContentHandler{svc: svc}
}

func (h *ContentHandler) Register(rg gin.IRouter) {
	rg.GET("/news", h.News)
	rg.GET("/announcements", h.Announcements)
}

func (h *ContentHandler) News(c *gin.Context) {
	list, err := h.svc.News(c.Request.Context(), intQuery(c, "limit", content.DefaultNewsCount))
	if err != nil {
		internalError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ContentHandler) Announcements(c *gin.Context) {
	list, err := h.svc.ActiveAnnouncements(c.Request.Context(), intQuery(c, "limit", content.DefaultAnnouncementCount))
	if err != nil {
		internalError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}
