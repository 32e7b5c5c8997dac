package handlers

import (
	"net/http"
	"time"

	"github.com/Omarrawas/Atmetny1/internal/models"
	"github.com/Omarrawas/Atmetny1/internal/users"
	"github.com/Omarrawas/Atmetny1/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// profileUpdate is what students may change on their own profile. Points,
// levels and subscriptions are written by the server only.
type profileUpdate struct {
	Name         *string        `json:"name"`
	AvatarURL    *string        `json:"avatarUrl"`
	AvatarHint   *string        `json:"avatarHint"`
	StudentGoals *string        `json:"studentGoals"`
	Branch       *models.Branch `json:"branch"`
	University   *string        `json:"university"`
	Major        *string        `json:"major"`
}

type subscriptionView struct {
	*models.SubscriptionDetails
	EffectiveStatus models.SubscriptionStatus `json:"effectiveStatus"`
	Active          bool                      `json:"active"`
}

type ProfileHandler struct {
	users *users.Service
	now   func() time.Time
}

func NewProfileHandler(u *users.Service) *ProfileHandler {
	return &ProfileHandler{users: u, now: func() time.Time { return time.Now().UTC() }}
}

// Register mounts the /me routes; rg must be behind AuthMiddleware.
func (h *ProfileHandler) Register(rg gin.IRouter) {
	rg.GET("/me", h.Get)
	rg.PUT("/me", h.Update)
	rg.GET("/me/subscription", h.Subscription)
}

// Get returns the caller's profile, creating it from the token claims on
// first access.
func (h *ProfileHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.users.Get(ctx, middleware.Subject(c))
	if err != nil {
		internalError(c, err, "")
		return
	}
	if p == nil {
		if p, err = h.users.UpsertFromClaims(ctx, middleware.Claims(c)); err != nil {
			internalError(c, err, "")
			return
		}
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) Update(c *gin.Context) {
	var req profileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.users.Save(c.Request.Context(), models.ProfileWrite{
		UID:          middleware.Subject(c),
		Name:         req.Name,
		AvatarURL:    req.AvatarURL,
		AvatarHint:   req.AvatarHint,
		StudentGoals: req.StudentGoals,
		Branch:       req.Branch,
		University:   req.University,
		Major:        req.Major,
	})
	if err != nil {
		if isValidation(err) {
			badRequest(c, err)
			return
		}
		internalError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, p)
}

// Subscription returns the caller's subscription with its status at now.
func (h *ProfileHandler) Subscription(c *gin.Context) {
	sub, err := h.users.Subscription(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		internalError(c, err, "")
		return
	}
	if sub == nil {
		c.JSON(http.StatusOK, gin.H{"subscription": nil})
		return
	}
	now := h.now()
	c.JSON(http.StatusOK, gin.H{"subscription": subscriptionView{
		SubscriptionDetails: sub,
		EffectiveStatus:     sub.EffectiveStatus(now),
		Active:              sub.ActiveAt(now),
	}})
}
