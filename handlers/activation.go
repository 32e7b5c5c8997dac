package handlers

import (
	"net/http"

	"github.com/Omarrawas/Atmetny1/internal/activation"
	"github.com/Omarrawas/Atmetny1/internal/users"
	"github.com/Omarrawas/Atmetny1/pkg/middleware"
	"github.com/gin-gonic/gin"
)

type checkRequest struct {
	Code string `json:"code"`
}

type confirmRequest struct {
	CodeID            string `json:"codeId"`
	CodeType          string `json:"codeType"`
	ChosenSubjectID   string `json:"chosenSubjectId"`
	ChosenSubjectName string `json:"chosenSubjectName"`
}

type ActivationHandler struct {
	svc   *activation.Service
	users *users.Service
}

func NewActivationHandler(svc *activation.Service, u *users.Service) *ActivationHandler {
	return &ActivationHandler{svc: svc, users: u}
}

// Register mounts /activation; rg must be behind AuthMiddleware.
func (h *ActivationHandler) Register(rg gin.IRouter) {
	a := rg.Group("/activation")
	a.POST("/check", h.Check)
	a.POST("/confirm", h.Confirm)
}

// activationStatus maps redemption failures onto HTTP statuses.
func activationStatus(code string) int {
	switch code {
	case activation.CodeIncompletePayload, activation.CodeSubjectRequired, activation.CodeEmpty:
		return http.StatusBadRequest
	case activation.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusConflict
	}
}

// Check reports whether a code can be redeemed. Invalid codes are a normal
// 200 response with isValid=false.
func (h *ActivationHandler) Check(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.Check(c.Request.Context(), req.Code)
	if err != nil {
		internalError(c, err, activation.MsgCheckFailed)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Confirm redeems a code for the caller.
func (h *ActivationHandler) Confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	uid := middleware.Subject(c)
	email, _ := middleware.Claims(c)["email"].(string)
	if email == "" {
		p, err := h.users.Get(ctx, uid)
		if err != nil {
			internalError(c, err, activation.MsgConfirmFailed)
			return
		}
		if p != nil {
			email = p.Email
		}
	}

	res, err := h.svc.Confirm(ctx, activation.Confirmation{
		UserID:            uid,
		Email:             email,
		CodeID:            req.CodeID,
		CodeType:          req.CodeType,
		ChosenSubjectID:   req.ChosenSubjectID,
		ChosenSubjectName: req.ChosenSubjectName,
	})
	if err != nil {
		if e, ok := activation.AsError(err); ok {
			fail(c, activationStatus(e.Code), e.Code, e.Message)
			return
		}
		internalError(c, err, activation.MsgConfirmFailed)
		return
	}
	c.JSON(http.StatusOK, res)
}
