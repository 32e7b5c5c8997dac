package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Omarrawas/Atmetny1/internal/config"
	"github.com/Omarrawas/Atmetny1/internal/sessions"
	"github.com/Omarrawas/Atmetny1/internal/tokens"
	"github.com/Omarrawas/Atmetny1/internal/users"
	"github.com/Omarrawas/Atmetny1/pkg/middleware"
	"github.com/gin-gonic/gin"
)

const (
	msgLoginFailed    = "فشل تسجيل الدخول. تحقق من بياناتك وحاول مرة أخرى."
	msgSessionExpired = "انتهت صلاحية الجلسة. يرجى تسجيل الدخول مرة أخرى."
)

// LoginRequest selects how the caller proves its identity:
// "password" and "auth_code" go through the Keycloak token endpoint,
// "id_token" submits an ID token the client already holds.
type LoginRequest struct {
	Mode        string `json:"mode" binding:"required,oneof=password auth_code id_token"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
	IDToken     string `json:"id_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
	All          bool   `json:"all"`
}

// TokenRevoker blacklists access tokens until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
	idVerifier  middleware.Verifier
	revoker     TokenRevoker
	httpClient  *http.Client
}

// NewAuthHandler wires the login endpoints. idVerifier checks Keycloak ID
// tokens; revoker may be nil when Redis is not configured.
func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Service, idVerifier middleware.Verifier, revoker TokenRevoker) *AuthHandler {
	return &AuthHandler{
		cfg:         cfg,
		usersSvc:    u,
		sessionsSvc: s,
		idVerifier:  idVerifier,
		revoker:     revoker,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg gin.IRouter) {
	a := rg.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
}

func (h *AuthHandler) accessTTL() time.Duration {
	if h.cfg.JWT.AccessTokenTTL > 0 {
		return h.cfg.JWT.AccessTokenTTL
	}
	return 15 * time.Minute
}

func (h *AuthHandler) refreshTTL() time.Duration {
	if h.cfg.JWT.RefreshTokenTTL > 0 {
		return h.cfg.JWT.RefreshTokenTTL
	}
	return 7 * 24 * time.Hour
}

// Login verifies the caller's identity, upserts the profile and issues an
// access token plus a refresh session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	idToken := req.IDToken
	switch req.Mode {
	case "password", "auth_code":
		if h.cfg.Keycloak.Issuer() == "" {
			fail(c, http.StatusServiceUnavailable, "keycloak_not_configured", msgLoginFailed)
			return
		}
		form := url.Values{"client_id": {h.cfg.Keycloak.ClientID}}
		if h.cfg.Keycloak.ClientSecret != "" {
			form.Set("client_secret", h.cfg.Keycloak.ClientSecret)
		}
		if req.Mode == "password" {
			form.Set("grant_type", "password")
			form.Set("username", req.Username)
			form.Set("password", req.Password)
			form.Set("scope", "openid email profile")
		} else {
			if req.Code == "" || req.RedirectURI == "" {
				fail(c, http.StatusBadRequest, "invalid_request", "code and redirect_uri required for auth_code mode")
				return
			}
			form.Set("grant_type", "authorization_code")
			form.Set("code", req.Code)
			form.Set("redirect_uri", req.RedirectURI)
			log.Debugf("login(auth_code): code length=%d redirect_uri=%s", len(req.Code), req.RedirectURI)
		}
		tr, err := h.exchange(ctx, form)
		if err != nil {
			log.Warnf("keycloak token exchange (%s): %v", req.Mode, err)
			fail(c, http.StatusUnauthorized, "authentication_failed", msgLoginFailed)
			return
		}
		idToken = tr.IDToken
	}
	if idToken == "" {
		fail(c, http.StatusBadRequest, "invalid_request", "id_token required")
		return
	}

	tok, err := h.idVerifier.Verify(ctx, idToken)
	if err != nil {
		fail(c, http.StatusUnauthorized, "invalid_id_token", msgLoginFailed)
		return
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		fail(c, http.StatusUnauthorized, "invalid_id_token", msgLoginFailed)
		return
	}
	u, err := h.usersSvc.UpsertFromClaims(ctx, claims)
	if err != nil {
		internalError(c, err, "")
		return
	}
	if u == nil {
		fail(c, http.StatusUnauthorized, "invalid_id_token", msgLoginFailed)
		return
	}

	rft, err := h.sessionsSvc.CreateSession(ctx, u.UID, u.Email, h.refreshTTL())
	if err != nil {
		internalError(c, fmt.Errorf("create session: %w", err), "")
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.accessTTL())
	if err != nil {
		internalError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  access,
		"refreshToken": rft,
		"user":         u,
		"expiresIn":    int(h.accessTTL().Seconds()),
	})
}

// Refresh rotates the refresh token and returns a fresh access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	next, sess, err := h.sessionsSvc.Rotate(ctx, req.RefreshToken, h.refreshTTL())
	if err != nil {
		internalError(c, err, "")
		return
	}
	if sess == nil {
		fail(c, http.StatusUnauthorized, "invalid_refresh_token", msgSessionExpired)
		return
	}
	u, err := h.usersSvc.Get(ctx, sess.UID)
	if err != nil {
		internalError(c, err, "")
		return
	}
	if u == nil {
		_ = h.sessionsSvc.DeleteRefresh(ctx, next)
		fail(c, http.StatusUnauthorized, "invalid_refresh_token", msgSessionExpired)
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.accessTTL())
	if err != nil {
		internalError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  access,
		"refreshToken": next,
		"expiresIn":    int(h.accessTTL().Seconds()),
	})
}

// Logout removes the refresh session (or every session of the user with
// "all") and blacklists the presented access token for its remaining life.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	if at, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok && h.revoker != nil {
		if ttl := tokens.Remaining(at); ttl > 0 {
			if err := h.revoker.Revoke(ctx, at, ttl); err != nil {
				internalError(c, fmt.Errorf("blacklist access token: %w", err), "")
				return
			}
		}
	}

	if req.All {
		sess, err := h.sessionsSvc.ValidateRefresh(ctx, req.RefreshToken)
		if err != nil {
			internalError(c, err, "")
			return
		}
		if sess != nil {
			if err := h.sessionsSvc.RevokeAll(ctx, sess.UID); err != nil {
				internalError(c, err, "")
				return
			}
		}
	}
	if err := h.sessionsSvc.DeleteRefresh(ctx, req.RefreshToken); err != nil {
		internalError(c, fmt.Errorf("remove session: %w", err), "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
}

// exchange posts form to the realm token endpoint. A 401 with a client secret
// is retried once with HTTP Basic client authentication.
func (h *AuthHandler) exchange(ctx context.Context, form url.Values) (*tokenResponse, error) {
	tokenURL := h.cfg.Keycloak.Issuer() + "/protocol/openid-connect/token"
	post := func(basic bool) (*http.Response, error) {
		body := form
		if basic {
			body = url.Values{}
			for k, v := range form {
				if k != "client_secret" {
					body[k] = v
				}
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(body.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if basic {
			req.SetBasicAuth(h.cfg.Keycloak.ClientID, h.cfg.Keycloak.ClientSecret)
		}
		return h.httpClient.Do(req)
	}

	resp, err := post(false)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && h.cfg.Keycloak.ClientSecret != "" {
		resp.Body.Close()
		log.Warnf("token endpoint returned 401, retrying with basic client auth")
		if resp, err = post(true); err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, err
	}
	return &tr, nil
}
