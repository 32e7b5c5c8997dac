package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	claimsKey = "claims"
	tokenKey  = "token"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// Revoker reports tokens that were revoked before they expired.
type Revoker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Chain tries each verifier in turn and returns the first success.
type Chain []Verifier

func (ch Chain) Verify(ctx context.Context, raw string) (Token, error) {
	errs := make([]error, 0, len(ch))
	for _, v := range ch {
		if v == nil {
			continue
		}
		tok, err := v.Verify(ctx, raw)
		if err == nil {
			return tok, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no token verifier configured")
	}
	return nil, errors.Join(errs...)
}

func bearer(c *gin.Context) (string, bool) {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	token, ok := strings.CutPrefix(auth, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// authenticate verifies the bearer token and stores its claims. It aborts the
// request and returns false on failure.
func authenticate(c *gin.Context, ver Verifier, rev Revoker, token string) bool {
	if rev != nil {
		revoked, err := rev.IsRevoked(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "token revocation check failed"})
			return false
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return false
		}
	}

	tok, err := ver.Verify(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
		return false
	}

	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
		return false
	}
	if sub, _ := claims["sub"].(string); sub == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
		return false
	}

	c.Set(claimsKey, claims)
	c.Set(tokenKey, token)
	return true
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the
// provided verifier. rev may be nil.
func AuthMiddleware(ver Verifier, rev Revoker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		token, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}
		if authenticate(c, ver, rev, token) {
			c.Next()
		}
	}
}

// OptionalAuth lets anonymous requests through. A supplied token must still
// be valid.
func OptionalAuth(ver Verifier, rev Revoker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		token, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}
		if authenticate(c, ver, rev, token) {
			c.Next()
		}
	}
}

// Claims returns the verified claims, or nil for anonymous requests.
func Claims(c *gin.Context) map[string]interface{} {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]interface{})
	return m
}

// Subject returns the authenticated user id, or "".
func Subject(c *gin.Context) string {
	sub, _ := Claims(c)["sub"].(string)
	return sub
}

// RawToken returns the verified bearer token, or "".
func RawToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}
