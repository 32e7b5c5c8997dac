package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Omarrawas/Atmetny1/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// MsgUnexpected is the localized body of unexpected 500 responses.
const MsgUnexpected = "حدث خطأ غير متوقع. الرجاء المحاولة مرة أخرى."

var log = logger.Named("handlers")

// fail writes the uniform {"error": code, "message": msg} body.
func fail(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": msg})
}

func badRequest(c *gin.Context, err error) {
	fail(c, http.StatusBadRequest, "invalid_request", err.Error())
}

// internalError logs err and writes a 500 carrying msg, or MsgUnexpected.
func internalError(c *gin.Context, err error, msg string) {
	log.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	if msg == "" {
		msg = MsgUnexpected
	}
	fail(c, http.StatusInternalServerError, "internal", msg)
}

// intQuery parses a positive integer query parameter, returning def when it
// is missing or invalid.
func intQuery(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// listQuery splits a comma separated query parameter, dropping blanks.
func listQuery(c *gin.Context, name string) []string {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isValidation(err error) bool {
	var ve validator.ValidationErrors
	return errors.As(err, &ve)
}
