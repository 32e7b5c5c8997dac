package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves a Swagger UI page and the OpenAPI document.
// - GET /swagger/index.html
// - GET /swagger/doc.json
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>atmetny API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "atmetny", "version": "v1" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Error": { "type": "object", "properties": { "error": { "type": "string" }, "message": { "type": "string" } } }
    }
  },
  "paths": {
    "/auth/login": {
      "post": {
        "summary": "Log in with a password, an authorization code or an ID token",
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "mode": { "type": "string", "enum": ["password", "auth_code", "id_token"] }, "username": { "type": "string" }, "password": { "type": "string" }, "code": { "type": "string" }, "redirect_uri": { "type": "string" }, "id_token": { "type": "string" } } } } } },
        "responses": { "200": { "description": "access and refresh tokens" }, "401": { "description": "authentication failed" } }
      }
    },
    "/auth/refresh": {
      "post": { "summary": "Rotate the refresh token", "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "refreshToken": { "type": "string" } } } } } }, "responses": { "200": { "description": "new tokens" }, "401": { "description": "invalid refresh token" } } }
    },
    "/auth/logout": {
      "post": { "summary": "End the session", "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "refreshToken": { "type": "string" }, "all": { "type": "boolean" } } } } } }, "responses": { "200": { "description": "logged out" } } }
    },
    "/api/v1/me": {
      "get": { "summary": "Current student profile", "security": [{ "bearer": [] }], "responses": { "200": { "description": "profile" } } },
      "put": { "summary": "Update name, avatar, branch, university or major", "security": [{ "bearer": [] }], "responses": { "200": { "description": "profile" }, "400": { "description": "invalid field" } } }
    },
    "/api/v1/me/subscription": {
      "get": { "summary": "Current subscription with its effective status", "security": [{ "bearer": [] }], "responses": { "200": { "description": "subscription or null" } } }
    },
    "/api/v1/activation/check": {
      "post": { "summary": "Check an activation code", "security": [{ "bearer": [] }], "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "code": { "type": "string" } } } } } }, "responses": { "200": { "description": "check result" } } }
    },
    "/api/v1/activation/confirm": {
      "post": { "summary": "Redeem an activation code", "security": [{ "bearer": [] }], "responses": { "200": { "description": "subscription activated" }, "400": { "description": "incomplete payload or subject required" }, "404": { "description": "code not found" }, "409": { "description": "code unusable" } } }
    },
    "/api/v1/subjects": { "get": { "summary": "List subjects", "responses": { "200": { "description": "subjects" } } } },
    "/api/v1/subjects/{subjectId}": { "get": { "summary": "Get a subject", "responses": { "200": { "description": "subject" }, "404": { "description": "not found" } } } },
    "/api/v1/subjects/{subjectId}/sections": { "get": { "summary": "List sections", "responses": { "200": { "description": "sections" } } } },
    "/api/v1/subjects/{subjectId}/sections/{sectionId}": { "get": { "summary": "Get a section", "responses": { "200": { "description": "section" }, "404": { "description": "not found" } } } },
    "/api/v1/subjects/{subjectId}/sections/{sectionId}/lessons": { "get": { "summary": "List lessons with their lock state", "responses": { "200": { "description": "lessons" } } } },
    "/api/v1/subjects/{subjectId}/sections/{sectionId}/lessons/{lessonId}": { "get": { "summary": "Open a lesson", "responses": { "200": { "description": "lesson" }, "401": { "description": "login required" }, "403": { "description": "locked" }, "404": { "description": "not found" } } } },
    "/api/v1/subjects/{subjectId}/sections/{sectionId}/lessons/{lessonId}/exams": { "get": { "summary": "Exams linked to a lesson", "responses": { "200": { "description": "exams" } } } },
    "/api/v1/subjects/{subjectId}/questions": { "get": { "summary": "Practice questions of a subject", "responses": { "200": { "description": "questions" } } } },
    "/api/v1/exams": { "get": { "summary": "List published exams", "parameters": [{ "name": "ids", "in": "query", "schema": { "type": "string" } }, { "name": "subjectId", "in": "query", "schema": { "type": "string" } }, { "name": "teacherId", "in": "query", "schema": { "type": "string" } }], "responses": { "200": { "description": "exams" } } } },
    "/api/v1/exams/{examId}": { "get": { "summary": "Get an exam with its questions", "responses": { "200": { "description": "exam" }, "404": { "description": "not found" } } } },
    "/api/v1/questions": { "get": { "summary": "Questions by id", "responses": { "200": { "description": "questions" } } } },
    "/api/v1/attempts": {
      "post": { "summary": "Submit an exam attempt", "security": [{ "bearer": [] }], "responses": { "201": { "description": "graded attempt" }, "400": { "description": "invalid attempt" } } },
      "get": { "summary": "Attempt history", "security": [{ "bearer": [] }], "responses": { "200": { "description": "attempts" } } }
    },
    "/api/v1/analysis": {
      "post": { "summary": "Analyze exam results", "security": [{ "bearer": [] }], "responses": { "201": { "description": "analysis" }, "400": { "description": "results too short" }, "503": { "description": "analysis unavailable" } } },
      "get": { "summary": "Analysis history", "security": [{ "bearer": [] }], "responses": { "200": { "description": "analyses" } } }
    },
    "/api/v1/news": { "get": { "summary": "Latest news", "responses": { "200": { "description": "news" } } } },
    "/api/v1/announcements": { "get": { "summary": "Active announcements", "responses": { "200": { "description": "announcements" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
