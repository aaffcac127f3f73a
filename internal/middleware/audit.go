package middleware

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/projectflow/backend/internal/services"
)

const maxAuditBody = 2000

// AuditRecorder persists one audit row.
type AuditRecorder interface {
	Record(ctx context.Context, entry services.AuditEntry)
}

var sensitiveKeys = []string{"password", "current_password", "new_password", "secret", "token", "access_token"}

var sensitiveField = regexp.MustCompile(`(?i)("(?:` + strings.Join(sensitiveKeys, "|") + `)"\s*:\s*)"[^"]*"`)

// AuditLog records every write request to the system log once the handler
// has finished.
func AuditLog(recorder AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch && method != http.MethodDelete {
			c.Next()
			return
		}

		var body string
		if c.Request.Body != nil {
			raw, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
			body = maskBody(c.ContentType(), string(raw))
			if len(body) > maxAuditBody {
				body = body[:maxAuditBody] + "...[truncated]"
			}
		}

		c.Next()

		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)

		var userID *uuid.UUID
		email := "anonymous"
		if user := CurrentUser(c); user != nil {
			id := user.ID
			userID = &id
			email = user.Email
		}

		level := services.LevelInfo
		if status >= http.StatusBadRequest {
			level = services.LevelWarning
		}

		recorder.Record(c.Request.Context(), services.AuditEntry{
			Level:     level,
			Module:    module,
			Action:    action,
			Message:   formatAuditMessage(email, method, c.Request.URL.Path, status),
			UserID:    userID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Extra: map[string]interface{}{
				"method": method,
				"path":   c.Request.URL.Path,
				"status": status,
				"body":   body,
			},
		})
	}
}

// verbSegments are trailing path segments that name the action themselves.
var verbSegments = map[string]bool{
	"approve":            true,
	"reject":             true,
	"request-assignment": true,
	"approve-assignment": true,
	"reject-assignment":  true,
	"reorder":            true,
	"password":           true,
}

// parseRouteInfo maps "/api/projects/:id/issues" + POST to
// ("projects", "issues.create").
func parseRouteInfo(fullPath, method string) (module, action string) {
	var segments []string
	for _, s := range strings.Split(strings.TrimPrefix(fullPath, "/api/"), "/") {
		if s != "" && !strings.HasPrefix(s, ":") {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return "unknown", strings.ToLower(method)
	}

	module = segments[0]
	switch method {
	case http.MethodPost:
		action = "create"
	case http.MethodPut, http.MethodPatch:
		action = "update"
	case http.MethodDelete:
		action = "delete"
	default:
		action = strings.ToLower(method)
	}
	if len(segments) > 1 {
		last := segments[len(segments)-1]
		if verbSegments[last] {
			action = last
		} else {
			action = last + "." + action
		}
	}
	return module, action
}

func formatAuditMessage(email, method, path string, status int) string {
	outcome := "OK"
	if status >= http.StatusBadRequest {
		outcome = "Failed"
	}
	return fmt.Sprintf("%s %s %s -> %d %s", email, method, path, status, outcome)
}

// maskBody hides credential values. Form bodies are masked per key, multipart
// bodies are dropped and everything else is treated as JSON.
func maskBody(contentType, body string) string {
	switch contentType {
	case binding.MIMEPOSTForm:
		return maskFormFields(body)
	case binding.MIMEMultipartPOSTForm:
		return "[multipart body omitted]"
	}
	return maskSensitiveFields(body)
}

func maskFormFields(body string) string {
	values, err := url.ParseQuery(body)
	if err != nil {
		return "[unparseable form body]"
	}
	for key := range values {
		for _, sensitive := range sensitiveKeys {
			if strings.EqualFold(key, sensitive) {
				values[key] = []string{"***"}
			}
		}
	}
	return values.Encode()
}

func maskSensitiveFields(body string) string {
	return sensitiveField.ReplaceAllString(body, `$1"***"`)
}
