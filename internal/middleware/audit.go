package middleware

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lisho/deontolog-ia-feedback/internal/services"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const auditBodyLimit = 2000

var (
	titleCaser    = cases.Title(language.Spanish)
	sensitiveKeys = []string{"password", "old_password", "new_password", "api_key", "secret", "token", "bind_password"}
)

// AuditLog writes one system log row per back-office write request.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != "POST" && method != "PUT" && method != "PATCH" && method != "DELETE" {
			c.Next()
			return
		}

		body := captureBody(c)

		c.Next()

		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)
		message := formatAuditMessage(GetUsername(c), method, c.Request.URL.Path, status)

		var uid *uint
		if userID := GetUserID(c); userID > 0 {
			uid = &userID
		}

		extra := map[string]interface{}{
			"method": method,
			"path":   c.Request.URL.Path,
			"status": status,
			"body":   body,
			"audit":  true,
		}
		if status >= 400 {
			services.LogWarning(module, action, message, uid, c.ClientIP(), c.Request.UserAgent(), extra)
			return
		}
		services.LogInfo(module, action, message, uid, c.ClientIP(), c.Request.UserAgent(), extra)
	}
}

// captureBody reads the request body for the audit row and puts it back.
// Uploaded files are not copied.
func captureBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return "[multipart]"
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	snippet := maskSensitiveFields(string(raw))
	if len(snippet) > auditBodyLimit {
		snippet = snippet[:auditBodyLimit] + "...[truncated]"
	}
	return snippet
}

// parseRouteInfo maps a route pattern to a module and action, for example
// "/api/admin/llm-configs/:id" with PUT gives "Llm Configs" and "Update".
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/api/")
	path = strings.TrimPrefix(path, "admin/")

	segment := strings.SplitN(path, "/", 2)[0]
	if segment == "" || strings.HasPrefix(segment, ":") {
		module = "Unknown"
	} else {
		module = titleCaser.String(strings.ReplaceAll(segment, "-", " "))
	}

	switch method {
	case "POST":
		action = "Create"
	case "PUT", "PATCH":
		action = "Update"
	case "DELETE":
		action = "Delete"
	default:
		action = method
	}
	return module, action
}

func formatAuditMessage(username, method, path string, status int) string {
	result := "OK"
	if status < 200 || status >= 300 {
		result = fmt.Sprintf("Failed (%d)", status)
	}
	if username == "" {
		username = "anonymous"
	}
	return fmt.Sprintf("[Audit] %s %s %s -> %s", username, method, path, result)
}

func maskSensitiveFields(body string) string {
	for _, key := range sensitiveKeys {
		body = maskJSONValue(body, key)
	}
	return body
}

// maskJSONValue hides every quoted string value of key in body.
func maskJSONValue(body, key string) string {
	needle := `"` + key + `"`
	var b strings.Builder
	rest := body
	for {
		idx := strings.Index(rest, needle)
		if idx == -1 {
			b.WriteString(rest)
			return b.String()
		}
		end := idx + len(needle)
		b.WriteString(rest[:end])
		rest = rest[end:]

		i := 0
		for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t') {
			i++
		}
		if i >= len(rest) || rest[i] != ':' {
			continue
		}
		i++
		for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t') {
			i++
		}
		if i >= len(rest) || rest[i] != '"' {
			continue
		}
		closing := strings.Index(rest[i+1:], `"`)
		if closing == -1 {
			continue
		}
		b.WriteString(rest[:i+1])
		b.WriteString("***")
		rest = rest[i+1+closing:]
	}
}
