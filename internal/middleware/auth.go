package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lisho/deontolog-ia-feedback/internal/models"
	"github.com/lisho/deontolog-ia-feedback/internal/utils"
	"github.com/lisho/deontolog-ia-feedback/pkg/response"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

// bearerToken reads "Authorization: Bearer <token>". EventSource clients
// cannot set headers, so a token query parameter is accepted when the
// header is absent.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if t := c.Query("token"); t != "" {
			return t, true
		}
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthRequired rejects requests without a valid JWT.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Abort(c, response.NewUnauthorized("authorization required"))
			return
		}
		claims, err := utils.ParseToken(token)
		if err != nil {
			response.Abort(c, response.NewUnauthorized("invalid or expired token"))
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// StaffRequired admits administrators and reviewers.
func StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		if role != models.RoleAdmin && role != models.RoleReviewer {
			response.Abort(c, response.NewForbidden("staff access required"))
			return
		}
		c.Next()
	}
}

// AdminRequired admits administrators only.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != models.RoleAdmin {
			response.Abort(c, response.NewForbidden("admin access required"))
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) uint {
	if id, ok := c.Get(ContextUserID); ok {
		if v, ok := id.(uint); ok {
			return v
		}
	}
	return 0
}

func GetUsername(c *gin.Context) string {
	return c.GetString(ContextUsername)
}

func GetRole(c *gin.Context) string {
	return c.GetString(ContextRole)
}
