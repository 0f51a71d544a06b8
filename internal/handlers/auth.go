package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/lisho/deontolog-ia-feedback/internal/middleware"
	"github.com/lisho/deontolog-ia-feedback/internal/services"
	"github.com/lisho/deontolog-ia-feedback/pkg/response"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: auth}
}

// Login issues a bearer token for back-office users.
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		services.LogWarning("Auth", "Login", "Failed login for "+req.Username, nil, c.ClientIP(), c.Request.UserAgent(), map[string]interface{}{
			"auth_type": req.AuthType,
			"reason":    err.Error(),
		})
		switch {
		case errors.Is(err, services.ErrLDAPDisabled):
			response.BadRequest(c, "la autenticación LDAP no está habilitada")
		case errors.Is(err, services.ErrUserDisabled):
			response.Forbidden(c, "el usuario está deshabilitado")
		default:
			response.Unauthorized(c, "usuario o contraseña incorrectos")
		}
		return
	}

	uid := resp.User.ID
	services.LogInfo("Auth", "Login", "User "+resp.User.Username+" logged in", &uid, c.ClientIP(), c.Request.UserAgent(), nil)
	response.Success(c, resp)
}

// GetCurrentUser returns the logged-in user.
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.authService.GetUserByID(middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			response.NotFound(c, "usuario no encontrado")
			return
		}
		fail(c, err)
		return
	}
	response.Success(c, user)
}

// GET /api/auth/config
func (h *AuthHandler) GetAuthConfig(c *gin.Context) {
	response.Success(c, gin.H{"ldap_enabled": h.authService.IsLDAPEnabled()})
}

// Logout is acknowledged only; tokens are dropped by the client.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	response.Success(c, gin.H{"message": "sesión cerrada"})
}

// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	err := h.authService.ChangePassword(middleware.GetUserID(c), &req)
	switch {
	case err == nil:
		response.Success(c, gin.H{"message": "contraseña actualizada"})
	case errors.Is(err, services.ErrWrongPassword):
		response.BadRequest(c, "la contraseña actual no es correcta")
	case errors.Is(err, services.ErrExternalAccount):
		response.Forbidden(c, "los usuarios LDAP cambian su contraseña en el directorio")
	case errors.Is(err, services.ErrUserNotFound):
		response.NotFound(c, "usuario no encontrado")
	default:
		fail(c, err)
	}
}
