package services

import (
	"errors"
	"time"

	"github.com/lisho/deontolog-ia-feedback/internal/config"
	"github.com/lisho/deontolog-ia-feedback/internal/models"
	"github.com/lisho/deontolog-ia-feedback/internal/utils"
	"github.com/lisho/deontolog-ia-feedback/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserDisabled       = errors.New("user is disabled")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("incorrect old password")
	ErrExternalAccount    = errors.New("LDAP users cannot change password here")
)

type AuthService struct {
	db          *gorm.DB
	ldapService *LDAPService
	jwtConfig   *config.JWTConfig
	now         func() time.Time
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, ldapService *LDAPService) *AuthService {
	return &AuthService{
		db:          db,
		ldapService: ldapService,
		jwtConfig:   jwtCfg,
		now:         time.Now,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	AuthType string `json:"auth_type" binding:"omitempty,oneof=local ldap"`
}

type LoginResponse struct {
	Token    string       `json:"token"`
	User     *models.User `json:"user"`
	ExpireAt time.Time    `json:"expire_at"`
}

func (s *AuthService) expireHours() int {
	if s.jwtConfig == nil || s.jwtConfig.ExpireHour <= 0 {
		return 24
	}
	return s.jwtConfig.ExpireHour
}

// Login authenticates a back-office user and issues a bearer token.
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	var user *models.User
	var err error

	switch req.AuthType {
	case "", "local":
		user, err = s.localAuth(req.Username, req.Password)
	case "ldap":
		user, err = s.ldapAuth(req.Username, req.Password)
	default:
		return nil, errors.New("invalid auth type")
	}
	if err != nil {
		return nil, err
	}

	hours := s.expireHours()
	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, hours)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.db.Model(user).Update("last_login", now).Error; err != nil {
		logger.Warnf("[Auth] Failed to record last login of %s: %v", user.Username, err)
	}
	user.LastLogin = &now

	return &LoginResponse{
		Token:    token,
		User:     user,
		ExpireAt: now.Add(time.Duration(hours) * time.Hour),
	}, nil
}

func (s *AuthService) localAuth(username, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where(&models.User{Username: username, AuthType: "local"}).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}
	if !utils.CheckPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// ldapAuth provisions directory users on first login as reviewers.
func (s *AuthService) ldapAuth(username, password string) (*models.User, error) {
	if s.ldapService == nil {
		return nil, ErrLDAPDisabled
	}
	ldapUser, err := s.ldapService.Authenticate(username, password)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.Where(&models.User{Username: ldapUser.Username, AuthType: "ldap"}).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Username: ldapUser.Username,
			Email:    ldapUser.Email,
			Nickname: ldapUser.Nickname,
			Role:     models.RoleReviewer,
			AuthType: "ldap",
			IsActive: true,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		logger.Infof("[Auth] Provisioned LDAP user %s", user.Username)
	} else if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	if user.Email != ldapUser.Email || user.Nickname != ldapUser.Nickname {
		user.Email = ldapUser.Email
		user.Nickname = ldapUser.Nickname
		s.db.Model(&user).Updates(map[string]interface{}{"email": user.Email, "nickname": user.Nickname})
	}
	return &user, nil
}

func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateAdminIfNotExists creates admin/admin when there is no administrator.
func (s *AuthService) CreateAdminIfNotExists() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := utils.HashPassword("admin")
	if err != nil {
		return err
	}
	admin := models.User{
		Username: "admin",
		Password: hashed,
		Nickname: "Administrador",
		Role:     models.RoleAdmin,
		AuthType: "local",
		IsActive: true,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}
	logger.Warnf("[Auth] Created default admin user, change its password")
	return nil
}

func (s *AuthService) IsLDAPEnabled() bool {
	return s.ldapService != nil && s.ldapService.IsEnabled()
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func (s *AuthService) ChangePassword(userID uint, req *ChangePasswordRequest) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user.AuthType != "local" {
		return ErrExternalAccount
	}
	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return ErrWrongPassword
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.db.Model(user).Update("password", hashed).Error
}
