package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles.
const (
	RoleAdmin    = "admin"
	RoleReviewer = "reviewer"
)

// User is a back-office account. Evaluators submit anonymously and have none.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password  string         `gorm:"size:255" json:"-"` // empty for LDAP users
	Email     string         `gorm:"size:255" json:"email"`
	Nickname  string         `gorm:"size:100" json:"nickname"`
	Role      string         `gorm:"size:50;default:reviewer" json:"role"`
	AuthType  string         `gorm:"size:20;default:local" json:"auth_type"` // local, ldap
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time     `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// IsAdmin reports whether the user may manage feedback.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
