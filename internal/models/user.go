package models

import (
	"time"
)

const (
	AuthTypeLocal = "local"
	AuthTypeLDAP  = "ldap"
)

// User is an account in the single organization. Superusers act as ADMIN in
// every project and never hold an issue assignment.
type User struct {
	Base
	Email              string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName           string     `gorm:"size:200" json:"full_name"`
	HashedPassword     string     `gorm:"size:255" json:"-"` // empty for LDAP users
	AuthType           string     `gorm:"size:20;default:local" json:"auth_type"`
	IsSuperuser        bool       `gorm:"not null" json:"is_superuser"`
	IsActive           bool       `gorm:"not null" json:"is_active"`
	NotifyOnAssignment bool       `gorm:"not null" json:"notify_on_assignment"`
	NotifyOnProposal   bool       `gorm:"not null" json:"notify_on_proposal"`
	LastLogin          *time.Time `json:"last_login"`
}

func (User) TableName() string { return "users" }
