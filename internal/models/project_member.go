package models

import (
	"github.com/google/uuid"
)

// ProjectMember represents a user's membership and role within a project.
// A project with members has exactly one PROJECT_LEAD.
type ProjectMember struct {
	Base
	ProjectID uuid.UUID   `gorm:"type:char(36);uniqueIndex:idx_project_user;not null" json:"project_id"`
	Project   *Project    `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	UserID    uuid.UUID   `gorm:"type:char(36);uniqueIndex:idx_project_user;not null" json:"user_id"`
	User      *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      ProjectRole `gorm:"size:20;not null;default:MEMBER" json:"role"`
}

func (ProjectMember) TableName() string { return "project_members" }
