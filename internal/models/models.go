package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the UUID primary key and timestamps shared by the domain tables.
type Base struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// ProjectRole is a member's role inside a single project.
type ProjectRole string

const (
	RoleAdmin       ProjectRole = "ADMIN"
	RoleProjectLead ProjectRole = "PROJECT_LEAD"
	RoleMember      ProjectRole = "MEMBER"
)

func (r ProjectRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleProjectLead, RoleMember:
		return true
	}
	return false
}

type IssueStatus string

const (
	StatusProposed   IssueStatus = "PROPOSED"
	StatusTodo       IssueStatus = "TO_DO"
	StatusInProgress IssueStatus = "IN_PROGRESS"
	StatusInReview   IssueStatus = "IN_REVIEW"
	StatusDone       IssueStatus = "DONE"
)

// IssueStatuses lists statuses in board order.
var IssueStatuses = []IssueStatus{StatusProposed, StatusTodo, StatusInProgress, StatusInReview, StatusDone}

func (s IssueStatus) Valid() bool {
	for _, v := range IssueStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type IssuePriority string

const (
	PriorityLowest  IssuePriority = "LOWEST"
	PriorityLow     IssuePriority = "LOW"
	PriorityMedium  IssuePriority = "MEDIUM"
	PriorityHigh    IssuePriority = "HIGH"
	PriorityHighest IssuePriority = "HIGHEST"
)

func (p IssuePriority) Valid() bool {
	switch p {
	case PriorityLowest, PriorityLow, PriorityMedium, PriorityHigh, PriorityHighest:
		return true
	}
	return false
}

type IssueType string

const (
	TypeTask  IssueType = "TASK"
	TypeBug   IssueType = "BUG"
	TypeStory IssueType = "STORY"
	TypeEpic  IssueType = "EPIC"
)

func (t IssueType) Valid() bool {
	switch t {
	case TypeTask, TypeBug, TypeStory, TypeEpic:
		return true
	}
	return false
}

type PhaseStatus string

const (
	PhaseNotStarted PhaseStatus = "NOT_STARTED"
	PhaseInProgress PhaseStatus = "IN_PROGRESS"
	PhaseCompleted  PhaseStatus = "COMPLETED"
)

func (s PhaseStatus) Valid() bool {
	switch s {
	case PhaseNotStarted, PhaseInProgress, PhaseCompleted:
		return true
	}
	return false
}
