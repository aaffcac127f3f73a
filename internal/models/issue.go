package models

import (
	"time"

	"github.com/google/uuid"
)

// Issue is a unit of work inside a project. AssigneeRequestID is only set
// while AssigneeID is nil.
type Issue struct {
	Base
	Title             string        `gorm:"size:500;not null" json:"title"`
	Description       string        `gorm:"type:text" json:"description"`
	Status            IssueStatus   `gorm:"size:20;index;not null;default:TO_DO" json:"status"`
	Priority          IssuePriority `gorm:"size:20;not null;default:MEDIUM" json:"priority"`
	IssueType         IssueType     `gorm:"size:20;not null;default:TASK" json:"issue_type"`
	ProjectID         uuid.UUID     `gorm:"type:char(36);index;not null" json:"project_id"`
	Project           *Project      `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	ReporterID        uuid.UUID     `gorm:"type:char(36);index;not null" json:"reporter_id"`
	Reporter          *User         `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	AssigneeID        *uuid.UUID    `gorm:"type:char(36);index" json:"assignee_id"`
	Assignee          *User         `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	AssigneeRequestID *uuid.UUID    `gorm:"type:char(36);index" json:"assignee_request_id"`
	AssigneeRequest   *User         `gorm:"foreignKey:AssigneeRequestID" json:"assignee_request,omitempty"`
	PhaseID           *uuid.UUID    `gorm:"type:char(36);index" json:"phase_id"`
	StartDate         *time.Time    `json:"start_date"`
	DueDate           *time.Time    `json:"due_date"`
}

func (Issue) TableName() string { return "issues" }
