package models

import (
	"time"

	"github.com/google/uuid"
)

// Phase is an ordered milestone that groups issues for progress rollup.
type Phase struct {
	Base
	ProjectID uuid.UUID   `gorm:"type:char(36);index;not null" json:"project_id"`
	Name      string      `gorm:"size:200;not null" json:"name"`
	StartDate *time.Time  `json:"start_date"`
	EndDate   *time.Time  `json:"end_date"`
	Order     int         `gorm:"column:order;not null" json:"order"`
	Status    PhaseStatus `gorm:"size:20;not null;default:NOT_STARTED" json:"status"`
	Issues    []Issue     `gorm:"foreignKey:PhaseID" json:"issues,omitempty"`
}

func (Phase) TableName() string { return "phases" }
