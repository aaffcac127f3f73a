package models

// Project owns its memberships, issues and phases.
type Project struct {
	Base
	Name        string          `gorm:"size:200;not null" json:"name"`
	Key         string          `gorm:"size:4;not null" json:"key"`
	Description string          `gorm:"type:text" json:"description"`
	Members     []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Issues      []Issue         `gorm:"foreignKey:ProjectID" json:"issues,omitempty"`
	Phases      []Phase         `gorm:"foreignKey:ProjectID" json:"phases,omitempty"`
}

func (Project) TableName() string { return "projects" }
