// Package domain contains persistence models for projects.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ProjectStatus string

const (
	ProjectStatusPlanned   ProjectStatus = "planned"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

func ValidStatus(s ProjectStatus) bool {
	switch s {
	case ProjectStatusPlanned, ProjectStatusActive, ProjectStatusOnHold,
		ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	default:
		return false
	}
}

// Project groups the estimates, invoices, and expenses for one job site.
type Project struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID  `gorm:"not null;index" json:"organization_id"`
	ClientID    *snowflake.ID `gorm:"index" json:"client_id,omitempty"`
	Name        string        `gorm:"type:text;not null" json:"name"`
	Description string        `gorm:"type:text" json:"description,omitempty"`
	Status      ProjectStatus `gorm:"type:text;not null;default:'planned'" json:"status"`
	Address     string        `gorm:"type:text" json:"address,omitempty"`

	// BudgetAmount is in minor units, 0 when no budget is tracked.
	BudgetAmount int64 `gorm:"not null;default:0" json:"budget_amount"`

	StartDate *time.Time `gorm:"" json:"start_date,omitempty"`
	EndDate   *time.Time `gorm:"" json:"end_date,omitempty"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Project) TableName() string { return "projects" }
