// Package domain contains persistence models for expenses.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Expense is a cost incurred against a project, optionally attributed to a
// vendor and classified by cost code. Amount is in minor units.
type Expense struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID  `gorm:"not null;index" json:"organization_id"`
	ProjectID   *snowflake.ID `gorm:"index" json:"project_id,omitempty"`
	VendorID    *snowflake.ID `gorm:"index" json:"vendor_id,omitempty"`
	CostCodeID  *snowflake.ID `gorm:"index" json:"cost_code_id,omitempty"`
	Description string        `gorm:"type:text;not null" json:"description"`
	Category    string        `gorm:"type:text" json:"category,omitempty"`
	Amount      int64         `gorm:"not null;default:0" json:"amount"`
	IncurredAt  time.Time     `gorm:"not null" json:"incurred_at"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Expense) TableName() string { return "expenses" }
