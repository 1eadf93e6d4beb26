// Package domain contains persistence models for the cost code catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CostCode classifies a line item or expense, e.g. "02-100 Site Work".
type CostCode struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;uniqueIndex:ux_cost_codes_org_code" json:"organization_id"`
	Code      string       `gorm:"type:text;not null;uniqueIndex:ux_cost_codes_org_code" json:"code"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Category  string       `gorm:"type:text" json:"category,omitempty"`
	Active    bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CostCode) TableName() string { return "cost_codes" }
