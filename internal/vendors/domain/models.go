// Package domain contains persistence models for vendors.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Vendor is a subcontractor or supplier expenses are attributed to.
type Vendor struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID      `gorm:"not null;index" json:"organization_id"`
	Name        string            `gorm:"type:text;not null" json:"name"`
	Trade       string            `gorm:"type:text" json:"trade,omitempty"`
	ContactName string            `gorm:"type:text" json:"contact_name,omitempty"`
	Email       string            `gorm:"type:text" json:"email,omitempty"`
	Phone       string            `gorm:"type:text" json:"phone,omitempty"`
	Address     string            `gorm:"type:text" json:"address,omitempty"`
	Notes       string            `gorm:"type:text" json:"notes,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Vendor) TableName() string { return "vendors" }
