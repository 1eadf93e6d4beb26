package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Client is a customer an estimate or invoice is billed to.
type Client struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID      `gorm:"not null;index" json:"organization_id"`
	Name        string            `gorm:"not null" json:"name"`
	CompanyName string            `gorm:"type:text" json:"company_name,omitempty"`
	Email       string            `gorm:"not null" json:"email"`
	Phone       string            `gorm:"type:text" json:"phone,omitempty"`
	Address     string            `gorm:"type:text" json:"address,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Client) TableName() string { return "clients" }
