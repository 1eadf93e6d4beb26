// Package domain contains the activity log model and service contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorTypeUser   ActorType = "user"
	ActorTypeSystem ActorType = "system"
)

// ActivityLog is an append-only record of a lifecycle-affecting action
// against a business entity.
type ActivityLog struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID      `gorm:"not null;index" json:"organization_id"`
	ActorType   string            `gorm:"type:text;not null" json:"actor_type"`
	ActorID     *string           `gorm:"type:text" json:"actor_id,omitempty"`
	EntityType  string            `gorm:"type:text;not null" json:"entity_type"`
	EntityID    string            `gorm:"type:text;not null;index" json:"entity_id"`
	Action      string            `gorm:"type:text;not null" json:"action"`
	Description string            `gorm:"type:text" json:"description"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	IPAddress   *string           `gorm:"type:text" json:"ip_address,omitempty"`
	UserAgent   *string           `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ActivityLog) TableName() string { return "activity_logs" }
