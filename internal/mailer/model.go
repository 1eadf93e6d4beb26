package mailer

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// EmailLog records every delivery attempt made on behalf of a document.
type EmailLog struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID `gorm:"not null;index" json:"organization_id"`
	EntityType string       `gorm:"type:text;not null" json:"entity_type"`
	EntityID   string       `gorm:"type:text;not null;index" json:"entity_id"`
	Recipient  string       `gorm:"type:text;not null" json:"recipient"`
	Subject    string       `gorm:"type:text;not null" json:"subject"`
	Status     string       `gorm:"type:text;not null" json:"status"`
	MessageID  string       `gorm:"type:text" json:"message_id,omitempty"`
	Error      string       `gorm:"type:text" json:"error,omitempty"`
	SentAt     time.Time    `gorm:"not null" json:"sent_at"`
}

// TableName sets the database table name.
func (EmailLog) TableName() string { return "email_logs" }
