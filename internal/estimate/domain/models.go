// Package domain contains persistence models for estimates.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// EstimateStatus represents estimate lifecycle states.
type EstimateStatus string

const (
	EstimateStatusDraft    EstimateStatus = "draft"
	EstimateStatusSent     EstimateStatus = "sent"
	EstimateStatusOpened   EstimateStatus = "opened"
	EstimateStatusAccepted EstimateStatus = "accepted"
	EstimateStatusRejected EstimateStatus = "rejected"
	EstimateStatusExpired  EstimateStatus = "expired"
)

// ValidStatus reports whether s is a known estimate status.
func ValidStatus(s EstimateStatus) bool {
	switch s {
	case EstimateStatusDraft, EstimateStatusSent, EstimateStatusOpened,
		EstimateStatusAccepted, EstimateStatusRejected, EstimateStatusExpired:
		return true
	default:
		return false
	}
}

// Estimate represents a priced proposal sent to a client, convertible into
// an invoice once accepted.
type Estimate struct {
	ID             snowflake.ID   `gorm:"primaryKey" json:"id"`
	OrgID          snowflake.ID   `gorm:"not null;index" json:"organization_id"`
	UserID         snowflake.ID   `gorm:"not null" json:"user_id"`
	ClientID       *snowflake.ID  `gorm:"index" json:"client_id,omitempty"`
	ProjectID      *snowflake.ID  `gorm:"index" json:"project_id,omitempty"`
	EstimateNumber string         `gorm:"type:text;not null" json:"estimate_number"`
	Title          string         `gorm:"type:text" json:"title,omitempty"`
	Description    string         `gorm:"type:text" json:"description,omitempty"`
	Status         EstimateStatus `gorm:"type:text;not null;default:'draft'" json:"status"`

	SubtotalAmount int64   `gorm:"not null;default:0" json:"subtotal_amount"`
	TaxRate        float64 `gorm:"not null;default:0" json:"tax_rate"`
	TaxAmount      int64   `gorm:"not null;default:0" json:"tax_amount"`
	TotalAmount    int64   `gorm:"not null;default:0" json:"total_amount"`

	IssueDate  *time.Time `gorm:"" json:"issue_date,omitempty"`
	ExpiryDate *time.Time `gorm:"" json:"expiry_date,omitempty"`

	// SentAt is set on the first successful send only; LastSentAt and
	// SendCount move on every send.
	SentAt     *time.Time `gorm:"" json:"sent_at,omitempty"`
	LastSentAt *time.Time `gorm:"" json:"last_sent_at,omitempty"`
	SendCount  int64      `gorm:"not null;default:0" json:"send_count"`

	ClientSignature *string    `gorm:"type:text" json:"client_signature,omitempty"`
	SignedAt        *time.Time `gorm:"" json:"signed_at,omitempty"`

	ConvertedToInvoiceID *snowflake.ID `gorm:"index" json:"converted_to_invoice_id,omitempty"`
	ShareToken           string        `gorm:"type:text;not null;uniqueIndex:ux_estimates_share_token" json:"-"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Estimate) TableName() string { return "estimates" }

// EstimateItem represents a line on an estimate. TotalPrice is
// caller-supplied and stored as given, not recomputed.
type EstimateItem struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID  `gorm:"not null;index" json:"organization_id"`
	EstimateID   snowflake.ID  `gorm:"not null;index" json:"estimate_id"`
	Description  string        `gorm:"type:text;not null" json:"description"`
	Quantity     float64       `gorm:"not null;default:1" json:"quantity"`
	UnitPrice    int64         `gorm:"not null;default:0" json:"unit_price"`
	TotalPrice   int64         `gorm:"not null;default:0" json:"total_price"`
	CostCodeID   *snowflake.ID `gorm:"index" json:"cost_code_id,omitempty"`
	DisplayOrder int32         `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (EstimateItem) TableName() string { return "estimate_items" }
