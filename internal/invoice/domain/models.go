// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusOpened  InvoiceStatus = "opened"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
	InvoiceStatusSigned  InvoiceStatus = "signed"
)

// ValidStatus reports whether s is a known invoice status.
func ValidStatus(s InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusOpened,
		InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusSigned:
		return true
	default:
		return false
	}
}

// Invoice represents a bill issued to a client.
type Invoice struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID  `gorm:"not null;index" json:"organization_id"`
	UserID        snowflake.ID  `gorm:"not null" json:"user_id"`
	ClientID      *snowflake.ID `gorm:"index" json:"client_id,omitempty"`
	ProjectID     *snowflake.ID `gorm:"index" json:"project_id,omitempty"`
	InvoiceNumber string        `gorm:"type:text;not null" json:"invoice_number"`
	Title         string        `gorm:"type:text" json:"title,omitempty"`
	Status        InvoiceStatus `gorm:"type:text;not null;default:'draft'" json:"status"`

	SubtotalAmount int64   `gorm:"not null;default:0" json:"subtotal_amount"`
	TaxRate        float64 `gorm:"not null;default:0" json:"tax_rate"`
	TaxAmount      int64   `gorm:"not null;default:0" json:"tax_amount"`
	TotalAmount    int64   `gorm:"not null;default:0" json:"total_amount"`
	TotalPaid      int64   `gorm:"not null;default:0" json:"total_paid"`
	BalanceDue     int64   `gorm:"not null;default:0" json:"balance_due"`

	IssueDate *time.Time `gorm:"" json:"issue_date,omitempty"`
	DueDate   *time.Time `gorm:"" json:"due_date,omitempty"`

	SentAt     *time.Time `gorm:"" json:"sent_at,omitempty"`
	LastSentAt *time.Time `gorm:"" json:"last_sent_at,omitempty"`
	SendCount  int64      `gorm:"not null;default:0" json:"send_count"`

	ClientSignature *string    `gorm:"type:text" json:"client_signature,omitempty"`
	SignedAt        *time.Time `gorm:"" json:"signed_at,omitempty"`
	PaidAt          *time.Time `gorm:"" json:"paid_at,omitempty"`

	SourceEstimateID *snowflake.ID `gorm:"index" json:"source_estimate_id,omitempty"`
	ShareToken       string        `gorm:"type:text;not null;uniqueIndex:ux_invoices_share_token" json:"-"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem represents a line on an invoice. TotalPrice is caller-supplied
// and stored as given, not recomputed.
type InvoiceItem struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID  `gorm:"not null;index" json:"organization_id"`
	InvoiceID    snowflake.ID  `gorm:"not null;index" json:"invoice_id"`
	Description  string        `gorm:"type:text;not null" json:"description"`
	Quantity     float64       `gorm:"not null;default:1" json:"quantity"`
	UnitPrice    int64         `gorm:"not null;default:0" json:"unit_price"`
	TotalPrice   int64         `gorm:"not null;default:0" json:"total_price"`
	CostCodeID   *snowflake.ID `gorm:"index" json:"cost_code_id,omitempty"`
	DisplayOrder int32         `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }
