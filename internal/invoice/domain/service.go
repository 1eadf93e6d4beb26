package domain

import (
	"context"
	"errors"
	"time"

	clientdomain "github.com/Cymoe/bill/internal/client/domain"
	"github.com/Cymoe/bill/internal/mailer"
	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
)

// ItemInput is a caller-supplied line item. TotalPrice is stored as given.
type ItemInput struct {
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    int64   `json:"unit_price"`
	TotalPrice   int64   `json:"total_price"`
	CostCodeID   string  `json:"cost_code_id,omitempty"`
	DisplayOrder *int32  `json:"display_order,omitempty"`
}

type CreateInvoiceRequest struct {
	OrgID          snowflake.ID
	UserID         snowflake.ID
	ClientID       string
	ProjectID      string
	Title          string
	SubtotalAmount int64
	TaxRate        float64
	IssueDate      *time.Time
	DueDate        *time.Time
	Items          []ItemInput
}

// UpdateInvoiceRequest carries a partial update. A non-nil Items slice,
// even an empty one, replaces the whole item collection; nil leaves the
// existing items untouched.
type UpdateInvoiceRequest struct {
	OrgID          snowflake.ID
	ID             string
	Title          *string
	ClientID       *string
	ProjectID      *string
	SubtotalAmount *int64
	TaxRate        *float64
	IssueDate      *time.Time
	DueDate        *time.Time
	Items          *[]ItemInput
}

type GetInvoiceRequest struct {
	OrgID snowflake.ID
	ID    string
}

type UpdateStatusRequest struct {
	OrgID  snowflake.ID
	ID     string
	Status InvoiceStatus
}

type SendInvoiceRequest struct {
	OrgID          snowflake.ID
	ID             string
	RecipientEmail string
	Message        string
}

type ListInvoiceRequest struct {
	pagination.Pagination
	OrgID    snowflake.ID
	Status   *InvoiceStatus
	ClientID string
	DueFrom  *time.Time
	DueTo    *time.Time
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

// InvoiceDetail is the joined shape returned to callers: invoice, items,
// and the client it bills.
type InvoiceDetail struct {
	Invoice
	Items  []InvoiceItem        `json:"items"`
	Client *clientdomain.Client `json:"client,omitempty"`
}

type Service interface {
	Create(context.Context, CreateInvoiceRequest) (InvoiceDetail, error)
	Update(context.Context, UpdateInvoiceRequest) (InvoiceDetail, error)
	Delete(ctx context.Context, req GetInvoiceRequest) error
	GetByID(context.Context, GetInvoiceRequest) (InvoiceDetail, error)
	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
	UpdateStatus(context.Context, UpdateStatusRequest) (Invoice, error)
	MarkAsPaid(ctx context.Context, req GetInvoiceRequest) (Invoice, error)
	Send(context.Context, SendInvoiceRequest) (mailer.SendResult, error)
	SendPaymentReminder(context.Context, SendInvoiceRequest) (mailer.SendResult, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidItems        = errors.New("invalid_items")
	ErrMissingClient       = errors.New("missing_client")
	ErrNotFound            = errors.New("not_found")
)
