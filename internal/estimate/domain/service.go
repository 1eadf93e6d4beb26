package domain

import (
	"context"
	"errors"
	"time"

	clientdomain "github.com/Cymoe/bill/internal/client/domain"
	invoicedomain "github.com/Cymoe/bill/internal/invoice/domain"
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

type CreateEstimateRequest struct {
	OrgID       snowflake.ID
	UserID      snowflake.ID
	ClientID    string
	ProjectID   string
	Title       string
	Description string
	TaxRate     float64
	IssueDate   *time.Time
	ExpiryDate  *time.Time
	Items       []ItemInput
}

// UpdateEstimateRequest carries a partial update. A non-nil Items slice,
// even an empty one, replaces the whole item collection; nil leaves the
// existing items untouched.
type UpdateEstimateRequest struct {
	OrgID       snowflake.ID
	ID          string
	Title       *string
	Description *string
	ClientID    *string
	ProjectID   *string
	TaxRate     *float64
	IssueDate   *time.Time
	ExpiryDate  *time.Time
	Status      *EstimateStatus
	Items       *[]ItemInput
}

type GetEstimateRequest struct {
	OrgID snowflake.ID
	ID    string
}

type UpdateStatusRequest struct {
	OrgID  snowflake.ID
	ID     string
	Status EstimateStatus
}

// AddSignatureRequest records a client signature. Signing always moves the
// estimate to accepted, whatever its prior status.
type AddSignatureRequest struct {
	OrgID     snowflake.ID
	ID        string
	Signature string
}

// ConvertRequest converts an accepted estimate into an invoice.
// DepositPercent strictly between 0 and 100 yields a deposit invoice for
// that share of the total; any other value bills the full amount.
type ConvertRequest struct {
	OrgID          snowflake.ID
	ID             string
	DepositPercent float64
}

type SendEstimateRequest struct {
	OrgID          snowflake.ID
	ID             string
	RecipientEmail string
	Message        string
}

type ListEstimateRequest struct {
	pagination.Pagination
	OrgID     snowflake.ID
	Status    *EstimateStatus
	ClientID  string
	ProjectID string
}

type ListEstimateResponse struct {
	pagination.PageInfo
	Estimates []Estimate `json:"estimates"`
}

// EstimateDetail is the joined shape returned to callers: estimate, items,
// and the client it was prepared for.
type EstimateDetail struct {
	Estimate
	Items  []EstimateItem       `json:"items"`
	Client *clientdomain.Client `json:"client,omitempty"`
}

// ConvertResult reports the invoice a conversion produced and whether it
// bills a deposit rather than the full estimate total.
type ConvertResult struct {
	Invoice   invoicedomain.Invoice `json:"invoice"`
	IsDeposit bool                  `json:"is_deposit"`
}

type Service interface {
	Create(context.Context, CreateEstimateRequest) (EstimateDetail, error)
	Update(context.Context, UpdateEstimateRequest) (EstimateDetail, error)
	Delete(ctx context.Context, req GetEstimateRequest) error
	GetByID(context.Context, GetEstimateRequest) (EstimateDetail, error)
	List(context.Context, ListEstimateRequest) (ListEstimateResponse, error)
	UpdateStatus(context.Context, UpdateStatusRequest) (Estimate, error)
	AddSignature(context.Context, AddSignatureRequest) (EstimateDetail, error)
	ConvertToInvoice(context.Context, ConvertRequest) (ConvertResult, error)
	Send(context.Context, SendEstimateRequest) (mailer.SendResult, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidItems        = errors.New("invalid_items")
	ErrMissingSignature    = errors.New("missing_signature")
	ErrMissingClient       = errors.New("missing_client")
	ErrNotAccepted         = errors.New("not_accepted")
	ErrNotFound            = errors.New("not_found")
)
