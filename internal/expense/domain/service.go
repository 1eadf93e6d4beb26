package domain

import (
	"context"
	"errors"
	"time"

	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
)

type CreateExpenseRequest struct {
	OrgID       snowflake.ID
	ProjectID   string
	VendorID    string
	CostCodeID  string
	Description string
	Category    string
	Amount      int64
	IncurredAt  *time.Time
}

type UpdateExpenseRequest struct {
	OrgID       snowflake.ID
	ID          string
	ProjectID   *string
	VendorID    *string
	CostCodeID  *string
	Description *string
	Category    *string
	Amount      *int64
	IncurredAt  *time.Time
}

type GetExpenseRequest struct {
	OrgID snowflake.ID
	ID    string
}

type ListExpenseRequest struct {
	pagination.Pagination
	OrgID        snowflake.ID
	ProjectID    string
	VendorID     string
	Category     string
	IncurredFrom *time.Time
	IncurredTo   *time.Time
}

type ListExpenseResponse struct {
	pagination.PageInfo
	Expenses []Expense `json:"expenses"`
}

type Service interface {
	Create(context.Context, CreateExpenseRequest) (Expense, error)
	Update(context.Context, UpdateExpenseRequest) (Expense, error)
	Delete(ctx context.Context, req GetExpenseRequest) error
	GetByID(context.Context, GetExpenseRequest) (Expense, error)
	List(context.Context, ListExpenseRequest) (ListExpenseResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidDescription  = errors.New("invalid_description")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
