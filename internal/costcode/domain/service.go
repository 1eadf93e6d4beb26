package domain

import (
	"context"
	"errors"

	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
)

type CreateCostCodeRequest struct {
	OrgID    snowflake.ID
	Code     string
	Name     string
	Category string
}

type UpdateCostCodeRequest struct {
	OrgID    snowflake.ID
	ID       string
	Code     *string
	Name     *string
	Category *string
	Active   *bool
}

type GetCostCodeRequest struct {
	OrgID snowflake.ID
	ID    string
}

type ListCostCodeRequest struct {
	pagination.Pagination
	OrgID      snowflake.ID
	Category   string
	ActiveOnly bool
}

type ListCostCodeResponse struct {
	pagination.PageInfo
	CostCodes []CostCode `json:"cost_codes"`
}

type Service interface {
	Create(context.Context, CreateCostCodeRequest) (CostCode, error)
	Update(context.Context, UpdateCostCodeRequest) (CostCode, error)
	Delete(ctx context.Context, req GetCostCodeRequest) error
	GetByID(context.Context, GetCostCodeRequest) (CostCode, error)
	List(context.Context, ListCostCodeRequest) (ListCostCodeResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidCode         = errors.New("invalid_code")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidID           = errors.New("invalid_id")
	ErrDuplicateCode       = errors.New("duplicate_code")
	ErrNotFound            = errors.New("not_found")
)
