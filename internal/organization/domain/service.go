package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateOrganizationRequest struct {
	Name         string
	SupportEmail string
}

type UpdateSettingsRequest struct {
	OrgID                 snowflake.ID
	Name                  *string
	SupportEmail          *string
	AutoInvoiceOnAccept   *bool
	DefaultDepositPercent *float64
}

type Service interface {
	Create(context.Context, CreateOrganizationRequest) (Organization, error)
	GetByID(ctx context.Context, id snowflake.ID) (Organization, error)
	UpdateSettings(context.Context, UpdateSettingsRequest) (Organization, error)
}

var (
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidDeposit = errors.New("invalid_deposit_percent")
	ErrNotFound       = errors.New("not_found")
)
