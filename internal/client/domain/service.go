package domain

import (
	"context"
	"errors"
	"time"

	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
)

type CreateClientRequest struct {
	OrgID       snowflake.ID
	Name        string
	CompanyName string
	Email       string
	Phone       string
	Address     string
}

type UpdateClientRequest struct {
	OrgID       snowflake.ID
	ID          string
	Name        *string
	CompanyName *string
	Email       *string
	Phone       *string
	Address     *string
}

type GetClientRequest struct {
	OrgID snowflake.ID
	ID    string
}

type ListClientRequest struct {
	pagination.Pagination
	OrgID       snowflake.ID
	Name        string
	Email       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListClientResponse struct {
	pagination.PageInfo
	Clients []Client `json:"clients"`
}

type ListClientFilter struct {
	Name        string
	Email       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type Service interface {
	Create(context.Context, CreateClientRequest) (Client, error)
	Update(context.Context, UpdateClientRequest) (Client, error)
	Delete(ctx context.Context, req GetClientRequest) error
	GetByID(context.Context, GetClientRequest) (Client, error)
	List(context.Context, ListClientRequest) (ListClientResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
