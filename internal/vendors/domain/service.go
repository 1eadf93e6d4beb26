package domain

import (
	"context"
	"errors"

	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
)

type CreateVendorRequest struct {
	OrgID       snowflake.ID
	Name        string
	Trade       string
	ContactName string
	Email       string
	Phone       string
	Address     string
	Notes       string
}

type UpdateVendorRequest struct {
	OrgID       snowflake.ID
	ID          string
	Name        *string
	Trade       *string
	ContactName *string
	Email       *string
	Phone       *string
	Address     *string
	Notes       *string
}

type GetVendorRequest struct {
	OrgID snowflake.ID
	ID    string
}

type ListVendorRequest struct {
	pagination.Pagination
	OrgID snowflake.ID
	Trade string
}

type ListVendorResponse struct {
	pagination.PageInfo
	Vendors []Vendor `json:"vendors"`
}

type Service interface {
	Create(context.Context, CreateVendorRequest) (Vendor, error)
	Update(context.Context, UpdateVendorRequest) (Vendor, error)
	Delete(ctx context.Context, req GetVendorRequest) error
	GetByID(context.Context, GetVendorRequest) (Vendor, error)
	List(context.Context, ListVendorRequest) (ListVendorResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
