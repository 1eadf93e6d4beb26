package domain

import (
	"context"
	"errors"
	"time"

	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
)

type CreateProjectRequest struct {
	OrgID        snowflake.ID
	ClientID     string
	Name         string
	Description  string
	Address      string
	BudgetAmount int64
	StartDate    *time.Time
	EndDate      *time.Time
}

type UpdateProjectRequest struct {
	OrgID        snowflake.ID
	ID           string
	ClientID     *string
	Name         *string
	Description  *string
	Address      *string
	Status       *ProjectStatus
	BudgetAmount *int64
	StartDate    *time.Time
	EndDate      *time.Time
}

type GetProjectRequest struct {
	OrgID snowflake.ID
	ID    string
}

type ListProjectRequest struct {
	pagination.Pagination
	OrgID    snowflake.ID
	ClientID string
	Status   *ProjectStatus
}

type ListProjectResponse struct {
	pagination.PageInfo
	Projects []Project `json:"projects"`
}

type Service interface {
	Create(context.Context, CreateProjectRequest) (Project, error)
	Update(context.Context, UpdateProjectRequest) (Project, error)
	Delete(ctx context.Context, req GetProjectRequest) error
	GetByID(context.Context, GetProjectRequest) (Project, error)
	List(context.Context, ListProjectRequest) (ListProjectResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrNotFound            = errors.New("not_found")
)
