package domain

import (
	"context"
	"errors"
	"time"

	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Entry is a single activity record request.
type Entry struct {
	OrgID       snowflake.ID
	EntityType  string
	EntityID    string
	Action      string
	Description string
	Metadata    map[string]any
}

type ListActivityRequest struct {
	pagination.Pagination
	OrgID      snowflake.ID
	EntityType string
	EntityID   string
	Action     string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListActivityResponse struct {
	pagination.PageInfo
	Activities []ActivityLog `json:"activities"`
}

type Service interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, req ListActivityRequest) (ListActivityResponse, error)
}

type ListFilter struct {
	OrgID      snowflake.ID
	EntityType string
	EntityID   string
	Action     string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *Cursor
	Limit      int
}

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *ActivityLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*ActivityLog, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
	ErrInvalidTimeRange    = errors.New("invalid_time_range")
	ErrInvalidAction       = errors.New("invalid_action")
)
