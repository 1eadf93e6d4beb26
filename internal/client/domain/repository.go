package domain

import (
	"context"

	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, client *Client) error
	Update(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Client, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListClientFilter, page pagination.Pagination) ([]*Client, error)
}
