// Package option provides composable query modifiers for the generic store.
package option

import (
	"fmt"
	"strings"
	"time"

	"github.com/Cymoe/bill/pkg/db/pagination"
	"gorm.io/gorm"
)

type Operator string

const (
	EQ  Operator = "="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func (c Condition) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(fmt.Sprintf("%s %s ?", c.Field, c.Operator), c.Value)
}

// ApplyOperator wraps a Condition as a QueryOption.
func ApplyOperator(c Condition) QueryOption { return c }

type QuerySortBy struct {
	Field string
	Desc  bool
	// Allow restricts sortable columns; an empty map allows none.
	Allow map[string]bool
}

type sortOption struct {
	sort QuerySortBy
}

func (o sortOption) Apply(db *gorm.DB) *gorm.DB {
	field := o.sort.Field
	if field == "" {
		field = "created_at"
	}
	if o.sort.Allow != nil && !o.sort.Allow[field] {
		field = "created_at"
	}
	direction := "asc"
	if o.sort.Desc {
		direction = "desc"
	}
	return db.Order(fmt.Sprintf("%s %s", field, direction))
}

func WithSortBy(sort QuerySortBy) QueryOption { return sortOption{sort: sort} }

type limitOption struct {
	limit int
}

func (o limitOption) Apply(db *gorm.DB) *gorm.DB {
	if o.limit <= 0 {
		return db
	}
	return db.Limit(o.limit)
}

func WithLimit(limit int) QueryOption { return limitOption{limit: limit} }

type preloadOption struct {
	associations []string
}

func (o preloadOption) Apply(db *gorm.DB) *gorm.DB {
	for _, assoc := range o.associations {
		db = db.Preload(assoc)
	}
	return db
}

func WithPreload(associations ...string) QueryOption {
	return preloadOption{associations: associations}
}

type paginationOption struct {
	page pagination.Pagination
}

func (o paginationOption) Apply(db *gorm.DB) *gorm.DB {
	pageSize := o.page.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if token := strings.TrimSpace(o.page.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err == nil {
			if createdAt, parseErr := time.Parse(time.RFC3339, cursor.CreatedAt); parseErr == nil {
				db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
					createdAt, createdAt, cursor.ID)
			}
		}
	}
	// One extra row signals a further page.
	return db.Limit(int(pageSize) + 1)
}

// ApplyPagination applies cursor-token filtering and limit+1 fetching.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return paginationOption{page: page}
}
