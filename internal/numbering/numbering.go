// Package numbering issues human-readable document numbers per organization.
package numbering

import (
	"context"
	"fmt"

	"github.com/Cymoe/bill/internal/clock"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DocType string

const (
	DocTypeEstimate DocType = "estimate"
	DocTypeInvoice  DocType = "invoice"
)

func (d DocType) prefix() string {
	switch d {
	case DocTypeInvoice:
		return "INV"
	default:
		return "EST"
	}
}

// Generator hands out the next document number for an organization.
// Numbers from the sequence are dense; the fallback path only promises
// best-effort uniqueness.
type Generator interface {
	Next(ctx context.Context, orgID snowflake.ID, docType DocType) (string, error)
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type generator struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewGenerator(p Params) Generator {
	return &generator{
		db:    p.DB,
		log:   p.Log.Named("numbering"),
		clock: p.Clock,
	}
}

func (g *generator) Next(ctx context.Context, orgID snowflake.ID, docType DocType) (string, error) {
	year := g.clock.Now().Year()

	seq, err := g.nextSequence(ctx, orgID, docType)
	if err != nil {
		g.log.Warn("sequence unavailable, using local fallback number",
			zap.String("doc_type", string(docType)),
			zap.Error(err),
		)
		return g.fallback(docType, year), nil
	}

	return fmt.Sprintf("%s-%d-%04d", docType.prefix(), year, seq), nil
}

func (g *generator) nextSequence(ctx context.Context, orgID snowflake.ID, docType DocType) (int64, error) {
	var next int64
	err := g.db.WithContext(ctx).Raw(
		`INSERT INTO document_sequences (org_id, doc_type, next_value)
		 VALUES (?, ?, 2)
		 ON CONFLICT (org_id, doc_type)
		 DO UPDATE SET next_value = document_sequences.next_value + 1
		 RETURNING next_value - 1`,
		orgID,
		string(docType),
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	if next == 0 {
		return 0, fmt.Errorf("empty sequence result for org %s", orgID)
	}
	return next, nil
}

func (g *generator) fallback(docType DocType, year int) string {
	suffix := g.clock.Now().UnixNano() / int64(1e3) % 1e6
	return fmt.Sprintf("%s-%d-%06d", docType.prefix(), year, suffix)
}

var Module = fx.Module("numbering",
	fx.Provide(NewGenerator),
)
