package numbering

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Cymoe/bill/internal/clock"
)

func newGeneratorEnv(t *testing.T) (Generator, snowflake.ID) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(
		`CREATE TABLE document_sequences (
			org_id INTEGER NOT NULL,
			doc_type TEXT NOT NULL,
			next_value INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (org_id, doc_type)
		)`).Error)

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	gen := NewGenerator(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)),
	})
	return gen, node.Generate()
}

func TestNextIssuesDenseSequencePerDocType(t *testing.T) {
	gen, orgID := newGeneratorEnv(t)
	ctx := context.Background()

	first, err := gen.Next(ctx, orgID, DocTypeEstimate)
	require.NoError(t, err)
	second, err := gen.Next(ctx, orgID, DocTypeEstimate)
	require.NoError(t, err)

	assert.Equal(t, "EST-2025-0001", first)
	assert.Equal(t, "EST-2025-0002", second)

	// Invoices count independently of estimates.
	invoice, err := gen.Next(ctx, orgID, DocTypeInvoice)
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-0001", invoice)
}

func TestNextScopedPerOrganization(t *testing.T) {
	gen, orgID := newGeneratorEnv(t)
	ctx := context.Background()

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)
	otherOrg := node.Generate()

	_, err = gen.Next(ctx, orgID, DocTypeEstimate)
	require.NoError(t, err)

	number, err := gen.Next(ctx, otherOrg, DocTypeEstimate)
	require.NoError(t, err)
	assert.Equal(t, "EST-2025-0001", number)
}
