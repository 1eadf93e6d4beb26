package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/Cymoe/bill/internal/audit/domain"
	auditrepository "github.com/Cymoe/bill/internal/audit/repository"
	auditservice "github.com/Cymoe/bill/internal/audit/service"
	clientdomain "github.com/Cymoe/bill/internal/client/domain"
	clientrepository "github.com/Cymoe/bill/internal/client/repository"
	"github.com/Cymoe/bill/internal/clock"
	estimatedomain "github.com/Cymoe/bill/internal/estimate/domain"
	invoicedomain "github.com/Cymoe/bill/internal/invoice/domain"
	orgdomain "github.com/Cymoe/bill/internal/organization/domain"
	"github.com/Cymoe/bill/internal/publicshare/domain"
)

func newShareEnv(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node, snowflake.ID) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&estimatedomain.Estimate{},
		&estimatedomain.EstimateItem{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&orgdomain.Organization{},
		&clientdomain.Client{},
		&auditdomain.ActivityLog{},
	))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	log := zap.NewNop()

	svc := New(Params{
		DB:         db,
		Log:        log,
		Clock:      clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)),
		ClientRepo: clientrepository.Provide(),
		Audit: auditservice.NewService(auditservice.Params{
			DB:    db,
			Log:   log,
			GenID: node,
			Repo:  auditrepository.Provide(),
		}),
	})

	org := orgdomain.Organization{
		ID:   node.Generate(),
		Name: "Ridge Construction",
		Slug: "ridge-share-" + strings.ToLower(strings.ReplaceAll(t.Name(), "/", "-")),
	}
	require.NoError(t, db.Create(&org).Error)

	return svc, db, node, org.ID
}

func TestGetEstimateByTokenReturnsRestrictedView(t *testing.T) {
	svc, db, node, orgID := newShareEnv(t)

	client := clientdomain.Client{
		ID:    node.Generate(),
		OrgID: orgID,
		Name:  "Dana Price",
		Email: "dana@example.com",
	}
	require.NoError(t, db.Create(&client).Error)

	token := uuid.NewString()
	estimate := estimatedomain.Estimate{
		ID:             node.Generate(),
		OrgID:          orgID,
		UserID:         node.Generate(),
		ClientID:       &client.ID,
		EstimateNumber: "EST-2025-0001",
		Status:         estimatedomain.EstimateStatusDraft,
		SubtotalAmount: 100000,
		TaxRate:        8,
		TaxAmount:      8000,
		TotalAmount:    108000,
		ShareToken:     token,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	require.NoError(t, db.Create(&estimate).Error)
	require.NoError(t, db.Create(&estimatedomain.EstimateItem{
		ID:          node.Generate(),
		OrgID:       orgID,
		EstimateID:  estimate.ID,
		Description: "Demolition",
		Quantity:    1,
		UnitPrice:   100000,
		TotalPrice:  100000,
	}).Error)

	view, err := svc.GetEstimateByToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, "EST-2025-0001", view.EstimateNumber)
	assert.Equal(t, "Ridge Construction", view.OrgName)
	assert.Equal(t, int64(108000), view.TotalAmount)
	require.NotNil(t, view.Client)
	assert.Equal(t, "Dana Price", view.Client.Name)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Demolition", view.Items[0].Description)
	// A draft view does not move the document to opened.
	assert.Equal(t, string(estimatedomain.EstimateStatusDraft), view.Status)
}

func TestGetEstimateByTokenMarksSentAsOpened(t *testing.T) {
	svc, db, node, orgID := newShareEnv(t)

	token := uuid.NewString()
	estimate := estimatedomain.Estimate{
		ID:             node.Generate(),
		OrgID:          orgID,
		UserID:         node.Generate(),
		EstimateNumber: "EST-2025-0002",
		Status:         estimatedomain.EstimateStatusSent,
		ShareToken:     token,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	require.NoError(t, db.Create(&estimate).Error)

	view, err := svc.GetEstimateByToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, string(estimatedomain.EstimateStatusOpened), view.Status)

	var refreshed estimatedomain.Estimate
	require.NoError(t, db.First(&refreshed, "id = ?", estimate.ID).Error)
	assert.Equal(t, estimatedomain.EstimateStatusOpened, refreshed.Status)

	var audits int64
	require.NoError(t, db.Model(&auditdomain.ActivityLog{}).
		Where("entity_id = ? AND action = ?", estimate.ID.String(), "opened").
		Count(&audits).Error)
	assert.Equal(t, int64(1), audits)
}

func TestGetInvoiceByTokenMarksSentAsOpened(t *testing.T) {
	svc, db, node, orgID := newShareEnv(t)

	token := uuid.NewString()
	invoice := invoicedomain.Invoice{
		ID:            node.Generate(),
		OrgID:         orgID,
		UserID:        node.Generate(),
		InvoiceNumber: "INV-2025-0001",
		Status:        invoicedomain.InvoiceStatusSent,
		TotalAmount:   54000,
		BalanceDue:    54000,
		ShareToken:    token,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	require.NoError(t, db.Create(&invoice).Error)

	view, err := svc.GetInvoiceByToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, string(invoicedomain.InvoiceStatusOpened), view.Status)
	assert.Equal(t, int64(54000), view.BalanceDue)

	var refreshed invoicedomain.Invoice
	require.NoError(t, db.First(&refreshed, "id = ?", invoice.ID).Error)
	assert.Equal(t, invoicedomain.InvoiceStatusOpened, refreshed.Status)
}

func TestTokenValidation(t *testing.T) {
	svc, _, _, _ := newShareEnv(t)

	_, err := svc.GetEstimateByToken(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = svc.GetInvoiceByToken(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = svc.GetEstimateByToken(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
