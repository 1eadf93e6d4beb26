package service

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

	auditdomain "github.com/Cymoe/bill/internal/audit/domain"
	auditrepository "github.com/Cymoe/bill/internal/audit/repository"
	auditservice "github.com/Cymoe/bill/internal/audit/service"
	clientdomain "github.com/Cymoe/bill/internal/client/domain"
	clientrepository "github.com/Cymoe/bill/internal/client/repository"
	"github.com/Cymoe/bill/internal/clock"
	"github.com/Cymoe/bill/internal/config"
	"github.com/Cymoe/bill/internal/invoice/domain"
	"github.com/Cymoe/bill/internal/mailer"
	"github.com/Cymoe/bill/internal/numbering"
	orgdomain "github.com/Cymoe/bill/internal/organization/domain"
)

type fakeSender struct {
	result   mailer.SendResult
	messages []mailer.DocumentEmail
}

func (f *fakeSender) SendEstimate(ctx context.Context, msg mailer.DocumentEmail) mailer.SendResult {
	f.messages = append(f.messages, msg)
	return f.result
}

func (f *fakeSender) SendInvoice(ctx context.Context, msg mailer.DocumentEmail) mailer.SendResult {
	f.messages = append(f.messages, msg)
	return f.result
}

func (f *fakeSender) SendPaymentReminder(ctx context.Context, msg mailer.DocumentEmail) mailer.SendResult {
	f.messages = append(f.messages, msg)
	return f.result
}

type testEnv struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	clk   *clock.FakeClock
	mail  *fakeSender
	orgID snowflake.ID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&domain.Invoice{},
		&domain.InvoiceItem{},
		&orgdomain.Organization{},
		&clientdomain.Client{},
		&mailer.EmailLog{},
		&auditdomain.ActivityLog{},
	))
	require.NoError(t, db.Exec(
		`CREATE TABLE IF NOT EXISTS document_sequences (
			org_id INTEGER NOT NULL,
			doc_type TEXT NOT NULL,
			next_value INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (org_id, doc_type)
		)`).Error)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	mail := &fakeSender{result: mailer.SendResult{Success: true, MessageID: "msg-1"}}

	svc := New(Params{
		DB:         db,
		Log:        log,
		GenID:      node,
		Clock:      clk,
		Config:     config.Config{PublicBaseURL: "http://localhost:8080"},
		ClientRepo: clientrepository.Provide(),
		Numbers: numbering.NewGenerator(numbering.Params{
			DB:    db,
			Log:   log,
			Clock: clk,
		}),
		Mail: mail,
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
		Slug: "ridge-inv-" + strings.ToLower(strings.ReplaceAll(t.Name(), "/", "-")),
	}
	require.NoError(t, db.Create(&org).Error)

	return &testEnv{svc: svc, db: db, node: node, clk: clk, mail: mail, orgID: org.ID}
}

func (e *testEnv) createInvoice(t *testing.T, clientID string) domain.InvoiceDetail {
	t.Helper()
	detail, err := e.svc.Create(context.Background(), domain.CreateInvoiceRequest{
		OrgID:    e.orgID,
		UserID:   e.node.Generate(),
		ClientID: clientID,
		Title:    "Framing work",
		TaxRate:  8,
		Items: []domain.ItemInput{
			{Description: "Lumber", Quantity: 1, UnitPrice: 60000, TotalPrice: 60000},
			{Description: "Labor", Quantity: 8, UnitPrice: 5000, TotalPrice: 40000},
		},
	})
	require.NoError(t, err)
	return detail
}

func (e *testEnv) createClient(t *testing.T) clientdomain.Client {
	t.Helper()
	client := clientdomain.Client{
		ID:    e.node.Generate(),
		OrgID: e.orgID,
		Name:  "Dana Price",
		Email: "dana@example.com",
	}
	require.NoError(t, e.db.Create(&client).Error)
	return client
}

func TestCreateComputesTotalsAndDueDate(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createInvoice(t, "")

	assert.Equal(t, domain.InvoiceStatusDraft, detail.Status)
	assert.Equal(t, int64(100000), detail.SubtotalAmount)
	assert.Equal(t, int64(8000), detail.TaxAmount)
	assert.Equal(t, int64(108000), detail.TotalAmount)
	assert.Equal(t, int64(108000), detail.BalanceDue)
	assert.True(t, strings.HasPrefix(detail.InvoiceNumber, "INV-"))

	require.NotNil(t, detail.IssueDate)
	require.NotNil(t, detail.DueDate)
	assert.Equal(t, detail.IssueDate.AddDate(0, 0, 30), *detail.DueDate)
}

func TestCreateWithoutItemsUsesSubtotal(t *testing.T) {
	env := newTestEnv(t)

	detail, err := env.svc.Create(context.Background(), domain.CreateInvoiceRequest{
		OrgID:          env.orgID,
		UserID:         env.node.Generate(),
		SubtotalAmount: 50000,
		TaxRate:        10,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(50000), detail.SubtotalAmount)
	assert.Equal(t, int64(5000), detail.TaxAmount)
	assert.Equal(t, int64(55000), detail.TotalAmount)
	assert.Len(t, detail.Items, 0)
}

func TestUpdateRecomputesBalanceAgainstPayments(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createInvoice(t, "")

	require.NoError(t, env.db.Model(&domain.Invoice{}).
		Where("id = ?", detail.ID).
		Updates(map[string]any{"total_paid": 8000}).Error)

	items := []domain.ItemInput{
		{Description: "Lumber", Quantity: 1, UnitPrice: 50000, TotalPrice: 50000},
	}
	updated, err := env.svc.Update(context.Background(), domain.UpdateInvoiceRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
		Items: &items,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(50000), updated.SubtotalAmount)
	assert.Equal(t, int64(4000), updated.TaxAmount)
	assert.Equal(t, int64(54000), updated.TotalAmount)
	assert.Equal(t, int64(46000), updated.BalanceDue)
}

func TestMarkAsPaid(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createInvoice(t, "")

	paid, err := env.svc.MarkAsPaid(context.Background(), domain.GetInvoiceRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.InvoiceStatusPaid, paid.Status)
	assert.Equal(t, paid.TotalAmount, paid.TotalPaid)
	assert.Equal(t, int64(0), paid.BalanceDue)
	assert.NotNil(t, paid.PaidAt)

	var audits int64
	require.NoError(t, env.db.Model(&auditdomain.ActivityLog{}).
		Where("entity_id = ? AND action = ?", detail.ID.String(), "paid").
		Count(&audits).Error)
	assert.Equal(t, int64(1), audits)
}

func TestSendTracksDelivery(t *testing.T) {
	env := newTestEnv(t)
	client := env.createClient(t)
	detail := env.createInvoice(t, client.ID.String())

	result, err := env.svc.Send(context.Background(), domain.SendInvoiceRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	var first domain.Invoice
	require.NoError(t, env.db.First(&first, "id = ?", detail.ID).Error)
	assert.Equal(t, domain.InvoiceStatusSent, first.Status)
	require.NotNil(t, first.SentAt)
	assert.Equal(t, int64(1), first.SendCount)

	firstSentAt := *first.SentAt
	env.clk.Advance(24 * time.Hour)

	_, err = env.svc.Send(context.Background(), domain.SendInvoiceRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
	})
	require.NoError(t, err)

	var second domain.Invoice
	require.NoError(t, env.db.First(&second, "id = ?", detail.ID).Error)
	assert.Equal(t, int64(2), second.SendCount)
	assert.Equal(t, firstSentAt.UTC(), second.SentAt.UTC())
	assert.True(t, second.LastSentAt.After(firstSentAt))
}

func TestSendFailureLeavesInvoiceUntouched(t *testing.T) {
	env := newTestEnv(t)
	client := env.createClient(t)
	detail := env.createInvoice(t, client.ID.String())
	env.mail.result = mailer.SendResult{Success: false, Error: "smtp timeout"}

	result, err := env.svc.Send(context.Background(), domain.SendInvoiceRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
	})
	require.NoError(t, err)
	assert.False(t, result.Success)

	var refreshed domain.Invoice
	require.NoError(t, env.db.First(&refreshed, "id = ?", detail.ID).Error)
	assert.Equal(t, domain.InvoiceStatusDraft, refreshed.Status)
	assert.Nil(t, refreshed.SentAt)
	assert.Equal(t, int64(0), refreshed.SendCount)
}

func TestPaymentReminderDoesNotMutateLifecycle(t *testing.T) {
	env := newTestEnv(t)
	client := env.createClient(t)
	detail := env.createInvoice(t, client.ID.String())

	result, err := env.svc.SendPaymentReminder(context.Background(), domain.SendInvoiceRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	var refreshed domain.Invoice
	require.NoError(t, env.db.First(&refreshed, "id = ?", detail.ID).Error)
	assert.Equal(t, domain.InvoiceStatusDraft, refreshed.Status)
	assert.Nil(t, refreshed.SentAt)
	assert.Equal(t, int64(0), refreshed.SendCount)

	var audits int64
	require.NoError(t, env.db.Model(&auditdomain.ActivityLog{}).
		Where("entity_id = ? AND action = ?", detail.ID.String(), "reminder_sent").
		Count(&audits).Error)
	assert.Equal(t, int64(1), audits)
}

func TestUpdateStatusAuditsOnlyOnChange(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createInvoice(t, "")

	// Second call re-applies the same status; only the first transition
	// should leave an activity row.
	for i := 0; i < 2; i++ {
		updated, err := env.svc.UpdateStatus(context.Background(), domain.UpdateStatusRequest{
			OrgID:  env.orgID,
			ID:     detail.ID.String(),
			Status: domain.InvoiceStatusOverdue,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.InvoiceStatusOverdue, updated.Status)
	}

	var audits int64
	require.NoError(t, env.db.Model(&auditdomain.ActivityLog{}).
		Where("entity_id = ? AND action = ?", detail.ID.String(), "status_changed").
		Count(&audits).Error)
	assert.Equal(t, int64(1), audits)
}

func TestListFiltersByDueRange(t *testing.T) {
	env := newTestEnv(t)

	early := env.createInvoice(t, "")
	env.clk.Advance(time.Second)

	lateDue := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	late, err := env.svc.Create(context.Background(), domain.CreateInvoiceRequest{
		OrgID:   env.orgID,
		UserID:  env.node.Generate(),
		TaxRate: 0,
		DueDate: &lateDue,
		Items: []domain.ItemInput{
			{Description: "Paint", Quantity: 1, UnitPrice: 10000, TotalPrice: 10000},
		},
	})
	require.NoError(t, err)

	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	resp, err := env.svc.List(context.Background(), domain.ListInvoiceRequest{
		OrgID:   env.orgID,
		DueFrom: &from,
	})
	require.NoError(t, err)

	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, late.ID, resp.Invoices[0].ID)
	assert.NotEqual(t, early.ID, resp.Invoices[0].ID)
}

func TestDeleteScopedToOrganization(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createInvoice(t, "")

	err := env.svc.Delete(context.Background(), domain.GetInvoiceRequest{
		OrgID: env.node.Generate(),
		ID:    detail.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, env.svc.Delete(context.Background(), domain.GetInvoiceRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
	}))

	var items int64
	require.NoError(t, env.db.Model(&domain.InvoiceItem{}).Where("invoice_id = ?", detail.ID).Count(&items).Error)
	assert.Equal(t, int64(0), items)
}
