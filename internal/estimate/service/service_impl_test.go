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
	"github.com/Cymoe/bill/internal/estimate/domain"
	invoicedomain "github.com/Cymoe/bill/internal/invoice/domain"
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
		&domain.Estimate{},
		&domain.EstimateItem{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
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

	node, err := snowflake.NewNode(1)
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
		Slug: "ridge-construction-" + strings.ToLower(strings.ReplaceAll(t.Name(), "/", "-")),
	}
	require.NoError(t, db.Create(&org).Error)

	return &testEnv{svc: svc, db: db, node: node, clk: clk, mail: mail, orgID: org.ID}
}

func (e *testEnv) createEstimate(t *testing.T, taxRate float64, items []domain.ItemInput) domain.EstimateDetail {
	t.Helper()
	detail, err := e.svc.Create(context.Background(), domain.CreateEstimateRequest{
		OrgID:   e.orgID,
		UserID:  e.node.Generate(),
		Title:   "Kitchen remodel",
		TaxRate: taxRate,
		Items:   items,
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

func (e *testEnv) accept(t *testing.T, id string) {
	t.Helper()
	_, err := e.svc.UpdateStatus(context.Background(), domain.UpdateStatusRequest{
		OrgID:  e.orgID,
		ID:     id,
		Status: domain.EstimateStatusAccepted,
	})
	require.NoError(t, err)
}

func (e *testEnv) invoiceCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&invoicedomain.Invoice{}).Count(&count).Error)
	return count
}

func twoItems() []domain.ItemInput {
	return []domain.ItemInput{
		{Description: "Demolition", Quantity: 1, UnitPrice: 40000, TotalPrice: 40000},
		{Description: "Cabinets", Quantity: 2, UnitPrice: 30000, TotalPrice: 60000},
	}
}

func TestCreateComputesTotals(t *testing.T) {
	env := newTestEnv(t)

	detail := env.createEstimate(t, 8, twoItems())

	assert.Equal(t, domain.EstimateStatusDraft, detail.Status)
	assert.Equal(t, int64(100000), detail.SubtotalAmount)
	assert.Equal(t, int64(8000), detail.TaxAmount)
	assert.Equal(t, int64(108000), detail.TotalAmount)
	assert.Len(t, detail.Items, 2)
	assert.True(t, strings.HasPrefix(detail.EstimateNumber, "EST-"))
	assert.NotEmpty(t, detail.ShareToken)
}

func TestUpdateNilItemsLeavesItemsUntouched(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createEstimate(t, 8, twoItems())

	title := "Kitchen remodel phase 2"
	updated, err := env.svc.Update(context.Background(), domain.UpdateEstimateRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
		Title: &title,
	})
	require.NoError(t, err)

	assert.Equal(t, title, updated.Title)
	assert.Len(t, updated.Items, 2)
	assert.Equal(t, int64(100000), updated.SubtotalAmount)
}

func TestUpdateEmptyItemsClearsCollection(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createEstimate(t, 8, twoItems())

	empty := []domain.ItemInput{}
	updated, err := env.svc.Update(context.Background(), domain.UpdateEstimateRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
		Items: &empty,
	})
	require.NoError(t, err)

	assert.Len(t, updated.Items, 0)
	assert.Equal(t, int64(0), updated.SubtotalAmount)
	assert.Equal(t, int64(0), updated.TaxAmount)
	assert.Equal(t, int64(0), updated.TotalAmount)
}

func TestUpdateReplacesItemsAndRecomputes(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createEstimate(t, 10, twoItems())

	replacement := []domain.ItemInput{
		{Description: "Flooring", Quantity: 1, UnitPrice: 25000, TotalPrice: 25000},
	}
	updated, err := env.svc.Update(context.Background(), domain.UpdateEstimateRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
		Items: &replacement,
	})
	require.NoError(t, err)

	assert.Len(t, updated.Items, 1)
	assert.Equal(t, int64(25000), updated.SubtotalAmount)
	assert.Equal(t, int64(2500), updated.TaxAmount)
	assert.Equal(t, int64(27500), updated.TotalAmount)
}

func TestConvertRequiresAccepted(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createEstimate(t, 8, twoItems())

	_, err := env.svc.ConvertToInvoice(context.Background(), domain.ConvertRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrNotAccepted)
	assert.Equal(t, int64(0), env.invoiceCount(t))
}

func TestConvertFullCopiesItems(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createEstimate(t, 8, twoItems())
	env.accept(t, detail.ID.String())

	result, err := env.svc.ConvertToInvoice(context.Background(), domain.ConvertRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
	})
	require.NoError(t, err)

	assert.False(t, result.IsDeposit)
	assert.Equal(t, detail.TotalAmount, result.Invoice.TotalAmount)
	assert.Equal(t, detail.SubtotalAmount, result.Invoice.SubtotalAmount)
	assert.Equal(t, detail.TaxAmount, result.Invoice.TaxAmount)
	assert.Equal(t, result.Invoice.TotalAmount, result.Invoice.BalanceDue)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, result.Invoice.Status)
	assert.True(t, strings.HasPrefix(result.Invoice.InvoiceNumber, "INV-"))
	require.NotNil(t, result.Invoice.SourceEstimateID)
	assert.Equal(t, detail.ID, *result.Invoice.SourceEstimateID)

	var items []invoicedomain.InvoiceItem
	require.NoError(t, env.db.Where("invoice_id = ?", result.Invoice.ID).Order("display_order").Find(&items).Error)
	require.Len(t, items, 2)
	assert.Equal(t, "Demolition", items[0].Description)
	assert.Equal(t, "Cabinets", items[1].Description)

	require.NotNil(t, result.Invoice.DueDate)
	require.NotNil(t, result.Invoice.IssueDate)
	assert.Equal(t, result.Invoice.IssueDate.AddDate(0, 0, 30), *result.Invoice.DueDate)

	var refreshed domain.Estimate
	require.NoError(t, env.db.First(&refreshed, "id = ?", detail.ID).Error)
	require.NotNil(t, refreshed.ConvertedToInvoiceID)
	assert.Equal(t, result.Invoice.ID, *refreshed.ConvertedToInvoiceID)
}

func TestConvertDepositScalesAmounts(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createEstimate(t, 8, twoItems())
	env.accept(t, detail.ID.String())

	result, err := env.svc.ConvertToInvoice(context.Background(), domain.ConvertRequest{
		OrgID:          env.orgID,
		ID:             detail.ID.String(),
		DepositPercent: 50,
	})
	require.NoError(t, err)

	assert.True(t, result.IsDeposit)
	assert.Equal(t, int64(50000), result.Invoice.SubtotalAmount)
	assert.Equal(t, int64(4000), result.Invoice.TaxAmount)
	assert.Equal(t, int64(54000), result.Invoice.TotalAmount)
	assert.Equal(t, int64(54000), result.Invoice.BalanceDue)

	var items []invoicedomain.InvoiceItem
	require.NoError(t, env.db.Where("invoice_id = ?", result.Invoice.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Contains(t, items[0].Description, "Deposit (50%)")
	assert.Contains(t, items[0].Description, detail.EstimateNumber)
	assert.Equal(t, int64(50000), items[0].TotalPrice)
}

func TestConvertBoundaryPercentagesBillFull(t *testing.T) {
	env := newTestEnv(t)

	for _, pct := range []float64{0, 100, -5, 120} {
		detail := env.createEstimate(t, 8, twoItems())
		env.accept(t, detail.ID.String())

		result, err := env.svc.ConvertToInvoice(context.Background(), domain.ConvertRequest{
			OrgID:          env.orgID,
			ID:             detail.ID.String(),
			DepositPercent: pct,
		})
		require.NoError(t, err)
		assert.False(t, result.IsDeposit, "pct %v should bill the full amount", pct)
		assert.Equal(t, detail.TotalAmount, result.Invoice.TotalAmount)
	}
}

func TestConvertIsNotIdempotent(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createEstimate(t, 8, twoItems())
	env.accept(t, detail.ID.String())

	req := domain.ConvertRequest{OrgID: env.orgID, ID: detail.ID.String()}
	first, err := env.svc.ConvertToInvoice(context.Background(), req)
	require.NoError(t, err)
	second, err := env.svc.ConvertToInvoice(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, first.Invoice.ID, second.Invoice.ID)
	assert.Equal(t, int64(2), env.invoiceCount(t))
}

func TestAddSignatureAcceptsFromDraft(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createEstimate(t, 8, twoItems())

	signed, err := env.svc.AddSignature(context.Background(), domain.AddSignatureRequest{
		OrgID:     env.orgID,
		ID:        detail.ID.String(),
		Signature: "Dana Price",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.EstimateStatusAccepted, signed.Status)
	require.NotNil(t, signed.ClientSignature)
	assert.Equal(t, "Dana Price", *signed.ClientSignature)
	assert.NotNil(t, signed.SignedAt)
	// Auto-invoicing is off for this organization.
	assert.Equal(t, int64(0), env.invoiceCount(t))
}

func TestAddSignatureRejectsEmptySignature(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createEstimate(t, 8, twoItems())

	_, err := env.svc.AddSignature(context.Background(), domain.AddSignatureRequest{
		OrgID:     env.orgID,
		ID:        detail.ID.String(),
		Signature: "   ",
	})
	assert.ErrorIs(t, err, domain.ErrMissingSignature)
}

func TestAddSignatureAutoConverts(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Model(&orgdomain.Organization{}).
		Where("id = ?", env.orgID).
		Updates(map[string]any{
			"auto_invoice_on_accept":  true,
			"default_deposit_percent": 50,
		}).Error)

	detail := env.createEstimate(t, 8, twoItems())

	signed, err := env.svc.AddSignature(context.Background(), domain.AddSignatureRequest{
		OrgID:     env.orgID,
		ID:        detail.ID.String(),
		Signature: "Dana Price",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), env.invoiceCount(t))
	require.NotNil(t, signed.ConvertedToInvoiceID)

	var invoice invoicedomain.Invoice
	require.NoError(t, env.db.First(&invoice, "id = ?", *signed.ConvertedToInvoiceID).Error)
	assert.Equal(t, int64(54000), invoice.TotalAmount)

	// A second signature must not mint a second invoice.
	_, err = env.svc.AddSignature(context.Background(), domain.AddSignatureRequest{
		OrgID:     env.orgID,
		ID:        detail.ID.String(),
		Signature: "Dana Price again",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), env.invoiceCount(t))
}

func TestSendTracksDelivery(t *testing.T) {
	env := newTestEnv(t)
	client := env.createClient(t)

	detail, err := env.svc.Create(context.Background(), domain.CreateEstimateRequest{
		OrgID:    env.orgID,
		UserID:   env.node.Generate(),
		ClientID: client.ID.String(),
		Title:    "Kitchen remodel",
		TaxRate:  8,
		Items:    twoItems(),
	})
	require.NoError(t, err)

	result, err := env.svc.Send(context.Background(), domain.SendEstimateRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	var first domain.Estimate
	require.NoError(t, env.db.First(&first, "id = ?", detail.ID).Error)
	assert.Equal(t, domain.EstimateStatusSent, first.Status)
	require.NotNil(t, first.SentAt)
	require.NotNil(t, first.LastSentAt)
	assert.Equal(t, int64(1), first.SendCount)

	firstSentAt := *first.SentAt

	env.clk.Advance(48 * time.Hour)
	_, err = env.svc.Send(context.Background(), domain.SendEstimateRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
	})
	require.NoError(t, err)

	var second domain.Estimate
	require.NoError(t, env.db.First(&second, "id = ?", detail.ID).Error)
	assert.Equal(t, int64(2), second.SendCount)
	assert.Equal(t, firstSentAt.UTC(), second.SentAt.UTC())
	assert.True(t, second.LastSentAt.After(firstSentAt))

	// Recipient defaults to the client's email.
	require.Len(t, env.mail.messages, 2)
	assert.Equal(t, client.Email, env.mail.messages[0].Recipient)
	assert.Contains(t, env.mail.messages[0].ShareURL, "/share/estimates/")

	var logs int64
	require.NoError(t, env.db.Model(&mailer.EmailLog{}).Where("entity_id = ?", detail.ID.String()).Count(&logs).Error)
	assert.Equal(t, int64(2), logs)
}

func TestSendFailureLeavesEstimateUntouched(t *testing.T) {
	env := newTestEnv(t)
	client := env.createClient(t)
	env.mail.result = mailer.SendResult{Success: false, Error: "smtp timeout"}

	detail, err := env.svc.Create(context.Background(), domain.CreateEstimateRequest{
		OrgID:    env.orgID,
		UserID:   env.node.Generate(),
		ClientID: client.ID.String(),
		TaxRate:  8,
		Items:    twoItems(),
	})
	require.NoError(t, err)

	result, err := env.svc.Send(context.Background(), domain.SendEstimateRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
	})
	require.NoError(t, err)
	assert.False(t, result.Success)

	var refreshed domain.Estimate
	require.NoError(t, env.db.First(&refreshed, "id = ?", detail.ID).Error)
	assert.Equal(t, domain.EstimateStatusDraft, refreshed.Status)
	assert.Nil(t, refreshed.SentAt)
	assert.Equal(t, int64(0), refreshed.SendCount)

	var log mailer.EmailLog
	require.NoError(t, env.db.First(&log, "entity_id = ?", detail.ID.String()).Error)
	assert.Equal(t, "failed", log.Status)
}

func TestSendWithoutClientFails(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createEstimate(t, 8, twoItems())

	_, err := env.svc.Send(context.Background(), domain.SendEstimateRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrMissingClient)
}

func TestUpdateStatusAuditsOnlyOnChange(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createEstimate(t, 8, twoItems())

	statusChanged := func() int64 {
		var count int64
		require.NoError(t, env.db.Model(&auditdomain.ActivityLog{}).
			Where("entity_id = ? AND action = ?", detail.ID.String(), "status_changed").
			Count(&count).Error)
		return count
	}

	_, err := env.svc.UpdateStatus(context.Background(), domain.UpdateStatusRequest{
		OrgID:  env.orgID,
		ID:     detail.ID.String(),
		Status: domain.EstimateStatusSent,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), statusChanged())

	_, err = env.svc.UpdateStatus(context.Background(), domain.UpdateStatusRequest{
		OrgID:  env.orgID,
		ID:     detail.ID.String(),
		Status: domain.EstimateStatusSent,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), statusChanged())
}

func TestUpdateStatusAllowsAnyTransition(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createEstimate(t, 8, twoItems())

	for _, status := range []domain.EstimateStatus{
		domain.EstimateStatusAccepted,
		domain.EstimateStatusDraft,
		domain.EstimateStatusRejected,
		domain.EstimateStatusExpired,
		domain.EstimateStatusOpened,
	} {
		updated, err := env.svc.UpdateStatus(context.Background(), domain.UpdateStatusRequest{
			OrgID:  env.orgID,
			ID:     detail.ID.String(),
			Status: status,
		})
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	_, err := env.svc.UpdateStatus(context.Background(), domain.UpdateStatusRequest{
		OrgID:  env.orgID,
		ID:     detail.ID.String(),
		Status: domain.EstimateStatus("bogus"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestGetByIDScopedToOrganization(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createEstimate(t, 8, twoItems())

	_, err := env.svc.GetByID(context.Background(), domain.GetEstimateRequest{
		OrgID: env.node.Generate(),
		ID:    detail.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteRemovesItems(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createEstimate(t, 8, twoItems())

	require.NoError(t, env.svc.Delete(context.Background(), domain.GetEstimateRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
	}))

	var items int64
	require.NoError(t, env.db.Model(&domain.EstimateItem{}).Where("estimate_id = ?", detail.ID).Count(&items).Error)
	assert.Equal(t, int64(0), items)

	_, err := env.svc.GetByID(context.Background(), domain.GetEstimateRequest{
		OrgID: env.orgID,
		ID:    detail.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
