// Package service implements invoice mutations and reads.
//
// Multi-row writes run sequentially rather than in one transaction; a
// failure partway leaves the earlier rows committed. Activity records and
// email logs are best-effort and never fail the primary write.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditdomain "github.com/Cymoe/bill/internal/audit/domain"
	clientdomain "github.com/Cymoe/bill/internal/client/domain"
	"github.com/Cymoe/bill/internal/clock"
	"github.com/Cymoe/bill/internal/config"
	"github.com/Cymoe/bill/internal/invoice/domain"
	"github.com/Cymoe/bill/internal/mailer"
	"github.com/Cymoe/bill/internal/money"
	"github.com/Cymoe/bill/internal/numbering"
	orgdomain "github.com/Cymoe/bill/internal/organization/domain"
	"github.com/Cymoe/bill/internal/sideeffect"
	"github.com/Cymoe/bill/pkg/db/option"
	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/Cymoe/bill/pkg/repository"
)

// Invoices fall due this many days after their issue date unless the
// caller supplies an explicit due date.
const defaultDueDays = 30

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Config     config.Config
	ClientRepo clientdomain.Repository
	Numbers    numbering.Generator
	Mail       mailer.Sender
	Audit      auditdomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	cfg        config.Config
	invoices   repository.Repository[domain.Invoice]
	items      repository.Repository[domain.InvoiceItem]
	orgs       repository.Repository[orgdomain.Organization]
	emailLogs  repository.Repository[mailer.EmailLog]
	clientRepo clientdomain.Repository
	numbers    numbering.Generator
	mail       mailer.Sender
	audit      auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		cfg:        p.Config,
		invoices:   repository.ProvideStore[domain.Invoice](p.DB),
		items:      repository.ProvideStore[domain.InvoiceItem](p.DB),
		orgs:       repository.ProvideStore[orgdomain.Organization](p.DB),
		emailLogs:  repository.ProvideStore[mailer.EmailLog](p.DB),
		clientRepo: p.ClientRepo,
		numbers:    p.Numbers,
		mail:       p.Mail,
		audit:      p.Audit,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.InvoiceDetail, error) {
	if req.OrgID == 0 {
		return domain.InvoiceDetail{}, domain.ErrInvalidOrganization
	}

	clientID, err := parseOptionalID(req.ClientID)
	if err != nil {
		return domain.InvoiceDetail{}, domain.ErrInvalidID
	}
	projectID, err := parseOptionalID(req.ProjectID)
	if err != nil {
		return domain.InvoiceDetail{}, domain.ErrInvalidID
	}

	for _, it := range req.Items {
		if strings.TrimSpace(it.Description) == "" {
			return domain.InvoiceDetail{}, domain.ErrInvalidItems
		}
	}

	number, err := s.numbers.Next(ctx, req.OrgID, numbering.DocTypeInvoice)
	if err != nil {
		return domain.InvoiceDetail{}, fmt.Errorf("failed to allocate invoice number: %w", err)
	}

	now := s.clock.Now()
	issueDate := now
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}
	dueDate := issueDate.AddDate(0, 0, defaultDueDays)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}

	subtotal := req.SubtotalAmount
	if len(req.Items) > 0 {
		subtotal = sumItemTotals(req.Items)
	}
	taxAmount := money.TaxAmount(subtotal, req.TaxRate)
	total := subtotal + taxAmount

	invoice := domain.Invoice{
		ID:             s.genID.Generate(),
		OrgID:          req.OrgID,
		UserID:         req.UserID,
		ClientID:       clientID,
		ProjectID:      projectID,
		InvoiceNumber:  number,
		Title:          strings.TrimSpace(req.Title),
		Status:         domain.InvoiceStatusDraft,
		SubtotalAmount: subtotal,
		TaxRate:        req.TaxRate,
		TaxAmount:      taxAmount,
		TotalAmount:    total,
		TotalPaid:      0,
		BalanceDue:     total,
		IssueDate:      &issueDate,
		DueDate:        &dueDate,
		ShareToken:     uuid.NewString(),
		Metadata:       datatypes.JSONMap{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.invoices.Create(ctx, &invoice); err != nil {
		return domain.InvoiceDetail{}, fmt.Errorf("failed to create invoice: %w", err)
	}

	items := s.buildItems(invoice, req.Items, now)
	if err := s.items.BatchCreate(ctx, items); err != nil {
		return domain.InvoiceDetail{}, fmt.Errorf("failed to create invoice items: %w", err)
	}

	s.recordActivity(ctx, invoice, "created",
		fmt.Sprintf("Created invoice %s", invoice.InvoiceNumber),
		map[string]any{"total_amount": invoice.TotalAmount})

	return s.detail(ctx, invoice)
}

func (s *Service) Update(ctx context.Context, req domain.UpdateInvoiceRequest) (domain.InvoiceDetail, error) {
	invoice, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	fields := map[string]any{}
	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.ClientID != nil {
		id, err := parseOptionalID(*req.ClientID)
		if err != nil {
			return domain.InvoiceDetail{}, domain.ErrInvalidID
		}
		fields["client_id"] = id
	}
	if req.ProjectID != nil {
		id, err := parseOptionalID(*req.ProjectID)
		if err != nil {
			return domain.InvoiceDetail{}, domain.ErrInvalidID
		}
		fields["project_id"] = id
	}
	if req.IssueDate != nil {
		fields["issue_date"] = *req.IssueDate
	}
	if req.DueDate != nil {
		fields["due_date"] = *req.DueDate
	}

	subtotal := invoice.SubtotalAmount
	taxRate := invoice.TaxRate
	recompute := false

	if req.SubtotalAmount != nil {
		subtotal = *req.SubtotalAmount
		recompute = true
	}
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
		fields["tax_rate"] = taxRate
		recompute = true
	}

	// A non-nil Items pointer replaces the full item set, even when empty.
	if req.Items != nil {
		for _, it := range *req.Items {
			if strings.TrimSpace(it.Description) == "" {
				return domain.InvoiceDetail{}, domain.ErrInvalidItems
			}
		}
		if err := s.items.DeleteWhere(ctx, &domain.InvoiceItem{InvoiceID: invoice.ID}); err != nil {
			return domain.InvoiceDetail{}, fmt.Errorf("failed to replace invoice items: %w", err)
		}
		items := s.buildItems(*invoice, *req.Items, s.clock.Now())
		if err := s.items.BatchCreate(ctx, items); err != nil {
			return domain.InvoiceDetail{}, fmt.Errorf("failed to replace invoice items: %w", err)
		}
		subtotal = sumItemTotals(*req.Items)
		recompute = true
	}

	if recompute {
		taxAmount := money.TaxAmount(subtotal, taxRate)
		total := subtotal + taxAmount
		fields["subtotal_amount"] = subtotal
		fields["tax_amount"] = taxAmount
		fields["total_amount"] = total
		fields["balance_due"] = total - invoice.TotalPaid
	}

	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now()
		if err := s.invoices.Update(ctx, invoice.ID.String(), fields); err != nil {
			return domain.InvoiceDetail{}, fmt.Errorf("failed to update invoice: %w", err)
		}
	}

	updated, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	s.recordActivity(ctx, *updated, "updated",
		fmt.Sprintf("Updated invoice %s", updated.InvoiceNumber), nil)

	return s.detail(ctx, *updated)
}

func (s *Service) Delete(ctx context.Context, req domain.GetInvoiceRequest) error {
	invoice, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return err
	}

	if err := s.items.DeleteWhere(ctx, &domain.InvoiceItem{InvoiceID: invoice.ID}); err != nil {
		return fmt.Errorf("failed to delete invoice items: %w", err)
	}
	if err := s.invoices.Delete(ctx, invoice.ID.String()); err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	s.recordActivity(ctx, *invoice, "deleted",
		fmt.Sprintf("Deleted invoice %s", invoice.InvoiceNumber), nil)

	return nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetInvoiceRequest) (domain.InvoiceDetail, error) {
	invoice, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	return s.detail(ctx, *invoice)
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	if req.OrgID == 0 {
		return domain.ListInvoiceResponse{}, domain.ErrInvalidOrganization
	}

	query := domain.Invoice{OrgID: req.OrgID}
	if req.Status != nil {
		if !domain.ValidStatus(*req.Status) {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidStatus
		}
		query.Status = *req.Status
	}
	if req.ClientID != "" {
		id, err := snowflake.ParseString(req.ClientID)
		if err != nil {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidID
		}
		query.ClientID = &id
	}

	opts := []option.QueryOption{
		option.ApplyPagination(req.Pagination),
		option.WithSortBy(option.QuerySortBy{
			Allow: map[string]bool{"created_at": true},
			Field: "created_at",
			Desc:  true,
		}),
	}
	if req.DueFrom != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field: "due_date", Operator: option.GTE, Value: *req.DueFrom,
		}))
	}
	if req.DueTo != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field: "due_date", Operator: option.LTE, Value: *req.DueTo,
		}))
	}

	rows, err := s.invoices.Find(ctx, &query, opts...)
	if err != nil {
		return domain.ListInvoiceResponse{}, fmt.Errorf("failed to list invoices: %w", err)
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	pageInfo := pagination.BuildCursorPageInfo(rows, pageSize, func(inv *domain.Invoice) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        inv.ID.String(),
			CreatedAt: inv.CreatedAt.Format(time.RFC3339),
		})
		return token
	})

	if len(rows) > int(pageSize) {
		rows = rows[:pageSize]
	}
	invoices := make([]domain.Invoice, 0, len(rows))
	for _, row := range rows {
		invoices = append(invoices, *row)
	}

	return domain.ListInvoiceResponse{PageInfo: *pageInfo, Invoices: invoices}, nil
}

func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) (domain.Invoice, error) {
	if !domain.ValidStatus(req.Status) {
		return domain.Invoice{}, domain.ErrInvalidStatus
	}

	invoice, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return domain.Invoice{}, err
	}

	fields := map[string]any{
		"status":     req.Status,
		"updated_at": s.clock.Now(),
	}
	if err := s.invoices.Update(ctx, invoice.ID.String(), fields); err != nil {
		return domain.Invoice{}, fmt.Errorf("failed to update invoice status: %w", err)
	}

	if invoice.Status != req.Status {
		s.recordActivity(ctx, *invoice, "status_changed",
			fmt.Sprintf("Invoice %s moved from %s to %s", invoice.InvoiceNumber, invoice.Status, req.Status),
			map[string]any{"from": string(invoice.Status), "to": string(req.Status)})
	}

	updated, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return domain.Invoice{}, err
	}
	return *updated, nil
}

// MarkAsPaid settles the full balance: total_paid snaps to total_amount
// regardless of prior partial payments.
func (s *Service) MarkAsPaid(ctx context.Context, req domain.GetInvoiceRequest) (domain.Invoice, error) {
	invoice, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return domain.Invoice{}, err
	}

	now := s.clock.Now()
	fields := map[string]any{
		"status":      domain.InvoiceStatusPaid,
		"total_paid":  invoice.TotalAmount,
		"balance_due": 0,
		"paid_at":     now,
		"updated_at":  now,
	}
	if err := s.invoices.Update(ctx, invoice.ID.String(), fields); err != nil {
		return domain.Invoice{}, fmt.Errorf("failed to mark invoice paid: %w", err)
	}

	s.recordActivity(ctx, *invoice, "paid",
		fmt.Sprintf("Invoice %s marked as paid", invoice.InvoiceNumber),
		map[string]any{"amount": invoice.TotalAmount})

	updated, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return domain.Invoice{}, err
	}
	return *updated, nil
}

func (s *Service) Send(ctx context.Context, req domain.SendInvoiceRequest) (mailer.SendResult, error) {
	invoice, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return mailer.SendResult{}, err
	}

	msg, client, err := s.buildEmail(ctx, *invoice, req)
	if err != nil {
		return mailer.SendResult{}, err
	}

	result := s.mail.SendInvoice(ctx, msg)
	s.logEmail(ctx, *invoice, msg, result, fmt.Sprintf("Invoice %s", invoice.InvoiceNumber))

	if result.Success {
		// Every successful send resets status to sent, even from paid or
		// opened. sent_at keeps the first send only.
		now := s.clock.Now()
		fields := map[string]any{
			"status":       domain.InvoiceStatusSent,
			"last_sent_at": now,
			"send_count":   gorm.Expr("send_count + 1"),
			"updated_at":   now,
		}
		if invoice.SentAt == nil {
			fields["sent_at"] = now
		}
		if err := s.invoices.Update(ctx, invoice.ID.String(), fields); err != nil {
			return result, fmt.Errorf("failed to record invoice send: %w", err)
		}

		meta := map[string]any{"recipient": msg.Recipient}
		if client != nil {
			meta["client_id"] = client.ID.String()
		}
		s.recordActivity(ctx, *invoice, "sent",
			fmt.Sprintf("Sent invoice %s to %s", invoice.InvoiceNumber, msg.Recipient), meta)
	}

	return result, nil
}

// SendPaymentReminder re-mails an invoice without touching its lifecycle
// fields.
func (s *Service) SendPaymentReminder(ctx context.Context, req domain.SendInvoiceRequest) (mailer.SendResult, error) {
	invoice, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return mailer.SendResult{}, err
	}

	msg, _, err := s.buildEmail(ctx, *invoice, req)
	if err != nil {
		return mailer.SendResult{}, err
	}

	result := s.mail.SendPaymentReminder(ctx, msg)
	s.logEmail(ctx, *invoice, msg, result, fmt.Sprintf("Payment reminder: invoice %s", invoice.InvoiceNumber))

	if result.Success {
		s.recordActivity(ctx, *invoice, "reminder_sent",
			fmt.Sprintf("Sent payment reminder for invoice %s to %s", invoice.InvoiceNumber, msg.Recipient),
			map[string]any{"recipient": msg.Recipient})
	}

	return result, nil
}

func (s *Service) mustFind(ctx context.Context, orgID snowflake.ID, id string) (*domain.Invoice, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	invoiceID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	invoice, err := s.invoices.FindOne(ctx, &domain.Invoice{ID: invoiceID, OrgID: orgID})
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	if invoice == nil {
		return nil, domain.ErrNotFound
	}
	return invoice, nil
}

func (s *Service) detail(ctx context.Context, invoice domain.Invoice) (domain.InvoiceDetail, error) {
	rows, err := s.items.Find(ctx, &domain.InvoiceItem{InvoiceID: invoice.ID},
		option.WithSortBy(option.QuerySortBy{
			Allow: map[string]bool{"display_order": true},
			Field: "display_order",
		}))
	if err != nil {
		return domain.InvoiceDetail{}, fmt.Errorf("failed to load invoice items: %w", err)
	}

	items := make([]domain.InvoiceItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, *row)
	}

	detail := domain.InvoiceDetail{Invoice: invoice, Items: items}
	if invoice.ClientID != nil {
		client, err := s.clientRepo.FindByID(ctx, s.db, invoice.OrgID, *invoice.ClientID)
		if err != nil {
			s.log.Warn("failed to load invoice client",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err),
			)
		} else {
			detail.Client = client
		}
	}
	return detail, nil
}

func (s *Service) buildItems(invoice domain.Invoice, inputs []domain.ItemInput, now time.Time) []*domain.InvoiceItem {
	items := make([]*domain.InvoiceItem, 0, len(inputs))
	for i, input := range inputs {
		item := &domain.InvoiceItem{
			ID:          s.genID.Generate(),
			OrgID:       invoice.OrgID,
			InvoiceID:   invoice.ID,
			Description: strings.TrimSpace(input.Description),
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice,
			TotalPrice:  input.TotalPrice,
			CreatedAt:   now,
		}
		if input.CostCodeID != "" {
			if id, err := snowflake.ParseString(input.CostCodeID); err == nil {
				item.CostCodeID = &id
			}
		}
		if input.DisplayOrder != nil {
			item.DisplayOrder = *input.DisplayOrder
		} else {
			item.DisplayOrder = int32(i)
		}
		items = append(items, item)
	}
	return items
}

func (s *Service) buildEmail(ctx context.Context, invoice domain.Invoice, req domain.SendInvoiceRequest) (mailer.DocumentEmail, *clientdomain.Client, error) {
	var client *clientdomain.Client
	if invoice.ClientID != nil {
		found, err := s.clientRepo.FindByID(ctx, s.db, invoice.OrgID, *invoice.ClientID)
		if err != nil {
			return mailer.DocumentEmail{}, nil, fmt.Errorf("failed to load invoice client: %w", err)
		}
		client = found
	}

	recipient := strings.TrimSpace(req.RecipientEmail)
	if recipient == "" && client != nil {
		recipient = client.Email
	}
	if recipient == "" {
		return mailer.DocumentEmail{}, nil, domain.ErrMissingClient
	}

	org, err := s.orgs.FindOne(ctx, &orgdomain.Organization{ID: invoice.OrgID})
	if err != nil {
		return mailer.DocumentEmail{}, nil, fmt.Errorf("failed to load organization: %w", err)
	}
	orgName := ""
	if org != nil {
		orgName = org.Name
	}

	clientName := ""
	if client != nil {
		clientName = client.Name
	}

	dueValue := ""
	if invoice.DueDate != nil {
		dueValue = invoice.DueDate.Format("January 2, 2006")
	}

	return mailer.DocumentEmail{
		OrgID:          invoice.OrgID,
		OrgName:        orgName,
		EntityType:     "invoice",
		EntityID:       invoice.ID.String(),
		Recipient:      recipient,
		ClientName:     clientName,
		DocumentNumber: invoice.InvoiceNumber,
		Title:          invoice.Title,
		TotalAmount:    invoice.TotalAmount,
		DateLabel:      "Due date",
		DateValue:      dueValue,
		ShareURL:       fmt.Sprintf("%s/share/invoices/%s", strings.TrimRight(s.cfg.PublicBaseURL, "/"), invoice.ShareToken),
		Message:        req.Message,
	}, client, nil
}

func (s *Service) logEmail(ctx context.Context, invoice domain.Invoice, msg mailer.DocumentEmail, result mailer.SendResult, subject string) {
	sideeffect.Run(ctx, s.log, "email_log", func(ctx context.Context) error {
		status := "sent"
		if !result.Success {
			status = "failed"
		}
		return s.emailLogs.Create(ctx, &mailer.EmailLog{
			ID:         s.genID.Generate(),
			OrgID:      invoice.OrgID,
			EntityType: "invoice",
			EntityID:   invoice.ID.String(),
			Recipient:  msg.Recipient,
			Subject:    subject,
			Status:     status,
			MessageID:  result.MessageID,
			Error:      result.Error,
			SentAt:     s.clock.Now(),
		})
	})
}

func (s *Service) recordActivity(ctx context.Context, invoice domain.Invoice, action, description string, metadata map[string]any) {
	sideeffect.Run(ctx, s.log, "activity_log", func(ctx context.Context) error {
		return s.audit.Record(ctx, auditdomain.Entry{
			OrgID:       invoice.OrgID,
			EntityType:  "invoice",
			EntityID:    invoice.ID.String(),
			Action:      action,
			Description: description,
			Metadata:    metadata,
		})
	})
}

func parseOptionalID(raw string) (*snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func sumItemTotals(items []domain.ItemInput) int64 {
	var subtotal int64
	for _, it := range items {
		subtotal += it.TotalPrice
	}
	return subtotal
}
