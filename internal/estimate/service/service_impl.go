// Package service implements the estimate lifecycle: create through send,
// signature capture, and conversion into an invoice.
//
// Multi-row writes run sequentially rather than in one transaction; a
// failure partway leaves the earlier rows committed. Activity records,
// email logs, and the conversion back-reference are best-effort and never
// fail the primary write.
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
	"github.com/Cymoe/bill/internal/estimate/domain"
	invoicedomain "github.com/Cymoe/bill/internal/invoice/domain"
	"github.com/Cymoe/bill/internal/mailer"
	"github.com/Cymoe/bill/internal/money"
	"github.com/Cymoe/bill/internal/numbering"
	orgdomain "github.com/Cymoe/bill/internal/organization/domain"
	"github.com/Cymoe/bill/internal/sideeffect"
	"github.com/Cymoe/bill/pkg/db/option"
	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/Cymoe/bill/pkg/repository"
)

// Invoices produced by conversion fall due this many days after issue.
const invoiceDueDays = 30

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
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	cfg          config.Config
	estimates    repository.Repository[domain.Estimate]
	items        repository.Repository[domain.EstimateItem]
	invoices     repository.Repository[invoicedomain.Invoice]
	invoiceItems repository.Repository[invoicedomain.InvoiceItem]
	orgs         repository.Repository[orgdomain.Organization]
	emailLogs    repository.Repository[mailer.EmailLog]
	clientRepo   clientdomain.Repository
	numbers      numbering.Generator
	mail         mailer.Sender
	audit        auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("estimate.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		cfg:          p.Config,
		estimates:    repository.ProvideStore[domain.Estimate](p.DB),
		items:        repository.ProvideStore[domain.EstimateItem](p.DB),
		invoices:     repository.ProvideStore[invoicedomain.Invoice](p.DB),
		invoiceItems: repository.ProvideStore[invoicedomain.InvoiceItem](p.DB),
		orgs:         repository.ProvideStore[orgdomain.Organization](p.DB),
		emailLogs:    repository.ProvideStore[mailer.EmailLog](p.DB),
		clientRepo:   p.ClientRepo,
		numbers:      p.Numbers,
		mail:         p.Mail,
		audit:        p.Audit,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateEstimateRequest) (domain.EstimateDetail, error) {
	if req.OrgID == 0 {
		return domain.EstimateDetail{}, domain.ErrInvalidOrganization
	}

	clientID, err := parseOptionalID(req.ClientID)
	if err != nil {
		return domain.EstimateDetail{}, domain.ErrInvalidID
	}
	projectID, err := parseOptionalID(req.ProjectID)
	if err != nil {
		return domain.EstimateDetail{}, domain.ErrInvalidID
	}

	for _, it := range req.Items {
		if strings.TrimSpace(it.Description) == "" {
			return domain.EstimateDetail{}, domain.ErrInvalidItems
		}
	}

	number, err := s.numbers.Next(ctx, req.OrgID, numbering.DocTypeEstimate)
	if err != nil {
		return domain.EstimateDetail{}, fmt.Errorf("failed to allocate estimate number: %w", err)
	}

	now := s.clock.Now()
	issueDate := now
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}

	subtotal := sumItemTotals(req.Items)
	taxAmount := money.TaxAmount(subtotal, req.TaxRate)

	estimate := domain.Estimate{
		ID:             s.genID.Generate(),
		OrgID:          req.OrgID,
		UserID:         req.UserID,
		ClientID:       clientID,
		ProjectID:      projectID,
		EstimateNumber: number,
		Title:          strings.TrimSpace(req.Title),
		Description:    strings.TrimSpace(req.Description),
		Status:         domain.EstimateStatusDraft,
		SubtotalAmount: subtotal,
		TaxRate:        req.TaxRate,
		TaxAmount:      taxAmount,
		TotalAmount:    subtotal + taxAmount,
		IssueDate:      &issueDate,
		ExpiryDate:     req.ExpiryDate,
		ShareToken:     uuid.NewString(),
		Metadata:       datatypes.JSONMap{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.estimates.Create(ctx, &estimate); err != nil {
		return domain.EstimateDetail{}, fmt.Errorf("failed to create estimate: %w", err)
	}

	items := s.buildItems(estimate, req.Items, now)
	if err := s.items.BatchCreate(ctx, items); err != nil {
		return domain.EstimateDetail{}, fmt.Errorf("failed to create estimate items: %w", err)
	}

	s.recordActivity(ctx, estimate, "created",
		fmt.Sprintf("Created estimate %s", estimate.EstimateNumber),
		map[string]any{"total_amount": estimate.TotalAmount})

	return s.detail(ctx, estimate)
}

func (s *Service) Update(ctx context.Context, req domain.UpdateEstimateRequest) (domain.EstimateDetail, error) {
	estimate, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return domain.EstimateDetail{}, err
	}

	fields := map[string]any{}
	changed := []string{}

	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
		changed = append(changed, "title")
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
		changed = append(changed, "description")
	}
	if req.ClientID != nil {
		id, err := parseOptionalID(*req.ClientID)
		if err != nil {
			return domain.EstimateDetail{}, domain.ErrInvalidID
		}
		fields["client_id"] = id
		changed = append(changed, "client_id")
	}
	if req.ProjectID != nil {
		id, err := parseOptionalID(*req.ProjectID)
		if err != nil {
			return domain.EstimateDetail{}, domain.ErrInvalidID
		}
		fields["project_id"] = id
		changed = append(changed, "project_id")
	}
	if req.IssueDate != nil {
		fields["issue_date"] = *req.IssueDate
		changed = append(changed, "issue_date")
	}
	if req.ExpiryDate != nil {
		fields["expiry_date"] = *req.ExpiryDate
		changed = append(changed, "expiry_date")
	}
	if req.Status != nil {
		if !domain.ValidStatus(*req.Status) {
			return domain.EstimateDetail{}, domain.ErrInvalidStatus
		}
		fields["status"] = *req.Status
		changed = append(changed, "status")
	}

	subtotal := estimate.SubtotalAmount
	taxRate := estimate.TaxRate
	recompute := false

	if req.TaxRate != nil {
		taxRate = *req.TaxRate
		fields["tax_rate"] = taxRate
		changed = append(changed, "tax_rate")
		recompute = true
	}

	// A non-nil Items slice replaces the full item set, even when empty.
	// Callers resend the complete desired collection, not a diff.
	itemsReplaced := false
	if req.Items != nil {
		for _, it := range *req.Items {
			if strings.TrimSpace(it.Description) == "" {
				return domain.EstimateDetail{}, domain.ErrInvalidItems
			}
		}
		if err := s.items.DeleteWhere(ctx, &domain.EstimateItem{EstimateID: estimate.ID}); err != nil {
			return domain.EstimateDetail{}, fmt.Errorf("failed to replace estimate items: %w", err)
		}
		items := s.buildItems(*estimate, *req.Items, s.clock.Now())
		if err := s.items.BatchCreate(ctx, items); err != nil {
			return domain.EstimateDetail{}, fmt.Errorf("failed to replace estimate items: %w", err)
		}
		subtotal = sumItemTotals(*req.Items)
		itemsReplaced = true
		recompute = true
	}

	if recompute {
		taxAmount := money.TaxAmount(subtotal, taxRate)
		fields["subtotal_amount"] = subtotal
		fields["tax_amount"] = taxAmount
		fields["total_amount"] = subtotal + taxAmount
	}

	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now()
		if err := s.estimates.Update(ctx, estimate.ID.String(), fields); err != nil {
			return domain.EstimateDetail{}, fmt.Errorf("failed to update estimate: %w", err)
		}
	}

	updated, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return domain.EstimateDetail{}, err
	}

	s.recordActivity(ctx, *updated, "updated",
		fmt.Sprintf("Updated estimate %s", updated.EstimateNumber),
		map[string]any{"fields": changed, "items_replaced": itemsReplaced})

	return s.detail(ctx, *updated)
}

func (s *Service) Delete(ctx context.Context, req domain.GetEstimateRequest) error {
	estimate, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return err
	}

	if err := s.items.DeleteWhere(ctx, &domain.EstimateItem{EstimateID: estimate.ID}); err != nil {
		return fmt.Errorf("failed to delete estimate items: %w", err)
	}
	if err := s.estimates.Delete(ctx, estimate.ID.String()); err != nil {
		return fmt.Errorf("failed to delete estimate: %w", err)
	}

	s.recordActivity(ctx, *estimate, "deleted",
		fmt.Sprintf("Deleted estimate %s", estimate.EstimateNumber), nil)

	return nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetEstimateRequest) (domain.EstimateDetail, error) {
	estimate, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return domain.EstimateDetail{}, err
	}
	return s.detail(ctx, *estimate)
}

func (s *Service) List(ctx context.Context, req domain.ListEstimateRequest) (domain.ListEstimateResponse, error) {
	if req.OrgID == 0 {
		return domain.ListEstimateResponse{}, domain.ErrInvalidOrganization
	}

	query := domain.Estimate{OrgID: req.OrgID}
	if req.Status != nil {
		if !domain.ValidStatus(*req.Status) {
			return domain.ListEstimateResponse{}, domain.ErrInvalidStatus
		}
		query.Status = *req.Status
	}
	if req.ClientID != "" {
		id, err := snowflake.ParseString(req.ClientID)
		if err != nil {
			return domain.ListEstimateResponse{}, domain.ErrInvalidID
		}
		query.ClientID = &id
	}
	if req.ProjectID != "" {
		id, err := snowflake.ParseString(req.ProjectID)
		if err != nil {
			return domain.ListEstimateResponse{}, domain.ErrInvalidID
		}
		query.ProjectID = &id
	}

	rows, err := s.estimates.Find(ctx, &query,
		option.ApplyPagination(req.Pagination),
		option.WithSortBy(option.QuerySortBy{
			Allow: map[string]bool{"created_at": true},
			Field: "created_at",
			Desc:  true,
		}),
	)
	if err != nil {
		return domain.ListEstimateResponse{}, fmt.Errorf("failed to list estimates: %w", err)
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	pageInfo := pagination.BuildCursorPageInfo(rows, pageSize, func(est *domain.Estimate) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        est.ID.String(),
			CreatedAt: est.CreatedAt.Format(time.RFC3339),
		})
		return token
	})

	if len(rows) > int(pageSize) {
		rows = rows[:pageSize]
	}
	estimates := make([]domain.Estimate, 0, len(rows))
	for _, row := range rows {
		estimates = append(estimates, *row)
	}

	return domain.ListEstimateResponse{PageInfo: *pageInfo, Estimates: estimates}, nil
}

// UpdateStatus overwrites the status directly; any status may move to any
// other. An activity record is emitted only when the status actually
// changed.
func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) (domain.Estimate, error) {
	if !domain.ValidStatus(req.Status) {
		return domain.Estimate{}, domain.ErrInvalidStatus
	}

	estimate, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return domain.Estimate{}, err
	}

	fields := map[string]any{
		"status":     req.Status,
		"updated_at": s.clock.Now(),
	}
	if err := s.estimates.Update(ctx, estimate.ID.String(), fields); err != nil {
		return domain.Estimate{}, fmt.Errorf("failed to update estimate status: %w", err)
	}

	if estimate.Status != req.Status {
		s.recordActivity(ctx, *estimate, "status_changed",
			fmt.Sprintf("Estimate %s moved from %s to %s", estimate.EstimateNumber, estimate.Status, req.Status),
			map[string]any{"from": string(estimate.Status), "to": string(req.Status)})
	}

	updated, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return domain.Estimate{}, err
	}
	return *updated, nil
}

// AddSignature accepts the estimate unconditionally: signing a draft or an
// already-accepted estimate is permitted. When the owning organization has
// auto-invoicing enabled and the estimate has not been converted yet, a
// conversion runs afterwards; its failure is logged and the acceptance
// stands.
func (s *Service) AddSignature(ctx context.Context, req domain.AddSignatureRequest) (domain.EstimateDetail, error) {
	if strings.TrimSpace(req.Signature) == "" {
		return domain.EstimateDetail{}, domain.ErrMissingSignature
	}

	estimate, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return domain.EstimateDetail{}, err
	}

	now := s.clock.Now()
	fields := map[string]any{
		"client_signature": req.Signature,
		"signed_at":        now,
		"status":           domain.EstimateStatusAccepted,
		"updated_at":       now,
	}
	if err := s.estimates.Update(ctx, estimate.ID.String(), fields); err != nil {
		return domain.EstimateDetail{}, fmt.Errorf("failed to record signature: %w", err)
	}

	s.recordActivity(ctx, *estimate, "signed",
		fmt.Sprintf("Estimate %s signed and accepted", estimate.EstimateNumber), nil)

	if estimate.ConvertedToInvoiceID == nil {
		s.autoConvert(ctx, req.OrgID, req.ID)
	}

	updated, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return domain.EstimateDetail{}, err
	}
	return s.detail(ctx, *updated)
}

func (s *Service) autoConvert(ctx context.Context, orgID snowflake.ID, id string) {
	org, err := s.orgs.FindOne(ctx, &orgdomain.Organization{ID: orgID})
	if err != nil || org == nil || !org.AutoInvoiceOnAccept {
		if err != nil {
			s.log.Warn("failed to load organization for auto-invoicing",
				zap.String("estimate_id", id),
				zap.Error(err),
			)
		}
		return
	}

	if _, err := s.ConvertToInvoice(ctx, domain.ConvertRequest{
		OrgID:          orgID,
		ID:             id,
		DepositPercent: org.DefaultDepositPercent,
	}); err != nil {
		s.log.Warn("auto-invoicing after signature failed",
			zap.String("estimate_id", id),
			zap.Error(err),
		)
	}
}

// ConvertToInvoice turns an accepted estimate into a draft invoice. A
// deposit percentage strictly between 0 and 100 bills that share of the
// estimate; anything else bills the full amount with the items copied
// one-for-one. The call is not idempotent: converting the same estimate
// twice creates two invoices.
func (s *Service) ConvertToInvoice(ctx context.Context, req domain.ConvertRequest) (domain.ConvertResult, error) {
	estimate, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return domain.ConvertResult{}, err
	}
	if estimate.Status != domain.EstimateStatusAccepted {
		return domain.ConvertResult{}, domain.ErrNotAccepted
	}

	isDeposit := req.DepositPercent > 0 && req.DepositPercent < 100

	subtotal := estimate.SubtotalAmount
	taxAmount := estimate.TaxAmount
	if isDeposit {
		subtotal = money.ScalePercent(estimate.SubtotalAmount, req.DepositPercent)
		taxAmount = money.ScalePercent(estimate.TaxAmount, req.DepositPercent)
	}
	total := subtotal + taxAmount

	number, err := s.numbers.Next(ctx, req.OrgID, numbering.DocTypeInvoice)
	if err != nil {
		return domain.ConvertResult{}, fmt.Errorf("failed to allocate invoice number: %w", err)
	}

	now := s.clock.Now()
	issueDate := now
	dueDate := issueDate.AddDate(0, 0, invoiceDueDays)

	invoice := invoicedomain.Invoice{
		ID:               s.genID.Generate(),
		OrgID:            estimate.OrgID,
		UserID:           estimate.UserID,
		ClientID:         estimate.ClientID,
		ProjectID:        estimate.ProjectID,
		InvoiceNumber:    number,
		Title:            estimate.Title,
		Status:           invoicedomain.InvoiceStatusDraft,
		SubtotalAmount:   subtotal,
		TaxRate:          estimate.TaxRate,
		TaxAmount:        taxAmount,
		TotalAmount:      total,
		TotalPaid:        0,
		BalanceDue:       total,
		IssueDate:        &issueDate,
		DueDate:          &dueDate,
		SourceEstimateID: &estimate.ID,
		ShareToken:       uuid.NewString(),
		Metadata:         datatypes.JSONMap{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.invoices.Create(ctx, &invoice); err != nil {
		return domain.ConvertResult{}, fmt.Errorf("failed to create invoice: %w", err)
	}

	var invoiceItems []*invoicedomain.InvoiceItem
	if isDeposit {
		ref := estimate.Title
		if ref == "" {
			ref = estimate.EstimateNumber
		}
		invoiceItems = []*invoicedomain.InvoiceItem{{
			ID:          s.genID.Generate(),
			OrgID:       estimate.OrgID,
			InvoiceID:   invoice.ID,
			Description: fmt.Sprintf("Deposit (%s%%) for %s (%s)", formatPercent(req.DepositPercent), ref, estimate.EstimateNumber),
			Quantity:    1,
			UnitPrice:   subtotal,
			TotalPrice:  subtotal,
			CreatedAt:   now,
		}}
	} else {
		rows, err := s.items.Find(ctx, &domain.EstimateItem{EstimateID: estimate.ID},
			option.WithSortBy(option.QuerySortBy{
				Allow: map[string]bool{"display_order": true},
				Field: "display_order",
			}))
		if err != nil {
			return domain.ConvertResult{}, fmt.Errorf("failed to load estimate items: %w", err)
		}
		for _, row := range rows {
			invoiceItems = append(invoiceItems, &invoicedomain.InvoiceItem{
				ID:           s.genID.Generate(),
				OrgID:        estimate.OrgID,
				InvoiceID:    invoice.ID,
				Description:  row.Description,
				Quantity:     row.Quantity,
				UnitPrice:    row.UnitPrice,
				TotalPrice:   row.TotalPrice,
				CostCodeID:   row.CostCodeID,
				DisplayOrder: row.DisplayOrder,
				CreatedAt:    now,
			})
		}
	}

	if err := s.invoiceItems.BatchCreate(ctx, invoiceItems); err != nil {
		return domain.ConvertResult{}, fmt.Errorf("failed to create invoice items: %w", err)
	}

	// The invoice is the source of truth once inserted; the estimate's
	// back-reference is best-effort.
	sideeffect.Run(ctx, s.log, "conversion_backref", func(ctx context.Context) error {
		return s.estimates.Update(ctx, estimate.ID.String(), map[string]any{
			"converted_to_invoice_id": invoice.ID,
			"updated_at":              now,
		})
	})

	s.recordActivity(ctx, *estimate, "converted",
		fmt.Sprintf("Converted estimate %s to invoice %s", estimate.EstimateNumber, invoice.InvoiceNumber),
		map[string]any{
			"invoice_id": invoice.ID.String(),
			"is_deposit": isDeposit,
		})

	return domain.ConvertResult{Invoice: invoice, IsDeposit: isDeposit}, nil
}

func (s *Service) Send(ctx context.Context, req domain.SendEstimateRequest) (mailer.SendResult, error) {
	estimate, err := s.mustFind(ctx, req.OrgID, req.ID)
	if err != nil {
		return mailer.SendResult{}, err
	}

	msg, err := s.buildEmail(ctx, *estimate, req)
	if err != nil {
		return mailer.SendResult{}, err
	}

	result := s.mail.SendEstimate(ctx, msg)
	s.logEmail(ctx, *estimate, msg, result, fmt.Sprintf("Estimate %s", estimate.EstimateNumber))

	if result.Success {
		// Every successful send resets status to sent, even from opened or
		// accepted. sent_at keeps the first send only.
		now := s.clock.Now()
		fields := map[string]any{
			"status":       domain.EstimateStatusSent,
			"last_sent_at": now,
			"send_count":   gorm.Expr("send_count + 1"),
			"updated_at":   now,
		}
		if estimate.SentAt == nil {
			fields["sent_at"] = now
		}
		if err := s.estimates.Update(ctx, estimate.ID.String(), fields); err != nil {
			return result, fmt.Errorf("failed to record estimate send: %w", err)
		}

		s.recordActivity(ctx, *estimate, "sent",
			fmt.Sprintf("Sent estimate %s to %s", estimate.EstimateNumber, msg.Recipient),
			map[string]any{"recipient": msg.Recipient})
	}

	return result, nil
}

func (s *Service) mustFind(ctx context.Context, orgID snowflake.ID, id string) (*domain.Estimate, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	estimateID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	estimate, err := s.estimates.FindOne(ctx, &domain.Estimate{ID: estimateID, OrgID: orgID})
	if err != nil {
		return nil, fmt.Errorf("failed to find estimate: %w", err)
	}
	if estimate == nil {
		return nil, domain.ErrNotFound
	}
	return estimate, nil
}

func (s *Service) detail(ctx context.Context, estimate domain.Estimate) (domain.EstimateDetail, error) {
	rows, err := s.items.Find(ctx, &domain.EstimateItem{EstimateID: estimate.ID},
		option.WithSortBy(option.QuerySortBy{
			Allow: map[string]bool{"display_order": true},
			Field: "display_order",
		}))
	if err != nil {
		return domain.EstimateDetail{}, fmt.Errorf("failed to load estimate items: %w", err)
	}

	items := make([]domain.EstimateItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, *row)
	}

	detail := domain.EstimateDetail{Estimate: estimate, Items: items}
	if estimate.ClientID != nil {
		client, err := s.clientRepo.FindByID(ctx, s.db, estimate.OrgID, *estimate.ClientID)
		if err != nil {
			s.log.Warn("failed to load estimate client",
				zap.String("estimate_id", estimate.ID.String()),
				zap.Error(err),
			)
		} else {
			detail.Client = client
		}
	}
	return detail, nil
}

func (s *Service) buildItems(estimate domain.Estimate, inputs []domain.ItemInput, now time.Time) []*domain.EstimateItem {
	items := make([]*domain.EstimateItem, 0, len(inputs))
	for i, input := range inputs {
		item := &domain.EstimateItem{
			ID:          s.genID.Generate(),
			OrgID:       estimate.OrgID,
			EstimateID:  estimate.ID,
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

func (s *Service) buildEmail(ctx context.Context, estimate domain.Estimate, req domain.SendEstimateRequest) (mailer.DocumentEmail, error) {
	if estimate.ClientID == nil {
		return mailer.DocumentEmail{}, domain.ErrMissingClient
	}
	client, err := s.clientRepo.FindByID(ctx, s.db, estimate.OrgID, *estimate.ClientID)
	if err != nil {
		return mailer.DocumentEmail{}, fmt.Errorf("failed to load estimate client: %w", err)
	}
	if client == nil {
		return mailer.DocumentEmail{}, domain.ErrMissingClient
	}

	recipient := strings.TrimSpace(req.RecipientEmail)
	if recipient == "" {
		recipient = client.Email
	}
	if recipient == "" {
		return mailer.DocumentEmail{}, domain.ErrMissingClient
	}

	org, err := s.orgs.FindOne(ctx, &orgdomain.Organization{ID: estimate.OrgID})
	if err != nil {
		return mailer.DocumentEmail{}, fmt.Errorf("failed to load organization: %w", err)
	}
	orgName := ""
	if org != nil {
		orgName = org.Name
	}

	expiryValue := ""
	if estimate.ExpiryDate != nil {
		expiryValue = estimate.ExpiryDate.Format("January 2, 2006")
	}

	return mailer.DocumentEmail{
		OrgID:          estimate.OrgID,
		OrgName:        orgName,
		EntityType:     "estimate",
		EntityID:       estimate.ID.String(),
		Recipient:      recipient,
		ClientName:     client.Name,
		DocumentNumber: estimate.EstimateNumber,
		Title:          estimate.Title,
		TotalAmount:    estimate.TotalAmount,
		DateLabel:      "Valid until",
		DateValue:      expiryValue,
		ShareURL:       fmt.Sprintf("%s/share/estimates/%s", strings.TrimRight(s.cfg.PublicBaseURL, "/"), estimate.ShareToken),
		Message:        req.Message,
	}, nil
}

func (s *Service) logEmail(ctx context.Context, estimate domain.Estimate, msg mailer.DocumentEmail, result mailer.SendResult, subject string) {
	sideeffect.Run(ctx, s.log, "email_log", func(ctx context.Context) error {
		status := "sent"
		if !result.Success {
			status = "failed"
		}
		return s.emailLogs.Create(ctx, &mailer.EmailLog{
			ID:         s.genID.Generate(),
			OrgID:      estimate.OrgID,
			EntityType: "estimate",
			EntityID:   estimate.ID.String(),
			Recipient:  msg.Recipient,
			Subject:    subject,
			Status:     status,
			MessageID:  result.MessageID,
			Error:      result.Error,
			SentAt:     s.clock.Now(),
		})
	})
}

func (s *Service) recordActivity(ctx context.Context, estimate domain.Estimate, action, description string, metadata map[string]any) {
	sideeffect.Run(ctx, s.log, "activity_log", func(ctx context.Context) error {
		return s.audit.Record(ctx, auditdomain.Entry{
			OrgID:       estimate.OrgID,
			EntityType:  "estimate",
			EntityID:    estimate.ID.String(),
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

func formatPercent(pct float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", pct), "0"), ".")
}
