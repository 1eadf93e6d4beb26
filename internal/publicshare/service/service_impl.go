// Package service resolves share tokens into client-facing document views.
// A successful view of a sent document moves it to opened, best-effort.
package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/Cymoe/bill/internal/audit/domain"
	clientdomain "github.com/Cymoe/bill/internal/client/domain"
	"github.com/Cymoe/bill/internal/clock"
	estimatedomain "github.com/Cymoe/bill/internal/estimate/domain"
	invoicedomain "github.com/Cymoe/bill/internal/invoice/domain"
	orgdomain "github.com/Cymoe/bill/internal/organization/domain"
	"github.com/Cymoe/bill/internal/publicshare/domain"
	"github.com/Cymoe/bill/internal/sideeffect"
	"github.com/Cymoe/bill/pkg/db/option"
	"github.com/Cymoe/bill/pkg/repository"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	ClientRepo clientdomain.Repository
	Audit      auditdomain.Service
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	estimates     repository.Repository[estimatedomain.Estimate]
	estimateItems repository.Repository[estimatedomain.EstimateItem]
	invoices      repository.Repository[invoicedomain.Invoice]
	invoiceItems  repository.Repository[invoicedomain.InvoiceItem]
	orgs          repository.Repository[orgdomain.Organization]
	clientRepo    clientdomain.Repository
	audit         auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("publicshare.service"),
		clock:         p.Clock,
		estimates:     repository.ProvideStore[estimatedomain.Estimate](p.DB),
		estimateItems: repository.ProvideStore[estimatedomain.EstimateItem](p.DB),
		invoices:      repository.ProvideStore[invoicedomain.Invoice](p.DB),
		invoiceItems:  repository.ProvideStore[invoicedomain.InvoiceItem](p.DB),
		orgs:          repository.ProvideStore[orgdomain.Organization](p.DB),
		clientRepo:    p.ClientRepo,
		audit:         p.Audit,
	}
}

func (s *Service) GetEstimateByToken(ctx context.Context, token string) (domain.SharedEstimate, error) {
	token, err := normalizeToken(token)
	if err != nil {
		return domain.SharedEstimate{}, err
	}

	estimate, err := s.estimates.FindOne(ctx, &estimatedomain.Estimate{ShareToken: token})
	if err != nil {
		return domain.SharedEstimate{}, err
	}
	if estimate == nil {
		return domain.SharedEstimate{}, domain.ErrNotFound
	}

	rows, err := s.estimateItems.Find(ctx, &estimatedomain.EstimateItem{EstimateID: estimate.ID},
		option.WithSortBy(option.QuerySortBy{
			Allow: map[string]bool{"display_order": true},
			Field: "display_order",
		}))
	if err != nil {
		return domain.SharedEstimate{}, err
	}

	view := domain.SharedEstimate{
		EstimateNumber: estimate.EstimateNumber,
		Title:          estimate.Title,
		Description:    estimate.Description,
		Status:         string(estimate.Status),
		SubtotalAmount: estimate.SubtotalAmount,
		TaxRate:        estimate.TaxRate,
		TaxAmount:      estimate.TaxAmount,
		TotalAmount:    estimate.TotalAmount,
		IssueDate:      estimate.IssueDate,
		ExpiryDate:     estimate.ExpiryDate,
		SignedAt:       estimate.SignedAt,
		OrgName:        s.orgName(ctx, estimate.OrgID),
		Client:         s.party(ctx, estimate.OrgID, estimate.ClientID),
	}
	for _, row := range rows {
		view.Items = append(view.Items, domain.SharedItem{
			Description:  row.Description,
			Quantity:     row.Quantity,
			UnitPrice:    row.UnitPrice,
			TotalPrice:   row.TotalPrice,
			DisplayOrder: row.DisplayOrder,
		})
	}

	if estimate.Status == estimatedomain.EstimateStatusSent {
		s.markOpened(ctx, "estimate", estimate.ID, estimate.OrgID, func(ctx context.Context) error {
			return s.estimates.Update(ctx, estimate.ID.String(), map[string]any{
				"status":     estimatedomain.EstimateStatusOpened,
				"updated_at": s.clock.Now(),
			})
		})
		view.Status = string(estimatedomain.EstimateStatusOpened)
	}

	return view, nil
}

func (s *Service) GetInvoiceByToken(ctx context.Context, token string) (domain.SharedInvoice, error) {
	token, err := normalizeToken(token)
	if err != nil {
		return domain.SharedInvoice{}, err
	}

	invoice, err := s.invoices.FindOne(ctx, &invoicedomain.Invoice{ShareToken: token})
	if err != nil {
		return domain.SharedInvoice{}, err
	}
	if invoice == nil {
		return domain.SharedInvoice{}, domain.ErrNotFound
	}

	rows, err := s.invoiceItems.Find(ctx, &invoicedomain.InvoiceItem{InvoiceID: invoice.ID},
		option.WithSortBy(option.QuerySortBy{
			Allow: map[string]bool{"display_order": true},
			Field: "display_order",
		}))
	if err != nil {
		return domain.SharedInvoice{}, err
	}

	view := domain.SharedInvoice{
		InvoiceNumber:  invoice.InvoiceNumber,
		Title:          invoice.Title,
		Status:         string(invoice.Status),
		SubtotalAmount: invoice.SubtotalAmount,
		TaxRate:        invoice.TaxRate,
		TaxAmount:      invoice.TaxAmount,
		TotalAmount:    invoice.TotalAmount,
		TotalPaid:      invoice.TotalPaid,
		BalanceDue:     invoice.BalanceDue,
		IssueDate:      invoice.IssueDate,
		DueDate:        invoice.DueDate,
		PaidAt:         invoice.PaidAt,
		OrgName:        s.orgName(ctx, invoice.OrgID),
		Client:         s.party(ctx, invoice.OrgID, invoice.ClientID),
	}
	for _, row := range rows {
		view.Items = append(view.Items, domain.SharedItem{
			Description:  row.Description,
			Quantity:     row.Quantity,
			UnitPrice:    row.UnitPrice,
			TotalPrice:   row.TotalPrice,
			DisplayOrder: row.DisplayOrder,
		})
	}

	if invoice.Status == invoicedomain.InvoiceStatusSent {
		s.markOpened(ctx, "invoice", invoice.ID, invoice.OrgID, func(ctx context.Context) error {
			return s.invoices.Update(ctx, invoice.ID.String(), map[string]any{
				"status":     invoicedomain.InvoiceStatusOpened,
				"updated_at": s.clock.Now(),
			})
		})
		view.Status = string(invoicedomain.InvoiceStatusOpened)
	}

	return view, nil
}

func (s *Service) markOpened(ctx context.Context, entityType string, id, orgID snowflake.ID, update func(context.Context) error) {
	sideeffect.Run(ctx, s.log, "share_opened", update)
	sideeffect.Run(ctx, s.log, "activity_log", func(ctx context.Context) error {
		return s.audit.Record(ctx, auditdomain.Entry{
			OrgID:       orgID,
			EntityType:  entityType,
			EntityID:    id.String(),
			Action:      "opened",
			Description: "Document opened via share link",
		})
	})
}

func (s *Service) orgName(ctx context.Context, orgID snowflake.ID) string {
	org, err := s.orgs.FindOne(ctx, &orgdomain.Organization{ID: orgID})
	if err != nil || org == nil {
		return ""
	}
	return org.Name
}

func (s *Service) party(ctx context.Context, orgID snowflake.ID, clientID *snowflake.ID) *domain.SharedParty {
	if clientID == nil {
		return nil
	}
	client, err := s.clientRepo.FindByID(ctx, s.db, orgID, *clientID)
	if err != nil || client == nil {
		return nil
	}
	return &domain.SharedParty{
		Name:        client.Name,
		CompanyName: client.CompanyName,
		Email:       client.Email,
		Phone:       client.Phone,
		Address:     client.Address,
	}
}

func normalizeToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if _, err := uuid.Parse(token); err != nil {
		return "", domain.ErrInvalidToken
	}
	return token, nil
}
