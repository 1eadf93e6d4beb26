package service

import (
	"context"
	"strings"
	"time"

	"github.com/Cymoe/bill/internal/organization/domain"
	"github.com/Cymoe/bill/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository[domain.Organization]
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("organization.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[domain.Organization](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateOrganizationRequest) (domain.Organization, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Organization{}, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	org := domain.Organization{
		ID:           s.genID.Generate(),
		Name:         name,
		Slug:         slug.Make(name),
		SupportEmail: strings.TrimSpace(req.SupportEmail),
		Metadata:     datatypes.JSONMap{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, &org); err != nil {
		return domain.Organization{}, err
	}

	return org, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Organization, error) {
	if id == 0 {
		return domain.Organization{}, domain.ErrNotFound
	}

	item, err := s.repo.FindOne(ctx, &domain.Organization{ID: id})
	if err != nil {
		return domain.Organization{}, err
	}
	if item == nil {
		return domain.Organization{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) UpdateSettings(ctx context.Context, req domain.UpdateSettingsRequest) (domain.Organization, error) {
	existing, err := s.GetByID(ctx, req.OrgID)
	if err != nil {
		return domain.Organization{}, err
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Organization{}, domain.ErrInvalidName
		}
		fields["name"] = name
		fields["slug"] = slug.Make(name)
	}
	if req.SupportEmail != nil {
		fields["support_email"] = strings.TrimSpace(*req.SupportEmail)
	}
	if req.AutoInvoiceOnAccept != nil {
		fields["auto_invoice_on_accept"] = *req.AutoInvoiceOnAccept
	}
	if req.DefaultDepositPercent != nil {
		pct := *req.DefaultDepositPercent
		if pct < 0 || pct >= 100 {
			return domain.Organization{}, domain.ErrInvalidDeposit
		}
		fields["default_deposit_percent"] = pct
	}

	if err := s.repo.Update(ctx, existing.ID.String(), fields); err != nil {
		return domain.Organization{}, err
	}

	return s.GetByID(ctx, req.OrgID)
}
