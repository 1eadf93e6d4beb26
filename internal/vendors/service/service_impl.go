package service

import (
	"context"
	"strings"
	"time"

	"github.com/Cymoe/bill/internal/vendors/domain"
	"github.com/Cymoe/bill/pkg/db/option"
	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/Cymoe/bill/pkg/repository"
	"github.com/bwmarrin/snowflake"
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
	repo  repository.Repository[domain.Vendor]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("vendor.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[domain.Vendor](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateVendorRequest) (domain.Vendor, error) {
	if req.OrgID == 0 {
		return domain.Vendor{}, domain.ErrInvalidOrganization
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Vendor{}, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	vendor := domain.Vendor{
		ID:          s.genID.Generate(),
		OrgID:       req.OrgID,
		Name:        name,
		Trade:       strings.TrimSpace(req.Trade),
		ContactName: strings.TrimSpace(req.ContactName),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		Notes:       req.Notes,
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, &vendor); err != nil {
		return domain.Vendor{}, err
	}
	return vendor, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateVendorRequest) (domain.Vendor, error) {
	existing, err := s.GetByID(ctx, domain.GetVendorRequest{OrgID: req.OrgID, ID: req.ID})
	if err != nil {
		return domain.Vendor{}, err
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Vendor{}, domain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.Trade != nil {
		fields["trade"] = strings.TrimSpace(*req.Trade)
	}
	if req.ContactName != nil {
		fields["contact_name"] = strings.TrimSpace(*req.ContactName)
	}
	if req.Email != nil {
		fields["email"] = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		fields["address"] = strings.TrimSpace(*req.Address)
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}

	if err := s.repo.Update(ctx, existing.ID.String(), fields); err != nil {
		return domain.Vendor{}, err
	}
	return s.GetByID(ctx, domain.GetVendorRequest{OrgID: req.OrgID, ID: req.ID})
}

func (s *Service) Delete(ctx context.Context, req domain.GetVendorRequest) error {
	existing, err := s.GetByID(ctx, req)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, existing.ID.String())
}

func (s *Service) GetByID(ctx context.Context, req domain.GetVendorRequest) (domain.Vendor, error) {
	if req.OrgID == 0 {
		return domain.Vendor{}, domain.ErrInvalidOrganization
	}
	id, err := snowflake.ParseString(req.ID)
	if err != nil {
		return domain.Vendor{}, domain.ErrInvalidID
	}

	vendor, err := s.repo.FindOne(ctx, &domain.Vendor{ID: id, OrgID: req.OrgID})
	if err != nil {
		return domain.Vendor{}, err
	}
	if vendor == nil {
		return domain.Vendor{}, domain.ErrNotFound
	}
	return *vendor, nil
}

func (s *Service) List(ctx context.Context, req domain.ListVendorRequest) (domain.ListVendorResponse, error) {
	if req.OrgID == 0 {
		return domain.ListVendorResponse{}, domain.ErrInvalidOrganization
	}

	query := domain.Vendor{OrgID: req.OrgID, Trade: strings.TrimSpace(req.Trade)}

	rows, err := s.repo.Find(ctx, &query,
		option.ApplyPagination(req.Pagination),
		option.WithSortBy(option.QuerySortBy{
			Allow: map[string]bool{"created_at": true},
			Field: "created_at",
			Desc:  true,
		}),
	)
	if err != nil {
		return domain.ListVendorResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	pageInfo := pagination.BuildCursorPageInfo(rows, pageSize, func(v *domain.Vendor) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        v.ID.String(),
			CreatedAt: v.CreatedAt.Format(time.RFC3339),
		})
		return token
	})

	if len(rows) > int(pageSize) {
		rows = rows[:pageSize]
	}
	vendors := make([]domain.Vendor, 0, len(rows))
	for _, row := range rows {
		vendors = append(vendors, *row)
	}

	return domain.ListVendorResponse{PageInfo: *pageInfo, Vendors: vendors}, nil
}
