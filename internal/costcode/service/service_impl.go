package service

import (
	"context"
	"strings"
	"time"

	"github.com/Cymoe/bill/internal/costcode/domain"
	"github.com/Cymoe/bill/pkg/db"
	"github.com/Cymoe/bill/pkg/db/option"
	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/Cymoe/bill/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
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
	repo  repository.Repository[domain.CostCode]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("costcode.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[domain.CostCode](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCostCodeRequest) (domain.CostCode, error) {
	if req.OrgID == 0 {
		return domain.CostCode{}, domain.ErrInvalidOrganization
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return domain.CostCode{}, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.CostCode{}, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	costCode := domain.CostCode{
		ID:        s.genID.Generate(),
		OrgID:     req.OrgID,
		Code:      code,
		Name:      name,
		Category:  strings.TrimSpace(req.Category),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, &costCode); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.CostCode{}, domain.ErrDuplicateCode
		}
		return domain.CostCode{}, err
	}
	return costCode, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateCostCodeRequest) (domain.CostCode, error) {
	existing, err := s.GetByID(ctx, domain.GetCostCodeRequest{OrgID: req.OrgID, ID: req.ID})
	if err != nil {
		return domain.CostCode{}, err
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if req.Code != nil {
		code := strings.TrimSpace(*req.Code)
		if code == "" {
			return domain.CostCode{}, domain.ErrInvalidCode
		}
		fields["code"] = code
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.CostCode{}, domain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.Category != nil {
		fields["category"] = strings.TrimSpace(*req.Category)
	}
	if req.Active != nil {
		fields["active"] = *req.Active
	}

	if err := s.repo.Update(ctx, existing.ID.String(), fields); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.CostCode{}, domain.ErrDuplicateCode
		}
		return domain.CostCode{}, err
	}
	return s.GetByID(ctx, domain.GetCostCodeRequest{OrgID: req.OrgID, ID: req.ID})
}

func (s *Service) Delete(ctx context.Context, req domain.GetCostCodeRequest) error {
	existing, err := s.GetByID(ctx, req)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, existing.ID.String())
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCostCodeRequest) (domain.CostCode, error) {
	if req.OrgID == 0 {
		return domain.CostCode{}, domain.ErrInvalidOrganization
	}
	id, err := snowflake.ParseString(req.ID)
	if err != nil {
		return domain.CostCode{}, domain.ErrInvalidID
	}

	costCode, err := s.repo.FindOne(ctx, &domain.CostCode{ID: id, OrgID: req.OrgID})
	if err != nil {
		return domain.CostCode{}, err
	}
	if costCode == nil {
		return domain.CostCode{}, domain.ErrNotFound
	}
	return *costCode, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCostCodeRequest) (domain.ListCostCodeResponse, error) {
	if req.OrgID == 0 {
		return domain.ListCostCodeResponse{}, domain.ErrInvalidOrganization
	}

	query := domain.CostCode{OrgID: req.OrgID, Category: strings.TrimSpace(req.Category)}
	if req.ActiveOnly {
		query.Active = true
	}

	rows, err := s.repo.Find(ctx, &query,
		option.ApplyPagination(req.Pagination),
		option.WithSortBy(option.QuerySortBy{
			Allow: map[string]bool{"created_at": true},
			Field: "created_at",
			Desc:  true,
		}),
	)
	if err != nil {
		return domain.ListCostCodeResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	pageInfo := pagination.BuildCursorPageInfo(rows, pageSize, func(c *domain.CostCode) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        c.ID.String(),
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
		})
		return token
	})

	if len(rows) > int(pageSize) {
		rows = rows[:pageSize]
	}
	costCodes := make([]domain.CostCode, 0, len(rows))
	for _, row := range rows {
		costCodes = append(costCodes, *row)
	}

	return domain.ListCostCodeResponse{PageInfo: *pageInfo, CostCodes: costCodes}, nil
}
