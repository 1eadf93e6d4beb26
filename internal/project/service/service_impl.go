package service

import (
	"context"
	"strings"
	"time"

	"github.com/Cymoe/bill/internal/project/domain"
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
	repo  repository.Repository[domain.Project]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("project.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[domain.Project](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProjectRequest) (domain.Project, error) {
	if req.OrgID == 0 {
		return domain.Project{}, domain.ErrInvalidOrganization
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Project{}, domain.ErrInvalidName
	}
	clientID, err := parseOptionalID(req.ClientID)
	if err != nil {
		return domain.Project{}, domain.ErrInvalidID
	}

	now := time.Now().UTC()
	project := domain.Project{
		ID:           s.genID.Generate(),
		OrgID:        req.OrgID,
		ClientID:     clientID,
		Name:         name,
		Description:  strings.TrimSpace(req.Description),
		Status:       domain.ProjectStatusPlanned,
		Address:      strings.TrimSpace(req.Address),
		BudgetAmount: req.BudgetAmount,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Metadata:     datatypes.JSONMap{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, &project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateProjectRequest) (domain.Project, error) {
	existing, err := s.GetByID(ctx, domain.GetProjectRequest{OrgID: req.OrgID, ID: req.ID})
	if err != nil {
		return domain.Project{}, err
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Project{}, domain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Address != nil {
		fields["address"] = strings.TrimSpace(*req.Address)
	}
	if req.ClientID != nil {
		id, err := parseOptionalID(*req.ClientID)
		if err != nil {
			return domain.Project{}, domain.ErrInvalidID
		}
		fields["client_id"] = id
	}
	if req.Status != nil {
		if !domain.ValidStatus(*req.Status) {
			return domain.Project{}, domain.ErrInvalidStatus
		}
		fields["status"] = *req.Status
	}
	if req.BudgetAmount != nil {
		fields["budget_amount"] = *req.BudgetAmount
	}
	if req.StartDate != nil {
		fields["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		fields["end_date"] = *req.EndDate
	}

	if err := s.repo.Update(ctx, existing.ID.String(), fields); err != nil {
		return domain.Project{}, err
	}
	return s.GetByID(ctx, domain.GetProjectRequest{OrgID: req.OrgID, ID: req.ID})
}

func (s *Service) Delete(ctx context.Context, req domain.GetProjectRequest) error {
	existing, err := s.GetByID(ctx, req)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, existing.ID.String())
}

func (s *Service) GetByID(ctx context.Context, req domain.GetProjectRequest) (domain.Project, error) {
	if req.OrgID == 0 {
		return domain.Project{}, domain.ErrInvalidOrganization
	}
	id, err := snowflake.ParseString(req.ID)
	if err != nil {
		return domain.Project{}, domain.ErrInvalidID
	}

	project, err := s.repo.FindOne(ctx, &domain.Project{ID: id, OrgID: req.OrgID})
	if err != nil {
		return domain.Project{}, err
	}
	if project == nil {
		return domain.Project{}, domain.ErrNotFound
	}
	return *project, nil
}

func (s *Service) List(ctx context.Context, req domain.ListProjectRequest) (domain.ListProjectResponse, error) {
	if req.OrgID == 0 {
		return domain.ListProjectResponse{}, domain.ErrInvalidOrganization
	}

	query := domain.Project{OrgID: req.OrgID}
	if req.Status != nil {
		if !domain.ValidStatus(*req.Status) {
			return domain.ListProjectResponse{}, domain.ErrInvalidStatus
		}
		query.Status = *req.Status
	}
	if req.ClientID != "" {
		id, err := snowflake.ParseString(req.ClientID)
		if err != nil {
			return domain.ListProjectResponse{}, domain.ErrInvalidID
		}
		query.ClientID = &id
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
		return domain.ListProjectResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	pageInfo := pagination.BuildCursorPageInfo(rows, pageSize, func(p *domain.Project) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        p.ID.String(),
			CreatedAt: p.CreatedAt.Format(time.RFC3339),
		})
		return token
	})

	if len(rows) > int(pageSize) {
		rows = rows[:pageSize]
	}
	projects := make([]domain.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, *row)
	}

	return domain.ListProjectResponse{PageInfo: *pageInfo, Projects: projects}, nil
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
