package service

import (
	"context"
	"strings"
	"time"

	"github.com/Cymoe/bill/internal/expense/domain"
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
	repo  repository.Repository[domain.Expense]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("expense.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[domain.Expense](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateExpenseRequest) (domain.Expense, error) {
	if req.OrgID == 0 {
		return domain.Expense{}, domain.ErrInvalidOrganization
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return domain.Expense{}, domain.ErrInvalidDescription
	}
	if req.Amount < 0 {
		return domain.Expense{}, domain.ErrInvalidAmount
	}

	projectID, err := parseOptionalID(req.ProjectID)
	if err != nil {
		return domain.Expense{}, domain.ErrInvalidID
	}
	vendorID, err := parseOptionalID(req.VendorID)
	if err != nil {
		return domain.Expense{}, domain.ErrInvalidID
	}
	costCodeID, err := parseOptionalID(req.CostCodeID)
	if err != nil {
		return domain.Expense{}, domain.ErrInvalidID
	}

	now := time.Now().UTC()
	incurredAt := now
	if req.IncurredAt != nil {
		incurredAt = *req.IncurredAt
	}

	expense := domain.Expense{
		ID:          s.genID.Generate(),
		OrgID:       req.OrgID,
		ProjectID:   projectID,
		VendorID:    vendorID,
		CostCodeID:  costCodeID,
		Description: description,
		Category:    strings.TrimSpace(req.Category),
		Amount:      req.Amount,
		IncurredAt:  incurredAt,
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, &expense); err != nil {
		return domain.Expense{}, err
	}
	return expense, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateExpenseRequest) (domain.Expense, error) {
	existing, err := s.GetByID(ctx, domain.GetExpenseRequest{OrgID: req.OrgID, ID: req.ID})
	if err != nil {
		return domain.Expense{}, err
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			return domain.Expense{}, domain.ErrInvalidDescription
		}
		fields["description"] = description
	}
	if req.Category != nil {
		fields["category"] = strings.TrimSpace(*req.Category)
	}
	if req.Amount != nil {
		if *req.Amount < 0 {
			return domain.Expense{}, domain.ErrInvalidAmount
		}
		fields["amount"] = *req.Amount
	}
	if req.IncurredAt != nil {
		fields["incurred_at"] = *req.IncurredAt
	}
	if req.ProjectID != nil {
		id, err := parseOptionalID(*req.ProjectID)
		if err != nil {
			return domain.Expense{}, domain.ErrInvalidID
		}
		fields["project_id"] = id
	}
	if req.VendorID != nil {
		id, err := parseOptionalID(*req.VendorID)
		if err != nil {
			return domain.Expense{}, domain.ErrInvalidID
		}
		fields["vendor_id"] = id
	}
	if req.CostCodeID != nil {
		id, err := parseOptionalID(*req.CostCodeID)
		if err != nil {
			return domain.Expense{}, domain.ErrInvalidID
		}
		fields["cost_code_id"] = id
	}

	if err := s.repo.Update(ctx, existing.ID.String(), fields); err != nil {
		return domain.Expense{}, err
	}
	return s.GetByID(ctx, domain.GetExpenseRequest{OrgID: req.OrgID, ID: req.ID})
}

func (s *Service) Delete(ctx context.Context, req domain.GetExpenseRequest) error {
	existing, err := s.GetByID(ctx, req)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, existing.ID.String())
}

func (s *Service) GetByID(ctx context.Context, req domain.GetExpenseRequest) (domain.Expense, error) {
	if req.OrgID == 0 {
		return domain.Expense{}, domain.ErrInvalidOrganization
	}
	id, err := snowflake.ParseString(req.ID)
	if err != nil {
		return domain.Expense{}, domain.ErrInvalidID
	}

	expense, err := s.repo.FindOne(ctx, &domain.Expense{ID: id, OrgID: req.OrgID})
	if err != nil {
		return domain.Expense{}, err
	}
	if expense == nil {
		return domain.Expense{}, domain.ErrNotFound
	}
	return *expense, nil
}

func (s *Service) List(ctx context.Context, req domain.ListExpenseRequest) (domain.ListExpenseResponse, error) {
	if req.OrgID == 0 {
		return domain.ListExpenseResponse{}, domain.ErrInvalidOrganization
	}

	query := domain.Expense{OrgID: req.OrgID, Category: strings.TrimSpace(req.Category)}
	if req.ProjectID != "" {
		id, err := snowflake.ParseString(req.ProjectID)
		if err != nil {
			return domain.ListExpenseResponse{}, domain.ErrInvalidID
		}
		query.ProjectID = &id
	}
	if req.VendorID != "" {
		id, err := snowflake.ParseString(req.VendorID)
		if err != nil {
			return domain.ListExpenseResponse{}, domain.ErrInvalidID
		}
		query.VendorID = &id
	}

	opts := []option.QueryOption{
		option.ApplyPagination(req.Pagination),
		option.WithSortBy(option.QuerySortBy{
			Allow: map[string]bool{"created_at": true},
			Field: "created_at",
			Desc:  true,
		}),
	}
	if req.IncurredFrom != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field: "incurred_at", Operator: option.GTE, Value: *req.IncurredFrom,
		}))
	}
	if req.IncurredTo != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field: "incurred_at", Operator: option.LTE, Value: *req.IncurredTo,
		}))
	}

	rows, err := s.repo.Find(ctx, &query, opts...)
	if err != nil {
		return domain.ListExpenseResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	pageInfo := pagination.BuildCursorPageInfo(rows, pageSize, func(e *domain.Expense) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        e.ID.String(),
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
		return token
	})

	if len(rows) > int(pageSize) {
		rows = rows[:pageSize]
	}
	expenses := make([]domain.Expense, 0, len(rows))
	for _, row := range rows {
		expenses = append(expenses, *row)
	}

	return domain.ListExpenseResponse{PageInfo: *pageInfo, Expenses: expenses}, nil
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
