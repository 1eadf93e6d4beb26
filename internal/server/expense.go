package server

import (
	"net/http"
	"strings"

	expensedomain "github.com/Cymoe/bill/internal/expense/domain"
	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type createExpenseRequest struct {
	ProjectID   string `json:"project_id"`
	VendorID    string `json:"vendor_id"`
	CostCodeID  string `json:"cost_code_id"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      int64  `json:"amount"`
	IncurredAt  string `json:"incurred_at"`
}

func (s *Server) CreateExpense(c *gin.Context) {
	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	incurredAt, err := parseOptionalTime(req.IncurredAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("incurred_at", "invalid_incurred_at", "invalid incurred_at"))
		return
	}

	resp, err := s.expenseSvc.Create(c.Request.Context(), expensedomain.CreateExpenseRequest{
		OrgID:       orgID(c),
		ProjectID:   strings.TrimSpace(req.ProjectID),
		VendorID:    strings.TrimSpace(req.VendorID),
		CostCodeID:  strings.TrimSpace(req.CostCodeID),
		Description: req.Description,
		Category:    req.Category,
		Amount:      req.Amount,
		IncurredAt:  incurredAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateExpenseRequest struct {
	ProjectID   *string `json:"project_id"`
	VendorID    *string `json:"vendor_id"`
	CostCodeID  *string `json:"cost_code_id"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Amount      *int64  `json:"amount"`
	IncurredAt  string  `json:"incurred_at"`
}

func (s *Server) UpdateExpense(c *gin.Context) {
	var req updateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	incurredAt, err := parseOptionalTime(req.IncurredAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("incurred_at", "invalid_incurred_at", "invalid incurred_at"))
		return
	}

	resp, err := s.expenseSvc.Update(c.Request.Context(), expensedomain.UpdateExpenseRequest{
		OrgID:       orgID(c),
		ID:          strings.TrimSpace(c.Param("id")),
		ProjectID:   req.ProjectID,
		VendorID:    req.VendorID,
		CostCodeID:  req.CostCodeID,
		Description: req.Description,
		Category:    req.Category,
		Amount:      req.Amount,
		IncurredAt:  incurredAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteExpense(c *gin.Context) {
	err := s.expenseSvc.Delete(c.Request.Context(), expensedomain.GetExpenseRequest{
		OrgID: orgID(c),
		ID:    strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) GetExpense(c *gin.Context) {
	resp, err := s.expenseSvc.GetByID(c.Request.Context(), expensedomain.GetExpenseRequest{
		OrgID: orgID(c),
		ID:    strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListExpenses(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ProjectID    string `form:"project_id"`
		VendorID     string `form:"vendor_id"`
		Category     string `form:"category"`
		IncurredFrom string `form:"incurred_from"`
		IncurredTo   string `form:"incurred_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	incurredFrom, err := parseOptionalTime(query.IncurredFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("incurred_from", "invalid_incurred_from", "invalid incurred_from"))
		return
	}
	incurredTo, err := parseOptionalTime(query.IncurredTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("incurred_to", "invalid_incurred_to", "invalid incurred_to"))
		return
	}

	resp, err := s.expenseSvc.List(c.Request.Context(), expensedomain.ListExpenseRequest{
		Pagination:   query.Pagination,
		OrgID:        orgID(c),
		ProjectID:    strings.TrimSpace(query.ProjectID),
		VendorID:     strings.TrimSpace(query.VendorID),
		Category:     strings.TrimSpace(query.Category),
		IncurredFrom: incurredFrom,
		IncurredTo:   incurredTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isExpenseValidationError(err error) bool {
	switch err {
	case expensedomain.ErrInvalidOrganization,
		expensedomain.ErrInvalidDescription,
		expensedomain.ErrInvalidAmount,
		expensedomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
