package server

import (
	"net/http"
	"strings"

	costcodedomain "github.com/Cymoe/bill/internal/costcode/domain"
	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type createCostCodeRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (s *Server) CreateCostCode(c *gin.Context) {
	var req createCostCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.costCodeSvc.Create(c.Request.Context(), costcodedomain.CreateCostCodeRequest{
		OrgID:    orgID(c),
		Code:     req.Code,
		Name:     req.Name,
		Category: req.Category,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateCostCodeRequest struct {
	Code     *string `json:"code"`
	Name     *string `json:"name"`
	Category *string `json:"category"`
	Active   *bool   `json:"active"`
}

func (s *Server) UpdateCostCode(c *gin.Context) {
	var req updateCostCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.costCodeSvc.Update(c.Request.Context(), costcodedomain.UpdateCostCodeRequest{
		OrgID:    orgID(c),
		ID:       strings.TrimSpace(c.Param("id")),
		Code:     req.Code,
		Name:     req.Name,
		Category: req.Category,
		Active:   req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteCostCode(c *gin.Context) {
	err := s.costCodeSvc.Delete(c.Request.Context(), costcodedomain.GetCostCodeRequest{
		OrgID: orgID(c),
		ID:    strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) GetCostCode(c *gin.Context) {
	resp, err := s.costCodeSvc.GetByID(c.Request.Context(), costcodedomain.GetCostCodeRequest{
		OrgID: orgID(c),
		ID:    strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCostCodes(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Category   string `form:"category"`
		ActiveOnly string `form:"active_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	activeOnly, err := parseOptionalBool(query.ActiveOnly)
	if err != nil {
		AbortWithError(c, newValidationError("active_only", "invalid_active_only", "invalid active_only"))
		return
	}

	list := costcodedomain.ListCostCodeRequest{
		Pagination: query.Pagination,
		OrgID:      orgID(c),
		Category:   strings.TrimSpace(query.Category),
	}
	if activeOnly != nil {
		list.ActiveOnly = *activeOnly
	}

	resp, err := s.costCodeSvc.List(c.Request.Context(), list)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isCostCodeValidationError(err error) bool {
	switch err {
	case costcodedomain.ErrInvalidOrganization,
		costcodedomain.ErrInvalidCode,
		costcodedomain.ErrInvalidName,
		costcodedomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
