package server

import (
	"net/http"
	"strings"

	vendordomain "github.com/Cymoe/bill/internal/vendors/domain"
	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type createVendorRequest struct {
	Name        string `json:"name"`
	Trade       string `json:"trade"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
}

func (s *Server) CreateVendor(c *gin.Context) {
	var req createVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.vendorSvc.Create(c.Request.Context(), vendordomain.CreateVendorRequest{
		OrgID:       orgID(c),
		Name:        req.Name,
		Trade:       req.Trade,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Notes:       req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateVendorRequest struct {
	Name        *string `json:"name"`
	Trade       *string `json:"trade"`
	ContactName *string `json:"contact_name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	Notes       *string `json:"notes"`
}

func (s *Server) UpdateVendor(c *gin.Context) {
	var req updateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.vendorSvc.Update(c.Request.Context(), vendordomain.UpdateVendorRequest{
		OrgID:       orgID(c),
		ID:          strings.TrimSpace(c.Param("id")),
		Name:        req.Name,
		Trade:       req.Trade,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Notes:       req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteVendor(c *gin.Context) {
	err := s.vendorSvc.Delete(c.Request.Context(), vendordomain.GetVendorRequest{
		OrgID: orgID(c),
		ID:    strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) GetVendor(c *gin.Context) {
	resp, err := s.vendorSvc.GetByID(c.Request.Context(), vendordomain.GetVendorRequest{
		OrgID: orgID(c),
		ID:    strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListVendors(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Trade string `form:"trade"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.vendorSvc.List(c.Request.Context(), vendordomain.ListVendorRequest{
		Pagination: query.Pagination,
		OrgID:      orgID(c),
		Trade:      strings.TrimSpace(query.Trade),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isVendorValidationError(err error) bool {
	switch err {
	case vendordomain.ErrInvalidOrganization,
		vendordomain.ErrInvalidName,
		vendordomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
