package server

import (
	"net/http"

	organizationdomain "github.com/Cymoe/bill/internal/organization/domain"
	"github.com/gin-gonic/gin"
)

type createOrganizationRequest struct {
	Name         string `json:"name"`
	SupportEmail string `json:"support_email"`
}

// CreateOrganization is the one authenticated route that does not carry an
// org header, since it mints the organization itself.
func (s *Server) CreateOrganization(c *gin.Context) {
	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.organizationSvc.Create(c.Request.Context(), organizationdomain.CreateOrganizationRequest{
		Name:         req.Name,
		SupportEmail: req.SupportEmail,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrganization(c *gin.Context) {
	resp, err := s.organizationSvc.GetByID(c.Request.Context(), orgID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateOrganizationSettingsRequest struct {
	Name                  *string  `json:"name"`
	SupportEmail          *string  `json:"support_email"`
	AutoInvoiceOnAccept   *bool    `json:"auto_invoice_on_accept"`
	DefaultDepositPercent *float64 `json:"default_deposit_percent"`
}

func (s *Server) UpdateOrganizationSettings(c *gin.Context) {
	var req updateOrganizationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.organizationSvc.UpdateSettings(c.Request.Context(), organizationdomain.UpdateSettingsRequest{
		OrgID:                 orgID(c),
		Name:                  req.Name,
		SupportEmail:          req.SupportEmail,
		AutoInvoiceOnAccept:   req.AutoInvoiceOnAccept,
		DefaultDepositPercent: req.DefaultDepositPercent,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isOrganizationValidationError(err error) bool {
	switch err {
	case organizationdomain.ErrInvalidName,
		organizationdomain.ErrInvalidDeposit:
		return true
	default:
		return false
	}
}
