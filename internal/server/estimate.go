package server

import (
	"net/http"
	"strings"

	estimatedomain "github.com/Cymoe/bill/internal/estimate/domain"
	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type estimateItemRequest struct {
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    int64   `json:"unit_price"`
	TotalPrice   int64   `json:"total_price"`
	CostCodeID   string  `json:"cost_code_id"`
	DisplayOrder *int32  `json:"display_order"`
}

type createEstimateRequest struct {
	UserID      string                `json:"user_id"`
	ClientID    string                `json:"client_id"`
	ProjectID   string                `json:"project_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	TaxRate     float64               `json:"tax_rate"`
	IssueDate   string                `json:"issue_date"`
	ExpiryDate  string                `json:"expiry_date"`
	Items       []estimateItemRequest `json:"items"`
}

func toEstimateItems(items []estimateItemRequest) []estimatedomain.ItemInput {
	out := make([]estimatedomain.ItemInput, 0, len(items))
	for _, it := range items {
		out = append(out, estimatedomain.ItemInput{
			Description:  it.Description,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			TotalPrice:   it.TotalPrice,
			CostCodeID:   it.CostCodeID,
			DisplayOrder: it.DisplayOrder,
		})
	}
	return out
}

func (s *Server) CreateEstimate(c *gin.Context) {
	var req createEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, err := parseOptionalSnowflakeID(req.UserID)
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_user_id", "invalid user_id"))
		return
	}
	issueDate, err := parseOptionalTime(req.IssueDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("issue_date", "invalid_issue_date", "invalid issue_date"))
		return
	}
	expiryDate, err := parseOptionalTime(req.ExpiryDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("expiry_date", "invalid_expiry_date", "invalid expiry_date"))
		return
	}

	create := estimatedomain.CreateEstimateRequest{
		OrgID:       orgID(c),
		ClientID:    strings.TrimSpace(req.ClientID),
		ProjectID:   strings.TrimSpace(req.ProjectID),
		Title:       req.Title,
		Description: req.Description,
		TaxRate:     req.TaxRate,
		IssueDate:   issueDate,
		ExpiryDate:  expiryDate,
		Items:       toEstimateItems(req.Items),
	}
	if userID != nil {
		create.UserID = *userID
	}

	resp, err := s.estimateSvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.countDocumentEvent("estimate", "created")
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateEstimateRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	ClientID    *string                `json:"client_id"`
	ProjectID   *string                `json:"project_id"`
	TaxRate     *float64               `json:"tax_rate"`
	IssueDate   string                 `json:"issue_date"`
	ExpiryDate  string                 `json:"expiry_date"`
	Status      *string                `json:"status"`
	Items       *[]estimateItemRequest `json:"items"`
}

func (s *Server) UpdateEstimate(c *gin.Context) {
	var req updateEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	issueDate, err := parseOptionalTime(req.IssueDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("issue_date", "invalid_issue_date", "invalid issue_date"))
		return
	}
	expiryDate, err := parseOptionalTime(req.ExpiryDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("expiry_date", "invalid_expiry_date", "invalid expiry_date"))
		return
	}

	update := estimatedomain.UpdateEstimateRequest{
		OrgID:       orgID(c),
		ID:          strings.TrimSpace(c.Param("id")),
		Title:       req.Title,
		Description: req.Description,
		ClientID:    req.ClientID,
		ProjectID:   req.ProjectID,
		TaxRate:     req.TaxRate,
		IssueDate:   issueDate,
		ExpiryDate:  expiryDate,
	}
	if req.Status != nil {
		status := estimatedomain.EstimateStatus(*req.Status)
		update.Status = &status
	}
	if req.Items != nil {
		items := toEstimateItems(*req.Items)
		update.Items = &items
	}

	resp, err := s.estimateSvc.Update(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteEstimate(c *gin.Context) {
	err := s.estimateSvc.Delete(c.Request.Context(), estimatedomain.GetEstimateRequest{
		OrgID: orgID(c),
		ID:    strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) GetEstimate(c *gin.Context) {
	resp, err := s.estimateSvc.GetByID(c.Request.Context(), estimatedomain.GetEstimateRequest{
		OrgID: orgID(c),
		ID:    strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListEstimates(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status    string `form:"status"`
		ClientID  string `form:"client_id"`
		ProjectID string `form:"project_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	list := estimatedomain.ListEstimateRequest{
		Pagination: query.Pagination,
		OrgID:      orgID(c),
		ClientID:   strings.TrimSpace(query.ClientID),
		ProjectID:  strings.TrimSpace(query.ProjectID),
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		st := estimatedomain.EstimateStatus(status)
		list.Status = &st
	}

	resp, err := s.estimateSvc.List(c.Request.Context(), list)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateEstimateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) UpdateEstimateStatus(c *gin.Context) {
	var req updateEstimateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.estimateSvc.UpdateStatus(c.Request.Context(), estimatedomain.UpdateStatusRequest{
		OrgID:  orgID(c),
		ID:     strings.TrimSpace(c.Param("id")),
		Status: estimatedomain.EstimateStatus(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.countDocumentEvent("estimate", "status_changed")
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type addSignatureRequest struct {
	Signature string `json:"signature"`
}

func (s *Server) AddEstimateSignature(c *gin.Context) {
	var req addSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.estimateSvc.AddSignature(c.Request.Context(), estimatedomain.AddSignatureRequest{
		OrgID:     orgID(c),
		ID:        strings.TrimSpace(c.Param("id")),
		Signature: req.Signature,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.countDocumentEvent("estimate", "signed")
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type convertEstimateRequest struct {
	DepositPercent float64 `json:"deposit_percent"`
}

func (s *Server) ConvertEstimate(c *gin.Context) {
	var req convertEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.estimateSvc.ConvertToInvoice(c.Request.Context(), estimatedomain.ConvertRequest{
		OrgID:          orgID(c),
		ID:             strings.TrimSpace(c.Param("id")),
		DepositPercent: req.DepositPercent,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.countDocumentEvent("estimate", "converted")
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type sendDocumentRequest struct {
	RecipientEmail string `json:"recipient_email"`
	Message        string `json:"message"`
}

func (s *Server) SendEstimate(c *gin.Context) {
	var req sendDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.estimateSvc.Send(c.Request.Context(), estimatedomain.SendEstimateRequest{
		OrgID:          orgID(c),
		ID:             strings.TrimSpace(c.Param("id")),
		RecipientEmail: strings.TrimSpace(req.RecipientEmail),
		Message:        req.Message,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.countEmailDelivery("estimate", resp.Success)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isEstimateValidationError(err error) bool {
	switch err {
	case estimatedomain.ErrInvalidOrganization,
		estimatedomain.ErrInvalidID,
		estimatedomain.ErrInvalidStatus,
		estimatedomain.ErrInvalidItems,
		estimatedomain.ErrMissingSignature,
		estimatedomain.ErrMissingClient:
		return true
	default:
		return false
	}
}
