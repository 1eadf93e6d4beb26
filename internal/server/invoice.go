package server

import (
	"net/http"
	"strings"

	invoicedomain "github.com/Cymoe/bill/internal/invoice/domain"
	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

func toInvoiceItems(items []estimateItemRequest) []invoicedomain.ItemInput {
	out := make([]invoicedomain.ItemInput, 0, len(items))
	for _, it := range items {
		out = append(out, invoicedomain.ItemInput{
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

type createInvoiceRequest struct {
	UserID         string                `json:"user_id"`
	ClientID       string                `json:"client_id"`
	ProjectID      string                `json:"project_id"`
	Title          string                `json:"title"`
	SubtotalAmount int64                 `json:"subtotal_amount"`
	TaxRate        float64               `json:"tax_rate"`
	IssueDate      string                `json:"issue_date"`
	DueDate        string                `json:"due_date"`
	Items          []estimateItemRequest `json:"items"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
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
	dueDate, err := parseOptionalTime(req.DueDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	create := invoicedomain.CreateInvoiceRequest{
		OrgID:          orgID(c),
		ClientID:       strings.TrimSpace(req.ClientID),
		ProjectID:      strings.TrimSpace(req.ProjectID),
		Title:          req.Title,
		SubtotalAmount: req.SubtotalAmount,
		TaxRate:        req.TaxRate,
		IssueDate:      issueDate,
		DueDate:        dueDate,
		Items:          toInvoiceItems(req.Items),
	}
	if userID != nil {
		create.UserID = *userID
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.countDocumentEvent("invoice", "created")
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateInvoiceRequest struct {
	Title          *string                `json:"title"`
	ClientID       *string                `json:"client_id"`
	ProjectID      *string                `json:"project_id"`
	SubtotalAmount *int64                 `json:"subtotal_amount"`
	TaxRate        *float64               `json:"tax_rate"`
	IssueDate      string                 `json:"issue_date"`
	DueDate        string                 `json:"due_date"`
	Items          *[]estimateItemRequest `json:"items"`
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req updateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	issueDate, err := parseOptionalTime(req.IssueDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("issue_date", "invalid_issue_date", "invalid issue_date"))
		return
	}
	dueDate, err := parseOptionalTime(req.DueDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	update := invoicedomain.UpdateInvoiceRequest{
		OrgID:          orgID(c),
		ID:             strings.TrimSpace(c.Param("id")),
		Title:          req.Title,
		ClientID:       req.ClientID,
		ProjectID:      req.ProjectID,
		SubtotalAmount: req.SubtotalAmount,
		TaxRate:        req.TaxRate,
		IssueDate:      issueDate,
		DueDate:        dueDate,
	}
	if req.Items != nil {
		items := toInvoiceItems(*req.Items)
		update.Items = &items
	}

	resp, err := s.invoiceSvc.Update(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	err := s.invoiceSvc.Delete(c.Request.Context(), invoicedomain.GetInvoiceRequest{
		OrgID: orgID(c),
		ID:    strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) GetInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), invoicedomain.GetInvoiceRequest{
		OrgID: orgID(c),
		ID:    strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status   string `form:"status"`
		ClientID string `form:"client_id"`
		DueFrom  string `form:"due_from"`
		DueTo    string `form:"due_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dueFrom, err := parseOptionalTime(query.DueFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("due_from", "invalid_due_from", "invalid due_from"))
		return
	}
	dueTo, err := parseOptionalTime(query.DueTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_to", "invalid_due_to", "invalid due_to"))
		return
	}

	list := invoicedomain.ListInvoiceRequest{
		Pagination: query.Pagination,
		OrgID:      orgID(c),
		ClientID:   strings.TrimSpace(query.ClientID),
		DueFrom:    dueFrom,
		DueTo:      dueTo,
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		st := invoicedomain.InvoiceStatus(status)
		list.Status = &st
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), list)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInvoiceStatus(c *gin.Context) {
	var req updateEstimateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.UpdateStatus(c.Request.Context(), invoicedomain.UpdateStatusRequest{
		OrgID:  orgID(c),
		ID:     strings.TrimSpace(c.Param("id")),
		Status: invoicedomain.InvoiceStatus(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.countDocumentEvent("invoice", "status_changed")
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkInvoicePaid(c *gin.Context) {
	resp, err := s.invoiceSvc.MarkAsPaid(c.Request.Context(), invoicedomain.GetInvoiceRequest{
		OrgID: orgID(c),
		ID:    strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.countDocumentEvent("invoice", "paid")
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SendInvoice(c *gin.Context) {
	var req sendDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Send(c.Request.Context(), invoicedomain.SendInvoiceRequest{
		OrgID:          orgID(c),
		ID:             strings.TrimSpace(c.Param("id")),
		RecipientEmail: strings.TrimSpace(req.RecipientEmail),
		Message:        req.Message,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.countEmailDelivery("invoice", resp.Success)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SendPaymentReminder(c *gin.Context) {
	var req sendDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.SendPaymentReminder(c.Request.Context(), invoicedomain.SendInvoiceRequest{
		OrgID:          orgID(c),
		ID:             strings.TrimSpace(c.Param("id")),
		RecipientEmail: strings.TrimSpace(req.RecipientEmail),
		Message:        req.Message,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.countEmailDelivery("invoice_reminder", resp.Success)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isInvoiceValidationError(err error) bool {
	switch err {
	case invoicedomain.ErrInvalidOrganization,
		invoicedomain.ErrInvalidID,
		invoicedomain.ErrInvalidStatus,
		invoicedomain.ErrInvalidItems,
		invoicedomain.ErrMissingClient:
		return true
	default:
		return false
	}
}
