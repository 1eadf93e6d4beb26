package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	clientdomain "github.com/Cymoe/bill/internal/client/domain"
	estimatedomain "github.com/Cymoe/bill/internal/estimate/domain"
	invoicedomain "github.com/Cymoe/bill/internal/invoice/domain"
	"github.com/Cymoe/bill/internal/money"
	"github.com/Cymoe/bill/internal/providers/pdf"
	"github.com/gin-gonic/gin"
)

const pdfDateLayout = "January 2, 2006"

func (s *Server) DownloadEstimatePDF(c *gin.Context) {
	detail, err := s.estimateSvc.GetByID(c.Request.Context(), estimatedomain.GetEstimateRequest{
		OrgID: orgID(c),
		ID:    strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data := pdf.DocumentData{
		DocumentNumber: detail.EstimateNumber,
		Title:          detail.Title,
		Status:         string(detail.Status),
		IssueDate:      formatPDFDate(detail.IssueDate),
		SecondaryLabel: "Valid Until",
		SecondaryDate:  formatPDFDate(detail.ExpiryDate),
		Subtotal:       money.Format(detail.SubtotalAmount),
		TaxLabel:       taxLabel(detail.TaxRate),
		Tax:            money.Format(detail.TaxAmount),
		Total:          money.Format(detail.TotalAmount),
	}
	fillOrgFields(c, s, &data)
	fillPartyFields(detail.Client, &data)
	for _, it := range detail.Items {
		data.Items = append(data.Items, pdf.LineItem{
			Description: it.Description,
			Quantity:    formatQuantity(it.Quantity),
			UnitPrice:   money.Format(it.UnitPrice),
			Amount:      money.Format(it.TotalPrice),
		})
	}

	reader, err := s.pdfProvider.RenderEstimate(c.Request.Context(), data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writePDF(c, reader, detail.EstimateNumber)
}

func (s *Server) DownloadInvoicePDF(c *gin.Context) {
	detail, err := s.invoiceSvc.GetByID(c.Request.Context(), invoicedomain.GetInvoiceRequest{
		OrgID: orgID(c),
		ID:    strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data := pdf.DocumentData{
		DocumentNumber: detail.InvoiceNumber,
		Title:          detail.Title,
		Status:         string(detail.Status),
		IssueDate:      formatPDFDate(detail.IssueDate),
		SecondaryLabel: "Due Date",
		SecondaryDate:  formatPDFDate(detail.DueDate),
		Subtotal:       money.Format(detail.SubtotalAmount),
		TaxLabel:       taxLabel(detail.TaxRate),
		Tax:            money.Format(detail.TaxAmount),
		Total:          money.Format(detail.TotalAmount),
		AmountDue:      money.Format(detail.BalanceDue),
	}
	fillOrgFields(c, s, &data)
	fillPartyFields(detail.Client, &data)
	for _, it := range detail.Items {
		data.Items = append(data.Items, pdf.LineItem{
			Description: it.Description,
			Quantity:    formatQuantity(it.Quantity),
			UnitPrice:   money.Format(it.UnitPrice),
			Amount:      money.Format(it.TotalPrice),
		})
	}

	reader, err := s.pdfProvider.RenderInvoice(c.Request.Context(), data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writePDF(c, reader, detail.InvoiceNumber)
}

// fillOrgFields is best-effort: a missing organization row still yields a
// usable document, just without the letterhead block.
func fillOrgFields(c *gin.Context, s *Server, data *pdf.DocumentData) {
	org, err := s.organizationSvc.GetByID(c.Request.Context(), orgID(c))
	if err != nil {
		return
	}
	data.OrgName = org.Name
	data.OrgEmail = org.SupportEmail
}

func fillPartyFields(client *clientdomain.Client, data *pdf.DocumentData) {
	if client == nil {
		return
	}
	data.BillToName = client.Name
	data.BillToCompany = client.CompanyName
	data.BillToAddress = client.Address
	data.BillToEmail = client.Email
}

func writePDF(c *gin.Context, reader io.Reader, documentNumber string) {
	if reader == nil {
		AbortWithError(c, ErrInternal)
		return
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", documentNumber+".pdf"))
	c.Data(http.StatusOK, "application/pdf", body)
}

func formatPDFDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(pdfDateLayout)
}

func formatQuantity(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", q), "0"), ".")
}

func taxLabel(rate float64) string {
	if rate <= 0 {
		return "Tax"
	}
	return fmt.Sprintf("Tax (%s%%)", strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", rate), "0"), "."))
}
