// Package pdf renders estimates and invoices as downloadable PDFs.
package pdf

import (
	"context"
	"io"
)

// DocumentData is the flattened, display-ready shape both renderers
// consume. All money fields are preformatted strings.
type DocumentData struct {
	OrgName    string
	OrgAddress string
	OrgEmail   string

	DocumentNumber string
	Title          string
	Status         string
	IssueDate      string
	SecondaryDate  string
	SecondaryLabel string

	BillToName    string
	BillToCompany string
	BillToAddress string
	BillToEmail   string

	Items []LineItem

	Subtotal string
	TaxLabel string
	Tax      string
	Total    string

	// Invoice-only; empty for estimates.
	AmountDue string
}

type LineItem struct {
	Description string
	Quantity    string
	UnitPrice   string
	Amount      string
}

type Provider interface {
	RenderEstimate(ctx context.Context, data DocumentData) (io.Reader, error)
	RenderInvoice(ctx context.Context, data DocumentData) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) RenderEstimate(ctx context.Context, data DocumentData) (io.Reader, error) {
	return nil, nil
}

func (p *NoOpProvider) RenderInvoice(ctx context.Context, data DocumentData) (io.Reader, error) {
	return nil, nil
}
