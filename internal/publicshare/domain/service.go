// Package domain defines the unauthenticated share-view contracts. The
// response shapes carry only what a client already sees on the document
// itself: no user ids, tokens, or internal references.
package domain

import (
	"context"
	"errors"
	"time"
)

type SharedParty struct {
	Name        string `json:"name"`
	CompanyName string `json:"company_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
}

type SharedItem struct {
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    int64   `json:"unit_price"`
	TotalPrice   int64   `json:"total_price"`
	DisplayOrder int32   `json:"display_order"`
}

type SharedEstimate struct {
	EstimateNumber string       `json:"estimate_number"`
	Title          string       `json:"title,omitempty"`
	Description    string       `json:"description,omitempty"`
	Status         string       `json:"status"`
	SubtotalAmount int64        `json:"subtotal_amount"`
	TaxRate        float64      `json:"tax_rate"`
	TaxAmount      int64        `json:"tax_amount"`
	TotalAmount    int64        `json:"total_amount"`
	IssueDate      *time.Time   `json:"issue_date,omitempty"`
	ExpiryDate     *time.Time   `json:"expiry_date,omitempty"`
	SignedAt       *time.Time   `json:"signed_at,omitempty"`
	OrgName        string       `json:"organization_name"`
	Client         *SharedParty `json:"client,omitempty"`
	Items          []SharedItem `json:"items"`
}

type SharedInvoice struct {
	InvoiceNumber  string       `json:"invoice_number"`
	Title          string       `json:"title,omitempty"`
	Status         string       `json:"status"`
	SubtotalAmount int64        `json:"subtotal_amount"`
	TaxRate        float64      `json:"tax_rate"`
	TaxAmount      int64        `json:"tax_amount"`
	TotalAmount    int64        `json:"total_amount"`
	TotalPaid      int64        `json:"total_paid"`
	BalanceDue     int64        `json:"balance_due"`
	IssueDate      *time.Time   `json:"issue_date,omitempty"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	PaidAt         *time.Time   `json:"paid_at,omitempty"`
	OrgName        string       `json:"organization_name"`
	Client         *SharedParty `json:"client,omitempty"`
	Items          []SharedItem `json:"items"`
}

type Service interface {
	GetEstimateByToken(ctx context.Context, token string) (SharedEstimate, error)
	GetInvoiceByToken(ctx context.Context, token string) (SharedInvoice, error)
}

var (
	ErrInvalidToken = errors.New("invalid_token")
	ErrNotFound     = errors.New("not_found")
)
