// Package mailer renders and dispatches transactional document email.
// Delivery failure is reported through SendResult, never as a Go error,
// so callers can skip status mutations on failure without aborting.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/Cymoe/bill/internal/money"
	emailprovider "github.com/Cymoe/bill/internal/providers/email"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DocumentEmail carries everything needed to render one document email.
type DocumentEmail struct {
	OrgID          snowflake.ID
	OrgName        string
	EntityType     string
	EntityID       string
	Recipient      string
	ClientName     string
	DocumentNumber string
	Title          string
	TotalAmount    int64
	DateLabel      string
	DateValue      string
	ShareURL       string
	Message        string
}

type Sender interface {
	SendEstimate(ctx context.Context, msg DocumentEmail) SendResult
	SendInvoice(ctx context.Context, msg DocumentEmail) SendResult
	SendPaymentReminder(ctx context.Context, msg DocumentEmail) SendResult
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Provider emailprovider.Provider
}

type sender struct {
	log      *zap.Logger
	provider emailprovider.Provider
}

func NewSender(p Params) Sender {
	return &sender{
		log:      p.Log.Named("mailer"),
		provider: p.Provider,
	}
}

func (s *sender) SendEstimate(ctx context.Context, msg DocumentEmail) SendResult {
	subject := fmt.Sprintf("Estimate %s from %s", msg.DocumentNumber, msg.OrgName)
	return s.deliver(ctx, "estimate_sent", subject, msg)
}

func (s *sender) SendInvoice(ctx context.Context, msg DocumentEmail) SendResult {
	subject := fmt.Sprintf("Invoice %s from %s", msg.DocumentNumber, msg.OrgName)
	return s.deliver(ctx, "invoice_sent", subject, msg)
}

func (s *sender) SendPaymentReminder(ctx context.Context, msg DocumentEmail) SendResult {
	subject := fmt.Sprintf("Payment reminder: invoice %s from %s", msg.DocumentNumber, msg.OrgName)
	return s.deliver(ctx, "payment_reminder", subject, msg)
}

func (s *sender) deliver(ctx context.Context, templateName, subject string, msg DocumentEmail) SendResult {
	body, err := s.render(templateName, subject, msg)
	if err != nil {
		s.log.Warn("failed to render email",
			zap.String("template", templateName),
			zap.Error(err),
		)
		return SendResult{Success: false, Error: err.Error()}
	}

	if err := s.provider.Send(ctx, []string{msg.Recipient}, subject, body); err != nil {
		s.log.Warn("email delivery failed",
			zap.String("template", templateName),
			zap.String("entity_type", msg.EntityType),
			zap.String("entity_id", msg.EntityID),
			zap.Error(err),
		)
		return SendResult{Success: false, Error: err.Error()}
	}

	return SendResult{Success: true, MessageID: uuid.NewString()}
}

func (s *sender) render(templateName, subject string, msg DocumentEmail) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+templateName+".html")
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var body bytes.Buffer
	err = tmpl.Execute(&body, map[string]any{
		"Subject":        subject,
		"OrgName":        msg.OrgName,
		"ClientName":     msg.ClientName,
		"DocumentNumber": msg.DocumentNumber,
		"Title":          msg.Title,
		"Total":          money.Format(msg.TotalAmount),
		"DateLabel":      msg.DateLabel,
		"DateValue":      msg.DateValue,
		"ShareURL":       msg.ShareURL,
		"Message":        msg.Message,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return body.String(), nil
}
