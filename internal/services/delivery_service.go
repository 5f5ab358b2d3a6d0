// Package services – DeliveryService
//
// This file implements the DeliveryService, the orchestrator for sending a
// quote to its customer. One send runs a fixed sequence: snapshot the quote,
// generate the PDF document, obtain a payment session, render the message,
// and dispatch it through the mail provider chain.
//
// The document and payment steps are degradable: if either fails, the send
// continues without that piece and the receipt records the degradation. The
// single exception is an invalid charge amount, which aborts the send, since
// mailing a quote that can never be paid correctly helps nobody.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fornello/go-quote-backend/internal/document"
	"github.com/fornello/go-quote-backend/internal/domain"
	"github.com/fornello/go-quote-backend/internal/money"
	"github.com/fornello/go-quote-backend/internal/payments"
	"github.com/fornello/go-quote-backend/internal/render"
	"github.com/fornello/go-quote-backend/internal/repo"
)

// Degradation markers recorded on a receipt when an optional step fails.
const (
	DegradedDocument    = "document"
	DegradedPaymentLink = "payment_link"
)

// QuoteReader defines the repository contract required by DeliveryService.
type QuoteReader interface {
	// GetQuoteForSend loads the immutable snapshot used for one send.
	GetQuoteForSend(ctx context.Context, db *gorm.DB, quoteID string) (domain.QuoteSnapshot, error)

	// GetPaymentSession fetches the stored session for a quote and mode.
	GetPaymentSession(ctx context.Context, db *gorm.DB, quoteID, mode string) (*domain.PaymentSession, error)
}

// DocumentGenerator produces the PDF attachment for a snapshot.
type DocumentGenerator interface {
	Generate(snap domain.QuoteSnapshot) (document.File, error)
}

// SessionProvider returns the live payment session for a quote and mode,
// creating one when needed.
type SessionProvider interface {
	GetOrCreate(ctx context.Context, req payments.SessionRequest) (*domain.PaymentSession, error)
}

// Renderer resolves a named template against flat string variables.
type Renderer interface {
	Render(name string, vars map[string]string) (render.Output, error)
}

// Dispatcher sends a rendered notification through the provider chain.
type Dispatcher interface {
	Send(ctx context.Context, n *domain.RenderedNotification, to string) (*domain.DeliveryResult, error)
}

// SendReceipt is the composite outcome of one send operation.
type SendReceipt struct {
	QuoteID     string                 `json:"quote_id"`
	QuoteNumber string                 `json:"quote_number"`
	Delivery    *domain.DeliveryResult `json:"delivery"`
	SessionID   string                 `json:"session_id,omitempty"`
	CheckoutURL string                 `json:"checkout_url,omitempty"`

	// Degradations lists the optional steps that failed on this send
	// (DegradedDocument, DegradedPaymentLink). Empty on a clean send.
	Degradations []string `json:"degradations,omitempty"`
}

// DeliveryService coordinates the full quote send pipeline.
type DeliveryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Quotes is the quote repository used by this service.
	Quotes QuoteReader

	// Documents generates the PDF attachment.
	Documents DocumentGenerator
	// Sessions manages payment sessions.
	Sessions SessionProvider
	// Templates renders the outbound message.
	Templates Renderer
	// Mailer dispatches through the provider chain.
	Mailer Dispatcher

	// CompanyName and SenderName appear in the rendered message.
	CompanyName string
	SenderName  string

	// SendTimeout bounds one whole send operation. Zero means no bound.
	SendTimeout time.Duration

	// Log is the structured logger.
	Log zerolog.Logger
}

// SendQuote runs the delivery pipeline for one quote. A nil error means the
// pipeline ran to the dispatch step; the receipt's Delivery.FinalStatus says
// whether any provider actually accepted the message.
func (s *DeliveryService) SendQuote(ctx context.Context, quoteID, mode string) (*SendReceipt, error) {
	if !domain.ValidMode(mode) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if s.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.SendTimeout)
		defer cancel()
	}

	snap, err := s.Quotes.GetQuoteForSend(ctx, s.DB, quoteID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	receipt := &SendReceipt{QuoteID: snap.ID, QuoteNumber: snap.Number}

	var attachment *domain.Attachment
	if file, err := s.Documents.Generate(snap); err != nil {
		receipt.Degradations = append(receipt.Degradations, DegradedDocument)
		s.Log.Warn().Str("quote_id", snap.ID).Err(err).
			Msg("document generation failed, sending without attachment")
	} else {
		attachment = &domain.Attachment{
			Filename: file.Filename,
			Bytes:    file.Bytes,
			MIMEType: file.MIMEType,
		}
	}

	session, err := s.Sessions.GetOrCreate(ctx, payments.SessionRequest{
		QuoteID:         snap.ID,
		QuoteNumber:     snap.Number,
		Mode:            mode,
		TotalMinorUnits: snap.TotalMinorUnits,
		Currency:        snap.Currency,
		CustomerEmail:   snap.Customer.Email,
	})
	if err != nil {
		if errors.Is(err, payments.ErrInvalidAmount) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		session = nil
		receipt.Degradations = append(receipt.Degradations, DegradedPaymentLink)
		s.Log.Warn().Str("quote_id", snap.ID).Str("mode", mode).Err(err).
			Msg("payment session unavailable, sending without link")
	}

	vars := s.emailVars(snap, session, attachment != nil)
	out, err := s.Templates.Render(templateFor(mode), vars.asMap())
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	notification := &domain.RenderedNotification{
		Subject: out.Subject,
		HTML:    out.HTML,
		Text:    out.Text,
	}
	if attachment != nil {
		notification.Attachments = []domain.Attachment{*attachment}
	}

	result, err := s.Mailer.Send(ctx, notification, snap.Customer.Email)
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	receipt.Delivery = result
	if session != nil {
		receipt.SessionID = session.SessionID
		receipt.CheckoutURL = session.CheckoutURL
	}

	s.Log.Info().
		Str("quote_id", snap.ID).
		Str("mode", mode).
		Str("status", string(result.FinalStatus)).
		Strs("degradations", receipt.Degradations).
		Msg("quote send completed")
	return receipt, nil
}

// PaymentSession returns the stored session for a quote and mode, without
// creating one. Used by the read-only session endpoint.
func (s *DeliveryService) PaymentSession(ctx context.Context, quoteID, mode string) (*domain.PaymentSession, error) {
	if !domain.ValidMode(mode) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	session, err := s.Quotes.GetPaymentSession(ctx, s.DB, quoteID, mode)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return session, nil
}

// templateFor maps a payment mode to its template name.
func templateFor(mode string) string {
	if mode == domain.ModeFull {
		return render.TemplateQuoteFull
	}
	return render.TemplateQuoteDeposit
}

// quoteEmailVars is the explicit set of variables the quote templates
// consume. The orchestrator fills it with typed values; it is flattened to
// the renderer's string map only at the render boundary.
type quoteEmailVars struct {
	CompanyName   string
	SenderName    string
	CustomerName  string
	QuoteNumber   string
	LineItems     string
	Total         string
	ValidUntil    string
	EventDate     string
	EventLocation string
	HasAttachment bool

	PaymentAmount   string
	PaymentURL      string
	PaymentFallback string
}

// asMap flattens the vars into the renderer's contract. Empty fields are
// omitted so template {{if}} blocks see them as unset.
func (v quoteEmailVars) asMap() map[string]string {
	m := map[string]string{
		"CompanyName":  v.CompanyName,
		"SenderName":   v.SenderName,
		"CustomerName": v.CustomerName,
		"QuoteNumber":  v.QuoteNumber,
		"LineItems":    v.LineItems,
		"Total":        v.Total,
		"ValidUntil":   v.ValidUntil,
	}
	if v.EventDate != "" {
		m["EventDate"] = v.EventDate
	}
	if v.EventLocation != "" {
		m["EventLocation"] = v.EventLocation
	}
	if v.HasAttachment {
		m["HasAttachment"] = "true"
	}
	if v.PaymentURL != "" {
		m["PaymentAmount"] = v.PaymentAmount
		m["PaymentURL"] = v.PaymentURL
	} else {
		m["PaymentFallback"] = v.PaymentFallback
	}
	return m
}

// emailVars builds the typed template variables from the snapshot and the
// optional payment session.
func (s *DeliveryService) emailVars(snap domain.QuoteSnapshot, session *domain.PaymentSession, hasAttachment bool) quoteEmailVars {
	v := quoteEmailVars{
		CompanyName:   s.CompanyName,
		SenderName:    s.SenderName,
		CustomerName:  snap.Customer.Name,
		QuoteNumber:   snap.Number,
		LineItems:     formatLineItems(snap),
		Total:         money.FormatMinorUnits(snap.TotalMinorUnits, snap.Currency),
		ValidUntil:    snap.ValidUntil.Format("January 2, 2006"),
		EventLocation: snap.EventLocation,
		HasAttachment: hasAttachment,
	}
	if snap.EventDate != nil {
		v.EventDate = snap.EventDate.Format("January 2, 2006")
	}
	if session != nil {
		v.PaymentAmount = money.FormatMinorUnits(session.AmountMinorUnits, session.Currency)
		v.PaymentURL = session.CheckoutURL
	} else {
		v.PaymentFallback = "We will follow up separately with payment instructions."
	}
	return v
}

// formatLineItems renders the snapshot's items as aligned plain-text rows.
func formatLineItems(snap domain.QuoteSnapshot) string {
	var b strings.Builder
	for i, item := range snap.LineItems {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d x %-38s %s",
			item.Quantity,
			item.Description,
			money.FormatMinorUnits(item.LineTotalMinorUnits, snap.Currency))
	}
	return b.String()
}
