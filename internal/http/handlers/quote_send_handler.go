// Quote delivery HTTP handlers.
//
// This file exposes REST endpoints for sending quotes:
//   - POST /quotes/{id}/send             (run the delivery pipeline)
//   - GET  /quotes/{id}/payment-session  (read-only session lookup)
//
// Handlers are transport-thin: they validate input, call the delivery
// service, and translate results into HTTP responses. A send whose mail was
// permanently rejected or refused by every provider is reported with a
// distinct status and code, with the full receipt in the body either way.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fornello/go-quote-backend/internal/domain"
	"github.com/fornello/go-quote-backend/internal/services"
)

// DeliveryService defines the quote send operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context for cancellation and timeouts.
type DeliveryService interface {
	// SendQuote runs the delivery pipeline for one quote and mode.
	SendQuote(ctx context.Context, quoteID, mode string) (*services.SendReceipt, error)
	// PaymentSession returns the stored session without creating one.
	PaymentSession(ctx context.Context, quoteID, mode string) (*domain.PaymentSession, error)
}

// Handlers groups the HTTP endpoints for quote delivery.
type Handlers struct {
	svc DeliveryService
}

// New constructs a Handlers instance bound to the given service.
func New(svc DeliveryService) *Handlers {
	return &Handlers{svc: svc}
}

// SendQuoteRequest is the JSON payload for sending a quote.
type SendQuoteRequest struct {
	// Mode selects the charge: "deposit" or "full".
	Mode string `json:"mode" binding:"required"`
}

// SendQuoteResponse wraps the delivery receipt returned on completion. Code
// is set only on non-delivered outcomes so clients can branch without
// parsing the status.
type SendQuoteResponse struct {
	Status       string                   `json:"status"`
	Code         string                   `json:"code,omitempty"`
	ProviderUsed string                   `json:"provider_used,omitempty"`
	SessionID    string                   `json:"session_id,omitempty"`
	CheckoutURL  string                   `json:"checkout_url,omitempty"`
	Degradations []string                 `json:"degradations,omitempty"`
	Attempts     []domain.ProviderAttempt `json:"attempts"`
}

// SendQuote handles POST /quotes/:id/send.
//
// Responses:
//   - 200 delivery succeeded (possibly degraded; see degradations)
//   - 400 invalid body or unknown payment mode
//   - 404 quote not found
//   - 422 invalid charge amount, or recipient permanently rejected
//   - 502 every provider failed transiently
func (h *Handlers) SendQuote(c *gin.Context) {
	quoteID := strings.TrimSpace(c.Param("id"))
	if quoteID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing quote id")
		return
	}

	var req SendQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	receipt, err := h.svc.SendQuote(c.Request.Context(), quoteID, strings.TrimSpace(req.Mode))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrQuoteNotFound):
			fail(c, http.StatusNotFound, ErrCodeQuoteNotFound, "quote not found")
		case errors.Is(err, services.ErrInvalidMode):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "mode must be deposit or full")
		case errors.Is(err, services.ErrInvalidAmount):
			fail(c, http.StatusUnprocessableEntity, ErrCodeInvalidAmount, "computed charge amount is not payable")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	resp := SendQuoteResponse{
		Status:       string(receipt.Delivery.FinalStatus),
		ProviderUsed: receipt.Delivery.ProviderUsed,
		SessionID:    receipt.SessionID,
		CheckoutURL:  receipt.CheckoutURL,
		Degradations: receipt.Degradations,
		Attempts:     receipt.Delivery.Attempts,
	}

	switch receipt.Delivery.FinalStatus {
	case domain.StatusRejected:
		resp.Code = ErrCodeRecipientRejected
		ok(c, http.StatusUnprocessableEntity, resp)
	case domain.StatusAllProvidersFailed:
		resp.Code = ErrCodeAllProvidersFailed
		ok(c, http.StatusBadGateway, resp)
	default:
		ok(c, http.StatusOK, resp)
	}
}

// GetPaymentSession handles GET /quotes/:id/payment-session?mode=.
//
// It never creates a session; it only reads what a previous send stored, so
// operators can recover a checkout link without re-mailing the customer.
func (h *Handlers) GetPaymentSession(c *gin.Context) {
	quoteID := strings.TrimSpace(c.Param("id"))
	mode := strings.TrimSpace(c.DefaultQuery("mode", domain.ModeDeposit))

	session, err := h.svc.PaymentSession(c.Request.Context(), quoteID, mode)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidMode):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "mode must be deposit or full")
		case errors.Is(err, services.ErrSessionNotFound):
			fail(c, http.StatusNotFound, ErrCodeSessionNotFound, "no payment session for this quote and mode")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, session)
}
