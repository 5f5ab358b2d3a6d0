// Package payments creates and reuses checkout sessions for quotes.
//
// The one invariant this package must never violate: at most one live
// chargeable session per (quoteId, mode) pair. The SessionManager serializes
// in-process callers per key and the session table's unique index backstops
// concurrent processes.
package payments

import (
	"context"
	"errors"
	"time"
)

// Service-level errors. Callers classify on these:
//   - ErrInvalidAmount is fatal for the send (a zero or negative charge can
//     never succeed on retry).
//   - ErrProviderUnavailable is degradable (the send proceeds without a
//     payment link).
var (
	ErrInvalidAmount       = errors.New("invalid payment amount")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)

// CheckoutRequest describes the remote checkout session to create.
type CheckoutRequest struct {
	QuoteID          string
	QuoteNumber      string
	Mode             string
	AmountMinorUnits int64
	Currency         string
	CustomerEmail    string
	Description      string
	ExpiresAt        time.Time
}

// Checkout is the remote provider's view of a created session.
type Checkout struct {
	SessionID   string
	CheckoutURL string
}

// CheckoutProvider abstracts the external payment provider. Creating a
// checkout is a billable remote side effect; the SessionManager guarantees
// it happens at most once per live (quote, mode) key.
type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (Checkout, error)
}
