// Package payments: mock checkout provider for development and tests.
package payments

import (
	"context"
	"fmt"
	"sync/atomic"
)

// MockProvider fabricates checkout sessions without remote calls. Enabled
// via PAYMENT_MOCK so the service runs end to end in development.
type MockProvider struct {
	// BaseURL prefixes the fabricated checkout links.
	BaseURL string

	seq atomic.Int64
}

// CreateCheckout returns a deterministic-looking fake session.
func (m *MockProvider) CreateCheckout(_ context.Context, req CheckoutRequest) (Checkout, error) {
	n := m.seq.Add(1)
	base := m.BaseURL
	if base == "" {
		base = "https://pay.mock.invalid"
	}
	id := fmt.Sprintf("mock-%s-%s-%d", req.QuoteID, req.Mode, n)
	return Checkout{
		SessionID:   id,
		CheckoutURL: fmt.Sprintf("%s/checkout/%s", base, id),
	}, nil
}
