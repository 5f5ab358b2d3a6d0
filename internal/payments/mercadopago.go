// Package payments: Mercado Pago checkout adapter.
//
// Wraps the official SDK's preference resource: a created preference yields
// an init-point URL, which the pipeline hands to the customer as the
// checkout link.
package payments

import (
	"context"
	"errors"
	"fmt"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/fornello/go-quote-backend/internal/money"
)

// ErrMissingAccessToken is returned when the adapter is constructed without
// provider credentials. Surfaced at startup, never per send.
var ErrMissingAccessToken = errors.New("missing payment provider access token")

// MercadoPago creates checkout preferences at Mercado Pago.
type MercadoPago struct {
	client     preference.Client
	successURL string
	backURL    string
}

// NewMercadoPago builds the adapter from an access token and the URLs the
// customer is returned to after checkout.
func NewMercadoPago(accessToken, successURL, backURL string) (*MercadoPago, error) {
	if accessToken == "" {
		return nil, ErrMissingAccessToken
	}
	cfg, err := mpconfig.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("payment sdk config: %w", err)
	}
	return &MercadoPago{
		client:     preference.NewClient(cfg),
		successURL: successURL,
		backURL:    backURL,
	}, nil
}

// CreateCheckout creates a single-item preference for the quote charge.
// Any SDK/transport failure is normalized to ErrProviderUnavailable so the
// orchestrator can degrade rather than abort.
func (m *MercadoPago) CreateCheckout(ctx context.Context, req CheckoutRequest) (Checkout, error) {
	expires := req.ExpiresAt

	// The provider's wire format wants float major units; conversion happens
	// only here, at the remote boundary.
	prefReq := preference.Request{
		ExternalReference: req.QuoteID + ":" + req.Mode,
		Items: []preference.ItemRequest{{
			ID:          req.QuoteID,
			Title:       req.Description,
			Description: fmt.Sprintf("Quote %s (%s)", req.QuoteNumber, req.Mode),
			Quantity:    1,
			CurrencyID:  req.Currency,
			UnitPrice:   money.MajorUnits(req.AmountMinorUnits, req.Currency),
		}},
		Payer:            &preference.PayerRequest{Email: req.CustomerEmail},
		Expires:          true,
		ExpirationDateTo: &expires,
	}
	if m.successURL != "" || m.backURL != "" {
		prefReq.BackURLs = &preference.BackURLsRequest{
			Success: m.successURL,
			Pending: m.backURL,
			Failure: m.backURL,
		}
	}

	resp, err := m.client.Create(ctx, prefReq)
	if err != nil {
		return Checkout{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if resp == nil || resp.InitPoint == "" {
		return Checkout{}, fmt.Errorf("%w: empty init point", ErrProviderUnavailable)
	}
	return Checkout{SessionID: resp.ID, CheckoutURL: resp.InitPoint}, nil
}
