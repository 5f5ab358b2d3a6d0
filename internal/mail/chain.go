// Package mail: ordered provider chain.
//
// The chain walks its providers in order: a transient failure advances
// to the next provider, a permanent failure stops the walk, success
// ends it. Every attempt is recorded so callers can see exactly what
// the chain did.
package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/fornello/go-quote-backend/internal/domain"
)

var (
	// mailAttempts counts send attempts by provider and outcome
	// (delivered, transient, permanent).
	mailAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_provider_attempts_total",
			Help: "Total mail send attempts by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(mailAttempts)
}

// Chain dispatches a rendered notification through an ordered list of
// providers.
type Chain struct {
	// Providers is the ordered fallback list. At least one is required.
	Providers []Provider

	// FromName and FromEmail identify the sender on every message.
	FromName  string
	FromEmail string

	// CallTimeout bounds each individual provider attempt.
	CallTimeout time.Duration

	// Log is the structured logger. Defaults to a no-op logger.
	Log zerolog.Logger
}

// NewChain builds a Chain with sensible defaults applied.
func NewChain(providers []Provider, fromName, fromEmail string, callTimeout time.Duration, log zerolog.Logger) *Chain {
	if callTimeout <= 0 {
		callTimeout = 15 * time.Second
	}
	return &Chain{
		Providers:   providers,
		FromName:    fromName,
		FromEmail:   fromEmail,
		CallTimeout: callTimeout,
		Log:         log,
	}
}

// Send walks the provider chain for one notification and returns the
// composite delivery result. The result is never nil; an error is
// returned only when the chain itself is misconfigured (no providers).
func (c *Chain) Send(ctx context.Context, n *domain.RenderedNotification, to string) (*domain.DeliveryResult, error) {
	if len(c.Providers) == 0 {
		return nil, fmt.Errorf("mail: chain has no providers")
	}

	msg := &Message{
		FromName:    c.FromName,
		FromEmail:   c.FromEmail,
		To:          to,
		Subject:     n.Subject,
		HTML:        n.HTML,
		Text:        n.Text,
		Attachments: n.Attachments,
	}

	result := &domain.DeliveryResult{FinalStatus: domain.StatusAllProvidersFailed}
	for _, p := range c.Providers {
		attempt := domain.ProviderAttempt{
			Provider:  p.Name(),
			Timestamp: time.Now().UTC(),
		}

		err := c.attempt(ctx, p, msg)
		if err == nil {
			attempt.Succeeded = true
			result.Attempts = append(result.Attempts, attempt)
			result.ProviderUsed = p.Name()
			result.FinalStatus = domain.StatusDelivered
			mailAttempts.WithLabelValues(p.Name(), "delivered").Inc()
			c.Log.Info().Str("provider", p.Name()).Str("to", to).Msg("mail delivered")
			return result, nil
		}

		kind := Classify(err)
		attempt.ErrorKind = kind
		attempt.Message = err.Error()
		result.Attempts = append(result.Attempts, attempt)

		if kind == domain.ErrorKindPermanent {
			result.FinalStatus = domain.StatusRejected
			mailAttempts.WithLabelValues(p.Name(), "permanent").Inc()
			c.Log.Warn().Str("provider", p.Name()).Str("to", to).Err(err).
				Msg("mail rejected permanently, stopping chain")
			return result, nil
		}

		mailAttempts.WithLabelValues(p.Name(), "transient").Inc()
		c.Log.Warn().Str("provider", p.Name()).Str("to", to).Err(err).
			Msg("mail attempt failed, trying next provider")

		// The caller is gone; further attempts would run against a dead
		// context and only record noise.
		if ctx.Err() != nil {
			c.Log.Warn().Str("to", to).Err(ctx.Err()).
				Msg("context done, stopping chain")
			return result, nil
		}
	}

	c.Log.Error().Str("to", to).Int("providers", len(c.Providers)).
		Msg("all mail providers failed")
	return result, nil
}

// attempt runs a single provider send under the chain's per-call timeout.
func (c *Chain) attempt(ctx context.Context, p Provider, msg *Message) error {
	callCtx, cancel := context.WithTimeout(ctx, c.CallTimeout)
	defer cancel()

	err := p.Send(callCtx, msg)
	if err != nil && callCtx.Err() == context.DeadlineExceeded {
		return transient(p.Name(), fmt.Errorf("timed out after %s: %w", c.CallTimeout, err))
	}
	return err
}
