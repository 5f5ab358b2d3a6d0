// Package mail delivers rendered notifications through an ordered chain of
// provider adapters. Each adapter normalizes its own failures into a shared
// transient/permanent shape so the chain's advance-or-stop decision stays
// provider-agnostic.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fornello/go-quote-backend/internal/domain"
)

// Message is the outbound unit handed to a provider adapter. The chain fills
// in the sender identity; adapters only translate to their wire format.
type Message struct {
	FromName  string
	FromEmail string
	To        string
	Subject   string
	HTML      string
	Text      string

	Attachments []domain.Attachment
}

// Provider is the delivery port implemented by every adapter in the chain.
// Send returns nil on acceptance, or an error whose Classify kind drives
// the chain: transient advances to the next provider, permanent stops it.
type Provider interface {
	// Name identifies the provider in attempt records and logs.
	Name() string
	// Send submits the message. Implementations must honor ctx cancellation
	// and never block beyond it.
	Send(ctx context.Context, msg *Message) error
}

// ProviderError is the normalized failure shape shared by all adapters.
type ProviderError struct {
	Provider string
	Kind     domain.ErrorKind
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Err, e.Kind)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ProviderError) Unwrap() error { return e.Err }

// transient wraps err as a transport-level failure (network, auth, 5xx,
// timeout): the chain should try the next provider.
func transient(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: domain.ErrorKindTransient, Err: err}
}

// permanent wraps err as a content-level rejection (malformed recipient,
// oversized payload): no provider can deliver it, the chain must stop.
func permanent(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: domain.ErrorKindPermanent, Err: err}
}

// Classify maps any adapter error to an ErrorKind. Unrecognized errors,
// timeouts, and cancellations classify as transient.
func Classify(err error) domain.ErrorKind {
	if err == nil {
		return domain.ErrorKindNone
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return domain.ErrorKindTransient
}

// kindFromStatus classifies an HTTP status from a mail API. Content-level
// rejections (400, 413, 422) are permanent; auth errors, throttling, and
// server errors are transport-level and therefore transient.
func kindFromStatus(code int) domain.ErrorKind {
	switch code {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return domain.ErrorKindPermanent
	default:
		return domain.ErrorKindTransient
	}
}
