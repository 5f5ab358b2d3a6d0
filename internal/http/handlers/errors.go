// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase, snake_case, and stable. Generic codes mirror common
// HTTP status semantics; domain-specific codes carry outcomes a status alone
// cannot convey (a message every provider permanently refused is a different
// failure than one no provider could be reached for).
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeQuoteNotFound      = "quote_not_found"
	ErrCodeSessionNotFound    = "payment_session_not_found"
	ErrCodeInvalidAmount      = "invalid_amount"
	ErrCodeRecipientRejected  = "recipient_rejected"
	ErrCodeAllProvidersFailed = "all_providers_failed"
)
