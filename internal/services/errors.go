// Package services defines the business logic for quote delivery.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrQuoteNotFound indicates that the requested quote does not exist.
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrInvalidMode is returned when a send request names a payment mode
	// other than deposit or full.
	ErrInvalidMode = errors.New("invalid payment mode")

	// ErrInvalidAmount is returned when the charge computed for the quote
	// is zero or negative. It aborts the send.
	ErrInvalidAmount = errors.New("invalid payment amount")

	// ErrSessionNotFound indicates that no payment session exists for the
	// requested quote and mode.
	ErrSessionNotFound = errors.New("payment session not found")

	// ErrStoreUnavailable wraps storage failures that prevent the send
	// from even starting.
	ErrStoreUnavailable = errors.New("quote store unavailable")
)
