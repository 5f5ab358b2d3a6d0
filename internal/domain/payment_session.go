// Package domain defines the persistence models and value types for the
// quote delivery pipeline. This file holds the payment checkout session,
// the one entity that outlives a send invocation.
package domain

import "time"

// Payment modes accepted by the pipeline.
const (
	// ModeDeposit charges a fraction of the quote total up front.
	ModeDeposit = "deposit"
	// ModeFull charges the full quote total.
	ModeFull = "full"
)

// ValidMode reports whether mode is one of the accepted payment modes.
func ValidMode(mode string) bool {
	return mode == ModeDeposit || mode == ModeFull
}

// PaymentSession is a checkout session created at the payment provider.
// The invariant this table protects: at most one live (non-expired) session
// per (quote_id, mode) pair, enforced by ux_session_quote_mode. A retried
// send for the same quote and mode reuses the existing row instead of
// creating a second chargeable session; an expired row is refreshed in place
// (UPDATE) so the unique index keeps holding across processes.
type PaymentSession struct {
	ID               string    `json:"id"          gorm:"type:char(36);primaryKey"`
	QuoteID          string    `json:"quote_id"    gorm:"type:char(36);not null;uniqueIndex:ux_session_quote_mode,priority:1"`
	Mode             string    `json:"mode"        gorm:"type:varchar(16);not null;uniqueIndex:ux_session_quote_mode,priority:2;check:mode IN ('deposit','full')"`
	SessionID        string    `json:"session_id"  gorm:"type:varchar(128);not null"`
	CheckoutURL      string    `json:"checkout_url" gorm:"type:text;not null"`
	AmountMinorUnits int64     `json:"amount_minor_units" gorm:"not null;check:amount_minor_units > 0"`
	Currency         string    `json:"currency"    gorm:"type:char(3);not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	ExpiresAt        time.Time `json:"expires_at"  gorm:"not null;index"`
}

// TableName returns the database table name for PaymentSession.
func (PaymentSession) TableName() string { return "payment_sessions" }

// Live reports whether the session is still usable at the given instant.
func (s PaymentSession) Live(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
