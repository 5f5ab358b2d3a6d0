// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for payment
// checkout sessions.
//
// The table carries a unique index on (quote_id, mode); it is the durable
// backstop for the "at most one live session per (quote, mode)" invariant.
// The SessionManager serializes in-process callers per key; the index
// protects against a second process racing the same key.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fornello/go-quote-backend/internal/domain"
)

// GetPaymentSession fetches the session row for (quoteID, mode) regardless of
// expiry. Returns ErrNotFound when no row exists.
func GetPaymentSession(ctx context.Context, db *gorm.DB, quoteID, mode string) (*domain.PaymentSession, error) {
	var s domain.PaymentSession
	err := db.WithContext(ctx).
		First(&s, "quote_id = ? AND mode = ?", quoteID, mode).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreatePaymentSession inserts a new session row. A duplicate-key error from
// the unique (quote_id, mode) index is propagated so the caller can re-read
// the winning row.
func CreatePaymentSession(ctx context.Context, db *gorm.DB, s *domain.PaymentSession) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(s).Error
}

// ReplacePaymentSession updates the existing row for (quoteID, mode) in place
// with a fresh provider session. Updating rather than inserting keeps the
// unique index satisfied while replacing an expired session.
//
// Returns ErrNotFound when no row exists for the key.
func ReplacePaymentSession(ctx context.Context, db *gorm.DB, quoteID, mode string, fresh *domain.PaymentSession) error {
	res := db.WithContext(ctx).Model(&domain.PaymentSession{}).
		Where("quote_id = ? AND mode = ?", quoteID, mode).
		Updates(map[string]any{
			"session_id":         fresh.SessionID,
			"checkout_url":       fresh.CheckoutURL,
			"amount_minor_units": fresh.AmountMinorUnits,
			"currency":           fresh.Currency,
			"expires_at":         fresh.ExpiresAt,
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
