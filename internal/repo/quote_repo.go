// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Quote
// model and the send-time snapshot projection.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a quote is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fornello/go-quote-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateQuote inserts a quote and its line items. IDs are generated when
// absent. Used by the surrounding CRUD layer and by tests; the delivery
// pipeline itself never writes quotes.
func CreateQuote(ctx context.Context, db *gorm.DB, q *domain.Quote) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	for i := range q.LineItems {
		if q.LineItems[i].ID == "" {
			q.LineItems[i].ID = uuid.NewString()
		}
		q.LineItems[i].QuoteID = q.ID
		if q.LineItems[i].Position == 0 {
			q.LineItems[i].Position = i
		}
	}
	q.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(q).Error
}

// GetQuoteForSend loads a quote with its line items and projects it into an
// immutable QuoteSnapshot. The snapshot deep-copies line items so that later
// edits to the stored quote cannot leak into an in-flight send.
//
// Returns ErrNotFound when the quote does not exist.
func GetQuoteForSend(ctx context.Context, db *gorm.DB, quoteID string) (domain.QuoteSnapshot, error) {
	var q domain.Quote
	err := db.WithContext(ctx).
		Preload("LineItems", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		First(&q, "id = ?", quoteID).Error
	if err != nil {
		return domain.QuoteSnapshot{}, err
	}

	items := make([]domain.LineItem, len(q.LineItems))
	for i, li := range q.LineItems {
		items[i] = domain.LineItem{
			Description:         li.Description,
			Quantity:            li.Quantity,
			UnitPriceMinorUnits: li.UnitPriceMinorUnits,
			LineTotalMinorUnits: li.LineTotalMinorUnits,
		}
	}

	var eventDate *time.Time
	if q.EventDate != nil {
		d := *q.EventDate
		eventDate = &d
	}

	return domain.QuoteSnapshot{
		ID:              q.ID,
		Number:          q.Number,
		TotalMinorUnits: q.TotalMinorUnits,
		Currency:        q.Currency,
		LineItems:       items,
		Customer:        domain.Customer{Name: q.CustomerName, Email: q.CustomerEmail},
		EventDate:       eventDate,
		EventLocation:   q.EventLocation,
		ValidUntil:      q.ValidUntil,
		TakenAt:         time.Now().UTC(),
	}, nil
}
