// Package domain defines the persistence models and value types for the
// quote delivery pipeline. Persisted types are mapped with GORM; value types
// (QuoteSnapshot, RenderedNotification, DeliveryResult) live only for the
// duration of a single send operation.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Quote represents a sales quote as stored by the surrounding CRUD layer.
// The delivery pipeline only reads quotes; editing happens elsewhere.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Number: human-readable quote number shown to the customer (e.g. "Q-2026-0042").
//   - TotalMinorUnits: quote total in integer minor units (cents); never a float.
//   - Currency: ISO 4217 code (e.g. "USD").
//   - CustomerName / CustomerEmail: recipient identity for the send.
//   - EventDate / EventLocation: optional catering-event metadata.
//   - ValidUntil: date after which the quote is no longer honored.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Quote struct {
	ID              string         `json:"id"             gorm:"type:char(36);primaryKey"`
	Number          string         `json:"number"         gorm:"type:varchar(32);not null;uniqueIndex"`
	TotalMinorUnits int64          `json:"total_minor_units" gorm:"not null;check:total_minor_units >= 0"`
	Currency        string         `json:"currency"       gorm:"type:char(3);not null;default:'USD'"`
	CustomerName    string         `json:"customer_name"  gorm:"type:varchar(255);not null"`
	CustomerEmail   string         `json:"customer_email" gorm:"type:varchar(255);not null"`
	EventDate       *time.Time     `json:"event_date,omitempty"`
	EventLocation   string         `json:"event_location,omitempty" gorm:"type:varchar(255)"`
	ValidUntil      time.Time      `json:"valid_until"    gorm:"not null"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-"              gorm:"index"`

	// LineItems are the billable rows of the quote, cascade-deleted with it.
	LineItems []QuoteLineItem `json:"line_items" gorm:"foreignKey:QuoteID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Quote.
func (Quote) TableName() string { return "quotes" }

// QuoteLineItem is a single billable row of a quote. All amounts are integer
// minor units; LineTotalMinorUnits is stored rather than derived so that the
// send pipeline never re-computes pricing.
type QuoteLineItem struct {
	ID                  string         `json:"id"          gorm:"type:char(36);primaryKey"`
	QuoteID             string         `json:"quote_id"    gorm:"type:char(36);not null;index:idx_quote_items"`
	Description         string         `json:"description" gorm:"type:varchar(512);not null"`
	Quantity            int            `json:"quantity"    gorm:"not null;check:quantity > 0"`
	UnitPriceMinorUnits int64          `json:"unit_price_minor_units" gorm:"not null"`
	LineTotalMinorUnits int64          `json:"line_total_minor_units" gorm:"not null"`
	Position            int            `json:"position"    gorm:"not null;default:0"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for QuoteLineItem.
func (QuoteLineItem) TableName() string { return "quote_line_items" }

// LineItem is the immutable projection of a QuoteLineItem used inside a
// QuoteSnapshot.
type LineItem struct {
	Description         string
	Quantity            int
	UnitPriceMinorUnits int64
	LineTotalMinorUnits int64
}

// Customer is the recipient identity captured in a QuoteSnapshot.
type Customer struct {
	Name  string
	Email string
}

// QuoteSnapshot is the immutable projection of a quote taken at send time.
// It is created once from the store at the start of a send operation and
// never mutated afterwards; if the underlying quote changes mid-send, the
// in-flight send completes against this stale copy. Sends are short-lived,
// so that staleness window is acceptable.
type QuoteSnapshot struct {
	ID              string
	Number          string
	TotalMinorUnits int64
	Currency        string
	LineItems       []LineItem
	Customer        Customer
	EventDate       *time.Time
	EventLocation   string
	ValidUntil      time.Time
	TakenAt         time.Time
}
