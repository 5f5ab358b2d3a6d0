package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fornello/go-quote-backend/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedQuote(t *testing.T, db *gorm.DB) *domain.Quote {
	t.Helper()
	q := &domain.Quote{
		Number:          "Q-2026-0042",
		TotalMinorUnits: 80000,
		Currency:        "USD",
		CustomerName:    "Ada Marsh",
		CustomerEmail:   "ada@example.com",
		ValidUntil:      time.Now().UTC().Add(30 * 24 * time.Hour),
		LineItems: []domain.QuoteLineItem{
			{Description: "Canape platter", Quantity: 2, UnitPriceMinorUnits: 4000, LineTotalMinorUnits: 8000},
			{Description: "Seated dinner", Quantity: 24, UnitPriceMinorUnits: 3000, LineTotalMinorUnits: 72000},
		},
	}
	if err := CreateQuote(context.Background(), db, q); err != nil {
		t.Fatalf("CreateQuote: %v", err)
	}
	return q
}

func TestGetQuoteForSend_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Quote{}, &domain.QuoteLineItem{})
	_, err := GetQuoteForSend(context.Background(), db, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetQuoteForSend_ProjectsSnapshot(t *testing.T) {
	db := newRepoDB(t, &domain.Quote{}, &domain.QuoteLineItem{})
	q := seedQuote(t, db)

	snap, err := GetQuoteForSend(context.Background(), db, q.ID)
	if err != nil {
		t.Fatalf("GetQuoteForSend: %v", err)
	}
	if snap.Number != "Q-2026-0042" || snap.TotalMinorUnits != 80000 || snap.Currency != "USD" {
		t.Fatalf("unexpected snapshot header: %+v", snap)
	}
	if snap.Customer.Name != "Ada Marsh" || snap.Customer.Email != "ada@example.com" {
		t.Fatalf("unexpected customer: %+v", snap.Customer)
	}
	if len(snap.LineItems) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(snap.LineItems))
	}
	if snap.LineItems[0].Description != "Canape platter" || snap.LineItems[0].LineTotalMinorUnits != 8000 {
		t.Fatalf("line items out of order or mangled: %+v", snap.LineItems)
	}
	if snap.TakenAt.IsZero() {
		t.Fatal("snapshot missing TakenAt")
	}
}

func TestGetQuoteForSend_SnapshotIsolatedFromLaterEdits(t *testing.T) {
	db := newRepoDB(t, &domain.Quote{}, &domain.QuoteLineItem{})
	q := seedQuote(t, db)

	snap, err := GetQuoteForSend(context.Background(), db, q.ID)
	if err != nil {
		t.Fatalf("GetQuoteForSend: %v", err)
	}

	// Mutate the stored quote after the snapshot was taken.
	if err := db.Model(&domain.Quote{}).Where("id = ?", q.ID).
		Update("total_minor_units", 123).Error; err != nil {
		t.Fatalf("update: %v", err)
	}

	if snap.TotalMinorUnits != 80000 {
		t.Fatalf("snapshot mutated by a later edit: %d", snap.TotalMinorUnits)
	}
}
