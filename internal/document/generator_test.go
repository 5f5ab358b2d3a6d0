package document

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/fornello/go-quote-backend/internal/domain"
)

func testSnapshot() domain.QuoteSnapshot {
	eventDate := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	return domain.QuoteSnapshot{
		ID:              "q1",
		Number:          "Q-2026-0042",
		TotalMinorUnits: 80000,
		Currency:        "USD",
		LineItems: []domain.LineItem{
			{Description: "Canape platter", Quantity: 2, UnitPriceMinorUnits: 4000, LineTotalMinorUnits: 8000},
			{Description: "Seated dinner, three courses", Quantity: 24, UnitPriceMinorUnits: 3000, LineTotalMinorUnits: 72000},
		},
		Customer:      domain.Customer{Name: "Ada Marsh", Email: "ada@example.com"},
		EventDate:     &eventDate,
		EventLocation: "Harbor Hall",
		ValidUntil:    time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		TakenAt:       time.Now().UTC(),
	}
}

func TestGenerate_ProducesPDF(t *testing.T) {
	g := &Generator{CompanyName: "Fornello Catering"}
	file, err := g.Generate(testSnapshot())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.HasPrefix(file.Bytes, []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF (first bytes: %q)", file.Bytes[:8])
	}
	if file.Filename != "quote-Q-2026-0042.pdf" {
		t.Fatalf("unexpected filename %q", file.Filename)
	}
	if file.MIMEType != "application/pdf" {
		t.Fatalf("unexpected mime type %q", file.MIMEType)
	}
}

func TestGenerate_MissingLogoFallsBackToTextHeader(t *testing.T) {
	g := &Generator{
		CompanyName: "Fornello Catering",
		LogoPath:    filepath.Join(t.TempDir(), "does-not-exist.png"),
	}
	file, err := g.Generate(testSnapshot())
	if err != nil {
		t.Fatalf("missing logo must not fail generation: %v", err)
	}
	if len(file.Bytes) == 0 {
		t.Fatal("empty document")
	}
}

func TestGenerate_UnsupportedLogoExtensionIgnored(t *testing.T) {
	g := &Generator{CompanyName: "Fornello Catering", LogoPath: "branding/logo.svg"}
	if _, err := g.Generate(testSnapshot()); err != nil {
		t.Fatalf("unsupported logo type must degrade, not fail: %v", err)
	}
}

func TestGenerate_NoEventMetadata(t *testing.T) {
	snap := testSnapshot()
	snap.EventDate = nil
	snap.EventLocation = ""

	g := &Generator{CompanyName: "Fornello Catering"}
	if _, err := g.Generate(snap); err != nil {
		t.Fatalf("Generate without event metadata: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Q-2026/0042":  "Q-2026-0042",
		"  ":           "--",
		"":             "quote",
		"Q_1":          "Q_1",
		"q..%%..slash": "q------slash",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
