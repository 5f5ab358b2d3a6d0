// Package document renders a quote snapshot into a customer-facing PDF.
//
// The layout is deterministic for a given snapshot: branding header,
// customer/event block, itemized table, totals block, and a footer carrying
// the validity date. A configured logo is embedded when readable; when the
// file is missing or unreadable the header degrades to text, because a
// missing logo must never block delivery of a quote.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/fornello/go-quote-backend/internal/domain"
	"github.com/fornello/go-quote-backend/internal/money"
)

// ErrGeneration is returned when the PDF engine ends in an unrecoverable
// error state. Callers treat it as fatal for the current send and never
// retry: regenerating from identical inputs fails identically.
var ErrGeneration = errors.New("document generation failed")

// File is a generated binary document ready to attach to a notification.
type File struct {
	Bytes    []byte
	Filename string
	MIMEType string
}

// Generator produces quote PDFs. It reads only the snapshot it is given and
// the static branding path; it never queries the store. Safe for concurrent
// use.
type Generator struct {
	// LogoPath optionally points at a PNG/JPEG used in the header.
	LogoPath string
	// CompanyName appears in the header (and replaces the logo on fallback).
	CompanyName string
	// FooterLine is an optional address/contact line under the footer.
	FooterLine string
}

// Generate renders the snapshot into a PDF. It returns ErrGeneration
// (wrapped) only when the layout engine itself fails; anything recoverable,
// such as a missing logo, degrades instead.
func (g *Generator) Generate(snap domain.QuoteSnapshot) (File, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Quote %s", snap.Number), true)
	pdf.AddPage()

	g.header(pdf)
	g.customerBlock(pdf, snap)
	g.itemTable(pdf, snap)
	g.totalsBlock(pdf, snap)
	g.footer(pdf, snap)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return File{
		Bytes:    buf.Bytes(),
		Filename: fmt.Sprintf("quote-%s.pdf", sanitizeFilename(snap.Number)),
		MIMEType: "application/pdf",
	}, nil
}

// header draws the branding block: logo when readable, text-only otherwise.
func (g *Generator) header(pdf *fpdf.Fpdf) {
	if img := g.readableLogo(); img != "" {
		pdf.ImageOptions(img, 10, 10, 40, 0, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
		pdf.SetY(32)
	} else {
		pdf.SetFont("Helvetica", "B", 20)
		pdf.CellFormat(0, 12, g.CompanyName, "", 1, "L", false, 0, "")
	}
	pdf.SetDrawColor(122, 46, 29)
	pdf.Line(10, pdf.GetY()+2, 200, pdf.GetY()+2)
	pdf.Ln(8)
}

// readableLogo returns the logo path when it points at a readable file with
// an image extension fpdf understands, otherwise "".
func (g *Generator) readableLogo() string {
	if g.LogoPath == "" {
		return ""
	}
	switch strings.ToLower(filepath.Ext(g.LogoPath)) {
	case ".png", ".jpg", ".jpeg", ".gif":
	default:
		return ""
	}
	f, err := os.Open(g.LogoPath)
	if err != nil {
		return ""
	}
	_ = f.Close()
	return g.LogoPath
}

func (g *Generator) customerBlock(pdf *fpdf.Fpdf, snap domain.QuoteSnapshot) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, fmt.Sprintf("Quote %s", snap.Number), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Prepared for: %s", snap.Customer.Name), "", 1, "L", false, 0, "")
	if snap.EventDate != nil {
		line := "Event: " + snap.EventDate.Format("2 January 2006")
		if snap.EventLocation != "" {
			line += " at " + snap.EventLocation
		}
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	} else if snap.EventLocation != "" {
		pdf.CellFormat(0, 6, "Location: "+snap.EventLocation, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

// itemTable draws the itemized table. All monetary columns are currency
// formatted; raw struct dumps never reach the document.
func (g *Generator) itemTable(pdf *fpdf.Fpdf, snap domain.QuoteSnapshot) {
	const (
		wDesc  = 95.0
		wQty   = 15.0
		wUnit  = 40.0
		wTotal = 40.0
		rowH   = 7.0
	)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(250, 246, 240)
	pdf.CellFormat(wDesc, rowH, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(wQty, rowH, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(wUnit, rowH, "Unit price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(wTotal, rowH, "Line total", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range snap.LineItems {
		pdf.CellFormat(wDesc, rowH, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(wQty, rowH, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(wUnit, rowH, money.FormatMinorUnits(item.UnitPriceMinorUnits, snap.Currency), "1", 0, "R", false, 0, "")
		pdf.CellFormat(wTotal, rowH, money.FormatMinorUnits(item.LineTotalMinorUnits, snap.Currency), "1", 1, "R", false, 0, "")
	}
}

func (g *Generator) totalsBlock(pdf *fpdf.Fpdf, snap domain.QuoteSnapshot) {
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(150, 8, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, money.FormatMinorUnits(snap.TotalMinorUnits, snap.Currency), "", 1, "R", false, 0, "")
}

func (g *Generator) footer(pdf *fpdf.Fpdf, snap domain.QuoteSnapshot) {
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 5, fmt.Sprintf("This quote is valid until %s.", snap.ValidUntil.Format("2 January 2006")), "", 1, "L", false, 0, "")
	if g.FooterLine != "" {
		pdf.CellFormat(0, 5, g.FooterLine, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s.", time.Now().UTC().Format("2 January 2006")), "", 1, "L", false, 0, "")
}

// sanitizeFilename keeps quote numbers filesystem- and MIME-safe.
func sanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "quote"
	}
	return b.String()
}
