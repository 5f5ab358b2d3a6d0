package render

import (
	"errors"
	"strings"
	"testing"
)

func fullVars() map[string]string {
	return map[string]string{
		"CompanyName":     "Fornello Catering",
		"CustomerName":    "Ada Marsh",
		"QuoteNumber":     "Q-2026-0042",
		"LineItems":       "2 x Canape platter  $40.00 each  $80.00",
		"Total":           "$800.00",
		"PaymentAmount":   "$160.00",
		"PaymentURL":      "https://pay.example/session/abc123",
		"ValidUntil":      "30 Sep 2026",
		"SenderName":      "Maria",
		"EventDate":       "12 Oct 2026",
		"EventLocation":   "Harbor Hall",
		"HasAttachment":   "true",
		"PaymentFallback": "",
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	r := NewRegistry()
	_, err := r.Render("no-such-template", nil)
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestRender_DepositContainsFormattedAmounts(t *testing.T) {
	r := NewRegistry()
	out, err := r.Render(TemplateQuoteDeposit, fullVars())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out.Subject, "Q-2026-0042") {
		t.Errorf("subject missing quote number: %q", out.Subject)
	}
	for _, part := range []string{out.HTML, out.Text} {
		if !strings.Contains(part, "$800.00") {
			t.Errorf("body missing formatted total:\n%s", part)
		}
		if !strings.Contains(part, "$160.00") {
			t.Errorf("body missing formatted deposit:\n%s", part)
		}
		if !strings.Contains(part, "Q-2026-0042") {
			t.Errorf("body missing quote number:\n%s", part)
		}
	}
	if !strings.Contains(out.Text, "deposit of $160.00") {
		t.Errorf("deposit wording missing:\n%s", out.Text)
	}
	if !strings.Contains(out.HTML, "https://pay.example/session/abc123") {
		t.Errorf("payment link missing from html:\n%s", out.HTML)
	}
}

func TestRender_MissingVariablesRenderEmpty(t *testing.T) {
	r := NewRegistry()
	out, err := r.Render(TemplateQuoteFull, map[string]string{
		"QuoteNumber": "Q-1",
	})
	if err != nil {
		t.Fatalf("Render with sparse vars should not fail: %v", err)
	}
	if strings.Contains(out.Text, "<no value>") || strings.Contains(out.HTML, "<no value>") {
		t.Fatalf("missing variables must render empty, got:\n%s", out.Text)
	}
	if !strings.Contains(out.Subject, "Q-1") {
		t.Fatalf("subject should still carry provided vars: %q", out.Subject)
	}
}

func TestRender_PaymentFallbackWhenNoURL(t *testing.T) {
	vars := fullVars()
	vars["PaymentURL"] = ""
	vars["PaymentFallback"] = "Please contact us to arrange payment."

	r := NewRegistry()
	out, err := r.Render(TemplateQuoteDeposit, vars)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, part := range []string{out.HTML, out.Text} {
		if !strings.Contains(part, "Please contact us to arrange payment.") {
			t.Errorf("fallback text missing:\n%s", part)
		}
		if strings.Contains(part, "pay.example") {
			t.Errorf("payment link should be absent:\n%s", part)
		}
	}
}

func TestRender_DeterministicAndConcurrent(t *testing.T) {
	r := NewRegistry()
	first, err := r.Render(TemplateQuoteFull, fullVars())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	done := make(chan Output, 8)
	for i := 0; i < 8; i++ {
		go func() {
			out, _ := r.Render(TemplateQuoteFull, fullVars())
			done <- out
		}()
	}
	for i := 0; i < 8; i++ {
		if got := <-done; got != first {
			t.Fatal("concurrent renders diverged")
		}
	}
}

func TestRender_HTMLEscapesVariables(t *testing.T) {
	vars := fullVars()
	vars["CustomerName"] = `<script>alert("x")</script>`

	r := NewRegistry()
	out, err := r.Render(TemplateQuoteFull, vars)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(out.HTML, "<script>") {
		t.Fatal("html output must escape variable content")
	}
}
