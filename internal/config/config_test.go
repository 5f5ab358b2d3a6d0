package config

import (
	"strings"
	"testing"
	"time"
)

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("GIN_MODE", "weird")       // normalizes to "release"
	t.Setenv("LOG_LEVEL", "warning")    // normalizes to "warn"
	t.Setenv("API_BASE_PATH", "api/v1/") // -> "/api/v1"
	t.Setenv("DEPOSIT_FRACTION", "0.25")
	t.Setenv("RATE_RPS", "x")    // parse failure -> default 5.0
	t.Setenv("RATE_BURST", "no") // parse failure -> default 10
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8088" || cfg.ReadTimeout != 2*time.Second {
		t.Errorf("server config = %q %v", cfg.Port, cfg.ReadTimeout)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q", cfg.GinMode)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Errorf("APIBasePath = %q", cfg.APIBasePath)
	}
	if cfg.Payment.DepositFraction != 0.25 {
		t.Errorf("DepositFraction = %v", cfg.Payment.DepositFraction)
	}
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Errorf("rate limits = %v %d", cfg.RateRPS, cfg.RateBurst)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORS origins = %v", cfg.CORS.AllowedOrigins)
	}
	// Mock payments are the default, so no access token required.
	if !cfg.Payment.Mock {
		t.Errorf("Payment.Mock should default to true")
	}
}

func TestLoad_GraphDerivedURLs(t *testing.T) {
	t.Setenv("GRAPH_TENANT_ID", "tenant-123")
	t.Setenv("GRAPH_CLIENT_ID", "client-abc")
	t.Setenv("GRAPH_CLIENT_SECRET", "s3cret")
	t.Setenv("SENDER_EMAIL", "quotes@fornello.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !strings.Contains(cfg.Graph.TokenURL, "tenant-123") {
		t.Errorf("TokenURL = %q", cfg.Graph.TokenURL)
	}
	if !strings.Contains(cfg.Graph.SendURL, "quotes@fornello.test") {
		t.Errorf("SendURL = %q", cfg.Graph.SendURL)
	}
}

func TestLoad_GraphSecretRequired(t *testing.T) {
	t.Setenv("GRAPH_CLIENT_ID", "client-abc")
	t.Setenv("GRAPH_TENANT_ID", "tenant-123")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when GRAPH_CLIENT_SECRET is missing")
	}
}

func TestLoad_PaymentTokenRequiredWithoutMock(t *testing.T) {
	t.Setenv("PAYMENT_MOCK", "false")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when PAYMENT_ACCESS_TOKEN is missing and mock is off")
	}
}

func TestLoad_InvalidDepositFraction(t *testing.T) {
	t.Setenv("DEPOSIT_FRACTION", "1.5")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for DEPOSIT_FRACTION > 1")
	}
}

func TestLoad_InvalidSenderEmail(t *testing.T) {
	t.Setenv("SENDER_EMAIL", "not-an-address")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for SENDER_EMAIL without @")
	}
}
