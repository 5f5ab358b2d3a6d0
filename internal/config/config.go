// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, delivery-provider
// credentials, payment settings, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-quote-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// SenderConfig is the identity outbound notifications are sent as.
type SenderConfig struct {
	Name  string // SENDER_NAME
	Email string // SENDER_EMAIL
}

// GraphConfig configures the OAuth (client-credentials) mail provider.
// The provider joins the transport chain only when ClientID is set.
type GraphConfig struct {
	TenantID     string // GRAPH_TENANT_ID
	ClientID     string // GRAPH_CLIENT_ID
	ClientSecret string // GRAPH_CLIENT_SECRET
	Scope        string // GRAPH_SCOPE
	TokenURL     string // GRAPH_TOKEN_URL (derived from tenant when empty)
	SendURL      string // GRAPH_SEND_URL
}

// APIKeyMailConfig configures the API-key mail provider. The provider joins
// the transport chain only when APIKey is set.
type APIKeyMailConfig struct {
	APIKey  string // MAIL_API_KEY
	SendURL string // MAIL_API_SEND_URL
}

// SMTPConfig configures the SMTP mail provider, the last link of the chain.
type SMTPConfig struct {
	Host     string // SMTP_HOST
	Port     int    // SMTP_PORT
	Username string // SMTP_USERNAME
	Password string // SMTP_PASSWORD
}

// PaymentConfig configures the checkout-session provider.
type PaymentConfig struct {
	AccessToken     string        // PAYMENT_ACCESS_TOKEN (required unless Mock)
	Mock            bool          // PAYMENT_MOCK (dev/test: no remote calls)
	DepositFraction float64       // DEPOSIT_FRACTION in (0..1]
	SessionTTL      time.Duration // PAYMENT_SESSION_TTL
	SuccessURL      string        // PAYMENT_SUCCESS_URL
	BackURL         string        // PAYMENT_BACK_URL
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes

	// App
	DBPath       string        // SQLite path
	BrandingPath string        // optional logo file for generated documents
	CompanyName  string        // appears in document header and email footer
	SendTimeout  time.Duration // overall budget for one send operation
	CallTimeout  time.Duration // per external provider call

	// Delivery providers
	Sender  SenderConfig
	Graph   GraphConfig
	MailAPI APIKeyMailConfig
	SMTP    SMTPConfig

	// Payments
	Payment PaymentConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS CORSConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:       getenv("DB_PATH", "app.db"),
		BrandingPath: getenv("BRANDING_PATH", ""),
		CompanyName:  getenv("COMPANY_NAME", "Fornello Catering"),
		SendTimeout:  getdur("SEND_TIMEOUT", 45*time.Second),
		CallTimeout:  getdur("CALL_TIMEOUT", 15*time.Second),

		// Delivery providers
		Sender: SenderConfig{
			Name:  getenv("SENDER_NAME", "Fornello Catering"),
			Email: getenv("SENDER_EMAIL", "quotes@fornello.example"),
		},
		Graph: GraphConfig{
			TenantID:     getenv("GRAPH_TENANT_ID", ""),
			ClientID:     getenv("GRAPH_CLIENT_ID", ""),
			ClientSecret: getenv("GRAPH_CLIENT_SECRET", ""),
			Scope:        getenv("GRAPH_SCOPE", "https://graph.microsoft.com/.default"),
			TokenURL:     getenv("GRAPH_TOKEN_URL", ""),
			SendURL:      getenv("GRAPH_SEND_URL", ""),
		},
		MailAPI: APIKeyMailConfig{
			APIKey:  getenv("MAIL_API_KEY", ""),
			SendURL: getenv("MAIL_API_SEND_URL", "https://api.mailsend.example/v3/mail/send"),
		},
		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST", "localhost"),
			Port:     getint("SMTP_PORT", 587),
			Username: getenv("SMTP_USERNAME", ""),
			Password: getenv("SMTP_PASSWORD", ""),
		},

		// Payments
		Payment: PaymentConfig{
			AccessToken:     getenv("PAYMENT_ACCESS_TOKEN", ""),
			Mock:            getbool("PAYMENT_MOCK", true),
			DepositFraction: getfloat("DEPOSIT_FRACTION", 0.2),
			SessionTTL:      getdur("PAYMENT_SESSION_TTL", 72*time.Hour),
			SuccessURL:      getenv("PAYMENT_SUCCESS_URL", ""),
			BackURL:         getenv("PAYMENT_BACK_URL", ""),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-quote-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.Graph.TokenURL == "" && cfg.Graph.TenantID != "" {
		cfg.Graph.TokenURL = "https://login.microsoftonline.com/" + cfg.Graph.TenantID + "/oauth2/v2.0/token"
	}
	if cfg.Graph.SendURL == "" {
		cfg.Graph.SendURL = "https://graph.microsoft.com/v1.0/users/" + cfg.Sender.Email + "/sendMail"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.Sender.Email) == "" || !strings.Contains(cfg.Sender.Email, "@") {
		return cfg, errors.New("SENDER_EMAIL must be a valid address")
	}
	if cfg.SendTimeout <= 0 || cfg.CallTimeout <= 0 {
		return cfg, errors.New("SEND_TIMEOUT and CALL_TIMEOUT must be positive durations")
	}
	if cfg.Graph.ClientID != "" {
		if cfg.Graph.ClientSecret == "" {
			return cfg, errors.New("GRAPH_CLIENT_SECRET is required when GRAPH_CLIENT_ID is set")
		}
		if cfg.Graph.TokenURL == "" {
			return cfg, errors.New("GRAPH_TENANT_ID or GRAPH_TOKEN_URL is required when GRAPH_CLIENT_ID is set")
		}
	}
	if strings.TrimSpace(cfg.SMTP.Host) == "" {
		return cfg, errors.New("SMTP_HOST must not be empty")
	}
	if cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535 {
		return cfg, errors.New("SMTP_PORT must be a valid TCP port")
	}
	if !cfg.Payment.Mock && strings.TrimSpace(cfg.Payment.AccessToken) == "" {
		return cfg, errors.New("PAYMENT_ACCESS_TOKEN is required unless PAYMENT_MOCK is enabled")
	}
	if cfg.Payment.DepositFraction <= 0 || cfg.Payment.DepositFraction > 1 {
		return cfg, errors.New("DEPOSIT_FRACTION must be in (0, 1]")
	}
	if cfg.Payment.SessionTTL <= 0 {
		return cfg, errors.New("PAYMENT_SESSION_TTL must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
