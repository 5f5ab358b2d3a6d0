// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// compression, and rate limiting.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/fornello/go-quote-backend/internal/config"
	"github.com/fornello/go-quote-backend/internal/document"
	"github.com/fornello/go-quote-backend/internal/domain"
	"github.com/fornello/go-quote-backend/internal/http/handlers"
	"github.com/fornello/go-quote-backend/internal/http/middleware"
	"github.com/fornello/go-quote-backend/internal/mail"
	"github.com/fornello/go-quote-backend/internal/payments"
	"github.com/fornello/go-quote-backend/internal/render"
	"github.com/fornello/go-quote-backend/internal/repo"
	"github.com/fornello/go-quote-backend/internal/services"
)

// quoteRepoShim adapts the repository free functions to the
// services.QuoteReader interface. This keeps services decoupled from the
// concrete repo package while reusing existing functions.
type quoteRepoShim struct{}

// GetQuoteForSend proxies repo.GetQuoteForSend.
func (quoteRepoShim) GetQuoteForSend(ctx context.Context, db *gorm.DB, quoteID string) (domain.QuoteSnapshot, error) {
	return repo.GetQuoteForSend(ctx, db, quoteID)
}

// GetPaymentSession proxies repo.GetPaymentSession.
func (quoteRepoShim) GetPaymentSession(ctx context.Context, db *gorm.DB, quoteID, mode string) (*domain.PaymentSession, error) {
	return repo.GetPaymentSession(ctx, db, quoteID, mode)
}

// sessionStoreShim adapts the repository free functions to the
// payments.SessionStore interface, binding them to one DB handle.
type sessionStoreShim struct {
	db *gorm.DB
}

// Get proxies repo.GetPaymentSession.
func (s sessionStoreShim) Get(ctx context.Context, quoteID, mode string) (*domain.PaymentSession, error) {
	return repo.GetPaymentSession(ctx, s.db, quoteID, mode)
}

// Create proxies repo.CreatePaymentSession.
func (s sessionStoreShim) Create(ctx context.Context, session *domain.PaymentSession) error {
	return repo.CreatePaymentSession(ctx, s.db, session)
}

// Replace proxies repo.ReplacePaymentSession.
func (s sessionStoreShim) Replace(ctx context.Context, quoteID, mode string, fresh *domain.PaymentSession) error {
	return repo.ReplacePaymentSession(ctx, s.db, quoteID, mode, fresh)
}

// buildPaymentProvider selects the checkout provider from config: the mock
// in development, the real gateway otherwise.
func buildPaymentProvider(cfg config.Config) (payments.CheckoutProvider, error) {
	if cfg.Payment.Mock {
		return &payments.MockProvider{}, nil
	}
	mp, err := payments.NewMercadoPago(cfg.Payment.AccessToken, cfg.Payment.SuccessURL, cfg.Payment.BackURL)
	if err != nil {
		return nil, fmt.Errorf("payment provider: %w", err)
	}
	return mp, nil
}

// buildMailChain assembles the ordered provider chain from config. The OAuth
// and API-key providers join only when credentials are present; SMTP is
// always last so a bare config can still send.
func buildMailChain(cfg config.Config) *mail.Chain {
	var providers []mail.Provider
	if cfg.Graph.ClientID != "" {
		providers = append(providers, mail.NewGraphProvider(cfg.Graph, cfg.CallTimeout))
	}
	if cfg.MailAPI.APIKey != "" {
		providers = append(providers, mail.NewAPIKeyProvider(cfg.MailAPI, cfg.CallTimeout))
	}
	providers = append(providers, mail.NewSMTPProvider(cfg.SMTP))

	return mail.NewChain(providers, cfg.Sender.Name, cfg.Sender.Email, cfg.CallTimeout, log.Logger)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine, then mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per client IP)
//  8. CORS and gzip
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) error {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	// 8) CORS posture (allow all when no origins configured) and compression
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/providers
	paymentProvider, err := buildPaymentProvider(cfg)
	if err != nil {
		return err
	}
	sessions := payments.NewSessionManager(
		sessionStoreShim{db: db},
		paymentProvider,
		cfg.Payment.DepositFraction,
		cfg.Payment.SessionTTL,
		log.Logger,
	)
	sessions.CallTimeout = cfg.CallTimeout

	svc := &services.DeliveryService{
		DB:     db,
		Quotes: quoteRepoShim{},
		Documents: &document.Generator{
			LogoPath:    cfg.BrandingPath,
			CompanyName: cfg.CompanyName,
		},
		Sessions:    sessions,
		Templates:   render.NewRegistry(),
		Mailer:      buildMailChain(cfg),
		CompanyName: cfg.CompanyName,
		SenderName:  cfg.Sender.Name,
		SendTimeout: cfg.SendTimeout,
		Log:         log.Logger,
	}
	h := handlers.New(svc)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/quotes/:id/send", h.SendQuote)
		api.GET("/quotes/:id/payment-session", h.GetPaymentSession)
	}
	return nil
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
