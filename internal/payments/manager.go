// Package payments: idempotent session manager.
package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fornello/go-quote-backend/internal/domain"
	"github.com/fornello/go-quote-backend/internal/money"
	"github.com/fornello/go-quote-backend/internal/repo"
)

// SessionStore is the persistence contract required by the SessionManager.
// Implementations return repo.ErrNotFound for missing keys.
type SessionStore interface {
	// Get fetches the session row for (quoteID, mode) regardless of expiry.
	Get(ctx context.Context, quoteID, mode string) (*domain.PaymentSession, error)
	// Create inserts a new session row; the unique (quote_id, mode) index
	// rejects a concurrent duplicate.
	Create(ctx context.Context, s *domain.PaymentSession) error
	// Replace refreshes the existing row for the key in place.
	Replace(ctx context.Context, quoteID, mode string, fresh *domain.PaymentSession) error
}

// SessionRequest carries everything needed to create or look up a checkout
// session for a quote.
type SessionRequest struct {
	QuoteID          string
	QuoteNumber      string
	Mode             string // domain.ModeDeposit or domain.ModeFull
	TotalMinorUnits  int64
	Currency         string
	CustomerEmail    string
	// DepositFraction overrides the manager default when > 0.
	DepositFraction float64
}

// SessionManager creates or reuses payment checkout sessions. Creation is
// idempotent on the compound key (quoteId, mode): a retried send for the
// same key returns the existing live session instead of creating a second
// chargeable one. Concurrent callers for the same key serialize on a per-key
// lock; different keys proceed in parallel.
type SessionManager struct {
	// Store persists sessions; its unique index is the cross-process backstop.
	Store SessionStore
	// Provider creates the remote (billable) checkout resource.
	Provider CheckoutProvider

	// DepositFraction is the default fraction charged in deposit mode.
	DepositFraction float64
	// SessionTTL is the validity window of newly created sessions.
	SessionTTL time.Duration
	// CallTimeout bounds each remote provider call.
	CallTimeout time.Duration

	Log zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionManager constructs a SessionManager with sane defaults.
func NewSessionManager(store SessionStore, provider CheckoutProvider, depositFraction float64, ttl time.Duration, log zerolog.Logger) *SessionManager {
	if depositFraction <= 0 || depositFraction > 1 {
		depositFraction = 0.2
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &SessionManager{
		Store:           store,
		Provider:        provider,
		DepositFraction: depositFraction,
		SessionTTL:      ttl,
		CallTimeout:     15 * time.Second,
		Log:             log,
		locks:           make(map[string]*sync.Mutex),
	}
}

// GetOrCreate returns the live session for (req.QuoteID, req.Mode), creating
// one remotely only when none exists or the existing one has expired.
//
// Error classification:
//   - ErrInvalidAmount: zero/negative computed amount, or unknown mode;
//     fatal, not retryable.
//   - ErrProviderUnavailable: remote failure or timeout, retryable by the
//     caller; no session row is touched.
func (m *SessionManager) GetOrCreate(ctx context.Context, req SessionRequest) (*domain.PaymentSession, error) {
	if !domain.ValidMode(req.Mode) {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidAmount, req.Mode)
	}
	amount, err := m.amountFor(req)
	if err != nil {
		return nil, err
	}

	// Serialize concurrent sends for the same (quote, mode).
	lock := m.keyLock(req.QuoteID + "|" + req.Mode)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	existing, err := m.Store.Get(ctx, req.QuoteID, req.Mode)
	switch {
	case err == nil:
		if existing.Live(now) {
			return existing, nil
		}
		// Expired: fall through and refresh the row in place.
	case errors.Is(err, repo.ErrNotFound):
		existing = nil
	default:
		return nil, fmt.Errorf("session lookup: %w", err)
	}

	checkout, err := m.createRemote(ctx, req, amount, now)
	if err != nil {
		return nil, err
	}

	fresh := &domain.PaymentSession{
		QuoteID:          req.QuoteID,
		Mode:             req.Mode,
		SessionID:        checkout.SessionID,
		CheckoutURL:      checkout.CheckoutURL,
		AmountMinorUnits: amount,
		Currency:         req.Currency,
		ExpiresAt:        now.Add(m.SessionTTL),
	}

	if existing != nil {
		if err := m.Store.Replace(ctx, req.QuoteID, req.Mode, fresh); err != nil {
			return nil, fmt.Errorf("session refresh: %w", err)
		}
		fresh.ID = existing.ID
		return fresh, nil
	}

	if err := m.Store.Create(ctx, fresh); err != nil {
		// A concurrent process won the unique index race: its session is the
		// canonical one. The remote session created here stays dangling but
		// unreferenced, which beats handing out two chargeable links.
		if winner, gerr := m.Store.Get(ctx, req.QuoteID, req.Mode); gerr == nil {
			m.Log.Warn().
				Str("quote_id", req.QuoteID).
				Str("mode", req.Mode).
				Str("dangling_session_id", checkout.SessionID).
				Msg("lost session-create race; reusing winner")
			return winner, nil
		}
		return nil, fmt.Errorf("session create: %w", err)
	}
	return fresh, nil
}

// amountFor computes the charge for the requested mode: full total, or
// round-half-up(total * fraction) for deposits. Zero and negative amounts
// are rejected as fatal.
func (m *SessionManager) amountFor(req SessionRequest) (int64, error) {
	if req.TotalMinorUnits <= 0 {
		return 0, fmt.Errorf("%w: total %d", ErrInvalidAmount, req.TotalMinorUnits)
	}
	if req.Mode == domain.ModeFull {
		return req.TotalMinorUnits, nil
	}
	fraction := req.DepositFraction
	if fraction <= 0 || fraction > 1 {
		fraction = m.DepositFraction
	}
	amount := money.DepositAmount(req.TotalMinorUnits, fraction)
	if amount <= 0 {
		return 0, fmt.Errorf("%w: deposit of %d at %.2f rounds to zero", ErrInvalidAmount, req.TotalMinorUnits, fraction)
	}
	return amount, nil
}

// createRemote performs the bounded provider call.
func (m *SessionManager) createRemote(ctx context.Context, req SessionRequest, amount int64, now time.Time) (Checkout, error) {
	if m.Provider == nil {
		return Checkout{}, fmt.Errorf("%w: no provider configured", ErrProviderUnavailable)
	}
	callCtx := ctx
	if m.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, m.CallTimeout)
		defer cancel()
	}

	checkout, err := m.Provider.CreateCheckout(callCtx, CheckoutRequest{
		QuoteID:          req.QuoteID,
		QuoteNumber:      req.QuoteNumber,
		Mode:             req.Mode,
		AmountMinorUnits: amount,
		Currency:         req.Currency,
		CustomerEmail:    req.CustomerEmail,
		Description:      fmt.Sprintf("Quote %s", req.QuoteNumber),
		ExpiresAt:        now.Add(m.SessionTTL),
	})
	if err != nil {
		if errors.Is(err, ErrProviderUnavailable) {
			return Checkout{}, err
		}
		return Checkout{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return checkout, nil
}

// keyLock returns the mutex dedicated to one (quote, mode) key, creating it
// on first use. Lock instances are never removed; the key space is bounded
// by quotes actively being sent.
func (m *SessionManager) keyLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}
