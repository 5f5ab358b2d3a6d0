package mail

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// countingFetcher returns tokens with the given lifetime and counts calls.
func countingFetcher(lifetime time.Duration, calls *atomic.Int64) TokenFetcher {
	return func(ctx context.Context) (*oauth2.Token, error) {
		n := calls.Add(1)
		return &oauth2.Token{
			AccessToken: "tok-" + string(rune('0'+n)),
			Expiry:      time.Now().Add(lifetime),
		}, nil
	}
}

func TestTokenCache_ReusesUnexpiredToken(t *testing.T) {
	var calls atomic.Int64
	c := NewTokenCache(countingFetcher(time.Hour, &calls), 0)

	first, err := c.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	second, err := c.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if first != second {
		t.Fatalf("tokens differ: %q vs %q", first, second)
	}
	if calls.Load() != 1 {
		t.Fatalf("fetch called %d times, want 1", calls.Load())
	}
}

func TestTokenCache_ConcurrentCallersShareOneFetch(t *testing.T) {
	var calls atomic.Int64
	start := make(chan struct{})
	fetch := func(ctx context.Context) (*oauth2.Token, error) {
		calls.Add(1)
		time.Sleep(30 * time.Millisecond)
		return &oauth2.Token{AccessToken: "tok", Expiry: time.Now().Add(time.Hour)}, nil
	}
	c := NewTokenCache(fetch, 0)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := c.Token(context.Background()); err != nil {
				errs <- err
			}
		}()
	}
	close(start)
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Token: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("fetch called %d times, want 1", calls.Load())
	}
}

func TestTokenCache_RefreshesWithinExpiryMargin(t *testing.T) {
	var calls atomic.Int64
	// Tokens live 30s, shorter than the 60s default margin, so every
	// call sees a token inside the margin and refreshes.
	c := NewTokenCache(countingFetcher(30*time.Second, &calls), 0)

	if _, err := c.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if _, err := c.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("fetch called %d times, want 2", calls.Load())
	}
}

func TestTokenCache_InitiatorCancelDoesNotFailWaiters(t *testing.T) {
	var calls atomic.Int64
	started := make(chan struct{})
	fetch := func(ctx context.Context) (*oauth2.Token, error) {
		calls.Add(1)
		close(started)
		select {
		case <-time.After(60 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &oauth2.Token{AccessToken: "tok", Expiry: time.Now().Add(time.Hour)}, nil
	}
	c := NewTokenCache(fetch, 0)

	initCtx, cancel := context.WithCancel(context.Background())
	go c.Token(initCtx)
	<-started

	// A second caller joins the in-flight refresh, then the initiator
	// walks away mid-fetch.
	type res struct {
		tok string
		err error
	}
	waiter := make(chan res, 1)
	go func() {
		tok, err := c.Token(context.Background())
		waiter <- res{tok, err}
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	got := <-waiter
	if got.err != nil {
		t.Fatalf("waiter Token: %v", got.err)
	}
	if got.tok != "tok" {
		t.Fatalf("waiter token = %q, want %q", got.tok, "tok")
	}
	if calls.Load() != 1 {
		t.Fatalf("fetch called %d times, want 1", calls.Load())
	}
}

func TestTokenCache_FetchErrorPropagates(t *testing.T) {
	wantErr := errors.New("aad unreachable")
	c := NewTokenCache(func(ctx context.Context) (*oauth2.Token, error) {
		return nil, wantErr
	}, 0)

	if _, err := c.Token(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("Token err = %v, want %v", err, wantErr)
	}
}
