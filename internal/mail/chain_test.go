package mail

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fornello/go-quote-backend/internal/domain"
)

// fakeProvider is a scriptable Provider for chain tests.
type fakeProvider struct {
	name  string
	err   error
	delay time.Duration
	calls atomic.Int64
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Send(ctx context.Context, _ *Message) error {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func testNotification() *domain.RenderedNotification {
	return &domain.RenderedNotification{
		Subject: "Your quote",
		HTML:    "<p>hello</p>",
		Text:    "hello",
	}
}

func newTestChain(providers ...Provider) *Chain {
	return NewChain(providers, "Fornello", "quotes@fornello.test", time.Second, zerolog.Nop())
}

func TestChainSend_FirstProviderSucceeds(t *testing.T) {
	p1 := &fakeProvider{name: "graph"}
	p2 := &fakeProvider{name: "apikey"}
	c := newTestChain(p1, p2)

	res, err := c.Send(context.Background(), testNotification(), "guest@example.com")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.FinalStatus != domain.StatusDelivered {
		t.Fatalf("FinalStatus = %q, want %q", res.FinalStatus, domain.StatusDelivered)
	}
	if res.ProviderUsed != "graph" {
		t.Fatalf("ProviderUsed = %q, want graph", res.ProviderUsed)
	}
	if len(res.Attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(res.Attempts))
	}
	if p2.calls.Load() != 0 {
		t.Fatalf("second provider called %d times, want 0", p2.calls.Load())
	}
}

func TestChainSend_TransientFailuresFallThrough(t *testing.T) {
	p1 := &fakeProvider{name: "graph", err: transient("graph", errors.New("503"))}
	p2 := &fakeProvider{name: "apikey", err: transient("apikey", errors.New("429"))}
	p3 := &fakeProvider{name: "smtp"}
	c := newTestChain(p1, p2, p3)

	res, err := c.Send(context.Background(), testNotification(), "guest@example.com")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.FinalStatus != domain.StatusDelivered {
		t.Fatalf("FinalStatus = %q, want %q", res.FinalStatus, domain.StatusDelivered)
	}
	if res.ProviderUsed != "smtp" {
		t.Fatalf("ProviderUsed = %q, want smtp", res.ProviderUsed)
	}
	if len(res.Attempts) != 3 {
		t.Fatalf("attempts = %d, want 3", len(res.Attempts))
	}
	for i, want := range []string{"graph", "apikey", "smtp"} {
		if res.Attempts[i].Provider != want {
			t.Errorf("attempt %d provider = %q, want %q", i, res.Attempts[i].Provider, want)
		}
	}
	if res.Attempts[0].ErrorKind != domain.ErrorKindTransient {
		t.Errorf("attempt 0 kind = %q, want transient", res.Attempts[0].ErrorKind)
	}
	if !res.Attempts[2].Succeeded {
		t.Errorf("attempt 2 should have succeeded")
	}
}

func TestChainSend_PermanentFailureStopsChain(t *testing.T) {
	p1 := &fakeProvider{name: "graph", err: permanent("graph", errors.New("400 bad recipient"))}
	p2 := &fakeProvider{name: "apikey"}
	c := newTestChain(p1, p2)

	res, err := c.Send(context.Background(), testNotification(), "not-an-address")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.FinalStatus != domain.StatusRejected {
		t.Fatalf("FinalStatus = %q, want %q", res.FinalStatus, domain.StatusRejected)
	}
	if len(res.Attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(res.Attempts))
	}
	if res.ProviderUsed != "" {
		t.Fatalf("ProviderUsed = %q, want empty", res.ProviderUsed)
	}
	if p2.calls.Load() != 0 {
		t.Fatalf("later provider called after permanent failure")
	}
}

func TestChainSend_AllTransientFails(t *testing.T) {
	p1 := &fakeProvider{name: "graph", err: transient("graph", errors.New("dial tcp: refused"))}
	p2 := &fakeProvider{name: "smtp", err: transient("smtp", errors.New("dial tcp: refused"))}
	c := newTestChain(p1, p2)

	res, err := c.Send(context.Background(), testNotification(), "guest@example.com")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.FinalStatus != domain.StatusAllProvidersFailed {
		t.Fatalf("FinalStatus = %q, want %q", res.FinalStatus, domain.StatusAllProvidersFailed)
	}
	if len(res.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(res.Attempts))
	}
}

func TestChainSend_TimeoutIsTransient(t *testing.T) {
	slow := &fakeProvider{name: "graph", delay: 200 * time.Millisecond}
	fast := &fakeProvider{name: "smtp"}
	c := NewChain([]Provider{slow, fast}, "Fornello", "quotes@fornello.test",
		20*time.Millisecond, zerolog.Nop())

	res, err := c.Send(context.Background(), testNotification(), "guest@example.com")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.FinalStatus != domain.StatusDelivered {
		t.Fatalf("FinalStatus = %q, want %q", res.FinalStatus, domain.StatusDelivered)
	}
	if res.Attempts[0].ErrorKind != domain.ErrorKindTransient {
		t.Fatalf("timed-out attempt kind = %q, want transient", res.Attempts[0].ErrorKind)
	}
	if res.ProviderUsed != "smtp" {
		t.Fatalf("ProviderUsed = %q, want smtp", res.ProviderUsed)
	}
}

func TestChainSend_CancelledContextStopsChain(t *testing.T) {
	slow := &fakeProvider{name: "graph", delay: time.Second}
	next := &fakeProvider{name: "smtp"}
	c := newTestChain(slow, next)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	res, err := c.Send(ctx, testNotification(), "guest@example.com")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.FinalStatus != domain.StatusAllProvidersFailed {
		t.Fatalf("FinalStatus = %q, want %q", res.FinalStatus, domain.StatusAllProvidersFailed)
	}
	if got := len(res.Attempts); got != 1 {
		t.Fatalf("Attempts = %d, want 1", got)
	}
	if next.calls.Load() != 0 {
		t.Fatalf("next provider called %d times after cancellation, want 0", next.calls.Load())
	}
}

func TestChainSend_NoProviders(t *testing.T) {
	c := newTestChain()
	if _, err := c.Send(context.Background(), testNotification(), "guest@example.com"); err == nil {
		t.Fatal("expected error for empty chain")
	}
}

func TestClassify(t *testing.T) {
	if got := Classify(nil); got != domain.ErrorKindNone {
		t.Errorf("Classify(nil) = %q, want none", got)
	}
	if got := Classify(transient("x", errors.New("boom"))); got != domain.ErrorKindTransient {
		t.Errorf("Classify(transient) = %q", got)
	}
	if got := Classify(permanent("x", errors.New("boom"))); got != domain.ErrorKindPermanent {
		t.Errorf("Classify(permanent) = %q", got)
	}
	if got := Classify(errors.New("plain")); got != domain.ErrorKindTransient {
		t.Errorf("Classify(plain) = %q, want transient", got)
	}
}

func TestKindFromStatus(t *testing.T) {
	cases := []struct {
		status int
		want   domain.ErrorKind
	}{
		{400, domain.ErrorKindPermanent},
		{413, domain.ErrorKindPermanent},
		{422, domain.ErrorKindPermanent},
		{401, domain.ErrorKindTransient},
		{429, domain.ErrorKindTransient},
		{500, domain.ErrorKindTransient},
		{503, domain.ErrorKindTransient},
	}
	for _, c := range cases {
		if got := kindFromStatus(c.status); got != c.want {
			t.Errorf("kindFromStatus(%d) = %q, want %q", c.status, got, c.want)
		}
	}
}
