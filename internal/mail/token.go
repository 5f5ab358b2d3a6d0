// Package mail: OAuth token cache for the Graph provider.
package mail

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// DefaultExpiryMargin is how close to expiry a cached token is still
// considered usable. A token inside the margin is refreshed as if expired,
// so a send never goes out with a token about to lapse mid-request.
const DefaultExpiryMargin = 60 * time.Second

// fetchTimeout bounds a detached token fetch.
const fetchTimeout = 30 * time.Second

// TokenFetcher obtains a fresh access token from the identity provider.
// clientcredentials.Config.Token satisfies it directly.
type TokenFetcher func(ctx context.Context) (*oauth2.Token, error)

// TokenCache holds one access token per provider instance and refreshes it
// lazily. Concurrent callers needing a refresh share a single in-flight
// fetch; readers of an unexpired token never block on the network. The
// cache is constructor-injected state owned by the adapter; there is no
// package-level token.
type TokenCache struct {
	fetch  TokenFetcher
	margin time.Duration

	mu    sync.Mutex
	token *oauth2.Token

	flight singleflight.Group
}

// NewTokenCache builds a cache around fetch. A non-positive margin falls
// back to DefaultExpiryMargin.
func NewTokenCache(fetch TokenFetcher, margin time.Duration) *TokenCache {
	if margin <= 0 {
		margin = DefaultExpiryMargin
	}
	return &TokenCache{fetch: fetch, margin: margin}
}

// Token returns a usable access token, fetching one only when the cached
// token is absent or within the expiry margin.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	if tok := c.cached(); tok != nil {
		return tok.AccessToken, nil
	}

	v, err, _ := c.flight.Do("token", func() (any, error) {
		// A concurrent caller may have refreshed while we queued.
		if tok := c.cached(); tok != nil {
			return tok, nil
		}
		// The flight serves every queued waiter, so the fetch must not
		// die with whichever caller happened to start it. Detach from
		// the initiator's cancellation but keep its values, and bound
		// the fetch on its own clock.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		fresh, err := c.fetch(fctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.token = fresh
		c.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return "", err
	}
	return v.(*oauth2.Token).AccessToken, nil
}

// cached returns the stored token when it is still valid beyond the margin.
func (c *TokenCache) cached() *oauth2.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == nil || c.token.AccessToken == "" {
		return nil
	}
	if time.Until(c.token.Expiry) <= c.margin {
		return nil
	}
	return c.token
}
