package service

import (
	"context"
	"fmt"
	"time"

	"interview-scheduler/core/logger"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const defaultRefreshTimeout = 10 * time.Second

// CredentialCache keeps the last valid token per external account. Concurrent
// loads of the same account share one connector call; loads of different
// accounts never wait on each other.
type CredentialCache struct {
	connector      CalendarConnector
	tokens         *lru.Cache[string, *oauth2.Token]
	group          singleflight.Group
	skew           time.Duration
	refreshTimeout time.Duration
	now            func() time.Time
}

type CredentialCacheOption func(*CredentialCache)

func WithRefreshTimeout(d time.Duration) CredentialCacheOption {
	return func(c *CredentialCache) { c.refreshTimeout = d }
}

func WithCacheClock(now func() time.Time) CredentialCacheOption {
	return func(c *CredentialCache) { c.now = now }
}

func NewCredentialCache(connector CalendarConnector, size int, skew time.Duration, opts ...CredentialCacheOption) (*CredentialCache, error) {
	if size <= 0 {
		size = 1024
	}
	tokens, err := lru.New[string, *oauth2.Token](size)
	if err != nil {
		return nil, fmt.Errorf("credential cache: %w", err)
	}
	c := &CredentialCache{
		connector:      connector,
		tokens:         tokens,
		skew:           skew,
		refreshTimeout: defaultRefreshTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns a cached token that is valid beyond the skew, or loads one.
func (c *CredentialCache) Get(ctx context.Context, accountID string) (*oauth2.Token, error) {
	if tok, ok := c.tokens.Get(accountID); ok && c.fresh(tok) {
		return tok, nil
	}
	return c.load(ctx, accountID)
}

// NearExpiry reports whether the account has no cached token valid beyond the skew.
func (c *CredentialCache) NearExpiry(accountID string) bool {
	tok, ok := c.tokens.Get(accountID)
	return !ok || !c.fresh(tok)
}

// Refresh drops the cached token and loads a new one.
func (c *CredentialCache) Refresh(ctx context.Context, accountID string) error {
	c.tokens.Remove(accountID)
	_, err := c.load(ctx, accountID)
	return err
}

func (c *CredentialCache) Invalidate(accountID string) {
	c.tokens.Remove(accountID)
}

func (c *CredentialCache) Len() int {
	return c.tokens.Len()
}

// load runs the connector call detached from the caller's cancellation so a
// disconnecting request does not abort a refresh other requests wait on.
func (c *CredentialCache) load(ctx context.Context, accountID string) (*oauth2.Token, error) {
	ch := c.group.DoChan(accountID, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()

		tok, err := c.connector.GetValidAccessToken(rctx, accountID)
		if err != nil {
			c.tokens.Remove(accountID)
			logger.Warn("CredentialCache:Load:Error", "account_id", accountID, "error", err)
			return nil, err
		}
		c.tokens.Add(accountID, tok)
		return tok, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*oauth2.Token), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *CredentialCache) fresh(tok *oauth2.Token) bool {
	if tok == nil || tok.AccessToken == "" {
		return false
	}
	if tok.Expiry.IsZero() {
		return true
	}
	return tok.Expiry.After(c.now().Add(c.skew))
}
