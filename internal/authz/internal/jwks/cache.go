package jwks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fastertools/ftl-gateway/internal/authz/authzerr"
	"github.com/fastertools/ftl-gateway/internal/authz/core"
)

// DefaultTTL is how long a fetched key set stays valid in the store.
const DefaultTTL = time.Hour

// cachedSet is the value persisted in the key-value store.
type cachedSet struct {
	Jwks      Set   `json:"jwks"`
	ExpiresAt int64 `json:"expires_at"`
}

// Cache fetches key sets over HTTP and memoizes them in a key-value store
// with a TTL. The cache is best-effort: two concurrent misses may both fetch
// and the last write wins, which is safe because fetches are idempotent.
type Cache struct {
	store      core.KeyStore
	httpClient *http.Client
	ttl        time.Duration
	now        func() time.Time
}

// NewCache creates a JWKS cache over the given key-value store.
// A non-positive ttl selects DefaultTTL.
func NewCache(store core.KeyStore, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		store: store,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the key set for jwksURI, from the store when fresh, otherwise
// by fetching it. Expired entries are silently discarded. Store write
// failures after a fetch are logged, not fatal.
func (c *Cache) Get(ctx context.Context, jwksURI string) (*Set, error) {
	cacheKey := "jwks:" + jwksURI

	if data, ok := c.store.Get(cacheKey); ok {
		var cached cachedSet
		if err := json.Unmarshal(data, &cached); err == nil && c.now().Unix() < cached.ExpiresAt {
			return &cached.Jwks, nil
		}
	}

	set, err := c.fetch(ctx, jwksURI)
	if err != nil {
		return nil, err
	}

	cached := cachedSet{
		Jwks:      *set,
		ExpiresAt: c.now().Add(c.ttl).Unix(),
	}
	if data, err := json.Marshal(cached); err == nil {
		if err := c.store.Set(cacheKey, data); err != nil {
			slog.Warn("failed to cache JWKS", "jwks_uri", jwksURI, "error", err)
		}
	}

	return set, nil
}

// fetch retrieves and parses the key set from jwksURI.
func (c *Cache) fetch(ctx context.Context, jwksURI string) (*Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURI, nil)
	if err != nil {
		return nil, authzerr.NewJWKSFetchError("fetch", jwksURI, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, authzerr.NewJWKSFetchError("fetch", jwksURI, fmt.Errorf("failed to fetch JWKS: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, authzerr.NewJWKSFetchError("fetch", jwksURI,
			fmt.Errorf("JWKS fetch failed with status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, authzerr.NewJWKSFetchError("fetch", jwksURI, err)
	}

	var set Set
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, authzerr.NewJWKSFetchError("fetch", jwksURI, fmt.Errorf("invalid JWKS document: %w", err))
	}

	return &set, nil
}
