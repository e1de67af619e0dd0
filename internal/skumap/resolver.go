// Package skumap resolves storefront SKUs to distributor part numbers
// through a cache, the local mapping store, and the remote catalog.
package skumap

import (
	"context"
	"strings"
	"time"

	"github.com/stockbridge/freightgate/internal/store"
	"github.com/stockbridge/freightgate/pkg/cache"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Positive mappings change rarely (weekly catalog sync), so a long
// cache is safe. Negative results may become valid moments later, e.g.
// racing a catalog sync or a manual fix, so they are cached briefly:
// long enough to bound repeated remote lookups, short enough not to
// mask a fix.
const (
	defaultPositiveTTL = 5 * time.Minute
	defaultNegativeTTL = 1 * time.Minute
	defaultCacheSize   = 4096
)

// Mapping is one resolved SKU.
type Mapping struct {
	SKU                   string
	DistributorPartNumber string
}

// Config tunes the resolver's cache.
type Config struct {
	PositiveTTL time.Duration
	NegativeTTL time.Duration
	CacheSize   int
}

// Resolver resolves SKUs with negative caching and asynchronous
// write-through to the local store.
type Resolver struct {
	// cache value nil means "checked, not found" (negative entry).
	cache       *cache.Cache[string, *Mapping]
	local       store.MappingStore
	remote      store.Catalog
	logger      *otelzap.Logger
	positiveTTL time.Duration
	negativeTTL time.Duration
}

// NewResolver creates a resolver over the local store and remote catalog.
func NewResolver(cfg Config, local store.MappingStore, remote store.Catalog, logger *otelzap.Logger) *Resolver {
	if cfg.PositiveTTL == 0 {
		cfg.PositiveTTL = defaultPositiveTTL
	}
	if cfg.NegativeTTL == 0 {
		cfg.NegativeTTL = defaultNegativeTTL
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = defaultCacheSize
	}
	return &Resolver{
		cache:       cache.New[string, *Mapping](cfg.CacheSize, cfg.PositiveTTL),
		local:       local,
		remote:      remote,
		logger:      logger,
		positiveTTL: cfg.PositiveTTL,
		negativeTTL: cfg.NegativeTTL,
	}
}

// ResolveMany resolves the given SKUs. Only successfully-resolved SKUs
// are returned; callers diff against the input to find gaps. With
// allowRemoteFallback false, SKUs missing from cache and local store
// are negatively cached and skipped rather than queried remotely.
func (r *Resolver) ResolveMany(ctx context.Context, shopID string, skus []string, allowRemoteFallback bool) ([]Mapping, error) {
	resolved := make([]Mapping, 0, len(skus))

	// Normalize, drop empties, de-duplicate.
	pending := make([]string, 0, len(skus))
	seen := make(map[string]bool, len(skus))
	for _, sku := range skus {
		sku = strings.TrimSpace(sku)
		if sku == "" || seen[sku] {
			continue
		}
		seen[sku] = true
		pending = append(pending, sku)
	}

	// Cache pass. A cached nil is a negative entry: checked, not found.
	uncached := pending[:0]
	for _, sku := range pending {
		m, ok := r.cache.Get(cacheKey(shopID, sku))
		if !ok {
			uncached = append(uncached, sku)
			continue
		}
		if m != nil {
			resolved = append(resolved, *m)
		}
	}
	if len(uncached) == 0 {
		return resolved, nil
	}

	// Local store pass. An unavailable local store degrades to
	// remote-only: availability over consistency.
	localHits, err := r.local.GetBulk(ctx, shopID, uncached)
	if err != nil {
		r.logger.Warn("local mapping store unavailable, falling back to remote",
			zap.String("shop_id", shopID), zap.Error(err))
		localHits = nil
	}
	remaining := make([]string, 0, len(uncached))
	for _, sku := range uncached {
		if part, ok := localHits[sku]; ok {
			m := Mapping{SKU: sku, DistributorPartNumber: part}
			r.cache.SetTTL(cacheKey(shopID, sku), &m, r.positiveTTL)
			resolved = append(resolved, m)
			continue
		}
		remaining = append(remaining, sku)
	}
	if len(remaining) == 0 {
		return resolved, nil
	}

	if !allowRemoteFallback {
		for _, sku := range remaining {
			r.cache.SetTTL(cacheKey(shopID, sku), nil, r.negativeTTL)
		}
		return resolved, nil
	}

	// Remote catalog is the source of truth; its failure is a hard
	// error since no mapping data exists at all for these SKUs.
	remoteHits, err := r.remote.LookupParts(ctx, remaining)
	if err != nil {
		return nil, err
	}

	writeBack := make(map[string]string, len(remoteHits))
	for _, sku := range remaining {
		part, ok := remoteHits[sku]
		if !ok {
			r.cache.SetTTL(cacheKey(shopID, sku), nil, r.negativeTTL)
			continue
		}
		m := Mapping{SKU: sku, DistributorPartNumber: part}
		r.cache.SetTTL(cacheKey(shopID, sku), &m, r.positiveTTL)
		resolved = append(resolved, m)
		writeBack[sku] = part
	}

	if len(writeBack) > 0 {
		// Fire-and-forget: the caller's response never waits on this
		// write, and its failure only costs a future remote lookup.
		go func() {
			wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := r.local.Upsert(wctx, shopID, writeBack); err != nil {
				r.logger.Warn("mapping write-through failed",
					zap.String("shop_id", shopID),
					zap.Int("count", len(writeBack)),
					zap.Error(err))
			}
		}()
	}

	return resolved, nil
}

func cacheKey(shopID, sku string) string {
	return shopID + "\x1f" + sku
}
