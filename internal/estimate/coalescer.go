// Package estimate fronts the slow upstream freight APIs with a
// short-TTL result cache and single-flight request coalescing.
package estimate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockbridge/freightgate/internal/telemetry"
	"github.com/stockbridge/freightgate/pkg/cache"
	"github.com/stockbridge/freightgate/pkg/freight"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultResultTTL = 2 * time.Minute
	defaultCacheSize = 512

	// upstreamTimeout caps a detached upstream call. The provider
	// transports carry their own 30s HTTP timeouts; this is the
	// backstop above them.
	upstreamTimeout = 45 * time.Second
)

// Result is the outcome of one estimate request.
type Result struct {
	CorrelationID string
	Response      *freight.EstimateResponse
	CacheHit      bool
}

// Config tunes the result cache.
type Config struct {
	ResultTTL time.Duration
	CacheSize int
}

// Coalescer deduplicates concurrent identical freight requests and
// caches successful results briefly. Checkout bursts routinely issue
// the same request several times (page reloads, retries against the
// same cart); only one upstream call should result.
type Coalescer struct {
	provider freight.Provider
	results  *cache.Cache[string, *freight.EstimateResponse]
	inflight singleflight.Group
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
}

// NewCoalescer wraps provider with caching and coalescing.
func NewCoalescer(cfg Config, provider freight.Provider, logger *otelzap.Logger, metrics *telemetry.Metrics) *Coalescer {
	if cfg.ResultTTL == 0 {
		cfg.ResultTTL = defaultResultTTL
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = defaultCacheSize
	}
	return &Coalescer{
		provider: provider,
		results:  cache.New[string, *freight.EstimateResponse](cfg.CacheSize, cfg.ResultTTL),
		logger:   logger,
		metrics:  metrics,
	}
}

// RequestEstimate returns a cached response when one exists, joins an
// in-flight identical request when one is outstanding, and otherwise
// issues the upstream call. The in-flight marker is cleared on
// settlement regardless of outcome, so a failure never blocks retries.
func (c *Coalescer) RequestEstimate(ctx context.Context, req *freight.EstimateRequest) (*Result, error) {
	key := CacheKey(req)

	if resp, ok := c.results.Get(key); ok {
		c.recordCacheEvent("hit")
		return &Result{CorrelationID: resp.CorrelationID, Response: resp, CacheHit: true}, nil
	}

	v, err, shared := c.inflight.Do(key, func() (interface{}, error) {
		upstream := *req
		upstream.CorrelationID = uuid.New().String()

		c.logger.Debug("freight estimate cache miss, calling upstream",
			zap.String("shop_id", req.ShopID),
			zap.String("provider", c.provider.Name()),
			zap.String("correlation_id", upstream.CorrelationID),
		)

		// The flight is shared: the initiating caller hanging up must
		// not cancel it under callers still waiting, and a completed
		// call still populates the cache for the next one.
		uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), upstreamTimeout)
		defer cancel()

		resp, err := c.provider.GetEstimate(uctx, &upstream)
		if err != nil {
			return nil, err
		}
		if resp.CorrelationID == "" {
			resp.CorrelationID = upstream.CorrelationID
		}
		c.results.Set(key, resp)
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.recordCacheEvent("coalesced")
	} else {
		c.recordCacheEvent("miss")
	}

	resp := v.(*freight.EstimateResponse)
	return &Result{CorrelationID: resp.CorrelationID, Response: resp, CacheHit: false}, nil
}

func (c *Coalescer) recordCacheEvent(event string) {
	if c.metrics != nil {
		c.metrics.RecordCacheEvent(event)
	}
}
