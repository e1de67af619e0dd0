// Package rates orchestrates the checkout rate flow: SKU resolution,
// coalesced freight estimates, rate combination, carrier filtering,
// and checkout formatting.
package rates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/stockbridge/freightgate/internal/estimate"
	"github.com/stockbridge/freightgate/internal/skumap"
	"github.com/stockbridge/freightgate/internal/store"
	"github.com/stockbridge/freightgate/internal/telemetry"
	"github.com/stockbridge/freightgate/pkg/freight"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Outcome classifies one rate request for auditing and metrics.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeNoMapping Outcome = "no_mapping"
	OutcomeNoRates   Outcome = "no_rates"
	OutcomeError     Outcome = "error"
)

// CheckoutItem is one cart line as the storefront sees it.
type CheckoutItem struct {
	SKU      string
	Quantity int
}

// CheckoutRequest is a normalized checkout rate request.
type CheckoutRequest struct {
	Destination freight.Address
	Items       []CheckoutItem
}

// CheckoutResult is what the carrier-service callback serves. Rates
// may be the fallback rate or empty; checkout never sees an error.
type CheckoutResult struct {
	Rates       []freight.CheckoutRate
	Outcome     Outcome
	MissingSKUs []string
}

// AdminEstimate is the diagnostic view of one estimate, combined but
// unfiltered, with the raw per-warehouse breakdown retained.
type AdminEstimate struct {
	CorrelationID string                 `json:"correlation_id"`
	CacheHit      bool                   `json:"cache_hit"`
	Combined      []freight.CombinedRate `json:"combined"`
	Distributions []freight.Distribution `json:"distributions"`
}

// Service wires the core components together.
type Service struct {
	coalescer *estimate.Coalescer
	resolver  *skumap.Resolver
	settings  store.SettingsStore
	audit     store.AuditLog
	logger    *otelzap.Logger
	metrics   *telemetry.Metrics
	provider  string
	registry  *freight.Registry
}

// NewService creates the rate service. provider names the freight
// provider behind the coalescer, for metrics and audit records;
// registry holds every built provider for the all-providers comparison
// and may be nil when only the active provider exists.
func NewService(coalescer *estimate.Coalescer, resolver *skumap.Resolver, settings store.SettingsStore, audit store.AuditLog, logger *otelzap.Logger, metrics *telemetry.Metrics, provider string, registry *freight.Registry) *Service {
	return &Service{
		coalescer: coalescer,
		resolver:  resolver,
		settings:  settings,
		audit:     audit,
		logger:    logger,
		metrics:   metrics,
		provider:  provider,
		registry:  registry,
	}
}

// CheckoutRates serves the storefront path. Every failure mode
// degrades to the shop's configured fallback rate (or an empty list):
// a broken rate callback would otherwise break checkout itself.
func (s *Service) CheckoutRates(ctx context.Context, shopID string, req *CheckoutRequest) *CheckoutResult {
	started := time.Now()

	settings, err := s.settings.Get(ctx, shopID)
	if err != nil {
		s.logger.Warn("settings lookup failed, using defaults",
			zap.String("shop_id", shopID), zap.Error(err))
		settings = &store.ShopSettings{ShopID: shopID, Currency: "USD"}
	}

	result, correlationID := s.checkoutRates(ctx, shopID, settings, req)

	s.recordRequest("checkout", result.Outcome, started)
	s.audit.Log(store.AuditEntry{
		ShopID:        shopID,
		Operation:     "checkout_rates",
		Outcome:       string(result.Outcome),
		CorrelationID: correlationID,
		Duration:      time.Since(started),
		RequestNote:   summarizeRequest(req),
		ResponseNote:  fmt.Sprintf("%d rates", len(result.Rates)),
	})
	return result
}

func (s *Service) checkoutRates(ctx context.Context, shopID string, settings *store.ShopSettings, req *CheckoutRequest) (*CheckoutResult, string) {
	skus := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		skus = append(skus, item.SKU)
	}

	mappings, err := s.resolver.ResolveMany(ctx, shopID, skus, true)
	if err != nil {
		s.logger.Error("SKU resolution failed",
			zap.String("shop_id", shopID), zap.Error(err))
		return s.fallback(settings, OutcomeError, nil), ""
	}

	missing := diffMissing(skus, mappings)
	if len(missing) > 0 {
		s.logger.Info("cart has unmapped SKUs, substituting fallback rate",
			zap.String("shop_id", shopID),
			zap.Strings("missing_skus", missing))
		return s.fallback(settings, OutcomeNoMapping, missing), ""
	}

	estResult, err := s.coalescer.RequestEstimate(ctx, buildEstimateRequest(shopID, req, mappings))
	if err != nil {
		s.recordUpstreamError(err)
		s.logger.Error("freight estimate failed",
			zap.String("shop_id", shopID), zap.Error(err))
		return s.fallback(settings, OutcomeError, nil), ""
	}

	combined := freight.Combine(estResult.Response.Distributions)
	if len(combined) == 0 {
		return s.fallback(settings, OutcomeNoRates, nil), estResult.CorrelationID
	}

	s.registerCarriers(ctx, settings, combined)

	rates := s.presentRates(settings, combined)
	if len(rates) == 0 {
		// Every complete carrier is disabled for this shop.
		return s.fallback(settings, OutcomeNoRates, nil), estResult.CorrelationID
	}
	return &CheckoutResult{Rates: rates, Outcome: OutcomeOK}, estResult.CorrelationID
}

// Estimate serves the trusted admin path: full diagnostic detail,
// errors surfaced instead of swallowed. A mapping gap is returned as a
// MappingGapError so the handler can list the SKUs.
func (s *Service) Estimate(ctx context.Context, shopID string, req *CheckoutRequest) (*AdminEstimate, error) {
	started := time.Now()

	skus := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		skus = append(skus, item.SKU)
	}
	mappings, err := s.resolver.ResolveMany(ctx, shopID, skus, true)
	if err != nil {
		s.recordRequest("admin_estimate", OutcomeError, started)
		return nil, err
	}
	if missing := diffMissing(skus, mappings); len(missing) > 0 {
		s.recordRequest("admin_estimate", OutcomeNoMapping, started)
		return nil, &freight.MappingGapError{SKUs: missing}
	}

	estResult, err := s.coalescer.RequestEstimate(ctx, buildEstimateRequest(shopID, req, mappings))
	if err != nil {
		s.recordUpstreamError(err)
		s.recordRequest("admin_estimate", OutcomeError, started)
		return nil, err
	}
	// Zero distributions and distributions with no complete carrier are
	// the same outcome for the caller: nothing usable came back.
	combined := freight.Combine(estResult.Response.Distributions)
	if len(combined) == 0 {
		s.recordRequest("admin_estimate", OutcomeNoRates, started)
		return nil, freight.ErrNoRates
	}
	s.recordRequest("admin_estimate", OutcomeOK, started)

	return &AdminEstimate{
		CorrelationID: estResult.CorrelationID,
		CacheHit:      estResult.CacheHit,
		Combined:      combined,
		Distributions: estResult.Response.Distributions,
	}, nil
}

// ProviderComparison is one provider's outcome in an all-providers
// comparison.
type ProviderComparison struct {
	Provider      string                 `json:"provider"`
	Error         string                 `json:"error,omitempty"`
	Combined      []freight.CombinedRate `json:"combined,omitempty"`
	Distributions []freight.Distribution `json:"distributions,omitempty"`
}

// CompareProviders fetches a live estimate from every registered
// provider in parallel and combines each independently, so an operator
// can see what each distributor answers for the same cart. Bypasses
// the coalescer cache on purpose.
func (s *Service) CompareProviders(ctx context.Context, shopID string, req *CheckoutRequest) ([]ProviderComparison, error) {
	if s.registry == nil {
		return nil, freight.ErrProviderNotFound
	}
	started := time.Now()

	skus := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		skus = append(skus, item.SKU)
	}
	mappings, err := s.resolver.ResolveMany(ctx, shopID, skus, true)
	if err != nil {
		s.recordRequest("admin_compare", OutcomeError, started)
		return nil, err
	}
	if missing := diffMissing(skus, mappings); len(missing) > 0 {
		s.recordRequest("admin_compare", OutcomeNoMapping, started)
		return nil, &freight.MappingGapError{SKUs: missing}
	}

	results, errs := s.registry.EstimateAll(ctx, buildEstimateRequest(shopID, req, mappings))

	comparisons := make([]ProviderComparison, 0, len(results)+len(errs))
	for name, resp := range results {
		comparisons = append(comparisons, ProviderComparison{
			Provider:      name,
			Combined:      freight.Combine(resp.Distributions),
			Distributions: resp.Distributions,
		})
	}
	for name, provErr := range errs {
		comparisons = append(comparisons, ProviderComparison{Provider: name, Error: provErr.Error()})
	}
	sort.Slice(comparisons, func(i, j int) bool {
		return comparisons[i].Provider < comparisons[j].Provider
	})

	s.recordRequest("admin_compare", OutcomeOK, started)
	return comparisons, nil
}

// registerCarriers records carriers observed for the first time so
// they show up in the merchant's carrier configuration. Existing
// entries keep their enabled state; new codes default to enabled.
func (s *Service) registerCarriers(ctx context.Context, settings *store.ShopSettings, combined []freight.CombinedRate) {
	known := make(map[string]bool, len(settings.Carriers))
	for _, c := range settings.Carriers {
		known[c.CarrierCode] = true
	}

	added := false
	for _, rate := range combined {
		if known[rate.CarrierCode] {
			continue
		}
		settings.Carriers = append(settings.Carriers, freight.CarrierConfig{
			CarrierCode: rate.CarrierCode,
			Enabled:     true,
			SortOrder:   len(settings.Carriers),
		})
		known[rate.CarrierCode] = true
		added = true
	}
	if !added {
		return
	}
	if err := s.settings.Put(ctx, settings); err != nil {
		s.logger.Warn("failed to register newly observed carriers",
			zap.String("shop_id", settings.ShopID), zap.Error(err))
	}
}

// presentRates applies carrier configuration (enabled, label override,
// sort order) and formats for checkout.
func (s *Service) presentRates(settings *store.ShopSettings, combined []freight.CombinedRate) []freight.CheckoutRate {
	configs := make(map[string]freight.CarrierConfig, len(settings.Carriers))
	for _, c := range settings.Carriers {
		configs[c.CarrierCode] = c
	}
	currency := settings.Currency
	if currency == "" {
		currency = "USD"
	}

	type presented struct {
		rate      freight.CheckoutRate
		sortOrder int
	}
	out := make([]presented, 0, len(combined))
	for _, rate := range combined {
		cfg, configured := configs[rate.CarrierCode]
		if configured && !cfg.Enabled {
			continue
		}
		out = append(out, presented{
			rate:      freight.FormatCheckoutRate(rate, cfg.DisplayName, currency),
			sortOrder: cfg.SortOrder,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].sortOrder != out[j].sortOrder {
			return out[i].sortOrder < out[j].sortOrder
		}
		return out[i].rate.Price < out[j].rate.Price
	})

	rates := make([]freight.CheckoutRate, len(out))
	for i, p := range out {
		rates[i] = p.rate
	}
	return rates
}

func (s *Service) fallback(settings *store.ShopSettings, outcome Outcome, missing []string) *CheckoutResult {
	result := &CheckoutResult{Outcome: outcome, MissingSKUs: missing}
	if settings.FallbackRateCharge <= 0 {
		return result
	}
	label := settings.FallbackRateLabel
	if label == "" {
		label = "Standard Shipping"
	}
	currency := settings.Currency
	if currency == "" {
		currency = "USD"
	}
	result.Rates = []freight.CheckoutRate{{
		ServiceName: label,
		ServiceCode: "freightgate:fallback",
		Price:       freight.MinorUnits(settings.FallbackRateCharge),
		Currency:    currency,
		Description: "Flat-rate shipping",
	}}
	return result
}

func (s *Service) recordRequest(operation string, outcome Outcome, started time.Time) {
	if s.metrics != nil {
		s.metrics.RecordRequest(operation, s.provider, string(outcome), time.Since(started).Seconds())
	}
}

func (s *Service) recordUpstreamError(err error) {
	if s.metrics == nil {
		return
	}
	var authErr *freight.AuthError
	var apiErr *freight.APIError
	switch {
	case errors.As(err, &authErr):
		s.metrics.RecordUpstreamError(s.provider, "auth")
	case errors.As(err, &apiErr):
		s.metrics.RecordUpstreamError(s.provider, "api")
	case errors.Is(err, freight.ErrNoCredentials):
		s.metrics.RecordUpstreamError(s.provider, "config")
	default:
		s.metrics.RecordUpstreamError(s.provider, "other")
	}
}

func buildEstimateRequest(shopID string, req *CheckoutRequest, mappings []skumap.Mapping) *freight.EstimateRequest {
	parts := make(map[string]string, len(mappings))
	for _, m := range mappings {
		parts[m.SKU] = m.DistributorPartNumber
	}
	items := make([]freight.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, freight.LineItem{
			PartNumber: parts[item.SKU],
			SKU:        item.SKU,
			Quantity:   item.Quantity,
		})
	}
	return &freight.EstimateRequest{
		ShopID:      shopID,
		Destination: req.Destination,
		Items:       items,
	}
}

func diffMissing(skus []string, mappings []skumap.Mapping) []string {
	resolved := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		resolved[m.SKU] = true
	}
	var missing []string
	seen := make(map[string]bool, len(skus))
	for _, sku := range skus {
		sku = strings.TrimSpace(sku)
		if sku == "" || seen[sku] || resolved[sku] {
			continue
		}
		seen[sku] = true
		missing = append(missing, sku)
	}
	return missing
}

func summarizeRequest(req *CheckoutRequest) string {
	return fmt.Sprintf("%d items to %s %s %s",
		len(req.Items),
		req.Destination.CountryCode,
		req.Destination.ProvinceCode,
		req.Destination.PostalCode,
	)
}
