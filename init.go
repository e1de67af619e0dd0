package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/stockbridge/freightgate/internal/auth"
	"github.com/stockbridge/freightgate/internal/config"
	"github.com/stockbridge/freightgate/internal/estimate"
	"github.com/stockbridge/freightgate/internal/rates"
	"github.com/stockbridge/freightgate/internal/skumap"
	"github.com/stockbridge/freightgate/internal/store"
	"github.com/stockbridge/freightgate/internal/telemetry"
	"github.com/stockbridge/freightgate/pkg/freight"
	"github.com/stockbridge/freightgate/pkg/freight/apex"
	"github.com/stockbridge/freightgate/pkg/freight/norvex"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

// dependencies holds the wired service graph for the serve command.
type dependencies struct {
	Service     *rates.Service
	Settings    store.SettingsStore
	Credentials store.CredentialStore

	catalog *store.PGCatalog
}

// Close releases held resources (the catalog database handle).
func (d *dependencies) Close() {
	if d.catalog != nil {
		d.catalog.Close()
	}
}

func initDependencies(cfg *config.Config, logger *otelzap.Logger) (*dependencies, error) {
	credentials := store.NewMemoryCredentialStore()
	mappings := store.NewMemoryMappingStore()
	settings := store.NewMemorySettingsStore()

	catalog, pgCatalog, err := initCatalog(cfg)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewManager(auth.Config{
		TokenURL:        cfg.ApexTokenURL,
		SandboxTokenURL: cfg.ApexSandboxTokenURL,
	}, credentials, logger)

	registry := initProviderRegistry(cfg, tokens, logger)
	provider, err := registry.Get(cfg.Provider)
	if err != nil {
		return nil, err
	}
	logger.Info("Freight providers registered",
		zap.Strings("available", registry.Names()),
		zap.String("active", provider.Name()),
	)

	metrics := telemetry.NewMetrics()
	coalescer := estimate.NewCoalescer(estimate.Config{
		ResultTTL: cfg.EstimateTTL,
		CacheSize: cfg.EstimateCacheSize,
	}, provider, logger, metrics)
	resolver := skumap.NewResolver(skumap.Config{
		PositiveTTL: cfg.MappingTTL,
		NegativeTTL: cfg.MappingNegativeTTL,
		CacheSize:   cfg.MappingCacheSize,
	}, mappings, catalog, logger)
	audit := store.NewAsyncAuditLog(logger)

	service := rates.NewService(coalescer, resolver, settings, audit, logger, metrics, provider.Name(), registry)

	return &dependencies{
		Service:     service,
		Settings:    settings,
		Credentials: credentials,
		catalog:     pgCatalog,
	}, nil
}

// initCatalog returns the remote catalog. Without a DSN configured the
// service runs on an empty in-memory catalog, which is only useful
// alongside the mock providers.
func initCatalog(cfg *config.Config) (store.Catalog, *store.PGCatalog, error) {
	if cfg.CatalogDSN == "" {
		return store.NewMemoryCatalog(nil), nil, nil
	}
	pg, err := store.NewPGCatalog(cfg.CatalogDSN, cfg.CatalogTable)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg, nil
}

// initProviderRegistry builds every distributor integration; the
// active one is selected by name from configuration.
func initProviderRegistry(cfg *config.Config, tokens *auth.Manager, logger *otelzap.Logger) *freight.Registry {
	registry := freight.NewRegistry()
	registry.Register(apex.New(apex.Config{
		BaseURL: cfg.ApexBaseURL,
		UseMock: cfg.ApexUseMock,
	}, tokens, logger))
	registry.Register(norvex.New(norvex.Config{
		EndpointURL: cfg.NorvexEndpointURL,
		UseMock:     cfg.NorvexUseMock,
	}, tokens, logger))
	return registry
}

// syncReport summarizes one catalog sync pass.
type syncReport struct {
	Requested int
	Mapped    int
	Missing   []string
}

// runSyncPass checks every SKU in the file against the remote catalog
// and reports the coverage gaps. Intended to run from cron so unmapped
// SKUs surface before a shopper hits them at checkout; the serve path
// writes mappings through to the local store on its own.
func runSyncPass(ctx context.Context, cfg *config.Config, logger *otelzap.Logger, shopID, skusFile string) (*syncReport, error) {
	if cfg.CatalogDSN == "" {
		return nil, fmt.Errorf("CATALOG_DSN must be set for sync")
	}

	skus, err := readSKUs(skusFile)
	if err != nil {
		return nil, err
	}
	logger.Info("Starting catalog sync pass",
		zap.String("shop_id", shopID),
		zap.Int("sku_count", len(skus)),
	)

	catalog, err := store.NewPGCatalog(cfg.CatalogDSN, cfg.CatalogTable)
	if err != nil {
		return nil, err
	}
	defer catalog.Close()

	found, err := catalog.LookupParts(ctx, skus)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}

	report := &syncReport{Requested: len(skus), Mapped: len(found)}
	for _, sku := range skus {
		if _, ok := found[sku]; !ok {
			report.Missing = append(report.Missing, sku)
		}
	}
	return report, nil
}

func readSKUs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening SKU file: %w", err)
	}
	defer f.Close()

	var skus []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		sku := strings.TrimSpace(scanner.Text())
		if sku == "" || seen[sku] {
			continue
		}
		seen[sku] = true
		skus = append(skus, sku)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading SKU file: %w", err)
	}
	return skus, nil
}
