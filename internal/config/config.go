package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Which distributor serves freight estimates: "apex" or "norvex".
	Provider string `envconfig:"FREIGHT_PROVIDER" default:"apex"`

	// Apex (REST, OAuth client-credentials)
	ApexBaseURL         string `envconfig:"APEX_BASE_URL" default:"https://api.apexsupply.com/v2"`
	ApexTokenURL        string `envconfig:"APEX_TOKEN_URL" default:"https://auth.apexsupply.com/oauth/token"`
	ApexSandboxTokenURL string `envconfig:"APEX_SANDBOX_TOKEN_URL" default:"https://auth.sandbox.apexsupply.com/oauth/token"`
	ApexUseMock         bool   `envconfig:"APEX_USE_MOCK" default:"false"`

	// Norvex (legacy XML)
	NorvexEndpointURL string `envconfig:"NORVEX_ENDPOINT_URL" default:"https://ws.norvex.com/quote"`
	NorvexUseMock     bool   `envconfig:"NORVEX_USE_MOCK" default:"false"`

	// Remote product catalog (Postgres)
	CatalogDSN   string `envconfig:"CATALOG_DSN"`
	CatalogTable string `envconfig:"CATALOG_TABLE" default:"product_catalog"`

	// Cache tuning
	MappingTTL         time.Duration `envconfig:"MAPPING_TTL" default:"5m"`
	MappingNegativeTTL time.Duration `envconfig:"MAPPING_NEGATIVE_TTL" default:"1m"`
	MappingCacheSize   int           `envconfig:"MAPPING_CACHE_SIZE" default:"4096"`
	EstimateTTL        time.Duration `envconfig:"ESTIMATE_TTL" default:"2m"`
	EstimateCacheSize  int           `envconfig:"ESTIMATE_CACHE_SIZE" default:"512"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.claude.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"freightgate"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.Provider != "apex" && cfg.Provider != "norvex" {
		return nil, fmt.Errorf("unknown FREIGHT_PROVIDER %q", cfg.Provider)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("freight.provider", c.Provider),
		attribute.Bool("apex.mock", c.ApexUseMock),
		attribute.Bool("norvex.mock", c.NorvexUseMock),
	}
}
