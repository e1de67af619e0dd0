// Package store defines the persistence contracts the rate engine
// consumes, with in-memory implementations and a Postgres-backed
// remote catalog.
package store

import (
	"context"
	"time"

	"github.com/stockbridge/freightgate/pkg/freight"
)

// ValidationStatus records the outcome of the most recent credential
// check against the distributor.
type ValidationStatus string

const (
	ValidationUnknown ValidationStatus = "unknown"
	ValidationOK      ValidationStatus = "ok"
	ValidationFailed  ValidationStatus = "failed"
)

// Credential is a shop's distributor account material. The Apex side
// carries an OAuth client and a cached access token; the Norvex side
// is plain inline credentials.
type Credential struct {
	ShopID string `json:"shop_id"`

	// Apex (OAuth client-credentials)
	ClientID       string `json:"client_id,omitempty"`
	ClientSecret   string `json:"client_secret,omitempty"`
	CustomerNumber string `json:"customer_number,omitempty"`
	CountryCode    string `json:"country_code,omitempty"`
	Contact        string `json:"contact,omitempty"`
	SenderID       string `json:"sender_id,omitempty"`
	Sandbox        bool   `json:"sandbox,omitempty"`

	AccessToken     string           `json:"-"`
	TokenExpiresAt  time.Time        `json:"-"`
	LastValidation  ValidationStatus `json:"last_validation,omitempty"`
	LastValidatedAt time.Time        `json:"last_validated_at,omitempty"`

	// Norvex (legacy, inline)
	NorvexUserID         string `json:"norvex_user_id,omitempty"`
	NorvexPassword       string `json:"norvex_password,omitempty"`
	NorvexCustomerNumber string `json:"norvex_customer_number,omitempty"`
	NorvexWarehouse      string `json:"norvex_warehouse,omitempty"`
}

// CredentialStore persists per-shop distributor credentials.
type CredentialStore interface {
	// Get returns the shop's credential, or freight.ErrNoCredentials.
	Get(ctx context.Context, shopID string) (*Credential, error)
	// Put inserts or replaces the shop's credential.
	Put(ctx context.Context, cred *Credential) error
}

// MappingStore is the local persisted SKU -> distributor part number
// store, keyed by (shop, SKU).
type MappingStore interface {
	// GetBulk returns the subset of skus that have a stored mapping.
	GetBulk(ctx context.Context, shopID string, skus []string) (map[string]string, error)
	// Upsert writes mappings idempotently.
	Upsert(ctx context.Context, shopID string, mappings map[string]string) error
}

// Catalog is the remote source-of-truth product table, queryable by
// the distributor's vendor-part column.
type Catalog interface {
	// LookupParts returns (sku -> distributor part number) for the skus
	// it knows; unknown skus are simply absent from the result.
	LookupParts(ctx context.Context, skus []string) (map[string]string, error)
}

// ShopSettings holds per-shop presentation and fallback configuration.
type ShopSettings struct {
	ShopID             string                  `json:"shop_id"`
	Currency           string                  `json:"currency"`
	FallbackRateLabel  string                  `json:"fallback_rate_label,omitempty"`
	FallbackRateCharge float64                 `json:"fallback_rate_charge,omitempty"` // zero disables the fallback rate
	Carriers           []freight.CarrierConfig `json:"carriers"`
}

// SettingsStore persists shop settings and carrier configuration.
type SettingsStore interface {
	// Get returns settings for the shop, or defaults if none stored.
	Get(ctx context.Context, shopID string) (*ShopSettings, error)
	Put(ctx context.Context, settings *ShopSettings) error
}

// AuditEntry is one rate request's outcome, kept for troubleshooting.
type AuditEntry struct {
	At            time.Time
	ShopID        string
	Operation     string
	Outcome       string
	StatusCode    int
	CorrelationID string
	Duration      time.Duration
	RequestNote   string // truncated request summary
	ResponseNote  string // truncated response summary
}

// AuditLog is a fire-and-forget append sink. Log must never block or
// panic into the caller's path.
type AuditLog interface {
	Log(entry AuditEntry)
}
