package store

import (
	"context"
	"sync"
	"time"

	"github.com/stockbridge/freightgate/pkg/freight"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// MemoryCredentialStore is an in-memory CredentialStore.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	creds map[string]*Credential
}

// NewMemoryCredentialStore creates an empty in-memory credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{creds: make(map[string]*Credential)}
}

// Get returns the shop's credential, or freight.ErrNoCredentials.
func (s *MemoryCredentialStore) Get(ctx context.Context, shopID string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[shopID]
	if !ok {
		return nil, freight.ErrNoCredentials
	}
	cp := *cred
	return &cp, nil
}

// Put inserts or replaces the shop's credential.
func (s *MemoryCredentialStore) Put(ctx context.Context, cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *cred
	s.creds[cred.ShopID] = &cp
	return nil
}

// MemoryMappingStore is an in-memory MappingStore.
type MemoryMappingStore struct {
	mu       sync.RWMutex
	mappings map[string]map[string]string // shopID -> sku -> part

	// FailReads simulates an unavailable local store in tests.
	FailReads error
}

// NewMemoryMappingStore creates an empty in-memory mapping store.
func NewMemoryMappingStore() *MemoryMappingStore {
	return &MemoryMappingStore{mappings: make(map[string]map[string]string)}
}

// GetBulk returns the subset of skus with a stored mapping.
func (s *MemoryMappingStore) GetBulk(ctx context.Context, shopID string, skus []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	result := make(map[string]string)
	shop, ok := s.mappings[shopID]
	if !ok {
		return result, nil
	}
	for _, sku := range skus {
		if part, ok := shop[sku]; ok {
			result[sku] = part
		}
	}
	return result, nil
}

// Upsert writes mappings idempotently.
func (s *MemoryMappingStore) Upsert(ctx context.Context, shopID string, mappings map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	shop, ok := s.mappings[shopID]
	if !ok {
		shop = make(map[string]string)
		s.mappings[shopID] = shop
	}
	for sku, part := range mappings {
		shop[sku] = part
	}
	return nil
}

// MemoryCatalog is an in-memory Catalog for tests and mock mode.
type MemoryCatalog struct {
	mu    sync.RWMutex
	parts map[string]string

	// Err, when set, is returned by every lookup.
	Err error

	calls int
}

// NewMemoryCatalog creates a catalog seeded with the given parts.
func NewMemoryCatalog(parts map[string]string) *MemoryCatalog {
	if parts == nil {
		parts = make(map[string]string)
	}
	return &MemoryCatalog{parts: parts}
}

// LookupParts returns mappings for known skus.
func (c *MemoryCatalog) LookupParts(ctx context.Context, skus []string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.Err != nil {
		return nil, c.Err
	}
	result := make(map[string]string)
	for _, sku := range skus {
		if part, ok := c.parts[sku]; ok {
			result[sku] = part
		}
	}
	return result, nil
}

// Calls returns how many lookups have been made.
func (c *MemoryCatalog) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// MemorySettingsStore is an in-memory SettingsStore.
type MemorySettingsStore struct {
	mu       sync.RWMutex
	settings map[string]*ShopSettings
}

// NewMemorySettingsStore creates an empty in-memory settings store.
func NewMemorySettingsStore() *MemorySettingsStore {
	return &MemorySettingsStore{settings: make(map[string]*ShopSettings)}
}

// Get returns stored settings, or defaults for an unknown shop.
func (s *MemorySettingsStore) Get(ctx context.Context, shopID string) (*ShopSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if stored, ok := s.settings[shopID]; ok {
		cp := *stored
		cp.Carriers = append([]freight.CarrierConfig(nil), stored.Carriers...)
		return &cp, nil
	}
	return &ShopSettings{ShopID: shopID, Currency: "USD"}, nil
}

// Put inserts or replaces the shop's settings.
func (s *MemorySettingsStore) Put(ctx context.Context, settings *ShopSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *settings
	cp.Carriers = append([]freight.CarrierConfig(nil), settings.Carriers...)
	s.settings[settings.ShopID] = &cp
	return nil
}

// AsyncAuditLog drains audit entries on a background goroutine.
// Entries are dropped, not queued unboundedly, when the writer falls
// behind; a dropped audit record must never slow a checkout.
type AsyncAuditLog struct {
	entries chan AuditEntry
	logger  *otelzap.Logger

	mu     sync.Mutex
	stored []AuditEntry
}

// NewAsyncAuditLog creates the log and starts its writer goroutine.
func NewAsyncAuditLog(logger *otelzap.Logger) *AsyncAuditLog {
	l := &AsyncAuditLog{
		entries: make(chan AuditEntry, 256),
		logger:  logger,
	}
	go l.drain()
	return l
}

// Log enqueues an entry without blocking.
func (l *AsyncAuditLog) Log(entry AuditEntry) {
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	select {
	case l.entries <- entry:
	default:
		l.logger.Warn("audit log queue full, dropping entry",
			zap.String("shop_id", entry.ShopID),
			zap.String("operation", entry.Operation),
		)
	}
}

// Recent returns a copy of the retained entries, newest last.
func (l *AsyncAuditLog) Recent() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]AuditEntry(nil), l.stored...)
}

func (l *AsyncAuditLog) drain() {
	for entry := range l.entries {
		l.mu.Lock()
		l.stored = append(l.stored, entry)
		if len(l.stored) > 1000 {
			l.stored = l.stored[len(l.stored)-1000:]
		}
		l.mu.Unlock()
	}
}
