// Package auth manages distributor credentials and the Apex OAuth
// client-credentials token lifecycle.
package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stockbridge/freightgate/internal/store"
	"github.com/stockbridge/freightgate/pkg/freight"
	"github.com/stockbridge/freightgate/pkg/freight/apex"
	"github.com/stockbridge/freightgate/pkg/freight/norvex"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// expiryBuffer is how close to expiry a cached token may be before it
// is refreshed anyway. Avoids handing out tokens that die mid-call.
const expiryBuffer = 60 * time.Second

// Config holds token endpoint configuration.
type Config struct {
	TokenURL        string
	SandboxTokenURL string
	Timeout         time.Duration
}

// Manager resolves shop credentials and keeps Apex access tokens
// fresh. It implements apex.AccountSource and norvex.CredentialSource.
type Manager struct {
	config      Config
	credentials store.CredentialStore
	httpClient  *http.Client
	logger      *otelzap.Logger

	now func() time.Time
}

// NewManager creates a credential/token manager.
func NewManager(cfg Config, credentials store.CredentialStore, logger *otelzap.Logger) *Manager {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Manager{
		config:      cfg,
		credentials: credentials,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
		now:         time.Now,
	}
}

// Account returns the shop's Apex account details.
func (m *Manager) Account(ctx context.Context, shopID string) (*apex.Account, error) {
	cred, err := m.credentials.Get(ctx, shopID)
	if err != nil {
		return nil, err
	}
	return &apex.Account{
		CustomerNumber: cred.CustomerNumber,
		CountryCode:    cred.CountryCode,
		Contact:        cred.Contact,
		SenderID:       cred.SenderID,
	}, nil
}

// NorvexCredential returns the shop's Norvex account.
func (m *Manager) NorvexCredential(ctx context.Context, shopID string) (*norvex.Credential, error) {
	cred, err := m.credentials.Get(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if cred.NorvexUserID == "" {
		return nil, freight.ErrNoCredentials
	}
	return &norvex.Credential{
		UserID:         cred.NorvexUserID,
		Password:       cred.NorvexPassword,
		CustomerNumber: cred.NorvexCustomerNumber,
		Warehouse:      cred.NorvexWarehouse,
	}, nil
}

// BearerToken returns a valid Apex access token, refreshing it when
// expired, within the expiry buffer, or forced. The refreshed token
// and the validation outcome are persisted back to the store.
func (m *Manager) BearerToken(ctx context.Context, shopID string, forceRefresh bool) (string, error) {
	cred, err := m.credentials.Get(ctx, shopID)
	if err != nil {
		return "", err
	}
	if cred.ClientID == "" || cred.ClientSecret == "" {
		return "", freight.ErrNoCredentials
	}

	if !forceRefresh && cred.AccessToken != "" && cred.TokenExpiresAt.After(m.now().Add(expiryBuffer)) {
		return cred.AccessToken, nil
	}

	token, expiresIn, err := m.exchange(ctx, cred)

	cred.LastValidatedAt = m.now()
	if err != nil {
		cred.LastValidation = store.ValidationFailed
		if putErr := m.credentials.Put(ctx, cred); putErr != nil {
			m.logger.Warn("failed to persist credential validation status",
				zap.String("shop_id", shopID), zap.Error(putErr))
		}
		return "", err
	}

	cred.AccessToken = token
	cred.TokenExpiresAt = m.now().Add(time.Duration(expiresIn) * time.Second)
	cred.LastValidation = store.ValidationOK
	if putErr := m.credentials.Put(ctx, cred); putErr != nil {
		// The token is still usable for this request.
		m.logger.Warn("failed to persist refreshed token",
			zap.String("shop_id", shopID), zap.Error(putErr))
	}
	return token, nil
}

// tokenEndpoint picks sandbox or production per the credential flag.
func (m *Manager) tokenEndpoint(cred *store.Credential) string {
	if cred.Sandbox && m.config.SandboxTokenURL != "" {
		return m.config.SandboxTokenURL
	}
	return m.config.TokenURL
}

func (m *Manager) exchange(ctx context.Context, cred *store.Credential) (string, int, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", cred.ClientID)
	form.Set("client_secret", cred.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenEndpoint(cred), strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", 0, &freight.AuthError{Provider: "apex", Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", 0, &freight.AuthError{
			Provider:   "apex",
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", 0, &freight.AuthError{Provider: "apex", StatusCode: resp.StatusCode, Body: "malformed token response"}
	}
	if payload.AccessToken == "" {
		return "", 0, &freight.AuthError{Provider: "apex", StatusCode: resp.StatusCode, Body: "empty access token"}
	}
	if payload.ExpiresIn <= 0 {
		payload.ExpiresIn = 300
	}
	return payload.AccessToken, payload.ExpiresIn, nil
}
