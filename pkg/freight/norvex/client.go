// Package norvex provides integration with the Norvex distributor's
// legacy XML freight API.
package norvex

import (
	"context"
	"time"

	"github.com/stockbridge/freightgate/pkg/freight"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const providerName = "norvex"

// Credential holds a shop's Norvex account. The legacy API has no
// token exchange; these fields are embedded in each request document.
type Credential struct {
	UserID         string
	Password       string
	CustomerNumber string
	Warehouse      string // default ship-from warehouse
}

// CredentialSource supplies per-shop Norvex credentials.
type CredentialSource interface {
	NorvexCredential(ctx context.Context, shopID string) (*Credential, error)
}

// Config holds Norvex configuration.
type Config struct {
	EndpointURL string
	UseMock     bool // When true, uses mock API client
}

// Client is the Norvex freight provider.
// It implements the freight.Provider interface and delegates
// API calls to the underlying APIClient (mock or HTTP).
type Client struct {
	config      Config
	apiClient   APIClient
	credentials CredentialSource
	logger      *otelzap.Logger
}

// New creates a new Norvex client.
// If cfg.UseMock is true, it uses a mock API client for testing.
// Otherwise, it uses the real HTTP API client.
func New(cfg Config, credentials CredentialSource, logger *otelzap.Logger) *Client {
	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			EndpointURL: cfg.EndpointURL,
			Timeout:     30 * time.Second,
		})
	}
	return &Client{
		config:      cfg,
		apiClient:   apiClient,
		credentials: credentials,
		logger:      logger,
	}
}

// NewWithAPIClient creates a new Norvex client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, credentials CredentialSource, logger *otelzap.Logger) *Client {
	return &Client{
		config:      cfg,
		apiClient:   apiClient,
		credentials: credentials,
		logger:      logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return providerName
}

// GetEstimate returns freight quotes from Norvex. The legacy API
// quotes from a single ship-from warehouse, so the response carries
// exactly one distribution.
func (c *Client) GetEstimate(ctx context.Context, req *freight.EstimateRequest) (*freight.EstimateResponse, error) {
	cred, err := c.credentials.NorvexCredential(ctx, req.ShopID)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Requesting Norvex freight quote",
		zap.String("shop_id", req.ShopID),
		zap.String("warehouse", cred.Warehouse),
		zap.Int("item_count", len(req.Items)),
	)

	apiResp, err := c.apiClient.GetFreightQuote(ctx, quoteRequestToAPI(req, cred))
	if err != nil {
		c.logger.Error("Norvex API error",
			zap.String("shop_id", req.ShopID),
			zap.Error(err),
		)
		return nil, err
	}

	resp := quoteResponseToFreight(apiResp)
	resp.CorrelationID = req.CorrelationID
	return resp, nil
}

// ============================================================================
// Conversion helpers: freight models <-> API models
// ============================================================================

func quoteRequestToAPI(req *freight.EstimateRequest, cred *Credential) *QuoteRequest {
	items := make([]QuoteItem, 0, len(req.Items))
	for _, li := range req.Items {
		if li.Identifier() == "" {
			continue
		}
		qty := li.Quantity
		if qty <= 0 {
			qty = 1
		}
		items = append(items, QuoteItem{
			SKU:       li.SKU,
			MfgPartNo: li.PartNumber,
			Quantity:  qty,
		})
	}
	return &QuoteRequest{
		UserID:         cred.UserID,
		Password:       cred.Password,
		CustomerNumber: cred.CustomerNumber,
		ShipFrom:       cred.Warehouse,
		ShipTo: ShipTo{
			Address1:   req.Destination.Line1,
			Address2:   req.Destination.Line2,
			City:       req.Destination.City,
			State:      req.Destination.ProvinceCode,
			PostalCode: req.Destination.PostalCode,
			Country:    req.Destination.CountryCode,
		},
		ServiceLevel: req.ServiceLevel,
		Items:        items,
	}
}

func quoteResponseToFreight(resp *QuoteResponse) *freight.EstimateResponse {
	carriers := make([]freight.CarrierQuote, 0, len(resp.Options))
	for _, opt := range resp.Options {
		carriers = append(carriers, freight.CarrierQuote{
			CarrierCode:  opt.CarrierCode,
			DisplayLabel: opt.CarrierName,
			Mode:         mapMethod(opt.Method),
			Charge:       opt.Charge,
			TransitDays:  opt.DaysInTransit,
		})
	}
	return &freight.EstimateResponse{
		Distributions: []freight.Distribution{{
			OriginBranchID: resp.Warehouse,
			Carriers:       carriers,
		}},
	}
}

func mapMethod(method string) freight.ShipMode {
	switch method {
	case "ground", "GROUND":
		return freight.ModeGround
	case "air", "AIR":
		return freight.ModeAir
	case "ltl", "LTL":
		return freight.ModeLTL
	case "parcel", "PARCEL":
		return freight.ModeParcel
	default:
		return freight.ModeUnknown
	}
}
