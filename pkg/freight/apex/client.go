// Package apex provides integration with the Apex distributor freight API.
package apex

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockbridge/freightgate/pkg/freight"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const providerName = "apex"

// Account holds a shop's Apex account details, used to populate the
// vendor headers on every call.
type Account struct {
	CustomerNumber string
	CountryCode    string
	Contact        string
	SenderID       string
}

// AccountSource supplies per-shop account details and valid bearer
// tokens. Implemented by the credential/token manager.
type AccountSource interface {
	Account(ctx context.Context, shopID string) (*Account, error)
	BearerToken(ctx context.Context, shopID string, forceRefresh bool) (string, error)
}

// Config holds Apex configuration.
type Config struct {
	BaseURL string
	UseMock bool // When true, uses mock API client
}

// Client is the Apex freight provider.
// It implements the freight.Provider interface and delegates
// API calls to the underlying APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	accounts  AccountSource
	logger    *otelzap.Logger
}

// New creates a new Apex client.
// If cfg.UseMock is true, it uses a mock API client for testing.
// Otherwise, it uses the real HTTP API client.
func New(cfg Config, accounts AccountSource, logger *otelzap.Logger) *Client {
	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: cfg.BaseURL,
			Timeout: 30 * time.Second,
		})
	}
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		accounts:  accounts,
		logger:    logger,
	}
}

// NewWithAPIClient creates a new Apex client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, accounts AccountSource, logger *otelzap.Logger) *Client {
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		accounts:  accounts,
		logger:    logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return providerName
}

// GetEstimate returns per-warehouse freight quotes from Apex.
func (c *Client) GetEstimate(ctx context.Context, req *freight.EstimateRequest) (*freight.EstimateResponse, error) {
	account, err := c.accounts.Account(ctx, req.ShopID)
	if err != nil {
		return nil, err
	}
	token, err := c.accounts.BearerToken(ctx, req.ShopID, false)
	if err != nil {
		return nil, err
	}

	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	c.logger.Info("Requesting Apex freight estimate",
		zap.String("shop_id", req.ShopID),
		zap.String("correlation_id", correlationID),
		zap.Int("item_count", len(req.Items)),
	)

	auth := RequestAuth{
		BearerToken:    token,
		CustomerNumber: account.CustomerNumber,
		CountryCode:    account.CountryCode,
		CorrelationID:  correlationID,
		Contact:        account.Contact,
		SenderID:       account.SenderID,
	}

	apiResp, err := c.apiClient.GetFreightEstimate(ctx, auth, estimateRequestToAPI(req))
	if err != nil {
		c.logger.Error("Apex API error",
			zap.String("correlation_id", correlationID),
			zap.Error(err),
		)
		return nil, err
	}

	resp := estimateResponseToFreight(apiResp)
	resp.CorrelationID = correlationID
	return resp, nil
}

// ============================================================================
// Conversion helpers: freight models <-> API models
// ============================================================================

func estimateRequestToAPI(req *freight.EstimateRequest) *EstimateRequest {
	items := make([]Item, 0, len(req.Items))
	for _, li := range req.Items {
		id := li.Identifier()
		if id == "" {
			continue
		}
		qty := li.Quantity
		if qty <= 0 {
			qty = 1
		}
		items = append(items, Item{ItemNumber: id, Quantity: qty})
	}
	return &EstimateRequest{
		ShipTo: ShipTo{
			AddressLine1: req.Destination.Line1,
			AddressLine2: req.Destination.Line2,
			City:         req.Destination.City,
			State:        req.Destination.ProvinceCode,
			PostalCode:   req.Destination.PostalCode,
			Country:      req.Destination.CountryCode,
			CompanyName:  req.Destination.Company,
		},
		Items: items,
	}
}

func estimateResponseToFreight(resp *EstimateResponse) *freight.EstimateResponse {
	distributions := make([]freight.Distribution, 0, len(resp.Distributions))
	for _, d := range resp.Distributions {
		carriers := make([]freight.CarrierQuote, 0, len(d.Carriers))
		for _, carrier := range d.Carriers {
			carriers = append(carriers, freight.CarrierQuote{
				CarrierCode:  carrier.Code,
				DisplayLabel: carrier.Description,
				Mode:         mapMode(carrier.Mode),
				Charge:       carrier.Charge,
				TransitDays:  carrier.DaysInTransit,
			})
		}
		distributions = append(distributions, freight.Distribution{
			OriginBranchID: d.WarehouseID,
			Carriers:       carriers,
		})
	}
	return &freight.EstimateResponse{Distributions: distributions}
}

func mapMode(mode string) freight.ShipMode {
	switch mode {
	case "ground", "GROUND":
		return freight.ModeGround
	case "air", "AIR":
		return freight.ModeAir
	case "ltl", "LTL", "freight":
		return freight.ModeLTL
	case "parcel", "PARCEL":
		return freight.ModeParcel
	default:
		return freight.ModeUnknown
	}
}
