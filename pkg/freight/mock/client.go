// Package mock provides a mock freight provider for testing.
package mock

import (
	"context"

	"github.com/stockbridge/freightgate/pkg/freight"
)

// Client is a mock freight provider for testing.
type Client struct {
	name string

	// OnGetEstimate overrides the default canned response when set.
	OnGetEstimate func(ctx context.Context, req *freight.EstimateRequest) (*freight.EstimateResponse, error)
}

// New creates a new mock provider.
func New(name string) *Client {
	return &Client{name: name}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

// GetEstimate returns canned per-warehouse quotes.
func (c *Client) GetEstimate(ctx context.Context, req *freight.EstimateRequest) (*freight.EstimateResponse, error) {
	if c.OnGetEstimate != nil {
		return c.OnGetEstimate(ctx, req)
	}
	return &freight.EstimateResponse{
		CorrelationID: req.CorrelationID,
		Distributions: []freight.Distribution{
			{
				OriginBranchID: c.name + "-01",
				Carriers: []freight.CarrierQuote{
					{CarrierCode: "UPSG", DisplayLabel: "UPSG", Mode: freight.ModeGround, Charge: 11.50, TransitDays: 3},
					{CarrierCode: "LTL", DisplayLabel: "LTL", Mode: freight.ModeLTL, Charge: 65.00, TransitDays: 5},
				},
			},
		},
	}, nil
}
