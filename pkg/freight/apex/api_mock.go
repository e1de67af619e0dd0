package apex

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/stockbridge/freightgate/pkg/freight"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetFreightEstimate func(ctx context.Context, auth RequestAuth, req *EstimateRequest) (*EstimateResponse, error)

	calls atomic.Int64
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// Calls returns how many estimate calls have been made.
func (m *MockAPIClient) Calls() int64 {
	return m.calls.Load()
}

// GetFreightEstimate returns mock freight quotes.
func (m *MockAPIClient) GetFreightEstimate(ctx context.Context, auth RequestAuth, req *EstimateRequest) (*EstimateResponse, error) {
	m.calls.Add(1)

	if m.SimulateLatency > 0 {
		select {
		case <-time.After(m.SimulateLatency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.SimulateErrors {
		return nil, &freight.APIError{Provider: providerName, StatusCode: 500, Body: "simulated API error"}
	}

	if m.OnGetFreightEstimate != nil {
		return m.OnGetFreightEstimate(ctx, auth, req)
	}

	return &EstimateResponse{
		Distributions: []Distribution{
			{
				WarehouseID: "DAL01",
				Carriers: []Carrier{
					{Code: "UPSG", Description: "UPSG", Mode: "ground", Charge: 14.25, DaysInTransit: 2},
					{Code: "FDXG", Description: "FDXG", Mode: "ground", Charge: 15.10, DaysInTransit: 2},
					{Code: "ODFL", Description: "OLD DOMINION FREIGHT", Mode: "ltl", Charge: 89.00, DaysInTransit: 4},
				},
			},
		},
	}, nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
