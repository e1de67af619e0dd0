package norvex

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

	OnGetFreightQuote func(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error)

	calls atomic.Int64
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// Calls returns how many quote calls have been made.
func (m *MockAPIClient) Calls() int64 {
	return m.calls.Load()
}

// GetFreightQuote returns mock freight quotes.
func (m *MockAPIClient) GetFreightQuote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error) {
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

	if m.OnGetFreightQuote != nil {
		return m.OnGetFreightQuote(ctx, req)
	}

	warehouse := req.ShipFrom
	if warehouse == "" {
		warehouse = "NVX-MAIN"
	}

	return &QuoteResponse{
		Warehouse: warehouse,
		Status:    "OK",
		Options: []QuoteOption{
			{CarrierCode: "UPSG", CarrierName: "UPSG", Method: "ground", Charge: 12.80, DaysInTransit: 3},
			{CarrierCode: "SAIA", CarrierName: "SAIA MOTOR FREIGHT", Method: "ltl", Charge: 74.35, DaysInTransit: 5},
		},
	}, nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
