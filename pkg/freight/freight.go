// Package freight provides an abstraction layer for wholesale distributor
// freight-estimate APIs and the logic that turns their per-warehouse
// quotes into checkout-ready rates.
package freight

import (
	"context"
)

// Provider defines the interface that all distributor freight APIs
// must implement.
type Provider interface {
	// Name returns the distributor identifier (e.g., "apex", "norvex").
	Name() string

	// GetEstimate returns per-warehouse freight quotes for a cart.
	GetEstimate(ctx context.Context, req *EstimateRequest) (*EstimateResponse, error)
}
