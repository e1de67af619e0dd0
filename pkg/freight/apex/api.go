package apex

import (
	"context"
)

// APIClient defines the interface for Apex freight API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetFreightEstimate fetches per-warehouse freight quotes.
	GetFreightEstimate(ctx context.Context, auth RequestAuth, req *EstimateRequest) (*EstimateResponse, error)
}

// RequestAuth carries the per-request authentication material and the
// vendor-specific header values Apex requires.
type RequestAuth struct {
	BearerToken    string
	CustomerNumber string
	CountryCode    string
	CorrelationID  string
	Contact        string
	SenderID       string // optional
}

// ============================================================================
// API Request/Response Types (match Apex freight REST API structure)
// ============================================================================

// EstimateRequest represents an Apex freight estimate request.
// POST /freight/estimates endpoint
type EstimateRequest struct {
	ShipTo ShipTo `json:"shipTo"`
	Items  []Item `json:"items"`
}

// ShipTo is the destination address block.
type ShipTo struct {
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
	CompanyName  string `json:"companyName,omitempty"`
}

// Item is one request line.
type Item struct {
	ItemNumber string `json:"itemNumber"`
	Quantity   int    `json:"quantity"`
}

// EstimateResponse represents the Apex freight estimate response.
type EstimateResponse struct {
	Distributions []Distribution `json:"distributions"`
	Error         *ErrorBlock    `json:"error,omitempty"`
}

// Distribution is one warehouse's quote set.
type Distribution struct {
	WarehouseID string    `json:"warehouseId"`
	Carriers    []Carrier `json:"carriers"`
}

// Carrier is one carrier option within a distribution.
type Carrier struct {
	Code          string  `json:"code"`
	Description   string  `json:"description"`
	Mode          string  `json:"mode,omitempty"`
	Charge        float64 `json:"charge"`
	DaysInTransit int     `json:"daysInTransit"`
}

// ErrorBlock is the optional error element Apex embeds in otherwise
// well-formed responses.
type ErrorBlock struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
