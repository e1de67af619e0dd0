package norvex

import (
	"context"
	"encoding/xml"
)

// APIClient defines the interface for Norvex freight API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetFreightQuote posts a rate-quote document and returns the parsed reply.
	GetFreightQuote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error)
}

// ============================================================================
// XML Request/Response structures for the Norvex legacy API
// ============================================================================

// QuoteRequest is the rate-quote document. Norvex has no token
// exchange; credentials ride inline in the body.
type QuoteRequest struct {
	XMLName        xml.Name    `xml:"FreightQuoteRequest"`
	UserID         string      `xml:"Credentials>UserID"`
	Password       string      `xml:"Credentials>Password"`
	CustomerNumber string      `xml:"CustomerNumber"`
	ShipFrom       string      `xml:"ShipFromWarehouse"`
	ShipTo         ShipTo      `xml:"ShipTo"`
	ServiceLevel   string      `xml:"ServiceLevel,omitempty"`
	ShipMethod     string      `xml:"ShipMethod,omitempty"`
	Items          []QuoteItem `xml:"Items>Item"`
}

// ShipTo is the destination block.
type ShipTo struct {
	Address1   string `xml:"Address1"`
	Address2   string `xml:"Address2,omitempty"`
	City       string `xml:"City"`
	State      string `xml:"State"`
	PostalCode string `xml:"PostalCode"`
	Country    string `xml:"Country"`
}

// QuoteItem is one request line.
type QuoteItem struct {
	SKU       string `xml:"SKU"`
	MfgPartNo string `xml:"ManufacturerPartNumber,omitempty"`
	Quantity  int    `xml:"Quantity"`
}

// QuoteResponse is the parsed rate-quote reply.
type QuoteResponse struct {
	XMLName   xml.Name       `xml:"FreightQuoteResponse"`
	Warehouse string         `xml:"Warehouse"`
	Status    string         `xml:"Status"`
	Error     *ResponseError `xml:"Error"`
	Options   []QuoteOption  `xml:"FreightOptions>Option"`
}

// ResponseError is the error element present on failed replies.
type ResponseError struct {
	Code        string `xml:"Code"`
	Description string `xml:"Description"`
}

// QuoteOption is one carrier option in the reply.
type QuoteOption struct {
	CarrierCode   string  `xml:"CarrierCode"`
	CarrierName   string  `xml:"CarrierName"`
	Method        string  `xml:"Method"`
	Charge        float64 `xml:"Charge"`
	DaysInTransit int     `xml:"DaysInTransit"`
}
