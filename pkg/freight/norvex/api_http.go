package norvex

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stockbridge/freightgate/pkg/freight"
)

const maxErrorBody = 4096

// HTTPAPIClient is the production implementation of APIClient using
// HTTP with XML document bodies.
type HTTPAPIClient struct {
	endpointURL string
	httpClient  *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	EndpointURL string
	Timeout     time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPAPIClient{
		endpointURL: cfg.EndpointURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetFreightQuote posts the quote document and parses the XML reply.
func (c *HTTPAPIClient) GetFreightQuote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	doc, err := xml.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal quote request: %w", err)
	}
	body := append([]byte(xml.Header), doc...)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("User-Agent", "freightgate/1.0")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &freight.APIError{Provider: providerName, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &freight.APIError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote response: %w", err)
	}

	var result QuoteResponse
	if err := xml.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse quote response: %w", err)
	}

	if result.Error != nil {
		return nil, &freight.APIError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       fmt.Sprintf("%s: %s", result.Error.Code, result.Error.Description),
		}
	}

	return &result, nil
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
