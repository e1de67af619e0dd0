package apex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stockbridge/freightgate/pkg/freight"
)

// maxErrorBody bounds how much of an upstream error body is retained
// for diagnostics.
const maxErrorBody = 4096

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL    string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPAPIClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetFreightEstimate fetches freight quotes from the Apex API.
// POST /freight/estimates
func (c *HTTPAPIClient) GetFreightEstimate(ctx context.Context, auth RequestAuth, req *EstimateRequest) (*EstimateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal estimate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/freight/estimates", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+auth.BearerToken)
	httpReq.Header.Set("X-Customer-Number", auth.CustomerNumber)
	httpReq.Header.Set("X-Country-Code", auth.CountryCode)
	httpReq.Header.Set("X-Correlation-Id", auth.CorrelationID)
	httpReq.Header.Set("X-Contact", auth.Contact)
	if auth.SenderID != "" {
		httpReq.Header.Set("X-Sender-Id", auth.SenderID)
	}
	httpReq.Header.Set("User-Agent", "freightgate/1.0")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &freight.APIError{Provider: providerName, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result EstimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode estimate response: %w", err)
	}

	if result.Error != nil {
		return nil, &freight.APIError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       fmt.Sprintf("%s: %s", result.Error.Code, result.Error.Message),
		}
	}

	return &result, nil
}

// parseError builds a typed error carrying the upstream status and a
// truncated copy of the body.
func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &freight.APIError{
		Provider:   providerName,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
