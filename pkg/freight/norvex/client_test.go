package norvex_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stockbridge/freightgate/pkg/freight"
	"github.com/stockbridge/freightgate/pkg/freight/norvex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type stubCredentials struct {
	cred *norvex.Credential
	err  error
}

func (s *stubCredentials) NorvexCredential(ctx context.Context, shopID string) (*norvex.Credential, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.cred, nil
}

func testLogger() *otelzap.Logger {
	return otelzap.New(zap.NewNop())
}

func testCredentials() *stubCredentials {
	return &stubCredentials{cred: &norvex.Credential{
		UserID:         "shopuser",
		Password:       "secret",
		CustomerNumber: "C-9987",
		Warehouse:      "NVX-EAST",
	}}
}

func TestClient_Name(t *testing.T) {
	c := norvex.NewWithAPIClient(norvex.Config{}, norvex.NewMockAPIClient(), testCredentials(), testLogger())
	assert.Equal(t, "norvex", c.Name())
}

func TestClient_GetEstimate_SingleDistribution(t *testing.T) {
	mock := norvex.NewMockAPIClient()
	c := norvex.NewWithAPIClient(norvex.Config{}, mock, testCredentials(), testLogger())

	resp, err := c.GetEstimate(context.Background(), &freight.EstimateRequest{
		ShopID: "demo-shop",
		Destination: freight.Address{
			Line1:       "12 Dock Rd",
			City:        "Newark",
			PostalCode:  "07102",
			CountryCode: "US",
		},
		Items: []freight.LineItem{{SKU: "WID-9", PartNumber: "NVX-553", Quantity: 4}},
	})

	require.NoError(t, err)
	require.Len(t, resp.Distributions, 1, "legacy API quotes one warehouse per call")
	assert.Equal(t, "NVX-EAST", resp.Distributions[0].OriginBranchID)
	assert.Equal(t, int64(1), mock.Calls())
}

func TestClient_GetEstimate_CredentialsInBody(t *testing.T) {
	mock := norvex.NewMockAPIClient()
	var gotReq *norvex.QuoteRequest
	mock.OnGetFreightQuote = func(ctx context.Context, req *norvex.QuoteRequest) (*norvex.QuoteResponse, error) {
		gotReq = req
		return &norvex.QuoteResponse{Warehouse: req.ShipFrom, Status: "OK"}, nil
	}

	c := norvex.NewWithAPIClient(norvex.Config{}, mock, testCredentials(), testLogger())
	_, err := c.GetEstimate(context.Background(), &freight.EstimateRequest{
		ShopID: "demo-shop",
		Items:  []freight.LineItem{{SKU: "WID-9", Quantity: 0}},
	})

	require.NoError(t, err)
	assert.Equal(t, "shopuser", gotReq.UserID)
	assert.Equal(t, "secret", gotReq.Password)
	assert.Equal(t, "C-9987", gotReq.CustomerNumber)
	assert.Equal(t, "NVX-EAST", gotReq.ShipFrom)
	require.Len(t, gotReq.Items, 1)
	assert.Equal(t, 1, gotReq.Items[0].Quantity, "quantity coerced to 1")
}

func TestClient_GetEstimate_APIError(t *testing.T) {
	mock := norvex.NewMockAPIClient()
	mock.SimulateErrors = true

	c := norvex.NewWithAPIClient(norvex.Config{}, mock, testCredentials(), testLogger())
	_, err := c.GetEstimate(context.Background(), &freight.EstimateRequest{ShopID: "demo-shop"})

	var apiErr *freight.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "norvex", apiErr.Provider)
}

func TestClient_GetEstimate_NoCredentials(t *testing.T) {
	c := norvex.NewWithAPIClient(norvex.Config{}, norvex.NewMockAPIClient(), &stubCredentials{err: freight.ErrNoCredentials}, testLogger())

	_, err := c.GetEstimate(context.Background(), &freight.EstimateRequest{ShopID: "demo-shop"})
	assert.True(t, errors.Is(err, freight.ErrNoCredentials))
}
