package apex_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stockbridge/freightgate/pkg/freight"
	"github.com/stockbridge/freightgate/pkg/freight/apex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type stubAccounts struct {
	account *apex.Account
	token   string
	err     error
}

func (s *stubAccounts) Account(ctx context.Context, shopID string) (*apex.Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.account, nil
}

func (s *stubAccounts) BearerToken(ctx context.Context, shopID string, forceRefresh bool) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

func testLogger() *otelzap.Logger {
	return otelzap.New(zap.NewNop())
}

func testAccounts() *stubAccounts {
	return &stubAccounts{
		account: &apex.Account{
			CustomerNumber: "123456",
			CountryCode:    "US",
			Contact:        "ops@example.com",
		},
		token: "test-token",
	}
}

func TestClient_Name(t *testing.T) {
	c := apex.NewWithAPIClient(apex.Config{}, apex.NewMockAPIClient(), testAccounts(), testLogger())
	assert.Equal(t, "apex", c.Name())
}

func TestClient_GetEstimate(t *testing.T) {
	mock := apex.NewMockAPIClient()
	c := apex.NewWithAPIClient(apex.Config{}, mock, testAccounts(), testLogger())

	resp, err := c.GetEstimate(context.Background(), &freight.EstimateRequest{
		ShopID: "demo-shop",
		Destination: freight.Address{
			Line1:        "400 Industrial Pkwy",
			City:         "Austin",
			ProvinceCode: "TX",
			PostalCode:   "78701",
			CountryCode:  "US",
		},
		Items: []freight.LineItem{
			{PartNumber: "APX-1001", Quantity: 2},
		},
	})

	require.NoError(t, err)
	require.Len(t, resp.Distributions, 1)
	assert.Equal(t, "DAL01", resp.Distributions[0].OriginBranchID)
	assert.NotEmpty(t, resp.Distributions[0].Carriers)
	assert.NotEmpty(t, resp.CorrelationID, "a correlation id is generated when absent")
	assert.Equal(t, int64(1), mock.Calls())
}

func TestClient_GetEstimate_AuthPassedThrough(t *testing.T) {
	mock := apex.NewMockAPIClient()
	var gotAuth apex.RequestAuth
	var gotReq *apex.EstimateRequest
	mock.OnGetFreightEstimate = func(ctx context.Context, auth apex.RequestAuth, req *apex.EstimateRequest) (*apex.EstimateResponse, error) {
		gotAuth = auth
		gotReq = req
		return &apex.EstimateResponse{}, nil
	}

	c := apex.NewWithAPIClient(apex.Config{}, mock, testAccounts(), testLogger())
	_, err := c.GetEstimate(context.Background(), &freight.EstimateRequest{
		ShopID:        "demo-shop",
		CorrelationID: "corr-1",
		Items: []freight.LineItem{
			{SKU: "WID-9", Quantity: 0},  // quantity coerced to 1
			{Quantity: 3},                // no identifier, dropped
			{ItemNumber: "IT-2", Quantity: 5},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "test-token", gotAuth.BearerToken)
	assert.Equal(t, "123456", gotAuth.CustomerNumber)
	assert.Equal(t, "corr-1", gotAuth.CorrelationID)
	require.Len(t, gotReq.Items, 2)
	assert.Equal(t, apex.Item{ItemNumber: "WID-9", Quantity: 1}, gotReq.Items[0])
	assert.Equal(t, apex.Item{ItemNumber: "IT-2", Quantity: 5}, gotReq.Items[1])
}

func TestClient_GetEstimate_APIError(t *testing.T) {
	mock := apex.NewMockAPIClient()
	mock.SimulateErrors = true

	c := apex.NewWithAPIClient(apex.Config{}, mock, testAccounts(), testLogger())
	_, err := c.GetEstimate(context.Background(), &freight.EstimateRequest{ShopID: "demo-shop"})

	var apiErr *freight.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Equal(t, "apex", apiErr.Provider)
}

func TestClient_GetEstimate_CredentialError(t *testing.T) {
	accounts := &stubAccounts{err: freight.ErrNoCredentials}
	c := apex.NewWithAPIClient(apex.Config{}, apex.NewMockAPIClient(), accounts, testLogger())

	_, err := c.GetEstimate(context.Background(), &freight.EstimateRequest{ShopID: "demo-shop"})
	assert.True(t, errors.Is(err, freight.ErrNoCredentials))
}
