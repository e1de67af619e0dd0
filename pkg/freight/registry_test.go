package freight_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stockbridge/freightgate/pkg/freight"
	"github.com/stockbridge/freightgate/pkg/freight/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	registry := freight.NewRegistry()

	registry.Register(mock.New("apex"))

	got, err := registry.Get("apex")
	require.NoError(t, err, "provider should be registered")
	assert.Equal(t, "apex", got.Name())
}

func TestRegistry_Get_NotFound(t *testing.T) {
	registry := freight.NewRegistry()

	_, err := registry.Get("nonexistent")
	assert.True(t, errors.Is(err, freight.ErrProviderNotFound))
}

func TestRegistry_Names(t *testing.T) {
	registry := freight.NewRegistry()

	registry.Register(mock.New("apex"))
	registry.Register(mock.New("norvex"))

	names := registry.Names()
	assert.Len(t, names, 2)
	assert.Contains(t, names, "apex")
	assert.Contains(t, names, "norvex")
	assert.Equal(t, 2, registry.Count())
}

func TestRegistry_EstimateAll(t *testing.T) {
	registry := freight.NewRegistry()
	registry.Register(mock.New("apex"))
	registry.Register(mock.New("norvex"))

	results, errs := registry.EstimateAll(context.Background(), &freight.EstimateRequest{ShopID: "demo"})

	assert.Empty(t, errs)
	assert.Len(t, results, 2)
	for name, resp := range results {
		assert.NotEmpty(t, resp.Distributions, "provider %s", name)
	}
}

func TestRegistry_EstimateAll_CollectsErrors(t *testing.T) {
	failing := mock.New("apex")
	failing.OnGetEstimate = func(ctx context.Context, req *freight.EstimateRequest) (*freight.EstimateResponse, error) {
		return nil, &freight.APIError{Provider: "apex", StatusCode: 503, Body: "down"}
	}

	registry := freight.NewRegistry()
	registry.Register(failing)
	registry.Register(mock.New("norvex"))

	results, errs := registry.EstimateAll(context.Background(), &freight.EstimateRequest{ShopID: "demo"})

	assert.Len(t, results, 1)
	require.Len(t, errs, 1)
	var apiErr *freight.APIError
	assert.True(t, errors.As(errs["apex"], &apiErr))
}
