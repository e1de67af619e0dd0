// Package server exposes the Shopify carrier-service callback and the
// operator-facing admin endpoints over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stockbridge/freightgate/internal/rates"
	"github.com/stockbridge/freightgate/internal/store"
	"github.com/stockbridge/freightgate/pkg/freight"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Server is the HTTP server for the rate service.
type Server struct {
	port        int
	service     *rates.Service
	settings    store.SettingsStore
	credentials store.CredentialStore
	logger      *otelzap.Logger
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, service *rates.Service, settings store.SettingsStore, credentials store.CredentialStore, logger *otelzap.Logger) *Server {
	return &Server{
		port:        cfg.Port,
		service:     service,
		settings:    settings,
		credentials: credentials,
		logger:      logger,
	}
}

// Handler returns the route table. Split from Run so tests can drive
// it with httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /shopify/rates/{shop}", s.handleShopifyRates)

	mux.HandleFunc("POST /admin/estimate", s.handleAdminEstimate)
	mux.HandleFunc("GET /admin/carriers/{shop}", s.handleGetCarriers)
	mux.HandleFunc("PUT /admin/carriers/{shop}", s.handlePutCarriers)
	mux.HandleFunc("PUT /admin/credentials/{shop}", s.handlePutCredentials)

	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// shopifyRateRequest is the payload Shopify posts to a registered
// carrier service.
type shopifyRateRequest struct {
	Rate struct {
		Destination shopifyAddress    `json:"destination"`
		Items       []shopifyLineItem `json:"items"`
		Currency    string            `json:"currency"`
	} `json:"rate"`
}

type shopifyAddress struct {
	Country     string `json:"country"`
	Province    string `json:"province"`
	PostalCode  string `json:"postal_code"`
	City        string `json:"city"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	CompanyName string `json:"company_name"`
	Phone       string `json:"phone"`
}

type shopifyLineItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// shopifyRate is one entry of the carrier-service reply. Shopify wants
// the price in minor units, serialized as a string.
type shopifyRate struct {
	ServiceName string `json:"service_name"`
	ServiceCode string `json:"service_code"`
	TotalPrice  string `json:"total_price"`
	Currency    string `json:"currency"`
	Description string `json:"description,omitempty"`
}

type shopifyRateResponse struct {
	Rates []shopifyRate `json:"rates"`
}

// handleShopifyRates answers the checkout callback. It always replies
// 200 with a rate list; a non-200 here would break the merchant's
// checkout, which is worse than showing no freight options.
func (s *Server) handleShopifyRates(w http.ResponseWriter, r *http.Request) {
	shopID := r.PathValue("shop")

	var payload shopifyRateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.logger.Warn("Malformed carrier service payload",
			zap.String("shop_id", shopID), zap.Error(err))
		writeJSON(w, http.StatusOK, shopifyRateResponse{Rates: []shopifyRate{}})
		return
	}

	result := s.service.CheckoutRates(r.Context(), shopID, normalizeShopifyRequest(&payload))

	resp := shopifyRateResponse{Rates: make([]shopifyRate, 0, len(result.Rates))}
	for _, rate := range result.Rates {
		resp.Rates = append(resp.Rates, shopifyRate{
			ServiceName: rate.ServiceName,
			ServiceCode: rate.ServiceCode,
			TotalPrice:  fmt.Sprintf("%d", rate.Price),
			Currency:    rate.Currency,
			Description: rate.Description,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// normalizeShopifyRequest maps the webhook payload onto the internal
// request shape.
func normalizeShopifyRequest(payload *shopifyRateRequest) *rates.CheckoutRequest {
	items := make([]rates.CheckoutItem, 0, len(payload.Rate.Items))
	for _, item := range payload.Rate.Items {
		items = append(items, rates.CheckoutItem{SKU: item.SKU, Quantity: item.Quantity})
	}
	dest := payload.Rate.Destination
	return &rates.CheckoutRequest{
		Destination: freight.Address{
			Line1:        dest.Address1,
			Line2:        dest.Address2,
			City:         dest.City,
			ProvinceCode: dest.Province,
			PostalCode:   dest.PostalCode,
			CountryCode:  dest.Country,
			Company:      dest.CompanyName,
			Phone:        dest.Phone,
		},
		Items: items,
	}
}

// Admin endpoints serve trusted operators, so unlike the checkout path
// they surface upstream detail instead of degrading.

type adminEstimateRequest struct {
	ShopID      string         `json:"shop_id"`
	Destination shopifyAddress `json:"destination"`
	Items       []struct {
		SKU      string `json:"sku"`
		Quantity int    `json:"quantity"`
	} `json:"items"`

	// AllProviders asks every registered distributor instead of the
	// active one, for side-by-side comparison.
	AllProviders bool `json:"all_providers,omitempty"`
}

type errorResponse struct {
	Error          string   `json:"error"`
	Detail         string   `json:"detail,omitempty"`
	UpstreamStatus int      `json:"upstream_status,omitempty"`
	UpstreamBody   string   `json:"upstream_body,omitempty"`
	MissingSKUs    []string `json:"missing_skus,omitempty"`
}

func (s *Server) handleAdminEstimate(w http.ResponseWriter, r *http.Request) {
	var req adminEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_json", Detail: err.Error()})
		return
	}
	if req.ShopID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing_shop_id"})
		return
	}

	checkout := &rates.CheckoutRequest{
		Destination: freight.Address{
			Line1:        req.Destination.Address1,
			Line2:        req.Destination.Address2,
			City:         req.Destination.City,
			ProvinceCode: req.Destination.Province,
			PostalCode:   req.Destination.PostalCode,
			CountryCode:  req.Destination.Country,
		},
	}
	for _, item := range req.Items {
		checkout.Items = append(checkout.Items, rates.CheckoutItem{SKU: item.SKU, Quantity: item.Quantity})
	}

	if req.AllProviders {
		comparisons, err := s.service.CompareProviders(r.Context(), req.ShopID, checkout)
		if err != nil {
			s.writeEstimateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"providers": comparisons})
		return
	}

	est, err := s.service.Estimate(r.Context(), req.ShopID, checkout)
	if err != nil {
		s.writeEstimateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func (s *Server) writeEstimateError(w http.ResponseWriter, err error) {
	if missing, ok := freight.IsMappingGap(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "no_mapping", MissingSKUs: missing})
		return
	}
	var authErr *freight.AuthError
	if errors.As(err, &authErr) {
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:          "upstream_auth",
			UpstreamStatus: authErr.StatusCode,
			UpstreamBody:   authErr.Body,
		})
		return
	}
	var apiErr *freight.APIError
	if errors.As(err, &apiErr) {
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:          "upstream_freight",
			UpstreamStatus: apiErr.StatusCode,
			UpstreamBody:   apiErr.Body,
		})
		return
	}
	if errors.Is(err, freight.ErrNoCredentials) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "no_credentials"})
		return
	}
	if errors.Is(err, freight.ErrNoRates) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "no_rates"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Detail: err.Error()})
}

func (s *Server) handleGetCarriers(w http.ResponseWriter, r *http.Request) {
	shopID := r.PathValue("shop")
	settings, err := s.settings.Get(r.Context(), shopID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "settings_unavailable", Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutCarriers(w http.ResponseWriter, r *http.Request) {
	shopID := r.PathValue("shop")

	var settings store.ShopSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_json", Detail: err.Error()})
		return
	}
	settings.ShopID = shopID

	if err := s.settings.Put(r.Context(), &settings); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "settings_write_failed", Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutCredentials(w http.ResponseWriter, r *http.Request) {
	shopID := r.PathValue("shop")

	var cred store.Credential
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_json", Detail: err.Error()})
		return
	}
	cred.ShopID = shopID
	cred.LastValidation = store.ValidationUnknown

	if err := s.credentials.Put(r.Context(), &cred); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "credential_write_failed", Detail: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
