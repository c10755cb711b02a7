package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/rating"
	"github.com/utafrali/storefront/internal/sentiment"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
)

const (
	customerID    = "11111111-1111-4111-8111-111111111111"
	otherUserID   = "22222222-2222-4222-8222-222222222222"
	adminID       = "33333333-3333-4333-8333-333333333333"
	productID     = "550e8400-e29b-41d4-a716-446655440001"
	reviewID      = "660e8400-e29b-41d4-a716-446655440002"
	orderID       = "770e8400-e29b-41d4-a716-446655440003"
	customerToken = "customer-token"
	otherToken    = "other-token"
	adminToken    = "admin-token"
)

// testServer wires the real router and services over mocked repositories.
type testServer struct {
	router   http.Handler
	products *mockProductRepository
	reviews  *mockReviewRepository
	orders   *mockOrderRepository
}

func stubTokenValidator(token string) (*middleware.Claims, error) {
	switch token {
	case customerToken:
		return &middleware.Claims{UserID: customerID, Username: "ayse", Role: "customer"}, nil
	case otherToken:
		return &middleware.Claims{UserID: otherUserID, Username: "mehmet", Role: "customer"}, nil
	case adminToken:
		return &middleware.Claims{UserID: adminID, Username: "admin", Role: middleware.RoleAdmin}, nil
	}
	return nil, errors.New("unknown token")
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	products := new(mockProductRepository)
	reviews := new(mockReviewRepository)
	orders := new(mockOrderRepository)
	producer := event.NewProducer(nil, logger)

	orderSvc := service.NewOrderService(orders, products, producer, logger)
	aggregator := rating.NewAggregator(reviews, products, logger)
	reviewSvc := service.NewReviewService(reviews, products, orderSvc, aggregator, sentiment.NewClassifier(nil), producer, logger)
	productSvc := service.NewProductService(products, reviews, producer, logger)

	router := NewRouter(productSvc, reviewSvc, orderSvc, health.NewHandler(time.Second), RouterConfig{
		TokenValidator: stubTokenValidator,
	}, logger)

	t.Cleanup(func() {
		products.AssertExpectations(t)
		reviews.AssertExpectations(t)
		orders.AssertExpectations(t)
	})

	return &testServer{router: router, products: products, reviews: reviews, orders: orders}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// decodeData unmarshals the envelope's data field into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, code, resp.Error.Code)
}

// =============================================================================
// Router
// =============================================================================

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRouter_AuthenticatedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/products/" + productID + "/reviews"},
		{http.MethodPut, "/api/v1/reviews/" + reviewID},
		{http.MethodDelete, "/api/v1/reviews/" + reviewID},
		{http.MethodPost, "/api/v1/reviews/" + reviewID + "/helpful"},
		{http.MethodPost, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/orders/" + orderID},
		{http.MethodPost, "/api/v1/admin/products"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := s.do(t, rt.method, rt.path, "", nil)
			assertErrorCode(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
		})
	}
}

func TestRouter_InvalidToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/orders", "forged", nil)
	assertErrorCode(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestRouter_AdminRoutesRequireAdminRole(t *testing.T) {
	s := newTestServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/admin/products"},
		{http.MethodPut, "/api/v1/admin/products/" + productID},
		{http.MethodDelete, "/api/v1/admin/products/" + productID},
		{http.MethodPost, "/api/v1/admin/products/bulk-delete"},
		{http.MethodPut, "/api/v1/admin/reviews/" + reviewID + "/moderate"},
		{http.MethodPut, "/api/v1/admin/orders/" + orderID + "/status"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := s.do(t, rt.method, rt.path, customerToken, nil)
			assertErrorCode(t, rec, http.StatusForbidden, "FORBIDDEN")
		})
	}
}

func TestRouter_WritesAreRateLimited(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	products := new(mockProductRepository)
	orders := new(mockOrderRepository)
	producer := event.NewProducer(nil, logger)
	orderSvc := service.NewOrderService(orders, products, producer, logger)

	router := NewRouter(nil, nil, orderSvc, health.NewHandler(time.Second), RouterConfig{
		TokenValidator: stubTokenValidator,
		RateLimiter:    middleware.NewRateLimiter(0.001, 1, time.Minute),
	}, logger)

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(`{"items":[]}`))
		req.Header.Set("Authorization", "Bearer "+customerToken)
		req.RemoteAddr = "203.0.113.7:51000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusBadRequest, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestRouter_CORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}
