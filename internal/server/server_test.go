package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"eventix/internal/booking"
	"eventix/internal/config"
	"eventix/internal/event"
	"eventix/internal/settlement"
	"eventix/internal/user"
	"eventix/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestServer() *Server {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Port: "0", JWTSecret: "test-secret", CORSOrigins: []string{"*"}}
	return New(cfg, Handlers{
		Users:      user.NewHandler(nil),
		Events:     event.NewHandler(nil),
		Wallet:     wallet.NewHandler(nil),
		Bookings:   booking.NewHandler(nil),
		Sales:      booking.NewSalesHandler(nil),
		Settlement: settlement.NewHandler(nil),
	})
}

func TestServer_SystemRoutes(t *testing.T) {
	router := newTestServer().Router()

	w := get(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = get(router, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "eventix_http_requests_total")
}

func TestServer_ProtectedRoutesRequireToken(t *testing.T) {
	router := newTestServer().Router()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodPost, "/api/v1/events"},
		{http.MethodDelete, "/api/v1/events/1"},
		{http.MethodGet, "/api/v1/wallet"},
		{http.MethodPost, "/api/v1/wallet/refund"},
		{http.MethodGet, "/api/v1/wallet/reconciliation"},
		{http.MethodGet, "/api/v1/ticketing"},
		{http.MethodPost, "/api/v1/ticketing"},
		{http.MethodPut, "/api/v1/ticketing/1"},
		{http.MethodGet, "/api/v1/ticketing/1/ticket"},
		{http.MethodGet, "/api/v1/reports/sales"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"success":false`)
		})
	}
}

func TestServer_AdminRoutesRejectMembers(t *testing.T) {
	router := newTestServer().Router()
	token := bearer(t, "member")

	for _, path := range []string{"/api/v1/wallet/reconciliation", "/api/v1/reports/sales"} {
		w := get(router, path, "Authorization", token)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
}

func TestServer_MemberOnlyBooking(t *testing.T) {
	router := newTestServer().Router()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ticketing", nil)
	req.Header.Set("Authorization", bearer(t, "admin"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
