package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/radz2291/RZ-Property/internal/config"
)

func testRouterConfig() *config.Config {
	return &config.Config{
		JwtSecret:               "test-secret",
		CORSAllowedOrigins:      []string{"*"},
		CaptchaTokenTTL:         time.Minute,
		RateLimitSoftBucketSize: 3,
		RateLimitSoftRefillRate: 1,
		RateLimitHardBucketSize: 10,
		RateLimitHardRefillRate: 2,
	}
}

func TestSetupRouter_AdminRoutesRequireToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := SetupRouter(testRouterConfig(), Dependencies{})

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/v1/admin/properties"},
		{http.MethodPost, "/v1/admin/properties"},
		{http.MethodDelete, "/v1/admin/inquiries/0000000000"},
		{http.MethodPut, "/v1/admin/content/hero"},
		{http.MethodGet, "/v1/admin/analytics"},
		{http.MethodPost, "/v1/admin/storage/ensure"},
	} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(route.method, route.path, nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestSetupRouter_Ping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := SetupRouter(testRouterConfig(), Dependencies{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/ping", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestSetupServiceRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	shutdown := make(chan struct{}, 1)
	r := SetupServiceRouter(testRouterConfig(), nil, shutdown)

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusNotFound, post(`{"method":"reboot"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"method":"getTestEmail","arguments":["inquiry_notification"]}`).Code)
	assert.Equal(t, http.StatusServiceUnavailable, post(`{"method":"getTestEmail","arguments":["inquiry_notification","agent@example.com"]}`).Code)

	assert.Equal(t, http.StatusOK, post(`{"method":"shutdown"}`).Code)
	select {
	case <-shutdown:
	default:
		t.Fatal("shutdown was not signalled")
	}
	// A second request must not block on the full channel.
	assert.Equal(t, http.StatusOK, post(`{"method":"shutdown"}`).Code)
}
