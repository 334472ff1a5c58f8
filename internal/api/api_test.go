// Package api_test provides behavior tests for the API package.
package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxdns/fluxdns/internal/api"
	"github.com/fluxdns/fluxdns/internal/api/authsvc"
	"github.com/fluxdns/fluxdns/internal/api/handlers"
	"github.com/fluxdns/fluxdns/internal/api/models"
	"github.com/fluxdns/fluxdns/internal/config"
)

func createTestConfig() *config.Config {
	return &config.Config{
		WebPort:     8080,
		DatabaseURL: "test.db",
	}
}

func newTestHandler() *handlers.Handler {
	auth := authsvc.New("admin", "hunter2", []byte("test-secret"))
	return handlers.New(nil, nil, nil, nil, nil, nil, auth, nil)
}

func performRequest(r http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNew_CreatesServer(t *testing.T) {
	server := api.New(createTestConfig(), newTestHandler(), nil)

	assert.NotNil(t, server)
}

func TestNew_PanicsOnNilConfig(t *testing.T) {
	assert.Panics(t, func() {
		api.New(nil, newTestHandler(), nil)
	})
}

func TestServer_Addr(t *testing.T) {
	cfg := createTestConfig()
	cfg.WebPort = 9090

	server := api.New(cfg, newTestHandler(), nil)

	assert.Equal(t, ":9090", server.Addr())
}

func TestServer_Engine(t *testing.T) {
	server := api.New(createTestConfig(), newTestHandler(), nil)

	assert.NotNil(t, server.Engine())
}

func TestRoutes_HealthEndpoint(t *testing.T) {
	server := api.New(createTestConfig(), newTestHandler(), nil)

	w := performRequest(server.Engine(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.StatusResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
}

func TestRoutes_StatsRequiresAuth(t *testing.T) {
	server := api.New(createTestConfig(), newTestHandler(), nil)

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/stats", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutes_LoginThenStats(t *testing.T) {
	server := api.New(createTestConfig(), newTestHandler(), nil)

	loginBody := `{"username":"admin","password":"hunter2"}`
	w := performRequest(server.Engine(), http.MethodPost, "/api/v1/auth/login", loginBody)
	require.Equal(t, http.StatusOK, w.Code)

	var login models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.NotEmpty(t, login.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w = httptest.NewRecorder()
	server.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats models.ServerStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.NotEmpty(t, stats.Uptime)
}

func TestRoutes_LoginRejectsBadCredentials(t *testing.T) {
	server := api.New(createTestConfig(), newTestHandler(), nil)

	w := performRequest(server.Engine(), http.MethodPost, "/api/v1/auth/login", `{"username":"admin","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServer_Shutdown(t *testing.T) {
	cfg := createTestConfig()
	cfg.WebPort = 0

	server := api.New(cfg, newTestHandler(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := server.Shutdown(ctx)
	assert.NoError(t, err)
}

func TestRoutes_SwaggerEndpoint(t *testing.T) {
	server := api.New(createTestConfig(), newTestHandler(), nil)

	w := performRequest(server.Engine(), http.MethodGet, "/swagger/index.html", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_NotFound(t *testing.T) {
	server := api.New(createTestConfig(), newTestHandler(), nil)

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/nonexistent", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
