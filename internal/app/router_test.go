package app_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockroom/internal/testing/webtest"
)

func TestHealthz(t *testing.T) {
	stack := webtest.New(t, webtest.Options{})
	browser := stack.Browser(t)

	res := browser.Get("/healthz")
	require.Equal(t, http.StatusOK, res.Status)
	assert.JSONEq(t, `{"status":"ok"}`, res.Body)

	stack.Redis.Close()
	res = browser.Get("/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, res.Status)
	assert.Contains(t, res.Header.Get("Content-Type"), "application/problem+json")
}

func TestMetricsEndpoint(t *testing.T) {
	stack := webtest.New(t, webtest.Options{})
	browser := stack.Browser(t)
	browser.Get("/login")

	res := browser.Get("/metrics")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, "stockroom_http_requests_total")
	assert.Contains(t, res.Body, "stockroom_workspaces")
}

func TestStaticAssetsAreCached(t *testing.T) {
	stack := webtest.New(t, webtest.Options{})
	browser := stack.Browser(t)

	res := browser.Get("/static/css/app.css")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "public, max-age=3600", res.Header.Get("Cache-Control"))
	assert.Empty(t, res.Header.Get("Set-Cookie"))
}

func TestSecurityHeaders(t *testing.T) {
	stack := webtest.New(t, webtest.Options{})
	browser := stack.Browser(t)

	res := browser.Get("/login")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "DENY", res.Header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", res.Header.Get("X-Content-Type-Options"))
	assert.Contains(t, res.Header.Get("Content-Security-Policy"), "default-src 'self'")
	assert.NotEmpty(t, res.Header.Get("Set-Cookie"))
}
