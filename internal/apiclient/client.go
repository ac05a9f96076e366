// Package apiclient talks JSON over HTTPS to the inventory backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id forwarded to the backend.
const RequestIDHeader = "X-Request-ID"

// ErrorHook observes every failed backend call. Hooks run in registration
// order before the error is returned to the caller.
type ErrorHook func(ctx context.Context, err *Error)

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// Client wraps net/http with the backend conventions: bearer credential,
// JSON bodies and the {success, message, data} envelope.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	hooks []ErrorHook
}

// New constructs a Client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// OnError registers a global error hook.
func (c *Client) OnError(hook ErrorHook) {
	if hook == nil {
		return
	}
	c.mu.Lock()
	c.hooks = append(c.hooks, hook)
	c.mu.Unlock()
}

// Fetch performs a GET and decodes the unwrapped payload into out. It is the
// read path used by the resource cache.
func (c *Client) Fetch(ctx context.Context, path string, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	data, err := Unwrap(body)
	if err != nil {
		return fmt.Errorf("apiclient: unwrap %s: %w", path, err)
	}
	return decodeInto(data, out)
}

// Send performs a write call and returns the raw envelope. When out is non
// nil the envelope data is decoded into it.
func (c *Client) Send(ctx context.Context, method, path string, payload any, out any) (*Envelope, error) {
	body, err := c.do(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	env, err := DecodeEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: decode %s %s: %w", method, path, err)
	}
	if out != nil {
		if err := decodeInto(env.Data, out); err != nil {
			return env, fmt.Errorf("apiclient: decode %s %s data: %w", method, path, err)
		}
	}
	return env, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, requestID(ctx))
	if token := CredentialFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(ctx, method, path, &Error{Err: err})
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(ctx, method, path, &Error{Status: resp.StatusCode, Err: err})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fail(ctx, method, path, newStatusError(resp.StatusCode, body))
	}
	return body, nil
}

func (c *Client) fail(ctx context.Context, method, path string, apiErr *Error) error {
	apiErr.Method = method
	apiErr.Path = path

	switch {
	case apiErr.Status == http.StatusForbidden:
		c.logger.Warn("backend access denied", slog.String("method", method), slog.String("path", path))
	case apiErr.Status >= http.StatusInternalServerError:
		c.logger.Error("backend server error", slog.String("method", method), slog.String("path", path), slog.Int("status", apiErr.Status))
	case apiErr.Status == 0:
		c.logger.Warn("backend unreachable", slog.String("method", method), slog.String("path", path), slog.Any("error", apiErr.Err))
	}

	c.mu.RLock()
	hooks := append([]ErrorHook(nil), c.hooks...)
	c.mu.RUnlock()
	for _, hook := range hooks {
		hook(ctx, apiErr)
	}
	return apiErr
}

func decodeInto(data json.RawMessage, out any) error {
	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, out)
}

func requestID(ctx context.Context) string {
	if id := chimw.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
