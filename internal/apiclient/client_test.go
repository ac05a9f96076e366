package apiclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/api/v1/", Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
}

func TestFetchAttachesCredentialAndUnwraps(t *testing.T) {
	var gotAuth, gotPath, gotRequestID string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get(RequestIDHeader)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"","data":{"data":[{"id":"1","name":"Tools"}],"meta":{}}}`))
	})

	ctx := WithCredential(context.Background(), "secret-token")
	var out []category
	require.NoError(t, client.Fetch(ctx, "/categories", &out))

	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "/api/v1/categories", gotPath)
	assert.NotEmpty(t, gotRequestID)
	require.Len(t, out, 1)
	assert.Equal(t, "Tools", out[0].Name)
}

func TestFetchWithoutCredentialSendsNoAuthorization(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"success":true,"message":"","data":[]}`))
	})
	var out []category
	require.NoError(t, client.Fetch(context.Background(), "/categories", &out))
	assert.Empty(t, gotAuth)
}

func TestSendDecodesEnvelope(t *testing.T) {
	var gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"message":"Category created","data":{"id":"5","name":"Paint"}}`))
	})

	var created category
	env, err := client.Send(context.Background(), http.MethodPost, "/categories", map[string]string{"name": "Paint"}, &created)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Paint"}`, gotBody)
	assert.Equal(t, "Category created", env.Message)
	assert.Equal(t, "5", created.ID)
}

func TestErrorHooksReceiveStatusErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Unauthenticated."}`))
	})

	var seen []*Error
	client.OnError(func(ctx context.Context, err *Error) { seen = append(seen, err) })

	err := client.Fetch(context.Background(), "/auth/me", nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	require.Len(t, seen, 1)
	assert.Equal(t, "/auth/me", seen[0].Path)
	assert.Equal(t, "Unauthenticated.", seen[0].UserMessage())
}

func TestValidationErrorMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"sku":["The sku has already been taken."]}}`))
	})
	_, err := client.Send(context.Background(), http.MethodPost, "/products", map[string]string{}, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, StatusOf(err))
	assert.Equal(t, "The sku has already been taken.", UserMessage(err, ""))
}

func TestServerErrorUsesGenericMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"SQLSTATE[23000] boom"}`))
	})
	err := client.Fetch(context.Background(), "/products", nil)
	require.Error(t, err)
	assert.True(t, IsServer(err))
	assert.NotContains(t, UserMessage(err, ""), "SQLSTATE")
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(Config{BaseURL: url, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	err := client.Fetch(context.Background(), "/products", nil)
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.False(t, IsNotFound(err))
}
