// Package webtest boots the whole BFF against the fake backend so tests can
// drive it the way a browser does.
package webtest

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockroom/internal/apiclient"
	"github.com/odyssey-erp/stockroom/internal/app"
	"github.com/odyssey-erp/stockroom/internal/auth"
	"github.com/odyssey-erp/stockroom/internal/authgate"
	"github.com/odyssey-erp/stockroom/internal/gateway"
	"github.com/odyssey-erp/stockroom/internal/observability"
	"github.com/odyssey-erp/stockroom/internal/pages"
	"github.com/odyssey-erp/stockroom/internal/platform/cache"
	"github.com/odyssey-erp/stockroom/internal/shared"
	"github.com/odyssey-erp/stockroom/internal/swr"
	_ "github.com/odyssey-erp/stockroom/internal/testing/guard"
	"github.com/odyssey-erp/stockroom/internal/testing/backend"
	"github.com/odyssey-erp/stockroom/internal/view"
	"github.com/odyssey-erp/stockroom/internal/web"
)

// Options tunes the stack.
type Options struct {
	SearchWindow   time.Duration
	DedupeInterval time.Duration
}

// Stack is a running BFF wired to a fake backend and an in-memory redis.
type Stack struct {
	Backend *backend.Server
	Redis   *miniredis.Miniredis
	Spaces  *pages.Workspaces
	Metrics *observability.Metrics
	Server  *httptest.Server
}

// New starts a stack that is torn down with the test.
func New(t testing.TB, opts Options) *Stack {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	be := backend.New(t)
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	cfg := &app.Config{
		AppEnv:             "test",
		AppRequestTimeout:  5 * time.Second,
		RateLimitPerMinute: 10000,
		APIBaseURL:         be.URL(),
	}
	sessions := shared.NewSessionManager(redisClient, "stockroom_session", "session-secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")

	metrics := observability.NewMetrics()
	cacheMetrics, err := swr.NewMetrics(metrics.Registerer())
	require.NoError(t, err)

	client := apiclient.New(apiclient.Config{BaseURL: be.URL(), Timeout: 5 * time.Second, Logger: logger})
	spaces := pages.NewWorkspaces(client, pages.WorkspaceConfig{
		DedupeInterval: opts.DedupeInterval,
		SearchWindow:   opts.SearchWindow,
		Metrics:        cacheMetrics,
		Logger:         logger,
		OnCount:        metrics.SetWorkspaces,
	})
	gate := authgate.New(logger, spaces)
	client.OnError(gate.CredentialHook())

	gw := gateway.New(client)
	svc := pages.NewService(logger, spaces, gw, shared.NewSubmissionGuard(redisClient, time.Minute))

	templates, err := view.NewEngine()
	require.NoError(t, err)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessions,
		CSRFManager:    csrf,
		AuthHandler:    auth.NewHandler(logger, auth.NewService(gw), templates, sessions, csrf, gate),
		WebHandler:     web.NewHandler(logger, templates, csrf, gate, svc),
		Metrics:        metrics,
		Health: func(r *http.Request) error {
			return cache.Ping(r.Context(), redisClient)
		},
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &Stack{Backend: be, Redis: mr, Spaces: spaces, Metrics: metrics, Server: srv}
}

// Response is a captured reply. Redirects are never followed.
type Response struct {
	Status   int
	Location string
	Header   http.Header
	Body     string
}

// Browser keeps cookies and the latest CSRF token between requests.
type Browser struct {
	t      testing.TB
	base   string
	client *http.Client
	csrf   string
}

var csrfMeta = regexp.MustCompile(`<meta name="csrf-token" content="([^"]*)">`)

// Browser returns a fresh visitor with an empty cookie jar.
func (s *Stack) Browser(t testing.TB) *Browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &Browser{
		t:    t,
		base: s.Server.URL,
		client: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Get fetches path and remembers the page's CSRF token.
func (b *Browser) Get(path string) Response {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

// Post submits values as a form, adding the CSRF token. A token is fetched
// from the login page first when none is known yet.
func (b *Browser) Post(path string, values url.Values) Response {
	b.t.Helper()
	if b.csrf == "" {
		b.Get(authgate.LoginPath)
	}
	form := url.Values{}
	for k, v := range values {
		form[k] = v
	}
	if form.Get(shared.CSRFFormField) == "" {
		form.Set(shared.CSRFFormField, b.csrf)
	}
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// Login signs in through the form and refreshes the CSRF token.
func (b *Browser) Login(email, password string) Response {
	b.t.Helper()
	res := b.Post(authgate.LoginPath, url.Values{"email": {email}, "password": {password}})
	if res.Status == http.StatusSeeOther {
		b.Get(res.Location)
	}
	return res
}

// CSRF returns the last token seen.
func (b *Browser) CSRF() string { return b.csrf }

func (b *Browser) do(req *http.Request) Response {
	b.t.Helper()
	res, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(b.t, err)
	if m := csrfMeta.FindSubmatch(body); m != nil {
		b.csrf = string(m[1])
	}
	return Response{
		Status:   res.StatusCode,
		Location: res.Header.Get("Location"),
		Header:   res.Header,
		Body:     string(body),
	}
}
