package authgate

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/odyssey-erp/stockroom/internal/apiclient"
	"github.com/odyssey-erp/stockroom/internal/domain"
	"github.com/odyssey-erp/stockroom/internal/shared"
)

// CacheDropper forgets the cached entities of one session.
type CacheDropper interface {
	Drop(sessionID string)
}

// Gate applies the route policy to incoming requests.
type Gate struct {
	logger *slog.Logger
	caches CacheDropper
	now    func() time.Time
}

// Option customises a Gate.
type Option func(*Gate)

// WithClock overrides the time used to judge credential expiry.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// New constructs a Gate. caches may be nil.
func New(logger *slog.Logger, caches CacheDropper, opts ...Option) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gate{logger: logger, caches: caches, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type stateContextKey struct{}

// WithState stores the resolved state in ctx and attaches its credential to
// backend calls made with ctx.
func WithState(ctx context.Context, state State) context.Context {
	ctx = context.WithValue(ctx, stateContextKey{}, state)
	return apiclient.WithCredential(ctx, state.Token)
}

// FromContext returns the state resolved for the request.
func FromContext(ctx context.Context) State {
	state, _ := ctx.Value(stateContextKey{}).(State)
	return state
}

// Resolve reads the request's client state. A stale credential is cleared
// along with the session's cached entities.
func (g *Gate) Resolve(r *http.Request) State {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return State{}
	}
	state, dropped := NewStore(sess, g.now).Load()
	if dropped {
		g.logger.Info("dropped expired credential", slog.String("session", sess.ID))
		g.dropCache(sess.ID)
	}
	return state
}

// Require admits authenticated users whose role is in roles; any role is
// accepted when roles is empty. Anonymous visitors go to the login page and
// users with another role go to their own landing page.
func (g *Gate) Require(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := g.Resolve(r)
			target, ok := Decide(state, roles)
			if !ok {
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithState(r.Context(), state)))
		})
	}
}

// PublicOnly sends authenticated users away from pages meant for anonymous
// visitors, such as the login form.
func (g *Gate) PublicOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := g.Resolve(r)
		if state.Authenticated() {
			http.Redirect(w, r, LandingPage(state.Role()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Root redirects the site root to the login entry point.
func (g *Gate) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// Decide applies the route policy. It returns the redirect target and false
// when state may not see a page allowed for roles.
func Decide(state State, roles []domain.Role) (string, bool) {
	if !state.Authenticated() {
		return LoginPath, false
	}
	if len(roles) > 0 && !slices.Contains(roles, state.Role()) {
		return LandingPage(state.Role()), false
	}
	return "", true
}

// SignIn records a successful login on the session. The session id is
// renewed and the previous anonymous cache is dropped.
func (g *Gate) SignIn(sessions *shared.SessionManager, sess *shared.Session, user domain.User, token string) error {
	if sess == nil {
		return shared.ErrSessionMissing
	}
	g.dropCache(sess.ID)
	sessions.Renew(sess)
	if err := NewStore(sess, g.now).SignIn(user, token); err != nil {
		return err
	}
	sess.SetUser(user.ID)
	return nil
}

// UpdateUser replaces the stored user after a profile change.
func (g *Gate) UpdateUser(sess *shared.Session, user domain.User) error {
	if sess == nil {
		return shared.ErrSessionMissing
	}
	return NewStore(sess, g.now).UpdateUser(user)
}

// SignOut clears the credential of the session and its cached entities.
func (g *Gate) SignOut(sess *shared.Session) {
	if sess == nil {
		return
	}
	NewStore(sess, g.now).Clear()
	sess.SetUser("")
	g.dropCache(sess.ID)
}

// CredentialHook is registered on the backend client. A 401 answer means the
// credential is no longer valid, so the session is signed out; the handler
// that made the call then redirects to the login page.
func (g *Gate) CredentialHook() apiclient.ErrorHook {
	return func(ctx context.Context, err *apiclient.Error) {
		if err.Status != http.StatusUnauthorized || apiclient.CredentialFrom(ctx) == "" {
			return
		}
		sess := shared.SessionFromContext(ctx)
		if sess == nil {
			return
		}
		g.logger.Info("backend rejected credential", slog.String("session", sess.ID), slog.String("path", err.Path))
		g.SignOut(sess)
	}
}

func (g *Gate) dropCache(sessionID string) {
	if g.caches != nil && sessionID != "" {
		g.caches.Drop(sessionID)
	}
}
