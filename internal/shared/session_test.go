package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "stockroom_session", "secret", time.Hour, false), mr, client
}

// roundTrip loads the session for a request carrying cookie, applies fn and
// commits, returning the cookie the browser would keep.
func roundTrip(t *testing.T, sm *SessionManager, cookie *http.Cookie, fn func(*Session)) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	fn(sess)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, req, sess))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestFlashSurvivesRedirect(t *testing.T) {
	sm, _, _ := newTestManager(t)

	cookie := roundTrip(t, sm, nil, func(s *Session) {
		s.AddFlash(FlashMessage{Kind: FlashSuccess, Message: "Product created successfully!"})
	})

	var flash *FlashMessage
	cookie = roundTrip(t, sm, cookie, func(s *Session) { flash = s.PopFlash() })
	require.NotNil(t, flash)
	assert.Equal(t, "Product created successfully!", flash.Message)

	roundTrip(t, sm, cookie, func(s *Session) { assert.Nil(t, s.PopFlash()) })
}

func TestValuesPersist(t *testing.T) {
	sm, _, _ := newTestManager(t)

	cookie := roundTrip(t, sm, nil, func(s *Session) { s.Set("theme-storage", "dark") })
	cookie = roundTrip(t, sm, cookie, func(s *Session) {
		assert.Equal(t, "dark", s.Get("theme-storage"))
		s.Delete("theme-storage")
	})
	roundTrip(t, sm, cookie, func(s *Session) { assert.Empty(t, s.Get("theme-storage")) })
}

func TestUnknownCookieGetsFreshID(t *testing.T) {
	sm, _, _ := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "stockroom_session", Value: "attacker-chosen"})
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "attacker-chosen", sess.ID)
}

func TestRenewDropsPreviousKey(t *testing.T) {
	sm, mr, _ := newTestManager(t)

	cookie := roundTrip(t, sm, nil, func(s *Session) { s.Set("k", "v") })
	oldID := cookie.Value
	assert.True(t, mr.Exists("stockroom:session:"+oldID))

	cookie = roundTrip(t, sm, cookie, func(s *Session) { sm.Renew(s) })
	assert.NotEqual(t, oldID, cookie.Value)
	assert.False(t, mr.Exists("stockroom:session:"+oldID))
	roundTrip(t, sm, cookie, func(s *Session) { assert.Equal(t, "v", s.Get("k")) })
}

func TestDestroyExpiresCookie(t *testing.T) {
	sm, mr, _ := newTestManager(t)
	cookie := roundTrip(t, sm, nil, func(s *Session) { s.Set("token", "abc") })

	cleared := roundTrip(t, sm, cookie, func(s *Session) { sm.Destroy(s) })
	assert.Equal(t, -1, cleared.MaxAge)
	assert.False(t, mr.Exists("stockroom:session:"+cookie.Value))
}

func TestCSRFTokens(t *testing.T) {
	m := NewCSRFManager("csrf-secret")
	sess := &Session{ID: "s1"}

	token, err := m.EnsureToken(sess)
	require.NoError(t, err)
	again, _ := m.EnsureToken(sess)
	assert.Equal(t, token, again)

	require.NoError(t, m.VerifyToken(sess, token))
	assert.ErrorIs(t, m.VerifyToken(sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.VerifyToken(sess, "forged"), ErrCSRFTokenMismatch)

	rotated := m.Rotate(sess)
	assert.ErrorIs(t, m.VerifyToken(sess, token), ErrCSRFTokenMismatch)
	assert.NoError(t, m.VerifyToken(sess, rotated))

	_, err = m.EnsureToken(nil)
	assert.ErrorIs(t, err, ErrSessionMissing)
}

func TestSubmissionGuard(t *testing.T) {
	_, mr, client := newTestManager(t)
	guard := NewSubmissionGuard(client, time.Minute)
	ctx := context.Background()

	release, err := guard.Acquire(ctx, "s1", "products.create")
	require.NoError(t, err)

	_, err = guard.Acquire(ctx, "s1", "products.create")
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	other, err := guard.Acquire(ctx, "s2", "products.create")
	require.NoError(t, err)
	other()

	release()
	again, err := guard.Acquire(ctx, "s1", "products.create")
	require.NoError(t, err)
	again()

	stuck, err := guard.Acquire(ctx, "s1", "orders.create")
	require.NoError(t, err)
	_ = stuck
	mr.FastForward(2 * time.Minute)
	_, err = guard.Acquire(ctx, "s1", "orders.create")
	assert.NoError(t, err)
}

func TestSubmissionGuardLateReleaseKeepsSuccessorLock(t *testing.T) {
	_, mr, client := newTestManager(t)
	guard := NewSubmissionGuard(client, time.Second)
	ctx := context.Background()

	slow, err := guard.Acquire(ctx, "s1", "products.create")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	next, err := guard.Acquire(ctx, "s1", "products.create")
	require.NoError(t, err)

	slow()
	assert.True(t, mr.Exists(SubmissionLockKey("s1", "products.create")))
	_, err = guard.Acquire(ctx, "s1", "products.create")
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	next()
	assert.False(t, mr.Exists(SubmissionLockKey("s1", "products.create")))
}
