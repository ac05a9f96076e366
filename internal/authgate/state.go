// Package authgate tracks who is signed in and decides where each request
// may go. It is a convenience for the dashboard, not a security boundary:
// the backend authorizes every call on its own.
package authgate

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/odyssey-erp/stockroom/internal/domain"
)

// Persisted keys of the client state.
const (
	CredentialKey = "token"
	StateKey      = "auth-storage"
)

// Landing pages per role.
const (
	LoginPath        = "/login"
	AdminLandingPath = "/admin"
	UserLandingPath  = "/user/products"
)

// State is the signed-in identity of one client. The zero value is the
// anonymous state.
type State struct {
	User  *domain.User
	Token string
}

// Authenticated reports whether a credential and a user are present.
func (s State) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// Role returns the user's role, or the empty role when anonymous.
func (s State) Role() domain.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// LandingPage returns where a role lands after sign-in or a role mismatch.
func LandingPage(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return AdminLandingPath
	case domain.RoleUser:
		return UserLandingPath
	}
	return LoginPath
}

// KV is the persistent client storage. A session satisfies it.
type KV interface {
	Get(key string) string
	Set(key, value string)
	Delete(key string)
}

type persistedState struct {
	State struct {
		User            *domain.User `json:"user"`
		Token           string       `json:"token"`
		IsAuthenticated bool         `json:"isAuthenticated"`
	} `json:"state"`
	Version int `json:"version"`
}

// Store reads and writes State in a KV.
type Store struct {
	kv  KV
	now func() time.Time
}

// NewStore binds a Store to kv. now may be nil.
func NewStore(kv KV, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{kv: kv, now: now}
}

// Load returns the persisted state. A credential that is missing, unreadable
// or past its expiry yields the anonymous state, and any leftovers are
// cleared. The second result reports whether a stale credential was dropped.
func (s *Store) Load() (State, bool) {
	token := s.kv.Get(CredentialKey)
	raw := s.kv.Get(StateKey)
	if token == "" && raw == "" {
		return State{}, false
	}

	var p persistedState
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			s.Clear()
			return State{}, true
		}
	}
	if token == "" || p.State.User == nil || !p.State.User.Role.Valid() || Expired(token, s.now()) {
		s.Clear()
		return State{}, true
	}
	return State{User: p.State.User, Token: token}, false
}

// SignIn persists a successful login.
func (s *Store) SignIn(user domain.User, token string) error {
	var p persistedState
	p.State.User = &user
	p.State.Token = token
	p.State.IsAuthenticated = true
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	s.kv.Set(CredentialKey, token)
	s.kv.Set(StateKey, string(raw))
	return nil
}

// UpdateUser replaces the stored user, keeping the credential.
func (s *Store) UpdateUser(user domain.User) error {
	token := s.kv.Get(CredentialKey)
	if token == "" {
		return nil
	}
	return s.SignIn(user, token)
}

// Clear forgets the credential and the user.
func (s *Store) Clear() {
	s.kv.Delete(CredentialKey)
	s.kv.Delete(StateKey)
}

// Expired reports whether token is a JWT whose exp claim lies before now.
// Opaque tokens and JWTs without exp never expire on this side; the backend
// remains the judge and answers 401 when it disagrees.
func Expired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
