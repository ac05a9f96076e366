package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/odyssey-erp/stockroom/internal/apiclient"
	"github.com/odyssey-erp/stockroom/internal/forms"
	"github.com/odyssey-erp/stockroom/internal/gateway"
)

// ErrInvalidCredentials is returned when the backend refuses a login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrIncompleteLogin is returned when a login answer lacks the token or a
// usable user.
var ErrIncompleteLogin = errors.New("incomplete login response")

// Service wraps the backend authentication calls.
type Service struct {
	gw *gateway.Gateway
}

// NewService constructs a new Service.
func NewService(gw *gateway.Gateway) *Service {
	return &Service{gw: gw}
}

// Authenticate exchanges email and password for a credential.
func (s *Service) Authenticate(ctx context.Context, form forms.LoginForm) (gateway.AuthResult, error) {
	result, err := s.gw.Login(ctx, form)
	if err != nil {
		switch apiclient.StatusOf(err) {
		case http.StatusUnauthorized, http.StatusUnprocessableEntity:
			return gateway.AuthResult{}, ErrInvalidCredentials
		}
		return gateway.AuthResult{}, err
	}
	return checkResult(result)
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, form forms.UserForm) (gateway.AuthResult, error) {
	result, err := s.gw.Register(ctx, form)
	if err != nil {
		return gateway.AuthResult{}, err
	}
	return checkResult(result)
}

// Logout revokes the credential carried by ctx. A credential the backend
// already forgot is not an error.
func (s *Service) Logout(ctx context.Context) error {
	if apiclient.CredentialFrom(ctx) == "" {
		return nil
	}
	if err := s.gw.Logout(ctx); err != nil && !apiclient.IsUnauthorized(err) {
		return err
	}
	return nil
}

func checkResult(result gateway.AuthResult) (gateway.AuthResult, error) {
	if result.Token == "" {
		return gateway.AuthResult{}, fmt.Errorf("%w: missing token", ErrIncompleteLogin)
	}
	if result.User.ID == "" || !result.User.Role.Valid() {
		return gateway.AuthResult{}, fmt.Errorf("%w: user %q has role %q", ErrIncompleteLogin, result.User.ID, result.User.Role)
	}
	return result, nil
}
