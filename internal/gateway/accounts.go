package gateway

import (
	"context"
	"net/http"

	"github.com/odyssey-erp/stockroom/internal/domain"
	"github.com/odyssey-erp/stockroom/internal/forms"
)

// AuthResult is returned by login and registration.
type AuthResult struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

// Login exchanges credentials for a bearer token.
func (g *Gateway) Login(ctx context.Context, form forms.LoginForm) (AuthResult, error) {
	var result AuthResult
	err := g.create(ctx, PathLogin, map[string]string{
		"email":    form.Email,
		"password": form.Password,
	}, &result)
	return result, err
}

// Register creates an account and signs it in.
func (g *Gateway) Register(ctx context.Context, form forms.UserForm) (AuthResult, error) {
	var result AuthResult
	err := g.create(ctx, PathRegister, map[string]string{
		"name":                  form.Name,
		"email":                 form.Email,
		"password":              form.Password,
		"password_confirmation": form.PasswordConfirmation,
	}, &result)
	return result, err
}

// Logout revokes the credential carried by ctx.
func (g *Gateway) Logout(ctx context.Context) error {
	_, err := g.api.Send(ctx, http.MethodPost, PathLogout, nil, nil)
	return err
}

// Me returns the account that owns the credential carried by ctx.
func (g *Gateway) Me(ctx context.Context) (domain.User, error) {
	var user domain.User
	_, err := g.api.Send(ctx, http.MethodGet, PathMe, nil, &user)
	return user, err
}

// UpdateProfile changes the signed-in user's name and email.
func (g *Gateway) UpdateProfile(ctx context.Context, form forms.ProfileUpdateForm) (domain.User, error) {
	var user domain.User
	err := g.update(ctx, PathProfile, map[string]string{
		"name":  form.Name,
		"email": form.Email,
	}, &user)
	return user, err
}

// ChangePassword replaces the signed-in user's password.
func (g *Gateway) ChangePassword(ctx context.Context, form forms.PasswordChangeForm) error {
	return g.create(ctx, PathChangePassword, map[string]string{
		"current_password":          form.CurrentPassword,
		"new_password":              form.NewPassword,
		"new_password_confirmation": form.ConfirmPassword,
	}, nil)
}

// CreateUser registers an account on behalf of an admin.
func (g *Gateway) CreateUser(ctx context.Context, form forms.UserForm) (domain.User, error) {
	var user domain.User
	err := g.create(ctx, PathUsers, map[string]string{
		"name":                  form.Name,
		"email":                 form.Email,
		"password":              form.Password,
		"password_confirmation": form.PasswordConfirmation,
		"role":                  form.Role,
	}, &user)
	return user, err
}

// DeleteUser removes an account.
func (g *Gateway) DeleteUser(ctx context.Context, id string) error {
	return g.remove(ctx, UserPath(id))
}
