package pages

import (
	"context"

	"github.com/odyssey-erp/stockroom/internal/domain"
	"github.com/odyssey-erp/stockroom/internal/forms"
	"github.com/odyssey-erp/stockroom/internal/gateway"
	"github.com/odyssey-erp/stockroom/internal/swr"
)

// UsersView backs the user table.
type UsersView struct {
	Search  string
	Users   []domain.User
	Loading bool
	Err     error
}

// UsersKey is the cache key of a user search.
func UsersKey(search string) string {
	return swr.Key(gateway.PathUsers, gateway.UserQuery(search))
}

// AdminUsers lists accounts.
func (s *Service) AdminUsers(ctx context.Context, sessionID, search string) UsersView {
	snap := s.spaces.For(sessionID).Users.Get(ctx, UsersKey(search))
	return UsersView{Search: search, Users: orEmpty(snap.Data), Loading: snap.IsLoading, Err: snap.Err}
}

func (s *Service) revalidateUsers(ctx context.Context, ws *Workspace) {
	ws.Store().Invalidate(gateway.PathUsers)
	ws.Users.Mutate(ctx, gateway.PathUsers)
}

// CreateUser registers an account. Accounts cannot be edited afterwards.
func (s *Service) CreateUser(ctx context.Context, sessionID string, form forms.UserForm) Outcome {
	ws := s.spaces.For(sessionID)
	return s.submit(ctx, sessionID, forms.Validate(form), mutation{
		action: "users.create",
		call: func(ctx context.Context) error {
			_, err := s.gw.CreateUser(ctx, form)
			return err
		},
		success: "User created successfully!",
		failure: "Failed to create user",
		after:   func(ctx context.Context) { s.revalidateUsers(ctx, ws) },
	})
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, sessionID, id, name string) Outcome {
	ws := s.spaces.For(sessionID)
	return s.submit(ctx, sessionID, nil, mutation{
		action:  "users.delete:" + id,
		call:    func(ctx context.Context) error { return s.gw.DeleteUser(ctx, id) },
		success: deletedMessage(name, "User"),
		failure: "Failed to delete user",
		after:   func(ctx context.Context) { s.revalidateUsers(ctx, ws) },
	})
}

// UpdateProfile changes the signed-in user's name and email. The updated
// user is returned so the caller can refresh the stored identity.
func (s *Service) UpdateProfile(ctx context.Context, sessionID string, form forms.ProfileUpdateForm) (Outcome, *domain.User) {
	var updated domain.User
	out := s.submit(ctx, sessionID, forms.Validate(form), mutation{
		action: "profile.update",
		call: func(ctx context.Context) error {
			user, err := s.gw.UpdateProfile(ctx, form)
			updated = user
			return err
		},
		success: "Profile updated successfully!",
		failure: "Failed to update profile",
	})
	if !out.OK() {
		return out, nil
	}
	return out, &updated
}

// ChangePassword replaces the signed-in user's password.
func (s *Service) ChangePassword(ctx context.Context, sessionID string, form forms.PasswordChangeForm) Outcome {
	return s.submit(ctx, sessionID, forms.Validate(form), mutation{
		action:  "profile.password",
		call:    func(ctx context.Context) error { return s.gw.ChangePassword(ctx, form) },
		success: "Password changed successfully!",
		failure: "Failed to change password",
	})
}

// Profile reads the signed-in user from the backend. It is not cached so
// the form always starts from the stored values.
func (s *Service) Profile(ctx context.Context) (domain.User, error) {
	return s.gw.Me(ctx)
}
