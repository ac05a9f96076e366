package forms

import (
	"net/url"
	"strings"
)

// LoginForm is the sign-in form.
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

func (LoginForm) messages() map[string]string {
	return map[string]string{
		"email.required":    "Email is required",
		"email.email":       "Valid email is required",
		"password.required": "Password is required",
	}
}

// ParseLoginForm reads a submitted login form.
func ParseLoginForm(values url.Values) LoginForm {
	return LoginForm{
		Email:    strings.TrimSpace(values.Get("email")),
		Password: values.Get("password"),
	}
}

// UserForm creates a dashboard account. Users cannot be edited.
type UserForm struct {
	Name                 string `form:"name" validate:"required,max=255"`
	Email                string `form:"email" validate:"required,email"`
	Password             string `form:"password" validate:"min=8"`
	PasswordConfirmation string `form:"passwordConfirmation" validate:"required,eqfield=Password"`
	Role                 string `form:"role" validate:"oneof=admin user"`
}

func (UserForm) messages() map[string]string {
	return map[string]string{
		"name.required":                 "Name is required",
		"name.max":                      "Name is too long",
		"email":                         "Valid email is required",
		"password.min":                  "Password must be at least 8 characters",
		"passwordConfirmation.required": "Please confirm the password",
		"passwordConfirmation.eqfield":  "Passwords don't match",
		"role":                          "Role must be admin or user",
	}
}

// ParseUserForm reads a submitted user form. The role defaults to user.
func ParseUserForm(values url.Values) UserForm {
	role := values.Get("role")
	if role == "" {
		role = "user"
	}
	return UserForm{
		Name:                 strings.TrimSpace(values.Get("name")),
		Email:                strings.TrimSpace(values.Get("email")),
		Password:             values.Get("password"),
		PasswordConfirmation: values.Get("passwordConfirmation"),
		Role:                 role,
	}
}

// ProfileUpdateForm edits the signed-in user's name and email.
type ProfileUpdateForm struct {
	Name  string `form:"name" validate:"required,max=255"`
	Email string `form:"email" validate:"required,email"`
}

func (ProfileUpdateForm) messages() map[string]string {
	return map[string]string{
		"name.required": "Name is required",
		"name.max":      "Name is too long",
		"email":         "Valid email is required",
	}
}

// ParseProfileUpdateForm reads a submitted profile form.
func ParseProfileUpdateForm(values url.Values) ProfileUpdateForm {
	return ProfileUpdateForm{
		Name:  strings.TrimSpace(values.Get("name")),
		Email: strings.TrimSpace(values.Get("email")),
	}
}

// PasswordChangeForm changes the signed-in user's password.
type PasswordChangeForm struct {
	CurrentPassword string `form:"currentPassword" validate:"required"`
	NewPassword     string `form:"newPassword" validate:"min=8"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

func (PasswordChangeForm) messages() map[string]string {
	return map[string]string{
		"currentPassword.required": "Current password is required",
		"newPassword.min":          "Password must be at least 8 characters",
		"confirmPassword.required": "Please confirm your password",
		"confirmPassword.eqfield":  "Passwords don't match",
	}
}

// ParsePasswordChangeForm reads a submitted password change form.
func ParsePasswordChangeForm(values url.Values) PasswordChangeForm {
	return PasswordChangeForm{
		CurrentPassword: values.Get("currentPassword"),
		NewPassword:     values.Get("newPassword"),
		ConfirmPassword: values.Get("confirmPassword"),
	}
}
