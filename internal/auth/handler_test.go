package auth_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockroom/internal/domain"
	"github.com/odyssey-erp/stockroom/internal/testing/webtest"
	_ "github.com/odyssey-erp/stockroom/testing"
)

func TestLoginPage(t *testing.T) {
	stack := webtest.New(t, webtest.Options{})
	browser := stack.Browser(t)

	res := browser.Get("/login")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, "<form")
	assert.NotEmpty(t, browser.CSRF())

	root := browser.Get("/")
	assert.Equal(t, http.StatusSeeOther, root.Status)
	assert.Equal(t, "/login", root.Location)
}

func TestLoginInvalidCredentials(t *testing.T) {
	stack := webtest.New(t, webtest.Options{})
	stack.Backend.AddUser("Ana", "ana@example.com", "correctpass", domain.RoleAdmin)
	browser := stack.Browser(t)

	res := browser.Post("/login", url.Values{"email": {"ana@example.com"}, "password": {"wrongpass"}})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Contains(t, res.Body, "Invalid email or password")
	assert.Contains(t, res.Body, `value="ana@example.com"`)
	assert.NotContains(t, res.Body, "wrongpass")

	// The anonymous 401 must not be treated as an expired session.
	again := browser.Get("/login")
	assert.Equal(t, http.StatusOK, again.Status)
}

func TestLoginValidationSkipsBackend(t *testing.T) {
	stack := webtest.New(t, webtest.Options{})
	browser := stack.Browser(t)

	res := browser.Post("/login", url.Values{"email": {"not-an-email"}, "password": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Contains(t, res.Body, "Valid email is required")
	assert.Contains(t, res.Body, "Password is required")
	assert.Zero(t, stack.Backend.Hits(http.MethodPost, "/auth/login"))
}

func TestLoginRedirectsByRole(t *testing.T) {
	stack := webtest.New(t, webtest.Options{})
	stack.Backend.AddUser("Ana", "ana@example.com", "password1", domain.RoleAdmin)
	stack.Backend.AddUser("Ben", "ben@example.com", "password2", domain.RoleUser)

	admin := stack.Browser(t)
	res := admin.Post("/login", url.Values{"email": {"ana@example.com"}, "password": {"password1"}})
	require.Equal(t, http.StatusSeeOther, res.Status)
	assert.Equal(t, "/admin", res.Location)
	landing := admin.Get(res.Location)
	require.Equal(t, http.StatusOK, landing.Status)
	assert.Contains(t, landing.Body, "Welcome back, Ana!")

	// Signed-in users are sent away from the login form.
	bounce := admin.Get("/login")
	assert.Equal(t, http.StatusSeeOther, bounce.Status)
	assert.Equal(t, "/admin", bounce.Location)

	user := stack.Browser(t)
	res = user.Post("/login", url.Values{"email": {"ben@example.com"}, "password": {"password2"}})
	require.Equal(t, http.StatusSeeOther, res.Status)
	assert.Equal(t, "/user/products", res.Location)

	denied := user.Get("/admin/products")
	assert.Equal(t, http.StatusSeeOther, denied.Status)
	assert.Equal(t, "/user/products", denied.Location)
}

func TestRegister(t *testing.T) {
	stack := webtest.New(t, webtest.Options{})
	stack.Backend.AddUser("Ana", "ana@example.com", "password1", domain.RoleAdmin)
	browser := stack.Browser(t)

	form := url.Values{
		"name":                 {"Cleo"},
		"email":                {"ana@example.com"},
		"password":             {"password3"},
		"passwordConfirmation": {"password3"},
		"role":                 {"admin"},
	}
	res := browser.Post("/register", form)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Contains(t, res.Body, "The email has already been taken.")

	form.Set("email", "cleo@example.com")
	res = browser.Post("/register", form)
	require.Equal(t, http.StatusSeeOther, res.Status)
	assert.Equal(t, "/user/products", res.Location)

	bodies := stack.Backend.Bodies(http.MethodPost, "/auth/register")
	require.Len(t, bodies, 2)
	assert.NotContains(t, bodies[1], "role")
	assert.Equal(t, "password3", bodies[1]["password_confirmation"])
}

func TestRegisterShowsBackendFieldErrors(t *testing.T) {
	stack := webtest.New(t, webtest.Options{})
	browser := stack.Browser(t)
	form := url.Values{
		"name":                 {"Cleo"},
		"email":                {"cleo@example.com"},
		"password":             {"password3"},
		"passwordConfirmation": {"password3"},
	}

	stack.Backend.FailNext(http.MethodPost, "/auth/register", http.StatusUnprocessableEntity,
		"The given data was invalid.",
		map[string][]string{"password_confirmation": {"The password confirmation must be retyped."}})
	res := browser.Post("/register", form)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Contains(t, res.Body, "The password confirmation must be retyped.")

	// A field the page has no input for still reaches the user.
	stack.Backend.FailNext(http.MethodPost, "/auth/register", http.StatusUnprocessableEntity,
		"Registrations are closed.",
		map[string][]string{"invite_code": {"An invite code is required."}})
	res = browser.Post("/register", form)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Contains(t, res.Body, "Registrations are closed.")
	assert.Equal(t, 2, stack.Backend.Hits(http.MethodPost, "/auth/register"))
}

func TestRegisterValidation(t *testing.T) {
	stack := webtest.New(t, webtest.Options{})
	browser := stack.Browser(t)

	res := browser.Post("/register", url.Values{
		"name":                 {"Cleo"},
		"email":                {"cleo@example.com"},
		"password":             {"short"},
		"passwordConfirmation": {"other"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Contains(t, res.Body, "Password must be at least 8 characters")
	assert.Zero(t, stack.Backend.Hits(http.MethodPost, "/auth/register"))
}

func TestLogout(t *testing.T) {
	stack := webtest.New(t, webtest.Options{})
	stack.Backend.AddUser("Ana", "ana@example.com", "password1", domain.RoleAdmin)
	browser := stack.Browser(t)
	browser.Login("ana@example.com", "password1")

	res := browser.Post("/logout", nil)
	require.Equal(t, http.StatusSeeOther, res.Status)
	assert.Equal(t, "/login", res.Location)
	assert.Equal(t, 1, stack.Backend.Hits(http.MethodPost, "/auth/logout"))

	page := browser.Get("/login")
	assert.Contains(t, page.Body, "You have been signed out.")

	after := browser.Get("/admin")
	assert.Equal(t, http.StatusSeeOther, after.Status)
	assert.Equal(t, "/login", after.Location)
}

func TestPostWithoutCSRFIsRejected(t *testing.T) {
	stack := webtest.New(t, webtest.Options{})
	browser := stack.Browser(t)
	browser.Get("/login")

	res := browser.Post("/login", url.Values{"email": {"a@b.c"}, "password": {"x"}, "csrf_token": {"forged"}})
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Zero(t, stack.Backend.Hits(http.MethodPost, "/auth/login"))
}
