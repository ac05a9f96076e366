package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockroom/internal/apiclient"
	"github.com/odyssey-erp/stockroom/internal/authgate"
	"github.com/odyssey-erp/stockroom/internal/domain"
	"github.com/odyssey-erp/stockroom/internal/forms"
	"github.com/odyssey-erp/stockroom/internal/gateway"
	"github.com/odyssey-erp/stockroom/internal/shared"
	"github.com/odyssey-erp/stockroom/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	gate           *authgate.Gate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager, gate *authgate.Gate) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		gate:           gate,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.gate.Root)
	r.Group(func(r chi.Router) {
		r.Use(h.gate.PublicOnly)
		r.Get("/login", h.showLogin)
		r.Post("/login", h.handleLogin)
		r.Get("/register", h.showRegister)
		r.Post("/register", h.handleRegister)
	})
	r.With(h.gate.Require()).Post("/logout", h.handleLogout)
}

type loginPageData struct {
	Form forms.LoginForm
}

type registerPageData struct {
	Form forms.UserForm
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, fields forms.FieldErrors, data any) {
	viewData := view.PageData(r, h.csrfManager, title)
	viewData.Fields = fields
	viewData.Data = data
	if err := h.templates.Render(w, status, name, viewData); err != nil {
		h.logger.Error("render auth page", slog.Any("error", err), slog.String("template", name))
	}
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "pages/login.html", "Sign in", nil, loginPageData{})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := forms.ParseLoginForm(r.PostForm)
	fields := forms.Validate(form)
	status := http.StatusUnprocessableEntity
	if fields.Empty() {
		result, err := h.service.Authenticate(r.Context(), form)
		if err == nil {
			h.signIn(w, r, result, "Welcome back, "+result.User.Name+"!")
			return
		}
		message := "Invalid email or password"
		if !errors.Is(err, ErrInvalidCredentials) {
			h.logger.Error("login", slog.Any("error", err))
			message = apiclient.UserMessage(err, "Login failed, please try again")
		}
		fields = forms.FieldErrors{"general": message}
		status = http.StatusBadRequest
	}
	form.Password = ""
	h.render(w, r, status, "pages/login.html", "Sign in", fields, loginPageData{Form: form})
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "pages/register.html", "Create account", nil, registerPageData{})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := forms.ParseUserForm(r.PostForm)
	form.Role = string(domain.RoleUser)
	fields := forms.Validate(form)
	if fields.Empty() {
		result, err := h.service.Register(r.Context(), form)
		if err == nil {
			h.signIn(w, r, result, "Account created successfully!")
			return
		}
		fields = registerErrors(err)
		if _, general := fields["general"]; general {
			h.logger.Error("register", slog.Any("error", err))
		}
	}
	form.Password, form.PasswordConfirmation = "", ""
	h.render(w, r, http.StatusUnprocessableEntity, "pages/register.html", "Create account", fields, registerPageData{Form: form})
}

// registerFields are the inputs the registration page can show an error on.
var registerFields = []string{"name", "email", "password", "passwordConfirmation"}

func registerErrors(err error) forms.FieldErrors {
	fields := forms.FieldErrors{}
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		fields = forms.FromBackend(apiErr.Fields)
	}
	if !fields.Any(registerFields...) {
		fields.Add("general", apiclient.UserMessage(err, "Registration failed, please try again"))
	}
	return fields
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, result gateway.AuthResult, greeting string) {
	sess := shared.SessionFromContext(r.Context())
	if err := h.gate.SignIn(h.sessionManager, sess, result.User, result.Token); err != nil {
		h.logger.Error("store credential", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.csrfManager.Rotate(sess)
	sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Message: greeting})
	http.Redirect(w, r, authgate.LandingPage(result.User.Role), http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context()); err != nil {
		h.logger.Warn("revoke credential", slog.Any("error", err))
	}
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.gate.SignOut(sess)
		h.sessionManager.Renew(sess)
		h.csrfManager.Rotate(sess)
		sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Message: "You have been signed out."})
	}
	http.Redirect(w, r, authgate.LoginPath, http.StatusSeeOther)
}
