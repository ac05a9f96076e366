// Package web serves the dashboard pages over the page models.
package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockroom/internal/apiclient"
	"github.com/odyssey-erp/stockroom/internal/authgate"
	"github.com/odyssey-erp/stockroom/internal/domain"
	"github.com/odyssey-erp/stockroom/internal/forms"
	"github.com/odyssey-erp/stockroom/internal/pages"
	"github.com/odyssey-erp/stockroom/internal/shared"
	"github.com/odyssey-erp/stockroom/internal/view"
)

const sessionExpiredMessage = "Your session has expired. Please sign in again."

// Handler wires the dashboard pages.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	csrf      *shared.CSRFManager
	gate      *authgate.Gate
	pages     *pages.Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, templates *view.Engine, csrf *shared.CSRFManager, gate *authgate.Gate, svc *pages.Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, templates: templates, csrf: csrf, gate: gate, pages: svc}
}

// MountRoutes registers the admin, storefront and account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(h.gate.Require(domain.RoleAdmin))
		r.Get("/", h.dashboard)

		r.Get("/products", h.listProducts)
		r.Post("/products", h.createProduct)
		r.Get("/products/{id}/edit", h.editProduct)
		r.Post("/products/{id}/edit", h.updateProduct)
		r.Post("/products/{id}/delete", h.deleteProduct)

		r.Get("/categories", h.listCategories)
		r.Post("/categories", h.saveCategory)
		r.Post("/categories/{id}/edit", h.saveCategory)
		r.Post("/categories/{id}/delete", h.deleteCategory)

		r.Get("/suppliers", h.listSuppliers)
		r.Get("/suppliers/search", h.searchSuppliers)
		r.Post("/suppliers", h.saveSupplier)
		r.Post("/suppliers/{id}/edit", h.saveSupplier)
		r.Post("/suppliers/{id}/delete", h.deleteSupplier)

		r.Get("/users", h.listUsers)
		r.Post("/users", h.createUser)
		r.Post("/users/{id}/delete", h.deleteUser)

		r.Get("/orders", h.listOrders)
		r.Post("/orders/{id}/status", h.updateOrderStatus)

		r.Get("/settings", h.showSettings)
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(h.gate.Require(domain.RoleUser))
		r.Get("/products", h.storefront)
		r.Get("/products/search", h.searchStorefront)
		r.Post("/products/order", h.placeOrder)
		r.Get("/orders", h.myOrders)
		r.Get("/settings", h.showSettings)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require())
		r.Get("/profile", h.showProfile)
		r.Post("/profile", h.updateProfile)
		r.Post("/profile/password", h.changePassword)
		r.Post("/settings/theme", h.changeTheme)
	})
}

func sessionID(r *http.Request) string {
	return shared.SessionIDFromContext(r.Context())
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, fields forms.FieldErrors, data any) {
	viewData := view.PageData(r, h.csrf, title)
	viewData.Fields = fields
	viewData.Data = data
	if err := h.templates.Render(w, status, name, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", name))
	}
}

// renderForm re-renders a page after a rejected submission. The notice is
// shown right away instead of being queued for the next page.
func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, out pages.Outcome, name, title string, data any) {
	viewData := view.PageData(r, h.csrf, title)
	if out.Notice.Message != "" {
		flash := out.Notice.Flash()
		viewData.Flash = &flash
	}
	viewData.Fields = out.Fields
	viewData.Data = data
	if err := h.templates.Render(w, http.StatusUnprocessableEntity, name, viewData); err != nil {
		h.logger.Error("render form", slog.Any("error", err), slog.String("template", name))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location string, notice pages.Notice) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil && notice.Message != "" {
		sess.AddFlash(notice.Flash())
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// finish applies a submission outcome. Field errors re-render the form
// through rerender when one is given; everything else becomes a flash and a
// redirect to location.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, out pages.Outcome, location string, rerender func(pages.Outcome)) {
	if h.expired(w, r, out.Err) {
		return
	}
	if !out.Fields.Empty() && rerender != nil {
		rerender(out)
		return
	}
	notice := out.Notice
	if notice.Message == "" && !out.Fields.Empty() {
		notice = pages.Notice{Kind: pages.NoticeError, Message: out.Fields[out.Fields.Fields()[0]]}
	}
	if out.Err != nil && !errors.Is(out.Err, shared.ErrSubmissionInFlight) && !out.Unauthorized() {
		h.logger.Warn("submission failed", slog.String("path", r.URL.Path), slog.Any("error", out.Err))
	}
	h.redirectWithFlash(w, r, location, notice)
}

// expired sends the browser to the login page when the backend rejected the
// credential. The session was already signed out by the credential hook.
func (h *Handler) expired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !apiclient.IsUnauthorized(err) {
		return false
	}
	h.redirectWithFlash(w, r, authgate.LoginPath, pages.Notice{Kind: pages.NoticeError, Message: sessionExpiredMessage})
	return true
}

// loadFailed logs a read error. The page still renders whatever data the
// cache holds.
func (h *Handler) loadFailed(r *http.Request, err error) {
	if err != nil {
		h.logger.Warn("load page data", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request, message string) {
	h.render(w, r, http.StatusNotFound, "pages/error.html", "Not found", nil, message)
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) csrfToken(r *http.Request) string {
	token, _ := h.csrf.EnsureToken(shared.SessionFromContext(r.Context()))
	return token
}

func (h *Handler) renderPartial(w http.ResponseWriter, r *http.Request, name string, data any) {
	if err := h.templates.RenderPartial(w, name, data); err != nil {
		h.logger.Error("render partial", slog.Any("error", err), slog.String("template", name), slog.String("path", r.URL.Path))
	}
}
