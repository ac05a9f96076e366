package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockroom/internal/apiclient"
	"github.com/odyssey-erp/stockroom/internal/debounce"
	"github.com/odyssey-erp/stockroom/internal/domain"
	"github.com/odyssey-erp/stockroom/internal/forms"
	"github.com/odyssey-erp/stockroom/internal/gateway"
	"github.com/odyssey-erp/stockroom/internal/pages"
	"github.com/odyssey-erp/stockroom/internal/platform/httpx"
)

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	data := h.pages.AdminDashboard(r.Context(), sessionID(r))
	if h.expired(w, r, data.Err) {
		return
	}
	h.loadFailed(r, data.Err)
	h.render(w, r, http.StatusOK, "pages/admin_dashboard.html", "Dashboard", nil, data)
}

// ============================================================================
// PRODUCTS
// ============================================================================

type productsPage struct {
	View pages.ProductsView
	Form forms.ProductForm
}

type productEditPage struct {
	ID         string
	Name       string
	Form       forms.ProductForm
	Categories []domain.Category
	Suppliers  []domain.Supplier
}

func productQuery(r *http.Request) gateway.ProductQuery {
	return gateway.ProductQuery{
		Search:     r.URL.Query().Get("search"),
		CategoryID: r.URL.Query().Get("category_id"),
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	data := h.pages.AdminProducts(r.Context(), sessionID(r), productQuery(r))
	if h.expired(w, r, data.Err) {
		return
	}
	h.loadFailed(r, data.Err)
	h.render(w, r, http.StatusOK, "pages/admin_products.html", "Products", nil, productsPage{View: data})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form, parseErrs := forms.ParseProductForm(r.PostForm)
	out := h.pages.CreateProduct(r.Context(), sessionID(r), form, parseErrs)
	h.finish(w, r, out, "/admin/products", func(out pages.Outcome) {
		data := h.pages.AdminProducts(r.Context(), sessionID(r), gateway.ProductQuery{})
		h.renderForm(w, r, out, "pages/admin_products.html", "Products", productsPage{View: data, Form: form})
	})
}

func productFormOf(p domain.Product) forms.ProductForm {
	return forms.ProductForm{
		Name:        p.Name,
		SKU:         p.SKU,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
		CategoryID:  p.CategoryID,
		SupplierID:  p.SupplierID,
		ImageURL:    p.ImageURL,
	}
}

func (h *Handler) editProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data := h.pages.ProductDetail(r.Context(), sessionID(r), id)
	if h.expired(w, r, data.Err) {
		return
	}
	if !data.Found {
		h.loadFailed(r, data.Err)
		h.notFound(w, r, "Product not found")
		return
	}
	h.render(w, r, http.StatusOK, "pages/admin_product_edit.html", "Edit product", nil, productEditPage{
		ID:         id,
		Name:       data.Product.Name,
		Form:       productFormOf(data.Product),
		Categories: data.Categories,
		Suppliers:  data.Suppliers,
	})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	form, parseErrs := forms.ParseProductForm(r.PostForm)
	out := h.pages.UpdateProduct(r.Context(), sessionID(r), id, form, parseErrs)
	h.finish(w, r, out, "/admin/products", func(out pages.Outcome) {
		data := h.pages.ProductDetail(r.Context(), sessionID(r), id)
		h.renderForm(w, r, out, "pages/admin_product_edit.html", "Edit product", productEditPage{
			ID:         id,
			Name:       data.Product.Name,
			Form:       form,
			Categories: data.Categories,
			Suppliers:  data.Suppliers,
		})
	})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	out := h.pages.DeleteProduct(r.Context(), sessionID(r), chi.URLParam(r, "id"), r.PostFormValue("name"))
	h.finish(w, r, out, "/admin/products", nil)
}

// ============================================================================
// CATEGORIES
// ============================================================================

type categoriesPage struct {
	View pages.CategoriesView
	Form forms.CategoryForm
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	data := h.pages.AdminCategories(r.Context(), sessionID(r))
	if h.expired(w, r, data.Err) {
		return
	}
	h.loadFailed(r, data.Err)
	h.render(w, r, http.StatusOK, "pages/admin_categories.html", "Categories", nil, categoriesPage{View: data})
}

func (h *Handler) saveCategory(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := forms.ParseCategoryForm(r.PostForm)
	out := h.pages.SaveCategory(r.Context(), sessionID(r), chi.URLParam(r, "id"), form)
	h.finish(w, r, out, "/admin/categories", func(out pages.Outcome) {
		data := h.pages.AdminCategories(r.Context(), sessionID(r))
		h.renderForm(w, r, out, "pages/admin_categories.html", "Categories", categoriesPage{View: data, Form: form})
	})
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	out := h.pages.DeleteCategory(r.Context(), sessionID(r), chi.URLParam(r, "id"), r.PostFormValue("name"))
	h.finish(w, r, out, "/admin/categories", nil)
}

// ============================================================================
// SUPPLIERS
// ============================================================================

// supplierRows feeds the supplier table partial, which is also served on its
// own to the live search.
type supplierRows struct {
	pages.SuppliersView
	CSRFToken string
}

type suppliersPage struct {
	Rows supplierRows
	Form forms.SupplierForm
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	data := h.pages.AdminSuppliers(r.Context(), sessionID(r), r.URL.Query().Get("search"))
	if h.expired(w, r, data.Err) {
		return
	}
	h.loadFailed(r, data.Err)
	h.render(w, r, http.StatusOK, "pages/admin_suppliers.html", "Suppliers", nil, suppliersPage{
		Rows: supplierRows{SuppliersView: data, CSRFToken: h.csrfToken(r)},
	})
}

func (h *Handler) searchSuppliers(w http.ResponseWriter, r *http.Request) {
	data, err := h.pages.SearchSuppliers(r.Context(), sessionID(r), r.URL.Query().Get("search"))
	if h.settleFailed(w, r, err) {
		return
	}
	if apiclient.IsUnauthorized(data.Err) {
		httpx.RespondError(w, data.Err)
		return
	}
	h.renderPartial(w, r, "partials/supplier-rows", supplierRows{SuppliersView: data, CSRFToken: h.csrfToken(r)})
}

func (h *Handler) saveSupplier(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := forms.ParseSupplierForm(r.PostForm)
	out := h.pages.SaveSupplier(r.Context(), sessionID(r), chi.URLParam(r, "id"), form)
	h.finish(w, r, out, "/admin/suppliers", func(out pages.Outcome) {
		data := h.pages.AdminSuppliers(r.Context(), sessionID(r), "")
		h.renderForm(w, r, out, "pages/admin_suppliers.html", "Suppliers", suppliersPage{
			Rows: supplierRows{SuppliersView: data, CSRFToken: h.csrfToken(r)},
			Form: form,
		})
	})
}

func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	out := h.pages.DeleteSupplier(r.Context(), sessionID(r), chi.URLParam(r, "id"), r.PostFormValue("name"))
	h.finish(w, r, out, "/admin/suppliers", nil)
}

// ============================================================================
// USERS
// ============================================================================

type usersPage struct {
	View pages.UsersView
	Form forms.UserForm
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	data := h.pages.AdminUsers(r.Context(), sessionID(r), r.URL.Query().Get("search"))
	if h.expired(w, r, data.Err) {
		return
	}
	h.loadFailed(r, data.Err)
	h.render(w, r, http.StatusOK, "pages/admin_users.html", "Users", nil, usersPage{View: data, Form: forms.UserForm{Role: string(domain.RoleUser)}})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := forms.ParseUserForm(r.PostForm)
	out := h.pages.CreateUser(r.Context(), sessionID(r), form)
	h.finish(w, r, out, "/admin/users", func(out pages.Outcome) {
		data := h.pages.AdminUsers(r.Context(), sessionID(r), "")
		form.Password, form.PasswordConfirmation = "", ""
		h.renderForm(w, r, out, "pages/admin_users.html", "Users", usersPage{View: data, Form: form})
	})
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	out := h.pages.DeleteUser(r.Context(), sessionID(r), chi.URLParam(r, "id"), r.PostFormValue("name"))
	h.finish(w, r, out, "/admin/users", nil)
}

// ============================================================================
// ORDERS
// ============================================================================

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	status := domain.OrderStatus(r.URL.Query().Get("status"))
	data := h.pages.AdminOrders(r.Context(), sessionID(r), status)
	if h.expired(w, r, data.Err) {
		return
	}
	h.loadFailed(r, data.Err)
	h.render(w, r, http.StatusOK, "pages/admin_orders.html", "Orders", nil, data)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	next := domain.OrderStatus(r.PostFormValue("status"))
	out := h.pages.UpdateOrderStatus(r.Context(), sessionID(r), chi.URLParam(r, "id"), next)
	location := "/admin/orders"
	if filter := r.URL.Query().Get("status"); domain.OrderStatus(filter).Valid() {
		location += "?status=" + filter
	}
	h.finish(w, r, out, location, nil)
}

// settleFailed answers a debounced search that will not be served: 204 when
// a newer keystroke overtook it, nothing when the browser went away.
func (h *Handler) settleFailed(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, debounce.ErrSuperseded):
		w.WriteHeader(http.StatusNoContent)
	case r.Context().Err() != nil:
	default:
		h.logger.Warn("settle search", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
	return true
}
