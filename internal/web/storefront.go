package web

import (
	"net/http"

	"github.com/odyssey-erp/stockroom/internal/apiclient"
	"github.com/odyssey-erp/stockroom/internal/forms"
	"github.com/odyssey-erp/stockroom/internal/pages"
	"github.com/odyssey-erp/stockroom/internal/platform/httpx"
)

// storefrontRows feeds the catalog table partial.
type storefrontRows struct {
	pages.ProductsView
	CSRFToken string
}

type storefrontPage struct {
	Rows storefrontRows
}

func (h *Handler) storefront(w http.ResponseWriter, r *http.Request) {
	data := h.pages.UserProducts(r.Context(), sessionID(r), productQuery(r))
	if h.expired(w, r, data.Err) {
		return
	}
	h.loadFailed(r, data.Err)
	h.render(w, r, http.StatusOK, "pages/user_products.html", "Products", nil, storefrontPage{
		Rows: storefrontRows{ProductsView: data, CSRFToken: h.csrfToken(r)},
	})
}

func (h *Handler) searchStorefront(w http.ResponseWriter, r *http.Request) {
	data, err := h.pages.SearchUserProducts(r.Context(), sessionID(r), productQuery(r))
	if h.settleFailed(w, r, err) {
		return
	}
	if apiclient.IsUnauthorized(data.Err) {
		httpx.RespondError(w, data.Err)
		return
	}
	h.renderPartial(w, r, "partials/storefront-rows", storefrontRows{ProductsView: data, CSRFToken: h.csrfToken(r)})
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form, parseErrs := forms.ParseOrderRequestForm(r.PostForm)
	out := h.pages.PlaceOrder(r.Context(), sessionID(r), form, parseErrs)
	h.finish(w, r, out, "/user/products", func(out pages.Outcome) {
		data := h.pages.UserProducts(r.Context(), sessionID(r), productQuery(r))
		h.renderForm(w, r, out, "pages/user_products.html", "Products", storefrontPage{
			Rows: storefrontRows{ProductsView: data, CSRFToken: h.csrfToken(r)},
		})
	})
}

func (h *Handler) myOrders(w http.ResponseWriter, r *http.Request) {
	data := h.pages.MyOrders(r.Context(), sessionID(r))
	if h.expired(w, r, data.Err) {
		return
	}
	h.loadFailed(r, data.Err)
	h.render(w, r, http.StatusOK, "pages/user_orders.html", "My orders", nil, data)
}
