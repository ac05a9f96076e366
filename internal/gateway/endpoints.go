package gateway

import "net/url"

// Backend endpoint paths, relative to API_BASE_URL.
const (
	PathLogin    = "/auth/login"
	PathLogout   = "/auth/logout"
	PathRegister = "/auth/register"
	PathMe       = "/auth/me"

	PathProfile        = "/auth/profile"
	PathChangePassword = "/auth/change-password"

	PathProducts            = "/products"
	PathProductsLowStock    = "/products/stats/low-stock"
	PathProductsBestSelling = "/products/stats/best-selling"

	PathCategories = "/categories"
	PathSuppliers  = "/suppliers"
	PathUsers      = "/users"

	PathOrders   = "/orders"
	PathMyOrders = "/orders/my-orders"
)

// ProductPath returns the path of one product.
func ProductPath(id string) string { return byID(PathProducts, id) }

// CategoryPath returns the path of one category.
func CategoryPath(id string) string { return byID(PathCategories, id) }

// SupplierPath returns the path of one supplier.
func SupplierPath(id string) string { return byID(PathSuppliers, id) }

// UserPath returns the path of one user.
func UserPath(id string) string { return byID(PathUsers, id) }

// OrderPath returns the path of one order.
func OrderPath(id string) string { return byID(PathOrders, id) }

func byID(base, id string) string {
	return base + "/" + url.PathEscape(id)
}

// ProductQuery is the filter set of the product list.
type ProductQuery struct {
	CategoryID string
	Search     string
}

// Values encodes q with the backend parameter names.
func (q ProductQuery) Values() url.Values {
	v := url.Values{}
	if q.CategoryID != "" {
		v.Set("category_id", q.CategoryID)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// SupplierQuery filters suppliers by name.
func SupplierQuery(search string) url.Values {
	v := url.Values{}
	if search != "" {
		v.Set("filter[name]", search)
	}
	return v
}

// UserQuery filters users by a free text search.
func UserQuery(search string) url.Values {
	v := url.Values{}
	if search != "" {
		v.Set("search", search)
	}
	return v
}
