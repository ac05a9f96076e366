package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products.
type Category struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	ProductsCount int       `json:"productsCount,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Supplier provides products.
type Supplier struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	ProductsCount int       `json:"productsCount,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Product is a stock keeping unit in the catalog.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	CategoryID  string          `json:"categoryId"`
	Category    *Category       `json:"category,omitempty"`
	SupplierID  string          `json:"supplierId,omitempty"`
	Supplier    *Supplier       `json:"supplier,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	ThumbURL    string          `json:"thumbUrl,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Quantity > 0
}

// CategoryName resolves the display name of the product category, falling
// back to the provided catalog when the backend did not embed it.
func (p Product) CategoryName(categories []Category) string {
	if p.Category != nil && p.Category.Name != "" {
		return p.Category.Name
	}
	for _, c := range categories {
		if c.ID == p.CategoryID {
			return c.Name
		}
	}
	return ""
}
