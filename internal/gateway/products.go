package gateway

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/stockroom/internal/domain"
	"github.com/odyssey-erp/stockroom/internal/forms"
)

// productPayload is the backend's snake_case product body. Pointer fields
// are omitted when nil, so a partial update sends only what changed.
type productPayload struct {
	Name        *string      `json:"name,omitempty"`
	SKU         *string      `json:"sku,omitempty"`
	Description *nullString  `json:"description,omitempty"`
	Price       *json.Number `json:"price,omitempty"`
	Quantity    *int         `json:"quantity,omitempty"`
	CategoryID  *string      `json:"category_id,omitempty"`
	SupplierID  *nullString  `json:"supplier_id,omitempty"`
	ImageURL    *string      `json:"image_url,omitempty"`
}

// nullString encodes the empty string as JSON null.
type nullString string

func (s nullString) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

func priceNumber(d decimal.Decimal) *json.Number {
	n := json.Number(d.String())
	return &n
}

func ptr[T any](v T) *T { return &v }

// ProductPatch describes a partial product update. Nil fields are left
// untouched on the server; an explicitly empty Description or SupplierID
// clears the value.
type ProductPatch struct {
	Name        *string
	SKU         *string
	Description *string
	Price       *decimal.Decimal
	Quantity    *int
	CategoryID  *string
	SupplierID  *string
	ImageURL    *string
}

// PatchFromForm builds a patch that sets every field of form.
func PatchFromForm(form forms.ProductForm) ProductPatch {
	return ProductPatch{
		Name:        ptr(form.Name),
		SKU:         ptr(form.SKU),
		Description: ptr(form.Description),
		Price:       ptr(form.Price),
		Quantity:    ptr(form.Quantity),
		CategoryID:  ptr(form.CategoryID),
		SupplierID:  ptr(form.SupplierID),
		ImageURL:    ptr(form.ImageURL),
	}
}

func (p ProductPatch) payload() productPayload {
	out := productPayload{
		Name:       p.Name,
		SKU:        p.SKU,
		Quantity:   p.Quantity,
		CategoryID: p.CategoryID,
	}
	if p.Description != nil {
		out.Description = ptr(nullString(*p.Description))
	}
	if p.SupplierID != nil {
		out.SupplierID = ptr(nullString(*p.SupplierID))
	}
	if p.Price != nil {
		out.Price = priceNumber(*p.Price)
	}
	if p.ImageURL != nil && *p.ImageURL != "" {
		out.ImageURL = p.ImageURL
	}
	return out
}

// CreateProduct sends the full product form and returns the stored product.
func (g *Gateway) CreateProduct(ctx context.Context, form forms.ProductForm) (domain.Product, error) {
	var product domain.Product
	err := g.create(ctx, PathProducts, PatchFromForm(form).payload(), &product)
	return product, err
}

// UpdateProduct sends only the fields set on patch.
func (g *Gateway) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (domain.Product, error) {
	var product domain.Product
	err := g.update(ctx, ProductPath(id), patch.payload(), &product)
	return product, err
}

// DeleteProduct removes a product.
func (g *Gateway) DeleteProduct(ctx context.Context, id string) error {
	return g.remove(ctx, ProductPath(id))
}
