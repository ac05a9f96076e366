package gateway

import (
	"context"

	"github.com/odyssey-erp/stockroom/internal/domain"
	"github.com/odyssey-erp/stockroom/internal/forms"
)

type categoryPayload struct {
	Name        string     `json:"name"`
	Description nullString `json:"description"`
}

func newCategoryPayload(form forms.CategoryForm) categoryPayload {
	return categoryPayload{Name: form.Name, Description: nullString(form.Description)}
}

// CreateCategory stores a new category.
func (g *Gateway) CreateCategory(ctx context.Context, form forms.CategoryForm) (domain.Category, error) {
	var category domain.Category
	err := g.create(ctx, PathCategories, newCategoryPayload(form), &category)
	return category, err
}

// UpdateCategory replaces the category fields.
func (g *Gateway) UpdateCategory(ctx context.Context, id string, form forms.CategoryForm) (domain.Category, error) {
	var category domain.Category
	err := g.update(ctx, CategoryPath(id), newCategoryPayload(form), &category)
	return category, err
}

// DeleteCategory removes a category.
func (g *Gateway) DeleteCategory(ctx context.Context, id string) error {
	return g.remove(ctx, CategoryPath(id))
}

type supplierPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

func newSupplierPayload(form forms.SupplierForm) supplierPayload {
	return supplierPayload{Name: form.Name, Email: form.Email, Phone: form.Phone, Address: form.Address}
}

// CreateSupplier stores a new supplier.
func (g *Gateway) CreateSupplier(ctx context.Context, form forms.SupplierForm) (domain.Supplier, error) {
	var supplier domain.Supplier
	err := g.create(ctx, PathSuppliers, newSupplierPayload(form), &supplier)
	return supplier, err
}

// UpdateSupplier replaces the supplier fields.
func (g *Gateway) UpdateSupplier(ctx context.Context, id string, form forms.SupplierForm) (domain.Supplier, error) {
	var supplier domain.Supplier
	err := g.update(ctx, SupplierPath(id), newSupplierPayload(form), &supplier)
	return supplier, err
}

// DeleteSupplier removes a supplier.
func (g *Gateway) DeleteSupplier(ctx context.Context, id string) error {
	return g.remove(ctx, SupplierPath(id))
}
