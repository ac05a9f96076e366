package pages

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/stockroom/internal/domain"
	"github.com/odyssey-erp/stockroom/internal/forms"
	"github.com/odyssey-erp/stockroom/internal/gateway"
	"github.com/odyssey-erp/stockroom/internal/swr"
)

// ProductsView backs the product tables.
type ProductsView struct {
	Query      gateway.ProductQuery
	Products   []domain.Product
	Categories []domain.Category
	Suppliers  []domain.Supplier
	Loading    bool
	Err        error
}

// CategoryName resolves the category label of p.
func (v ProductsView) CategoryName(p domain.Product) string {
	return p.CategoryName(v.Categories)
}

// ProductsKey is the cache key of a product list query.
func ProductsKey(q gateway.ProductQuery) string {
	return swr.Key(gateway.PathProducts, q.Values())
}

// AdminProducts lists products with the categories and suppliers needed by
// the product form.
func (s *Service) AdminProducts(ctx context.Context, sessionID string, q gateway.ProductQuery) ProductsView {
	ws := s.spaces.For(sessionID)
	products := ws.Products.Get(ctx, ProductsKey(q))
	categories := ws.Categories.Get(ctx, gateway.PathCategories)
	suppliers := ws.Suppliers.Get(ctx, gateway.PathSuppliers)
	return ProductsView{
		Query:      q,
		Products:   orEmpty(products.Data),
		Categories: orEmpty(categories.Data),
		Suppliers:  orEmpty(suppliers.Data),
		Loading:    products.IsLoading || categories.IsLoading || suppliers.IsLoading,
		Err:        firstErr(products.Err, categories.Err, suppliers.Err),
	}
}

// ProductDetailView backs the product edit form.
type ProductDetailView struct {
	Product    domain.Product
	Categories []domain.Category
	Suppliers  []domain.Supplier
	Found      bool
	Err        error
}

// ProductDetail loads one product with the lists its edit form offers.
func (s *Service) ProductDetail(ctx context.Context, sessionID, id string) ProductDetailView {
	ws := s.spaces.For(sessionID)
	product := ws.Product.Get(ctx, gateway.ProductPath(id))
	categories := ws.Categories.Get(ctx, gateway.PathCategories)
	suppliers := ws.Suppliers.Get(ctx, gateway.PathSuppliers)
	return ProductDetailView{
		Product:    product.Data,
		Categories: orEmpty(categories.Data),
		Suppliers:  orEmpty(suppliers.Data),
		Found:      product.HasData,
		Err:        firstErr(product.Err, categories.Err, suppliers.Err),
	}
}

// revalidateProducts refreshes the unfiltered list and marks every other
// product query, including stock statistics, stale.
func revalidateProducts(ctx context.Context, ws *Workspace) {
	ws.Store().Invalidate(gateway.PathProducts)
	ws.Products.Mutate(ctx, ProductsKey(gateway.ProductQuery{}))
}

// CreateProduct validates and stores a new product.
func (s *Service) CreateProduct(ctx context.Context, sessionID string, form forms.ProductForm, parseErrs forms.FieldErrors) Outcome {
	fields := forms.FieldErrors{}
	fields.Merge(parseErrs)
	fields.Merge(forms.Validate(form))
	ws := s.spaces.For(sessionID)
	return s.submit(ctx, sessionID, fields, mutation{
		action: "products.create",
		call: func(ctx context.Context) error {
			_, err := s.gw.CreateProduct(ctx, form)
			return err
		},
		success: "Product created successfully!",
		failure: "Failed to save product",
		after:   func(ctx context.Context) { revalidateProducts(ctx, ws) },
	})
}

// UpdateProduct sends the edited fields of a product.
func (s *Service) UpdateProduct(ctx context.Context, sessionID, id string, form forms.ProductForm, parseErrs forms.FieldErrors) Outcome {
	fields := forms.FieldErrors{}
	fields.Merge(parseErrs)
	fields.Merge(forms.Validate(form))
	ws := s.spaces.For(sessionID)
	return s.submit(ctx, sessionID, fields, mutation{
		action: "products.update:" + id,
		call: func(ctx context.Context) error {
			_, err := s.gw.UpdateProduct(ctx, id, gateway.PatchFromForm(form))
			return err
		},
		success: "Product updated successfully!",
		failure: "Failed to save product",
		after:   func(ctx context.Context) { revalidateProducts(ctx, ws) },
	})
}

// DeleteProduct removes a product. Deleting one that is already gone
// reports the backend's not-found error.
func (s *Service) DeleteProduct(ctx context.Context, sessionID, id, name string) Outcome {
	ws := s.spaces.For(sessionID)
	return s.submit(ctx, sessionID, nil, mutation{
		action:  "products.delete:" + id,
		call:    func(ctx context.Context) error { return s.gw.DeleteProduct(ctx, id) },
		success: deletedMessage(name, "Product"),
		failure: "Failed to delete product",
		after:   func(ctx context.Context) { revalidateProducts(ctx, ws) },
	})
}

func deletedMessage(name, fallback string) string {
	if name == "" {
		return fallback + " deleted successfully!"
	}
	return fmt.Sprintf("%q deleted successfully!", name)
}

// CategoriesView backs the category table.
type CategoriesView struct {
	Categories []domain.Category
	Loading    bool
	Err        error
}

// AdminCategories lists categories.
func (s *Service) AdminCategories(ctx context.Context, sessionID string) CategoriesView {
	snap := s.spaces.For(sessionID).Categories.Get(ctx, gateway.PathCategories)
	return CategoriesView{Categories: orEmpty(snap.Data), Loading: snap.IsLoading, Err: snap.Err}
}

func (s *Service) revalidateCategories(ctx context.Context, ws *Workspace) {
	ws.Store().Invalidate(gateway.PathCategories)
	ws.Categories.Mutate(ctx, gateway.PathCategories)
}

// SaveCategory creates a category when id is empty and updates it otherwise.
func (s *Service) SaveCategory(ctx context.Context, sessionID, id string, form forms.CategoryForm) Outcome {
	ws := s.spaces.For(sessionID)
	m := mutation{
		failure: "Failed to save category",
		after:   func(ctx context.Context) { s.revalidateCategories(ctx, ws) },
	}
	if id == "" {
		m.action = "categories.create"
		m.success = "Category created successfully!"
		m.call = func(ctx context.Context) error {
			_, err := s.gw.CreateCategory(ctx, form)
			return err
		}
	} else {
		m.action = "categories.update:" + id
		m.success = "Category updated successfully!"
		m.call = func(ctx context.Context) error {
			_, err := s.gw.UpdateCategory(ctx, id, form)
			return err
		}
	}
	return s.submit(ctx, sessionID, forms.Validate(form), m)
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, sessionID, id, name string) Outcome {
	ws := s.spaces.For(sessionID)
	return s.submit(ctx, sessionID, nil, mutation{
		action:  "categories.delete:" + id,
		call:    func(ctx context.Context) error { return s.gw.DeleteCategory(ctx, id) },
		success: deletedMessage(name, "Category"),
		failure: "Failed to delete category",
		after:   func(ctx context.Context) { s.revalidateCategories(ctx, ws) },
	})
}

// SuppliersView backs the supplier table.
type SuppliersView struct {
	Search    string
	Suppliers []domain.Supplier
	Loading   bool
	Err       error
}

// SuppliersKey is the cache key of a supplier search.
func SuppliersKey(search string) string {
	return swr.Key(gateway.PathSuppliers, gateway.SupplierQuery(search))
}

// AdminSuppliers lists suppliers filtered by name.
func (s *Service) AdminSuppliers(ctx context.Context, sessionID, search string) SuppliersView {
	snap := s.spaces.For(sessionID).Suppliers.Get(ctx, SuppliersKey(search))
	return SuppliersView{Search: search, Suppliers: orEmpty(snap.Data), Loading: snap.IsLoading, Err: snap.Err}
}

// SearchSuppliers debounces a live search. It returns debounce.ErrSuperseded
// when a newer keystroke overtook term.
func (s *Service) SearchSuppliers(ctx context.Context, sessionID, term string) (SuppliersView, error) {
	settled, err := s.spaces.For(sessionID).Search("suppliers").Settle(ctx, term)
	if err != nil {
		return SuppliersView{}, err
	}
	return s.AdminSuppliers(ctx, sessionID, settled), nil
}

func (s *Service) revalidateSuppliers(ctx context.Context, ws *Workspace) {
	ws.Store().Invalidate(gateway.PathSuppliers)
	ws.Suppliers.Mutate(ctx, gateway.PathSuppliers)
}

// SaveSupplier creates a supplier when id is empty and updates it otherwise.
func (s *Service) SaveSupplier(ctx context.Context, sessionID, id string, form forms.SupplierForm) Outcome {
	ws := s.spaces.For(sessionID)
	m := mutation{
		failure: "Failed to save supplier",
		after:   func(ctx context.Context) { s.revalidateSuppliers(ctx, ws) },
	}
	if id == "" {
		m.action = "suppliers.create"
		m.success = "Supplier created successfully!"
		m.call = func(ctx context.Context) error {
			_, err := s.gw.CreateSupplier(ctx, form)
			return err
		}
	} else {
		m.action = "suppliers.update:" + id
		m.success = "Supplier updated successfully!"
		m.call = func(ctx context.Context) error {
			_, err := s.gw.UpdateSupplier(ctx, id, form)
			return err
		}
	}
	return s.submit(ctx, sessionID, forms.Validate(form), m)
}

// DeleteSupplier removes a supplier.
func (s *Service) DeleteSupplier(ctx context.Context, sessionID, id, name string) Outcome {
	ws := s.spaces.For(sessionID)
	return s.submit(ctx, sessionID, nil, mutation{
		action:  "suppliers.delete:" + id,
		call:    func(ctx context.Context) error { return s.gw.DeleteSupplier(ctx, id) },
		success: deletedMessage(name, "Supplier"),
		failure: "Failed to delete supplier",
		after:   func(ctx context.Context) { s.revalidateSuppliers(ctx, ws) },
	})
}
