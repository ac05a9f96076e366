// Package seed fills an empty inventory API with a demo catalog through the
// same gateway the dashboard uses.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/stockroom/internal/domain"
	"github.com/odyssey-erp/stockroom/internal/forms"
	"github.com/odyssey-erp/stockroom/internal/gateway"
)

// Reader lists existing records.
type Reader interface {
	Fetch(ctx context.Context, path string, out any) error
}

// ProductSeed is a product whose category and supplier are named instead of
// referenced by id.
type ProductSeed struct {
	Category string
	Supplier string
	Form     forms.ProductForm
}

// Catalog is the data to load.
type Catalog struct {
	Users      []forms.UserForm
	Categories []forms.CategoryForm
	Suppliers  []forms.SupplierForm
	Products   []ProductSeed
}

// Report counts what a run did.
type Report struct {
	Created int
	Skipped int
}

// Seeder loads a Catalog. Records that already exist, matched by email, name
// or SKU, are left alone so a run can be repeated.
type Seeder struct {
	api    Reader
	gw     *gateway.Gateway
	logger *slog.Logger
}

// New constructs a Seeder. ctx passed to Run must carry an admin credential.
func New(api Reader, gw *gateway.Gateway, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{api: api, gw: gw, logger: logger}
}

// Run loads catalog in dependency order.
func (s *Seeder) Run(ctx context.Context, catalog Catalog) (Report, error) {
	var report Report

	s.logger.Info("seeding users")
	if err := s.seedUsers(ctx, catalog.Users, &report); err != nil {
		return report, fmt.Errorf("seed users: %w", err)
	}

	s.logger.Info("seeding categories")
	categories, err := s.seedCategories(ctx, catalog.Categories, &report)
	if err != nil {
		return report, fmt.Errorf("seed categories: %w", err)
	}

	s.logger.Info("seeding suppliers")
	suppliers, err := s.seedSuppliers(ctx, catalog.Suppliers, &report)
	if err != nil {
		return report, fmt.Errorf("seed suppliers: %w", err)
	}

	s.logger.Info("seeding products")
	if err := s.seedProducts(ctx, catalog.Products, categories, suppliers, &report); err != nil {
		return report, fmt.Errorf("seed products: %w", err)
	}
	return report, nil
}

// =============================================================================
// USERS
// =============================================================================

func (s *Seeder) seedUsers(ctx context.Context, users []forms.UserForm, report *Report) error {
	var existing []domain.User
	if err := s.api.Fetch(ctx, gateway.PathUsers, &existing); err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, u := range existing {
		known[strings.ToLower(u.Email)] = true
	}
	for _, form := range users {
		if known[strings.ToLower(form.Email)] {
			report.Skipped++
			continue
		}
		if errs := forms.Validate(form); !errs.Empty() {
			return fmt.Errorf("user %s: %v", form.Email, errs)
		}
		if _, err := s.gw.CreateUser(ctx, form); err != nil {
			return fmt.Errorf("user %s: %w", form.Email, err)
		}
		report.Created++
	}
	return nil
}

// =============================================================================
// CATALOG
// =============================================================================

func (s *Seeder) seedCategories(ctx context.Context, categories []forms.CategoryForm, report *Report) (map[string]string, error) {
	var existing []domain.Category
	if err := s.api.Fetch(ctx, gateway.PathCategories, &existing); err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(existing)+len(categories))
	for _, c := range existing {
		ids[strings.ToLower(c.Name)] = c.ID
	}
	for _, form := range categories {
		if _, ok := ids[strings.ToLower(form.Name)]; ok {
			report.Skipped++
			continue
		}
		created, err := s.gw.CreateCategory(ctx, form)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", form.Name, err)
		}
		ids[strings.ToLower(created.Name)] = created.ID
		report.Created++
	}
	return ids, nil
}

func (s *Seeder) seedSuppliers(ctx context.Context, suppliers []forms.SupplierForm, report *Report) (map[string]string, error) {
	var existing []domain.Supplier
	if err := s.api.Fetch(ctx, gateway.PathSuppliers, &existing); err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(existing)+len(suppliers))
	for _, sup := range existing {
		ids[strings.ToLower(sup.Name)] = sup.ID
	}
	for _, form := range suppliers {
		if _, ok := ids[strings.ToLower(form.Name)]; ok {
			report.Skipped++
			continue
		}
		created, err := s.gw.CreateSupplier(ctx, form)
		if err != nil {
			return nil, fmt.Errorf("supplier %s: %w", form.Name, err)
		}
		ids[strings.ToLower(created.Name)] = created.ID
		report.Created++
	}
	return ids, nil
}

func (s *Seeder) seedProducts(ctx context.Context, products []ProductSeed, categories, suppliers map[string]string, report *Report) error {
	var existing []domain.Product
	if err := s.api.Fetch(ctx, gateway.PathProducts, &existing); err != nil {
		return err
	}
	skus := make(map[string]bool, len(existing))
	for _, p := range existing {
		skus[strings.ToUpper(p.SKU)] = true
	}
	for _, seed := range products {
		form := seed.Form
		if skus[strings.ToUpper(form.SKU)] {
			report.Skipped++
			continue
		}
		categoryID, ok := categories[strings.ToLower(seed.Category)]
		if !ok {
			return fmt.Errorf("product %s: unknown category %q", form.SKU, seed.Category)
		}
		form.CategoryID = categoryID
		if seed.Supplier != "" {
			supplierID, ok := suppliers[strings.ToLower(seed.Supplier)]
			if !ok {
				return fmt.Errorf("product %s: unknown supplier %q", form.SKU, seed.Supplier)
			}
			form.SupplierID = supplierID
		}
		if errs := forms.Validate(form); !errs.Empty() {
			return fmt.Errorf("product %s: %v", form.SKU, errs)
		}
		if _, err := s.gw.CreateProduct(ctx, form); err != nil {
			return fmt.Errorf("product %s: %w", form.SKU, err)
		}
		skus[strings.ToUpper(form.SKU)] = true
		report.Created++
	}
	return nil
}

// DefaultCatalog is a small hardware store.
func DefaultCatalog() Catalog {
	product := func(category, supplier, name, sku, price string, qty int) ProductSeed {
		return ProductSeed{
			Category: category,
			Supplier: supplier,
			Form: forms.ProductForm{
				Name:     name,
				SKU:      sku,
				Price:    decimal.RequireFromString(price),
				Quantity: qty,
			},
		}
	}
	return Catalog{
		Users: []forms.UserForm{
			{Name: "Demo Customer", Email: "customer@stockroom.test", Password: "password123", PasswordConfirmation: "password123", Role: string(domain.RoleUser)},
		},
		Categories: []forms.CategoryForm{
			{Name: "Hand Tools", Description: "Hammers, wrenches and screwdrivers"},
			{Name: "Fasteners", Description: "Screws, nails and anchors"},
			{Name: "Safety", Description: "Gloves, glasses and ear protection"},
		},
		Suppliers: []forms.SupplierForm{
			{Name: "Globex Supply", Email: "orders@globex.test", Phone: "+1 555 0100"},
			{Name: "Initech Hardware", Email: "sales@initech.test", Address: "4120 Freidrich Ln"},
		},
		Products: []ProductSeed{
			product("Hand Tools", "Globex Supply", "Claw Hammer 16oz", "HT-HAM-16", "18.90", 42),
			product("Hand Tools", "Globex Supply", "Adjustable Wrench 10in", "HT-WR-10", "24.50", 17),
			product("Hand Tools", "", "Screwdriver Set (6 pc)", "HT-SD-6", "15.00", 8),
			product("Fasteners", "Initech Hardware", "Wood Screws 4x40 (200)", "FS-WS-440", "6.75", 120),
			product("Fasteners", "Initech Hardware", "Wall Anchors 8mm (50)", "FS-WA-8", "4.20", 3),
			product("Safety", "Globex Supply", "Nitrile Gloves (100)", "SF-GL-100", "12.99", 0),
		},
	}
}
