package forms

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductForm is the create/edit product dialog.
type ProductForm struct {
	Name        string          `form:"name" validate:"required,max=100"`
	SKU         string          `form:"sku" validate:"required,max=50"`
	Description string          `form:"description" validate:"max=500"`
	Price       decimal.Decimal `form:"price" validate:"gt=0"`
	Quantity    int             `form:"quantity" validate:"min=0"`
	CategoryID  string          `form:"categoryId" validate:"required"`
	SupplierID  string          `form:"supplierId"`
	ImageURL    string          `form:"imageUrl" validate:"omitempty,url"`
}

func (ProductForm) messages() map[string]string {
	return map[string]string{
		"name.required":       "Product name is required",
		"name.max":            "Name too long",
		"sku.required":        "SKU is required",
		"sku.max":             "SKU too long",
		"description.max":     "Description too long",
		"price.gt":            "Price must be positive",
		"quantity.min":        "Quantity cannot be negative",
		"categoryId.required": "Category is required",
		"imageUrl.url":        "Invalid URL",
	}
}

// ParseProductForm reads a submitted product form. A missing quantity and
// values that cannot be parsed as numbers are reported in the returned
// FieldErrors.
func ParseProductForm(values url.Values) (ProductForm, FieldErrors) {
	form := ProductForm{
		Name:        strings.TrimSpace(values.Get("name")),
		SKU:         strings.TrimSpace(values.Get("sku")),
		Description: strings.TrimSpace(values.Get("description")),
		CategoryID:  values.Get("categoryId"),
		SupplierID:  values.Get("supplierId"),
		ImageURL:    strings.TrimSpace(values.Get("imageUrl")),
	}
	errs := FieldErrors{}
	if raw := strings.TrimSpace(values.Get("price")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			errs.Add("price", "Price must be a number")
		}
		form.Price = price
	}
	if raw := strings.TrimSpace(values.Get("quantity")); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			errs.Add("quantity", "Quantity must be whole number")
		}
		form.Quantity = qty
	} else {
		errs.Add("quantity", "Quantity is required")
	}
	return form, errs
}

// CategoryForm is the create/edit category dialog.
type CategoryForm struct {
	Name        string `form:"name" validate:"required,max=50"`
	Description string `form:"description" validate:"max=200"`
}

func (CategoryForm) messages() map[string]string {
	return map[string]string{
		"name.required":   "Category name is required",
		"name.max":        "Name too long",
		"description.max": "Description too long",
	}
}

// ParseCategoryForm reads a submitted category form.
func ParseCategoryForm(values url.Values) CategoryForm {
	return CategoryForm{
		Name:        strings.TrimSpace(values.Get("name")),
		Description: strings.TrimSpace(values.Get("description")),
	}
}

// SupplierForm is the create/edit supplier dialog.
type SupplierForm struct {
	Name    string `form:"name" validate:"required,max=255"`
	Email   string `form:"email" validate:"required,email"`
	Phone   string `form:"phone"`
	Address string `form:"address"`
}

func (SupplierForm) messages() map[string]string {
	return map[string]string{
		"name.required": "Name is required",
		"name.max":      "Name is too long",
		"email":         "Valid email is required",
	}
}

// ParseSupplierForm reads a submitted supplier form.
func ParseSupplierForm(values url.Values) SupplierForm {
	return SupplierForm{
		Name:    strings.TrimSpace(values.Get("name")),
		Email:   strings.TrimSpace(values.Get("email")),
		Phone:   strings.TrimSpace(values.Get("phone")),
		Address: strings.TrimSpace(values.Get("address")),
	}
}
