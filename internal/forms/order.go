package forms

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/odyssey-erp/stockroom/internal/domain"
)

// OrderItemForm is one requested product line.
type OrderItemForm struct {
	ProductID string `form:"productId" validate:"required"`
	Quantity  int    `form:"quantity" validate:"min=1"`
}

// OrderRequestForm places a purchase order.
type OrderRequestForm struct {
	Items []OrderItemForm `form:"items" validate:"min=1,dive"`
	Notes string          `form:"notes"`
}

func (OrderRequestForm) messages() map[string]string {
	return map[string]string{
		"items.min":          "At least one item is required",
		"productId.required": "Product is required",
		"quantity.min":       "Quantity must be at least 1",
	}
}

// ParseOrderRequestForm reads the single-product order dialog.
func ParseOrderRequestForm(values url.Values) (OrderRequestForm, FieldErrors) {
	errs := FieldErrors{}
	item := OrderItemForm{ProductID: values.Get("productId")}
	if raw := strings.TrimSpace(values.Get("quantity")); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			errs.Add("items[0].quantity", "Quantity must be whole number")
		}
		item.Quantity = qty
	}
	return OrderRequestForm{
		Items: []OrderItemForm{item},
		Notes: strings.TrimSpace(values.Get("notes")),
	}, errs
}

// ValidateAgainstStock rejects any line whose quantity exceeds the available
// stock of its product. Ordering exactly the available stock is allowed.
// Lines whose product is unknown are left to the backend.
func ValidateAgainstStock(form OrderRequestForm, products map[string]domain.Product) FieldErrors {
	errs := FieldErrors{}
	for i, item := range form.Items {
		product, ok := products[item.ProductID]
		if !ok || item.Quantity <= product.Quantity {
			continue
		}
		errs.Add(fmt.Sprintf("items[%d].quantity", i),
			fmt.Sprintf("Cannot exceed available stock (%d)", product.Quantity))
	}
	if errs.Empty() {
		return nil
	}
	return errs
}
