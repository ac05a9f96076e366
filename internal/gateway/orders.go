package gateway

import (
	"context"

	"github.com/odyssey-erp/stockroom/internal/domain"
	"github.com/odyssey-erp/stockroom/internal/forms"
)

type orderItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type orderPayload struct {
	Items []orderItemPayload `json:"items"`
	Notes string             `json:"notes,omitempty"`
}

// CreateOrder places a purchase order for the signed-in user.
func (g *Gateway) CreateOrder(ctx context.Context, form forms.OrderRequestForm) (domain.Order, error) {
	payload := orderPayload{Notes: form.Notes, Items: make([]orderItemPayload, 0, len(form.Items))}
	for _, item := range form.Items {
		payload.Items = append(payload.Items, orderItemPayload{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	var order domain.Order
	err := g.create(ctx, PathOrders, payload, &order)
	return order, err
}

// UpdateOrderStatus requests a status change. The server decides whether the
// transition is allowed.
func (g *Gateway) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	var order domain.Order
	err := g.update(ctx, OrderPath(id), map[string]domain.OrderStatus{"status": status}, &order)
	return order, err
}
