package pages

import (
	"context"
	"errors"
	"fmt"

	"github.com/odyssey-erp/stockroom/internal/domain"
	"github.com/odyssey-erp/stockroom/internal/forms"
	"github.com/odyssey-erp/stockroom/internal/gateway"
)

// OrdersView backs the order tables.
type OrdersView struct {
	Status  domain.OrderStatus
	Orders  []domain.Order
	Loading bool
	Err     error
}

// AdminOrders lists every order, optionally narrowed to one status. The
// list always revalidates.
func (s *Service) AdminOrders(ctx context.Context, sessionID string, status domain.OrderStatus) OrdersView {
	snap := s.spaces.For(sessionID).Orders.Get(ctx, gateway.PathOrders)
	orders := orEmpty(snap.Data)
	if status.Valid() {
		orders = filterOrders(orders, status)
	} else {
		status = ""
	}
	return OrdersView{Status: status, Orders: orders, Loading: snap.IsLoading, Err: snap.Err}
}

func filterOrders(orders []domain.Order, status domain.OrderStatus) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

var transitionMessages = map[domain.OrderStatus]string{
	domain.OrderStatusPending:   "set to pending",
	domain.OrderStatusApproved:  "approved",
	domain.OrderStatusRejected:  "rejected",
	domain.OrderStatusCompleted: "marked as completed",
}

// UpdateOrderStatus asks the backend to move an order. A transition the
// cached order cannot make is refused locally; the new status is shown only
// after the backend confirmed it and the list was refetched.
func (s *Service) UpdateOrderStatus(ctx context.Context, sessionID, id string, next domain.OrderStatus) Outcome {
	ws := s.spaces.For(sessionID)
	if !next.Valid() {
		return Outcome{Fields: forms.FieldErrors{"status": "Unknown order status"}}
	}
	if current, ok := findOrder(ws.Orders.Peek(gateway.PathOrders).Data, id); ok {
		if err := current.Status.CheckTransition(next); err != nil {
			return Outcome{Notice: Notice{Kind: NoticeError, Message: "Failed to update order status"}, Err: err}
		}
	}
	msg := transitionMessages[next]
	return s.submit(ctx, sessionID, nil, mutation{
		action: "orders.status:" + id,
		call: func(ctx context.Context) error {
			_, err := s.gw.UpdateOrderStatus(ctx, id, next)
			return err
		},
		success: fmt.Sprintf("Order %s successfully!", msg),
		failure: "Failed to update order status",
		after: func(ctx context.Context) {
			ws.Orders.Mutate(ctx, gateway.PathOrders)
			ws.Store().Invalidate(gateway.PathMyOrders)
			// Approving or completing an order can move stock.
			ws.Store().Invalidate(gateway.PathProducts)
		},
	})
}

func findOrder(orders []domain.Order, id string) (domain.Order, bool) {
	for _, o := range orders {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}

// MyOrders lists the signed-in user's orders.
func (s *Service) MyOrders(ctx context.Context, sessionID string) OrdersView {
	snap := s.spaces.For(sessionID).MyOrders.Get(ctx, gateway.PathMyOrders)
	return OrdersView{Orders: orEmpty(snap.Data), Loading: snap.IsLoading, Err: snap.Err}
}

// ErrProductUnavailable is returned when the ordered product could not be
// loaded for the stock check.
var ErrProductUnavailable = errors.New("product unavailable")

// PlaceOrder validates the requested quantity against the product's stock
// and submits the order. On success the product list and the user's orders
// are refetched so the new stock level shows at once.
func (s *Service) PlaceOrder(ctx context.Context, sessionID string, form forms.OrderRequestForm, parseErrs forms.FieldErrors) Outcome {
	fields := forms.FieldErrors{}
	fields.Merge(parseErrs)
	fields.Merge(forms.Validate(form))
	ws := s.spaces.For(sessionID)

	if fields.Empty() {
		stock := make(map[string]domain.Product, len(form.Items))
		for _, item := range form.Items {
			snap := ws.Product.Get(ctx, gateway.ProductPath(item.ProductID))
			if !snap.HasData {
				err := snap.Err
				if err == nil {
					err = ErrProductUnavailable
				}
				return Outcome{Notice: Notice{Kind: NoticeError, Message: failureMessage(err, "Failed to place order")}, Err: err}
			}
			stock[item.ProductID] = snap.Data
		}
		fields.Merge(forms.ValidateAgainstStock(form, stock))
	}

	return s.submit(ctx, sessionID, fields, mutation{
		action: "orders.create",
		call: func(ctx context.Context) error {
			_, err := s.gw.CreateOrder(ctx, form)
			return err
		},
		success: "Order placed successfully!",
		failure: "Failed to place order",
		after: func(ctx context.Context) {
			revalidateProducts(ctx, ws)
			ws.MyOrders.Mutate(ctx, gateway.PathMyOrders)
			ws.Store().Invalidate(gateway.PathOrders)
		},
	})
}
