package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// OrderStatus is the lifecycle state of a purchase order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusCompleted OrderStatus = "completed"
)

// ErrInvalidTransition is returned when a status change is not allowed from the current status.
var ErrInvalidTransition = errors.New("invalid order status transition")

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:  {OrderStatusApproved, OrderStatusRejected},
	OrderStatusApproved: {OrderStatusCompleted},
}

// OrderStatuses lists every status in display order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusPending, OrderStatusApproved, OrderStatusRejected, OrderStatusCompleted}
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusApproved, OrderStatusRejected, OrderStatusCompleted:
		return true
	}
	return false
}

// Label returns the human readable status name.
func (s OrderStatus) Label() string {
	return cases.Title(language.English).String(string(s))
}

// NextStatuses returns the statuses an order may be moved to from s.
func (s OrderStatus) NextStatuses() []OrderStatus {
	return append([]OrderStatus(nil), orderTransitions[s]...)
}

// CanTransitionTo reports whether the backend accepts a move from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CheckTransition returns ErrInvalidTransition when s cannot move to next.
func (s OrderStatus) CheckTransition(next OrderStatus) error {
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return nil
}

// OrderItem is one product line of an order.
type OrderItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Product   *Product        `json:"product,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// LineTotal returns the item subtotal, computing quantity x price when the
// backend omitted it.
func (i OrderItem) LineTotal() decimal.Decimal {
	if !i.Subtotal.IsZero() {
		return i.Subtotal
	}
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a purchase request placed by a user.
type Order struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	User        *User            `json:"user,omitempty"`
	Items       []OrderItem      `json:"items"`
	TotalPrice  decimal.Decimal  `json:"totalPrice"`
	TotalAmount *decimal.Decimal `json:"totalAmount,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	Address     string           `json:"address,omitempty"`
	Status      OrderStatus      `json:"status"`
	StatusLabel string           `json:"statusLabel,omitempty"`
	StatusColor string           `json:"statusColor,omitempty"`
	OrderDate   time.Time        `json:"orderDate"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Total returns the order total as reported by the backend, or the sum of
// item subtotals when no total was sent.
func (o Order) Total() decimal.Decimal {
	if !o.TotalPrice.IsZero() {
		return o.TotalPrice
	}
	if o.TotalAmount != nil && !o.TotalAmount.IsZero() {
		return *o.TotalAmount
	}
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// DisplayStatus prefers the backend label over the derived one.
func (o Order) DisplayStatus() string {
	if o.StatusLabel != "" {
		return o.StatusLabel
	}
	return o.Status.Label()
}
