package pages

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/stockroom/internal/apiclient"
	"github.com/odyssey-erp/stockroom/internal/domain"
	"github.com/odyssey-erp/stockroom/internal/gateway"
)

const dashboardListSize = 5

// DashboardStats are the admin overview figures.
type DashboardStats struct {
	TotalProducts int
	Categories    int
	LowStock      int
	Users         int
	TotalOrders   int
	PendingOrders int
	Revenue       decimal.Decimal
}

// DashboardView backs the admin overview. BestSelling is set when
// TopProducts comes from the sales ranking instead of the stock levels.
type DashboardView struct {
	Stats         DashboardStats
	RecentOrders  []domain.Order
	TopProducts   []domain.Product
	BestSelling   bool
	LowStockItems []domain.Product
	Loading       bool
	Err           error
}

// AdminDashboard aggregates the overview from the entity lists.
func (s *Service) AdminDashboard(ctx context.Context, sessionID string) DashboardView {
	ws := s.spaces.For(sessionID)
	products := ws.Products.Get(ctx, ProductsKey(gateway.ProductQuery{}))
	categories := ws.Categories.Get(ctx, gateway.PathCategories)
	users := ws.Users.Get(ctx, gateway.PathUsers)
	lowStock := ws.LowStock.Get(ctx, gateway.PathProductsLowStock)
	bestSelling := ws.BestSelling.Get(ctx, gateway.PathProductsBestSelling)
	orders := ws.Orders.Get(ctx, gateway.PathOrders)

	view := BuildDashboard(orEmpty(products.Data), orEmpty(categories.Data), orEmpty(users.Data), orEmpty(lowStock.Data), orEmpty(orders.Data))
	// The ranking is optional; without it the stock ordering stays.
	if best := orEmpty(bestSelling.Data); len(best) > 0 {
		view.TopProducts = head(best, dashboardListSize)
		view.BestSelling = true
	} else if bestSelling.Err != nil && !apiclient.IsUnauthorized(bestSelling.Err) {
		s.logger.Warn("best selling products", slog.Any("error", bestSelling.Err))
	}
	view.Loading = products.IsLoading || categories.IsLoading || users.IsLoading || lowStock.IsLoading || orders.IsLoading
	view.Err = firstErr(products.Err, categories.Err, users.Err, lowStock.Err, orders.Err)
	return view
}

// BuildDashboard computes the overview. Revenue counts completed orders only.
// The product highlight lists the five products with the least stock first.
func BuildDashboard(products []domain.Product, categories []domain.Category, users []domain.User, lowStock []domain.Product, orders []domain.Order) DashboardView {
	stats := DashboardStats{
		TotalProducts: len(products),
		Categories:    len(categories),
		LowStock:      len(lowStock),
		Users:         len(users),
		TotalOrders:   len(orders),
		Revenue:       decimal.Zero,
	}
	for _, o := range orders {
		switch o.Status {
		case domain.OrderStatusPending:
			stats.PendingOrders++
		case domain.OrderStatusCompleted:
			stats.Revenue = stats.Revenue.Add(o.Total())
		}
	}

	recent := append([]domain.Order(nil), orders...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })

	top := append([]domain.Product(nil), products...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Quantity < top[j].Quantity })

	return DashboardView{
		Stats:         stats,
		RecentOrders:  head(recent, dashboardListSize),
		TopProducts:   head(top, dashboardListSize),
		LowStockItems: head(lowStock, dashboardListSize),
	}
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
