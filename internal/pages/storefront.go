package pages

import (
	"context"

	"github.com/odyssey-erp/stockroom/internal/gateway"
)

// StorefrontSearch names the search box of the user product catalog.
const StorefrontSearch = "storefront"

// UserProducts lists the catalog for ordering.
func (s *Service) UserProducts(ctx context.Context, sessionID string, q gateway.ProductQuery) ProductsView {
	ws := s.spaces.For(sessionID)
	products := ws.Products.Get(ctx, ProductsKey(q))
	categories := ws.Categories.Get(ctx, gateway.PathCategories)
	return ProductsView{
		Query:      q,
		Products:   orEmpty(products.Data),
		Categories: orEmpty(categories.Data),
		Loading:    products.IsLoading || categories.IsLoading,
		Err:        firstErr(products.Err, categories.Err),
	}
}

// SearchUserProducts debounces a live catalog search. Only the last request
// of a burst of keystrokes reaches the backend; earlier ones get
// debounce.ErrSuperseded.
func (s *Service) SearchUserProducts(ctx context.Context, sessionID string, q gateway.ProductQuery) (ProductsView, error) {
	settled, err := s.spaces.For(sessionID).Search(StorefrontSearch).Settle(ctx, q.Search)
	if err != nil {
		return ProductsView{}, err
	}
	q.Search = settled
	return s.UserProducts(ctx, sessionID, q), nil
}
