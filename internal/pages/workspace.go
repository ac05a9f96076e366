// Package pages holds the page models of the dashboard. Each model reads
// through the resource cache of the signed-in session and sends writes
// through the gateway, revalidating the affected keys afterwards.
package pages

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/odyssey-erp/stockroom/internal/debounce"
	"github.com/odyssey-erp/stockroom/internal/domain"
	"github.com/odyssey-erp/stockroom/internal/platform/clock"
	"github.com/odyssey-erp/stockroom/internal/swr"
)

// Reader performs an unwrapped GET against the backend.
type Reader interface {
	Fetch(ctx context.Context, path string, out any) error
}

func fetchJSON[T any](api Reader) swr.Fetcher[T] {
	return func(ctx context.Context, key string) (T, error) {
		var out T
		err := api.Fetch(ctx, key, &out)
		return out, err
	}
}

// Workspace is the cache of one signed-in session together with the
// resources that read through it.
type Workspace struct {
	store *swr.Store

	Products   *swr.Resource[[]domain.Product]
	Product    *swr.Resource[domain.Product]
	LowStock   *swr.Resource[[]domain.Product]
	Categories *swr.Resource[[]domain.Category]
	Suppliers  *swr.Resource[[]domain.Supplier]
	Users      *swr.Resource[[]domain.User]
	Orders     *swr.Resource[[]domain.Order]
	MyOrders   *swr.Resource[[]domain.Order]

	// BestSelling ranks products by units ordered.
	BestSelling *swr.Resource[[]domain.Product]

	searchWindow time.Duration
	clock        clock.Clock

	mu       sync.Mutex
	searches map[string]*debounce.SearchBox
	lastUsed time.Time
}

// Store exposes the underlying cache.
func (w *Workspace) Store() *swr.Store { return w.store }

// Search returns the search box of one list view.
func (w *Workspace) Search(view string) *debounce.SearchBox {
	w.mu.Lock()
	defer w.mu.Unlock()
	box, ok := w.searches[view]
	if !ok {
		box = debounce.NewSearchBox(w.searchWindow, debounce.WithClock(w.clock))
		w.searches[view] = box
	}
	return box
}

// WorkspaceConfig tunes every workspace.
type WorkspaceConfig struct {
	DedupeInterval time.Duration
	SearchWindow   time.Duration
	Metrics        *swr.Metrics
	Logger         *slog.Logger
	Clock          clock.Clock
	// OnCount receives the number of live workspaces once it has been
	// stable for a second.
	OnCount func(n int)
}

const countSettle = time.Second

// Workspaces maps session ids to their workspace. Caches are never shared
// between sessions, so one user's entities or credential cannot leak into
// another user's pages.
type Workspaces struct {
	api Reader
	cfg WorkspaceConfig

	mu    sync.Mutex
	items map[string]*Workspace
	count *debounce.Debouncer[int]
}

// NewWorkspaces constructs the registry.
func NewWorkspaces(api Reader, cfg WorkspaceConfig) *Workspaces {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewRealClock()
	}
	ws := &Workspaces{api: api, cfg: cfg, items: make(map[string]*Workspace)}
	if cfg.OnCount != nil {
		ws.count = debounce.New(countSettle, cfg.OnCount, debounce.WithClock(cfg.Clock))
	}
	return ws
}

// counted reports the size change. Callers hold mu.
func (ws *Workspaces) counted() {
	if ws.count != nil {
		ws.count.Trigger(len(ws.items))
	}
}

// For returns the workspace of sessionID, creating it on first use. The
// empty id gets a throwaway workspace.
func (ws *Workspaces) For(sessionID string) *Workspace {
	if sessionID == "" {
		return ws.build()
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, ok := ws.items[sessionID]
	if !ok {
		w = ws.build()
		ws.items[sessionID] = w
		ws.counted()
	}
	w.mu.Lock()
	w.lastUsed = ws.cfg.Clock.Now()
	w.mu.Unlock()
	return w
}

// Drop forgets the workspace of sessionID.
func (ws *Workspaces) Drop(sessionID string) {
	ws.mu.Lock()
	w, ok := ws.items[sessionID]
	delete(ws.items, sessionID)
	if ok {
		ws.counted()
	}
	ws.mu.Unlock()
	if ok {
		w.store.Clear()
	}
}

// Sweep drops workspaces unused for longer than idle and returns how many
// were dropped.
func (ws *Workspaces) Sweep(idle time.Duration) int {
	cutoff := ws.cfg.Clock.Now().Add(-idle)
	ws.mu.Lock()
	defer ws.mu.Unlock()
	n := 0
	for id, w := range ws.items {
		w.mu.Lock()
		stale := w.lastUsed.Before(cutoff)
		w.mu.Unlock()
		if stale {
			delete(ws.items, id)
			w.store.Clear()
			n++
		}
	}
	if n > 0 {
		ws.counted()
	}
	return n
}

// Len returns the number of live workspaces.
func (ws *Workspaces) Len() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.items)
}

func (ws *Workspaces) build() *Workspace {
	cfg := ws.cfg
	store := swr.NewStore(
		swr.WithClock(cfg.Clock.Now),
		swr.WithMetrics(cfg.Metrics),
		swr.WithLogger(cfg.Logger),
	)
	dedupe := swr.WithDedupeInterval(swr.DefaultDedupeInterval)
	if cfg.DedupeInterval > 0 {
		dedupe = swr.WithDedupeInterval(cfg.DedupeInterval)
	}
	return &Workspace{
		store:       store,
		Products:    swr.NewResource(store, "products", fetchJSON[[]domain.Product](ws.api), dedupe),
		Product:     swr.NewResource(store, "product", fetchJSON[domain.Product](ws.api), dedupe),
		LowStock:    swr.NewResource(store, "products_low_stock", fetchJSON[[]domain.Product](ws.api), dedupe),
		BestSelling: swr.NewResource(store, "products_best_selling", fetchJSON[[]domain.Product](ws.api), dedupe),
		Categories:  swr.NewResource(store, "categories", fetchJSON[[]domain.Category](ws.api), dedupe),
		Suppliers:   swr.NewResource(store, "suppliers", fetchJSON[[]domain.Supplier](ws.api), dedupe),
		Users:       swr.NewResource(store, "users", fetchJSON[[]domain.User](ws.api), dedupe),
		// The admin order queue must always show fresh data.
		Orders:       swr.NewResource(store, "orders", fetchJSON[[]domain.Order](ws.api), swr.WithDedupeInterval(0)),
		MyOrders:     swr.NewResource(store, "my_orders", fetchJSON[[]domain.Order](ws.api), dedupe),
		searchWindow: cfg.SearchWindow,
		clock:        cfg.Clock,
		searches:     make(map[string]*debounce.SearchBox),
	}
}
