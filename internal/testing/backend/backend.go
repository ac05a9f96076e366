// Package backend runs an in-memory inventory API for tests. It speaks the
// same envelope and field conventions as the real service.
package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/stockroom/internal/domain"
)

// Prefix is the API mount point.
const Prefix = "/api/v1"

// LowStockThreshold mirrors the backend's low stock report.
const LowStockThreshold = 10

// Server is a fake backend. All fields are guarded by mu.
type Server struct {
	srv *httptest.Server

	mu         sync.Mutex
	seq        int
	products   map[string]domain.Product
	categories map[string]domain.Category
	suppliers  map[string]domain.Supplier
	users      map[string]domain.User
	passwords  map[string]string
	orders     map[string]domain.Order
	tokens     map[string]string
	hits       map[string]int
	bodies     map[string][]map[string]any
	faults     map[string]fault
	now        time.Time
}

type fault struct {
	status  int
	message string
	fields  map[string][]string
}

// New starts a fake backend that is closed with the test.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		products:   make(map[string]domain.Product),
		categories: make(map[string]domain.Category),
		suppliers:  make(map[string]domain.Supplier),
		users:      make(map[string]domain.User),
		passwords:  make(map[string]string),
		orders:     make(map[string]domain.Order),
		tokens:     make(map[string]string),
		hits:       make(map[string]int),
		bodies:     make(map[string][]map[string]any),
		faults:     make(map[string]fault),
		now:        time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}
	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the base URL to configure the API client with.
func (s *Server) URL() string { return s.srv.URL + Prefix }

// Hits returns how often method and path (without prefix or query) were
// requested.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// Bodies returns the decoded JSON bodies sent to method and path.
func (s *Server) Bodies(method, path string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.bodies[method+" "+path]...)
}

// FailNext makes the next request to method and path answer with status,
// message and field errors instead of reaching its handler.
func (s *Server) FailNext(method, path string, status int, message string, fields map[string][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+path] = fault{status: status, message: message, fields: fields}
}

func (s *Server) nextID() string {
	s.seq++
	return strconv.Itoa(s.seq)
}

func (s *Server) tick() time.Time {
	s.now = s.now.Add(time.Minute)
	return s.now
}

// AddUser registers an account with a password and returns it.
func (s *Server) AddUser(name, email, password string, role domain.Role) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := domain.User{ID: s.nextID(), Name: name, Email: email, Role: role, CreatedAt: s.tick()}
	s.users[u.ID] = u
	s.passwords[email] = password
	return u
}

// IssueToken returns a valid bearer token for user.
func (s *Server) IssueToken(user domain.User) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := "tok-" + s.nextID()
	s.tokens[token] = user.ID
	return token
}

// RevokeTokens makes every issued token invalid.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	s.tokens = make(map[string]string)
	s.mu.Unlock()
}

// AddCategory stores a category.
func (s *Server) AddCategory(name string) domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := domain.Category{ID: s.nextID(), Name: name, CreatedAt: s.tick()}
	s.categories[c.ID] = c
	return c
}

// AddProduct stores a product.
func (s *Server) AddProduct(name, sku string, price string, qty int, categoryID string) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := domain.Product{
		ID: s.nextID(), Name: name, SKU: sku, Price: decimal.RequireFromString(price),
		Quantity: qty, CategoryID: categoryID, CreatedAt: s.tick(),
	}
	s.products[p.ID] = p
	return p
}

// AddSupplier stores a supplier.
func (s *Server) AddSupplier(name, email string) domain.Supplier {
	s.mu.Lock()
	defer s.mu.Unlock()
	sup := domain.Supplier{ID: s.nextID(), Name: name, Email: email, CreatedAt: s.tick()}
	s.suppliers[sup.ID] = sup
	return sup
}

// AddOrder stores an order placed by userID.
func (s *Server) AddOrder(userID string, status domain.OrderStatus, total string) domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := domain.Order{ID: s.nextID(), UserID: userID, Status: status, TotalPrice: decimal.RequireFromString(total), CreatedAt: s.tick()}
	s.orders[o.ID] = o
	return o
}

// Product returns the stored product.
func (s *Server) Product(id string) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	return p, ok
}

// Order returns the stored order.
func (s *Server) Order(id string) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	return o, ok
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Route(Prefix, func(r chi.Router) {
		r.Post("/auth/login", s.login)
		r.Post("/auth/register", s.register)
		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Post("/auth/logout", s.logout)
			r.Get("/auth/me", s.me)
			r.Put("/auth/profile", s.updateProfile)
			r.Post("/auth/change-password", s.changePassword)

			r.Get("/products", s.listProducts)
			r.Post("/products", s.createProduct)
			r.Get("/products/stats/low-stock", s.lowStock)
			r.Get("/products/stats/best-selling", s.bestSelling)
			r.Get("/products/{id}", s.getProduct)
			r.Put("/products/{id}", s.updateProduct)
			r.Delete("/products/{id}", s.deleteProduct)

			r.Get("/categories", s.listCategories)
			r.Post("/categories", s.saveCategory)
			r.Put("/categories/{id}", s.saveCategory)
			r.Delete("/categories/{id}", s.deleteCategory)

			r.Get("/suppliers", s.listSuppliers)
			r.Post("/suppliers", s.saveSupplier)
			r.Put("/suppliers/{id}", s.saveSupplier)
			r.Delete("/suppliers/{id}", s.deleteSupplier)

			r.Get("/users", s.listUsers)
			r.Post("/users", s.createUser)
			r.Delete("/users/{id}", s.deleteUser)

			r.Get("/orders", s.listOrders)
			r.Get("/orders/my-orders", s.myOrders)
			r.Post("/orders", s.createOrder)
			r.Put("/orders/{id}", s.updateOrder)
		})
	})
	return r
}

type ctxUser struct{}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, Prefix)
		var body map[string]any
		if r.Body != nil && r.ContentLength != 0 {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		s.mu.Lock()
		s.hits[key]++
		if body != nil {
			s.bodies[key] = append(s.bodies[key], body)
		}
		f, faulty := s.faults[key]
		delete(s.faults, key)
		s.mu.Unlock()
		if faulty {
			fail(w, f.status, f.message, f.fields)
			return
		}
		r = r.WithContext(withBody(r.Context(), body))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		userID, ok := s.tokens[token]
		user := s.users[userID]
		s.mu.Unlock()
		if !ok {
			fail(w, http.StatusUnauthorized, "Unauthenticated.", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func respond(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": message, "data": data})
}

// paginated wraps a list the way the backend's paginated resources do.
func paginated(w http.ResponseWriter, items any, total int) {
	respond(w, http.StatusOK, "ok", map[string]any{
		"data":  items,
		"meta":  map[string]any{"current_page": 1, "total": total},
		"links": map[string]any{},
	})
}

func fail(w http.ResponseWriter, status int, message string, fields map[string][]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"success": false, "message": message}
	if fields != nil {
		body["errors"] = fields
	}
	_ = json.NewEncoder(w).Encode(body)
}

func str(body map[string]any, key string) (string, bool) {
	v, present := body[key]
	if !present {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case nil:
		return "", true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return fmt.Sprint(v), true
}

func num(body map[string]any, key string) (float64, bool) {
	v, ok := body[key].(float64)
	return v, ok
}

func sortedByID[T any](m map[string]T, id func(T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(id(out[i]))
		b, _ := strconv.Atoi(id(out[j]))
		return a < b
	})
	return out
}
