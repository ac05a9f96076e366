package backend

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/stockroom/internal/domain"
)

type bodyKey struct{}

func withBody(ctx context.Context, body map[string]any) context.Context {
	return context.WithValue(ctx, bodyKey{}, body)
}

func bodyOf(r *http.Request) map[string]any {
	body, _ := r.Context().Value(bodyKey{}).(map[string]any)
	if body == nil {
		return map[string]any{}
	}
	return body
}

func withUser(ctx context.Context, u domain.User) context.Context {
	return context.WithValue(ctx, ctxUser{}, u)
}

func userOf(r *http.Request) domain.User {
	u, _ := r.Context().Value(ctxUser{}).(domain.User)
	return u
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	email, _ := str(body, "email")
	password, _ := str(body, "password")

	s.mu.Lock()
	defer s.mu.Unlock()
	if want, known := s.passwords[email]; !known || want != password {
		fail(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}
	for _, u := range s.users {
		if u.Email == email {
			token := "tok-" + s.nextID()
			s.tokens[token] = u.ID
			respond(w, http.StatusOK, "Login successful", map[string]any{"user": u, "token": token})
			return
		}
	}
	fail(w, http.StatusUnauthorized, "Invalid credentials", nil)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	name, _ := str(body, "name")
	email, _ := str(body, "email")
	password, _ := str(body, "password")
	confirmation, _ := str(body, "password_confirmation")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.passwords[email]; taken {
		fail(w, http.StatusUnprocessableEntity, "The email has already been taken.",
			map[string][]string{"email": {"The email has already been taken."}})
		return
	}
	if password != confirmation {
		fail(w, http.StatusUnprocessableEntity, "The password confirmation does not match.",
			map[string][]string{"password": {"The password confirmation does not match."}})
		return
	}
	u := domain.User{ID: s.nextID(), Name: name, Email: email, Role: domain.RoleUser, CreatedAt: s.tick()}
	s.users[u.ID] = u
	s.passwords[email] = password
	token := "tok-" + s.nextID()
	s.tokens[token] = u.ID
	respond(w, http.StatusCreated, "Registration successful", map[string]any{"user": u, "token": token})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
	respond(w, http.StatusOK, "Logged out", nil)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, "ok", userOf(r))
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	user := userOf(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[user.ID]
	if name, present := str(body, "name"); present {
		u.Name = name
	}
	if email, present := str(body, "email"); present && email != u.Email {
		s.passwords[email] = s.passwords[u.Email]
		delete(s.passwords, u.Email)
		u.Email = email
	}
	s.users[u.ID] = u
	respond(w, http.StatusOK, "Profile updated", u)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	user := userOf(r)
	current, _ := str(body, "current_password")
	next, _ := str(body, "new_password")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.passwords[user.Email] != current {
		fail(w, http.StatusUnprocessableEntity, "The current password is incorrect.",
			map[string][]string{"current_password": {"The current password is incorrect."}})
		return
	}
	s.passwords[user.Email] = next
	respond(w, http.StatusOK, "Password changed", nil)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	search := strings.ToLower(r.URL.Query().Get("search"))
	category := r.URL.Query().Get("category_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Product{}
	for _, p := range sortedByID(s.products, func(p domain.Product) string { return p.ID }) {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) && !strings.Contains(strings.ToLower(p.SKU), search) {
			continue
		}
		if category != "" && p.CategoryID != category {
			continue
		}
		out = append(out, p)
	}
	paginated(w, out, len(out))
}

func (s *Server) lowStock(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Product{}
	for _, p := range sortedByID(s.products, func(p domain.Product) string { return p.ID }) {
		if p.Quantity < LowStockThreshold {
			out = append(out, p)
		}
	}
	respond(w, http.StatusOK, "ok", out)
}

// bestSelling ranks products by units ordered, most first. Products that were
// never ordered are left out.
func (s *Server) bestSelling(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sold := map[string]int{}
	for _, o := range s.orders {
		for _, line := range o.Items {
			sold[line.ProductID] += line.Quantity
		}
	}
	out := []domain.Product{}
	for _, p := range sortedByID(s.products, func(p domain.Product) string { return p.ID }) {
		if sold[p.ID] > 0 {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return sold[out[i].ID] > sold[out[j].ID] })
	respond(w, http.StatusOK, "ok", out)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, found := s.products[chi.URLParam(r, "id")]
	if !found {
		fail(w, http.StatusNotFound, "Product not found", nil)
		return
	}
	respond(w, http.StatusOK, "ok", p)
}

func applyProduct(p *domain.Product, body map[string]any) map[string][]string {
	errs := map[string][]string{}
	if v, present := str(body, "name"); present {
		p.Name = v
	}
	if v, present := str(body, "sku"); present {
		p.SKU = v
	}
	if v, present := str(body, "description"); present {
		p.Description = v
	}
	if v, present := str(body, "category_id"); present {
		p.CategoryID = v
	}
	if v, present := str(body, "supplier_id"); present {
		p.SupplierID = v
	}
	if v, present := str(body, "price"); present {
		price, err := decimal.NewFromString(v)
		if err != nil || !price.IsPositive() {
			errs["price"] = []string{"The price must be greater than 0."}
		}
		p.Price = price
	}
	if v, present := num(body, "quantity"); present {
		p.Quantity = int(v)
	}
	if p.Name == "" {
		errs["name"] = []string{"The name field is required."}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var p domain.Product
	if errs := applyProduct(&p, bodyOf(r)); errs != nil {
		fail(w, http.StatusUnprocessableEntity, "The given data was invalid.", errs)
		return
	}
	for _, existing := range s.products {
		if existing.SKU == p.SKU {
			fail(w, http.StatusUnprocessableEntity, "The sku has already been taken.",
				map[string][]string{"sku": {"The sku has already been taken."}})
			return
		}
	}
	p.ID = s.nextID()
	p.CreatedAt = s.tick()
	p.UpdatedAt = p.CreatedAt
	s.products[p.ID] = p
	respond(w, http.StatusCreated, "Product created", p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	p, found := s.products[id]
	if !found {
		fail(w, http.StatusNotFound, "Product not found", nil)
		return
	}
	if errs := applyProduct(&p, bodyOf(r)); errs != nil {
		fail(w, http.StatusUnprocessableEntity, "The given data was invalid.", errs)
		return
	}
	p.UpdatedAt = s.tick()
	s.products[id] = p
	respond(w, http.StatusOK, "Product updated", p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, found := s.products[id]; !found {
		fail(w, http.StatusNotFound, "Product not found", nil)
		return
	}
	delete(s.products, id)
	respond(w, http.StatusOK, "Product deleted", nil)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := sortedByID(s.categories, func(c domain.Category) string { return c.ID })
	for i := range out {
		for _, p := range s.products {
			if p.CategoryID == out[i].ID {
				out[i].ProductsCount++
			}
		}
	}
	respond(w, http.StatusOK, "ok", out)
}

func (s *Server) saveCategory(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	c, found := s.categories[id]
	if id != "" && !found {
		fail(w, http.StatusNotFound, "Category not found", nil)
		return
	}
	name, _ := str(body, "name")
	for _, existing := range s.categories {
		if existing.Name == name && existing.ID != id {
			fail(w, http.StatusUnprocessableEntity, "The name has already been taken.",
				map[string][]string{"name": {"The name has already been taken."}})
			return
		}
	}
	c.Name = name
	c.Description, _ = str(body, "description")
	status := http.StatusOK
	if id == "" {
		c.ID = s.nextID()
		c.CreatedAt = s.tick()
		status = http.StatusCreated
	}
	s.categories[c.ID] = c
	respond(w, status, "Category saved", c)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, found := s.categories[id]; !found {
		fail(w, http.StatusNotFound, "Category not found", nil)
		return
	}
	delete(s.categories, id)
	respond(w, http.StatusOK, "Category deleted", nil)
}

func (s *Server) listSuppliers(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(r.URL.Query().Get("filter[name]"))
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Supplier{}
	for _, sup := range sortedByID(s.suppliers, func(v domain.Supplier) string { return v.ID }) {
		if name == "" || strings.Contains(strings.ToLower(sup.Name), name) {
			out = append(out, sup)
		}
	}
	paginated(w, out, len(out))
}

func (s *Server) saveSupplier(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	sup, found := s.suppliers[id]
	if id != "" && !found {
		fail(w, http.StatusNotFound, "Supplier not found", nil)
		return
	}
	sup.Name, _ = str(body, "name")
	sup.Email, _ = str(body, "email")
	sup.Phone, _ = str(body, "phone")
	sup.Address, _ = str(body, "address")
	status := http.StatusOK
	if id == "" {
		sup.ID = s.nextID()
		sup.CreatedAt = s.tick()
		status = http.StatusCreated
	}
	s.suppliers[sup.ID] = sup
	respond(w, status, "Supplier saved", sup)
}

func (s *Server) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, found := s.suppliers[id]; !found {
		fail(w, http.StatusNotFound, "Supplier not found", nil)
		return
	}
	delete(s.suppliers, id)
	respond(w, http.StatusOK, "Supplier deleted", nil)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	search := strings.ToLower(r.URL.Query().Get("search"))
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.User{}
	for _, u := range sortedByID(s.users, func(u domain.User) string { return u.ID }) {
		if search == "" || strings.Contains(strings.ToLower(u.Name+" "+u.Email), search) {
			out = append(out, u)
		}
	}
	respond(w, http.StatusOK, "ok", out)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	u := domain.User{ID: s.nextID(), CreatedAt: s.tick()}
	u.Name, _ = str(body, "name")
	u.Email, _ = str(body, "email")
	role, _ := str(body, "role")
	u.Role = domain.Role(role)
	password, _ := str(body, "password")
	s.users[u.ID] = u
	s.passwords[u.Email] = password
	respond(w, http.StatusCreated, "User created", u)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	u, found := s.users[id]
	if !found {
		fail(w, http.StatusNotFound, "User not found", nil)
		return
	}
	delete(s.users, id)
	delete(s.passwords, u.Email)
	respond(w, http.StatusOK, "User deleted", nil)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	respond(w, http.StatusOK, "ok", sortedByID(s.orders, func(o domain.Order) string { return o.ID }))
}

func (s *Server) myOrders(w http.ResponseWriter, r *http.Request) {
	user := userOf(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Order{}
	for _, o := range sortedByID(s.orders, func(o domain.Order) string { return o.ID }) {
		if o.UserID == user.ID {
			out = append(out, o)
		}
	}
	respond(w, http.StatusOK, "ok", out)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	user := userOf(r)
	rawItems, _ := body["items"].([]any)
	if len(rawItems) == 0 {
		fail(w, http.StatusUnprocessableEntity, "The items field is required.",
			map[string][]string{"items": {"The items field is required."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order := domain.Order{ID: s.nextID(), UserID: user.ID, Status: domain.OrderStatusPending}
	total := decimal.Zero
	for _, raw := range rawItems {
		item, _ := raw.(map[string]any)
		productID, _ := str(item, "product_id")
		qty, _ := num(item, "quantity")
		p, found := s.products[productID]
		if !found {
			fail(w, http.StatusUnprocessableEntity, "The selected product is invalid.", nil)
			return
		}
		if int(qty) > p.Quantity {
			fail(w, http.StatusUnprocessableEntity, "Insufficient stock for "+p.Name, nil)
			return
		}
		line := domain.OrderItem{ID: s.nextID(), ProductID: p.ID, Quantity: int(qty), Price: p.Price}
		line.Subtotal = line.LineTotal()
		total = total.Add(line.Subtotal)
		order.Items = append(order.Items, line)
	}
	for _, line := range order.Items {
		p := s.products[line.ProductID]
		p.Quantity -= line.Quantity
		s.products[p.ID] = p
	}
	order.Notes, _ = str(body, "notes")
	order.TotalPrice = total
	order.CreatedAt = s.tick()
	s.orders[order.ID] = order
	respond(w, http.StatusCreated, "Order placed", order)
}

func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request) {
	status, _ := str(bodyOf(r), "status")
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	o, found := s.orders[id]
	if !found {
		fail(w, http.StatusNotFound, "Order not found", nil)
		return
	}
	next := domain.OrderStatus(status)
	if err := o.Status.CheckTransition(next); err != nil {
		fail(w, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}
	o.Status = next
	o.UpdatedAt = s.tick()
	s.orders[id] = o
	respond(w, http.StatusOK, "Order updated", o)
}
