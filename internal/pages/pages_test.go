package pages

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockroom/internal/apiclient"
	"github.com/odyssey-erp/stockroom/internal/domain"
	"github.com/odyssey-erp/stockroom/internal/forms"
	"github.com/odyssey-erp/stockroom/internal/gateway"
	"github.com/odyssey-erp/stockroom/internal/shared"
	"github.com/odyssey-erp/stockroom/internal/testing/backend"
)

type fixture struct {
	backend *backend.Server
	service *Service
	guard   *shared.SubmissionGuard
	admin   domain.User
	ctx     context.Context
}

const sessionID = "session-a"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	be := backend.New(t)
	admin := be.AddUser("Ana", "ana@example.com", "password1", domain.RoleAdmin)
	token := be.IssueToken(admin)

	client := apiclient.New(apiclient.Config{BaseURL: be.URL(), Timeout: 5 * time.Second})
	mr := miniredis.RunT(t)
	guard := shared.NewSubmissionGuard(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	spaces := NewWorkspaces(client, WorkspaceConfig{})
	svc := NewService(nil, spaces, gateway.New(client), guard)

	return &fixture{
		backend: be,
		service: svc,
		guard:   guard,
		admin:   admin,
		ctx:     apiclient.WithCredential(context.Background(), token),
	}
}

func productForm(name, sku string, categoryID string) forms.ProductForm {
	return forms.ProductForm{
		Name:       name,
		SKU:        sku,
		Price:      decimal.RequireFromString("19.99"),
		Quantity:   12,
		CategoryID: categoryID,
	}
}

func TestCreatedProductAppearsWithoutWaitingForDedupe(t *testing.T) {
	f := newFixture(t)
	cat := f.backend.AddCategory("Tools")
	f.backend.AddProduct("Hammer", "HMR-1", "9.50", 20, cat.ID)

	view := f.service.AdminProducts(f.ctx, sessionID, gateway.ProductQuery{})
	require.NoError(t, view.Err)
	require.Len(t, view.Products, 1)
	assert.Equal(t, "Tools", view.CategoryName(view.Products[0]))

	out := f.service.CreateProduct(f.ctx, sessionID, productForm("Drill", "DRL-1", cat.ID), nil)
	require.True(t, out.OK(), "outcome: %+v", out)
	assert.Equal(t, NoticeSuccess, out.Notice.Kind)
	assert.Equal(t, "Product created successfully!", out.Notice.Message)

	view = f.service.AdminProducts(f.ctx, sessionID, gateway.ProductQuery{})
	require.Len(t, view.Products, 2)
	assert.Equal(t, "Drill", view.Products[1].Name)
	assert.Equal(t, 2, f.backend.Hits(http.MethodGet, "/products"))
}

func TestInvalidFormMakesNoBackendCall(t *testing.T) {
	f := newFixture(t)
	out := f.service.CreateProduct(f.ctx, sessionID, forms.ProductForm{Name: "No SKU"}, nil)
	assert.False(t, out.OK())
	assert.Equal(t, "SKU is required", out.Fields["sku"])
	assert.Equal(t, "Price must be positive", out.Fields["price"])
	assert.Zero(t, f.backend.Hits(http.MethodPost, "/products"))
}

func TestProductWithoutQuantityMakesNoBackendCall(t *testing.T) {
	f := newFixture(t)
	cat := f.backend.AddCategory("Tools")
	form, parseErrs := forms.ParseProductForm(url.Values{
		"name":       {"Drill"},
		"sku":        {"DRL-1"},
		"price":      {"19.99"},
		"categoryId": {cat.ID},
	})

	out := f.service.CreateProduct(f.ctx, sessionID, form, parseErrs)
	assert.False(t, out.OK())
	assert.Equal(t, "Quantity is required", out.Fields["quantity"])
	assert.Zero(t, f.backend.Hits(http.MethodPost, "/products"))
}

func TestBackendFieldErrorsReachTheForm(t *testing.T) {
	f := newFixture(t)
	cat := f.backend.AddCategory("Tools")
	f.backend.AddProduct("Hammer", "HMR-1", "9.50", 20, cat.ID)

	out := f.service.CreateProduct(f.ctx, sessionID, productForm("Other hammer", "HMR-1", cat.ID), nil)
	assert.False(t, out.OK())
	assert.Equal(t, "The sku has already been taken.", out.Fields["sku"])
	assert.Equal(t, "The sku has already been taken.", out.Notice.Message)
}

func TestDeleteTwiceReportsNotFound(t *testing.T) {
	f := newFixture(t)
	cat := f.backend.AddCategory("Tools")
	p := f.backend.AddProduct("Hammer", "HMR-1", "9.50", 20, cat.ID)

	out := f.service.DeleteProduct(f.ctx, sessionID, p.ID, p.Name)
	require.True(t, out.OK())
	assert.Equal(t, `"Hammer" deleted successfully!`, out.Notice.Message)
	assert.Empty(t, f.service.AdminProducts(f.ctx, sessionID, gateway.ProductQuery{}).Products)

	out = f.service.DeleteProduct(f.ctx, sessionID, p.ID, p.Name)
	assert.False(t, out.OK())
	assert.True(t, apiclient.IsNotFound(out.Err))
	assert.Equal(t, NoticeError, out.Notice.Kind)
	assert.Equal(t, "Product not found", out.Notice.Message)
}

func TestOrderUpToAvailableStock(t *testing.T) {
	f := newFixture(t)
	cat := f.backend.AddCategory("Tools")
	p := f.backend.AddProduct("Saw", "SAW-1", "25.00", 5, cat.ID)

	before := f.service.UserProducts(f.ctx, sessionID, gateway.ProductQuery{})
	require.Len(t, before.Products, 1)
	assert.Equal(t, 5, before.Products[0].Quantity)

	tooMany := forms.OrderRequestForm{Items: []forms.OrderItemForm{{ProductID: p.ID, Quantity: 6}}}
	out := f.service.PlaceOrder(f.ctx, sessionID, tooMany, nil)
	assert.Equal(t, "Cannot exceed available stock (5)", out.Fields["items[0].quantity"])
	assert.Zero(t, f.backend.Hits(http.MethodPost, "/orders"))

	exact := forms.OrderRequestForm{Items: []forms.OrderItemForm{{ProductID: p.ID, Quantity: 5}}, Notes: "site B"}
	out = f.service.PlaceOrder(f.ctx, sessionID, exact, nil)
	require.True(t, out.OK(), "outcome: %+v", out)
	assert.Equal(t, "Order placed successfully!", out.Notice.Message)

	after := f.service.UserProducts(f.ctx, sessionID, gateway.ProductQuery{})
	require.Len(t, after.Products, 1)
	assert.Equal(t, 0, after.Products[0].Quantity)

	mine := f.service.MyOrders(f.ctx, sessionID)
	require.Len(t, mine.Orders, 1)
	assert.True(t, mine.Orders[0].Total().Equal(decimal.RequireFromString("125")))
}

func TestSubmissionInFlightIsRejected(t *testing.T) {
	f := newFixture(t)
	cat := f.backend.AddCategory("Tools")

	release, err := f.guard.Acquire(f.ctx, sessionID, "products.create")
	require.NoError(t, err)

	out := f.service.CreateProduct(f.ctx, sessionID, productForm("Drill", "DRL-1", cat.ID), nil)
	assert.ErrorIs(t, out.Err, shared.ErrSubmissionInFlight)
	assert.Zero(t, f.backend.Hits(http.MethodPost, "/products"))

	release()
	out = f.service.CreateProduct(f.ctx, sessionID, productForm("Drill", "DRL-1", cat.ID), nil)
	assert.True(t, out.OK())
}

func TestAdminOrdersAlwaysRevalidate(t *testing.T) {
	f := newFixture(t)
	f.backend.AddOrder(f.admin.ID, domain.OrderStatusPending, "10")
	f.backend.AddOrder(f.admin.ID, domain.OrderStatusCompleted, "30")

	all := f.service.AdminOrders(f.ctx, sessionID, "")
	assert.Len(t, all.Orders, 2)
	pending := f.service.AdminOrders(f.ctx, sessionID, domain.OrderStatusPending)
	require.Len(t, pending.Orders, 1)
	assert.Equal(t, domain.OrderStatusPending, pending.Status)
	assert.Equal(t, 2, f.backend.Hits(http.MethodGet, "/orders"))
}

func TestOrderTransitions(t *testing.T) {
	f := newFixture(t)
	pending := f.backend.AddOrder(f.admin.ID, domain.OrderStatusPending, "10")
	done := f.backend.AddOrder(f.admin.ID, domain.OrderStatusCompleted, "30")
	f.service.AdminOrders(f.ctx, sessionID, "")

	out := f.service.UpdateOrderStatus(f.ctx, sessionID, done.ID, domain.OrderStatusApproved)
	assert.ErrorIs(t, out.Err, domain.ErrInvalidTransition)
	assert.Zero(t, f.backend.Hits(http.MethodPut, "/orders/"+done.ID))

	out = f.service.UpdateOrderStatus(f.ctx, sessionID, pending.ID, domain.OrderStatusApproved)
	require.True(t, out.OK(), "outcome: %+v", out)
	assert.Equal(t, "Order approved successfully!", out.Notice.Message)

	stored, _ := f.backend.Order(pending.ID)
	assert.Equal(t, domain.OrderStatusApproved, stored.Status)
	orders := f.service.AdminOrders(f.ctx, sessionID, domain.OrderStatusApproved)
	require.Len(t, orders.Orders, 1)
	assert.Equal(t, pending.ID, orders.Orders[0].ID)
}

func TestRevokedCredentialIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.backend.RevokeTokens()

	view := f.service.AdminCategories(f.ctx, sessionID)
	assert.True(t, apiclient.IsUnauthorized(view.Err))

	out := f.service.SaveCategory(f.ctx, sessionID, "", forms.CategoryForm{Name: "Paint"})
	assert.True(t, out.Unauthorized())
}

func TestCategoryRoundTrip(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.service.AdminCategories(f.ctx, sessionID).Categories)

	out := f.service.SaveCategory(f.ctx, sessionID, "", forms.CategoryForm{Name: "Paint", Description: "Indoor"})
	require.True(t, out.OK())
	cats := f.service.AdminCategories(f.ctx, sessionID).Categories
	require.Len(t, cats, 1)

	out = f.service.SaveCategory(f.ctx, sessionID, cats[0].ID, forms.CategoryForm{Name: "Paints"})
	require.True(t, out.OK())
	assert.Equal(t, "Category updated successfully!", out.Notice.Message)
	assert.Equal(t, "Paints", f.service.AdminCategories(f.ctx, sessionID).Categories[0].Name)

	out = f.service.SaveCategory(f.ctx, sessionID, "", forms.CategoryForm{Name: "Paints"})
	assert.Equal(t, "The name has already been taken.", out.Fields["name"])
}

func TestSupplierSearchUsesFilterParameter(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.service.SaveSupplier(f.ctx, sessionID, "", forms.SupplierForm{Name: "Acme", Email: "a@acme.test"}).OK())
	require.True(t, f.service.SaveSupplier(f.ctx, sessionID, "", forms.SupplierForm{Name: "Globex", Email: "g@globex.test"}).OK())

	view := f.service.AdminSuppliers(f.ctx, sessionID, "glo")
	require.Len(t, view.Suppliers, 1)
	assert.Equal(t, "Globex", view.Suppliers[0].Name)
	assert.Equal(t, "/suppliers?filter%5Bname%5D=glo", SuppliersKey("glo"))
}

func TestUsersAndProfile(t *testing.T) {
	f := newFixture(t)
	out := f.service.CreateUser(f.ctx, sessionID, forms.UserForm{
		Name: "Budi", Email: "budi@example.com", Password: "password1", PasswordConfirmation: "password1", Role: "user",
	})
	require.True(t, out.OK())
	users := f.service.AdminUsers(f.ctx, sessionID, "budi").Users
	require.Len(t, users, 1)

	out, updated := f.service.UpdateProfile(f.ctx, sessionID, forms.ProfileUpdateForm{Name: "Ana Maria", Email: "ana@example.com"})
	require.True(t, out.OK())
	require.NotNil(t, updated)
	assert.Equal(t, "Ana Maria", updated.Name)

	out = f.service.ChangePassword(f.ctx, sessionID, forms.PasswordChangeForm{
		CurrentPassword: "wrong-one", NewPassword: "password2", ConfirmPassword: "password2",
	})
	assert.Equal(t, "The current password is incorrect.", out.Fields["currentPassword"])

	out = f.service.DeleteUser(f.ctx, sessionID, users[0].ID, users[0].Name)
	assert.True(t, out.OK())
}

func TestWorkspacesAreIsolated(t *testing.T) {
	f := newFixture(t)
	f.backend.AddCategory("Tools")

	f.service.AdminCategories(f.ctx, "session-a")
	f.service.AdminCategories(f.ctx, "session-b")
	assert.Equal(t, 2, f.backend.Hits(http.MethodGet, "/categories"))
	assert.Equal(t, 2, f.service.Workspaces().Len())

	f.service.Workspaces().Drop("session-a")
	assert.Equal(t, 1, f.service.Workspaces().Len())
	f.service.AdminCategories(f.ctx, "session-a")
	assert.Equal(t, 3, f.backend.Hits(http.MethodGet, "/categories"))
}

func TestDashboardRanksBestSellers(t *testing.T) {
	f := newFixture(t)
	cat := f.backend.AddCategory("Tools")
	saw := f.backend.AddProduct("Saw", "SAW-1", "25.00", 50, cat.ID)
	drill := f.backend.AddProduct("Drill", "DRL-1", "80.00", 40, cat.ID)
	tape := f.backend.AddProduct("Tape", "TAP-1", "3.00", 2, cat.ID)

	view := f.service.AdminDashboard(f.ctx, sessionID)
	require.NoError(t, view.Err)
	assert.False(t, view.BestSelling)
	require.Len(t, view.TopProducts, 3)
	assert.Equal(t, tape.ID, view.TopProducts[0].ID)

	order := forms.OrderRequestForm{Items: []forms.OrderItemForm{
		{ProductID: drill.ID, Quantity: 3},
		{ProductID: saw.ID, Quantity: 1},
	}}
	require.True(t, f.service.PlaceOrder(f.ctx, sessionID, order, nil).OK())

	view = f.service.AdminDashboard(f.ctx, sessionID)
	require.NoError(t, view.Err)
	assert.True(t, view.BestSelling)
	require.Len(t, view.TopProducts, 2)
	assert.Equal(t, []string{drill.ID, saw.ID}, []string{view.TopProducts[0].ID, view.TopProducts[1].ID})
	assert.Equal(t, 2, f.backend.Hits(http.MethodGet, "/products/stats/best-selling"))
}

func TestBuildDashboard(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var orders []domain.Order
	for i := 0; i < 7; i++ {
		status := domain.OrderStatusPending
		if i%2 == 0 {
			status = domain.OrderStatusCompleted
		}
		orders = append(orders, domain.Order{
			ID:         string(rune('a' + i)),
			Status:     status,
			TotalPrice: decimal.NewFromInt(int64(10 * (i + 1))),
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		})
	}
	products := []domain.Product{{ID: "1", Quantity: 30}, {ID: "2", Quantity: 2}, {ID: "3", Quantity: 11}}

	view := BuildDashboard(products, make([]domain.Category, 4), make([]domain.User, 3), products[1:2], orders)
	assert.Equal(t, 3, view.Stats.TotalProducts)
	assert.Equal(t, 4, view.Stats.Categories)
	assert.Equal(t, 1, view.Stats.LowStock)
	assert.Equal(t, 3, view.Stats.Users)
	assert.Equal(t, 7, view.Stats.TotalOrders)
	assert.Equal(t, 3, view.Stats.PendingOrders)
	// Completed: orders 0, 2, 4, 6 -> 10 + 30 + 50 + 70.
	assert.True(t, view.Stats.Revenue.Equal(decimal.NewFromInt(160)), view.Stats.Revenue.String())

	require.Len(t, view.RecentOrders, 5)
	assert.Equal(t, "g", view.RecentOrders[0].ID)
	assert.Equal(t, []string{"2", "3", "1"}, []string{view.TopProducts[0].ID, view.TopProducts[1].ID, view.TopProducts[2].ID})
}

func TestThemeSettings(t *testing.T) {
	f := newFixture(t)
	kv := mapKV{}
	out := f.service.ChangeTheme(kv, "forest")
	require.True(t, out.OK())
	assert.Equal(t, "Theme changed to Forest", out.Notice.Message)
	assert.Equal(t, "forest", f.service.Settings(kv).Current.Name)

	out = f.service.ChangeTheme(kv, "neon")
	assert.Equal(t, "Unknown theme", out.Fields["theme"])
}

type mapKV map[string]string

func (m mapKV) Get(key string) string { return m[key] }
func (m mapKV) Set(key, value string) { m[key] = value }
