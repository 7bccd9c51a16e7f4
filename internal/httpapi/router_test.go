package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	addrdomain "github.com/yingmeanshard/yingshop/internal/address/domain"
	"github.com/yingmeanshard/yingshop/internal/auth"
	cartdomain "github.com/yingmeanshard/yingshop/internal/cart/domain"
	catalogdomain "github.com/yingmeanshard/yingshop/internal/catalog/domain"
	orderdomain "github.com/yingmeanshard/yingshop/internal/order/domain"
	ordersvc "github.com/yingmeanshard/yingshop/internal/order/service"
	catalogsvc "github.com/yingmeanshard/yingshop/internal/catalog/service"
	userdomain "github.com/yingmeanshard/yingshop/internal/user/domain"
	usersvc "github.com/yingmeanshard/yingshop/internal/user/service"
)

type mockCartOps struct {
	carts map[string]*cartdomain.Cart
}

func newMockCartOps() *mockCartOps {
	return &mockCartOps{carts: make(map[string]*cartdomain.Cart)}
}

func (m *mockCartOps) get(token string) *cartdomain.Cart {
	cart, ok := m.carts[token]
	if !ok {
		cart = cartdomain.New(token)
		m.carts[token] = cart
	}
	return cart
}

func (m *mockCartOps) NewToken() string { return "tok-new" }

func (m *mockCartOps) GetCart(_ context.Context, token string) (*cartdomain.Cart, error) {
	return m.get(token), nil
}

func (m *mockCartOps) AddItem(_ context.Context, token string, productID int64, name string, unitPrice int64, quantity int) (*cartdomain.Cart, error) {
	cart := m.get(token)
	cart.AddLine(productID, name, unitPrice, quantity)
	return cart, nil
}

func (m *mockCartOps) UpdateQuantity(_ context.Context, token string, productID int64, quantity int) (*cartdomain.Cart, error) {
	cart := m.get(token)
	cart.UpdateQuantity(productID, quantity)
	return cart, nil
}

func (m *mockCartOps) RemoveItem(_ context.Context, token string, productID int64) (*cartdomain.Cart, error) {
	cart := m.get(token)
	cart.RemoveLine(productID)
	return cart, nil
}

func (m *mockCartOps) SetSelected(_ context.Context, token string, productIDs []int64) (*cartdomain.Cart, error) {
	cart := m.get(token)
	cart.SetSelected(productIDs)
	return cart, nil
}

func (m *mockCartOps) SelectAddress(_ context.Context, token string, addressID int64) (*cartdomain.Cart, error) {
	cart := m.get(token)
	cart.SelectAddress(addressID)
	return cart, nil
}

func (m *mockCartOps) ClearCart(_ context.Context, token string) error {
	delete(m.carts, token)
	return nil
}

type mockCatalogOps struct {
	products map[int64]*catalogdomain.Product
}

func (m *mockCatalogOps) ListProducts(context.Context) ([]*catalogdomain.Product, error) {
	var out []*catalogdomain.Product
	for _, p := range m.products {
		if p.Listed {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockCatalogOps) ListAllProducts(context.Context) ([]*catalogdomain.Product, error) {
	var out []*catalogdomain.Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockCatalogOps) ListByCategory(_ context.Context, category string) ([]*catalogdomain.Product, error) {
	var out []*catalogdomain.Product
	for _, p := range m.products {
		if p.Listed && p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockCatalogOps) GetProduct(_ context.Context, id int64) (*catalogdomain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, catalogsvc.ErrProductNotFound
	}
	return p, nil
}

func (m *mockCatalogOps) CreateProduct(_ context.Context, product *catalogdomain.Product) (*catalogdomain.Product, error) {
	product.ID = int64(len(m.products) + 1)
	m.products[product.ID] = product
	return product, nil
}

func (m *mockCatalogOps) UpdateProduct(_ context.Context, product *catalogdomain.Product) (*catalogdomain.Product, error) {
	if _, ok := m.products[product.ID]; !ok {
		return nil, catalogsvc.ErrProductNotFound
	}
	m.products[product.ID] = product
	return product, nil
}

func (m *mockCatalogOps) DeleteProduct(_ context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return catalogsvc.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockCatalogOps) SetListed(_ context.Context, id int64, listed bool) error {
	p, ok := m.products[id]
	if !ok {
		return catalogsvc.ErrProductNotFound
	}
	p.Listed = listed
	return nil
}

func (m *mockCatalogOps) SetStock(_ context.Context, id int64, stock int) error {
	p, ok := m.products[id]
	if !ok {
		return catalogsvc.ErrProductNotFound
	}
	p.Stock = stock
	return nil
}

func (m *mockCatalogOps) SetStocks(ctx context.Context, stocks map[int64]int) error {
	for id, stock := range stocks {
		if err := m.SetStock(ctx, id, stock); err != nil {
			return err
		}
	}
	return nil
}

type mockOrderOps struct {
	orders    map[int64]*orderdomain.Order
	createErr error
	updateErr error
}

func (m *mockOrderOps) CreateOrder(_ context.Context, req ordersvc.CreateOrderRequest) (*orderdomain.Order, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	order := &orderdomain.Order{
		ID: int64(len(m.orders) + 1), UserID: req.UserID,
		Status: orderdomain.StatusPendingPayment, TotalPrice: 250,
	}
	m.orders[order.ID] = order
	return order, nil
}

func (m *mockOrderOps) GetOrder(_ context.Context, id int64) (*orderdomain.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, ordersvc.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderOps) ListOrdersByUser(_ context.Context, userID int64) ([]*orderdomain.Order, error) {
	var out []*orderdomain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderOps) ListAllOrders(context.Context) ([]*orderdomain.Order, error) {
	var out []*orderdomain.Order
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *mockOrderOps) UpdateStatus(_ context.Context, orderID int64, to orderdomain.Status) (*orderdomain.Order, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	order, ok := m.orders[orderID]
	if !ok {
		return nil, ordersvc.ErrOrderNotFound
	}
	order.Status = to
	return order, nil
}

type mockUserOps struct {
	users map[string]*userdomain.User
}

func (m *mockUserOps) Register(_ context.Context, req usersvc.RegisterRequest) (*userdomain.User, error) {
	if _, ok := m.users[req.Email]; ok {
		return nil, usersvc.ErrEmailTaken
	}
	user := &userdomain.User{ID: int64(len(m.users) + 1), Email: req.Email, Role: userdomain.RoleCustomer}
	m.users[req.Email] = user
	return user, nil
}

func (m *mockUserOps) Authenticate(_ context.Context, email, password string) (*userdomain.User, error) {
	user, ok := m.users[email]
	if !ok || password != "correct-horse" {
		return nil, usersvc.ErrInvalidCredentials
	}
	return user, nil
}

func (m *mockUserOps) GetUserByID(_ context.Context, id int64) (*userdomain.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, usersvc.ErrUserNotFound
}

func (m *mockUserOps) UpdateProfile(_ context.Context, user *userdomain.User) (*userdomain.User, error) {
	return user, nil
}

func (m *mockUserOps) ChangePassword(context.Context, int64, string, string) error { return nil }
func (m *mockUserOps) RequestPasswordReset(context.Context, string) error          { return nil }
func (m *mockUserOps) ResetPassword(context.Context, string, string) error         { return nil }
func (m *mockUserOps) SetDefaultAddress(context.Context, int64, int64) error       { return nil }
func (m *mockUserOps) DeleteUser(context.Context, int64) error                     { return nil }

type mockAddressOps struct{}

func (mockAddressOps) ListByUser(context.Context, int64) ([]*addrdomain.Address, error) {
	return nil, nil
}
func (mockAddressOps) GetByID(context.Context, int64) (*addrdomain.Address, error) {
	return nil, nil
}
func (mockAddressOps) Save(_ context.Context, userID int64, a *addrdomain.Address) (*addrdomain.Address, error) {
	a.ID = 1
	a.UserID = userID
	return a, nil
}
func (mockAddressOps) Delete(context.Context, int64, int64) error      { return nil }
func (mockAddressOps) MarkDefault(context.Context, int64, int64) error { return nil }

type fixture struct {
	router  http.Handler
	issuer  *auth.TokenIssuer
	carts   *mockCartOps
	catalog *mockCatalogOps
	orders  *mockOrderOps
	users   *mockUserOps
}

func newFixture() *fixture {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	f := &fixture{
		issuer:  issuer,
		carts:   newMockCartOps(),
		catalog: &mockCatalogOps{products: make(map[int64]*catalogdomain.Product)},
		orders:  &mockOrderOps{orders: make(map[int64]*orderdomain.Order)},
		users:   &mockUserOps{users: make(map[string]*userdomain.User)},
	}
	f.router = NewRouter(RouterDeps{
		Carts:     f.carts,
		Catalog:   f.catalog,
		Orders:    f.orders,
		Users:     f.users,
		Addresses: mockAddressOps{},
		Issuer:    issuer,
		Timeout:   5 * time.Second,
	})
	return f
}

func (f *fixture) tokenFor(id int64, role userdomain.Role) string {
	token, _ := f.issuer.Issue(&userdomain.User{ID: id, Role: role})
	return token
}

func (f *fixture) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestCart_MissingTokenHeader(t *testing.T) {
	f := newFixture()
	rec := f.do("GET", "/api/v1/cart/", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCart_AddItemSnapshotsCatalogPrice(t *testing.T) {
	f := newFixture()
	f.catalog.products[1] = &catalogdomain.Product{ID: 1, Name: "Oolong Tea", Price: 45000, Stock: 5, Listed: true}

	rec := f.do("POST", "/api/v1/cart/items",
		AddItemRequestDTO{ProductID: 1, Quantity: 2},
		map[string]string{cartTokenHeader: "tok-1"})

	require.Equal(t, http.StatusCreated, rec.Code)
	var cart cartdomain.Cart
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cart))
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(45000), cart.Lines[0].UnitPrice)
	assert.Equal(t, "Oolong Tea", cart.Lines[0].Name)
}

func TestCart_AddUnknownProduct(t *testing.T) {
	f := newFixture()
	rec := f.do("POST", "/api/v1/cart/items",
		AddItemRequestDTO{ProductID: 42, Quantity: 1},
		map[string]string{cartTokenHeader: "tok-1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_NewToken(t *testing.T) {
	f := newFixture()
	rec := f.do("POST", "/api/v1/cart/token", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp NewTokenResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)
}

func TestOrders_RequireAuth(t *testing.T) {
	f := newFixture()
	rec := f.do("POST", "/api/v1/orders/", CreateOrderRequestDTO{PaymentMethod: "CASH_ON_DELIVERY"},
		map[string]string{cartTokenHeader: "tok-1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrders_CreateWithAuth(t *testing.T) {
	f := newFixture()
	rec := f.do("POST", "/api/v1/orders/",
		CreateOrderRequestDTO{PaymentMethod: "CASH_ON_DELIVERY"},
		map[string]string{
			cartTokenHeader: "tok-1",
			"Authorization": "Bearer " + f.tokenFor(7, userdomain.RoleCustomer),
		})
	require.Equal(t, http.StatusCreated, rec.Code)

	var order orderdomain.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&order))
	assert.Equal(t, int64(7), order.UserID)
	assert.Equal(t, orderdomain.StatusPendingPayment, order.Status)
}

func TestOrders_InsufficientStockMapsToConflict(t *testing.T) {
	f := newFixture()
	f.orders.createErr = &ordersvc.InsufficientStockError{
		ProductID: 1, ProductName: "Oolong Tea", Requested: 2, Available: 1,
	}

	rec := f.do("POST", "/api/v1/orders/",
		CreateOrderRequestDTO{PaymentMethod: "CASH_ON_DELIVERY"},
		map[string]string{
			cartTokenHeader: "tok-1",
			"Authorization": "Bearer " + f.tokenFor(7, userdomain.RoleCustomer),
		})
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "insufficient_stock", resp.Code)
	assert.Contains(t, resp.Error, "Oolong Tea")
}

func TestOrders_ForeignOrderHidden(t *testing.T) {
	f := newFixture()
	f.orders.orders[1] = &orderdomain.Order{ID: 1, UserID: 8, Status: orderdomain.StatusPendingPayment}

	rec := f.do("GET", "/api/v1/orders/1", nil, map[string]string{
		"Authorization": "Bearer " + f.tokenFor(7, userdomain.RoleCustomer),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_CustomerForbidden(t *testing.T) {
	f := newFixture()
	rec := f.do("PUT", "/api/v1/admin/orders/1/status",
		UpdateStatusRequestDTO{Status: "PAID"},
		map[string]string{"Authorization": "Bearer " + f.tokenFor(7, userdomain.RoleCustomer)})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdmin_StaffMayUpdateStatus(t *testing.T) {
	f := newFixture()
	f.orders.orders[1] = &orderdomain.Order{ID: 1, UserID: 8, Status: orderdomain.StatusPendingPayment}

	rec := f.do("PUT", "/api/v1/admin/orders/1/status",
		UpdateStatusRequestDTO{Status: "PAID"},
		map[string]string{"Authorization": "Bearer " + f.tokenFor(2, userdomain.RoleStaff)})
	require.Equal(t, http.StatusOK, rec.Code)

	var order orderdomain.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&order))
	assert.Equal(t, orderdomain.StatusPaid, order.Status)
}

func TestAdmin_IllegalTransitionMapsToConflict(t *testing.T) {
	f := newFixture()
	f.orders.orders[1] = &orderdomain.Order{ID: 1, UserID: 8, Status: orderdomain.StatusPendingPayment}
	f.orders.updateErr = &ordersvc.StateConflictError{
		From: orderdomain.StatusPendingPayment, To: orderdomain.StatusShipped,
	}

	rec := f.do("PUT", "/api/v1/admin/orders/1/status",
		UpdateStatusRequestDTO{Status: "SHIPPED"},
		map[string]string{"Authorization": "Bearer " + f.tokenFor(2, userdomain.RoleStaff)})
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "invalid_transition", resp.Code)
}

func TestAdmin_StaffMayNotManageCatalog(t *testing.T) {
	f := newFixture()
	rec := f.do("POST", "/api/v1/admin/products",
		ProductRequestDTO{Name: "Green Tea", Price: 28000},
		map[string]string{"Authorization": "Bearer " + f.tokenFor(2, userdomain.RoleStaff)})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdmin_StaffMaySetStock(t *testing.T) {
	f := newFixture()
	f.catalog.products[1] = &catalogdomain.Product{ID: 1, Name: "Oolong Tea", Stock: 5, Listed: true}

	rec := f.do("PUT", "/api/v1/admin/products/1/stock",
		SetStockRequestDTO{Stock: 42},
		map[string]string{"Authorization": "Bearer " + f.tokenFor(2, userdomain.RoleStaff)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 42, f.catalog.products[1].Stock)
}

func TestAdmin_BatchRestock(t *testing.T) {
	f := newFixture()
	f.catalog.products[1] = &catalogdomain.Product{ID: 1, Name: "Oolong Tea", Stock: 5, Listed: true}
	f.catalog.products[2] = &catalogdomain.Product{ID: 2, Name: "Black Tea", Stock: 3, Listed: true}

	rec := f.do("PUT", "/api/v1/admin/products/stock",
		[]StockUpdateDTO{{ProductID: 1, Stock: 20}, {ProductID: 2, Stock: 15}},
		map[string]string{"Authorization": "Bearer " + f.tokenFor(2, userdomain.RoleStaff)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, f.catalog.products[1].Stock)
	assert.Equal(t, 15, f.catalog.products[2].Stock)
}

func TestAuth_LoginIssuesUsableToken(t *testing.T) {
	f := newFixture()
	f.users.users["ying@example.com"] = &userdomain.User{ID: 7, Email: "ying@example.com", Role: userdomain.RoleCustomer}

	rec := f.do("POST", "/api/v1/auth/login",
		LoginRequestDTO{Email: "ying@example.com", Password: "correct-horse"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)

	profile := f.do("GET", "/api/v1/me/", nil, map[string]string{
		"Authorization": "Bearer " + resp.Token,
	})
	assert.Equal(t, http.StatusOK, profile.Code)
}

func TestAuth_BadCredentials(t *testing.T) {
	f := newFixture()
	rec := f.do("POST", "/api/v1/auth/login",
		LoginRequestDTO{Email: "nobody@example.com", Password: "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_GarbageTokenRejected(t *testing.T) {
	f := newFixture()
	rec := f.do("GET", "/api/v1/me/", nil, map[string]string{
		"Authorization": "Bearer garbage",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture()
	rec := f.do("GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
