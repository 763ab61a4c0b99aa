package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/freshcart/storefront/internal/domain/address"
	"github.com/freshcart/storefront/internal/domain/order"
	"github.com/freshcart/storefront/internal/domain/product"
	"github.com/freshcart/storefront/internal/domain/user"
	"github.com/freshcart/storefront/internal/payment"
)

// --- in-memory stores ---

type productStore struct {
	byID map[string]product.Product
}

func (s *productStore) List(context.Context) ([]product.Product, error) {
	out := make([]product.Product, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p)
	}
	return out, nil
}

func (s *productStore) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (s *productStore) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := s.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type orderStore struct {
	byID map[string]*order.Order

	markPaidErr error
}

func newOrderStore() *orderStore {
	return &orderStore{byID: make(map[string]*order.Order)}
}

func (s *orderStore) Create(_ context.Context, o *order.Order) error {
	cp := *o
	s.byID[o.ID] = &cp
	return nil
}

func (s *orderStore) MarkPaid(_ context.Context, id string) error {
	if s.markPaidErr != nil {
		return s.markPaidErr
	}
	if o, ok := s.byID[id]; ok {
		o.IsPaid = true
	}
	return nil
}

func (s *orderStore) Delete(_ context.Context, id string) error {
	delete(s.byID, id)
	return nil
}

func (s *orderStore) ListVisibleByUser(_ context.Context, userID string) ([]order.Order, error) {
	var out []order.Order
	for _, o := range s.byID {
		if o.UserID == userID && (o.PaymentType == order.PaymentCOD || o.IsPaid) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *orderStore) ListVisible(context.Context) ([]order.Order, error) {
	var out []order.Order
	for _, o := range s.byID {
		if o.PaymentType == order.PaymentCOD || o.IsPaid {
			out = append(out, *o)
		}
	}
	return out, nil
}

type userStore struct {
	byID map[string]*user.User
}

func newUserStore() *userStore {
	return &userStore{byID: make(map[string]*user.User)}
}

func (s *userStore) Create(_ context.Context, u *user.User) error {
	for _, existing := range s.byID {
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

func (s *userStore) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (s *userStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range s.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *userStore) SetCart(_ context.Context, userID string, cart user.Cart) error {
	if u, ok := s.byID[userID]; ok {
		u.Cart = cart
	}
	return nil
}

func (s *userStore) ClearCart(_ context.Context, userID string) error {
	if u, ok := s.byID[userID]; ok {
		u.Cart = user.Cart{}
	}
	return nil
}

type addressStore struct {
	byID map[string]*address.Address
}

func (s *addressStore) Create(_ context.Context, a *address.Address) error {
	if s.byID == nil {
		s.byID = make(map[string]*address.Address)
	}
	cp := *a
	s.byID[a.ID] = &cp
	return nil
}

func (s *addressStore) GetByID(_ context.Context, id string) (*address.Address, error) {
	a, ok := s.byID[id]
	if !ok {
		return nil, address.ErrNotFound
	}
	return a, nil
}

func (s *addressStore) ListByUser(_ context.Context, userID string) ([]address.Address, error) {
	var out []address.Address
	for _, a := range s.byID {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type gatewayStub struct {
	session *payment.Session
	err     error

	lastParams payment.CheckoutParams
}

func (g *gatewayStub) CreateCheckoutSession(_ context.Context, params payment.CheckoutParams) (*payment.Session, error) {
	g.lastParams = params
	if g.err != nil {
		return nil, g.err
	}
	return g.session, nil
}

type verifierStub struct {
	event *payment.Event
	err   error

	lastPayload   []byte
	lastSignature string
}

func (v *verifierStub) VerifyEvent(payload []byte, signature string) (*payment.Event, error) {
	v.lastPayload = payload
	v.lastSignature = signature
	if v.err != nil {
		return nil, v.err
	}
	return v.event, nil
}

// --- fixture ---

type fixture struct {
	products  *productStore
	users     *userStore
	addresses *addressStore
	orders    *orderStore
	gateway   *gatewayStub
	verifier  *verifierStub
	sessions  *Sessions

	router http.Handler
}

const (
	testUserID      = "user-1"
	testAddressID   = "addr-1"
	testSellerEmail = "seller@example.com"
	testSellerPass  = "sellersecret"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		products: &productStore{byID: map[string]product.Product{
			"prod-1": {
				ID:         "prod-1",
				Name:       "Potato 1kg",
				Price:      decimal.RequireFromString("110"),
				OfferPrice: decimal.RequireFromString("100"),
				Category:   "Vegetables",
			},
		}},
		users: newUserStore(),
		addresses: &addressStore{byID: map[string]*address.Address{
			testAddressID: {ID: testAddressID, UserID: testUserID, Street: "1 Main St", City: "Pune"},
		}},
		orders:   newOrderStore(),
		gateway:  &gatewayStub{session: &payment.Session{ID: "cs_test", URL: "https://checkout.example/cs_test"}},
		verifier: &verifierStub{},
	}

	f.users.byID[testUserID] = &user.User{
		ID:    testUserID,
		Name:  "Test User",
		Email: "test@example.com",
		Cart:  user.Cart{"prod-1": 2},
	}

	f.sessions = NewSessions(SessionsConfig{
		Secret:      "test-secret",
		SellerEmail: testSellerEmail,
	})

	svc := order.NewService(order.ServiceConfig{
		SuccessURL: "https://shop.example/loader?next=my-orders",
		CancelURL:  "https://shop.example/cart",
	}, f.products, f.orders, f.gateway)

	h := New(
		Config{SellerPassword: testSellerPass},
		f.products, f.users, f.addresses, f.orders,
		svc,
		order.NewReconciler(f.orders, f.users),
		f.verifier,
		f.sessions,
	)
	f.router = h.Routes()
	return f
}

func (f *fixture) userCookie(t *testing.T) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, f.sessions.IssueUser(rec, testUserID))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func (f *fixture) sellerCookie(t *testing.T) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, f.sessions.IssueSeller(rec))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func (f *fixture) do(t *testing.T, method, target string, body string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var parsed map[string]any
	if strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	}
	return rec, parsed
}

// --- order placement ---

func TestPlaceOrderRequiresAuth(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/order/cod",
		`{"items":[{"product":"prod-1","quantity":2}],"address":"addr-1"}`)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, false, body["success"])
}

func TestPlaceOrderRejectsTamperedToken(t *testing.T) {
	f := newFixture(t)

	other := NewSessions(SessionsConfig{Secret: "different-secret", SellerEmail: testSellerEmail})
	rec := httptest.NewRecorder()
	require.NoError(t, other.IssueUser(rec, testUserID))

	resp, _ := f.do(t, http.MethodPost, "/api/order/cod",
		`{"items":[{"product":"prod-1","quantity":1}],"address":"addr-1"}`,
		rec.Result().Cookies()[0])
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestPlaceOrderCOD(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/order/cod",
		`{"items":[{"product":"prod-1","quantity":2}],"address":"addr-1"}`,
		f.userCookie(t))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["success"])
	require.Equal(t, "Order placed successfully", body["message"])

	require.Len(t, f.orders.byID, 1)
	for _, o := range f.orders.byID {
		require.Equal(t, testUserID, o.UserID)
		require.Equal(t, order.PaymentCOD, o.PaymentType)
		require.False(t, o.IsPaid)
		// 200 subtotal + 4 tax
		require.Equal(t, "204", o.Amount.String())
	}

	// COD orders are visible right away.
	visible, err := f.orders.ListVisibleByUser(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, visible, 1)
}

func TestPlaceOrderCODUnknownProduct(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/order/cod",
		`{"items":[{"product":"prod-missing","quantity":1}],"address":"addr-1"}`,
		f.userCookie(t))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, body["success"])
	require.Contains(t, body["message"], "prod-missing")
	require.Empty(t, f.orders.byID)
}

func TestPlaceOrderCODMissingAddress(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/order/cod",
		`{"items":[{"product":"prod-1","quantity":1}],"address":""}`,
		f.userCookie(t))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, body["success"])
	require.Equal(t, "Invalid order data", body["message"])
}

func TestPlaceOrderStripe(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/order/stripe",
		`{"items":[{"product":"prod-1","quantity":2}],"address":"addr-1"}`,
		f.userCookie(t))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["success"])
	require.Equal(t, "https://checkout.example/cs_test", body["url"])

	require.Len(t, f.orders.byID, 1)
	for id, o := range f.orders.byID {
		require.False(t, o.IsPaid)
		require.Equal(t, id, f.gateway.lastParams.OrderID)
	}
	require.Equal(t, testUserID, f.gateway.lastParams.UserID)

	// Unpaid online orders stay out of listings until the webhook lands.
	visible, err := f.orders.ListVisibleByUser(context.Background(), testUserID)
	require.NoError(t, err)
	require.Empty(t, visible)
}

func TestPlaceOrderStripeGatewayDown(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = payment.ErrUnavailable

	rec, body := f.do(t, http.MethodPost, "/api/order/stripe",
		`{"items":[{"product":"prod-1","quantity":2}],"address":"addr-1"}`,
		f.userCookie(t))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, body["success"])
	// Compensating delete: no stranded unpaid order.
	require.Empty(t, f.orders.byID)
}

// --- webhook ---

func TestPaymentWebhookBadSignature(t *testing.T) {
	f := newFixture(t)
	f.verifier.err = payment.ErrBadSignature

	req := httptest.NewRequest(http.MethodPost, "/api/order/webhook", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bogus")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "t=1,v1=bogus", f.verifier.lastSignature)
}

func TestPaymentWebhookCompleted(t *testing.T) {
	f := newFixture(t)

	// Place an online order first.
	f.do(t, http.MethodPost, "/api/order/stripe",
		`{"items":[{"product":"prod-1","quantity":2}],"address":"addr-1"}`,
		f.userCookie(t))
	orderID := f.gateway.lastParams.OrderID
	require.NotEmpty(t, orderID)

	f.verifier.event = &payment.Event{
		Kind:    payment.EventCompleted,
		Type:    "checkout.session.completed",
		OrderID: orderID,
		UserID:  testUserID,
	}

	rec, body := f.do(t, http.MethodPost, "/api/order/webhook", `{"raw":"payload"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["received"])

	require.True(t, f.orders.byID[orderID].IsPaid)
	require.Empty(t, f.users.byID[testUserID].Cart)

	// Redelivery of the same event changes nothing.
	rec, _ = f.do(t, http.MethodPost, "/api/order/webhook", `{"raw":"payload"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, f.orders.byID[orderID].IsPaid)
}

func TestPaymentWebhookExpired(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/api/order/stripe",
		`{"items":[{"product":"prod-1","quantity":1}],"address":"addr-1"}`,
		f.userCookie(t))
	orderID := f.gateway.lastParams.OrderID

	f.verifier.event = &payment.Event{
		Kind:    payment.EventExpired,
		Type:    "checkout.session.expired",
		OrderID: orderID,
		UserID:  testUserID,
	}

	rec, _ := f.do(t, http.MethodPost, "/api/order/webhook", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, f.orders.byID)
}

func TestPaymentWebhookReconcileFailure(t *testing.T) {
	f := newFixture(t)
	f.orders.markPaidErr = errors.New("db down")
	f.verifier.event = &payment.Event{
		Kind:    payment.EventCompleted,
		Type:    "checkout.session.completed",
		OrderID: "whatever",
		UserID:  testUserID,
	}

	rec, _ := f.do(t, http.MethodPost, "/api/order/webhook", `{}`)

	// 500 tells the gateway to retry; reconciliation is idempotent.
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

// --- order listings ---

func TestGetUserOrders(t *testing.T) {
	f := newFixture(t)
	cookie := f.userCookie(t)

	f.do(t, http.MethodPost, "/api/order/cod",
		`{"items":[{"product":"prod-1","quantity":2}],"address":"addr-1"}`, cookie)

	rec, body := f.do(t, http.MethodGet, "/api/order/user", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["success"])

	orders, ok := body["orders"].([]any)
	require.True(t, ok)
	require.Len(t, orders, 1)

	first, ok := orders[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "204", first["amount"])
	require.Equal(t, "COD", first["paymentType"])

	addr, ok := first["address"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "1 Main St", addr["street"])
}

func TestGetAllOrdersRequiresSeller(t *testing.T) {
	f := newFixture(t)

	// Customer session is not enough for the seller listing.
	rec, _ := f.do(t, http.MethodGet, "/api/order/seller", "", f.userCookie(t))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := f.do(t, http.MethodGet, "/api/order/seller", "", f.sellerCookie(t))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["success"])
}

// --- cart ---

func TestUpdateCart(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/cart/update",
		`{"cartItems":{"prod-1":3,"prod-2":0,"prod-3":-1}}`,
		f.userCookie(t))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["success"])
	require.Equal(t, user.Cart{"prod-1": 3}, f.users.byID[testUserID].Cart)
}

func TestUpdateCartRejectsMissingItems(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/api/cart/update", `{}`, f.userCookie(t))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- users ---

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/user/register",
		`{"name":"New User","email":"new@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["success"])
	require.NotEmpty(t, rec.Result().Cookies())

	rec, body = f.do(t, http.MethodPost, "/api/user/login",
		`{"email":"new@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["success"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)

	_, body := f.do(t, http.MethodPost, "/api/user/register",
		`{"name":"Dup","email":"test@example.com","password":"hunter22"}`)

	require.Equal(t, false, body["success"])
	require.Equal(t, "User already exists", body["message"])
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	require.NoError(t, err)
	f.users.byID[testUserID].PasswordHash = string(hash)

	_, body := f.do(t, http.MethodPost, "/api/user/login",
		`{"email":"test@example.com","password":"wrong"}`)
	require.Equal(t, false, body["success"])
	require.Equal(t, "Invalid email or password", body["message"])

	// Unknown email gets the identical message.
	_, body = f.do(t, http.MethodPost, "/api/user/login",
		`{"email":"nobody@example.com","password":"wrong"}`)
	require.Equal(t, "Invalid email or password", body["message"])
}

func TestIsAuth(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodGet, "/api/user/is-auth", "", f.userCookie(t))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["success"])

	u, ok := body["user"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "test@example.com", u["email"])
}

// --- seller ---

func TestSellerLogin(t *testing.T) {
	f := newFixture(t)

	_, body := f.do(t, http.MethodPost, "/api/seller/login",
		`{"email":"seller@example.com","password":"nope"}`)
	require.Equal(t, false, body["success"])

	rec, body := f.do(t, http.MethodPost, "/api/seller/login",
		`{"email":"seller@example.com","password":"sellersecret"}`)
	require.Equal(t, true, body["success"])
	require.NotEmpty(t, rec.Result().Cookies())
}

// --- products & addresses ---

func TestGetProductNotFound(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodGet, "/api/product/prod-missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, false, body["success"])
}

func TestListProductsImageBaseURL(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodGet, "/api/product/list", "")
	require.Equal(t, http.StatusOK, rec.Code)

	products, ok := body["products"].([]any)
	require.True(t, ok)
	require.Len(t, products, 1)

	first := products[0].(map[string]any)
	require.Equal(t, "100", first["offerPrice"])
}

func TestAddAndListAddresses(t *testing.T) {
	f := newFixture(t)
	cookie := f.userCookie(t)

	rec, body := f.do(t, http.MethodPost, "/api/address/add",
		`{"address":{"firstName":"A","lastName":"B","street":"2 Side St","city":"Pune","state":"MH","zipcode":"411001","country":"IN","phone":"999"}}`,
		cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["success"])

	rec, body = f.do(t, http.MethodGet, "/api/address/list", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	addrs, ok := body["addresses"].([]any)
	require.True(t, ok)
	require.Len(t, addrs, 2)
}
