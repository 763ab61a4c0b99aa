package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshcart/storefront/internal/domain/user"
	"github.com/freshcart/storefront/internal/payment"
)

type mockUserRepo struct {
	carts        map[string]user.Cart
	clearedCalls int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{carts: make(map[string]user.Cart)}
}

func (m *mockUserRepo) Create(_ context.Context, _ *user.User) error { return nil }

func (m *mockUserRepo) GetByID(_ context.Context, _ string) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, _ string) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (m *mockUserRepo) SetCart(_ context.Context, userID string, cart user.Cart) error {
	m.carts[userID] = cart
	return nil
}

func (m *mockUserRepo) ClearCart(_ context.Context, userID string) error {
	m.clearedCalls++
	m.carts[userID] = user.Cart{}
	return nil
}

func seedOnlineOrder(t *testing.T, orders *mockOrderRepo, id, userID string) {
	t.Helper()
	require.NoError(t, orders.Create(context.Background(), &Order{
		ID:          id,
		UserID:      userID,
		PaymentType: PaymentOnline,
	}))
}

func TestHandleEvent_Completed(t *testing.T) {
	orders := newMockOrderRepo()
	users := newMockUserRepo()
	users.carts["u1"] = user.Cart{"p1": 2}
	seedOnlineOrder(t, orders, "o1", "u1")

	rec := NewReconciler(orders, users)
	err := rec.HandleEvent(context.Background(), payment.Event{
		Kind:    payment.EventCompleted,
		OrderID: "o1",
		UserID:  "u1",
	})

	require.NoError(t, err)
	assert.True(t, orders.byID["o1"].IsPaid)
	assert.Empty(t, users.carts["u1"])

	// Paid online order becomes visible.
	visible, err := orders.ListVisibleByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, visible, 1)
}

func TestHandleEvent_CompletedRedelivery(t *testing.T) {
	orders := newMockOrderRepo()
	users := newMockUserRepo()
	users.carts["u1"] = user.Cart{"p1": 2}
	seedOnlineOrder(t, orders, "o1", "u1")

	rec := NewReconciler(orders, users)
	ev := payment.Event{Kind: payment.EventCompleted, OrderID: "o1", UserID: "u1"}

	require.NoError(t, rec.HandleEvent(context.Background(), ev))
	require.NoError(t, rec.HandleEvent(context.Background(), ev))

	assert.True(t, orders.byID["o1"].IsPaid)
	assert.Empty(t, users.carts["u1"])
	assert.Equal(t, 2, users.clearedCalls, "both deliveries applied, both no-op safe")
}

func TestHandleEvent_Expired(t *testing.T) {
	orders := newMockOrderRepo()
	seedOnlineOrder(t, orders, "o1", "u1")

	rec := NewReconciler(orders, newMockUserRepo())
	err := rec.HandleEvent(context.Background(), payment.Event{
		Kind:    payment.EventExpired,
		OrderID: "o1",
	})

	require.NoError(t, err)
	assert.Empty(t, orders.byID, "expired order is deleted outright")
}

func TestHandleEvent_ExpiredMissingOrder(t *testing.T) {
	rec := NewReconciler(newMockOrderRepo(), newMockUserRepo())

	err := rec.HandleEvent(context.Background(), payment.Event{
		Kind:    payment.EventExpired,
		OrderID: "never-existed",
	})
	require.NoError(t, err, "deleting a missing order is a no-op, not an error")
}

func TestHandleEvent_IgnoredKind(t *testing.T) {
	orders := newMockOrderRepo()
	seedOnlineOrder(t, orders, "o1", "u1")

	rec := NewReconciler(orders, newMockUserRepo())
	err := rec.HandleEvent(context.Background(), payment.Event{
		Kind: payment.EventIgnored,
		Type: "invoice.created",
	})

	require.NoError(t, err)
	assert.False(t, orders.byID["o1"].IsPaid, "unrecognized events change nothing")
}
