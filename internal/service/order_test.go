package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/payment"
)

type orderFixture struct {
	svc      *OrderService
	products *mockProductRepo
	cart     *mockCartRepo
	orders   *mockOrderRepo
	users    *mockUserRepo
	gateway  *fakeGateway
	notifier *fakeNotifier
	activity *mockActivityRepo
	user     *model.User
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		products: newMockProductRepo(),
		users:    newMockUserRepo(),
		gateway:  &fakeGateway{},
		notifier: &fakeNotifier{},
		activity: &mockActivityRepo{},
	}
	f.cart = newMockCartRepo(f.products)
	f.orders = newMockOrderRepo(f.cart)
	f.user = &model.User{Email: "buyer@example.com", Role: model.RoleCustomer}
	require.NoError(t, f.users.Create(context.Background(), f.user))
	f.svc = NewOrderService(f.orders, f.cart, f.users, f.gateway, f.notifier,
		NewActivityLogger(f.activity, nil), "INR", nil)
	return f
}

func (f *orderFixture) fillCart(t *testing.T, lines map[string]int) {
	t.Helper()
	for price, qty := range lines {
		p := seedProduct(f.products, "p-"+price, price, true)
		require.NoError(t, f.cart.AddItem(context.Background(), &model.CartItem{UserID: f.user.ID, ProductID: p.ID, Quantity: qty}))
	}
}

func (f *orderFixture) checkout(t *testing.T) *dto.CreateOrderResponse {
	t.Helper()
	f.fillCart(t, map[string]int{"19.99": 2, "5.25": 3})
	resp, err := f.svc.CreateOrder(context.Background(), f.user.ID, dto.CreateOrderRequest{
		ShippingAddress: []byte(`{"city":"Pune"}`),
	})
	require.NoError(t, err)
	return resp
}

func verifyRequest(resp *dto.CreateOrderResponse, paymentID string) dto.VerifyPaymentRequest {
	return dto.VerifyPaymentRequest{
		OrderID:          resp.OrderID,
		GatewayOrderID:   resp.GatewayOrderID,
		GatewayPaymentID: paymentID,
		Signature:        payment.Sign(testKeySecret, resp.GatewayOrderID, paymentID),
	}
}

func TestOrderService_CreateOrder_EmptyCart(t *testing.T) {
	f := newOrderFixture(t)
	_, err := f.svc.CreateOrder(context.Background(), f.user.ID, dto.CreateOrderRequest{})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, f.orders.orders)
}

func TestOrderService_CreateOrder_TotalMatchesItems(t *testing.T) {
	f := newOrderFixture(t)
	resp := f.checkout(t)

	expected := decimal.RequireFromString("55.73")
	assert.True(t, resp.Total.Equal(expected), resp.Total.String())
	assert.Equal(t, int64(5573), resp.Amount)
	assert.Equal(t, []int64{5573}, f.gateway.created)
	assert.Equal(t, "INR", resp.Currency)
	assert.Equal(t, "rzp_test_key", resp.KeyID)

	order := f.orders.orders[resp.OrderID]
	require.NotNil(t, order)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, resp.GatewayOrderID, order.GatewayOrderID)
	assert.JSONEq(t, `{}`, string(order.BillingAddress))

	sum := decimal.Zero
	for _, item := range order.Items {
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	assert.True(t, order.TotalAmount.Equal(sum))
}

func TestOrderService_CreateOrder_ReservesStock(t *testing.T) {
	f := newOrderFixture(t)
	p := seedProduct(f.products, "lamp", "12.50", true)
	p.Stock = 3
	require.NoError(t, f.cart.AddItem(context.Background(), &model.CartItem{UserID: f.user.ID, ProductID: p.ID, Quantity: 2}))

	resp, err := f.svc.CreateOrder(context.Background(), f.user.ID, dto.CreateOrderRequest{ShippingAddress: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, 1, f.products.products[p.ID].Stock)

	// One left: a second checkout of the same cart cannot be covered.
	_, err = f.svc.CreateOrder(context.Background(), f.user.ID, dto.CreateOrderRequest{ShippingAddress: []byte(`{}`)})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Len(t, f.orders.orders, 1)
	assert.Equal(t, 1, f.products.products[p.ID].Stock)

	_, err = f.svc.UpdateStatus(context.Background(), uuid.Nil, resp.OrderID, model.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 3, f.products.products[p.ID].Stock)

	_, err = f.svc.UpdateStatus(context.Background(), uuid.Nil, resp.OrderID, model.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 3, f.products.products[p.ID].Stock)
}

func TestOrderService_CreateOrder_GatewayFailureLeavesPendingOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.gateway.err = fmt.Errorf("%w: timeout", payment.ErrGateway)
	f.fillCart(t, map[string]int{"10": 1})

	_, err := f.svc.CreateOrder(context.Background(), f.user.ID, dto.CreateOrderRequest{ShippingAddress: []byte(`{}`)})
	assert.ErrorIs(t, err, payment.ErrGateway)
	require.Len(t, f.orders.orders, 1)
	for _, o := range f.orders.orders {
		assert.Equal(t, model.OrderStatusPending, o.Status)
		assert.Empty(t, o.GatewayOrderID)
	}
}

func TestOrderService_VerifyPayment(t *testing.T) {
	f := newOrderFixture(t)
	resp := f.checkout(t)

	order, err := f.svc.VerifyPayment(context.Background(), f.user.ID, verifyRequest(resp, "pay_123"))
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
	assert.Equal(t, "pay_123", order.GatewayPaymentID)
	require.NotNil(t, order.PaidAt)

	require.Len(t, f.orders.transactions, 1)
	txn := f.orders.transactions[0]
	assert.Equal(t, model.TransactionStatusSuccess, txn.Status)
	assert.True(t, txn.Amount.Equal(order.TotalAmount))

	items, _ := f.cart.ListByUser(context.Background(), f.user.ID)
	assert.Empty(t, items)
	assert.Equal(t, []uuid.UUID{resp.OrderID}, f.notifier.paid)
	assert.Contains(t, f.activity.actions(), ActionPaymentVerified)
}

func TestOrderService_VerifyPayment_ReplayIsIdempotent(t *testing.T) {
	f := newOrderFixture(t)
	resp := f.checkout(t)
	req := verifyRequest(resp, "pay_123")

	_, err := f.svc.VerifyPayment(context.Background(), f.user.ID, req)
	require.NoError(t, err)
	again, err := f.svc.VerifyPayment(context.Background(), f.user.ID, req)
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPaid, again.Status)
	assert.Len(t, f.orders.transactions, 1)
	assert.Len(t, f.notifier.paid, 1)
}

func TestOrderService_VerifyPayment_ConcurrentCallsPayOnce(t *testing.T) {
	f := newOrderFixture(t)
	resp := f.checkout(t)
	req := verifyRequest(resp, "pay_123")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := f.svc.VerifyPayment(context.Background(), f.user.ID, req)
			assert.NoError(t, err)
			if err == nil {
				assert.Equal(t, model.OrderStatusPaid, order.Status)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, f.orders.transactions, 1)
}

func TestOrderService_VerifyPayment_Rejections(t *testing.T) {
	f := newOrderFixture(t)
	resp := f.checkout(t)

	bad := verifyRequest(resp, "pay_123")
	bad.Signature = payment.Sign("wrong-secret", resp.GatewayOrderID, "pay_123")
	_, err := f.svc.VerifyPayment(context.Background(), f.user.ID, bad)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, model.OrderStatusPending, f.orders.orders[resp.OrderID].Status)
	assert.Empty(t, f.orders.transactions)
	items, _ := f.cart.ListByUser(context.Background(), f.user.ID)
	assert.NotEmpty(t, items)

	_, err = f.svc.VerifyPayment(context.Background(), uuid.New(), verifyRequest(resp, "pay_123"))
	assert.ErrorIs(t, err, ErrOrderAccessDenied)

	missing := verifyRequest(resp, "pay_123")
	missing.OrderID = uuid.New()
	_, err = f.svc.VerifyPayment(context.Background(), f.user.ID, missing)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	other := verifyRequest(&dto.CreateOrderResponse{OrderID: resp.OrderID, GatewayOrderID: "order_other"}, "pay_123")
	_, err = f.svc.VerifyPayment(context.Background(), f.user.ID, other)
	assert.ErrorIs(t, err, ErrGatewayOrderMismatch)

	f.orders.orders[resp.OrderID].Status = model.OrderStatusCancelled
	_, err = f.svc.VerifyPayment(context.Background(), f.user.ID, verifyRequest(resp, "pay_123"))
	assert.ErrorIs(t, err, ErrOrderNotPending)
}

func TestOrderService_VerifyPayment_NotifierFailureIgnored(t *testing.T) {
	f := newOrderFixture(t)
	f.notifier.err = errors.New("broker down")
	resp := f.checkout(t)

	order, err := f.svc.VerifyPayment(context.Background(), f.user.ID, verifyRequest(resp, "pay_1"))
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
}

func TestOrderService_GetByID(t *testing.T) {
	f := newOrderFixture(t)
	resp := f.checkout(t)

	order, err := f.svc.GetByID(context.Background(), resp.OrderID, f.user.ID, false)
	require.NoError(t, err)
	assert.Equal(t, resp.OrderID, order.ID)

	_, err = f.svc.GetByID(context.Background(), resp.OrderID, uuid.New(), false)
	assert.ErrorIs(t, err, ErrOrderAccessDenied)
	_, err = f.svc.GetByID(context.Background(), resp.OrderID, uuid.New(), true)
	assert.NoError(t, err)
	_, err = f.svc.GetByID(context.Background(), uuid.New(), f.user.ID, false)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	f := newOrderFixture(t)
	resp := f.checkout(t)

	order, err := f.svc.UpdateStatus(context.Background(), uuid.Nil, resp.OrderID, model.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, order.Status)
	assert.Contains(t, f.activity.actions(), ActionStatusChanged)

	_, err = f.svc.UpdateStatus(context.Background(), uuid.Nil, resp.OrderID, "lost")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.UpdateStatus(context.Background(), uuid.Nil, uuid.New(), model.OrderStatusShipped)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	orders, total, err := f.svc.List(context.Background(), dto.ListOrdersRequest{
		Pagination: dto.Pagination{Page: 1, Limit: 20}, Status: string(model.OrderStatusShipped),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, orders, 1)
}
