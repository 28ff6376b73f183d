package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/payment"
	"github.com/flicky/storefront-api/internal/repository"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderAccessDenied    = errors.New("access denied")
	ErrInvalidSignature     = errors.New("invalid payment signature")
	ErrGatewayOrderMismatch = errors.New("gateway order does not match order")
	ErrOrderNotPending      = errors.New("order is not awaiting payment")
	ErrInsufficientStock    = errors.New("insufficient stock")
)

var emptyJSON = json.RawMessage(`{}`)

type OrderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	userRepo  repository.UserRepository
	gateway   payment.Gateway
	notifier  Notifier
	activity  *ActivityLogger
	currency  string
	log       *zap.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	gateway payment.Gateway,
	notifier Notifier,
	activity *ActivityLogger,
	currency string,
	log *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		userRepo:  userRepo,
		gateway:   gateway,
		notifier:  notifier,
		activity:  activity,
		currency:  currency,
		log:       nopIfNil(log),
	}
}

// CreateOrder snapshots the cart into a pending order and opens a gateway
// order for its total. A gateway failure leaves the pending order behind.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	cartItems, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, ErrEmptyCart
	}

	total := decimal.Zero
	items := make([]model.OrderItem, 0, len(cartItems))
	for _, ci := range cartItems {
		total = total.Add(ci.Subtotal())
		items = append(items, model.OrderItem{
			ProductID:    ci.ProductID,
			ProductName:  ci.ProductName,
			ProductImage: ci.ProductImage,
			Quantity:     ci.Quantity,
			Price:        ci.Price,
		})
	}

	order := &model.Order{
		UserID:          userID,
		Status:          model.OrderStatusPending,
		TotalAmount:     total,
		Currency:        s.currency,
		ShippingAddress: jsonOrEmpty(req.ShippingAddress),
		BillingAddress:  jsonOrEmpty(req.BillingAddress),
		Items:           items,
	}
	if err := s.orderRepo.CreateWithItems(ctx, order); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, ErrInsufficientStock
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	amount := payment.ToMinorUnits(total, s.currency)
	gwOrder, err := s.gateway.CreateOrder(ctx, amount, s.currency, order.ID.String())
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}
	if err := s.orderRepo.SetGatewayOrderID(ctx, order.ID, gwOrder.ID); err != nil {
		return nil, fmt.Errorf("save gateway order id: %w", err)
	}

	s.activity.Record(ctx, userID, ActionOrderCreated, "order", order.ID.String(), "order created",
		map[string]any{"total": total.String(), "gateway_order_id": gwOrder.ID})

	return &dto.CreateOrderResponse{
		OrderID:        order.ID,
		GatewayOrderID: gwOrder.ID,
		Amount:         amount,
		Total:          total,
		Currency:       s.currency,
		KeyID:          s.gateway.KeyID(),
	}, nil
}

// VerifyPayment checks the gateway signature and marks the order paid. A
// replay of an already verified payment returns the order unchanged.
func (s *OrderService) VerifyPayment(ctx context.Context, userID uuid.UUID, req dto.VerifyPaymentRequest) (*model.Order, error) {
	if !s.gateway.VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		return nil, ErrInvalidSignature
	}

	order, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	if order.GatewayOrderID != req.GatewayOrderID {
		return nil, ErrGatewayOrderMismatch
	}
	switch order.Status {
	case model.OrderStatusPaid:
		return order, nil
	case model.OrderStatusPending:
	default:
		return nil, ErrOrderNotPending
	}

	order.GatewayPaymentID = req.GatewayPaymentID
	order.GatewaySignature = req.Signature
	txn := &model.Transaction{
		OrderID:          order.ID,
		UserID:           order.UserID,
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Amount:           order.TotalAmount,
		Currency:         order.Currency,
		Status:           model.TransactionStatusSuccess,
	}
	applied, err := s.orderRepo.CompletePayment(ctx, order, txn)
	if err != nil {
		return nil, fmt.Errorf("complete payment: %w", err)
	}
	if !applied {
		// Lost a race with a concurrent verification.
		current, err := s.orderRepo.GetByID(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("reload order: %w", err)
		}
		if current == nil {
			return nil, ErrOrderNotFound
		}
		if current.Status != model.OrderStatusPaid {
			return nil, ErrOrderNotPending
		}
		return current, nil
	}

	s.activity.Record(ctx, userID, ActionPaymentVerified, "order", order.ID.String(), "payment verified",
		map[string]any{"gateway_payment_id": req.GatewayPaymentID, "amount": order.TotalAmount.String()})
	s.notifyPaid(ctx, order)
	return order, nil
}

func (s *OrderService) notifyPaid(ctx context.Context, order *model.Order) {
	if s.notifier == nil {
		return
	}
	log := s.log.With(zap.String("order_id", order.ID.String()))
	user, err := s.userRepo.GetByID(ctx, order.UserID)
	if err != nil || user == nil {
		log.Warn("order paid notification skipped, user lookup failed", zap.Error(err))
		return
	}
	if err := s.notifier.OrderPaid(ctx, order, user.Email); err != nil {
		log.Warn("publish order paid notification", zap.Error(err))
	}
}

// GetByID returns the order to its owner, or to any admin.
func (s *OrderService) GetByID(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !isAdmin && order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) List(ctx context.Context, req dto.ListOrdersRequest) ([]model.Order, int, error) {
	orders, total, err := s.orderRepo.List(ctx, repository.OrderFilter{
		Status: model.OrderStatus(req.Status),
		Limit:  req.Limit,
		Offset: req.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, actor, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	ok, err := s.orderRepo.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if !ok {
		return nil, ErrOrderNotFound
	}

	s.activity.Record(ctx, actor, ActionStatusChanged, "order", orderID.String(), "order status set to "+string(status),
		map[string]any{"status": status})
	return s.GetByID(ctx, orderID, actor, true)
}

func jsonOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return emptyJSON
	}
	return raw
}
