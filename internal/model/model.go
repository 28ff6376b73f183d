package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID        uuid.UUID
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Category struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Product struct {
	ID          uuid.UUID
	CategoryID  *uuid.UUID
	Name        string
	Slug        string
	Description string
	ImageURL    string
	Price       decimal.Decimal
	Stock       int
	IsActive    bool
	IsFeatured  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CartItem is one row per (user, product). Product fields are filled on reads.
type CartItem struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	ProductID    uuid.UUID
	Quantity     int
	ProductName  string
	ProductImage string
	Price        decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusPaid       OrderStatus = "paid"
)

var orderStatuses = map[OrderStatus]bool{
	OrderStatusPending:    true,
	OrderStatusProcessing: true,
	OrderStatusShipped:    true,
	OrderStatusDelivered:  true,
	OrderStatusCancelled:  true,
	OrderStatusPaid:       true,
}

func (s OrderStatus) Valid() bool { return orderStatuses[s] }

type Order struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Status           OrderStatus
	TotalAmount      decimal.Decimal
	Currency         string
	ShippingAddress  json.RawMessage
	BillingAddress   json.RawMessage
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
	PaidAt           *time.Time
	Items            []OrderItem
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem is a snapshot of the product at the time the order was placed.
type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ProductID    uuid.UUID
	ProductName  string
	ProductImage string
	Quantity     int
	Price        decimal.Decimal
}

const (
	TransactionStatusSuccess = "success"
	TransactionStatusFailed  = "failed"
)

type Transaction struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	UserID           uuid.UUID
	GatewayOrderID   string
	GatewayPaymentID string
	Amount           decimal.Decimal
	Currency         string
	Status           string
	CreatedAt        time.Time
}

type ActivityLog struct {
	ID          uuid.UUID
	UserID      *uuid.UUID
	Action      string
	EntityType  string
	EntityID    string
	Description string
	Metadata    json.RawMessage
	CreatedAt   time.Time
}

type ContactMessage struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Subject   string
	Message   string
	CreatedAt time.Time
}

const (
	NotificationOrderPaid        = "order.paid"
	NotificationContactSubmitted = "contact.submitted"
)

// NotificationMessage is the body published to the notifications queue.
type NotificationMessage struct {
	Kind      string          `json:"kind"`
	ID        uuid.UUID       `json:"id"`
	Email     string          `json:"email"`
	Name      string          `json:"name,omitempty"`
	Subject   string          `json:"subject,omitempty"`
	Message   string          `json:"message,omitempty"`
	Amount    decimal.Decimal `json:"amount,omitempty"`
	Currency  string          `json:"currency,omitempty"`
	PaymentID string          `json:"payment_id,omitempty"`
	Items     []OrderItem     `json:"items,omitempty"`
}
