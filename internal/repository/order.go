package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/storefront-api/internal/model"
)

type OrderFilter struct {
	Status model.OrderStatus
	Limit  int
	Offset int
}

type OrderRepository interface {
	CreateWithItems(ctx context.Context, order *model.Order) error
	SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	List(ctx context.Context, f OrderFilter) ([]model.Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (bool, error)
	CompletePayment(ctx context.Context, order *model.Order, txn *model.Transaction) (bool, error)
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

const orderColumns = `id, user_id, status, total_amount, currency, shipping_address, billing_address,
	COALESCE(gateway_order_id, ''), COALESCE(gateway_payment_id, ''), COALESCE(gateway_signature, ''),
	paid_at, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.Currency,
		&o.ShippingAddress, &o.BillingAddress, &o.GatewayOrderID, &o.GatewayPaymentID,
		&o.GatewaySignature, &o.PaidAt, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// CreateWithItems inserts the order and its item snapshots and reserves stock
// for every line in one transaction. A line the stock cannot cover fails the
// whole order with ErrInsufficientStock.
func (r *pgOrderRepo) CreateWithItems(ctx context.Context, order *model.Order) error {
	order.ID = uuid.New()
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO orders (id, user_id, status, total_amount, currency, shipping_address, billing_address,
				created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW()) RETURNING created_at, updated_at`,
			order.ID, order.UserID, order.Status, order.TotalAmount, order.Currency,
			order.ShippingAddress, order.BillingAddress,
		).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i := range order.Items {
			order.Items[i].ID = uuid.New()
			order.Items[i].OrderID = order.ID
			item := order.Items[i]
			_, err = tx.Exec(ctx,
				`INSERT INTO order_items (id, order_id, product_id, product_name, product_image, price, quantity)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				item.ID, item.OrderID, item.ProductID, item.ProductName, item.ProductImage, item.Price, item.Quantity,
			)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
			if err := decrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

func decrementStock(ctx context.Context, db DBTX, productID uuid.UUID, quantity int) error {
	ct, err := db.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1 AND stock >= $2`,
		productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w for product %s", ErrInsufficientStock, productID)
	}
	return nil
}

func (r *pgOrderRepo) SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET gateway_order_id = $2, updated_at = NOW() WHERE id = $1`, id, gatewayOrderID,
	)
	if err != nil {
		return fmt.Errorf("set gateway order id: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	orders := []model.Order{*order}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := r.query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *pgOrderRepo) List(ctx context.Context, f OrderFilter) ([]model.Order, int, error) {
	const where = `WHERE ($1 = '' OR status = $1)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where, string(f.Status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	orders, err := r.query(ctx,
		`SELECT `+orderColumns+` FROM orders `+where+` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		string(f.Status), f.Limit, f.Offset)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus sets the order status. Cancelling an order returns its
// reserved quantities to stock once.
func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (bool, error) {
	found := false
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var prev model.OrderStatus
		err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&prev)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("lock order: %w", err)
		}
		found = true

		if _, err := tx.Exec(ctx,
			`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status,
		); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		if status == model.OrderStatusCancelled && prev != model.OrderStatusCancelled {
			if _, err := tx.Exec(ctx,
				`UPDATE products p SET stock = p.stock + oi.quantity, updated_at = NOW()
				 FROM order_items oi WHERE oi.order_id = $1 AND p.id = oi.product_id`, id,
			); err != nil {
				return fmt.Errorf("restock cancelled order: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// CompletePayment marks a pending order paid, records the transaction and
// empties the owner's cart atomically. It reports false, changing nothing,
// when the order is no longer pending.
func (r *pgOrderRepo) CompletePayment(ctx context.Context, order *model.Order, txn *model.Transaction) (bool, error) {
	applied := false
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE orders
			 SET status = $2, gateway_payment_id = $3, gateway_signature = $4, paid_at = NOW(), updated_at = NOW()
			 WHERE id = $1 AND status = $5
			 RETURNING paid_at, updated_at`,
			order.ID, model.OrderStatusPaid, order.GatewayPaymentID, order.GatewaySignature, model.OrderStatusPending,
		).Scan(&order.PaidAt, &order.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("mark order paid: %w", err)
		}
		order.Status = model.OrderStatusPaid

		txn.ID = uuid.New()
		err = tx.QueryRow(ctx,
			`INSERT INTO transactions (id, order_id, user_id, gateway_order_id, gateway_payment_id, amount, currency, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW()) RETURNING created_at`,
			txn.ID, txn.OrderID, txn.UserID, txn.GatewayOrderID, txn.GatewayPaymentID, txn.Amount, txn.Currency, txn.Status,
		).Scan(&txn.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		if err := clearCart(ctx, tx, order.UserID); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *pgOrderRepo) query(ctx context.Context, sql string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *pgOrderRepo) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product_id, product_name, product_image, price, quantity
		 FROM order_items WHERE order_id = ANY($1)`, ids,
	)
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.ProductImage, &item.Price, &item.Quantity); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return rows.Err()
}
