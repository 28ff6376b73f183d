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

// TransactionRepository is read-only; rows are written by
// OrderRepository.CompletePayment.
type TransactionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context, limit, offset int) ([]model.Transaction, int, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Transaction, error)
}

type pgTransactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepository(pool *pgxpool.Pool) TransactionRepository {
	return &pgTransactionRepo{pool: pool}
}

const transactionColumns = `id, order_id, user_id, gateway_order_id, gateway_payment_id, amount, currency, status, created_at`

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	t := &model.Transaction{}
	err := row.Scan(&t.ID, &t.OrderID, &t.UserID, &t.GatewayOrderID, &t.GatewayPaymentID,
		&t.Amount, &t.Currency, &t.Status, &t.CreatedAt)
	return t, err
}

func (r *pgTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *pgTransactionRepo) List(ctx context.Context, limit, offset int) ([]model.Transaction, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	txns, err := r.query(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	return txns, total, err
}

func (r *pgTransactionRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Transaction, error) {
	return r.query(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *pgTransactionRepo) query(ctx context.Context, sql string, args ...any) ([]model.Transaction, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, *t)
	}
	return txns, rows.Err()
}
