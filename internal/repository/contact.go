package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/storefront-api/internal/model"
)

type ContactRepository interface {
	Create(ctx context.Context, msg *model.ContactMessage) error
	List(ctx context.Context, limit, offset int) ([]model.ContactMessage, int, error)
}

type pgContactRepo struct{ pool *pgxpool.Pool }

func NewContactRepository(pool *pgxpool.Pool) ContactRepository {
	return &pgContactRepo{pool: pool}
}

func (r *pgContactRepo) Create(ctx context.Context, msg *model.ContactMessage) error {
	msg.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO contact_messages (id, name, email, subject, message, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING created_at`,
		msg.ID, msg.Name, msg.Email, msg.Subject, msg.Message,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("create contact message: %w", err)
	}
	return nil
}

func (r *pgContactRepo) List(ctx context.Context, limit, offset int) ([]model.ContactMessage, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contact_messages`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contact messages: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, subject, message, created_at FROM contact_messages
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list contact messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.ContactMessage
	for rows.Next() {
		var m model.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan contact message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, total, rows.Err()
}
