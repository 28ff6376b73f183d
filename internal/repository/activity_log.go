package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/storefront-api/internal/model"
)

type ActivityLogFilter struct {
	EntityType string
	Action     string
	Limit      int
	Offset     int
}

type ActivityLogRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	List(ctx context.Context, f ActivityLogFilter) ([]model.ActivityLog, int, error)
}

type pgActivityLogRepo struct{ pool *pgxpool.Pool }

func NewActivityLogRepository(pool *pgxpool.Pool) ActivityLogRepository {
	return &pgActivityLogRepo{pool: pool}
}

func (r *pgActivityLogRepo) Create(ctx context.Context, entry *model.ActivityLog) error {
	entry.ID = uuid.New()
	if len(entry.Metadata) == 0 {
		entry.Metadata = []byte("{}")
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO activity_logs (id, user_id, action, entity_type, entity_id, description, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING created_at`,
		entry.ID, entry.UserID, entry.Action, entry.EntityType, entry.EntityID, entry.Description, entry.Metadata,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("create activity log: %w", err)
	}
	return nil
}

func (r *pgActivityLogRepo) List(ctx context.Context, f ActivityLogFilter) ([]model.ActivityLog, int, error) {
	const where = `WHERE ($1 = '' OR entity_type = $1) AND ($2 = '' OR action = $2)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_logs `+where, f.EntityType, f.Action).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activity logs: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, action, entity_type, entity_id, description, metadata, created_at
		 FROM activity_logs `+where+` ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		f.EntityType, f.Action, f.Limit, f.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list activity logs: %w", err)
	}
	defer rows.Close()

	var entries []model.ActivityLog
	for rows.Next() {
		var e model.ActivityLog
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID,
			&e.Description, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan activity log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
