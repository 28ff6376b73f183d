package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

const (
	ActionCreate          = "create"
	ActionUpdate          = "update"
	ActionDelete          = "delete"
	ActionOrderCreated    = "order_created"
	ActionPaymentVerified = "payment_verified"
	ActionStatusChanged   = "status_changed"
	ActionContact         = "contact_submitted"
)

// ActivityLogger writes audit rows for the admin Logs view.
type ActivityLogger struct {
	repo repository.ActivityLogRepository
	log  *zap.Logger
}

func NewActivityLogger(repo repository.ActivityLogRepository, log *zap.Logger) *ActivityLogger {
	return &ActivityLogger{repo: repo, log: nopIfNil(log)}
}

// Record stores an audit row. Failures are logged and swallowed; a nil
// ActivityLogger is a no-op.
func (a *ActivityLogger) Record(ctx context.Context, actor uuid.UUID, action, entityType, entityID, description string, metadata map[string]any) {
	if a == nil {
		return
	}
	entry := &model.ActivityLog{
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
	}
	if actor != uuid.Nil {
		entry.UserID = &actor
	}
	if len(metadata) > 0 {
		if data, err := json.Marshal(metadata); err == nil {
			entry.Metadata = data
		}
	}
	if err := a.repo.Create(ctx, entry); err != nil {
		a.log.Warn("record activity failed",
			zap.String("action", action), zap.String("entity_type", entityType), zap.Error(err))
	}
}

func (a *ActivityLogger) Create(ctx context.Context, actor uuid.UUID, req dto.CreateLogRequest) (*dto.LogResponse, error) {
	if len(req.Metadata) > 0 && !json.Valid(req.Metadata) {
		return nil, fmt.Errorf("%w: metadata must be JSON", ErrInvalidInput)
	}
	entry := &model.ActivityLog{
		Action:      req.Action,
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		Description: req.Description,
		Metadata:    req.Metadata,
	}
	if actor != uuid.Nil {
		entry.UserID = &actor
	}
	if err := a.repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create activity log: %w", err)
	}
	resp := toLogResponse(entry)
	return &resp, nil
}

func (a *ActivityLogger) List(ctx context.Context, req dto.ListLogsRequest) (*dto.LogListResponse, error) {
	entries, total, err := a.repo.List(ctx, repository.ActivityLogFilter{
		EntityType: req.EntityType,
		Action:     req.Action,
		Limit:      req.Limit,
		Offset:     req.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}

	logs := make([]dto.LogResponse, 0, len(entries))
	for i := range entries {
		logs = append(logs, toLogResponse(&entries[i]))
	}
	return &dto.LogListResponse{Logs: logs, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func toLogResponse(e *model.ActivityLog) dto.LogResponse {
	return dto.LogResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		Action:      e.Action,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Description: e.Description,
		Metadata:    e.Metadata,
		CreatedAt:   e.CreatedAt,
	}
}
