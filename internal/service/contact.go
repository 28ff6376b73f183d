package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

type ContactService struct {
	contactRepo repository.ContactRepository
	notifier    Notifier
	activity    *ActivityLogger
	log         *zap.Logger
}

func NewContactService(contactRepo repository.ContactRepository, notifier Notifier, activity *ActivityLogger, log *zap.Logger) *ContactService {
	return &ContactService{contactRepo: contactRepo, notifier: notifier, activity: activity, log: nopIfNil(log)}
}

func (s *ContactService) Submit(ctx context.Context, req dto.ContactRequest) (*dto.ContactResponse, error) {
	msg := &model.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}
	if msg.Name == "" || msg.Message == "" {
		return nil, fmt.Errorf("%w: name and message are required", ErrInvalidInput)
	}
	if err := s.contactRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("save contact message: %w", err)
	}

	s.activity.Record(ctx, uuid.Nil, ActionContact, "contact", msg.ID.String(), "contact message from "+msg.Email, nil)
	if s.notifier != nil {
		if err := s.notifier.ContactSubmitted(ctx, msg); err != nil {
			s.log.Warn("publish contact notification", zap.String("contact_id", msg.ID.String()), zap.Error(err))
		}
	}

	resp := toContactResponse(msg)
	return &resp, nil
}

func (s *ContactService) List(ctx context.Context, p dto.Pagination) (*dto.ContactListResponse, error) {
	msgs, total, err := s.contactRepo.List(ctx, p.Limit, p.Offset())
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	out := make([]dto.ContactResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, toContactResponse(&msgs[i]))
	}
	return &dto.ContactListResponse{Messages: out, Total: total, Page: p.Page, Limit: p.Limit}, nil
}

func toContactResponse(m *model.ContactMessage) dto.ContactResponse {
	return dto.ContactResponse{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Subject:   m.Subject,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
	}
}
