package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

var ErrTransactionNotFound = errors.New("transaction not found")

type TransactionService struct {
	txnRepo repository.TransactionRepository
}

func NewTransactionService(txnRepo repository.TransactionRepository) *TransactionService {
	return &TransactionService{txnRepo: txnRepo}
}

func (s *TransactionService) List(ctx context.Context, p dto.Pagination) (*dto.TransactionListResponse, error) {
	txns, total, err := s.txnRepo.List(ctx, p.Limit, p.Offset())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return &dto.TransactionListResponse{Transactions: toTransactionResponses(txns), Total: total, Page: p.Page, Limit: p.Limit}, nil
}

func (s *TransactionService) Get(ctx context.Context, id uuid.UUID) (*dto.TransactionResponse, error) {
	txn, err := s.txnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if txn == nil {
		return nil, ErrTransactionNotFound
	}
	resp := toTransactionResponse(txn)
	return &resp, nil
}

func (s *TransactionService) ListByUserID(ctx context.Context, userID uuid.UUID) (*dto.TransactionListResponse, error) {
	txns, err := s.txnRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return &dto.TransactionListResponse{Transactions: toTransactionResponses(txns), Total: len(txns)}, nil
}

func toTransactionResponses(txns []model.Transaction) []dto.TransactionResponse {
	out := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, toTransactionResponse(&txns[i]))
	}
	return out
}

func toTransactionResponse(t *model.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:               t.ID,
		OrderID:          t.OrderID,
		UserID:           t.UserID,
		GatewayOrderID:   t.GatewayOrderID,
		GatewayPaymentID: t.GatewayPaymentID,
		Amount:           t.Amount,
		Currency:         t.Currency,
		Status:           t.Status,
		CreatedAt:        t.CreatedAt,
	}
}
