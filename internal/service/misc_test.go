package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
)

type mockTransactionRepo struct {
	txns []model.Transaction
}

func (m *mockTransactionRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Transaction, error) {
	for i := range m.txns {
		if m.txns[i].ID == id {
			return &m.txns[i], nil
		}
	}
	return nil, nil
}

func (m *mockTransactionRepo) List(_ context.Context, limit, offset int) ([]model.Transaction, int, error) {
	return m.txns, len(m.txns), nil
}

func (m *mockTransactionRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, t := range m.txns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

type mockContactRepo struct {
	msgs []model.ContactMessage
	err  error
}

func (m *mockContactRepo) Create(_ context.Context, msg *model.ContactMessage) error {
	if m.err != nil {
		return m.err
	}
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	m.msgs = append(m.msgs, *msg)
	return nil
}

func (m *mockContactRepo) List(_ context.Context, limit, offset int) ([]model.ContactMessage, int, error) {
	return m.msgs, len(m.msgs), nil
}

func TestTransactionService(t *testing.T) {
	userID := uuid.New()
	repo := &mockTransactionRepo{txns: []model.Transaction{
		{ID: uuid.New(), UserID: userID, Amount: decimal.NewFromInt(10), Status: model.TransactionStatusSuccess},
		{ID: uuid.New(), UserID: uuid.New(), Amount: decimal.NewFromInt(5), Status: model.TransactionStatusSuccess},
	}}
	svc := NewTransactionService(repo)

	all, err := svc.List(context.Background(), dto.Pagination{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)

	mine, err := svc.ListByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, mine.Transactions, 1)

	got, err := svc.Get(context.Background(), repo.txns[0].ID)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)

	_, err = svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestContactService_Submit(t *testing.T) {
	repo := &mockContactRepo{}
	notifier := &fakeNotifier{}
	svc := NewContactService(repo, notifier, nil, nil)

	resp, err := svc.Submit(context.Background(), dto.ContactRequest{
		Name: " Ann ", Email: "ann@example.com", Subject: "Hi", Message: "Where is my order?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann", resp.Name)
	assert.Len(t, repo.msgs, 1)
	assert.Equal(t, []uuid.UUID{resp.ID}, notifier.contacts)

	_, err = svc.Submit(context.Background(), dto.ContactRequest{Name: "  ", Email: "a@b.c", Message: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestContactService_NotifierFailureIgnored(t *testing.T) {
	svc := NewContactService(&mockContactRepo{}, &fakeNotifier{err: errors.New("down")}, nil, nil)
	_, err := svc.Submit(context.Background(), dto.ContactRequest{Name: "Ann", Email: "a@b.c", Message: "x"})
	assert.NoError(t, err)
}

func TestActivityLogger(t *testing.T) {
	repo := &mockActivityRepo{}
	a := NewActivityLogger(repo, nil)
	actor := uuid.New()

	a.Record(context.Background(), actor, ActionCreate, "product", "p1", "created", map[string]any{"k": 1})
	a.Record(context.Background(), uuid.Nil, ActionContact, "contact", "c1", "msg", nil)
	require.Len(t, repo.entries, 2)
	assert.Equal(t, actor, *repo.entries[0].UserID)
	assert.JSONEq(t, `{"k":1}`, string(repo.entries[0].Metadata))
	assert.Nil(t, repo.entries[1].UserID)

	_, err := a.Create(context.Background(), actor, dto.CreateLogRequest{Action: "note", EntityType: "order", Metadata: []byte("{bad")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, err := a.List(context.Background(), dto.ListLogsRequest{Pagination: dto.Pagination{Page: 1, Limit: 10}, EntityType: "product"})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	var nilLogger *ActivityLogger
	nilLogger.Record(context.Background(), actor, ActionCreate, "x", "y", "z", nil)
}
