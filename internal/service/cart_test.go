package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
)

func seedProduct(repo *mockProductRepo, name string, price string, active bool) *model.Product {
	p := &model.Product{ID: uuid.New(), Name: name, Slug: name, Price: decimal.RequireFromString(price), Stock: 100, IsActive: active}
	repo.products[p.ID] = p
	return p
}

func TestCartService_AddAndGet(t *testing.T) {
	products := newMockProductRepo()
	cart := newMockCartRepo(products)
	svc := NewCartService(cart, products)
	userID := uuid.New()
	mug := seedProduct(products, "mug", "12.50", true)
	tee := seedProduct(products, "tee", "20.00", true)

	require.NoError(t, svc.AddItem(context.Background(), userID, dto.AddCartItemRequest{ProductID: mug.ID, Quantity: 2}))
	require.NoError(t, svc.AddItem(context.Background(), userID, dto.AddCartItemRequest{ProductID: tee.ID, Quantity: 1}))
	require.NoError(t, svc.AddItem(context.Background(), userID, dto.AddCartItemRequest{ProductID: mug.ID, Quantity: 1}))

	resp, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, 4, resp.Count)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("57.50")), resp.Total.String())
}

func TestCartService_AddItem_Rejects(t *testing.T) {
	products := newMockProductRepo()
	svc := NewCartService(newMockCartRepo(products), products)
	inactive := seedProduct(products, "gone", "1", false)

	err := svc.AddItem(context.Background(), uuid.New(), dto.AddCartItemRequest{ProductID: inactive.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrProductNotFound)
	err = svc.AddItem(context.Background(), uuid.New(), dto.AddCartItemRequest{ProductID: uuid.New(), Quantity: 1})
	assert.ErrorIs(t, err, ErrProductNotFound)
	err = svc.AddItem(context.Background(), uuid.New(), dto.AddCartItemRequest{ProductID: inactive.ID, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCartService_ConcurrentAddsConverge(t *testing.T) {
	products := newMockProductRepo()
	cart := newMockCartRepo(products)
	svc := NewCartService(cart, products)
	userID := uuid.New()
	p := seedProduct(products, "mug", "1", true)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.AddItem(context.Background(), userID, dto.AddCartItemRequest{ProductID: p.ID, Quantity: 1})
		}()
	}
	wg.Wait()

	items, err := cart.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 20, items[0].Quantity)
}

func TestCartService_UpdateDeleteOwnership(t *testing.T) {
	products := newMockProductRepo()
	cart := newMockCartRepo(products)
	svc := NewCartService(cart, products)
	owner, other := uuid.New(), uuid.New()
	p := seedProduct(products, "mug", "1", true)
	require.NoError(t, svc.AddItem(context.Background(), owner, dto.AddCartItemRequest{ProductID: p.ID, Quantity: 1}))
	items, _ := cart.ListByUser(context.Background(), owner)
	itemID := items[0].ID

	assert.ErrorIs(t, svc.UpdateItem(context.Background(), other, itemID, 3), ErrCartItemNotFound)
	assert.ErrorIs(t, svc.UpdateItem(context.Background(), owner, itemID, 0), ErrInvalidQuantity)
	require.NoError(t, svc.UpdateItem(context.Background(), owner, itemID, 3))

	assert.ErrorIs(t, svc.DeleteItem(context.Background(), other, itemID), ErrCartItemNotFound)
	require.NoError(t, svc.DeleteItem(context.Background(), owner, itemID))

	require.NoError(t, svc.Clear(context.Background(), owner))
	resp, err := svc.GetCart(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}
