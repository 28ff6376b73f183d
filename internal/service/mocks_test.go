package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/payment"
	"github.com/flicky/storefront-api/internal/repository"
)

type mockUserRepo struct {
	users map[string]*model.User
	byID  map[uuid.UUID]*model.User

	// withOrders marks users other rows reference, as orders.user_id does.
	withOrders map[uuid.UUID]bool
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User), byID: make(map[uuid.UUID]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if _, ok := m.users[strings.ToLower(user.Email)]; ok {
		return repository.ErrDuplicate
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	m.users[strings.ToLower(user.Email)] = user
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return m.byID[id], nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.users[strings.ToLower(email)], nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int, search string) ([]model.User, int, error) {
	var all []model.User
	for _, u := range m.byID {
		if search == "" || strings.Contains(u.Email, search) {
			all = append(all, *u)
		}
	}
	return all, len(all), nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	u, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if m.withOrders[id] {
		return repository.ErrReferenced
	}
	delete(m.byID, id)
	delete(m.users, strings.ToLower(u.Email))
	return nil
}

type mockCategoryRepo struct {
	categories map[uuid.UUID]*model.Category
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{categories: make(map[uuid.UUID]*model.Category)}
}

func (m *mockCategoryRepo) slugTaken(slug string, except uuid.UUID) bool {
	for id, c := range m.categories {
		if c.Slug == slug && id != except {
			return true
		}
	}
	return false
}

func (m *mockCategoryRepo) Create(_ context.Context, c *model.Category) error {
	if m.slugTaken(c.Slug, uuid.Nil) {
		return repository.ErrDuplicate
	}
	c.ID = uuid.New()
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	return m.categories[id], nil
}

func (m *mockCategoryRepo) List(_ context.Context) ([]model.Category, error) {
	var all []model.Category
	for _, c := range m.categories {
		all = append(all, *c)
	}
	return all, nil
}

func (m *mockCategoryRepo) Update(_ context.Context, c *model.Category) error {
	if m.slugTaken(c.Slug, c.ID) {
		return repository.ErrDuplicate
	}
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.categories[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.categories, id)
	return nil
}

type mockProductRepo struct {
	products   map[uuid.UUID]*model.Product
	lastFilter repository.ProductFilter

	// categories, when set, is the set of category ids the foreign key accepts.
	categories map[uuid.UUID]bool
}

func (m *mockProductRepo) badCategory(p *model.Product) bool {
	return m.categories != nil && p.CategoryID != nil && !m.categories[*p.CategoryID]
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (m *mockProductRepo) Create(_ context.Context, p *model.Product) error {
	if m.badCategory(p) {
		return repository.ErrReferenced
	}
	for _, existing := range m.products {
		if existing.Slug == p.Slug {
			return repository.ErrDuplicate
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) GetBySlug(_ context.Context, slug string) (*model.Product, error) {
	for _, p := range m.products {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockProductRepo) List(_ context.Context, f repository.ProductFilter) ([]model.Product, int, error) {
	m.lastFilter = f
	var all []model.Product
	for _, p := range m.products {
		if !f.IncludeInactive && !p.IsActive {
			continue
		}
		all = append(all, *p)
	}
	return all, len(all), nil
}

func (m *mockProductRepo) Update(_ context.Context, p *model.Product) error {
	if m.badCategory(p) {
		return repository.ErrReferenced
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.products, id)
	return nil
}

// mockCartRepo joins against a mockProductRepo the way the SQL join does.
type mockCartRepo struct {
	mu       sync.Mutex
	items    map[uuid.UUID]*model.CartItem
	products *mockProductRepo
}

func newMockCartRepo(products *mockProductRepo) *mockCartRepo {
	return &mockCartRepo{items: make(map[uuid.UUID]*model.CartItem), products: products}
}

func (m *mockCartRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.CartItem
	for _, item := range m.items {
		if item.UserID != userID {
			continue
		}
		cp := *item
		if p, ok := m.products.products[item.ProductID]; ok {
			cp.ProductName, cp.ProductImage, cp.Price = p.Name, p.ImageURL, p.Price
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockCartRepo) AddItem(_ context.Context, item *model.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.UserID == item.UserID && existing.ProductID == item.ProductID {
			existing.Quantity += item.Quantity
			*item = *existing
			return nil
		}
	}
	item.ID = uuid.New()
	item.CreatedAt = time.Now()
	m.items[item.ID] = item
	return nil
}

func (m *mockCartRepo) UpdateItem(_ context.Context, userID, itemID uuid.UUID, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok || item.UserID != userID {
		return false, nil
	}
	item.Quantity = quantity
	return true, nil
}

func (m *mockCartRepo) DeleteItem(_ context.Context, userID, itemID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok || item.UserID != userID {
		return false, nil
	}
	delete(m.items, itemID)
	return true, nil
}

func (m *mockCartRepo) Clear(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, item := range m.items {
		if item.UserID == userID {
			delete(m.items, id)
		}
	}
	return nil
}

type mockOrderRepo struct {
	mu           sync.Mutex
	orders       map[uuid.UUID]*model.Order
	transactions []model.Transaction
	cart         *mockCartRepo
}

func newMockOrderRepo(cart *mockCartRepo) *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order), cart: cart}
}

func (m *mockOrderRepo) CreateWithItems(_ context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range order.Items {
		p, ok := m.cart.products.products[item.ProductID]
		if !ok || p.Stock < item.Quantity {
			return fmt.Errorf("%w for product %s", repository.ErrInsufficientStock, item.ProductID)
		}
	}
	for _, item := range order.Items {
		m.cart.products.products[item.ProductID].Stock -= item.Quantity
	}
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepo) SetGatewayOrderID(_ context.Context, id uuid.UUID, gatewayOrderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	o.GatewayOrderID = gatewayOrderID
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (m *mockOrderRepo) List(_ context.Context, f repository.OrderFilter) ([]model.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []model.Order
	for _, o := range m.orders {
		if f.Status == "" || o.Status == f.Status {
			orders = append(orders, *o)
		}
	}
	return orders, len(orders), nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return false, nil
	}
	if status == model.OrderStatusCancelled && o.Status != model.OrderStatusCancelled {
		for _, item := range o.Items {
			if p, ok := m.cart.products.products[item.ProductID]; ok {
				p.Stock += item.Quantity
			}
		}
	}
	o.Status = status
	return true, nil
}

func (m *mockOrderRepo) CompletePayment(ctx context.Context, order *model.Order, txn *model.Transaction) (bool, error) {
	m.mu.Lock()
	o, ok := m.orders[order.ID]
	if !ok || o.Status != model.OrderStatusPending {
		m.mu.Unlock()
		return false, nil
	}
	now := time.Now()
	o.Status = model.OrderStatusPaid
	o.GatewayPaymentID = order.GatewayPaymentID
	o.GatewaySignature = order.GatewaySignature
	o.PaidAt = &now
	order.Status, order.PaidAt = o.Status, o.PaidAt

	txn.ID = uuid.New()
	txn.CreatedAt = now
	m.transactions = append(m.transactions, *txn)
	m.mu.Unlock()

	return true, m.cart.Clear(ctx, order.UserID)
}

type mockActivityRepo struct {
	mu      sync.Mutex
	entries []model.ActivityLog
}

func (m *mockActivityRepo) Create(_ context.Context, e *model.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *mockActivityRepo) List(_ context.Context, f repository.ActivityLogFilter) ([]model.ActivityLog, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ActivityLog
	for _, e := range m.entries {
		if (f.EntityType == "" || e.EntityType == f.EntityType) && (f.Action == "" || e.Action == f.Action) {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func (m *mockActivityRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

const testKeySecret = "test_secret"

type fakeGateway struct {
	created []int64
	err     error
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*payment.Order, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.created = append(g.created, amount)
	return &payment.Order{ID: "order_" + receipt[:8], Amount: amount, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

func (g *fakeGateway) VerifySignature(gwOrderID, gwPaymentID, signature string) bool {
	return payment.VerifySignature(testKeySecret, gwOrderID, gwPaymentID, signature)
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

type fakeNotifier struct {
	mu       sync.Mutex
	paid     []uuid.UUID
	contacts []uuid.UUID
	err      error
}

func (n *fakeNotifier) OrderPaid(_ context.Context, order *model.Order, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paid = append(n.paid, order.ID)
	return n.err
}

func (n *fakeNotifier) ContactSubmitted(_ context.Context, msg *model.ContactMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contacts = append(n.contacts, msg.ID)
	return n.err
}
