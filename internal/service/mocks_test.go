package service

import (
	"context"
	"sort"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/session"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// In-memory mocks backing the service tests.

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	existing, ok := m.products[product.ID]
	if !ok || existing.DeletedAt != nil {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	product, ok := m.products[id]
	if !ok || product.DeletedAt != nil {
		return repository.ErrProductNotFound
	}
	now := time.Now()
	product.DeletedAt = &now
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) FindLiveByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok || product.DeletedAt != nil {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) FindLiveByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	result := make(map[uuid.UUID]*domain.Product)
	for _, id := range ids {
		if product, ok := m.products[id]; ok && product.DeletedAt == nil {
			result[id] = product
		}
	}
	return result, nil
}

func (m *mockProductRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	for _, product := range m.products {
		if product.Slug == slug && product.DeletedAt == nil {
			return product, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for _, product := range m.products {
		if product.DeletedAt == nil {
			products = append(products, product)
		}
	}
	return products, nil
}

func (m *mockProductRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for _, product := range m.products {
		if product.DeletedAt == nil && product.GroupID != nil && *product.GroupID == groupID {
			products = append(products, product)
		}
	}
	return products, nil
}

type mockGroupRepository struct {
	groups map[uuid.UUID]*domain.ProductGroup
}

func newMockGroupRepository() *mockGroupRepository {
	return &mockGroupRepository{groups: make(map[uuid.UUID]*domain.ProductGroup)}
}

func (m *mockGroupRepository) Create(ctx context.Context, group *domain.ProductGroup) error {
	for _, existing := range m.groups {
		if existing.Slug == group.Slug && existing.DeletedAt == nil {
			return repository.ErrGroupSlugConflict
		}
	}
	m.groups[group.ID] = group
	return nil
}

func (m *mockGroupRepository) Update(ctx context.Context, group *domain.ProductGroup) error {
	existing, ok := m.groups[group.ID]
	if !ok || existing.DeletedAt != nil {
		return repository.ErrGroupNotFound
	}
	m.groups[group.ID] = group
	return nil
}

func (m *mockGroupRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	group, ok := m.groups[id]
	if !ok || group.DeletedAt != nil {
		return repository.ErrGroupNotFound
	}
	now := time.Now()
	group.DeletedAt = &now
	return nil
}

func (m *mockGroupRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ProductGroup, error) {
	group, ok := m.groups[id]
	if !ok || group.DeletedAt != nil {
		return nil, repository.ErrGroupNotFound
	}
	return group, nil
}

func (m *mockGroupRepository) FindBySlug(ctx context.Context, slug string) (*domain.ProductGroup, error) {
	for _, group := range m.groups {
		if group.Slug == slug && group.DeletedAt == nil {
			return group, nil
		}
	}
	return nil, repository.ErrGroupNotFound
}

func (m *mockGroupRepository) List(ctx context.Context) ([]*domain.ProductGroup, error) {
	groups := []*domain.ProductGroup{}
	for _, group := range m.groups {
		if group.DeletedAt == nil {
			groups = append(groups, group)
		}
	}
	return groups, nil
}

func (m *mockGroupRepository) ListParents(ctx context.Context) ([]*domain.ProductGroup, error) {
	groups := []*domain.ProductGroup{}
	for _, group := range m.groups {
		if group.DeletedAt == nil && group.ParentID == nil {
			groups = append(groups, group)
		}
	}
	return groups, nil
}

func (m *mockGroupRepository) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*domain.ProductGroup, error) {
	groups := []*domain.ProductGroup{}
	for _, group := range m.groups {
		if group.DeletedAt == nil && group.ParentID != nil && *group.ParentID == parentID {
			groups = append(groups, group)
		}
	}
	return groups, nil
}

func (m *mockGroupRepository) CountChildren(ctx context.Context, parentID uuid.UUID) (int, error) {
	children, _ := m.ListChildren(ctx, parentID)
	return len(children), nil
}

type cartKey struct {
	userID    uuid.UUID
	productID uuid.UUID
}

type mockCartRepository struct {
	items    map[cartKey]*domain.CartItem
	products *mockProductRepository
}

func newMockCartRepository(products *mockProductRepository) *mockCartRepository {
	return &mockCartRepository{
		items:    make(map[cartKey]*domain.CartItem),
		products: products,
	}
}

func (m *mockCartRepository) Find(ctx context.Context, userID, productID uuid.UUID) (*domain.CartItem, error) {
	item, ok := m.items[cartKey{userID, productID}]
	if !ok {
		return nil, repository.ErrCartItemNotFound
	}
	return item, nil
}

func (m *mockCartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	items := []*domain.CartItem{}
	for key, item := range m.items {
		if key.userID != userID {
			continue
		}
		// Attach the product row, soft-deleted ones included.
		item.Product = m.products.products[item.ProductID]
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].AddedAt.Before(items[j].AddedAt) })
	return items, nil
}

func (m *mockCartRepository) Upsert(ctx context.Context, item *domain.CartItem) error {
	m.items[cartKey{item.UserID, item.ProductID}] = item
	return nil
}

func (m *mockCartRepository) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	delete(m.items, cartKey{userID, productID})
	return nil
}

func (m *mockCartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	for key := range m.items {
		if key.userID == userID {
			delete(m.items, key)
		}
	}
	return nil
}

func (m *mockCartRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for key := range m.items {
		if key.userID == userID {
			count++
		}
	}
	return count, nil
}

func (m *mockCartRepository) Total(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for key, item := range m.items {
		if key.userID != userID {
			continue
		}
		if product, ok := m.products.products[item.ProductID]; ok {
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	return total, nil
}

type mockOrderRepository struct {
	orders   map[uuid.UUID]*domain.Order
	products *mockProductRepository
	carts    *mockCartRepository
}

func newMockOrderRepository(products *mockProductRepository, carts *mockCartRepository) *mockOrderRepository {
	return &mockOrderRepository{
		orders:   make(map[uuid.UUID]*domain.Order),
		products: products,
		carts:    carts,
	}
}

// CreateFromCart mirrors the transactional semantics of the real repository:
// either every stock decrement succeeds and the cart is cleared, or nothing
// changes at all.
func (m *mockOrderRepository) CreateFromCart(ctx context.Context, order *domain.Order, items []*domain.OrderItem) error {
	for _, item := range items {
		product, ok := m.products.products[item.ProductID]
		if !ok || product.DeletedAt != nil || product.Stock < item.Quantity {
			return repository.ErrInsufficientStock
		}
	}

	for _, item := range items {
		m.products.products[item.ProductID].Stock -= item.Quantity
	}

	stored := *order
	stored.Items = items
	m.orders[order.ID] = &stored

	return m.carts.Clear(ctx, order.UserID)
}

func (m *mockOrderRepository) FindByID(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error) {
	order, ok := m.orders[orderID]
	if !ok || order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderRepository) FindLast(ctx context.Context, userID uuid.UUID) (*domain.Order, error) {
	orders, _ := m.ListByUser(ctx, userID)
	if len(orders) == 0 {
		return nil, repository.ErrOrderNotFound
	}
	return orders[0], nil
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	orders := []*domain.Order{}
	for _, order := range m.orders {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderDate.After(orders[j].OrderDate) })
	return orders, nil
}

type mockUserRepository struct {
	users    map[uuid.UUID]*domain.User
	accesses map[string]*domain.UserAccess
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:    make(map[uuid.UUID]*domain.User),
		accesses: make(map[string]*domain.UserAccess),
	}
}

func (m *mockUserRepository) CreateWithAccess(ctx context.Context, user *domain.User, access *domain.UserAccess) error {
	if _, exists := m.accesses[access.Login]; exists {
		return repository.ErrLoginConflict
	}
	for _, existing := range m.users {
		if existing.Email == user.Email && existing.DeletedAt == nil {
			return repository.ErrEmailConflict
		}
	}
	m.users[user.ID] = user
	m.accesses[access.Login] = access
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok || user.DeletedAt != nil {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	access, ok := m.accesses[login]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return m.FindByID(ctx, access.UserID)
}

func (m *mockUserRepository) FindAccessByLogin(ctx context.Context, login string) (*domain.UserAccess, error) {
	access, ok := m.accesses[login]
	if !ok {
		return nil, repository.ErrAccessNotFound
	}
	user, ok := m.users[access.UserID]
	if !ok || user.DeletedAt != nil {
		return nil, repository.ErrAccessNotFound
	}
	return access, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	existing, ok := m.users[user.ID]
	if !ok || existing.DeletedAt != nil {
		return repository.ErrUserNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	user, ok := m.users[id]
	if !ok || user.DeletedAt != nil {
		return repository.ErrUserNotFound
	}
	now := time.Now()
	user.Name = "Deleted User"
	user.Email = "deleted+" + id.String() + "@example.com"
	user.Birthdate = nil
	user.DeletedAt = &now
	return nil
}

type mockSessionStore struct {
	records map[string]session.Record
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{records: make(map[string]session.Record)}
}

func (m *mockSessionStore) Create(ctx context.Context, record session.Record) (string, error) {
	token := uuid.NewString()
	m.records[token] = record
	return token, nil
}

func (m *mockSessionStore) Get(ctx context.Context, token string) (*session.Record, error) {
	record, ok := m.records[token]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return &record, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, token string) error {
	delete(m.records, token)
	return nil
}

func (m *mockSessionStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	for token, record := range m.records {
		if record.UserID == userID {
			delete(m.records, token)
		}
	}
	return nil
}
