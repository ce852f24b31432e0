package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/safar/go-food-order/internal/events"
	"github.com/safar/go-food-order/internal/models"
	"github.com/safar/go-food-order/internal/store"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// UserStore is a mock of auth.UserStore.
type UserStore struct {
	mock.Mock
}

func NewUserStore(t testingT) *UserStore {
	m := &UserStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	ret := m.Called(ctx, id)
	user, _ := ret.Get(0).(*models.User)
	return user, ret.Error(1)
}

func (m *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ret := m.Called(ctx, email)
	user, _ := ret.Get(0).(*models.User)
	return user, ret.Error(1)
}

func (m *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

// OrderRepository is a mock of orders.Repository.
type OrderRepository struct {
	mock.Mock
}

func NewOrderRepository(t testingT) *OrderRepository {
	m := &OrderRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *OrderRepository) CreateOrder(ctx context.Context, order *models.Order, createdBy uuid.UUID) error {
	return m.Called(ctx, order, createdBy).Error(0)
}

func (m *OrderRepository) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	ret := m.Called(ctx, id)
	order, _ := ret.Get(0).(*models.Order)
	return order, ret.Error(1)
}

func (m *OrderRepository) ListOrders(ctx context.Context, filter store.OrderFilter) ([]models.Order, error) {
	ret := m.Called(ctx, filter)
	orders, _ := ret.Get(0).([]models.Order)
	return orders, ret.Error(1)
}

// UpdateOrder hands the mutate callback to a Run function when one is set,
// so tests can drive it against a fixture order.
func (m *OrderRepository) UpdateOrder(ctx context.Context, id, changedBy uuid.UUID, mutate func(*models.Order) error) (*models.Order, error) {
	ret := m.Called(ctx, id, changedBy, mutate)
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID, uuid.UUID, func(*models.Order) error) (*models.Order, error)); ok {
		return rf(ctx, id, changedBy, mutate)
	}
	order, _ := ret.Get(0).(*models.Order)
	return order, ret.Error(1)
}

func (m *OrderRepository) ListStatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusChange, error) {
	ret := m.Called(ctx, orderID)
	history, _ := ret.Get(0).([]models.OrderStatusChange)
	return history, ret.Error(1)
}

func (m *OrderRepository) IncrementRestaurantOrders(ctx context.Context, restaurantID uuid.UUID) error {
	return m.Called(ctx, restaurantID).Error(0)
}

// Catalog is a mock of orders.Catalog.
type Catalog struct {
	mock.Mock
}

func NewCatalog(t testingT) *Catalog {
	m := &Catalog{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Catalog) GetRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	ret := m.Called(ctx, id)
	restaurant, _ := ret.Get(0).(*models.Restaurant)
	return restaurant, ret.Error(1)
}

func (m *Catalog) GetMenuItems(ctx context.Context, ids []uuid.UUID, restaurantID uuid.UUID) ([]models.MenuItem, error) {
	ret := m.Called(ctx, ids, restaurantID)
	items, _ := ret.Get(0).([]models.MenuItem)
	return items, ret.Error(1)
}

// Publisher is a mock of orders.Publisher.
type Publisher struct {
	mock.Mock
}

func NewPublisher(t testingT) *Publisher {
	m := &Publisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Publisher) PublishOrderPlaced(ctx context.Context, event events.OrderEvent) error {
	return m.Called(ctx, event).Error(0)
}

// ReceiptGenerator is a mock of orders.ReceiptGenerator.
type ReceiptGenerator struct {
	mock.Mock
}

func NewReceiptGenerator(t testingT) *ReceiptGenerator {
	m := &ReceiptGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ReceiptGenerator) Generate(orderID uuid.UUID) ([]byte, error) {
	ret := m.Called(orderID)
	data, _ := ret.Get(0).([]byte)
	return data, ret.Error(1)
}
