package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/safar/go-food-order/internal/auth"
	"github.com/safar/go-food-order/internal/events"
	"github.com/safar/go-food-order/internal/models"
	"github.com/safar/go-food-order/internal/orders"
)

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) ResolveUser(ctx context.Context, token string) (*models.User, error) {
	ret := m.Called(ctx, token)
	user, _ := ret.Get(0).(*models.User)
	return user, ret.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	ret := m.Called(ctx, email, password)
	result, _ := ret.Get(0).(*auth.LoginResult)
	return result, ret.Error(1)
}

func (m *mockAuth) Register(ctx context.Context, in auth.RegisterInput) (*models.User, error) {
	ret := m.Called(ctx, in)
	user, _ := ret.Get(0).(*models.User)
	return user, ret.Error(1)
}

type mockOrders struct {
	mock.Mock
}

func (m *mockOrders) Create(ctx context.Context, caller *models.User, in orders.CreateOrderInput) (*models.Order, error) {
	ret := m.Called(ctx, caller, in)
	order, _ := ret.Get(0).(*models.Order)
	return order, ret.Error(1)
}

func (m *mockOrders) List(ctx context.Context, caller *models.User, filter orders.ListFilter) ([]models.Order, error) {
	ret := m.Called(ctx, caller, filter)
	list, _ := ret.Get(0).([]models.Order)
	return list, ret.Error(1)
}

func (m *mockOrders) Get(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Order, error) {
	ret := m.Called(ctx, caller, id)
	order, _ := ret.Get(0).(*models.Order)
	return order, ret.Error(1)
}

func (m *mockOrders) Update(ctx context.Context, caller *models.User, id uuid.UUID, in orders.UpdateOrderInput) (*models.Order, error) {
	ret := m.Called(ctx, caller, id, in)
	order, _ := ret.Get(0).(*models.Order)
	return order, ret.Error(1)
}

func (m *mockOrders) History(ctx context.Context, caller *models.User, id uuid.UUID) ([]models.OrderStatusChange, error) {
	ret := m.Called(ctx, caller, id)
	history, _ := ret.Get(0).([]models.OrderStatusChange)
	return history, ret.Error(1)
}

func (m *mockOrders) Receipt(ctx context.Context, caller *models.User, id uuid.UUID) ([]byte, error) {
	ret := m.Called(ctx, caller, id)
	png, _ := ret.Get(0).([]byte)
	return png, ret.Error(1)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) CreateRestaurant(ctx context.Context, r *models.Restaurant) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockCatalog) GetRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	ret := m.Called(ctx, id)
	r, _ := ret.Get(0).(*models.Restaurant)
	return r, ret.Error(1)
}

func (m *mockCatalog) ListActiveRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	ret := m.Called(ctx)
	list, _ := ret.Get(0).([]models.Restaurant)
	return list, ret.Error(1)
}

func (m *mockCatalog) ListRestaurantsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Restaurant, error) {
	ret := m.Called(ctx, ownerID)
	list, _ := ret.Get(0).([]models.Restaurant)
	return list, ret.Error(1)
}

func (m *mockCatalog) UpdateRestaurant(ctx context.Context, r *models.Restaurant) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockCatalog) DeleteRestaurant(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCatalog) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockCatalog) GetMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	ret := m.Called(ctx, id)
	item, _ := ret.Get(0).(*models.MenuItem)
	return item, ret.Error(1)
}

func (m *mockCatalog) ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]models.MenuItem, error) {
	ret := m.Called(ctx, restaurantID)
	items, _ := ret.Get(0).([]models.MenuItem)
	return items, ret.Error(1)
}

func (m *mockCatalog) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockCatalog) DeleteMenuItem(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockStats struct {
	mock.Mock
}

func (m *mockStats) Daily(ctx context.Context, restaurantID uuid.UUID, day time.Time) (*events.DailyStats, error) {
	ret := m.Called(ctx, restaurantID, day)
	stats, _ := ret.Get(0).(*events.DailyStats)
	return stats, ret.Error(1)
}
