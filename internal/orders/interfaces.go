package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/safar/go-food-order/internal/events"
	"github.com/safar/go-food-order/internal/models"
	"github.com/safar/go-food-order/internal/store"
)

// Catalog is the read side of restaurants and menus that order placement
// depends on. GetMenuItems must only return items of restaurantID.
type Catalog interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	GetMenuItems(ctx context.Context, ids []uuid.UUID, restaurantID uuid.UUID) ([]models.MenuItem, error)
}

type Repository interface {
	CreateOrder(ctx context.Context, order *models.Order, createdBy uuid.UUID) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, filter store.OrderFilter) ([]models.Order, error)
	UpdateOrder(ctx context.Context, id, changedBy uuid.UUID, mutate func(*models.Order) error) (*models.Order, error)
	ListStatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusChange, error)
	IncrementRestaurantOrders(ctx context.Context, restaurantID uuid.UUID) error
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event events.OrderEvent) error
}

type ReceiptGenerator interface {
	Generate(orderID uuid.UUID) ([]byte, error)
}
