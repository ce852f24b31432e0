// Package api exposes the marketplace over HTTP with gorilla/mux.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/safar/go-food-order/internal/auth"
	"github.com/safar/go-food-order/internal/events"
	"github.com/safar/go-food-order/internal/models"
	"github.com/safar/go-food-order/internal/orders"
)

type Authenticator interface {
	ResolveUser(ctx context.Context, token string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Register(ctx context.Context, in auth.RegisterInput) (*models.User, error)
}

type OrderService interface {
	Create(ctx context.Context, caller *models.User, in orders.CreateOrderInput) (*models.Order, error)
	List(ctx context.Context, caller *models.User, filter orders.ListFilter) ([]models.Order, error)
	Get(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, caller *models.User, id uuid.UUID, in orders.UpdateOrderInput) (*models.Order, error)
	History(ctx context.Context, caller *models.User, id uuid.UUID) ([]models.OrderStatusChange, error)
	Receipt(ctx context.Context, caller *models.User, id uuid.UUID) ([]byte, error)
}

type CatalogStore interface {
	CreateRestaurant(ctx context.Context, r *models.Restaurant) error
	GetRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	ListActiveRestaurants(ctx context.Context) ([]models.Restaurant, error)
	ListRestaurantsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Restaurant, error)
	UpdateRestaurant(ctx context.Context, r *models.Restaurant) error
	DeleteRestaurant(ctx context.Context, id uuid.UUID) error

	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	GetMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id uuid.UUID) error
}

type StatsReader interface {
	Daily(ctx context.Context, restaurantID uuid.UUID, day time.Time) (*events.DailyStats, error)
}

type Handler struct {
	Auth    Authenticator
	Orders  OrderService
	Catalog CatalogStore
	// Stats is optional; without it the stats endpoint reports lifetime totals only.
	Stats StatsReader
	Log   *zap.SugaredLogger

	validate *validator.Validate
	now      func() time.Time
}

func NewHandler(authn Authenticator, orderSvc OrderService, catalog CatalogStore, stats StatsReader, log *zap.SugaredLogger) *Handler {
	return &Handler{
		Auth:     authn,
		Orders:   orderSvc,
		Catalog:  catalog,
		Stats:    stats,
		Log:      log,
		validate: newValidator(),
		now:      time.Now,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.authenticate)

	api.HandleFunc("/register", h.register).Methods(http.MethodPost)
	api.HandleFunc("/login", h.login).Methods(http.MethodPost)
	api.HandleFunc("/users/me", h.me).Methods(http.MethodGet)

	api.HandleFunc("/restaurants", h.listRestaurants).Methods(http.MethodGet)
	api.HandleFunc("/restaurants", h.createRestaurant).Methods(http.MethodPost)
	api.HandleFunc("/my-restaurants", h.myRestaurants).Methods(http.MethodGet)
	api.HandleFunc("/restaurants/{id}", h.getRestaurant).Methods(http.MethodGet)
	api.HandleFunc("/restaurants/{id}", h.updateRestaurant).Methods(http.MethodPut)
	api.HandleFunc("/restaurants/{id}", h.deleteRestaurant).Methods(http.MethodDelete)
	api.HandleFunc("/restaurants/{id}/stats", h.restaurantStats).Methods(http.MethodGet)

	api.HandleFunc("/restaurants/{id}/menu-items", h.listMenuItems).Methods(http.MethodGet)
	api.HandleFunc("/restaurants/{id}/menu-items", h.createMenuItem).Methods(http.MethodPost)
	api.HandleFunc("/menu-items/{id}", h.getMenuItem).Methods(http.MethodGet)
	api.HandleFunc("/menu-items/{id}", h.updateMenuItem).Methods(http.MethodPut)
	api.HandleFunc("/menu-items/{id}", h.deleteMenuItem).Methods(http.MethodDelete)

	api.HandleFunc("/orders", h.createOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders", h.listOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", h.getOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", h.updateOrder).Methods(http.MethodPut)
	api.HandleFunc("/orders/{id}/history", h.orderHistory).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/qrcode", h.orderQRCode).Methods(http.MethodGet)
}

// NewRouter mounts h on a fresh router behind CORS for allowedOrigins.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	return c.Handler(r)
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}
