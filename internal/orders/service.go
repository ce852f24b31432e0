// Package orders implements order placement, visibility and the status
// lifecycle on top of the catalog and order repositories.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/safar/go-food-order/internal/apperr"
	"github.com/safar/go-food-order/internal/config"
	"github.com/safar/go-food-order/internal/database"
	"github.com/safar/go-food-order/internal/events"
	"github.com/safar/go-food-order/internal/models"
	"github.com/safar/go-food-order/internal/pricing"
	"github.com/safar/go-food-order/internal/store"
)

type Service struct {
	repo      Repository
	catalog   Catalog
	publisher Publisher
	receipts  ReceiptGenerator
	log       *zap.SugaredLogger

	rates       pricing.Rates
	prepMinutes int
	strict      bool
	now         func() time.Time
}

func NewService(repo Repository, catalog Catalog, publisher Publisher, receipts ReceiptGenerator, cfg config.OrdersConfig, log *zap.SugaredLogger) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalog,
		publisher: publisher,
		receipts:  receipts,
		log:       log,
		rates: pricing.Rates{
			TaxRate:            cfg.TaxRate,
			DefaultDeliveryFee: cfg.DefaultDeliveryFee,
		},
		prepMinutes: cfg.DefaultPrepMinutes,
		strict:      cfg.StrictTransitions,
		now:         time.Now,
	}
}

type ItemInput struct {
	MenuItemID          uuid.UUID
	Quantity            int
	Customizations      json.RawMessage
	SpecialInstructions string
}

type CreateOrderInput struct {
	RestaurantID         uuid.UUID
	DeliveryAddress      string
	DeliveryInstructions string
	SpecialInstructions  string
	TipAmount            decimal.Decimal
	PaymentMethod        string
	Items                []ItemInput
}

func (in CreateOrderInput) validate() error {
	if in.RestaurantID == uuid.Nil {
		return apperr.Validation("Restaurant ID is required")
	}
	if strings.TrimSpace(in.DeliveryAddress) == "" {
		return apperr.Validation("Delivery address is required")
	}
	if len(in.Items) == 0 {
		return apperr.Validation("Order must contain at least one item")
	}
	for _, item := range in.Items {
		if item.MenuItemID == uuid.Nil {
			return apperr.Validation("Menu item ID is required")
		}
		if item.Quantity < 1 {
			return apperr.Validation("Item quantity must be at least 1")
		}
		if item.Quantity > models.MaxItemQuantity {
			return apperr.Validation("Item quantity cannot exceed %d", models.MaxItemQuantity)
		}
	}
	if in.TipAmount.IsNegative() {
		return apperr.Validation("Tip amount cannot be negative")
	}
	if in.TipAmount.GreaterThan(models.MaxAmount) {
		return apperr.Validation("Tip amount cannot exceed $%s", models.MaxAmount.StringFixed(2))
	}
	return nil
}

// Create validates the request against the catalog, prices it and stores the
// order with its items atomically. The restaurant counter and the order event
// are best-effort and never fail a committed order.
func (s *Service) Create(ctx context.Context, caller *models.User, in CreateOrderInput) (*models.Order, error) {
	if caller == nil {
		return nil, apperr.Authentication("Authentication required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	restaurant, err := s.catalog.GetRestaurant(ctx, in.RestaurantID)
	if err != nil {
		if errors.Is(err, database.ErrRestaurantNotFound) {
			return nil, apperr.NotFound("Restaurant not found")
		}
		return nil, s.persistence("load restaurant", "Error creating order", err)
	}
	if !restaurant.IsActive {
		return nil, apperr.InvalidState("Restaurant is not active")
	}
	if !restaurant.IsOpen {
		return nil, apperr.InvalidState("Restaurant is currently closed")
	}

	ids := make([]uuid.UUID, len(in.Items))
	for i, item := range in.Items {
		ids[i] = item.MenuItemID
	}

	menuItems, err := s.catalog.GetMenuItems(ctx, ids, restaurant.ID)
	if err != nil {
		return nil, s.persistence("load menu items", "Error creating order", err)
	}
	if len(menuItems) != len(in.Items) {
		return nil, apperr.Validation("One or more menu items not found or don't belong to this restaurant")
	}

	byID := make(map[uuid.UUID]models.MenuItem, len(menuItems))
	var unavailable []string
	for _, item := range menuItems {
		byID[item.ID] = item
		if !item.IsAvailable {
			unavailable = append(unavailable, item.Name)
		}
	}
	if len(unavailable) > 0 {
		return nil, apperr.Validation("The following items are unavailable: %s", strings.Join(unavailable, ", "))
	}

	lines := make([]pricing.Line, len(in.Items))
	for i, item := range in.Items {
		lines[i] = pricing.Line{UnitPrice: byID[item.MenuItemID].Price, Quantity: item.Quantity}
	}

	quote := pricing.Quote(lines, pricing.Terms{
		DeliveryFee:  restaurant.DeliveryFee,
		MinimumOrder: restaurant.MinimumOrder,
	}, in.TipAmount, s.rates)
	if !quote.MeetsMinimum {
		return nil, apperr.Validation("%s", pricing.MinimumOrderMessage(quote.MinimumOrder))
	}
	// The total bounds every line, the subtotal and the tip.
	if quote.TotalAmount.GreaterThan(models.MaxAmount) {
		return nil, apperr.Validation("Order total cannot exceed $%s", models.MaxAmount.StringFixed(2))
	}

	prep := restaurant.EstimatedDeliveryTime
	if prep <= 0 {
		prep = s.prepMinutes
	}

	order := &models.Order{
		CustomerID:            caller.ID,
		RestaurantID:          restaurant.ID,
		Status:                models.OrderStatusPending,
		DeliveryAddress:       in.DeliveryAddress,
		DeliveryInstructions:  in.DeliveryInstructions,
		SpecialInstructions:   in.SpecialInstructions,
		Subtotal:              quote.Subtotal,
		DeliveryFee:           quote.DeliveryFee,
		TaxAmount:             quote.TaxAmount,
		TipAmount:             quote.TipAmount,
		TotalAmount:           quote.TotalAmount,
		PaymentStatus:         models.PaymentStatusPending,
		PaymentMethod:         in.PaymentMethod,
		EstimatedDeliveryTime: s.now().Add(time.Duration(prep) * time.Minute),
		Items:                 make([]models.OrderItem, len(in.Items)),
	}
	for i, item := range in.Items {
		order.Items[i] = models.OrderItem{
			MenuItemID:          item.MenuItemID,
			MenuItemName:        byID[item.MenuItemID].Name,
			Quantity:            item.Quantity,
			UnitPrice:           lines[i].UnitPrice,
			TotalPrice:          quote.LineTotals[i],
			Customizations:      item.Customizations,
			SpecialInstructions: item.SpecialInstructions,
		}
	}

	if err := s.repo.CreateOrder(ctx, order, caller.ID); err != nil {
		return nil, s.persistence("create order", "Error creating order", err)
	}

	s.log.Infow("order created",
		"order_id", order.ID,
		"restaurant_id", order.RestaurantID,
		"customer_id", order.CustomerID,
		"total", order.TotalAmount.StringFixed(2),
	)

	if err := s.repo.IncrementRestaurantOrders(ctx, restaurant.ID); err != nil {
		s.log.Errorw("increment restaurant order counter", "restaurant_id", restaurant.ID, "order_id", order.ID, "error", err)
	}

	event := events.OrderEvent{
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		CustomerID:   order.CustomerID,
		TotalAmount:  order.TotalAmount,
		ItemCount:    len(order.Items),
		PlacedAt:     order.CreatedAt,
	}
	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.log.Warnw("publish order event", "order_id", order.ID, "error", err)
	}

	created, err := s.repo.GetOrder(ctx, order.ID)
	if err != nil {
		s.log.Warnw("reload created order", "order_id", order.ID, "error", err)
		return order, nil
	}

	return created, nil
}

type ListFilter struct {
	Status models.OrderStatus
	Skip   int
	Limit  int
}

// List returns the orders visible to caller, newest first.
func (s *Service) List(ctx context.Context, caller *models.User, filter ListFilter) ([]models.Order, error) {
	if caller == nil {
		return nil, apperr.Authentication("Authentication required")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalidStatus()
	}
	if filter.Skip < 0 {
		return nil, apperr.Validation("skip must not be negative")
	}
	if filter.Limit < 0 {
		return nil, apperr.Validation("limit must not be negative")
	}

	query := store.OrderFilter{
		Status: filter.Status,
		Page:   store.Page{Skip: filter.Skip, Limit: filter.Limit},
	}

	switch caller.Role {
	case models.RoleCustomer:
		query.CustomerID = caller.ID
	case models.RoleSeller:
		query.OwnerID = caller.ID
	case models.RoleAdmin:
	default:
		return nil, apperr.Authorization("Access denied")
	}

	orders, err := s.repo.ListOrders(ctx, query)
	if err != nil {
		return nil, s.persistence("list orders", "Error fetching orders", err)
	}

	return orders, nil
}

// Get returns an order visible to caller: its customer, the owning seller or
// an admin.
func (s *Service) Get(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Order, error) {
	if caller == nil {
		return nil, apperr.Authentication("Authentication required")
	}

	order, err := s.load(ctx, id, "Error fetching order")
	if err != nil {
		return nil, err
	}

	if !canView(caller, order) {
		return nil, apperr.Authorization("You do not have permission to view this order")
	}

	return order, nil
}

func canView(caller *models.User, order *models.Order) bool {
	switch caller.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCustomer:
		return order.CustomerID == caller.ID
	case models.RoleSeller:
		return order.Restaurant != nil && order.Restaurant.OwnerID == caller.ID
	}
	return false
}

// UpdateOrderInput holds optional changes; nil fields are left untouched.
type UpdateOrderInput struct {
	Status               *models.OrderStatus
	SpecialInstructions  *string
	DeliveryInstructions *string
	ActualDeliveryTime   *time.Time
}

func (s *Service) Update(ctx context.Context, caller *models.User, id uuid.UUID, in UpdateOrderInput) (*models.Order, error) {
	if caller == nil {
		return nil, apperr.Authentication("Authentication required")
	}
	if caller.Role != models.RoleSeller && caller.Role != models.RoleAdmin {
		return nil, apperr.Authorization("Customers cannot update order status")
	}

	current, err := s.load(ctx, id, "Error updating order")
	if err != nil {
		return nil, err
	}
	if caller.Role == models.RoleSeller && (current.Restaurant == nil || current.Restaurant.OwnerID != caller.ID) {
		return nil, apperr.Authorization("You can only update orders for your restaurants")
	}

	if in.Status != nil && !in.Status.Valid() {
		return nil, invalidStatus()
	}

	updated, err := s.repo.UpdateOrder(ctx, id, caller.ID, func(order *models.Order) error {
		return s.apply(order, in)
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		if errors.Is(err, database.ErrOrderNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, s.persistence("update order", "Error updating order", err)
	}

	if updated.Status != current.Status {
		s.log.Infow("order status changed",
			"order_id", id,
			"from", current.Status,
			"to", updated.Status,
			"changed_by", caller.ID,
		)
	}

	return updated, nil
}

// apply runs against the locked, committed row. An actual delivery time that
// is already recorded is never replaced by automatic stamping.
func (s *Service) apply(order *models.Order, in UpdateOrderInput) error {
	if in.SpecialInstructions != nil {
		order.SpecialInstructions = *in.SpecialInstructions
	}
	if in.DeliveryInstructions != nil {
		order.DeliveryInstructions = *in.DeliveryInstructions
	}
	if in.ActualDeliveryTime != nil {
		t := *in.ActualDeliveryTime
		order.ActualDeliveryTime = &t
	}

	if in.Status == nil {
		return nil
	}

	next := *in.Status
	if s.strict && !order.Status.CanTransitionTo(next) {
		return apperr.InvalidState("Cannot change order status from %s to %s", order.Status, next)
	}

	if next == models.OrderStatusDelivered && in.ActualDeliveryTime == nil && order.ActualDeliveryTime == nil {
		now := s.now()
		order.ActualDeliveryTime = &now
	}
	order.Status = next

	return nil
}

// History returns the status trail of an order visible to caller.
func (s *Service) History(ctx context.Context, caller *models.User, id uuid.UUID) ([]models.OrderStatusChange, error) {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return nil, err
	}

	history, err := s.repo.ListStatusHistory(ctx, id)
	if err != nil {
		return nil, s.persistence("list status history", "Error fetching order history", err)
	}

	return history, nil
}

// Receipt renders a PNG QR code referencing an order visible to caller.
func (s *Service) Receipt(ctx context.Context, caller *models.User, id uuid.UUID) ([]byte, error) {
	order, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	png, err := s.receipts.Generate(order.ID)
	if err != nil {
		return nil, apperr.Internal("Error generating receipt", err)
	}

	return png, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID, failure string) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, s.persistence("load order", failure, err)
	}
	return order, nil
}

func (s *Service) persistence(op, message string, err error) error {
	s.log.Errorw(op, "error", err)
	return apperr.Persistence(message, err)
}

func invalidStatus() error {
	names := make([]string, len(models.OrderStatuses))
	for i, status := range models.OrderStatuses {
		names[i] = string(status)
	}
	return apperr.Validation("Invalid status. Must be one of: %s", strings.Join(names, ", "))
}
