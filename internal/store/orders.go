package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/safar/go-food-order/internal/database"
	"github.com/safar/go-food-order/internal/models"
)

type OrderFilter struct {
	CustomerID uuid.UUID // uuid.Nil matches any customer
	OwnerID    uuid.UUID // restaurant owner; uuid.Nil matches any
	Status     models.OrderStatus
	Page       Page
}

const orderColumns = `o.id, o.customer_id, o.restaurant_id, o.status, o.delivery_address,
	o.delivery_instructions, o.special_instructions, o.subtotal, o.delivery_fee, o.tax_amount,
	o.tip_amount, o.total_amount, o.payment_status, o.payment_method, o.estimated_delivery_time,
	o.actual_delivery_time, o.created_at, o.updated_at`

const orderProjectionColumns = orderColumns + `,
	u.id, u.first_name, u.last_name, u.email, u.phone,
	r.id, r.owner_id, r.name, r.phone, r.street_address, r.city, r.state`

const orderProjectionFrom = `
	FROM orders o
	JOIN users u ON u.id = o.customer_id
	JOIN restaurants r ON r.id = o.restaurant_id`

func orderDest(order *models.Order, actual *sql.NullTime) []any {
	return []any{
		&order.ID,
		&order.CustomerID,
		&order.RestaurantID,
		&order.Status,
		&order.DeliveryAddress,
		&order.DeliveryInstructions,
		&order.SpecialInstructions,
		&order.Subtotal,
		&order.DeliveryFee,
		&order.TaxAmount,
		&order.TipAmount,
		&order.TotalAmount,
		&order.PaymentStatus,
		&order.PaymentMethod,
		&order.EstimatedDeliveryTime,
		actual,
		&order.CreatedAt,
		&order.UpdatedAt,
	}
}

func scanOrder(row interface{ Scan(...any) error }, order *models.Order) error {
	var actual sql.NullTime
	if err := row.Scan(orderDest(order, &actual)...); err != nil {
		return err
	}
	order.ActualDeliveryTime = nullTimePtr(actual)
	return nil
}

func scanOrderProjection(row interface{ Scan(...any) error }, order *models.Order) error {
	var actual sql.NullTime
	customer := &models.CustomerSummary{}
	restaurant := &models.RestaurantSummary{}

	dest := append(orderDest(order, &actual),
		&customer.ID, &customer.FirstName, &customer.LastName, &customer.Email, &customer.Phone,
		&restaurant.ID, &restaurant.OwnerID, &restaurant.Name, &restaurant.Phone,
		&restaurant.StreetAddress, &restaurant.City, &restaurant.State,
	)
	if err := row.Scan(dest...); err != nil {
		return err
	}

	order.ActualDeliveryTime = nullTimePtr(actual)
	order.Customer = customer
	order.Restaurant = restaurant
	return nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// jsonb goes over the wire as text; lib/pq would encode []byte as bytea.
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// CreateOrder persists order, its items and the initial status-history entry
// as one transaction. Either every row becomes visible or none does.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order, createdBy uuid.UUID) error {
	order.ID = newID()
	for i := range order.Items {
		order.Items[i].ID = newID()
		order.Items[i].OrderID = order.ID
	}

	return database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO orders (id, customer_id, restaurant_id, status, delivery_address,
				delivery_instructions, special_instructions, subtotal, delivery_fee, tax_amount,
				tip_amount, total_amount, payment_status, payment_method, estimated_delivery_time,
				actual_delivery_time, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
			 RETURNING created_at, updated_at`,
			order.ID, order.CustomerID, order.RestaurantID, order.Status, order.DeliveryAddress,
			order.DeliveryInstructions, order.SpecialInstructions, order.Subtotal, order.DeliveryFee, order.TaxAmount,
			order.TipAmount, order.TotalAmount, order.PaymentStatus, order.PaymentMethod, order.EstimatedDeliveryTime,
			nullableTime(order.ActualDeliveryTime),
		).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for i := range order.Items {
			item := &order.Items[i]
			err = tx.QueryRowContext(ctx,
				`INSERT INTO order_items (id, order_id, menu_item_id, position, quantity, unit_price, total_price,
					customizations, special_instructions, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
				 RETURNING created_at`,
				item.ID, item.OrderID, item.MenuItemID, i, item.Quantity, item.UnitPrice, item.TotalPrice,
				nullableJSON(item.Customizations), item.SpecialInstructions,
			).Scan(&item.CreatedAt)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		if err := insertStatusChange(ctx, tx, order.ID, "", order.Status, createdBy); err != nil {
			return err
		}

		return nil
	})
}

func insertStatusChange(ctx context.Context, q database.Querier, orderID uuid.UUID, from, to models.OrderStatus, changedBy uuid.UUID) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO order_status_history (id, order_id, from_status, to_status, changed_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())`,
		newID(), orderID, from, to, changedBy)
	if err != nil {
		return fmt.Errorf("record status change: %w", err)
	}
	return nil
}

// GetOrder loads an order with its customer, restaurant and line items.
func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order := &models.Order{}

	query := `SELECT ` + orderProjectionColumns + orderProjectionFrom + ` WHERE o.id = $1`

	if err := scanOrderProjection(s.db.QueryRowContext(ctx, query, id), order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := s.orderItems(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	if order.Items == nil {
		order.Items = []models.OrderItem{}
	}

	return order, nil
}

// ListOrders returns orders matching filter, most recent first.
func (s *Store) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	page := filter.Page.Normalize()

	var (
		conditions []string
		args       []any
	)
	addCondition := func(expr string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(expr, len(args)))
	}

	if filter.CustomerID != uuid.Nil {
		addCondition("o.customer_id = $%d", filter.CustomerID)
	}
	if filter.OwnerID != uuid.Nil {
		addCondition("r.owner_id = $%d", filter.OwnerID)
	}
	if filter.Status != "" {
		addCondition("o.status = $%d", filter.Status)
	}

	query := `SELECT ` + orderProjectionColumns + orderProjectionFrom
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	args = append(args, page.Limit, page.Skip)
	query += fmt.Sprintf(` ORDER BY o.created_at DESC, o.id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var order models.Order
		if err := scanOrderProjection(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}

	items, err := s.orderItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []models.OrderItem{}
		}
	}

	return orders, nil
}

func (s *Store) orderItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.menu_item_id, mi.name, oi.quantity, oi.unit_price,
		       oi.total_price, oi.customizations, oi.special_instructions, oi.created_at
		FROM order_items oi
		JOIN menu_items mi ON mi.id = oi.menu_item_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.order_id, oi.position`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(uuidStrings(orderIDs)))
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]models.OrderItem)
	for rows.Next() {
		var (
			item           models.OrderItem
			customizations []byte
		)
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.MenuItemID,
			&item.MenuItemName,
			&item.Quantity,
			&item.UnitPrice,
			&item.TotalPrice,
			&customizations,
			&item.SpecialInstructions,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if len(customizations) > 0 {
			item.Customizations = json.RawMessage(customizations)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// UpdateOrder locks the order row, lets mutate change it, writes it back and
// records a status-history entry when the status changed. mutate sees the
// row as currently committed, so decisions like "is a delivery time already
// recorded" are race-free.
func (s *Store) UpdateOrder(ctx context.Context, id, changedBy uuid.UUID, mutate func(*models.Order) error) (*models.Order, error) {
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		order := &models.Order{}
		err := scanOrder(tx.QueryRowContext(ctx,
			`SELECT `+orderColumns+` FROM orders o WHERE o.id = $1 FOR UPDATE`, id), order)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		previous := order.Status
		if err := mutate(order); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders
			 SET status = $1, delivery_instructions = $2, special_instructions = $3,
			     actual_delivery_time = $4, updated_at = NOW()
			 WHERE id = $5`,
			order.Status, order.DeliveryInstructions, order.SpecialInstructions,
			nullableTime(order.ActualDeliveryTime), id)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		if order.Status != previous {
			return insertStatusChange(ctx, tx, id, previous, order.Status, changedBy)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, id)
}

func (s *Store) ListStatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusChange, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, order_id, from_status, to_status, changed_by, created_at
		 FROM order_status_history
		 WHERE order_id = $1
		 ORDER BY created_at, id`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	defer rows.Close()

	history := []models.OrderStatusChange{}
	for rows.Next() {
		var change models.OrderStatusChange
		if err := rows.Scan(&change.ID, &change.OrderID, &change.FromStatus, &change.ToStatus, &change.ChangedBy, &change.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		history = append(history, change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return history, nil
}
