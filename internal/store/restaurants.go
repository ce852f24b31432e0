package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/safar/go-food-order/internal/database"
	"github.com/safar/go-food-order/internal/models"
)

const restaurantColumns = `id, owner_id, name, description, cuisine_type, phone, email,
	street_address, city, state, postal_code, delivery_fee, minimum_order,
	estimated_delivery_time, is_active, is_open, total_orders, created_at, updated_at`

func scanRestaurant(row interface{ Scan(...any) error }, r *models.Restaurant) error {
	return row.Scan(
		&r.ID,
		&r.OwnerID,
		&r.Name,
		&r.Description,
		&r.CuisineType,
		&r.Phone,
		&r.Email,
		&r.StreetAddress,
		&r.City,
		&r.State,
		&r.PostalCode,
		&r.DeliveryFee,
		&r.MinimumOrder,
		&r.EstimatedDeliveryTime,
		&r.IsActive,
		&r.IsOpen,
		&r.TotalOrders,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
}

func (s *Store) CreateRestaurant(ctx context.Context, r *models.Restaurant) error {
	r.ID = newID()

	query := `
		INSERT INTO restaurants (id, owner_id, name, description, cuisine_type, phone, email,
			street_address, city, state, postal_code, delivery_fee, minimum_order,
			estimated_delivery_time, is_active, is_open, total_orders, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, 0, NOW(), NOW())
		RETURNING total_orders, created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query,
		r.ID, r.OwnerID, r.Name, r.Description, r.CuisineType, r.Phone, r.Email,
		r.StreetAddress, r.City, r.State, r.PostalCode, r.DeliveryFee, r.MinimumOrder,
		r.EstimatedDeliveryTime, r.IsActive, r.IsOpen,
	).Scan(&r.TotalOrders, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create restaurant: %w", err)
	}

	return nil
}

func (s *Store) GetRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	r := &models.Restaurant{}

	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1`

	if err := scanRestaurant(s.db.QueryRowContext(ctx, query, id), r); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("get restaurant: %w", err)
	}

	return r, nil
}

// ListActiveRestaurants returns active restaurants ordered by name.
func (s *Store) ListActiveRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	return s.listRestaurants(ctx, `WHERE is_active = TRUE ORDER BY name ASC`)
}

// ListRestaurantsByOwner lists an owner's restaurants; uuid.Nil lists all.
func (s *Store) ListRestaurantsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Restaurant, error) {
	if ownerID == uuid.Nil {
		return s.listRestaurants(ctx, `ORDER BY name ASC`)
	}
	return s.listRestaurants(ctx, `WHERE owner_id = $1 ORDER BY name ASC`, ownerID)
}

func (s *Store) listRestaurants(ctx context.Context, clause string, args ...any) ([]models.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants ` + clause

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	restaurants := []models.Restaurant{}
	for rows.Next() {
		var r models.Restaurant
		if err := scanRestaurant(rows, &r); err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		restaurants = append(restaurants, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return restaurants, nil
}

func (s *Store) UpdateRestaurant(ctx context.Context, r *models.Restaurant) error {
	query := `
		UPDATE restaurants
		SET name = $1, description = $2, cuisine_type = $3, phone = $4, email = $5,
		    street_address = $6, city = $7, state = $8, postal_code = $9,
		    delivery_fee = $10, minimum_order = $11, estimated_delivery_time = $12,
		    is_active = $13, is_open = $14, updated_at = NOW()
		WHERE id = $15
		RETURNING total_orders, updated_at`

	err := s.db.QueryRowContext(ctx, query,
		r.Name, r.Description, r.CuisineType, r.Phone, r.Email,
		r.StreetAddress, r.City, r.State, r.PostalCode,
		r.DeliveryFee, r.MinimumOrder, r.EstimatedDeliveryTime,
		r.IsActive, r.IsOpen, r.ID,
	).Scan(&r.TotalOrders, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.ErrRestaurantNotFound
		}
		return fmt.Errorf("update restaurant: %w", err)
	}

	return nil
}

// DeleteRestaurant removes a restaurant and its menu. Restaurants that orders
// reference cannot be removed and yield ErrReferenced.
func (s *Store) DeleteRestaurant(ctx context.Context, id uuid.UUID) error {
	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM menu_items WHERE restaurant_id = $1`, id); err != nil {
			if database.IsForeignKeyViolation(err) {
				return database.ErrReferenced
			}
			return fmt.Errorf("delete menu items: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return database.ErrReferenced
			}
			return fmt.Errorf("delete restaurant: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return database.ErrRestaurantNotFound
		}

		return nil
	})
}

// IncrementRestaurantOrders bumps the lifetime order counter.
func (s *Store) IncrementRestaurantOrders(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE restaurants
		 SET total_orders = total_orders + 1
		 WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("increment restaurant orders: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrRestaurantNotFound
	}

	return nil
}
