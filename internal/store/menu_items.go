package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/safar/go-food-order/internal/database"
	"github.com/safar/go-food-order/internal/models"
)

const menuItemColumns = `id, restaurant_id, name, description, price, category, is_available,
	is_vegetarian, is_vegan, is_gluten_free, spice_level, created_at, updated_at`

func scanMenuItem(row interface{ Scan(...any) error }, item *models.MenuItem) error {
	return row.Scan(
		&item.ID,
		&item.RestaurantID,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.Category,
		&item.IsAvailable,
		&item.IsVegetarian,
		&item.IsVegan,
		&item.IsGlutenFree,
		&item.SpiceLevel,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
}

func (s *Store) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	item.ID = newID()

	query := `
		INSERT INTO menu_items (id, restaurant_id, name, description, price, category, is_available,
			is_vegetarian, is_vegan, is_gluten_free, spice_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query,
		item.ID, item.RestaurantID, item.Name, item.Description, item.Price, item.Category, item.IsAvailable,
		item.IsVegetarian, item.IsVegan, item.IsGlutenFree, item.SpiceLevel,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return database.ErrRestaurantNotFound
		}
		return fmt.Errorf("create menu item: %w", err)
	}

	return nil
}

func (s *Store) GetMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	item := &models.MenuItem{}

	query := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1`

	if err := scanMenuItem(s.db.QueryRowContext(ctx, query, id), item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("get menu item: %w", err)
	}

	return item, nil
}

func (s *Store) ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]models.MenuItem, error) {
	query := `SELECT ` + menuItemColumns + `
		FROM menu_items
		WHERE restaurant_id = $1
		ORDER BY category, name`

	return s.queryMenuItems(ctx, query, restaurantID)
}

// GetMenuItems returns the items among ids that belong to restaurantID. Items
// of other restaurants and unknown ids are simply absent from the result, so
// callers detect them by comparing counts.
func (s *Store) GetMenuItems(ctx context.Context, ids []uuid.UUID, restaurantID uuid.UUID) ([]models.MenuItem, error) {
	query := `SELECT ` + menuItemColumns + `
		FROM menu_items
		WHERE id = ANY($1::uuid[])
		  AND restaurant_id = $2`

	return s.queryMenuItems(ctx, query, pq.Array(uuidStrings(ids)), restaurantID)
}

func (s *Store) queryMenuItems(ctx context.Context, query string, args ...any) ([]models.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		var item models.MenuItem
		if err := scanMenuItem(rows, &item); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// UpdateMenuItem rewrites item. Price changes never touch existing orders:
// order items keep their own unit price snapshot.
func (s *Store) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	query := `
		UPDATE menu_items
		SET name = $1, description = $2, price = $3, category = $4, is_available = $5,
		    is_vegetarian = $6, is_vegan = $7, is_gluten_free = $8, spice_level = $9,
		    updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at`

	err := s.db.QueryRowContext(ctx, query,
		item.Name, item.Description, item.Price, item.Category, item.IsAvailable,
		item.IsVegetarian, item.IsVegan, item.IsGlutenFree, item.SpiceLevel, item.ID,
	).Scan(&item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.ErrMenuItemNotFound
		}
		return fmt.Errorf("update menu item: %w", err)
	}

	return nil
}

func (s *Store) DeleteMenuItem(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return database.ErrReferenced
		}
		return fmt.Errorf("delete menu item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrMenuItemNotFound
	}

	return nil
}
