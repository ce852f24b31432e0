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

const userColumns = `id, email, password_hash, first_name, last_name, phone, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }, user *models.User) error {
	return row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

// CreateUser inserts user, assigning its ID and timestamps.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = newID()

	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, phone, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Phone, user.Role, user.IsActive,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return database.ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	if err := scanUser(s.db.QueryRowContext(ctx, query, id), user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// GetUserByEmail matches the email exactly, case included.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	if err := scanUser(s.db.QueryRowContext(ctx, query, email), user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return user, nil
}

func (s *Store) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_active = $1, updated_at = NOW() WHERE id = $2`,
		active, id)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrUserNotFound
	}

	return nil
}
