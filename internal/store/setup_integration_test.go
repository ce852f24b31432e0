//go:build integration

package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/safar/go-food-order/internal/models"
	"github.com/safar/go-food-order/internal/store"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := runMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close database: %v", err)
		}
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func runMigrations(db *sql.DB) error {
	migrationDir := "../../migrations"
	files, err := os.ReadDir(migrationDir)
	if err != nil {
		return fmt.Errorf("read migration directory: %w", err)
	}

	var migrationFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".up.sql") {
			migrationFiles = append(migrationFiles, file.Name())
		}
	}

	sort.Strings(migrationFiles)

	for _, filename := range migrationFiles {
		content, err := os.ReadFile(filepath.Join(migrationDir, filename))
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", filename, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", filename, err)
		}
	}

	return nil
}

// fixture seeds a seller with one open restaurant, two menu items and a customer.
type fixture struct {
	customer   *models.User
	seller     *models.User
	restaurant *models.Restaurant
	burger     *models.MenuItem
	fries      *models.MenuItem
}

func createUser(t *testing.T, s *store.Store, email string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "$2a$10$placeholderplaceholderplaceholderplaceholderpla",
		FirstName:    "Test",
		LastName:     string(role),
		Role:         role,
		IsActive:     true,
	}
	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("Create user %s: %v", email, err)
	}
	return user
}

func seed(t *testing.T, s *store.Store) fixture {
	t.Helper()
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	f := fixture{
		customer: createUser(t, s, "customer-"+suffix+"@example.com", models.RoleCustomer),
		seller:   createUser(t, s, "seller-"+suffix+"@example.com", models.RoleSeller),
	}

	f.restaurant = &models.Restaurant{
		OwnerID:               f.seller.ID,
		Name:                  "Diner " + suffix,
		CuisineType:           "american",
		StreetAddress:         "1 Main St",
		City:                  "Springfield",
		State:                 "IL",
		PostalCode:            "62701",
		DeliveryFee:           decimal.NewNullDecimal(decimal.RequireFromString("4.99")),
		MinimumOrder:          decimal.RequireFromString("20.00"),
		EstimatedDeliveryTime: 30,
		IsActive:              true,
		IsOpen:                true,
	}
	if err := s.CreateRestaurant(ctx, f.restaurant); err != nil {
		t.Fatalf("Create restaurant: %v", err)
	}

	f.burger = &models.MenuItem{RestaurantID: f.restaurant.ID, Name: "Burger", Price: decimal.RequireFromString("12.99"), Category: "mains", IsAvailable: true}
	f.fries = &models.MenuItem{RestaurantID: f.restaurant.ID, Name: "Fries", Price: decimal.RequireFromString("8.99"), Category: "sides", IsAvailable: true}
	for _, item := range []*models.MenuItem{f.burger, f.fries} {
		if err := s.CreateMenuItem(ctx, item); err != nil {
			t.Fatalf("Create menu item %s: %v", item.Name, err)
		}
	}

	return f
}

func newOrder(f fixture) *models.Order {
	return &models.Order{
		CustomerID:            f.customer.ID,
		RestaurantID:          f.restaurant.ID,
		Status:                models.OrderStatusPending,
		DeliveryAddress:       "42 Elm St",
		Subtotal:              decimal.RequireFromString("21.98"),
		DeliveryFee:           decimal.RequireFromString("4.99"),
		TaxAmount:             decimal.RequireFromString("1.76"),
		TipAmount:             decimal.Zero,
		TotalAmount:           decimal.RequireFromString("28.73"),
		PaymentStatus:         models.PaymentStatusPending,
		EstimatedDeliveryTime: time.Now().Add(30 * time.Minute),
		Items: []models.OrderItem{
			{MenuItemID: f.burger.ID, Quantity: 1, UnitPrice: f.burger.Price, TotalPrice: f.burger.Price, Customizations: []byte(`{"cheese":true}`)},
			{MenuItemID: f.fries.ID, Quantity: 1, UnitPrice: f.fries.Price, TotalPrice: f.fries.Price},
		},
	}
}
