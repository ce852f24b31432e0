package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

var Roles = []Role{RoleCustomer, RoleSeller, RoleAdmin}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Restaurant struct {
	ID                    uuid.UUID           `json:"id"`
	OwnerID               uuid.UUID           `json:"ownerId"`
	Name                  string              `json:"name"`
	Description           string              `json:"description"`
	CuisineType           string              `json:"cuisineType"`
	Phone                 string              `json:"phone,omitempty"`
	Email                 string              `json:"email,omitempty"`
	StreetAddress         string              `json:"streetAddress"`
	City                  string              `json:"city"`
	State                 string              `json:"state"`
	PostalCode            string              `json:"postalCode"`
	DeliveryFee           decimal.NullDecimal `json:"deliveryFee"`
	MinimumOrder          decimal.Decimal     `json:"minimumOrder"`
	EstimatedDeliveryTime int                 `json:"estimatedDeliveryTime"`
	IsActive              bool                `json:"isActive"`
	IsOpen                bool                `json:"isOpen"`
	TotalOrders           int                 `json:"totalOrders"`
	CreatedAt             time.Time           `json:"createdAt"`
	UpdatedAt             time.Time           `json:"updatedAt"`
	MenuItems             []MenuItem          `json:"menuItems,omitempty"`
}

type MenuItem struct {
	ID           uuid.UUID       `json:"id"`
	RestaurantID uuid.UUID       `json:"restaurantId"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Category     string          `json:"category"`
	IsAvailable  bool            `json:"isAvailable"`
	IsVegetarian bool            `json:"isVegetarian"`
	IsVegan      bool            `json:"isVegan"`
	IsGlutenFree bool            `json:"isGlutenFree"`
	SpiceLevel   int             `json:"spiceLevel"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type Order struct {
	ID                    uuid.UUID       `json:"id"`
	CustomerID            uuid.UUID       `json:"customerId"`
	RestaurantID          uuid.UUID       `json:"restaurantId"`
	Status                OrderStatus     `json:"status"`
	DeliveryAddress       string          `json:"deliveryAddress"`
	DeliveryInstructions  string          `json:"deliveryInstructions,omitempty"`
	SpecialInstructions   string          `json:"specialInstructions,omitempty"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	DeliveryFee           decimal.Decimal `json:"deliveryFee"`
	TaxAmount             decimal.Decimal `json:"taxAmount"`
	TipAmount             decimal.Decimal `json:"tipAmount"`
	TotalAmount           decimal.Decimal `json:"totalAmount"`
	PaymentStatus         string          `json:"paymentStatus"`
	PaymentMethod         string          `json:"paymentMethod,omitempty"`
	EstimatedDeliveryTime time.Time       `json:"estimatedDeliveryTime"`
	ActualDeliveryTime    *time.Time      `json:"actualDeliveryTime,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`

	Customer   *CustomerSummary   `json:"customer,omitempty"`
	Restaurant *RestaurantSummary `json:"restaurant,omitempty"`
	Items      []OrderItem        `json:"items"`
}

type OrderItem struct {
	ID                  uuid.UUID       `json:"id"`
	OrderID             uuid.UUID       `json:"orderId"`
	MenuItemID          uuid.UUID       `json:"menuItemId"`
	MenuItemName        string          `json:"menuItemName,omitempty"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unitPrice"`
	TotalPrice          decimal.Decimal `json:"totalPrice"`
	Customizations      json.RawMessage `json:"customizations,omitempty"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// CustomerSummary is the public projection of the customer on an order.
type CustomerSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
}

type RestaurantSummary struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"ownerId"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone,omitempty"`
	StreetAddress string    `json:"streetAddress"`
	City          string    `json:"city"`
	State         string    `json:"state"`
}

type OrderStatusChange struct {
	ID         uuid.UUID   `json:"id"`
	OrderID    uuid.UUID   `json:"orderId"`
	FromStatus OrderStatus `json:"fromStatus,omitempty"`
	ToStatus   OrderStatus `json:"toStatus"`
	ChangedBy  uuid.UUID   `json:"changedBy"`
	CreatedAt  time.Time   `json:"createdAt"`
}

const PaymentStatusPending = "pending"
