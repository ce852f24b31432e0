package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safar/go-food-order/internal/apperr"
	"github.com/safar/go-food-order/internal/database"
	"github.com/safar/go-food-order/internal/models"
)

var (
	defaultMinimumOrder          = decimal.NewFromInt(10)
	defaultEstimatedDeliveryTime = 30
)

type restaurantRequest struct {
	Name                  string              `json:"name" validate:"required"`
	Description           string              `json:"description"`
	CuisineType           string              `json:"cuisineType" validate:"required"`
	Phone                 string              `json:"phone"`
	Email                 string              `json:"email" validate:"omitempty,email"`
	StreetAddress         string              `json:"streetAddress" validate:"required"`
	City                  string              `json:"city" validate:"required"`
	State                 string              `json:"state" validate:"required"`
	PostalCode            string              `json:"postalCode" validate:"required"`
	DeliveryFee           decimal.NullDecimal `json:"deliveryFee"`
	MinimumOrder          *decimal.Decimal    `json:"minimumOrder"`
	EstimatedDeliveryTime *int                `json:"estimatedDeliveryTime" validate:"omitempty,gt=0"`
	IsOpen                *bool               `json:"isOpen"`
}

// restaurantUpdate holds the fields a PUT may change; absent fields keep
// their stored value.
type restaurantUpdate struct {
	Name                  *string             `json:"name" validate:"omitempty,min=1"`
	Description           *string             `json:"description"`
	CuisineType           *string             `json:"cuisineType" validate:"omitempty,min=1"`
	Phone                 *string             `json:"phone"`
	Email                 *string             `json:"email" validate:"omitempty,email"`
	StreetAddress         *string             `json:"streetAddress" validate:"omitempty,min=1"`
	City                  *string             `json:"city" validate:"omitempty,min=1"`
	State                 *string             `json:"state" validate:"omitempty,min=1"`
	PostalCode            *string             `json:"postalCode" validate:"omitempty,min=1"`
	DeliveryFee           decimal.NullDecimal `json:"deliveryFee"`
	MinimumOrder          *decimal.Decimal    `json:"minimumOrder"`
	EstimatedDeliveryTime *int                `json:"estimatedDeliveryTime" validate:"omitempty,gt=0"`
	IsActive              *bool               `json:"isActive"`
	IsOpen                *bool               `json:"isOpen"`
}

func checkMoney(fee decimal.NullDecimal, minimum *decimal.Decimal) error {
	if fee.Valid && fee.Decimal.IsNegative() {
		return apperr.Validation("Delivery fee cannot be negative")
	}
	if minimum != nil && minimum.IsNegative() {
		return apperr.Validation("Minimum order cannot be negative")
	}
	if (fee.Valid && fee.Decimal.GreaterThan(models.MaxAmount)) || (minimum != nil && minimum.GreaterThan(models.MaxAmount)) {
		return apperr.Validation("Amounts cannot exceed $%s", models.MaxAmount.StringFixed(2))
	}
	return nil
}

func (h *Handler) listRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.Catalog.ListActiveRestaurants(r.Context())
	if err != nil {
		h.respondError(w, r, apperr.Persistence("Unable to fetch restaurants at this time", err))
		return
	}

	respondOK(w, http.StatusOK, envelope{"count": len(restaurants), "restaurants": restaurants})
}

// myRestaurants lists the caller's restaurants; admins see every restaurant.
func (h *Handler) myRestaurants(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r.Context(), models.RoleSeller, models.RoleAdmin)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	owner := user.ID
	if user.Role == models.RoleAdmin {
		owner = uuid.Nil
	}

	restaurants, err := h.Catalog.ListRestaurantsByOwner(r.Context(), owner)
	if err != nil {
		h.respondError(w, r, apperr.Persistence("Error fetching restaurants", err))
		return
	}

	respondOK(w, http.StatusOK, envelope{"count": len(restaurants), "restaurants": restaurants})
}

func (h *Handler) createRestaurant(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r.Context(), models.RoleSeller, models.RoleAdmin)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req restaurantRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := checkMoney(req.DeliveryFee, req.MinimumOrder); err != nil {
		h.respondError(w, r, err)
		return
	}

	restaurant := &models.Restaurant{
		OwnerID:               user.ID,
		Name:                  req.Name,
		Description:           req.Description,
		CuisineType:           req.CuisineType,
		Phone:                 req.Phone,
		Email:                 req.Email,
		StreetAddress:         req.StreetAddress,
		City:                  req.City,
		State:                 req.State,
		PostalCode:            req.PostalCode,
		DeliveryFee:           req.DeliveryFee,
		MinimumOrder:          defaultMinimumOrder,
		EstimatedDeliveryTime: defaultEstimatedDeliveryTime,
		IsActive:              true,
		IsOpen:                true,
	}
	if req.MinimumOrder != nil {
		restaurant.MinimumOrder = *req.MinimumOrder
	}
	if req.EstimatedDeliveryTime != nil {
		restaurant.EstimatedDeliveryTime = *req.EstimatedDeliveryTime
	}
	if req.IsOpen != nil {
		restaurant.IsOpen = *req.IsOpen
	}

	if err := h.Catalog.CreateRestaurant(r.Context(), restaurant); err != nil {
		h.respondError(w, r, apperr.Persistence("Error creating restaurant", err))
		return
	}

	h.Log.Infow("restaurant created", "restaurant_id", restaurant.ID, "owner_id", user.ID)
	respondOK(w, http.StatusCreated, envelope{"restaurant": restaurant})
}

// loadRestaurant fetches the restaurant named by the {id} path variable.
func (h *Handler) loadRestaurant(r *http.Request, failure string) (*models.Restaurant, error) {
	id, err := pathID(r, "restaurant")
	if err != nil {
		return nil, err
	}

	restaurant, err := h.Catalog.GetRestaurant(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrRestaurantNotFound) {
			return nil, apperr.NotFound("Restaurant not found")
		}
		return nil, apperr.Persistence(failure, err)
	}

	return restaurant, nil
}

func (h *Handler) getRestaurant(w http.ResponseWriter, r *http.Request) {
	restaurant, err := h.loadRestaurant(r, "Error fetching restaurant")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	restaurant.MenuItems, err = h.Catalog.ListMenuItems(r.Context(), restaurant.ID)
	if err != nil {
		h.respondError(w, r, apperr.Persistence("Error fetching restaurant", err))
		return
	}

	respondOK(w, http.StatusOK, envelope{"restaurant": restaurant})
}

func (h *Handler) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	restaurant, err := h.loadRestaurant(r, "Error updating restaurant")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := requireUser(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !owns(user, restaurant) {
		h.respondError(w, r, apperr.Authorization("You can only update your own restaurants"))
		return
	}

	var req restaurantUpdate
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := checkMoney(req.DeliveryFee, req.MinimumOrder); err != nil {
		h.respondError(w, r, err)
		return
	}

	req.applyTo(restaurant)

	if err := h.Catalog.UpdateRestaurant(r.Context(), restaurant); err != nil {
		if errors.Is(err, database.ErrRestaurantNotFound) {
			h.respondError(w, r, apperr.NotFound("Restaurant not found"))
			return
		}
		h.respondError(w, r, apperr.Persistence("Error updating restaurant", err))
		return
	}

	respondOK(w, http.StatusOK, envelope{"restaurant": restaurant})
}

func (u restaurantUpdate) applyTo(r *models.Restaurant) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&r.Name, u.Name)
	setString(&r.Description, u.Description)
	setString(&r.CuisineType, u.CuisineType)
	setString(&r.Phone, u.Phone)
	setString(&r.Email, u.Email)
	setString(&r.StreetAddress, u.StreetAddress)
	setString(&r.City, u.City)
	setString(&r.State, u.State)
	setString(&r.PostalCode, u.PostalCode)

	if u.DeliveryFee.Valid {
		r.DeliveryFee = u.DeliveryFee
	}
	if u.MinimumOrder != nil {
		r.MinimumOrder = *u.MinimumOrder
	}
	if u.EstimatedDeliveryTime != nil {
		r.EstimatedDeliveryTime = *u.EstimatedDeliveryTime
	}
	if u.IsActive != nil {
		r.IsActive = *u.IsActive
	}
	if u.IsOpen != nil {
		r.IsOpen = *u.IsOpen
	}
}

func (h *Handler) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	restaurant, err := h.loadRestaurant(r, "Error deleting restaurant")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := requireUser(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !owns(user, restaurant) {
		h.respondError(w, r, apperr.Authorization("You can only delete your own restaurants"))
		return
	}

	if err := h.Catalog.DeleteRestaurant(r.Context(), restaurant.ID); err != nil {
		switch {
		case errors.Is(err, database.ErrRestaurantNotFound):
			h.respondError(w, r, apperr.NotFound("Restaurant not found"))
		case errors.Is(err, database.ErrReferenced):
			h.respondError(w, r, apperr.Validation("Cannot delete a restaurant that has orders"))
		default:
			h.respondError(w, r, apperr.Persistence("Error deleting restaurant", err))
		}
		return
	}

	h.Log.Infow("restaurant deleted", "restaurant_id", restaurant.ID, "deleted_by", user.ID)
	respondOK(w, http.StatusOK, envelope{"message": "Restaurant deleted successfully"})
}

// restaurantStats reports the lifetime order counter together with the daily
// figures kept by the stats worker. The date query defaults to today (UTC).
func (h *Handler) restaurantStats(w http.ResponseWriter, r *http.Request) {
	restaurant, err := h.loadRestaurant(r, "Error fetching restaurant stats")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := requireUser(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !owns(user, restaurant) {
		h.respondError(w, r, apperr.Authorization("You can only view stats for your own restaurants"))
		return
	}

	day := h.now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, err = time.Parse("2006-01-02", raw)
		if err != nil {
			h.respondError(w, r, apperr.Validation("date must be formatted as YYYY-MM-DD"))
			return
		}
	}

	stats := envelope{
		"restaurantId": restaurant.ID,
		"totalOrders":  restaurant.TotalOrders,
		"date":         day.Format("2006-01-02"),
	}

	if h.Stats != nil {
		daily, err := h.Stats.Daily(r.Context(), restaurant.ID, day)
		if err != nil {
			h.respondError(w, r, apperr.Internal("Error fetching restaurant stats", err))
			return
		}
		stats["dailyOrders"] = daily.Orders
		stats["dailyRevenue"] = daily.Revenue
	}

	respondOK(w, http.StatusOK, envelope{"stats": stats})
}
