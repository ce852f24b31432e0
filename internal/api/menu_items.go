package api

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/safar/go-food-order/internal/apperr"
	"github.com/safar/go-food-order/internal/database"
	"github.com/safar/go-food-order/internal/models"
)

type menuItemRequest struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Category     string          `json:"category"`
	IsAvailable  *bool           `json:"isAvailable"`
	IsVegetarian bool            `json:"isVegetarian"`
	IsVegan      bool            `json:"isVegan"`
	IsGlutenFree bool            `json:"isGlutenFree"`
	SpiceLevel   int             `json:"spiceLevel" validate:"min=0,max=5"`
}

type menuItemUpdate struct {
	Name         *string          `json:"name" validate:"omitempty,min=1"`
	Description  *string          `json:"description"`
	Price        *decimal.Decimal `json:"price"`
	Category     *string          `json:"category"`
	IsAvailable  *bool            `json:"isAvailable"`
	IsVegetarian *bool            `json:"isVegetarian"`
	IsVegan      *bool            `json:"isVegan"`
	IsGlutenFree *bool            `json:"isGlutenFree"`
	SpiceLevel   *int             `json:"spiceLevel" validate:"omitempty,min=0,max=5"`
}

func (u menuItemUpdate) applyTo(item *models.MenuItem) {
	if u.Name != nil {
		item.Name = *u.Name
	}
	if u.Description != nil {
		item.Description = *u.Description
	}
	if u.Price != nil {
		item.Price = *u.Price
	}
	if u.Category != nil {
		item.Category = *u.Category
	}
	if u.IsAvailable != nil {
		item.IsAvailable = *u.IsAvailable
	}
	if u.IsVegetarian != nil {
		item.IsVegetarian = *u.IsVegetarian
	}
	if u.IsVegan != nil {
		item.IsVegan = *u.IsVegan
	}
	if u.IsGlutenFree != nil {
		item.IsGlutenFree = *u.IsGlutenFree
	}
	if u.SpiceLevel != nil {
		item.SpiceLevel = *u.SpiceLevel
	}
}

func (h *Handler) listMenuItems(w http.ResponseWriter, r *http.Request) {
	restaurant, err := h.loadRestaurant(r, "Error fetching menu items")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	items, err := h.Catalog.ListMenuItems(r.Context(), restaurant.ID)
	if err != nil {
		h.respondError(w, r, apperr.Persistence("Error fetching menu items", err))
		return
	}

	respondOK(w, http.StatusOK, envelope{"count": len(items), "menuItems": items})
}

func (h *Handler) createMenuItem(w http.ResponseWriter, r *http.Request) {
	restaurant, err := h.loadRestaurant(r, "Error creating menu item")
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
		h.respondError(w, r, apperr.Authorization("You can only add menu items to your own restaurants"))
		return
	}

	var req menuItemRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.Name == "" || !req.Price.IsPositive() || req.Price.GreaterThan(models.MaxAmount) {
		h.respondError(w, r, apperr.Validation("Name and a valid price are required"))
		return
	}

	item := &models.MenuItem{
		RestaurantID: restaurant.ID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		IsAvailable:  req.IsAvailable == nil || *req.IsAvailable,
		IsVegetarian: req.IsVegetarian,
		IsVegan:      req.IsVegan,
		IsGlutenFree: req.IsGlutenFree,
		SpiceLevel:   req.SpiceLevel,
	}

	if err := h.Catalog.CreateMenuItem(r.Context(), item); err != nil {
		if errors.Is(err, database.ErrRestaurantNotFound) {
			h.respondError(w, r, apperr.NotFound("Restaurant not found"))
			return
		}
		h.respondError(w, r, apperr.Persistence("Error creating menu item", err))
		return
	}

	respondOK(w, http.StatusCreated, envelope{"menuItem": item})
}

func (h *Handler) loadMenuItem(r *http.Request, failure string) (*models.MenuItem, error) {
	id, err := pathID(r, "menu item")
	if err != nil {
		return nil, err
	}

	item, err := h.Catalog.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrMenuItemNotFound) {
			return nil, apperr.NotFound("Menu item not found")
		}
		return nil, apperr.Persistence(failure, err)
	}

	return item, nil
}

// authorizeMenuItem checks that the caller owns the restaurant of item.
func (h *Handler) authorizeMenuItem(r *http.Request, item *models.MenuItem, denied string) (*models.User, error) {
	user, err := requireUser(r.Context())
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return user, nil
	}

	restaurant, err := h.Catalog.GetRestaurant(r.Context(), item.RestaurantID)
	if err != nil {
		return nil, apperr.Persistence("Error loading restaurant", err)
	}
	if !owns(user, restaurant) {
		return nil, apperr.Authorization(denied)
	}

	return user, nil
}

func (h *Handler) getMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.loadMenuItem(r, "Error fetching menu item")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{"menuItem": item})
}

func (h *Handler) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.loadMenuItem(r, "Error updating menu item")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if _, err := h.authorizeMenuItem(r, item, "You can only update menu items from your own restaurants"); err != nil {
		h.respondError(w, r, err)
		return
	}

	var req menuItemUpdate
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.Price != nil && (!req.Price.IsPositive() || req.Price.GreaterThan(models.MaxAmount)) {
		h.respondError(w, r, apperr.Validation("Price must be a positive number"))
		return
	}

	req.applyTo(item)

	if err := h.Catalog.UpdateMenuItem(r.Context(), item); err != nil {
		if errors.Is(err, database.ErrMenuItemNotFound) {
			h.respondError(w, r, apperr.NotFound("Menu item not found"))
			return
		}
		h.respondError(w, r, apperr.Persistence("Error updating menu item", err))
		return
	}

	respondOK(w, http.StatusOK, envelope{"menuItem": item})
}

func (h *Handler) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.loadMenuItem(r, "Error deleting menu item")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if _, err := h.authorizeMenuItem(r, item, "You can only delete menu items from your own restaurants"); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Catalog.DeleteMenuItem(r.Context(), item.ID); err != nil {
		switch {
		case errors.Is(err, database.ErrMenuItemNotFound):
			h.respondError(w, r, apperr.NotFound("Menu item not found"))
		case errors.Is(err, database.ErrReferenced):
			h.respondError(w, r, apperr.Validation("Cannot delete a menu item that appears in orders; mark it unavailable instead"))
		default:
			h.respondError(w, r, apperr.Persistence("Error deleting menu item", err))
		}
		return
	}

	respondOK(w, http.StatusOK, envelope{"message": "Menu item deleted successfully"})
}
