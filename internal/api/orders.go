package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safar/go-food-order/internal/models"
	"github.com/safar/go-food-order/internal/orders"
)

type orderItemRequest struct {
	MenuItemID          uuid.UUID       `json:"menuItemId" validate:"required"`
	Quantity            int             `json:"quantity" validate:"min=1,max=1000"`
	Customizations      json.RawMessage `json:"customizations"`
	SpecialInstructions string          `json:"specialInstructions"`
}

type createOrderRequest struct {
	RestaurantID         uuid.UUID          `json:"restaurantId" validate:"required"`
	DeliveryAddress      string             `json:"deliveryAddress" validate:"required"`
	DeliveryInstructions string             `json:"deliveryInstructions"`
	SpecialInstructions  string             `json:"specialInstructions"`
	TipAmount            decimal.Decimal    `json:"tipAmount"`
	PaymentMethod        string             `json:"paymentMethod"`
	Items                []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (req createOrderRequest) input() orders.CreateOrderInput {
	in := orders.CreateOrderInput{
		RestaurantID:         req.RestaurantID,
		DeliveryAddress:      req.DeliveryAddress,
		DeliveryInstructions: req.DeliveryInstructions,
		SpecialInstructions:  req.SpecialInstructions,
		TipAmount:            req.TipAmount,
		PaymentMethod:        req.PaymentMethod,
		Items:                make([]orders.ItemInput, len(req.Items)),
	}
	for i, item := range req.Items {
		customizations := item.Customizations
		if string(customizations) == "null" {
			customizations = nil
		}
		in.Items[i] = orders.ItemInput{
			MenuItemID:          item.MenuItemID,
			Quantity:            item.Quantity,
			Customizations:      customizations,
			SpecialInstructions: item.SpecialInstructions,
		}
	}
	return in
}

type updateOrderRequest struct {
	Status               *models.OrderStatus `json:"status"`
	SpecialInstructions  *string             `json:"specialInstructions"`
	DeliveryInstructions *string             `json:"deliveryInstructions"`
	ActualDeliveryTime   *time.Time          `json:"actualDeliveryTime"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req createOrderRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	order, err := h.Orders.Create(r.Context(), user, req.input())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusCreated, envelope{"order": order})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	skip, err := queryInt(r, "skip")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	list, err := h.Orders.List(r.Context(), user, orders.ListFilter{
		Status: models.OrderStatus(r.URL.Query().Get("status")),
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{"count": len(list), "orders": list})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := pathID(r, "order")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	order, err := h.Orders.Get(r.Context(), user, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{"order": order})
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := pathID(r, "order")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req updateOrderRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	// An empty status means "leave unchanged".
	if req.Status != nil && *req.Status == "" {
		req.Status = nil
	}

	order, err := h.Orders.Update(r.Context(), user, id, orders.UpdateOrderInput{
		Status:               req.Status,
		SpecialInstructions:  req.SpecialInstructions,
		DeliveryInstructions: req.DeliveryInstructions,
		ActualDeliveryTime:   req.ActualDeliveryTime,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{"order": order})
}

func (h *Handler) orderHistory(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := pathID(r, "order")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	history, err := h.Orders.History(r.Context(), user, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{"count": len(history), "history": history})
}

func (h *Handler) orderQRCode(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := pathID(r, "order")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	png, err := h.Orders.Receipt(r.Context(), user, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
