package api

import (
	"net/http"
	"strings"

	"github.com/safar/go-food-order/internal/auth"
	"github.com/safar/go-food-order/internal/models"
)

type registerRequest struct {
	Email     string `json:"email" validate:"omitempty,email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.Auth.Register(r.Context(), auth.RegisterInput{
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     req.Phone,
		Role:      models.Role(req.Role),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusCreated, envelope{"user": user})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		respondJSON(w, http.StatusBadRequest, envelope{"success": false, "error": "Email and password are required"})
		return
	}

	result, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{"token": result.Token, "user": result.User})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{"user": user})
}
