package api

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/safar/go-food-order/internal/apperr"
	"github.com/safar/go-food-order/internal/models"
)

type contextKey string

const userKey contextKey = "user"

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}

// authenticate resolves the bearer token, if any, and stores the live user on
// the request context. Anonymous requests pass through with no user.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := h.Auth.ResolveUser(r.Context(), token)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		if user != nil {
			r = r.WithContext(context.WithValue(r.Context(), userKey, user))
		}

		next.ServeHTTP(w, r)
	})
}

func userFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// requireUser returns the caller, or an authentication error when anonymous
// and an authorization error when the role is not among roles.
func requireUser(ctx context.Context, roles ...models.Role) (*models.User, error) {
	user := userFrom(ctx)
	if user == nil {
		return nil, apperr.Authentication("Authentication required")
	}
	if len(roles) > 0 && !slices.Contains(roles, user.Role) {
		return nil, apperr.Authorization("Access denied")
	}
	return user, nil
}

func owns(user *models.User, restaurant *models.Restaurant) bool {
	return user.Role == models.RoleAdmin || restaurant.OwnerID == user.ID
}
