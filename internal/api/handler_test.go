package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/safar/go-food-order/internal/apperr"
	"github.com/safar/go-food-order/internal/auth"
	"github.com/safar/go-food-order/internal/database"
	"github.com/safar/go-food-order/internal/events"
	"github.com/safar/go-food-order/internal/models"
	"github.com/safar/go-food-order/internal/orders"
)

type testServer struct {
	auth    *mockAuth
	orders  *mockOrders
	catalog *mockCatalog
	stats   *mockStats
	router  *mux.Router
}

func setupServer(t *testing.T) *testServer {
	s := &testServer{
		auth:    &mockAuth{},
		orders:  &mockOrders{},
		catalog: &mockCatalog{},
		stats:   &mockStats{},
		router:  mux.NewRouter(),
	}

	h := NewHandler(s.auth, s.orders, s.catalog, s.stats, zap.NewNop().Sugar())
	h.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	h.RegisterRoutes(s.router)

	t.Cleanup(func() {
		s.auth.AssertExpectations(t)
		s.orders.AssertExpectations(t)
		s.catalog.AssertExpectations(t)
		s.stats.AssertExpectations(t)
	})

	return s
}

// as makes token resolve to user and returns the token.
func (s *testServer) as(user *models.User) string {
	token := "token-" + user.ID.String()
	s.auth.On("ResolveUser", mock.Anything, token).Return(user, nil).Maybe()
	return token
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func newUser(role models.Role) *models.User {
	return &models.User{ID: uuid.New(), Email: string(role) + "@example.com", Role: role, IsActive: true, PasswordHash: "secret-hash"}
}

func TestHealth(t *testing.T) {
	s := setupServer(t)

	w := s.do(http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody(t, w)["status"])
}

func TestLogin_FailureBodiesAreIdentical(t *testing.T) {
	s := setupServer(t)

	s.auth.On("Login", mock.Anything, "nobody@example.com", "pw").
		Return(nil, apperr.Authentication("Invalid email or password")).Once()
	s.auth.On("Login", mock.Anything, "ana@example.com", "wrong").
		Return(nil, apperr.Authentication("Invalid email or password")).Once()

	unknown := s.do(http.MethodPost, "/api/login", `{"email":"nobody@example.com","password":"pw"}`, "")
	wrong := s.do(http.MethodPost, "/api/login", `{"email":"ana@example.com","password":"wrong"}`, "")

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, unknown.Code, wrong.Code)
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
	assert.JSONEq(t, `{"success":false,"error":"Invalid email or password"}`, unknown.Body.String())
}

func TestLogin_Success(t *testing.T) {
	s := setupServer(t)
	user := newUser(models.RoleCustomer)

	s.auth.On("Login", mock.Anything, user.Email, "pw").
		Return(&auth.LoginResult{Token: "signed", User: user}, nil).Once()

	w := s.do(http.MethodPost, "/api/login", `{"email":"`+user.Email+`","password":"pw"}`, "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "signed", body["token"])
	assert.NotContains(t, w.Body.String(), "secret-hash")
}

func TestLogin_MissingFields(t *testing.T) {
	s := setupServer(t)

	w := s.do(http.MethodPost, "/api/login", `{"email":"ana@example.com"}`, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email and password are required", decodeBody(t, w)["error"])
}

func TestRegister(t *testing.T) {
	s := setupServer(t)
	created := newUser(models.RoleSeller)

	s.auth.On("Register", mock.Anything, auth.RegisterInput{
		Email: "ana@example.com", Password: "pw", FirstName: "Ana", LastName: "Silva", Role: models.RoleSeller,
	}).Return(created, nil).Once()

	w := s.do(http.MethodPost, "/api/register",
		`{"email":"ana@example.com","password":"pw","firstName":" Ana ","lastName":"Silva","role":"seller"}`, "")

	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/register", `{"email":"not-an-email","password":"pw"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email must be a valid email address", decodeBody(t, w)["error"])
}

func TestMe(t *testing.T) {
	s := setupServer(t)
	user := newUser(models.RoleCustomer)
	token := s.as(user)
	s.auth.On("ResolveUser", mock.Anything, "expired").Return(nil, nil).Once()

	w := s.do(http.MethodGet, "/api/users/me", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user.ID.String(), decodeBody(t, w)["user"].(map[string]any)["id"])

	w = s.do(http.MethodGet, "/api/users/me", "", "expired")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResolveFailureIsServerError(t *testing.T) {
	s := setupServer(t)
	s.auth.On("ResolveUser", mock.Anything, "tok").
		Return(nil, apperr.Persistence("Failed to resolve user", errors.New("pq: connection reset"))).Once()

	w := s.do(http.MethodGet, "/api/users/me", "", "tok")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
}

const validOrderBody = `{
	"restaurantId": "%s",
	"deliveryAddress": "42 Elm St",
	"tipAmount": 3.5,
	"items": [
		{"menuItemId": "%s", "quantity": 2, "customizations": {"sauce": "extra"}},
		{"menuItemId": "%s", "quantity": 1, "customizations": null}
	]
}`

func orderBody(restaurantID, a, b uuid.UUID) string {
	return fmt.Sprintf(validOrderBody, restaurantID, a, b)
}

func TestCreateOrder(t *testing.T) {
	s := setupServer(t)
	customer := newUser(models.RoleCustomer)
	token := s.as(customer)
	restaurantID, burger, fries := uuid.New(), uuid.New(), uuid.New()

	created := &models.Order{ID: uuid.New(), CustomerID: customer.ID, RestaurantID: restaurantID, Status: models.OrderStatusPending,
		TotalAmount: decimal.RequireFromString("28.73")}

	s.orders.On("Create", mock.Anything, customer, mock.MatchedBy(func(in orders.CreateOrderInput) bool {
		return in.RestaurantID == restaurantID &&
			in.TipAmount.Equal(decimal.RequireFromString("3.5")) &&
			len(in.Items) == 2 &&
			in.Items[0].MenuItemID == burger && in.Items[0].Quantity == 2 &&
			string(in.Items[0].Customizations) == `{"sauce": "extra"}` &&
			in.Items[1].Customizations == nil
	})).Return(created, nil).Once()

	w := s.do(http.MethodPost, "/api/orders", orderBody(restaurantID, burger, fries), token)

	require.Equal(t, http.StatusCreated, w.Code)
	order := decodeBody(t, w)["order"].(map[string]any)
	assert.Equal(t, created.ID.String(), order["id"])
	assert.Equal(t, 28.73, order["totalAmount"])
}

func TestCreateOrder_Rejections(t *testing.T) {
	restaurantID := uuid.New()

	tests := []struct {
		name     string
		body     string
		token    bool
		wantCode int
	}{
		{"anonymous", orderBody(restaurantID, uuid.New(), uuid.New()), false, http.StatusUnauthorized},
		{"malformed_json", `{"restaurantId":`, true, http.StatusBadRequest},
		{"no_items", `{"restaurantId":"` + restaurantID.String() + `","deliveryAddress":"x","items":[]}`, true, http.StatusBadRequest},
		{"zero_quantity", `{"restaurantId":"` + restaurantID.String() + `","deliveryAddress":"x","items":[{"menuItemId":"` + uuid.NewString() + `","quantity":0}]}`, true, http.StatusBadRequest},
		{"huge_quantity", `{"restaurantId":"` + restaurantID.String() + `","deliveryAddress":"x","items":[{"menuItemId":"` + uuid.NewString() + `","quantity":3000000000}]}`, true, http.StatusBadRequest},
		{"missing_address", `{"restaurantId":"` + restaurantID.String() + `","items":[{"menuItemId":"` + uuid.NewString() + `","quantity":1}]}`, true, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := setupServer(t)
			token := ""
			if tc.token {
				token = s.as(newUser(models.RoleCustomer))
			}

			w := s.do(http.MethodPost, "/api/orders", tc.body, token)

			assert.Equal(t, tc.wantCode, w.Code)
			assert.Equal(t, false, decodeBody(t, w)["success"])
		})
	}
}

func TestCreateOrder_ServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"closed", apperr.InvalidState("Restaurant is currently closed"), http.StatusBadRequest, "Restaurant is currently closed"},
		{"minimum", apperr.Validation("Order does not meet minimum amount of $20.00"), http.StatusBadRequest, "Order does not meet minimum amount of $20.00"},
		{"not_found", apperr.NotFound("Restaurant not found"), http.StatusNotFound, "Restaurant not found"},
		{"persistence", apperr.Persistence("Error creating order", errors.New("pq: deadlock detected")), http.StatusInternalServerError, "Error creating order"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := setupServer(t)
			token := s.as(newUser(models.RoleCustomer))
			s.orders.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			w := s.do(http.MethodPost, "/api/orders", orderBody(uuid.New(), uuid.New(), uuid.New()), token)

			assert.Equal(t, tc.wantCode, w.Code)
			assert.Equal(t, tc.wantMsg, decodeBody(t, w)["error"])
			assert.NotContains(t, w.Body.String(), "deadlock")
		})
	}
}

func TestListOrders(t *testing.T) {
	s := setupServer(t)
	seller := newUser(models.RoleSeller)
	token := s.as(seller)

	s.orders.On("List", mock.Anything, seller, orders.ListFilter{Status: models.OrderStatusReady, Skip: 20, Limit: 10}).
		Return([]models.Order{{ID: uuid.New()}, {ID: uuid.New()}}, nil).Once()

	w := s.do(http.MethodGet, "/api/orders?status=ready&skip=20&limit=10", "", token)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["count"])
	assert.Len(t, body["orders"], 2)

	w = s.do(http.MethodGet, "/api/orders?skip=-1", "", token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetOrder_Forbidden(t *testing.T) {
	s := setupServer(t)
	outsider := newUser(models.RoleCustomer)
	token := s.as(outsider)
	id := uuid.New()

	s.orders.On("Get", mock.Anything, outsider, id).
		Return(nil, apperr.Authorization("You do not have permission to view this order")).Once()

	w := s.do(http.MethodGet, "/api/orders/"+id.String(), "", token)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"You do not have permission to view this order"}`, w.Body.String())
}

func TestGetOrder_InvalidID(t *testing.T) {
	s := setupServer(t)
	token := s.as(newUser(models.RoleAdmin))

	w := s.do(http.MethodGet, "/api/orders/not-a-uuid", "", token)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOrder(t *testing.T) {
	s := setupServer(t)
	seller := newUser(models.RoleSeller)
	token := s.as(seller)
	id := uuid.New()

	s.orders.On("Update", mock.Anything, seller, id, mock.MatchedBy(func(in orders.UpdateOrderInput) bool {
		return in.Status != nil && *in.Status == models.OrderStatusDelivered &&
			in.DeliveryInstructions == nil && in.ActualDeliveryTime == nil
	})).Return(&models.Order{ID: id, Status: models.OrderStatusDelivered}, nil).Once()

	w := s.do(http.MethodPut, "/api/orders/"+id.String(), `{"status":"delivered"}`, token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "delivered", decodeBody(t, w)["order"].(map[string]any)["status"])
}

func TestUpdateOrder_EmptyStatusLeavesStatusAlone(t *testing.T) {
	s := setupServer(t)
	seller := newUser(models.RoleSeller)
	token := s.as(seller)
	id := uuid.New()

	s.orders.On("Update", mock.Anything, seller, id, mock.MatchedBy(func(in orders.UpdateOrderInput) bool {
		return in.Status == nil && in.DeliveryInstructions != nil && *in.DeliveryInstructions == "Ring twice"
	})).Return(&models.Order{ID: id, Status: models.OrderStatusPreparing, DeliveryInstructions: "Ring twice"}, nil).Once()

	w := s.do(http.MethodPut, "/api/orders/"+id.String(), `{"status":"","deliveryInstructions":"Ring twice"}`, token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "preparing", decodeBody(t, w)["order"].(map[string]any)["status"])
}

func TestOrderHistoryAndQRCode(t *testing.T) {
	s := setupServer(t)
	customer := newUser(models.RoleCustomer)
	token := s.as(customer)
	id := uuid.New()

	s.orders.On("History", mock.Anything, customer, id).
		Return([]models.OrderStatusChange{{OrderID: id, ToStatus: models.OrderStatusPending}}, nil).Once()
	s.orders.On("Receipt", mock.Anything, customer, id).Return([]byte("\x89PNG"), nil).Once()

	w := s.do(http.MethodGet, "/api/orders/"+id.String()+"/history", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	w = s.do(http.MethodGet, "/api/orders/"+id.String()+"/qrcode", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", w.Body.String())
}

func TestCreateRestaurant(t *testing.T) {
	s := setupServer(t)
	seller := newUser(models.RoleSeller)
	token := s.as(seller)

	s.catalog.On("CreateRestaurant", mock.Anything, mock.MatchedBy(func(r *models.Restaurant) bool {
		return r.OwnerID == seller.ID && r.Name == "Diner" && !r.DeliveryFee.Valid &&
			r.MinimumOrder.Equal(decimal.NewFromInt(10)) && r.EstimatedDeliveryTime == 30 && r.IsActive && r.IsOpen
	})).Return(nil).Once()

	body := `{"name":"Diner","cuisineType":"American","streetAddress":"1 Main","city":"Springfield","state":"IL","postalCode":"62701"}`
	w := s.do(http.MethodPost, "/api/restaurants", body, token)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/restaurants", `{"name":"Diner"}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "cuisineType is required", decodeBody(t, w)["error"])

	w = s.do(http.MethodPost, "/api/restaurants", body, s.as(newUser(models.RoleCustomer)))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateRestaurant_Ownership(t *testing.T) {
	s := setupServer(t)
	owner := newUser(models.RoleSeller)
	other := newUser(models.RoleSeller)
	restaurant := &models.Restaurant{ID: uuid.New(), OwnerID: owner.ID, Name: "Diner", IsOpen: true}

	s.catalog.On("GetRestaurant", mock.Anything, restaurant.ID).Return(restaurant, nil)
	s.catalog.On("UpdateRestaurant", mock.Anything, mock.MatchedBy(func(r *models.Restaurant) bool {
		return r.Name == "Diner" && !r.IsOpen
	})).Return(nil).Once()

	path := "/api/restaurants/" + restaurant.ID.String()

	w := s.do(http.MethodPut, path, `{"isOpen":false}`, s.as(other))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You can only update your own restaurants", decodeBody(t, w)["error"])

	w = s.do(http.MethodPut, path, `{"isOpen":false}`, s.as(owner))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetRestaurant_NotFound(t *testing.T) {
	s := setupServer(t)
	id := uuid.New()

	s.catalog.On("GetRestaurant", mock.Anything, id).Return(nil, database.ErrRestaurantNotFound).Once()

	w := s.do(http.MethodGet, "/api/restaurants/"+id.String(), "", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Restaurant not found", decodeBody(t, w)["error"])
}

func TestMyRestaurants_AdminSeesAll(t *testing.T) {
	s := setupServer(t)
	admin := newUser(models.RoleAdmin)

	s.catalog.On("ListRestaurantsByOwner", mock.Anything, uuid.Nil).
		Return([]models.Restaurant{{ID: uuid.New()}}, nil).Once()

	w := s.do(http.MethodGet, "/api/my-restaurants", "", s.as(admin))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])
}

func TestDeleteMenuItem_Referenced(t *testing.T) {
	s := setupServer(t)
	owner := newUser(models.RoleSeller)
	restaurant := &models.Restaurant{ID: uuid.New(), OwnerID: owner.ID}
	item := &models.MenuItem{ID: uuid.New(), RestaurantID: restaurant.ID}

	s.catalog.On("GetMenuItem", mock.Anything, item.ID).Return(item, nil).Once()
	s.catalog.On("GetRestaurant", mock.Anything, restaurant.ID).Return(restaurant, nil).Once()
	s.catalog.On("DeleteMenuItem", mock.Anything, item.ID).Return(database.ErrReferenced).Once()

	w := s.do(http.MethodDelete, "/api/menu-items/"+item.ID.String(), "", s.as(owner))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateMenuItem_RequiresPositivePrice(t *testing.T) {
	s := setupServer(t)
	owner := newUser(models.RoleSeller)
	restaurant := &models.Restaurant{ID: uuid.New(), OwnerID: owner.ID}

	s.catalog.On("GetRestaurant", mock.Anything, restaurant.ID).Return(restaurant, nil)
	s.catalog.On("CreateMenuItem", mock.Anything, mock.MatchedBy(func(item *models.MenuItem) bool {
		return item.RestaurantID == restaurant.ID && item.IsAvailable && item.Price.Equal(decimal.RequireFromString("12.99"))
	})).Return(nil).Once()

	path := "/api/restaurants/" + restaurant.ID.String() + "/menu-items"
	token := s.as(owner)

	w := s.do(http.MethodPost, path, `{"name":"Burger","price":0}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Name and a valid price are required", decodeBody(t, w)["error"])

	w = s.do(http.MethodPost, path, `{"name":"Burger","price":100000000}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, path, `{"name":"Burger","price":12.99}`, token)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRestaurantStats(t *testing.T) {
	s := setupServer(t)
	owner := newUser(models.RoleSeller)
	restaurant := &models.Restaurant{ID: uuid.New(), OwnerID: owner.ID, TotalOrders: 42}
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	s.catalog.On("GetRestaurant", mock.Anything, restaurant.ID).Return(restaurant, nil)
	s.stats.On("Daily", mock.Anything, restaurant.ID, day).
		Return(&events.DailyStats{Date: "2026-03-14", Orders: 2, Revenue: decimal.RequireFromString("38.78")}, nil).Once()

	path := "/api/restaurants/" + restaurant.ID.String() + "/stats"
	token := s.as(owner)

	w := s.do(http.MethodGet, path+"?date=2026-03-14", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeBody(t, w)["stats"].(map[string]any)
	assert.Equal(t, float64(42), stats["totalOrders"])
	assert.Equal(t, float64(2), stats["dailyOrders"])
	assert.Equal(t, 38.78, stats["dailyRevenue"])

	w = s.do(http.MethodGet, path+"?date=14/03/2026", "", token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, path, "", s.as(newUser(models.RoleSeller)))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
