package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"cantina/internal/handlers"
	"cantina/internal/middleware"
	"cantina/internal/models"
	"cantina/internal/repositories"
	"cantina/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv bundles the app with the repositories tests seed directly.
type testEnv struct {
	app         *fiber.App
	authService *services.AuthService
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
	orderRepo   *repositories.MockOrderRepository
}

// setupApp wires the full route tree over an in-memory SQLite database.
// Orders use the in-memory repository: SQLite has no SELECT ... FOR UPDATE,
// and the mock enforces the same state guards as the GORM implementation.
func setupApp(name string) (*testEnv, error) {
	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

	// A named shared-cache DSN keeps each test's data isolated while
	// letting GORM's connection pool see the same database.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to in-memory database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Category{}, &models.Product{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	orderRepo := repositories.NewMockOrderRepository()

	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(productRepo)
	orderService := services.NewOrderService(orderRepo, cartService, nil)
	authService := services.NewAuthService(userRepo, jwtSecret)
	adminService := services.NewAdminService(orderRepo, productRepo, userRepo)

	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	authHandler := handlers.NewAuthHandler(authService)
	adminHandler := handlers.NewAdminHandler(adminService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterPublicRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	cartHandler.RegisterRoutes(protected)
	orderHandler.RegisterRoutes(protected)

	adminOnly := protected.Group("", middleware.AdminRequired())
	productHandler.RegisterAdminRoutes(adminOnly)
	adminHandler.RegisterRoutes(adminOnly)

	seedProductsForTest(productRepo)

	return &testEnv{
		app:         app,
		authService: authService,
		productRepo: productRepo,
		userRepo:    userRepo,
		orderRepo:   orderRepo,
	}, nil
}

// seedProductsForTest loads the reference catalog: item A at 100 with an
// active promotion at 80, item B at 50, and one unavailable item.
func seedProductsForTest(repo repositories.ProductRepository) {
	promo := decimal.NewFromInt(80)
	products := []models.Product{
		{ID: "prod-a", Name: "Menu of the day", Price: decimal.NewFromInt(100), PromoPrice: &promo, Promotion: true, Available: true},
		{ID: "prod-b", Name: "Lemonade", Price: decimal.NewFromInt(50), Available: true},
		{ID: "prod-off", Name: "Seasonal dish", Price: decimal.NewFromInt(70), Available: false},
	}
	for i := range products {
		if err := repo.Create(&products[i]); err != nil {
			log.Printf("Failed to seed product %s: %v", products[i].Name, err)
		}
	}
}

// seedAdmin inserts an administrator directly; registration never grants
// the admin role, so tests provision one at the repository level.
func seedAdmin(t *testing.T, env *testEnv, email, password string) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	assert.NoError(t, err)
	assert.NoError(t, env.userRepo.Create(&models.User{
		Name:     "Admin",
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}))
}

func doJSON(t *testing.T, app *fiber.App, method, target, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// registerAndLogin registers a user through the API and returns their token.
func registerAndLogin(t *testing.T, env *testEnv, name, email, password string) string {
	t.Helper()
	resp := doJSON(t, env.app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	return login(t, env, email, password)
}

func login(t *testing.T, env *testEnv, email, password string) string {
	t.Helper()
	resp := doJSON(t, env.app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp map[string]string
	decodeBody(t, resp, &loginResp)
	assert.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

// orderResponse matches the envelope the order endpoints return.
type orderResponse struct {
	Message string       `json:"message"`
	Order   models.Order `json:"order"`
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env, err := setupApp("auth_flow")
	assert.NoError(t, err)

	token := registerAndLogin(t, env, "Test User", "test@example.com", "password123")

	claims, err := env.authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "test@example.com", claims["email"])
	assert.Equal(t, models.RoleUser, claims["role"], "registration must never grant admin")

	// Duplicate registration is a conflict.
	resp := doJSON(t, env.app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Test User",
		"email":    "test@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Wrong password is rejected.
	resp = doJSON(t, env.app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "test@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestCatalogIsPublicButMutationsAreAdminOnly(t *testing.T) {
	env, err := setupApp("catalog_auth")
	assert.NoError(t, err)

	// Browsing needs no token.
	resp := doJSON(t, env.app, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var listResp struct {
		Count    int              `json:"count"`
		Products []models.Product `json:"products"`
	}
	decodeBody(t, resp, &listResp)
	assert.Equal(t, 3, listResp.Count)

	// Filters narrow the listing.
	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/products?available=true&promoted=true", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &listResp)
	assert.Equal(t, 1, listResp.Count)
	assert.Equal(t, "prod-a", listResp.Products[0].ID)

	// Mutations require a token...
	newProduct := map[string]interface{}{"name": "Empanada", "price": 30, "available": true}
	resp = doJSON(t, env.app, http.MethodPost, "/api/v1/products", "", newProduct)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// ...and the admin role.
	userToken := registerAndLogin(t, env, "Plain User", "user@example.com", "password123")
	resp = doJSON(t, env.app, http.MethodPost, "/api/v1/products", userToken, newProduct)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	seedAdmin(t, env, "admin@example.com", "adminpass")
	adminToken := login(t, env, "admin@example.com", "adminpass")

	resp = doJSON(t, env.app, http.MethodPost, "/api/v1/products", adminToken, newProduct)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Product
	decodeBody(t, resp, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Empanada", created.Name)

	// Update and delete round out the admin surface.
	resp = doJSON(t, env.app, http.MethodPut, "/api/v1/products/"+created.ID, adminToken, map[string]interface{}{
		"name": "Empanada grande", "price": 35, "available": true,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Product
	decodeBody(t, resp, &updated)
	assert.Equal(t, "Empanada grande", updated.Name)

	resp = doJSON(t, env.app, http.MethodDelete, "/api/v1/products/"+created.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/products/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCartValidatePartialSuccess(t *testing.T) {
	env, err := setupApp("cart_validate")
	assert.NoError(t, err)
	token := registerAndLogin(t, env, "Cart User", "cart@example.com", "password123")

	// A fully valid cart prices cleanly.
	resp := doJSON(t, env.app, http.MethodPost, "/api/v1/cart/validate", token, map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": "prod-a", "quantity": 3},
			{"product_id": "prod-b", "quantity": 2},
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var okResp struct {
		Items   []models.PricedLine `json:"items"`
		Summary models.CartSummary  `json:"summary"`
	}
	decodeBody(t, resp, &okResp)
	assert.Len(t, okResp.Items, 2)
	assert.True(t, okResp.Summary.Total.Equal(decimal.NewFromInt(340)))
	assert.True(t, okResp.Summary.TotalDiscount.Equal(decimal.NewFromInt(60)))

	// A bad line fails the response but the valid line still comes back.
	resp = doJSON(t, env.app, http.MethodPost, "/api/v1/cart/validate", token, map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": "prod-a", "quantity": 3},
			{"product_id": "prod-off", "quantity": 1},
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var partialResp struct {
		Errors  []string            `json:"errors"`
		Items   []models.PricedLine `json:"items"`
		Summary models.CartSummary  `json:"summary"`
	}
	decodeBody(t, resp, &partialResp)
	assert.Len(t, partialResp.Errors, 1)
	assert.Len(t, partialResp.Items, 1)
	assert.Equal(t, "prod-a", partialResp.Items[0].ProductID)
	assert.True(t, partialResp.Summary.Total.Equal(decimal.NewFromInt(240)))

	// Without a token the cart is unreachable.
	resp = doJSON(t, env.app, http.MethodPost, "/api/v1/cart/validate", "", map[string]interface{}{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestOrderLifecycle(t *testing.T) {
	env, err := setupApp("order_lifecycle")
	assert.NoError(t, err)
	ownerToken := registerAndLogin(t, env, "Owner", "owner@example.com", "password123")
	strangerToken := registerAndLogin(t, env, "Stranger", "stranger@example.com", "password123")
	seedAdmin(t, env, "admin@example.com", "adminpass")
	adminToken := login(t, env, "admin@example.com", "adminpass")

	// Create.
	resp := doJSON(t, env.app, http.MethodPost, "/api/v1/orders", ownerToken, map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": "prod-a", "quantity": 3},
			{"product_id": "prod-b", "quantity": 2},
		},
		"notes": "table 4",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var createResp orderResponse
	decodeBody(t, resp, &createResp)
	orderID := createResp.Order.ID
	assert.Equal(t, "ORD0001", createResp.Order.OrderNumber)
	assert.Equal(t, models.StatusPending, createResp.Order.Status)
	assert.Equal(t, models.PaymentCash, createResp.Order.PaymentMethod)
	assert.True(t, createResp.Order.Total.Equal(decimal.NewFromInt(340)))

	// An unavailable product fails the whole creation.
	resp = doJSON(t, env.app, http.MethodPost, "/api/v1/orders", ownerToken, map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": "prod-off", "quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
	orders, err := env.orderRepo.GetAll()
	assert.NoError(t, err)
	assert.Len(t, orders, 1, "a rejected creation must write nothing")

	// Only the owner or an admin can read the order.
	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/orders/"+orderID, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/orders/"+orderID, adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Details update while pending.
	resp = doJSON(t, env.app, http.MethodPut, "/api/v1/orders/"+orderID+"/details", ownerToken, map[string]interface{}{
		"payment_method": "card",
		"notes":          "table 6 now",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var detailsResp orderResponse
	decodeBody(t, resp, &detailsResp)
	assert.Equal(t, models.PaymentCard, detailsResp.Order.PaymentMethod)
	assert.Equal(t, "table 6 now", detailsResp.Order.Notes)

	// Items are replaceable while pending, and the total follows.
	resp = doJSON(t, env.app, http.MethodPut, "/api/v1/orders/"+orderID+"/items", ownerToken, map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": "prod-b", "quantity": 4}},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var replaceResp orderResponse
	decodeBody(t, resp, &replaceResp)
	assert.Len(t, replaceResp.Order.Items, 1)
	assert.True(t, replaceResp.Order.Total.Equal(decimal.NewFromInt(200)))

	// Status changes are admin-only.
	statusBody := map[string]string{"status": "preparing"}
	resp = doJSON(t, env.app, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", ownerToken, statusBody)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, env.app, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", adminToken, statusBody)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Once preparing, neither items nor details may change.
	resp = doJSON(t, env.app, http.MethodPut, "/api/v1/orders/"+orderID+"/items", ownerToken, map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": "prod-a", "quantity": 1}},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, env.app, http.MethodPut, "/api/v1/orders/"+orderID+"/details", ownerToken, map[string]interface{}{
		"notes": "too late",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Delivered is terminal.
	resp = doJSON(t, env.app, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", adminToken, map[string]string{"status": "ready"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, env.app, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", adminToken, map[string]string{"status": "delivered"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, env.app, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", adminToken, map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Listing: owners see their own, admins see everything.
	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/orders", strangerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var listResp struct {
		Count  int            `json:"count"`
		Orders []models.Order `json:"orders"`
	}
	decodeBody(t, resp, &listResp)
	assert.Equal(t, 0, listResp.Count)

	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/orders", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &listResp)
	assert.Equal(t, 1, listResp.Count)
}

func TestAdminDashboard(t *testing.T) {
	env, err := setupApp("admin_dashboard")
	assert.NoError(t, err)
	ownerToken := registerAndLogin(t, env, "Owner", "owner@example.com", "password123")
	seedAdmin(t, env, "admin@example.com", "adminpass")
	adminToken := login(t, env, "admin@example.com", "adminpass")

	// The dashboard is gated to admins.
	resp := doJSON(t, env.app, http.MethodGet, "/api/v1/admin/dashboard", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// One delivered order feeds revenue and the average.
	resp = doJSON(t, env.app, http.MethodPost, "/api/v1/orders", ownerToken, map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": "prod-a", "quantity": 3}},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var createResp orderResponse
	decodeBody(t, resp, &createResp)
	for _, status := range []string{"confirmed", "preparing", "ready", "delivered"} {
		resp = doJSON(t, env.app, http.MethodPatch, "/api/v1/orders/"+createResp.Order.ID+"/status", adminToken, map[string]string{"status": status})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/admin/dashboard", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var dashResp struct {
		Stats models.DashboardStats `json:"stats"`
	}
	decodeBody(t, resp, &dashResp)
	assert.Equal(t, int64(2), dashResp.Stats.TotalUsers)
	assert.Equal(t, int64(3), dashResp.Stats.TotalProducts)
	assert.Equal(t, int64(1), dashResp.Stats.TotalOrders)
	assert.Equal(t, int64(1), dashResp.Stats.DeliveredOrders)
	assert.True(t, dashResp.Stats.Revenue.Equal(decimal.NewFromInt(240)))
	assert.True(t, dashResp.Stats.AverageOrderValue.Equal(decimal.NewFromInt(240)))
}
