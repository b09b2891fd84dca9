package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	appcatalog "github.com/shop/backend/internal/application/catalog"
	appidentity "github.com/shop/backend/internal/application/identity"
	appordering "github.com/shop/backend/internal/application/ordering"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/domain/ordering"
	"github.com/shop/backend/internal/infrastructure/auth"
	"github.com/shop/backend/internal/infrastructure/config"
	"github.com/shop/backend/internal/infrastructure/persistence"
	"github.com/shop/backend/internal/interfaces/http/dto"
	"github.com/shop/backend/internal/interfaces/http/handler"
	"github.com/shop/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	engine     *gin.Engine
	db         *gorm.DB
	jwtService *auth.JWTService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&identity.Account{},
		&catalog.Product{},
		&catalog.ProductVariant{},
		&ordering.Cart{},
		&ordering.CartItem{},
		&ordering.Order{},
		&ordering.OrderItem{},
	))

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:          "test-secret-key-at-least-32-chars",
		TokenExpiration: time.Hour,
		Issuer:          "test",
	})

	accountRepo := persistence.NewGormAccountRepository(db)
	productRepo := persistence.NewGormProductRepository(db)
	variantRepo := persistence.NewGormProductVariantRepository(db)
	cartRepo := persistence.NewGormCartRepository(db)
	orderRepo := persistence.NewGormOrderRepository(db)
	scope := persistence.NewGormCheckoutScope(db)

	authService := appidentity.NewAuthService(accountRepo, jwtService, nil)
	productService := appcatalog.NewProductService(productRepo, variantRepo, nil)
	cartService := appordering.NewCartService(cartRepo, variantRepo, productRepo, nil)
	orderService := appordering.NewOrderService(scope, orderRepo, accountRepo, nil, nil, nil)

	engine := gin.New()
	engine.Use(middleware.RequestID())

	r := NewRouter(engine, WithAPIVersion("v1"))
	RegisterAll(r, Dependencies{
		Auth:     handler.NewAuthHandler(authService, nil, nil),
		Products: handler.NewProductHandler(productService),
		Cart:     handler.NewCartHandler(cartService),
		Orders:   handler.NewOrderHandler(orderService),
		JWTAuth:  middleware.JWTAuthMiddleware(jwtService),
	})

	return &testServer{engine: engine, db: db, jwtService: jwtService}
}

func (s *testServer) request(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var resp dto.Response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

// seedStaff creates a staff account directly and returns a token for it
func (s *testServer) seedStaff(t *testing.T, role identity.Role) string {
	t.Helper()

	account, err := identity.NewAccount("staff-"+string(role), string(role)+"@shop.test", "Password1!", role)
	require.NoError(t, err)
	require.NoError(t, s.db.Create(account).Error)

	token, _, err := s.jwtService.Issue(account.ID, account.Username, role)
	require.NoError(t, err)
	return token
}

// registerCustomer registers through the API and returns a login token
func (s *testServer) registerCustomer(t *testing.T, username string) string {
	t.Helper()

	rec, _ := s.request(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@shop.test",
		"password": "Password1!",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp := s.request(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": username,
		"password": "Password1!",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(data, &login))
	require.NotEmpty(t, login.Token)
	return login.Token
}

func decodeData(t *testing.T, resp dto.Response, out interface{}) {
	t.Helper()
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestRoutes_PublicCatalogAndAuthGates(t *testing.T) {
	s := newTestServer(t)

	// Catalog reads are public
	rec, _ := s.request(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Cart requires authentication
	rec, _ = s.request(t, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Product mutations require staff
	customerToken := s.registerCustomer(t, "ana")
	rec, _ = s.request(t, http.MethodPost, "/api/v1/products", customerToken, gin.H{
		"name":  "Trail Shoes",
		"price": "1500.00",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.request(t, http.MethodGet, "/api/v1/orders/all", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRoutes_EmployeeManagementIsAdminOnly(t *testing.T) {
	s := newTestServer(t)
	employeeToken := s.seedStaff(t, identity.RoleEmployee)
	adminToken := s.seedStaff(t, identity.RoleAdmin)

	rec, _ := s.request(t, http.MethodGet, "/api/v1/auth/employees", employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.request(t, http.MethodGet, "/api/v1/auth/employees", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_RemoveEmployee(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.seedStaff(t, identity.RoleAdmin)
	employeeToken := s.seedStaff(t, identity.RoleEmployee)

	rec, resp := s.request(t, http.MethodPost, "/api/v1/auth/employees", adminToken, gin.H{
		"username": "temphand",
		"email":    "temphand@example.com",
		"password": "Password1!",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID string `json:"id"`
	}
	decodeData(t, resp, &created)

	// Non-admin staff cannot remove accounts
	rec, _ = s.request(t, http.MethodDelete, "/api/v1/auth/employees/"+created.ID, employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.request(t, http.MethodDelete, "/api/v1/auth/employees/"+created.ID, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Soft-deleted account is gone from lookups
	rec, _ = s.request(t, http.MethodDelete, "/api/v1/auth/employees/"+created.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutes_FullOrderLifecycle(t *testing.T) {
	s := newTestServer(t)
	staffToken := s.seedStaff(t, identity.RoleEmployee)
	customerToken := s.registerCustomer(t, "carlos")

	// Staff creates a product with stock
	rec, resp := s.request(t, http.MethodPost, "/api/v1/products", staffToken, gin.H{
		"name":  "Trail Shoes",
		"price": "750.00",
		"variants": []gin.H{
			{"gender": "unisex", "size": "M", "quantity": 10},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var product struct {
		ID       string `json:"id"`
		Variants []struct {
			ID string `json:"id"`
		} `json:"variants"`
	}
	decodeData(t, resp, &product)
	require.Len(t, product.Variants, 1)
	variantID := product.Variants[0].ID

	// Customer adds the variant to the cart
	rec, resp = s.request(t, http.MethodPost, "/api/v1/cart/items", customerToken, gin.H{
		"variant_id": variantID,
		"quantity":   2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var cart struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	decodeData(t, resp, &cart)
	require.Len(t, cart.Items, 1)
	cartItemID := cart.Items[0].ID

	// Checkout preview prices the selection with the delivery fee
	rec, resp = s.request(t, http.MethodPost, "/api/v1/cart/resolve", customerToken, gin.H{
		"cart_item_ids": []string{cartItemID},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot struct {
		Subtotal    decimal.Decimal `json:"subtotal"`
		DeliveryFee decimal.Decimal `json:"delivery_fee"`
		GrandTotal  decimal.Decimal `json:"grand_total"`
	}
	decodeData(t, resp, &snapshot)
	assert.True(t, snapshot.Subtotal.Equal(decimal.NewFromInt(1500)), "subtotal %s", snapshot.Subtotal)
	assert.True(t, snapshot.DeliveryFee.Equal(decimal.NewFromInt(120)), "delivery fee %s", snapshot.DeliveryFee)
	assert.True(t, snapshot.GrandTotal.Equal(decimal.NewFromInt(1620)), "grand total %s", snapshot.GrandTotal)

	// Place the order
	rec, resp = s.request(t, http.MethodPost, "/api/v1/orders", customerToken, gin.H{
		"cart_item_ids": []string{cartItemID},
		"note":          "leave at the gate",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var order struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, resp, &order)
	assert.Equal(t, "Pending", order.Status)

	// The consumed cart item is gone
	rec, resp = s.request(t, http.MethodGet, "/api/v1/cart", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, resp, &cart)
	assert.Empty(t, cart.Items)

	orderPath := fmt.Sprintf("/api/v1/orders/%s", order.ID)

	// Customers cannot drive fulfillment
	rec, _ = s.request(t, http.MethodPost, orderPath+"/prepare", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Staff walks the order through fulfillment
	rec, resp = s.request(t, http.MethodPost, orderPath+"/prepare", staffToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, resp, &order)
	assert.Equal(t, "Preparing", order.Status)

	rec, resp = s.request(t, http.MethodPost, orderPath+"/ship", staffToken, gin.H{
		"tracking_number": "TRK-001",
		"carrier":         "LBC",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, resp, &order)
	assert.Equal(t, "Shipped", order.Status)

	rec, resp = s.request(t, http.MethodPost, orderPath+"/deliver", staffToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, resp, &order)
	assert.Equal(t, "Delivered", order.Status)

	// A delivered order cannot be cancelled
	rec, resp = s.request(t, http.MethodPost, orderPath+"/cancel", customerToken, gin.H{
		"reason": "changed my mind",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)

	// The customer sees the order in their history
	rec, resp = s.request(t, http.MethodGet, "/api/v1/orders", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
}

func TestRoutes_CancelPendingOrder(t *testing.T) {
	s := newTestServer(t)
	staffToken := s.seedStaff(t, identity.RoleEmployee)
	customerToken := s.registerCustomer(t, "bianca")

	rec, resp := s.request(t, http.MethodPost, "/api/v1/products", staffToken, gin.H{
		"name":  "Running Socks",
		"price": "120.00",
		"variants": []gin.H{
			{"gender": "unisex", "size": "L", "quantity": 5},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var product struct {
		ID       string `json:"id"`
		Variants []struct {
			ID string `json:"id"`
		} `json:"variants"`
	}
	decodeData(t, resp, &product)
	variantID := product.Variants[0].ID

	rec, resp = s.request(t, http.MethodPost, "/api/v1/cart/items", customerToken, gin.H{
		"variant_id": variantID,
		"quantity":   5,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var cart struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	decodeData(t, resp, &cart)

	rec, resp = s.request(t, http.MethodPost, "/api/v1/orders", customerToken, gin.H{
		"cart_item_ids": []string{cart.Items[0].ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var order struct {
		ID           string `json:"id"`
		Status       string `json:"status"`
		CancelReason string `json:"cancel_reason"`
	}
	decodeData(t, resp, &order)

	// Another customer cannot cancel someone else's order
	otherToken := s.registerCustomer(t, "diego")
	rec, _ = s.request(t, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", otherToken, gin.H{
		"reason": "not mine",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The owner cancels with a reason; the order survives as a record
	rec, resp = s.request(t, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", customerToken, gin.H{
		"reason": "ordered the wrong size",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, resp, &order)
	assert.Equal(t, "Cancelled", order.Status)
	assert.Equal(t, "ordered the wrong size", order.CancelReason)

	// Cancelling twice is rejected, not silently repeated
	rec, resp = s.request(t, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", customerToken, gin.H{
		"reason": "again",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)
}
