package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mad23dog/nomad-detroit-coffee/app/models"
	"github.com/mad23dog/nomad-detroit-coffee/internal/server"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/auth"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/cache"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/database"
)

// setupAPI mounts the real route table over a throwaway database, so these
// tests exercise the full middleware chain exactly as production does.
func setupAPI(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	cache.SetStore(cache.NewMemoryStore()) // isolate the catalog cache per test

	db, err := database.OpenWith("sqlite", filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, db.AutoMigrate(
		&models.Product{}, &models.Order{}, &models.OrderItem{}, &models.AdminUser{}))
	require.NoError(t, db.Create(&[]models.Product{
		{Name: "Ethiopia", Price: 22.00, StockQuantity: 100},
		{Name: "Decaf", Price: 22.00, StockQuantity: 0},
	}).Error)

	return server.Handler(db), db
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProductsIndexHidesOutOfStock(t *testing.T) {
	h, _ := setupAPI(t)

	rec := doJSON(t, h, http.MethodGet, "/products", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Products []models.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Products, 1)
	assert.Equal(t, "Ethiopia", body.Products[0].Name)
}

func TestProductShowNotFound(t *testing.T) {
	h, _ := setupAPI(t)

	rec := doJSON(t, h, http.MethodGet, "/products/9999", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "product_not_found", body["code"])
}

func TestCreateOrderReturnsPending(t *testing.T) {
	h, _ := setupAPI(t)

	rec := doJSON(t, h, http.MethodPost, "/orders/create", map[string]any{
		"items":         []map[string]any{{"name": "Ethiopia", "quantity": 2}},
		"customerEmail": "jo@example.com",
		"customerName":  "Jo Miller",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		OrderID string  `json:"orderId"`
		Status  string  `json:"status"`
		Total   float64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.OrderID)
	assert.Equal(t, "pending", body.Status)
	assert.InDelta(t, 49.00, body.Total, 0.001) // 2 * 22 + 5 shipping
}

func TestCreateOrderValidationError(t *testing.T) {
	h, _ := setupAPI(t)

	rec := doJSON(t, h, http.MethodPost, "/orders/create", map[string]any{
		"items":         []map[string]any{{"name": "Ethiopia", "quantity": 0}},
		"customerEmail": "jo@example.com",
		"customerName":  "Jo Miller",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_quantity", body["code"])
	assert.NotEmpty(t, body["error"])
}

func TestStockUpdateRequiresAdminToken(t *testing.T) {
	h, _ := setupAPI(t)

	rec := doJSON(t, h, http.MethodPut, "/products/1/stock",
		map[string]any{"stock_quantity": 50}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/products/1/stock",
		map[string]any{"stock_quantity": 50},
		map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStockUpdateWithToken(t *testing.T) {
	h, _ := setupAPI(t)
	token, err := auth.GenerateToken("roaster")
	require.NoError(t, err)
	bearer := map[string]string{"Authorization": "Bearer " + token}

	rec := doJSON(t, h, http.MethodPut, "/products/1/stock",
		map[string]any{"stock_quantity": 7}, bearer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var product models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))
	assert.Equal(t, 7, product.StockQuantity)

	// Out-of-range quantities are rejected before touching the catalog.
	rec = doJSON(t, h, http.MethodPut, "/products/1/stock",
		map[string]any{"stock_quantity": 10001}, bearer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminLogin(t *testing.T) {
	h, db := setupAPI(t)
	hash, err := auth.HashPassword("beans")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.AdminUser{
		Username: "roaster", PasswordHash: hash,
	}).Error)

	rec := doJSON(t, h, http.MethodPost, "/admin/login",
		map[string]string{"username": "roaster", "password": "beans"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])

	rec = doJSON(t, h, http.MethodPost, "/admin/login",
		map[string]string{"username": "roaster", "password": "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownRouteIsJSON(t *testing.T) {
	h, _ := setupAPI(t)

	rec := doJSON(t, h, http.MethodGet, "/nope", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestPreflightReturnsOK(t *testing.T) {
	h, _ := setupAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/orders/create", nil)
	req.Header.Set("Origin", "https://nomaddetroitcoffee.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	h, _ := setupAPI(t)

	rec := doJSON(t, h, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"status":"ok"}`, fmt.Sprintf("%s", bytes.TrimSpace(rec.Body.Bytes())))
}
