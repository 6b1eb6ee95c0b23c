package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"orderdesk/internal/database"
	"orderdesk/internal/models"
	"orderdesk/internal/repositories"
	"orderdesk/internal/server"
	"orderdesk/internal/services"
	"orderdesk/internal/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupApp builds the full app over an in-memory SQLite database.
func setupApp(t *testing.T, secret string) (*fiber.App, *services.TokenService) {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	repo := repositories.NewGORMOrderRepository(db)
	log := zap.NewNop()
	metrics := telemetry.NewMetrics()
	tokens := services.NewTokenService(secret, time.Hour)

	app := server.New(server.Options{
		Service: services.NewOrderService(repo, nil, metrics, log),
		Tokens:  tokens,
		Metrics: metrics,
		DBPing: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Logger: log,
	})
	return app, tokens
}

func do(t *testing.T, app *fiber.App, method, target string, body interface{}, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, data
}

func createOrder(t *testing.T, app *fiber.App, name string, total float64, headers ...string) models.Order {
	t.Helper()
	resp, body := do(t, app, http.MethodPost, "/api/orders", map[string]interface{}{
		"customerName": name,
		"total":        total,
	}, headers...)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created models.Order
	require.NoError(t, json.Unmarshal(body, &created))
	return created
}

func TestOrderEndpoints_CRUD(t *testing.T) {
	app, _ := setupApp(t, "")

	alice := createOrder(t, app, "Alice", 10)
	bob := createOrder(t, app, "Bob", 20)
	assert.NotZero(t, alice.ID)
	assert.Equal(t, models.StatusPending, alice.Status)

	// --- GET /orders ---
	resp, body := do(t, app, http.MethodGet, "/api/orders", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var all []models.Order
	require.NoError(t, json.Unmarshal(body, &all))
	require.Len(t, all, 2)
	assert.Equal(t, alice.ID, all[0].ID)

	// --- GET /orders/:id ---
	resp, body = do(t, app, http.MethodGet, "/api/orders/"+itoa(bob.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Order
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, "Bob", fetched.CustomerName)

	// --- GET /orders/search ---
	resp, body = do(t, app, http.MethodGet, "/api/orders/search?customerName=ali", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var found []models.Order
	require.NoError(t, json.Unmarshal(body, &found))
	require.Len(t, found, 1)
	assert.Equal(t, alice.ID, found[0].ID)

	// --- PUT /orders/:id/status ---
	resp, body = do(t, app, http.MethodPut, "/api/orders/"+itoa(alice.ID)+"/status?status=DELIVERED", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated models.Order
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, models.StatusDelivered, updated.Status)
	assert.Equal(t, alice.ID, updated.ID)

	// --- DELETE /orders/:id ---
	resp, body = do(t, app, http.MethodDelete, "/api/orders/"+itoa(bob.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var deleted models.DeleteResult
	require.NoError(t, json.Unmarshal(body, &deleted))
	assert.Equal(t, models.DeleteResult{ID: bob.ID, Deleted: true}, deleted)

	// Verify deletion
	resp, _ = do(t, app, http.MethodGet, "/api/orders/"+itoa(bob.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOrderEndpoints_Errors(t *testing.T) {
	app, _ := setupApp(t, "")
	alice := createOrder(t, app, "Alice", 10)

	tests := []struct {
		name   string
		method string
		target string
		body   interface{}
		want   int
	}{
		{"get unknown id", http.MethodGet, "/api/orders/999", nil, http.StatusNotFound},
		{"get non-numeric id", http.MethodGet, "/api/orders/abc", nil, http.StatusBadRequest},
		{"search without parameter", http.MethodGet, "/api/orders/search", nil, http.StatusBadRequest},
		{"status missing", http.MethodPut, "/api/orders/" + itoa(alice.ID) + "/status", nil, http.StatusBadRequest},
		{"status unknown", http.MethodPut, "/api/orders/" + itoa(alice.ID) + "/status?status=LOST", nil, http.StatusBadRequest},
		{"status on unknown order", http.MethodPut, "/api/orders/999/status?status=SHIPPED", nil, http.StatusNotFound},
		{"delete unknown", http.MethodDelete, "/api/orders/999", nil, http.StatusNotFound},
		{"create invalid", http.MethodPost, "/api/orders", map[string]interface{}{"customerName": "", "total": -1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, app, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode, string(body))

			var payload map[string]interface{}
			require.NoError(t, json.Unmarshal(body, &payload))
			assert.NotEmpty(t, payload["message"])
		})
	}
}

func TestOrderEndpoints_CreateValidationErrors(t *testing.T) {
	app, _ := setupApp(t, "")

	resp, body := do(t, app, http.MethodPost, "/api/orders", map[string]interface{}{
		"customerName": "Carol",
		"status":       "LOST",
		"total":        5,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "Validation failed", payload.Message)
	assert.Contains(t, payload.Errors, "Status")
}

func TestOrderEndpoints_StatusIdempotent(t *testing.T) {
	app, _ := setupApp(t, "")
	alice := createOrder(t, app, "Alice", 10)

	target := "/api/orders/" + itoa(alice.ID) + "/status?status=SHIPPED"
	_, first := do(t, app, http.MethodPut, target, nil)
	_, second := do(t, app, http.MethodPut, target, nil)

	var a, b models.Order
	require.NoError(t, json.Unmarshal(first, &a))
	require.NoError(t, json.Unmarshal(second, &b))
	assert.Equal(t, a.Status, b.Status)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.Total, b.Total)
}

func TestOrderEndpoints_Auth(t *testing.T) {
	app, tokens := setupApp(t, "test_jwt_secret")

	// Reads stay public.
	resp, _ := do(t, app, http.MethodGet, "/api/orders", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Mutations need a token.
	resp, _ = do(t, app, http.MethodPost, "/api/orders", map[string]interface{}{"customerName": "Eve", "total": 1})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := tokens.IssueToken("ops")
	require.NoError(t, err)
	created := createOrder(t, app, "Eve", 1, "Authorization", "Bearer "+token)

	resp, _ = do(t, app, http.MethodDelete, "/api/orders/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, app, http.MethodDelete, "/api/orders/"+itoa(created.ID), nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	app, _ := setupApp(t, "")

	resp, body := do(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"healthy"`)
	assert.Contains(t, string(body), `"database":"connected"`)

	createOrder(t, app, "Alice", 10)

	resp, body = do(t, app, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `orderdesk_orders_mutations_total{operation="create",outcome="ok"} 1`)
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}
