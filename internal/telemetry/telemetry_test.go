package telemetry_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"orderdesk/internal/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	log, err := telemetry.NewLogger("debug", "console")
	require.NoError(t, err)
	assert.NotNil(t, log)

	_, err = telemetry.NewLogger("loud", "json")
	assert.Error(t, err)

	_, err = telemetry.NewLogger("info", "xml")
	assert.Error(t, err)
}

func TestMetrics_ObserveMutation(t *testing.T) {
	m := telemetry.NewMetrics()
	m.ObserveMutation("delete", nil)
	m.ObserveMutation("delete", errors.New("boom"))
	m.ObserveMutation("delete", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OrderMutations.WithLabelValues("delete", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrderMutations.WithLabelValues("delete", "error")))

	var nilMetrics *telemetry.Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveMutation("create", nil) })
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	m := telemetry.NewMetrics()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "orderdesk_http_request_duration_seconds")
	assert.Contains(t, string(body), `route="/ping"`)
}

func TestSetupTracing_NoEndpoint(t *testing.T) {
	shutdown, err := telemetry.SetupTracing(context.Background(), "test", "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
