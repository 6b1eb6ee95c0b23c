// Package orderapi is a typed HTTP client for the orders REST API.
package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"orderdesk/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://localhost:8080/api"
	DefaultTimeout = 10 * time.Second

	// maxErrorBody caps how much of an error response is read for its message.
	maxErrorBody = 64 << 10
)

// Client talks to the orders API. It does not retry or cache.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	validate   *validator.Validate
	log        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the per-request timeout of the client's HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a client for the API rooted at baseURL. An empty baseURL
// means DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		validate: models.NewValidator(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// List returns every order in server order.
func (c *Client) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, "list orders", http.MethodGet, "/orders", nil, nil, &orders); err != nil {
		return nil, err
	}
	return nonNil(orders), nil
}

// GetByID returns one order. A missing order yields a ServerError matching
// ErrNotFound.
func (c *Client) GetByID(ctx context.Context, id uint64) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, "get order", http.MethodGet, orderPath(id), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// SearchByCustomer returns the orders whose customer name matches name on the
// server side.
func (c *Client) SearchByCustomer(ctx context.Context, name string) ([]models.Order, error) {
	query := url.Values{"customerName": []string{name}}
	var orders []models.Order
	if err := c.do(ctx, "search orders", http.MethodGet, "/orders/search", query, nil, &orders); err != nil {
		return nil, err
	}
	return nonNil(orders), nil
}

type createRequest struct {
	CustomerName string        `json:"customerName"`
	Status       models.Status `json:"status,omitempty"`
	Total        float64       `json:"total"`
}

// Create stores a new order and returns it with its server-assigned id. The
// order's ID and CreatedAt are ignored; an empty status lets the server
// default it.
func (c *Client) Create(ctx context.Context, order models.Order) (*models.Order, error) {
	const op = "create order"

	var err error
	if order.Status == "" {
		err = c.validate.StructExcept(order, "Status")
	} else {
		err = c.validate.Struct(order)
	}
	if err != nil {
		return nil, &ValidationError{Op: op, Fields: models.ValidationMessages(err), Err: err}
	}

	payload, err := json.Marshal(createRequest{
		CustomerName: order.CustomerName,
		Status:       order.Status,
		Total:        order.Total,
	})
	if err != nil {
		return nil, &ValidationError{Op: op, Err: err}
	}

	var created models.Order
	if err := c.do(ctx, op, http.MethodPost, "/orders", nil, payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateStatus sets the status of an order and returns the updated order.
func (c *Client) UpdateStatus(ctx context.Context, id uint64, status models.Status) (*models.Order, error) {
	const op = "update order status"
	if !status.Valid() {
		return nil, &ValidationError{
			Op:     op,
			Fields: map[string]string{"Status": fmt.Sprintf("%q is not a known status", status)},
			Err:    models.ErrInvalidStatus,
		}
	}

	query := url.Values{"status": []string{string(status)}}
	var updated models.Order
	if err := c.do(ctx, op, http.MethodPut, orderPath(id)+"/status", query, nil, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes an order.
func (c *Client) Delete(ctx context.Context, id uint64) (*models.DeleteResult, error) {
	var res models.DeleteResult
	if err := c.do(ctx, "delete order", http.MethodDelete, orderPath(id), nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// do sends one request and decodes a 2xx JSON body into out. Failures are
// classified into NetworkError, ServerError or ValidationError.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body []byte, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &ValidationError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("request failed", zap.String("op", op), zap.String("request_id", requestID), zap.Error(err))
		return &NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug("request completed",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("url", u),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(resp)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ValidationError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// errorMessage extracts the message of an error body shaped like
// {"message": ..., "error": ...}, falling back to the status text.
func errorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		switch {
		case payload.Message != "" && payload.Error != "":
			return payload.Message + ": " + payload.Error
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && len(text) < 200 {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func orderPath(id uint64) string {
	return "/orders/" + strconv.FormatUint(id, 10)
}

func nonNil(orders []models.Order) []models.Order {
	if orders == nil {
		return []models.Order{}
	}
	return orders
}
