package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"orderdesk/internal/models"
	"orderdesk/internal/repositories"
	"orderdesk/internal/telemetry"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ErrInvalidOrder wraps validation failures of a create payload. The
// underlying validator.ValidationErrors stays reachable with errors.As.
var ErrInvalidOrder = errors.New("invalid order")

// EventPublisher delivers order lifecycle events to a broker.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event models.OrderEvent) error
}

// InvalidOrderError carries the field-level reasons for a rejected order.
type InvalidOrderError struct {
	Fields map[string]string
	err    error
}

func (e *InvalidOrderError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidOrder, e.err)
}

func (e *InvalidOrderError) Is(target error) bool { return target == ErrInvalidOrder }

func (e *InvalidOrderError) Unwrap() error { return e.err }

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	publisher EventPublisher // nil disables events
	validate  *validator.Validate
	metrics   *telemetry.Metrics
	log       *zap.Logger
}

// NewOrderService creates a new OrderService. publisher and metrics may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, publisher EventPublisher, metrics *telemetry.Metrics, log *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		publisher: publisher,
		validate:  models.NewValidator(),
		metrics:   metrics,
		log:       log,
	}
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	return s.orderRepo.GetAll(ctx)
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(ctx context.Context, id uint64) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// SearchByCustomerName returns orders whose customer name contains name.
func (s *OrderService) SearchByCustomerName(ctx context.Context, name string) ([]models.Order, error) {
	return s.orderRepo.SearchByCustomerName(ctx, name)
}

// CreateOrder validates and stores a new order. An empty status defaults to
// PENDING; any client-supplied ID or CreatedAt is ignored.
func (s *OrderService) CreateOrder(ctx context.Context, req models.Order) (*models.Order, error) {
	order := models.Order{
		CustomerName: strings.TrimSpace(req.CustomerName),
		Status:       req.Status,
		Total:        req.Total,
	}
	if order.Status == "" {
		order.Status = models.StatusPending
	}

	if err := s.validate.Struct(order); err != nil {
		s.metrics.ObserveMutation("create", err)
		return nil, &InvalidOrderError{Fields: models.ValidationMessages(err), err: err}
	}

	if err := s.orderRepo.Create(ctx, &order); err != nil {
		s.metrics.ObserveMutation("create", err)
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}
	s.metrics.ObserveMutation("create", nil)

	s.log.Info("order created",
		zap.Uint64("order_id", order.ID),
		zap.String("customer_name", order.CustomerName),
		zap.Float64("total", order.Total))
	s.publish(ctx, models.NewOrderEvent(models.EventOrderCreated, order))

	return &order, nil
}

// UpdateOrderStatus sets the status of an existing order and returns it.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uint64, status models.Status) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidStatus, status)
	}

	order, err := s.orderRepo.UpdateStatus(ctx, id, status)
	s.metrics.ObserveMutation("update_status", err)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status for order %d: %w", id, err)
	}

	s.log.Info("order status updated", zap.Uint64("order_id", id), zap.String("status", string(status)))
	s.publish(ctx, models.NewOrderEvent(models.EventOrderStatusUpdated, *order))

	return order, nil
}

// DeleteOrder removes an order, reporting which id was deleted.
func (s *OrderService) DeleteOrder(ctx context.Context, id uint64) (*models.DeleteResult, error) {
	// Fetched first so the event can describe what was removed.
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.metrics.ObserveMutation("delete", err)
		return nil, err
	}

	err = s.orderRepo.Delete(ctx, id)
	s.metrics.ObserveMutation("delete", err)
	if err != nil {
		return nil, fmt.Errorf("failed to delete order %d: %w", id, err)
	}

	s.log.Info("order deleted", zap.Uint64("order_id", id))
	s.publish(ctx, models.NewOrderEvent(models.EventOrderDeleted, *order))

	return &models.DeleteResult{ID: id, Deleted: true}, nil
}

// publish is best effort: a broker failure is logged and counted but never
// fails the mutation that already committed.
func (s *OrderService) publish(ctx context.Context, event models.OrderEvent) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishOrderEvent(ctx, event)
	s.metrics.ObservePublish(string(event.Type), err)
	if err != nil {
		s.log.Warn("failed to publish order event",
			zap.String("event_id", event.EventID),
			zap.String("type", string(event.Type)),
			zap.Uint64("order_id", event.OrderID),
			zap.Error(err))
	}
}
