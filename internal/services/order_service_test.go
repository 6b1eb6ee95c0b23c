package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"orderdesk/internal/models"
	"orderdesk/internal/repositories"
	"orderdesk/internal/services"
	"orderdesk/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockOrderRepository is a mock implementation of repositories.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uint64) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) SearchByCustomerName(ctx context.Context, name string) ([]models.Order, error) {
	args := m.Called(ctx, name)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uint64, status models.Status) (*models.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func eventOfType(t models.EventType) interface{} {
	return mock.MatchedBy(func(e models.OrderEvent) bool { return e.Type == t && e.EventID != "" })
}

func TestOrderService_GetAllOrders(t *testing.T) {
	repo := new(MockOrderRepository)
	service := services.NewOrderService(repo, nil, nil, zap.NewNop())

	expected := []models.Order{
		{ID: 1, CustomerName: "Alice", Status: models.StatusPending, Total: 10},
		{ID: 2, CustomerName: "Bob", Status: models.StatusShipped, Total: 20},
	}
	repo.On("GetAll", mock.Anything).Return(expected, nil).Once()

	orders, err := service.GetAllOrders(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, expected, orders)
	repo.AssertExpectations(t)
}

func TestOrderService_GetOrderByID(t *testing.T) {
	repo := new(MockOrderRepository)
	service := services.NewOrderService(repo, nil, nil, zap.NewNop())

	expected := &models.Order{ID: 1, CustomerName: "Alice", Status: models.StatusPending, Total: 10}
	repo.On("GetByID", mock.Anything, uint64(1)).Return(expected, nil).Once()
	order, err := service.GetOrderByID(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, expected, order)

	repo.On("GetByID", mock.Anything, uint64(99)).Return(nil, fmt.Errorf("order with ID 99: %w", repositories.ErrOrderNotFound)).Once()
	order, err = service.GetOrderByID(context.Background(), 99)
	assert.ErrorIs(t, err, repositories.ErrOrderNotFound)
	assert.Nil(t, order)
	repo.AssertExpectations(t)
}

func TestOrderService_CreateOrder(t *testing.T) {
	repo := new(MockOrderRepository)
	pub := new(MockPublisher)
	metrics := telemetry.NewMetrics()
	service := services.NewOrderService(repo, pub, metrics, zap.NewNop())

	repo.On("Create", mock.Anything, mock.MatchedBy(func(o *models.Order) bool {
		return o.CustomerName == "Alice" && o.Status == models.StatusPending && o.ID == 0
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Order).ID = 5
	}).Return(nil).Once()
	pub.On("PublishOrderEvent", mock.Anything, eventOfType(models.EventOrderCreated)).Return(nil).Once()

	// ID from the request is ignored, empty status defaults to PENDING.
	created, err := service.CreateOrder(context.Background(), models.Order{ID: 77, CustomerName: "  Alice ", Total: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), created.ID)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.OrderMutations.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("order.created", "ok")))

	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestOrderService_CreateOrder_Invalid(t *testing.T) {
	repo := new(MockOrderRepository)
	service := services.NewOrderService(repo, nil, nil, zap.NewNop())

	_, err := service.CreateOrder(context.Background(), models.Order{CustomerName: "", Status: "LOST", Total: -5})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrInvalidOrder)

	var invalid *services.InvalidOrderError
	require.True(t, errors.As(err, &invalid))
	assert.Contains(t, invalid.Fields, "CustomerName")
	assert.Contains(t, invalid.Fields, "Status")
	assert.Contains(t, invalid.Fields, "Total")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_PublishFailureDoesNotFail(t *testing.T) {
	repo := new(MockOrderRepository)
	pub := new(MockPublisher)
	metrics := telemetry.NewMetrics()
	service := services.NewOrderService(repo, pub, metrics, zap.NewNop())

	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	pub.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	created, err := service.CreateOrder(context.Background(), models.Order{CustomerName: "Bob", Total: 20})
	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("order.created", "error")))
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	repo := new(MockOrderRepository)
	pub := new(MockPublisher)
	service := services.NewOrderService(repo, pub, nil, zap.NewNop())

	updated := &models.Order{ID: 1, CustomerName: "Alice", Status: models.StatusDelivered, Total: 10}
	repo.On("UpdateStatus", mock.Anything, uint64(1), models.StatusDelivered).Return(updated, nil).Once()
	pub.On("PublishOrderEvent", mock.Anything, eventOfType(models.EventOrderStatusUpdated)).Return(nil).Once()

	got, err := service.UpdateOrderStatus(context.Background(), 1, models.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	_, err = service.UpdateOrderStatus(context.Background(), 1, "LOST")
	assert.ErrorIs(t, err, models.ErrInvalidStatus)

	repo.On("UpdateStatus", mock.Anything, uint64(99), models.StatusShipped).
		Return(nil, fmt.Errorf("order with ID 99: %w", repositories.ErrOrderNotFound)).Once()
	_, err = service.UpdateOrderStatus(context.Background(), 99, models.StatusShipped)
	assert.ErrorIs(t, err, repositories.ErrOrderNotFound)

	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestOrderService_DeleteOrder(t *testing.T) {
	repo := new(MockOrderRepository)
	pub := new(MockPublisher)
	service := services.NewOrderService(repo, pub, nil, zap.NewNop())

	existing := &models.Order{ID: 2, CustomerName: "Bob", Status: models.StatusShipped, Total: 20}
	repo.On("GetByID", mock.Anything, uint64(2)).Return(existing, nil).Once()
	repo.On("Delete", mock.Anything, uint64(2)).Return(nil).Once()
	pub.On("PublishOrderEvent", mock.Anything, eventOfType(models.EventOrderDeleted)).Return(nil).Once()

	res, err := service.DeleteOrder(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, &models.DeleteResult{ID: 2, Deleted: true}, res)

	repo.On("GetByID", mock.Anything, uint64(99)).
		Return(nil, fmt.Errorf("order with ID 99: %w", repositories.ErrOrderNotFound)).Once()
	_, err = service.DeleteOrder(context.Background(), 99)
	assert.ErrorIs(t, err, repositories.ErrOrderNotFound)

	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}
