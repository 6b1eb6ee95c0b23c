package repositories

import (
	"context"
	"errors"

	"orderdesk/internal/models"
)

// ErrOrderNotFound is returned when no order has the requested ID.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// GetAll returns every order ordered by ID.
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id uint64) (*models.Order, error)
	// SearchByCustomerName matches name as a case-insensitive substring.
	SearchByCustomerName(ctx context.Context, name string) ([]models.Order, error)
	// Create stores order and assigns its ID and CreatedAt.
	Create(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, id uint64, status models.Status) (*models.Order, error)
	Delete(ctx context.Context, id uint64) error
}
