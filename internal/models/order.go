package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Status is the lifecycle state of an order. Any status may be set to any
// other; there are no transition rules.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// ErrInvalidStatus is returned when a value is not one of the known statuses.
var ErrInvalidStatus = errors.New("invalid order status")

// Statuses lists every known status in display order.
func Statuses() []Status {
	return []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus converts a raw value into a Status. Matching is exact after
// trimming and upper-casing, so "shipped" parses as SHIPPED.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// Order represents a customer order.
type Order struct {
	ID           uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	CustomerName string    `json:"customerName" gorm:"column:customer_name;not null;index" validate:"required,max=255"`
	Status       Status    `json:"status" gorm:"type:varchar(20);not null" validate:"required,order_status"`
	Total        float64   `json:"total" gorm:"not null" validate:"gte=0"`
	CreatedAt    time.Time `json:"createdAt" gorm:"column:created_at"`

	// CustomerNameLower is the search key. SQLite's LOWER only folds ASCII,
	// so the column is folded in Go instead.
	CustomerNameLower string `json:"-" gorm:"column:customer_name_lower;not null;default:'';index"`
}

// TableName pins the table to "orders" regardless of naming strategy.
func (Order) TableName() string { return "orders" }

// BeforeSave keeps CustomerNameLower in step with CustomerName.
func (o *Order) BeforeSave(tx *gorm.DB) error {
	o.CustomerNameLower = strings.ToLower(o.CustomerName)
	return nil
}

// DeleteResult is the payload returned after an order is deleted.
type DeleteResult struct {
	ID      uint64 `json:"id"`
	Deleted bool   `json:"deleted"`
}
