package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"orderdesk/internal/models"
	"orderdesk/internal/repositories"
	"orderdesk/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
	log     *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes registers the order routes. guard wraps the mutating
// routes; reads stay public.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	// Registered before /:id so "search" is not taken for an id.
	orderRoutes.Get("/search", h.HandleSearchOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", guard, h.HandleCreateOrder)
	orderRoutes.Put("/:id/status", guard, h.HandleUpdateOrderStatus)
	orderRoutes.Delete("/:id", guard, h.HandleDeleteOrder)
}

// HandleGetOrders retrieves all orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders(c.UserContext())
	if err != nil {
		h.log.Error("error getting all orders", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleSearchOrders retrieves orders whose customer name contains the
// customerName query parameter.
func (h *OrderHandler) HandleSearchOrders(c *fiber.Ctx) error {
	name, ok := queryValue(c, "customerName")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Query parameter customerName is required",
		})
	}

	orders, err := h.service.SearchByCustomerName(c.UserContext(), name)
	if err != nil {
		h.log.Error("error searching orders", zap.String("customer_name", name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not search orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	id, err := orderID(c)
	if err != nil {
		return badID(c, err)
	}

	order, err := h.service.GetOrderByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return notFound(c, id)
		}
		h.log.Error("error getting order by id", zap.Uint64("order_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}

// HandleCreateOrder creates a new order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var orderRequest models.Order
	if err := c.BodyParser(&orderRequest); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	created, err := h.service.CreateOrder(c.UserContext(), orderRequest)
	if err != nil {
		var invalid *services.InvalidOrderError
		if errors.As(err, &invalid) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"errors":  invalid.Fields,
			})
		}
		h.log.Error("error creating order", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create order",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// HandleUpdateOrderStatus sets the status given in the status query
// parameter. The request body is ignored.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	id, err := orderID(c)
	if err != nil {
		return badID(c, err)
	}

	status, err := models.ParseStatus(c.Query("status"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Query parameter status must be one of PENDING, PROCESSING, SHIPPED, DELIVERED, CANCELLED",
			"error":   err.Error(),
		})
	}

	updated, err := h.service.UpdateOrderStatus(c.UserContext(), id, status)
	if err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return notFound(c, id)
		}
		h.log.Error("error updating order status", zap.Uint64("order_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update order status",
			"error":   err.Error(),
		})
	}
	return c.JSON(updated)
}

// HandleDeleteOrder deletes an order.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	id, err := orderID(c)
	if err != nil {
		return badID(c, err)
	}

	res, err := h.service.DeleteOrder(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return notFound(c, id)
		}
		h.log.Error("error deleting order", zap.Uint64("order_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete order",
			"error":   err.Error(),
		})
	}
	return c.JSON(res)
}

func orderID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}

// queryValue distinguishes a missing parameter from an empty one.
func queryValue(c *fiber.Ctx, key string) (string, bool) {
	if !c.Context().QueryArgs().Has(key) {
		return "", false
	}
	return c.Query(key), true
}

func badID(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": fmt.Sprintf("Invalid order ID %q", c.Params("id")),
		"error":   err.Error(),
	})
}

func notFound(c *fiber.Ctx, id uint64) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message": fmt.Sprintf("Order with ID %d not found", id),
	})
}
