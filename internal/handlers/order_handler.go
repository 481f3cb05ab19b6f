package handlers

import (
	"errors"
	"fmt"
	"log"

	"ordersvc/internal/apperrors"
	"ordersvc/internal/middleware"
	"ordersvc/internal/models"
	"ordersvc/internal/repositories"
	"ordersvc/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// OrderHandler handles HTTP requests for orders and the admin dashboard.
type OrderHandler struct {
	orderService     *services.OrderService
	dashboardService *services.DashboardService
	validate         *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *services.OrderService, dashboardService *services.DashboardService) *OrderHandler {
	return &OrderHandler{
		orderService:     orderService,
		dashboardService: dashboardService,
		validate:         validator.New(),
	}
}

// RegisterRoutes registers the customer-facing order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", middleware.RecordOperation("create"), h.HandleCreateOrder)
	orderRoutes.Get("/", middleware.RecordOperation("list"), h.HandleGetOwnedOrders)
	orderRoutes.Get("/:id", middleware.RecordOperation("details"), h.HandleGetOrderByID)
}

// RegisterAdminRoutes registers the privileged routes. The caller is
// responsible for guarding the group with the admin middleware.
func (h *OrderHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/orders", middleware.RecordOperation("admin_list"), h.HandleGetAllOrders)
	router.Patch("/orders/:id/status", middleware.RecordOperation("update_status"), h.HandleUpdateOrderStatus)
	router.Get("/dashboard", middleware.RecordOperation("dashboard"), h.HandleGetDashboardStats)
}

// HandleCreateOrder creates a new order for the authenticated caller.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req models.OrderCreateRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create order request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorMessages := make(map[string]string)
			for _, e := range validationErrors {
				errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"errors":  errorMessages,
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	order, err := h.orderService.CreateOrder(c.Context(), &req, c.Get("Authorization"))
	if err != nil {
		return respondError(c, "Could not create order", err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetOwnedOrders lists the caller's own orders, newest first.
func (h *OrderHandler) HandleGetOwnedOrders(c *fiber.Ctx) error {
	page, err := h.orderService.GetOwnedOrders(c.Context(), c.Get("Authorization"), listParams(c))
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	return c.JSON(page)
}

// HandleGetOrderByID retrieves one of the caller's orders.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid order id",
		})
	}

	order, err := h.orderService.GetOrderByID(c.Context(), orderID, c.Get("Authorization"))
	if err != nil {
		return respondError(c, "Could not retrieve order", err)
	}
	return c.JSON(order)
}

// HandleGetAllOrders lists all orders (admin).
func (h *OrderHandler) HandleGetAllOrders(c *fiber.Ctx) error {
	page, err := h.orderService.GetAllOrders(c.Context(), listParams(c))
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	return c.JSON(page)
}

// HandleUpdateOrderStatus moves an order to a new lifecycle status (admin).
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid order id",
		})
	}

	var req models.OrderStatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing status update request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required",
		})
	}

	order, err := h.orderService.UpdateOrderStatus(c.Context(), orderID, req.Status)
	if err != nil {
		return respondError(c, "Could not update order status", err)
	}
	return c.JSON(order)
}

// HandleGetDashboardStats computes the dashboard statistics (admin).
func (h *OrderHandler) HandleGetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.dashboardService.GetDashboardStats(c.Context())
	if err != nil {
		return respondError(c, "Could not compute dashboard stats", err)
	}
	return c.JSON(stats)
}

func orderIDParam(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid order id: %q", c.Params("id"))
	}
	return uint(id), nil
}

func listParams(c *fiber.Ctx) repositories.ListParams {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	size := c.QueryInt("size", defaultPageSize)
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return repositories.ListParams{Page: page, Size: size}
}

// respondError maps an error kind to its HTTP status. Unexpected internal
// failures are logged with full context and reported generically.
func respondError(c *fiber.Ctx, message string, err error) error {
	var status int
	switch {
	case errors.Is(err, apperrors.ErrUnauthenticated):
		status = fiber.StatusUnauthorized
	case errors.Is(err, apperrors.ErrInvalidRequest):
		status = fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidState):
		status = fiber.StatusConflict
	case errors.Is(err, apperrors.ErrDependencyUnavailable):
		status = fiber.StatusServiceUnavailable
	default:
		log.Printf("%s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
