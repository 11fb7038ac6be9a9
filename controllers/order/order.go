package order

import (
	"errors"
	"fmt"
	"strconv"

	"canteen-bot/logger"
	"canteen-bot/services/orders"
	"canteen-bot/types"
	"canteen-bot/types/apperror"
	orderTypes "canteen-bot/types/order"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// OrderController exposes the operator order endpoints and the public pickup
// verification page.
type OrderController struct {
	Orders *orders.Store
	Logger *logger.AsyncLogger
}

func NewOrderController(store *orders.Store, asyncLogger *logger.AsyncLogger) *OrderController {
	return &OrderController{
		Orders: store,
		Logger: asyncLogger,
	}
}

// PickupPage is the public pickup verification view. Unknown order ids and
// wrong codes both return 404 so the URL space cannot be probed.
func (oc *OrderController) PickupPage(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "Order not found",
			Data:    nil,
		})
	}
	code := c.Params("pickup_code")

	ord, err := oc.Orders.GetByPickup(uint(id), code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "Order not found",
			Data:    nil,
		})
	}
	if err != nil {
		logger.Error("Pickup lookup failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to load order",
			Data:    nil,
		})
	}

	lines, err := ord.Lines()
	if err != nil {
		logger.Error("Failed to decode order items", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to load order",
			Data:    nil,
		})
	}

	summary := orderTypes.PickupSummary{
		OrderID:     ord.ID,
		Status:      ord.Status.String(),
		TotalAmount: ord.TotalAmount,
		Items:       make([]orderTypes.PickupLine, 0, len(lines)),
	}
	if ord.ServiceType != nil {
		summary.ServiceType = ord.ServiceType.String()
	}
	if ord.DailyToken != nil {
		summary.DailyToken = *ord.DailyToken
	}
	for _, l := range lines {
		summary.Items = append(summary.Items, orderTypes.PickupLine{
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Order found",
		Data:    summary,
	})
}

// Today lists all orders created since midnight.
func (oc *OrderController) Today(c *fiber.Ctx) error {
	list, err := oc.Orders.TodayOrders()
	if err != nil {
		logger.Error("Failed to list today's orders", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to load orders",
			Data:    nil,
		})
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Orders loaded",
		Data:    list,
	})
}

// Stats returns the aggregated revenue and status counters.
func (oc *OrderController) Stats(c *fiber.Ctx) error {
	stats, err := oc.Orders.Statistics()
	if err != nil {
		logger.Error("Failed to compute order statistics", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to load statistics",
			Data:    nil,
		})
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Statistics loaded",
		Data:    stats,
	})
}

// Deliver marks a paid order as handed over at the counter.
func (oc *OrderController) Deliver(c *fiber.Ctx) error {
	var req orderTypes.DeliverRequest
	if err := c.BodyParser(&req); err != nil || req.OrderID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "order_id is required",
			Data:    nil,
		})
	}

	by := "operator"
	if claims, ok := c.Locals("user").(jwt.MapClaims); ok {
		if username, ok := claims["username"].(string); ok && username != "" {
			by = username
		}
	}

	err := oc.Orders.MarkDelivered(req.OrderID, by)
	var stale *apperror.StaleOrderState
	if errors.As(err, &stale) {
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: fmt.Sprintf("Order %d is %s, not %s", stale.OrderID, stale.Actual, stale.Expected),
			Data:    nil,
		})
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "Order not found",
			Data:    nil,
		})
	}
	if err != nil {
		logger.Error("Failed to mark order delivered", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to update order",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Order delivered",
		Data:    nil,
	})
}
