package menu

import (
	"errors"
	"strconv"

	"canteen-bot/logger"
	menuService "canteen-bot/services/menu"
	"canteen-bot/types"
	menuTypes "canteen-bot/types/menu"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// MenuController exposes catalog management over HTTP, mirroring the
// operator chat commands.
type MenuController struct {
	Menu   *menuService.Store
	Logger *logger.AsyncLogger
}

func NewMenuController(store *menuService.Store, asyncLogger *logger.AsyncLogger) *MenuController {
	return &MenuController{
		Menu:   store,
		Logger: asyncLogger,
	}
}

// List returns the available catalog.
func (mc *MenuController) List(c *fiber.Ctx) error {
	items, err := mc.Menu.Available()
	if err != nil {
		logger.Error("Failed to list menu", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to load menu",
			Data:    nil,
		})
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Menu loaded",
		Data:    items,
	})
}

// Upsert adds a new item or refreshes an existing one by name.
func (mc *MenuController) Upsert(c *fiber.Ctx) error {
	var req menuTypes.UpsertRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}
	if req.Name == "" || req.Price <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "name and a positive price are required",
			Data:    nil,
		})
	}
	if req.Section == "" {
		req.Section = "general"
	}

	item, created, err := mc.Menu.Upsert(req.Name, req.Price, req.Section)
	if err != nil {
		logger.Error("Menu upsert failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to save item",
			Data:    nil,
		})
	}

	status := fiber.StatusOK
	message := "Item updated"
	if created {
		status = fiber.StatusCreated
		message = "Item added"
	}
	return c.Status(status).JSON(types.ApiResponse{
		Status:  status,
		Message: message,
		Data:    item,
	})
}

// UpdatePrice changes an item's price by id.
func (mc *MenuController) UpdatePrice(c *fiber.Ctx) error {
	var req menuTypes.PriceUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}
	if req.ItemID == 0 || req.Price <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "item_id and a positive price are required",
			Data:    nil,
		})
	}

	item, err := mc.Menu.UpdatePrice(req.ItemID, req.Price)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "Item not found",
			Data:    nil,
		})
	}
	if err != nil {
		logger.Error("Menu price update failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to update item",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Price updated",
		Data:    item,
	})
}

// Remove hides an item from the catalog.
func (mc *MenuController) Remove(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid item id",
			Data:    nil,
		})
	}

	item, err := mc.Menu.Remove(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "Item not found",
			Data:    nil,
		})
	}
	if err != nil {
		logger.Error("Menu removal failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to remove item",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Item removed",
		Data:    item,
	})
}
