package server

import (
	"canteen-bot/types"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ServerController answers liveness probes.
type ServerController struct {
	DB *gorm.DB
}

func NewServerController(db *gorm.DB) *ServerController {
	return &ServerController{DB: db}
}

// Health reports whether the service and its database are reachable.
func (sc *ServerController) Health(c *fiber.Ctx) error {
	sqlDB, err := sc.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(types.ApiResponse{
			Status:  fiber.StatusServiceUnavailable,
			Message: "Database unreachable",
			Data:    nil,
		})
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "OK",
		Data:    nil,
	})
}
