package chat

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"canteen-bot/logger"
	"canteen-bot/services/router"
	"canteen-bot/services/session"
	"canteen-bot/types"
	"canteen-bot/types/apperror"
	chatTypes "canteen-bot/types/chat"

	"github.com/gofiber/fiber/v2"
)

// ChatController bridges the messaging transport to the conversation router.
type ChatController struct {
	Router   *router.Router
	Sessions *session.Store
	Logger   *logger.AsyncLogger
}

func NewChatController(r *router.Router, sessions *session.Store, asyncLogger *logger.AsyncLogger) *ChatController {
	return &ChatController{
		Router:   r,
		Sessions: sessions,
		Logger:   asyncLogger,
	}
}

// HandleEvent accepts one classified inbound event and returns the router's
// reply. An illegal event is still a 200: the rejection prompt is itself the
// answer the transport should show the customer.
func (cc *ChatController) HandleEvent(c *fiber.Ctx) error {
	var ev chatTypes.Event
	if err := c.BodyParser(&ev); err != nil {
		logger.Error("Failed to parse chat event body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}
	if ev.CustomerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "customer_id is required",
			Data:    nil,
		})
	}

	reply, err := cc.Router.Handle(ev)

	var rejected *apperror.RejectedTransition
	if errors.As(err, &rejected) {
		logger.Warning(fmt.Sprintf("Rejected chat event from %s: %v", ev.CustomerID, rejected))
		cc.Logger.Log(types.LogEntry{
			Method:      c.Method(),
			URL:         c.OriginalURL(),
			RequestBody: string(c.Body()),
			StatusCode:  fiber.StatusOK,
			CreatedAt:   time.Now(),
		})
		return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
			Status:  fiber.StatusOK,
			Message: "Event rejected",
			Data:    reply,
		})
	}
	if err != nil {
		logger.Error(fmt.Sprintf("Chat event from %s failed", ev.CustomerID), err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to process event",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Event processed",
		Data:    reply,
	})
}

// SweepSessions removes conversational state idle longer than the given
// window (hours, default 24). Orders are untouched.
func (cc *ChatController) SweepSessions(c *fiber.Ctx) error {
	hours, err := strconv.Atoi(c.Query("hours", "24"))
	if err != nil || hours <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "hours must be a positive integer",
			Data:    nil,
		})
	}

	removed, err := cc.Sessions.SweepIdle(time.Duration(hours) * time.Hour)
	if err != nil {
		logger.Error("Session sweep failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to sweep sessions",
			Data:    nil,
		})
	}

	logger.Info(fmt.Sprintf("Swept %d idle sessions", removed))
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Sessions swept",
		Data:    fiber.Map{"removed": removed},
	})
}
