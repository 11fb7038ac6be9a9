package webhook

import (
	"errors"
	"time"

	"canteen-bot/logger"
	"canteen-bot/services/reconciler"
	"canteen-bot/types"
	"canteen-bot/types/apperror"

	"github.com/gofiber/fiber/v2"
)

// WebhookController receives payment gateway callbacks.
type WebhookController struct {
	Reconciler *reconciler.Reconciler
	Logger     *logger.AsyncLogger
}

func NewWebhookController(r *reconciler.Reconciler, asyncLogger *logger.AsyncLogger) *WebhookController {
	return &WebhookController{
		Reconciler: r,
		Logger:     asyncLogger,
	}
}

// Handle processes one webhook delivery. The gateway retries anything that
// is not a 2xx, so only a bad signature or a genuine internal failure is
// allowed to produce one: unresolvable events are acknowledged with 200 to
// stop the retry loop, and investigated from the logs.
func (wc *WebhookController) Handle(c *fiber.Ctx) error {
	body := c.Body()
	signature := c.Get("X-Razorpay-Signature")

	err := wc.Reconciler.Process(body, signature)

	status := fiber.StatusOK
	message := "Webhook processed"

	switch {
	case err == nil:
		// fallthrough to ack
	case errors.Is(err, apperror.ErrSignatureInvalid):
		logger.Warning("Webhook rejected: invalid signature")
		status = fiber.StatusBadRequest
		message = "Invalid signature"
	case errors.Is(err, apperror.ErrUnresolvableEvent):
		logger.Warning("Webhook acknowledged but unresolvable; manual reconciliation needed")
		message = "Event acknowledged; no matching order"
	default:
		logger.Error("Webhook processing failed", err)
		status = fiber.StatusInternalServerError
		message = "Failed to process webhook"
	}

	wc.Logger.Log(types.LogEntry{
		Method:      c.Method(),
		URL:         c.OriginalURL(),
		RequestBody: string(body),
		StatusCode:  status,
		CreatedAt:   time.Now(),
	})

	return c.Status(status).JSON(types.ApiResponse{
		Status:  status,
		Message: message,
		Data:    nil,
	})
}
