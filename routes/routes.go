package routes

import (
	"os"
	"strings"

	"canteen-bot/constants"
	chatController "canteen-bot/controllers/chat"
	menuController "canteen-bot/controllers/menu"
	orderController "canteen-bot/controllers/order"
	serverController "canteen-bot/controllers/server"
	webhookController "canteen-bot/controllers/webhook"
	"canteen-bot/httpServices/razorpay"
	"canteen-bot/httpServices/telegram"
	"canteen-bot/logger"
	"canteen-bot/middleware"
	menuService "canteen-bot/services/menu"
	"canteen-bot/services/notify"
	"canteen-bot/services/orders"
	"canteen-bot/services/payment"
	"canteen-bot/services/reconciler"
	"canteen-bot/services/router"
	"canteen-bot/services/session"
	"canteen-bot/services/token"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	asyncLogger := logger.NewAsyncLogger(db)
	go asyncLogger.ProcessLog()

	razorpayClient := razorpay.NewClient(os.Getenv("RAZORPAY_KEY_ID"), os.Getenv("RAZORPAY_KEY_SECRET"))
	telegramClient := telegram.NewClient(os.Getenv("TELEGRAM_BOT_TOKEN"))
	dispatcher := notify.NewChatDispatcher(telegramClient)

	sessions := session.NewStore(db)
	menuStore := menuService.NewStore(db)
	tokens := token.NewAssigner()
	orderStore := orders.NewStore(db, tokens)

	paymentAdapter := payment.NewAdapter(orderStore, razorpayClient, os.Getenv("PAYMENT_CALLBACK_URL"))
	recon := reconciler.NewReconciler(
		orderStore,
		sessions,
		dispatcher,
		os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		os.Getenv("OPERATOR_CHAT_ID"),
	)
	convRouter := router.NewRouter(sessions, orderStore, menuStore, paymentAdapter, parseAdminIDs(os.Getenv("ADMIN_CHAT_IDS")))

	chatCtrl := chatController.NewChatController(convRouter, sessions, asyncLogger)
	webhookCtrl := webhookController.NewWebhookController(recon, asyncLogger)
	orderCtrl := orderController.NewOrderController(orderStore, asyncLogger)
	menuCtrl := menuController.NewMenuController(menuStore, asyncLogger)
	serverCtrl := serverController.NewServerController(db)

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	app.Get("/health", serverCtrl.Health)
	app.Get("/order/:id/:pickup_code", orderCtrl.PickupPage)

	api := app.Group("/api")
	api.Post("/chat/event", chatCtrl.HandleEvent)
	api.Post("/webhook/razorpay", webhookCtrl.Handle)
	api.Get("/menu", menuCtrl.List)

	/*=============================================================================
	| Operator Routes
	===============================================================================*/
	admin := api.Group("/admin").Use(middleware.RequirePermissions(constants.PermOperator))
	admin.Get("/orders/today", orderCtrl.Today)
	admin.Get("/orders/stats", orderCtrl.Stats)
	admin.Post("/orders/deliver", orderCtrl.Deliver)
	admin.Post("/menu", menuCtrl.Upsert)
	admin.Put("/menu/price", menuCtrl.UpdatePrice)
	admin.Delete("/menu/:id", menuCtrl.Remove)
	admin.Post("/sessions/sweep", chatCtrl.SweepSessions)
}

// parseAdminIDs splits the comma-separated operator chat allowlist.
func parseAdminIDs(raw string) map[string]bool {
	out := make(map[string]bool)
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			out[id] = true
		}
	}
	return out
}
