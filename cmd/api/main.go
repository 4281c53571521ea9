package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"socksflow_backend/internal/controller"
	"socksflow_backend/internal/middleware"
	"socksflow_backend/internal/model"
	"socksflow_backend/internal/service"
	"socksflow_backend/pkg/config"
	"socksflow_backend/pkg/cron"
	"socksflow_backend/pkg/database"
	"socksflow_backend/pkg/email"
	"socksflow_backend/pkg/payment"
	"socksflow_backend/pkg/utils/jwt"
	"socksflow_backend/pkg/utils/storage"
)

func setupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Auth Routes
	auth := api.Group("/auth")
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)

	// Payment provider callback (unauthenticated, called by the gateway)
	api.Post("/payments/callback", controller.HandlePaymentCallback)

	// Protected Routes
	protected := api.Group("/", middleware.AuthMiddleware())
	protected.Get("/me", controller.GetMe)

	// Settings routes
	settings := api.Group("/settings", middleware.AuthMiddleware())
	settings.Get("/profile", controller.GetProfile)
	settings.Put("/profile", controller.UpdateProfile)
	settings.Put("/password", controller.ChangePassword)
	settings.Post("/avatar", controller.UploadAvatar)
	settings.Delete("/account", controller.DeleteAccount)

	// Subscription routes
	subscriptions := api.Group("/subscriptions")
	subscriptions.Get("/plans", controller.ListPlans)
	subscriptions.Get("/plans/:code/price", controller.GetPlanPrice)

	subProtected := subscriptions.Use(middleware.AuthMiddleware())
	subProtected.Post("/", controller.CreateSubscription)
	subProtected.Get("/my", controller.GetMySubscriptions)
	subProtected.Get("/:id", controller.GetSubscription)
	subProtected.Put("/:id", controller.UpdateSubscription)
	subProtected.Post("/:id/pause", controller.PauseSubscription)
	subProtected.Post("/:id/resume", controller.ResumeSubscription)
	subProtected.Post("/:id/cancel", controller.CancelSubscription)
	subProtected.Post("/:id/renew", controller.RenewSubscription)

	// Order routes
	orders := api.Group("/orders", middleware.AuthMiddleware())
	orders.Get("/", controller.ListMyOrders)
	orders.Get("/:id", controller.GetOrder)
	orders.Post("/:id/cancel", controller.CancelOrder)
	orders.Post("/:id/ship", controller.ShipOrder)
	orders.Post("/:id/deliver", controller.DeliverOrder)

	// Payment routes
	payments := api.Group("/payments", middleware.AuthMiddleware())
	payments.Post("/orders/:order_id/alipay", controller.CreateAlipayPayment)
	payments.Get("/orders/:order_id", controller.ListOrderPayments)
	payments.Get("/:id/status", controller.GetPaymentStatus)
	payments.Post("/:id/refund", controller.RefundPayment)

	// Address routes
	addresses := api.Group("/addresses", middleware.AuthMiddleware())
	addresses.Get("/", controller.ListAddresses)
	addresses.Get("/default", controller.GetDefaultAddress)
	addresses.Post("/", controller.CreateAddress)
	addresses.Put("/:id", controller.UpdateAddress)
	addresses.Put("/:id/default", controller.SetDefaultAddress)
	addresses.Delete("/:id", controller.DeleteAddress)
}

func main() {
	cfg := config.Load()

	jwt.Init(cfg.JWT.Secret)

	if cfg.Email.ResendAPIKey != "" {
		if err := email.InitEmailService(cfg.Email.ResendAPIKey, cfg.Email.From); err != nil {
			log.Fatal("Could not initialize email service:", err)
		}
	} else {
		log.Println("RESEND_API_KEY not set, email sending disabled")
	}

	if err := storage.Init(cfg.Storage); err != nil {
		log.Printf("Storage init warning: %v", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is not set in .env")
	}

	database.InitDB(cfg.Database.URL)
	err := database.MigrateDatabase(
		&model.User{},
		&model.SizeProfile{},
		&model.Subscription{},
		&model.Order{},
		&model.Payment{},
		&model.Address{},
	)
	if err != nil {
		log.Printf("Migration warning: %v", err)
	}

	gateway, err := payment.NewGateway(cfg.Alipay)
	if err != nil {
		log.Fatal("Could not initialize payment gateway:", err)
	}
	if gateway == nil {
		if cfg.Payment.AllowMock {
			log.Println("Alipay not configured, payments run in mock mode")
		} else {
			log.Println("Alipay not configured and mock payments disallowed, payment creation will fail")
		}
	}

	userService := service.NewUserService(database.DB)
	subscriptionService := service.NewSubscriptionService(database.DB)
	orderService := service.NewOrderService(database.DB)
	paymentService := service.NewPaymentService(database.DB, gateway, cfg)
	checkoutService := service.NewCheckoutService(database.DB, subscriptionService, orderService, paymentService)
	addressService := service.NewAddressService(database.DB)

	controller.InitAuthController(userService)
	controller.InitSubscriptionController(subscriptionService, checkoutService)
	controller.InitOrderController(orderService)
	controller.InitPaymentController(paymentService, orderService)
	controller.InitAddressController(addressService)

	cron.InitSubscriptionExpiryCron()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	setupRoutes(app)

	log.Printf("Server is running on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
