package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/maison/internal/config"
	"github.com/example/maison/internal/handlers"
	"github.com/example/maison/internal/middleware"
	"github.com/example/maison/internal/payment"
	"github.com/example/maison/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, gateway payment.Gateway, events *services.EventPublisher) {
	checkoutService := services.NewCheckoutService(db, gateway, events)

	authHandler := handlers.NewAuthHandler(db, cfg)
	catalogHandler := handlers.NewCatalogHandler(db)
	productHandler := handlers.NewProductHandler(db)
	cartHandler := handlers.NewCartHandler(db)
	orderHandler := handlers.NewOrderHandler(db, gateway, events, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	adminOrderHandler := handlers.NewAdminOrderHandler(db, events)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Public catalog
	categories := api.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/:id", catalogHandler.GetCategory)

	products := api.Group("/products")
	products.Get("/", productHandler.ListProducts)
	products.Get("/:id", productHandler.GetProduct)

	// Checkout verification and provider callbacks
	api.Get("/checkout/verify", checkoutHandler.VerifySession)
	api.Post("/checkout/webhook", middleware.WebhookAuthMiddleware(cfg.PaymentWebhookKey), checkoutHandler.Webhook)

	// Authenticated storefront routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	cart := protected.Group("/cart")
	cart.Get("/", cartHandler.ListItems)
	cart.Post("/items", cartHandler.AddItem)
	cart.Put("/items/:productId", cartHandler.UpdateItem)
	cart.Delete("/items/:productId", cartHandler.RemoveItem)
	cart.Delete("/", cartHandler.Clear)

	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)

	// Admin back-office
	admin := protected.Group("/admin", middleware.RequireAdmin(db))

	admin.Post("/categories", catalogHandler.CreateCategory)
	admin.Put("/categories/:id", catalogHandler.UpdateCategory)
	admin.Delete("/categories/:id", catalogHandler.DeleteCategory)

	admin.Post("/products", productHandler.CreateProduct)
	admin.Put("/products/:id", productHandler.UpdateProduct)
	admin.Delete("/products/:id", productHandler.DeleteProduct)

	admin.Get("/orders", adminOrderHandler.ListOrders)
	admin.Get("/orders/:id", adminOrderHandler.GetOrder)
	admin.Put("/orders/:id/status", adminOrderHandler.UpdateStatus)
	admin.Get("/orders/:id/logs", adminOrderHandler.ListLogs)
}
