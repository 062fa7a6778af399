package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/maison/internal/config"
	"github.com/example/maison/internal/database"
	"github.com/example/maison/internal/payment"
	"github.com/example/maison/internal/routes"
	"github.com/example/maison/internal/services"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	gateway := payment.NewGateway(cfg.PaymentAPIURL, cfg.PaymentAPIKey)

	events := services.NewEventPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
	if events == nil {
		log.Print("KAFKA_BROKERS not set, order events disabled")
	}
	defer events.Close()

	app := fiber.New(fiber.Config{
		AppName: "Maison Backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, db, cfg, gateway, events)

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
