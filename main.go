package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ordersvc/internal/clients"
	"ordersvc/internal/handlers"
	"ordersvc/internal/middleware"
	"ordersvc/internal/models"
	"ordersvc/internal/notifier"
	"ordersvc/internal/repositories"
	"ordersvc/internal/services"
	"ordersvc/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("USERS_SERVICE_URL", "http://localhost:8081")
	viper.SetDefault("PRODUCTS_SERVICE_URL", "http://localhost:8082")
	viper.SetDefault("JWT_SECRET", "change-me")
	viper.SetDefault("HTTP_CLIENT_TIMEOUT", "5s")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")
	clientTimeout := viper.GetDuration("HTTP_CLIENT_TIMEOUT")
	jwtSecret := []byte(viper.GetString("JWT_SECRET"))

	// --- Order store ---
	var orderRepo repositories.OrderRepository
	if databaseURL := viper.GetString("DATABASE_URL"); databaseURL != "" {
		db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		orderRepo = repositories.NewGORMOrderRepository(db)
	} else {
		log.Println("DATABASE_URL is not set, using in-memory order store")
		orderRepo = repositories.NewInMemoryOrderRepository()
	}

	// --- Notification emitter ---
	var mqClient *rabbitmq.Client
	var orderNotifier notifier.Notifier
	if rabbitMQURL := viper.GetString("RABBITMQ_URL"); rabbitMQURL != "" {
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: rabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		mqClient = client
		defer mqClient.Close()
		orderNotifier = notifier.NewRabbitMQNotifier(mqClient)
	} else {
		log.Println("RABBITMQ_URL is not set, order events will be skipped")
	}

	// --- Remote service clients ---
	identityClient := clients.NewHTTPIdentityClient(viper.GetString("USERS_SERVICE_URL"), clientTimeout)
	catalogClient := clients.NewHTTPCatalogClient(viper.GetString("PRODUCTS_SERVICE_URL"), clientTimeout)

	// --- Services ---
	orderService := services.NewOrderService(orderRepo, identityClient, catalogClient, orderNotifier)
	dashboardService := services.NewDashboardService(orderRepo)

	// --- Handlers ---
	orderHandler := handlers.NewOrderHandler(orderService, dashboardService)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", middleware.MetricsHandler())

	api := app.Group("/api")

	authed := api.Group("", middleware.AuthRequired(jwtSecret))
	orderHandler.RegisterRoutes(authed)

	admin := api.Group("/admin", middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	orderHandler.RegisterAdminRoutes(admin)

	// --- Order events consumer ---
	// Delivery itself is owned by the notification service; this consumer
	// only logs what passes through the queue for operational visibility.
	if mqClient != nil {
		log.Println("Starting RabbitMQ consumer for order events...")
		err := mqClient.ConsumeOrderEvents(func(msg amqp.Delivery) error {
			log.Printf("Order event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
			return nil
		})
		if err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	}

	// --- Start HTTP server ---
	log.Printf("Starting server on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
