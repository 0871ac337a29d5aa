package main

import (
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"signhub/config"
	"signhub/middleware"
	"signhub/routes"
	"signhub/utils"
)

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logger
	appLog := logrus.New()
	appLog.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if config.AppConfig.Environment == "production" {
		appLog.SetFormatter(&logrus.JSONFormatter{})
	}

	// Initialize Sentry when a DSN is configured
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			appLog.Warnf("Sentry initialization failed: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		appLog.Fatalf("Failed to connect to database: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024, // uploaded documents
	})

	// Add CORS middleware
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   []string{config.AppConfig.AppURL},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length"},
		MaxAge:           3600,
	}))

	// Blob store for uploaded documents and generated logs, served
	// under /media
	store := utils.NewLocalStore(config.AppConfig.StorageDir, config.AppConfig.MediaBaseURL)
	app.Static("/media", config.AppConfig.StorageDir)

	// SMTP mailer
	mailer := utils.NewSMTPMailer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
		config.AppConfig.FromEmail,
		config.AppConfig.FromName,
	)

	// Setup routes
	routes.SetupRoutes(app, config.DB, appLog, mailer, store,
		config.AppConfig.AppURL, config.AppConfig.StrictBatchDispatch)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	appLog.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		appLog.Fatalf("Failed to start server: %v", err)
	}
}
