package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2/google"

	"github.com/VikramTex/filedesk-backend/internal/routes"
	"github.com/VikramTex/filedesk-backend/internal/services"
	"github.com/VikramTex/filedesk-backend/internal/sheets"
	"github.com/VikramTex/filedesk-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - checking environment variables")
	}

	ctx := context.Background()

	// Google credentials - a failure here is fatal. Everything else the
	// bot does degrades per request instead of dying.
	credPath := os.Getenv("GOOGLE_CREDENTIALS_FILE")
	if credPath == "" {
		log.Fatal("GOOGLE_CREDENTIALS_FILE not set")
	}
	credJSON, err := os.ReadFile(credPath)
	if err != nil {
		log.Fatal("Failed to read Google credentials file:", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, credJSON, sheets.Scopes()...)
	if err != nil {
		log.Fatal("Failed to parse Google credentials:", err)
	}

	spreadsheetID := os.Getenv("SPREADSHEET_ID")
	sheetsClient, err := sheets.NewClient(ctx, spreadsheetID, creds.TokenSource)
	if err != nil {
		log.Fatal("Failed to initialize Google Sheets client:", err)
	}
	log.Println("✅ Google Sheets client initialized")

	// Outbound media cache + Twilio transport
	mediaCache := services.NewMediaCache(services.DefaultMediaTTL)
	twilioService, err := services.NewTwilioService(mediaCache)
	if err != nil {
		log.Fatal("Failed to initialize Twilio service:", err)
	}
	log.Println("✅ Twilio service initialized")

	// Session store is memory-resident by design: a session only spans a
	// few conversational turns.
	sessionStore := storage.NewMemorySessionStore(storage.DefaultSessionTTL)

	lookupService := services.NewLookupService(sheetsClient)
	deliveryService := services.NewDelivery(creds.TokenSource, twilioService, os.TempDir())
	conversation := services.NewConversation(sessionStore, lookupService, deliveryService, twilioService)

	log.Println("✅ All services initialized")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "FileDesk Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	routes.SetupRoutes(app, conversation, mediaCache, sessionStore)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		log.Println("\n🛑 Gracefully shutting down...")
		sessionStore.Stop()
		mediaCache.Stop()
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 FileDesk Backend starting on port %s", port)
	log.Printf("📊 Spreadsheet: %s", spreadsheetID)
	log.Printf("📱 WhatsApp from: %s", os.Getenv("TWILIO_WHATSAPP_FROM"))
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}
