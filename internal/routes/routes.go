package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/VikramTex/filedesk-backend/internal/handlers"
	"github.com/VikramTex/filedesk-backend/internal/middleware"
	"github.com/VikramTex/filedesk-backend/internal/services"
	"github.com/VikramTex/filedesk-backend/internal/storage"
)

// SetupRoutes configures all HTTP routes.
func SetupRoutes(app *fiber.App, conversation *services.Conversation, media *services.MediaCache, sessions storage.SessionStore) {
	whatsapp := handlers.NewWhatsAppHandler(conversation)
	mediaHandler := handlers.NewMediaHandler(media)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "FileDesk Backend",
			"version": "1.0.0",
			"status":  "healthy",
			"endpoints": fiber.Map{
				"health":        "/health",
				"webhook":       "/webhook/whatsapp",
				"test_whatsapp": "/test/whatsapp",
				"media":         "/media/:token",
			},
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":          "healthy",
			"active_sessions": sessions.ActiveCount(),
			"cached_media":    media.Len(),
		})
	})

	// WhatsApp webhook - environment-aware validation
	webhooks := app.Group("/webhook")
	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		log.Println("⚠️  WhatsApp webhook validation DISABLED for development")
		webhooks.Post("/whatsapp", whatsapp.HandleWebhook)
	} else {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(), whatsapp.HandleWebhook)
	}

	// Test endpoint (development only)
	app.Post("/test/whatsapp", whatsapp.HandleTestWebhook)

	// Outbound media served to the transport provider
	app.Get("/media/:token", mediaHandler.ServeMedia)
}
