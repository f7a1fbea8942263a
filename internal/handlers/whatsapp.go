package handlers

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/VikramTex/filedesk-backend/internal/services"
)

// WhatsAppHandler handles WhatsApp webhook requests.
type WhatsAppHandler struct {
	conversation *services.Conversation
}

// NewWhatsAppHandler creates a new WhatsApp handler.
func NewWhatsAppHandler(conversation *services.Conversation) *WhatsAppHandler {
	return &WhatsAppHandler{conversation: conversation}
}

// TwilioWebhookPayload represents an incoming WhatsApp message from Twilio.
type TwilioWebhookPayload struct {
	MessageSid string `form:"MessageSid"`
	AccountSid string `form:"AccountSid"`
	From       string `form:"From"` // WhatsApp number (whatsapp:+919876543210)
	To         string `form:"To"`
	Body       string `form:"Body"`
	NumMedia   string `form:"NumMedia"`
}

// HandleWebhook processes incoming WhatsApp messages. Processing runs in
// the background so Twilio gets its acknowledgement before any downloads
// start; a failed request never takes the message loop down.
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	// Status callbacks and media-only events carry no body; skip them.
	if payload.Body != "" && payload.From != "" {
		from := strings.TrimPrefix(payload.From, "whatsapp:")
		go h.conversation.HandleMessage(context.Background(), from, payload.Body)
	}

	return c.SendStatus(fiber.StatusOK)
}

// TestWebhookPayload is the JSON shape of the development test endpoint.
type TestWebhookPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// HandleTestWebhook processes test messages synchronously (development
// only, bypasses Twilio inbound).
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	log.Printf("🧪 Test webhook received from %s: %s", payload.From, payload.Message)
	h.conversation.HandleMessage(c.UserContext(), payload.From, payload.Message)

	return c.JSON(fiber.Map{"success": true})
}
