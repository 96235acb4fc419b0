package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/safar-giki/safar-backend/internal/services"
)

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	engine        *services.Engine
	twilioService *services.TwilioService
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(engine *services.Engine, twilioService *services.TwilioService) *WhatsAppHandler {
	return &WhatsAppHandler{
		engine:        engine,
		twilioService: twilioService,
	}
}

// TwilioWebhookPayload represents an incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid    string `form:"MessageSid"`
	AccountSid    string `form:"AccountSid"`
	From          string `form:"From"` // WhatsApp number (whatsapp:+923001234567)
	To            string `form:"To"`
	Body          string `form:"Body"`
	ButtonText    string `form:"ButtonText"`
	ButtonPayload string `form:"ButtonPayload"`
	NumMedia      string `form:"NumMedia"`
}

// HandleWebhook processes incoming WhatsApp messages
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	// Status callbacks arrive on the same webhook with no sender body.
	if payload.From == "" || (payload.Body == "" && payload.ButtonPayload == "") {
		return c.SendStatus(fiber.StatusOK)
	}

	log.Printf("📱 WhatsApp message from %s: %q (button=%q)", payload.From, payload.Body, payload.ButtonPayload)

	event := services.Event{
		Sender:   payload.From,
		Kind:     services.EventText,
		Text:     payload.Body,
		ButtonID: payload.ButtonPayload,
	}
	if payload.ButtonPayload != "" {
		event.Kind = services.EventButton
	}

	instructions := h.engine.HandleEvent(event)

	if h.twilioService != nil {
		if err := h.twilioService.DeliverAll(instructions); err != nil {
			log.Printf("❌ Failed to send WhatsApp response: %v", err)
		}
	} else {
		log.Printf("📤 %d replies (not sent - Twilio not configured)", len(instructions))
	}

	// Acknowledge webhook receipt
	return c.SendStatus(fiber.StatusOK)
}

// TestWebhookPayload drives the conversation without Twilio, for development
type TestWebhookPayload struct {
	From     string `json:"from"`
	Message  string `json:"message"`
	ButtonID string `json:"button_id"`
}

// TestWebhook runs one event through the engine and returns the replies
// as JSON instead of sending them.
func (h *WhatsAppHandler) TestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if payload.From == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "from is required",
		})
	}

	event := services.Event{
		Sender:   payload.From,
		Kind:     services.EventText,
		Text:     payload.Message,
		ButtonID: payload.ButtonID,
	}
	if payload.ButtonID != "" {
		event.Kind = services.EventButton
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"instructions": h.engine.HandleEvent(event),
	})
}
