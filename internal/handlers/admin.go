package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/safar-giki/safar-backend/internal/models"
	"github.com/safar-giki/safar-backend/internal/services"
	"github.com/safar-giki/safar-backend/internal/storage"
)

// AdminHandler exposes the settings, trips, payments and FAQ surfaces
// over REST for the admin dashboard. The WhatsApp admin commands cover
// the quick edits; this covers everything else.
type AdminHandler struct {
	store    storage.Store
	settings *services.SettingsService
	payments *services.PaymentService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store storage.Store, settings *services.SettingsService, payments *services.PaymentService) *AdminHandler {
	return &AdminHandler{
		store:    store,
		settings: settings,
		payments: payments,
	}
}

// GetSettings returns the typed snapshot of all business settings
func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":  true,
		"settings": h.settings.Snapshot(),
	})
}

// PutSetting updates one business setting. The body is parsed into the
// typed struct for the key, so malformed values are rejected before they
// reach the store.
func (h *AdminHandler) PutSetting(c *fiber.Ctx) error {
	key := c.Params("key")
	adminID := c.Get("X-Admin-ID", "dashboard")

	var value any
	switch key {
	case models.SettingFares:
		value = &models.Fares{}
	case models.SettingOutboundDates:
		value = &models.OutboundDates{}
	case models.SettingReturnService:
		value = &models.ReturnService{}
	case models.SettingLuggagePolicy:
		value = &models.LuggagePolicy{}
	case models.SettingLocations:
		value = &models.Locations{}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown setting key",
		})
	}

	if err := c.BodyParser(value); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.settings.Put(key, value, adminID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update setting",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"key":     key,
	})
}

// GetAudit returns the bounded audit log, newest first
func (h *AdminHandler) GetAudit(c *fiber.Ctx) error {
	entries, err := h.settings.Audit()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch audit log",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"entries": entries,
		"count":   len(entries),
	})
}

// RebuildKB forces a knowledge base rebuild
func (h *AdminHandler) RebuildKB(c *fiber.Ctx) error {
	if err := h.settings.RebuildKB(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to rebuild knowledge base",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}

// CreateTrip opens a new travel date
func (h *AdminHandler) CreateTrip(c *fiber.Ctx) error {
	var trip models.Trip
	if err := c.BodyParser(&trip); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if trip.Route == "" || trip.TravelDate == "" || trip.TotalSeats <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Route, travel date and total seats are required",
		})
	}
	trip.Active = true

	created, err := h.store.CreateTrip(&trip)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create trip",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"trip":    created,
	})
}

// ListTrips returns all trips with live seat availability
func (h *AdminHandler) ListTrips(c *fiber.Ctx) error {
	trips, err := h.store.GetAllTrips()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch trips",
		})
	}

	type tripStatus struct {
		*models.Trip
		SeatsLeft int `json:"seats_left"`
	}
	statuses := make([]tripStatus, 0, len(trips))
	for _, trip := range trips {
		seats, err := h.store.AvailableSeats(trip.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to fetch seat availability",
			})
		}
		statuses = append(statuses, tripStatus{Trip: trip, SeatsLeft: len(seats)})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"trips":   statuses,
		"count":   len(statuses),
	})
}

// UpdateTrip edits an existing trip
func (h *AdminHandler) UpdateTrip(c *fiber.Ctx) error {
	tripID := c.Params("tripID")

	trip, err := h.store.GetTrip(tripID)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Trip not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch trip",
		})
	}

	if err := c.BodyParser(trip); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	trip.ID = tripID

	if err := h.store.UpdateTrip(trip); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update trip",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"trip":    trip,
	})
}

// ListPayments returns bookings filtered by payment status, defaulting
// to the submitted ones awaiting review
func (h *AdminHandler) ListPayments(c *fiber.Ctx) error {
	status := c.Query("status", models.PaymentStatusSubmitted)

	bookings, err := h.store.GetBookingsByPaymentStatus(status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch bookings",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// ReviewPayment approves or rejects a submitted payment
func (h *AdminHandler) ReviewPayment(c *fiber.Ctx) error {
	bookingID := c.Params("bookingID")

	var req struct {
		Decision string `json:"decision"` // "approved" or "rejected"
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Decision != "approved" && req.Decision != "rejected" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Decision must be 'approved' or 'rejected'",
		})
	}

	booking, err := h.payments.ReviewPayment(bookingID, req.Decision == "approved")
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Booking not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update payment status",
		})
	}

	// Tell the passenger about the decision.
	if twilio := services.GetTwilioService(); twilio != nil {
		message := "✅ Your payment for booking " + booking.BookingID + " has been verified. Your seat is confirmed!"
		if req.Decision == "rejected" {
			message = "❌ Your payment for booking " + booking.BookingID + " could not be verified. Please upload a valid screenshot or contact support."
		}
		if err := twilio.SendWhatsAppMessage(booking.UserID, message); err != nil {
			log.Printf("Failed to notify %s about payment review: %v", booking.UserID, err)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"booking": booking,
	})
}

// CreateFAQRow adds a free-text FAQ entry and rebuilds the index so the
// new answer is matchable immediately
func (h *AdminHandler) CreateFAQRow(c *fiber.Ctx) error {
	var row models.FAQRow
	if err := c.BodyParser(&row); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if row.Answer == "" || len(row.Keywords) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Answer and keywords are required",
		})
	}
	row.Active = true

	created, err := h.store.CreateFAQRow(&row)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create FAQ entry",
		})
	}

	if err := h.settings.RebuildKB(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "FAQ entry created but knowledge base rebuild failed",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"faq":     created,
	})
}
