package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/safar-giki/safar-backend/internal/storage"
)

// BookingHandler handles booking lookup requests. Bookings are created
// through the WhatsApp flow only; REST exposes read access for the
// dashboard and for passengers following their booking ID.
type BookingHandler struct {
	store storage.Store
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(store storage.Store) *BookingHandler {
	return &BookingHandler{
		store: store,
	}
}

// GetBooking returns one booking by its public ID
func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	bookingID := c.Params("bookingID")

	booking, err := h.store.GetBooking(bookingID)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Booking not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch booking",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"booking": booking,
	})
}

// ListBookings returns the bookings for a passenger phone number
func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	phone := c.Query("phone")
	if phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "phone query parameter is required",
		})
	}

	bookings, err := h.store.GetBookingsByPhone(phone)
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
