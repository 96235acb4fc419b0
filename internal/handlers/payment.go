package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/safar-giki/safar-backend/internal/services"
	"github.com/safar-giki/safar-backend/internal/storage"
)

// PaymentHandler handles the screenshot-upload surface reached through
// the signed links sent after booking. The upload token middleware has
// already verified the link and stashed the booking ID in locals.
type PaymentHandler struct {
	store    storage.Store
	payments *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(store storage.Store, payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		store:    store,
		payments: payments,
	}
}

// GetUploadInfo shows the booking behind an upload link so the page can
// display what the payment is for
func (h *PaymentHandler) GetUploadInfo(c *fiber.Ctx) error {
	bookingID, _ := c.Locals("bookingID").(string)

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
		"success":    true,
		"booking_id": booking.BookingID,
		"route":      booking.Route,
		"date":       booking.TravelDate,
		"seat":       booking.Seat,
		"amount":     booking.Amount,
		"payment":    booking.PaymentStatus,
	})
}

// SubmitScreenshot records the uploaded payment proof against the
// booking and queues it for admin review
func (h *PaymentHandler) SubmitScreenshot(c *fiber.Ctx) error {
	bookingID, _ := c.Locals("bookingID").(string)

	var req struct {
		ScreenshotURL string `json:"screenshot_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.ScreenshotURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "screenshot_url is required",
		})
	}

	booking, err := h.payments.SubmitScreenshot(bookingID, req.ScreenshotURL)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Booking not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record payment",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"booking": booking,
		"message": "Payment submitted for verification. You'll get a WhatsApp confirmation once reviewed.",
	})
}
