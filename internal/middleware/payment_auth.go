package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/safar-giki/safar-backend/internal/services"
)

// ValidateUploadToken checks the signed token carried by payment-upload
// links and stashes the booking ID it was issued for in locals. Expired
// or tampered tokens get the same reply so the error reveals nothing.
func ValidateUploadToken(payments *services.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			if auth := c.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing upload token",
			})
		}

		bookingID, err := payments.VerifyUploadToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired upload link",
			})
		}

		c.Locals("bookingID", bookingID)
		return c.Next()
	}
}
