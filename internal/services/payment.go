package services

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/safar-giki/safar-backend/internal/models"
	"github.com/safar-giki/safar-backend/internal/storage"
)

// UploadTokenTTL is how long a payment-upload link stays valid.
const UploadTokenTTL = 48 * time.Hour

// PaymentService issues signed screenshot-upload links and records
// submitted payments against bookings.
type PaymentService struct {
	store  storage.Store
	secret []byte
	appURL string
}

// NewPaymentService creates a new payment service
func NewPaymentService(store storage.Store) (*PaymentService, error) {
	secret := os.Getenv("PAYMENT_LINK_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("missing PAYMENT_LINK_SECRET in environment variables")
	}
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:8080"
	}
	return &PaymentService{store: store, secret: []byte(secret), appURL: appURL}, nil
}

type uploadClaims struct {
	BookingID string `json:"booking_id"`
	jwt.RegisteredClaims
}

// UploadLink returns a signed URL a passenger can open to upload their
// payment screenshot for one booking. The token binds the link to the
// booking and expires after UploadTokenTTL.
func (p *PaymentService) UploadLink(bookingID string) (string, error) {
	claims := uploadClaims{
		BookingID: bookingID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(UploadTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign upload token: %w", err)
	}
	return fmt.Sprintf("%s/payment/upload?token=%s", p.appURL, token), nil
}

// VerifyUploadToken checks a link token and returns the booking it was
// issued for.
func (p *PaymentService) VerifyUploadToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &uploadClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*uploadClaims)
	if !ok || claims.BookingID == "" {
		return "", fmt.Errorf("invalid upload token claims")
	}
	return claims.BookingID, nil
}

// SubmitScreenshot marks a booking's payment as submitted and stores the
// screenshot URL for admin review.
func (p *PaymentService) SubmitScreenshot(bookingID, screenshotURL string) (*models.Booking, error) {
	booking, err := p.store.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}

	booking.ScreenshotURL = screenshotURL
	booking.PaymentStatus = models.PaymentStatusSubmitted
	if err := p.store.UpdateBooking(booking); err != nil {
		return nil, err
	}

	log.Printf("Payment screenshot submitted for booking %s", bookingID)
	return booking, nil
}

// ReviewPayment is the admin decision on a submitted payment. Approving
// confirms the booking; rejecting sends it back to pending payment.
func (p *PaymentService) ReviewPayment(bookingID string, approve bool) (*models.Booking, error) {
	booking, err := p.store.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}

	if approve {
		booking.PaymentStatus = models.PaymentStatusConfirmed
		booking.Status = models.BookingStatusConfirmed
	} else {
		booking.PaymentStatus = models.PaymentStatusRejected
	}
	if err := p.store.UpdateBooking(booking); err != nil {
		return nil, err
	}
	return booking, nil
}
