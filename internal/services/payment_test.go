package services

import (
	"net/url"
	"strings"
	"testing"

	"github.com/safar-giki/safar-backend/internal/models"
	"github.com/safar-giki/safar-backend/internal/storage"
)

func newTestPayments(t *testing.T) (*PaymentService, *storage.MemoryStore) {
	t.Helper()
	t.Setenv("PAYMENT_LINK_SECRET", "test-secret")
	t.Setenv("APP_URL", "https://safar.example.com")

	store := storage.NewMemoryStore()
	payments, err := NewPaymentService(store)
	if err != nil {
		t.Fatalf("NewPaymentService: %v", err)
	}
	return payments, store
}

func TestUploadLinkRoundTrip(t *testing.T) {
	payments, _ := newTestPayments(t)

	link, err := payments.UploadLink("SFG-DEADBEEF")
	if err != nil {
		t.Fatalf("UploadLink: %v", err)
	}
	if !strings.HasPrefix(link, "https://safar.example.com/payment/upload?token=") {
		t.Fatalf("link = %q", link)
	}

	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	token := parsed.Query().Get("token")

	bookingID, err := payments.VerifyUploadToken(token)
	if err != nil {
		t.Fatalf("VerifyUploadToken: %v", err)
	}
	if bookingID != "SFG-DEADBEEF" {
		t.Errorf("bookingID = %q", bookingID)
	}
}

func TestVerifyUploadTokenRejectsTampering(t *testing.T) {
	payments, _ := newTestPayments(t)

	link, _ := payments.UploadLink("SFG-DEADBEEF")
	parsed, _ := url.Parse(link)
	token := parsed.Query().Get("token")

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"flipped payload byte", token[:len(token)/2] + "x" + token[len(token)/2+1:]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := payments.VerifyUploadToken(tt.token); err == nil {
				t.Error("tampered token verified")
			}
		})
	}
}

func TestSubmitScreenshotAndReview(t *testing.T) {
	payments, store := newTestPayments(t)

	trip, _ := store.CreateTrip(&models.Trip{Route: "GIKI-Multan", TravelDate: "2026-01-03", TotalSeats: 4, Price: 3500})
	booking, err := store.CreateBooking(&models.Booking{UserID: "+923001112233", TripID: trip.ID, Seat: 1})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	updated, err := payments.SubmitScreenshot(booking.BookingID, "https://cdn.example.com/shot.png")
	if err != nil {
		t.Fatalf("SubmitScreenshot: %v", err)
	}
	if updated.PaymentStatus != models.PaymentStatusSubmitted || updated.ScreenshotURL == "" {
		t.Errorf("booking after submit = %+v", updated)
	}

	approved, err := payments.ReviewPayment(booking.BookingID, true)
	if err != nil {
		t.Fatalf("ReviewPayment: %v", err)
	}
	if approved.PaymentStatus != models.PaymentStatusConfirmed || approved.Status != models.BookingStatusConfirmed {
		t.Errorf("booking after approval = %+v", approved)
	}
}

func TestReviewPaymentRejection(t *testing.T) {
	payments, store := newTestPayments(t)

	trip, _ := store.CreateTrip(&models.Trip{Route: "GIKI-Multan", TravelDate: "2026-01-03", TotalSeats: 4, Price: 3500})
	booking, _ := store.CreateBooking(&models.Booking{UserID: "+923001112233", TripID: trip.ID, Seat: 1})
	_, _ = payments.SubmitScreenshot(booking.BookingID, "https://cdn.example.com/shot.png")

	rejected, err := payments.ReviewPayment(booking.BookingID, false)
	if err != nil {
		t.Fatalf("ReviewPayment: %v", err)
	}
	if rejected.PaymentStatus != models.PaymentStatusRejected {
		t.Errorf("payment status = %s", rejected.PaymentStatus)
	}
	// The seat stays held: the booking itself is still pending, not
	// cancelled.
	if rejected.Status != models.BookingStatusPending {
		t.Errorf("booking status = %s", rejected.Status)
	}
}
