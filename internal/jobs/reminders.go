package jobs

import (
	"log"
	"time"

	"github.com/safar-giki/safar-backend/internal/models"
	"github.com/safar-giki/safar-backend/internal/services"
	"github.com/safar-giki/safar-backend/internal/storage"
)

// ReminderInterval is how often pending payments are re-checked.
const ReminderInterval = time.Hour

// PaymentGracePeriod is how long a booking may sit unpaid before the
// first reminder goes out.
const PaymentGracePeriod = 6 * time.Hour

// ReminderJob nudges passengers who booked a seat but never uploaded a
// payment screenshot.
type ReminderJob struct {
	store         storage.Store
	twilioService *services.TwilioService
	payments      *services.PaymentService
	isRunning     bool
	stop          chan struct{}
}

// NewReminderJob creates a new payment reminder job
func NewReminderJob(store storage.Store, twilioService *services.TwilioService, payments *services.PaymentService) *ReminderJob {
	return &ReminderJob{
		store:         store,
		twilioService: twilioService,
		payments:      payments,
		stop:          make(chan struct{}),
	}
}

// Start begins the reminder loop
func (r *ReminderJob) Start() {
	if r.isRunning {
		log.Println("Reminder job already running")
		return
	}
	r.isRunning = true
	log.Println("Starting payment reminder job...")
	go r.run()
}

// Stop halts the reminder loop
func (r *ReminderJob) Stop() {
	if !r.isRunning {
		return
	}
	r.isRunning = false
	close(r.stop)
	log.Println("Stopping payment reminder job...")
}

func (r *ReminderJob) run() {
	ticker := time.NewTicker(ReminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.remindPendingPayments()
		case <-r.stop:
			return
		}
	}
}

func (r *ReminderJob) remindPendingPayments() {
	bookings, err := r.store.GetBookingsByPaymentStatus(models.PaymentStatusPending)
	if err != nil {
		log.Printf("Reminder job: failed to fetch pending bookings: %v", err)
		return
	}

	for _, booking := range bookings {
		// One reminder per booking: only the tick that falls inside the
		// window right after the grace period fires.
		age := time.Since(booking.CreatedAt)
		if age < PaymentGracePeriod || age >= PaymentGracePeriod+ReminderInterval {
			continue
		}
		if booking.Status != models.BookingStatusPending {
			continue
		}

		message := "⏰ *Payment Reminder*\n\nYour booking *" + booking.BookingID +
			"* is still awaiting payment. Your seat is held but not confirmed until the payment is verified."
		if link, err := r.payments.UploadLink(booking.BookingID); err == nil {
			message += "\n\nUpload your screenshot here:\n" + link
		}

		if r.twilioService == nil {
			log.Printf("Reminder for %s not sent - Twilio not configured", booking.BookingID)
			continue
		}
		if err := r.twilioService.SendWhatsAppMessage(booking.UserID, message); err != nil {
			log.Printf("Reminder job: failed to message %s: %v", booking.UserID, err)
		}
	}
}
