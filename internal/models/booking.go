package models

import "time"

// Booking represents a confirmed seat reservation
type Booking struct {
	BookingID string `json:"booking_id" gorm:"primaryKey"`
	UserID    string `json:"user_id"` // WhatsApp number that made the booking
	TripID    string `json:"trip_id"`

	Route      string `json:"route"` // e.g. "GIKI-Multan"
	TravelDate string `json:"travel_date"`
	BusName    string `json:"bus_name"`

	// Passenger details collected during the booking flow
	PassengerName  string `json:"passenger_name"`
	RegNumber      string `json:"reg_number"`
	PassengerPhone string `json:"passenger_phone"`
	Seat           int    `json:"seat"`

	Amount int `json:"amount"` // rupees

	Status        string `json:"status"`         // "pending", "confirmed", "cancelled"
	PaymentStatus string `json:"payment_status"` // "pending", "submitted", "confirmed", "rejected"

	// Payment screenshot uploaded through the signed link
	ScreenshotURL string `json:"screenshot_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Booking status constants
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"

	PaymentStatusPending   = "pending"
	PaymentStatusSubmitted = "submitted"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusRejected  = "rejected"
)
