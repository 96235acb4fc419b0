package storage

import (
	"errors"
	"sync"

	"github.com/safar-giki/safar-backend/internal/models"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrSeatTaken is returned when a booking is attempted for a seat that is
// no longer available.
var ErrSeatTaken = errors.New("seat already taken")

var (
	storeInstance Store
	storeMu       sync.RWMutex
)

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeMu.Lock()
	defer storeMu.Unlock()
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	storeMu.RLock()
	defer storeMu.RUnlock()
	return storeInstance
}

// Store defines the interface for storage operations
type Store interface {
	// Session operations
	GetSession(userID string) (*models.Session, error)
	SaveSession(session *models.Session) error

	// Trip operations
	CreateTrip(trip *models.Trip) (*models.Trip, error)
	GetTrip(id string) (*models.Trip, error)
	GetTripsByRoute(route string) ([]*models.Trip, error)
	GetAllTrips() ([]*models.Trip, error)
	UpdateTrip(trip *models.Trip) error
	AvailableSeats(tripID string) ([]int, error)

	// Booking operations
	CreateBooking(booking *models.Booking) (*models.Booking, error)
	GetBooking(bookingID string) (*models.Booking, error)
	GetBookingsByPhone(phone string) ([]*models.Booking, error)
	GetBookingsByPaymentStatus(status string) ([]*models.Booking, error)
	UpdateBooking(booking *models.Booking) error

	// Business settings
	GetSetting(key string) (*models.BusinessSetting, error)
	PutSetting(setting *models.BusinessSetting) error
	ListSettings() ([]*models.BusinessSetting, error)

	// Audit log. AppendAudit appends and truncates to the last
	// models.AuditLogSize entries as one atomic step.
	AppendAudit(entry *models.AuditEntry) error
	ListAudit() ([]*models.AuditEntry, error)

	// FAQ rows
	ListFAQRows() ([]*models.FAQRow, error)
	CreateFAQRow(row *models.FAQRow) (*models.FAQRow, error)
}
