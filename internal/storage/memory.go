package storage

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/safar-giki/safar-backend/internal/models"
)

// MemoryStore holds all data in memory for development and tests
type MemoryStore struct {
	sessions map[string]*models.Session
	trips    map[string]*models.Trip
	bookings map[string]*models.Booking
	settings map[string]*models.BusinessSetting
	audit    []*models.AuditEntry
	faqRows  []*models.FAQRow

	// Mutexes for thread safety
	sessionMu sync.RWMutex
	tripMu    sync.RWMutex
	bookingMu sync.RWMutex
	settingMu sync.RWMutex
	auditMu   sync.Mutex
	faqMu     sync.RWMutex

}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
		trips:    make(map[string]*models.Trip),
		bookings: make(map[string]*models.Booking),
		settings: make(map[string]*models.BusinessSetting),
	}
}

// Session operations

func (m *MemoryStore) GetSession(userID string) (*models.Session, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	session, exists := m.sessions[userID]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *session
	copied.Context = make(map[string]string, len(session.Context))
	for k, v := range session.Context {
		copied.Context[k] = v
	}
	return &copied, nil
}

func (m *MemoryStore) SaveSession(session *models.Session) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	copied := *session
	copied.Context = make(map[string]string, len(session.Context))
	for k, v := range session.Context {
		copied.Context[k] = v
	}
	m.sessions[session.UserID] = &copied
	return nil
}

// Trip operations

func (m *MemoryStore) CreateTrip(trip *models.Trip) (*models.Trip, error) {
	m.tripMu.Lock()
	defer m.tripMu.Unlock()

	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	trip.Active = true
	trip.CreatedAt = time.Now()
	trip.UpdatedAt = time.Now()

	m.trips[trip.ID] = trip
	return trip, nil
}

func (m *MemoryStore) GetTrip(id string) (*models.Trip, error) {
	m.tripMu.RLock()
	defer m.tripMu.RUnlock()

	trip, exists := m.trips[id]
	if !exists {
		return nil, ErrNotFound
	}
	return trip, nil
}

func (m *MemoryStore) GetTripsByRoute(route string) ([]*models.Trip, error) {
	m.tripMu.RLock()
	defer m.tripMu.RUnlock()

	var trips []*models.Trip
	for _, trip := range m.trips {
		if trip.Active && strings.EqualFold(trip.Route, route) {
			trips = append(trips, trip)
		}
	}
	sort.Slice(trips, func(i, j int) bool { return trips[i].TravelDate < trips[j].TravelDate })
	return trips, nil
}

func (m *MemoryStore) GetAllTrips() ([]*models.Trip, error) {
	m.tripMu.RLock()
	defer m.tripMu.RUnlock()

	var trips []*models.Trip
	for _, trip := range m.trips {
		if trip.Active {
			trips = append(trips, trip)
		}
	}
	sort.Slice(trips, func(i, j int) bool { return trips[i].TravelDate < trips[j].TravelDate })
	return trips, nil
}

func (m *MemoryStore) UpdateTrip(trip *models.Trip) error {
	m.tripMu.Lock()
	defer m.tripMu.Unlock()

	if _, exists := m.trips[trip.ID]; !exists {
		return ErrNotFound
	}
	trip.UpdatedAt = time.Now()
	m.trips[trip.ID] = trip
	return nil
}

func (m *MemoryStore) AvailableSeats(tripID string) ([]int, error) {
	trip, err := m.GetTrip(tripID)
	if err != nil {
		return nil, err
	}

	m.bookingMu.RLock()
	defer m.bookingMu.RUnlock()
	return m.availableSeatsLocked(trip), nil
}

// availableSeatsLocked requires bookingMu to be held.
func (m *MemoryStore) availableSeatsLocked(trip *models.Trip) []int {
	taken := make(map[int]bool)
	for _, booking := range m.bookings {
		if booking.TripID == trip.ID && booking.Status != models.BookingStatusCancelled {
			taken[booking.Seat] = true
		}
	}

	var seats []int
	for seat := 1; seat <= trip.TotalSeats; seat++ {
		if !taken[seat] {
			seats = append(seats, seat)
		}
	}
	return seats
}

// Booking operations

func (m *MemoryStore) CreateBooking(booking *models.Booking) (*models.Booking, error) {
	trip, err := m.GetTrip(booking.TripID)
	if err != nil {
		return nil, err
	}

	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	// Re-check the seat under the lock so two racing confirmations
	// cannot both take it.
	free := false
	for _, seat := range m.availableSeatsLocked(trip) {
		if seat == booking.Seat {
			free = true
			break
		}
	}
	if !free {
		return nil, ErrSeatTaken
	}

	if booking.BookingID == "" {
		booking.BookingID = NewBookingID()
	}
	booking.Status = models.BookingStatusPending
	booking.PaymentStatus = models.PaymentStatusPending
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()

	m.bookings[booking.BookingID] = booking
	return booking, nil
}

func (m *MemoryStore) GetBooking(bookingID string) (*models.Booking, error) {
	m.bookingMu.RLock()
	defer m.bookingMu.RUnlock()

	booking, exists := m.bookings[bookingID]
	if !exists {
		return nil, ErrNotFound
	}
	return booking, nil
}

func (m *MemoryStore) GetBookingsByPhone(phone string) ([]*models.Booking, error) {
	m.bookingMu.RLock()
	defer m.bookingMu.RUnlock()

	var bookings []*models.Booking
	for _, booking := range m.bookings {
		if booking.PassengerPhone == phone {
			bookings = append(bookings, booking)
		}
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	return bookings, nil
}

func (m *MemoryStore) GetBookingsByPaymentStatus(status string) ([]*models.Booking, error) {
	m.bookingMu.RLock()
	defer m.bookingMu.RUnlock()

	var bookings []*models.Booking
	for _, booking := range m.bookings {
		if booking.PaymentStatus == status {
			bookings = append(bookings, booking)
		}
	}
	return bookings, nil
}

func (m *MemoryStore) UpdateBooking(booking *models.Booking) error {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	if _, exists := m.bookings[booking.BookingID]; !exists {
		return ErrNotFound
	}
	booking.UpdatedAt = time.Now()
	m.bookings[booking.BookingID] = booking
	return nil
}

// Business settings

func (m *MemoryStore) GetSetting(key string) (*models.BusinessSetting, error) {
	m.settingMu.RLock()
	defer m.settingMu.RUnlock()

	setting, exists := m.settings[key]
	if !exists {
		return nil, ErrNotFound
	}
	return setting, nil
}

func (m *MemoryStore) PutSetting(setting *models.BusinessSetting) error {
	m.settingMu.Lock()
	defer m.settingMu.Unlock()

	setting.UpdatedAt = time.Now()
	m.settings[setting.Key] = setting
	return nil
}

func (m *MemoryStore) ListSettings() ([]*models.BusinessSetting, error) {
	m.settingMu.RLock()
	defer m.settingMu.RUnlock()

	var settings []*models.BusinessSetting
	for _, setting := range m.settings {
		settings = append(settings, setting)
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
	return settings, nil
}

// Audit log

func (m *MemoryStore) AppendAudit(entry *models.AuditEntry) error {
	m.auditMu.Lock()
	defer m.auditMu.Unlock()

	m.audit = append(m.audit, entry)
	if len(m.audit) > models.AuditLogSize {
		m.audit = m.audit[len(m.audit)-models.AuditLogSize:]
	}
	return nil
}

func (m *MemoryStore) ListAudit() ([]*models.AuditEntry, error) {
	m.auditMu.Lock()
	defer m.auditMu.Unlock()

	// Newest first
	entries := make([]*models.AuditEntry, 0, len(m.audit))
	for i := len(m.audit) - 1; i >= 0; i-- {
		entries = append(entries, m.audit[i])
	}
	return entries, nil
}

// FAQ rows

func (m *MemoryStore) ListFAQRows() ([]*models.FAQRow, error) {
	m.faqMu.RLock()
	defer m.faqMu.RUnlock()

	var rows []*models.FAQRow
	for _, row := range m.faqRows {
		if row.Active {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (m *MemoryStore) CreateFAQRow(row *models.FAQRow) (*models.FAQRow, error) {
	m.faqMu.Lock()
	defer m.faqMu.Unlock()

	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	row.Active = true
	row.Created = time.Now()
	m.faqRows = append(m.faqRows, row)
	return row, nil
}

// NewBookingID generates a booking reference like SFG-1A2B3C4D.
func NewBookingID() string {
	return "SFG-" + strings.ToUpper(uuid.NewString()[:8])
}
