package storage

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safar-giki/safar-backend/internal/models"
)

// DatabaseStore implements Store on PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a new database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Session operations

func (d *DatabaseStore) GetSession(userID string) (*models.Session, error) {
	var session models.Session
	if err := d.db.First(&session, "user_id = ?", userID).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	if session.Context == nil {
		session.Context = make(map[string]string)
	}
	return &session, nil
}

func (d *DatabaseStore) SaveSession(session *models.Session) error {
	return d.db.Save(session).Error
}

// Trip operations

func (d *DatabaseStore) CreateTrip(trip *models.Trip) (*models.Trip, error) {
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	trip.Active = true
	if err := d.db.Create(trip).Error; err != nil {
		return nil, err
	}
	return trip, nil
}

func (d *DatabaseStore) GetTrip(id string) (*models.Trip, error) {
	var trip models.Trip
	if err := d.db.First(&trip, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &trip, nil
}

func (d *DatabaseStore) GetTripsByRoute(route string) ([]*models.Trip, error) {
	var trips []*models.Trip
	err := d.db.Where("active = ? AND lower(route) = lower(?)", true, route).
		Order("travel_date").Find(&trips).Error
	return trips, err
}

func (d *DatabaseStore) GetAllTrips() ([]*models.Trip, error) {
	var trips []*models.Trip
	err := d.db.Where("active = ?", true).Order("travel_date").Find(&trips).Error
	return trips, err
}

func (d *DatabaseStore) UpdateTrip(trip *models.Trip) error {
	return d.db.Save(trip).Error
}

func (d *DatabaseStore) AvailableSeats(tripID string) ([]int, error) {
	trip, err := d.GetTrip(tripID)
	if err != nil {
		return nil, err
	}

	var takenSeats []int
	err = d.db.Model(&models.Booking{}).
		Where("trip_id = ? AND status <> ?", tripID, models.BookingStatusCancelled).
		Pluck("seat", &takenSeats).Error
	if err != nil {
		return nil, err
	}

	taken := make(map[int]bool, len(takenSeats))
	for _, seat := range takenSeats {
		taken[seat] = true
	}

	var seats []int
	for seat := 1; seat <= trip.TotalSeats; seat++ {
		if !taken[seat] {
			seats = append(seats, seat)
		}
	}
	return seats, nil
}

// Booking operations

func (d *DatabaseStore) CreateBooking(booking *models.Booking) (*models.Booking, error) {
	if booking.BookingID == "" {
		booking.BookingID = NewBookingID()
	}
	booking.Status = models.BookingStatusPending
	booking.PaymentStatus = models.PaymentStatusPending

	// The seat re-check and the insert run in one transaction so two
	// racing confirmations cannot both take the seat.
	err := d.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.Booking{}).
			Where("trip_id = ? AND seat = ? AND status <> ?",
				booking.TripID, booking.Seat, models.BookingStatusCancelled).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrSeatTaken
		}
		return tx.Create(booking).Error
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (d *DatabaseStore) GetBooking(bookingID string) (*models.Booking, error) {
	var booking models.Booking
	if err := d.db.First(&booking, "booking_id = ?", bookingID).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &booking, nil
}

func (d *DatabaseStore) GetBookingsByPhone(phone string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := d.db.Where("passenger_phone = ?", phone).
		Order("created_at DESC").Find(&bookings).Error
	return bookings, err
}

func (d *DatabaseStore) GetBookingsByPaymentStatus(status string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := d.db.Where("payment_status = ?", status).Find(&bookings).Error
	return bookings, err
}

func (d *DatabaseStore) UpdateBooking(booking *models.Booking) error {
	return d.db.Save(booking).Error
}

// Business settings

func (d *DatabaseStore) GetSetting(key string) (*models.BusinessSetting, error) {
	var setting models.BusinessSetting
	if err := d.db.First(&setting, "key = ?", key).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &setting, nil
}

func (d *DatabaseStore) PutSetting(setting *models.BusinessSetting) error {
	setting.UpdatedAt = time.Now()
	return d.db.Save(setting).Error
}

func (d *DatabaseStore) ListSettings() ([]*models.BusinessSetting, error) {
	var settings []*models.BusinessSetting
	err := d.db.Order("key").Find(&settings).Error
	return settings, err
}

// Audit log

func (d *DatabaseStore) AppendAudit(entry *models.AuditEntry) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		// Keep only the newest AuditLogSize rows.
		var keep []uint
		err := tx.Model(&models.AuditEntry{}).
			Order("id DESC").Limit(models.AuditLogSize).Pluck("id", &keep).Error
		if err != nil {
			return err
		}
		return tx.Where("id NOT IN ?", keep).Delete(&models.AuditEntry{}).Error
	})
}

func (d *DatabaseStore) ListAudit() ([]*models.AuditEntry, error) {
	var entries []*models.AuditEntry
	err := d.db.Order("id DESC").Limit(models.AuditLogSize).Find(&entries).Error
	return entries, err
}

// FAQ rows

func (d *DatabaseStore) ListFAQRows() ([]*models.FAQRow, error) {
	var rows []*models.FAQRow
	err := d.db.Where("active = ?", true).Order("created").Find(&rows).Error
	return rows, err
}

func (d *DatabaseStore) CreateFAQRow(row *models.FAQRow) (*models.FAQRow, error) {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	row.Active = true
	if err := d.db.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}
