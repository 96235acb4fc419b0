package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/safar-giki/safar-backend/internal/models"
	"github.com/safar-giki/safar-backend/internal/storage"
)

// SettingsSnapshot is a typed view of all business settings at one point
// in time. Missing or unreadable records fall back to the launch-season
// defaults, so FAQ answers always have something to say.
type SettingsSnapshot struct {
	Fares         models.Fares
	OutboundDates models.OutboundDates
	ReturnService models.ReturnService
	Luggage       models.LuggagePolicy
	Locations     models.Locations
}

// DefaultSettings returns the fallback values used when a setting has
// never been written.
func DefaultSettings() SettingsSnapshot {
	return SettingsSnapshot{
		Fares: models.Fares{Multan: 3500, Bahawalpur: 4200},
		OutboundDates: models.OutboundDates{
			Dates:       []string{"2026-01-03", "2026-01-04"},
			Description: "Saturday 3rd January 2026 and Sunday 4th January 2026",
		},
		ReturnService: models.ReturnService{
			Date:        "2026-01-18",
			Description: "Sunday 18th January 2026 for both Multan and Bahawalpur",
		},
		Luggage: models.LuggagePolicy{
			MaxBags:   2,
			BagSize:   "medium",
			HandCarry: true,
			Note:      "Large amounts of luggage may need to be adjusted with your seat due to storage constraints.",
		},
		Locations: models.Locations{
			Status: "tbd",
			Note:   "Exact bus locations will be shared closer to travel date.",
		},
	}
}

// SettingsService owns reads and writes of business settings. Every write
// appends to the audit ring and rebuilds the knowledge base before
// returning, so a settings write and the next KB read never disagree.
type SettingsService struct {
	store storage.Store
	kb    *KnowledgeBase
}

// NewSettingsService creates a new settings service
func NewSettingsService(store storage.Store, kb *KnowledgeBase) *SettingsService {
	return &SettingsService{store: store, kb: kb}
}

// Snapshot reads all settings, falling back to defaults per key.
func (s *SettingsService) Snapshot() SettingsSnapshot {
	snap := DefaultSettings()
	readSetting(s.store, models.SettingFares, &snap.Fares)
	readSetting(s.store, models.SettingOutboundDates, &snap.OutboundDates)
	readSetting(s.store, models.SettingReturnService, &snap.ReturnService)
	readSetting(s.store, models.SettingLuggagePolicy, &snap.Luggage)
	readSetting(s.store, models.SettingLocations, &snap.Locations)
	return snap
}

func readSetting(store storage.Store, key string, out any) {
	setting, err := store.GetSetting(key)
	if err != nil {
		return
	}
	if err := json.Unmarshal([]byte(setting.Value), out); err != nil {
		log.Printf("Setting %s has malformed value, using default: %v", key, err)
	}
}

// Put writes one setting, records the change in the audit ring, and
// rebuilds the knowledge base.
func (s *SettingsService) Put(key string, value any, adminID string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal setting %s: %w", key, err)
	}

	oldValue := ""
	if existing, err := s.store.GetSetting(key); err == nil {
		oldValue = existing.Value
	}

	err = s.store.PutSetting(&models.BusinessSetting{
		Key:       key,
		Value:     string(raw),
		UpdatedBy: adminID,
	})
	if err != nil {
		return err
	}

	if err := s.store.AppendAudit(&models.AuditEntry{
		Timestamp:  time.Now(),
		AdminID:    adminID,
		SettingKey: key,
		OldValue:   oldValue,
		NewValue:   string(raw),
	}); err != nil {
		log.Printf("Failed to append audit entry for %s: %v", key, err)
	}

	return s.RebuildKB()
}

// RebuildKB rebuilds the knowledge base index from the current settings
// and FAQ rows and swaps it in atomically.
func (s *SettingsService) RebuildKB() error {
	rows, err := s.store.ListFAQRows()
	if err != nil {
		return fmt.Errorf("list faq rows: %w", err)
	}
	s.kb.Swap(BuildIndex(s.Snapshot(), rows))
	return nil
}

// Audit returns the bounded audit log, newest first.
func (s *SettingsService) Audit() ([]*models.AuditEntry, error) {
	return s.store.ListAudit()
}

// FareFor returns the fare in rupees for a destination city, or 0 when
// the destination is unknown.
func (snap SettingsSnapshot) FareFor(destination string) int {
	switch normalizeCity(destination) {
	case "multan":
		return snap.Fares.Multan
	case "bahawalpur":
		return snap.Fares.Bahawalpur
	}
	return 0
}
