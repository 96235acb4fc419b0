package models

import "time"

// Business setting keys. Each key holds one independently editable record.
const (
	SettingFares         = "fares"
	SettingOutboundDates = "outbound_dates"
	SettingReturnService = "return_service"
	SettingLuggagePolicy = "luggage_policy"
	SettingLocations     = "pickup_locations"
)

// BusinessSetting is one named configuration record. Value is a JSON
// document whose shape depends on the key.
type BusinessSetting struct {
	Key       string    `json:"key" gorm:"primaryKey"`
	Value     string    `json:"value"` // JSON
	UpdatedBy string    `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fares holds per-destination ticket prices in rupees.
type Fares struct {
	Multan     int `json:"multan"`
	Bahawalpur int `json:"bahawalpur"`
}

// OutboundDates describes when outbound buses run.
type OutboundDates struct {
	Dates       []string `json:"dates"` // YYYY-MM-DD
	Description string   `json:"description"`
}

// ReturnService describes the return leg.
type ReturnService struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

// LuggagePolicy describes what passengers may bring.
type LuggagePolicy struct {
	MaxBags   int    `json:"max_bags"`
	BagSize   string `json:"bag_size"`
	HandCarry bool   `json:"hand_carry"`
	Note      string `json:"note"`
}

// Locations lists pickup/drop points. Status is "tbd" until confirmed.
type Locations struct {
	Status    string   `json:"status"`
	Locations []string `json:"locations"`
	Note      string   `json:"note"`
}

// AuditEntry records one admin settings change. The store keeps only the
// last ten entries.
type AuditEntry struct {
	ID         uint      `json:"-" gorm:"primaryKey"`
	Timestamp  time.Time `json:"timestamp"`
	AdminID    string    `json:"admin_id"`
	SettingKey string    `json:"setting_key"`
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
}

// AuditLogSize bounds the audit ring.
const AuditLogSize = 10
