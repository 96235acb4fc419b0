package services

import (
	"reflect"
	"strings"
	"testing"

	"github.com/safar-giki/safar-backend/internal/models"
	"github.com/safar-giki/safar-backend/internal/storage"
)

func TestInterpretAdminCommand(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		want       Command
		recognized bool
	}{
		{"fare", "fare multan 3800", FareCommand{Destination: "multan", Amount: 3800}, true},
		{"fare uppercase verb", "FARE Bahawalpur 4500", FareCommand{Destination: "bahawalpur", Amount: 4500}, true},
		{"fare bad amount", "fare multan abc", nil, false},
		{"fare negative", "fare multan -5", nil, false},
		{"fare missing args", "fare multan", nil, false},
		{"date add", "date add multan 2026-01-10", DateAddCommand{Route: "multan", Date: "2026-01-10"}, true},
		{"date without add", "date multan 2026-01-10", nil, false},
		{"return with description", "return 2026-01-18 Sunday evening service", ReturnCommand{Date: "2026-01-18", Description: "Sunday evening service"}, true},
		{"return date only", "return 2026-01-18", ReturnCommand{Date: "2026-01-18"}, true},
		{"luggage bags", "luggage bags 3", LuggageCommand{Field: "bags", Value: "3"}, true},
		{"luggage bags non-numeric", "luggage bags many", nil, false},
		{"luggage size", "luggage size large", LuggageCommand{Field: "size", Value: "large"}, true},
		{"luggage note", "luggage no food in the cabin", LuggageCommand{Field: "note", Value: "no food in the cabin"}, true},
		{"location", "location multan near Chungi No 9", LocationCommand{Point: "multan", Text: "near Chungi No 9"}, true},
		{"rebuild kb", "rebuild kb", RebuildKBCommand{}, true},
		{"rebuild alone", "rebuild", nil, false},
		{"audit", "audit", AuditCommand{}, true},
		{"audit with args", "audit everything", nil, false},
		{"ordinary text", "hello there", nil, false},
		{"empty", "   ", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InterpretAdminCommand(tt.text)
			if ok != tt.recognized {
				t.Fatalf("InterpretAdminCommand(%q) recognized = %v, want %v", tt.text, ok, tt.recognized)
			}
			if tt.recognized && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("InterpretAdminCommand(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}

func newTestAdminService(t *testing.T) (*AdminService, *SettingsService, *storage.MemoryStore) {
	t.Helper()
	t.Setenv("ADMIN_PHONE_NUMBERS", "03111222333, whatsapp:+923334445566")

	store := storage.NewMemoryStore()
	kb := NewKnowledgeBase()
	settings := NewSettingsService(store, kb)
	if err := settings.RebuildKB(); err != nil {
		t.Fatalf("RebuildKB: %v", err)
	}
	return NewAdminService(store, settings), settings, store
}

func TestIsAdmin(t *testing.T) {
	admin, _, _ := newTestAdminService(t)

	tests := []struct {
		sender string
		want   bool
	}{
		{"03111222333", true},
		{"whatsapp:+923111222333", true}, // +92 form of the same number
		{"+923334445566", true},
		{"03001234567", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := admin.IsAdmin(tt.sender); got != tt.want {
			t.Errorf("IsAdmin(%q) = %v, want %v", tt.sender, got, tt.want)
		}
	}
}

func TestExecuteFareCommand(t *testing.T) {
	admin, settings, store := newTestAdminService(t)

	reply, err := admin.Execute(FareCommand{Destination: "multan", Amount: 3800}, "03111222333")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(reply, "3800") {
		t.Errorf("reply = %q", reply)
	}

	if got := settings.Snapshot().Fares.Multan; got != 3800 {
		t.Errorf("fare = %d, want 3800", got)
	}
	// The untouched destination keeps its default.
	if got := settings.Snapshot().Fares.Bahawalpur; got != 4200 {
		t.Errorf("bahawalpur fare = %d, want default 4200", got)
	}

	entries, _ := store.ListAudit()
	if len(entries) != 1 || entries[0].SettingKey != models.SettingFares {
		t.Errorf("audit = %+v", entries)
	}
}

func TestExecuteDateAddCreatesTrip(t *testing.T) {
	admin, settings, store := newTestAdminService(t)

	reply, err := admin.Execute(DateAddCommand{Route: "multan", Date: "2026-01-10"}, "03111222333")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(reply, "2026-01-10") {
		t.Errorf("reply = %q", reply)
	}

	trips, _ := store.GetTripsByRoute("GIKI-Multan")
	if len(trips) != 1 {
		t.Fatalf("trips = %v, want 1", trips)
	}
	if trips[0].TravelDate != "2026-01-10" || trips[0].Price != 3500 {
		t.Errorf("trip = %+v", trips[0])
	}

	// The dates setting follows so the FAQ answer mentions the new date.
	if desc := settings.Snapshot().OutboundDates.Description; !strings.Contains(desc, "2026-01-10") {
		t.Errorf("dates description = %q", desc)
	}
}

func TestExecuteUnknownDestination(t *testing.T) {
	admin, _, store := newTestAdminService(t)

	reply, err := admin.Execute(FareCommand{Destination: "karachi", Amount: 5000}, "03111222333")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(reply, "Unknown destination") {
		t.Errorf("reply = %q", reply)
	}
	if entries, _ := store.ListAudit(); len(entries) != 0 {
		t.Errorf("rejected command still audited: %+v", entries)
	}
}

func TestExecuteLocationReplacesExistingPoint(t *testing.T) {
	admin, settings, _ := newTestAdminService(t)

	if _, err := admin.Execute(LocationCommand{Point: "multan", Text: "Daewoo Terminal"}, "03111222333"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, err := admin.Execute(LocationCommand{Point: "multan", Text: "Chungi No 9"}, "03111222333"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	locations := settings.Snapshot().Locations
	if len(locations.Locations) != 1 {
		t.Fatalf("locations = %v, want the point replaced", locations.Locations)
	}
	if !strings.Contains(locations.Locations[0], "Chungi No 9") {
		t.Errorf("location = %q", locations.Locations[0])
	}
	if locations.Status != "confirmed" {
		t.Errorf("status = %q", locations.Status)
	}
}
