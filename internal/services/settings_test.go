package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/safar-giki/safar-backend/internal/models"
	"github.com/safar-giki/safar-backend/internal/storage"
)

func newTestSettings(t *testing.T) (*SettingsService, *KnowledgeBase, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	kb := NewKnowledgeBase()
	settings := NewSettingsService(store, kb)
	if err := settings.RebuildKB(); err != nil {
		t.Fatalf("RebuildKB: %v", err)
	}
	return settings, kb, store
}

func TestSnapshotFallsBackToDefaults(t *testing.T) {
	settings, _, _ := newTestSettings(t)

	snap := settings.Snapshot()
	if snap.Fares.Multan != 3500 || snap.Fares.Bahawalpur != 4200 {
		t.Errorf("fares = %+v", snap.Fares)
	}
	if snap.Luggage.MaxBags != 2 {
		t.Errorf("luggage = %+v", snap.Luggage)
	}
}

func TestPutWritesAuditsAndRebuilds(t *testing.T) {
	settings, kb, store := newTestSettings(t)

	err := settings.Put(models.SettingFares, models.Fares{Multan: 3800, Bahawalpur: 4200}, "admin-1")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	if got := settings.Snapshot().Fares.Multan; got != 3800 {
		t.Errorf("fare after put = %d", got)
	}

	// The KB rebuild happened inside Put: a match right after the write
	// already sees the new fare.
	answer, ok := kb.Match("how much is the fare")
	if !ok || !strings.Contains(answer, "3800") {
		t.Errorf("kb answer = %q (ok=%v)", answer, ok)
	}

	entries, _ := store.ListAudit()
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.AdminID != "admin-1" || entry.SettingKey != models.SettingFares {
		t.Errorf("entry = %+v", entry)
	}
	if entry.OldValue != "" {
		t.Errorf("first write should have empty old value, got %q", entry.OldValue)
	}
	if !strings.Contains(entry.NewValue, "3800") {
		t.Errorf("new value = %q", entry.NewValue)
	}
}

func TestSecondPutRecordsOldValue(t *testing.T) {
	settings, _, store := newTestSettings(t)

	if err := settings.Put(models.SettingFares, models.Fares{Multan: 3500, Bahawalpur: 4200}, "admin-1"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := settings.Put(models.SettingFares, models.Fares{Multan: 3800, Bahawalpur: 4200}, "admin-2"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entries, _ := store.ListAudit()
	if len(entries) != 2 {
		t.Fatalf("audit entries = %d", len(entries))
	}
	// Newest first.
	if !strings.Contains(entries[0].OldValue, "3500") || !strings.Contains(entries[0].NewValue, "3800") {
		t.Errorf("newest entry = %+v", entries[0])
	}
}

func TestAuditRingKeepsLastTen(t *testing.T) {
	settings, _, store := newTestSettings(t)

	for i := 0; i < 15; i++ {
		fares := models.Fares{Multan: 3000 + i, Bahawalpur: 4200}
		if err := settings.Put(models.SettingFares, fares, fmt.Sprintf("admin-%d", i)); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}

	entries, err := store.ListAudit()
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(entries) != models.AuditLogSize {
		t.Fatalf("audit entries = %d, want %d", len(entries), models.AuditLogSize)
	}
	// Newest first: the last write is entries[0], the oldest five are gone.
	if entries[0].AdminID != "admin-14" {
		t.Errorf("newest entry by %s, want admin-14", entries[0].AdminID)
	}
	if entries[len(entries)-1].AdminID != "admin-5" {
		t.Errorf("oldest kept entry by %s, want admin-5", entries[len(entries)-1].AdminID)
	}
}

func TestFareFor(t *testing.T) {
	snap := DefaultSettings()

	tests := []struct {
		destination string
		want        int
	}{
		{"multan", 3500},
		{"Multan ", 3500},
		{"bahawalpur", 4200},
		{"karachi", 0},
	}
	for _, tt := range tests {
		if got := snap.FareFor(tt.destination); got != tt.want {
			t.Errorf("FareFor(%q) = %d, want %d", tt.destination, got, tt.want)
		}
	}
}
