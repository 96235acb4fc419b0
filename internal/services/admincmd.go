package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/safar-giki/safar-backend/internal/models"
	"github.com/safar-giki/safar-backend/internal/storage"
)

// Admin text commands are parsed once into a typed Command and then
// dispatched, instead of string-matching inside the flow. The grammar:
//
//	fare <destination> <amount>
//	date add <route> <date>
//	return <date> <description...>
//	luggage bags <n> | luggage size <text> | luggage <note...>
//	location <point> <text...>
//	rebuild kb
//	audit
type Command interface {
	commandName() string
}

// FareCommand updates one destination's fare.
type FareCommand struct {
	Destination string
	Amount      int
}

// DateAddCommand opens a new travel date on a route.
type DateAddCommand struct {
	Route string
	Date  string
}

// ReturnCommand updates the return-service date and description.
type ReturnCommand struct {
	Date        string
	Description string
}

// LuggageCommand updates one field of the luggage policy.
type LuggageCommand struct {
	Field string // "bags", "size" or "note"
	Value string
}

// LocationCommand announces or updates one pickup/drop point.
type LocationCommand struct {
	Point string
	Text  string
}

// RebuildKBCommand forces a knowledge base rebuild.
type RebuildKBCommand struct{}

// AuditCommand reads back the audit log.
type AuditCommand struct{}

func (FareCommand) commandName() string      { return "fare" }
func (DateAddCommand) commandName() string   { return "date add" }
func (ReturnCommand) commandName() string    { return "return" }
func (LuggageCommand) commandName() string   { return "luggage" }
func (LocationCommand) commandName() string  { return "location" }
func (RebuildKBCommand) commandName() string { return "rebuild kb" }
func (AuditCommand) commandName() string     { return "audit" }

// InterpretAdminCommand tokenizes one inbound text and returns the
// structured command, or false when the text is not admin syntax.
// Callers gate on sender authorization before acting; unrecognized
// input from anyone falls through to the normal flow.
func InterpretAdminCommand(text string) (Command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, false
	}
	verb := strings.ToLower(fields[0])
	rest := fields[1:]

	switch verb {
	case "fare":
		if len(rest) != 2 {
			return nil, false
		}
		amount, err := strconv.Atoi(rest[1])
		if err != nil || amount <= 0 {
			return nil, false
		}
		return FareCommand{Destination: strings.ToLower(rest[0]), Amount: amount}, true

	case "date":
		if len(rest) != 3 || strings.ToLower(rest[0]) != "add" {
			return nil, false
		}
		return DateAddCommand{Route: strings.ToLower(rest[1]), Date: rest[2]}, true

	case "return":
		if len(rest) < 1 {
			return nil, false
		}
		return ReturnCommand{Date: rest[0], Description: strings.Join(rest[1:], " ")}, true

	case "luggage":
		if len(rest) == 0 {
			return nil, false
		}
		switch strings.ToLower(rest[0]) {
		case "bags":
			if len(rest) != 2 {
				return nil, false
			}
			if _, err := strconv.Atoi(rest[1]); err != nil {
				return nil, false
			}
			return LuggageCommand{Field: "bags", Value: rest[1]}, true
		case "size":
			if len(rest) < 2 {
				return nil, false
			}
			return LuggageCommand{Field: "size", Value: strings.Join(rest[1:], " ")}, true
		default:
			return LuggageCommand{Field: "note", Value: strings.Join(rest, " ")}, true
		}

	case "location":
		if len(rest) < 2 {
			return nil, false
		}
		return LocationCommand{Point: rest[0], Text: strings.Join(rest[1:], " ")}, true

	case "rebuild":
		if len(rest) == 1 && strings.ToLower(rest[0]) == "kb" {
			return RebuildKBCommand{}, true
		}
		return nil, false

	case "audit":
		if len(rest) == 0 {
			return AuditCommand{}, true
		}
		return nil, false
	}

	return nil, false
}

// AdminService authorizes senders and executes parsed admin commands.
type AdminService struct {
	store    storage.Store
	settings *SettingsService
	admins   map[string]bool
}

// NewAdminService creates a new admin service. Admin numbers come from
// the ADMIN_PHONE_NUMBERS environment variable, comma separated.
func NewAdminService(store storage.Store, settings *SettingsService) *AdminService {
	admins := make(map[string]bool)
	for _, number := range strings.Split(os.Getenv("ADMIN_PHONE_NUMBERS"), ",") {
		if digits := phoneDigits(number); digits != "" {
			admins[digits] = true
		}
	}
	return &AdminService{store: store, settings: settings, admins: admins}
}

// phoneDigits strips everything except digits so that
// "whatsapp:+923001234567" and "0300-1234567" compare equal on their
// trailing ten digits.
func phoneDigits(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsAdmin reports whether a sender is in the authorized set. Numbers
// match on their last ten digits, covering +92 vs 0 prefixes.
func (a *AdminService) IsAdmin(sender string) bool {
	digits := phoneDigits(sender)
	if digits == "" {
		return false
	}
	if a.admins[digits] {
		return true
	}
	if len(digits) >= 10 {
		suffix := digits[len(digits)-10:]
		for admin := range a.admins {
			if len(admin) >= 10 && admin[len(admin)-10:] == suffix {
				return true
			}
		}
	}
	return false
}

// Execute runs one parsed command and returns the reply text. Settings
// mutations go through the settings service so they are audited and the
// knowledge base is rebuilt before the reply goes out.
func (a *AdminService) Execute(cmd Command, adminID string) (string, error) {
	switch c := cmd.(type) {
	case FareCommand:
		return a.setFare(c, adminID)
	case DateAddCommand:
		return a.addDate(c, adminID)
	case ReturnCommand:
		return a.setReturn(c, adminID)
	case LuggageCommand:
		return a.setLuggage(c, adminID)
	case LocationCommand:
		return a.setLocation(c, adminID)
	case RebuildKBCommand:
		if err := a.settings.RebuildKB(); err != nil {
			return "", err
		}
		return "✅ Knowledge base rebuilt.", nil
	case AuditCommand:
		return a.auditReport()
	}
	return "", fmt.Errorf("unknown command %q", cmd.commandName())
}

func (a *AdminService) setFare(c FareCommand, adminID string) (string, error) {
	fares := a.settings.Snapshot().Fares
	switch c.Destination {
	case "multan":
		fares.Multan = c.Amount
	case "bahawalpur", "bwp":
		fares.Bahawalpur = c.Amount
	default:
		return fmt.Sprintf("❌ Unknown destination %q. Use multan or bahawalpur.", c.Destination), nil
	}
	if err := a.settings.Put(models.SettingFares, fares, adminID); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Fare for %s updated to Rs. %d.", capitalize(c.Destination), c.Amount), nil
}

func (a *AdminService) addDate(c DateAddCommand, adminID string) (string, error) {
	route, ok := routeAliases[c.Route]
	if !ok {
		return fmt.Sprintf("❌ Unknown route %q. Use multan, bahawalpur or giki.", c.Route), nil
	}

	snap := a.settings.Snapshot()
	destination := strings.TrimPrefix(route, "GIKI-")
	price := snap.FareFor(destination)
	if price == 0 {
		price = snap.Fares.Multan
	}

	trip, err := a.store.CreateTrip(&models.Trip{
		Route:         route,
		TravelDate:    c.Date,
		BusName:       "Safar Express",
		BusType:       "Business Class",
		DepartureTime: "09:00 PM",
		ArrivalTime:   "07:00 AM",
		Price:         price,
		TotalSeats:    45,
		Active:        true,
	})
	if err != nil {
		return "", err
	}

	// Keep the dates setting in step so the FAQ answer mentions the new
	// date. The trip itself drives the booking flow.
	dates := snap.OutboundDates
	dates.Dates = append(dates.Dates, c.Date)
	dates.Description = strings.Join(dates.Dates, ", ")
	if err := a.settings.Put(models.SettingOutboundDates, dates, adminID); err != nil {
		return "", err
	}

	return fmt.Sprintf("✅ Trip added: %s on %s (Rs. %d, %d seats). ID: %s",
		route, c.Date, price, trip.TotalSeats, trip.ID), nil
}

func (a *AdminService) setReturn(c ReturnCommand, adminID string) (string, error) {
	ret := a.settings.Snapshot().ReturnService
	ret.Date = c.Date
	if c.Description != "" {
		ret.Description = c.Description
	} else {
		ret.Description = c.Date + " for both Multan and Bahawalpur"
	}
	if err := a.settings.Put(models.SettingReturnService, ret, adminID); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Return service updated: %s", ret.Description), nil
}

func (a *AdminService) setLuggage(c LuggageCommand, adminID string) (string, error) {
	luggage := a.settings.Snapshot().Luggage
	switch c.Field {
	case "bags":
		n, _ := strconv.Atoi(c.Value)
		luggage.MaxBags = n
	case "size":
		luggage.BagSize = c.Value
	default:
		luggage.Note = c.Value
	}
	if err := a.settings.Put(models.SettingLuggagePolicy, luggage, adminID); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Luggage policy updated: %d %s bags. %s",
		luggage.MaxBags, luggage.BagSize, luggage.Note), nil
}

func (a *AdminService) setLocation(c LocationCommand, adminID string) (string, error) {
	locations := a.settings.Snapshot().Locations
	entry := fmt.Sprintf("%s: %s", capitalize(c.Point), c.Text)

	replaced := false
	prefix := strings.ToLower(c.Point) + ":"
	for i, existing := range locations.Locations {
		if strings.HasPrefix(strings.ToLower(existing), prefix) {
			locations.Locations[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		locations.Locations = append(locations.Locations, entry)
	}
	locations.Status = "confirmed"

	if err := a.settings.Put(models.SettingLocations, locations, adminID); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Location announced: %s", entry), nil
}

func (a *AdminService) auditReport() (string, error) {
	entries, err := a.settings.Audit()
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "📋 Audit log is empty.", nil
	}

	var b strings.Builder
	b.WriteString("📋 *Audit Log* (newest first)\n\n")
	for _, entry := range entries {
		fmt.Fprintf(&b, "• %s | %s | %s\n", entry.Timestamp.Format(time.RFC3339), entry.AdminID, entry.SettingKey)
		old := entry.OldValue
		if old == "" {
			old = "(unset)"
		}
		fmt.Fprintf(&b, "  %s → %s\n", old, entry.NewValue)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// HandleButton executes the admin menu buttons.
func (a *AdminService) HandleButton(buttonID, adminID string) (string, error) {
	switch buttonID {
	case "admin_audit":
		return a.auditReport()
	case "admin_rebuild":
		if err := a.settings.RebuildKB(); err != nil {
			return "", err
		}
		return "✅ Knowledge base rebuilt.", nil
	case "admin_help":
		return adminHelpBody(), nil
	}
	return adminHelpBody(), nil
}
