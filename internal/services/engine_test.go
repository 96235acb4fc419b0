package services

import (
	"strings"
	"testing"
	"time"

	"github.com/safar-giki/safar-backend/internal/models"
	"github.com/safar-giki/safar-backend/internal/storage"
)

func newTestEngine(t *testing.T, adminNumbers string) (*Engine, *storage.MemoryStore, *models.Trip) {
	t.Helper()
	t.Setenv("PAYMENT_LINK_SECRET", "test-secret")
	t.Setenv("APP_URL", "http://localhost:8080")
	t.Setenv("ADMIN_PHONE_NUMBERS", adminNumbers)

	store := storage.NewMemoryStore()
	trip, err := store.CreateTrip(&models.Trip{
		Route:         "GIKI-Multan",
		TravelDate:    "2026-01-03",
		BusName:       "Safar Express",
		DepartureTime: "09:00 PM",
		ArrivalTime:   "07:00 AM",
		Price:         3500,
		TotalSeats:    10,
	})
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}

	kb := NewKnowledgeBase()
	settings := NewSettingsService(store, kb)
	if err := settings.RebuildKB(); err != nil {
		t.Fatalf("RebuildKB: %v", err)
	}
	sessions := NewSessionManager(store, DefaultSessionTTL)
	admin := NewAdminService(store, settings)
	payments, err := NewPaymentService(store)
	if err != nil {
		t.Fatalf("NewPaymentService: %v", err)
	}

	return NewEngine(store, sessions, settings, kb, admin, payments), store, trip
}

func textEvent(sender, text string) Event {
	return Event{Sender: sender, Kind: EventText, Text: text}
}

func buttonEvent(sender, buttonID string) Event {
	return Event{Sender: sender, Kind: EventButton, ButtonID: buttonID}
}

func sessionState(t *testing.T, store *storage.MemoryStore, userID string) models.ConversationState {
	t.Helper()
	session, err := store.GetSession(userID)
	if err != nil {
		t.Fatalf("GetSession(%s): %v", userID, err)
	}
	return session.State
}

func bodiesContain(instructions []Instruction, want string) bool {
	for _, instruction := range instructions {
		if strings.Contains(instruction.Body, want) {
			return true
		}
	}
	return false
}

const user = "whatsapp:+923001112233"
const userID = "+923001112233"

func TestBookingHappyPath(t *testing.T) {
	engine, store, trip := newTestEngine(t, "")

	engine.HandleEvent(textEvent(user, "hi"))
	if got := sessionState(t, store, userID); got != models.StateRootMenu {
		t.Fatalf("after greeting: state = %s, want %s", got, models.StateRootMenu)
	}

	engine.HandleEvent(buttonEvent(user, "book_seat"))
	if got := sessionState(t, store, userID); got != models.StateBookingSelectRoute {
		t.Fatalf("after book: state = %s", got)
	}

	engine.HandleEvent(textEvent(user, "multan"))
	if got := sessionState(t, store, userID); got != models.StateBookingSelectDate {
		t.Fatalf("after route: state = %s", got)
	}

	engine.HandleEvent(buttonEvent(user, "trip_"+trip.ID))
	if got := sessionState(t, store, userID); got != models.StateBookingEnterName {
		t.Fatalf("after date: state = %s", got)
	}

	engine.HandleEvent(textEvent(user, "Ali Khan"))
	engine.HandleEvent(textEvent(user, "2021234"))
	engine.HandleEvent(textEvent(user, "0300-1234567"))
	if got := sessionState(t, store, userID); got != models.StateBookingSelectSeat {
		t.Fatalf("after phone: state = %s", got)
	}

	out := engine.HandleEvent(textEvent(user, "5"))
	if got := sessionState(t, store, userID); got != models.StateBookingConfirm {
		t.Fatalf("after seat: state = %s", got)
	}
	if !bodiesContain(out, "Booking Summary") {
		t.Errorf("expected booking summary, got %+v", out)
	}

	out = engine.HandleEvent(buttonEvent(user, "confirm_booking"))
	if !bodiesContain(out, "Booking Created") {
		t.Errorf("expected creation message, got %+v", out)
	}
	if got := sessionState(t, store, userID); got != models.StateRootMenu {
		t.Fatalf("after confirm: state = %s", got)
	}

	bookings, err := store.GetBookingsByPhone("03001234567")
	if err != nil || len(bookings) != 1 {
		t.Fatalf("bookings = %v (err %v), want 1", bookings, err)
	}
	booking := bookings[0]
	if booking.Seat != 5 || booking.RegNumber != "2021234" || booking.Amount != 3500 {
		t.Errorf("booking = %+v", booking)
	}
	if !strings.HasPrefix(booking.BookingID, "SFG-") {
		t.Errorf("booking ID = %q", booking.BookingID)
	}

	// The payment link goes out as a document-link instruction.
	foundLink := false
	for _, instruction := range out {
		if instruction.Kind == InstructionDocumentLink && strings.Contains(instruction.URL, "token=") {
			foundLink = true
		}
	}
	if !foundLink {
		t.Errorf("expected a payment upload link, got %+v", out)
	}
}

func TestInvalidRegDoesNotAdvance(t *testing.T) {
	engine, store, trip := newTestEngine(t, "")

	engine.HandleEvent(buttonEvent(user, "book_seat"))
	engine.HandleEvent(textEvent(user, "multan"))
	engine.HandleEvent(buttonEvent(user, "trip_"+trip.ID))
	engine.HandleEvent(textEvent(user, "Ali Khan"))

	out := engine.HandleEvent(textEvent(user, "abc123"))
	if !bodiesContain(out, "Invalid registration") {
		t.Errorf("expected validation message, got %+v", out)
	}
	if got := sessionState(t, store, userID); got != models.StateBookingEnterReg {
		t.Fatalf("state = %s, want %s", got, models.StateBookingEnterReg)
	}

	session, _ := store.GetSession(userID)
	if _, exists := session.Context[ctxReg]; exists {
		t.Errorf("context gained a reg number from invalid input: %v", session.Context)
	}
}

func runToConfirm(t *testing.T, engine *Engine, trip *models.Trip, seat string) {
	t.Helper()
	engine.HandleEvent(buttonEvent(user, "book_seat"))
	engine.HandleEvent(textEvent(user, "multan"))
	engine.HandleEvent(buttonEvent(user, "trip_"+trip.ID))
	engine.HandleEvent(textEvent(user, "Ali Khan"))
	engine.HandleEvent(textEvent(user, "2021234"))
	engine.HandleEvent(textEvent(user, "03001234567"))
	engine.HandleEvent(textEvent(user, seat))
}

func TestReplayedConfirmDoesNotDuplicate(t *testing.T) {
	engine, store, trip := newTestEngine(t, "")

	runToConfirm(t, engine, trip, "5")
	engine.HandleEvent(buttonEvent(user, "confirm_booking"))

	out := engine.HandleEvent(buttonEvent(user, "confirm_booking"))
	if bodiesContain(out, "Booking Created") {
		t.Errorf("replayed confirm created another booking: %+v", out)
	}

	bookings, _ := store.GetBookingsByPhone("03001234567")
	if len(bookings) != 1 {
		t.Fatalf("got %d bookings, want 1", len(bookings))
	}
}

func TestSeatRaceAtConfirm(t *testing.T) {
	engine, store, trip := newTestEngine(t, "")

	runToConfirm(t, engine, trip, "5")

	// Another passenger takes seat 5 between summary and confirm.
	_, err := store.CreateBooking(&models.Booking{
		UserID:         "+923009998877",
		TripID:         trip.ID,
		PassengerPhone: "03009998877",
		Seat:           5,
	})
	if err != nil {
		t.Fatalf("rival booking: %v", err)
	}

	out := engine.HandleEvent(buttonEvent(user, "confirm_booking"))
	if !bodiesContain(out, "not available") {
		t.Errorf("expected seat-taken message, got %+v", out)
	}
	if got := sessionState(t, store, userID); got != models.StateBookingSelectSeat {
		t.Fatalf("state = %s, want reselect seat", got)
	}

	bookings, _ := store.GetBookingsByPhone("03001234567")
	if len(bookings) != 0 {
		t.Fatalf("race produced a double booking: %v", bookings)
	}
}

func TestIdleSessionResets(t *testing.T) {
	engine, store, _ := newTestEngine(t, "")

	stale := models.NewSession(userID)
	stale.State = models.StateBookingEnterName
	stale.Context[ctxRoute] = "GIKI-Multan"
	stale.UpdatedAt = time.Now().Add(-2 * time.Hour)
	if err := store.SaveSession(stale); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	out := engine.HandleEvent(textEvent(user, "Ali Khan"))
	if !bodiesContain(out, "Welcome") {
		t.Errorf("expected main menu after idle reset, got %+v", out)
	}

	session, _ := store.GetSession(userID)
	if session.State != models.StateRootMenu || len(session.Context) != 0 {
		t.Errorf("session = %+v, want clean root", session)
	}
}

func TestUnknownStateResets(t *testing.T) {
	engine, store, _ := newTestEngine(t, "")

	corrupt := models.NewSession(userID)
	corrupt.State = models.ConversationState("waiting_for_godot")
	if err := store.SaveSession(corrupt); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	engine.HandleEvent(textEvent(user, "anything"))
	if got := sessionState(t, store, userID); got != models.StateRootMenu {
		t.Fatalf("state = %s, want root after corruption reset", got)
	}
}

func TestAdminSyntaxFromNonAdminIsUnrecognized(t *testing.T) {
	engine, store, _ := newTestEngine(t, "03111222333")

	out := engine.HandleEvent(textEvent(user, "fare multan 9999"))
	if bodiesContain(out, "updated") {
		t.Errorf("non-admin mutated settings: %+v", out)
	}
	if !bodiesContain(out, "Welcome") {
		t.Errorf("expected the root menu re-presented, got %+v", out)
	}

	if _, err := store.GetSetting(models.SettingFares); err != storage.ErrNotFound {
		t.Errorf("fares setting was written: %v", err)
	}
}

func TestAdminFareCommandUpdatesKB(t *testing.T) {
	engine, store, _ := newTestEngine(t, "03111222333")
	admin := "whatsapp:+923111222333"

	out := engine.HandleEvent(textEvent(admin, "fare multan 3800"))
	if !bodiesContain(out, "3800") {
		t.Errorf("expected confirmation with new fare, got %+v", out)
	}

	// The knowledge base was rebuilt before the reply went out.
	answer, ok := engine.kb.Match("how much is the ticket")
	if !ok || !strings.Contains(answer, "3800") {
		t.Errorf("kb answer = %q (ok=%v), want new fare", answer, ok)
	}

	entries, err := store.ListAudit()
	if err != nil || len(entries) != 1 {
		t.Fatalf("audit = %v (err %v), want 1 entry", entries, err)
	}
	if entries[0].SettingKey != models.SettingFares {
		t.Errorf("audit key = %s", entries[0].SettingKey)
	}
}

func TestFAQFreeform(t *testing.T) {
	engine, _, _ := newTestEngine(t, "")

	engine.HandleEvent(buttonEvent(user, "faq"))
	engine.HandleEvent(buttonEvent(user, "faq_ask"))

	out := engine.HandleEvent(textEvent(user, "how much is the luggage allowance"))
	if !bodiesContain(out, "Luggage Policy") {
		t.Errorf("expected the luggage answer, got %+v", out)
	}

	out = engine.HandleEvent(buttonEvent(user, "faq_ask"))
	out = engine.HandleEvent(textEvent(user, "what time is lunch"))
	if !bodiesContain(out, "couldn't find") {
		t.Errorf("expected the no-match fallback, got %+v", out)
	}
}

func TestDeterministicReplies(t *testing.T) {
	engineA, _, _ := newTestEngine(t, "")
	engineB, _, _ := newTestEngine(t, "")

	script := []Event{
		textEvent(user, "hello"),
		buttonEvent(user, "book_seat"),
		textEvent(user, "multan"),
	}

	for i, ev := range script {
		outA := engineA.HandleEvent(ev)
		outB := engineB.HandleEvent(ev)
		if len(outA) != len(outB) {
			t.Fatalf("step %d: %d vs %d instructions", i, len(outA), len(outB))
		}
		for j := range outA {
			if outA[j].Body != outB[j].Body || outA[j].Kind != outB[j].Kind {
				t.Errorf("step %d instruction %d differs:\n%+v\n%+v", i, j, outA[j], outB[j])
			}
		}
	}
}
