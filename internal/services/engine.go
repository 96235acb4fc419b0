package services

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/safar-giki/safar-backend/internal/models"
	"github.com/safar-giki/safar-backend/internal/storage"
)

// EventKind distinguishes free text from button taps.
type EventKind string

const (
	EventText   EventKind = "text"
	EventButton EventKind = "button_reply"
)

// Event is one inbound message delivered by the webhook.
type Event struct {
	Sender   string
	Kind     EventKind
	Text     string
	ButtonID string
}

// InstructionKind is the shape of an outbound reply.
type InstructionKind string

const (
	InstructionText         InstructionKind = "text"
	InstructionButtonMenu   InstructionKind = "button_menu"
	InstructionDocumentLink InstructionKind = "document_link"
)

// Button is one tappable option in a button menu.
type Button struct {
	ID    string
	Title string
}

// Instruction is one outbound message handed verbatim to the transport.
type Instruction struct {
	Recipient string
	Kind      InstructionKind
	Body      string
	Buttons   []Button
	URL       string
}

// Context keys accumulated during the booking flow.
const (
	ctxRoute      = "route"
	ctxTripID     = "trip_id"
	ctxTravelDate = "travel_date"
	ctxBusName    = "bus_name"
	ctxName       = "passenger_name"
	ctxReg        = "reg_number"
	ctxPhone      = "passenger_phone"
	ctxSeat       = "seat"
	ctxAmount     = "amount"
)

var (
	regNumberPattern = regexp.MustCompile(`^20\d{5}$`)
	phonePattern     = regexp.MustCompile(`^03\d{9}$`)
)

// Engine advances one user's conversation per inbound event. It decides
// the next state, requests storage reads/writes, and emits outbound
// instructions; it performs no network I/O itself.
type Engine struct {
	store    storage.Store
	sessions *SessionManager
	settings *SettingsService
	kb       *KnowledgeBase
	admin    *AdminService
	payments *PaymentService
}

// NewEngine creates a new conversation engine
func NewEngine(
	store storage.Store,
	sessions *SessionManager,
	settings *SettingsService,
	kb *KnowledgeBase,
	admin *AdminService,
	payments *PaymentService,
) *Engine {
	return &Engine{
		store:    store,
		sessions: sessions,
		settings: settings,
		kb:       kb,
		admin:    admin,
		payments: payments,
	}
}

// HandleEvent processes one inbound event under the sender's session
// lock. A transient storage failure leaves the session untouched and
// replies with a generic retry message, so the user's next message
// retries the same step.
func (e *Engine) HandleEvent(ev Event) []Instruction {
	ev.Sender = strings.TrimPrefix(ev.Sender, "whatsapp:")

	var out []Instruction
	err := e.sessions.With(ev.Sender, func(session *models.Session) error {
		instructions, err := e.transition(session, ev)
		if err != nil {
			return err
		}
		out = instructions
		return nil
	})
	if err != nil {
		log.Printf("Event from %s failed: %v", ev.Sender, err)
		return []Instruction{textTo(ev.Sender, tryAgainBody())}
	}
	return out
}

// transition advances the state machine for one event. Returning an
// error means "transient failure": the session is not saved.
func (e *Engine) transition(session *models.Session, ev Event) ([]Instruction, error) {
	text := strings.ToLower(strings.TrimSpace(ev.Text))

	// Admin branch. Unauthorized senders never reach it, so admin syntax
	// from an ordinary user falls through as unrecognized input.
	if e.admin.IsAdmin(ev.Sender) {
		if instructions, handled, err := e.handleAdmin(session, ev, text); handled {
			return instructions, err
		}
	}

	// Commands that work from any state.
	if ev.ButtonID == "main_menu" || isGreeting(text) {
		session.Reset()
		return e.mainMenu(session), nil
	}

	switch session.State {
	case models.StateRootMenu:
		return e.handleRootMenu(session, ev, text)
	case models.StateBookingSelectRoute:
		return e.handleSelectRoute(session, ev, text)
	case models.StateBookingSelectDate:
		return e.handleSelectDate(session, ev, text)
	case models.StateBookingEnterName:
		return e.handleEnterName(session, ev)
	case models.StateBookingEnterReg:
		return e.handleEnterReg(session, ev)
	case models.StateBookingEnterPhone:
		return e.handleEnterPhone(session, ev)
	case models.StateBookingSelectSeat:
		return e.handleSelectSeat(session, ev)
	case models.StateBookingConfirm:
		return e.handleConfirm(session, ev, text)
	case models.StateStatusMenu, models.StateStatusBus:
		return e.handleStatusMenu(session, ev, text)
	case models.StateStatusLookupPhone:
		return e.handleLookupPhone(session, ev)
	case models.StateFAQMenu, models.StateFAQCategoryResult:
		return e.handleFAQMenu(session, ev, text)
	case models.StateFAQFreeform:
		return e.handleFAQFreeform(session, ev)
	case models.StateAdminMenu:
		// Non-admin sessions cannot stay here.
		session.Reset()
		return e.mainMenu(session), nil
	}

	// Unreachable: the session manager resets unknown states before
	// dispatch. Recover anyway.
	session.Reset()
	return e.mainMenu(session), nil
}

func isGreeting(text string) bool {
	switch text {
	case "hi", "hello", "hey", "start", "menu", "home":
		return true
	}
	return false
}

func (e *Engine) mainMenu(session *models.Session) []Instruction {
	return []Instruction{menuTo(session.UserID, mainMenuBody(), mainMenuButtons())}
}

// Root menu

func (e *Engine) handleRootMenu(session *models.Session, ev Event, text string) ([]Instruction, error) {
	switch {
	case ev.ButtonID == "book_seat" || text == "book" || text == "1":
		session.State = models.StateBookingSelectRoute
		return []Instruction{menuTo(session.UserID, routeMenuBody(), routeMenuButtons())}, nil

	case ev.ButtonID == "status" || text == "status" || text == "2":
		session.State = models.StateStatusMenu
		return []Instruction{menuTo(session.UserID, statusMenuBody(), statusMenuButtons())}, nil

	case ev.ButtonID == "faq" || text == "faq" || text == "faqs" || text == "help" || text == "3":
		session.State = models.StateFAQMenu
		return []Instruction{menuTo(session.UserID, faqMenuBody(), faqMenuButtons())}, nil
	}

	// Didn't understand: re-present the menu, no error surfaced.
	return e.mainMenu(session), nil
}

// Booking flow

var routeAliases = map[string]string{
	"route_giki_multan":     "GIKI-Multan",
	"route_giki_bahawalpur": "GIKI-Bahawalpur",
	"route_multan_giki":     "Multan-GIKI",
	"multan":                "GIKI-Multan",
	"bahawalpur":            "GIKI-Bahawalpur",
	"bwp":                   "GIKI-Bahawalpur",
	"giki":                  "Multan-GIKI",
	// Numbered fallback matching the rendered route menu order.
	"1": "GIKI-Multan",
	"2": "GIKI-Bahawalpur",
	"3": "Multan-GIKI",
}

func normalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

func (e *Engine) handleSelectRoute(session *models.Session, ev Event, text string) ([]Instruction, error) {
	key := ev.ButtonID
	if key == "" {
		key = text
	}
	route, ok := routeAliases[normalizeCity(key)]
	if !ok {
		return []Instruction{menuTo(session.UserID, routeMenuBody(), routeMenuButtons())}, nil
	}

	trips, err := e.store.GetTripsByRoute(route)
	if err != nil {
		return nil, fmt.Errorf("list trips for %s: %w", route, err)
	}
	if len(trips) == 0 {
		session.Reset()
		return []Instruction{
			textTo(session.UserID, noDatesBody()),
			menuTo(session.UserID, mainMenuBody(), mainMenuButtons()),
		}, nil
	}

	session.Context[ctxRoute] = route
	session.State = models.StateBookingSelectDate
	return []Instruction{menuTo(session.UserID, dateMenuBody(route), dateMenuButtons(trips))}, nil
}

func (e *Engine) handleSelectDate(session *models.Session, ev Event, text string) ([]Instruction, error) {
	route := session.Context[ctxRoute]
	trips, err := e.store.GetTripsByRoute(route)
	if err != nil {
		return nil, fmt.Errorf("list trips for %s: %w", route, err)
	}

	var selected *models.Trip
	if tripID, ok := strings.CutPrefix(ev.ButtonID, "trip_"); ok {
		for _, trip := range trips {
			if trip.ID == tripID {
				selected = trip
				break
			}
		}
	} else if text != "" {
		// Accept the date itself or its position in the presented list.
		for i, trip := range trips {
			if text == strings.ToLower(trip.TravelDate) || text == strconv.Itoa(i+1) {
				selected = trip
				break
			}
		}
	}

	if selected == nil {
		return []Instruction{menuTo(session.UserID, dateMenuBody(route), dateMenuButtons(trips))}, nil
	}

	session.Context[ctxTripID] = selected.ID
	session.Context[ctxTravelDate] = selected.TravelDate
	session.Context[ctxBusName] = selected.BusName
	session.Context[ctxAmount] = strconv.Itoa(selected.Price)
	session.State = models.StateBookingEnterName
	return []Instruction{textTo(session.UserID, tripSummaryAndAskName(selected))}, nil
}

func (e *Engine) handleEnterName(session *models.Session, ev Event) ([]Instruction, error) {
	name := strings.TrimSpace(ev.Text)
	if len(name) < 3 {
		return []Instruction{textTo(session.UserID, invalidNameBody())}, nil
	}

	session.Context[ctxName] = name
	session.State = models.StateBookingEnterReg
	return []Instruction{textTo(session.UserID, askRegBody(name))}, nil
}

func (e *Engine) handleEnterReg(session *models.Session, ev Event) ([]Instruction, error) {
	reg := strings.TrimSpace(ev.Text)
	if !regNumberPattern.MatchString(reg) {
		// Same state, context untouched.
		return []Instruction{textTo(session.UserID, invalidRegBody())}, nil
	}

	session.Context[ctxReg] = reg
	session.State = models.StateBookingEnterPhone
	return []Instruction{textTo(session.UserID, askPhoneBody(reg))}, nil
}

func (e *Engine) handleEnterPhone(session *models.Session, ev Event) ([]Instruction, error) {
	phone := strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(ev.Text))
	if !phonePattern.MatchString(phone) {
		return []Instruction{textTo(session.UserID, invalidPhoneBody())}, nil
	}

	seats, err := e.store.AvailableSeats(session.Context[ctxTripID])
	if err != nil {
		return nil, fmt.Errorf("available seats: %w", err)
	}
	if len(seats) == 0 {
		session.Reset()
		return []Instruction{
			textTo(session.UserID, allSeatsTakenBody()),
			menuTo(session.UserID, mainMenuBody(), mainMenuButtons()),
		}, nil
	}

	session.Context[ctxPhone] = phone
	session.State = models.StateBookingSelectSeat
	return []Instruction{textTo(session.UserID, seatPromptBody(phone, seats))}, nil
}

func (e *Engine) handleSelectSeat(session *models.Session, ev Event) ([]Instruction, error) {
	seat, err := strconv.Atoi(strings.TrimSpace(ev.Text))
	if err != nil {
		return []Instruction{textTo(session.UserID, invalidSeatBody())}, nil
	}

	seats, err := e.store.AvailableSeats(session.Context[ctxTripID])
	if err != nil {
		return nil, fmt.Errorf("available seats: %w", err)
	}
	available := false
	for _, s := range seats {
		if s == seat {
			available = true
			break
		}
	}
	if !available {
		return []Instruction{textTo(session.UserID, seatTakenBody(seat))}, nil
	}

	session.Context[ctxSeat] = strconv.Itoa(seat)
	session.State = models.StateBookingConfirm
	return []Instruction{menuTo(session.UserID, bookingSummaryBody(session.Context), confirmButtons())}, nil
}

func (e *Engine) handleConfirm(session *models.Session, ev Event, text string) ([]Instruction, error) {
	confirmed := ev.ButtonID == "confirm_booking" ||
		text == "yes" || text == "confirm" || text == "1"
	if !confirmed {
		if text == "no" || text == "cancel" || text == "2" {
			session.Reset()
			return e.mainMenu(session), nil
		}
		return []Instruction{menuTo(session.UserID, bookingSummaryBody(session.Context), confirmButtons())}, nil
	}

	seat, err := strconv.Atoi(session.Context[ctxSeat])
	if err != nil || session.Context[ctxTripID] == "" {
		// Stale or replayed confirmation: the flow already completed and
		// its context is gone. Never create a second booking.
		session.Reset()
		return e.mainMenu(session), nil
	}
	amount, _ := strconv.Atoi(session.Context[ctxAmount])

	booking, err := e.store.CreateBooking(&models.Booking{
		UserID:         session.UserID,
		TripID:         session.Context[ctxTripID],
		Route:          session.Context[ctxRoute],
		TravelDate:     session.Context[ctxTravelDate],
		BusName:        session.Context[ctxBusName],
		PassengerName:  session.Context[ctxName],
		RegNumber:      session.Context[ctxReg],
		PassengerPhone: session.Context[ctxPhone],
		Seat:           seat,
		Amount:         amount,
	})
	if err == storage.ErrSeatTaken {
		// Someone else took the seat between selection and confirm.
		seats, serr := e.store.AvailableSeats(session.Context[ctxTripID])
		if serr != nil {
			return nil, fmt.Errorf("available seats: %w", serr)
		}
		delete(session.Context, ctxSeat)
		session.State = models.StateBookingSelectSeat
		return []Instruction{
			textTo(session.UserID, seatTakenBody(seat)),
			textTo(session.UserID, seatPromptBody(session.Context[ctxPhone], seats)),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	instructions := []Instruction{
		textTo(session.UserID, bookingCreatedBody(booking.BookingID)),
		textTo(session.UserID, paymentInfoBody(booking.BookingID, booking.Amount)),
	}
	if link, err := e.payments.UploadLink(booking.BookingID); err == nil {
		instructions = append(instructions, Instruction{
			Recipient: session.UserID,
			Kind:      InstructionDocumentLink,
			Body:      "📸 Upload your payment screenshot here:",
			URL:       link,
		})
	} else {
		log.Printf("Payment link for %s: %v", booking.BookingID, err)
	}

	session.Reset()
	return instructions, nil
}

// Status flow

func (e *Engine) handleStatusMenu(session *models.Session, ev Event, text string) ([]Instruction, error) {
	switch {
	case ev.ButtonID == "bus_status" || text == "bus" || text == "1":
		trips, err := e.store.GetAllTrips()
		if err != nil {
			return nil, fmt.Errorf("list trips: %w", err)
		}
		seatsLeft := make(map[string]int, len(trips))
		for _, trip := range trips {
			seats, err := e.store.AvailableSeats(trip.ID)
			if err != nil {
				return nil, fmt.Errorf("available seats: %w", err)
			}
			seatsLeft[trip.ID] = len(seats)
		}
		session.Reset()
		return []Instruction{
			textTo(session.UserID, busStatusBody(trips, seatsLeft)),
			menuTo(session.UserID, mainMenuBody(), mainMenuButtons()),
		}, nil

	case ev.ButtonID == "your_booking" || text == "booking" || text == "2":
		session.State = models.StateStatusLookupPhone
		return []Instruction{textTo(session.UserID, askBookingPhoneBody())}, nil
	}

	return []Instruction{menuTo(session.UserID, statusMenuBody(), statusMenuButtons())}, nil
}

func (e *Engine) handleLookupPhone(session *models.Session, ev Event) ([]Instruction, error) {
	phone := strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(ev.Text))
	if !phonePattern.MatchString(phone) {
		return []Instruction{textTo(session.UserID, invalidPhoneBody())}, nil
	}

	bookings, err := e.store.GetBookingsByPhone(phone)
	if err != nil {
		return nil, fmt.Errorf("bookings by phone: %w", err)
	}

	session.Reset()
	body := noBookingsBody(phone)
	if len(bookings) > 0 {
		body = bookingsListBody(phone, bookings)
	}
	return []Instruction{
		textTo(session.UserID, body),
		menuTo(session.UserID, mainMenuBody(), mainMenuButtons()),
	}, nil
}

// FAQ flow

var faqCategories = map[string]string{
	"faq_dates":     models.CategoryDates,
	"faq_fares":     models.CategoryFares,
	"faq_route":     models.CategoryRoute,
	"faq_return":    models.CategoryReturn,
	"faq_luggage":   models.CategoryLuggage,
	"faq_locations": models.CategoryLocations,
	"faq_seats":     models.CategorySeats,
	"faq_general":   models.CategoryGeneral,
}

// faqMenuNumbers maps the numbered-text fallback onto the FAQ menu
// button order.
var faqMenuNumbers = map[string]string{
	"1": "faq_dates",
	"2": "faq_fares",
	"3": "faq_route",
	"4": "faq_return",
	"5": "faq_luggage",
	"6": "faq_locations",
	"7": "faq_seats",
	"8": "faq_ask",
}

func (e *Engine) handleFAQMenu(session *models.Session, ev Event, text string) ([]Instruction, error) {
	if ev.ButtonID == "" {
		if id, ok := faqMenuNumbers[text]; ok {
			ev.ButtonID = id
		}
	}
	if ev.ButtonID == "faq_ask" {
		session.State = models.StateFAQFreeform
		return []Instruction{textTo(session.UserID, faqAskBody())}, nil
	}

	if category, ok := faqCategories[ev.ButtonID]; ok {
		answer, err := e.categoryAnswer(category)
		if err != nil {
			return nil, err
		}
		// Category answers lead back to the FAQ menu, not the root menu,
		// so users can browse several topics in a row.
		session.State = models.StateFAQMenu
		return []Instruction{
			textTo(session.UserID, answer),
			menuTo(session.UserID, faqMenuBody(), faqMenuButtons()),
		}, nil
	}

	if ev.Kind == EventText && text != "" {
		return e.answerFreeform(session, ev.Text)
	}

	return []Instruction{menuTo(session.UserID, faqMenuBody(), faqMenuButtons())}, nil
}

func (e *Engine) handleFAQFreeform(session *models.Session, ev Event) ([]Instruction, error) {
	if ev.Kind != EventText || strings.TrimSpace(ev.Text) == "" {
		session.State = models.StateFAQMenu
		return []Instruction{menuTo(session.UserID, faqMenuBody(), faqMenuButtons())}, nil
	}
	return e.answerFreeform(session, ev.Text)
}

func (e *Engine) answerFreeform(session *models.Session, query string) ([]Instruction, error) {
	session.State = models.StateFAQMenu
	if answer, ok := e.kb.Match(query); ok {
		return []Instruction{textTo(session.UserID, faqAnswerBody(answer))}, nil
	}
	return []Instruction{
		textTo(session.UserID, faqNoMatchBody()),
		menuTo(session.UserID, faqMenuBody(), faqMenuButtons()),
	}, nil
}

func (e *Engine) categoryAnswer(category string) (string, error) {
	snap := e.settings.Snapshot()
	switch category {
	case models.CategoryDates:
		return datesAnswer(snap), nil
	case models.CategoryFares:
		return faresAnswer(snap), nil
	case models.CategoryRoute:
		return routeAnswer(snap), nil
	case models.CategoryReturn:
		return returnAnswer(snap), nil
	case models.CategoryLuggage:
		return luggageAnswer(snap), nil
	case models.CategoryLocations:
		return locationsAnswer(snap), nil
	case models.CategorySeats:
		trips, err := e.store.GetAllTrips()
		if err != nil {
			return "", fmt.Errorf("list trips: %w", err)
		}
		seatsLeft := make(map[string]int, len(trips))
		for _, trip := range trips {
			seats, err := e.store.AvailableSeats(trip.ID)
			if err != nil {
				return "", fmt.Errorf("available seats: %w", err)
			}
			seatsLeft[trip.ID] = len(seats)
		}
		return busStatusBody(trips, seatsLeft), nil
	}
	return generalAnswer(), nil
}

// Admin branch

func (e *Engine) handleAdmin(session *models.Session, ev Event, text string) ([]Instruction, bool, error) {
	switch text {
	case "admin", "/admin", "dashboard", "admin panel":
		session.State = models.StateAdminMenu
		return []Instruction{menuTo(session.UserID, adminMenuBody(), adminMenuButtons())}, true, nil
	}

	if strings.HasPrefix(ev.ButtonID, "admin_") {
		reply, err := e.admin.HandleButton(ev.ButtonID, ev.Sender)
		if err != nil {
			return nil, true, err
		}
		session.State = models.StateAdminMenu
		return []Instruction{textTo(session.UserID, reply)}, true, nil
	}

	// Text commands are only recognized from resting states so admin
	// input cannot hijack an in-progress booking.
	if session.State == models.StateRootMenu || session.State == models.StateAdminMenu {
		if cmd, ok := InterpretAdminCommand(ev.Text); ok {
			reply, err := e.admin.Execute(cmd, ev.Sender)
			if err != nil {
				return nil, true, err
			}
			return []Instruction{textTo(session.UserID, reply)}, true, nil
		}
	}

	return nil, false, nil
}

// Instruction helpers

func textTo(recipient, body string) Instruction {
	return Instruction{Recipient: recipient, Kind: InstructionText, Body: body}
}

func menuTo(recipient, body string, buttons []Button) Instruction {
	return Instruction{Recipient: recipient, Kind: InstructionButtonMenu, Body: body, Buttons: buttons}
}
