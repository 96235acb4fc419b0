package models

import "time"

// ConversationState is the current node of a user's conversation.
type ConversationState string

const (
	StateRootMenu ConversationState = "root_menu"

	// Booking flow
	StateBookingSelectRoute ConversationState = "booking_select_route"
	StateBookingSelectDate  ConversationState = "booking_select_date"
	StateBookingEnterName   ConversationState = "booking_enter_name"
	StateBookingEnterReg    ConversationState = "booking_enter_reg"
	StateBookingEnterPhone  ConversationState = "booking_enter_phone"
	StateBookingSelectSeat  ConversationState = "booking_select_seat"
	StateBookingConfirm     ConversationState = "booking_confirm"

	// Status flow
	StateStatusMenu        ConversationState = "status_menu"
	StateStatusBus         ConversationState = "status_bus"
	StateStatusLookupPhone ConversationState = "status_lookup_phone"

	// FAQ flow
	StateFAQMenu           ConversationState = "faq_menu"
	StateFAQCategoryResult ConversationState = "faq_category_result"
	StateFAQFreeform       ConversationState = "faq_freeform"

	// Admin
	StateAdminMenu ConversationState = "admin_menu"
)

var validStates = map[ConversationState]bool{
	StateRootMenu:           true,
	StateBookingSelectRoute: true,
	StateBookingSelectDate:  true,
	StateBookingEnterName:   true,
	StateBookingEnterReg:    true,
	StateBookingEnterPhone:  true,
	StateBookingSelectSeat:  true,
	StateBookingConfirm:     true,
	StateStatusMenu:         true,
	StateStatusBus:          true,
	StateStatusLookupPhone:  true,
	StateFAQMenu:            true,
	StateFAQCategoryResult:  true,
	StateFAQFreeform:        true,
	StateAdminMenu:          true,
}

// ValidState reports whether s belongs to the closed state set.
func ValidState(s ConversationState) bool {
	return validStates[s]
}

// Session stores per-user conversation state between webhook calls.
// Context accumulates fields collected during a flow (route, travel date,
// passenger details, seat) and is cleared on completion or reset.
type Session struct {
	UserID    string            `json:"user_id" gorm:"primaryKey"`
	State     ConversationState `json:"state"`
	Context   map[string]string `json:"context" gorm:"serializer:json"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewSession creates a fresh root-menu session for a user.
func NewSession(userID string) *Session {
	return &Session{
		UserID:    userID,
		State:     StateRootMenu,
		Context:   make(map[string]string),
		UpdatedAt: time.Now(),
	}
}

// Reset discards all collected context and returns the session to the
// root menu.
func (s *Session) Reset() {
	s.State = StateRootMenu
	s.Context = make(map[string]string)
}
