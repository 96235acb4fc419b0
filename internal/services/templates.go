package services

import (
	"fmt"
	"strings"

	"github.com/safar-giki/safar-backend/internal/models"
)

// Message templates for the conversation. All outbound text lives here so
// the engine stays free of formatting noise.

func mainMenuBody() string {
	return `🚌 *Welcome to Safar-e-GIKI!*
Bus service for GIKI students.

What would you like to do?`
}

func mainMenuButtons() []Button {
	return []Button{
		{ID: "book_seat", Title: "🎫 Book a Seat"},
		{ID: "status", Title: "📊 Status"},
		{ID: "faq", Title: "❓ FAQs"},
	}
}

func routeMenuBody() string {
	return `🗺️ *Select Your Route*

Where are you travelling?`
}

func routeMenuButtons() []Button {
	return []Button{
		{ID: "route_giki_multan", Title: "GIKI → Multan"},
		{ID: "route_giki_bahawalpur", Title: "GIKI → Bahawalpur"},
		{ID: "route_multan_giki", Title: "Multan → GIKI"},
	}
}

func dateMenuBody(route string) string {
	return fmt.Sprintf("📅 *Available Dates for %s*\n\nSelect a date to continue:", route)
}

func dateMenuButtons(trips []*models.Trip) []Button {
	buttons := make([]Button, 0, len(trips))
	for _, trip := range trips {
		buttons = append(buttons, Button{
			ID:    "trip_" + trip.ID,
			Title: fmt.Sprintf("%s | 🚌 %s | Rs. %d", trip.TravelDate, trip.BusName, trip.Price),
		})
	}
	return buttons
}

func noDatesBody() string {
	return "😔 Sorry, no available dates found for this route.\n\nPlease check back later or try a different route."
}

func tripSummaryAndAskName(trip *models.Trip) string {
	return fmt.Sprintf(`✅ *Great Choice!*

📅 *Date:* %s
🚌 *Bus:* %s
⏰ *Departure:* %s | *Arrival:* %s
💰 *Price:* Rs. %d per seat

Now, let's get your details for the booking.

📝 *Please enter your full name:*`,
		trip.TravelDate, trip.BusName, trip.DepartureTime, trip.ArrivalTime, trip.Price)
}

func invalidNameBody() string {
	return "❌ Please enter a valid name (at least 3 characters)."
}

func askRegBody(name string) string {
	return fmt.Sprintf("👤 *Name:* %s\n\n📋 *Please enter your Registration Number:*\n\nFormat: 20XXXXX (e.g. 2021234)", name)
}

func invalidRegBody() string {
	return "❌ Invalid registration number format.\n\nPlease enter in format: 20XXXXX (e.g. 2021234)"
}

func askPhoneBody(reg string) string {
	return fmt.Sprintf("🎓 *Reg Number:* %s\n\n📱 *Please enter your phone number:*\n\nFormat: 03XXXXXXXXX (e.g. 03001234567)", reg)
}

func invalidPhoneBody() string {
	return "❌ Invalid phone number format.\n\nPlease enter in format: 03XXXXXXXXX (e.g. 03001234567)"
}

func seatPromptBody(phone string, seats []int) string {
	display := make([]string, 0, len(seats))
	for i, seat := range seats {
		if i == 20 {
			break
		}
		display = append(display, fmt.Sprintf("%d", seat))
	}
	return fmt.Sprintf("📱 *Phone:* %s\n\n💺 *Available Seats:*\n%s\n\nPlease type the seat number you want to book:",
		phone, strings.Join(display, ", "))
}

func seatTakenBody(seat int) string {
	return fmt.Sprintf("❌ Seat %d is not available.\n\nPlease select from the available seats.", seat)
}

func invalidSeatBody() string {
	return "❌ Please enter a valid seat number."
}

func allSeatsTakenBody() string {
	return "😔 Sorry, all seats are booked for this date.\n\nPlease select a different date."
}

func bookingSummaryBody(ctx map[string]string) string {
	return fmt.Sprintf(`📋 *Booking Summary*

🚌 *Route:* %s
📅 *Date:* %s
🚍 *Bus:* %s

👤 *Passenger Details:*
• Name: %s
• Reg No: %s
• Phone: %s

💺 *Seat:* %s
💰 *Total Amount:* Rs. %s

Please confirm your booking to proceed to payment.`,
		ctx[ctxRoute], ctx[ctxTravelDate], ctx[ctxBusName],
		ctx[ctxName], ctx[ctxReg], ctx[ctxPhone],
		ctx[ctxSeat], ctx[ctxAmount])
}

func confirmButtons() []Button {
	return []Button{
		{ID: "confirm_booking", Title: "✅ Confirm & Pay"},
		{ID: "main_menu", Title: "❌ Cancel"},
	}
}

func bookingCreatedBody(bookingID string) string {
	return fmt.Sprintf("🎉 *Booking Created Successfully!*\n\nYour booking ID: *%s*\n\nPlease save this ID for your records.", bookingID)
}

func paymentInfoBody(bookingID string, amount int) string {
	return fmt.Sprintf(`💳 *Payment Instructions*

Amount due: *Rs. %d*
Booking ID: *%s*

Transfer to our bank account and upload your payment screenshot through
the link below. Your seat is held until the payment is verified.`, amount, bookingID)
}

func statusMenuBody() string {
	return "📊 *Status*\n\nWhat would you like to check?"
}

func statusMenuButtons() []Button {
	return []Button{
		{ID: "bus_status", Title: "🚌 Bus Status"},
		{ID: "your_booking", Title: "🎫 Your Booking"},
	}
}

func askBookingPhoneBody() string {
	return "📱 Please enter your phone number to find your bookings:\n\nFormat: 03XXXXXXXXX"
}

func noBookingsBody(phone string) string {
	return fmt.Sprintf("📭 No bookings found for %s.\n\nMake sure you entered the correct phone number.", phone)
}

func bookingsListBody(phone string, bookings []*models.Booking) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎫 *Your Bookings (%s)*\n\n", phone)
	for i, booking := range bookings {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "*Booking ID:* %s\n", booking.BookingID)
		fmt.Fprintf(&b, "*Route:* %s\n", booking.Route)
		fmt.Fprintf(&b, "*Date:* %s\n", booking.TravelDate)
		fmt.Fprintf(&b, "*Seat:* %d\n", booking.Seat)
		fmt.Fprintf(&b, "*Amount:* Rs. %d\n", booking.Amount)
		fmt.Fprintf(&b, "*Payment:* %s | *Booking:* %s\n\n", booking.PaymentStatus, booking.Status)
	}
	return strings.TrimRight(b.String(), "\n")
}

func busStatusBody(trips []*models.Trip, seatsLeft map[string]int) string {
	if len(trips) == 0 {
		return "No buses available at the moment."
	}
	var b strings.Builder
	b.WriteString("🚌 *Bus Status*\n\n")
	for _, trip := range trips {
		fmt.Fprintf(&b, "*%s* (%s)\n", trip.BusName, trip.Route)
		fmt.Fprintf(&b, "Date: %s\n", trip.TravelDate)
		fmt.Fprintf(&b, "Departure: %s | Arrival: %s\n", trip.DepartureTime, trip.ArrivalTime)
		fmt.Fprintf(&b, "Price: Rs. %d\n", trip.Price)
		fmt.Fprintf(&b, "Seats left: %d/%d\n\n", seatsLeft[trip.ID], trip.TotalSeats)
	}
	return strings.TrimRight(b.String(), "\n")
}

func faqMenuBody() string {
	return `❓ *FAQs*

Pick a category, or just type your question:`
}

func faqMenuButtons() []Button {
	return []Button{
		{ID: "faq_dates", Title: "📅 Dates & Schedule"},
		{ID: "faq_fares", Title: "💰 Fares"},
		{ID: "faq_route", Title: "🗺️ Route Info"},
		{ID: "faq_return", Title: "🔄 Return Service"},
		{ID: "faq_luggage", Title: "🧳 Luggage Policy"},
		{ID: "faq_locations", Title: "📍 Pickup/Drop Points"},
		{ID: "faq_seats", Title: "💺 Seats Availability"},
		{ID: "faq_ask", Title: "💬 Ask a Question"},
	}
}

func faqAskBody() string {
	return "💬 Type your question and I'll find the answer:"
}

func faqAnswerBody(answer string) string {
	return fmt.Sprintf("💡 *Answer:*\n\n%s\n\n_Need more help? Select a category or ask another question._", answer)
}

func faqNoMatchBody() string {
	return `🤔 I couldn't find a specific answer to your question.

*Try asking about:*
• 💰 Fares - "What is the fare to Multan?"
• 📅 Dates - "When are the buses running?"
• 🧳 Luggage - "What's the luggage policy?"
• 🔄 Return - "Is there a return service?"
• 📍 Locations - "Where is the pickup point?"

Or select a category from the FAQ menu!`
}

func adminMenuBody() string {
	return `🔐 *Admin Panel*

Send a command or pick an option below.`
}

func adminMenuButtons() []Button {
	return []Button{
		{ID: "admin_audit", Title: "📋 Audit Log"},
		{ID: "admin_rebuild", Title: "🔄 Rebuild KB"},
		{ID: "admin_help", Title: "❓ Commands"},
	}
}

func adminHelpBody() string {
	return `🔐 *Admin Commands*

• fare <destination> <amount>
• date add <route> <date>
• return <date> [description]
• luggage bags <n> | luggage size <text> | luggage <note>
• location <point> <text>
• rebuild kb
• audit`
}

func tryAgainBody() string {
	return "❌ Sorry, something went wrong. Please try again."
}

// FAQ category answers, shared between the FAQ menu and the knowledge
// base index so both always agree with the current settings.

func faresAnswer(snap SettingsSnapshot) string {
	return fmt.Sprintf(`💰 *Ticket Fares*

🏙️ *GIKI → Multan:* Rs. %d
🏙️ *GIKI → Bahawalpur:* Rs. %d

📝 *Note:* Bahawalpur fare is higher as the bus continues from Multan to Bahawalpur after dropping Multan passengers.

💳 Payment via bank transfer after booking.`, snap.Fares.Multan, snap.Fares.Bahawalpur)
}

func datesAnswer(snap SettingsSnapshot) string {
	return fmt.Sprintf(`📅 *Dates & Schedule*

*Outbound Service:*
%s

*Return Service:*
%s

ℹ️ Schedule may change if required.`, snap.OutboundDates.Description, snap.ReturnService.Description)
}

func routeAnswer(snap SettingsSnapshot) string {
	return `🗺️ *Route Information*

*Destinations:*
1️⃣ Multan (First Stop)
2️⃣ Bahawalpur (Final Stop)

📝 Both destinations use the same bus. Multan students are dropped first, then the bus continues to Bahawalpur.`
}

func returnAnswer(snap SettingsSnapshot) string {
	return fmt.Sprintf(`🔄 *Return Service*

*Return Date:* %s

*Pickup Points:*
• Bahawalpur → GIKI
• Multan → GIKI

📝 Same pricing applies for the return journey.`, snap.ReturnService.Description)
}

func luggageAnswer(snap SettingsSnapshot) string {
	handCarry := "1 hand carry bag"
	if !snap.Luggage.HandCarry {
		handCarry = "No hand carry"
	}
	return fmt.Sprintf(`🧳 *Luggage Policy*

*Allowed:*
• %d %s-sized bags maximum
• %s

⚠️ %s`, snap.Luggage.MaxBags, snap.Luggage.BagSize, handCarry, snap.Luggage.Note)
}

func locationsAnswer(snap SettingsSnapshot) string {
	if snap.Locations.Status == "tbd" || len(snap.Locations.Locations) == 0 {
		return fmt.Sprintf("📍 *Pickup & Drop Locations*\n\n⏳ *Status:* To Be Announced\n\n%s", snap.Locations.Note)
	}
	var b strings.Builder
	b.WriteString("📍 *Pickup & Drop Locations*\n\n")
	for _, loc := range snap.Locations.Locations {
		fmt.Fprintf(&b, "📌 %s\n", loc)
	}
	return strings.TrimRight(b.String(), "\n")
}

func generalAnswer() string {
	return `❓ *General Information*

*What is Safar-e-GIKI?*
A bus service exclusively for GIKI students traveling to and from campus.

*How to Book?*
1️⃣ Tap "Book a Seat" from the main menu
2️⃣ Select route & date
3️⃣ Enter your details
4️⃣ Choose your seat
5️⃣ Complete payment

*How to Check a Booking?*
Status → Your Booking → enter your phone number.`
}
