package services

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

var (
	twilioServiceInstance *TwilioService
	twilioServiceOnce     sync.Once
)

// SetTwilioService sets the global twilio service instance
func SetTwilioService(ts *TwilioService) {
	twilioServiceOnce.Do(func() {
		twilioServiceInstance = ts
	})
}

// GetTwilioService returns the global twilio service instance
func GetTwilioService() *TwilioService {
	return twilioServiceInstance
}

// TwilioService delivers engine instructions over WhatsApp.
type TwilioService struct {
	client *twilio.RestClient
	from   string // Format: "whatsapp:+14155238886"
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService() (*TwilioService, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_WHATSAPP_FROM")

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioService{client: client, from: from}, nil
}

// SendWhatsAppMessage sends a plain WhatsApp message via Twilio
func (t *TwilioService) SendWhatsAppMessage(to string, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", strings.TrimPrefix(to, "whatsapp:")))
	params.SetBody(message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp message: %v", err)
		return err
	}

	log.Printf("✅ WhatsApp message sent! SID: %s", *resp.Sid)
	return nil
}

// Deliver sends one engine instruction. Button menus render as numbered
// text because the sandbox WhatsApp channel has no free-form interactive
// messages; tapping a button and typing its number behave the same.
func (t *TwilioService) Deliver(instruction Instruction) error {
	switch instruction.Kind {
	case InstructionText:
		return t.SendWhatsAppMessage(instruction.Recipient, instruction.Body)

	case InstructionButtonMenu:
		return t.SendWhatsAppMessage(instruction.Recipient, renderButtonMenu(instruction))

	case InstructionDocumentLink:
		body := instruction.Body
		if instruction.URL != "" {
			body = body + "\n\n" + instruction.URL
		}
		return t.SendWhatsAppMessage(instruction.Recipient, body)
	}
	return fmt.Errorf("unknown instruction kind %q", instruction.Kind)
}

// DeliverAll sends a batch of instructions in order, stopping at the
// first failure so replies never arrive out of sequence.
func (t *TwilioService) DeliverAll(instructions []Instruction) error {
	for _, instruction := range instructions {
		if err := t.Deliver(instruction); err != nil {
			return err
		}
	}
	return nil
}

func renderButtonMenu(instruction Instruction) string {
	var b strings.Builder
	b.WriteString(instruction.Body)
	b.WriteString("\n")
	for i, button := range instruction.Buttons {
		fmt.Fprintf(&b, "\n%d️⃣ %s", i+1, button.Title)
	}
	b.WriteString("\n\n_Reply with a number to choose._")
	return b.String()
}
