// Package mailer delivers outbound application email. Delivery is
// best-effort from the caller's point of view: the reset-request flow fires
// it on a goroutine and only logs failures.
package mailer

import (
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Dispatcher sends one message to one recipient.
type Dispatcher interface {
	Send(to, subject, body string) error
}

// SendGrid delivers through the SendGrid v3 API.
type SendGrid struct {
	client     *sendgrid.Client
	senderName string
	senderAddr string
}

// NewSendGrid creates a SendGrid dispatcher.
func NewSendGrid(apiKey, senderName, senderAddr string) *SendGrid {
	return &SendGrid{
		client:     sendgrid.NewSendClient(apiKey),
		senderName: senderName,
		senderAddr: senderAddr,
	}
}

func (m *SendGrid) Send(to, subject, body string) error {
	from := sgmail.NewEmail(m.senderName, m.senderAddr)
	recipient := sgmail.NewEmail("", to)
	message := sgmail.NewSingleEmail(from, subject, recipient, body, "")

	response, err := m.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected message: status %d", response.StatusCode)
	}
	return nil
}

// LogOnly prints the message instead of sending it. Used when no API key is
// configured, so the reset link still shows up in the server log during
// development.
type LogOnly struct{}

func (LogOnly) Send(to, subject, body string) error {
	log.Printf("mail to %s [%s]: %s", to, subject, body)
	return nil
}
