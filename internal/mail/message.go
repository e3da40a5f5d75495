// Package mail renders and sends reservation confirmation e-mails over SMTP.
package mail

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/meeting-reservation/internal/model"
)

// ErrHeaderInjection is returned for addresses or subjects containing line breaks.
var ErrHeaderInjection = errors.New("mail: line break in header value")

// Message is a plain-text e-mail.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
	Date    time.Time
}

// Confirmation builds the message sent after a reservation is created.
func Confirmation(from string, r model.Reservation) Message {
	return Message{
		From:    from,
		To:      r.Email,
		Subject: "Reservation Confirmation",
		Body: fmt.Sprintf("Hi %s,\n\nYour reservation on %s at %s has been confirmed.\n\nThank you!\n",
			r.Name, r.Date, r.Time),
	}
}

// Bytes encodes the message with CRLF line endings as SMTP DATA expects.
func (m Message) Bytes() ([]byte, error) {
	for _, v := range []string{m.From, m.To, m.Subject} {
		if strings.ContainsAny(v, "\r\n") {
			return nil, ErrHeaderInjection
		}
	}
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(m.Body, "\r\n", "\n"), "\n", "\r\n"))
	return b.Bytes(), nil
}
