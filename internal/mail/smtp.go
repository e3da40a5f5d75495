package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"

	"github.com/iliyamo/meeting-reservation/internal/model"
)

// SMTPMailer sends messages through one relay.  STARTTLS is used whenever
// the server offers it; credentials are only sent when User is set.
type SMTPMailer struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// NewSMTPMailer returns a mailer for host:port.
func NewSMTPMailer(host, port, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{Host: host, Port: port, User: user, Pass: pass, From: from}
}

// SendConfirmation renders and sends the confirmation for r to addr.
func (m *SMTPMailer) SendConfirmation(ctx context.Context, to string, r model.Reservation) error {
	msg := Confirmation(m.From, r)
	msg.To = to
	return m.Send(ctx, msg)
}

// Send delivers msg.  The connection honours ctx's deadline.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	body, err := msg.Bytes()
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(m.Host, m.Port)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	c, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if m.User != "" {
		if err := c.Auth(smtp.PlainAuth("", m.User, m.Pass, m.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(msg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}
	return c.Quit()
}
