package notify

import (
	"context"

	"github.com/iliyamo/meeting-reservation/internal/model"
)

// Mailer sends the confirmation e-mail for one reservation.
type Mailer interface {
	SendConfirmation(ctx context.Context, to string, r model.Reservation) error
}

// MailSink delivers confirmations directly over SMTP.
type MailSink struct {
	Mailer Mailer
}

func (s MailSink) Send(ctx context.Context, m Message) error {
	return s.Mailer.SendConfirmation(ctx, m.To, m.Reservation)
}
