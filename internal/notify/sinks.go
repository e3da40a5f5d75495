package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes confirmations to the application log instead of sending
// them.  It is the default transport for development.
type LogSink struct {
	Log *zap.Logger
}

func (s LogSink) Send(_ context.Context, m Message) error {
	s.Log.Info("reservation confirmation",
		zap.String("to", m.To),
		zap.String("reservation_id", m.Reservation.ID),
		zap.String("date", m.Reservation.Date),
		zap.String("time", m.Reservation.Time))
	return nil
}

// Discard drops every message.  Used for NOTIFY_TRANSPORT=none.
type Discard struct{}

func (Discard) Send(context.Context, Message) error { return nil }

