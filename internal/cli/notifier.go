package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/meeting-reservation/internal/queue"
)

// newNotifierCmd runs the worker that turns queued reservation events into
// confirmation e-mails.  It pairs with NOTIFY_TRANSPORT=amqp on the API.
func newNotifierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notifier",
		Short: "Consume reservation events and send confirmation e-mails",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if cfg.Notify.SMTPHost == "" {
				return errors.New("notifier: SMTP_HOST is required")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			mailer := newMailer(cfg.Notify)
			c := &queue.Consumer{
				URL:     cfg.Notify.AMQPURL,
				Queue:   cfg.Notify.Queue,
				Log:     log,
				Timeout: cfg.Notify.Timeout,
				Handler: func(ctx context.Context, ev queue.ReservationCreatedEvent) error {
					if err := mailer.SendConfirmation(ctx, ev.To, ev.Reservation()); err != nil {
						return err
					}
					log.Info("confirmation sent", zap.String("id", ev.ReservationID), zap.String("to", ev.To))
					return nil
				},
			}
			log.Info("notifier started", zap.String("queue", c.Queue))
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
