package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/meeting-reservation/internal/config"
	"github.com/iliyamo/meeting-reservation/internal/logger"
	"github.com/iliyamo/meeting-reservation/internal/mail"
	"github.com/iliyamo/meeting-reservation/internal/notify"
	"github.com/iliyamo/meeting-reservation/internal/queue"
)

func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}

func newMailer(n config.NotifyConfig) *mail.SMTPMailer {
	return mail.NewSMTPMailer(n.SMTPHost, n.SMTPPort, n.SMTPUser, n.SMTPPass, n.SMTPFrom)
}

// newSink picks where confirmations go for the configured transport.
func newSink(n config.NotifyConfig, log *zap.Logger) (notify.Sink, error) {
	switch n.Transport {
	case "log":
		return notify.LogSink{Log: log}, nil
	case "smtp":
		return notify.MailSink{Mailer: newMailer(n)}, nil
	case "amqp":
		return queue.NewPublisher(n.AMQPURL, n.Queue), nil
	case "none":
		return notify.Discard{}, nil
	}
	return nil, fmt.Errorf("unknown notify transport %q", n.Transport)
}
