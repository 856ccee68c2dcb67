package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/localcooks/backend/internal/application/notification"
	infraconfig "github.com/localcooks/backend/internal/infrastructure/config"
)

// SMTPNotifier delivers notification mail over SMTP
type SMTPNotifier struct {
	client *mail.Client
	from   string
	logger *zap.Logger
}

var _ notification.Notifier = (*SMTPNotifier)(nil)

// NewSMTPNotifier creates a notifier from the email configuration. The
// client connects lazily; a bad host shows up on the first send.
func NewSMTPNotifier(cfg *infraconfig.EmailConfig, logger *zap.Logger) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("email host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("email from address is required")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPNotifier{
		client: client,
		from:   cfg.From,
		logger: logger,
	}, nil
}

// Send delivers a plain-text message to a single recipient
func (n *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		n.logger.Error("mail delivery failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("send mail: %w", err)
	}

	n.logger.Debug("mail sent",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}

// LogNotifier writes notifications to the log instead of sending them.
// Used in dev and test environments where no SMTP server is configured.
type LogNotifier struct {
	logger *zap.Logger
}

var _ notification.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the message instead of delivering it
func (n *LogNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.logger.Info("notification (email disabled)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}

// NewNotifier picks the SMTP or log implementation based on configuration
func NewNotifier(cfg *infraconfig.EmailConfig, logger *zap.Logger) (notification.Notifier, error) {
	if !cfg.Enabled {
		return NewLogNotifier(logger), nil
	}
	return NewSMTPNotifier(cfg, logger)
}
