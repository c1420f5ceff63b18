package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/Legalistas/brixar-sub002/internal/config"
)

// Sender defines the interface for sending emails.
// The rawMessage parameter should contain the full email message, including headers and body, properly formatted.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, rawMessage []byte) error
}

// NewSender builds the sender chain from configuration: SMTP when a host is
// set, the logging sender otherwise, plus a file archive when a path is set.
func NewSender(cfg *config.Config) (Sender, error) {
	primary := NewSMTPSender(cfg)
	if cfg.EmailArchivePath == "" {
		return primary, nil
	}
	archive, err := NewFileEmailSender(cfg.EmailArchivePath)
	if err != nil {
		return nil, err
	}
	return NewCompositeEmailSender(primary, archive), nil
}

// SMTPSender implements the Sender interface using Go's net/smtp package.
type SMTPSender struct {
	cfg  *config.Config
	auth smtp.Auth
	addr string
}

// NewSMTPSender returns an SMTPSender, or a LoggingSender when no SMTP host is configured.
func NewSMTPSender(cfg *config.Config) Sender {
	if cfg.SmtpHost == "" {
		config.GetLogger().Warn("SMTP host not configured, using logging email sender")
		return &LoggingSender{from: cfg.SmtpFromAddress}
	}

	var auth smtp.Auth
	if cfg.SmtpUsername != "" {
		auth = smtp.PlainAuth("", cfg.SmtpUsername, cfg.SmtpPassword, cfg.SmtpHost)
	}

	return &SMTPSender{
		cfg:  cfg,
		auth: auth,
		addr: fmt.Sprintf("%s:%d", cfg.SmtpHost, cfg.SmtpPort),
	}
}

// Send sends an email using SMTP.
// The rawMessage is expected to be the complete email content.
func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	logger := config.GetLogger().WithField("to", to).WithField("subject", subject)
	if err := smtp.SendMail(s.addr, s.auth, s.cfg.SmtpFromAddress, to, rawMessage); err != nil {
		logger.WithError(err).Error("failed to send email via SMTP")
		return fmt.Errorf("smtp error: %w", err)
	}
	logger.Info("email sent via SMTP")
	return nil
}

// LoggingSender writes emails to the application log instead of sending them.
type LoggingSender struct {
	from string
}

func (s *LoggingSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	config.GetLogger().WithFields(map[string]any{
		"to":      to,
		"from":    s.from,
		"subject": subject,
		"body":    string(rawMessage),
	}).Info("email logged (not sent)")
	return nil
}
