package delivery

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// SMTPConfig configuration for SMTP delivery
type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers mail through an SMTP relay
type SMTPMailer struct {
	cfg      SMTPConfig
	from     Sender
	sendMail sendMailFunc
	logger   *zap.Logger
}

// NewSMTPMailer creates a mailer that relays through cfg.Host
func NewSMTPMailer(cfg SMTPConfig, from Sender, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:      cfg,
		from:     from,
		sendMail: smtp.SendMail,
		logger:   logger,
	}
}

// Send delivers msg. PLAIN auth is used only when a username is configured.
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := buildMIME(m.from, msg, "")
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	m.logger.Info("Sending email",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)))

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.sendMail(addr, auth, m.from.Address, msg.To, raw); err != nil {
		m.logger.Error("Failed to send email",
			zap.Error(err),
			zap.Strings("to", msg.To))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("Email sent successfully", zap.Strings("to", msg.To))
	return nil
}
