package delivery

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"go.uber.org/zap"
)

// Transports understood by NewMailer
const (
	TransportSMTP = "smtp"
	TransportSES  = "ses"
)

// Config selects and configures a mail transport
type Config struct {
	Transport string
	From      Sender
	SMTP      SMTPConfig
}

// NewMailer builds the transport named by cfg.Transport. awsCfg is only
// consulted for SES.
func NewMailer(cfg Config, awsCfg aws.Config, logger *zap.Logger) (Mailer, error) {
	if cfg.From.Address == "" {
		return nil, fmt.Errorf("mail sender address is required")
	}

	switch cfg.Transport {
	case "", TransportSMTP:
		if cfg.SMTP.Host == "" {
			return nil, fmt.Errorf("smtp host is required")
		}
		return NewSMTPMailer(cfg.SMTP, cfg.From, logger), nil
	case TransportSES:
		return NewSESMailer(sesv2.NewFromConfig(awsCfg), cfg.From, logger), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
}
