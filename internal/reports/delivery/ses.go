package delivery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// SESAPI is the subset of the SES v2 client used by SESMailer
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer delivers mail through Amazon SES as raw MIME content
type SESMailer struct {
	client SESAPI
	from   Sender
	logger *zap.Logger
}

// NewSESMailer creates an SES backed mailer
func NewSESMailer(client SESAPI, from Sender, logger *zap.Logger) *SESMailer {
	return &SESMailer{
		client: client,
		from:   from,
		logger: logger,
	}
}

// Send delivers msg
func (m *SESMailer) Send(ctx context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	raw, err := buildMIME(m.from, msg, "")
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	out, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from.Address),
		Destination:      &types.Destination{ToAddresses: msg.To},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	})
	if err != nil {
		m.logger.Error("SES send failed",
			zap.Error(err),
			zap.Strings("to", msg.To))
		return fmt.Errorf("failed to send email via SES: %w", err)
	}

	m.logger.Info("Email sent via SES",
		zap.Strings("to", msg.To),
		zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}
