package delivery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
)

// SNSAPI is the subset of the SNS client used by SNSNotifier
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier announces delivered reports on an SNS topic
type SNSNotifier struct {
	client   SNSAPI
	topicARN string
	logger   *zap.Logger
}

// NewSNSNotifier creates a notifier publishing to topicARN
func NewSNSNotifier(client SNSAPI, topicARN string, logger *zap.Logger) *SNSNotifier {
	return &SNSNotifier{
		client:   client,
		topicARN: topicARN,
		logger:   logger,
	}
}

// NewSNSNotifierFromConfig creates a notifier backed by a real SNS client
func NewSNSNotifierFromConfig(awsCfg aws.Config, topicARN string, logger *zap.Logger) *SNSNotifier {
	return NewSNSNotifier(sns.NewFromConfig(awsCfg), topicARN, logger)
}

// Notify publishes a short text notification
func (n *SNSNotifier) Notify(ctx context.Context, subject, text string) error {
	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(text),
	})
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	n.logger.Debug("Notification published",
		zap.String("topic", n.topicARN),
		zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}
