package sqsadapter

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"workclock.service/internal/ports/messaging"
	"workclock.service/pkg/telemetry"
)

// SQSSender implements MessageSender for AWS SQS.
type SQSSender struct {
	client messaging.SQSClient
}

func (s *SQSSender) SendMessage(ctx context.Context, destination string, body []byte) error {
	// Inject trace context into message attributes
	attributes := telemetry.InjectTraceContext(ctx)

	_, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(destination),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: attributes,
	})
	return err
}

// NewSQSProducer creates a new Producer backed by an AWS SQS sender.
func NewSQSProducer(client messaging.SQSClient, emailQueueURL string) *messaging.Producer {
	return messaging.NewProducer(&SQSSender{client: client}, emailQueueURL)
}
