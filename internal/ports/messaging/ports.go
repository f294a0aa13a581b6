package messaging

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// EmailPublisher defines the output port for queueing outbound email.
type EmailPublisher interface {
	PublishEmail(ctx context.Context, event EmailEvent) error
}

// MessageSender defines the interface for sending raw messages to a messaging system.
type MessageSender interface {
	SendMessage(ctx context.Context, destination string, body []byte) error
}

// SQSClient defines the interface for the AWS SQS client.
type SQSClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Attachment is a file carried by an Email.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Email is a rendered outbound message.
type Email struct {
	To          []string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers an Email synchronously.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}
