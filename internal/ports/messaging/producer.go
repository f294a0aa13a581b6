package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Producer struct {
	sender        MessageSender
	emailQueueURL string
}

func NewProducer(sender MessageSender, emailQueueURL string) *Producer {
	return &Producer{
		sender:        sender,
		emailQueueURL: emailQueueURL,
	}
}

func (p *Producer) PublishEmail(ctx context.Context, event EmailEvent) error {
	// Enrich the current span with employee_id if available
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() && event.EmployeeID != 0 {
		span.SetAttributes(
			attribute.Int64("app.employee_id", event.EmployeeID),
			attribute.String("messaging.event_id", event.EventID),
		)
	}
	return p.publish(ctx, p.emailQueueURL, event)
}

func (p *Producer) publish(ctx context.Context, destination string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	if err := p.sender.SendMessage(ctx, destination, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
