package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"workclock.service/internal/ports/messaging"
)

// EmailProcessor delivers queued manager emails.
type EmailProcessor struct {
	mailer messaging.Mailer
}

func NewProcessor(mailer messaging.Mailer) *EmailProcessor {
	return &EmailProcessor{mailer: mailer}
}

// Process sends one queued email. Malformed events are not retried; send
// failures back off exponentially by SQS receive count.
func (p *EmailProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	if msg.Body == nil {
		return false, 0, errors.New("empty message body")
	}

	var event messaging.EmailEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal email event")
		return false, 0, fmt.Errorf("decode email event: %w", err)
	}
	if len(event.To) == 0 {
		return false, 0, fmt.Errorf("email event %s has no recipients", event.EventID)
	}

	l := log.Ctx(ctx).With().
		Str("event_id", event.EventID).
		Str("kind", string(event.Kind)).
		Int64("employee_id", event.EmployeeID).
		Logger()

	if err := p.mailer.Send(ctx, event.Email()); err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			l.Warn().Msg("Circuit Breaker is OPEN; skipping SES call")
		}
		attempt := receiveCount(msg)
		return true, calculateBackoff(attempt), err
	}

	l.Info().Strs("to", event.To).Msg("Email sent")
	return false, 0, nil
}

func receiveCount(msg types.Message) int {
	n, err := strconv.Atoi(msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// calculateBackoff doubles the visibility delay per attempt, capped at one hour.
func calculateBackoff(retryCount int) int32 {
	backoff := math.Pow(2, float64(retryCount)) * 10
	if backoff > 3600 {
		return 3600
	}
	return int32(backoff)
}
