package sesadapter

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"workclock.service/internal/ports/messaging"
	"workclock.service/pkg/telemetry"
)

// SESClient is the subset of the SES API the mailer uses.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// Mailer sends email through SES behind a circuit breaker so a failing
// provider is not hammered by every queued notification.
type Mailer struct {
	client SESClient
	sender string
	cb     *gobreaker.CircuitBreaker
}

var _ messaging.Mailer = (*Mailer)(nil)

func NewMailer(client SESClient, sender string) *Mailer {
	settings := gobreaker.Settings{
		Name:        "SES",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is bigger then 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}
	return &Mailer{client: client, sender: sender, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Send delivers email. Messages with attachments go out as raw MIME.
func (m *Mailer) Send(ctx context.Context, email messaging.Email) error {
	if len(email.To) == 0 {
		return errors.New("email has no recipients")
	}

	tracer := otel.Tracer("ses-mailer")
	ctx, span := tracer.Start(ctx, "send_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	// Enrich span with employeeId if available in context
	if empID := telemetry.GetEmployeeIDFromContext(ctx); empID != 0 {
		span.SetAttributes(attribute.Int64("app.employee_id", empID))
	}
	span.SetAttributes(attribute.Int("email.recipients", len(email.To)), attribute.Int("email.attachments", len(email.Attachments)))

	_, err := m.cb.Execute(func() (any, error) {
		if len(email.Attachments) > 0 {
			return nil, m.sendRaw(ctx, email)
		}
		return nil, m.sendSimple(ctx, email)
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (m *Mailer) sendSimple(ctx context.Context, email messaging.Email) error {
	body := &types.Body{
		Text: &types.Content{Data: aws.String(email.Text), Charset: aws.String("UTF-8")},
	}
	if email.HTML != "" {
		body.Html = &types.Content{Data: aws.String(email.HTML), Charset: aws.String("UTF-8")}
	}

	input := &ses.SendEmailInput{
		Source: aws.String(m.sender),
		Destination: &types.Destination{
			ToAddresses: email.To,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(email.Subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
	}

	_, err := m.client.SendEmail(ctx, input)
	return err
}

func (m *Mailer) sendRaw(ctx context.Context, email messaging.Email) error {
	raw, err := buildMIME(m.sender, email)
	if err != nil {
		return fmt.Errorf("build mime message: %w", err)
	}

	_, err = m.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(m.sender),
		Destinations: email.To,
		RawMessage:   &types.RawMessage{Data: raw},
	})
	return err
}

// buildMIME renders a multipart/mixed message with a text part and base64 attachments.
func buildMIME(from string, email messaging.Email) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(email.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", email.Subject))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", w.Boundary())

	text, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=UTF-8"},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := text.Write([]byte(email.Text)); err != nil {
		return nil, err
	}

	for _, a := range email.Attachments {
		part, err := w.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {fmt.Sprintf("%s; name=%q", a.ContentType, a.Filename)},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", a.Filename)},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, err
		}
		// RFC 2045 caps encoded lines at 76 characters.
		encoded := base64.StdEncoding.EncodeToString(a.Data)
		for len(encoded) > 0 {
			n := min(76, len(encoded))
			if _, err := fmt.Fprintf(part, "%s\r\n", encoded[:n]); err != nil {
				return nil, err
			}
			encoded = encoded[n:]
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
