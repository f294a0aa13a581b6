package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const EmployeeIDKey contextKey = "employeeId"

// InitTracer initializes the OpenTelemetry tracer provider.
// exporter is one of "otlp", "stdout" or "none"; with "none" only propagation is configured.
func InitTracer(serviceName, exporter, endpoint string) (func(context.Context) error, error) {
	ctx := context.Background()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	var spanExporter sdktrace.SpanExporter
	switch exporter {
	case "none":
		return func(context.Context) error { return nil }, nil
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stdout), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("creating stdout trace exporter: %w", err)
		}
		spanExporter = exp
	default:
		// Configure the OTLP exporter to send traces to Jaeger via gRPC.
		exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithInsecure(), otlptracegrpc.WithEndpoint(endpoint))
		if err != nil {
			return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
		}
		spanExporter = exp
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// StartSpanFromSQSMessage extracts trace context from SQS message attributes and starts a new span.
func StartSpanFromSQSMessage(ctx context.Context, msg types.Message) (context.Context, trace.Span) {
	// Extract trace context from SQS message attributes
	carrier := sqsCarrier{attrs: msg.MessageAttributes}
	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)

	tracer := otel.Tracer("sqs-worker")
	ctx, span := tracer.Start(ctx, "process_message",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "aws_sqs"),
			attribute.String("messaging.message_id", aws.ToString(msg.MessageId)),
		),
	)

	if count, ok := msg.Attributes["ApproximateReceiveCount"]; ok {
		span.SetAttributes(attribute.String("messaging.aws_sqs.receive_count", count))
	}

	// Events carry the employee they concern; tag the span when the body parses.
	if msg.Body != nil {
		var payload struct {
			EventID    string `json:"eventId"`
			Kind       string `json:"kind"`
			EmployeeID int64  `json:"employeeId"`
		}
		if err := json.Unmarshal([]byte(*msg.Body), &payload); err == nil {
			if payload.EventID != "" {
				span.SetAttributes(attribute.String("messaging.event_id", payload.EventID), attribute.String("app.event_kind", payload.Kind))
			}
			if payload.EmployeeID != 0 {
				span.SetAttributes(attribute.Int64("app.employee_id", payload.EmployeeID))
				ctx = WithEmployeeID(ctx, payload.EmployeeID)
			}
		}
	}
	return ctx, span
}

// WithEmployeeID stores the employee the current unit of work is about.
func WithEmployeeID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, EmployeeIDKey, id)
}

// GetEmployeeIDFromContext retrieves the employee ID from the context, or 0.
func GetEmployeeIDFromContext(ctx context.Context) int64 {
	if val, ok := ctx.Value(EmployeeIDKey).(int64); ok {
		return val
	}
	return 0
}

// InjectTraceContext injects the current trace context into SQS message attributes.
func InjectTraceContext(ctx context.Context) map[string]types.MessageAttributeValue {
	attrs := make(map[string]types.MessageAttributeValue)
	carrier := sqsCarrier{attrs: attrs}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return attrs
}

// sqsCarrier implements propagation.TextMapCarrier to extract trace context from SQS attributes.
type sqsCarrier struct {
	attrs map[string]types.MessageAttributeValue
}

func (c sqsCarrier) Get(key string) string {
	if attr, ok := c.attrs[key]; ok && attr.StringValue != nil {
		return *attr.StringValue
	}
	return ""
}

func (c sqsCarrier) Set(key string, value string) {
	c.attrs[key] = types.MessageAttributeValue{
		DataType:    aws.String("String"),
		StringValue: aws.String(value),
	}
}

func (c sqsCarrier) Keys() []string {
	keys := make([]string, 0, len(c.attrs))
	for k := range c.attrs {
		keys = append(keys, k)
	}
	return keys
}
