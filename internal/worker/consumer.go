package worker

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"workclock.service/pkg/logger"
	"workclock.service/pkg/telemetry"
)

// The receive count drives retry backoff.
var systemAttributes = []types.MessageSystemAttributeName{
	types.MessageSystemAttributeNameApproximateReceiveCount,
}

type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

// Processor handles one queue message. A non-nil error with shouldRetry set
// makes the message visible again after retryDelay seconds.
type Processor interface {
	Process(ctx context.Context, msg types.Message) (shouldRetry bool, retryDelay int32, err error)
}

// Worker polls one SQS queue and fans messages out to a Processor.
type Worker struct {
	client    SQSClient
	queueURL  string
	processor Processor

	Concurrency int
	// WaitTimeSeconds is the long-poll duration per receive call.
	WaitTimeSeconds int32
	// ErrorBackoff is how long the poller sleeps after a failed receive.
	ErrorBackoff time.Duration
}

func NewWorker(client SQSClient, url string, proc Processor) *Worker {
	return &Worker{
		client:          client,
		queueURL:        url,
		processor:       proc,
		Concurrency:     10,
		WaitTimeSeconds: 20,
		ErrorBackoff:    5 * time.Second,
	}
}

// Start polls until ctx is canceled, then waits for in-flight messages.
func (w *Worker) Start(ctx context.Context) {
	log.Info().Int("concurrency", w.Concurrency).Str("queue", w.queueURL).Msg("SQS Worker started. Polling for messages...")

	messagesCh := make(chan types.Message, w.Concurrency)

	var wg sync.WaitGroup
	wg.Add(w.Concurrency)
	for i := 0; i < w.Concurrency; i++ {
		go func() {
			defer wg.Done()
			w.processMessages(ctx, messagesCh)
		}()
	}

	w.pollMessages(ctx, messagesCh)
	wg.Wait()
	log.Info().Msg("SQS Worker stopped")
}

func (w *Worker) pollMessages(ctx context.Context, messagesCh chan<- types.Message) {
	defer close(messagesCh)

	for {
		if ctx.Err() != nil {
			log.Info().Msg("Poller shutting down...")
			return
		}

		output, err := w.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:                    &w.queueURL,
			MaxNumberOfMessages:         int32(w.Concurrency),
			WaitTimeSeconds:             w.WaitTimeSeconds,
			MessageAttributeNames:       []string{"All"},
			MessageSystemAttributeNames: systemAttributes,
		})
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Msg("Error receiving messages")
			select {
			case <-ctx.Done():
			case <-time.After(w.ErrorBackoff):
			}
			continue
		}
		if len(output.Messages) > 0 {
			log.Debug().Int("count", len(output.Messages)).Msg("Received messages")
		}
		for _, msg := range output.Messages {
			messagesCh <- msg
		}
	}
}

func (w *Worker) processMessages(ctx context.Context, messagesCh <-chan types.Message) {
	for msg := range messagesCh {
		// Messages already pulled off the queue are finished even during shutdown.
		w.handleSingleMessage(context.WithoutCancel(ctx), msg)
	}
}

// handleSingleMessage deletes the message on success, shortens its visibility
// for a retry, or leaves it for the redrive policy when it cannot be processed.
func (w *Worker) handleSingleMessage(ctx context.Context, msg types.Message) {
	ctx, span := telemetry.StartSpanFromSQSMessage(ctx, msg)
	defer span.End()

	ctx = logger.EnrichContextWithLogger(ctx)

	shouldRetry, retryDelay, err := w.processor.Process(ctx, msg)

	if err != nil && shouldRetry {
		log.Ctx(ctx).Warn().Err(err).Int32("retry_delay", retryDelay).Msg("Processing failed, will retry")

		_, verr := w.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
			QueueUrl:          &w.queueURL,
			ReceiptHandle:     msg.ReceiptHandle,
			VisibilityTimeout: retryDelay,
		})
		if verr != nil {
			log.Ctx(ctx).Error().Err(verr).Msg("Failed to change message visibility")
		}
		return
	}

	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Unrecoverable error processing message, will not retry")
		return
	}

	if _, derr := w.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &w.queueURL,
		ReceiptHandle: msg.ReceiptHandle,
	}); derr != nil {
		log.Ctx(ctx).Error().Err(derr).Msg("Failed to delete message")
	}
}
