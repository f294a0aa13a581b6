package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	mu         sync.Mutex
	batches    [][]types.Message
	inputs     []*sqs.ReceiveMessageInput
	deleted    []string
	visibility map[string]int32
}

func (q *fakeQueue) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	q.mu.Lock()
	q.inputs = append(q.inputs, params)
	if len(q.batches) > 0 {
		batch := q.batches[0]
		q.batches = q.batches[1:]
		q.mu.Unlock()
		return &sqs.ReceiveMessageOutput{Messages: batch}, nil
	}
	q.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (q *fakeQueue) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (q *fakeQueue) ChangeMessageVisibility(_ context.Context, params *sqs.ChangeMessageVisibilityInput, _ ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.visibility[aws.ToString(params.ReceiptHandle)] = params.VisibilityTimeout
	return &sqs.ChangeMessageVisibilityOutput{}, nil
}

type outcome struct {
	retry bool
	delay int32
	err   error
}

// scriptedProcessor answers by message body and signals each call on done.
type scriptedProcessor struct {
	outcomes map[string]outcome
	done     chan string
}

func (p *scriptedProcessor) Process(_ context.Context, msg types.Message) (bool, int32, error) {
	o := p.outcomes[aws.ToString(msg.Body)]
	p.done <- aws.ToString(msg.Body)
	return o.retry, o.delay, o.err
}

func message(body string) types.Message {
	return types.Message{Body: aws.String(body), ReceiptHandle: aws.String("rh-" + body)}
}

func TestWorkerDispatchesOutcomes(t *testing.T) {
	queue := &fakeQueue{
		batches:    [][]types.Message{{message("ok"), message("retry"), message("bad")}},
		visibility: map[string]int32{},
	}
	proc := &scriptedProcessor{
		outcomes: map[string]outcome{
			"retry": {retry: true, delay: 40, err: errors.New("ses down")},
			"bad":   {err: errors.New("malformed")},
		},
		done: make(chan string, 3),
	}

	w := NewWorker(queue, "http://localhost/queue", proc)
	w.Concurrency = 2

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(stopped)
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-proc.done:
		case <-time.After(5 * time.Second):
			t.Fatal("messages were not processed")
		}
	}
	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}

	queue.mu.Lock()
	defer queue.mu.Unlock()
	assert.Equal(t, []string{"rh-ok"}, queue.deleted)
	assert.Equal(t, map[string]int32{"rh-retry": 40}, queue.visibility)

	require.NotEmpty(t, queue.inputs)
	in := queue.inputs[0]
	assert.Equal(t, int32(2), in.MaxNumberOfMessages)
	assert.Equal(t, []string{"All"}, in.MessageAttributeNames)
	assert.Contains(t, in.MessageSystemAttributeNames, types.MessageSystemAttributeNameApproximateReceiveCount)
}
