package workerproc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evaluator-backend/internal/evaluations"
	"evaluator-backend/internal/queue"
)

type fakeSQS struct {
	mu       sync.Mutex
	batches  [][]sqstypes.Message
	deleted  []string
	received []*sqs.ReceiveMessageInput
	failures int
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	f.received = append(f.received, params)
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return nil, errors.New("AWS.SimpleQueueService.NonExistentQueue")
	}
	if len(f.batches) > 0 {
		batch := f.batches[0]
		f.batches = f.batches[1:]
		f.mu.Unlock()
		return &sqs.ReceiveMessageOutput{Messages: batch}, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeSQS) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) deletedHandles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type fakeProcessor struct {
	mu   sync.Mutex
	err  error
	seen []string
}

func (f *fakeProcessor) ProcessEvaluation(_ context.Context, evaluationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, evaluationID)
	return f.err
}

func sqsMessage(t *testing.T, n int, msg queue.Message) sqstypes.Message {
	t.Helper()
	body, err := queue.EncodeMessage(msg)
	require.NoError(t, err)
	return sqstypes.Message{
		MessageId:     aws.String(fmt.Sprintf("m%d", n)),
		ReceiptHandle: aws.String(fmt.Sprintf("r%d", n)),
		Body:          aws.String(string(body)),
		Attributes:    map[string]string{"ApproximateReceiveCount": "1"},
	}
}

func TestHandleDeletesMessageOnSuccess(t *testing.T) {
	client := &fakeSQS{}
	proc := &fakeProcessor{}
	p := &Poller{API: client, QueueURL: "queue", Processor: proc}

	p.Handle(context.Background(), sqsMessage(t, 1, queue.Message{EvaluationID: "eval-1", RequestID: "req-1"}))

	assert.Equal(t, []string{"r1"}, client.deletedHandles())
	assert.Equal(t, []string{"eval-1"}, proc.seen)
}

func TestHandleKeepsMessageOnFailure(t *testing.T) {
	client := &fakeSQS{}
	p := &Poller{API: client, QueueURL: "queue", Processor: &fakeProcessor{err: errors.New("database down")}}

	p.Handle(context.Background(), sqsMessage(t, 2, queue.Message{EvaluationID: "eval-2"}))

	assert.Empty(t, client.deletedHandles())
}

func TestHandleDeletesUnrecoverableMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
	}{
		{name: "invalid json", body: "{bad-json"},
		{name: "empty body", body: "   "},
		{name: "missing id", body: `{"requestId":"req-3"}`},
		{name: "unknown evaluation", body: `{"evaluationId":"gone"}`, err: fmt.Errorf("load: %w", evaluations.ErrNotFound)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeSQS{}
			p := &Poller{API: client, QueueURL: "queue", Processor: &fakeProcessor{err: tc.err}}

			p.Handle(context.Background(), sqstypes.Message{
				MessageId:     aws.String("m3"),
				ReceiptHandle: aws.String("r3"),
				Body:          aws.String(tc.body),
			})

			assert.Equal(t, []string{"r3"}, client.deletedHandles())
		})
	}
}

func TestHandleWithoutReceiptHandle(t *testing.T) {
	client := &fakeSQS{}
	p := &Poller{API: client, QueueURL: "queue", Processor: &fakeProcessor{}}

	msg := sqsMessage(t, 4, queue.Message{EvaluationID: "eval-4"})
	msg.ReceiptHandle = nil
	p.Handle(context.Background(), msg)

	assert.Empty(t, client.deletedHandles())
}

func TestRunProcessesBatchUntilCancelled(t *testing.T) {
	client := &fakeSQS{batches: [][]sqstypes.Message{{
		sqsMessage(t, 1, queue.Message{EvaluationID: "eval-1"}),
		sqsMessage(t, 2, queue.Message{EvaluationID: "eval-2"}),
	}}}
	proc := &fakeProcessor{}
	p := &Poller{API: client, QueueURL: "queue", Processor: proc, Concurrency: 2, VisibilitySeconds: 60, WaitSeconds: 1, ShutdownTimeout: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(client.deletedHandles()) == 2 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}

	assert.ElementsMatch(t, []string{"r1", "r2"}, client.deletedHandles())
	client.mu.Lock()
	first := client.received[0]
	client.mu.Unlock()
	assert.Equal(t, int32(60), first.VisibilityTimeout)
	assert.Equal(t, int32(10), first.MaxNumberOfMessages)
}

func TestReceiveCount(t *testing.T) {
	assert.Equal(t, 0, receiveCount(sqstypes.Message{}))
	assert.Equal(t, 3, receiveCount(sqstypes.Message{Attributes: map[string]string{"ApproximateReceiveCount": "3"}}))
	assert.Equal(t, 0, receiveCount(sqstypes.Message{Attributes: map[string]string{"ApproximateReceiveCount": "x"}}))
}

func TestRunBacksOffAfterReceiveErrors(t *testing.T) {
	client := &fakeSQS{failures: 100}
	p := &Poller{API: client, QueueURL: "queue", Processor: &fakeProcessor{}, ReceiveBackoff: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return len(client.received) >= 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop during backoff")
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Len(t, client.received, 1)
}
