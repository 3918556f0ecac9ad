package workerproc

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"evaluator-backend/internal/shared/metrics"
	"evaluator-backend/internal/shared/telemetry"
)

// ReceiveDeleter is the part of the SQS API the poller needs. queue.SQSAPI satisfies it.
type ReceiveDeleter interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

const (
	DefaultVisibilitySeconds = 1200
	DefaultConcurrency       = 4
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultReceiveBackoff    = 2 * time.Second
	maxReceiveBackoff        = time.Minute
)

// Poller long-polls an SQS queue and processes messages with bounded concurrency.
// Messages are deleted after successful processing or when they can never succeed;
// anything else is left for redelivery.
type Poller struct {
	API               ReceiveDeleter
	QueueURL          string
	Processor         Processor
	Concurrency       int
	VisibilitySeconds int
	WaitSeconds       int
	ShutdownTimeout   time.Duration
	// ReceiveBackoff is the first pause after a failed receive. It doubles while
	// receives keep failing, up to a minute.
	ReceiveBackoff time.Duration
}

// Run polls until ctx is cancelled, then waits up to ShutdownTimeout for in-flight work.
func (p *Poller) Run(ctx context.Context) {
	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	visibility := p.VisibilitySeconds
	if visibility <= 0 {
		visibility = DefaultVisibilitySeconds
	}
	wait := p.WaitSeconds
	if wait <= 0 {
		wait = 20
	}
	shutdownTimeout := p.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}

	backoff := p.ReceiveBackoff
	if backoff <= 0 {
		backoff = DefaultReceiveBackoff
	}
	pause := backoff

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	telemetry.Info("worker.started", map[string]any{
		"queue_url":   p.QueueURL,
		"concurrency": concurrency,
		"visibility":  visibility,
	})

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := p.API.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:                    aws.String(p.QueueURL),
			MaxNumberOfMessages:         10,
			WaitTimeSeconds:             int32(wait),
			VisibilityTimeout:           int32(visibility),
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{sqstypes.MessageSystemAttributeNameApproximateReceiveCount},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err.Error(), "retry_in": pause.String()})
			select {
			case <-ctx.Done():
				break pollLoop
			case <-time.After(pause):
			}
			pause = min(pause*2, maxReceiveBackoff)
			continue
		}
		pause = backoff

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			metrics.IncWorkerMessage("received")
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				p.Handle(context.WithoutCancel(ctx), m)
			}(msg)
		}
	}

	telemetry.Info("worker.shutdown", map[string]any{"timeout": shutdownTimeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", nil)
	}
}

// Handle processes one message and deletes it when it should not be redelivered.
func (p *Poller) Handle(ctx context.Context, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	decoded, meta, err := ParseMessage(body)
	if err != nil {
		fields := baseFields(msg, "", decoded.RequestID)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		telemetry.Error("worker.evaluation.invalid_message", fields)
		if p.deleteMessage(ctx, msg, "", decoded.RequestID) {
			metrics.IncWorkerMessage("deleted_unrecoverable")
		}
		return
	}

	telemetry.Info("worker.evaluation.received", baseFields(msg, decoded.EvaluationID, decoded.RequestID))

	if err := HandleMessage(WithParsedMessage(ctx, decoded), p.Processor, body); err != nil {
		fields := baseFields(msg, decoded.EvaluationID, decoded.RequestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.evaluation.failed", fields)
		if Unrecoverable(err) {
			if p.deleteMessage(ctx, msg, decoded.EvaluationID, decoded.RequestID) {
				metrics.IncWorkerMessage("deleted_unrecoverable")
			}
			return
		}
		metrics.IncWorkerMessage("failed")
		return
	}

	if p.deleteMessage(ctx, msg, decoded.EvaluationID, decoded.RequestID) {
		telemetry.Info("worker.evaluation.completed", baseFields(msg, decoded.EvaluationID, decoded.RequestID))
		metrics.IncWorkerMessage("completed")
	}
}

func (p *Poller) deleteMessage(ctx context.Context, msg sqstypes.Message, evaluationID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, evaluationID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.evaluation.delete_failed", fields)
		return false
	}
	if _, err := p.API.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(p.QueueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, evaluationID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.evaluation.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, evaluationID, requestID string) map[string]any {
	fields := map[string]any{
		"evaluation_id":  evaluationID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	raw := msg.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}
