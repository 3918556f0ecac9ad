package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"evaluator-backend/internal/bootstrap"
	"evaluator-backend/internal/shared/config"
	"evaluator-backend/internal/shared/metrics"
	"evaluator-backend/internal/shared/telemetry"
	"evaluator-backend/internal/workerproc"
)

var (
	initOnce  sync.Once
	initErr   error
	processor workerproc.Processor
)

func initApp() {
	cfg := config.Load()
	if _, err := telemetry.Init(cfg.Debug); err != nil {
		telemetry.Warn("lambda.logger_init_failed", map[string]any{"error": err.Error()})
	}
	built, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	processor = built.Processor
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	defer telemetry.Sync()
	if initErr != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": initErr.Error()})
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return processBatch(ctx, processor, event), nil
}

// processBatch reports retryable failures back to SQS. Messages that can never succeed are dropped.
func processBatch(ctx context.Context, proc workerproc.Processor, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		metrics.IncWorkerMessage("received")
		err := workerproc.HandleMessage(ctx, proc, record.Body)
		switch {
		case err == nil:
			metrics.IncWorkerMessage("completed")
		case workerproc.Unrecoverable(err):
			telemetry.Error("worker.evaluation.dropped", map[string]any{"sqs_message_id": record.MessageId, "error": err.Error()})
			metrics.IncWorkerMessage("deleted_unrecoverable")
		default:
			telemetry.Error("worker.evaluation.failed", map[string]any{"sqs_message_id": record.MessageId, "error": err.Error()})
			metrics.IncWorkerMessage("failed")
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
