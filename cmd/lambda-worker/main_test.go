package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"

	"evaluator-backend/internal/evaluations"
)

type fakeProcessor struct {
	errs map[string]error
}

func (f fakeProcessor) ProcessEvaluation(_ context.Context, id string) error {
	return f.errs[id]
}

func TestProcessBatchReportsOnlyRetryableFailures(t *testing.T) {
	proc := fakeProcessor{errs: map[string]error{
		"eval-retry": errors.New("connection reset"),
		"eval-gone":  evaluations.ErrNotFound,
	}}
	event := events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "ok", Body: `{"evaluationId":"eval-ok"}`},
		{MessageId: "retry", Body: `{"evaluationId":"eval-retry"}`},
		{MessageId: "gone", Body: `{"evaluationId":"eval-gone"}`},
		{MessageId: "junk", Body: `not json`},
	}}

	resp := processBatch(context.Background(), proc, event)

	assert.Equal(t, []events.SQSBatchItemFailure{{ItemIdentifier: "retry"}}, resp.BatchItemFailures)
}
