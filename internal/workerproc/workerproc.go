// Package workerproc decodes evaluation queue messages and hands them to a processor.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"evaluator-backend/internal/evaluations"
	"evaluator-backend/internal/queue"
)

// Processor runs a persisted evaluation. *evaluations.Service satisfies it.
type Processor interface {
	ProcessEvaluation(ctx context.Context, evaluationID string) error
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingEvaluationID indicates a message without an evaluation id.
type ErrMissingEvaluationID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingEvaluationID) Error() string { return "missing evaluation id" }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	EvaluationID string
	RequestID    string
	Err          error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process evaluation"
	}
	return "process evaluation: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Unrecoverable reports whether redelivering the message can never succeed.
func Unrecoverable(err error) bool {
	var empty ErrEmptyBody
	var decode ErrDecode
	var missing ErrMissingEvaluationID
	return errors.As(err, &empty) || errors.As(err, &decode) || errors.As(err, &missing) ||
		errors.Is(err, evaluations.ErrNotFound)
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.EvaluationID) == "" {
		return msg, meta, ErrMissingEvaluationID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// HandleMessage parses, validates, and processes a message payload.
func HandleMessage(ctx context.Context, processor Processor, body string) error {
	if processor == nil {
		return errors.New("evaluation processor not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}

	if strings.TrimSpace(msg.EvaluationID) == "" {
		return ErrMissingEvaluationID{Meta: ComputeMeta(body), RequestID: msg.RequestID}
	}

	ctxWithRequest := evaluations.WithRequestID(ctx, msg.RequestID)
	if err := processor.ProcessEvaluation(ctxWithRequest, msg.EvaluationID); err != nil {
		return ErrProcess{EvaluationID: msg.EvaluationID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}
