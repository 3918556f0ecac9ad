package queue

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidMessage is returned by Send for a message no worker could act on.
var ErrInvalidMessage = errors.New("invalid queue message")

// Client enqueues evaluation work for a worker. Delivery is at-least-once; workers
// must tolerate a message for an evaluation that is already running or finished.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, msg Message) error

// Send calls f after validating msg.
func (f ClientFunc) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	return f(ctx, msg)
}

// Validate checks that msg names an evaluation and a supported schema version.
func (m Message) Validate() error {
	if strings.TrimSpace(m.EvaluationID) == "" {
		return errors.Join(ErrInvalidMessage, errors.New("evaluation id is empty"))
	}
	if m.Version > MessageVersion {
		return errors.Join(ErrInvalidMessage, errors.New("unsupported message version"))
	}
	return nil
}
