package queue

import (
	"encoding/json"
	"time"
)

// MessageVersion is the current payload schema version.
const MessageVersion = 1

// Message asks a worker to process one persisted evaluation.
type Message struct {
	EvaluationID string `json:"evaluationId"`
	RequestID    string `json:"requestId"`
	EnqueuedAt   string `json:"enqueuedAt"`
	Version      int    `json:"version"`
}

// NewMessage stamps a message for the given evaluation.
func NewMessage(evaluationID, requestID string, now time.Time) Message {
	return Message{
		EvaluationID: evaluationID,
		RequestID:    requestID,
		EnqueuedAt:   now.UTC().Format(time.RFC3339),
		Version:      MessageVersion,
	}
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
