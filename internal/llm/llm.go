package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a provider conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Client sends a conversation to a text-generation provider and returns the raw reply text.
// Implementations issue exactly one request per call and never retry.
type Client interface {
	Complete(ctx context.Context, conversation []Turn) (string, error)
}

var (
	// ErrProviderUnavailable wraps every non-success response, transport failure or timeout.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrMissingCredential is returned by constructors when no API key is configured.
	ErrMissingCredential = errors.New("provider credential missing")
)

const (
	DefaultMaxTokens   = 4000
	DefaultTemperature = float32(0.1)
	DefaultTimeout     = 30 * time.Second
)

// Settings are the generation parameters shared by all providers.
type Settings struct {
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// WithDefaults fills zero values with the package defaults.
func (s Settings) WithDefaults() Settings {
	if s.MaxTokens <= 0 {
		s.MaxTokens = DefaultMaxTokens
	}
	if s.Temperature < 0 {
		s.Temperature = DefaultTemperature
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	s.Model = strings.TrimSpace(s.Model)
	s.BaseURL = strings.TrimSpace(s.BaseURL)
	return s
}

// Clone returns a copy of the conversation so callers can keep appending safely.
func Clone(conversation []Turn) []Turn {
	out := make([]Turn, len(conversation))
	copy(out, conversation)
	return out
}

// HashConversation returns a stable sha256 of the conversation text.
func HashConversation(conversation []Turn) string {
	var b strings.Builder
	for i, t := range conversation {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(string(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
