package evaluation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"evaluator-backend/internal/llm"
)

// scriptedClient replays one reply (or error) per call and records every conversation it was sent.
type scriptedClient struct {
	mu      sync.Mutex
	replies []scriptedReply
	calls   [][]llm.Turn
}

type scriptedReply struct {
	text string
	err  error
}

func reply(text string) scriptedReply { return scriptedReply{text: text} }

func failure(err error) scriptedReply { return scriptedReply{err: err} }

func (c *scriptedClient) Complete(ctx context.Context, conversation []llm.Turn) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, llm.Clone(conversation))
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(c.replies) == 0 {
		return "", errors.New("scripted client exhausted")
	}
	next := c.replies[0]
	c.replies = c.replies[1:]
	return next.text, next.err
}

func (c *scriptedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// passageClient answers by passage so concurrent runs stay deterministic.
type passageClient struct {
	mu     sync.Mutex
	byText map[string]string
	fail   map[string]error
	calls  int
}

func (c *passageClient) Complete(_ context.Context, conversation []llm.Turn) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	first := conversation[0].Content
	for passage, err := range c.fail {
		if containsPassage(first, passage) {
			return "", err
		}
	}
	for passage, text := range c.byText {
		if containsPassage(first, passage) {
			return text, nil
		}
	}
	return "", errors.New("no scripted reply")
}

func containsPassage(prompt, passage string) bool {
	return passage != "" && strings.Contains(prompt, "<<<\n"+passage+"\n>>>")
}
