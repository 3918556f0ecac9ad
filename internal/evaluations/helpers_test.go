package evaluations

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"evaluator-backend/internal/evaluation"
	"evaluator-backend/internal/llm"
	"evaluator-backend/internal/questions"
	"evaluator-backend/internal/queue"
	"evaluator-backend/internal/shared/storage/object/local"
)

const testSet = "brevity"

var testNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

// fakeLLM answers by the passage embedded in the first turn.
type fakeLLM struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	calls   int
}

func (f *fakeLLM) Complete(ctx context.Context, conversation []llm.Turn) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	first := conversation[0].Content
	for passage, err := range f.errs {
		if strings.Contains(first, "<<<\n"+passage+"\n>>>") {
			return "", err
		}
	}
	for passage, text := range f.replies {
		if strings.Contains(first, "<<<\n"+passage+"\n>>>") {
			return text, nil
		}
	}
	return "", errors.New("no reply scripted")
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeQueue struct {
	mu   sync.Mutex
	sent []queue.Message
	err  error
}

func (q *fakeQueue) Send(_ context.Context, msg queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.sent = append(q.sent, msg)
	return nil
}

func newTestService(t *testing.T, client llm.Client) (*Service, *local.Store) {
	t.Helper()
	engine, err := evaluation.New(client, "openai",
		evaluation.WithLogger(zaptest.NewLogger(t)),
		evaluation.WithClock(func() time.Time { return testNow }),
	)
	require.NoError(t, err)

	reg := questions.NewRegistry()
	reg.Register(questions.MustNew(testSet, []string{"IS IT CONCISE?", "IS IT CLEAR?"}))

	store := local.New(t.TempDir())
	return &Service{
		Repo:     NewMemoryRepo(),
		Engine:   engine,
		Registry: reg,
		Store:    store,
		Model:    "gpt-4o-mini",
		Now:      func() time.Time { return testNow },
	}, store
}

const acceptedReply = `{"0":{"score":96,"quotation":"Brief.","explanation":"tight"},"1":{"score":98,"quotation":"Plain.","explanation":"clear"}}`
