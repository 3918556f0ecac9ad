package gemini

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"evaluator-backend/internal/llm"
)

func TestNewClientMissingKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", llm.Settings{})
	if !errors.Is(err, llm.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestToContentsMapsRoles(t *testing.T) {
	contents := toContents([]llm.Turn{
		{Role: llm.RoleUser, Content: "prompt"},
		{Role: llm.RoleAssistant, Content: "reply"},
	})
	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	if contents[0].Role != string(genai.RoleUser) || contents[1].Role != string(genai.RoleModel) {
		t.Fatalf("unexpected roles %q %q", contents[0].Role, contents[1].Role)
	}
	if contents[1].Parts[0].Text != "reply" {
		t.Fatalf("unexpected text %q", contents[1].Parts[0].Text)
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(context.Background(), "test-key", llm.Settings{BaseURL: srv.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestCompleteReturnsCandidateText(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":" {\"0\":{\"score\":97}} "}]}}]}`))
	})

	text, err := client.Complete(context.Background(), []llm.Turn{{Role: llm.RoleUser, Content: "prompt"}})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != `{"0":{"score":97}}` {
		t.Fatalf("unexpected text %q", text)
	}
	if !strings.Contains(gotPath, defaultModel+":generateContent") {
		t.Fatalf("unexpected path %q", gotPath)
	}
}

func TestCompleteWrapsServerErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`))
	})

	_, err := client.Complete(context.Background(), []llm.Turn{{Role: llm.RoleUser, Content: "prompt"}})
	if !errors.Is(err, llm.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestCompleteEmptyCandidate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := client.Complete(context.Background(), []llm.Turn{{Role: llm.RoleUser, Content: "prompt"}})
	if !errors.Is(err, llm.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}
