package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"unicode/utf8"

	"evaluator-backend/internal/llm"
)

var apiURL = "https://api.openai.com/v1/chat/completions"

// Client implements llm.Client using the Chat Completions API. Any OpenAI-compatible
// endpoint (DeepSeek, Perplexity, local gateways) works through Settings.BaseURL.
type Client struct {
	apiKey     string
	settings   llm.Settings
	endpoint   string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client. A missing key fails before any request is made.
func NewClient(apiKey string, settings llm.Settings) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is required", llm.ErrMissingCredential)
	}
	settings = settings.WithDefaults()
	if settings.Model == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	endpoint := apiURL
	if settings.BaseURL != "" {
		endpoint = strings.TrimRight(settings.BaseURL, "/") + "/chat/completions"
	}
	return &Client{
		apiKey:   apiKey,
		settings: settings,
		endpoint: endpoint,
		// Per-call deadlines come from the request context.
		httpClient: &http.Client{},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	MaxTokens           int           `json:"max_tokens,omitempty"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
	Temperature         *float32      `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends the conversation and returns the first choice's message content.
func (c *Client) Complete(ctx context.Context, conversation []llm.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()

	payload, err := json.Marshal(c.buildRequest(conversation))
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: openai request timeout after %s", llm.ErrProviderUnavailable, c.settings.Timeout)
		}
		return "", fmt.Errorf("%w: openai request: %v", llm.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: openai read body: %v", llm.ErrProviderUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: openai http status %d: %s", llm.ErrProviderUnavailable, resp.StatusCode, truncate(string(body), 300))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: openai response parse: %v", llm.ErrProviderUnavailable, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: openai error: %s (%s)", llm.ErrProviderUnavailable, parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: openai response missing choices", llm.ErrProviderUnavailable)
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: openai response empty content", llm.ErrProviderUnavailable)
	}
	return content, nil
}

func (c *Client) buildRequest(conversation []llm.Turn) chatRequest {
	messages := make([]chatMessage, 0, len(conversation))
	for _, t := range conversation {
		messages = append(messages, chatMessage{Role: string(t.Role), Content: t.Content})
	}
	req := chatRequest{
		Model:    c.settings.Model,
		Messages: messages,
	}
	// gpt-5 family rejects max_tokens and non-default temperature.
	if isGPT5(c.settings.Model) {
		req.MaxCompletionTokens = c.settings.MaxTokens
	} else {
		req.MaxTokens = c.settings.MaxTokens
	}
	if !omitTemperature(c.settings.Model) {
		temp := c.settings.Temperature
		req.Temperature = &temp
	}
	return req
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func omitTemperature(model string) bool {
	if isGPT5(model) {
		return true
	}
	normalized := strings.ToLower(strings.TrimSpace(model))
	for _, m := range strings.Split(os.Getenv("LLM_NO_TEMP_MODELS"), ",") {
		if strings.ToLower(strings.TrimSpace(m)) == normalized && normalized != "" {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

var _ llm.Client = (*Client)(nil)
