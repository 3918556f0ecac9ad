package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"evaluator-backend/internal/llm"
)

const defaultModel = "gemini-2.5-flash"

// Client implements llm.Client over the Gemini API.
type Client struct {
	client   *genai.Client
	settings llm.Settings
}

// NewClient creates a Gemini-backed client. A missing key fails before any request is made.
func NewClient(ctx context.Context, apiKey string, settings llm.Settings) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is required", llm.ErrMissingCredential)
	}
	settings = settings.WithDefaults()
	if settings.Model == "" {
		settings.Model = defaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if settings.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: settings.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, settings: settings}, nil
}

// Complete sends the conversation and returns the concatenated text of the first candidate.
func (c *Client) Complete(ctx context.Context, conversation []llm.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.settings.Model, toContents(conversation), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.settings.Temperature),
		MaxOutputTokens: int32(c.settings.MaxTokens),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: gemini request timeout after %s", llm.ErrProviderUnavailable, c.settings.Timeout)
		}
		return "", fmt.Errorf("%w: gemini generate: %v", llm.ErrProviderUnavailable, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: gemini response empty content", llm.ErrProviderUnavailable)
	}
	return text, nil
}

// toContents maps conversation roles onto Gemini's user/model roles.
func toContents(conversation []llm.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(conversation))
	for _, t := range conversation {
		var role genai.Role = genai.RoleUser
		if t.Role == llm.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}
	return contents
}

var _ llm.Client = (*Client)(nil)
