package strategist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dacv/strategist/internal/model"
)

// ErrEmptyCompletion is returned when the model produced no usable content.
var ErrEmptyCompletion = errors.New("empty completion")

// Completer turns a prompt into the model-authored part of a strategy.
type Completer interface {
	Complete(ctx context.Context, prompt string) (*model.Draft, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (*model.Draft, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (*model.Draft, error) {
	return f(ctx, prompt)
}

const systemPrompt = "You are a senior marketing strategist. Reply with a single JSON object " +
	`with exactly three keys: "social_media", "seo" and "content". Each value is an object.`

// OpenAICompleter asks an OpenAI chat model for a JSON draft.
type OpenAICompleter struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// OpenAIConfig configures an OpenAICompleter.
type OpenAIConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	HTTP      *http.Client
}

// NewOpenAICompleter builds a completer from cfg. Empty fields fall back to
// the client library defaults.
func NewOpenAICompleter(cfg OpenAIConfig) *OpenAICompleter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTP != nil {
		clientCfg.HTTPClient = cfg.HTTP
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1500
	}
	return &OpenAICompleter{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     modelName,
		maxTokens: maxTokens,
	}
}

// Complete implements Completer.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (*model.Draft, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: c.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}
	return ParseDraft(resp.Choices[0].Message.Content)
}

// ParseDraft decodes a model reply into a Draft. Replies wrapped in a
// markdown code fence are accepted. Missing sections become empty objects.
func ParseDraft(content string) (*model.Draft, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyCompletion
	}

	var draft model.Draft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return nil, fmt.Errorf("failed to decode completion: %w", err)
	}
	if draft.SocialMedia == nil {
		draft.SocialMedia = map[string]any{}
	}
	if draft.SEO == nil {
		draft.SEO = map[string]any{}
	}
	if draft.Content == nil {
		draft.Content = map[string]any{}
	}
	return &draft, nil
}
