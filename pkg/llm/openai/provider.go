package openai

import (
	"context"
	"errors"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"flowershop-chat-be/pkg/llm"
)

const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// Provider serves any OpenAI-compatible chat completions API. OpenRouter is
// the default deployment target.
type Provider struct {
	client      *goopenai.Client
	model       string
	temperature float64
}

var _ llm.LLMProvider = &Provider{}

func NewProvider(apiKey, baseURL, model string) *Provider {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Provider{
		client:      goopenai.NewClientWithConfig(cfg),
		model:       model,
		temperature: 0.7,
	}
}

// NewOpenRouterProvider points the client at OpenRouter.
func NewOpenRouterProvider(apiKey, model string) *Provider {
	return NewProvider(apiKey, OpenRouterBaseURL, model)
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := &llm.Options{
		Temperature: p.temperature,
		Model:       p.model,
	}
	for _, o := range options {
		o(opts)
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    toOpenAIRole(m.Role),
			Content: m.Content,
		})
	}

	req := goopenai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: float32(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("chat completion api error (status %d): %s: %w", apiErr.HTTPStatusCode, apiErr.Message, err)
		}
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices from chat completion api")
	}

	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func toOpenAIRole(role string) string {
	switch role {
	case llm.RoleSystem:
		return goopenai.ChatMessageRoleSystem
	case llm.RoleAssistant, "model":
		return goopenai.ChatMessageRoleAssistant
	default:
		return goopenai.ChatMessageRoleUser
	}
}
