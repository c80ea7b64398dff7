package huggingface

import (
	"context"

	"flowershop-chat-be/pkg/llm"
	"flowershop-chat-be/pkg/llm/openai"
)

// RouterBaseURL is the OpenAI-compatible Inference Providers router.
const RouterBaseURL = "https://router.huggingface.co/v1"

const defaultMaxTokens = 500

// HuggingFaceProvider talks to the HF router through the OpenAI-compatible
// client. Replies are capped at defaultMaxTokens unless the caller passes
// llm.WithMaxTokens.
type HuggingFaceProvider struct {
	inner *openai.Provider
}

var _ llm.LLMProvider = &HuggingFaceProvider{}

func NewHuggingFaceProvider(apiKey, baseURL, model string) *HuggingFaceProvider {
	if baseURL == "" {
		baseURL = RouterBaseURL
	}
	return &HuggingFaceProvider{inner: openai.NewProvider(apiKey, baseURL, model)}
}

func (p *HuggingFaceProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := append([]llm.Option{llm.WithMaxTokens(defaultMaxTokens)}, options...)
	return p.inner.Chat(ctx, history, opts...)
}

func (p *HuggingFaceProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}
