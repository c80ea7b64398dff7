package factory

import (
	"fmt"

	"flowershop-chat-be/pkg/llm"
	"flowershop-chat-be/pkg/llm/huggingface"
	"flowershop-chat-be/pkg/llm/ollama"
	"flowershop-chat-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	case "openrouter":
		if apiKey == "" {
			return nil, fmt.Errorf("openrouter provider requires an API key")
		}
		return openai.NewOpenRouterProvider(apiKey, modelName), nil
	case "openai":
		return openai.NewProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
