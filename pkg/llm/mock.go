package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockLLMProvider struct {
	mock.Mock
}

func (m *MockLLMProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	args := m.Called(ctx, history)
	return args.String(0), args.Error(1)
}

func (m *MockLLMProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
