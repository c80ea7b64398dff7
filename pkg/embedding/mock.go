package embedding

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	vec, _ := args.Get(0).([]float32)
	return vec, args.Error(1)
}

type MockEmbeddingProvider struct {
	mock.Mock
}

func (m *MockEmbeddingProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	args := m.Called(ctx, text, taskType)
	res, _ := args.Get(0).(*EmbeddingResponse)
	return res, args.Error(1)
}
