package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"flowershop-chat-be/internal/dto"
	"flowershop-chat-be/internal/pkg/logger"
	"flowershop-chat-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testTopic = "INGEST_TEST"

func startConsumer(t *testing.T, embedder embedding.Embedder) (IPublisherService, *memCatalogRepo) {
	t.Helper()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	repo := &memCatalogRepo{}
	ingestion := NewIngestionService(&memRepositoryFactory{repo: repo}, embedder, nil, logger.NewNopLogger())
	consumer := NewConsumerService(pubSub, testTopic, ingestion, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, consumer.Consume(ctx))

	return NewPublisherService(testTopic, pubSub), repo
}

func TestConsumer_IngestsQueuedRecord(t *testing.T) {
	embedder := &embedding.MockEmbedder{}
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.5}, nil)
	publisher, repo := startConsumer(t, embedder)

	price := "250k"
	payload, err := json.Marshal(dto.PublishIngestRecordMessage{Record: dto.RawCatalogRecord{Url: "u1", Title: "Orchid", Price: &price}})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(context.Background(), payload))

	assert.Eventually(t, func() bool { return len(repo.stored()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "Orchid", repo.stored()[0].Title)
}

func TestConsumer_InvalidPayloadIsDropped(t *testing.T) {
	embedder := &embedding.MockEmbedder{}
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.5}, nil)
	publisher, repo := startConsumer(t, embedder)

	require.NoError(t, publisher.Publish(context.Background(), []byte("not json")))

	valid, _ := json.Marshal(dto.PublishIngestRecordMessage{Record: dto.RawCatalogRecord{Url: "u2"}})
	require.NoError(t, publisher.Publish(context.Background(), valid))

	assert.Eventually(t, func() bool { return len(repo.stored()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "u2", repo.stored()[0].Url)
}

type flakyEmbedder struct {
	badCalls  atomic.Int32
	goodCalls atomic.Int32
}

func (e *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.Contains(text, "URL: bad ") {
		e.badCalls.Add(1)
		return nil, errors.New("provider down")
	}
	e.goodCalls.Add(1)
	return []float32{1}, nil
}

func TestConsumer_GivesUpAfterMaxAttempts(t *testing.T) {
	embedder := &flakyEmbedder{}
	publisher, repo := startConsumer(t, embedder)

	bad, _ := json.Marshal(dto.PublishIngestRecordMessage{Record: dto.RawCatalogRecord{Url: "bad"}})
	good, _ := json.Marshal(dto.PublishIngestRecordMessage{Record: dto.RawCatalogRecord{Url: "good"}})
	require.NoError(t, publisher.Publish(context.Background(), bad))
	require.NoError(t, publisher.Publish(context.Background(), good))

	assert.Eventually(t, func() bool {
		return len(repo.stored()) == 1 && embedder.badCalls.Load() == maxDeliveryAttempts
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "good", repo.stored()[0].Url)

	// no redelivery past the cap
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(maxDeliveryAttempts), embedder.badCalls.Load())
	assert.Equal(t, int32(1), embedder.goodCalls.Load())
}
