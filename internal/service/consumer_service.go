package service

import (
	"context"
	"encoding/json"
	"sync"

	"flowershop-chat-be/internal/dto"
	"flowershop-chat-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	consumerModule = "ConsumerService"

	// gochannel redelivers a nacked message immediately; past this many
	// attempts the record is dropped and logged.
	maxDeliveryAttempts = 3
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	ingestion  IIngestionService
	logger     logger.ILogger

	mu       sync.Mutex
	attempts map[string]int
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	ingestion IIngestionService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		ingestion:  ingestion,
		logger:     log,
		attempts:   make(map[string]int),
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestRecordMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		// invalid payloads are acked, retrying cannot fix them
		msg.Ack()
		return
	}

	report, err := cs.ingestion.Ingest(ctx, []dto.RawCatalogRecord{payload.Record}, nil)
	if err != nil {
		attempt := cs.recordAttempt(msg.UUID)
		cs.logger.Error(consumerModule, "Failed to ingest catalog record", map[string]interface{}{
			"message_id": msg.UUID,
			"url":        payload.Record.Url,
			"attempt":    attempt,
			"error":      err.Error(),
		})
		if attempt >= maxDeliveryAttempts {
			cs.forget(msg.UUID)
			msg.Ack()
			return
		}
		msg.Nack()
		return
	}

	cs.forget(msg.UUID)
	cs.logger.Info(consumerModule, "Catalog record processed", map[string]interface{}{
		"message_id": msg.UUID,
		"url":        payload.Record.Url,
		"indexed":    report.Indexed,
		"skipped":    report.Skipped,
	})
	msg.Ack()
}

func (cs *consumerService) recordAttempt(id string) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.attempts[id]++
	return cs.attempts[id]
}

func (cs *consumerService) forget(id string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.attempts, id)
}
