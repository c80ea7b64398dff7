package service

import (
	"context"
	"fmt"
	"time"

	"flowershop-chat-be/internal/dto"
	"flowershop-chat-be/internal/entity"
	"flowershop-chat-be/internal/pkg/logger"
	"flowershop-chat-be/internal/repository/unitofwork"
	"flowershop-chat-be/pkg/embedding"
	"flowershop-chat-be/pkg/events"
	"flowershop-chat-be/pkg/rag"

	"github.com/google/uuid"
)

const ingestionModule = "IngestionService"

type IngestReport struct {
	Received int `json:"received"`
	Indexed  int `json:"indexed"`
	Skipped  int `json:"skipped"`
}

// ProgressFunc is called after each record has been embedded.
type ProgressFunc func(done, total int, record dto.RawCatalogRecord)

type IIngestionService interface {
	Ingest(ctx context.Context, records []dto.RawCatalogRecord, progress ProgressFunc) (*IngestReport, error)
}

type ingestionService struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.Embedder
	publisher  EventPublisher
	logger     logger.ILogger
}

// NewIngestionService expects a document-side embedder
// (embedding.NewDocumentEmbedder). publisher may be nil.
func NewIngestionService(
	uowFactory unitofwork.RepositoryFactory,
	embedder embedding.Embedder,
	publisher EventPublisher,
	log logger.ILogger,
) IIngestionService {
	return &ingestionService{
		uowFactory: uowFactory,
		embedder:   embedder,
		publisher:  publisher,
		logger:     log,
	}
}

// BuildDocumentText is the text a catalog record is embedded from. Missing
// fields contribute an empty string.
func BuildDocumentText(r dto.RawCatalogRecord) string {
	price := ""
	if r.Price != nil {
		price = *r.Price
	}
	return "URL: " + r.Url +
		" Description: " + r.Content +
		" Price: " + price +
		" Title: " + r.Title
}

// Ingest embeds every record and stores the batch in one unit of work. An
// embedding failure aborts the whole batch before anything is written.
// Records whose embedding comes back empty are skipped.
func (s *ingestionService) Ingest(ctx context.Context, records []dto.RawCatalogRecord, progress ProgressFunc) (*IngestReport, error) {
	report := &IngestReport{Received: len(records)}
	now := time.Now()

	built := make([]*entity.CatalogRecord, 0, len(records))
	for i, raw := range records {
		vector, err := s.embedder.Embed(ctx, BuildDocumentText(raw))
		if err != nil {
			return report, rag.Wrap(rag.ErrEmbedding, fmt.Errorf("record %d (%s): %w", i, raw.Url, err))
		}
		if progress != nil {
			progress(i+1, len(records), raw)
		}

		rec := &entity.CatalogRecord{
			Id:             uuid.New(),
			Url:            raw.Url,
			Title:          raw.Title,
			Price:          raw.Price,
			Content:        raw.Content,
			Attributes:     raw.Attributes,
			EmbeddingValue: vector,
			CreatedAt:      now,
		}
		if !rec.Indexable() {
			s.logger.Warn(ingestionModule, "Empty embedding, record skipped", map[string]interface{}{
				"url": raw.Url,
			})
			report.Skipped++
			continue
		}
		built = append(built, rec)
	}

	if len(built) == 0 {
		return report, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return report, fmt.Errorf("begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.CatalogRecordRepository().CreateBulk(ctx, built); err != nil {
		return report, fmt.Errorf("store catalog records: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return report, fmt.Errorf("commit catalog records: %w", err)
	}
	report.Indexed = len(built)

	s.logger.Info(ingestionModule, "Catalog records indexed", map[string]interface{}{
		"received": report.Received,
		"indexed":  report.Indexed,
		"skipped":  report.Skipped,
	})
	s.publishIndexed(ctx, built)

	return report, nil
}

func (s *ingestionService) publishIndexed(ctx context.Context, records []*entity.CatalogRecord) {
	if s.publisher == nil {
		return
	}
	for _, rec := range records {
		if err := s.publisher.Publish(ctx, events.RecordIndexed(rec.Id.String(), rec.Url, rec.CreatedAt)); err != nil {
			s.logger.Warn(ingestionModule, "Failed to publish indexed event", map[string]interface{}{
				"id":    rec.Id.String(),
				"error": err.Error(),
			})
			return
		}
	}
}
