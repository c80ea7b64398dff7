package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"flowershop-chat-be/internal/dto"
	"flowershop-chat-be/internal/pkg/logger"
	"flowershop-chat-be/internal/repository/specification"
	"flowershop-chat-be/internal/repository/unitofwork"
	"flowershop-chat-be/pkg/embedding"
	ragcontext "flowershop-chat-be/pkg/rag/context"
	"flowershop-chat-be/pkg/rag/search"
)

const catalogModule = "CatalogService"

type ICatalogService interface {
	List(ctx context.Context, request *dto.ListCatalogRequest) (*dto.ListCatalogResponse, error)
	Search(ctx context.Context, request *dto.SearchCatalogRequest) (*dto.SearchCatalogResponse, error)
	QueueIngest(ctx context.Context, request *dto.IngestCatalogRequest) (*dto.IngestCatalogResponse, error)
}

type catalogService struct {
	uowFactory       unitofwork.RepositoryFactory
	embedder         embedding.Embedder
	retriever        *search.Retriever
	formatter        *ragcontext.Formatter
	publisherService IPublisherService
	searchConfig     search.Config
	logger           logger.ILogger
}

func NewCatalogService(
	uowFactory unitofwork.RepositoryFactory,
	embedder embedding.Embedder,
	retriever *search.Retriever,
	publisherService IPublisherService,
	searchConfig search.Config,
	log logger.ILogger,
) ICatalogService {
	return &catalogService{
		uowFactory:       uowFactory,
		embedder:         embedder,
		retriever:        retriever,
		formatter:        ragcontext.NewFormatter(),
		publisherService: publisherService,
		searchConfig:     searchConfig,
		logger:           log,
	}
}

func (s *catalogService) List(ctx context.Context, request *dto.ListCatalogRequest) (*dto.ListCatalogResponse, error) {
	limit := request.Limit
	if limit <= 0 {
		limit = 20
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.CatalogRecordRepository()

	filters := listFilters(request)
	total, err := repo.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	records, err := repo.FindAll(ctx, append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: request.Offset},
	)...)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.CatalogRecordResponse, len(records))
	for i, r := range records {
		items[i] = &dto.CatalogRecordResponse{
			Id:         r.Id,
			Url:        r.Url,
			Title:      r.Title,
			Price:      r.Price,
			Content:    r.Content,
			Attributes: r.Attributes,
			CreatedAt:  r.CreatedAt,
		}
	}

	return &dto.ListCatalogResponse{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: request.Offset,
	}, nil
}

// listFilters turns the listing query into specifications shared by the
// count and the page query.
func listFilters(request *dto.ListCatalogRequest) []specification.Specification {
	filters := []specification.Specification{specification.Indexed{}}
	if request.Url != "" {
		filters = append(filters, specification.ByUrl{Url: request.Url})
	}
	if q := strings.TrimSpace(request.Query); q != "" {
		filters = append(filters, specification.TitleContains{Term: q})
	}
	if request.Priced {
		filters = append(filters, specification.Priced{})
	}
	return filters
}

// Search previews what a chat turn with the same text would retrieve,
// including the formatted product block.
func (s *catalogService) Search(ctx context.Context, request *dto.SearchCatalogRequest) (*dto.SearchCatalogResponse, error) {
	cfg := s.searchConfig
	if request.Limit > 0 {
		cfg.Limit = request.Limit
	}

	results, err := s.retriever.SearchText(ctx, s.embedder, request.Query, cfg)
	if err != nil {
		return nil, err
	}

	hits := make([]dto.SearchCatalogHit, len(results))
	for i, r := range results {
		hits[i] = dto.SearchCatalogHit{
			Id:      r.ID,
			Url:     r.Url,
			Title:   r.Title,
			Price:   r.Price,
			Content: r.Content,
			Score:   r.Score,
		}
	}

	s.logger.Debug(catalogModule, "Catalog search", map[string]interface{}{
		"query_chars": len(request.Query),
		"hits":        len(hits),
	})

	return &dto.SearchCatalogResponse{
		Query:   request.Query,
		Hits:    hits,
		Context: s.formatter.Format(results),
	}, nil
}

// QueueIngest hands each record to the ingestion consumer.
func (s *catalogService) QueueIngest(ctx context.Context, request *dto.IngestCatalogRequest) (*dto.IngestCatalogResponse, error) {
	queued := 0
	for _, rec := range request.Records {
		payload, err := json.Marshal(dto.PublishIngestRecordMessage{Record: rec})
		if err != nil {
			return &dto.IngestCatalogResponse{Queued: queued}, fmt.Errorf("marshal record %s: %w", rec.Url, err)
		}
		if err := s.publisherService.Publish(ctx, payload); err != nil {
			return &dto.IngestCatalogResponse{Queued: queued}, fmt.Errorf("queue record %s: %w", rec.Url, err)
		}
		queued++
	}

	s.logger.Info(catalogModule, "Catalog records queued for ingestion", map[string]interface{}{
		"queued": queued,
	})
	return &dto.IngestCatalogResponse{Queued: queued}, nil
}
