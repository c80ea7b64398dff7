package contract

import (
	"context"

	"flowershop-chat-be/internal/entity"
	"flowershop-chat-be/internal/repository/specification"
)

// ScoredCatalogRecord wraps CatalogRecord with its similarity score. The
// record's EmbeddingValue is left empty by search implementations.
type ScoredCatalogRecord struct {
	Record     *entity.CatalogRecord
	Similarity float64 // higher is closer; only the relative order is meaningful
}

// CatalogIndex is the read-only nearest-neighbour side of the catalog.
type CatalogIndex interface {
	// SearchSimilarWithScore asks the ANN index to consider numCandidates
	// approximate neighbours and returns at most limit of them, nearest first.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, numCandidates int) ([]*ScoredCatalogRecord, error)
}

type CatalogRecordRepository interface {
	CatalogIndex

	CreateBulk(ctx context.Context, records []*entity.CatalogRecord) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CatalogRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
