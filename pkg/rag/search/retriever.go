package search

import (
	"context"
	"sort"

	"flowershop-chat-be/internal/mapper"
	"flowershop-chat-be/internal/repository/contract"
	"flowershop-chat-be/pkg/embedding"
	"flowershop-chat-be/pkg/rag"
	"flowershop-chat-be/pkg/store"
)

const (
	DefaultLimit         = 10
	DefaultNumCandidates = 320
)

// Config encapsulates search parameters
type Config struct {
	Limit         int
	NumCandidates int
}

// DefaultConfig returns default search configuration
func DefaultConfig() Config {
	return Config{
		Limit:         DefaultLimit,
		NumCandidates: DefaultNumCandidates,
	}
}

// Retriever runs nearest-neighbour lookups against the catalog index.
type Retriever struct {
	index  contract.CatalogIndex
	mapper *mapper.CatalogRecordMapper
}

func NewRetriever(index contract.CatalogIndex) *Retriever {
	return &Retriever{
		index:  index,
		mapper: mapper.NewCatalogRecordMapper(),
	}
}

// Retrieve returns at most limit products ordered by descending score. An
// empty query vector short-circuits to an empty result without touching the
// index. Equal scores keep the order the index returned them in.
func (r *Retriever) Retrieve(ctx context.Context, queryVector []float32, limit int, numCandidates int) ([]store.ScoredProduct, error) {
	if len(queryVector) == 0 {
		return []store.ScoredProduct{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if numCandidates < limit {
		numCandidates = limit
	}

	hits, err := r.index.SearchSimilarWithScore(ctx, queryVector, limit, numCandidates)
	if err != nil {
		return nil, rag.Wrap(rag.ErrRetrieval, err)
	}

	results := make([]store.ScoredProduct, 0, len(hits))
	for _, hit := range hits {
		if hit == nil || hit.Record == nil {
			continue
		}
		results = append(results, store.ScoredProduct{
			Product: r.mapper.ToProduct(hit.Record),
			Score:   hit.Similarity,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchText embeds text with the query embedder and retrieves with cfg.
func (r *Retriever) SearchText(ctx context.Context, embedder embedding.Embedder, text string, cfg Config) ([]store.ScoredProduct, error) {
	vec, err := embedder.Embed(ctx, text)
	if err != nil {
		return nil, rag.Wrap(rag.ErrEmbedding, err)
	}
	return r.Retrieve(ctx, vec, cfg.Limit, cfg.NumCandidates)
}
