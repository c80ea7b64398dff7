package implementation

import (
	"context"
	"fmt"
	"time"

	"flowershop-chat-be/internal/entity"
	"flowershop-chat-be/internal/repository/contract"
	"flowershop-chat-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

var catalogPayloadFields = []string{"url", "title", "price", "content", "attributes", "created_at"}

// CatalogRecordQdrantRepository stores the catalog in a Qdrant collection.
// Catalog specifications are translated into a payload filter; OrderBy is
// not supported by Scroll and is ignored.
type CatalogRecordQdrantRepository struct {
	client     *qdrant.Client
	collection string
}

func NewCatalogRecordQdrantRepository(client *qdrant.Client, collection string) *CatalogRecordQdrantRepository {
	return &CatalogRecordQdrantRepository{
		client:     client,
		collection: collection,
	}
}

// EnsureCollection creates the collection with cosine distance when missing
// and reports whether it already existed.
func (r *CatalogRecordQdrantRepository) EnsureCollection(ctx context.Context, vectorSize int) (bool, error) {
	exists, err := r.client.CollectionExists(ctx, r.collection)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	err = r.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return false, fmt.Errorf("create collection: %w", err)
	}
	return false, nil
}

func (r *CatalogRecordQdrantRepository) CreateBulk(ctx context.Context, records []*entity.CatalogRecord) error {
	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, rec := range records {
		if !rec.Indexable() {
			continue
		}
		if rec.Id == uuid.Nil {
			rec.Id = uuid.New()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now()
		}

		payload := map[string]any{
			"url":        rec.Url,
			"title":      rec.Title,
			"content":    rec.Content,
			"created_at": rec.CreatedAt.Format(time.RFC3339),
		}
		// absent stays absent so the formatter can tell it from ""
		if rec.Price != nil {
			payload["price"] = *rec.Price
		}
		if len(rec.Attributes) > 0 {
			payload["attributes"] = rec.Attributes
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(rec.Id.String()),
			Vectors: qdrant.NewVectors(rec.EmbeddingValue...),
			Payload: qdrant.NewValueMap(payload),
		})
	}
	if len(points) == 0 {
		return nil
	}

	wait := true
	_, err := r.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: r.collection,
		Wait:           &wait,
		Points:         points,
	})
	return err
}

func (r *CatalogRecordQdrantRepository) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, numCandidates int) ([]*contract.ScoredCatalogRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	if numCandidates < limit {
		numCandidates = limit
	}

	qLimit := uint64(limit)
	hnswEf := uint64(numCandidates)

	hits, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: r.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &qLimit,
		Params:         &qdrant.SearchParams{HnswEf: &hnswEf},
		WithPayload:    qdrant.NewWithPayloadInclude(catalogPayloadFields...),
	})
	if err != nil {
		return nil, err
	}

	out := make([]*contract.ScoredCatalogRecord, 0, len(hits))
	for _, hit := range hits {
		out = append(out, &contract.ScoredCatalogRecord{
			Record:     recordFromPayload(hit.GetId(), hit.GetPayload()),
			Similarity: float64(hit.GetScore()),
		})
	}
	return out, nil
}

// payloadFilter maps catalog specifications onto Qdrant conditions. Every
// stored point carries a vector, so Indexed needs no condition. Title
// matching is Qdrant's text match: case-sensitive substring without a full
// text index on "title".
func payloadFilter(specs []specification.Specification) *qdrant.Filter {
	filter := &qdrant.Filter{}
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByUrl:
			filter.Must = append(filter.Must, qdrant.NewMatchKeyword("url", s.Url))
		case specification.TitleContains:
			if s.Term != "" {
				filter.Must = append(filter.Must, qdrant.NewMatchText("title", s.Term))
			}
		case specification.Priced:
			filter.MustNot = append(filter.MustNot, qdrant.NewIsEmpty("price"))
		}
	}
	if len(filter.Must) == 0 && len(filter.MustNot) == 0 {
		return nil
	}
	return filter
}

func pagination(specs []specification.Specification) (limit, offset int) {
	limit = 100
	for _, spec := range specs {
		if p, ok := spec.(specification.Pagination); ok {
			limit, offset = p.Limit, p.Offset
		}
	}
	return limit, offset
}

func (r *CatalogRecordQdrantRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CatalogRecord, error) {
	limit, offset := pagination(specs)

	// scroll offsets are point ids, so numeric offsets are applied client side
	fetch := uint32(limit + offset)
	points, err := r.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: r.collection,
		Filter:         payloadFilter(specs),
		Limit:          &fetch,
		WithPayload:    qdrant.NewWithPayloadInclude(catalogPayloadFields...),
	})
	if err != nil {
		return nil, err
	}

	if offset >= len(points) {
		return []*entity.CatalogRecord{}, nil
	}
	points = points[offset:]

	records := make([]*entity.CatalogRecord, 0, len(points))
	for _, p := range points {
		records = append(records, recordFromPayload(p.GetId(), p.GetPayload()))
	}
	return records, nil
}

func (r *CatalogRecordQdrantRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	exact := true
	n, err := r.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: r.collection,
		Filter:         payloadFilter(specs),
		Exact:          &exact,
	})
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

func (r *CatalogRecordQdrantRepository) Close() error {
	return r.client.Close()
}

func recordFromPayload(id *qdrant.PointId, payload map[string]*qdrant.Value) *entity.CatalogRecord {
	rec := &entity.CatalogRecord{}
	if id != nil {
		if parsed, err := uuid.Parse(id.GetUuid()); err == nil {
			rec.Id = parsed
		}
	}

	rec.Url = payload["url"].GetStringValue()
	rec.Title = payload["title"].GetStringValue()
	rec.Content = payload["content"].GetStringValue()
	if v, ok := payload["price"]; ok && v != nil {
		price := v.GetStringValue()
		rec.Price = &price
	}
	if v, ok := payload["attributes"]; ok && v.GetStructValue() != nil {
		attrs := make(map[string]interface{})
		for k, fv := range v.GetStructValue().GetFields() {
			attrs[k] = convertQdrantValue(fv)
		}
		rec.Attributes = attrs
	}
	if ts, err := time.Parse(time.RFC3339, payload["created_at"].GetStringValue()); err == nil {
		rec.CreatedAt = ts
	}
	return rec
}

func convertQdrantValue(v *qdrant.Value) any {
	switch val := v.GetKind().(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		out := make([]any, len(val.ListValue.GetValues()))
		for i, lv := range val.ListValue.GetValues() {
			out[i] = convertQdrantValue(lv)
		}
		return out
	case *qdrant.Value_StructValue:
		out := make(map[string]any)
		for k, nv := range val.StructValue.GetFields() {
			out[k] = convertQdrantValue(nv)
		}
		return out
	}
	return nil
}
