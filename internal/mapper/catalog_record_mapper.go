package mapper

import (
	"flowershop-chat-be/internal/entity"
	"flowershop-chat-be/internal/model"
	"flowershop-chat-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type CatalogRecordMapper struct{}

func NewCatalogRecordMapper() *CatalogRecordMapper {
	return &CatalogRecordMapper{}
}

func (m *CatalogRecordMapper) ToEntity(r *model.CatalogRecord) *entity.CatalogRecord {
	if r == nil {
		return nil
	}

	return &entity.CatalogRecord{
		Id:             r.Id,
		Url:            r.Url,
		Title:          r.Title,
		Price:          r.Price,
		Content:        r.Content,
		Attributes:     map[string]interface{}(r.Attributes),
		EmbeddingValue: r.EmbeddingValue.Slice(),
		CreatedAt:      r.CreatedAt,
	}
}

func (m *CatalogRecordMapper) ToModel(e *entity.CatalogRecord) *model.CatalogRecord {
	if e == nil {
		return nil
	}

	var attrs datatypes.JSONMap
	if e.Attributes != nil {
		attrs = datatypes.JSONMap(e.Attributes)
	}

	return &model.CatalogRecord{
		Id:             e.Id,
		Url:            e.Url,
		Title:          e.Title,
		Price:          e.Price,
		Content:        e.Content,
		Attributes:     attrs,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		CreatedAt:      e.CreatedAt,
	}
}

func (m *CatalogRecordMapper) ToEntities(records []*model.CatalogRecord) []*entity.CatalogRecord {
	entities := make([]*entity.CatalogRecord, len(records))
	for i, r := range records {
		entities[i] = m.ToEntity(r)
	}
	return entities
}

// ToProduct drops everything retrieval callers must not see, the vector first.
func (m *CatalogRecordMapper) ToProduct(e *entity.CatalogRecord) store.Product {
	return store.Product{
		ID:      e.Id.String(),
		Url:     e.Url,
		Title:   e.Title,
		Price:   e.Price,
		Content: e.Content,
	}
}
