package entity

import (
	"time"

	"github.com/google/uuid"
)

// CatalogRecord is one product of the shop catalog together with its
// pre-computed embedding.
type CatalogRecord struct {
	Id             uuid.UUID
	Url            string
	Title          string
	Price          *string // nil: not priced, contact for quote
	Content        string
	Attributes     map[string]interface{}
	EmbeddingValue []float32
	CreatedAt      time.Time
}

// Indexable reports whether the record may enter the index.
func (r *CatalogRecord) Indexable() bool {
	return len(r.EmbeddingValue) > 0
}
