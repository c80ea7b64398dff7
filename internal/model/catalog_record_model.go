package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type CatalogRecord struct {
	Id             uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Url            string            `gorm:"type:text;index"`
	Title          string            `gorm:"type:text"`
	Price          *string           `gorm:"type:text"`
	Content        string            `gorm:"type:text"`
	Attributes     datatypes.JSONMap `gorm:"type:jsonb"`
	EmbeddingValue pgvector.Vector   `gorm:"type:vector(768);not null"` // keepitreal/vietnamese-sbert dimension
	CreatedAt      time.Time         `gorm:"autoCreateTime"`
}

func (CatalogRecord) TableName() string {
	return "catalog_records"
}
