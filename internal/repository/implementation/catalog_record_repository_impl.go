package implementation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flowershop-chat-be/internal/entity"
	"flowershop-chat-be/internal/mapper"
	"flowershop-chat-be/internal/model"
	"flowershop-chat-be/internal/repository/contract"
	"flowershop-chat-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	pgUndefinedTable  = "42P01"
	pgUndefinedObject = "42704"

	insertBatchSize = 100
)

// ErrCatalogNotMigrated is returned when the catalog table or the vector
// extension is missing.
var ErrCatalogNotMigrated = errors.New("catalog schema missing, run cmd/migrate")

type CatalogRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CatalogRecordMapper
}

func NewCatalogRecordRepository(db *gorm.DB) contract.CatalogRecordRepository {
	return &CatalogRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewCatalogRecordMapper(),
	}
}

func (r *CatalogRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *CatalogRecordRepositoryImpl) CreateBulk(ctx context.Context, records []*entity.CatalogRecord) error {
	models := make([]*model.CatalogRecord, 0, len(records))
	for _, e := range records {
		if !e.Indexable() {
			continue
		}
		if e.Id == uuid.Nil {
			e.Id = uuid.New()
		}
		models = append(models, r.mapper.ToModel(e))
	}
	if len(models) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).CreateInBatches(models, insertBatchSize).Error; err != nil {
		return classify(err)
	}
	return nil
}

func (r *CatalogRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CatalogRecord, error) {
	var models []*model.CatalogRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Omit("embedding_value").Find(&models).Error; err != nil {
		return nil, classify(err)
	}
	return r.mapper.ToEntities(models), nil
}

func (r *CatalogRecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.CatalogRecord{}).Count(&count).Error
	return count, classify(err)
}

// scoredRow is the projection of a search hit; the vector column is never selected.
type scoredRow struct {
	Id         uuid.UUID
	Url        string
	Title      string
	Price      *string
	Content    string
	Attributes datatypes.JSONMap
	CreatedAt  time.Time
	Similarity float64
}

func (r *CatalogRecordRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, numCandidates int) ([]*contract.ScoredCatalogRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	if numCandidates < limit {
		numCandidates = limit
	}

	queryVector := pgvector.NewVector(embedding)
	var rows []scoredRow

	// ef_search only lives for the transaction. Ordering by the raw distance
	// (ascending) keeps the HNSW index usable.
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", numCandidates)).Error; err != nil {
			return err
		}
		return tx.
			Table("catalog_records").
			Select("id, url, title, price, content, attributes, created_at, 1 - (embedding_value <=> ?) AS similarity", queryVector).
			Where("embedding_value IS NOT NULL").
			Order(gorm.Expr("embedding_value <=> ?", queryVector)).
			Limit(limit).
			Scan(&rows).Error
	})
	if err != nil {
		return nil, classify(err)
	}

	scored := make([]*contract.ScoredCatalogRecord, len(rows))
	for i, row := range rows {
		scored[i] = &contract.ScoredCatalogRecord{
			Record: &entity.CatalogRecord{
				Id:         row.Id,
				Url:        row.Url,
				Title:      row.Title,
				Price:      row.Price,
				Content:    row.Content,
				Attributes: map[string]interface{}(row.Attributes),
				CreatedAt:  row.CreatedAt,
			},
			Similarity: row.Similarity,
		}
	}
	return scored, nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedTable, pgUndefinedObject:
			return fmt.Errorf("%w: %s", ErrCatalogNotMigrated, pgErr.Message)
		}
	}
	return err
}
