package main

import (
	"context"
	"fmt"
	"log"

	"flowershop-chat-be/internal/bootstrap"
	"flowershop-chat-be/internal/config"
	"flowershop-chat-be/internal/model"
	"flowershop-chat-be/internal/repository/implementation"
	"flowershop-chat-be/pkg/database"
)

// modelVectorDimension is the dimension declared on model.CatalogRecord.
const modelVectorDimension = 768

func main() {
	cfg := config.Load()

	switch cfg.Catalog.Backend {
	case "qdrant":
		migrateQdrant(cfg)
	default:
		migratePostgres(cfg)
	}
}

func migratePostgres(cfg *config.Config) {
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up Extensions...")
	for _, sql := range []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	} {
		if err := db.Exec(sql).Error; err != nil {
			log.Fatalf("Error: %s failed: %v", sql, err)
		}
	}

	log.Println("Step 2: Running AutoMigrate for catalog_records...")
	if err := db.AutoMigrate(&model.CatalogRecord{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	if cfg.Catalog.VectorDimension != modelVectorDimension {
		log.Printf("Resizing embedding_value to vector(%d)", cfg.Catalog.VectorDimension)
		sql := fmt.Sprintf(`ALTER TABLE catalog_records ALTER COLUMN embedding_value TYPE vector(%d);`, cfg.Catalog.VectorDimension)
		if err := db.Exec(sql).Error; err != nil {
			log.Fatalf("Error: resize embedding column failed: %v", err)
		}
	}

	log.Println("Step 3: Creating HNSW index...")
	indexSQL := `CREATE INDEX IF NOT EXISTS idx_catalog_records_embedding_hnsw
		ON catalog_records USING hnsw (embedding_value vector_cosine_ops);`
	if err := db.Exec(indexSQL).Error; err != nil {
		log.Fatalf("Error: HNSW index failed: %v", err)
	}

	log.Println("✅ Migration completed")
}

func migrateQdrant(cfg *config.Config) {
	repo, _, closeRepo, err := bootstrap.NewCatalogBackend(nil, cfg)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer closeRepo()

	qrepo, ok := repo.(*implementation.CatalogRecordQdrantRepository)
	if !ok {
		log.Fatal("Error: unexpected catalog repository type")
	}

	existed, err := qrepo.EnsureCollection(context.Background(), cfg.Catalog.VectorDimension)
	if err != nil {
		log.Fatalf("Error: create collection failed: %v", err)
	}
	if existed {
		log.Printf("Collection %q already exists", cfg.Catalog.QdrantCollection)
		return
	}
	log.Printf("✅ Collection %q created (dim=%d, cosine)", cfg.Catalog.QdrantCollection, cfg.Catalog.VectorDimension)
}
