package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"flowershop-chat-be/internal/bootstrap"
	"flowershop-chat-be/internal/config"
	"flowershop-chat-be/internal/dto"
	"flowershop-chat-be/internal/pkg/logger"
	"flowershop-chat-be/internal/service"
	"flowershop-chat-be/pkg/database"
	"flowershop-chat-be/pkg/embedding"
	pktNats "flowershop-chat-be/pkg/nats"

	"github.com/fatih/color"
	"gorm.io/gorm"
)

func main() {
	file := flag.String("file", "products.json", "JSON array of crawled catalog records")
	batchSize := flag.Int("batch", 100, "records stored per transaction")
	flag.Parse()

	color.Cyan("🌸 Catalog ingestion: %s\n", *file)

	records, err := readRecords(*file)
	if err != nil {
		color.Red("Failed to read %s: %v", *file, err)
		os.Exit(1)
	}
	color.Yellow("Loaded %d records", len(records))

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *gorm.DB
	if cfg.Catalog.Backend == "postgres" {
		db, err = database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			color.Red("Database connection failed: %v", err)
			os.Exit(1)
		}
	}

	_, uowFactory, closeCatalog, err := bootstrap.NewCatalogBackend(db, cfg)
	if err != nil {
		color.Red("Catalog backend: %v", err)
		os.Exit(1)
	}
	defer closeCatalog()

	provider, err := bootstrap.NewEmbeddingProvider(cfg)
	if err != nil {
		color.Red("Embedding provider: %v", err)
		os.Exit(1)
	}

	var publisher service.EventPublisher
	if natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL); err == nil {
		publisher = natsPub
		defer natsPub.Close()
	}

	log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer log.Sync()

	ingestion := service.NewIngestionService(uowFactory, embedding.NewDocumentEmbedder(provider), publisher, log)

	total := service.IngestReport{}
	for start := 0; start < len(records); start += *batchSize {
		end := start + *batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		report, err := ingestion.Ingest(ctx, batch, func(done, n int, r dto.RawCatalogRecord) {
			color.White("  [%d/%d] %s", start+done, len(records), r.Url)
		})
		if report != nil {
			total.Received += report.Received
			total.Indexed += report.Indexed
			total.Skipped += report.Skipped
		}
		if err != nil {
			color.Red("Batch %d-%d failed: %v", start, end, err)
			os.Exit(1)
		}
		color.Green("Batch %d-%d stored (%d indexed, %d skipped)", start, end, report.Indexed, report.Skipped)
	}

	color.Green("✅ Done: %d received, %d indexed, %d skipped", total.Received, total.Indexed, total.Skipped)
}

func readRecords(path string) ([]dto.RawCatalogRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []dto.RawCatalogRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
