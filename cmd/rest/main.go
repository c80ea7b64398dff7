package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flowershop-chat-be/internal/bootstrap"
	"flowershop-chat-be/internal/config"
	"flowershop-chat-be/internal/server"
	"flowershop-chat-be/internal/tracer"
	"flowershop-chat-be/pkg/database"
	"flowershop-chat-be/pkg/events"

	"gorm.io/gorm"
)

const auditModule = "ChatAudit"

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Database (only the postgres catalog needs it)
	var gormDB *gorm.DB
	if cfg.Catalog.Backend == "postgres" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, gormDB, cfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to bootstrap: %v", err)
	}
	defer container.Close()

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(ctx); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	go container.WebSocketHub.Run(ctx)

	if container.Subscriber != nil {
		err := container.Subscriber.Subscribe(ctx, "events.chat.>", "chat-audit", func(_ context.Context, event events.Event) error {
			container.Logger.Info(auditModule, event.EventType(), event.Payload())
			return nil
		})
		if err != nil {
			log.Printf("[WARN] Chat audit subscriber not started: %v", err)
		}
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := srv.Shutdown(10 * time.Second); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
