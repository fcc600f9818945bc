package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"giafashion/internal/config"
	"giafashion/internal/models"
	"giafashion/internal/observability"
	"giafashion/internal/stub"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger := observability.NewLogger(cfg.Env)

	// Connect to database
	db, err := stub.OpenDatabase(cfg.DBPath)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}

	// Seed demo data on an empty database only
	if cfg.SeedDemoData {
		var count int64
		if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
			log.Fatalf("Database error: %v", err)
		}
		if count == 0 {
			if err := stub.Seed(db, stub.DefaultSeedOptions()); err != nil {
				log.Fatalf("Seed error: %v", err)
			}
			logger.Info("seeded demo data", "db", cfg.DBPath)
		}
	}

	srv := stub.NewServer(cfg, db, logger)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	log.Printf("Stub API starting on port %s...", cfg.Port)
	log.Fatal(srv.Listen(":" + cfg.Port))
}
