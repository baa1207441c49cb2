package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/synapticdev/synaptic/internal/api"
	"github.com/synapticdev/synaptic/internal/config"
	"github.com/synapticdev/synaptic/internal/db"
)

func main() {
	cfg := config.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	// Neo4j is optional: without it the extraction endpoints still work
	// and the storage-backed ones report 503.
	var dbClient *db.Neo4jClient
	if cfg.Neo4jURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		client, err := db.NewNeo4jClient(ctx, db.Neo4jConfig{
			URI:      cfg.Neo4jURI,
			Username: cfg.Neo4jUser,
			Password: cfg.Neo4jPass,
			Database: cfg.Neo4jDatabase,
		})
		cancel()
		if err != nil {
			log.Fatalf("neo4j connection failed: %v", err)
		}
		defer client.Close()
		dbClient = client

		if err := client.CreateVectorIndex(context.Background()); err != nil {
			log.Printf("vector index setup failed: %v", err)
		}
	}

	app := fiber.New(fiber.Config{
		AppName: "Synaptic API",
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "synaptic",
		})
	})

	handler := api.NewHandler(cfg, dbClient)
	api.SetupRoutes(app, handler)

	log.Printf("Starting synaptic server on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
