package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/arosell/go-docsearch/internal/adapter/ai"
	"github.com/arosell/go-docsearch/internal/adapter/extract"
	"github.com/arosell/go-docsearch/internal/adapter/store"
	"github.com/arosell/go-docsearch/internal/chunker"
	"github.com/arosell/go-docsearch/internal/handler"
	"github.com/arosell/go-docsearch/internal/mcp"
	"github.com/arosell/go-docsearch/internal/middleware"
	"github.com/arosell/go-docsearch/internal/port"
	"github.com/arosell/go-docsearch/internal/service"
	"github.com/arosell/go-docsearch/internal/watcher"
	"github.com/arosell/go-docsearch/internal/web"
	"github.com/arosell/go-docsearch/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting DocSearch",
		"port", cfg.Port,
		"store", cfg.StoreDriver,
		"embedder", cfg.EmbedDriver,
		"dimension", cfg.EmbeddingDimension,
		"mcp_enabled", cfg.MCPEnabled,
	)

	// ── Store ────────────────────────────────────────────────────────────
	var docStore port.DocumentStore
	var pgStore *store.PostgresStore

	switch cfg.StoreDriver {
	case "memory":
		docStore = store.NewMemoryStore()
	default:
		var err error
		pgStore, err = store.NewPostgresStore(cfg.DatabaseDSN(), cfg.EmbeddingDimension)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pgStore.Close()

		if err := pgStore.InitSchema(context.Background()); err != nil {
			slog.Error("failed to initialize schema", "error", err)
			os.Exit(1)
		}
		docStore = pgStore
	}

	// ── Adapters ─────────────────────────────────────────────────────────
	var embedder port.Embedder
	switch cfg.EmbedDriver {
	case "hash":
		embedder = ai.NewHashingEmbedder(cfg.EmbeddingDimension)
	default:
		embedder = ai.NewOllamaProvider(ai.OllamaConfig{
			BaseURL:   cfg.OllamaEmbedURL,
			Model:     cfg.OllamaEmbedModel,
			Token:     cfg.OllamaEmbedToken,
			Dimension: cfg.EmbeddingDimension,
		})
	}

	extractor, err := extract.New(cfg.UnidocLicenseKey)
	if err != nil {
		slog.Error("failed to initialize extractor", "error", err)
		os.Exit(1)
	}

	splitter := chunker.New(
		chunker.WithChunkSize(cfg.ChunkSize),
		chunker.WithOverlap(cfg.ChunkOverlap),
	)

	// ── Services ─────────────────────────────────────────────────────────
	ingestService := service.NewIngestService(extractor, splitter, embedder, docStore)
	searchService := service.NewSearchService(embedder, docStore, cfg.SearchTopK, cfg.SearchMinScore)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	// Audit middleware (logs all requests; needs the relational store)
	if pgStore != nil {
		app.Use(middleware.AuditMiddleware(pgStore))
	}

	// ── Routes ───────────────────────────────────────────────────────────
	web.Register(app)

	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	api := app.Group("/api/v1")

	documentHandler := handler.NewDocumentHandler(ingestService)
	documentHandler.Register(api)

	searchHandler := handler.NewSearchHandler(searchService)
	searchHandler.Register(api)

	// ── Watched ingest directory ─────────────────────────────────────────
	if cfg.WatchDir != "" {
		var watchAudit watcher.AuditWriter
		if pgStore != nil {
			watchAudit = pgStore
		}
		w := watcher.New(ingestService, watchAudit, cfg.WatchDir)
		go func() {
			if err := w.Run(context.Background()); err != nil {
				slog.Error("watcher failed", "error", err)
			}
		}()
	}

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		var mcpAudit mcp.AuditWriter
		if pgStore != nil {
			mcpAudit = pgStore
		}
		mcpServer := mcp.NewServer(searchService, ingestService, mcpAudit, cfg.MCPPort)
		go func() {
			if err := mcpServer.Start(); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
