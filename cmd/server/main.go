package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"clipseek/internal/api"
	"clipseek/internal/chunker"
	"clipseek/internal/config"
	"clipseek/internal/db"
	"clipseek/internal/embedding"
	"clipseek/internal/repository"
	"clipseek/internal/services"
	"clipseek/internal/telemetry"
	"clipseek/internal/youtube"
)

func main() {
	log.Println("🚀 Starting clipseek...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Tracing first so all startup operations are visible.
	jaegerShutdown, err := telemetry.InitJaeger("clipseek", cfg.JaegerEndpoint)
	if err != nil {
		log.Printf("⚠️  Failed to initialize Jaeger: %v (continuing without tracing)", err)
		jaegerShutdown = func(ctx context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := jaegerShutdown(ctx); err != nil {
			log.Printf("⚠️  Failed to shutdown Jaeger: %v", err)
		}
	}()

	// External collaborators
	transcripts := youtube.NewClient(cfg.SerpAPIKey, cfg.TranscriptLang)
	embedder := embedding.NewClient(cfg.EmbeddingAPIKey, cfg.EmbeddingBaseURL, cfg.EmbeddingModel)
	log.Printf("✓ Embedding client initialized (%s, %d dims)", cfg.EmbeddingModel, cfg.EmbeddingDimension)

	// Index cache
	cacheTTL := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	var cache services.IndexCache
	if cfg.CacheBackend == "redis" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("❌ Invalid REDIS_URL: %v", err)
		}
		cache = services.NewRedisCache(redis.NewClient(opts), cacheTTL, cfg.EmbeddingDimension)
		log.Printf("✓ Redis index cache initialized (TTL %v)", cacheTTL)
	} else {
		cache = services.NewMemoryCache(cacheTTL)
		log.Printf("✓ In-memory index cache initialized (TTL %v)", cacheTTL)
	}

	// Optional Postgres persistence of built indices
	var store services.IndexStore
	if cfg.DBEnabled {
		database, err := db.NewGorm(cfg)
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		defer database.Close()
		store = repository.NewIndexRepository(database.DB, cfg.EmbeddingDimension)
	}

	builder := services.NewIndexBuilder(transcripts, embedder, cache, store, services.BuilderConfig{
		Chunker: chunker.Config{
			WindowSeconds:  cfg.ChunkWindowSeconds,
			OverlapSeconds: cfg.ChunkOverlapSeconds,
			MaxChars:       cfg.ChunkMaxChars,
		},
		Dimension:        cfg.EmbeddingDimension,
		EmbedRetries:     cfg.EmbedRetries,
		EmbedBackoff:     time.Duration(cfg.EmbedBackoffMs) * time.Millisecond,
		BuildTimeout:     time.Duration(cfg.BuildTimeoutSeconds) * time.Second,
		ANNThreshold:     cfg.ANNThreshold,
		ANNProbeFraction: cfg.ANNProbeFraction,
	})

	engine := services.NewQueryEngine(builder, embedder, services.QueryConfig{
		DefaultK: cfg.SearchDefaultK,
		MaxK:     cfg.SearchMaxK,
		MinScore: float32(cfg.SearchMinScore),
	})

	handler := api.NewHandler(engine, builder, embedder)
	router := api.SetupRoutes(handler)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // first search for a video waits on the build
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on http://%s", addr)
		log.Printf("📚 API Endpoints:")
		log.Printf("   POST   /api/search              - Search a video for a phrase")
		log.Printf("   GET    /api/videos/:id/index    - Index status")
		log.Printf("   DELETE /api/videos/:id/index    - Invalidate index")
		log.Printf("   GET    /api/health              - Health check")
		log.Printf("   WS     /ws/videos/:id/status    - Build status stream")
		log.Println()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	log.Println("✓ Server shutdown complete")
}
