// Package main is the coursechat MCP server entry point.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bull/coursechat/internal/config"
	"github.com/bull/coursechat/internal/embedding"
	mcpserver "github.com/bull/coursechat/internal/mcp"
	"github.com/bull/coursechat/internal/search"
	"github.com/bull/coursechat/internal/storage"
)

func main() {
	// Load .env if present (local development), ignore if missing.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load(getEnv("COURSECHAT_CONFIG", ""))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	port := getEnv("PORT", "8080")

	store, err := storage.NewStore(cfg.Qdrant.Host, cfg.Qdrant.Port)
	if err != nil {
		log.Fatalf("connect to Qdrant: %v", err)
	}
	defer store.Close()

	if err := store.EnsureCollections(ctx); err != nil {
		log.Fatalf("ensure collections: %v", err)
	}

	client, err := embedding.NewClient()
	if err != nil {
		log.Fatalf("create embedding client: %v", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.OpenAI.EmbeddingBatch,
		embedding.WithRequestsPerMinute(cfg.OpenAI.RequestsPerMinute))

	resolver := search.NewResolver(store, embedder, cfg.Search.ResolveThreshold)
	searchSvc := search.NewService(store, embedder, resolver, cfg.Search.MaxResults, nil)

	server := mcpserver.NewServer(&mcpserver.Config{
		Store:  store,
		Search: searchSvc,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/", mcpserver.NewLandingHandler())
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(store))
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))

	// SERVER_MODE=true serves MCP over HTTP for remote clients; the
	// default is stdio for local clients, with the HTTP endpoints kept
	// up in the background for health checks.
	if getEnv("SERVER_MODE", "false") == "true" {
		addr := "0.0.0.0:" + port
		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
		return
	}

	go func() {
		addr := "0.0.0.0:" + port
		log.Printf("Starting health server on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("Health server error: %v", err)
		}
	}()

	log.Println("Starting coursechat MCP server (stdio mode)...")
	if err := server.Run(ctx); err != nil {
		log.Printf("server error: %v", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
