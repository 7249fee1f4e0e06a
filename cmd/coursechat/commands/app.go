package commands

import (
	"context"
	"fmt"

	"github.com/bull/coursechat/internal/config"
	"github.com/bull/coursechat/internal/coursedoc"
	"github.com/bull/coursechat/internal/embedding"
	"github.com/bull/coursechat/internal/generate"
	"github.com/bull/coursechat/internal/ingest"
	"github.com/bull/coursechat/internal/rag"
	"github.com/bull/coursechat/internal/search"
	"github.com/bull/coursechat/internal/session"
	"github.com/bull/coursechat/internal/storage"
	"github.com/bull/coursechat/internal/tools"
)

// app holds what every command needs: configuration and the vector
// store. OpenAI-backed components are built on demand so commands that
// never call the API do not require a key.
type app struct {
	cfg   *config.Config
	store *storage.Store

	client   *embedding.Client
	embedder *embedding.Embedder
}

// newApp loads configuration, connects to the vector store and makes
// sure both collections exist.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.Qdrant.Host, cfg.Qdrant.Port)
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s:%d: %w", cfg.Qdrant.Host, cfg.Qdrant.Port, err)
	}
	if err := store.EnsureCollections(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ensure collections: %w", err)
	}

	return &app{cfg: cfg, store: store}, nil
}

func (a *app) close() {
	a.store.Close()
}

// embeddings lazily builds the OpenAI embedding stack.
func (a *app) embeddings() (*embedding.Embedder, error) {
	if a.embedder != nil {
		return a.embedder, nil
	}
	client, err := embedding.NewClient()
	if err != nil {
		return nil, err
	}
	a.client = client
	a.embedder = embedding.NewEmbedder(client, a.cfg.OpenAI.EmbeddingBatch,
		embedding.WithRequestsPerMinute(a.cfg.OpenAI.RequestsPerMinute))
	return a.embedder, nil
}

// searchService builds the resolve-then-search service.
func (a *app) searchService() (*search.Service, error) {
	embedder, err := a.embeddings()
	if err != nil {
		return nil, err
	}
	resolver := search.NewResolver(a.store, embedder, a.cfg.Search.ResolveThreshold)
	return search.NewService(a.store, embedder, resolver, a.cfg.Search.MaxResults, nil), nil
}

// pipeline builds the ingestion pipeline with the configured chunking.
func (a *app) pipeline() (*ingest.Pipeline, error) {
	embedder, err := a.embeddings()
	if err != nil {
		return nil, err
	}
	chunker := coursedoc.NewChunker(
		coursedoc.WithChunkSize(a.cfg.Chunking.Size),
		coursedoc.WithChunkOverlap(a.cfg.Chunking.Overlap),
	)
	return ingest.NewPipeline(a.store, embedder, chunker, nil), nil
}

// orchestrator builds the full answer stack on the configured session
// backend. The returned cleanup closes the session store.
func (a *app) orchestrator() (*rag.Orchestrator, func(), error) {
	svc, err := a.searchService()
	if err != nil {
		return nil, nil, err
	}
	registry := tools.NewRegistry(tools.NewSearchTool(svc), tools.NewOutlineTool(svc))
	generator := generate.NewOpenAI(a.client.Client(), a.cfg.OpenAI.ChatModel)

	history, cleanup, err := a.sessionStore()
	if err != nil {
		return nil, nil, err
	}
	orch := rag.NewOrchestrator(generator, registry, history, a.cfg.Chat.MaxToolRounds, nil)
	return orch, cleanup, nil
}

// sessionStore builds the configured session history backend.
func (a *app) sessionStore() (session.Store, func(), error) {
	max := a.cfg.Session.MaxHistory
	switch a.cfg.Session.Backend {
	case config.SessionBackendSQLite:
		store, err := session.NewSQLiteStore(a.cfg.Session.SQLitePath, max)
		if err != nil {
			return nil, nil, fmt.Errorf("open session db %s: %w", a.cfg.Session.SQLitePath, err)
		}
		return store, func() { store.Close() }, nil
	case config.SessionBackendRedis:
		store, err := session.NewRedisStore(a.cfg.Session.RedisAddr, max, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("connect session redis %s: %w", a.cfg.Session.RedisAddr, err)
		}
		return store, func() { store.Close() }, nil
	default:
		return session.NewMemoryStore(max), func() {}, nil
	}
}
