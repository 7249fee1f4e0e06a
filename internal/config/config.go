// Package config loads the coursechat configuration from an optional
// TOML file, overridden by environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the config file looked for when none is given.
const DefaultPath = "coursechat.toml"

// Session backends selectable via [session].backend.
const (
	SessionBackendMemory = "memory"
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
)

// Config is the full configuration surface of the engine.
type Config struct {
	Qdrant   QdrantConfig   `toml:"qdrant"`
	OpenAI   OpenAIConfig   `toml:"openai"`
	Chunking ChunkingConfig `toml:"chunking"`
	Search   SearchConfig   `toml:"search"`
	Chat     ChatConfig     `toml:"chat"`
	Session  SessionConfig  `toml:"session"`
	Docs     DocsConfig     `toml:"docs"`
	GitHub   GitHubConfig   `toml:"github"`
}

// QdrantConfig locates the vector database.
type QdrantConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// OpenAIConfig selects models and paces the embedding client. The API
// key itself is only ever read from OPENAI_API_KEY.
type OpenAIConfig struct {
	ChatModel         string `toml:"chat_model"`
	EmbeddingBatch    int    `toml:"embedding_batch"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// ChunkingConfig controls how lesson bodies are split.
type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// SearchConfig controls retrieval.
type SearchConfig struct {
	MaxResults       int     `toml:"max_results"`
	ResolveThreshold float64 `toml:"resolve_threshold"`
}

// ChatConfig controls the query orchestrator.
type ChatConfig struct {
	MaxToolRounds int `toml:"max_tool_rounds"`
}

// SessionConfig selects and bounds the session history store.
type SessionConfig struct {
	Backend    string `toml:"backend"`
	MaxHistory int    `toml:"max_history"`
	SQLitePath string `toml:"sqlite_path"`
	RedisAddr  string `toml:"redis_addr"`
}

// DocsConfig locates the local course document corpus.
type DocsConfig struct {
	Dir string `toml:"dir"`
}

// GitHubConfig locates a remote course corpus for the sync command.
type GitHubConfig struct {
	Owner string `toml:"owner"`
	Repo  string `toml:"repo"`
	Path  string `toml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Qdrant: QdrantConfig{Host: "localhost", Port: 6334},
		OpenAI: OpenAIConfig{
			ChatModel:      "",
			EmbeddingBatch: 0, // embedding package default
		},
		Chunking: ChunkingConfig{Size: 800, Overlap: 100},
		Search:   SearchConfig{MaxResults: 5, ResolveThreshold: 0.35},
		Chat:     ChatConfig{MaxToolRounds: 2},
		Session: SessionConfig{
			Backend:    SessionBackendMemory,
			MaxHistory: 2,
			SQLitePath: "coursechat.db",
			RedisAddr:  "localhost:6379",
		},
		Docs:   DocsConfig{Dir: "docs"},
		GitHub: GitHubConfig{Path: "docs"},
	}
}

// Load builds the configuration: defaults, then the TOML file (path, or
// DefaultPath when path is empty and the file exists), then environment
// variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file is fine; defaults plus environment apply.
	default:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() {
	c.Qdrant.Host = getEnv("QDRANT_HOST", c.Qdrant.Host)
	c.Qdrant.Port = getEnvInt("QDRANT_PORT", c.Qdrant.Port)

	c.OpenAI.ChatModel = getEnv("OPENAI_CHAT_MODEL", c.OpenAI.ChatModel)
	c.OpenAI.EmbeddingBatch = getEnvInt("EMBEDDING_BATCH", c.OpenAI.EmbeddingBatch)
	c.OpenAI.RequestsPerMinute = getEnvInt("EMBEDDING_RPM", c.OpenAI.RequestsPerMinute)

	c.Chunking.Size = getEnvInt("CHUNK_SIZE", c.Chunking.Size)
	c.Chunking.Overlap = getEnvInt("CHUNK_OVERLAP", c.Chunking.Overlap)

	c.Search.MaxResults = getEnvInt("MAX_RESULTS", c.Search.MaxResults)
	c.Search.ResolveThreshold = getEnvFloat("RESOLVE_THRESHOLD", c.Search.ResolveThreshold)

	c.Chat.MaxToolRounds = getEnvInt("MAX_TOOL_ROUNDS", c.Chat.MaxToolRounds)

	c.Session.Backend = getEnv("SESSION_BACKEND", c.Session.Backend)
	c.Session.MaxHistory = getEnvInt("MAX_HISTORY", c.Session.MaxHistory)
	c.Session.SQLitePath = getEnv("SESSION_SQLITE_PATH", c.Session.SQLitePath)
	c.Session.RedisAddr = getEnv("REDIS_ADDR", c.Session.RedisAddr)

	c.Docs.Dir = getEnv("DOCS_DIR", c.Docs.Dir)

	c.GitHub.Owner = getEnv("GITHUB_OWNER", c.GitHub.Owner)
	c.GitHub.Repo = getEnv("GITHUB_REPO", c.GitHub.Repo)
	c.GitHub.Path = getEnv("GITHUB_PATH", c.GitHub.Path)
}

// Validate rejects configurations the engine cannot run with. Every
// count must be positive, and the chunk overlap must leave the window
// room to advance.
func (c *Config) Validate() error {
	var errs []error

	if c.Qdrant.Port <= 0 {
		errs = append(errs, fmt.Errorf("qdrant.port must be positive, got %d", c.Qdrant.Port))
	}
	if c.Chunking.Size <= 0 {
		errs = append(errs, fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size))
	}
	if c.Chunking.Overlap <= 0 {
		errs = append(errs, fmt.Errorf("chunking.overlap must be positive, got %d", c.Chunking.Overlap))
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		errs = append(errs, fmt.Errorf("chunking.overlap (%d) must be smaller than chunking.size (%d)",
			c.Chunking.Overlap, c.Chunking.Size))
	}
	if c.Search.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults))
	}
	if c.Search.ResolveThreshold <= 0 || c.Search.ResolveThreshold > 1 {
		errs = append(errs, fmt.Errorf("search.resolve_threshold must be in (0, 1], got %g", c.Search.ResolveThreshold))
	}
	if c.Chat.MaxToolRounds <= 0 {
		errs = append(errs, fmt.Errorf("chat.max_tool_rounds must be positive, got %d", c.Chat.MaxToolRounds))
	}
	if c.Session.MaxHistory <= 0 {
		errs = append(errs, fmt.Errorf("session.max_history must be positive, got %d", c.Session.MaxHistory))
	}

	switch c.Session.Backend {
	case SessionBackendMemory, SessionBackendSQLite, SessionBackendRedis:
	default:
		errs = append(errs, fmt.Errorf("session.backend must be one of memory, sqlite, redis; got %q", c.Session.Backend))
	}
	if c.Session.Backend == SessionBackendRedis && c.Session.RedisAddr == "" {
		errs = append(errs, errors.New("session.redis_addr required for the redis backend"))
	}
	if c.Session.Backend == SessionBackendSQLite && c.Session.SQLitePath == "" {
		errs = append(errs, errors.New("session.sqlite_path required for the sqlite backend"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
