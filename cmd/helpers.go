package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/askdoc/askdoc/internal/answer"
	"github.com/askdoc/askdoc/internal/chunker"
	"github.com/askdoc/askdoc/internal/config"
	"github.com/askdoc/askdoc/internal/docstore"
	"github.com/askdoc/askdoc/internal/embeddings"
	"github.com/askdoc/askdoc/internal/engine"
	"github.com/askdoc/askdoc/internal/fetch"
	"github.com/askdoc/askdoc/internal/ingest"
	"github.com/askdoc/askdoc/internal/llm"
	"github.com/askdoc/askdoc/internal/parser"
	"github.com/askdoc/askdoc/internal/vectordb"
)

// app bundles the wired core plus the handles the commands need for
// persistence and cleanup.
type app struct {
	cfg      *config.Config
	engine   *engine.Engine
	pipeline *ingest.Pipeline
	index    *vectordb.ChromemIndex
	store    *docstore.Store
}

func indexPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "index.gob.gz")
}

// openStorage opens the document store and the vector index, loading a
// previously persisted index when one exists.
func openStorage(cfg *config.Config) (*docstore.Store, *vectordb.ChromemIndex, error) {
	store, err := docstore.Open(filepath.Join(cfg.DataDir, "askdoc.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening document store: %w", err)
	}

	index := vectordb.NewChromemIndex()
	path := indexPath(cfg)
	if _, err := os.Stat(path); err == nil {
		if err := index.Load(path); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("loading vector index: %w", err)
		}
	}
	return store, index, nil
}

// buildApp wires the full engine from config. Requires OPENAI_API_KEY.
func buildApp(cfg *config.Config) (*app, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	store, index, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	embedder := embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel), cfg.EmbedBatchSize)

	var provider llm.Provider = llm.NewOpenAIProvider(apiKey, cfg.Model)
	if cfg.RequestsPerMinute > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMinute)
	}

	pipeline := ingest.NewPipeline(
		fetch.New(time.Duration(cfg.FetchTimeoutSeconds)*time.Second),
		parser.NewRegistry(),
		chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder,
		index,
		store,
		cfg.MinChunkChars,
	)

	orchestrator := answer.NewService(embedder, provider, index, store, answer.Options{
		Model:           cfg.Model,
		MaxConcurrency:  cfg.MaxConcurrency,
		MaxAttempts:     cfg.MaxAttempts,
		TopK:            cfg.TopK,
		CacheThreshold:  float32(cfg.CacheThreshold),
		RelevanceFloor:  float32(cfg.RelevanceFloor),
		MaxContextChars: cfg.MaxContextChars,
	})

	return &app{
		cfg:      cfg,
		engine:   engine.New(pipeline, orchestrator),
		pipeline: pipeline,
		index:    index,
		store:    store,
	}, nil
}

// close persists the vector index and closes the document store.
func (a *app) close() error {
	if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := a.index.Persist(indexPath(a.cfg)); err != nil {
		return fmt.Errorf("persisting vector index: %w", err)
	}
	return a.store.Close()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
