package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/abdobzx/maar/internal/config"
	"github.com/abdobzx/maar/internal/embed"
	"github.com/abdobzx/maar/internal/index"
	"github.com/abdobzx/maar/internal/search"
	"github.com/abdobzx/maar/internal/store"
)

// app bundles the wired components a command needs.
type app struct {
	cfg      *config.Config
	store    *store.SQLiteStore
	embedder embed.Embedder
	vectors  *store.HNSWStore
	engine   *search.Engine

	closers []func() error
}

// openApp wires the store, lexical index, embedder, vector store, and
// engine from configuration. The vector graph is rebuilt from embeddings
// persisted in the chunk store.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	chunkStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a.store = chunkStore
	a.closers = append(a.closers, chunkStore.Close)

	lexical, err := index.NewLexicalIndex(index.Options{
		Backend: cfg.Index.Backend,
		K1:      cfg.Index.K1,
		B:       cfg.Index.B,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, lexical.Close)

	embedder, err := embed.NewEmbedder(ctx, embed.Options{
		Provider:   cfg.Embeddings.Provider,
		Model:      cfg.Embeddings.Model,
		Dimensions: cfg.Embeddings.Dimensions,
		OllamaHost: cfg.Embeddings.OllamaHost,
		CacheSize:  cfg.Embeddings.CacheSize,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.embedder = embedder
	a.closers = append(a.closers, embedder.Close)

	vectors, err := a.loadVectorStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	a.vectors = vectors
	a.closers = append(a.closers, vectors.Close)

	engineCfg := search.EngineConfig{
		FusionStrategy:   cfg.Search.FusionStrategy,
		Alpha:            cfg.Search.Alpha,
		SemanticWeight:   cfg.Search.SemanticWeight,
		KeywordWeight:    cfg.Search.KeywordWeight,
		RRFConstant:      cfg.Search.RRFConstant,
		RefreshTTL:       cfg.RefreshTTLDuration(),
		DenseTimeout:     cfg.DenseTimeoutDuration(),
		DefaultLimit:     cfg.Search.DefaultLimit,
		MaxLimit:         cfg.Search.MaxLimit,
		DefaultThreshold: cfg.Search.DefaultThreshold,
		BlendWeight:      cfg.Rerank.BlendWeight,
	}

	opts := []search.EngineOption{
		search.WithDenseRetriever(search.NewVectorRetriever(embedder, vectors, chunkStore)),
		search.WithReranker(a.buildReranker()),
	}

	engine, err := search.NewEngine(lexical, chunkStore, engineCfg, opts...)
	if err != nil {
		a.close()
		return nil, err
	}
	a.engine = engine

	return a, nil
}

// loadVectorStore rebuilds the HNSW graph from persisted embeddings.
func (a *app) loadVectorStore(ctx context.Context) (*store.HNSWStore, error) {
	vectors, err := store.NewHNSWStore(store.DefaultVectorStoreConfig(a.embedder.Dimensions()))
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	embeddings, err := a.store.GetAllEmbeddings(ctx)
	if err != nil {
		_ = vectors.Close()
		return nil, fmt.Errorf("failed to load embeddings: %w", err)
	}

	skipped := 0
	for id, vec := range embeddings {
		if len(vec) != a.embedder.Dimensions() {
			// Embeddings written by a different model; reingest to refresh
			skipped++
			continue
		}
		if err := vectors.Add(ctx, []string{id}, [][]float32{vec}); err != nil {
			_ = vectors.Close()
			return nil, fmt.Errorf("failed to load vector %s: %w", id, err)
		}
	}

	if skipped > 0 {
		slog.Warn("embeddings_dimension_mismatch",
			slog.Int("skipped", skipped),
			slog.Int("expected", a.embedder.Dimensions()))
	}

	slog.Debug("vector_store_loaded", slog.Int("vectors", vectors.Count()))
	return vectors, nil
}

// buildReranker selects the configured rerank strategy.
func (a *app) buildReranker() search.Reranker {
	if a.cfg.Rerank.Strategy == config.RerankStrategyModel {
		return search.NewModelReranker(search.ModelRerankerConfig{
			Endpoint:    a.cfg.Rerank.Endpoint,
			Model:       a.cfg.Rerank.Model,
			APIKey:      os.Getenv("MAAR_RERANK_API_KEY"),
			BlendWeight: a.cfg.Rerank.BlendWeight,
		})
	}
	return search.NewHeuristicReranker()
}

// close releases all wired components in reverse order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close_failed", slog.String("error", err.Error()))
		}
	}
}
