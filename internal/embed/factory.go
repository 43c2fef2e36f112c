package embed

import (
	"context"
	"fmt"
	"log/slog"
)

// Provider names accepted by the factory.
const (
	ProviderAuto   = "auto"
	ProviderOllama = "ollama"
	ProviderStatic = "static"
)

// Options configures embedder construction.
type Options struct {
	Provider   string
	Model      string
	Dimensions int
	OllamaHost string
	CacheSize  int
}

// NewEmbedder creates the configured provider wrapped in an LRU cache.
// In auto mode, Ollama is used when reachable and the static hash embedder
// otherwise, so search works offline with degraded semantic quality.
func NewEmbedder(ctx context.Context, opts Options) (Embedder, error) {
	var inner Embedder

	switch opts.Provider {
	case "", ProviderAuto:
		ollama := NewOllamaEmbedder(OllamaConfig{
			Host:       opts.OllamaHost,
			Model:      opts.Model,
			Dimensions: opts.Dimensions,
		})
		if ollama.Available(ctx) {
			inner = ollama
		} else {
			_ = ollama.Close()
			slog.Warn("embedder_fallback",
				slog.String("reason", "ollama unreachable"),
				slog.String("provider", ProviderStatic))
			inner = NewStaticEmbedder(opts.Dimensions)
		}

	case ProviderOllama:
		inner = NewOllamaEmbedder(OllamaConfig{
			Host:       opts.OllamaHost,
			Model:      opts.Model,
			Dimensions: opts.Dimensions,
		})

	case ProviderStatic:
		inner = NewStaticEmbedder(opts.Dimensions)

	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", opts.Provider)
	}

	slog.Info("embedder_ready",
		slog.String("model", inner.ModelName()),
		slog.Int("dimensions", inner.Dimensions()))

	return NewCachedEmbedder(inner, opts.CacheSize), nil
}
