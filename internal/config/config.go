// Package config loads and validates maar configuration.
//
// Precedence (lowest to highest):
//  1. Built-in defaults
//  2. Config file (maar.yaml)
//  3. Environment variables (MAAR_*)
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Fusion strategy names.
const (
	FusionStrategyRRF      = "rrf"
	FusionStrategyWeighted = "weighted"
)

// Rerank strategy names.
const (
	RerankStrategyModel     = "model"
	RerankStrategyHeuristic = "heuristic"
)

// Config represents the complete maar configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Store      StoreConfig      `yaml:"store" json:"store"`
	Index      IndexConfig      `yaml:"index" json:"index"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Rerank     RerankConfig     `yaml:"rerank" json:"rerank"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// StoreConfig configures the chunk metadata store.
type StoreConfig struct {
	// Path is the SQLite database path. Empty means in-memory.
	Path string `yaml:"path" json:"path"`
}

// IndexConfig configures the lexical index.
type IndexConfig struct {
	// Backend selects the lexical index backend.
	// Options: "memory" (default, self-contained BM25), "sqlite" (FTS5), "bleve".
	Backend string `yaml:"backend" json:"backend"`

	// K1 is the BM25 term frequency saturation parameter (default: 1.5).
	K1 float64 `yaml:"k1" json:"k1"`

	// B is the BM25 length normalization parameter (default: 0.75).
	B float64 `yaml:"b" json:"b"`

	// RefreshTTL is how long a built index stays fresh before the next search
	// triggers a rebuild (default: "1h"). Parsed with time.ParseDuration.
	RefreshTTL string `yaml:"refresh_ttl" json:"refresh_ttl"`
}

// SearchConfig configures search behavior and fusion parameters.
type SearchConfig struct {
	// DefaultLimit is the result count when the query doesn't specify one.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`

	// MaxLimit caps the per-query result count.
	MaxLimit int `yaml:"max_limit" json:"max_limit"`

	// DefaultThreshold is the minimum acceptable score when the query
	// doesn't specify one (0.0 keeps everything).
	DefaultThreshold float64 `yaml:"default_threshold" json:"default_threshold"`

	// FusionStrategy selects the hybrid ranker: "rrf" (default) or "weighted".
	FusionStrategy string `yaml:"fusion_strategy" json:"fusion_strategy"`

	// Alpha is the dense-side weight for RRF fusion (0.0-1.0, default: 0.7).
	// The sparse side gets 1-Alpha.
	Alpha float64 `yaml:"alpha" json:"alpha"`

	// SemanticWeight and KeywordWeight are the weights for the min-max
	// normalized "weighted" ranker (defaults: 0.7 / 0.3).
	SemanticWeight float64 `yaml:"semantic_weight" json:"semantic_weight"`
	KeywordWeight  float64 `yaml:"keyword_weight" json:"keyword_weight"`

	// RRFConstant is the RRF smoothing parameter k (default: 60).
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`

	// DenseTimeout bounds the dense retrieval branch (default: "5s").
	// On expiry the engine degrades to lexical-only results.
	DenseTimeout string `yaml:"dense_timeout" json:"dense_timeout"`
}

// RerankConfig configures the re-ranking stage.
type RerankConfig struct {
	// Strategy selects the reranker: "heuristic" (default, no external
	// dependency) or "model" (hosted rerank API).
	Strategy string `yaml:"strategy" json:"strategy"`

	// Endpoint is the rerank API base URL (model strategy only).
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Model is the rerank model identifier (model strategy only).
	Model string `yaml:"model" json:"model"`

	// BlendWeight is the share of the rerank score in the final blend for
	// the model strategy (default: 0.7; original score gets 1-BlendWeight).
	BlendWeight float64 `yaml:"blend_weight" json:"blend_weight"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider: "auto" (Ollama if reachable, else static), "ollama", "static".
	Provider string `yaml:"provider" json:"provider"`

	// Model is the embedding model name (Ollama provider).
	Model string `yaml:"model" json:"model"`

	// Dimensions is the embedding dimension.
	Dimensions int `yaml:"dimensions" json:"dimensions"`

	// OllamaHost is the Ollama API endpoint.
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`

	// CacheSize is the number of query embeddings kept in the LRU cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Store:   StoreConfig{Path: ""},
		Index: IndexConfig{
			Backend:    "memory",
			K1:         1.5,
			B:          0.75,
			RefreshTTL: "1h",
		},
		Search: SearchConfig{
			DefaultLimit:     10,
			MaxLimit:         100,
			DefaultThreshold: 0.0,
			FusionStrategy:   FusionStrategyRRF,
			Alpha:            0.7,
			SemanticWeight:   0.7,
			KeywordWeight:    0.3,
			RRFConstant:      60,
			DenseTimeout:     "5s",
		},
		Rerank: RerankConfig{
			Strategy:    RerankStrategyHeuristic,
			BlendWeight: 0.7,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "auto",
			Model:      "nomic-embed-text",
			Dimensions: 768,
			OllamaHost: "http://localhost:11434",
			CacheSize:  1000,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads configuration from path, applies env overrides, and validates.
// A missing file is not an error: defaults plus env overrides are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnvOverrides applies MAAR_* environment variables on top of cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MAAR_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("MAAR_INDEX_BACKEND"); v != "" {
		cfg.Index.Backend = v
	}
	if v := os.Getenv("MAAR_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.Alpha = f
		}
	}
	if v := os.Getenv("MAAR_RRF_CONSTANT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.RRFConstant = n
		}
	}
	if v := os.Getenv("MAAR_OLLAMA_HOST"); v != "" {
		cfg.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("MAAR_RERANK_ENDPOINT"); v != "" {
		cfg.Rerank.Endpoint = v
	}
	if v := os.Getenv("MAAR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	switch c.Index.Backend {
	case "memory", "sqlite", "bleve":
	default:
		return fmt.Errorf("invalid index backend %q (valid: memory, sqlite, bleve)", c.Index.Backend)
	}

	if c.Index.K1 <= 0 {
		return fmt.Errorf("index k1 must be positive, got %v", c.Index.K1)
	}
	if c.Index.B < 0 || c.Index.B > 1 {
		return fmt.Errorf("index b must be in [0,1], got %v", c.Index.B)
	}
	if _, err := time.ParseDuration(c.Index.RefreshTTL); err != nil {
		return fmt.Errorf("invalid refresh_ttl %q: %w", c.Index.RefreshTTL, err)
	}

	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("max_limit %d must be >= default_limit %d", c.Search.MaxLimit, c.Search.DefaultLimit)
	}
	if c.Search.Alpha < 0 || c.Search.Alpha > 1 {
		return fmt.Errorf("alpha must be in [0,1], got %v", c.Search.Alpha)
	}
	if c.Search.DefaultThreshold < 0 || c.Search.DefaultThreshold > 1 {
		return fmt.Errorf("default_threshold must be in [0,1], got %v", c.Search.DefaultThreshold)
	}
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}
	switch c.Search.FusionStrategy {
	case FusionStrategyRRF, FusionStrategyWeighted:
	default:
		return fmt.Errorf("invalid fusion_strategy %q (valid: rrf, weighted)", c.Search.FusionStrategy)
	}
	if _, err := time.ParseDuration(c.Search.DenseTimeout); err != nil {
		return fmt.Errorf("invalid dense_timeout %q: %w", c.Search.DenseTimeout, err)
	}

	switch c.Rerank.Strategy {
	case RerankStrategyModel, RerankStrategyHeuristic:
	default:
		return fmt.Errorf("invalid rerank strategy %q (valid: model, heuristic)", c.Rerank.Strategy)
	}
	if c.Rerank.BlendWeight < 0 || c.Rerank.BlendWeight > 1 {
		return fmt.Errorf("rerank blend_weight must be in [0,1], got %v", c.Rerank.BlendWeight)
	}

	return nil
}

// RefreshTTLDuration returns the parsed index refresh TTL.
// Validate must have been called; parse errors fall back to one hour.
func (c *Config) RefreshTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.Index.RefreshTTL)
	if err != nil {
		return time.Hour
	}
	return d
}

// DenseTimeoutDuration returns the parsed dense retrieval timeout.
func (c *Config) DenseTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Search.DenseTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}
