package index

import (
	"fmt"
	"log/slog"
)

// Backend names accepted by the factory.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBleve  = "bleve"
)

// Options configures lexical index construction.
type Options struct {
	Backend string
	K1      float64
	B       float64
}

// NewLexicalIndex creates the configured backend. Library-backed backends
// that fail to initialize fall back to the self-contained in-memory scorer
// rather than failing startup; an unknown backend name is an error.
func NewLexicalIndex(opts Options) (LexicalIndex, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryBM25(opts.K1, opts.B), nil

	case BackendSQLite:
		idx, err := NewSQLiteFTS()
		if err != nil {
			slog.Warn("lexical_backend_fallback",
				slog.String("requested", BackendSQLite),
				slog.String("error", err.Error()))
			return NewMemoryBM25(opts.K1, opts.B), nil
		}
		return idx, nil

	case BackendBleve:
		idx, err := NewBleveIndex()
		if err != nil {
			slog.Warn("lexical_backend_fallback",
				slog.String("requested", BackendBleve),
				slog.String("error", err.Error()))
			return NewMemoryBM25(opts.K1, opts.B), nil
		}
		return idx, nil

	default:
		return nil, fmt.Errorf("unknown lexical backend: %q", opts.Backend)
	}
}
