package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	maarerrors "github.com/abdobzx/maar/internal/errors"
	"github.com/abdobzx/maar/internal/index"
	"github.com/abdobzx/maar/internal/store"
)

// Engine orchestrates hybrid search: lexical and dense retrieval run
// concurrently, the ranked lists are fused, filtered, thresholded,
// optionally re-ranked, and truncated.
//
// A single engine instance is shared across concurrent callers. Rebuilds
// replace the lexical index wholesale under its own lock; searches in
// flight complete against the index state they captured.
type Engine struct {
	lexical  index.LexicalIndex
	chunks   store.ChunkStore
	dense    DenseRetriever
	reranker Reranker
	config   EngineConfig
	now      func() time.Time

	// rebuildMu serializes rebuilds; stateMu guards the build timestamp.
	rebuildMu sync.Mutex
	stateMu   sync.RWMutex
	built     bool
	builtAt   time.Time
}

// NewEngine creates the engine. The lexical index and chunk store are
// required; the dense path and reranker come in through options.
func NewEngine(lexical index.LexicalIndex, chunks store.ChunkStore, config EngineConfig, opts ...EngineOption) (*Engine, error) {
	if lexical == nil {
		return nil, fmt.Errorf("lexical index is required")
	}
	if chunks == nil {
		return nil, fmt.Errorf("chunk store is required")
	}

	if config.DefaultLimit <= 0 {
		config.DefaultLimit = DefaultLimit
	}
	if config.MaxLimit <= 0 {
		config.MaxLimit = MaxLimit
	}
	if config.FusionStrategy == "" {
		config.FusionStrategy = FusionRRF
	}
	if config.Alpha <= 0 || config.Alpha > 1 {
		config.Alpha = DefaultAlpha
	}
	if config.RRFConstant <= 0 {
		config.RRFConstant = DefaultRRFConstant
	}
	if config.SemanticWeight <= 0 {
		config.SemanticWeight = DefaultSemanticWeight
	}
	if config.KeywordWeight <= 0 {
		config.KeywordWeight = DefaultKeywordWeight
	}
	if config.BlendWeight <= 0 || config.BlendWeight > 1 {
		config.BlendWeight = DefaultBlendWeight
	}

	e := &Engine{
		lexical:  lexical,
		chunks:   chunks,
		reranker: NewHeuristicReranker(),
		config:   config,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// RebuildIndex loads the full corpus from the chunk store and rebuilds
// the lexical index. Concurrent rebuild requests serialize; searches keep
// reading a consistent index throughout.
func (e *Engine) RebuildIndex(ctx context.Context) (int, error) {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	start := e.now()
	chunks, err := e.chunks.ListChunks(ctx)
	if err != nil {
		return 0, maarerrors.New(maarerrors.ErrCodeStoreQuery, "failed to load corpus", err)
	}

	if err := e.lexical.BuildIndex(ctx, chunks); err != nil {
		return 0, maarerrors.New(maarerrors.ErrCodeIndexBuildFailed, "failed to build lexical index", err)
	}

	e.stateMu.Lock()
	e.built = true
	e.builtAt = e.now()
	e.stateMu.Unlock()

	slog.Info("index_rebuilt",
		slog.Int("chunks", len(chunks)),
		slog.Duration("duration", e.now().Sub(start)))

	return len(chunks), nil
}

// needsRefresh reports whether the lexical index is stale at the given
// instant. Pure so refresh policy is testable without clocks.
func needsRefresh(built bool, builtAt, now time.Time, ttl time.Duration) bool {
	if !built || ttl <= 0 {
		return false
	}
	return now.Sub(builtAt) > ttl
}

// maybeRefresh rebuilds the index when the TTL has lapsed. Refresh
// failures keep the stale index serving rather than failing the search.
func (e *Engine) maybeRefresh(ctx context.Context) {
	e.stateMu.RLock()
	stale := needsRefresh(e.built, e.builtAt, e.now(), e.config.RefreshTTL)
	e.stateMu.RUnlock()

	if !stale {
		return
	}

	if _, err := e.RebuildIndex(ctx); err != nil {
		slog.Warn("index_refresh_failed", slog.String("error", err.Error()))
	}
}

// Search runs the full pipeline for one query.
//
// Empty queries and searches before the first successful build return
// empty results, not errors. A failed dense path degrades to keyword; the
// search fails only when every available path fails.
func (e *Engine) Search(ctx context.Context, query SearchQuery) (*SearchResponse, error) {
	start := e.now()

	if err := e.validate(&query); err != nil {
		return nil, err
	}

	if query.Query == "" {
		return e.respond(query, []*SearchResult{}, OutcomeOk(), start), nil
	}

	e.stateMu.RLock()
	built := e.built
	e.stateMu.RUnlock()
	if !built {
		slog.Debug("search_before_first_build", slog.String("query", query.Query))
		return e.respond(query, []*SearchResult{}, OutcomeOk(), start), nil
	}

	e.maybeRefresh(ctx)

	results, outcome, err := e.retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err = ApplyFilters(ctx, results, query.Filters, e.chunks)
	if err != nil {
		return nil, maarerrors.Wrap(maarerrors.ErrCodeStoreQuery, err)
	}

	results = applyThreshold(results, query.Threshold)

	if query.Rerank && len(results) > 1 {
		results, outcome = e.rerank(ctx, query.Query, results, outcome)
	}

	if len(results) > query.Limit {
		results = results[:query.Limit]
	}

	resp := e.respond(query, results, outcome, start)
	slog.Info("search_complete",
		slog.String("search_type", query.SearchType),
		slog.Int("results", len(results)),
		slog.String("status", outcome.Status),
		slog.Duration("duration", resp.ExecutionTime))

	return resp, nil
}

// validate normalizes defaults and rejects out-of-range parameters.
func (e *Engine) validate(q *SearchQuery) error {
	if q.SearchType == "" {
		q.SearchType = TypeHybrid
	}
	switch q.SearchType {
	case TypeSemantic, TypeKeyword, TypeHybrid:
	default:
		return maarerrors.New(maarerrors.ErrCodeInvalidSearchType,
			fmt.Sprintf("search_type must be one of %s, %s, %s", TypeSemantic, TypeKeyword, TypeHybrid), nil).
			WithDetail("search_type", q.SearchType)
	}

	if q.Limit < 0 || q.Limit > e.config.MaxLimit {
		return maarerrors.New(maarerrors.ErrCodeInvalidLimit,
			fmt.Sprintf("limit must be between 1 and %d", e.config.MaxLimit), nil).
			WithDetail("limit", strconv.Itoa(q.Limit))
	}
	if q.Limit == 0 {
		q.Limit = e.config.DefaultLimit
	}

	if q.Threshold == 0 {
		q.Threshold = e.config.DefaultThreshold
	}
	if q.Threshold < 0 || q.Threshold > 1 {
		return maarerrors.New(maarerrors.ErrCodeInvalidThreshold, "threshold must be in [0, 1]", nil).
			WithDetail("threshold", strconv.FormatFloat(q.Threshold, 'g', -1, 64))
	}

	return nil
}

// retrieve dispatches to the retrieval paths by search type.
func (e *Engine) retrieve(ctx context.Context, query SearchQuery) ([]*SearchResult, Outcome, error) {
	// Fetch extra candidates when filters will thin the list
	candidates := query.Limit
	if len(query.Filters) > 0 {
		candidates = query.Limit * 3
	}

	switch query.SearchType {
	case TypeKeyword:
		results, err := e.lexicalSearch(ctx, query.Query, candidates)
		if err != nil {
			return nil, Outcome{}, maarerrors.RetrievalUnavailable("keyword path failed", err)
		}
		return results, OutcomeOk(), nil

	case TypeSemantic:
		results, err := e.denseSearch(ctx, query.Query, candidates)
		if err == nil {
			return results, OutcomeOk(), nil
		}
		derr := maarerrors.DegradedRetrieval("dense path unavailable", err)
		slog.Warn("dense_search_failed",
			slog.String("code", derr.Code),
			slog.String("error", derr.Error()),
			slog.String("fallback", TypeKeyword))
		results, kerr := e.lexicalSearch(ctx, query.Query, candidates)
		if kerr != nil {
			return nil, Outcome{}, maarerrors.RetrievalUnavailable("both retrieval paths failed", kerr)
		}
		return results, OutcomeDegraded("dense path unavailable, keyword fallback"), nil

	default: // TypeHybrid
		return e.hybridSearch(ctx, query.Query, candidates)
	}
}

// hybridSearch fans out to both paths, then fuses whatever survived.
// The dense branch runs under its own timeout so a slow vector backend
// never holds the lexical results hostage.
func (e *Engine) hybridSearch(ctx context.Context, query string, limit int) ([]*SearchResult, Outcome, error) {
	var (
		sparse, dense       []*SearchResult
		sparseErr, denseErr error
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sparse, sparseErr = e.lexicalSearch(gctx, query, limit)
		return nil
	})

	g.Go(func() error {
		denseCtx := gctx
		if e.config.DenseTimeout > 0 {
			var cancel context.CancelFunc
			denseCtx, cancel = context.WithTimeout(gctx, e.config.DenseTimeout)
			defer cancel()
		}
		dense, denseErr = e.denseSearch(denseCtx, query, limit)
		return nil
	})

	// Branch errors are collected, not returned, so one failed path
	// never cancels the other
	_ = g.Wait()

	if sparseErr != nil && denseErr != nil {
		return nil, Outcome{}, maarerrors.RetrievalUnavailable("both retrieval paths failed",
			fmt.Errorf("lexical: %v; dense: %v", sparseErr, denseErr))
	}

	outcome := OutcomeOk()
	if denseErr != nil {
		derr := maarerrors.DegradedRetrieval("dense branch failed", denseErr)
		slog.Warn("dense_branch_failed",
			slog.String("code", derr.Code),
			slog.String("error", derr.Error()))
		outcome = OutcomeDegraded("dense branch failed")
		dense = []*SearchResult{}
	}
	if sparseErr != nil {
		derr := maarerrors.DegradedRetrieval("lexical branch failed", sparseErr)
		slog.Warn("lexical_branch_failed",
			slog.String("code", derr.Code),
			slog.String("error", derr.Error()))
		outcome = OutcomeDegraded("lexical branch failed")
		sparse = []*SearchResult{}
	}

	var fused []*SearchResult
	if e.config.FusionStrategy == FusionWeighted {
		fused = FuseWeighted(dense, sparse, e.config.SemanticWeight, e.config.KeywordWeight)
	} else {
		fused = FuseRRF(dense, sparse, e.config.Alpha, e.config.RRFConstant)
	}

	return fused, outcome, nil
}

// lexicalSearch adapts the lexical index's results to SearchResults.
func (e *Engine) lexicalSearch(ctx context.Context, query string, limit int) ([]*SearchResult, error) {
	hits, err := e.lexical.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	results := make([]*SearchResult, len(hits))
	for i, h := range hits {
		results[i] = &SearchResult{
			ChunkID:    h.Chunk.ID,
			DocumentID: h.Chunk.DocumentID,
			Content:    h.Chunk.Content,
			Score:      h.Score,
			Metadata:   h.Chunk.Metadata,
		}
	}
	return results, nil
}

// denseSearch runs the dense path, which is optional.
func (e *Engine) denseSearch(ctx context.Context, query string, limit int) ([]*SearchResult, error) {
	if e.dense == nil {
		return nil, fmt.Errorf("dense retriever not configured")
	}
	return e.dense.Search(ctx, query, limit)
}

// rerank applies the configured strategy; a failed external call falls
// back to the identity ordering with synthetic scores instead of erroring.
func (e *Engine) rerank(ctx context.Context, query string, results []*SearchResult, outcome Outcome) ([]*SearchResult, Outcome) {
	reranked, err := e.reranker.Rerank(ctx, query, results)
	if err != nil {
		derr := maarerrors.DegradedRetrieval("rerank unavailable", err)
		slog.Warn("rerank_failed",
			slog.String("strategy", e.reranker.Name()),
			slog.String("code", derr.Code),
			slog.String("error", derr.Error()))
		return fallbackRerank(results, e.config.BlendWeight), OutcomeDegraded("rerank unavailable, identity ordering")
	}
	return reranked, outcome
}

// applyThreshold drops results scoring below the threshold. Order is
// preserved, so raising the threshold can only shrink the list.
func applyThreshold(results []*SearchResult, threshold float64) []*SearchResult {
	if threshold <= 0 {
		return results
	}
	kept := make([]*SearchResult, 0, len(results))
	for _, r := range results {
		if r.Score >= threshold {
			kept = append(kept, r)
		}
	}
	return kept
}

// respond assembles the response envelope.
func (e *Engine) respond(query SearchQuery, results []*SearchResult, outcome Outcome, start time.Time) *SearchResponse {
	return &SearchResponse{
		Results:       results,
		TotalResults:  len(results),
		Query:         query.Query,
		SearchType:    query.SearchType,
		ExecutionTime: e.now().Sub(start),
		Outcome:       outcome,
	}
}

// Stats reports the lexical index statistics and build state.
func (e *Engine) Stats() *index.IndexStats {
	return e.lexical.Stats()
}

// LastBuiltAt reports when the lexical index was last rebuilt. The zero
// time means no build has happened yet.
func (e *Engine) LastBuiltAt() time.Time {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.builtAt
}
