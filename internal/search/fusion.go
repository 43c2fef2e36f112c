package search

import "sort"

// Fusion constants. The RRF constant dampens the influence of top ranks;
// alpha weights the dense list against the sparse list.
const (
	DefaultRRFConstant = 60
	DefaultAlpha       = 0.7

	DefaultSemanticWeight = 0.7
	DefaultKeywordWeight  = 0.3
)

// Fusion strategy names.
const (
	FusionRRF      = "rrf"
	FusionWeighted = "weighted"
)

// FuseRRF merges a dense-ranked list and a sparse-ranked list with
// Reciprocal Rank Fusion. Only ranks matter, never raw scores:
//
//	rrf = alpha/(k + dense_rank) + (1-alpha)/(k + sparse_rank)
//
// with 1-based ranks. A chunk absent from one list gets no contribution
// from that side. The payload comes from the dense result when a chunk
// appears in both lists. Pure merge, no I/O.
func FuseRRF(dense, sparse []*SearchResult, alpha float64, k int) []*SearchResult {
	if k <= 0 {
		k = DefaultRRFConstant
	}

	type ranked struct {
		payload *SearchResult
		score   float64
		order   int
	}

	combined := make(map[string]*ranked, len(dense)+len(sparse))
	order := 0

	for i, r := range dense {
		combined[r.ChunkID] = &ranked{
			payload: r,
			score:   alpha / float64(k+i+1),
			order:   order,
		}
		order++
	}

	for i, r := range sparse {
		contribution := (1 - alpha) / float64(k+i+1)
		if entry, ok := combined[r.ChunkID]; ok {
			entry.score += contribution
			continue
		}
		combined[r.ChunkID] = &ranked{
			payload: r,
			score:   contribution,
			order:   order,
		}
		order++
	}

	fused := make([]*ranked, 0, len(combined))
	for _, entry := range combined {
		fused = append(fused, entry)
	}

	// Deterministic: ties resolve by first-seen order
	sort.SliceStable(fused, func(a, b int) bool {
		if fused[a].score != fused[b].score {
			return fused[a].score > fused[b].score
		}
		return fused[a].order < fused[b].order
	})

	results := make([]*SearchResult, len(fused))
	for i, entry := range fused {
		r := cloneResult(entry.payload)
		r.Score = entry.score
		results[i] = r
	}

	return results
}

// FuseWeighted merges the two lists by min-max normalizing each score
// list independently to [0,1] and combining with the given weights.
// A list whose scores are all equal normalizes to all 1.0; an empty list
// contributes nothing. Alternative ranker to FuseRRF, selected by
// configuration; the two need not agree on ordering.
func FuseWeighted(dense, sparse []*SearchResult, semanticWeight, keywordWeight float64) []*SearchResult {
	denseNorm := minMaxNormalize(dense)
	sparseNorm := minMaxNormalize(sparse)

	type ranked struct {
		payload *SearchResult
		score   float64
		order   int
	}

	combined := make(map[string]*ranked, len(dense)+len(sparse))
	order := 0

	for i, r := range dense {
		combined[r.ChunkID] = &ranked{
			payload: r,
			score:   semanticWeight * denseNorm[i],
			order:   order,
		}
		order++
	}

	for i, r := range sparse {
		contribution := keywordWeight * sparseNorm[i]
		if entry, ok := combined[r.ChunkID]; ok {
			entry.score += contribution
			continue
		}
		combined[r.ChunkID] = &ranked{
			payload: r,
			score:   contribution,
			order:   order,
		}
		order++
	}

	fused := make([]*ranked, 0, len(combined))
	for _, entry := range combined {
		fused = append(fused, entry)
	}

	sort.SliceStable(fused, func(a, b int) bool {
		if fused[a].score != fused[b].score {
			return fused[a].score > fused[b].score
		}
		return fused[a].order < fused[b].order
	})

	results := make([]*SearchResult, len(fused))
	for i, entry := range fused {
		r := cloneResult(entry.payload)
		r.Score = entry.score
		results[i] = r
	}

	return results
}

// minMaxNormalize maps a result list's scores to [0,1]. All-equal scores
// map to 1.0 so a single-result list still contributes fully.
func minMaxNormalize(results []*SearchResult) []float64 {
	norm := make([]float64, len(results))
	if len(results) == 0 {
		return norm
	}

	lo, hi := results[0].Score, results[0].Score
	for _, r := range results[1:] {
		if r.Score < lo {
			lo = r.Score
		}
		if r.Score > hi {
			hi = r.Score
		}
	}

	if hi == lo {
		for i := range norm {
			norm[i] = 1.0
		}
		return norm
	}

	for i, r := range results {
		norm[i] = (r.Score - lo) / (hi - lo)
	}
	return norm
}
