package search

import (
	"context"
	"fmt"
	"reflect"

	"github.com/abdobzx/maar/internal/store"
)

// Filter keys resolved against the owning document record instead of the
// chunk's own metadata map.
const (
	filterKeyDocumentID     = "document_id"
	filterKeyUserID         = "user_id"
	filterKeyOrganizationID = "organization_id"
)

// ApplyFilters keeps results whose metadata satisfies every filter entry.
// A scalar filter value requires equality; a list value requires membership.
// Results missing a filtered key are dropped (fail-closed). Order and
// scores of survivors are untouched, so the output is always a subsequence
// of the input.
//
// The ownership keys (document_id, user_id, organization_id) are resolved
// against the chunk's owning document via the resolver, the only I/O this
// stage performs. A nil resolver fails those filters closed.
func ApplyFilters(ctx context.Context, results []*SearchResult, filters map[string]any, resolver store.DocumentResolver) ([]*SearchResult, error) {
	if len(filters) == 0 || len(results) == 0 {
		return results, nil
	}

	docs, err := resolveDocuments(ctx, results, filters, resolver)
	if err != nil {
		return nil, err
	}

	kept := make([]*SearchResult, 0, len(results))
	for _, r := range results {
		if matchesAll(r, filters, docs) {
			kept = append(kept, r)
		}
	}

	return kept, nil
}

// resolveDocuments fetches owning-document records when any ownership key
// is filtered. Returns nil when no join is needed.
func resolveDocuments(ctx context.Context, results []*SearchResult, filters map[string]any, resolver store.DocumentResolver) (map[string]*store.DocumentRecord, error) {
	needsJoin := false
	for _, key := range []string{filterKeyDocumentID, filterKeyUserID, filterKeyOrganizationID} {
		if _, ok := filters[key]; ok {
			needsJoin = true
			break
		}
	}
	if !needsJoin || resolver == nil {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(results))
	ids := make([]string, 0, len(results))
	for _, r := range results {
		if r.DocumentID == "" {
			continue
		}
		if _, dup := seen[r.DocumentID]; dup {
			continue
		}
		seen[r.DocumentID] = struct{}{}
		ids = append(ids, r.DocumentID)
	}

	docs, err := resolver.GetDocuments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve documents for filtering: %w", err)
	}
	return docs, nil
}

// matchesAll checks every filter entry against one result.
func matchesAll(r *SearchResult, filters map[string]any, docs map[string]*store.DocumentRecord) bool {
	for key, want := range filters {
		got, ok := lookupFilterValue(r, key, docs)
		if !ok {
			return false
		}
		if !valueMatches(got, want) {
			return false
		}
	}
	return true
}

// lookupFilterValue finds the value a filter key refers to: the document
// join for ownership keys, the chunk metadata for everything else.
func lookupFilterValue(r *SearchResult, key string, docs map[string]*store.DocumentRecord) (any, bool) {
	switch key {
	case filterKeyDocumentID:
		if r.DocumentID == "" {
			return nil, false
		}
		return r.DocumentID, true
	case filterKeyUserID:
		doc, ok := docs[r.DocumentID]
		if !ok {
			return nil, false
		}
		return doc.UserID, true
	case filterKeyOrganizationID:
		doc, ok := docs[r.DocumentID]
		if !ok {
			return nil, false
		}
		return doc.OrganizationID, true
	default:
		got, ok := r.Metadata[key]
		return got, ok
	}
}

// valueMatches tests equality against a scalar or membership in a list.
func valueMatches(got, want any) bool {
	switch allowed := want.(type) {
	case []any:
		for _, v := range allowed {
			if equalScalar(got, v) {
				return true
			}
		}
		return false
	case []string:
		for _, v := range allowed {
			if equalScalar(got, v) {
				return true
			}
		}
		return false
	default:
		return equalScalar(got, want)
	}
}

// equalScalar compares scalars with numeric coercion, since metadata
// round-tripped through JSON carries numbers as float64.
func equalScalar(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
