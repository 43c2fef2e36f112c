package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdobzx/maar/internal/search"
)

// searchOptions holds the CLI flags for search.
type searchOptions struct {
	searchType string
	limit      int
	threshold  float64
	filters    []string
	rerank     bool
	format     string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the ingested corpus",
		Long: `Search the ingested corpus.

Examples:
  maar search "connection pooling"
  maar search "error handling" --type keyword --limit 5
  maar search "auth flow" --filter lang=en --filter user_id=u1
  maar search "retry logic" --rerank --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.searchType, "type", "t", search.TypeHybrid, "Search type: semantic, keyword, hybrid")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (0 = config default)")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", 0, "Minimum acceptable score")
	cmd.Flags().StringArrayVar(&opts.filters, "filter", nil, "Metadata filter key=value (repeatable)")
	cmd.Flags().BoolVar(&opts.rerank, "rerank", false, "Re-rank results")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.engine.RebuildIndex(ctx); err != nil {
		return err
	}

	filters, err := parseFilters(opts.filters)
	if err != nil {
		return err
	}

	resp, err := a.engine.Search(ctx, search.SearchQuery{
		Query:      query,
		SearchType: opts.searchType,
		Filters:    filters,
		Limit:      opts.limit,
		Threshold:  opts.threshold,
		Rerank:     opts.rerank,
	})
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	printResults(cmd, resp)
	return nil
}

// parseFilters converts key=value flags into a filter map. Repeating a
// key turns it into a membership list.
func parseFilters(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	filters := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", pair)
		}
		switch existing := filters[key].(type) {
		case nil:
			filters[key] = value
		case string:
			filters[key] = []any{existing, value}
		case []any:
			filters[key] = append(existing, value)
		}
	}

	return filters, nil
}

func printResults(cmd *cobra.Command, resp *search.SearchResponse) {
	out := cmd.OutOrStdout()

	if resp.TotalResults == 0 {
		fmt.Fprintln(out, "No results.")
		return
	}

	for i, r := range resp.Results {
		content := r.Content
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		fmt.Fprintf(out, "%2d. [%.4f] %s (doc %s)\n    %s\n",
			i+1, r.Score, r.ChunkID, r.DocumentID, content)
	}

	fmt.Fprintf(out, "\n%d results (%s, %s)",
		resp.TotalResults, resp.SearchType, resp.ExecutionTime.Round(time.Microsecond))
	if resp.Outcome.Degraded() {
		fmt.Fprintf(out, " [degraded: %s]", resp.Outcome.Reason)
	}
	fmt.Fprintln(out)
}
