package cmd

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
)

// statsReport is the JSON shape printed by the stats command.
type statsReport struct {
	Backend        string  `json:"backend"`
	Chunks         int     `json:"chunks"`
	IndexedDocs    int     `json:"indexed_docs"`
	Terms          int     `json:"terms"`
	AvgDocLength   float64 `json:"avg_doc_length"`
	Vectors        int     `json:"vectors"`
	EmbeddingModel string  `json:"embedding_model"`
	BuiltAt        string  `json:"built_at"`
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index and corpus statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close()

			if _, err := a.engine.RebuildIndex(ctx); err != nil {
				return err
			}

			chunks, err := a.store.CountChunks(ctx)
			if err != nil {
				return err
			}

			idx := a.engine.Stats()
			report := statsReport{
				Backend:        idx.Backend,
				Chunks:         chunks,
				IndexedDocs:    idx.DocumentCount,
				Terms:          idx.TermCount,
				AvgDocLength:   idx.AvgDocLength,
				Vectors:        a.vectors.Count(),
				EmbeddingModel: a.embedder.ModelName(),
				BuiltAt:        a.engine.LastBuiltAt().UTC().Format(time.RFC3339),
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
