package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abdobzx/maar/internal/store"
)

// ingestRecord is one JSONL line in an ingest file. Each line is a chunk;
// lines sharing a document_id belong to the same document.
type ingestRecord struct {
	DocumentID     string         `json:"document_id"`
	DocumentName   string         `json:"document_name"`
	UserID         string         `json:"user_id"`
	OrganizationID string         `json:"organization_id"`
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata"`
}

func newIngestCmd() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "ingest <file.jsonl>",
		Short: "Ingest chunks from a JSONL file",
		Long: `Ingest document chunks from a JSONL file, one chunk per line:

  {"document_id": "d1", "document_name": "guide.md", "user_id": "u1",
   "organization_id": "org1", "content": "...", "metadata": {"lang": "en"}}

Chunks are stored, embedded, and made searchable. Lines without a
document_id are grouped under a generated document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd, args[0], batchSize)
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 32, "Embedding batch size")

	return cmd
}

func runIngest(ctx context.Context, cmd *cobra.Command, path string, batchSize int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open ingest file: %w", err)
	}
	defer file.Close()

	start := time.Now()
	docs := make(map[string]*store.DocumentRecord)
	var chunks []*store.Chunk

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec ingestRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("line %d: invalid JSON: %w", lineNo, err)
		}
		if rec.Content == "" {
			return fmt.Errorf("line %d: content is required", lineNo)
		}

		docID := rec.DocumentID
		if docID == "" {
			docID = uuid.New().String()
		}
		if _, ok := docs[docID]; !ok {
			docs[docID] = &store.DocumentRecord{
				ID:             docID,
				Name:           rec.DocumentName,
				UserID:         rec.UserID,
				OrganizationID: rec.OrganizationID,
				CreatedAt:      time.Now().UTC(),
			}
		}

		chunks = append(chunks, &store.Chunk{
			ID:         uuid.New().String(),
			DocumentID: docID,
			Content:    rec.Content,
			Metadata:   rec.Metadata,
			CreatedAt:  time.Now().UTC(),
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read ingest file: %w", err)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks found in %s", path)
	}

	docList := make([]*store.DocumentRecord, 0, len(docs))
	for _, d := range docs {
		docList = append(docList, d)
	}
	if err := a.store.SaveDocuments(ctx, docList); err != nil {
		return err
	}
	if err := a.store.SaveChunks(ctx, chunks); err != nil {
		return err
	}

	// Embed and persist vectors in batches
	for batchStart := 0; batchStart < len(chunks); batchStart += batchSize {
		end := min(batchStart+batchSize, len(chunks))
		batch := chunks[batchStart:end]

		texts := make([]string, len(batch))
		ids := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
			ids[i] = c.ID
		}

		vectors, err := a.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed batch at chunk %d: %w", batchStart, err)
		}
		if err := a.store.SaveEmbeddings(ctx, ids, vectors, a.embedder.ModelName()); err != nil {
			return err
		}
	}

	indexed, err := a.engine.RebuildIndex(ctx)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	slog.Info("ingest_complete",
		slog.Int("documents", len(docList)),
		slog.Int("chunks", len(chunks)),
		slog.Duration("duration", elapsed))

	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d chunks across %d documents (%d indexed) in %s\n",
		len(chunks), len(docList), indexed, elapsed.Round(time.Millisecond))

	return nil
}
