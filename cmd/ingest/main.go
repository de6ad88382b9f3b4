package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"healthmate-be/internal/config"
	"healthmate-be/internal/repository/implementation"
	"healthmate-be/pkg/database"
	"healthmate-be/pkg/embedding"
	"healthmate-be/pkg/store"
	"healthmate-be/pkg/utils"
	"healthmate-be/pkg/vectorstore"

	"github.com/fatih/color"
)

// Ingests every .txt and .md file under the configured sources directory
// straight into the vector index, bypassing the HTTP queue. Intended for
// seeding a fresh knowledge base.
func main() {
	cfg := config.Load()

	color.Cyan("HealthMate knowledge base ingestion")
	color.Cyan("Sources directory: %s\n", cfg.App.SourcesDir)

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		color.Red("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	var embedder embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embedder = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbedModel)
	} else {
		embedder = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}

	gateway := vectorstore.NewGateway(embedder, implementation.NewDocumentChunkRepository(db))
	ctx := context.Background()

	entries, err := os.ReadDir(cfg.App.SourcesDir)
	if err != nil {
		color.Red("Failed to read sources directory: %v", err)
		os.Exit(1)
	}

	ingested := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}

		path := filepath.Join(cfg.App.SourcesDir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			color.Red("Failed to read %s: %v", entry.Name(), err)
			continue
		}

		color.Yellow("Ingesting %s...", entry.Name())

		if err := ingestDocument(ctx, gateway, cfg, entry.Name(), path, string(content)); err != nil {
			color.Red("Failed to ingest %s: %v", entry.Name(), err)
			continue
		}
		ingested++
	}

	count, err := gateway.Count(ctx)
	if err != nil {
		log.Printf("Warn: Failed to count chunks: %v", err)
	}

	color.Green("\nDone: %d documents ingested, %d chunks in index", ingested, count)
}

func ingestDocument(ctx context.Context, gateway *vectorstore.Gateway, cfg *config.Config, source, path, content string) error {
	// re-ingesting replaces the previous chunks for the source
	if err := gateway.DeleteSource(ctx, source); err != nil {
		return err
	}

	chunks := utils.SplitText(content, cfg.Rag.ChunkSize, cfg.Rag.ChunkOverlap)

	texts := make([]string, 0, len(chunks))
	metadatas := make([]store.ChunkMetadata, 0, len(chunks))
	ids := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		texts = append(texts, chunk)
		metadatas = append(metadatas, store.ChunkMetadata{
			Source:      source,
			Path:        path,
			ChunkIndex:  i,
			TotalChunks: len(chunks),
		})
		ids = append(ids, fmt.Sprintf("%s_chunk_%d", source, i))
	}

	if _, err := gateway.AddDocuments(ctx, texts, metadatas, ids); err != nil {
		return err
	}

	color.Green("  %d chunks indexed", len(chunks))
	return nil
}
