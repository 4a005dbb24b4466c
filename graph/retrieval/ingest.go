package retrieval

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/kbchat/ragchat-go/graph/embed"
	"github.com/kbchat/ragchat-go/graph/worker"
)

// Ingester loads whole documents into a MemoryVectorStore: split into
// chunks, embed, store. Splitting runs as a loadAndSplit worker task
// (a 300s budget for large documents); embedding reuses the shared
// Facade's own worker dispatch.
type Ingester struct {
	store    *MemoryVectorStore
	embedder *embed.Facade
	pool     *worker.Pool

	chunkSize    int
	chunkOverlap int
}

// NewIngester wires a MemoryVectorStore and embedding Facade behind the
// worker pool used for chunk splitting.
func NewIngester(store *MemoryVectorStore, embedder *embed.Facade, pool *worker.Pool) *Ingester {
	return &Ingester{store: store, embedder: embedder, pool: pool, chunkSize: 1000, chunkOverlap: 200}
}

// Ingest splits content into chunks, embeds them, and adds them to the
// backing store under fileName/filePath/fileType/tags.
func (ing *Ingester) Ingest(ctx context.Context, fileName, filePath, fileType string, tags []string, content string) error {
	result, err := ing.pool.Submit(ctx, worker.KindLoadAndSplit, func(report func(float64)) (any, error) {
		splitter := textsplitter.NewRecursiveCharacter()
		splitter.ChunkSize = ing.chunkSize
		splitter.ChunkOverlap = ing.chunkOverlap
		splitter.Separators = []string{"\n\n", "\n", "。", ". ", " ", ""}

		docs, err := textsplitter.SplitDocuments(splitter, []schema.Document{{PageContent: content}})
		if err != nil {
			return nil, fmt.Errorf("split document: %w", err)
		}
		return docs, nil
	})
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	splitDocs := result.([]schema.Document)
	chunks := make([]embed.Document, len(splitDocs))
	for i, d := range splitDocs {
		chunks[i] = embed.Document{PageContent: d.PageContent}
	}

	vectors, err := ing.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return fmt.Errorf("ingest: embed chunks: %w", err)
	}

	ing.store.AddChunks(fileName, filePath, fileType, tags, chunks, vectors)
	return nil
}
