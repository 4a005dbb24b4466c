// Package retrieval implements hybrid retrieval: a local vector-store RAG
// lookup, optionally widened with a web search, composed into the context
// block and source list the generate node consumes. Grounded on
// jemygraw-langgraphgo/prebuilt/rag.go's VectorStore/Retriever/
// DocumentWithScore shapes, adapted from a graph-builder pipeline to a
// single callable stage fitting this module's fixed topology.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbchat/ragchat-go/graph"
	"github.com/kbchat/ragchat-go/graph/embed"
	"github.com/kbchat/ragchat-go/graph/rerank"
)

// DocumentWithScore pairs a stored document with its similarity score,
// matching the shape VectorStore implementations return.
type DocumentWithScore struct {
	Document embed.Document
	Score    float64
}

// VectorStore stores embedded chunks and answers similarity queries,
// optionally narrowed by source path or tag filters.
type VectorStore interface {
	SimilaritySearch(ctx context.Context, queryVector []float32, k int, sources, tags []string) ([]DocumentWithScore, error)
	// Empty reports whether the store currently holds zero chunks, used to
	// short-circuit retrieval with emptyIndexMessage.
	Empty(ctx context.Context) (bool, error)
}

// Result is the local-RAG outcome the retrieve node folds into state.
type Result struct {
	Context          string
	Sources          []graph.ChatSource
	IsGlobalSearch   bool
	Metrics          map[string]any
	EmptyIndexMessage string
}

// Config tunes a Retriever's search behavior.
type Config struct {
	TopK              int
	ScoreThreshold    float64
	EmptyIndexMessage string
}

// DefaultConfig mirrors the pack's DefaultRAGConfig defaults, narrowed to
// this module's fields.
func DefaultConfig() Config {
	return Config{TopK: 4, ScoreThreshold: 0.0, EmptyIndexMessage: "知识库为空"}
}

// Retriever runs local hybrid retrieval: embed the query, search the vector
// store, optionally rerank, and assemble context plus citations.
type Retriever struct {
	store    VectorStore
	embedder *embed.Facade
	reranker *rerank.Reranker
	cfg      Config
}

// New wires a VectorStore, the shared embedding Facade, and an optional
// Reranker (nil disables reranking) behind the given Config.
func New(store VectorStore, embedder *embed.Facade, reranker *rerank.Reranker, cfg Config) *Retriever {
	return &Retriever{store: store, embedder: embedder, reranker: reranker, cfg: cfg}
}

// Retrieve performs local RAG over query, scoped by sources/tags.
func (r *Retriever) Retrieve(ctx context.Context, query string, sources, tags []string) (Result, error) {
	empty, err := r.store.Empty(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("retrieval: check index empty: %w", err)
	}
	if empty {
		return Result{EmptyIndexMessage: r.cfg.EmptyIndexMessage}, nil
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("retrieval: embed query: %w", err)
	}

	topK := r.cfg.TopK
	if topK <= 0 {
		topK = 4
	}
	hits, err := r.store.SimilaritySearch(ctx, queryVector, topK, sources, tags)
	if err != nil {
		return Result{}, fmt.Errorf("retrieval: similarity search: %w", err)
	}

	hits = r.filterByThreshold(hits)
	if r.reranker != nil && len(hits) > 0 {
		hits, err = r.applyRerank(ctx, query, hits)
		if err != nil {
			return Result{}, fmt.Errorf("retrieval: rerank: %w", err)
		}
	}

	if len(hits) == 0 {
		return Result{EmptyIndexMessage: r.cfg.EmptyIndexMessage}, nil
	}

	return Result{
		Context:        formatContext(hits),
		Sources:        toChatSources(hits),
		IsGlobalSearch: len(sources) == 0 && len(tags) == 0,
		Metrics:        map[string]any{"chunkCount": len(hits), "topScore": hits[0].Score},
	}, nil
}

func (r *Retriever) filterByThreshold(hits []DocumentWithScore) []DocumentWithScore {
	if r.cfg.ScoreThreshold <= 0 {
		return hits
	}
	kept := hits[:0]
	for _, h := range hits {
		if h.Score >= r.cfg.ScoreThreshold {
			kept = append(kept, h)
		}
	}
	return kept
}

func (r *Retriever) applyRerank(ctx context.Context, query string, hits []DocumentWithScore) ([]DocumentWithScore, error) {
	docs := make([]embed.Document, len(hits))
	for i, h := range hits {
		docs[i] = h.Document
	}
	scored, err := r.reranker.Rerank(ctx, query, docs)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentWithScore, len(scored))
	for i, s := range scored {
		out[i] = DocumentWithScore{Document: s.Document, Score: s.Score}
	}
	return out, nil
}

func formatContext(hits []DocumentWithScore) string {
	var b strings.Builder
	for i, h := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(h.Document.PageContent)
	}
	return b.String()
}

func toChatSources(hits []DocumentWithScore) []graph.ChatSource {
	out := make([]graph.ChatSource, len(hits))
	for i, h := range hits {
		out[i] = graph.ChatSource{
			Content:    h.Document.PageContent,
			FileName:   metaString(h.Document.Metadata, "fileName"),
			FilePath:   metaString(h.Document.Metadata, "filePath"),
			Score:      h.Score,
			FileType:   metaString(h.Document.Metadata, "fileType"),
			SourceType: "file",
		}
	}
	return out
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	v, _ := meta[key].(string)
	return v
}
