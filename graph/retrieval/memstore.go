package retrieval

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/kbchat/ragchat-go/graph/embed"
)

// MemoryVectorStore is an in-process VectorStore: brute-force cosine
// similarity over embedded chunks, plus the file/tag bookkeeping kbOverview
// reads. Grounded on jemygraw-langgraphgo/prebuilt/rag.go's
// AddDocuments/SimilaritySearch VectorStore shape, specialized to this
// module's []float32 vectors and source/tag filtering.
type MemoryVectorStore struct {
	mu    sync.RWMutex
	docs  []storedDoc
	files map[string]*FileEntry
}

type storedDoc struct {
	doc    embed.Document
	vector []float32
}

// FileEntry tracks one ingested file for the knowledge-base snapshot.
type FileEntry struct {
	Name       string
	Path       string
	Tags       []string
	UpdatedAt  time.Time
	ChunkCount int
}

// NewMemoryVectorStore creates an empty store.
func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{files: make(map[string]*FileEntry)}
}

// Empty implements VectorStore.
func (s *MemoryVectorStore) Empty(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs) == 0, nil
}

// SimilaritySearch implements VectorStore: cosine similarity over every
// stored chunk, narrowed by sources (matched against metadata["filePath"])
// and tags (matched against metadata["tags"]) when either is non-empty.
func (s *MemoryVectorStore) SimilaritySearch(_ context.Context, queryVector []float32, k int, sources, tags []string) ([]DocumentWithScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]DocumentWithScore, 0, len(s.docs))
	for _, d := range s.docs {
		if !matchesFilter(d.doc, sources, tags) {
			continue
		}
		scored = append(scored, DocumentWithScore{
			Document: d.doc,
			Score:    cosineSimilarity(queryVector, d.vector),
		})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// AddChunks registers pre-embedded chunks under one source file, updating
// the knowledge-base file registry kbOverview reads.
func (s *MemoryVectorStore) AddChunks(fileName, filePath, fileType string, tags []string, chunks []embed.Document, vectors [][]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range chunks {
		meta := make(map[string]any, len(c.Metadata)+4)
		for k, v := range c.Metadata {
			meta[k] = v
		}
		meta["fileName"] = fileName
		meta["filePath"] = filePath
		meta["fileType"] = fileType
		meta["tags"] = tags
		s.docs = append(s.docs, storedDoc{
			doc:    embed.Document{PageContent: c.PageContent, Metadata: meta},
			vector: vectors[i],
		})
	}

	s.files[filePath] = &FileEntry{
		Name:       fileName,
		Path:       filePath,
		Tags:       tags,
		UpdatedAt:  time.Now(),
		ChunkCount: len(chunks),
	}
}

// Files returns a snapshot of the registered files, sorted by name.
func (s *MemoryVectorStore) Files() []FileEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]FileEntry, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func matchesFilter(doc embed.Document, sources, tags []string) bool {
	if len(sources) == 0 && len(tags) == 0 {
		return true
	}
	if len(sources) > 0 {
		path, _ := doc.Metadata["filePath"].(string)
		if !containsString(sources, path) {
			return false
		}
	}
	if len(tags) > 0 {
		docTags, _ := doc.Metadata["tags"].([]string)
		if !anyStringOverlap(docTags, tags) {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func anyStringOverlap(a, b []string) bool {
	for _, x := range a {
		if containsString(b, x) {
			return true
		}
	}
	return false
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
