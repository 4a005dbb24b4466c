package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/kbchat/ragchat-go/graph/progress"
)

// HashModel is a deterministic, dependency-free embedding Model: each text
// is hashed into a fixed-width bag-of-trigrams vector. It trades semantic
// accuracy for zero external requirements, the Facade's counterpart to
// model.MockChatModel for local demos and tests that need a real
// similarity ranking without a configured embeddings.Embedder.
type HashModel struct {
	dims int
}

// NewHashModel creates a HashModel producing vectors of the given
// dimensionality (128 if dims <= 0).
func NewHashModel(dims int) *HashModel {
	if dims <= 0 {
		dims = 128
	}
	return &HashModel{dims: dims}
}

// Init implements Model; HashModel needs no warm-up.
func (m *HashModel) Init(_ context.Context, reporter *progress.Reporter) error {
	reporter.Initiate("hash-model")
	reporter.Done("hash-model")
	return nil
}

// EmbedBatch implements Model, hashing character trigrams of each text into
// buckets and L2-normalizing the result.
func (m *HashModel) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.embedOne(text)
	}
	return out, nil
}

func (m *HashModel) embedOne(text string) []float32 {
	vec := make([]float32, m.dims)
	runes := []rune(strings.ToLower(text))
	if len(runes) == 0 {
		return vec
	}

	n := 3
	if len(runes) < n {
		n = len(runes)
	}
	for i := 0; i+n <= len(runes); i++ {
		gram := string(runes[i : i+n])
		h := fnv.New32a()
		h.Write([]byte(gram))
		bucket := h.Sum32() % uint32(m.dims)
		vec[bucket]++
	}

	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1) / float32(math.Sqrt(float64(norm)))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
