package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashModel_SimilarTextsScoreHigherThanDissimilar(t *testing.T) {
	m := NewHashModel(64)
	vectors, err := m.EmbedBatch(context.Background(), []string{
		"the quick brown fox jumps",
		"the quick brown fox leaps",
		"interest rates rose sharply today",
	})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	dotSimilar := dot(vectors[0], vectors[1])
	dotDissimilar := dot(vectors[0], vectors[2])
	assert.Greater(t, dotSimilar, dotDissimilar)
}

func TestHashModel_EmptyTextYieldsZeroVector(t *testing.T) {
	m := NewHashModel(16)
	vectors, err := m.EmbedBatch(context.Background(), []string{""})
	require.NoError(t, err)
	for _, v := range vectors[0] {
		assert.Zero(t, v)
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
