package nodes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbchat/ragchat-go/graph"
)

type stubSnapshotReader struct {
	snapshot KBSnapshot
	err      error
}

func (r stubSnapshotReader) ReadSnapshot(_ context.Context) (KBSnapshot, error) {
	return r.snapshot, r.err
}

func TestKBOverview_ComputesTotalsAndTagStats(t *testing.T) {
	now := time.Now()
	reader := stubSnapshotReader{snapshot: KBSnapshot{
		Files: []KBFile{
			{Name: "f1.md", UpdatedAt: now, ChunkCount: 10, Tags: []string{"a"}},
			{Name: "f2.md", UpdatedAt: now.Add(-time.Hour), ChunkCount: 5, Tags: []string{"a"}},
			{Name: "f3.md", UpdatedAt: now.Add(-2 * time.Hour), ChunkCount: 7, Tags: []string{"b"}},
		},
		AvailableTags: []KBTag{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}},
	}}

	node := NewKBOverview(reader)
	result := node.Run(context.Background(), graph.ChatGraphState{})

	require.NotNil(t, result.Delta.KBOverviewData)
	assert.Equal(t, 3, result.Delta.KBOverviewData.TotalFiles)
	assert.Equal(t, 22, result.Delta.KBOverviewData.TotalChunks)
	assert.Equal(t, 2, result.Delta.KBOverviewData.TagStats["A"])
	assert.Equal(t, 1, result.Delta.KBOverviewData.TagStats["B"])
	assert.Contains(t, result.Delta.Context, "- 总文件数: 3")
	assert.Contains(t, result.Delta.Context, "- A: 2 个文件")
	assert.Contains(t, result.Delta.Context, "- B: 1 个文件")
}

func TestKBOverview_ReaderFailurePassesThroughUnchanged(t *testing.T) {
	reader := stubSnapshotReader{err: assert.AnError}
	node := NewKBOverview(reader)
	result := node.Run(context.Background(), graph.ChatGraphState{Question: "q"})
	assert.Empty(t, result.Delta.Error)
	assert.Nil(t, result.Delta.KBOverviewData)
}
