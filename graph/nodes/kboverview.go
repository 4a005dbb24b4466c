package nodes

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kbchat/ragchat-go/graph"
)

// KBFile describes one knowledge-base file in a snapshot.
type KBFile struct {
	Name        string
	UpdatedAt   time.Time
	ChunkCount  int
	Tags        []string
}

// KBTag is an available tag definition.
type KBTag struct {
	ID   string
	Name string
}

// KBSnapshot is the knowledge-base inventory kbOverview reads.
type KBSnapshot struct {
	Files         []KBFile
	AvailableTags []KBTag
}

// KBSnapshotReader reads the current knowledge-base snapshot.
type KBSnapshotReader interface {
	ReadSnapshot(ctx context.Context) (KBSnapshot, error)
}

// NewKBOverview builds the kbOverview node: summarizes a knowledge-base
// snapshot into human-readable text appended to context, and structured
// KBOverviewData. Never sets error; a reader failure passes state through
// unchanged.
func NewKBOverview(reader KBSnapshotReader) graph.Node {
	return graph.NodeFunc(func(ctx context.Context, state graph.ChatGraphState) graph.NodeResult {
		snapshot, err := reader.ReadSnapshot(ctx)
		if err != nil {
			return graph.NodeResult{}
		}

		totalChunks := 0
		tagNames := make(map[string]string, len(snapshot.AvailableTags))
		for _, t := range snapshot.AvailableTags {
			tagNames[t.ID] = t.Name
		}
		tagStats := make(map[string]int)
		for _, f := range snapshot.Files {
			totalChunks += f.ChunkCount
			for _, tagID := range f.Tags {
				name := tagNames[tagID]
				if name == "" {
					name = tagID
				}
				tagStats[name]++
			}
		}

		overview := renderOverview(snapshot, len(snapshot.Files), totalChunks, tagStats)
		if state.Context != "" {
			overview = state.Context + "\n\n" + overview
		}

		return graph.NodeResult{Delta: graph.ChatGraphState{
			HasContext: true,
			Context:    overview,
			KBOverviewData: &graph.KBOverviewData{
				TotalFiles:  len(snapshot.Files),
				TotalChunks: totalChunks,
				TagStats:    tagStats,
			},
		}}
	})
}

func renderOverview(snapshot KBSnapshot, totalFiles, totalChunks int, tagStats map[string]int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "知识库概览:\n- 总文件数: %d\n- 总分片数: %d\n", totalFiles, totalChunks)

	tagNames := make([]string, 0, len(tagStats))
	for name := range tagStats {
		tagNames = append(tagNames, name)
	}
	sort.Strings(tagNames)
	for _, name := range tagNames {
		fmt.Fprintf(&b, "- %s: %d 个文件\n", name, tagStats[name])
	}

	recent := recentFiles(snapshot.Files, 5)
	if len(recent) > 0 {
		b.WriteString("最近更新:\n")
		for _, f := range recent {
			fmt.Fprintf(&b, "- %s (%s)\n", f.Name, f.UpdatedAt.Format("2006-01-02"))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func recentFiles(files []KBFile, limit int) []KBFile {
	sorted := make([]KBFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt) })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
