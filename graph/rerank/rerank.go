// Package rerank dispatches reranker model initialization and scoring onto
// the worker pool. The reranker model is treated as an abstract capability
// rather than a named concrete algorithm, so this package is a thin
// interface plus a mock implementation.
package rerank

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/kbchat/ragchat-go/graph/embed"
	"github.com/kbchat/ragchat-go/graph/progress"
	"github.com/kbchat/ragchat-go/graph/worker"
)

// ScoredDocument pairs a document with its reranker-assigned relevance score.
type ScoredDocument struct {
	Document embed.Document
	Score    float64
}

// Model scores (query, document) pairs, after a one-time initialization.
type Model interface {
	Init(ctx context.Context, reporter *progress.Reporter) error
	Score(ctx context.Context, query string, docs []embed.Document) ([]float64, error)
}

// Reranker lazily initializes a Model once and dispatches scoring onto the
// worker pool, the same crash-isolation and progress wiring the Embedding
// Facade uses for its own model.
type Reranker struct {
	model    Model
	pool     *worker.Pool
	reporter *progress.Reporter

	initGroup singleflight.Group
	initDone  atomic.Bool
}

// New creates a Reranker over model, dispatching onto pool and reporting
// initialization progress through onProgress.
func New(model Model, pool *worker.Pool, onProgress func(progress.Update)) *Reranker {
	return &Reranker{model: model, pool: pool, reporter: progress.NewReporter(onProgress)}
}

// ensureInit mirrors embed.Facade.ensureInit: concurrent callers join the
// same singleflight call and observe the same outcome, rather than racing
// to submit duplicate initReranker tasks.
func (r *Reranker) ensureInit(ctx context.Context) error {
	if r.initDone.Load() {
		return nil
	}

	_, err, _ := r.initGroup.Do("init", func() (any, error) {
		if r.initDone.Load() {
			return nil, nil
		}
		_, err := r.pool.Submit(ctx, worker.KindInitReranker, func(report func(float64)) (any, error) {
			if err := r.model.Init(ctx, r.reporter); err != nil {
				r.reporter.Error()
				return nil, err
			}
			r.reporter.Complete()
			return nil, nil
		})
		if err == nil {
			r.initDone.Store(true)
		}
		return nil, err
	})
	return err
}

// Rerank scores docs against query and returns them sorted by descending
// relevance.
func (r *Reranker) Rerank(ctx context.Context, query string, docs []embed.Document) ([]ScoredDocument, error) {
	if err := r.ensureInit(ctx); err != nil {
		return nil, fmt.Errorf("rerank init: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	result, err := r.pool.Submit(ctx, worker.KindRerank, func(report func(float64)) (any, error) {
		return r.model.Score(ctx, query, docs)
	})
	if err != nil {
		return nil, fmt.Errorf("rerank score: %w", err)
	}

	scores := result.([]float64)
	scored := make([]ScoredDocument, len(docs))
	for i, doc := range docs {
		score := 0.0
		if i < len(scores) {
			score = scores[i]
		}
		scored[i] = ScoredDocument{Document: doc, Score: score}
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored, nil
}

// MockModel is a deterministic test double for Model: it scores each
// document by the number of query characters found in its content.
type MockModel struct {
	InitErr error
}

// Init implements Model.
func (m *MockModel) Init(_ context.Context, reporter *progress.Reporter) error {
	if m.InitErr != nil {
		return m.InitErr
	}
	reporter.Initiate("mock-reranker")
	reporter.Done("mock-reranker")
	return nil
}

// Score implements Model with a naive character-overlap heuristic, sufficient
// for exercising Reranker's ordering logic in tests without a real model.
func (m *MockModel) Score(_ context.Context, query string, docs []embed.Document) ([]float64, error) {
	scores := make([]float64, len(docs))
	for i, doc := range docs {
		scores[i] = float64(overlapCount(query, doc.PageContent))
	}
	return scores, nil
}

func overlapCount(query, content string) int {
	count := 0
	for _, r := range query {
		for _, c := range content {
			if r == c {
				count++
				break
			}
		}
	}
	return count
}
