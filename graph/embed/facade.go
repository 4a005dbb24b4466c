// Package embed implements the Embedding Facade: a LangChain-compatible
// embedding interface that batches documents, reports initialization
// progress, and lazily initializes its backing model exactly once even
// under concurrent callers (spec §4, §5's "concurrent callers join the
// same initialization and receive the same outcome").
package embed

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/kbchat/ragchat-go/graph/progress"
	"github.com/kbchat/ragchat-go/graph/worker"
)

// Document mirrors the langchaingo/prebuilt Document shape used elsewhere
// in the pack: page content plus provider-opaque metadata.
type Document struct {
	PageContent string
	Metadata    map[string]any
}

// Model is the minimal backing embedding model the Facade dispatches onto
// worker.Pool. A concrete implementation lives in langchain.go, adapting
// tmc/langchaingo's embeddings.Embedder.
type Model interface {
	// Init performs one-time (possibly slow, network-bound) model
	// initialization, reporting download progress through reporter.
	Init(ctx context.Context, reporter *progress.Reporter) error
	// EmbedBatch embeds a batch of texts after Init has completed.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Facade is the LangChain-compatible embedding interface consumed by
// retrieval and the knowledge-base ingestion path. It is safe for
// concurrent use.
type Facade struct {
	model    Model
	pool     *worker.Pool
	reporter *progress.Reporter

	initGroup singleflight.Group
	initDone  atomic.Bool
}

// NewFacade wires a backing Model to a worker.Pool and a progress.Reporter
// that publishes initialization updates via onProgress.
func NewFacade(model Model, pool *worker.Pool, onProgress func(progress.Update)) *Facade {
	return &Facade{
		model:    model,
		pool:     pool,
		reporter: progress.NewReporter(onProgress),
	}
}

// ensureInit performs lazy initialization exactly once; concurrent callers
// block on the same singleflight call and observe the same error, the
// Go-idiomatic equivalent of an isInitializing flag with a shared pending
// promise.
func (f *Facade) ensureInit(ctx context.Context) error {
	if f.initDone.Load() {
		return nil
	}

	_, err, _ := f.initGroup.Do("init", func() (any, error) {
		if f.initDone.Load() {
			return nil, nil
		}
		_, err := f.pool.Submit(ctx, worker.KindInitEmbedding, func(report func(float64)) (any, error) {
			if err := f.model.Init(ctx, f.reporter); err != nil {
				f.reporter.Error()
				return nil, err
			}
			f.reporter.Complete()
			return nil, nil
		})
		if err == nil {
			f.initDone.Store(true)
		}
		return nil, err
	})
	return err
}

// EmbedDocuments embeds a batch of documents' page content, initializing
// the model on first use. Matches langchaingo's embeddings.Embedder shape
// (texts in, float vectors out) so Facade can stand in for it directly.
func (f *Facade) EmbedDocuments(ctx context.Context, docs []Document) ([][]float32, error) {
	if err := f.ensureInit(ctx); err != nil {
		return nil, fmt.Errorf("embed facade init: %w", err)
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.PageContent
	}

	result, err := f.pool.Submit(ctx, worker.KindEmbed, func(report func(float64)) (any, error) {
		return f.model.EmbedBatch(ctx, texts)
	})
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	return result.([][]float32), nil
}

// EmbedQuery embeds a single query string.
func (f *Facade) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedDocuments(ctx, []Document{{PageContent: text}})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: no vector returned")
	}
	return vectors[0], nil
}
