package embed

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbchat/ragchat-go/graph/progress"
	"github.com/kbchat/ragchat-go/graph/worker"
)

type stubModel struct {
	initCalls atomic.Int64
}

func (m *stubModel) Init(ctx context.Context, reporter *progress.Reporter) error {
	m.initCalls.Add(1)
	reporter.Initiate("stub-model.bin")
	reporter.Progress("stub-model.bin", 100, 100)
	reporter.Done("stub-model.bin")
	return nil
}

func (m *stubModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i]))}
	}
	return out, nil
}

func TestFacade_EmbedDocumentsInitializesOnce(t *testing.T) {
	pool := worker.New(nil)
	defer pool.Terminate()

	model := &stubModel{}
	f := NewFacade(model, pool, nil)

	_, err := f.EmbedDocuments(context.Background(), []Document{{PageContent: "hello"}})
	require.NoError(t, err)
	_, err = f.EmbedDocuments(context.Background(), []Document{{PageContent: "world"}})
	require.NoError(t, err)

	assert.EqualValues(t, 1, model.initCalls.Load())
}

func TestFacade_ConcurrentCallersJoinSameInit(t *testing.T) {
	pool := worker.New(nil)
	defer pool.Terminate()

	model := &stubModel{}
	f := NewFacade(model, pool, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.EmbedDocuments(context.Background(), []Document{{PageContent: "x"}})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, model.initCalls.Load())
}

func TestFacade_EmbedQueryReturnsSingleVector(t *testing.T) {
	pool := worker.New(nil)
	defer pool.Terminate()

	f := NewFacade(&stubModel{}, pool, nil)
	vec, err := f.EmbedQuery(context.Background(), "query text")
	require.NoError(t, err)
	assert.NotEmpty(t, vec)
}
