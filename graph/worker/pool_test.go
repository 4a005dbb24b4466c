package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain verifies that every test in this package leaves no goroutines
// running, including the respawn goroutine TestPool_RecoversFromPanic
// triggers: Terminate must actually drain the pool before a test returns.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_SubmitReturnsValue(t *testing.T) {
	p := New(nil)
	defer p.Terminate()

	val, err := p.Submit(context.Background(), KindEmbed, func(report func(float64)) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, val)
}

func TestPool_SubmitPropagatesError(t *testing.T) {
	p := New(nil)
	defer p.Terminate()

	wantErr := errors.New("boom")
	_, err := p.Submit(context.Background(), KindRerank, func(report func(float64)) (any, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestPool_ConcurrentSubmits(t *testing.T) {
	p := New(nil)
	defer p.Terminate()

	var counter atomic.Int64
	const n = 20
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := p.Submit(context.Background(), KindEmbed, func(report func(float64)) (any, error) {
				counter.Add(1)
				return nil, nil
			})
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}
	assert.EqualValues(t, n, counter.Load())
}

func TestPool_RecoversFromPanic(t *testing.T) {
	p := New(nil)
	defer p.Terminate()

	_, err := p.Submit(context.Background(), KindEmbed, func(report func(float64)) (any, error) {
		panic("simulated crash")
	})
	assert.ErrorIs(t, err, ErrWorkerTerminated)

	// Pool should still accept work after a respawn.
	time.Sleep(1100 * time.Millisecond)
	val, err := p.Submit(context.Background(), KindEmbed, func(report func(float64)) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
}

func TestKind_Timeout(t *testing.T) {
	assert.Equal(t, 300*time.Second, KindLoadAndSplit.Timeout())
	assert.Equal(t, 60*time.Second, KindEmbed.Timeout())
}
