// Package worker isolates blocking ML inference (model load, embed batch,
// rerank, document load-and-split) from the request loop behind a small
// goroutine pool with task multiplexing, per-kind timeouts, and
// restart-on-crash, using a fixed 1s respawn backoff and atomic task-id
// generation adapted from in-process node scheduling to an out-of-band
// worker model.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Pool runs Tasks on a bounded set of worker goroutines. One primary
// worker is spawned lazily on first Submit; additional workers are spawned
// up to maxWorkers when the pending queue backs up.
type Pool struct {
	maxWorkers int
	logger     *zap.Logger

	mu            sync.Mutex
	activeWorkers int
	pendingCount  int
	tasks         chan *Task
	closed        bool

	spawnLimiter *rate.Limiter
	nextID       atomic.Uint64

	wg sync.WaitGroup
}

// New creates a Pool capped at min(4, logical_cpus) workers. logger may
// be nil (defaults to a no-op logger).
func New(logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	cap := runtime.NumCPU()
	if cap > 4 {
		cap = 4
	}
	if cap < 1 {
		cap = 1
	}
	return &Pool{
		maxWorkers:   cap,
		logger:       logger,
		tasks:        make(chan *Task, 256),
		spawnLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Submit dispatches fn as a Task of the given kind and blocks until it
// completes, the kind's deadline elapses, or ctx is canceled. fn is always
// called with a nil report; the init tasks report download progress through
// their own progress.Reporter instead.
func (p *Pool) Submit(ctx context.Context, kind Kind, fn func(report func(progress float64)) (any, error)) (any, error) {
	task := &Task{
		ID:       p.nextID.Add(1),
		Kind:     kind,
		Fn:       fn,
		resultCh: make(chan taskResult, 1),
	}

	p.ensureCapacity()

	deadline := kind.Timeout()
	dctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	select {
	case p.tasks <- task:
	case <-dctx.Done():
		return nil, fmt.Errorf("worker: dispatch %s: %w", kind, dctx.Err())
	}

	select {
	case res := <-task.resultCh:
		return res.Value, res.Err
	case <-dctx.Done():
		return nil, fmt.Errorf("worker: task %d (%s) timed out after %s", task.ID, kind, deadline)
	}
}

// ensureCapacity spawns the primary worker on first use, and an extra
// worker when more than 3 tasks are already pending and the pool is below
// its cap, rate-limited to avoid a spawn storm under bursty submission.
func (p *Pool) ensureCapacity() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.activeWorkers == 0 {
		p.spawnWorkerLocked()
		return
	}

	pending := len(p.tasks)
	if pending > 3 && p.activeWorkers < p.maxWorkers && p.spawnLimiter.Allow() {
		p.spawnWorkerLocked()
	}
}

func (p *Pool) spawnWorkerLocked() {
	p.activeWorkers++
	p.wg.Add(1)
	go p.runWorker()
}

// runWorker executes tasks until the pool is closed, recovering from
// panics (simulating a crashed worker) and respawning itself after a 1s
// backoff.
func (p *Pool) runWorker() {
	defer p.wg.Done()
	defer p.handleCrashOrExit()

	for task := range p.tasks {
		p.runTask(task)
	}
}

func (p *Pool) runTask(task *Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker task panicked", zap.Uint64("task_id", task.ID), zap.Any("recover", r))
			task.resultCh <- taskResult{Err: ErrWorkerTerminated}
			panic(r) // propagate so runWorker's recover schedules a respawn
		}
	}()

	value, err := task.Fn(task.onProgress)
	task.resultCh <- taskResult{Value: value, Err: err}
}

// handleCrashOrExit runs in the deferred position of runWorker. If the
// goroutine is unwinding from a panic, recover it here, decrement the
// active count, and schedule a respawn after a 1s backoff; a normal
// (non-panicking) exit just decrements the active count.
func (p *Pool) handleCrashOrExit() {
	crashed := recover() != nil

	p.mu.Lock()
	p.activeWorkers--
	closed := p.closed
	p.mu.Unlock()

	if crashed && !closed {
		p.logger.Warn("worker crashed, scheduling respawn")
		time.AfterFunc(time.Second, func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if !p.closed {
				p.spawnWorkerLocked()
			}
		})
	}
}

// Terminate rejects all pending tasks with ErrWorkerTerminated, stops
// accepting new work, and waits for in-flight workers to drain.
func (p *Pool) Terminate() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for pending := true; pending; {
		select {
		case task := <-p.tasks:
			task.resultCh <- taskResult{Err: ErrWorkerTerminated}
		default:
			pending = false
		}
	}
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

// DrainPending rejects any tasks still sitting in the channel buffer after
// Terminate with ErrWorkerTerminated, instead of leaving their Submit
// callers to wait out the per-kind deadline. Safe to call only after
// Terminate has returned.
func (p *Pool) DrainPending() {
	for task := range p.tasks {
		task.resultCh <- taskResult{Err: ErrWorkerTerminated}
	}
}
