// Package progress aggregates per-file model-download progress into a
// throttled, monotonically nondecreasing global percentage, consumed
// during embedding/reranker model initialization.
package progress

import (
	"sync"
	"time"
)

// Status is the overall state of a model-initialization session.
type Status string

const (
	StatusDownloading Status = "downloading"
	StatusProcessing  Status = "processing"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
)

// Update is a throttled snapshot emitted to subscribers.
type Update struct {
	Status  Status
	File    string // set for Status == StatusDownloading
	Percent int    // 0-100, monotonically nondecreasing within a session
}

// FileDownloadState tracks one file's download progress.
type FileDownloadState struct {
	Loaded    uint64
	Total     uint64
	Completed bool
}

// Reporter aggregates FileDownloadState updates across files into a single
// throttled global progress stream for one model-initialization session.
type Reporter struct {
	mu    sync.Mutex
	canon *canonicalizer
	files map[string]*FileDownloadState

	lastPercent int
	lastEmitAt  time.Time
	emitted     bool

	onUpdate func(Update)
}

// NewReporter creates a Reporter that calls onUpdate for every
// throttle-surviving progress event.
func NewReporter(onUpdate func(Update)) *Reporter {
	return &Reporter{
		canon:    newCanonicalizer(),
		files:    make(map[string]*FileDownloadState),
		onUpdate: onUpdate,
	}
}

// Initiate records that download of a (possibly not-yet-sized) file has
// begun, implementing the runtime's initiate -> downloading(file) mapping.
func (r *Reporter) Initiate(rawName string) {
	r.mu.Lock()
	key := r.canon.resolve(rawName)
	if _, ok := r.files[key]; !ok {
		r.files[key] = &FileDownloadState{}
	}
	r.mu.Unlock()

	r.emit(Update{Status: StatusDownloading, File: key, Percent: r.globalPercent()})
}

// Progress records a loaded/total sample for a file, implementing the
// runtime's progress/download -> downloading(file, loaded/total) mapping.
func (r *Reporter) Progress(rawName string, loaded, total uint64) {
	r.mu.Lock()
	key := r.canon.resolve(rawName)
	state, ok := r.files[key]
	if !ok {
		state = &FileDownloadState{}
		r.files[key] = state
	}
	state.Loaded = loaded
	state.Total = total
	r.mu.Unlock()

	r.emit(Update{Status: StatusDownloading, File: key, Percent: r.globalPercent()})
}

// Done marks a file complete, implementing the runtime's done ->
// downloading(file, 1.0) mapping; if every known file is now complete, it
// also emits a processing("verifying") event.
func (r *Reporter) Done(rawName string) {
	r.mu.Lock()
	key := r.canon.resolve(rawName)
	state, ok := r.files[key]
	if !ok {
		state = &FileDownloadState{}
		r.files[key] = state
	}
	state.Completed = true
	if state.Total == 0 {
		state.Total = 1
	}
	state.Loaded = state.Total

	allDone := true
	for _, f := range r.files {
		if !f.Completed {
			allDone = false
			break
		}
	}
	r.mu.Unlock()

	r.emit(Update{Status: StatusDownloading, File: key, Percent: r.globalPercent()})
	if allDone {
		r.emit(Update{Status: StatusProcessing, File: "verifying", Percent: r.globalPercent()})
	}
}

// Complete emits the terminal 100% update for the session.
func (r *Reporter) Complete() {
	r.forceEmit(Update{Status: StatusCompleted, Percent: 100})
}

// Error emits a terminal error update; percent is whatever was last computed.
func (r *Reporter) Error() {
	r.forceEmit(Update{Status: StatusError, Percent: r.globalPercent()})
}

// globalPercent computes the current global percentage: completed-file
// ratio when no totals are known, loaded/total sum when all are known,
// and an average-known-size estimate for the mixed case.
// Capped at 99 unless every file is complete.
func (r *Reporter) globalPercent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.computePercentLocked()
}

func (r *Reporter) computePercentLocked() int {
	if len(r.files) == 0 {
		return 0
	}

	var completedFiles, totalFiles int
	var knownLoaded, knownTotal uint64
	var knownCount int
	var unknownCount int
	totalFiles = len(r.files)

	for _, f := range r.files {
		if f.Completed {
			completedFiles++
		}
		if f.Total > 0 {
			knownLoaded += f.Loaded
			knownTotal += f.Total
			knownCount++
		} else {
			unknownCount++
		}
	}

	var raw float64
	switch {
	case knownCount == 0:
		raw = float64(completedFiles) / float64(totalFiles)
	case unknownCount == 0:
		if knownTotal == 0 {
			raw = 0
		} else {
			raw = float64(knownLoaded) / float64(knownTotal)
		}
	default:
		avgSize := float64(knownTotal) / float64(knownCount)
		estimatedTotal := float64(knownTotal) + avgSize*float64(unknownCount)
		estimatedLoaded := float64(knownLoaded)
		for _, f := range r.files {
			if f.Total == 0 && f.Completed {
				estimatedLoaded += avgSize
			}
		}
		if estimatedTotal == 0 {
			raw = 0
		} else {
			raw = estimatedLoaded / estimatedTotal
		}
	}

	percent := int(raw * 100)
	allComplete := completedFiles == totalFiles
	if !allComplete && percent > 99 {
		percent = 99
	}
	if allComplete {
		percent = 100
	}
	// Never report a regression versus the last emitted percent; does not
	// mutate r.lastPercent itself, so repeated reads stay stable until emit
	// actually commits a new value.
	if percent < r.lastPercent {
		percent = r.lastPercent
	}
	return percent
}

// emit applies the throttle rule: at least 1% integer-percent change, or
// 100ms since the last emission. Terminal statuses bypass the throttle via
// forceEmit. The comparison against r.lastPercent must happen before this
// call's value is committed, or the delta check can never see a change.
func (r *Reporter) emit(u Update) {
	r.mu.Lock()
	changed := !r.emitted || u.Percent != r.lastPercent || time.Since(r.lastEmitAt) >= 100*time.Millisecond
	if !changed {
		r.mu.Unlock()
		return
	}
	if u.Percent > r.lastPercent {
		r.lastPercent = u.Percent
	}
	r.lastEmitAt = time.Now()
	r.emitted = true
	r.mu.Unlock()

	if r.onUpdate != nil {
		r.onUpdate(u)
	}
}

func (r *Reporter) forceEmit(u Update) {
	r.mu.Lock()
	r.lastEmitAt = time.Now()
	r.emitted = true
	r.mu.Unlock()
	if r.onUpdate != nil {
		r.onUpdate(u)
	}
}
