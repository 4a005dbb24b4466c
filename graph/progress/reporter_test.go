package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_MonotonicPercent(t *testing.T) {
	var updates []Update
	r := NewReporter(func(u Update) { updates = append(updates, u) })

	r.Initiate("model.bin")
	r.Progress("model.bin", 50, 100)
	r.Progress("model.bin", 30, 100) // regression should not lower reported percent

	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	assert.GreaterOrEqual(t, last.Percent, 50)
}

func TestReporter_CompletionReaches100(t *testing.T) {
	var updates []Update
	r := NewReporter(func(u Update) { updates = append(updates, u) })

	r.Initiate("a.bin")
	r.Progress("a.bin", 100, 100)
	r.Done("a.bin")

	found100 := false
	for _, u := range updates {
		if u.Percent == 100 {
			found100 = true
		}
	}
	assert.True(t, found100)
}

func TestReporter_CapsAt99UntilComplete(t *testing.T) {
	var updates []Update
	r := NewReporter(func(u Update) { updates = append(updates, u) })

	r.Initiate("a.bin")
	r.Progress("a.bin", 100, 100) // 100% on a single file pre-Done

	for _, u := range updates {
		assert.LessOrEqual(t, u.Percent, 99)
	}
}

func TestReporter_ThrottlesSmallDeltas(t *testing.T) {
	count := 0
	r := NewReporter(func(u Update) { count++ })

	r.Initiate("a.bin")
	baseline := count
	r.Progress("a.bin", 1, 1_000_000) // ~0% change, should not force an emission burst
	assert.LessOrEqual(t, count-baseline, 1)
}

func TestReporter_EmitsAfter100msEvenWithoutPercentChange(t *testing.T) {
	count := 0
	r := NewReporter(func(u Update) { count++ })

	r.Initiate("a.bin")
	first := count
	time.Sleep(110 * time.Millisecond)
	r.Progress("a.bin", 0, 1_000_000)
	assert.Greater(t, count, first)
}

func TestCanonicalizer_ResolvesURLToBasename(t *testing.T) {
	c := newCanonicalizer()
	key1 := c.resolve("https://hf.co/models/foo/pytorch_model.bin")
	key2 := c.resolve("pytorch_model.bin")
	assert.Equal(t, key1, key2)
}
