package cost

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_RecordCallAccumulatesCost(t *testing.T) {
	tr := NewTracker("run-1", "USD")
	tr.RecordCall("gpt-4o", 1000, 500, "generate")

	assert.Greater(t, tr.TotalCost(), 0.0)
	input, output := tr.TokenUsage()
	assert.EqualValues(t, 1000, input)
	assert.EqualValues(t, 500, output)
}

func TestTracker_UnknownModelRecordsZeroCost(t *testing.T) {
	tr := NewTracker("run-1", "USD")
	tr.RecordCall("unknown-model", 100, 100, "generate")
	assert.Equal(t, 0.0, tr.TotalCost())
}

func TestTracker_SetCustomPricingDoesNotLeakAcrossTrackers(t *testing.T) {
	a := NewTracker("run-a", "USD")
	b := NewTracker("run-b", "USD")

	a.SetCustomPricing("gpt-4o", 100, 100)
	a.RecordCall("gpt-4o", 1_000_000, 0, "")
	b.RecordCall("gpt-4o", 1_000_000, 0, "")

	assert.Equal(t, 100.0, a.TotalCost())
	assert.Less(t, b.TotalCost(), a.TotalCost())
}

func TestTracker_MetricsShape(t *testing.T) {
	tr := NewTracker("run-1", "USD")
	tr.RecordCall("gpt-4o-mini", 200, 100, "generate")

	metrics := tr.Metrics()
	assert.Contains(t, metrics, "cost_usd")
	assert.Contains(t, metrics, "input_tokens")
	assert.Contains(t, metrics, "call_count")
}

func TestTracker_ConcurrentRecordCallIsSafe(t *testing.T) {
	tr := NewTracker("run-1", "USD")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.RecordCall("gpt-4o", 10, 10, "map")
		}()
	}
	wg.Wait()

	input, _ := tr.TokenUsage()
	assert.EqualValues(t, 500, input)
}
