package cost

import (
	"sync"
	"time"
)

// Call records one chat model invocation's token usage and cost.
type Call struct {
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Timestamp    time.Time
	NodeID       string
}

// Tracker accumulates cost across the LLM calls recorded into it. Safe
// for concurrent use (ragchat.Engine keeps one Tracker for its lifetime,
// shared by concurrent RunChat calls).
type Tracker struct {
	RunID    string
	Currency string

	mu         sync.Mutex
	pricing    map[string]ModelPricing
	customized bool
	calls      []Call

	totalCost    float64
	modelCosts   map[string]float64
	inputTokens  int64
	outputTokens int64
}

// NewTracker creates a Tracker seeded with the default pricing table.
func NewTracker(runID, currency string) *Tracker {
	return &Tracker{
		RunID:      runID,
		Currency:   currency,
		pricing:    defaultModelPricing,
		calls:      make([]Call, 0, 8),
		modelCosts: make(map[string]float64),
	}
}

// RecordCall records one invocation and updates cumulative totals. An
// unrecognized model is recorded at zero cost rather than rejected, since
// cost tracking must never block the node that called it.
func (t *Tracker) RecordCall(model string, inputTokens, outputTokens int, nodeID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pricing := t.pricing[model]
	inputCost := (float64(inputTokens) / 1_000_000.0) * pricing.InputPer1M
	outputCost := (float64(outputTokens) / 1_000_000.0) * pricing.OutputPer1M
	callCost := inputCost + outputCost

	t.calls = append(t.calls, Call{
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      callCost,
		Timestamp:    time.Now(),
		NodeID:       nodeID,
	})

	t.totalCost += callCost
	t.modelCosts[model] += callCost
	t.inputTokens += int64(inputTokens)
	t.outputTokens += int64(outputTokens)
}

// SetCustomPricing overrides the default pricing table for model. The
// shared defaultModelPricing map is copy-on-write so overriding pricing on
// one Tracker never affects another.
func (t *Tracker) SetCustomPricing(model string, inputPer1M, outputPer1M float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.customized {
		t.pricing = copyPricing(t.pricing)
		t.customized = true
	}
	t.pricing[model] = ModelPricing{InputPer1M: inputPer1M, OutputPer1M: outputPer1M}
}

func copyPricing(src map[string]ModelPricing) map[string]ModelPricing {
	dst := make(map[string]ModelPricing, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// TotalCost returns the cumulative cost recorded so far.
func (t *Tracker) TotalCost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalCost
}

// TokenUsage returns cumulative input and output token counts.
func (t *Tracker) TokenUsage() (inputTokens, outputTokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTokens, t.outputTokens
}

// Metrics renders the tracker's current totals as the shape
// ChatGraphState.ContextMetrics expects, ready to merge in via Reduce.
func (t *Tracker) Metrics() map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return map[string]any{
		"cost_usd":      t.totalCost,
		"input_tokens":  t.inputTokens,
		"output_tokens": t.outputTokens,
		"call_count":    len(t.calls),
	}
}
