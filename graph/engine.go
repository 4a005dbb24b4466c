package graph

import (
	"context"
	"time"

	"github.com/kbchat/ragchat-go/graph/emit"
)

// contextKey avoids collisions with context keys from other packages.
type contextKey string

const (
	// RunIDKey is the context key carrying the request's RunID.
	RunIDKey contextKey = "ragchat.run_id"
	// NodeIDKey is the context key carrying the currently executing node id.
	NodeIDKey contextKey = "ragchat.node_id"
)

// Canonical node ids for the fixed topology.
const (
	NodePreprocess     = "preprocess"
	NodeDocGenerate    = "docGenerate"
	NodeKBOverview     = "kbOverview"
	NodeTranslate      = "translate"
	NodeMemoryLoad     = "memoryLoad"
	NodeRetrieve       = "retrieve"
	NodeGenerate       = "generate"
	NodePostcheck      = "postcheck"
	NodeGroundingCheck = "groundingCheck"
	NodeSuggest        = "suggest"
	NodeMemoryUpdate   = "memoryUpdate"
)

// staticNext encodes the unconditional edges of the fixed topology.
// preprocess and groundingCheck are conditional and handled specially by
// Runner.next.
var staticNext = map[string]string{
	NodeKBOverview:  NodeTranslate,
	NodeDocGenerate: NodeMemoryUpdate,
	NodeTranslate:   NodeMemoryLoad,
	NodeMemoryLoad:  NodeRetrieve,
	NodeRetrieve:    NodeGenerate,
	NodeGenerate:    NodePostcheck,
	NodePostcheck:   NodeGroundingCheck,
	NodeSuggest:     NodeMemoryUpdate,
	// NodeMemoryUpdate has no successor: it is the terminal node.
}

// Runner executes the fixed chat-graph topology for one request at a time.
// Concurrency: Runner.Run is safe to call concurrently for independent
// requests; nodes within one request execute sequentially.
type Runner struct {
	nodes      map[string]Node
	emitter    emit.Emitter
	metrics    *PrometheusMetrics
	maxRetries int
}

// NewRunner builds a Runner with the eleven stage nodes. All eleven ids from the
// Node* constants must be present in nodes.
func NewRunner(nodes map[string]Node, opts ...Option) *Runner {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Runner{
		nodes:      nodes,
		emitter:    cfg.emitter,
		metrics:    cfg.metrics,
		maxRetries: cfg.maxRetries,
	}
}

// Run walks the topology from preprocess to a terminal state and returns
// the final ChatGraphState.
func (r *Runner) Run(ctx context.Context, initial ChatGraphState) ChatGraphState {
	state := initial
	current := NodePreprocess

	ctx = context.WithValue(ctx, RunIDKey, state.RunID)

	for current != "" {
		node, ok := r.nodes[current]
		if !ok {
			// Unknown node id: treat as a dead end rather than panicking on
			// a misconfigured topology.
			break
		}

		nodeCtx := context.WithValue(ctx, NodeIDKey, current)
		start := time.Now()
		r.emitter.Emit(emit.Event{RunID: state.RunID, NodeID: current, Msg: "node_start"})

		result := node.Run(nodeCtx, state)
		state = Reduce(state, result.Delta)

		status := "ok"
		if state.Error != "" {
			status = "error"
		}
		r.metrics.observeNode(current, status, float64(time.Since(start).Milliseconds()))
		r.emitter.Emit(emit.Event{
			RunID: state.RunID, NodeID: current, Msg: "node_end",
			Meta: map[string]any{"duration_ms": time.Since(start).Milliseconds(), "status": status},
		})

		if result.Route.Terminal {
			break
		}

		current = r.next(current, result, state)
	}

	r.metrics.observeRequest(state.Error != "")
	return state
}

// next resolves the successor node id for the current node, honoring the
// two conditional edges of the topology (preprocess, groundingCheck) and
// falling back to the static table for everything else. An explicit
// NodeResult.Route.To always overrides the topology: nodes can override
// edge-based routing.
func (r *Runner) next(current string, result NodeResult, state ChatGraphState) string {
	if result.Route.To != "" {
		return result.Route.To
	}

	switch current {
	case NodePreprocess:
		return routePreprocess(state)
	case NodeGroundingCheck:
		return routeGroundingCheck(state, r.maxRetries, r.metrics)
	default:
		return staticNext[current]
	}
}

// routePreprocess implements the preprocess route function: error -> END,
// documentIntent -> docGenerate, kbOverviewIntent -> kbOverview, else
// translate. searchIntent never affects routing.
func routePreprocess(state ChatGraphState) string {
	if state.Error != "" {
		return ""
	}
	if state.DocumentIntent {
		return NodeDocGenerate
	}
	if state.KBOverviewIntent {
		return NodeKBOverview
	}
	return NodeTranslate
}

// routeGroundingCheck implements the shouldRegenerate decision: generate
// iff status is invalid_citations and retryCount < maxRetries; suggest
// otherwise, including on error (so memoryUpdate still runs).
func routeGroundingCheck(state ChatGraphState, maxRetries int, metrics *PrometheusMetrics) string {
	if state.Error == "" && state.GroundingStatus == GroundingInvalidCitations && state.RetryCount < maxRetries {
		metrics.observeRetry()
		return NodeGenerate
	}
	metrics.observeGrounding(state.GroundingStatus)
	return NodeSuggest
}
