// Package emit provides observability event emission for the chat graph,
// ported from the workflow-engine emit package this project descends from.
package emit

// Event is an observability event emitted during graph execution.
type Event struct {
	// RunID identifies the request that emitted this event.
	RunID string

	// NodeID identifies which node emitted this event; empty for
	// request-level events (start, complete, error).
	NodeID string

	// Msg is a short machine-greppable event name, e.g. "node_start".
	Msg string

	// Meta carries event-specific structured data (duration_ms, retry,
	// groundingStatus, ...).
	Meta map[string]any
}
