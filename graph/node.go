package graph

import "context"

// Node is a single stage in the chat execution graph. It receives the
// current accumulated state and returns a NodeResult describing the state
// delta and the next hop.
type Node interface {
	Run(ctx context.Context, state ChatGraphState) NodeResult
}

// NodeResult is the output of a node execution: a partial state update to
// merge via Reduce, and a routing decision.
type NodeResult struct {
	// Delta is merged into the live state with Reduce.
	Delta ChatGraphState

	// Route names the next node, or Stop() to terminate.
	Route Next
}

// Next specifies the next step after a node completes.
type Next struct {
	To       string
	Terminal bool
}

// Stop returns a Next that terminates graph execution.
func Stop() Next { return Next{Terminal: true} }

// Goto returns a Next that routes to the named node.
func Goto(nodeID string) Next { return Next{To: nodeID} }

// NodeFunc adapts a plain function to the Node interface.
type NodeFunc func(ctx context.Context, state ChatGraphState) NodeResult

// Run implements Node.
func (f NodeFunc) Run(ctx context.Context, state ChatGraphState) NodeResult {
	return f(ctx, state)
}

// NodeError is a structured error produced by a node, carrying enough
// context for observability and for the §7 error taxonomy mapping.
type NodeError struct {
	Message string
	Code    string
	NodeID  string
	Cause   error
}

func (e *NodeError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

func (e *NodeError) Unwrap() error { return e.Cause }
