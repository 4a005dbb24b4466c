package graph

import "errors"

// Error taxonomy for the chat graph. These are sentinel causes; nodes
// wrap them in *NodeError and/or surface them through
// ChatGraphState.Error.
var (
	// ErrEmptyQuestion is input_invalid: the trimmed question is empty.
	ErrEmptyQuestion = errors.New("input_invalid: empty question")

	// ErrRetrievalFailed is retrieval_failed: the retriever returned an error.
	ErrRetrievalFailed = errors.New("retrieval_failed")

	// ErrGenerationFailed is generation_failed: the chat model call failed.
	ErrGenerationFailed = errors.New("generation_failed")

	// ErrMaxRetriesExceeded names exhaustion of the bounded regeneration
	// loop; no code path in this module returns it.
	ErrMaxRetriesExceeded = errors.New("max regeneration retries exceeded")
)
