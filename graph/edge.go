package graph

// Predicate evaluates state to decide whether a conditional edge should be
// traversed. Predicates must be pure: deterministic, no side effects.
type Predicate func(state ChatGraphState) bool

// ConditionalEdge pairs a condition with the node it routes to when the
// condition holds. Evaluated in order; the first matching edge wins.
type ConditionalEdge struct {
	When Predicate
	To   string
}
