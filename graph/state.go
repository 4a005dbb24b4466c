// Package graph implements the chat execution graph: a fixed, typed
// per-request state machine that composes eleven stages into a directed
// topology with conditional routing and a bounded regeneration loop.
package graph

// ChatSource is a structured citation referencing a retrieved chunk or a
// web result, produced by the retrieve node and read-only thereafter.
type ChatSource struct {
	Content    string
	FileName   string
	FilePath   string
	URL        string
	Score      float64
	FileType   string
	SourceType string // "file", "url", ...
	SiteName   string
}

// Grounding status values set exclusively by the groundingCheck node.
const (
	GroundingOK                = "ok"
	GroundingMissingCitations  = "missing_citations"
	GroundingInvalidCitations  = "invalid_citations"
)

// TokenSink receives answer tokens as they are produced.
type TokenSink func(chunk string)

// SourcesSink receives the final set of citations exactly once per request.
type SourcesSink func(sources []ChatSource)

// SuggestionsSink receives follow-up question suggestions, possibly after
// RunChat has already returned (background suggest mode).
type SuggestionsSink func(suggestions []string)

// ChatGraphState is the single value that flows through the graph. Each
// field has a deterministic combiner applied by Reduce when a node returns
// a partial state (a "delta"): see the per-field comments below.
type ChatGraphState struct {
	// RunID is the stable per-request id. Combiner: next || prev.
	RunID string

	// ConversationKey identifies the persistent memory row, if any.
	// Combiner: next ?? prev.
	ConversationKey string
	HasConvKey      bool

	// Question is the trimmed, nonempty post-preprocess question.
	// Combiner: next || prev.
	Question string

	// Sources/Tags are filter hints; replace semantics.
	Sources []string
	Tags    []string

	// Memory is the compressed conversation summary. Combiner: next ?? prev.
	Memory    string
	HasMemory bool

	// Context is the concatenated retrieval evidence. Combiner: next ?? prev.
	Context    string
	HasContext bool

	// IsGlobalSearch is the retrieval scope flag. Combiner: next ?? prev.
	IsGlobalSearch    bool
	HasGlobalSearch   bool

	// Answer is the accumulated model output. Combiner: next ?? prev.
	Answer    string
	HasAnswer bool

	// UsedSources are the citations attached to Answer. Combiner: next ?? prev.
	UsedSources    []ChatSource
	HasUsedSources bool

	// ContextMetrics carries retrieval/cost telemetry. Combiner: next ?? prev.
	ContextMetrics map[string]any

	// Error is the first error encountered; once set, no later node may
	// mutate any other field (invariant I1).
	Error string

	// Streaming sinks; replace semantics (Reduce keeps a non-nil delta
	// value). Their types are defined at the top of this file.
	OnToken       TokenSink
	OnSources     SourcesSink
	OnSuggestions SuggestionsSink

	// Intent classification outputs from preprocess.
	DocumentIntent   bool
	HasDocumentIntent bool
	DocumentPayload  any
	SearchIntent     bool
	AnalysisIntent   bool
	KBOverviewIntent bool

	// TranslatedQuestion is the Chinese (or configured direction)
	// translation of Question, when non-Chinese input was detected.
	TranslatedQuestion string

	// SuggestedQuestions are follow-up prompts generated by suggest.
	SuggestedQuestions    []string
	HasSuggestedQuestions bool

	// KBOverviewData is populated by kbOverview.
	KBOverviewData *KBOverviewData

	// GroundingStatus is set only by groundingCheck (invariant I3).
	GroundingStatus string

	// RetryCount is the number of regeneration attempts; monotonically
	// nondecreasing (invariant I2), bounded by policy (currently <= 1).
	RetryCount int
}

// KBOverviewData summarizes a knowledge-base snapshot for the kbOverview
// node's human-readable response.
type KBOverviewData struct {
	TotalFiles  int
	TotalChunks int
	TagStats    map[string]int
}

// Reduce merges a partial state update (delta) into the accumulated state
// (prev), applying the per-field combiners documented on ChatGraphState.
// Reduce is deterministic and associative: replaying the same sequence of
// deltas always yields the same state.
func Reduce(prev, delta ChatGraphState) ChatGraphState {
	next := prev

	if delta.RunID != "" {
		next.RunID = delta.RunID
	}
	if delta.HasConvKey {
		next.ConversationKey = delta.ConversationKey
		next.HasConvKey = true
	}
	if delta.Question != "" {
		next.Question = delta.Question
	}
	if delta.Sources != nil {
		next.Sources = delta.Sources
	}
	if delta.Tags != nil {
		next.Tags = delta.Tags
	}
	if delta.HasMemory {
		next.Memory = delta.Memory
		next.HasMemory = true
	}
	if delta.HasContext {
		next.Context = delta.Context
		next.HasContext = true
	}
	if delta.HasGlobalSearch {
		next.IsGlobalSearch = delta.IsGlobalSearch
		next.HasGlobalSearch = true
	}
	if delta.HasAnswer {
		next.Answer = delta.Answer
		next.HasAnswer = true
	}
	if delta.HasUsedSources {
		next.UsedSources = delta.UsedSources
		next.HasUsedSources = true
	}
	if delta.ContextMetrics != nil {
		if next.ContextMetrics == nil {
			next.ContextMetrics = make(map[string]any, len(delta.ContextMetrics))
		}
		for k, v := range delta.ContextMetrics {
			next.ContextMetrics[k] = v
		}
	}
	if delta.Error != "" && next.Error == "" {
		next.Error = delta.Error
	}
	if delta.OnToken != nil {
		next.OnToken = delta.OnToken
	}
	if delta.OnSources != nil {
		next.OnSources = delta.OnSources
	}
	if delta.OnSuggestions != nil {
		next.OnSuggestions = delta.OnSuggestions
	}
	if delta.HasDocumentIntent {
		next.DocumentIntent = delta.DocumentIntent
		next.HasDocumentIntent = true
		next.DocumentPayload = delta.DocumentPayload
	}
	if delta.SearchIntent {
		next.SearchIntent = true
	}
	if delta.AnalysisIntent {
		next.AnalysisIntent = true
	}
	if delta.KBOverviewIntent {
		next.KBOverviewIntent = true
	}
	if delta.TranslatedQuestion != "" {
		next.TranslatedQuestion = delta.TranslatedQuestion
	}
	if delta.HasSuggestedQuestions {
		next.SuggestedQuestions = delta.SuggestedQuestions
		next.HasSuggestedQuestions = true
	}
	if delta.KBOverviewData != nil {
		next.KBOverviewData = delta.KBOverviewData
	}
	if delta.GroundingStatus != "" {
		next.GroundingStatus = delta.GroundingStatus
	}
	if delta.RetryCount > next.RetryCount {
		next.RetryCount = delta.RetryCount
	}

	return next
}
