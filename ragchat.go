// Package ragchat wires the chat execution graph (package graph and its
// subpackages) into a public engine contract: RunChat drives one request
// through the fixed eleven-node topology, and IngestDocument feeds the
// knowledge base the retrieve/kbOverview nodes read from.
package ragchat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kbchat/ragchat-go/config"
	"github.com/kbchat/ragchat-go/graph"
	"github.com/kbchat/ragchat-go/graph/analyzer"
	"github.com/kbchat/ragchat-go/graph/cache"
	"github.com/kbchat/ragchat-go/graph/cost"
	"github.com/kbchat/ragchat-go/graph/embed"
	"github.com/kbchat/ragchat-go/graph/model"
	"github.com/kbchat/ragchat-go/graph/model/anthropic"
	"github.com/kbchat/ragchat-go/graph/model/google"
	"github.com/kbchat/ragchat-go/graph/model/openai"
	"github.com/kbchat/ragchat-go/graph/nodes"
	"github.com/kbchat/ragchat-go/graph/retrieval"
	"github.com/kbchat/ragchat-go/graph/store"
	"github.com/kbchat/ragchat-go/graph/tokenizer"
	"github.com/kbchat/ragchat-go/graph/worker"
)

// ChatRequest is one turn's input to RunChat.
type ChatRequest struct {
	RunID           string
	ConversationKey string
	Question        string
	Sources         []string
	Tags            []string

	OnToken       graph.TokenSink
	OnSources     graph.SourcesSink
	OnSuggestions graph.SuggestionsSink
}

// ChatResult is the final accumulated state returned once the graph
// reaches a terminal node.
type ChatResult struct {
	Answer             string
	UsedSources        []graph.ChatSource
	SuggestedQuestions []string
	ContextMetrics     map[string]any
	Error              string
}

// Engine owns every dependency RunChat's graph.Runner needs: store, cache,
// chat model, retriever, analyzer, worker pool, cost tracker. Safe for
// concurrent RunChat calls (graph.Runner itself is).
type Engine struct {
	runner      *graph.Runner
	store       store.Store
	vectorStore *retrieval.MemoryVectorStore
	ingester    *retrieval.Ingester
	pool        *worker.Pool
	tracker     *cost.Tracker
	logger      *zap.Logger
}

// New builds an Engine from cfg: selects the store backend, chat model
// provider, optional redis cache and web search, and assembles the eleven
// graph nodes behind a single graph.Runner.
func New(cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ragchat: invalid config: %w", err)
	}

	backingStore, err := buildStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("ragchat: build store: %w", err)
	}
	memoryStore, err := applyCache(backingStore, cfg.Cache, cfg.CacheTTL())
	if err != nil {
		return nil, fmt.Errorf("ragchat: build cache: %w", err)
	}

	chatModel := buildChatModel(cfg.LLM)

	pool := worker.New(logger)
	vectorStore := retrieval.NewMemoryVectorStore()
	embedder := embed.NewFacade(embed.NewHashModel(128), pool, nil)
	ingester := retrieval.NewIngester(vectorStore, embedder, pool)

	retrieverCfg := retrieval.Config{
		TopK:              cfg.Retrieval.TopK,
		ScoreThreshold:    cfg.Retrieval.ScoreThreshold,
		EmptyIndexMessage: cfg.Retrieval.EmptyIndexMessage,
	}
	retriever := retrieval.New(vectorStore, embedder, nil, retrieverCfg)

	// webSearcher stays a nil nodes.WebSearcher interface (not a typed-nil
	// pointer) when web search is disabled, so retrieve.go's nil check
	// behaves correctly.
	var webSearcher nodes.WebSearcher
	if cfg.WebSearch.Enabled {
		webSearcher = retrieval.NewWebSearcher(cfg.WebSearch.APIKey, cfg.WebSearch.Endpoint)
	}

	tracker := cost.NewTracker("", "USD")
	counter, err := tokenizer.NewCounter()
	if err != nil {
		return nil, fmt.Errorf("ragchat: build tokenizer: %w", err)
	}

	longContextAnalyzer := analyzer.New(chatModel)

	nodeSet := map[string]graph.Node{
		graph.NodePreprocess:     nodes.NewPreprocess(documentKeywordDetector{}, cfg.WebSearch.Enabled),
		graph.NodeDocGenerate:    nodes.NewDocGenerate(&chatDocumentGenerator{chatModel: chatModel}),
		graph.NodeKBOverview:     nodes.NewKBOverview(&kbSnapshotReader{store: vectorStore}),
		graph.NodeTranslate:      nodes.NewTranslate(runeLanguageDetector{}, &chatTranslator{chatModel: chatModel}),
		graph.NodeMemoryLoad:     nodes.NewMemoryLoad(memoryStore),
		graph.NodeRetrieve:       nodes.NewRetrieve(retriever, webSearcher),
		graph.NodeGenerate:       nodes.NewGenerate(chatModel, longContextAnalyzer, tracker, counter, cfg.LLM.Model),
		graph.NodePostcheck:      nodes.NewPostcheck(),
		graph.NodeGroundingCheck: nodes.NewGroundingCheck(),
		graph.NodeSuggest:        nodes.NewSuggest(&chatSuggestionGenerator{chatModel: chatModel}),
		graph.NodeMemoryUpdate:   nodes.NewMemoryUpdate(&chatMemoryUpdater{chatModel: chatModel}, memoryStore),
	}

	runner := graph.NewRunner(nodeSet)

	return &Engine{
		runner:      runner,
		store:       memoryStore,
		vectorStore: vectorStore,
		ingester:    ingester,
		pool:        pool,
		tracker:     tracker,
		logger:      logger,
	}, nil
}

// RunChat drives one request through the graph: streaming callbacks fire
// during the call, and the returned ChatResult carries the final
// accumulated state.
func (e *Engine) RunChat(ctx context.Context, req ChatRequest) ChatResult {
	initial := graph.ChatGraphState{
		RunID:    req.RunID,
		Question: req.Question,
		Sources:  req.Sources,
		Tags:     req.Tags,

		OnToken:       req.OnToken,
		OnSources:     req.OnSources,
		OnSuggestions: req.OnSuggestions,
	}
	if req.ConversationKey != "" {
		initial.HasConvKey = true
		initial.ConversationKey = req.ConversationKey
		if err := e.store.EnsureConversation(ctx, req.ConversationKey, req.ConversationKey); err != nil {
			e.logger.Warn("ensure conversation failed", zap.Error(err), zap.String("conversationKey", req.ConversationKey))
		}
	}

	final := e.runner.Run(ctx, initial)

	if req.ConversationKey != "" && final.HasAnswer {
		e.persistTurn(ctx, req.ConversationKey, req.Question, final)
	}

	return ChatResult{
		Answer:             final.Answer,
		UsedSources:        final.UsedSources,
		SuggestedQuestions: final.SuggestedQuestions,
		ContextMetrics:     final.ContextMetrics,
		Error:              final.Error,
	}
}

// persistTurn appends the user question and assistant answer to the
// conversation's message log; best-effort, matching the store's
// single-writer/soft-fail posture used elsewhere in the graph.
func (e *Engine) persistTurn(ctx context.Context, conversationKey, question string, final graph.ChatGraphState) {
	if _, err := e.store.AppendMessage(ctx, store.Message{ConversationKey: conversationKey, Role: "user", Content: question}); err != nil {
		e.logger.Warn("append user message failed", zap.Error(err))
	}
	status := "ok"
	if final.Error != "" {
		status = "error"
	}
	if _, err := e.store.AppendMessage(ctx, store.Message{ConversationKey: conversationKey, Role: "assistant", Content: final.Answer, Status: status}); err != nil {
		e.logger.Warn("append assistant message failed", zap.Error(err))
	}
}

// IngestDocument splits, embeds, and indexes content so later retrieve/
// kbOverview calls can see it.
func (e *Engine) IngestDocument(ctx context.Context, fileName, filePath, fileType string, tags []string, content string) error {
	return e.ingester.Ingest(ctx, fileName, filePath, fileType, tags, content)
}

// CostMetrics returns the engine-lifetime running total of token usage and
// estimated cost, the same map surfaced per-call in ChatResult.ContextMetrics.
func (e *Engine) CostMetrics() map[string]any {
	return e.tracker.Metrics()
}

// Close releases the store, cache, and worker pool.
func (e *Engine) Close() error {
	e.pool.Terminate()
	return e.store.Close()
}

func buildStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return store.NewSQLiteStore(cfg.DSN)
	case "mysql":
		return store.NewMySQLStore(cfg.DSN)
	case "postgres":
		return store.NewPostgresStore(context.Background(), cfg.DSN)
	default:
		return store.NewMemStore(), nil
	}
}

func applyCache(backing store.Store, cfg config.CacheConfig, ttl time.Duration) (store.Store, error) {
	if cfg.Addr == "" {
		return backing, nil
	}
	memCache := cache.New(cache.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB, TTL: ttl})
	return cache.NewCachedStore(backing, memCache), nil
}

func buildChatModel(cfg config.LLMConfig) model.StreamingChatModel {
	switch cfg.Provider {
	case "anthropic":
		return anthropic.NewChatModel(cfg.APIKey, cfg.Model)
	case "openai":
		return openai.NewChatModel(cfg.APIKey, cfg.Model)
	case "google":
		return google.NewChatModel(cfg.APIKey, cfg.Model)
	default:
		return &model.MockChatModel{Responses: []model.ChatOut{
			{Text: "这是本地演示模式下的占位回答：尚未配置真实的模型提供方。"},
		}}
	}
}
