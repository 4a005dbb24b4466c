// Package testsupport builds a fully wired Engine for integration-style
// tests elsewhere in the module, so each package doesn't have to
// reassemble the eleven-node graph by hand.
package testsupport

import (
	"testing"

	"github.com/stretchr/testify/require"

	ragchat "github.com/kbchat/ragchat-go"
	"github.com/kbchat/ragchat-go/config"
)

// NewTestEngine builds an Engine over the in-memory store and the mock
// chat model provider, suitable for exercising RunChat end to end without
// any external service.
func NewTestEngine(t *testing.T) *ragchat.Engine {
	t.Helper()

	cfg := config.DefaultConfig()
	engine, err := ragchat.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	return engine
}

// SeedDocument ingests one document into engine's knowledge base, for
// tests exercising retrieve/kbOverview against known content.
func SeedDocument(t *testing.T, engine *ragchat.Engine, fileName, content string, tags ...string) {
	t.Helper()
	err := engine.IngestDocument(t.Context(), fileName, fileName, "text", tags, content)
	require.NoError(t, err)
}
