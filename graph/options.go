package graph

import (
	"github.com/kbchat/ragchat-go/graph/emit"
)

// Option configures a Runner using the functional option pattern.
type Option func(*runnerConfig)

type runnerConfig struct {
	emitter    emit.Emitter
	metrics    *PrometheusMetrics
	maxRetries int
}

func defaultConfig() runnerConfig {
	return runnerConfig{
		emitter:    emit.NullEmitter{},
		maxRetries: 1,
	}
}

// WithEmitter attaches an observability Emitter. Default: emit.NullEmitter.
func WithEmitter(e emit.Emitter) Option {
	return func(c *runnerConfig) { c.emitter = e }
}

// WithMetrics attaches a Prometheus metrics collector. Default: disabled.
func WithMetrics(m *PrometheusMetrics) Option {
	return func(c *runnerConfig) { c.metrics = m }
}

// WithMaxRetries bounds the groundingCheck regeneration loop. Fixed at 1
// by default; exposed as an option for tests that want to assert the
// bound is enforced rather than merely assumed.
func WithMaxRetries(n int) Option {
	return func(c *runnerConfig) { c.maxRetries = n }
}
