// Package config holds the engine's tunable knobs — the things spicedb's
// pkg/cmd/server.Config validates and defaults before a server can run,
// scaled down to what an embeddable Datalog engine actually needs: a
// default query timeout, how deep a trigger chain may recurse, and how many
// goroutines a rule's disjuncts may fan out across.
package config

import "time"

// Config is the engine's runtime configuration. Zero-value fields are
// filled with their defaults by Complete.
type Config struct {
	// DefaultTimeout bounds a script with no `:timeout` option of its own.
	// Zero means no default bound — only an explicit `:timeout` applies.
	DefaultTimeout time.Duration

	// TriggerMaxDepth bounds how many transitive trigger firings one
	// mutation may schedule (spec §4.7's "default bound 64").
	TriggerMaxDepth int

	// MaxConcurrency bounds the goroutines used to evaluate a rule's
	// disjuncts concurrently (spec §4.4's intra-stratum parallel disjunct
	// evaluation). Zero means unbounded.
	MaxConcurrency int
}

const DefaultTriggerMaxDepth = 64

// Complete validates c and fills unset fields with their defaults,
// following the same validate-then-default shape as the teacher's
// `server.Config.Complete` (`_examples/authzed-spicedb/pkg/cmd/server/server.go`).
func (c Config) Complete() (Config, error) {
	if c.TriggerMaxDepth <= 0 {
		c.TriggerMaxDepth = DefaultTriggerMaxDepth
	}
	if c.MaxConcurrency < 0 {
		c.MaxConcurrency = 0
	}
	if c.DefaultTimeout < 0 {
		c.DefaultTimeout = 0
	}
	return c, nil
}
