// Package engine is the embeddable entry point: parse, compile, stratify,
// evaluate, apply mutations and fire triggers, assemble a result — one
// transaction per script (spec §2, §6).
package engine

import (
	"context"
	"time"

	"github.com/cozodb/cozo/internal/algo"
	"github.com/cozodb/cozo/internal/config"
	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/cozoscript/parser"
	"github.com/cozodb/cozo/internal/eval"
	"github.com/cozodb/cozo/internal/logging"
	"github.com/cozodb/cozo/internal/storage"
	"github.com/cozodb/cozo/internal/trigger"
	"github.com/cozodb/cozo/internal/value"
)

// Engine is one store's worth of ambient state above the transaction
// boundary: the algorithm registry, the triggers catalog, the access-level
// catalog, and the registry of in-flight query handles `::kill` cancels.
type Engine struct {
	kv       storage.KV
	cfg      config.Config
	algo     *algo.Registry
	triggers *trigger.Catalog
	access   *accessCatalog
	registry *eval.Registry
}

// Open returns an Engine backed by kv, with default configuration.
func Open(kv storage.KV) *Engine {
	e, _ := OpenWithConfig(kv, config.Config{})
	return e
}

// OpenWithConfig returns an Engine backed by kv, validating and defaulting
// cfg the way config.Config.Complete does for every other caller.
func OpenWithConfig(kv storage.KV, cfg config.Config) (*Engine, error) {
	cfg, err := cfg.Complete()
	if err != nil {
		return nil, err
	}
	return &Engine{
		kv:       kv,
		cfg:      cfg,
		algo:     algo.NewRegistry(),
		triggers: trigger.NewCatalog(),
		access:   newAccessCatalog(),
		registry: eval.NewRegistry(),
	}, nil
}

// Run parses and executes script against one fresh transaction, returning
// the entry rule `?`'s assembled result (spec §3 "Script").
func (e *Engine) Run(ctx context.Context, script string, params map[string]value.Value) (*Result, error) {
	start := time.Now()

	sc, err := parser.Parse(script)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	handle := e.registry.Register(cancel)
	defer func() {
		e.registry.Unregister(handle)
		cancel()
	}()

	write := sc.Sys == nil || sysIsWrite(sc.Sys.Op.Kind)
	tx, err := e.kv.Begin(write)
	if err != nil {
		return nil, err
	}

	res, err := e.runScript(runCtx, tx, sc, params)
	if err != nil {
		logging.Err(err).Msg("script failed, aborting transaction")
		_ = tx.Abort()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	res.Took = time.Since(start)
	return res, nil
}

func (e *Engine) runScript(ctx context.Context, tx storage.Txn, sc *ast.Script, params map[string]value.Value) (*Result, error) {
	switch {
	case sc.Sys != nil:
		return e.runSys(ctx, tx, sc.Sys.Op, params)
	case sc.Multi != nil:
		return e.runMulti(ctx, tx, sc.Multi, params)
	case sc.Query != nil:
		return e.runTopQuery(ctx, tx, sc.Query, params)
	}
	return nil, cozoerr.NewRuntimeError(cozoerr.StorageIO, "empty script")
}

func (e *Engine) runMulti(ctx context.Context, tx storage.Txn, ms *ast.MultiScript, params map[string]value.Value) (*Result, error) {
	var last *Result
	for _, qs := range ms.Queries {
		res, err := e.runTopQuery(ctx, tx, qs, params)
		if err != nil {
			return nil, err
		}
		last = res
	}
	if last == nil {
		return &Result{}, nil
	}
	return last, nil
}

// runTopQuery runs one query script and drains any triggers its mutations
// scheduled, on the same transaction (spec §4.7).
func (e *Engine) runTopQuery(ctx context.Context, tx storage.Txn, qs *ast.QueryScript, params map[string]value.Value) (*Result, error) {
	res, firings, err := e.runQuery(ctx, tx, qs, params, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(firings) > 0 {
		runner := trigger.NewRunner(e.triggers, e.cfg.TriggerMaxDepth)
		if err := runner.Drain(ctx, firings, e.triggerExecutor(tx, params)); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func sysIsWrite(kind ast.SysOpKind) bool {
	switch kind {
	case ast.SysRelations, ast.SysColumns, ast.SysRunning, ast.SysExplain, ast.SysShowTriggers:
		return false
	default:
		return true
	}
}
