// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// executor.go implements the execution dispatcher: the single choke point
// every tool call passes through, and the in-memory usage ledger.
package tools

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/toolgate/internal/approve"
	"github.com/jeranaias/toolgate/internal/snapshot"
)

// =============================================================================
// EXECUTOR
// =============================================================================

// Executor orchestrates tool execution: definition lookup, parameter
// validation, safety policy, dangerous-operation confirmation,
// pre-mutation snapshotting, dispatch, and usage recording.
//
// An Executor is safe for concurrent use. Stages within one Execute call
// are strictly sequential; the only shared mutable state is the usage
// ledger, guarded by a mutex.
type Executor struct {
	env      Environment
	registry *Registry
	checker  *SafetyChecker
	approver approve.Approver
	store    snapshot.Store
	impls    map[ToolName]ToolExecutor

	// bashLimiter throttles subprocess spawns to stop agent-driven spawn
	// loops; nil means unlimited.
	bashLimiter *rate.Limiter

	// warnf receives non-fatal warnings (snapshot failures). Injectable
	// for tests; defaults to the standard logger.
	warnf func(format string, args ...interface{})

	mu    sync.Mutex
	usage []Usage
}

// Option configures an Executor.
type Option func(*Executor)

// WithApprover sets the confirmation interactor for dangerous tools.
// Without one, dangerous operations requiring confirmation are declined.
func WithApprover(a approve.Approver) Option {
	return func(e *Executor) { e.approver = a }
}

// WithSnapshotStore sets the snapshot collaborator. Without one, mutating
// tools run without pre-image capture.
func WithSnapshotStore(s snapshot.Store) Option {
	return func(e *Executor) { e.store = s }
}

// WithSafetyChecker replaces the default safety checker.
func WithSafetyChecker(c *SafetyChecker) Option {
	return func(e *Executor) { e.checker = c }
}

// WithBashRateLimit throttles bash subprocess spawns.
func WithBashRateLimit(limit rate.Limit, burst int) Option {
	return func(e *Executor) { e.bashLimiter = rate.NewLimiter(limit, burst) }
}

// WithWarnf redirects non-fatal warnings.
func WithWarnf(fn func(format string, args ...interface{})) Option {
	return func(e *Executor) { e.warnf = fn }
}

// WithImplementation overrides the implementation for one tool. Used by
// tests and by hosts embedding custom tool strategies.
func WithImplementation(name ToolName, impl ToolExecutor) Option {
	return func(e *Executor) { e.impls[name] = impl }
}

// NewExecutor creates an executor for the given environment with the
// built-in registry and tool implementations.
func NewExecutor(env Environment, opts ...Option) *Executor {
	e := &Executor{
		env:      env,
		registry: NewRegistry(),
		checker:  NewSafetyChecker(),
		impls:    builtinImplementations(),
		warnf:    log.Printf,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.bashLimiter != nil {
		if impl, ok := e.impls[ToolBash].(*BashExecutor); ok {
			impl.Limiter = e.bashLimiter
		}
	}
	return e
}

// builtinImplementations wires the fixed name-to-strategy dispatch table.
// Every ToolName constant has an entry; a registry definition without one
// surfaces as "Unimplemented tool" at dispatch time.
func builtinImplementations() map[ToolName]ToolExecutor {
	return map[ToolName]ToolExecutor{
		ToolReadFile:        &ReadExecutor{},
		ToolWriteFile:       &WriteExecutor{},
		ToolEditFile:        &EditExecutor{},
		ToolListDirectory:   &ListExecutor{},
		ToolSearchFiles:     &SearchExecutor{},
		ToolBash:            &BashExecutor{},
		ToolCopyFile:        &CopyExecutor{},
		ToolMoveFile:        &MoveExecutor{},
		ToolDeleteFile:      &DeleteExecutor{},
		ToolCreateDirectory: &MkdirExecutor{},
	}
}

// Registry exposes the tool catalog.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Environment returns the executor's execution context.
func (e *Executor) Environment() Environment {
	return e.env
}

// =============================================================================
// EXECUTION PIPELINE
// =============================================================================

// Execute runs one tool call through the full pipeline and returns a
// structured Result. It never returns an error and never panics: every
// failure mode, including implementation panics, surfaces as a Result
// with Success false and a human-readable Error.
//
// A Usage entry is appended for every call, whatever the outcome.
func (e *Executor) Execute(ctx context.Context, req Request) Result {
	start := time.Now()

	finish := func(res Result) Result {
		res.Duration = time.Since(start)
		res.Timestamp = time.Now()
		e.recordUsage(req.Tool, res)
		return res
	}

	// Stage 1: resolve the definition.
	def, ok := e.registry.Get(req.Tool)
	if !ok {
		return finish(failure(fmt.Sprintf("Unknown tool: %s", req.Tool)))
	}

	// Stage 2: validate parameters against the schema.
	if err := e.registry.ValidateParameters(req.Tool, req.Parameters); err != nil {
		return finish(failure(err.Error()))
	}

	// Stage 3: safety policy. Runs on every request, before anything can
	// mutate, independent of the dangerous flag.
	if verdict := e.checker.Check(req, def, e.env); !verdict.Safe {
		return finish(failure(verdict.Reason))
	}

	// Stage 4: dangerous-operation confirmation. AllowDangerous=false
	// means the operator pre-authorized dangerous tools; no prompt then.
	if def.Dangerous && e.env.AllowDangerous {
		if !e.confirm(ctx, req) {
			return finish(failure("Operation cancelled by user"))
		}
	}

	// Stage 5: pre-mutation snapshot, best effort. Failure degrades undo
	// but never blocks a safety-approved operation.
	var snapshotID string
	if def.NeedsSnapshot && e.store != nil {
		snapshotID = e.takeSnapshot(ctx, req, def)
	}

	// Stage 6: dispatch to the implementation strategy.
	res := e.dispatch(ctx, def, req)

	// SnapshotID attaches regardless of execution success: a failed
	// mutation may still have partially happened.
	res.SnapshotID = snapshotID

	return finish(res)
}

// confirm blocks on the approver for the single request awaiting it.
// A missing approver, an approver error, and an explicit "no" all decline.
func (e *Executor) confirm(ctx context.Context, req Request) bool {
	if e.approver == nil {
		return false
	}
	allowed, err := e.approver.Approve(ctx, approve.Prompt{
		Tool:   string(req.Tool),
		Params: req.Parameters,
	})
	return err == nil && allowed
}

// takeSnapshot captures pre-images of every path-typed parameter present
// in the request. Returns the snapshot ID, or "" on failure.
func (e *Executor) takeSnapshot(ctx context.Context, req Request, def *Definition) string {
	var files []string
	for _, name := range def.PathParameters() {
		if path, ok := req.Parameters[name].(string); ok && path != "" {
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		return ""
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = e.env.SessionID
	}

	snap, err := e.store.Create(ctx, snapshot.Request{
		Reason:           "before " + string(req.Tool),
		SessionID:        sessionID,
		Files:            files,
		WorkingDirectory: e.env.WorkingDirectory,
	})
	if err != nil {
		e.warnf("snapshot failed for %s, continuing without undo: %v", req.Tool, err)
		return ""
	}
	return snap.ID
}

// dispatch invokes the implementation, converting returned errors and
// panics into structured failures so no implementation fault escapes the
// gateway.
func (e *Executor) dispatch(ctx context.Context, def *Definition, req Request) (res Result) {
	impl, ok := e.impls[def.Name]
	if !ok {
		return failure(fmt.Sprintf("Unimplemented tool: %s", def.Name))
	}

	defer func() {
		if r := recover(); r != nil {
			res = failure(fmt.Sprintf("tool %s panicked: %v", def.Name, r))
		}
	}()

	out, err := impl.Execute(ctx, e.env, req.Parameters)
	if err != nil {
		return failure(err.Error())
	}
	return out
}

// =============================================================================
// USAGE LEDGER
// =============================================================================

// recordUsage appends to the ledger. The mutex serializes concurrent
// Execute calls; this is the executor's only shared mutable state.
func (e *Executor) recordUsage(tool ToolName, res Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.usage = append(e.usage, Usage{
		Tool:       tool,
		Timestamp:  res.Timestamp,
		Success:    res.Success,
		Duration:   res.Duration,
		SnapshotID: res.SnapshotID,
	})
}

// UsageStats aggregates the ledger. Pure read; the ledger itself is never
// exposed for mutation.
func (e *Executor) UsageStats() UsageStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := UsageStats{
		TotalCalls: len(e.usage),
		ToolUsage:  make(map[ToolName]int),
	}
	successes := 0
	for _, u := range e.usage {
		stats.ToolUsage[u.Tool]++
		if u.Success {
			successes++
		}
	}
	if stats.TotalCalls > 0 {
		stats.SuccessRate = float64(successes) / float64(stats.TotalCalls)
	}
	return stats
}

// UsageHistory returns a copy of the ledger, oldest first.
func (e *Executor) UsageHistory() []Usage {
	e.mu.Lock()
	defer e.mu.Unlock()

	history := make([]Usage, len(e.usage))
	copy(history, e.usage)
	return history
}
