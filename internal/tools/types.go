// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"os"
	"path/filepath"
	"time"
)

// =============================================================================
// REQUEST / RESULT
// =============================================================================

// Request is a single tool invocation submitted by the agent loop.
// Requests are transient; nothing retains them after Execute returns.
type Request struct {
	// Tool is the tool to invoke
	Tool ToolName

	// Parameters is the raw parameter map. Its shape is validated against
	// the matching Definition before anything else happens.
	Parameters map[string]interface{}

	// SessionID associates snapshots taken for this request with an agent
	// session. Optional.
	SessionID string
}

// Result is the outcome of a tool invocation. Exactly one of Output (with
// Success true) or Error (with Success false) is meaningful.
type Result struct {
	// Success indicates the tool executed successfully
	Success bool

	// Output is the tool's output on success
	Output string

	// Error is the human-readable failure reason, set iff Success is false
	Error string

	// SnapshotID is set iff a pre-mutation snapshot was taken for this call
	SnapshotID string

	// Timestamp is when the call completed
	Timestamp time.Time

	// Duration is the wall-clock execution time
	Duration time.Duration

	// Truncated indicates Output was cut at the size cap
	Truncated bool

	// BytesWritten for write/copy operations
	BytesWritten int64

	// LinesCount for read operations
	LinesCount int

	// MatchCount for search operations
	MatchCount int
}

// failure builds a failed Result with the given error message.
func failure(msg string) Result {
	return Result{Success: false, Error: msg}
}

// =============================================================================
// USAGE LEDGER TYPES
// =============================================================================

// Usage is one entry in the in-memory usage ledger. The ledger lives for
// the process lifetime; persistence, if wanted, is a collaborator's job.
type Usage struct {
	Tool       ToolName
	Timestamp  time.Time
	Success    bool
	Duration   time.Duration
	SnapshotID string
}

// UsageStats is the read-only aggregation of the usage ledger.
type UsageStats struct {
	// TotalCalls is the number of Execute calls recorded
	TotalCalls int

	// SuccessRate is successes/total, 0 when no calls were made
	SuccessRate float64

	// ToolUsage maps each tool to its call count
	ToolUsage map[ToolName]int
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Environment is the process-wide execution context injected at Executor
// construction. It is effectively immutable for the Executor's lifetime;
// reconfiguring means building a new Executor.
type Environment struct {
	// WorkingDirectory anchors relative paths and shell commands
	WorkingDirectory string

	// SessionID is the default session for snapshot association. A
	// request's own SessionID takes precedence.
	SessionID string

	// AllowDangerous gates interactive confirmation of dangerous tools.
	// When false the operator has pre-authorized dangerous operations and
	// they execute without prompting.
	AllowDangerous bool

	// SandboxRoots is the allow-list of directory roots file operations
	// must stay inside. Empty means no sandbox containment.
	SandboxRoots []string

	// MaxBashTimeout caps shell command execution time. Per-call timeout
	// parameters may lower it but never exceed it.
	MaxBashTimeout time.Duration
}

// ResolvePath resolves a request path against the working directory and
// canonicalizes "." and ".." segments. Symlinks are not chased; sandbox
// comparison is on lexically resolved absolute paths.
func (e Environment) ResolvePath(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.WorkingDirectory, path)
	}
	return filepath.Clean(path)
}

// DefaultEnvironment returns an Environment rooted at the current working
// directory with the standard bash timeout and no sandbox roots.
func DefaultEnvironment() Environment {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return Environment{
		WorkingDirectory: cwd,
		MaxBashTimeout:   DefaultBashTimeout,
	}
}
