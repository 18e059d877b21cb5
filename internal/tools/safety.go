// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// safety.go implements the safety policy engine: sandbox containment,
// critical-path protection, and the shell command denylist. All three
// rules run on every request before any mutation, independent of the
// dangerous-confirmation gate.
package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// VERDICT
// =============================================================================

// Verdict is the outcome of a safety check. Verdicts are computed fresh
// per request and never cached: paths and commands vary per call, and the
// sandbox configuration can be swapped by a config reload.
type Verdict struct {
	// Safe is true when every applicable rule passed
	Safe bool

	// Reason explains the refusal, naming the offending path or pattern.
	// Empty when Safe.
	Reason string
}

func unsafe(format string, args ...interface{}) Verdict {
	return Verdict{Safe: false, Reason: fmt.Sprintf(format, args...)}
}

// =============================================================================
// SAFETY CHECKER
// =============================================================================

// SafetyChecker evaluates the safety policy. Check is a pure function of
// the request and environment; a zero-extra-config checker built by
// NewSafetyChecker enforces the standard critical paths and denylist.
type SafetyChecker struct {
	// CriticalPaths are locations protected from delete_file/move_file
	// regardless of sandboxing. Matched by exact resolved-path equality,
	// not prefix: the rule blocks deleting the directory itself, while
	// descendants remain covered by sandbox containment.
	CriticalPaths []string

	// ExtraBlockedCommands extends the built-in command denylist.
	ExtraBlockedCommands []string
}

// NewSafetyChecker builds a checker with the standard critical-path set,
// including the current user's home directory when it can be determined.
func NewSafetyChecker() *SafetyChecker {
	critical := []string{"/", "/etc", "/usr", "/bin", "/sbin", "/home"}
	if home, err := os.UserHomeDir(); err == nil {
		critical = append(critical, filepath.Clean(home))
	}
	return &SafetyChecker{CriticalPaths: critical}
}

// Check evaluates all safety rules for a request. Rules are independent
// and all must pass; the first failure short-circuits. Runs before
// confirmation, snapshotting, and execution, and has no side effects.
func (c *SafetyChecker) Check(req Request, def *Definition, env Environment) Verdict {
	if v := c.checkSandbox(req, def, env); !v.Safe {
		return v
	}
	if v := c.checkCriticalPaths(req, def, env); !v.Safe {
		return v
	}
	if v := c.checkCommand(req, def); !v.Safe {
		return v
	}
	return Verdict{Safe: true}
}

// =============================================================================
// RULE 1: SANDBOX CONTAINMENT
// =============================================================================

// checkSandbox verifies that every path-typed parameter present in the
// request resolves inside at least one sandbox root. All path parameters
// are checked, not just the first: copy_file must not read a sandboxed
// source and write outside it through destination.
func (c *SafetyChecker) checkSandbox(req Request, def *Definition, env Environment) Verdict {
	if len(env.SandboxRoots) == 0 {
		return Verdict{Safe: true}
	}

	roots := make([]string, 0, len(env.SandboxRoots))
	for _, root := range env.SandboxRoots {
		roots = append(roots, env.ResolvePath(root))
	}

	for _, name := range def.PathParameters() {
		raw, ok := req.Parameters[name].(string)
		if !ok || raw == "" {
			continue
		}
		resolved := env.ResolvePath(raw)

		contained := false
		for _, root := range roots {
			if isPathWithinDir(resolved, root) {
				contained = true
				break
			}
		}
		if !contained {
			return unsafe("path %s (parameter %q) is outside the sandbox", resolved, name)
		}
	}
	return Verdict{Safe: true}
}

// isPathWithinDir reports whether path sits within dir (or equals it),
// with a boundary-correct comparison: /projectEVIL must not match a
// /project root, which a naive prefix check would allow.
func isPathWithinDir(path, dir string) bool {
	path = filepath.Clean(path)
	dir = filepath.Clean(dir)

	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}

// =============================================================================
// RULE 2: CRITICAL-PATH PROTECTION
// =============================================================================

// checkCriticalPaths rejects delete_file and move_file requests whose
// resolved target exactly equals a protected location.
func (c *SafetyChecker) checkCriticalPaths(req Request, def *Definition, env Environment) Verdict {
	if def.Name != ToolDeleteFile && def.Name != ToolMoveFile {
		return Verdict{Safe: true}
	}

	target := getString(req.Parameters, "path", "")
	if target == "" {
		target = getString(req.Parameters, "source", "")
	}
	if target == "" {
		return Verdict{Safe: true}
	}

	resolved := env.ResolvePath(target)
	for _, critical := range c.CriticalPaths {
		if resolved == filepath.Clean(critical) {
			return unsafe("refusing to %s critical path %s", def.Name, resolved)
		}
	}
	return Verdict{Safe: true}
}

// =============================================================================
// RULE 3: COMMAND DENYLIST
// =============================================================================

// checkCommand runs the shell command denylist for bash requests. The
// denylist is a best-effort heuristic, not a security boundary; see
// denylist.go.
func (c *SafetyChecker) checkCommand(req Request, def *Definition) Verdict {
	if def.Name != ToolBash {
		return Verdict{Safe: true}
	}

	command := getString(req.Parameters, "command", "")
	if err := ValidateCommand(command, c.ExtraBlockedCommands); err != nil {
		return Verdict{Safe: false, Reason: err.Error()}
	}
	return Verdict{Safe: true}
}

// =============================================================================
// SAFETY ERROR TYPE
// =============================================================================

// SafetyError represents a safety policy violation.
type SafetyError struct {
	Type    string // violation category
	Path    string // offending path, if applicable
	Message string
}

func (e *SafetyError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("safety violation (%s): %s [path: %s]", e.Type, e.Message, e.Path)
	}
	return fmt.Sprintf("safety violation (%s): %s", e.Type, e.Message)
}
