// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// bash.go implements shell command execution. Command denylist screening
// happens earlier in the pipeline (safety.go); this file handles the
// actual spawn, timeout, output capture, and environment sanitization.
package tools

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/toolgate/internal/util"
)

// DefaultBashTimeout is the shell command timeout used when neither the
// request nor the environment specifies one.
const DefaultBashTimeout = 30 * time.Second

// =============================================================================
// BASH EXECUTOR
// =============================================================================

// BashExecutor runs shell commands via sh -c with output capping and
// a sanitized environment.
type BashExecutor struct {
	// MaxOutputSize is the maximum combined output size (default: 100KB).
	MaxOutputSize int

	// Limiter, when set, throttles command spawns. A command refused by
	// the limiter fails without spawning.
	Limiter *rate.Limiter
}

// Execute runs a shell command.
func (e *BashExecutor) Execute(ctx context.Context, env Environment, params map[string]interface{}) (Result, error) {
	maxOutput := e.MaxOutputSize
	if maxOutput == 0 {
		maxOutput = 100 * 1024
	}

	p := decodeBashParams(params)
	if strings.TrimSpace(p.Command) == "" {
		return failure("command is required"), nil
	}

	if e.Limiter != nil && !e.Limiter.Allow() {
		return failure("shell command rate limit exceeded"), nil
	}

	timeout := DefaultBashTimeout
	if p.TimeoutSeconds > 0 {
		timeout = time.Duration(p.TimeoutSeconds) * time.Second
	}
	if env.MaxBashTimeout > 0 && timeout > env.MaxBashTimeout {
		timeout = env.MaxBashTimeout
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "sh", "-c", p.Command)
	cmd.Dir = env.WorkingDirectory
	cmd.Env = sanitizeEnvironment()
	// Give the process a grace window to exit after context cancellation
	// before it is killed outright.
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	output, truncated := buildCommandOutput(&stdout, &stderr, maxOutput)

	if cmdCtx.Err() == context.DeadlineExceeded {
		return Result{
			Success:   false,
			Error:     "command timed out after " + formatDuration(timeout),
			Output:    output,
			Truncated: truncated,
		}, nil
	}
	if cmdCtx.Err() == context.Canceled {
		return Result{
			Success:   false,
			Error:     "command cancelled",
			Output:    output,
			Truncated: truncated,
		}, nil
	}

	if err != nil {
		errorMsg := "command failed: " + err.Error()
		if exitErr, ok := err.(*exec.ExitError); ok {
			errorMsg = "command exited with code " + util.IntToStr(exitErr.ExitCode())
		}
		return Result{
			Success:   false,
			Error:     errorMsg,
			Output:    output,
			Truncated: truncated,
		}, nil
	}

	return Result{
		Success:   true,
		Output:    output,
		Truncated: truncated,
	}, nil
}

// buildCommandOutput combines stdout and stderr with truncation at maxSize.
func buildCommandOutput(stdout, stderr *bytes.Buffer, maxSize int) (string, bool) {
	var output strings.Builder
	truncated := false

	if stdout.Len() > 0 {
		outStr := stdout.String()
		if len(outStr) > maxSize {
			outStr = outStr[:maxSize]
			truncated = true
		}
		output.WriteString(outStr)
	}

	if stderr.Len() > 0 {
		if output.Len() > 0 {
			output.WriteString("\n\nSTDERR:\n")
		}
		errStr := stderr.String()
		remaining := maxSize - output.Len()
		if remaining > 0 {
			if len(errStr) > remaining {
				errStr = errStr[:remaining]
				truncated = true
			}
			output.WriteString(errStr)
		} else {
			truncated = true
		}
	}

	result := output.String()
	if result == "" {
		result = "(no output)"
	}
	if truncated {
		result += "\n\n[Output truncated at " + util.IntToStr(maxSize) + " bytes]"
	}

	return result, truncated
}

// =============================================================================
// ENVIRONMENT SANITIZATION
// =============================================================================

// dangerousEnvVars can alter what a spawned shell executes and are never
// passed through to commands.
var dangerousEnvVars = map[string]bool{
	"LD_PRELOAD":             true,
	"LD_LIBRARY_PATH":        true,
	"LD_AUDIT":               true,
	"DYLD_INSERT_LIBRARIES":  true,
	"DYLD_LIBRARY_PATH":      true,
	"BASH_ENV":               true,
	"ENV":                    true,
	"SHELLOPTS":              true,
	"CDPATH":                 true,
	"GLOBIGNORE":             true,
	"IFS":                    true,
	"PYTHONSTARTUP":          true,
	"PERL5OPT":               true,
	"RUBYOPT":                true,
	"NODE_OPTIONS":           true,
	"GIT_SSH_COMMAND":        true,
	"PROMPT_COMMAND":         true,
}

// sanitizeEnvironment filters the current environment, dropping variables
// that could be used to inject code into spawned commands.
func sanitizeEnvironment() []string {
	currentEnv := getEnviron()
	result := make([]string, 0, len(currentEnv))

	for _, env := range currentEnv {
		idx := strings.Index(env, "=")
		if idx <= 0 {
			continue
		}
		keyUpper := strings.ToUpper(env[:idx])

		if dangerousEnvVars[keyUpper] {
			continue
		}
		if strings.HasPrefix(keyUpper, "BASH_FUNC_") ||
			strings.HasPrefix(keyUpper, "LD_") ||
			strings.HasPrefix(keyUpper, "DYLD_") {
			continue
		}

		result = append(result, env)
	}

	return result
}

// getEnviron returns the current environment (abstracted for testing).
var getEnviron = func() []string {
	return os.Environ()
}

// formatDuration renders a duration compactly for error messages.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return util.IntToStr(int(d.Milliseconds())) + "ms"
	}
	if d < time.Minute {
		return util.IntToStr(int(d.Seconds())) + "s"
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return util.IntToStr(mins) + "m"
	}
	return util.IntToStr(mins) + "m" + util.IntToStr(secs) + "s"
}
