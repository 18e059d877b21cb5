// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// denylist.go implements the shell command denylist. Matching is
// substring and pattern based after unicode normalization; it is a
// best-effort heuristic against obviously destructive commands, not a
// parser-backed security boundary. Anything it misses is still subject to
// the operating system's own permissions.
package tools

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// BLOCKED COMMANDS AND PATTERNS
// =============================================================================

// DefaultBlockedCommands are command substrings that are always refused.
var DefaultBlockedCommands = []string{
	// Destructive recursive deletes of root/home
	"rm -rf /", "rm -rf /*", "rm -fr /", "rm -fr /*",
	"rm -rf ~", "rm -rf ~/", "rm -rf $HOME",
	"rm --no-preserve-root",

	// Raw device and filesystem destruction
	"dd if=", "dd of=/dev",
	"mkfs", "mke2fs", "mkswap",
	"wipefs", "shred",
	"> /dev/sda", "> /dev/nvme", "> /dev/hd",

	// Fork bombs
	":(){:|:&};:", ":(){ :|:& };:",

	// Dangerous permission sweeps
	"chmod -R 777 /", "chmod 777 /",

	// Remote code execution pipes
	"curl | bash", "curl | sh", "curl|bash", "curl|sh",
	"wget | bash", "wget | sh", "wget|bash", "wget|sh",
}

// DefaultBlockedPatterns are looser substrings that indicate dangerous
// intent even when the exact command form varies.
var DefaultBlockedPatterns = []string{
	":(){",         // fork bomb prelude in any spacing
	"of=/dev/sd",   // dd writing to a disk device
	"of=/dev/nvme", // dd writing to an nvme device
}

// privilegedCommands escalate and are refused outright when they lead a
// command line.
var privilegedCommands = map[string]bool{
	"sudo":   true,
	"su":     true,
	"doas":   true,
	"pkexec": true,
}

// =============================================================================
// COMMAND VALIDATION
// =============================================================================

// ValidateCommand checks a shell command against the denylist. extra
// entries (from configuration) are matched the same way as the defaults.
// Returns a *SafetyError naming the matched entry on refusal.
func ValidateCommand(command string, extra []string) error {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return &SafetyError{Type: "command_validation", Message: "command cannot be empty"}
	}

	// NFKC normalization folds unicode homoglyphs to their canonical
	// forms so lookalike characters cannot slip past substring matching.
	normalized := norm.NFKC.String(trimmed)
	normalized = collapseWhitespace(strings.ToLower(normalized))

	for _, blocked := range DefaultBlockedCommands {
		if strings.Contains(normalized, collapseWhitespace(strings.ToLower(blocked))) {
			return &SafetyError{
				Type:    "command_blocked",
				Message: fmt.Sprintf("command contains blocked operation: %s", blocked),
			}
		}
	}
	for _, blocked := range extra {
		if blocked == "" {
			continue
		}
		if strings.Contains(normalized, collapseWhitespace(strings.ToLower(blocked))) {
			return &SafetyError{
				Type:    "command_blocked",
				Message: fmt.Sprintf("command contains blocked operation: %s", blocked),
			}
		}
	}
	for _, pattern := range DefaultBlockedPatterns {
		if strings.Contains(normalized, strings.ToLower(pattern)) {
			return &SafetyError{
				Type:    "command_pattern",
				Message: fmt.Sprintf("command contains dangerous pattern: %s", pattern),
			}
		}
	}

	tokens, err := parseCommandTokens(trimmed)
	if err != nil {
		return &SafetyError{
			Type:    "command_validation",
			Message: fmt.Sprintf("failed to parse command: %v", err),
		}
	}
	if len(tokens) > 0 && privilegedCommands[strings.ToLower(tokens[0])] {
		return &SafetyError{
			Type:    "command_privileged",
			Message: fmt.Sprintf("privileged command %q is not permitted", tokens[0]),
		}
	}

	return nil
}

// collapseWhitespace folds tabs into spaces and squeezes space runs, so
// "rm   -rf  /" matches the denylist entry for "rm -rf /".
func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return s
}

// parseCommandTokens splits a command into tokens, respecting single and
// double quotes and backslash escapes. Prevents "  sudo" style bypasses
// of the privileged-command check.
func parseCommandTokens(command string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	inSingle := false
	inDouble := false
	escaped := false

	for _, r := range command {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '\'':
			if inDouble {
				current.WriteRune(r)
			} else {
				inSingle = !inSingle
			}
		case '"':
			if inSingle {
				current.WriteRune(r)
			} else {
				inDouble = !inDouble
			}
		case ' ', '\t', '\n':
			if inSingle || inDouble {
				current.WriteRune(r)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	if inSingle || inDouble {
		return nil, fmt.Errorf("unclosed quote in command")
	}
	return tokens, nil
}
