// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package approve

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")).Bold(true)
	toolStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FB923C")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)

// =============================================================================
// TERMINAL APPROVER
// =============================================================================

// TerminalApprover prompts the operator on a terminal and blocks until a
// line of input is read.
//
// Confirmation rules:
//   - "y" / "yes" (case-insensitive) approves
//   - anything else, empty input, EOF, or a read error declines
//   - a non-TTY stdin declines without prompting (cannot ask)
type TerminalApprover struct {
	// In is the input stream; defaults to os.Stdin
	In io.Reader

	// Out is where the prompt is rendered; defaults to os.Stderr so the
	// prompt never mixes with tool output on stdout
	Out io.Writer
}

// Approve implements Approver. It presents the tool name and the full
// parameter payload, then blocks for a y/N answer. The read itself is not
// interruptible mid-line; ctx is checked before prompting.
func (a *TerminalApprover) Approve(ctx context.Context, p Prompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	in := a.In
	if in == nil {
		in = os.Stdin
	}
	out := a.Out
	if out == nil {
		out = os.Stderr
	}

	// USABILITY: TTY detection for proper terminal handling
	// When reading real stdin without a terminal (piped input, CI) there
	// is nobody to ask; decline rather than hang or assume consent.
	if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		fmt.Fprintln(out, dimStyle.Render("confirmation required but stdin is not a terminal; declining"))
		return false, nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, warningStyle.Render("Dangerous operation requested"))
	fmt.Fprintf(out, "  Tool: %s\n", toolStyle.Render(p.Tool))
	for _, key := range sortedKeys(p.Params) {
		fmt.Fprintf(out, "  %-12s %v\n", key+":", p.Params[key])
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, "Allow this operation? [y/N]: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		// EOF with no input is a decline, not an error condition.
		return false, nil
	}

	response := strings.ToLower(strings.TrimSpace(line))
	return response == "y" || response == "yes", nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
