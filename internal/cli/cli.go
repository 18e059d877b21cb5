// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and handlers for toolgate.
package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/jeranaias/toolgate/internal/approve"
	"github.com/jeranaias/toolgate/internal/config"
	"github.com/jeranaias/toolgate/internal/snapshot"
	"github.com/jeranaias/toolgate/internal/tools"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const usageText = `toolgate - safety gateway for agent tool execution

Toolgate mediates file and shell operations requested by LLM agents:
every call is validated, checked against sandbox and denylist policy,
confirmed with the operator when dangerous, and snapshotted before
mutation so it can be undone.

Usage:
  toolgate run <tool> [key=value ...]   Execute a tool through the gateway
  toolgate tools                        List available tools
  toolgate snapshots list               List recorded snapshots
  toolgate snapshots show <id>          Show snapshot details
  toolgate snapshots restore <id>       Restore files from a snapshot
  toolgate version                      Show version information
  toolgate help                         Show this help

Flags:
  --config PATH     Use an alternate config file
  --workdir DIR     Override the working directory
  --yes             Pre-authorize dangerous operations (no prompting)
  --json            Output results as JSON

Examples:
  toolgate run read_file file_path=main.go
  toolgate run write_file file_path=notes.txt content="hello"
  toolgate run bash command="go test ./..."
  toolgate run delete_file path=old.log --yes
`

// Run is the CLI entry point. Returns the process exit code.
func Run(args []string) int {
	parser := NewArgParser(args)

	switch parser.Subcommand() {
	case "", "help", "--help", "-h":
		fmt.Print(usageText)
		return 0
	case "version":
		return cmdVersion(parser)
	case "tools":
		return cmdTools(parser)
	case "run":
		return cmdRun(parser)
	case "snapshots":
		return cmdSnapshots(parser)
	default:
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Unknown command: "+parser.Subcommand()))
		fmt.Fprintln(os.Stderr, DimStyle.Render("Run 'toolgate help' for usage."))
		return 2
	}
}

// =============================================================================
// SETUP
// =============================================================================

// loadConfig loads configuration, honoring --config and --workdir.
func loadConfig(parser *ArgParser) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if path := parser.Flag("config"); path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if dir := parser.Flag("workdir"); dir != "" {
		cfg.WorkingDirectory = dir
	}
	if parser.BoolFlag("yes") {
		cfg.AllowDangerous = false
	}
	return cfg, nil
}

// buildExecutor wires the gateway from configuration: safety checker,
// terminal approver, snapshot store, and bash rate limit.
func buildExecutor(cfg *config.Config) (*tools.Executor, *snapshot.FileStore, error) {
	env := cfg.Environment()

	opts := []tools.Option{
		tools.WithApprover(&approve.TerminalApprover{}),
	}

	checker := tools.NewSafetyChecker()
	checker.CriticalPaths = append(checker.CriticalPaths, cfg.Safety.ExtraCriticalPaths...)
	checker.ExtraBlockedCommands = cfg.Safety.ExtraBlockedCommands
	opts = append(opts, tools.WithSafetyChecker(checker))

	var store *snapshot.FileStore
	if cfg.Snapshot.Enabled {
		dir, err := cfg.SnapshotDir()
		if err != nil {
			return nil, nil, err
		}
		store, err = snapshot.OpenFileStore(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot open snapshot store: %w", err)
		}
		opts = append(opts, tools.WithSnapshotStore(store))
	}

	if cfg.Bash.RatePerMinute > 0 {
		opts = append(opts, tools.WithBashRateLimit(
			rate.Limit(float64(cfg.Bash.RatePerMinute)/60.0), cfg.Bash.RatePerMinute))
	}

	return tools.NewExecutor(env, opts...), store, nil
}

// =============================================================================
// RUN COMMAND
// =============================================================================

// resultData is the JSON shape of a tool result.
type resultData struct {
	Tool       string `json:"tool"`
	Success    bool   `json:"success"`
	Output     string `json:"output,omitempty"`
	Error      string `json:"error,omitempty"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Truncated  bool   `json:"truncated,omitempty"`
}

func cmdRun(parser *ArgParser) int {
	toolName := parser.Positional(1)
	if toolName == "" {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Usage: toolgate run <tool> [key=value ...]"))
		return 2
	}

	cfg, err := loadConfig(parser)
	if err != nil {
		return fail(parser, "run", err)
	}

	executor, store, err := buildExecutor(cfg)
	if err != nil {
		return fail(parser, "run", err)
	}
	if store != nil {
		defer store.Close()
	}

	def, ok := executor.Registry().Get(tools.ToolName(toolName))
	if !ok {
		return fail(parser, "run", fmt.Errorf("unknown tool: %s", toolName))
	}

	params, err := parseToolParams(def, parser.PositionalFrom(2))
	if err != nil {
		return fail(parser, "run", err)
	}

	res := executor.Execute(context.Background(), tools.Request{
		Tool:       tools.ToolName(toolName),
		Parameters: params,
	})

	// Retention is enforced after the call so the snapshot just taken
	// counts toward the keep window.
	if store != nil && cfg.Snapshot.KeepLast > 0 {
		if _, err := store.Prune(context.Background(), cfg.Snapshot.KeepLast); err != nil {
			fmt.Fprintln(os.Stderr, DimStyle.Render("snapshot prune failed: "+err.Error()))
		}
	}

	if parser.BoolFlag("json") {
		NewJSONResponse("run", resultData{
			Tool:       toolName,
			Success:    res.Success,
			Output:     res.Output,
			Error:      res.Error,
			SnapshotID: res.SnapshotID,
			DurationMs: res.Duration.Milliseconds(),
			Truncated:  res.Truncated,
		}).Print()
		if res.Success {
			return 0
		}
		return 1
	}

	if !res.Success {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ "+res.Error))
		return 1
	}

	fmt.Println(res.Output)
	if res.SnapshotID != "" {
		fmt.Fprintln(os.Stderr, DimStyle.Render("snapshot: "+res.SnapshotID))
	}
	return 0
}

// parseToolParams converts key=value arguments into a parameter map,
// using the tool's schema to pick value types.
func parseToolParams(def *tools.Definition, pairs []string) (map[string]interface{}, error) {
	params := make(map[string]interface{}, len(pairs))

	types := make(map[string]string, len(def.Parameters))
	for _, p := range def.Parameters {
		types[p.Name] = p.Type
	}

	for _, pair := range pairs {
		idx := strings.Index(pair, "=")
		if idx <= 0 {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		key, raw := pair[:idx], pair[idx+1:]

		typ, known := types[key]
		if !known {
			return nil, fmt.Errorf("unknown parameter %q for tool %s", key, def.Name)
		}

		switch typ {
		case tools.TypeNumber:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("parameter %q must be a number: %v", key, err)
			}
			params[key] = n
		case tools.TypeBoolean:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("parameter %q must be true or false", key)
			}
			params[key] = b
		case tools.TypeArray:
			parts := strings.Split(raw, ",")
			arr := make([]interface{}, 0, len(parts))
			for _, part := range parts {
				arr = append(arr, strings.TrimSpace(part))
			}
			params[key] = arr
		default:
			params[key] = raw
		}
	}

	return params, nil
}

// =============================================================================
// TOOLS COMMAND
// =============================================================================

// toolData is the JSON shape of a tool definition listing.
type toolData struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Dangerous     bool     `json:"dangerous"`
	NeedsSnapshot bool     `json:"needs_snapshot"`
	Parameters    []string `json:"parameters"`
}

func cmdTools(parser *ArgParser) int {
	registry := tools.NewRegistry()

	if parser.BoolFlag("json") {
		var list []toolData
		for _, def := range registry.All() {
			var names []string
			for _, p := range def.Parameters {
				name := p.Name
				if p.Required {
					name += "*"
				}
				names = append(names, name)
			}
			list = append(list, toolData{
				Name:          string(def.Name),
				Description:   def.Description,
				Dangerous:     def.Dangerous,
				NeedsSnapshot: def.NeedsSnapshot,
				Parameters:    names,
			})
		}
		NewJSONResponse("tools", list).Print()
		return 0
	}

	fmt.Println(TitleStyle.Render("Available tools"))
	fmt.Println()
	for _, def := range registry.All() {
		var markers []string
		if def.Dangerous {
			markers = append(markers, WarningStyle.Render("dangerous"))
		}
		if def.NeedsSnapshot {
			markers = append(markers, DimStyle.Render("snapshotted"))
		}
		suffix := ""
		if len(markers) > 0 {
			suffix = "  [" + strings.Join(markers, ", ") + "]"
		}
		fmt.Printf("  %s%s\n", ToolStyle.Render(string(def.Name)), suffix)
		fmt.Printf("      %s\n", DimStyle.Render(def.Description))
		for _, p := range def.Parameters {
			req := ""
			if p.Required {
				req = " (required)"
			}
			fmt.Printf("      %s %s%s\n", LabelStyle.Render(p.Name), DimStyle.Render(p.Type), DimStyle.Render(req))
		}
		fmt.Println()
	}
	return 0
}

// =============================================================================
// SNAPSHOTS COMMAND
// =============================================================================

// snapshotData is the JSON shape of a snapshot listing entry.
type snapshotData struct {
	ID        string `json:"id"`
	Reason    string `json:"reason"`
	SessionID string `json:"session_id,omitempty"`
	CreatedAt string `json:"created_at"`
	Files     int    `json:"files"`
}

func cmdSnapshots(parser *ArgParser) int {
	cfg, err := loadConfig(parser)
	if err != nil {
		return fail(parser, "snapshots", err)
	}

	dir, err := cfg.SnapshotDir()
	if err != nil {
		return fail(parser, "snapshots", err)
	}
	store, err := snapshot.OpenFileStore(dir)
	if err != nil {
		return fail(parser, "snapshots", fmt.Errorf("cannot open snapshot store: %w", err))
	}
	defer store.Close()

	ctx := context.Background()

	switch parser.Positional(1) {
	case "", "list":
		snaps, err := store.List(ctx, 50)
		if err != nil {
			return fail(parser, "snapshots", err)
		}
		if parser.BoolFlag("json") {
			list := make([]snapshotData, 0, len(snaps))
			for _, s := range snaps {
				list = append(list, snapshotData{
					ID:        s.ID,
					Reason:    s.Reason,
					SessionID: s.SessionID,
					CreatedAt: s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
					Files:     len(s.Files),
				})
			}
			NewJSONResponse("snapshots", list).Print()
			return 0
		}
		if len(snaps) == 0 {
			fmt.Println(DimStyle.Render("No snapshots recorded."))
			return 0
		}
		fmt.Println(TitleStyle.Render("Snapshots"))
		for _, s := range snaps {
			fmt.Printf("  %s  %s  %s (%d files)\n",
				ToolStyle.Render(s.ID),
				DimStyle.Render(s.CreatedAt.Local().Format("2006-01-02 15:04:05")),
				s.Reason, len(s.Files))
		}
		return 0

	case "show":
		id := parser.Positional(2)
		if id == "" {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Usage: toolgate snapshots show <id>"))
			return 2
		}
		snap, err := store.Get(ctx, id)
		if err != nil {
			return fail(parser, "snapshots", err)
		}
		if parser.BoolFlag("json") {
			NewJSONResponse("snapshots", snap).Print()
			return 0
		}
		fmt.Println(TitleStyle.Render("Snapshot " + snap.ID))
		fmt.Printf("  %s %s\n", LabelStyle.Render("Reason"), snap.Reason)
		fmt.Printf("  %s %s\n", LabelStyle.Render("Created"), snap.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		if snap.SessionID != "" {
			fmt.Printf("  %s %s\n", LabelStyle.Render("Session"), snap.SessionID)
		}
		for _, f := range snap.Files {
			state := "existed"
			if !f.Existed {
				state = "absent"
			}
			fmt.Printf("  %s %s (%s)\n", LabelStyle.Render("File"), f.Path, state)
		}
		return 0

	case "restore":
		id := parser.Positional(2)
		if id == "" {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Usage: toolgate snapshots restore <id>"))
			return 2
		}
		if err := store.Restore(ctx, id); err != nil {
			return fail(parser, "snapshots", err)
		}
		if parser.BoolFlag("json") {
			NewJSONResponse("snapshots", map[string]string{"restored": id}).Print()
			return 0
		}
		fmt.Println(SuccessStyle.Render("Restored snapshot " + id))
		return 0

	default:
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Unknown snapshots subcommand: "+parser.Positional(1)))
		return 2
	}
}

// =============================================================================
// VERSION COMMAND
// =============================================================================

func cmdVersion(parser *ArgParser) int {
	if parser.BoolFlag("json") {
		NewJSONResponse("version", map[string]string{
			"version":    Version,
			"git_commit": GitCommit,
			"build_date": BuildDate,
		}).Print()
		return 0
	}
	fmt.Printf("toolgate %s (%s, built %s)\n", Version, GitCommit, BuildDate)
	return 0
}

// =============================================================================
// HELPERS
// =============================================================================

// fail reports a command error in the active output mode and returns the
// error exit code.
func fail(parser *ArgParser, command string, err error) int {
	if parser.BoolFlag("json") {
		NewJSONErrorResponse(command, err).Print()
		return 1
	}
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
	return 1
}
