// args_test.go - Tests for CLI argument parsing.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"

	"github.com/jeranaias/toolgate/internal/tools"
)

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"run", "bash", "--config", "/tmp/c.toml", "--json", "--workdir=/srv", "command=echo hi"})

	if p.Subcommand() != "run" {
		t.Errorf("Subcommand() = %q", p.Subcommand())
	}
	if p.Flag("config") != "/tmp/c.toml" {
		t.Errorf("Flag(config) = %q", p.Flag("config"))
	}
	if p.Flag("workdir") != "/srv" {
		t.Errorf("Flag(workdir) = %q", p.Flag("workdir"))
	}
	if !p.BoolFlag("json") {
		t.Error("BoolFlag(json) = false")
	}
	if p.Positional(1) != "bash" {
		t.Errorf("Positional(1) = %q", p.Positional(1))
	}
	if got := p.PositionalFrom(2); len(got) != 1 || got[0] != "command=echo hi" {
		t.Errorf("PositionalFrom(2) = %v", got)
	}
}

func TestArgParserBoolEquals(t *testing.T) {
	p := NewArgParser([]string{"--yes=true", "--color=false"})
	if !p.BoolFlag("yes") {
		t.Error("BoolFlag(yes) = false")
	}
	if p.BoolFlag("color") {
		t.Error("BoolFlag(color) = true")
	}
}

func TestArgParserTrailingBoolFlag(t *testing.T) {
	// A flag at the end of the argument list has no value to consume.
	p := NewArgParser([]string{"tools", "--json"})
	if !p.BoolFlag("json") {
		t.Error("BoolFlag(json) = false")
	}
	if p.PositionalCount() != 1 {
		t.Errorf("PositionalCount() = %d", p.PositionalCount())
	}
}

func TestArgParserOutOfBounds(t *testing.T) {
	p := NewArgParser([]string{"run"})
	if p.Positional(5) != "" {
		t.Errorf("Positional(5) = %q", p.Positional(5))
	}
	if got := p.PositionalFrom(5); len(got) != 0 {
		t.Errorf("PositionalFrom(5) = %v", got)
	}
	if p.FlagOrDefault("config", "fallback") != "fallback" {
		t.Error("FlagOrDefault did not fall through")
	}
}

// =============================================================================
// TOOL PARAMETER PARSING
// =============================================================================

func TestParseToolParams(t *testing.T) {
	registry := tools.NewRegistry()

	readDef, _ := registry.Get(tools.ToolReadFile)
	params, err := parseToolParams(readDef, []string{"file_path=main.go", "offset=10", "limit=5"})
	if err != nil {
		t.Fatalf("parseToolParams() error = %v", err)
	}
	if params["file_path"] != "main.go" {
		t.Errorf("file_path = %v", params["file_path"])
	}
	if params["offset"] != 10 || params["limit"] != 5 {
		t.Errorf("numbers = %v %v", params["offset"], params["limit"])
	}

	deleteDef, _ := registry.Get(tools.ToolDeleteFile)
	params, err = parseToolParams(deleteDef, []string{"path=old", "recursive=true"})
	if err != nil {
		t.Fatalf("parseToolParams() error = %v", err)
	}
	if params["recursive"] != true {
		t.Errorf("recursive = %v", params["recursive"])
	}
}

func TestParseToolParamsValueWithEquals(t *testing.T) {
	registry := tools.NewRegistry()
	bashDef, _ := registry.Get(tools.ToolBash)

	params, err := parseToolParams(bashDef, []string{"command=FOO=bar env"})
	if err != nil {
		t.Fatalf("parseToolParams() error = %v", err)
	}
	if params["command"] != "FOO=bar env" {
		t.Errorf("command = %v", params["command"])
	}
}

func TestParseToolParamsErrors(t *testing.T) {
	registry := tools.NewRegistry()
	readDef, _ := registry.Get(tools.ToolReadFile)

	tests := []struct {
		name  string
		pairs []string
	}{
		{"missing equals", []string{"file_path"}},
		{"unknown parameter", []string{"nope=1"}},
		{"non-numeric number", []string{"offset=ten"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseToolParams(readDef, tt.pairs); err == nil {
				t.Error("expected error")
			}
		})
	}

	deleteDef, _ := registry.Get(tools.ToolDeleteFile)
	if _, err := parseToolParams(deleteDef, []string{"recursive=maybe"}); err == nil {
		t.Error("expected error for non-boolean value")
	}
}
