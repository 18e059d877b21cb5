// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools implements the tool execution safety gateway for toolgate.
// definitions.go declares the tool catalog: names, parameter schemas, and
// the dangerous/snapshot flags the dispatcher keys its pipeline off.
package tools

import "context"

// =============================================================================
// TOOL NAMES
// =============================================================================

// ToolName identifies a tool in the catalog. The set is closed: the
// registry only ever contains the constants below.
type ToolName string

const (
	ToolReadFile        ToolName = "read_file"
	ToolWriteFile       ToolName = "write_file"
	ToolEditFile        ToolName = "edit_file"
	ToolListDirectory   ToolName = "list_directory"
	ToolSearchFiles     ToolName = "search_files"
	ToolBash            ToolName = "bash"
	ToolCopyFile        ToolName = "copy_file"
	ToolMoveFile        ToolName = "move_file"
	ToolDeleteFile      ToolName = "delete_file"
	ToolCreateDirectory ToolName = "create_directory"
)

// AllToolNames returns every tool name in the closed enum, in registration
// order. Used by the CLI's tool listing and by tests.
func AllToolNames() []ToolName {
	return []ToolName{
		ToolReadFile,
		ToolWriteFile,
		ToolEditFile,
		ToolListDirectory,
		ToolSearchFiles,
		ToolBash,
		ToolCopyFile,
		ToolMoveFile,
		ToolDeleteFile,
		ToolCreateDirectory,
	}
}

// =============================================================================
// PARAMETER SCHEMA
// =============================================================================

// Parameter types understood by the validator.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
)

// Parameter defines a single tool parameter.
type Parameter struct {
	// Name of the parameter as it appears in the request map
	Name string

	// Type is the semantic type ("string", "number", "boolean", "array")
	Type string

	// Required indicates the parameter must be present
	Required bool

	// Description explains the parameter
	Description string

	// Default is the value used when an optional parameter is absent
	Default interface{}

	// Path marks a parameter whose value is a filesystem path. The safety
	// policy checks sandbox containment on every Path parameter, and the
	// snapshot step captures pre-images of every Path parameter present in
	// a request. Declaring this in the schema replaces guessing by
	// hardcoded key names.
	Path bool
}

// Definition describes one tool in the catalog. Definitions are built once
// at registry construction and never mutated afterwards.
type Definition struct {
	// Name is the unique tool identifier
	Name ToolName

	// Description explains what the tool does
	Description string

	// Parameters is the ordered parameter schema
	Parameters []Parameter

	// Dangerous tools require interactive operator confirmation before
	// execution (when the environment's AllowDangerous gate is on).
	Dangerous bool

	// NeedsSnapshot tools mutate the filesystem; the dispatcher captures a
	// pre-image snapshot before running them. Orthogonal to Dangerous.
	NeedsSnapshot bool
}

// PathParameters returns the names of the definition's path-typed
// parameters, in schema order.
func (d *Definition) PathParameters() []string {
	var names []string
	for _, p := range d.Parameters {
		if p.Path {
			names = append(names, p.Name)
		}
	}
	return names
}

// =============================================================================
// TOOL EXECUTOR INTERFACE
// =============================================================================

// ToolExecutor is the interface each tool implementation satisfies. The
// dispatcher invokes implementations polymorphically through it.
//
// Implementations report ordinary failures (file not found, non-zero exit)
// inside the returned Result or as an error; the dispatcher converts both
// to a failed Result. They must respect ctx cancellation and deadlines.
type ToolExecutor interface {
	Execute(ctx context.Context, env Environment, params map[string]interface{}) (Result, error)
}

// =============================================================================
// BUILT-IN TOOL DEFINITIONS
// =============================================================================

func builtinDefinitions() []*Definition {
	return []*Definition{
		{
			Name:        ToolReadFile,
			Description: "Read the contents of a file, with line numbers. Supports offset/limit for large files.",
			Parameters: []Parameter{
				{Name: "file_path", Type: TypeString, Required: true, Path: true, Description: "Path to the file to read. Relative paths resolve from the working directory."},
				{Name: "offset", Type: TypeNumber, Required: false, Default: 1, Description: "1-indexed line number to start reading from."},
				{Name: "limit", Type: TypeNumber, Required: false, Default: 2000, Description: "Maximum number of lines to read."},
			},
		},
		{
			Name:        ToolWriteFile,
			Description: "Write content to a file, replacing any existing content. Parent directories are created automatically.",
			Parameters: []Parameter{
				{Name: "file_path", Type: TypeString, Required: true, Path: true, Description: "Path to the file to write."},
				{Name: "content", Type: TypeString, Required: true, Description: "Complete content to write. Replaces existing content entirely."},
			},
			NeedsSnapshot: true,
		},
		{
			Name:        ToolEditFile,
			Description: "Edit a file by exact search and replace. old_string must match exactly once unless replace_all is set.",
			Parameters: []Parameter{
				{Name: "file_path", Type: TypeString, Required: true, Path: true, Description: "Path to the file to edit. Must exist."},
				{Name: "old_string", Type: TypeString, Required: true, Description: "Exact text to find, including whitespace."},
				{Name: "new_string", Type: TypeString, Required: false, Default: "", Description: "Replacement text; empty deletes the match."},
				{Name: "replace_all", Type: TypeBoolean, Required: false, Default: false, Description: "Replace every occurrence instead of requiring a unique match."},
			},
			NeedsSnapshot: true,
		},
		{
			Name:        ToolListDirectory,
			Description: "List the entries of a directory.",
			Parameters: []Parameter{
				{Name: "path", Type: TypeString, Required: true, Path: true, Description: "Directory to list."},
			},
		},
		{
			Name:        ToolSearchFiles,
			Description: "Search file contents under a directory using a regular expression.",
			Parameters: []Parameter{
				{Name: "pattern", Type: TypeString, Required: true, Description: "Regular expression to search for."},
				{Name: "path", Type: TypeString, Required: false, Path: true, Description: "Directory to search. Defaults to the working directory."},
				{Name: "glob", Type: TypeString, Required: false, Description: "Filename glob filter, e.g. '*.go'."},
				{Name: "max_results", Type: TypeNumber, Required: false, Default: 50, Description: "Maximum number of matches to return."},
			},
		},
		{
			Name:        ToolBash,
			Description: "Execute a shell command with a timeout. Destructive commands are refused by the denylist.",
			Parameters: []Parameter{
				{Name: "command", Type: TypeString, Required: true, Description: "The shell command to execute."},
				{Name: "timeout", Type: TypeNumber, Required: false, Description: "Timeout in seconds. Capped by the environment's maximum."},
			},
			Dangerous: true,
		},
		{
			Name:        ToolCopyFile,
			Description: "Copy a file to a new location. The destination's pre-image is snapshotted.",
			Parameters: []Parameter{
				{Name: "source", Type: TypeString, Required: true, Path: true, Description: "File to copy."},
				{Name: "destination", Type: TypeString, Required: true, Path: true, Description: "Where to copy it. Overwritten if it exists."},
			},
			NeedsSnapshot: true,
		},
		{
			Name:        ToolMoveFile,
			Description: "Move or rename a file or directory.",
			Parameters: []Parameter{
				{Name: "source", Type: TypeString, Required: true, Path: true, Description: "File or directory to move."},
				{Name: "destination", Type: TypeString, Required: true, Path: true, Description: "New location."},
			},
			Dangerous:     true,
			NeedsSnapshot: true,
		},
		{
			Name:        ToolDeleteFile,
			Description: "Delete a file or directory.",
			Parameters: []Parameter{
				{Name: "path", Type: TypeString, Required: true, Path: true, Description: "File or directory to delete."},
				{Name: "recursive", Type: TypeBoolean, Required: false, Default: false, Description: "Delete directories recursively."},
			},
			Dangerous:     true,
			NeedsSnapshot: true,
		},
		{
			Name:        ToolCreateDirectory,
			Description: "Create a directory, including missing parents.",
			Parameters: []Parameter{
				{Name: "path", Type: TypeString, Required: true, Path: true, Description: "Directory to create."},
			},
		},
	}
}
