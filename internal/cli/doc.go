// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the toolgate command-line front end.
//
// The CLI is a thin shell over the tool execution gateway: it loads
// configuration, wires the executor with its safety checker, approver,
// and snapshot store, and dispatches the run/tools/snapshots commands.
// Output is lipgloss-styled for terminals and plain JSON with --json.
package cli
