// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools implements the tool execution safety gateway for toolgate.
//
// The package mediates every agentic action (file reads/writes/deletes,
// directory operations, shell commands) between an LLM-driven agent loop
// and the real filesystem/OS. A single entry point, (*Executor).Execute,
// runs each request through a fixed pipeline:
//
//	resolve definition -> validate parameters -> safety policy ->
//	dangerous-operation confirmation -> pre-mutation snapshot ->
//	tool implementation -> usage ledger
//
// Every stage short-circuits to a structured Result on failure; Execute
// never returns an error and never lets an implementation panic escape.
//
// Safety policy (safety.go, denylist.go) is allow-list/deny-list based,
// not kernel enforced: sandbox containment over declared path parameters,
// critical-path protection for delete/move, and a best-effort shell
// command denylist.
package tools
