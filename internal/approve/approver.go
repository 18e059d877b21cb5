// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package approve implements operator confirmation for dangerous tool
// operations. The gateway blocks on an Approver before executing any tool
// flagged dangerous; a declined (or failed, or cancelled) approval aborts
// the operation and is never silently treated as consent.
//
// Two implementations are provided: TerminalApprover for interactive CLI
// use, and QueueApprover for headless or server hosts where there is no
// terminal to block on and approvals arrive out-of-band.
package approve

import "context"

// Prompt carries everything shown to the operator for a decision: the
// tool name and the full parameter payload of the pending request.
type Prompt struct {
	// Tool is the name of the tool awaiting approval
	Tool string

	// Params is the complete parameter payload of the request
	Params map[string]interface{}
}

// Approver decides whether a dangerous operation may proceed.
//
// Approve blocks until a decision is available or ctx is done. Only an
// explicit (true, nil) permits execution; false and any error both mean
// the operation is cancelled. Implementations must not treat ambiguous
// input (empty line, EOF, closed channel) as consent.
type Approver interface {
	Approve(ctx context.Context, p Prompt) (bool, error)
}

// Func adapts a plain function to the Approver interface. Handy in tests.
type Func func(ctx context.Context, p Prompt) (bool, error)

// Approve implements Approver.
func (f Func) Approve(ctx context.Context, p Prompt) (bool, error) {
	return f(ctx, p)
}
