// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package approve

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// =============================================================================
// QUEUE APPROVER
// =============================================================================

// PendingApproval is an approval request waiting for an out-of-band
// decision, identified by a unique ID.
type PendingApproval struct {
	ID     string
	Prompt Prompt

	decision chan bool
}

// QueueApprover collects approval requests on a channel for a host
// (HTTP handler, chat bot, approval UI) to resolve by ID. Each pending
// approval blocks only the request that is waiting on it; unrelated tool
// calls proceed independently.
type QueueApprover struct {
	mu      sync.Mutex
	pending map[string]*PendingApproval
	queue   chan *PendingApproval
}

// NewQueueApprover creates a queue approver able to buffer up to size
// undelivered requests before Approve blocks handing them off.
func NewQueueApprover(size int) *QueueApprover {
	if size <= 0 {
		size = 16
	}
	return &QueueApprover{
		pending: make(map[string]*PendingApproval),
		queue:   make(chan *PendingApproval, size),
	}
}

// Requests returns the channel on which new pending approvals arrive.
func (q *QueueApprover) Requests() <-chan *PendingApproval {
	return q.queue
}

// Approve implements Approver. It enqueues the request and blocks until
// Resolve is called with its ID or ctx is done. Context cancellation
// counts as a decline.
func (q *QueueApprover) Approve(ctx context.Context, p Prompt) (bool, error) {
	req := &PendingApproval{
		ID:       uuid.NewString(),
		Prompt:   p,
		decision: make(chan bool, 1),
	}

	q.mu.Lock()
	q.pending[req.ID] = req
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		delete(q.pending, req.ID)
		q.mu.Unlock()
	}()

	select {
	case q.queue <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	select {
	case allowed := <-req.decision:
		return allowed, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Resolve delivers the decision for a pending approval. Resolving an
// unknown (or already resolved) ID is an error.
func (q *QueueApprover) Resolve(id string, allowed bool) error {
	q.mu.Lock()
	req, ok := q.pending[id]
	if ok {
		delete(q.pending, id)
	}
	q.mu.Unlock()

	if !ok {
		return fmt.Errorf("no pending approval with id %s", id)
	}
	req.decision <- allowed
	return nil
}

// Pending returns a snapshot of the currently unresolved approvals.
func (q *QueueApprover) Pending() []*PendingApproval {
	q.mu.Lock()
	defer q.mu.Unlock()

	result := make([]*PendingApproval, 0, len(q.pending))
	for _, req := range q.pending {
		result = append(result, req)
	}
	return result
}
