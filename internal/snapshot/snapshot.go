// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package snapshot captures pre-images of files about to be mutated, so
// agent-driven changes can be reverted. The gateway calls Create before
// every mutating tool; FileStore keeps the captured bytes on disk with a
// SQLite index and supports listing and restoring snapshots.
//
// Snapshot failure is deliberately non-fatal for callers: a missed
// snapshot degrades undo, it is not a reason to block a safety-approved
// operation.
package snapshot

import (
	"context"
	"io/fs"
	"time"
)

// Request describes the snapshot to capture.
type Request struct {
	// Reason records why the snapshot was taken, e.g. "before write_file"
	Reason string

	// SessionID associates the snapshot with an agent session. Optional.
	SessionID string

	// Files are the paths whose pre-images to capture. Paths that do not
	// exist are recorded as absent, not errors: restoring then removes
	// whatever the mutation created.
	Files []string

	// WorkingDirectory resolves relative paths in Files.
	WorkingDirectory string
}

// FileState records one file's condition at capture time.
type FileState struct {
	// Path is the absolute path of the captured file
	Path string `json:"path"`

	// Existed is false for files that were absent at capture time
	Existed bool `json:"existed"`

	// Mode is the file mode at capture time (valid iff Existed)
	Mode fs.FileMode `json:"mode,omitempty"`

	// Size in bytes at capture time (valid iff Existed)
	Size int64 `json:"size,omitempty"`

	// Blob names the stored pre-image inside the snapshot directory
	// (valid iff Existed)
	Blob string `json:"blob,omitempty"`
}

// Snapshot is a captured set of file pre-images.
type Snapshot struct {
	ID               string      `json:"id"`
	Reason           string      `json:"reason"`
	SessionID        string      `json:"session_id,omitempty"`
	WorkingDirectory string      `json:"working_directory"`
	CreatedAt        time.Time   `json:"created_at"`
	Files            []FileState `json:"files"`
}

// Store is the capability the gateway consumes: capture a snapshot before
// a mutating operation. Implementations own their storage entirely.
type Store interface {
	Create(ctx context.Context, req Request) (*Snapshot, error)
}
