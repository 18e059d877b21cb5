// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/toolgate/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when a snapshot ID does not exist.
	ErrNotFound = errors.New("snapshot not found")
)

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore keeps snapshots under a root directory:
//
//	<root>/snapshots.db      SQLite index (id, reason, session, manifest)
//	<root>/<id>/<blob>       captured pre-image bytes, one blob per file
//
// The manifest travels in the index as JSON, so listing never touches the
// blob directories.
type FileStore struct {
	root string
	db   *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id          TEXT PRIMARY KEY,
	reason      TEXT NOT NULL,
	session_id  TEXT NOT NULL DEFAULT '',
	working_dir TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	manifest    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at);
`

// OpenFileStore opens (creating if needed) a snapshot store rooted at dir.
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "snapshots.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize snapshot index: %w", err)
	}

	return &FileStore{root: dir, db: db}, nil
}

// Close releases the index database.
func (s *FileStore) Close() error {
	return s.db.Close()
}

// Create implements Store. Files are resolved against the request's
// working directory; existing files have their bytes copied into the
// snapshot directory, absent files are recorded as absent. Directories
// are walked and every contained entry captured as its own FileState, so
// restoring after a recursive delete or a directory move brings the whole
// tree back, not just an empty directory.
func (s *FileStore) Create(ctx context.Context, req Request) (*Snapshot, error) {
	snap := &Snapshot{
		ID:               uuid.NewString(),
		Reason:           req.Reason,
		SessionID:        req.SessionID,
		WorkingDirectory: req.WorkingDirectory,
		CreatedAt:        time.Now().UTC(),
	}

	blobDir := filepath.Join(s.root, snap.ID)
	blobSeq := 0

	// capture records one filesystem entry, storing a pre-image blob for
	// regular files. Non-regular, non-directory entries (symlinks,
	// devices) are recorded without contents.
	capture := func(path string, info os.FileInfo) error {
		state := FileState{
			Path:    path,
			Existed: true,
			Mode:    info.Mode(),
			Size:    info.Size(),
		}
		if info.Mode().IsRegular() {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			state.Blob = fmt.Sprintf("%04d", blobSeq)
			blobSeq++
			if err := util.AtomicWriteFile(filepath.Join(blobDir, state.Blob), data, 0600); err != nil {
				return fmt.Errorf("failed to store pre-image of %s: %w", path, err)
			}
		}
		snap.Files = append(snap.Files, state)
		return nil
	}

	for _, raw := range req.Files {
		if err := ctx.Err(); err != nil {
			os.RemoveAll(blobDir)
			return nil, err
		}

		path := raw
		if !filepath.IsAbs(path) {
			path = filepath.Join(req.WorkingDirectory, path)
		}
		path = filepath.Clean(path)

		info, err := os.Lstat(path)
		if err != nil {
			if os.IsNotExist(err) {
				snap.Files = append(snap.Files, FileState{Path: path, Existed: false})
				continue
			}
			os.RemoveAll(blobDir)
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		if info.IsDir() {
			// WalkDir yields each directory before its children, which is
			// the order Restore needs to recreate the tree.
			walkErr := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				fi, err := d.Info()
				if err != nil {
					return err
				}
				return capture(p, fi)
			})
			if walkErr != nil {
				os.RemoveAll(blobDir)
				return nil, fmt.Errorf("failed to capture %s: %w", path, walkErr)
			}
			continue
		}

		if err := capture(path, info); err != nil {
			os.RemoveAll(blobDir)
			return nil, err
		}
	}

	manifest, err := json.Marshal(snap.Files)
	if err != nil {
		os.RemoveAll(blobDir)
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, reason, session_id, working_dir, created_at, manifest)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Reason, snap.SessionID, snap.WorkingDirectory,
		snap.CreatedAt.UnixMilli(), string(manifest))
	if err != nil {
		os.RemoveAll(blobDir)
		return nil, fmt.Errorf("failed to index snapshot: %w", err)
	}

	return snap, nil
}

// Get loads a snapshot by ID.
func (s *FileStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, reason, session_id, working_dir, created_at, manifest
		 FROM snapshots WHERE id = ?`, id)
	return scanSnapshot(row)
}

// List returns snapshots newest first, at most limit entries (0 = all).
func (s *FileStore) List(ctx context.Context, limit int) ([]*Snapshot, error) {
	query := `SELECT id, reason, session_id, working_dir, created_at, manifest
	          FROM snapshots ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Restore writes every captured pre-image back to its original path and
// removes paths that were absent at capture time. Writes are atomic per
// file; the first failure aborts with the error, leaving earlier files
// restored.
func (s *FileStore) Restore(ctx context.Context, id string) error {
	snap, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	blobDir := filepath.Join(s.root, snap.ID)

	for _, state := range snap.Files {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !state.Existed {
			// RemoveAll so an entire tree moved onto this path (for
			// example the destination of a directory move) is cleared.
			if err := os.RemoveAll(state.Path); err != nil {
				return fmt.Errorf("failed to remove %s: %w", state.Path, err)
			}
			continue
		}

		if state.Mode.IsDir() {
			if err := os.MkdirAll(state.Path, state.Mode.Perm()); err != nil {
				return fmt.Errorf("failed to restore directory %s: %w", state.Path, err)
			}
			continue
		}
		if state.Blob == "" {
			// Non-regular file (symlink, device); nothing stored to restore.
			continue
		}

		data, err := os.ReadFile(filepath.Join(blobDir, state.Blob))
		if err != nil {
			return fmt.Errorf("failed to read pre-image for %s: %w", state.Path, err)
		}
		if err := util.AtomicWriteFile(state.Path, data, state.Mode.Perm()); err != nil {
			return fmt.Errorf("failed to restore %s: %w", state.Path, err)
		}
	}

	return nil
}

// Prune deletes all but the keep newest snapshots. keep <= 0 is a no-op.
// Returns the number of snapshots removed.
func (s *FileStore) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM snapshots ORDER BY created_at DESC LIMIT -1 OFFSET ?`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to query prunable snapshots: %w", err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("failed to scan snapshot id: %w", err)
		}
		stale = append(stale, id)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	pruned := 0
	for _, id := range stale {
		if err := s.Delete(ctx, id); err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}

// Delete removes a snapshot and its stored pre-images.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return os.RemoveAll(filepath.Join(s.root, id))
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	var snap Snapshot
	var createdAt int64
	var manifest string

	err := row.Scan(&snap.ID, &snap.Reason, &snap.SessionID,
		&snap.WorkingDirectory, &createdAt, &manifest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	snap.CreatedAt = time.UnixMilli(createdAt).UTC()
	if err := json.Unmarshal([]byte(manifest), &snap.Files); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &snap, nil
}
