// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// fileops.go implements the copy, move, delete, and create-directory
// executors. All of them resolve paths through the Environment; sandbox
// and critical-path screening happens before dispatch.
package tools

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// =============================================================================
// COPY EXECUTOR
// =============================================================================

// CopyExecutor copies a regular file, preserving its permission bits.
// Destination parent directories are created as needed.
type CopyExecutor struct{}

// Execute copies source to destination.
func (e *CopyExecutor) Execute(ctx context.Context, env Environment, params map[string]interface{}) (Result, error) {
	p := decodeCopyFileParams(params)
	src := env.ResolvePath(p.Source)
	dst := env.ResolvePath(p.Destination)

	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return failure("source not found: " + src), nil
		}
		return failure("cannot access source: " + err.Error()), nil
	}
	if info.IsDir() {
		return failure("source is a directory, not a file: " + src), nil
	}
	if src == dst {
		return failure("source and destination are the same file"), nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return failure("cannot create destination directory: " + err.Error()), nil
	}

	written, err := copyFileContents(src, dst, info.Mode().Perm())
	if err != nil {
		return failure("copy failed: " + err.Error()), nil
	}

	return Result{
		Success:      true,
		Output:       fmt.Sprintf("Copied %s to %s (%d bytes)", src, dst, written),
		BytesWritten: written,
	}, nil
}

// copyFileContents streams src into dst with the given permissions.
func copyFileContents(src, dst string, perm os.FileMode) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return written, err
	}
	if err := out.Close(); err != nil {
		return written, err
	}
	return written, nil
}

// =============================================================================
// MOVE EXECUTOR
// =============================================================================

// MoveExecutor renames a file or directory. Falls back to copy-and-remove
// for regular files when the rename crosses filesystems.
type MoveExecutor struct{}

// Execute moves source to destination.
func (e *MoveExecutor) Execute(ctx context.Context, env Environment, params map[string]interface{}) (Result, error) {
	p := decodeMoveFileParams(params)
	src := env.ResolvePath(p.Source)
	dst := env.ResolvePath(p.Destination)

	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return failure("source not found: " + src), nil
		}
		return failure("cannot access source: " + err.Error()), nil
	}
	if src == dst {
		return failure("source and destination are the same path"), nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return failure("cannot create destination directory: " + err.Error()), nil
	}

	if err := os.Rename(src, dst); err != nil {
		// EXDEV: rename cannot cross filesystems. Copy then remove,
		// regular files only.
		if info.IsDir() {
			return failure("move failed: " + err.Error()), nil
		}
		if _, cpErr := copyFileContents(src, dst, info.Mode().Perm()); cpErr != nil {
			return failure("move failed: " + cpErr.Error()), nil
		}
		if rmErr := os.Remove(src); rmErr != nil {
			return failure("moved but could not remove source: " + rmErr.Error()), nil
		}
	}

	return Result{
		Success: true,
		Output:  fmt.Sprintf("Moved %s to %s", src, dst),
	}, nil
}

// =============================================================================
// DELETE EXECUTOR
// =============================================================================

// DeleteExecutor removes a file or, with recursive set, a directory tree.
// Deleting a non-empty directory without recursive is refused.
type DeleteExecutor struct{}

// Execute deletes a path.
func (e *DeleteExecutor) Execute(ctx context.Context, env Environment, params map[string]interface{}) (Result, error) {
	p := decodeDeleteFileParams(params)
	path := env.ResolvePath(p.Path)

	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return failure("path not found: " + path), nil
		}
		return failure("cannot access path: " + err.Error()), nil
	}

	if info.IsDir() && !p.Recursive {
		entries, err := os.ReadDir(path)
		if err != nil {
			return failure("cannot read directory: " + err.Error()), nil
		}
		if len(entries) > 0 {
			return failure(fmt.Sprintf("directory %s is not empty; pass recursive=true to delete it", path)), nil
		}
	}

	if p.Recursive {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		return failure("delete failed: " + err.Error()), nil
	}

	return Result{
		Success: true,
		Output:  "Deleted " + path,
	}, nil
}

// =============================================================================
// MKDIR EXECUTOR
// =============================================================================

// MkdirExecutor creates a directory, including missing parents. Creating
// a directory that already exists succeeds without change.
type MkdirExecutor struct{}

// Execute creates a directory.
func (e *MkdirExecutor) Execute(ctx context.Context, env Environment, params map[string]interface{}) (Result, error) {
	p := decodeCreateDirectoryParams(params)
	path := env.ResolvePath(p.Path)

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return failure("path exists and is not a directory: " + path), nil
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return failure("cannot create directory: " + err.Error()), nil
	}

	return Result{
		Success: true,
		Output:  "Created directory " + path,
	}, nil
}
