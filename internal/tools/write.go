// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/toolgate/internal/util"
)

// =============================================================================
// WRITE EXECUTOR
// =============================================================================

// WriteExecutor replaces a file's content entirely. Writes are atomic
// (temp file + rename) so a crash mid-write never leaves a torn file, and
// parent directories are created as needed.
type WriteExecutor struct {
	// MaxFileSize caps the content size (default: 10MB)
	MaxFileSize int64
}

// Execute writes content to a file.
func (e *WriteExecutor) Execute(ctx context.Context, env Environment, params map[string]interface{}) (Result, error) {
	maxFileSize := e.MaxFileSize
	if maxFileSize == 0 {
		maxFileSize = 10 * 1024 * 1024
	}

	p := decodeWriteFileParams(params)
	path := env.ResolvePath(p.FilePath)

	if int64(len(p.Content)) > maxFileSize {
		return failure(fmt.Sprintf("content too large (%d bytes, limit %d)", len(p.Content), maxFileSize)), nil
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return failure(fmt.Sprintf("%s is a directory", path)), nil
	}

	if err := util.AtomicWriteFile(path, []byte(p.Content), 0644); err != nil {
		return failure(fmt.Sprintf("failed to write %s: %v", path, err)), nil
	}

	return Result{
		Success:      true,
		Output:       fmt.Sprintf("Wrote %d bytes to %s", len(p.Content), path),
		BytesWritten: int64(len(p.Content)),
	}, nil
}

// =============================================================================
// EDIT EXECUTOR
// =============================================================================

// EditExecutor performs exact search-and-replace on a file. Unless
// replace_all is set, old_string must occur exactly once; ambiguous
// matches are refused rather than guessed at.
type EditExecutor struct{}

// Execute edits a file by string replacement.
func (e *EditExecutor) Execute(ctx context.Context, env Environment, params map[string]interface{}) (Result, error) {
	p := decodeEditFileParams(params)
	path := env.ResolvePath(p.FilePath)

	if p.OldString == "" {
		return failure("old_string must not be empty"), nil
	}
	if p.OldString == p.NewString {
		return failure("old_string and new_string are identical"), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return failure(fmt.Sprintf("cannot read %s: %v", path, err)), nil
	}
	content := string(data)

	count := strings.Count(content, p.OldString)
	if count == 0 {
		return failure(fmt.Sprintf("old_string not found in %s", path)), nil
	}
	if count > 1 && !p.ReplaceAll {
		return failure(fmt.Sprintf("old_string occurs %d times in %s; pass replace_all or add context to make it unique", count, path)), nil
	}

	n := 1
	if p.ReplaceAll {
		n = -1
	}
	replaced := strings.Replace(content, p.OldString, p.NewString, n)

	info, err := os.Stat(path)
	if err != nil {
		return failure(fmt.Sprintf("cannot stat %s: %v", path, err)), nil
	}
	if err := util.AtomicWriteFile(path, []byte(replaced), info.Mode().Perm()); err != nil {
		return failure(fmt.Sprintf("failed to write %s: %v", path, err)), nil
	}

	replacements := 1
	if p.ReplaceAll {
		replacements = count
	}
	return Result{
		Success:      true,
		Output:       fmt.Sprintf("Replaced %d occurrence(s) in %s", replacements, path),
		BytesWritten: int64(len(replaced)),
	}, nil
}
