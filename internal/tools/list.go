// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// =============================================================================
// LIST EXECUTOR
// =============================================================================

// ListExecutor lists directory entries, directories first, each group
// sorted by name.
type ListExecutor struct{}

// Execute lists a directory.
func (e *ListExecutor) Execute(ctx context.Context, env Environment, params map[string]interface{}) (Result, error) {
	p := decodeListDirectoryParams(params)
	path := env.ResolvePath(p.Path)

	entries, err := os.ReadDir(path)
	if err != nil {
		return failure(fmt.Sprintf("cannot list %s: %v", path, err)), nil
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	var sb strings.Builder
	for _, entry := range entries {
		if entry.IsDir() {
			fmt.Fprintf(&sb, "%s/\n", entry.Name())
			continue
		}
		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(&sb, "%s\n", entry.Name())
			continue
		}
		fmt.Fprintf(&sb, "%s (%d bytes)\n", entry.Name(), info.Size())
	}

	return Result{
		Success:    true,
		Output:     sb.String(),
		LinesCount: len(entries),
	}, nil
}
