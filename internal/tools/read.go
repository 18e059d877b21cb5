// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jeranaias/toolgate/internal/util"
)

// =============================================================================
// READ EXECUTOR
// =============================================================================

// ReadExecutor reads file contents with line numbers.
type ReadExecutor struct {
	// MaxFileSize is the largest file that will be read (default: 10MB)
	MaxFileSize int64

	// MaxLineLength truncates pathological single lines (default: 2000)
	MaxLineLength int
}

// Execute reads a file and returns its contents, cat -n style.
func (e *ReadExecutor) Execute(ctx context.Context, env Environment, params map[string]interface{}) (Result, error) {
	// Locals, not receiver fields: built-in executors are shared across
	// concurrent Execute calls.
	maxFileSize := e.MaxFileSize
	if maxFileSize == 0 {
		maxFileSize = 10 * 1024 * 1024
	}
	maxLineLength := e.MaxLineLength
	if maxLineLength == 0 {
		maxLineLength = 2000
	}

	p := decodeReadFileParams(params)
	path := env.ResolvePath(p.FilePath)

	info, err := os.Stat(path)
	if err != nil {
		return failure(fmt.Sprintf("cannot read %s: %v", path, err)), nil
	}
	if info.IsDir() {
		return failure(fmt.Sprintf("%s is a directory, not a file", path)), nil
	}
	if info.Size() > maxFileSize {
		return failure(fmt.Sprintf("%s is too large (%d bytes, limit %d)", path, info.Size(), maxFileSize)), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return failure(fmt.Sprintf("cannot open %s: %v", path, err)), nil
	}
	defer f.Close()

	offset := p.Offset
	if offset < 1 {
		offset = 1
	}
	limit := p.Limit
	if limit < 1 {
		limit = 2000
	}

	var sb strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	emitted := 0
	truncated := false
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return failure("read cancelled: " + err.Error()), nil
		}
		lineNum++
		if lineNum < offset {
			continue
		}
		if emitted >= limit {
			truncated = true
			break
		}
		line := scanner.Text()
		if utf8.RuneCountInString(line) > maxLineLength {
			line = util.TruncateRunes(line, maxLineLength)
		}
		fmt.Fprintf(&sb, "%6d\t%s\n", lineNum, line)
		emitted++
	}
	if err := scanner.Err(); err != nil {
		return failure(fmt.Sprintf("error reading %s: %v", path, err)), nil
	}

	return Result{
		Success:    true,
		Output:     sb.String(),
		LinesCount: emitted,
		Truncated:  truncated,
	}, nil
}
