// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jeranaias/toolgate/internal/util"
)

// =============================================================================
// SEARCH EXECUTOR
// =============================================================================

// SearchExecutor searches file contents with a regular expression and
// returns matches in filepath:line:content format.
type SearchExecutor struct {
	// MaxResults limits the number of matches (default: 50).
	MaxResults int

	// MaxFileSize is the maximum file size to search (default: 5MB).
	MaxFileSize int64

	// IgnoreDirs are directory names skipped during the walk.
	IgnoreDirs []string
}

var defaultIgnoreDirs = []string{
	".git",
	"node_modules",
	"__pycache__",
	".venv",
	"venv",
	".idea",
	".vscode",
	"target",
	"dist",
	"build",
	".cache",
}

// Execute searches for a regex pattern under a directory.
func (e *SearchExecutor) Execute(ctx context.Context, env Environment, params map[string]interface{}) (Result, error) {
	maxResults := e.MaxResults
	if maxResults == 0 {
		maxResults = 50
	}
	maxFileSize := e.MaxFileSize
	if maxFileSize == 0 {
		maxFileSize = 5 * 1024 * 1024
	}
	ignoreDirs := e.IgnoreDirs
	if len(ignoreDirs) == 0 {
		ignoreDirs = defaultIgnoreDirs
	}

	p := decodeSearchFilesParams(params)
	if p.MaxResults > 0 && p.MaxResults < maxResults {
		maxResults = p.MaxResults
	}

	re, err := regexp.Compile(p.Pattern)
	if err != nil {
		return failure("invalid regex pattern: " + err.Error()), nil
	}

	basePath := env.ResolvePath(p.Path)
	info, err := os.Stat(basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return failure("path not found: " + basePath), nil
		}
		return failure("cannot access path: " + err.Error()), nil
	}

	var sb strings.Builder
	matchCount := 0
	truncated := false

	if !info.IsDir() {
		n, err := searchFile(ctx, basePath, re, maxResults, &sb)
		if err != nil {
			return failure(err.Error()), nil
		}
		matchCount = n
	} else {
		walkErr := filepath.WalkDir(basePath, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil // Skip unreadable entries
			}

			select {
			case <-ctx.Done():
				return context.Canceled
			default:
			}

			if d.IsDir() {
				for _, ignore := range ignoreDirs {
					if d.Name() == ignore {
						return filepath.SkipDir
					}
				}
				return nil
			}

			if isBinaryExtension(path) {
				return nil
			}

			if p.Glob != "" {
				relPath, relErr := filepath.Rel(basePath, path)
				if relErr != nil {
					relPath = filepath.Base(path)
				}
				matched, _ := filepath.Match(p.Glob, relPath)
				if !matched {
					matched, _ = filepath.Match(p.Glob, filepath.Base(path))
				}
				if !matched {
					return nil
				}
			}

			fi, err := d.Info()
			if err != nil || fi.Size() > maxFileSize {
				return nil
			}

			n, err := searchFile(ctx, path, re, maxResults-matchCount, &sb)
			if err != nil {
				return nil
			}
			matchCount += n
			if matchCount >= maxResults {
				truncated = true
				return filepath.SkipAll
			}
			return nil
		})
		if walkErr != nil && walkErr != context.Canceled && walkErr != filepath.SkipAll {
			return failure("error walking directory: " + walkErr.Error()), nil
		}
		if walkErr == context.Canceled {
			return failure("operation cancelled"), nil
		}
	}

	output := strings.TrimSuffix(sb.String(), "\n")
	if matchCount == 0 {
		output = fmt.Sprintf("No matches found for pattern: %s", p.Pattern)
	}
	if truncated {
		output += "\n\n[Results limited to " + util.IntToStr(maxResults) + " matches]"
	}

	return Result{
		Success:    true,
		Output:     output,
		MatchCount: matchCount,
		Truncated:  truncated,
	}, nil
}

// searchFile scans a single file and appends matches to sb in
// filepath:line:content format. Returns the number of matches written.
func searchFile(ctx context.Context, path string, re *regexp.Regexp, limit int, sb *strings.Builder) (int, error) {
	if limit <= 0 {
		return 0, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	count := 0
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum%1000 == 0 {
			select {
			case <-ctx.Done():
				return count, context.Canceled
			default:
			}
		}

		line := scanner.Text()
		if !re.MatchString(line) {
			continue
		}

		sb.WriteString(path)
		sb.WriteString(":")
		sb.WriteString(util.IntToStr(lineNum))
		sb.WriteString(":")
		sb.WriteString(util.TruncateRunes(line, 500))
		sb.WriteString("\n")

		count++
		if count >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return count, err
	}
	return count, nil
}

// isBinaryExtension reports whether a file is likely binary by extension.
func isBinaryExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".exe", ".dll", ".so", ".dylib",
		".bin", ".dat", ".db", ".sqlite",
		".png", ".jpg", ".jpeg", ".gif", ".ico", ".bmp", ".webp",
		".pdf", ".zip", ".tar", ".gz", ".rar", ".7z", ".bz2", ".xz",
		".mp3", ".mp4", ".avi", ".mov", ".wav", ".flac", ".ogg",
		".ttf", ".otf", ".woff", ".woff2",
		".pyc", ".class", ".o", ".a":
		return true
	}
	return false
}
