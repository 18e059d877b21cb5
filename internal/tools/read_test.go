// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadExecute(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "file.txt", "alpha\nbeta\ngamma\n")
	env := Environment{WorkingDirectory: dir}

	res, err := (&ReadExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"file_path": "file.txt",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Success {
		t.Fatalf("Execute() failed: %s", res.Error)
	}
	want := "     1\talpha\n     2\tbeta\n     3\tgamma\n"
	if res.Output != want {
		t.Errorf("Output = %q, want %q", res.Output, want)
	}
	if res.LinesCount != 3 {
		t.Errorf("LinesCount = %d, want 3", res.LinesCount)
	}
}

func TestReadExecuteOffsetAndLimit(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "file.txt", "one\ntwo\nthree\nfour\nfive\n")
	env := Environment{WorkingDirectory: dir}

	res, _ := (&ReadExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"file_path": "file.txt",
		"offset":    2,
		"limit":     2,
	})
	if !res.Success {
		t.Fatalf("Execute() failed: %s", res.Error)
	}
	want := "     2\ttwo\n     3\tthree\n"
	if res.Output != want {
		t.Errorf("Output = %q, want %q", res.Output, want)
	}
	if !res.Truncated {
		t.Error("expected Truncated when more lines remain")
	}
}

func TestReadExecuteMissingFile(t *testing.T) {
	env := Environment{WorkingDirectory: t.TempDir()}

	res, _ := (&ReadExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"file_path": "absent.txt",
	})
	if res.Success {
		t.Fatal("expected failure for missing file")
	}
	if !strings.Contains(res.Error, "cannot read") {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestReadExecuteDirectory(t *testing.T) {
	dir := t.TempDir()
	env := Environment{WorkingDirectory: dir}

	res, _ := (&ReadExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"file_path": ".",
	})
	if res.Success {
		t.Fatal("expected failure for directory")
	}
	if !strings.Contains(res.Error, "is a directory") {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestReadExecuteTooLarge(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "big.txt", strings.Repeat("x", 100))
	env := Environment{WorkingDirectory: dir}

	res, _ := (&ReadExecutor{MaxFileSize: 10}).Execute(context.Background(), env, map[string]interface{}{
		"file_path": "big.txt",
	})
	if res.Success {
		t.Fatal("expected failure for oversized file")
	}
	if !strings.Contains(res.Error, "too large") {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestReadExecuteLongLineTruncation(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "long.txt", strings.Repeat("z", 50)+"\n")
	env := Environment{WorkingDirectory: dir}

	res, _ := (&ReadExecutor{MaxLineLength: 10}).Execute(context.Background(), env, map[string]interface{}{
		"file_path": "long.txt",
	})
	if !res.Success {
		t.Fatalf("Execute() failed: %s", res.Error)
	}
	// Truncation counts the ellipsis toward the limit: 7 runes + "...".
	if !strings.Contains(res.Output, strings.Repeat("z", 7)+"...") {
		t.Errorf("Output = %q, want truncated line", res.Output)
	}
	if strings.Contains(res.Output, strings.Repeat("z", 8)) {
		t.Errorf("Output = %q, line not truncated at limit", res.Output)
	}
}

func TestReadExecuteTruncationKeepsRunesIntact(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "uni.txt", strings.Repeat("é", 50)+"\n")
	env := Environment{WorkingDirectory: dir}

	res, _ := (&ReadExecutor{MaxLineLength: 10}).Execute(context.Background(), env, map[string]interface{}{
		"file_path": "uni.txt",
	})
	if !res.Success {
		t.Fatalf("Execute() failed: %s", res.Error)
	}
	if !strings.Contains(res.Output, strings.Repeat("é", 7)+"...") {
		t.Errorf("Output = %q, want truncated line", res.Output)
	}
	if !utf8.ValidString(res.Output) {
		t.Errorf("Output = %q, truncation split a rune", res.Output)
	}
}

func TestReadExecuteDoesNotMutateDefaults(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.txt", "alpha\n")
	env := Environment{WorkingDirectory: dir}

	e := &ReadExecutor{}
	res, _ := e.Execute(context.Background(), env, map[string]interface{}{
		"file_path": "a.txt",
	})
	if !res.Success {
		t.Fatalf("Execute() failed: %s", res.Error)
	}
	// The zero values double as "use defaults"; Execute writing them back
	// would race on the shared built-in instance.
	if e.MaxFileSize != 0 || e.MaxLineLength != 0 {
		t.Errorf("Execute mutated receiver: MaxFileSize=%d MaxLineLength=%d", e.MaxFileSize, e.MaxLineLength)
	}
}
