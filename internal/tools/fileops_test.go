// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// =============================================================================
// COPY
// =============================================================================

func TestCopyExecute(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "src.txt", "payload")
	env := Environment{WorkingDirectory: dir}

	res, err := (&CopyExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"source":      "src.txt",
		"destination": "dst.txt",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Success {
		t.Fatalf("Execute() failed: %s", res.Error)
	}

	data, err := os.ReadFile(filepath.Join(dir, "dst.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Errorf("copied content = %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "src.txt")); err != nil {
		t.Error("source must remain after copy")
	}
}

func TestCopyExecuteCreatesDestinationDir(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "src.txt", "x")
	env := Environment{WorkingDirectory: dir}

	res, _ := (&CopyExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"source":      "src.txt",
		"destination": filepath.Join("sub", "dst.txt"),
	})
	if !res.Success {
		t.Fatalf("Execute() failed: %s", res.Error)
	}
	if _, err := os.Stat(filepath.Join(dir, "sub", "dst.txt")); err != nil {
		t.Errorf("destination not created: %v", err)
	}
}

func TestCopyExecutePreservesPermissions(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "run.sh", "#!/bin/sh\n")
	if err := os.Chmod(path, 0755); err != nil {
		t.Fatal(err)
	}
	env := Environment{WorkingDirectory: dir}

	res, _ := (&CopyExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"source":      "run.sh",
		"destination": "run2.sh",
	})
	if !res.Success {
		t.Fatalf("Execute() failed: %s", res.Error)
	}
	info, _ := os.Stat(filepath.Join(dir, "run2.sh"))
	if info.Mode().Perm() != 0755 {
		t.Errorf("permissions = %o, want 0755", info.Mode().Perm())
	}
}

func TestCopyExecuteFailures(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "src.txt", "x")
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0755); err != nil {
		t.Fatal(err)
	}
	env := Environment{WorkingDirectory: dir}

	tests := []struct {
		name    string
		params  map[string]interface{}
		errPart string
	}{
		{"missing source", map[string]interface{}{"source": "absent.txt", "destination": "d.txt"}, "source not found"},
		{"directory source", map[string]interface{}{"source": "subdir", "destination": "d.txt"}, "is a directory"},
		{"same file", map[string]interface{}{"source": "src.txt", "destination": "src.txt"}, "same file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := (&CopyExecutor{}).Execute(context.Background(), env, tt.params)
			if res.Success {
				t.Fatal("expected failure")
			}
			if !strings.Contains(res.Error, tt.errPart) {
				t.Errorf("Error = %q, want mention of %q", res.Error, tt.errPart)
			}
		})
	}
}

// =============================================================================
// MOVE
// =============================================================================

func TestMoveExecute(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "src.txt", "payload")
	env := Environment{WorkingDirectory: dir}

	res, err := (&MoveExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"source":      "src.txt",
		"destination": "dst.txt",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Success {
		t.Fatalf("Execute() failed: %s", res.Error)
	}

	if _, err := os.Stat(filepath.Join(dir, "src.txt")); !os.IsNotExist(err) {
		t.Error("source must be gone after move")
	}
	data, err := os.ReadFile(filepath.Join(dir, "dst.txt"))
	if err != nil || string(data) != "payload" {
		t.Errorf("destination content = %q, err = %v", data, err)
	}
}

func TestMoveExecuteDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "olddir"), 0755); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, filepath.Join(dir, "olddir"), "inner.txt", "x")
	env := Environment{WorkingDirectory: dir}

	res, _ := (&MoveExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"source":      "olddir",
		"destination": "newdir",
	})
	if !res.Success {
		t.Fatalf("Execute() failed: %s", res.Error)
	}
	if _, err := os.Stat(filepath.Join(dir, "newdir", "inner.txt")); err != nil {
		t.Errorf("moved directory missing content: %v", err)
	}
}

func TestMoveExecuteFailures(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "src.txt", "x")
	env := Environment{WorkingDirectory: dir}

	res, _ := (&MoveExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"source":      "absent.txt",
		"destination": "d.txt",
	})
	if res.Success || !strings.Contains(res.Error, "source not found") {
		t.Errorf("got success=%v error=%q", res.Success, res.Error)
	}

	res, _ = (&MoveExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"source":      "src.txt",
		"destination": "src.txt",
	})
	if res.Success || !strings.Contains(res.Error, "same path") {
		t.Errorf("got success=%v error=%q", res.Success, res.Error)
	}
}

// =============================================================================
// DELETE
// =============================================================================

func TestDeleteExecuteFile(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "old.txt", "x")
	env := Environment{WorkingDirectory: dir}

	res, err := (&DeleteExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"path": "old.txt",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Success {
		t.Fatalf("Execute() failed: %s", res.Error)
	}
	if _, err := os.Stat(filepath.Join(dir, "old.txt")); !os.IsNotExist(err) {
		t.Error("file still exists")
	}
}

func TestDeleteExecuteEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	env := Environment{WorkingDirectory: dir}

	res, _ := (&DeleteExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"path": "empty",
	})
	if !res.Success {
		t.Fatalf("Execute() failed: %s", res.Error)
	}
}

func TestDeleteExecuteNonEmptyDirectoryNeedsRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "full")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, sub, "inner.txt", "x")
	env := Environment{WorkingDirectory: dir}

	res, _ := (&DeleteExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"path": "full",
	})
	if res.Success {
		t.Fatal("expected refusal for non-empty directory")
	}
	if !strings.Contains(res.Error, "recursive=true") {
		t.Errorf("Error = %q", res.Error)
	}

	res, _ = (&DeleteExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"path":      "full",
		"recursive": true,
	})
	if !res.Success {
		t.Fatalf("recursive delete failed: %s", res.Error)
	}
	if _, err := os.Stat(sub); !os.IsNotExist(err) {
		t.Error("directory still exists")
	}
}

func TestDeleteExecuteMissingPath(t *testing.T) {
	env := Environment{WorkingDirectory: t.TempDir()}

	res, _ := (&DeleteExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"path": "absent",
	})
	if res.Success || !strings.Contains(res.Error, "path not found") {
		t.Errorf("got success=%v error=%q", res.Success, res.Error)
	}
}

// =============================================================================
// MKDIR
// =============================================================================

func TestMkdirExecute(t *testing.T) {
	dir := t.TempDir()
	env := Environment{WorkingDirectory: dir}

	res, err := (&MkdirExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"path": filepath.Join("a", "b", "c"),
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Success {
		t.Fatalf("Execute() failed: %s", res.Error)
	}
	info, err := os.Stat(filepath.Join(dir, "a", "b", "c"))
	if err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
}

func TestMkdirExecuteExistingDirectoryIsFine(t *testing.T) {
	dir := t.TempDir()
	env := Environment{WorkingDirectory: dir}

	params := map[string]interface{}{"path": "d"}
	if res, _ := (&MkdirExecutor{}).Execute(context.Background(), env, params); !res.Success {
		t.Fatalf("first mkdir failed: %s", res.Error)
	}
	if res, _ := (&MkdirExecutor{}).Execute(context.Background(), env, params); !res.Success {
		t.Fatalf("second mkdir failed: %s", res.Error)
	}
}

func TestMkdirExecuteRefusesExistingFile(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "taken", "x")
	env := Environment{WorkingDirectory: dir}

	res, _ := (&MkdirExecutor{}).Execute(context.Background(), env, map[string]interface{}{
		"path": "taken",
	})
	if res.Success {
		t.Fatal("expected refusal when path exists as a file")
	}
	if !strings.Contains(res.Error, "not a directory") {
		t.Errorf("Error = %q", res.Error)
	}
}
