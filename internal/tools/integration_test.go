// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// End-to-end pipeline tests with real tool implementations and a real
// snapshot store, exercising the full validate/safety/confirm/snapshot/
// execute flow the way an embedding agent would drive it.
package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/toolgate/internal/approve"
	"github.com/jeranaias/toolgate/internal/snapshot"
)

func newGateway(t *testing.T) (*Executor, *snapshot.FileStore, string) {
	t.Helper()
	work := t.TempDir()

	store, err := snapshot.OpenFileStore(filepath.Join(t.TempDir(), "snaps"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	env := Environment{
		WorkingDirectory: work,
		SandboxRoots:     []string{work},
		AllowDangerous:   true,
	}
	e := NewExecutor(env,
		WithSnapshotStore(store),
		WithApprover(approve.Func(func(ctx context.Context, p approve.Prompt) (bool, error) {
			return true, nil
		})),
	)
	return e, store, work
}

func TestGatewayWriteEditReadRoundTrip(t *testing.T) {
	e, _, work := newGateway(t)
	ctx := context.Background()

	res := e.Execute(ctx, Request{
		Tool: ToolWriteFile,
		Parameters: map[string]interface{}{
			"file_path": "hello.go",
			"content":   "package main\n\nfunc main() {}\n",
		},
	})
	require.True(t, res.Success, res.Error)
	require.NotEmpty(t, res.SnapshotID)

	res = e.Execute(ctx, Request{
		Tool: ToolEditFile,
		Parameters: map[string]interface{}{
			"file_path":  "hello.go",
			"old_string": "func main() {}",
			"new_string": "func main() { println(1) }",
		},
	})
	require.True(t, res.Success, res.Error)

	res = e.Execute(ctx, Request{
		Tool:       ToolReadFile,
		Parameters: map[string]interface{}{"file_path": "hello.go"},
	})
	require.True(t, res.Success, res.Error)
	require.Contains(t, res.Output, "println(1)")

	data, err := os.ReadFile(filepath.Join(work, "hello.go"))
	require.NoError(t, err)
	require.Contains(t, string(data), "println(1)")
}

func TestGatewayUndoThroughSnapshot(t *testing.T) {
	e, store, work := newGateway(t)
	ctx := context.Background()

	path := filepath.Join(work, "state.txt")
	require.NoError(t, os.WriteFile(path, []byte("before"), 0644))

	res := e.Execute(ctx, Request{
		Tool: ToolWriteFile,
		Parameters: map[string]interface{}{
			"file_path": "state.txt",
			"content":   "after",
		},
	})
	require.True(t, res.Success, res.Error)
	require.NotEmpty(t, res.SnapshotID)

	require.NoError(t, store.Restore(ctx, res.SnapshotID))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "before", string(data))
}

func TestGatewayUndoRecursiveDelete(t *testing.T) {
	e, store, work := newGateway(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Join(work, "project"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(work, "project", "keep.txt"), []byte("keep me"), 0644))

	res := e.Execute(ctx, Request{
		Tool: ToolDeleteFile,
		Parameters: map[string]interface{}{
			"path":      "project",
			"recursive": true,
		},
	})
	require.True(t, res.Success, res.Error)
	require.NotEmpty(t, res.SnapshotID)
	require.NoDirExists(t, filepath.Join(work, "project"))

	require.NoError(t, store.Restore(ctx, res.SnapshotID))

	data, err := os.ReadFile(filepath.Join(work, "project", "keep.txt"))
	require.NoError(t, err)
	require.Equal(t, "keep me", string(data))
}

func TestGatewayUndoDirectoryMove(t *testing.T) {
	e, store, work := newGateway(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Join(work, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(work, "src", "file.txt"), []byte("contents"), 0644))

	res := e.Execute(ctx, Request{
		Tool: ToolMoveFile,
		Parameters: map[string]interface{}{
			"source":      "src",
			"destination": "dst",
		},
	})
	require.True(t, res.Success, res.Error)
	require.NotEmpty(t, res.SnapshotID)

	require.NoError(t, store.Restore(ctx, res.SnapshotID))

	data, err := os.ReadFile(filepath.Join(work, "src", "file.txt"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(data))
	require.NoDirExists(t, filepath.Join(work, "dst"))
}

func TestGatewaySandboxBlocksEscape(t *testing.T) {
	e, _, _ := newGateway(t)

	res := e.Execute(context.Background(), Request{
		Tool: ToolWriteFile,
		Parameters: map[string]interface{}{
			"file_path": "/tmp/outside-the-walls.txt",
			"content":   "nope",
		},
	})
	require.False(t, res.Success)
	require.Contains(t, res.Error, "outside the sandbox")
	require.NoFileExists(t, "/tmp/outside-the-walls.txt")
}

func TestGatewayDenylistBlocksShellCommand(t *testing.T) {
	e, _, _ := newGateway(t)

	res := e.Execute(context.Background(), Request{
		Tool:       ToolBash,
		Parameters: map[string]interface{}{"command": "sudo rm -rf /"},
	})
	require.False(t, res.Success)
	require.Contains(t, res.Error, "blocked operation")
}

func TestGatewayBashRunsInWorkdir(t *testing.T) {
	e, _, work := newGateway(t)
	require.NoError(t, os.WriteFile(filepath.Join(work, "marker.txt"), []byte("x"), 0644))

	res := e.Execute(context.Background(), Request{
		Tool:       ToolBash,
		Parameters: map[string]interface{}{"command": "ls"},
	})
	require.True(t, res.Success, res.Error)
	require.Contains(t, res.Output, "marker.txt")
}

func TestGatewayDeleteConfirmedAndLedgered(t *testing.T) {
	e, _, work := newGateway(t)
	ctx := context.Background()
	require.NoError(t, os.WriteFile(filepath.Join(work, "old.log"), []byte("x"), 0644))

	res := e.Execute(ctx, Request{
		Tool:       ToolDeleteFile,
		Parameters: map[string]interface{}{"path": "old.log"},
	})
	require.True(t, res.Success, res.Error)
	require.NoFileExists(t, filepath.Join(work, "old.log"))

	stats := e.UsageStats()
	require.Equal(t, 1, stats.TotalCalls)
	require.Equal(t, 1, stats.ToolUsage[ToolDeleteFile])
	require.Equal(t, 1.0, stats.SuccessRate)
}
