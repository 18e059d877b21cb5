// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	clearEnvOverrides(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`allow_dangerous = true`+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) { reloaded <- cfg }, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	// Give the watcher a moment to register before the change lands.
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`allow_dangerous = false`+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.AllowDangerous {
			t.Error("reloaded config still has old value")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after config change")
	}
}

func TestWatcherReportsReloadErrors(t *testing.T) {
	clearEnvOverrides(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`allow_dangerous = true`+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	errs := make(chan error, 4)
	w, err := NewWatcher(path,
		func(cfg *Config) {},
		func(err error) { errs <- err },
	)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(path, []byte("version = [broken"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-errs:
	case <-time.After(5 * time.Second):
		t.Fatal("no error reported for malformed config")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	clearEnvOverrides(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`allow_dangerous = true`+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) { reloaded <- cfg }, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
		t.Error("unrelated file change must not trigger a reload")
	case <-time.After(1 * time.Second):
	}
}
