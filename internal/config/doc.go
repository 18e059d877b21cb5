// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config manages toolgate configuration.
//
// Configuration is loaded from ~/.toolgate/config.toml with environment
// variable overrides applied on top. A file watcher supports live reload
// so sandbox roots and denylist additions take effect without restarting
// the host process.
package config
