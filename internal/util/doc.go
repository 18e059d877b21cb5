// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for toolgate.
//
// The package intentionally stays dependency-free and contains only
// helpers used by more than one internal package:
//
//   - AtomicWriteFile: crash-safe file writes (temp file + fsync + rename)
//   - IntToStr: allocation-light integer formatting
//   - TruncateRunes: UTF-8 safe string truncation for display
package util
