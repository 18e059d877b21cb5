// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "strconv"

// IntToStr converts an int to its decimal string representation.
// Thin wrapper kept so call sites stay terse.
func IntToStr(i int) string {
	return strconv.Itoa(i)
}

// Int64ToStr converts an int64 to its decimal string representation.
func Int64ToStr(i int64) string {
	return strconv.FormatInt(i, 10)
}

// TruncateRunes truncates a string to at most maxRunes runes, appending
// "..." when truncation occurred. Safe for multi-byte UTF-8: it never
// splits a rune in half.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
