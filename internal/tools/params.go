// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// params.go declares the strongly-typed parameter structs each tool
// implementation works with, decoded from the validated parameter map.
// Decoding happens after schema validation, so type assertions here only
// ever see values of the declared types (or absent optionals).
package tools

// ReadFileParams are the parameters for read_file.
type ReadFileParams struct {
	FilePath string
	Offset   int
	Limit    int
}

func decodeReadFileParams(params map[string]interface{}) ReadFileParams {
	return ReadFileParams{
		FilePath: getString(params, "file_path", ""),
		Offset:   getInt(params, "offset", 1),
		Limit:    getInt(params, "limit", 2000),
	}
}

// WriteFileParams are the parameters for write_file.
type WriteFileParams struct {
	FilePath string
	Content  string
}

func decodeWriteFileParams(params map[string]interface{}) WriteFileParams {
	return WriteFileParams{
		FilePath: getString(params, "file_path", ""),
		Content:  getString(params, "content", ""),
	}
}

// EditFileParams are the parameters for edit_file.
type EditFileParams struct {
	FilePath   string
	OldString  string
	NewString  string
	ReplaceAll bool
}

func decodeEditFileParams(params map[string]interface{}) EditFileParams {
	return EditFileParams{
		FilePath:   getString(params, "file_path", ""),
		OldString:  getString(params, "old_string", ""),
		NewString:  getString(params, "new_string", ""),
		ReplaceAll: getBool(params, "replace_all", false),
	}
}

// ListDirectoryParams are the parameters for list_directory.
type ListDirectoryParams struct {
	Path string
}

func decodeListDirectoryParams(params map[string]interface{}) ListDirectoryParams {
	return ListDirectoryParams{Path: getString(params, "path", "")}
}

// SearchFilesParams are the parameters for search_files.
type SearchFilesParams struct {
	Pattern    string
	Path       string
	Glob       string
	MaxResults int
}

func decodeSearchFilesParams(params map[string]interface{}) SearchFilesParams {
	return SearchFilesParams{
		Pattern:    getString(params, "pattern", ""),
		Path:       getString(params, "path", ""),
		Glob:       getString(params, "glob", ""),
		MaxResults: getInt(params, "max_results", 50),
	}
}

// BashParams are the parameters for bash.
type BashParams struct {
	Command string
	// TimeoutSeconds is the per-call timeout override; 0 means use the
	// environment default.
	TimeoutSeconds int
}

func decodeBashParams(params map[string]interface{}) BashParams {
	return BashParams{
		Command:        getString(params, "command", ""),
		TimeoutSeconds: getInt(params, "timeout", 0),
	}
}

// CopyFileParams are the parameters for copy_file.
type CopyFileParams struct {
	Source      string
	Destination string
}

func decodeCopyFileParams(params map[string]interface{}) CopyFileParams {
	return CopyFileParams{
		Source:      getString(params, "source", ""),
		Destination: getString(params, "destination", ""),
	}
}

// MoveFileParams are the parameters for move_file.
type MoveFileParams struct {
	Source      string
	Destination string
}

func decodeMoveFileParams(params map[string]interface{}) MoveFileParams {
	return MoveFileParams{
		Source:      getString(params, "source", ""),
		Destination: getString(params, "destination", ""),
	}
}

// DeleteFileParams are the parameters for delete_file.
type DeleteFileParams struct {
	Path      string
	Recursive bool
}

func decodeDeleteFileParams(params map[string]interface{}) DeleteFileParams {
	return DeleteFileParams{
		Path:      getString(params, "path", ""),
		Recursive: getBool(params, "recursive", false),
	}
}

// CreateDirectoryParams are the parameters for create_directory.
type CreateDirectoryParams struct {
	Path string
}

func decodeCreateDirectoryParams(params map[string]interface{}) CreateDirectoryParams {
	return CreateDirectoryParams{Path: getString(params, "path", "")}
}
