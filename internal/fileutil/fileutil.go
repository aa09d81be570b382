// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyPath is returned when a write target is blank.
var ErrEmptyPath = errors.New("path cannot be empty")

// Permissions for files and directories created by the CLI.
const (
	DirPerm  = 0o750
	FilePerm = 0o644
)

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never observe a partial snapshot. Missing
// parent directories are created.
func WriteFileAtomic(path string, data []byte) error {
	if strings.TrimSpace(path) == "" {
		return ErrEmptyPath
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, FilePerm); err != nil {
		cleanup()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ReadInput reads path, or r when path is empty or "-". limit bounds the
// number of bytes read; larger inputs are truncated at limit+1 so callers
// can detect them.
func ReadInput(path string, r io.Reader, limit int64) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(io.LimitReader(r, limit+1))
	}
	f, err := os.Open(path) // #nosec G304 -- path is user-provided
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(io.LimitReader(f, limit+1))
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "xmd" -> false (name)
//   - "./xmd.yaml" -> true (relative path)
//   - "/etc/xmd/feed.yml" -> true (absolute)
//   - "C:\xmd\feed.yaml" -> true (Windows)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// IsURL returns true if the string looks like an http or https URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
