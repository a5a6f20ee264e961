package util

import (
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates a directory tree if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// CleanupFiles removes files, ignoring errors.
func CleanupFiles(paths ...string) {
	for _, path := range paths {
		_ = os.Remove(path)
	}
}

// TrimExt returns path without its extension.
func TrimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
