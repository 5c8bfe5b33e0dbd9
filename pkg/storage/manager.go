package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteAtomic streams write's output into a temporary file next to path and
// renames it into place, so readers never observe a half-written file
func WriteAtomic(path string, perm os.FileMode, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempName := tmp.Name()

	err = write(tmp)
	closeErr := tmp.Close()

	if err != nil {
		os.Remove(tempName)
		return fmt.Errorf("failed to write data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempName)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Chmod(tempName, perm); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// WriteFileAtomic writes data to path atomically
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return WriteAtomic(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// SiblingPath swaps path's extension for suffix:
// SiblingPath("out/followers.xlsx", ".summary.json") is "out/followers.summary.json"
func SiblingPath(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}

// Exists reports whether path exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
