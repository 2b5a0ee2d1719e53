// Package pathutil validates file paths that tools and commands write rendered
// charts to.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RedactPath reduces a full path to .../<parent>/<basename> for error messages.
// For example, "/home/user/charts/view.svg" becomes ".../charts/view.svg".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	base := filepath.Base(cleaned)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// ValidatePath checks that path lies within one of allowedDirs after cleaning
// it and resolving symlinks on its existing ancestors. The file itself need
// not exist.
func ValidatePath(path string, allowedDirs []string) error {
	if path == "" {
		return fmt.Errorf("path validation failed: path is empty")
	}
	if len(allowedDirs) == 0 {
		return fmt.Errorf("path validation failed: no allowed directories configured")
	}
	if strings.ContainsRune(path, '\x00') {
		return fmt.Errorf("path validation failed: path contains null byte")
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("path validation failed: cannot resolve absolute path: %w", err)
	}

	resolvedDir, err := resolveExistingParent(filepath.Dir(absPath))
	if err != nil {
		return fmt.Errorf("path validation failed: cannot resolve parent directory: %w", err)
	}
	resolvedPath := filepath.Join(resolvedDir, filepath.Base(absPath))

	for _, allowed := range allowedDirs {
		allowedAbs, err := filepath.Abs(filepath.Clean(allowed))
		if err != nil {
			continue
		}
		allowedResolved, err := resolveExistingParent(allowedAbs)
		if err != nil {
			continue
		}
		if isSubpath(resolvedPath, allowedResolved) {
			return nil
		}
	}

	return fmt.Errorf("path validation failed: %q is outside allowed directories", RedactPath(absPath))
}

// ValidateOutputPath checks a chart output path. The target must lie under one
// of allowedDirs, must not be a directory, and must carry one of the given
// extensions (compared case-insensitively, with the leading dot) when any are given.
func ValidateOutputPath(path string, allowedDirs []string, extensions ...string) error {
	if err := ValidatePath(path, allowedDirs); err != nil {
		return err
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("path validation failed: %q is a directory", RedactPath(path))
	}

	if len(extensions) == 0 {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range extensions {
		if ext == strings.ToLower(want) {
			return nil
		}
	}
	return fmt.Errorf("path validation failed: %q must end in one of %s", RedactPath(path), strings.Join(extensions, ", "))
}

// resolveExistingParent resolves symlinks on the deepest existing ancestor of
// dir and re-appends the non-existent tail.
func resolveExistingParent(dir string) (string, error) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err == nil {
		return resolved, nil
	}

	parent := filepath.Dir(dir)
	if parent == dir {
		return "", fmt.Errorf("cannot resolve path: %s", RedactPath(dir))
	}

	resolvedParent, err := resolveExistingParent(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(dir)), nil
}

// isSubpath reports whether path is base or lies below it.
func isSubpath(path, base string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+string(os.PathSeparator))
}

// DefaultAllowedOutputDirs returns the directories chart files may be written
// to: the project root and the system temp directory.
func DefaultAllowedOutputDirs(projectRoot string) []string {
	dirs := []string{os.TempDir()}
	if projectRoot != "" {
		dirs = append([]string{projectRoot}, dirs...)
	}
	return dirs
}
