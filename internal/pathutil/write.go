package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrInvalidOutputPath marks an output path rejected by ValidateOutputPath.
var ErrInvalidOutputPath = errors.New("invalid output path")

// WriteOutput writes content to path with owner-only permissions. A relative
// path resolves against root. The path must pass ValidateOutputPath against
// DefaultAllowedOutputDirs(root) and the given extensions. It returns the
// absolute path written.
func WriteOutput(path, root string, content []byte, extensions ...string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: path is empty", ErrInvalidOutputPath)
	}
	if !filepath.IsAbs(path) && root != "" {
		path = filepath.Join(root, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}

	if err := ValidateOutputPath(abs, DefaultAllowedOutputDirs(root), extensions...); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidOutputPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0700); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(abs, content, 0600); err != nil {
		return "", fmt.Errorf("write %s: %w", RedactPath(abs), err)
	}
	return abs, nil
}
