// Package security guards the paths the CLI writes exports and reports to.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when an output path resolves outside every
// allowed directory.
var ErrPathEscape = errors.New("output path escapes allowed directories")

// canonicalPath makes p absolute and resolves symlinks. When p does not
// exist yet, its nearest existing ancestor is resolved instead so a link
// planted in a parent directory cannot redirect a new file.
func canonicalPath(p string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rel, _ := filepath.Rel(dir, abs)
			return filepath.Join(resolved, rel), nil
		}
		if dir == filepath.Dir(dir) {
			return abs, nil
		}
	}
}

// WithinDirectory reports an error unless path resolves inside dir.
func WithinDirectory(path, dir string) error {
	target, err := canonicalPath(path)
	if err != nil {
		return err
	}
	base, err := canonicalPath(dir)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s is outside %s", ErrPathEscape, path, dir)
	}
	return nil
}

// ValidateOutputPath checks that path lies inside one of allowedDirs. With
// no directories given, the working directory and the system temp
// directory are allowed.
func ValidateOutputPath(path string, allowedDirs ...string) error {
	if len(allowedDirs) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		allowedDirs = []string{cwd, os.TempDir()}
	}
	for _, dir := range allowedDirs {
		if WithinDirectory(path, dir) == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %s not within %v", ErrPathEscape, path, allowedDirs)
}

// SanitizeFilename turns an arbitrary identifier, such as a SEED trace id,
// into a safe file name stem. Runs of characters other than ASCII letters,
// digits, dot, underscore and dash collapse to a single underscore.
func SanitizeFilename(s string) string {
	const maxLen = 128

	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
