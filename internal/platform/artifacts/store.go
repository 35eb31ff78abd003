// Package artifacts stores generated lab files (CSV exports, published
// observation receipts, BYOD conversions) in a directory on local disk and
// serves them back by file name. Records describing the artifacts live in
// the lab domain; this package only owns the bytes.
package artifacts

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrArtifactNotFound = errors.New("artifact file not found")
	ErrEmptyFileName    = errors.New("file name is required")
)

// unsafeChars strips anything that could escape the artifact directory or
// confuse a Content-Disposition header.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._\-]`)

// Store writes and reads artifact files beneath a single directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. An empty dir selects a fresh
// temporary directory, matching the demo deployment mode.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "bootcamp-artifacts-")
		if err != nil {
			return nil, fmt.Errorf("creating artifact dir: %w", err)
		}
		dir = tmp
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating artifact dir: %w", err)
		}
	}
	return &Store{dir: dir}, nil
}

// Dir returns the artifact directory path.
func (s *Store) Dir() string { return s.dir }

// SanitizeFileName normalizes a caller-supplied display name into a safe
// file name component.
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = unsafeChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		return ""
	}
	return name
}

// Write persists data under a unique, sanitized file name derived from the
// requested name and returns the stored file name.
func (s *Store) Write(fileName string, data []byte) (string, error) {
	safe := SanitizeFileName(fileName)
	if safe == "" {
		return "", ErrEmptyFileName
	}

	// A short unique prefix prevents collisions between sessions exporting
	// the same display name.
	stored := uuid.New().String()[:8] + "_" + safe
	if err := os.WriteFile(filepath.Join(s.dir, stored), data, 0o644); err != nil {
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	return stored, nil
}

// Open returns a reader over a stored artifact.
func (s *Store) Open(storedName string) (io.ReadCloser, error) {
	safe := SanitizeFileName(storedName)
	if safe == "" {
		return nil, ErrEmptyFileName
	}
	f, err := os.Open(filepath.Join(s.dir, safe))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("opening artifact: %w", err)
	}
	return f, nil
}

// Remove deletes a stored artifact file. Missing files are not an error so
// reset operations stay idempotent.
func (s *Store) Remove(storedName string) error {
	safe := SanitizeFileName(storedName)
	if safe == "" {
		return ErrEmptyFileName
	}
	err := os.Remove(filepath.Join(s.dir, safe))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing artifact: %w", err)
	}
	return nil
}
