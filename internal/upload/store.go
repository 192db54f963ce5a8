// Package upload implements the photo-storage collaborator: complaint photos
// are persisted as plain files under a configured directory and referenced
// from complaint documents by sanitized filename only.
package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrUnsafeName is returned when a requested filename escapes the store
// directory or sanitizes down to nothing.
var ErrUnsafeName = errors.New("upload: unsafe file name")

// unsafeRE strips everything outside a conservative filename alphabet.
var unsafeRE = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store saves and serves complaint photos from a single directory.
type Store struct {
	dir string
}

// New creates the storage directory if needed and returns a Store over it.
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload: directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Dir returns the storage directory path.
func (s *Store) Dir() string { return s.dir }

// Save writes src to disk as "<complaintID>_<sanitized original name>" and
// returns the stored filename for persistence on the complaint document.
func (s *Store) Save(complaintID, originalName string, src io.Reader) (string, error) {
	name := sanitize(originalName)
	if name == "" {
		return "", ErrUnsafeName
	}
	stored := fmt.Sprintf("%s_%s", complaintID, name)

	f, err := os.Create(filepath.Join(s.dir, stored))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return stored, nil
}

// Path resolves a stored filename back to its on-disk path, rejecting names
// that would traverse outside the storage directory.
func (s *Store) Path(filename string) (string, error) {
	clean := filepath.Base(filepath.Clean(filename))
	if clean == "" || clean == "." || clean == ".." || clean != filename {
		return "", ErrUnsafeName
	}
	return filepath.Join(s.dir, clean), nil
}

// sanitize reduces an arbitrary client filename to the safe alphabet, keeping
// the extension readable. Path separators never survive.
func sanitize(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = unsafeRE.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	return name
}
