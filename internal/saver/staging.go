package saver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// StagingSuffix marks in-flight output directories
const StagingSuffix = ".staging"

// Staging collects the outputs of one run in a hidden sibling directory of
// the final one. Commit publishes them together; Discard drops them.
type Staging struct {
	dir   string
	final string
}

// NewStaging creates the staging directory next to final.
// final itself is not created until Commit.
func NewStaging(final string) (*Staging, error) {
	final = filepath.Clean(final)
	parent := filepath.Dir(final)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create output parent: %w", err)
	}

	dir, err := os.MkdirTemp(parent, "."+filepath.Base(final)+".*"+StagingSuffix)
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Staging{dir: dir, final: final}, nil
}

// Path returns where name is written before Commit
func (s *Staging) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Final returns where name ends up after Commit
func (s *Staging) Final(name string) string {
	return filepath.Join(s.final, name)
}

// Commit moves every staged file into the final directory.
// A missing final directory is replaced in one rename. Into an existing
// directory files move one by one; if one fails, the files already moved
// are removed again, so the final directory gets all outputs or none.
func (s *Staging) Commit() error {
	_, err := os.Stat(s.final)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.Chmod(s.dir, 0o755); err != nil {
			return err
		}
		if err := os.Rename(s.dir, s.final); err != nil {
			return fmt.Errorf("publish %s: %w", s.final, err)
		}
		return nil
	}
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read staging dir: %w", err)
	}

	moved := make([]string, 0, len(entries))
	for _, e := range entries {
		dst := s.Final(e.Name())
		if err := os.Rename(s.Path(e.Name()), dst); err != nil {
			for _, m := range moved {
				_ = os.Remove(m)
			}
			return fmt.Errorf("publish %s: %w", e.Name(), err)
		}
		moved = append(moved, dst)
	}
	return os.Remove(s.dir)
}

// Discard removes the staging directory and everything in it.
// It is a no-op after a successful Commit.
func (s *Staging) Discard() error {
	return os.RemoveAll(s.dir)
}
