// Package saver writes pipeline outputs. Every file is written to a temp file
// in the target directory and renamed into place, so readers never see a
// partially written output.
package saver

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wonny/sentiforecast/internal/contracts"
)

// FeatureSaver writes the enriched feature table in one format
type FeatureSaver interface {
	SaveFeatures(rows []contracts.DailyFeatureRow, cols []string, path string) error
	Extension() string
}

// NewFeatureSaver returns the saver for format (csv, parquet)
func NewFeatureSaver(format string) (FeatureSaver, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv", "":
		return CSVSaver{}, nil
	case "parquet":
		return ParquetSaver{}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q (csv, parquet)", format)
	}
}

// SaveJSON writes v as indented JSON
func SaveJSON(v any, path string) error {
	return writeStream(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// writeFile runs fn against a temp path and renames it to path on success
func writeFile(path string, fn func(tmp string) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := fn(tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeStream is writeFile for writers that need an io.Writer
func writeStream(path string, fn func(w io.Writer) error) error {
	return writeFile(path, func(tmp string) error {
		f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return err
		}

		bw := bufio.NewWriter(f)
		if err := fn(bw); err != nil {
			_ = f.Close()
			return err
		}
		if err := bw.Flush(); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Sync(); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	})
}
