// Package sanitize enforces the ignore and size policies on a materialized clone.
package sanitize

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
	"github.com/INF-UCT/code-lens/internal/ignore"
	"github.com/INF-UCT/code-lens/internal/logfields"
)

const bytesPerMB = 1024 * 1024

// Options configures a Sanitizer.
type Options struct {
	// GlobalIgnoreFile is required; a missing file is a configuration error.
	GlobalIgnoreFile string
	// LocalIgnoreFile is looked up relative to the clone root and is optional.
	LocalIgnoreFile string
	// MaxFileSizeMB is the per-file ceiling in whole mebibytes.
	MaxFileSizeMB int64
}

// Report summarizes one sanitization run.
type Report struct {
	Patterns int
	// Removed lists clone-relative paths in removal order.
	Removed  []string
	Files    int
	Duration time.Duration
}

// Sanitizer removes ignored entries from a clone and enforces the file size ceiling.
type Sanitizer struct {
	opts Options
}

// New creates a Sanitizer.
func New(opts Options) *Sanitizer {
	if opts.MaxFileSizeMB <= 0 {
		opts.MaxFileSizeMB = 50
	}
	return &Sanitizer{opts: opts}
}

// Sanitize runs the ignore and size policies against clonePath. On failure
// the clone is left in whatever partially-sanitized state it reached.
func (s *Sanitizer) Sanitize(ctx context.Context, clonePath string) (*Report, error) {
	start := time.Now()
	slog.Info("Starting repository sanitization", logfields.Path(clonePath))

	matcher, err := s.load(clonePath)
	if err != nil {
		return nil, err
	}

	removed, err := s.removeIgnored(ctx, clonePath, matcher)
	if err != nil {
		return nil, err
	}

	files, err := s.checkSizes(ctx, clonePath)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Patterns: matcher.Len(),
		Removed:  removed,
		Files:    files,
		Duration: time.Since(start),
	}
	slog.Info("Repository sanitization completed",
		logfields.Path(clonePath),
		slog.Int("removed", len(removed)),
		slog.Int("files", files),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return report, nil
}

// Preview returns the clone-relative paths the ignore policy would remove,
// in discovery order, without touching the directory.
func (s *Sanitizer) Preview(ctx context.Context, clonePath string) ([]string, error) {
	matcher, err := s.load(clonePath)
	if err != nil {
		return nil, err
	}
	return collectIgnored(ctx, clonePath, matcher)
}

func (s *Sanitizer) load(clonePath string) (*ignore.Matcher, error) {
	info, err := os.Stat(clonePath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategorySanitization, "repository path does not exist").
			WithContext("path", clonePath).
			Build()
	}
	if !info.IsDir() {
		return nil, errors.SanitizationError("repository path is not a directory").
			WithContext("path", clonePath).
			Build()
	}
	return ignore.Load(s.opts.GlobalIgnoreFile, clonePath, s.opts.LocalIgnoreFile)
}

// removeIgnored collects matches during the walk and deletes them afterwards
// in reverse discovery order, so children go before their parents.
func (s *Sanitizer) removeIgnored(ctx context.Context, root string, m *ignore.Matcher) ([]string, error) {
	candidates, err := collectIgnored(ctx, root, m)
	if err != nil {
		return nil, err
	}

	removed := make([]string, 0, len(candidates))
	for i := len(candidates) - 1; i >= 0; i-- {
		rel := candidates[i]
		if err := removePath(filepath.Join(root, rel)); err != nil {
			return nil, errors.WrapError(err, errors.CategorySanitization, "failed to remove path").
				WithContext("path", rel).
				Build()
		}
		slog.Debug("Removed ignored path", logfields.Path(rel))
		removed = append(removed, rel)
	}
	return removed, nil
}

// collectIgnored walks root and returns matched entries. Matched directories
// are not descended into; the root itself is never a candidate.
func collectIgnored(ctx context.Context, root string, m *ignore.Matcher) ([]string, error) {
	var candidates []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if !m.Match(rel) {
			return nil
		}
		candidates = append(candidates, rel)
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategorySanitization, "error walking directory").
			WithContext("path", root).
			Build()
	}
	return candidates, nil
}

func removePath(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return os.RemoveAll(path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// checkSizes fails on the first regular file whose whole-MiB size exceeds the limit.
func (s *Sanitizer) checkSizes(ctx context.Context, root string) (int, error) {
	files := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return errors.WrapError(walkErr, errors.CategorySanitization, "error walking directory").
				WithContext("path", path).
				Build()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return errors.WrapError(err, errors.CategorySanitization, "error reading metadata").
				WithContext("path", path).
				Build()
		}
		files++
		sizeMB := info.Size() / bytesPerMB
		if sizeMB > s.opts.MaxFileSizeMB {
			rel, _ := filepath.Rel(root, path)
			msg := fmt.Sprintf("file %q exceeds maximum size: %d MB > %d MB", rel, sizeMB, s.opts.MaxFileSizeMB)
			return errors.SanitizationError(msg).
				WithContext("path", rel).
				WithContext("size_mb", sizeMB).
				WithContext("limit_mb", s.opts.MaxFileSizeMB).
				Build()
		}
		return nil
	})
	if err != nil {
		if _, ok := errors.AsClassified(err); ok {
			return files, err
		}
		return files, errors.WrapError(err, errors.CategorySanitization, "size check aborted").
			WithContext("path", root).
			Build()
	}
	return files, nil
}
