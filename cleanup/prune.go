package cleanup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/mtstation/fileinfo"
)

// DateLayout is the layout of the prune date flags
const DateLayout = "2006-01-02"

// DefaultPruneConcurrency bounds concurrent deletions
const DefaultPruneConcurrency = 4

// ErrNoCriteria is returned when Prune is called without any selection
var ErrNoCriteria = errors.New("at least one of date, before or keyword is required")

// PruneOptions selects the entries to delete. On and Before compare local
// calendar dates; zero values are ignored.
type PruneOptions struct {
	On             time.Time
	Before         time.Time
	Keyword        string
	KeepHardlinked bool
	DryRun         bool
	Concurrency    int
}

// PruneResult reports the outcome of Prune
type PruneResult struct {
	Matched []string
	Deleted []string
	Skipped []string
	Failed  []PruneError
}

// PruneError is a failed deletion
type PruneError struct {
	Path string
	Err  error
}

// Error implements the error interface
func (e PruneError) Error() string {
	return fmt.Sprintf("failed to delete %s: %v", e.Path, e.Err)
}

// ParseDate parses a YYYY-MM-DD date in local time
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be in YYYY-MM-DD format: %q", s)
	}
	return t, nil
}

// Prune deletes the entries of path that match opts. Files and whole
// directories are removed.
func Prune(ctx context.Context, path string, opts PruneOptions, logger zerolog.Logger) (PruneResult, error) {
	var result PruneResult

	if opts.On.IsZero() && opts.Before.IsZero() && opts.Keyword == "" {
		return result, ErrNoCriteria
	}

	info, err := os.Stat(path)
	if err != nil {
		return result, fmt.Errorf("the directory %s does not exist: %w", path, err)
	}
	if !info.IsDir() {
		return result, fmt.Errorf("%s is not a directory", path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return result, fmt.Errorf("failed to read %s: %w", path, err)
	}

	for _, e := range entries {
		target := filepath.Join(path, e.Name())

		if opts.Keyword != "" && !strings.Contains(e.Name(), opts.Keyword) {
			continue
		}

		ct, err := fileinfo.ChangeTime(target)
		if err != nil {
			logger.Error().Err(err).Str("file", target).Msg("Error accessing file")
			continue
		}
		created := dateOf(ct)

		if !opts.On.IsZero() && !created.Equal(dateOf(opts.On)) {
			continue
		}
		if !opts.Before.IsZero() && created.After(dateOf(opts.Before)) {
			continue
		}

		if opts.KeepHardlinked && e.Type().IsRegular() {
			linked, err := fileinfo.HasHardlinks(target)
			if err != nil && !errors.Is(err, fileinfo.ErrUnsupported) {
				logger.Warn().Err(err).Str("file", target).Msg("Failed to check hardlinks, skipping")
				result.Skipped = append(result.Skipped, target)
				continue
			}
			if linked {
				logger.Info().Str("file", target).Msg("skip: hardlinked")
				result.Skipped = append(result.Skipped, target)
				continue
			}
		}

		result.Matched = append(result.Matched, target)
	}

	for _, target := range result.Matched {
		logger.Info().Str("file", target).Bool("dry_run", opts.DryRun).Msg("delete")
	}

	if opts.DryRun || len(result.Matched) == 0 {
		return result, nil
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultPruneConcurrency
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	// Use channels for result collection
	successChan := make(chan string, len(result.Matched))
	errorChan := make(chan PruneError, len(result.Matched))

	for _, target := range result.Matched {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errorChan <- PruneError{Path: target, Err: err}
				return nil
			}
			if err := os.RemoveAll(target); err != nil {
				errorChan <- PruneError{Path: target, Err: err}
			} else {
				successChan <- target
			}
			return nil // Don't stop on individual errors
		})
	}

	g.Wait()
	close(successChan)
	close(errorChan)

	for target := range successChan {
		result.Deleted = append(result.Deleted, target)
	}
	for err := range errorChan {
		logger.Error().Err(err.Err).Str("file", err.Path).Msg("Error deleting file")
		result.Failed = append(result.Failed, err)
	}
	sort.Strings(result.Deleted)

	return result, nil
}

func dateOf(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}
