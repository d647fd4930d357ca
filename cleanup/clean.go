// Package cleanup garbage collects the files left in the output directory
// and prunes old downloads.
package cleanup

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/mtstation/artifacts"
	"github.com/s0up4200/mtstation/history"
	"github.com/s0up4200/mtstation/station"
)

// Cleaner folds .torrent.loaded markers into the history and removes .info
// files of torrents the station no longer knows
type Cleaner struct {
	dir    *artifacts.Dir
	logger zerolog.Logger
	dryRun bool
}

// NewCleaner creates a Cleaner for dir
func NewCleaner(dir *artifacts.Dir, logger zerolog.Logger, dryRun bool) *Cleaner {
	return &Cleaner{dir: dir, logger: logger, dryRun: dryRun}
}

// FoldResult reports the outcome of FoldLoaded
type FoldResult struct {
	Added   int
	Removed int
}

// Report is the outcome of a full run
type Report struct {
	Fold    FoldResult
	Active  int
	Orphans int
}

// Run fetches the active tids while folding markers into the history, then
// removes orphaned .info files. A nil station or a failed listing is
// treated as an empty task list.
func (c *Cleaner) Run(ctx context.Context, st station.Station, h *history.Store) (Report, error) {
	var (
		report Report
		active map[string]struct{}
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		active = c.activeTIDs(gctx, st)
		return nil
	})

	g.Go(func() error {
		fold, err := c.FoldLoaded(h)
		report.Fold = fold
		return err
	})

	if err := g.Wait(); err != nil {
		return report, err
	}

	report.Active = len(active)

	orphans, err := c.RemoveOrphanInfo(active)
	report.Orphans = orphans

	return report, err
}

func (c *Cleaner) activeTIDs(ctx context.Context, st station.Station) map[string]struct{} {
	if st == nil {
		c.logger.Warn().Msg("No station available, continuing without task list")
		return map[string]struct{}{}
	}

	tasks, err := st.ListTasks(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to list station tasks")
		c.logger.Warn().Msg("Continuing without station task list")
		return map[string]struct{}{}
	}

	active := station.ActiveTIDs(tasks)
	c.logger.Info().Int("count", len(active)).Msg("Retrieved active tasks from station")

	return active
}

// FoldLoaded records the tid of every .torrent.loaded marker in the history
// and removes the marker. The history is backed up first and saved only
// when new tids were added.
func (c *Cleaner) FoldLoaded(h *history.Store) (FoldResult, error) {
	var result FoldResult

	if !c.dryRun {
		if err := h.Backup(); err != nil {
			return result, err
		}
	}

	tids, err := c.dir.LoadedTIDs()
	if err != nil {
		return result, err
	}

	for _, tid := range tids {
		if h.Merge(tid) > 0 {
			c.logger.Info().Str("tid", tid).Msg("Adding new TID to history")
			result.Added++
		}

		if c.dryRun {
			c.logger.Info().Str("file", c.dir.LoadedPath(tid)).Msg("[Dry Run] Would remove")
			result.Removed++
			continue
		}

		if err := c.dir.RemoveLoaded(tid); err != nil {
			c.logger.Error().Err(err).Str("tid", tid).Msg("Failed to remove loaded marker")
			continue
		}
		result.Removed++
	}

	if !c.dryRun && result.Added > 0 {
		if err := h.Save(); err != nil {
			return result, fmt.Errorf("failed to save history: %w", err)
		}
		c.logger.Info().Int("added", result.Added).Msg("Updated history list")
	}

	return result, nil
}

// RemoveOrphanInfo deletes .info files whose tid is not in active. An empty
// active set skips the step, since it usually means the station could not
// be reached.
func (c *Cleaner) RemoveOrphanInfo(active map[string]struct{}) (int, error) {
	if len(active) == 0 {
		c.logger.Warn().Msg("No active tasks found, skipping orphaned .info cleanup")
		return 0, nil
	}

	tids, err := c.dir.InfoTIDs()
	if err != nil {
		return 0, err
	}

	var orphans int
	for _, tid := range tids {
		if _, ok := active[tid]; ok {
			continue
		}
		orphans++

		path := c.dir.InfoPath(tid)
		if c.dryRun {
			c.logger.Info().Str("file", path).Msg("[Dry Run] Would remove orphaned file")
			continue
		}

		if err := c.dir.RemoveInfo(tid); err != nil {
			c.logger.Error().Err(err).Str("file", path).Msg("Failed to remove orphaned file")
			continue
		}
		c.logger.Info().Str("file", path).Msg("Removed orphaned file")
	}

	c.logger.Info().Int("count", orphans).Msg("Processed orphaned .info files")

	return orphans, nil
}
