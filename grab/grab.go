// Package grab downloads tracker torrents into the output directory while
// keeping track of what was already handed to the station.
package grab

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/s0up4200/mtstation/artifacts"
	"github.com/s0up4200/mtstation/filter"
	"github.com/s0up4200/mtstation/history"
	"github.com/s0up4200/mtstation/mteam"
	"github.com/s0up4200/mtstation/station"
)

// Tracker is the part of the tracker client the grabber needs
type Tracker interface {
	Detail(ctx context.Context, tid string) (*mteam.Detail, error)
	DownloadURL(ctx context.Context, tid string) (string, error)
	Fetch(ctx context.Context, link string) ([]byte, error)
}

// Actions reported per item
const (
	ActionDownload = "download"
	ActionSkip     = "skip"
	ActionDryRun   = "dry-run"
	ActionFail     = "fail"
)

// Skip reasons
const (
	ReasonExist    = "exist"
	ReasonNoDetail = "!detail"
	ReasonNotFree  = "!free"
	ReasonFilter   = "filter"
)

// Options controls which torrents are downloaded
type Options struct {
	// Force downloads torrents that were already handled
	Force bool
	// Free skips torrents whose discount is not FREE
	Free bool
	// RequireDetail skips torrents whose detail cannot be fetched
	RequireDetail bool
	// Verbose fetches and logs the detail of every torrent
	Verbose bool
	DryRun  bool
	// Filter is an optional expression every torrent must satisfy
	Filter *filter.Filter
}

// Result is the outcome for one tid
type Result struct {
	TID    string
	Name   string
	Action string
	Reason string
	Err    error
}

// Summary aggregates the results of a run
type Summary struct {
	Downloaded int
	Skipped    int
	DryRun     int
	Failed     int
	Results    []Result
}

func (s *Summary) add(r Result) {
	switch r.Action {
	case ActionDownload:
		s.Downloaded++
	case ActionSkip:
		s.Skipped++
	case ActionDryRun:
		s.DryRun++
	case ActionFail:
		s.Failed++
	}
	s.Results = append(s.Results, r)
}

// Grabber runs the download pipeline
type Grabber struct {
	tracker Tracker
	dir     *artifacts.Dir
	history *history.Store
	adder   station.Adder
	opts    Options
	logger  zerolog.Logger
}

// New creates a Grabber. adder may be nil when the station picks torrents
// up from the output directory itself.
func New(tracker Tracker, dir *artifacts.Dir, h *history.Store, adder station.Adder, opts Options, logger zerolog.Logger) *Grabber {
	return &Grabber{
		tracker: tracker,
		dir:     dir,
		history: h,
		adder:   adder,
		opts:    opts,
		logger:  logger,
	}
}

// Seen reports whether tid was already handled: recorded in the history or
// present on disk as .torrent or .torrent.loaded
func (g *Grabber) Seen(tid string) bool {
	return g.history.Contains(tid) || g.dir.HasArtifact(tid)
}

// Process runs every tid through the pipeline in order. Failures are logged
// and never stop the run.
func (g *Grabber) Process(ctx context.Context, tids []string) Summary {
	var summary Summary

	for _, tid := range tids {
		if ctx.Err() != nil {
			summary.add(Result{TID: tid, Action: ActionFail, Err: ctx.Err()})
			continue
		}
		summary.add(g.Grab(ctx, tid))
	}

	return summary
}

// Grab runs one tid through the pipeline
func (g *Grabber) Grab(ctx context.Context, tid string) Result {
	logger := g.logger.With().Str("tid", tid).Logger()
	logger.Info().Msg("Processing torrent")

	if !g.opts.Force && g.Seen(tid) {
		logger.Info().Str("action", ActionSkip).Str("reason", ReasonExist).Send()
		return Result{TID: tid, Action: ActionSkip, Reason: ReasonExist}
	}

	detail, result, ok := g.detail(ctx, logger, tid)
	if !ok {
		return result
	}

	name := tid
	if detail != nil {
		name = detail.Name
	}

	if g.opts.Free && (detail == nil || !detail.IsFree()) {
		logger.Info().Str("action", ActionSkip).Str("reason", ReasonNotFree).Send()
		return Result{TID: tid, Name: name, Action: ActionSkip, Reason: ReasonNotFree}
	}

	if g.opts.Filter != nil {
		match, err := g.opts.Filter.Evaluate(tid, detail)
		if err != nil {
			logger.Warn().Err(err).Str("action", ActionSkip).Str("reason", ReasonFilter).Send()
			return Result{TID: tid, Name: name, Action: ActionSkip, Reason: ReasonFilter, Err: err}
		}
		if !match {
			logger.Info().Str("action", ActionSkip).Str("reason", ReasonFilter).
				Str("filter", g.opts.Filter.Expression()).Send()
			return Result{TID: tid, Name: name, Action: ActionSkip, Reason: ReasonFilter}
		}
	}

	if g.opts.DryRun {
		logger.Info().Str("name", name).Msg("[Dry Run] Would download")
		return Result{TID: tid, Name: name, Action: ActionDryRun}
	}

	if err := g.download(ctx, logger, tid, detail); err != nil {
		logger.Error().Err(err).Str("action", ActionFail).Send()
		return Result{TID: tid, Name: name, Action: ActionFail, Err: err}
	}

	return Result{TID: tid, Name: name, Action: ActionDownload}
}

// detail fetches the torrent detail when any option depends on it. ok is
// false when the item has to be skipped.
func (g *Grabber) detail(ctx context.Context, logger zerolog.Logger, tid string) (*mteam.Detail, Result, bool) {
	needed := g.opts.RequireDetail || g.opts.Verbose || g.opts.Free || g.opts.Filter != nil
	if !needed {
		return nil, Result{}, true
	}

	detail, err := g.tracker.Detail(ctx, tid)
	if err != nil {
		if g.opts.RequireDetail || g.opts.Free || g.opts.Filter != nil {
			logger.Info().Err(err).Str("action", ActionSkip).Str("reason", ReasonNoDetail).Send()
			return nil, Result{TID: tid, Action: ActionSkip, Reason: ReasonNoDetail, Err: err}, false
		}
		logger.Warn().Err(err).Msg("Failed to fetch detail, downloading without it")
		return nil, Result{}, true
	}

	if g.opts.Verbose {
		logger.Info().
			Str("name", detail.Name).
			Str("status", detail.Status.Discount).
			Send()
	}

	return detail, Result{}, true
}

func (g *Grabber) download(ctx context.Context, logger zerolog.Logger, tid string, detail *mteam.Detail) error {
	link, err := g.tracker.DownloadURL(ctx, tid)
	if err != nil {
		return err
	}

	payload, err := g.tracker.Fetch(ctx, link)
	if err != nil {
		return fmt.Errorf("failed to fetch torrent %s: %w", tid, err)
	}

	meta, err := inspect(payload)
	if err != nil {
		return err
	}

	logger.Info().
		Str("action", ActionDownload).
		Str("name", meta.Name).
		Str("hash", meta.InfoHash).
		Int64("length", meta.Length).
		Send()

	if err := g.dir.WriteTorrent(tid, payload); err != nil {
		return err
	}

	if detail != nil {
		if err := g.dir.WriteInfo(tid, detail.Raw); err != nil {
			logger.Error().Err(err).Msg("Failed to write info file")
		}
	}

	g.history.Add(tid)

	if g.adder == nil {
		return nil
	}

	if err := g.adder.AddTorrent(ctx, g.dir.TorrentPath(tid), tid); err != nil {
		// The .torrent stays in place for a watched folder or a later retry
		logger.Error().Err(err).Msg("Failed to add torrent to station")
		return nil
	}

	if err := g.dir.MarkLoaded(tid); err != nil {
		logger.Error().Err(err).Msg("Failed to mark torrent as loaded")
	}

	return nil
}
