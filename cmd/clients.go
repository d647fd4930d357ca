package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/s0up4200/mtstation/artifacts"
	"github.com/s0up4200/mtstation/config"
	"github.com/s0up4200/mtstation/grab"
	"github.com/s0up4200/mtstation/history"
	"github.com/s0up4200/mtstation/mteam"
	"github.com/s0up4200/mtstation/qbittorrent"
	"github.com/s0up4200/mtstation/station"
	"github.com/s0up4200/mtstation/synology"
)

// newTracker creates the M-Team client from the loaded configuration
func newTracker() (*mteam.Client, error) {
	if err := cfg.ValidateTracker(); err != nil {
		return nil, err
	}

	t := cfg.Tracker
	client, err := mteam.NewClient(t.URL, t.APIKey, logger,
		mteam.WithDelay(time.Duration(t.MinDelay)*time.Second, time.Duration(t.MaxDelay)*time.Second),
		mteam.WithRSS(t.RSS),
		mteam.WithTimeout(t.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracker client: %w", err)
	}

	return client, nil
}

// stationClient is implemented by every backend. Adder is nil for
// backends that pick torrents up from a watched folder.
type stationClient struct {
	station.Station
	Adder station.Adder
}

// newStation connects to the configured station backend
func newStation(ctx context.Context) (*stationClient, error) {
	if err := cfg.ValidateStation(); err != nil {
		return nil, err
	}

	switch cfg.Station.Backend {
	case config.BackendQBittorrent:
		q := cfg.Station.QBittorrent
		client, err := qbittorrent.NewClient(ctx, q.URL, q.Username, q.Password, logger,
			qbittorrent.WithCategory(q.Category),
			qbittorrent.WithSavePath(q.SavePath),
			qbittorrent.WithAddPaused(q.AddPaused),
			qbittorrent.WithDeleteFiles(q.DeleteFiles),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create qBittorrent client: %w", err)
		}
		logger.Debug().Str("url", q.URL).Msg("Connected to qBittorrent")
		return &stationClient{Station: client, Adder: client}, nil

	default:
		s := cfg.Station.Synology
		client, err := synology.NewClient(synology.Config{
			Host:     s.IP,
			Port:     s.Port,
			Account:  s.Account,
			Password: s.Password,
			HTTPS:    s.HTTPS,
		}, logger, synology.WithTimeout(s.Timeout))
		if err != nil {
			return nil, fmt.Errorf("failed to create Synology client: %w", err)
		}
		if err := client.Login(ctx); err != nil {
			return nil, err
		}
		logger.Debug().Str("host", s.IP).Int("port", s.Port).Msg("Logged in to Download Station")
		return &stationClient{Station: client}, nil
	}
}

// closeStation logs the station session out, logging any failure
func closeStation(st station.Station) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := st.Close(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to close station session")
	}
}

// runGrab runs tids through the download pipeline and persists the history
func runGrab(ctx context.Context, tracker grab.Tracker, tids []string, opts grab.Options) (grab.Summary, error) {
	output := cfg.Tracker.Output
	if err := os.MkdirAll(output, 0o755); err != nil {
		return grab.Summary{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	h, err := history.Load(output)
	if err != nil {
		return grab.Summary{}, err
	}

	// qBittorrent gets torrents over its API; Download Station watches the folder
	var adder station.Adder
	if cfg.Station.Backend == config.BackendQBittorrent && !opts.DryRun {
		st, err := newStation(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Station unavailable, torrents stay in the output directory")
		} else {
			defer closeStation(st)
			adder = st.Adder
		}
	}

	opts.DryRun = opts.DryRun || cfg.Safety.DryRun
	g := grab.New(tracker, artifacts.New(output), h, adder, opts, logger)
	summary := g.Process(ctx, tids)

	if h.Dirty() && !opts.DryRun {
		if err := h.Save(); err != nil {
			return summary, err
		}
	}

	logger.Info().
		Int("downloaded", summary.Downloaded).
		Int("skipped", summary.Skipped).
		Int("dry_run", summary.DryRun).
		Int("failed", summary.Failed).
		Msg("Finished")

	return summary, nil
}
