package qbittorrent

import (
	"context"
	"fmt"

	"github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog"

	"github.com/s0up4200/mtstation/station"
)

// torrentAPI is the subset of the go-qbittorrent client used here
type torrentAPI interface {
	GetTorrentsCtx(ctx context.Context, o qbittorrent.TorrentFilterOptions) ([]qbittorrent.Torrent, error)
	DeleteTorrentsCtx(ctx context.Context, hashes []string, deleteFiles bool) error
	ResumeCtx(ctx context.Context, hashes []string) error
	AddTorrentFromFileCtx(ctx context.Context, filePath string, options map[string]string) error
}

// Client wraps the qBittorrent API client
type Client struct {
	api    torrentAPI
	opts   clientOptions
	logger zerolog.Logger
}

// NewClient creates a new qBittorrent client and logs in
func NewClient(ctx context.Context, url, username, password string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, ErrMissingURL
	}

	client := qbittorrent.NewClient(qbittorrent.Config{
		Host:     url,
		Username: username,
		Password: password,
	})

	// Test connection by logging in
	if err := client.LoginCtx(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	logger.Debug().Str("url", url).Msg("Connected to qBittorrent")

	return newClient(client, logger, opts...), nil
}

func newClient(api torrentAPI, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{api: api, logger: logger}
	for _, opt := range opts {
		opt(&c.opts)
	}
	return c
}

// ListTasks returns the torrents tagged by this tool. Torrents without a
// tracker tag are listed with an empty TID.
func (c *Client) ListTasks(ctx context.Context) ([]station.Task, error) {
	filter := qbittorrent.TorrentFilterOptions{}
	if c.opts.category != "" {
		filter.Category = c.opts.category
	}

	torrents, err := c.api.GetTorrentsCtx(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get torrents: %w", err)
	}

	c.logger.Debug().Msgf("Retrieved %d torrents from qBittorrent", len(torrents))

	tasks := make([]station.Task, 0, len(torrents))
	for _, t := range torrents {
		tasks = append(tasks, toTask(t))
	}

	return tasks, nil
}

// DeleteTasks removes torrents by hash
func (c *Client) DeleteTasks(ctx context.Context, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}

	if err := c.api.DeleteTorrentsCtx(ctx, hashes, c.opts.deleteFiles); err != nil {
		return fmt.Errorf("failed to delete torrents: %w", err)
	}
	return nil
}

// ResumeTasks resumes torrents by hash
func (c *Client) ResumeTasks(ctx context.Context, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}

	if err := c.api.ResumeCtx(ctx, hashes); err != nil {
		return fmt.Errorf("failed to resume torrents: %w", err)
	}
	return nil
}

// AddTorrent uploads a .torrent file tagged with its tracker id
func (c *Client) AddTorrent(ctx context.Context, path, tid string) error {
	options := map[string]string{
		"tags": TagFor(tid),
	}
	if c.opts.category != "" {
		options["category"] = c.opts.category
	}
	if c.opts.savePath != "" {
		options["savepath"] = c.opts.savePath
	}
	if c.opts.paused {
		options["paused"] = "true"
	}

	if err := c.api.AddTorrentFromFileCtx(ctx, path, options); err != nil {
		return fmt.Errorf("failed to add torrent %s: %w", tid, err)
	}

	c.logger.Debug().Str("tid", tid).Str("path", path).Msg("Added torrent to qBittorrent")
	return nil
}

// Close is a no-op; the Web API session expires on its own
func (c *Client) Close(context.Context) error {
	return nil
}

var (
	_ station.Station = (*Client)(nil)
	_ station.Adder   = (*Client)(nil)
)
