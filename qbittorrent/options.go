package qbittorrent

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	category    string
	savePath    string
	deleteFiles bool
	paused      bool
}

// WithCategory restricts listing to a category and assigns it to added torrents.
func WithCategory(category string) Option {
	return func(o *clientOptions) {
		o.category = category
	}
}

// WithSavePath sets the download directory of added torrents.
func WithSavePath(path string) Option {
	return func(o *clientOptions) {
		o.savePath = path
	}
}

// WithDeleteFiles removes downloaded data when torrents are deleted.
func WithDeleteFiles(deleteFiles bool) Option {
	return func(o *clientOptions) {
		o.deleteFiles = deleteFiles
	}
}

// WithAddPaused adds torrents in the paused state.
func WithAddPaused(paused bool) Option {
	return func(o *clientOptions) {
		o.paused = paused
	}
}
