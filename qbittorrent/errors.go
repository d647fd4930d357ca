package qbittorrent

import "errors"

var (
	// ErrMissingURL is returned by NewClient without a Web UI address
	ErrMissingURL = errors.New("qBittorrent Web UI url is required")
	// ErrConnectionFailed wraps a failed Web API login
	ErrConnectionFailed = errors.New("qBittorrent login failed")
)
