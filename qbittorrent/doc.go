// Package qbittorrent provides a download station backed by the qBittorrent Web API.
//
// This package wraps the autobrr/go-qbittorrent library and exposes it as a
// station.Station. Torrents added by this tool carry a tag of the form
// "mt:<tid>" so tasks can be correlated with tracker ids and local files.
//
// # Features
//
//   - Connection management with authentication
//   - Torrent listing with qBittorrent states mapped to station statuses
//   - Deleting and resuming torrents by hash
//   - Uploading .torrent files tagged with their tracker id
//
// # Usage
//
//	client, err := qbittorrent.NewClient(ctx, url, username, password, logger,
//	    qbittorrent.WithCategory("mteam"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tasks, err := client.ListTasks(ctx)
//	err = client.AddTorrent(ctx, "/data/mt/123.torrent", "123")
package qbittorrent
