// Package station defines the download manager abstraction shared by the
// Synology Download Station and qBittorrent backends.
package station

import (
	"context"
	"fmt"
	"time"
)

// Status is the normalized state of a station task
type Status string

const (
	StatusDownloading Status = "downloading"
	StatusWaiting     Status = "waiting"
	StatusError       Status = "error"
	StatusSeeding     Status = "seeding"
	StatusOther       Status = "other"
)

// Task is a torrent known to the station
type Task struct {
	ID     string
	TID    string
	Title  string
	Status Status
	// Raw is the backend specific status, kept for logs
	Raw string

	Created   time.Time
	Started   time.Time
	Completed time.Time

	// Downloaded is pieces for Synology and bytes for qBittorrent; only
	// whether it is zero matters
	Downloaded int64
}

// StartedOrCreated returns the start time, falling back to the creation time
func (t Task) StartedOrCreated() time.Time {
	if !t.Started.IsZero() {
		return t.Started
	}
	return t.Created
}

func (t Task) String() string {
	return fmt.Sprintf("%s [%s] %s", t.TID, t.Status, t.Title)
}

// Station is a download manager holding torrent tasks
type Station interface {
	// ListTasks returns every task currently known to the station
	ListTasks(ctx context.Context) ([]Task, error)
	// DeleteTasks removes the tasks with the given ids
	DeleteTasks(ctx context.Context, ids []string) error
	// ResumeTasks restarts the tasks with the given ids
	ResumeTasks(ctx context.Context, ids []string) error
	// Close ends the session
	Close(ctx context.Context) error
}

// Adder is implemented by stations that accept torrent files pushed to them.
// Stations without it pick .torrent files up from a watched folder.
type Adder interface {
	AddTorrent(ctx context.Context, path, tid string) error
}

// ActiveTIDs returns the set of tids of the given tasks
func ActiveTIDs(tasks []Task) map[string]struct{} {
	active := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if t.TID == "" {
			continue
		}
		active[t.TID] = struct{}{}
	}
	return active
}
