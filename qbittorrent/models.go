package qbittorrent

import (
	"strings"
	"time"

	"github.com/autobrr/go-qbittorrent"

	"github.com/s0up4200/mtstation/station"
)

// TagPrefix marks the tag carrying the tracker id of a torrent
const TagPrefix = "mt:"

// TagFor returns the tag identifying tid
func TagFor(tid string) string {
	return TagPrefix + tid
}

// TIDFromTags extracts the tracker id from a comma separated tag list
func TIDFromTags(tags string) string {
	for _, tag := range strings.Split(tags, ",") {
		tag = strings.TrimSpace(tag)
		if tid, ok := strings.CutPrefix(tag, TagPrefix); ok && tid != "" {
			return tid
		}
	}
	return ""
}

// MapState converts a qBittorrent torrent state to a station status
func MapState(state string) station.Status {
	switch state {
	case "downloading", "stalledDL", "metaDL", "forcedDL", "forcedMetaDL":
		return station.StatusDownloading
	case "queuedDL", "pausedDL", "stoppedDL", "checkingDL", "allocating":
		return station.StatusWaiting
	case "error", "missingFiles":
		return station.StatusError
	case "uploading", "stalledUP", "queuedUP", "forcedUP":
		return station.StatusSeeding
	default:
		return station.StatusOther
	}
}

func toTask(t qbittorrent.Torrent) station.Task {
	state := string(t.State)
	return station.Task{
		ID:         t.Hash,
		TID:        TIDFromTags(t.Tags),
		Title:      t.Name,
		Status:     MapState(state),
		Raw:        state,
		Created:    unixTime(t.AddedOn),
		Started:    unixTime(t.AddedOn),
		Completed:  unixTime(t.CompletionOn),
		Downloaded: t.Downloaded,
	}
}

// unixTime converts a qBittorrent timestamp; qBittorrent reports unset
// times as 0 or -1
func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
