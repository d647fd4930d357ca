package synology

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/s0up4200/mtstation/station"
)

const (
	apiAuth = "SYNO.API.Auth"
	apiTask = "SYNO.DownloadStation.Task"

	authPath = "/webapi/auth.cgi"
	taskPath = "/webapi/DownloadStation/task.cgi"

	sessionName = "DownloadStation"
)

// response is the common envelope of every SYNO API response
type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code int `json:"code"`
	} `json:"error"`
}

type loginData struct {
	SID string `json:"sid"`
}

type taskList struct {
	Total  int    `json:"total"`
	Offset int    `json:"offset"`
	Tasks  []task `json:"tasks"`
}

// task is a Download Station task as returned by the list method
type task struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Username   string `json:"username"`
	Title      string `json:"title"`
	Size       int64  `json:"size"`
	Status     string `json:"status"`
	Additional struct {
		Detail struct {
			URI           string `json:"uri"`
			Destination   string `json:"destination"`
			CreateTime    int64  `json:"create_time"`
			StartedTime   int64  `json:"started_time"`
			CompletedTime int64  `json:"completed_time"`
		} `json:"detail"`
		Transfer struct {
			SizeDownloaded   int64 `json:"size_downloaded"`
			SizeUploaded     int64 `json:"size_uploaded"`
			DownloadedPieces int64 `json:"downloaded_pieces"`
		} `json:"transfer"`
	} `json:"additional"`
}

// actionResult is one entry of a delete or resume response
type actionResult struct {
	ID    string `json:"id"`
	Error int    `json:"error"`
}

func (t task) toStation() station.Task {
	d := t.Additional.Detail
	return station.Task{
		ID:         t.ID,
		TID:        strings.TrimSuffix(d.URI, ".torrent"),
		Title:      t.Title,
		Status:     mapStatus(t.Status),
		Raw:        t.Status,
		Created:    unixTime(d.CreateTime),
		Started:    unixTime(d.StartedTime),
		Completed:  unixTime(d.CompletedTime),
		Downloaded: t.Additional.Transfer.DownloadedPieces,
	}
}

func mapStatus(s string) station.Status {
	switch s {
	case "downloading":
		return station.StatusDownloading
	case "waiting":
		return station.StatusWaiting
	case "error":
		return station.StatusError
	case "seeding":
		return station.StatusSeeding
	default:
		return station.StatusOther
	}
}

// unixTime converts a Synology timestamp; zero or negative means unset
func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
