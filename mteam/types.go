package mteam

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DiscountTimeLayout is the layout of discount window timestamps.
const DiscountTimeLayout = "2006-01-02 15:04:05"

// DiscountFree marks a torrent that can be downloaded without counting
// against the ratio.
const DiscountFree = "FREE"

// Int64 decodes integers the API sends either as numbers or as strings
type Int64 int64

// UnmarshalJSON implements json.Unmarshaler
func (n *Int64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", string(b), err)
	}
	*n = Int64(v)
	return nil
}

// envelope wraps every JSON API response
type envelope struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Status holds the promotion state of a torrent
type Status struct {
	Discount          string  `json:"discount"`
	DiscountEndTime   *string `json:"discountEndTime"`
	DiscountStartTime *string `json:"discountStartTime"`
	Seeders           Int64   `json:"seeders"`
	Leechers          Int64   `json:"leechers"`
}

// Torrent is a single search result
type Torrent struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SmallDescr string `json:"smallDescr"`
	Category   string `json:"category"`
	Size       Int64  `json:"size"`
	Status     Status `json:"status"`
}

// Detail is the full record of a torrent. Raw keeps the exact payload so it
// can be written to disk untouched.
type Detail struct {
	Torrent
	Raw json.RawMessage `json:"-"`
}

// IsFree reports whether the torrent is currently free to download
func (d *Detail) IsFree() bool {
	return d.Status.Discount == DiscountFree
}

// DiscountEnd returns the end of the discount window. ok is false when the
// torrent has no discount end time.
func (d *Detail) DiscountEnd() (end time.Time, ok bool, err error) {
	return ParseDiscountTime(d.Status.DiscountEndTime)
}

// ParseDiscountTime parses a nullable discount timestamp in local time
func ParseDiscountTime(value *string) (time.Time, bool, error) {
	if value == nil || *value == "" {
		return time.Time{}, false, nil
	}

	t, err := time.ParseInLocation(DiscountTimeLayout, *value, time.Local)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid discount time %q: %w", *value, err)
	}
	return t, true, nil
}

// SearchQuery describes a torrent search
type SearchQuery struct {
	Mode     string
	Free     bool
	Page     int
	PageSize int
	Keyword  string
}

// searchRequest is the JSON body of the search endpoint
type searchRequest struct {
	Mode       string `json:"mode"`
	PageNumber int    `json:"pageNumber"`
	PageSize   int    `json:"pageSize"`
	Discount   string `json:"discount,omitempty"`
	Keyword    string `json:"keyword,omitempty"`
}

// searchResult is the data of a search response
type searchResult struct {
	PageNumber Int64     `json:"pageNumber"`
	PageSize   Int64     `json:"pageSize"`
	Total      Int64     `json:"total"`
	TotalPages Int64     `json:"totalPages"`
	Data       []Torrent `json:"data"`
}

// FeedItem is an entry of the RSS feed
type FeedItem struct {
	TID       string
	Title     string
	Link      string
	Published time.Time
}

// Profile is the authenticated member
type Profile struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	MemberCount MemberCount `json:"memberCount"`
}

// MemberCount holds the transfer statistics of a member
type MemberCount struct {
	Uploaded   Int64  `json:"uploaded"`
	Downloaded Int64  `json:"downloaded"`
	ShareRate  string `json:"shareRate"`
}

// Search modes accepted by the tracker
var modes = []string{
	"normal",
	"adult",
	"movie",
	"music",
	"tvshow",
	"waterfall",
	"rss",
	"rankings",
}

// Modes returns the accepted search modes
func Modes() []string {
	return append([]string(nil), modes...)
}

// ValidMode checks if mode is an accepted search mode
func ValidMode(mode string) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}
