// Package artifacts manages the per-torrent files kept in the output
// directory: the downloaded .torrent, the .info detail snapshot and the
// .torrent.loaded marker left once the station has picked a torrent up.
package artifacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/s0up4200/mtstation/mteam"
)

const (
	TorrentExt = ".torrent"
	InfoExt    = ".info"
	LoadedExt  = ".torrent.loaded"
)

// ErrNoInfo is returned by ReadInfo when the tid has no .info file
var ErrNoInfo = errors.New("no info file")

// Dir is an output directory holding torrent artifacts
type Dir struct {
	root string
}

// New returns a Dir rooted at root
func New(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the directory path
func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) TorrentPath(tid string) string {
	return filepath.Join(d.root, tid+TorrentExt)
}

func (d *Dir) InfoPath(tid string) string {
	return filepath.Join(d.root, tid+InfoExt)
}

func (d *Dir) LoadedPath(tid string) string {
	return filepath.Join(d.root, tid+LoadedExt)
}

// HasArtifact reports whether a .torrent or .torrent.loaded file exists for tid
func (d *Dir) HasArtifact(tid string) bool {
	return exists(d.TorrentPath(tid)) || exists(d.LoadedPath(tid))
}

// WriteTorrent stores the torrent payload for tid
func (d *Dir) WriteTorrent(tid string, payload []byte) error {
	if err := os.WriteFile(d.TorrentPath(tid), payload, 0o644); err != nil {
		return fmt.Errorf("failed to write torrent %s: %w", tid, err)
	}
	return nil
}

// WriteInfo stores the raw detail JSON for tid, indented with four spaces
func (d *Dir) WriteInfo(tid string, raw json.RawMessage) error {
	var buf bytes.Buffer
	if len(raw) == 0 {
		buf.WriteString("null")
	} else if err := json.Indent(&buf, raw, "", "    "); err != nil {
		return fmt.Errorf("failed to format info %s: %w", tid, err)
	}

	if err := os.WriteFile(d.InfoPath(tid), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write info %s: %w", tid, err)
	}
	return nil
}

// ReadInfo loads the detail snapshot of tid. A file containing null yields
// a nil detail and no error. ErrNoInfo is returned when the file is absent.
func (d *Dir) ReadInfo(tid string) (*mteam.Detail, error) {
	data, err := os.ReadFile(d.InfoPath(tid))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoInfo
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read info %s: %w", tid, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}

	var detail mteam.Detail
	if err := json.Unmarshal(trimmed, &detail.Torrent); err != nil {
		return nil, fmt.Errorf("failed to parse info %s: %w", tid, err)
	}
	detail.Raw = json.RawMessage(trimmed)

	return &detail, nil
}

// MarkLoaded renames the .torrent of tid to its .torrent.loaded marker
func (d *Dir) MarkLoaded(tid string) error {
	if err := os.Rename(d.TorrentPath(tid), d.LoadedPath(tid)); err != nil {
		return fmt.Errorf("failed to mark %s as loaded: %w", tid, err)
	}
	return nil
}

// RemoveLoaded deletes the .torrent.loaded marker of tid
func (d *Dir) RemoveLoaded(tid string) error {
	return remove(d.LoadedPath(tid))
}

// RemoveInfo deletes the .info file of tid
func (d *Dir) RemoveInfo(tid string) error {
	return remove(d.InfoPath(tid))
}

// Purge removes the .info and .torrent.loaded files of tid. Missing files
// are ignored.
func (d *Dir) Purge(tid string) error {
	return errors.Join(d.RemoveInfo(tid), d.RemoveLoaded(tid))
}

// LoadedTIDs lists the tids that have a .torrent.loaded marker
func (d *Dir) LoadedTIDs() ([]string, error) {
	return d.list(LoadedExt)
}

// InfoTIDs lists the tids that have an .info file
func (d *Dir) InfoTIDs() ([]string, error) {
	return d.list(InfoExt)
}

func (d *Dir) list(ext string) ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", d.root, err)
	}

	var tids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ext) {
			continue
		}
		tid := strings.TrimSuffix(name, ext)
		if tid == "" {
			continue
		}
		tids = append(tids, tid)
	}
	sort.Strings(tids)

	return tids, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
	}
	return nil
}
