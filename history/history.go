// Package history persists the list of torrent ids that have already been
// handed to the download station.
//
// The list is a flat JSON array stored as list.json in the output directory.
// It is append-only: Add never removes or deduplicates entries.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	// FileName is the name of the history file inside the output directory
	FileName = "list.json"
	// BackupSuffix is appended to FileName for the backup copy
	BackupSuffix = ".bk"
)

// Store is an in-memory copy of the history file
type Store struct {
	path  string
	tids  []string
	index map[string]struct{}
	dirty bool
}

// Load reads the history file in dir. A missing file yields an empty store.
func Load(dir string) (*Store, error) {
	s := &Store{
		path:  filepath.Join(dir, FileName),
		index: make(map[string]struct{}),
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	// An empty file or a literal null is an empty history
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return s, nil
	}

	var tids []string
	if err := json.Unmarshal(trimmed, &tids); err != nil {
		return nil, fmt.Errorf("failed to parse history %s: %w", s.path, err)
	}

	for _, tid := range tids {
		s.tids = append(s.tids, tid)
		s.index[tid] = struct{}{}
	}

	return s, nil
}

// Path returns the location of the history file
func (s *Store) Path() string {
	return s.path
}

// Contains reports whether tid has been recorded
func (s *Store) Contains(tid string) bool {
	_, ok := s.index[tid]
	return ok
}

// Add records tid. It appends even if tid is already present.
func (s *Store) Add(tid string) {
	s.tids = append(s.tids, tid)
	s.index[tid] = struct{}{}
	s.dirty = true
}

// Merge appends the tids not yet recorded and returns how many were added
func (s *Store) Merge(tids ...string) int {
	var added int
	for _, tid := range tids {
		if s.Contains(tid) {
			continue
		}
		s.Add(tid)
		added++
	}
	return added
}

// TIDs returns a copy of the recorded ids in insertion order
func (s *Store) TIDs() []string {
	return append([]string(nil), s.tids...)
}

// Len returns the number of entries, duplicates included
func (s *Store) Len() int {
	return len(s.tids)
}

// Dirty reports whether the store changed since it was loaded or saved
func (s *Store) Dirty() bool {
	return s.dirty
}

// Save backs up the current file and writes the store
func (s *Store) Save() error {
	if err := s.Backup(); err != nil {
		return err
	}

	tids := s.tids
	if tids == nil {
		tids = []string{}
	}

	data, err := json.MarshalIndent(tids, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace history: %w", err)
	}

	s.dirty = false
	return nil
}

// Backup copies the history file to its .bk sibling. A missing file is not
// an error.
func (s *Store) Backup() error {
	src, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open history for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(s.path + BackupSuffix)
	if err != nil {
		return fmt.Errorf("failed to create history backup: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to write history backup: %w", err)
	}

	return dst.Close()
}
