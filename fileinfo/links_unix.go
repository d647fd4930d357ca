//go:build !windows

package fileinfo

import (
	"fmt"
	"os"
	"syscall"
)

// HasHardlinks checks if a file has multiple hardlinks (Nlink > 1)
func HasHardlinks(path string) (bool, error) {
	count, err := LinkCount(path)
	if err != nil {
		return false, err
	}
	return count > 1, nil
}

// LinkCount returns the number of hardlinks for a file
func LinkCount(path string) (uint64, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat file %s: %w", path, err)
	}

	stat, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, fmt.Errorf("cannot convert to syscall.Stat_t for %s", path)
	}

	return uint64(stat.Nlink), nil
}
