// Package fileinfo exposes the platform specific file metadata used when
// pruning download directories.
package fileinfo

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrUnsupported is returned where the platform cannot report link counts
var ErrUnsupported = errors.New("hardlink detection not supported on this platform")

// ChangeTime returns the inode change time of path. Symlinks are not
// followed. Platforms without one report the modification time.
func ChangeTime(path string) (time.Time, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	return changeTime(fi), nil
}
