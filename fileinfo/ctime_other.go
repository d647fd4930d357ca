//go:build !linux && !darwin && !freebsd && !netbsd

package fileinfo

import (
	"os"
	"time"
)

// No portable inode change time here; fall back to the modification time
func changeTime(fi os.FileInfo) time.Time {
	return fi.ModTime()
}
