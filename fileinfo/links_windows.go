//go:build windows

package fileinfo

// HasHardlinks checks if a file has multiple hardlinks
// Windows implementation - returns ErrUnsupported
func HasHardlinks(path string) (bool, error) {
	return false, ErrUnsupported
}

// LinkCount returns the number of hardlinks for a file
// Windows implementation - returns ErrUnsupported
func LinkCount(path string) (uint64, error) {
	return 0, ErrUnsupported
}
