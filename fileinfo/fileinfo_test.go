//go:build !windows

package fileinfo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkCount(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "original.mkv")
	require.NoError(t, os.WriteFile(original, []byte("data"), 0o644))

	count, err := LinkCount(original)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	linked, err := HasHardlinks(original)
	require.NoError(t, err)
	assert.False(t, linked)

	require.NoError(t, os.Link(original, filepath.Join(dir, "link.mkv")))

	count, err = LinkCount(original)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	linked, err = HasHardlinks(original)
	require.NoError(t, err)
	assert.True(t, linked)
}

func TestLinkCountMissing(t *testing.T) {
	_, err := LinkCount(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestChangeTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	before := time.Now().Add(-time.Minute)
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	ct, err := ChangeTime(path)
	require.NoError(t, err)
	assert.True(t, ct.After(before), "change time %v should be after %v", ct, before)
	assert.True(t, ct.Before(time.Now().Add(time.Minute)))

	_, err = ChangeTime(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
