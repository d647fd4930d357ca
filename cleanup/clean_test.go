package cleanup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/mtstation/artifacts"
	"github.com/s0up4200/mtstation/history"
	"github.com/s0up4200/mtstation/station"
)

type fakeStation struct {
	tasks []station.Task
	err   error
}

func (f *fakeStation) ListTasks(context.Context) ([]station.Task, error) { return f.tasks, f.err }
func (f *fakeStation) DeleteTasks(context.Context, []string) error { return nil }
func (f *fakeStation) ResumeTasks(context.Context, []string) error { return nil }
func (f *fakeStation) Close(context.Context) error { return nil }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// setup creates an output directory with history ["1"], loaded markers for
// 1 and 2, and .info files for 2, 3 and 4
func setup(t *testing.T) (*artifacts.Dir, *history.Store) {
	t.Helper()

	root := t.TempDir()
	dir := artifacts.New(root)

	writeFile(t, filepath.Join(root, history.FileName), `["1"]`)
	writeFile(t, dir.LoadedPath("1"), "")
	writeFile(t, dir.LoadedPath("2"), "")
	writeFile(t, dir.InfoPath("2"), "null")
	writeFile(t, dir.InfoPath("3"), "null")
	writeFile(t, dir.InfoPath("4"), "null")

	h, err := history.Load(root)
	require.NoError(t, err)

	return dir, h
}

func TestRun(t *testing.T) {
	dir, h := setup(t)
	st := &fakeStation{tasks: []station.Task{{ID: "dbid_2", TID: "2"}, {ID: "dbid_3", TID: "3"}}}

	report, err := NewCleaner(dir, zerolog.Nop(), false).Run(context.Background(), st, h)
	require.NoError(t, err)

	assert.Equal(t, FoldResult{Added: 1, Removed: 2}, report.Fold)
	assert.Equal(t, 2, report.Active)
	assert.Equal(t, 1, report.Orphans)

	assert.NoFileExists(t, dir.LoadedPath("1"))
	assert.NoFileExists(t, dir.LoadedPath("2"))
	assert.FileExists(t, dir.InfoPath("2"))
	assert.FileExists(t, dir.InfoPath("3"))
	assert.NoFileExists(t, dir.InfoPath("4"))

	reloaded, err := history.Load(dir.Root())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, reloaded.TIDs())

	backup, err := os.ReadFile(filepath.Join(dir.Root(), history.FileName+history.BackupSuffix))
	require.NoError(t, err)
	assert.Equal(t, `["1"]`, string(backup))
}

func TestRunDryRun(t *testing.T) {
	dir, h := setup(t)
	st := &fakeStation{tasks: []station.Task{{ID: "dbid_2", TID: "2"}}}

	report, err := NewCleaner(dir, zerolog.Nop(), true).Run(context.Background(), st, h)
	require.NoError(t, err)

	assert.Equal(t, FoldResult{Added: 1, Removed: 2}, report.Fold)
	assert.Equal(t, 2, report.Orphans)

	assert.FileExists(t, dir.LoadedPath("1"))
	assert.FileExists(t, dir.LoadedPath("2"))
	assert.FileExists(t, dir.InfoPath("3"))
	assert.FileExists(t, dir.InfoPath("4"))
	assert.NoFileExists(t, filepath.Join(dir.Root(), history.FileName+history.BackupSuffix))

	data, err := os.ReadFile(filepath.Join(dir.Root(), history.FileName))
	require.NoError(t, err)
	assert.Equal(t, `["1"]`, string(data))
}

func TestRunStationFailureSkipsOrphans(t *testing.T) {
	for name, st := range map[string]station.Station{
		"list error": &fakeStation{err: errors.New("connection refused")},
		"no station": nil,
		"no tasks":   &fakeStation{},
	} {
		t.Run(name, func(t *testing.T) {
			dir, h := setup(t)

			report, err := NewCleaner(dir, zerolog.Nop(), false).Run(context.Background(), st, h)
			require.NoError(t, err)

			assert.Equal(t, 0, report.Active)
			assert.Equal(t, 0, report.Orphans)
			assert.FileExists(t, dir.InfoPath("4"))
			// Folding still happens
			assert.NoFileExists(t, dir.LoadedPath("2"))
		})
	}
}

func TestFoldLoadedNothingNew(t *testing.T) {
	root := t.TempDir()
	dir := artifacts.New(root)
	writeFile(t, filepath.Join(root, history.FileName), `["1"]`)
	writeFile(t, dir.LoadedPath("1"), "")

	h, err := history.Load(root)
	require.NoError(t, err)

	result, err := NewCleaner(dir, zerolog.Nop(), false).FoldLoaded(h)
	require.NoError(t, err)
	assert.Equal(t, FoldResult{Added: 0, Removed: 1}, result)
	assert.False(t, h.Dirty())

	// History untouched, backup still taken
	data, err := os.ReadFile(filepath.Join(root, history.FileName))
	require.NoError(t, err)
	assert.Equal(t, `["1"]`, string(data))
	assert.FileExists(t, filepath.Join(root, history.FileName+history.BackupSuffix))
}
