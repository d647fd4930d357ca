package retention

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/mtstation/artifacts"
	"github.com/s0up4200/mtstation/station"
)

type fakeStation struct {
	deleteCalls [][]string
	resumeCalls [][]string
	deleteErr   error
}

func (f *fakeStation) ListTasks(context.Context) ([]station.Task, error) { return nil, nil }

func (f *fakeStation) DeleteTasks(_ context.Context, ids []string) error {
	f.deleteCalls = append(f.deleteCalls, ids)
	return f.deleteErr
}

func (f *fakeStation) ResumeTasks(_ context.Context, ids []string) error {
	f.resumeCalls = append(f.resumeCalls, ids)
	return nil
}

func (f *fakeStation) Close(context.Context) error { return nil }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// fixture returns a planner over a directory holding an expiring, a null
// and a healthy .info, plus the matching tasks
func fixture(t *testing.T) (*Planner, *artifacts.Dir, []station.Task) {
	t.Helper()

	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.Local)
	dir := artifacts.New(t.TempDir())

	writeFile(t, dir.InfoPath("1"), `{"id":"1","status":{"discount":"FREE","discountEndTime":"2030-06-01 12:03:00"}}`)
	writeFile(t, dir.LoadedPath("1"), "")
	writeFile(t, dir.InfoPath("2"), "null")
	writeFile(t, dir.InfoPath("3"), `{"id":"3","status":{"discount":"FREE","discountEndTime":"2030-06-02 12:00:00"}}`)
	writeFile(t, dir.InfoPath("6"), `{"id":"6",`)

	tasks := []station.Task{
		{ID: "dbid_1", TID: "1", Title: "expiring", Status: station.StatusDownloading, Started: now.Add(-time.Minute), Downloaded: 5},
		{ID: "dbid_2", TID: "2", Title: "null info", Status: station.StatusWaiting},
		{ID: "dbid_3", TID: "3", Title: "healthy", Status: station.StatusDownloading, Started: now.Add(-time.Minute), Downloaded: 5},
		{ID: "dbid_4", TID: "4", Title: "broken", Status: station.StatusError},
		{ID: "dbid_5", TID: "5", Title: "stalled", Status: station.StatusDownloading, Created: now.Add(-3601 * time.Second)},
		{ID: "dbid_6", TID: "6", Title: "unreadable", Status: station.StatusDownloading, Started: now.Add(-time.Minute), Downloaded: 5},
	}

	p := NewPlanner(DefaultPolicy(), dir, zerolog.Nop())
	p.now = func() time.Time { return now }

	return p, dir, tasks
}

func TestBuildPlan(t *testing.T) {
	p, _, tasks := fixture(t)

	plan := p.BuildPlan(tasks)
	require.Len(t, plan.Items, len(tasks))

	reasons := make(map[string]string)
	for _, it := range plan.Items {
		reasons[it.Task.ID] = string(it.Decision.Action) + "/" + it.Decision.Reason
	}

	want := map[string]string{
		"dbid_1": "delete/discount-expiring",
		"dbid_2": "delete/no-info",
		"dbid_3": "keep/active",
		"dbid_4": "resume/error",
		"dbid_5": "delete/stalled",
		"dbid_6": "keep/untracked",
	}
	if diff := cmp.Diff(want, reasons); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}

	assert.Len(t, plan.Deletes(), 3)
	assert.Len(t, plan.Resumes(), 1)
}

func TestExecute(t *testing.T) {
	p, dir, tasks := fixture(t)
	st := &fakeStation{}

	result, err := p.Execute(context.Background(), st, p.BuildPlan(tasks), false)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"dbid_1", "dbid_2", "dbid_5"}}, st.deleteCalls)
	assert.Equal(t, [][]string{{"dbid_4"}}, st.resumeCalls)
	assert.Equal(t, Result{Deleted: 3, Resumed: 1, Purged: 3}, result)

	assert.NoFileExists(t, dir.InfoPath("1"))
	assert.NoFileExists(t, dir.LoadedPath("1"))
	assert.NoFileExists(t, dir.InfoPath("2"))
	assert.FileExists(t, dir.InfoPath("3"))
	assert.FileExists(t, dir.InfoPath("6"))
}

func TestExecuteDryRun(t *testing.T) {
	p, dir, tasks := fixture(t)
	st := &fakeStation{}

	result, err := p.Execute(context.Background(), st, p.BuildPlan(tasks), true)
	require.NoError(t, err)

	assert.Empty(t, st.deleteCalls)
	assert.Empty(t, st.resumeCalls)
	assert.Equal(t, Result{}, result)
	assert.FileExists(t, dir.InfoPath("1"))
	assert.FileExists(t, dir.LoadedPath("1"))
	assert.FileExists(t, dir.InfoPath("2"))
}

func TestExecuteDeleteFailureKeepsFiles(t *testing.T) {
	p, dir, tasks := fixture(t)
	st := &fakeStation{deleteErr: errors.New("session timeout")}

	result, err := p.Execute(context.Background(), st, p.BuildPlan(tasks), false)
	require.Error(t, err)

	assert.Equal(t, 0, result.Deleted)
	assert.Equal(t, 1, result.Resumed)
	assert.FileExists(t, dir.InfoPath("1"))
}

func TestExecuteEmptyPlan(t *testing.T) {
	p, _, _ := fixture(t)
	st := &fakeStation{}

	_, err := p.Execute(context.Background(), st, Plan{}, false)
	require.NoError(t, err)
	assert.Empty(t, st.deleteCalls)
	assert.Empty(t, st.resumeCalls)
}
