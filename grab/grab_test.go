package grab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/anacrolix/torrent/bencode"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/mtstation/artifacts"
	"github.com/s0up4200/mtstation/filter"
	"github.com/s0up4200/mtstation/history"
	"github.com/s0up4200/mtstation/mteam"
	"github.com/s0up4200/mtstation/station"
)

func torrentPayload(t *testing.T, name string) []byte {
	t.Helper()

	info := metainfo.Info{
		Name:        name,
		PieceLength: 16384,
		Pieces:      make([]byte, 20),
		Length:      1024,
	}
	infoBytes, err := bencode.Marshal(info)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, (&metainfo.MetaInfo{InfoBytes: infoBytes}).Write(&buf))
	return buf.Bytes()
}

// fakeTracker serves detail, token and download endpoints for a set of
// torrents keyed by tid
type fakeTracker struct {
	t        *testing.T
	server   *httptest.Server
	details  map[string]map[string]any
	payloads map[string][]byte

	mu          sync.Mutex
	detailCalls int
	fetchCalls  int
}

func newFakeTracker(t *testing.T) *fakeTracker {
	f := &fakeTracker{
		t:        t,
		details:  make(map[string]map[string]any),
		payloads: make(map[string][]byte),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeTracker) add(tid, name, discount string, payload []byte) {
	f.details[tid] = map[string]any{
		"id":     tid,
		"name":   name,
		"size":   "1024",
		"status": map[string]any{"discount": discount, "discountEndTime": "2099-01-01 00:00:00"},
	}
	f.payloads[tid] = payload
}

func (f *fakeTracker) serve(w http.ResponseWriter, r *http.Request) {
	write := func(message string, data any) {
		json.NewEncoder(w).Encode(map[string]any{"code": "0", "message": message, "data": data})
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/torrent/detail":
		f.detailCalls++
		assert.NoError(f.t, r.ParseForm())
		detail, ok := f.details[r.PostForm.Get("id")]
		if !ok {
			write("種子未找到", nil)
			return
		}
		write("SUCCESS", detail)
	case "/torrent/genDlToken":
		assert.NoError(f.t, r.ParseForm())
		write("SUCCESS", fmt.Sprintf("%s/dl?id=%s", f.server.URL, r.PostForm.Get("id")))
	case "/dl":
		f.fetchCalls++
		payload, ok := f.payloads[r.URL.Query().Get("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(payload)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeTracker) calls() (details, fetches int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detailCalls, f.fetchCalls
}

func (f *fakeTracker) client(t *testing.T) *mteam.Client {
	client, err := mteam.NewClient(f.server.URL, "key", zerolog.Nop(), mteam.WithDelay(0, 0))
	require.NoError(t, err)
	return client
}

type fakeAdder struct {
	paths []string
	tids  []string
	err   error
}

func (a *fakeAdder) AddTorrent(_ context.Context, path, tid string) error {
	a.paths = append(a.paths, path)
	a.tids = append(a.tids, tid)
	return a.err
}

func newGrabber(t *testing.T, tracker Tracker, fa *fakeAdder, opts Options) (*Grabber, *artifacts.Dir, *history.Store) {
	t.Helper()

	root := t.TempDir()
	dir := artifacts.New(root)
	h, err := history.Load(root)
	require.NoError(t, err)

	var adder station.Adder
	if fa != nil {
		adder = fa
	}
	return New(tracker, dir, h, adder, opts, zerolog.Nop()), dir, h
}

func TestSeen(t *testing.T) {
	g, dir, h := newGrabber(t, nil, nil, Options{})

	assert.False(t, g.Seen("1"))

	h.Add("1")
	assert.True(t, g.Seen("1"))

	require.NoError(t, os.WriteFile(dir.TorrentPath("2"), nil, 0o644))
	assert.True(t, g.Seen("2"))

	require.NoError(t, os.WriteFile(dir.LoadedPath("3"), nil, 0o644))
	assert.True(t, g.Seen("3"))

	// A lone .info does not count as handled
	require.NoError(t, os.WriteFile(dir.InfoPath("4"), []byte("null"), 0o644))
	assert.False(t, g.Seen("4"))
}

func TestProcess(t *testing.T) {
	tracker := newFakeTracker(t)
	tracker.add("10", "Free.Movie", mteam.DiscountFree, torrentPayload(t, "Free.Movie"))
	tracker.add("11", "Paid.Movie", "NORMAL", torrentPayload(t, "Paid.Movie"))
	tracker.add("12", "Broken.Movie", mteam.DiscountFree, []byte("<html>expired</html>"))

	g, dir, h := newGrabber(t, tracker.client(t), nil, Options{RequireDetail: true, Free: true})
	h.Add("9")

	summary := g.Process(context.Background(), []string{"9", "10", "11", "12", "13", "10"})

	actions := make([]string, 0, len(summary.Results))
	for _, r := range summary.Results {
		actions = append(actions, r.TID+":"+r.Action+":"+r.Reason)
	}
	assert.Equal(t, []string{
		"9:skip:exist",
		"10:download:",
		"11:skip:!free",
		"12:fail:",
		"13:skip:!detail",
		"10:skip:exist",
	}, actions)
	assert.Equal(t, 1, summary.Downloaded)
	assert.Equal(t, 4, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)

	assert.FileExists(t, dir.TorrentPath("10"))
	assert.FileExists(t, dir.InfoPath("10"))
	assert.NoFileExists(t, dir.TorrentPath("11"))
	assert.NoFileExists(t, dir.TorrentPath("12"))
	assert.Equal(t, []string{"9", "10"}, h.TIDs())

	info, err := dir.ReadInfo("10")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "Free.Movie", info.Name)
}

func TestProcessDryRun(t *testing.T) {
	tracker := newFakeTracker(t)
	tracker.add("20", "Some.Show", mteam.DiscountFree, torrentPayload(t, "Some.Show"))

	g, dir, h := newGrabber(t, tracker.client(t), nil, Options{RequireDetail: true, DryRun: true})

	summary := g.Process(context.Background(), []string{"20"})
	assert.Equal(t, 1, summary.DryRun)
	assert.Equal(t, 0, summary.Downloaded)

	_, fetches := tracker.calls()
	assert.Equal(t, 0, fetches)
	assert.NoFileExists(t, dir.TorrentPath("20"))
	assert.NoFileExists(t, dir.InfoPath("20"))
	assert.Equal(t, 0, h.Len())
	assert.False(t, h.Dirty())
}

func TestProcessForce(t *testing.T) {
	tracker := newFakeTracker(t)
	tracker.add("30", "Again", mteam.DiscountFree, torrentPayload(t, "Again"))

	g, dir, h := newGrabber(t, tracker.client(t), nil, Options{Force: true})
	h.Add("30")

	summary := g.Process(context.Background(), []string{"30"})
	assert.Equal(t, 1, summary.Downloaded)
	assert.FileExists(t, dir.TorrentPath("30"))

	// Without verbose or filters no detail is fetched and no .info written
	details, _ := tracker.calls()
	assert.Equal(t, 0, details)
	assert.NoFileExists(t, dir.InfoPath("30"))

	// History is append-only and keeps the duplicate
	assert.Equal(t, []string{"30", "30"}, h.TIDs())
}

func TestProcessVerboseWithoutDetail(t *testing.T) {
	tracker := newFakeTracker(t)
	tracker.payloads["40"] = torrentPayload(t, "Hidden")

	g, dir, _ := newGrabber(t, tracker.client(t), nil, Options{Verbose: true})

	summary := g.Process(context.Background(), []string{"40"})
	assert.Equal(t, 1, summary.Downloaded)
	details, _ := tracker.calls()
	assert.Equal(t, 1, details)
	assert.FileExists(t, dir.TorrentPath("40"))
	assert.NoFileExists(t, dir.InfoPath("40"))
}

func TestProcessRequireDetail(t *testing.T) {
	tracker := newFakeTracker(t)
	tracker.add("70", "Feed.Item", "NORMAL", torrentPayload(t, "Feed.Item"))
	tracker.payloads["71"] = torrentPayload(t, "Feed.Hidden")

	g, dir, h := newGrabber(t, tracker.client(t), nil, Options{RequireDetail: true})

	summary := g.Process(context.Background(), []string{"70", "71"})
	require.Len(t, summary.Results, 2)
	assert.Equal(t, ActionDownload, summary.Results[0].Action)
	assert.Equal(t, ActionSkip, summary.Results[1].Action)
	assert.Equal(t, ReasonNoDetail, summary.Results[1].Reason)

	details, fetches := tracker.calls()
	assert.Equal(t, 2, details)
	assert.Equal(t, 1, fetches)

	assert.FileExists(t, dir.TorrentPath("70"))
	assert.FileExists(t, dir.InfoPath("70"))
	assert.NoFileExists(t, dir.TorrentPath("71"))
	assert.NoFileExists(t, dir.InfoPath("71"))
	assert.Equal(t, []string{"70"}, h.TIDs())
}

func TestProcessFilter(t *testing.T) {
	tracker := newFakeTracker(t)
	tracker.add("50", "Movie.2160p", mteam.DiscountFree, torrentPayload(t, "Movie.2160p"))
	tracker.add("51", "Movie.1080p", mteam.DiscountFree, torrentPayload(t, "Movie.1080p"))

	f, err := filter.Compile(`icontains(Name, "2160P")`)
	require.NoError(t, err)

	g, dir, _ := newGrabber(t, tracker.client(t), nil, Options{Filter: f})

	summary := g.Process(context.Background(), []string{"50", "51"})
	assert.Equal(t, 1, summary.Downloaded)
	assert.Equal(t, ReasonFilter, summary.Results[1].Reason)
	assert.FileExists(t, dir.TorrentPath("50"))
	assert.NoFileExists(t, dir.TorrentPath("51"))
}

func TestProcessWithAdder(t *testing.T) {
	tracker := newFakeTracker(t)
	tracker.add("60", "Pushed", mteam.DiscountFree, torrentPayload(t, "Pushed"))
	tracker.add("61", "Rejected", mteam.DiscountFree, torrentPayload(t, "Rejected"))

	adder := &fakeAdder{}
	g, dir, _ := newGrabber(t, tracker.client(t), adder, Options{})

	summary := g.Process(context.Background(), []string{"60"})
	assert.Equal(t, 1, summary.Downloaded)
	assert.Equal(t, []string{"60"}, adder.tids)
	assert.Equal(t, []string{filepath.Join(dir.Root(), "60.torrent")}, adder.paths)
	assert.NoFileExists(t, dir.TorrentPath("60"))
	assert.FileExists(t, dir.LoadedPath("60"))

	// A rejected upload leaves the .torrent behind
	adder.err = errors.New("unsupported media type")
	summary = g.Process(context.Background(), []string{"61"})
	assert.Equal(t, 1, summary.Downloaded)
	assert.FileExists(t, dir.TorrentPath("61"))
	assert.NoFileExists(t, dir.LoadedPath("61"))
}

func TestProcessCancelled(t *testing.T) {
	g, _, _ := newGrabber(t, nil, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := g.Process(ctx, []string{"1", "2"})
	assert.Equal(t, 2, summary.Failed)
}

func TestInspect(t *testing.T) {
	meta, err := inspect(torrentPayload(t, "Some.Name"))
	require.NoError(t, err)
	assert.Equal(t, "Some.Name", meta.Name)
	assert.Equal(t, int64(1024), meta.Length)
	assert.Len(t, meta.InfoHash, 40)

	_, err = inspect([]byte("<html></html>"))
	assert.Error(t, err)

	_, err = inspect([]byte("d8:announce3:fooe"))
	assert.Error(t, err)
}
