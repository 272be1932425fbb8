package dispatcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/suitesync/internal/client/pathmap"
	"github.com/dmitrijs2005/suitesync/internal/common"
	"github.com/dmitrijs2005/suitesync/internal/logging"
	"github.com/dmitrijs2005/suitesync/internal/restlet"
)

type uploadCall struct {
	remotePath string
	content    string
}

type fakeUploader struct {
	mu            sync.Mutex
	calls         []uploadCall
	running       map[string]int
	maxConcurrent int
	delay         time.Duration
	failPaths     map[string]error
	nextID        int64
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{running: map[string]int{}, failPaths: map[string]error{}}
}

func (f *fakeUploader) UploadFile(ctx context.Context, remotePath string, content []byte, description string) (*restlet.UploadResponse, error) {
	f.mu.Lock()
	f.running[remotePath]++
	if f.running[remotePath] > f.maxConcurrent {
		f.maxConcurrent = f.running[remotePath]
	}
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.running[remotePath]--
	if err, ok := f.failPaths[remotePath]; ok {
		return nil, err
	}
	f.calls = append(f.calls, uploadCall{remotePath: remotePath, content: string(content)})
	f.nextID++
	return &restlet.UploadResponse{Success: true, FileID: f.nextID, Action: restlet.ActionCreate}, nil
}

func (f *fakeUploader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
	ch     chan Event
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{ch: make(chan Event, 128)}
}

func (r *eventRecorder) listen(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.ch <- ev
}

// waitFor blocks until an event in the given state arrives for path.
func (r *eventRecorder) waitFor(t *testing.T, path string, state State) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-r.ch:
			if ev.PhysicalPath == path && ev.State == state {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s on %s", state, path)
		}
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func target(physical, remote string, remapped bool) pathmap.Target {
	return pathmap.Target{PhysicalPath: physical, RemotePath: remote, WasRemapped: remapped}
}

func TestOnSave_CoalescesBurstIntoOneUpload(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.js", "v1")

	up := newFakeUploader()
	rec := newEventRecorder()
	d := New(up, testLogger(),
		WithDebounce(40*time.Millisecond),
		WithStatusResetDelay(0),
		WithListener(rec.listen),
	)
	defer d.Close()

	ctx := context.Background()
	tgt := target(p, "/SuiteScripts/a.js", false)

	d.OnSave(ctx, tgt)
	d.OnSave(ctx, tgt)
	require.NoError(t, os.WriteFile(p, []byte("v3"), 0o644))
	d.OnSave(ctx, tgt)

	rec.waitFor(t, p, StateSucceeded)

	assert.Equal(t, 1, up.callCount(), "burst must collapse into one upload")
	assert.Equal(t, "v3", up.calls[0].content, "content read at fire time wins")
}

func TestOnSave_DistinctPathsAreIndependent(t *testing.T) {
	dir := t.TempDir()
	pa := writeFile(t, dir, "a.js", "aaa")
	pb := writeFile(t, dir, "b.js", "bbb")

	up := newFakeUploader()
	up.failPaths["/SuiteScripts/a.js"] = errors.New("boom")
	rec := newEventRecorder()
	d := New(up, testLogger(),
		WithDebounce(10*time.Millisecond),
		WithStatusResetDelay(0),
		WithListener(rec.listen),
	)
	defer d.Close()

	ctx := context.Background()
	d.OnSave(ctx, target(pa, "/SuiteScripts/a.js", false))
	d.OnSave(ctx, target(pb, "/SuiteScripts/b.js", false))

	failed := rec.waitFor(t, pa, StateFailed)
	succeeded := rec.waitFor(t, pb, StateSucceeded)

	assert.Error(t, failed.Err)
	assert.Equal(t, int64(1), succeeded.RemoteID)
	assert.Equal(t, 1, up.callCount())
}

func TestOnSave_MissingBuildOutputFailsWithoutNetwork(t *testing.T) {
	dir := t.TempDir()

	up := newFakeUploader()
	rec := newEventRecorder()
	d := New(up, testLogger(),
		WithDebounce(10*time.Millisecond),
		WithBuildWait(10*time.Millisecond),
		WithStatusResetDelay(0),
		WithListener(rec.listen),
	)
	defer d.Close()

	missing := filepath.Join(dir, "dist", "a.js")
	d.OnSave(context.Background(), target(missing, "/SuiteScripts/a.js", true))

	ev := rec.waitFor(t, missing, StateFailed)
	assert.ErrorIs(t, ev.Err, common.ErrBuildOutputMissing)
	assert.Equal(t, 0, up.callCount(), "no network call may happen")
}

func TestOnSave_SaveDuringInFlightParksAndReruns(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.js", "first")

	up := newFakeUploader()
	up.delay = 80 * time.Millisecond
	rec := newEventRecorder()
	d := New(up, testLogger(),
		WithDebounce(10*time.Millisecond),
		WithStatusResetDelay(0),
		WithListener(rec.listen),
	)
	defer d.Close()

	ctx := context.Background()
	tgt := target(p, "/SuiteScripts/a.js", false)

	d.OnSave(ctx, tgt)
	rec.waitFor(t, p, StateInFlight)

	// Save again while the first upload is still running.
	require.NoError(t, os.WriteFile(p, []byte("second"), 0o644))
	d.OnSave(ctx, tgt)

	rec.waitFor(t, p, StateSucceeded)
	rec.waitFor(t, p, StateSucceeded)

	assert.Equal(t, 2, up.callCount())
	assert.Equal(t, 1, up.maxConcurrent, "uploads of one path must never overlap")
	assert.Equal(t, "second", up.calls[1].content)
}

func TestRetry_ReusesFailedTarget(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.js", "content")

	up := newFakeUploader()
	up.failPaths["/SuiteScripts/a.js"] = errors.New("timeout")
	rec := newEventRecorder()
	d := New(up, testLogger(),
		WithDebounce(10*time.Millisecond),
		WithStatusResetDelay(0),
		WithListener(rec.listen),
	)
	defer d.Close()

	ctx := context.Background()
	assert.False(t, d.Retry(ctx, p), "nothing to retry yet")

	d.OnSave(ctx, target(p, "/SuiteScripts/a.js", false))
	rec.waitFor(t, p, StateFailed)

	up.mu.Lock()
	delete(up.failPaths, "/SuiteScripts/a.js")
	up.mu.Unlock()

	require.True(t, d.Retry(ctx, p))
	ev := rec.waitFor(t, p, StateSucceeded)
	assert.Equal(t, "/SuiteScripts/a.js", ev.RemotePath)

	assert.False(t, d.Retry(ctx, p), "success clears the retry slot")
}

func TestFailureAlwaysReturnsToIdle(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.js", "content")

	up := newFakeUploader()
	up.failPaths["/SuiteScripts/a.js"] = errors.New("boom")
	rec := newEventRecorder()
	d := New(up, testLogger(),
		WithDebounce(10*time.Millisecond),
		WithStatusResetDelay(0),
		WithListener(rec.listen),
	)
	defer d.Close()

	ctx := context.Background()
	tgt := target(p, "/SuiteScripts/a.js", false)

	d.OnSave(ctx, tgt)
	rec.waitFor(t, p, StateFailed)
	rec.waitFor(t, p, StateIdle)

	// The path is not stuck: a later save triggers a fresh cycle.
	up.mu.Lock()
	delete(up.failPaths, "/SuiteScripts/a.js")
	up.mu.Unlock()

	d.OnSave(ctx, tgt)
	rec.waitFor(t, p, StateSucceeded)
}

func TestSuccessAppendsHistory(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "lib/util.js", "x")

	up := newFakeUploader()
	rec := newEventRecorder()
	d := New(up, testLogger(),
		WithDebounce(10*time.Millisecond),
		WithStatusResetDelay(0),
		WithListener(rec.listen),
	)
	defer d.Close()

	d.OnSave(context.Background(), target(p, "/SuiteScripts/lib/util.js", false))
	rec.waitFor(t, p, StateSucceeded)

	items := d.History().Items()
	require.Len(t, items, 1)
	assert.Equal(t, "util.js", items[0].FileName)
	assert.Equal(t, p, items[0].LocalPath)
	assert.Equal(t, "/SuiteScripts/lib/util.js", items[0].RemotePath)
	assert.Equal(t, restlet.ActionCreate, items[0].Action)
	assert.Equal(t, int64(1), items[0].RemoteID)
}

func TestHistory_EvictsOldestOnOverflow(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Append(filepath.Join("/ws", "f"+string(rune('0'+i))+".js"), "/r", restlet.ActionUpdate, int64(i), time.Now())
	}

	items := h.Items()
	require.Len(t, items, 3)
	assert.Equal(t, int64(2), items[0].RemoteID)
	assert.Equal(t, int64(4), items[2].RemoteID)
}
