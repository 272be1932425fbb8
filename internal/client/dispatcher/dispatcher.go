// Package dispatcher turns raw save events into at most one upload per
// file per quiet period.
//
// Per physical path the state machine is
// Idle -> Debouncing -> InFlight -> {Succeeded, Failed} -> Idle. A save
// during Debouncing cancels and re-arms the timer (last write wins, earlier
// in-window saves are discarded, not merged). A save during InFlight is
// parked and re-armed when the running upload finishes, so two uploads of
// the same path never overlap. Distinct paths are fully independent.
package dispatcher

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/suitesync/internal/client/pathmap"
	"github.com/dmitrijs2005/suitesync/internal/common"
	"github.com/dmitrijs2005/suitesync/internal/logging"
	"github.com/dmitrijs2005/suitesync/internal/restlet"
)

// State labels for status events.
type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateInFlight
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDebouncing:
		return "debouncing"
	case StateInFlight:
		return "uploading"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Event is delivered to the status listener on every transition.
type Event struct {
	PhysicalPath string
	RemotePath   string
	State        State
	Action       string
	RemoteID     int64
	Err          error
}

// Uploader is the slice of the restlet client the dispatcher needs.
type Uploader interface {
	UploadFile(ctx context.Context, remotePath string, content []byte, description string) (*restlet.UploadResponse, error)
}

const (
	defaultDebounce   = 300 * time.Millisecond
	defaultResetDelay = 3 * time.Second
)

// Dispatcher owns the per-path timer map. Instances are independent, so
// multiple workspaces can run their own dispatchers without interference.
type Dispatcher struct {
	uploader   Uploader
	logger     logging.Logger
	debounce   time.Duration
	buildWait  time.Duration
	resetDelay time.Duration
	history    *History
	listener   func(Event)

	mu       sync.Mutex
	timers   map[string]*time.Timer
	inflight map[string]bool
	parked   map[string]pathmap.Target
	failed   map[string]pathmap.Target

	wg sync.WaitGroup
}

type Option func(*Dispatcher)

// WithDebounce sets the quiet period before an upload fires.
func WithDebounce(d time.Duration) Option {
	return func(dp *Dispatcher) {
		if d > 0 {
			dp.debounce = d
		}
	}
}

// WithBuildWait sets the extra wait applied to remapped build outputs
// before checking they exist.
func WithBuildWait(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.buildWait = d }
}

// WithStatusResetDelay sets how long terminal states stay visible before
// the path reports Idle again.
func WithStatusResetDelay(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.resetDelay = d }
}

// WithListener registers the status callback. Events arrive from upload
// goroutines; the listener must be safe for concurrent use.
func WithListener(fn func(Event)) Option {
	return func(dp *Dispatcher) { dp.listener = fn }
}

// WithHistory replaces the default 50-entry history.
func WithHistory(h *History) Option {
	return func(dp *Dispatcher) { dp.history = h }
}

func New(uploader Uploader, logger logging.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		uploader:   uploader,
		logger:     logger,
		debounce:   defaultDebounce,
		resetDelay: defaultResetDelay,
		history:    NewHistory(DefaultHistorySize),
		listener:   func(Event) {},
		timers:     make(map[string]*time.Timer),
		inflight:   make(map[string]bool),
		parked:     make(map[string]pathmap.Target),
		failed:     make(map[string]pathmap.Target),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// History exposes the upload record ring.
func (d *Dispatcher) History() *History {
	return d.history
}

// OnSave arms (or re-arms) the debounce timer for the target's physical
// path. A burst of saves within the window collapses into one upload of
// whatever the file contains when the timer fires.
func (d *Dispatcher) OnSave(ctx context.Context, target pathmap.Target) {
	d.mu.Lock()
	defer d.mu.Unlock()

	path := target.PhysicalPath
	if t, ok := d.timers[path]; ok {
		t.Stop()
	}
	if d.inflight[path] {
		// An upload for this path is running; park the save and re-arm
		// once it completes. The running call is never cancelled.
		d.parked[path] = target
		return
	}

	d.emit(Event{PhysicalPath: path, RemotePath: target.RemotePath, State: StateDebouncing})
	d.timers[path] = time.AfterFunc(d.debounce, func() {
		d.fire(ctx, target)
	})
}

// Retry re-runs the last failed upload for path without re-resolving it.
// Returns false when there is nothing to retry.
func (d *Dispatcher) Retry(ctx context.Context, path string) bool {
	d.mu.Lock()
	target, ok := d.failed[path]
	d.mu.Unlock()
	if !ok {
		return false
	}
	d.OnSave(ctx, target)
	return true
}

// Close stops pending timers. In-flight uploads run to completion; Close
// blocks until they have.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	for path, t := range d.timers {
		t.Stop()
		delete(d.timers, path)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// fire moves a path from Debouncing to InFlight and runs the upload in its
// own goroutine. The path is marked inflight before the goroutine starts so
// a racing save parks instead of double-firing.
func (d *Dispatcher) fire(ctx context.Context, target pathmap.Target) {
	path := target.PhysicalPath

	d.mu.Lock()
	delete(d.timers, path)
	if d.inflight[path] {
		d.parked[path] = target
		d.mu.Unlock()
		return
	}
	d.inflight[path] = true
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.finish(ctx, target, d.upload(ctx, target))
	}()
}

// upload performs the InFlight stage and returns the terminal event.
func (d *Dispatcher) upload(ctx context.Context, target pathmap.Target) Event {
	path := target.PhysicalPath
	ev := Event{PhysicalPath: path, RemotePath: target.RemotePath}

	if target.WasRemapped && d.buildWait > 0 {
		select {
		case <-time.After(d.buildWait):
		case <-ctx.Done():
			ev.State = StateFailed
			ev.Err = ctx.Err()
			return ev
		}
	}

	if target.WasRemapped {
		if _, err := os.Stat(path); err != nil {
			ev.State = StateFailed
			ev.Err = fmt.Errorf("%w: %s", common.ErrBuildOutputMissing, path)
			return ev
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		ev.State = StateFailed
		ev.Err = fmt.Errorf("read %s: %w", path, err)
		return ev
	}

	d.emit(Event{PhysicalPath: path, RemotePath: target.RemotePath, State: StateInFlight})

	resp, err := d.uploader.UploadFile(ctx, target.RemotePath, content, "")
	if err != nil {
		ev.State = StateFailed
		ev.Err = err
		return ev
	}

	ev.State = StateSucceeded
	ev.Action = resp.Action
	ev.RemoteID = resp.FileID
	return ev
}

// finish records the terminal state, returns the path to Idle, and re-arms
// any save parked while the upload ran.
func (d *Dispatcher) finish(ctx context.Context, target pathmap.Target, ev Event) {
	path := target.PhysicalPath

	switch ev.State {
	case StateSucceeded:
		d.history.Append(path, target.RemotePath, ev.Action, ev.RemoteID, time.Now())
		d.logger.Info(ctx, "upload complete",
			"path", path, "remote", target.RemotePath, "action", ev.Action, "id", ev.RemoteID)
	case StateFailed:
		d.logger.Error(ctx, "upload failed", "path", path, "error", ev.Err)
	}

	d.mu.Lock()
	delete(d.inflight, path)
	if ev.State == StateFailed {
		d.failed[path] = target
	} else {
		delete(d.failed, path)
	}
	parked, hasParked := d.parked[path]
	delete(d.parked, path)
	d.mu.Unlock()

	d.emit(ev)

	if hasParked {
		d.OnSave(ctx, parked)
		return
	}

	if d.resetDelay > 0 {
		time.AfterFunc(d.resetDelay, func() {
			d.emit(Event{PhysicalPath: path, RemotePath: target.RemotePath, State: StateIdle})
		})
	} else {
		d.emit(Event{PhysicalPath: path, RemotePath: target.RemotePath, State: StateIdle})
	}
}

func (d *Dispatcher) emit(ev Event) {
	d.listener(ev)
}
