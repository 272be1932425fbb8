package dispatcher

import (
	"path/filepath"
	"sync"
	"time"
)

// DefaultHistorySize bounds the upload history ring buffer.
const DefaultHistorySize = 50

// Record is one completed upload. History is observational only; nothing
// reads it back for correctness.
type Record struct {
	FileName   string
	LocalPath  string
	RemotePath string
	Timestamp  time.Time
	Action     string
	RemoteID   int64
}

// History is a bounded, append-only ring of upload records. The oldest
// entry is evicted on overflow.
type History struct {
	mu    sync.Mutex
	max   int
	items []Record
}

func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &History{max: max}
}

func (h *History) Append(localPath, remotePath, action string, remoteID int64, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = append(h.items, Record{
		FileName:   filepath.Base(localPath),
		LocalPath:  localPath,
		RemotePath: remotePath,
		Timestamp:  at,
		Action:     action,
		RemoteID:   remoteID,
	})
	if len(h.items) > h.max {
		h.items = h.items[len(h.items)-h.max:]
	}
}

// Items returns a copy, newest last.
func (h *History) Items() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Record, len(h.items))
	copy(out, h.items)
	return out
}
