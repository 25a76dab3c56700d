package server

import (
	"encoding/json"
	"sync"
	"time"
)

// Push is one request accepted by the fake endpoint.
type Push struct {
	ID       string          `json:"id"`
	Endpoint string          `json:"endpoint"`
	AlertID  string          `json:"alertId"`
	Audience string          `json:"audience"`
	Rich     bool            `json:"rich"`
	Received time.Time       `json:"received"`
	Body     json.RawMessage `json:"body"`
}

// Recorder keeps the last N pushes in memory.
type Recorder struct {
	mu    sync.Mutex
	buf   []Push
	next  int
	full  bool
	total int
}

func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = 100
	}
	return &Recorder{buf: make([]Push, size)}
}

func (r *Recorder) Add(p Push) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.next] = p
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
	r.total++
}

// Recent returns up to n pushes, newest first.
func (r *Recorder) Recent(n int) []Push {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.next
	if r.full {
		count = len(r.buf)
	}
	if n <= 0 || n > count {
		n = count
	}

	out := make([]Push, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}

// Find returns the newest push carrying alertID.
func (r *Recorder) Find(alertID string) (Push, bool) {
	for _, p := range r.Recent(0) {
		if p.AlertID == alertID {
			return p, true
		}
	}
	return Push{}, false
}

func (r *Recorder) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}
