package search

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid calls: the function runs once, after duration
// has elapsed with no new calls.
type Debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	duration time.Duration
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{duration: duration}
}

// Debounce schedules fn, cancelling any previously scheduled call.
func (d *Debouncer) Debounce(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, fn)
}

// Cancel drops any pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// QueryDebouncer runs the last submitted query against a Searcher once the
// keystroke stream goes quiet. Results are delivered to the handler given
// at Submit time; superseded queries never reach their handler.
type QueryDebouncer struct {
	searcher Searcher
	limit    int
	deb      *Debouncer

	mu      sync.Mutex
	pending string
	seq     int
}

// NewQueryDebouncer wires a Searcher behind a quiet period. A zero duration
// falls back to DefaultDebounce.
func NewQueryDebouncer(s Searcher, limit int, duration time.Duration) *QueryDebouncer {
	if duration <= 0 {
		duration = DefaultDebounce
	}
	return &QueryDebouncer{searcher: s, limit: limit, deb: NewDebouncer(duration)}
}

// Submit records query as the latest input and schedules its execution.
// handler is called with the results unless a newer query arrives first.
func (q *QueryDebouncer) Submit(query string, handler func([]Result, error)) {
	q.mu.Lock()
	q.pending = query
	q.seq++
	seq := q.seq
	q.mu.Unlock()

	q.deb.Debounce(func() {
		q.mu.Lock()
		current := q.seq
		pending := q.pending
		q.mu.Unlock()
		if seq != current {
			return
		}
		handler(q.searcher.Search(pending, q.limit))
	})
}

// Cancel drops any pending query.
func (q *QueryDebouncer) Cancel() {
	q.deb.Cancel()
}
