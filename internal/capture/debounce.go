package capture

import (
	"sync"
	"time"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
)

// pendingInput is one element's not-yet-reported input value.
type pendingInput struct {
	event schemas.InteractionEvent
	timer *time.Timer
	seq   uint64
}

// debouncer coalesces per-keystroke input events into one event per
// element, reported after a quiet window. Keys are the snapshot's
// stable identity, never a live element reference. A newer keystroke
// supersedes the pending one (cancelling its timer); commits and
// flushes deliver immediately. The emit callback must not block.
type debouncer struct {
	window time.Duration
	emit   func(schemas.InteractionEvent)

	mu      sync.Mutex
	pending map[string]*pendingInput
	seq     uint64
	stopped bool
}

func newDebouncer(window time.Duration, emit func(schemas.InteractionEvent)) *debouncer {
	if window <= 0 {
		window = 800 * time.Millisecond
	}
	return &debouncer{
		window:  window,
		emit:    emit,
		pending: make(map[string]*pendingInput),
	}
}

// Observe registers an input event. Commit events flush the element's
// pending value path immediately; plain keystrokes (re)arm the quiet
// window with the latest value.
func (d *debouncer) Observe(ev schemas.InteractionEvent) {
	key := ev.Element.Identity()

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}

	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
		delete(d.pending, key)
	}

	if ev.Commit {
		d.mu.Unlock()
		d.emit(ev)
		return
	}

	d.seq++
	entry := &pendingInput{event: ev, seq: d.seq}
	entry.timer = time.AfterFunc(d.window, func() {
		d.fire(key, entry.seq)
	})
	d.pending[key] = entry
	d.mu.Unlock()
}

// fire delivers a pending value once its quiet window elapsed. The
// sequence check discards stale timer callbacks that lost the race
// with a superseding keystroke.
func (d *debouncer) fire(key string, seq uint64) {
	d.mu.Lock()
	entry, ok := d.pending[key]
	if !ok || entry.seq != seq {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()
	d.emit(entry.event)
}

// Flush delivers every pending value right away, in arrival order.
// Called before a click or navigation is reported and on stop, so a
// trailing half-typed value always precedes the event that follows it.
func (d *debouncer) Flush() {
	d.mu.Lock()
	entries := make([]*pendingInput, 0, len(d.pending))
	for key, entry := range d.pending {
		entry.timer.Stop()
		entries = append(entries, entry)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	// Arrival order, not map order.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].seq > entries[j].seq; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
	for _, entry := range entries {
		d.emit(entry.event)
	}
}

// Stop flushes pending values and rejects everything after.
func (d *debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.Flush()
}
