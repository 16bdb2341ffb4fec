package gateway

import (
	"sync"

	"github.com/ruteri/nfc-attendance/interfaces"
)

// DefaultRecentCapacity is how many confirmed attendance events the gateway keeps.
const DefaultRecentCapacity = 20

// RecentEvents is a fixed-capacity ring of confirmed attendance events.
// Once full, each append evicts the oldest event.
type RecentEvents struct {
	mu    sync.Mutex
	buf   []interfaces.AttendanceEvent
	start int
	size  int
}

// NewRecentEvents creates an empty ring; a non-positive capacity selects DefaultRecentCapacity.
func NewRecentEvents(capacity int) *RecentEvents {
	if capacity <= 0 {
		capacity = DefaultRecentCapacity
	}
	return &RecentEvents{buf: make([]interfaces.AttendanceEvent, capacity)}
}

// Append adds an event, evicting the oldest one when the ring is full.
func (r *RecentEvents) Append(event interfaces.AttendanceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = event
		r.size++
		return
	}

	r.buf[r.start] = event
	r.start = (r.start + 1) % len(r.buf)
}

// Since returns the events with a timestamp strictly greater than since, oldest first.
func (r *RecentEvents) Since(since float64) []interfaces.AttendanceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := make([]interfaces.AttendanceEvent, 0, r.size)
	for i := 0; i < r.size; i++ {
		event := r.buf[(r.start+i)%len(r.buf)]
		if event.Timestamp > since {
			events = append(events, event)
		}
	}
	return events
}

// Len returns the number of events held.
func (r *RecentEvents) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}
