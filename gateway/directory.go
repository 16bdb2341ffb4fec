package gateway

import (
	"sync"

	"github.com/ruteri/nfc-attendance/interfaces"
)

// Directory caches tag to student name so attendance toasts need no ledger round trip.
type Directory struct {
	mu    sync.RWMutex
	names map[interfaces.TagID]string
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{names: make(map[interfaces.TagID]string)}
}

// Add records or replaces the name for a tag.
func (d *Directory) Add(tag interfaces.TagID, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[tag] = name
}

// Load merges replayed registrations into the cache. Tags missing from the replay
// keep their cached name, so a lagging replay cannot drop a fresh registration.
// When a tag repeats the later registration wins.
func (d *Directory) Load(students []interfaces.Student) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range students {
		d.names[s.TagID] = s.Name
	}
}

// Name returns the student name for a tag, or UnknownStudentName.
func (d *Directory) Name(tag interfaces.TagID) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if name, ok := d.names[tag]; ok {
		return name
	}
	return interfaces.UnknownStudentName
}

// Len returns the number of cached tags.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.names)
}
