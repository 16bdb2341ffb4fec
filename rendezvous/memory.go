package rendezvous

import (
	"context"
	"sync"

	"github.com/ruteri/nfc-attendance/interfaces"
)

// MemoryStore implements interfaces.RendezvousStore in process memory.
// It is only shared by components running in the same process.
type MemoryStore struct {
	mu       sync.Mutex
	waiting  bool
	captured interfaces.TagID
}

// NewMemoryStore creates an idle in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// OpenWindow starts waiting for a capture and drops any unconsumed one.
func (s *MemoryStore) OpenWindow(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.waiting = true
	s.captured = ""
	return nil
}

// TryCapture stores tag when a window is open and closes the window.
func (s *MemoryStore) TryCapture(ctx context.Context, tag interfaces.TagID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.waiting {
		return false, nil
	}
	s.captured = tag
	s.waiting = false
	return true, nil
}

// ConsumeCapture returns and clears the captured tag.
func (s *MemoryStore) ConsumeCapture(ctx context.Context) (interfaces.TagID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tag := s.captured
	s.captured = ""
	return tag, tag != "", nil
}

// Reset closes the window and drops any capture.
func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.waiting = false
	s.captured = ""
	return nil
}

// Name identifies the backend.
func (s *MemoryStore) Name() string {
	return "memory"
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
