package interfaces

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrStoreUnavailable is returned when the rendezvous store cannot be read or written.
	// The gateway reports it to the user; the agent degrades to attendance-only mode.
	ErrStoreUnavailable = errors.New("rendezvous store unavailable")

	// ErrInvalidStoreURI is returned when a rendezvous store URI is malformed or unsupported.
	ErrInvalidStoreURI = errors.New("invalid rendezvous store URI")
)

// RendezvousStore holds the registration rendezvous state shared by the gateway
// and the tag agent: a mode marker (present while a registration scan is pending)
// and a captured tag marker (present until the gateway consumes it).
//
// Every operation is a single critical section with respect to the others, even
// when the gateway and the agent run in different processes.
type RendezvousStore interface {
	// OpenWindow marks the store as waiting for a registration scan and discards
	// any previously captured tag. Calling it while already waiting resets the window.
	OpenWindow(ctx context.Context) error

	// TryCapture stores tag as the captured tag and closes the window if a
	// registration scan is pending. It reports whether the touch was consumed
	// by the registration flow; when false nothing was changed.
	TryCapture(ctx context.Context, tag TagID) (bool, error)

	// ConsumeCapture returns the captured tag, if any, and clears it.
	ConsumeCapture(ctx context.Context) (TagID, bool, error)

	// Reset clears both markers.
	Reset(ctx context.Context) error

	// Name returns an identifier for logging.
	Name() string

	io.Closer
}
