package interfaces

import (
	"context"
	"errors"
)

var (
	// ErrNoTag is returned by a TagSource when a sensing period ended without a touch.
	ErrNoTag = errors.New("no tag sensed")

	// ErrInvalidTagID is returned for empty or malformed tag identifiers.
	ErrInvalidTagID = errors.New("invalid tag id")
)

// TagSource produces tag touches, one per call to Next.
//
// Next returns ErrNoTag when a sensing period elapsed without a touch and io.EOF
// once the source is exhausted (for example an operator quit command).
type TagSource interface {
	Next(ctx context.Context) (TagID, error)
	Close() error
}
