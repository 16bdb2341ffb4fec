//go:build nopcsc

package agent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ruteri/nfc-attendance/interfaces"
)

// DefaultPollTimeout matches the PC/SC build.
const DefaultPollTimeout = 500 * time.Millisecond

// ErrNoReader is returned by NewPCSCSource in builds without PC/SC support.
var ErrNoReader = errors.New("PC/SC support not built in (nopcsc)")

// PCSCSource is unavailable in nopcsc builds.
type PCSCSource struct{}

// NewPCSCSource always fails in nopcsc builds, so callers fall back to the console.
func NewPCSCSource(readerName string, pollTimeout time.Duration, log *slog.Logger) (*PCSCSource, error) {
	return nil, ErrNoReader
}

// Next always reports ErrNoReader.
func (p *PCSCSource) Next(ctx context.Context) (interfaces.TagID, error) {
	return "", ErrNoReader
}

// Close is a no-op.
func (p *PCSCSource) Close() error {
	return nil
}
