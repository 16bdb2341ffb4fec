package agent

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ruteri/nfc-attendance/interfaces"
)

// Tag source kinds accepted by NewTagSource.
const (
	SourceAuto    = "auto"
	SourcePCSC    = "pcsc"
	SourceConsole = "console"
)

// ErrUnknownSource is returned by NewTagSource for an unsupported kind.
var ErrUnknownSource = errors.New("unknown tag source")

// SourceOptions configures NewTagSource.
type SourceOptions struct {
	// Reader selects a PC/SC reader by name substring. Empty picks the first one.
	Reader      string
	PollTimeout time.Duration

	// In and Out back the console simulator.
	In  io.Reader
	Out io.Writer
}

// NewTagSource picks the tag source once at startup. SourceAuto uses a PC/SC
// reader when one is available and the console simulator otherwise.
func NewTagSource(kind string, opts SourceOptions, log *slog.Logger) (interfaces.TagSource, error) {
	switch kind {
	case SourcePCSC:
		return newPCSC(opts, log)
	case SourceConsole:
		return NewConsoleSource(opts.In, opts.Out), nil
	case SourceAuto:
		source, err := newPCSC(opts, log)
		if err != nil {
			log.Warn("No NFC reader available, falling back to console simulator", "err", err)
			return NewConsoleSource(opts.In, opts.Out), nil
		}
		return source, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, kind)
	}
}

func newPCSC(opts SourceOptions, log *slog.Logger) (interfaces.TagSource, error) {
	source, err := NewPCSCSource(opts.Reader, opts.PollTimeout, log)
	if err != nil {
		return nil, err
	}
	return source, nil
}
