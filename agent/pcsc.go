//go:build !nopcsc

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ebfe/scard"
	"github.com/ruteri/nfc-attendance/interfaces"
)

// DefaultPollTimeout bounds one wait for a card, so cancellation is noticed promptly.
const DefaultPollTimeout = 500 * time.Millisecond

// ErrNoReader is returned when no PC/SC reader is connected.
var ErrNoReader = errors.New("no PC/SC reader found")

// PCSCSource reads tag UIDs from a PC/SC contactless reader.
// A card held on the reader is reported once; it must be removed before it is reported again.
type PCSCSource struct {
	ctx         *scard.Context
	reader      string
	state       scard.StateFlag
	pollTimeout time.Duration
	log         *slog.Logger
}

// NewPCSCSource connects to the first reader whose name contains readerName,
// or to the first reader when readerName is empty.
func NewPCSCSource(readerName string, pollTimeout time.Duration, log *slog.Logger) (*PCSCSource, error) {
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}

	sctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("could not establish PC/SC context: %w", err)
	}

	readers, err := sctx.ListReaders()
	if err != nil || len(readers) == 0 {
		sctx.Release()
		if err == nil {
			err = ErrNoReader
		}
		return nil, fmt.Errorf("could not list readers: %w", err)
	}

	reader := ""
	for _, r := range readers {
		if readerName == "" || strings.Contains(r, readerName) {
			reader = r
			break
		}
	}
	if reader == "" {
		sctx.Release()
		return nil, fmt.Errorf("%w matching %q among %v", ErrNoReader, readerName, readers)
	}

	log.Info("Using PC/SC reader", "reader", reader)
	return &PCSCSource{
		ctx:         sctx,
		reader:      reader,
		state:       scard.StateUnaware,
		pollTimeout: pollTimeout,
		log:         log,
	}, nil
}

// Next waits up to the poll timeout for a newly presented card and returns its UID.
// It returns interfaces.ErrNoTag when no new card appeared.
func (p *PCSCSource) Next(ctx context.Context) (interfaces.TagID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	states := []scard.ReaderState{{Reader: p.reader, CurrentState: p.state}}
	if err := p.ctx.GetStatusChange(states, p.pollTimeout); err != nil {
		if errors.Is(err, scard.ErrTimeout) {
			return "", interfaces.ErrNoTag
		}
		return "", fmt.Errorf("could not wait for card: %w", err)
	}

	p.state = states[0].EventState &^ scard.StateChanged
	if p.state&scard.StatePresent == 0 {
		// Card removed or reader idle.
		return "", interfaces.ErrNoTag
	}

	return p.readUID()
}

func (p *PCSCSource) readUID() (interfaces.TagID, error) {
	card, err := p.ctx.Connect(p.reader, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return "", fmt.Errorf("could not connect to card: %w", err)
	}
	defer func() {
		if err := card.Disconnect(scard.LeaveCard); err != nil {
			p.log.Debug("Failed to disconnect card", "err", err)
		}
	}()

	rsp, err := card.Transmit(getUIDCommand)
	if err != nil {
		return "", fmt.Errorf("could not read UID: %w", err)
	}
	return parseUIDResponse(rsp)
}

// Close aborts a pending wait and releases the PC/SC context.
func (p *PCSCSource) Close() error {
	p.ctx.Cancel()
	return p.ctx.Release()
}
