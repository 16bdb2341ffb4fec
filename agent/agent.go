package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ruteri/nfc-attendance/interfaces"
	"github.com/ruteri/nfc-attendance/metrics"
)

// Defaults for Config.
const (
	DefaultForwardTimeout = 3 * time.Second
	DefaultQueueSize      = 16
	DefaultStoreTimeout   = time.Second
)

// sourceRetryDelay paces retries after a tag source error other than a sense timeout.
const sourceRetryDelay = time.Second

// Outcome is what the agent did with one touch.
type Outcome int

const (
	// OutcomeCaptured means the touch was claimed by an open registration window.
	OutcomeCaptured Outcome = iota
	// OutcomeForwarded means the touch was queued for an attendance mark.
	OutcomeForwarded
	// OutcomeDropped means the forward queue was full and the touch was lost.
	OutcomeDropped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCaptured:
		return "captured"
	case OutcomeForwarded:
		return "forwarded"
	case OutcomeDropped:
		return "dropped"
	}
	return "unknown"
}

// Forwarder records attendance for a tag, usually by calling the gateway.
type Forwarder interface {
	MarkAttendance(ctx context.Context, tag interfaces.TagID) (*interfaces.AttendanceEvent, error)
}

// Config holds Agent settings. Zero values select defaults.
type Config struct {
	// ForwardTimeout bounds each attendance forward.
	ForwardTimeout time.Duration
	// QueueSize is how many touches may wait for forwarding.
	QueueSize int
	// StoreTimeout bounds each rendezvous store operation.
	StoreTimeout time.Duration
}

// Agent reads tag touches and routes each one either into an open registration
// window or to the gateway as attendance.
type Agent struct {
	cfg       Config
	source    interfaces.TagSource
	store     interfaces.RendezvousStore
	forwarder Forwarder
	log       *slog.Logger

	queue chan interfaces.TagID
}

// NewAgent creates an agent reading touches from source. Run starts it.
func NewAgent(cfg Config, source interfaces.TagSource, store interfaces.RendezvousStore, forwarder Forwarder, log *slog.Logger) *Agent {
	if cfg.ForwardTimeout <= 0 {
		cfg.ForwardTimeout = DefaultForwardTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}

	return &Agent{
		cfg:       cfg,
		source:    source,
		store:     store,
		forwarder: forwarder,
		log:       log,
		queue:     make(chan interfaces.TagID, cfg.QueueSize),
	}
}

// Run resets the rendezvous store, then senses touches until ctx is cancelled
// or the source is exhausted. Queued forwards are completed before Run returns.
func (a *Agent) Run(ctx context.Context) error {
	a.resetStore(ctx)

	done := make(chan struct{})
	var workerWG sync.WaitGroup
	workerWG.Add(1)
	go func() {
		defer workerWG.Done()
		a.forwardLoop(done)
	}()

	defer func() {
		close(done)
		workerWG.Wait()
		if err := a.source.Close(); err != nil {
			a.log.Warn("Failed to close tag source", "err", err)
		}
	}()

	a.log.Info("Agent started", "store", a.store.Name())

	for {
		tag, err := a.source.Next(ctx)
		switch {
		case err == nil:
			a.HandleTouch(ctx, tag)
		case errors.Is(err, interfaces.ErrNoTag):
		case errors.Is(err, io.EOF):
			a.log.Info("Tag source exhausted, stopping agent")
			return nil
		case ctx.Err() != nil:
			a.log.Info("Agent stopping")
			return nil
		default:
			a.log.Error("Failed to read tag", "err", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(sourceRetryDelay):
			}
		}
	}
}

// HandleTouch routes one touch. It never waits on the network: forwards are
// queued for the worker started by Run.
func (a *Agent) HandleTouch(ctx context.Context, tag interfaces.TagID) Outcome {
	storeCtx, cancel := context.WithTimeout(ctx, a.cfg.StoreTimeout)
	captured, err := a.store.TryCapture(storeCtx, tag)
	cancel()

	switch {
	case err != nil:
		// An unusable store must not cost the attendance mark.
		a.log.Error("Rendezvous store failed, treating touch as attendance", "err", err, "tag", tag)
		metrics.RecordStoreFailure()
	case captured:
		a.log.Info("Tag captured for registration", "tag", tag)
		metrics.RecordTouch(metrics.TouchCaptured)
		return OutcomeCaptured
	}

	select {
	case a.queue <- tag:
		metrics.RecordTouch(metrics.TouchForwarded)
		return OutcomeForwarded
	default:
		a.log.Error("Forward queue full, dropping touch", "tag", tag, "queueSize", a.cfg.QueueSize)
		metrics.RecordTouch(metrics.TouchDropped)
		return OutcomeDropped
	}
}

func (a *Agent) forwardLoop(done <-chan struct{}) {
	for {
		select {
		case tag := <-a.queue:
			a.forward(tag)
		case <-done:
			for {
				select {
				case tag := <-a.queue:
					a.forward(tag)
				default:
					return
				}
			}
		}
	}
}

func (a *Agent) forward(tag interfaces.TagID) {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ForwardTimeout)
	defer cancel()

	event, err := a.forwarder.MarkAttendance(ctx, tag)
	if err != nil {
		a.log.Error("Failed to forward attendance", "err", err, "tag", tag)
		metrics.RecordForwardFailure()
		return
	}
	a.log.Info("Attendance recorded", "tag", tag, "name", event.Name)
}

func (a *Agent) resetStore(ctx context.Context) {
	storeCtx, cancel := context.WithTimeout(ctx, a.cfg.StoreTimeout)
	defer cancel()

	if err := a.store.Reset(storeCtx); err != nil {
		a.log.Error("Failed to reset rendezvous store, registration capture may not work", "err", err, "store", a.store.Name())
		metrics.RecordStoreFailure()
	}
}
