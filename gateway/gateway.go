package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/ruteri/nfc-attendance/interfaces"
	"github.com/ruteri/nfc-attendance/ledger"
	"github.com/ruteri/nfc-attendance/metrics"
)

// DefaultTxTimeout bounds a ledger transaction from submission to receipt.
const DefaultTxTimeout = 60 * time.Second

// ErrMissingName is returned when registering a student without a name.
var ErrMissingName = errors.New("student name is required")

// Config holds Gateway settings. Zero values select defaults.
type Config struct {
	// TxTimeout bounds each ledger transaction. The transaction runs detached
	// from the caller's context, so a disconnecting client does not abort it.
	TxTimeout time.Duration

	// RecentCapacity is the size of the recent attendance ring.
	RecentCapacity int

	// Clock stamps attendance events. Defaults to time.Now.
	Clock func() time.Time
}

// AttendanceSummary aggregates a tag's attendance history.
type AttendanceSummary struct {
	Total      int     `json:"total"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Percentage float64 `json:"percentage"`
}

// History is a tag's attendance history with the student name from the directory.
type History struct {
	TagID   interfaces.TagID              `json:"tag_id"`
	Name    string                        `json:"name"`
	Records []interfaces.AttendanceRecord `json:"records"`
	Summary AttendanceSummary             `json:"summary"`
}

// Health reports ledger reachability.
type Health struct {
	LedgerConnected bool   `json:"ledger_connected"`
	ContractAddress string `json:"contract_address"`
	Error           string `json:"error,omitempty"`
}

// Gateway is the attendance service behind the web UI: it drives the registration
// rendezvous, relays marks and registrations to the ledger and keeps the recent
// attendance feed.
type Gateway struct {
	cfg       Config
	ledger    interfaces.AttendanceLedger
	store     interfaces.RendezvousStore
	recent    *RecentEvents
	directory *Directory
	log       *slog.Logger

	newAccount func() (*ledger.StudentAccount, error)
}

// NewGateway wires a gateway to its ledger client and rendezvous store.
func NewGateway(cfg Config, attendanceLedger interfaces.AttendanceLedger, store interfaces.RendezvousStore, log *slog.Logger) *Gateway {
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = DefaultTxTimeout
	}
	if cfg.RecentCapacity <= 0 {
		cfg.RecentCapacity = DefaultRecentCapacity
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Gateway{
		cfg:        cfg,
		ledger:     attendanceLedger,
		store:      store,
		recent:     NewRecentEvents(cfg.RecentCapacity),
		directory:  NewDirectory(),
		log:        log,
		newAccount: ledger.NewStudentAccount,
	}
}

// OpenRegistrationWindow diverts the next tag touch to registration.
func (g *Gateway) OpenRegistrationWindow(ctx context.Context) error {
	if err := g.store.OpenWindow(ctx); err != nil {
		g.log.Error("Failed to open registration window", "err", err, "store", g.store.Name())
		return err
	}
	g.log.Info("Registration window opened", "store", g.store.Name())
	return nil
}

// PollCapturedTag returns the tag captured by the open window, consuming it.
// ok is false when nothing has been captured yet.
func (g *Gateway) PollCapturedTag(ctx context.Context) (interfaces.TagID, bool, error) {
	tag, ok, err := g.store.ConsumeCapture(ctx)
	if err != nil {
		g.log.Error("Failed to poll captured tag", "err", err, "store", g.store.Name())
		return "", false, err
	}
	if ok {
		g.log.Info("Captured tag claimed for registration", "tag", tag)
	}
	return tag, ok, nil
}

// RegisterStudent creates a fresh ledger account for the student and binds it to the tag.
func (g *Gateway) RegisterStudent(ctx context.Context, tag interfaces.TagID, name string) (*interfaces.Registration, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}
	if tag == "" {
		return nil, fmt.Errorf("%w: empty", interfaces.ErrInvalidTagID)
	}

	account, err := g.newAccount()
	if err != nil {
		return nil, err
	}

	txCtx, cancel := g.txContext(ctx)
	defer cancel()

	start := time.Now()
	receipt, err := g.ledger.RegisterStudent(txCtx, account.Address, tag, name)
	metrics.RecordRegistration(ledgerResult(err), time.Since(start))
	if err != nil {
		g.log.Error("Failed to register student", "err", err, "tag", tag)
		return nil, err
	}

	g.directory.Add(tag, name)

	registration := &interfaces.Registration{
		TagID:          tag,
		Name:           name,
		StudentAddress: account.Address.Hex(),
	}
	if receipt != nil {
		registration.TxHash = receipt.TxHash.Hex()
	}

	g.log.Info("Student registered", "tag", tag, "studentAddress", registration.StudentAddress, "txHash", registration.TxHash)
	return registration, nil
}

// MarkAttendance records attendance on the ledger and, once confirmed, appends
// the event to the recent feed. Nothing is appended when the ledger fails.
func (g *Gateway) MarkAttendance(ctx context.Context, tag interfaces.TagID) (interfaces.AttendanceEvent, error) {
	if tag == "" {
		return interfaces.AttendanceEvent{}, fmt.Errorf("%w: empty", interfaces.ErrInvalidTagID)
	}

	txCtx, cancel := g.txContext(ctx)
	defer cancel()

	start := time.Now()
	_, err := g.ledger.MarkAttendance(txCtx, tag)
	metrics.RecordMark(ledgerResult(err), time.Since(start))
	if err != nil {
		g.log.Error("Failed to mark attendance", "err", err, "tag", tag)
		return interfaces.AttendanceEvent{}, err
	}

	event := interfaces.AttendanceEvent{
		TagID:     tag,
		Name:      g.directory.Name(tag),
		Timestamp: interfaces.UnixSeconds(g.cfg.Clock()),
	}
	g.recent.Append(event)

	g.log.Info("Attendance marked", "tag", tag, "name", event.Name)
	return event, nil
}

// RecentEvents returns buffered events strictly newer than since, oldest first.
func (g *Gateway) RecentEvents(since float64) []interfaces.AttendanceEvent {
	return g.recent.Since(since)
}

// ViewHistory fetches a tag's attendance history and summarizes it.
func (g *Gateway) ViewHistory(ctx context.Context, tag interfaces.TagID) (*History, error) {
	records, err := g.ledger.AttendanceHistory(ctx, tag)
	if err != nil {
		g.log.Error("Failed to fetch attendance history", "err", err, "tag", tag)
		return nil, err
	}

	return &History{
		TagID:   tag,
		Name:    g.directory.Name(tag),
		Records: records,
		Summary: Summarize(records),
	}, nil
}

// ListStudents returns every registered student, one entry per tag, and merges
// the result into the directory.
func (g *Gateway) ListStudents(ctx context.Context) ([]interfaces.Student, error) {
	students, err := g.ledger.RegisteredStudents(ctx)
	if err != nil {
		g.log.Error("Failed to list students", "err", err)
		return nil, err
	}

	g.directory.Load(students)
	return dedupeByTag(students), nil
}

// LoadDirectory replays the registrations from the ledger into the name cache.
func (g *Gateway) LoadDirectory(ctx context.Context) (int, error) {
	students, err := g.ledger.RegisteredStudents(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not load student directory: %w", err)
	}

	g.directory.Load(students)
	g.log.Info("Student directory loaded", "students", g.directory.Len())
	return g.directory.Len(), nil
}

// Health checks whether the ledger is reachable.
func (g *Gateway) Health(ctx context.Context) Health {
	health := Health{ContractAddress: g.ledger.Address().Hex()}
	if err := g.ledger.Ping(ctx); err != nil {
		health.Error = err.Error()
		return health
	}
	health.LedgerConnected = true
	return health
}

// StoreName identifies the rendezvous backend in logs and health output.
func (g *Gateway) StoreName() string {
	return g.store.Name()
}

func (g *Gateway) txContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), g.cfg.TxTimeout)
}

// Summarize counts present and absent records. Percentage is rounded to two decimals.
func Summarize(records []interfaces.AttendanceRecord) AttendanceSummary {
	summary := AttendanceSummary{Total: len(records)}
	for _, r := range records {
		if r.Present {
			summary.Present++
		}
	}
	summary.Absent = summary.Total - summary.Present
	if summary.Total > 0 {
		summary.Percentage = math.Round(float64(summary.Present)/float64(summary.Total)*10000) / 100
	}
	return summary
}

// dedupeByTag keeps one entry per tag, in first-seen order, holding the latest registration.
func dedupeByTag(students []interfaces.Student) []interfaces.Student {
	index := make(map[interfaces.TagID]int, len(students))
	unique := make([]interfaces.Student, 0, len(students))
	for _, s := range students {
		if i, ok := index[s.TagID]; ok {
			unique[i] = s
			continue
		}
		index[s.TagID] = len(unique)
		unique = append(unique, s)
	}
	return unique
}

func ledgerResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, interfaces.ErrDuplicateRegistration):
		return metrics.ResultDuplicate
	case errors.Is(err, interfaces.ErrLedgerUnreachable):
		return metrics.ResultUnreachable
	default:
		return metrics.ResultFailed
	}
}
