package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/nfc-attendance/interfaces"
)

// MockLedgerClient is an in-memory implementation of the AttendanceLedger interface
// for testing without a blockchain. It enforces the contract's rule that a tag can
// be registered only once and records every mark as present.
type MockLedgerClient struct {
	mutex            sync.RWMutex
	address          common.Address
	students         []interfaces.Student
	registered       map[interfaces.TagID]bool
	attendance       map[interfaces.TagID][]interfaces.AttendanceRecord
	blockNumber      int64
	unreachable      bool
	allowTransacting bool
	now              func() time.Time
}

// NewMockLedgerClient creates a mock ledger with no students.
// The client starts read-only; call SetTransactOpts to enable transactions.
func NewMockLedgerClient(address common.Address) *MockLedgerClient {
	return &MockLedgerClient{
		address:    address,
		registered: make(map[interfaces.TagID]bool),
		attendance: make(map[interfaces.TagID][]interfaces.AttendanceRecord),
		now:        time.Now,
	}
}

// SetTransactOpts enables transaction operations on the mock client.
func (m *MockLedgerClient) SetTransactOpts() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.allowTransacting = true
}

// SetUnreachable makes every call fail with ErrLedgerUnreachable while set.
func (m *MockLedgerClient) SetUnreachable(unreachable bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.unreachable = unreachable
}

// SetClock replaces the clock used for attendance timestamps.
func (m *MockLedgerClient) SetClock(now func() time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.now = now
}

// Address returns the configured contract address.
func (m *MockLedgerClient) Address() common.Address {
	return m.address
}

// Ping fails only while the mock is unreachable.
func (m *MockLedgerClient) Ping(ctx context.Context) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.checkReachable()
}

// RegisterStudent records the student, rejecting a tag that is already registered.
func (m *MockLedgerClient) RegisterStudent(ctx context.Context, student common.Address, tag interfaces.TagID, name string) (*types.Receipt, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.checkTransact(); err != nil {
		return nil, err
	}
	if m.registered[tag] {
		return nil, fmt.Errorf("%w: execution reverted: NFC ID already registered", interfaces.ErrDuplicateRegistration)
	}

	receipt := m.mine(methodRegisterStudent, student.Bytes(), []byte(tag), []byte(name))
	m.registered[tag] = true
	m.students = append(m.students, interfaces.Student{
		Name:    name,
		TagID:   tag,
		Address: student.Hex(),
		TxHash:  receipt.TxHash.Hex(),
	})
	return receipt, nil
}

// MarkAttendance appends a present record for the tag at the mock clock time.
func (m *MockLedgerClient) MarkAttendance(ctx context.Context, tag interfaces.TagID) (*types.Receipt, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.checkTransact(); err != nil {
		return nil, err
	}

	receipt := m.mine(methodMarkAttendance, []byte(tag))
	m.attendance[tag] = append(m.attendance[tag], interfaces.AttendanceRecord{
		Timestamp: m.now().UTC().Truncate(time.Second),
		Present:   true,
	})
	return receipt, nil
}

// AttendanceHistory returns a copy of the tag's records.
func (m *MockLedgerClient) AttendanceHistory(ctx context.Context, tag interfaces.TagID) ([]interfaces.AttendanceRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if err := m.checkReachable(); err != nil {
		return nil, err
	}

	records := make([]interfaces.AttendanceRecord, len(m.attendance[tag]))
	copy(records, m.attendance[tag])
	return records, nil
}

// RegisteredStudents returns every registration in order.
func (m *MockLedgerClient) RegisteredStudents(ctx context.Context) ([]interfaces.Student, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if err := m.checkReachable(); err != nil {
		return nil, err
	}

	students := make([]interfaces.Student, len(m.students))
	copy(students, m.students)
	return students, nil
}

func (m *MockLedgerClient) checkReachable() error {
	if m.unreachable {
		return fmt.Errorf("%w: dial tcp: connection refused", interfaces.ErrLedgerUnreachable)
	}
	return nil
}

func (m *MockLedgerClient) checkTransact() error {
	if err := m.checkReachable(); err != nil {
		return err
	}
	if !m.allowTransacting {
		return interfaces.ErrNoTransactOpts
	}
	return nil
}

// mine produces a successful receipt with a unique hash. Callers hold the mutex.
func (m *MockLedgerClient) mine(method string, params ...[]byte) *types.Receipt {
	m.blockNumber++
	parts := append([][]byte{[]byte(method), big.NewInt(m.blockNumber).Bytes()}, params...)

	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      crypto.Keccak256Hash(parts...),
		BlockNumber: big.NewInt(m.blockNumber),
	}
}
