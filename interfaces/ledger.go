package interfaces

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrLedgerUnreachable is returned when the ledger RPC endpoint cannot be reached.
	ErrLedgerUnreachable = errors.New("ledger unreachable")

	// ErrDuplicateRegistration is returned when registering a tag that already belongs to a student.
	ErrDuplicateRegistration = errors.New("NFC ID already registered")

	// ErrTransactionFailed is returned when the ledger rejects or reverts a transaction.
	ErrTransactionFailed = errors.New("ledger transaction failed")

	// ErrNoTransactOpts is returned when a transaction is attempted without a signer.
	ErrNoTransactOpts = errors.New("no authorized transactor available")
)

// AttendanceLedger is the client side of the Attendance contract.
// Transacting methods block until the transaction is mined.
type AttendanceLedger interface {
	// RegisterStudent binds tag and name to the student account.
	RegisterStudent(ctx context.Context, student common.Address, tag TagID, name string) (*types.Receipt, error)

	// MarkAttendance records a present mark for tag at the current block time.
	MarkAttendance(ctx context.Context, tag TagID) (*types.Receipt, error)

	// AttendanceHistory returns all attendance records of tag.
	AttendanceHistory(ctx context.Context, tag TagID) ([]AttendanceRecord, error)

	// RegisteredStudents replays every StudentRegistered event from genesis.
	RegisteredStudents(ctx context.Context) ([]Student, error)

	// Ping checks that the ledger RPC endpoint responds.
	Ping(ctx context.Context) error

	// Address returns the Attendance contract address.
	Address() common.Address
}
