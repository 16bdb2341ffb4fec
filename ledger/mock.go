package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ruteri/nfc-attendance/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockLedger mocks the AttendanceLedger interface
type MockLedger struct {
	mock.Mock
}

// RegisterStudent mocks the RegisterStudent method
func (m *MockLedger) RegisterStudent(ctx context.Context, student common.Address, tag interfaces.TagID, name string) (*types.Receipt, error) {
	args := m.Called(ctx, student, tag, name)
	receipt, _ := args.Get(0).(*types.Receipt)
	return receipt, args.Error(1)
}

// MarkAttendance mocks the MarkAttendance method
func (m *MockLedger) MarkAttendance(ctx context.Context, tag interfaces.TagID) (*types.Receipt, error) {
	args := m.Called(ctx, tag)
	receipt, _ := args.Get(0).(*types.Receipt)
	return receipt, args.Error(1)
}

// AttendanceHistory mocks the AttendanceHistory method
func (m *MockLedger) AttendanceHistory(ctx context.Context, tag interfaces.TagID) ([]interfaces.AttendanceRecord, error) {
	args := m.Called(ctx, tag)
	records, _ := args.Get(0).([]interfaces.AttendanceRecord)
	return records, args.Error(1)
}

// RegisteredStudents mocks the RegisteredStudents method
func (m *MockLedger) RegisteredStudents(ctx context.Context) ([]interfaces.Student, error) {
	args := m.Called(ctx)
	students, _ := args.Get(0).([]interfaces.Student)
	return students, args.Error(1)
}

// Ping mocks the Ping method
func (m *MockLedger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Address mocks the Address method
func (m *MockLedger) Address() common.Address {
	args := m.Called()
	return args.Get(0).(common.Address)
}
