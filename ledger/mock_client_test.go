package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/nfc-attendance/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLedgerClient(t *testing.T) {
	ctx := context.Background()
	client := NewMockLedgerClient(common.HexToAddress("0x01"))

	// Read-only until transacting is enabled.
	_, err := client.MarkAttendance(ctx, "04A1B2C3")
	assert.ErrorIs(t, err, interfaces.ErrNoTransactOpts)

	client.SetTransactOpts()
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 500, time.UTC)
	client.SetClock(func() time.Time { return fixed })

	account, err := NewStudentAccount()
	require.NoError(t, err)

	receipt, err := client.RegisterStudent(ctx, account.Address, "04A1B2C3", "Alice")
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, receipt.TxHash)

	_, err = client.RegisterStudent(ctx, account.Address, "04A1B2C3", "Mallory")
	assert.ErrorIs(t, err, interfaces.ErrDuplicateRegistration)

	students, err := client.RegisteredStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Alice", students[0].Name)
	assert.Equal(t, account.Address.Hex(), students[0].Address)
	assert.Equal(t, receipt.TxHash.Hex(), students[0].TxHash)

	_, err = client.MarkAttendance(ctx, "04A1B2C3")
	require.NoError(t, err)
	records, err := client.AttendanceHistory(ctx, "04A1B2C3")
	require.NoError(t, err)
	assert.Equal(t, []interfaces.AttendanceRecord{{Timestamp: fixed.Truncate(time.Second), Present: true}}, records)

	client.SetUnreachable(true)
	assert.ErrorIs(t, client.Ping(ctx), interfaces.ErrLedgerUnreachable)
	_, err = client.MarkAttendance(ctx, "04A1B2C3")
	assert.ErrorIs(t, err, interfaces.ErrLedgerUnreachable)
	_, err = client.RegisteredStudents(ctx)
	assert.ErrorIs(t, err, interfaces.ErrLedgerUnreachable)

	client.SetUnreachable(false)
	assert.NoError(t, client.Ping(ctx))
}

func TestStudentAccount(t *testing.T) {
	account, err := NewStudentAccount()
	require.NoError(t, err)

	parsed, err := ParsePrivateKey(account.PrivateKeyHex())
	require.NoError(t, err)
	assert.Equal(t, account.PrivateKey.D, parsed.D)

	_, err = ParsePrivateKey("0xnothex")
	assert.Error(t, err)
}
