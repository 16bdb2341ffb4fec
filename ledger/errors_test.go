package ledger

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ruteri/nfc-attendance/interfaces"
	"github.com/stretchr/testify/assert"
)

func TestClassifyTxError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "duplicate registration revert",
			err:  errors.New("failed to estimate gas needed: execution reverted: NFC ID already registered"),
			want: interfaces.ErrDuplicateRegistration,
		},
		{
			name: "duplicate tag used revert",
			err:  errors.New("VM Exception while processing transaction: revert NFC ID Already Used"),
			want: interfaces.ErrDuplicateRegistration,
		},
		{
			name: "dial failure",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
			want: interfaces.ErrLedgerUnreachable,
		},
		{
			name: "wrapped connection refused",
			err:  fmt.Errorf("post: %w", syscall.ECONNREFUSED),
			want: interfaces.ErrLedgerUnreachable,
		},
		{
			name: "deadline",
			err:  fmt.Errorf("waiting for receipt: %w", context.DeadlineExceeded),
			want: interfaces.ErrLedgerUnreachable,
		},
		{
			name: "flattened transport error",
			err:  errors.New(`Post "http://127.0.0.1:7545": dial tcp 127.0.0.1:7545: connect: connection refused`),
			want: interfaces.ErrLedgerUnreachable,
		},
		{
			name: "rpc server error",
			err:  rpc.HTTPError{StatusCode: 502, Status: "502 Bad Gateway"},
			want: interfaces.ErrLedgerUnreachable,
		},
		{
			name: "other revert",
			err:  errors.New("execution reverted: Only admin can register"),
			want: interfaces.ErrTransactionFailed,
		},
		{
			name: "missing signer",
			err:  interfaces.ErrNoTransactOpts,
			want: interfaces.ErrNoTransactOpts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyTxError(tt.err), tt.want)
		})
	}

	assert.NoError(t, classifyTxError(nil))
}

func TestClassifyCallError(t *testing.T) {
	assert.NoError(t, classifyCallError(nil))
	assert.ErrorIs(t, classifyCallError(syscall.ECONNREFUSED), interfaces.ErrLedgerUnreachable)

	err := classifyCallError(errors.New("abi: cannot unmarshal"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, interfaces.ErrLedgerUnreachable)
	assert.NotErrorIs(t, err, interfaces.ErrTransactionFailed)
}
