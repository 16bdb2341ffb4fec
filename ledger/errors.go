package ledger

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ruteri/nfc-attendance/interfaces"
)

// duplicateMarkers are revert reasons the Attendance contract uses for a reused tag.
var duplicateMarkers = []string{"already registered", "already used"}

// classifyTxError maps a transaction error onto the interfaces error taxonomy.
func classifyTxError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, interfaces.ErrNoTransactOpts) {
		return err
	}
	if isDuplicateRegistration(err) {
		return fmt.Errorf("%w: %v", interfaces.ErrDuplicateRegistration, err)
	}
	if isConnectivityError(err) {
		return fmt.Errorf("%w: %v", interfaces.ErrLedgerUnreachable, err)
	}
	return fmt.Errorf("%w: %v", interfaces.ErrTransactionFailed, err)
}

// classifyCallError maps a read-only call error; anything but connectivity stays generic.
func classifyCallError(err error) error {
	if err == nil {
		return nil
	}
	if isConnectivityError(err) {
		return fmt.Errorf("%w: %v", interfaces.ErrLedgerUnreachable, err)
	}
	return fmt.Errorf("ledger call failed: %w", err)
}

func isDuplicateRegistration(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range duplicateMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func isConnectivityError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode >= 500 {
		return true
	}

	// The RPC client sometimes flattens transport errors into plain strings.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host")
}
