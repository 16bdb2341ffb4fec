package agent

import (
	"errors"
	"fmt"

	"github.com/ruteri/nfc-attendance/interfaces"
)

// getUIDCommand is the PC/SC pseudo-APDU that returns the card UID.
var getUIDCommand = []byte{0xFF, 0xCA, 0x00, 0x00, 0x00}

// ErrReaderStatus is returned when the reader rejects the UID command.
var ErrReaderStatus = errors.New("reader returned error status")

// parseUIDResponse checks the trailing 90 00 status word and formats the UID.
func parseUIDResponse(rsp []byte) (interfaces.TagID, error) {
	if len(rsp) < 2 {
		return "", fmt.Errorf("%w: short response % X", ErrReaderStatus, rsp)
	}

	sw1, sw2 := rsp[len(rsp)-2], rsp[len(rsp)-1]
	if sw1 != 0x90 || sw2 != 0x00 {
		return "", fmt.Errorf("%w: %02X%02X", ErrReaderStatus, sw1, sw2)
	}

	uid := rsp[:len(rsp)-2]
	if len(uid) == 0 {
		return "", fmt.Errorf("%w: empty UID", ErrReaderStatus)
	}
	return interfaces.TagIDFromUID(uid), nil
}
