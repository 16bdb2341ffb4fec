package interfaces

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// UnknownStudentName is displayed for attendance touches from tags missing in the directory.
const UnknownStudentName = "Unknown"

// maxTagIDLength bounds tag identifiers accepted from agents and browsers.
const maxTagIDLength = 128

// TagID is an NFC tag identifier, usually the card UID in upper-case hex.
type TagID string

// NewTagID validates and normalizes a raw tag identifier.
// Surrounding whitespace is trimmed; empty identifiers, identifiers containing
// whitespace or control characters, and overly long identifiers are rejected.
func NewTagID(raw string) (TagID, error) {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTagID)
	}
	if len(clean) > maxTagIDLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidTagID, maxTagIDLength)
	}
	for _, r := range clean {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", fmt.Errorf("%w: contains whitespace or control characters", ErrInvalidTagID)
		}
	}
	return TagID(clean), nil
}

// TagIDFromUID formats a raw card UID the way readers report it.
func TagIDFromUID(uid []byte) TagID {
	return TagID(strings.ToUpper(hex.EncodeToString(uid)))
}

// String returns the tag identifier.
func (t TagID) String() string {
	return string(t)
}

// Student is a registered student as recorded by a StudentRegistered event.
type Student struct {
	Name    string `json:"name"`
	TagID   TagID  `json:"nfc_id"`
	Address string `json:"address"`
	TxHash  string `json:"tx_hash"`
}

// AttendanceRecord is one entry of a tag's attendance history on the ledger.
type AttendanceRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Present   bool      `json:"present"`
}

// AttendanceEvent is a confirmed attendance touch held for toast notifications.
// Timestamp is in unix seconds with sub-second precision.
type AttendanceEvent struct {
	TagID     TagID   `json:"nfc_id"`
	Name      string  `json:"name"`
	Timestamp float64 `json:"timestamp"`
}

// UnixSeconds converts a time to the fractional unix seconds used by AttendanceEvent.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Registration is the outcome of a successful student registration.
type Registration struct {
	TagID          TagID  `json:"nfc_id"`
	Name           string `json:"name"`
	StudentAddress string `json:"student_address"`
	TxHash         string `json:"tx_hash"`
}
