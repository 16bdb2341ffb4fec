// Package interfaces defines the core interfaces and types for the NFC attendance system.
//
// This package provides the contracts between the tag agent, the attendance gateway
// and the ledger client without including implementation details, allowing for:
//
//   - Multiple rendezvous store backends (file, redis, in-memory)
//   - Multiple tag sources (PC/SC hardware, console simulator)
//   - Mock ledger implementations in tests
//
// # Rendezvous Interfaces
//
//   - RendezvousStore: The two-marker state shared by the gateway and the tag agent.
//     A registration scan opens a window, the next touch is captured into it, and
//     the gateway consumes the captured tag exactly once.
//
// # Ledger Interfaces
//
//   - AttendanceLedger: Registration, attendance marking and history queries against
//     the Attendance contract.
//
// # Tag Sources
//
//   - TagSource: Produces tag touches until closed.
//
// # Type Definitions
//
//   - TagID: An NFC tag identifier (card UID)
//   - Student: A registered student as replayed from the ledger
//   - AttendanceRecord: One entry of a tag's attendance history
//   - AttendanceEvent: A recently confirmed attendance touch
//   - Registration: The outcome of a successful student registration
//
// # Error Types
//
//   - ErrStoreUnavailable: Rendezvous store I/O failed
//   - ErrLedgerUnreachable: The ledger RPC could not be reached
//   - ErrDuplicateRegistration: The tag is already registered to a student
//   - ErrTransactionFailed: The ledger rejected or failed a transaction
//   - ErrNoTag: A tag source poll ended without a touch
//   - ErrInvalidTagID: A tag identifier is empty or malformed
package interfaces
