/*
Package ledger talks to the Attendance smart contract.

OnchainAttendanceClient wraps a go-ethereum bound contract built from the
contract ABI, either embedded or loaded from a Truffle or Hardhat artifact:

	artifact, err := ledger.LoadArtifact("build/contracts/Attendance.json")
	client, err := ledger.NewOnchainAttendanceClient(eth, eth, *artifact.Address, artifact)
	client.SetTransactOpts(auth)
	receipt, err := client.MarkAttendance(ctx, "04A1B2C3")

Transactions block until mined. Errors are classified into
interfaces.ErrLedgerUnreachable, interfaces.ErrDuplicateRegistration and
interfaces.ErrTransactionFailed so callers can pick a response without
parsing messages.

MockLedger (testify) and MockLedgerClient (in-memory) stand in for the
contract in tests.
*/
package ledger
