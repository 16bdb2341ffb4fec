package ledger

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ruteri/nfc-attendance/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend answers contract calls and log queries from canned data.
// Methods it does not override panic through the nil embedded interface.
type fakeBackend struct {
	bind.ContractBackend

	callOutput []byte
	callErr    error
	logs       []types.Log
	lastQuery  ethereum.FilterQuery
}

func (f *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	return f.callOutput, f.callErr
}

func (f *fakeBackend) CodeAt(ctx context.Context, contract common.Address, block *big.Int) ([]byte, error) {
	return []byte{0x00}, nil
}

func (f *fakeBackend) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	f.lastQuery = query
	return f.logs, nil
}

func newFakeClient(t *testing.T, backend *fakeBackend) *OnchainAttendanceClient {
	client, err := NewOnchainAttendanceClient(backend, nil, common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), nil)
	require.NoError(t, err)
	return client
}

func TestOnchainAttendanceClient_AttendanceHistory(t *testing.T) {
	artifact, err := DefaultArtifact()
	require.NoError(t, err)

	output, err := artifact.ABI.Methods[methodGetAttendance].Outputs.Pack(
		[]*big.Int{big.NewInt(1700000000), big.NewInt(1700003600)},
		[]bool{true, false},
	)
	require.NoError(t, err)

	client := newFakeClient(t, &fakeBackend{callOutput: output})

	records, err := client.AttendanceHistory(context.Background(), "04A1B2C3")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), records[0].Timestamp)
	assert.True(t, records[0].Present)
	assert.Equal(t, time.Unix(1700003600, 0).UTC(), records[1].Timestamp)
	assert.False(t, records[1].Present)
}

func TestOnchainAttendanceClient_AttendanceHistoryEmpty(t *testing.T) {
	artifact, err := DefaultArtifact()
	require.NoError(t, err)

	output, err := artifact.ABI.Methods[methodGetAttendance].Outputs.Pack([]*big.Int{}, []bool{})
	require.NoError(t, err)

	client := newFakeClient(t, &fakeBackend{callOutput: output})

	records, err := client.AttendanceHistory(context.Background(), "UNKNOWN")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestOnchainAttendanceClient_RegisteredStudents(t *testing.T) {
	artifact, err := DefaultArtifact()
	require.NoError(t, err)
	event := artifact.ABI.Events[eventStudentRegistered]

	makeLog := func(student common.Address, tag, name string, txHash common.Hash) types.Log {
		data, err := event.Inputs.NonIndexed().Pack(tag, name)
		require.NoError(t, err)
		return types.Log{
			Topics: []common.Hash{event.ID, common.BytesToHash(student.Bytes())},
			Data:   data,
			TxHash: txHash,
		}
	}

	alice := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	removed := makeLog(bob, "DEAD", "Reorged", common.HexToHash("0x03"))
	removed.Removed = true

	backend := &fakeBackend{logs: []types.Log{
		makeLog(alice, "04A1B2C3", "Alice", common.HexToHash("0x01")),
		makeLog(bob, "04D4E5F6", "Bob", common.HexToHash("0x02")),
		removed,
	}}
	client := newFakeClient(t, backend)

	students, err := client.RegisteredStudents(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []interfaces.Student{
		{Name: "Alice", TagID: "04A1B2C3", Address: alice.Hex(), TxHash: common.HexToHash("0x01").Hex()},
		{Name: "Bob", TagID: "04D4E5F6", Address: bob.Hex(), TxHash: common.HexToHash("0x02").Hex()},
	}, students)

	assert.Equal(t, big.NewInt(0), backend.lastQuery.FromBlock)
	assert.Equal(t, []common.Address{client.Address()}, backend.lastQuery.Addresses)
	assert.Equal(t, [][]common.Hash{{event.ID}}, backend.lastQuery.Topics)
}

func TestOnchainAttendanceClient_Admin(t *testing.T) {
	artifact, err := DefaultArtifact()
	require.NoError(t, err)

	admin := common.HexToAddress("0x00000000000000000000000000000000000000ad")
	output, err := artifact.ABI.Methods[methodAdmin].Outputs.Pack(admin)
	require.NoError(t, err)

	client := newFakeClient(t, &fakeBackend{callOutput: output})

	got, err := client.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, admin, got)

	delete(artifact.ABI.Methods, methodAdmin)
	withoutAdmin, err := NewOnchainAttendanceClient(&fakeBackend{}, nil, client.Address(), artifact)
	require.NoError(t, err)

	_, err = withoutAdmin.Admin(context.Background())
	assert.ErrorIs(t, err, ErrMethodNotInABI)
}

func TestOnchainAttendanceClient_NoTransactOpts(t *testing.T) {
	client := newFakeClient(t, &fakeBackend{})

	_, err := client.MarkAttendance(context.Background(), "04A1B2C3")
	assert.ErrorIs(t, err, interfaces.ErrNoTransactOpts)

	_, err = client.RegisterStudent(context.Background(), common.Address{}, "04A1B2C3", "Alice")
	assert.ErrorIs(t, err, interfaces.ErrNoTransactOpts)
}

func TestOnchainAttendanceClient_PingWithoutContract(t *testing.T) {
	backend, _ := newTestChain(t)

	client, err := NewOnchainAttendanceClient(backend.Client(), backend.Client(), common.HexToAddress("0x1234"), nil)
	require.NoError(t, err)

	err = client.Ping(context.Background())
	assert.ErrorIs(t, err, ErrNoContractCode)
}

func TestOnchainAttendanceClient_MarkAttendanceMined(t *testing.T) {
	backend, auth := newTestChain(t)
	// A contract that accepts any call.
	address := deployRuntime(t, backend, auth, []byte{0x00})
	autoCommit(t, backend)

	client, err := NewOnchainAttendanceClient(backend.Client(), backend.Client(), address, nil)
	require.NoError(t, err)
	client.SetTransactOpts(auth)

	require.NoError(t, client.Ping(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	receipt, err := client.MarkAttendance(ctx, "04A1B2C3")
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
}

func TestOnchainAttendanceClient_DuplicateRegistration(t *testing.T) {
	backend, auth := newTestChain(t)
	address := deployRuntime(t, backend, auth, revertingRuntime(t, "NFC ID already registered"))

	client, err := NewOnchainAttendanceClient(backend.Client(), backend.Client(), address, nil)
	require.NoError(t, err)
	client.SetTransactOpts(auth)

	account, err := NewStudentAccount()
	require.NoError(t, err)

	_, err = client.RegisterStudent(context.Background(), account.Address, "04A1B2C3", "Alice")
	assert.ErrorIs(t, err, interfaces.ErrDuplicateRegistration)
}

// newTestChain starts a simulated chain with one funded account.
func newTestChain(t *testing.T) (*simulated.Backend, *bind.TransactOpts) {
	privateKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, big.NewInt(1337))
	require.NoError(t, err)

	balance := new(big.Int)
	balance.SetString("10000000000000000000", 10) // 10 ETH

	genesisAlloc := map[common.Address]types.Account{
		auth.From: {Balance: balance},
	}
	backend := simulated.NewBackend(genesisAlloc, simulated.WithBlockGasLimit(8000000))
	t.Cleanup(func() { backend.Close() })

	return backend, auth
}

// deployRuntime deploys raw runtime bytecode behind a minimal constructor that returns it.
func deployRuntime(t *testing.T, backend *simulated.Backend, auth *bind.TransactOpts, runtime []byte) common.Address {
	require.Less(t, len(runtime), 256)

	initCode := []byte{
		0x60, byte(len(runtime)), // PUSH1 size
		0x60, 0x0c, // PUSH1 runtime offset
		0x60, 0x00, // PUSH1 memory offset
		0x39,                     // CODECOPY
		0x60, byte(len(runtime)), // PUSH1 size
		0x60, 0x00, // PUSH1 memory offset
		0xf3, // RETURN
	}
	initCode = append(initCode, runtime...)

	address, tx, _, err := bind.DeployContract(auth, abi.ABI{}, initCode, backend.Client())
	require.NoError(t, err)
	backend.Commit()

	receipt, err := backend.Client().TransactionReceipt(context.Background(), tx.Hash())
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)

	return address
}

// revertingRuntime returns bytecode that reverts every call with Error(reason).
func revertingRuntime(t *testing.T, reason string) []byte {
	stringTy, err := abi.NewType("string", "", nil)
	require.NoError(t, err)

	encoded, err := abi.Arguments{{Type: stringTy}}.Pack(reason)
	require.NoError(t, err)
	payload := append([]byte{0x08, 0xc3, 0x79, 0xa0}, encoded...)

	code := []byte{
		0x60, byte(len(payload)), // PUSH1 size
		0x60, 0x0c, // PUSH1 payload offset
		0x60, 0x00, // PUSH1 memory offset
		0x39,                     // CODECOPY
		0x60, byte(len(payload)), // PUSH1 size
		0x60, 0x00, // PUSH1 memory offset
		0xfd, // REVERT
	}
	return append(code, payload...)
}

// autoCommit mines blocks in the background so WaitMined can observe receipts.
func autoCommit(t *testing.T, backend *simulated.Backend) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				backend.Commit()
			}
		}
	}()
	t.Cleanup(func() {
		close(done)
		wg.Wait()
	})
}
