package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ruteri/nfc-attendance/interfaces"
)

var (
	// ErrNoContractCode is returned by Ping when nothing is deployed at the contract address.
	ErrNoContractCode = errors.New("no contract code at address")

	// ErrMethodNotInABI is returned for optional methods missing from a custom artifact.
	ErrMethodNotInABI = errors.New("method not in contract interface")
)

// studentRegistered mirrors the StudentRegistered event fields.
type studentRegistered struct {
	StudentAddr common.Address
	NfcId       string
	Name        string
}

// OnchainAttendanceClient implements interfaces.AttendanceLedger for an Attendance
// contract deployed on a blockchain.
type OnchainAttendanceClient struct {
	contract *bind.BoundContract
	abi      abi.ABI
	client   bind.ContractBackend
	backend  bind.DeployBackend
	address  common.Address
	auth     *bind.TransactOpts

	// txMu serializes sends so concurrent marks do not race for the same nonce.
	txMu sync.Mutex
}

// NewOnchainAttendanceClient creates a client for the Attendance contract at address.
// It requires a ContractBackend for calls and log queries and a DeployBackend for
// waiting on receipts. A nil artifact selects the embedded contract interface.
func NewOnchainAttendanceClient(client bind.ContractBackend, backend bind.DeployBackend, address common.Address, artifact *Artifact) (*OnchainAttendanceClient, error) {
	if artifact == nil {
		var err error
		artifact, err = DefaultArtifact()
		if err != nil {
			return nil, err
		}
	}

	contract := bind.NewBoundContract(address, artifact.ABI, client, client, client)

	return &OnchainAttendanceClient{
		contract: contract,
		abi:      artifact.ABI,
		client:   client,
		backend:  backend,
		address:  address,
	}, nil
}

// SetTransactOpts sets the signer used for RegisterStudent and MarkAttendance.
// This must be called before any method that sends transactions.
func (c *OnchainAttendanceClient) SetTransactOpts(auth *bind.TransactOpts) {
	c.auth = auth
}

// Address returns the Attendance contract address.
func (c *OnchainAttendanceClient) Address() common.Address {
	return c.address
}

// RegisterStudent binds the tag and name to the student account and waits for the receipt.
func (c *OnchainAttendanceClient) RegisterStudent(ctx context.Context, student common.Address, tag interfaces.TagID, name string) (*types.Receipt, error) {
	return c.transact(ctx, methodRegisterStudent, student, string(tag), name)
}

// MarkAttendance records a present mark for the tag and waits for the receipt.
func (c *OnchainAttendanceClient) MarkAttendance(ctx context.Context, tag interfaces.TagID) (*types.Receipt, error) {
	return c.transact(ctx, methodMarkAttendance, string(tag))
}

func (c *OnchainAttendanceClient) transact(ctx context.Context, method string, params ...interface{}) (*types.Receipt, error) {
	if c.auth == nil {
		return nil, interfaces.ErrNoTransactOpts
	}

	opts := *c.auth
	opts.Context = ctx

	c.txMu.Lock()
	tx, err := c.contract.Transact(&opts, method, params...)
	c.txMu.Unlock()
	if err != nil {
		return nil, classifyTxError(err)
	}

	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, classifyTxError(err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s reverted in %s", interfaces.ErrTransactionFailed, method, tx.Hash().Hex())
	}

	return receipt, nil
}

// AttendanceHistory returns all attendance records of the tag in ledger order.
func (c *OnchainAttendanceClient) AttendanceHistory(ctx context.Context, tag interfaces.TagID) ([]interfaces.AttendanceRecord, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, methodGetAttendance, string(tag))
	if err != nil {
		return nil, classifyCallError(err)
	}

	if len(out) != 2 {
		return nil, fmt.Errorf("unexpected %s output length %d", methodGetAttendance, len(out))
	}

	timestamps := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	present := *abi.ConvertType(out[1], new([]bool)).(*[]bool)
	if len(timestamps) != len(present) {
		return nil, fmt.Errorf("mismatched %s output: %d timestamps, %d flags", methodGetAttendance, len(timestamps), len(present))
	}

	records := make([]interfaces.AttendanceRecord, 0, len(timestamps))
	for i, ts := range timestamps {
		records = append(records, interfaces.AttendanceRecord{
			Timestamp: time.Unix(ts.Int64(), 0).UTC(),
			Present:   present[i],
		})
	}
	return records, nil
}

// RegisteredStudents replays every StudentRegistered event emitted by the contract.
func (c *OnchainAttendanceClient) RegisteredStudents(ctx context.Context) ([]interfaces.Student, error) {
	event := c.abi.Events[eventStudentRegistered]

	logs, err := c.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: big.NewInt(0),
		Addresses: []common.Address{c.address},
		Topics:    [][]common.Hash{{event.ID}},
	})
	if err != nil {
		return nil, classifyCallError(err)
	}

	students := make([]interfaces.Student, 0, len(logs))
	for _, lg := range logs {
		if lg.Removed {
			continue
		}

		var ev studentRegistered
		if err := c.contract.UnpackLog(&ev, eventStudentRegistered, lg); err != nil {
			return nil, fmt.Errorf("could not decode %s log in %s: %w", eventStudentRegistered, lg.TxHash.Hex(), err)
		}

		students = append(students, interfaces.Student{
			Name:    ev.Name,
			TagID:   interfaces.TagID(ev.NfcId),
			Address: ev.StudentAddr.Hex(),
			TxHash:  lg.TxHash.Hex(),
		})
	}
	return students, nil
}

// Admin returns the account allowed to register students.
func (c *OnchainAttendanceClient) Admin(ctx context.Context) (common.Address, error) {
	if _, ok := c.abi.Methods[methodAdmin]; !ok {
		return common.Address{}, fmt.Errorf("%w: %s", ErrMethodNotInABI, methodAdmin)
	}

	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, methodAdmin); err != nil {
		return common.Address{}, classifyCallError(err)
	}
	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("unexpected %s output length %d", methodAdmin, len(out))
	}

	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// Ping checks that the RPC endpoint responds and that the contract is deployed.
func (c *OnchainAttendanceClient) Ping(ctx context.Context) error {
	code, err := c.client.CodeAt(ctx, c.address, nil)
	if err != nil {
		return classifyCallError(err)
	}
	if len(code) == 0 {
		return fmt.Errorf("%w %s", ErrNoContractCode, c.address.Hex())
	}
	return nil
}
