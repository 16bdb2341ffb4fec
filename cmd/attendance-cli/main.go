package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ruteri/nfc-attendance/cmd/flags"
	"github.com/ruteri/nfc-attendance/cmd/ledgercommon"
	"github.com/ruteri/nfc-attendance/gateway"
	"github.com/ruteri/nfc-attendance/interfaces"
	"github.com/ruteri/nfc-attendance/ledger"
	"github.com/urfave/cli/v2"
)

var timeoutFlag = &cli.DurationFlag{
	Name:  "timeout",
	Value: 15 * time.Second,
	Usage: "timeout for each ledger query",
}

const usage string = `Inspect the attendance contract and manage admin accounts.

Configuration comes from flags or the RPC_ADDR, CONTRACT_ADDRESS and
CONTRACT_ARTIFACT environment variables.`

func main() {
	appFlags := []cli.Flag{
		timeoutFlag,
		flags.LogJsonFlag,
		flags.LogDebugFlag,
		flags.LogServiceFlagFn("attendance-cli"),
	}
	appFlags = append(appFlags, ledgercommon.LedgerFlags...)

	app := &cli.App{
		Name:  "attendance-cli",
		Usage: usage,
		Flags: appFlags,
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "check RPC connectivity and the contract deployment",
				Action: func(cCtx *cli.Context) error {
					return withLedger(cCtx, status)
				},
			},
			{
				Name:      "history",
				Usage:     "print the attendance history of a tag",
				ArgsUsage: "<tag-id>",
				Action: func(cCtx *cli.Context) error {
					tag, err := interfaces.NewTagID(cCtx.Args().First())
					if err != nil {
						return err
					}
					return withLedger(cCtx, func(ctx context.Context, _ *ethclient.Client, client *ledger.OnchainAttendanceClient) error {
						return history(ctx, client, tag)
					})
				},
			},
			{
				Name:  "students",
				Usage: "list registered students",
				Action: func(cCtx *cli.Context) error {
					return withLedger(cCtx, students)
				},
			},
			{
				Name:  "create-account",
				Usage: "generate a new account key pair",
				Action: func(cCtx *cli.Context) error {
					account, err := ledger.NewStudentAccount()
					if err != nil {
						return err
					}
					fmt.Println("New account created, store the private key safely:")
					fmt.Printf("  Address:     %s\n", account.Address.Hex())
					fmt.Printf("  Private Key: %s\n", account.PrivateKeyHex())
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type ledgerAction func(ctx context.Context, ethClient *ethclient.Client, client *ledger.OnchainAttendanceClient) error

func withLedger(cCtx *cli.Context, action ledgerAction) error {
	// Command output goes to stdout, so logs are only shown with --log-debug.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cCtx.Bool(flags.LogDebugFlag.Name) {
		logger = flags.SetupLogger(cCtx)
	}

	ethClient, client, err := ledgercommon.ConnectLedger(cCtx, logger)
	if err != nil {
		return err
	}
	defer ethClient.Close()

	ctx, cancel := context.WithTimeout(cCtx.Context, cCtx.Duration(timeoutFlag.Name))
	defer cancel()

	return action(ctx, ethClient, client)
}

func status(ctx context.Context, ethClient *ethclient.Client, client *ledger.OnchainAttendanceClient) error {
	block, err := ethClient.BlockNumber(ctx)
	if err != nil {
		fmt.Println("Not connected to the ledger")
		return fmt.Errorf("could not fetch latest block: %w", err)
	}
	fmt.Println("Connected to the ledger")
	fmt.Printf("  Latest block: %d\n", block)

	if gasPrice, err := ethClient.SuggestGasPrice(ctx); err == nil {
		fmt.Printf("  Gas price:    %s gwei\n", toGwei(gasPrice))
	}

	if err := client.Ping(ctx); err != nil {
		fmt.Println("Contract not found")
		return err
	}
	fmt.Println("Contract deployed")
	fmt.Printf("  Address: %s\n", client.Address().Hex())

	admin, err := client.Admin(ctx)
	switch {
	case errors.Is(err, ledger.ErrMethodNotInABI):
		fmt.Println("  Admin:   not exposed by the contract ABI")
	case err != nil:
		return fmt.Errorf("could not read contract admin: %w", err)
	default:
		fmt.Printf("  Admin:   %s\n", admin.Hex())
	}
	return nil
}

func history(ctx context.Context, client *ledger.OnchainAttendanceClient, tag interfaces.TagID) error {
	records, err := client.AttendanceHistory(ctx, tag)
	if err != nil {
		return err
	}

	return printJSON(struct {
		TagID   interfaces.TagID              `json:"tag_id"`
		Records []interfaces.AttendanceRecord `json:"records"`
		Summary gateway.AttendanceSummary     `json:"summary"`
	}{tag, records, gateway.Summarize(records)})
}

func students(ctx context.Context, _ *ethclient.Client, client *ledger.OnchainAttendanceClient) error {
	registered, err := client.RegisteredStudents(ctx)
	if err != nil {
		return err
	}
	return printJSON(registered)
}

func printJSON(v interface{}) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func toGwei(wei *big.Int) string {
	return new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.GWei)).Text('f', 2)
}
