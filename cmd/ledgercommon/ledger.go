package ledgercommon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ruteri/nfc-attendance/cmd/flags"
	"github.com/ruteri/nfc-attendance/ledger"
	"github.com/urfave/cli/v2"
)

var AdminKeyFlag = &cli.StringFlag{
	Name:    "admin-privkey",
	Usage:   "hex-encoded private key of the contract admin, used to sign registrations and marks",
	EnvVars: []string{"ADMIN_PRIVKEY"},
}

var RPCTimeoutFlag = &cli.DurationFlag{
	Name:  "rpc-timeout",
	Value: 10 * time.Second,
	Usage: "timeout for the startup RPC checks",
}

var LedgerFlags = []cli.Flag{
	flags.RpcAddrFlag,
	flags.ContractFlag,
	flags.ContractArtifactFlag,
}

var ErrNoContractAddress = errors.New("contract address not set: pass --contract or an artifact with an address")

// ConnectLedger dials the RPC endpoint and binds the attendance contract from the
// ledger flags. The caller owns the returned ethclient.
func ConnectLedger(cCtx *cli.Context, log *slog.Logger) (*ethclient.Client, *ledger.OnchainAttendanceClient, error) {
	artifact, err := loadArtifact(cCtx.String(flags.ContractArtifactFlag.Name))
	if err != nil {
		return nil, nil, err
	}

	address, err := contractAddress(cCtx.String(flags.ContractFlag.Name), artifact)
	if err != nil {
		return nil, nil, err
	}

	rpcAddr := cCtx.String(flags.RpcAddrFlag.Name)
	log.Info("Connecting to Ethereum RPC", "address", rpcAddr)
	ethClient, err := ethclient.Dial(rpcAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("could not dial RPC %s: %w", rpcAddr, err)
	}

	client, err := ledger.NewOnchainAttendanceClient(ethClient, ethClient, address, artifact)
	if err != nil {
		ethClient.Close()
		return nil, nil, err
	}

	log.Info("Attendance contract bound", "contract", address.Hex())
	return ethClient, client, nil
}

// CheckReachable fails when the RPC endpoint does not answer. A missing contract
// is only logged; it may be deployed after the gateway starts.
func CheckReachable(cCtx *cli.Context, ethClient *ethclient.Client, client *ledger.OnchainAttendanceClient, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(cCtx.Context, cCtx.Duration(RPCTimeoutFlag.Name))
	defer cancel()

	block, err := ethClient.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("could not fetch latest block: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		log.Warn("Attendance contract not reachable", "err", err, "contract", client.Address().Hex())
	}
	log.Info("Ledger reachable", "latestBlock", block)
	return nil
}

// ConfigureSigner installs the admin transactor on client. Without an admin key the
// client stays read-only and transactions fail with interfaces.ErrNoTransactOpts.
func ConfigureSigner(cCtx *cli.Context, ethClient *ethclient.Client, client *ledger.OnchainAttendanceClient, log *slog.Logger) error {
	raw := cCtx.String(AdminKeyFlag.Name)
	if raw == "" {
		log.Warn("No admin key configured, registrations and attendance marks will be rejected")
		return nil
	}

	key, err := ledger.ParsePrivateKey(raw)
	if err != nil {
		return fmt.Errorf("invalid admin key: %w", err)
	}

	ctx, cancel := context.WithTimeout(cCtx.Context, cCtx.Duration(RPCTimeoutFlag.Name))
	defer cancel()

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("could not fetch chain id: %w", err)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return fmt.Errorf("could not create transactor: %w", err)
	}

	client.SetTransactOpts(auth)
	log.Info("Transaction signer configured", "admin", auth.From.Hex(), "chainId", chainID)
	return nil
}

func loadArtifact(path string) (*ledger.Artifact, error) {
	if path == "" {
		return ledger.DefaultArtifact()
	}
	return ledger.LoadArtifact(path)
}

func contractAddress(flagValue string, artifact *ledger.Artifact) (common.Address, error) {
	if flagValue != "" {
		if !common.IsHexAddress(flagValue) {
			return common.Address{}, fmt.Errorf("invalid contract address %q", flagValue)
		}
		return common.HexToAddress(flagValue), nil
	}
	if artifact.Address != nil {
		return *artifact.Address, nil
	}
	return common.Address{}, ErrNoContractAddress
}
