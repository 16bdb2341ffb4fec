package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/nfc-attendance/api/gatewayhandler"
	"github.com/ruteri/nfc-attendance/api/servers"
	"github.com/ruteri/nfc-attendance/cmd/flags"
	"github.com/ruteri/nfc-attendance/cmd/ledgercommon"
	"github.com/ruteri/nfc-attendance/gateway"
	"github.com/ruteri/nfc-attendance/rendezvous"
	"github.com/urfave/cli/v2"
)

var listenAddrFlag = &cli.StringFlag{
	Name:    "listen-addr",
	Value:   "127.0.0.1:8080",
	Usage:   "address to listen on for API",
	EnvVars: []string{"LISTEN_ADDR"},
}

var txTimeoutFlag = &cli.DurationFlag{
	Name:  "tx-timeout",
	Value: gateway.DefaultTxTimeout,
	Usage: "how long to wait for a registration or attendance transaction to be mined",
}

var directoryTimeoutFlag = &cli.DurationFlag{
	Name:  "directory-timeout",
	Value: 30 * time.Second,
	Usage: "how long to spend replaying student registrations at startup",
}

func main() {
	appFlags := []cli.Flag{
		listenAddrFlag,
		flags.RendezvousFlag,
		txTimeoutFlag,
		directoryTimeoutFlag,
		ledgercommon.AdminKeyFlag,
		ledgercommon.RPCTimeoutFlag,
		flags.LogServiceFlagFn("attendance-gateway"),
	}
	appFlags = append(appFlags, ledgercommon.LedgerFlags...)
	appFlags = append(appFlags, flags.CommonFlags...)

	app := &cli.App{
		Name:  "attendance-gateway",
		Usage: "Serve the NFC attendance web API backed by the attendance contract",
		Flags: appFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			ethClient, ledgerClient, err := ledgercommon.ConnectLedger(cCtx, logger)
			if err != nil {
				logger.Error("Failed to connect to the ledger", "err", err)
				return err
			}
			defer ethClient.Close()

			if err := ledgercommon.CheckReachable(cCtx, ethClient, ledgerClient, logger); err != nil {
				logger.Error("Ledger unreachable at startup", "err", err)
				return err
			}

			if err := ledgercommon.ConfigureSigner(cCtx, ethClient, ledgerClient, logger); err != nil {
				logger.Error("Failed to configure transaction signer", "err", err)
				return err
			}

			store, err := rendezvous.NewStoreFromURI(cCtx.String(flags.RendezvousFlag.Name), logger)
			if err != nil {
				logger.Error("Failed to create rendezvous store", "err", err)
				return err
			}
			defer store.Close()

			gw := gateway.NewGateway(gateway.Config{
				TxTimeout: cCtx.Duration(txTimeoutFlag.Name),
			}, ledgerClient, store, logger)

			loadCtx, cancel := context.WithTimeout(cCtx.Context, cCtx.Duration(directoryTimeoutFlag.Name))
			if _, err := gw.LoadDirectory(loadCtx); err != nil {
				// Unknown tags are shown as "Unknown" until the next dashboard refresh.
				logger.Warn("Starting with an empty student directory", "err", err)
			}
			cancel()

			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(listenAddrFlag.Name))
			server, err := servers.New(cfg, gatewayhandler.NewHandler(gw, logger))
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server", "rendezvous", gw.StoreName())
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
