package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/nfc-attendance/agent"
	"github.com/ruteri/nfc-attendance/api/gatewayhandler"
	"github.com/ruteri/nfc-attendance/cmd/flags"
	"github.com/ruteri/nfc-attendance/metrics"
	"github.com/ruteri/nfc-attendance/rendezvous"
	"github.com/urfave/cli/v2"
)

var gatewayURLFlag = &cli.StringFlag{
	Name:    "gateway-url",
	Value:   "http://127.0.0.1:8080",
	Usage:   "attendance gateway base URL",
	EnvVars: []string{"GATEWAY_URL"},
}

var sourceFlag = &cli.StringFlag{
	Name:  "source",
	Value: agent.SourceAuto,
	Usage: "tag source: 'auto', 'pcsc' or 'console'",
}

var readerFlag = &cli.StringFlag{
	Name:  "reader",
	Usage: "PC/SC reader name (substring match), the first reader when empty",
}

var pollTimeoutFlag = &cli.DurationFlag{
	Name:  "poll-timeout",
	Value: agent.DefaultPollTimeout,
	Usage: "how long one reader poll waits for a card",
}

var forwardTimeoutFlag = &cli.DurationFlag{
	Name:  "forward-timeout",
	Value: agent.DefaultForwardTimeout,
	Usage: "timeout for forwarding one attendance touch to the gateway",
}

var queueSizeFlag = &cli.IntFlag{
	Name:  "queue-size",
	Value: agent.DefaultQueueSize,
	Usage: "touches that may wait for forwarding before new ones are dropped",
}

var agentMetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "",
	Usage: "address to listen on for Prometheus metrics, disabled when empty",
}

func main() {
	app := &cli.App{
		Name:  "attendance-agent",
		Usage: "Read NFC tags and route them to registration or attendance",
		Flags: []cli.Flag{
			gatewayURLFlag,
			flags.RendezvousFlag,
			sourceFlag,
			readerFlag,
			pollTimeoutFlag,
			forwardTimeoutFlag,
			queueSizeFlag,
			agentMetricsAddrFlag,
			flags.LogJsonFlag,
			flags.LogDebugFlag,
			flags.LogUidFlag,
			flags.LogServiceFlagFn("attendance-agent"),
		},
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := rendezvous.NewStoreFromURI(cCtx.String(flags.RendezvousFlag.Name), logger)
			if err != nil {
				logger.Error("Failed to create rendezvous store", "err", err)
				return err
			}
			defer store.Close()

			source, err := agent.NewTagSource(cCtx.String(sourceFlag.Name), agent.SourceOptions{
				Reader:      cCtx.String(readerFlag.Name),
				PollTimeout: cCtx.Duration(pollTimeoutFlag.Name),
				In:          os.Stdin,
				Out:         os.Stdout,
			}, logger)
			if err != nil {
				logger.Error("Failed to open tag source", "err", err)
				return err
			}

			if addr := cCtx.String(agentMetricsAddrFlag.Name); addr != "" {
				metricsSrv, err := metrics.New(addr)
				if err != nil {
					return err
				}
				go func() {
					logger.Info("Starting metrics server", "metricsAddress", addr)
					if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("Metrics server failed", "err", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					metricsSrv.Shutdown(shutdownCtx)
				}()
			}

			forwardTimeout := cCtx.Duration(forwardTimeoutFlag.Name)
			client := gatewayhandler.NewClient(cCtx.String(gatewayURLFlag.Name), forwardTimeout)

			a := agent.NewAgent(agent.Config{
				ForwardTimeout: forwardTimeout,
				QueueSize:      cCtx.Int(queueSizeFlag.Name),
			}, source, store, client, logger)

			logger.Info("Agent running, press Ctrl+C to stop", "gateway", cCtx.String(gatewayURLFlag.Name))
			return a.Run(ctx)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
