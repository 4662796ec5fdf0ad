package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/0lexplorer/explorerx/pkg/logging"
	"github.com/0lexplorer/explorerx/pkg/provenance"
	"github.com/0lexplorer/explorerx/pkg/registry"
	"github.com/0lexplorer/explorerx/pkg/rpc"
	"github.com/0lexplorer/explorerx/pkg/utils"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[classify] %v\n", err)
	os.Exit(1)
}

func main() {
	app := cli.NewApp()
	app.Name = "classify"
	app.Usage = "classify an address and print its provenance"
	app.ArgsUsage = "<address>"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "node",
			Value:  "http://localhost:8080",
			Usage:  "Comma separated ledger node JSON-RPC endpoints.",
			EnvVar: "NODE_RPC_URLS",
		},
		cli.StringFlag{
			Name:   "permission-tree",
			Value:  "http://localhost:3030",
			Usage:  "Comma separated permission-tree service endpoints.",
			EnvVar: "PERMISSION_TREE_URLS",
		},
		cli.StringFlag{
			Name:   "vitals",
			Value:  "http://localhost:3030",
			Usage:  "Comma separated vitals service endpoints.",
			EnvVar: "VITALS_URLS",
		},
		cli.StringFlag{
			Name:      "wallets",
			Usage:     "YAML community wallet registry; the built-in list when empty.",
			EnvVar:    "COMMUNITY_WALLETS_FILE",
			TakesFile: true,
		},
		cli.IntFlag{
			Name:   "timeout",
			Value:  15,
			Usage:  "Per-request timeout in seconds.",
			EnvVar: "RPC_TIMEOUT_SECONDS",
		},
		cli.IntFlag{
			Name:   "parallelism",
			Usage:  "Maximum concurrent upstream calls; 0 picks a default from the CPU count.",
			EnvVar: "PIPELINE_MAX_PARALLELISM",
		},
		cli.BoolFlag{
			Name:  "json",
			Usage: "Print the raw classification as JSON.",
		},
		cli.StringFlag{
			Name:   "log-level",
			Value:  "warn",
			Usage:  "Log level: debug, info, warn or error.",
			EnvVar: "LOG_LEVEL",
		},
	}
	app.Action = classify

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func classify(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		_ = cli.ShowAppHelp(ctx)
		return fmt.Errorf("expected exactly one address")
	}
	address, err := provenance.ParseAddress(ctx.Args().First())
	if err != nil {
		return err
	}

	logger, err := logging.Build(ctx.String("log-level"), "console")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	wallets, err := registry.Load(ctx.String("wallets"))
	if err != nil {
		return err
	}

	opts := rpc.OptsFromEnv()
	opts.Timeout = time.Duration(ctx.Int("timeout")) * time.Second
	clients := rpc.NewClients(opts,
		utils.SplitList(ctx.String("node")),
		utils.SplitList(ctx.String("permission-tree")),
		utils.SplitList(ctx.String("vitals")),
	)

	pool := provenance.NewPool(ctx.Int("parallelism"))
	defer pool.StopAndWait()

	pipeline, err := provenance.New(provenance.Config{
		Node:           clients.Node,
		PermissionTree: clients.PermissionTree,
		Vitals:         clients.Vitals,
		Wallets:        wallets,
		Pool:           pool,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result := pipeline.Classify(runCtx, address)
	logger.Debug("classification finished", zap.Int("errors", len(result.Errors)))

	if ctx.Bool("json") {
		return writeJSON(os.Stdout, result)
	}

	render(os.Stdout, result)
	return nil
}
