package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cametumbling/crawler-shard/internal/logging"
	"github.com/cametumbling/crawler-shard/internal/shardconfig"
)

// ensureDataDir makes sure the shard's data directory exists before any
// socket listener or SQLite file tries to live under it.
func ensureDataDir(cfg *shardconfig.Config) error {
	return os.MkdirAll(cfg.DataDir, 0o755)
}

var (
	workerStage string
	workerCount int
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run one pool of workers for a single pipeline stage",
	RunE:  runWorkerCmd,
}

func init() {
	workerCmd.Flags().StringVar(&workerStage, "stage", "", "fetcher|analyzer|filter|logger (required)")
	workerCmd.Flags().IntVar(&workerCount, "count", 4, "number of workers in the pool")
	_ = workerCmd.MarkFlagRequired("stage")
	rootCmd.AddCommand(workerCmd)
}

func runWorkerCmd(cmd *cobra.Command, args []string) error {
	cfg := shardconfig.Load(viper.New())
	if err := ensureDataDir(cfg); err != nil {
		return err
	}

	logger, err := logging.New(cfg.ShardID, workerStage)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	sup, err := buildSupervisor(ctx, cfg, workerStage, logger, workerCount)
	if err != nil {
		return err
	}

	err = sup.Run(ctx)
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}
