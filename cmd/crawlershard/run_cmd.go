package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cametumbling/crawler-shard/internal/ipcsock"
	"github.com/cametumbling/crawler-shard/internal/logging"
	"github.com/cametumbling/crawler-shard/internal/seed"
	"github.com/cametumbling/crawler-shard/internal/shardconfig"
)

var runSeedFile string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Launch all four pipeline stages plus a one-shot seeder",
	Long: `run spawns one OS process per pipeline stage (fetcher, analyzer,
filter, logger), each running "crawlershard worker --stage=<name>", then
seeds the fetcher from --seed-file, dialing the fetcher's inbox socket with
retries and backoff until it is listening. This
mirrors original_source/illume/crawler/basic.py's BasicCrawler, which pools
one process per actor and feeds the fetcher inbox once at startup.`,
	RunE: runRunCmd,
}

func init() {
	runCmd.Flags().StringVar(&runSeedFile, "seed-file", "", "path to a line-delimited seed URL file (required)")
	_ = runCmd.MarkFlagRequired("seed-file")
	rootCmd.AddCommand(runCmd)
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg := shardconfig.Load(viper.New())
	if err := ensureDataDir(cfg); err != nil {
		return err
	}

	logger, err := logging.New(cfg.ShardID, "run")
	if err != nil {
		return err
	}
	defer logger.Sync()

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving own executable path: %w", err)
	}

	stages := []string{stageLogger, stageFilter, stageFetcher, stageAnalyzer}
	procs := make([]*exec.Cmd, 0, len(stages))

	for _, stage := range stages {
		c := exec.Command(self, "worker", "--stage="+stage)
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Start(); err != nil {
			killAll(procs)
			return fmt.Errorf("starting %s worker: %w", stage, err)
		}
		logger.Info("started stage process", zap.String("stage", stage), zap.Int("pid", c.Process.Pid))
		procs = append(procs, c)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, stopping stage processes")
		cancel()
		killAll(procs)
	}()

	client := ipcsock.NewClient(socketPath(cfg, stageFetcher))
	defer client.Close()
	seeder := &seed.Seeder{Log: logger, Outbox: client}
	if err := seeder.Run(ctx, runSeedFile); err != nil {
		killAll(procs)
		return fmt.Errorf("seeding fetcher: %w", err)
	}

	var wg sync.WaitGroup
	for _, c := range procs {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Wait()
		}()
	}
	wg.Wait()

	return nil
}

func killAll(procs []*exec.Cmd) {
	for _, c := range procs {
		if c.Process != nil {
			c.Process.Signal(syscall.SIGTERM)
		}
	}
}
