package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cametumbling/crawler-shard/internal/ipcsock"
	"github.com/cametumbling/crawler-shard/internal/logging"
	"github.com/cametumbling/crawler-shard/internal/seed"
	"github.com/cametumbling/crawler-shard/internal/shardconfig"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Publish a line-delimited list of seed URLs to the fetcher inbox",
	RunE:  runSeedCmd,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "path to a line-delimited seed URL file (required)")
	_ = seedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(seedCmd)
}

func runSeedCmd(cmd *cobra.Command, args []string) error {
	cfg := shardconfig.Load(viper.New())

	logger, err := logging.New(cfg.ShardID, "seed")
	if err != nil {
		return err
	}
	defer logger.Sync()

	client := ipcsock.NewClient(socketPath(cfg, stageFetcher))
	defer client.Close()

	s := &seed.Seeder{Log: logger, Outbox: client}
	return s.Run(context.Background(), seedFile)
}
