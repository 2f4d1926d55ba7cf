package main

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cametumbling/crawler-shard/internal/actorcore"
	"github.com/cametumbling/crawler-shard/internal/analyzer"
	"github.com/cametumbling/crawler-shard/internal/bloom"
	"github.com/cametumbling/crawler-shard/internal/fetcher"
	"github.com/cametumbling/crawler-shard/internal/graphlog"
	"github.com/cametumbling/crawler-shard/internal/ipcsock"
	"github.com/cametumbling/crawler-shard/internal/keyfilter"
	"github.com/cametumbling/crawler-shard/internal/persistfilter"
	"github.com/cametumbling/crawler-shard/internal/poolsup"
	"github.com/cametumbling/crawler-shard/internal/shardconfig"
)

// stages names the four pipeline stages a "worker" process can run, per
// spec §2's diagram (seed -> fetcher -> analyzer -> filter -> fetcher).
const (
	stageFetcher = "fetcher"
	stageAnalyzer = "analyzer"
	stageFilter   = "filter"
	stageLogger   = "logger"
)

// socketPath builds the well-known channel path for one stage's inbox,
// under DataDir and prefixed per the TEMP_PREFIX configuration key.
func socketPath(cfg *shardconfig.Config, stage string) string {
	return filepath.Join(cfg.DataDir, cfg.TempPrefix+stage+".sock")
}

// noopOutbox discards every publish — used for the logger stage, which is
// a terminal sink in the pipeline graph (basic.py's logger_outbox is
// created but never wired to a consumer).
type noopOutbox struct{}

func (noopOutbox) Put(ctx context.Context, payload any) error { return nil }

// buildSupervisor assembles the pool supervisor for one stage: its inbox
// server, its outbox (a direct client or a compound fan-out), and the
// worker factory that closes over whatever process-local state the stage
// needs (bloom filters, the persistent filter, the graph DB).
func buildSupervisor(ctx context.Context, cfg *shardconfig.Config, stage string, logger *zap.Logger, count int) (*poolsup.Supervisor, error) {
	inbox := ipcsock.NewServer(socketPath(cfg, stage), count)
	if err := inbox.Listen(); err != nil {
		return nil, err
	}

	switch stage {
	case stageFetcher:
		out := ipcsock.NewClient(socketPath(cfg, stageAnalyzer))
		fetcherCfg := cfg.FetcherConfig()
		factory := func() actorcore.Worker {
			return &fetcher.Worker{Log: logger, Cfg: fetcherCfg, Outbox: out}
		}
		return poolsup.New(logger, factory, inbox, out, count), nil

	case stageAnalyzer:
		filterClient := ipcsock.NewClient(socketPath(cfg, stageFilter))
		loggerClient := ipcsock.NewClient(socketPath(cfg, stageLogger))
		out := ipcsock.NewCompound(filterClient, loggerClient)
		opts := cfg.AnalyzerOptions()
		factory := func() actorcore.Worker {
			return &analyzer.Worker{Log: logger, Outbox: out, Options: opts}
		}
		return poolsup.New(logger, factory, inbox, out, count), nil

	case stageFilter:
		domainBloom, err := bloom.New(cfg.FrontierDomainBloomMaxN, cfg.FrontierDomainBloomP)
		if err != nil {
			return nil, err
		}
		urlBloom, err := bloom.New(cfg.FrontierURLBloomMaxN, cfg.FrontierURLBloomP)
		if err != nil {
			return nil, err
		}
		persistent, err := persistfilter.Open(cfg.FrontierKeyFilterDBPath, cfg.FilterHasherKeySize)
		if err != nil {
			return nil, err
		}

		composite := &keyfilter.Filter{
			DomainBloom: domainBloom,
			URLBloom:    urlBloom,
			Persistent:  persistent,
			Whitelist:   keyfilter.NewWhitelist(cfg.FrontierDomainWhitelist),
		}

		out := ipcsock.NewClient(socketPath(cfg, stageFetcher))
		factory := func() actorcore.Worker {
			return &keyfilter.Worker{Log: logger, Filter: composite, Outbox: out}
		}
		return poolsup.New(logger, factory, inbox, out, count), nil

	case stageLogger:
		graph, err := graphlog.Open(cfg.GraphLoggerPath)
		if err != nil {
			return nil, err
		}
		factory := func() actorcore.Worker {
			return &graphlog.Worker{Log: logger, Graph: graph}
		}
		return poolsup.New(logger, factory, inbox, noopOutbox{}, count), nil

	default:
		return nil, fmt.Errorf("unknown stage %q (want one of fetcher, analyzer, filter, logger)", stage)
	}
}
