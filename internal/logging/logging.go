// Package logging centralizes the zap.Logger construction every stage
// uses, so "shard_id" and "stage" fields are never hand-attached
// inconsistently across cmd/crawlershard's subcommands.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-profile zap.Logger tagged with the shard and
// stage it belongs to. stage is one of "fetcher", "analyzer", "filter",
// "logger", "seed", "run" (spec §3's pipeline stages, plus the seeder and
// the "run" launcher).
func New(shardID, stage string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return logger.With(
		zap.String("shard_id", shardID),
		zap.String("stage", stage),
	), nil
}

// NewNop returns a no-op logger, for tests that don't care about log
// output but still need to satisfy a *zap.Logger field.
func NewNop() *zap.Logger {
	return zap.NewNop()
}
