package shardconfig

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg := Load(viper.New())

	assert.Equal(t, "shard-0", cfg.ShardID)
	assert.Equal(t, 10, cfg.FetcherTimeoutSeconds)
	assert.Equal(t, int64(1048576), cfg.FetcherMaxResponseSize)
	assert.Equal(t, int64(8192), cfg.FetcherHeaderMaxSize)
	assert.True(t, cfg.ParserDropFragments)
	assert.False(t, cfg.ParserDropQuery)
	assert.Equal(t, 8, cfg.FilterHasherKeySize)
	assert.Equal(t, 0.01, cfg.FrontierURLBloomP)
}

func TestLoadReadsEnvironmentOverrides(t *testing.T) {
	t.Setenv("SHARD_ID", "shard-7")
	t.Setenv("FETCHER_TIMEOUT_SECONDS", "30")
	t.Setenv("PARSER_DROP_QUERY", "true")

	cfg := Load(viper.New())

	assert.Equal(t, "shard-7", cfg.ShardID)
	assert.Equal(t, 30, cfg.FetcherTimeoutSeconds)
	assert.True(t, cfg.ParserDropQuery)
}

func TestFetcherConfigProjection(t *testing.T) {
	cfg := Load(viper.New())
	fc := cfg.FetcherConfig()

	require.Equal(t, cfg.ShardID, fc.ShardID)
	assert.Equal(t, cfg.FetcherMaxResponseSize, fc.MaxResponseBytes)
	assert.Equal(t, cfg.FetcherUserAgent, fc.UserAgent)
}

func TestAnalyzerOptionsProjection(t *testing.T) {
	cfg := Load(viper.New())
	opts := cfg.AnalyzerOptions()

	assert.Equal(t, cfg.ParserDropFragments, opts.DropFragments)
	assert.Equal(t, cfg.ParserDropQuery, opts.DropQuery)
}
