// Package shardconfig loads the configuration surface from spec §6 via
// viper, the way whitaker-io-machine's cmd package binds environment
// variables onto a cobra-fronted CLI. Every key in spec §6's table maps
// onto a field here, one-for-one, so no configuration knob silently falls
// back to an undocumented default.
package shardconfig

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cametumbling/crawler-shard/internal/analyzer"
	"github.com/cametumbling/crawler-shard/internal/fetcher"
)

// Config is the fully-resolved configuration surface for one shard
// process, covering every key in spec §6.
type Config struct {
	ShardID string
	DataDir string

	FetcherUserAgent        string
	FetcherTimeoutSeconds   int
	FetcherMaxResponseSize  int64
	FetcherHeaderMaxSize    int64
	FetcherOutputDirectory  string
	FetcherProgressDir      string

	ParserDropFragments bool
	ParserDropQuery     bool

	FrontierKeyFilterDBPath  string
	FrontierURLBloomMaxN     int
	FrontierURLBloomP        float64
	FrontierDomainBloomMaxN  int
	FrontierDomainBloomP     float64
	FrontierDomainWhitelist  []string

	FilterHasherKeySize int

	GraphLoggerPath string

	TempPrefix       string
	QueueEncodingType string
}

// defaults mirrors illume's config module defaults, adapted to Go types.
func setDefaults(v *viper.Viper) {
	v.SetDefault("SHARD_ID", "shard-0")
	v.SetDefault("DATA_DIR", "./data")

	v.SetDefault("FETCHER_USER_AGENT", "crawler-shard/1.0")
	v.SetDefault("FETCHER_TIMEOUT_SECONDS", 10)
	v.SetDefault("FETCHER_MAX_RESPONSE_SIZE", 1048576)
	v.SetDefault("FETCHER_HEADER_MAX_SIZE", 8192)
	v.SetDefault("FETCHER_OUTPUT_DIRECTORY", "./data/fetched")
	v.SetDefault("FETCHER_PROGRESS_DIR", "./data/progress")

	v.SetDefault("PARSER_DROP_FRAGMENTS", true)
	v.SetDefault("PARSER_DROP_QUERY", false)

	v.SetDefault("FRONTIER_KEY_FILTER_DB_PATH", "./data/filter.db")
	v.SetDefault("FRONTIER_URL_BLOOM_MAX_N", 1000000)
	v.SetDefault("FRONTIER_URL_BLOOM_P", 0.01)
	v.SetDefault("FRONTIER_DOMAIN_BLOOM_MAX_N", 100000)
	v.SetDefault("FRONTIER_DOMAIN_BLOOM_P", 0.01)
	v.SetDefault("FRONTIER_DOMAIN_WHITELIST", []string{})

	v.SetDefault("FILTER_HASHER_KEY_SIZE", 8)

	v.SetDefault("GRAPH_LOGGER_PATH", "./data/graph.db")

	v.SetDefault("TEMP_PREFIX", "crawler-shard-")
	v.SetDefault("QUEUE_ENCODING_TYPE", "utf-8")
}

// Load reads the configuration surface from environment variables (and, if
// present, a config file previously loaded into v), falling back to the
// illume-derived defaults above for anything unset.
func Load(v *viper.Viper) *Config {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		ShardID: v.GetString("SHARD_ID"),
		DataDir: v.GetString("DATA_DIR"),

		FetcherUserAgent:       v.GetString("FETCHER_USER_AGENT"),
		FetcherTimeoutSeconds:  v.GetInt("FETCHER_TIMEOUT_SECONDS"),
		FetcherMaxResponseSize: v.GetInt64("FETCHER_MAX_RESPONSE_SIZE"),
		FetcherHeaderMaxSize:   v.GetInt64("FETCHER_HEADER_MAX_SIZE"),
		FetcherOutputDirectory: v.GetString("FETCHER_OUTPUT_DIRECTORY"),
		FetcherProgressDir:     v.GetString("FETCHER_PROGRESS_DIR"),

		ParserDropFragments: v.GetBool("PARSER_DROP_FRAGMENTS"),
		ParserDropQuery:     v.GetBool("PARSER_DROP_QUERY"),

		FrontierKeyFilterDBPath: v.GetString("FRONTIER_KEY_FILTER_DB_PATH"),
		FrontierURLBloomMaxN:    v.GetInt("FRONTIER_URL_BLOOM_MAX_N"),
		FrontierURLBloomP:       v.GetFloat64("FRONTIER_URL_BLOOM_P"),
		FrontierDomainBloomMaxN: v.GetInt("FRONTIER_DOMAIN_BLOOM_MAX_N"),
		FrontierDomainBloomP:    v.GetFloat64("FRONTIER_DOMAIN_BLOOM_P"),
		FrontierDomainWhitelist: v.GetStringSlice("FRONTIER_DOMAIN_WHITELIST"),

		FilterHasherKeySize: v.GetInt("FILTER_HASHER_KEY_SIZE"),

		GraphLoggerPath: v.GetString("GRAPH_LOGGER_PATH"),

		TempPrefix:        v.GetString("TEMP_PREFIX"),
		QueueEncodingType: v.GetString("QUEUE_ENCODING_TYPE"),
	}
}

// FetcherConfig projects the fetcher-relevant subset of Config into the
// shape internal/fetcher.Worker expects.
func (c *Config) FetcherConfig() fetcher.Config {
	return fetcher.Config{
		ShardID:          c.ShardID,
		Timeout:          time.Duration(c.FetcherTimeoutSeconds) * time.Second,
		MaxResponseBytes: c.FetcherMaxResponseSize,
		MaxHeaderBytes:   c.FetcherHeaderMaxSize,
		OutputDir:        c.FetcherOutputDirectory,
		ProgressDir:      c.FetcherProgressDir,
		UserAgent:        c.FetcherUserAgent,
	}
}

// AnalyzerOptions projects the parser-relevant subset of Config into the
// shape internal/analyzer.ParseURL expects.
func (c *Config) AnalyzerOptions() analyzer.Options {
	return analyzer.Options{
		DropFragments: c.ParserDropFragments,
		DropQuery:     c.ParserDropQuery,
	}
}
