// Package seed implements the one-shot startup seeder (spec §3's "A
// seeding task reads a line-delimited list of URLs and feeds the fetcher
// inbox once at startup"), ported from original_source/illume/crawler/
// basic.py's FetcherSeeder.on_start.
package seed

import (
	"bufio"
	"context"
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/cametumbling/crawler-shard/internal/crawlerr"
	"github.com/cametumbling/crawler-shard/internal/ipcsock"
	"github.com/cametumbling/crawler-shard/internal/model"
)

// Seeder reads a line-delimited URL list and publishes one URLRecord per
// non-blank line to Outbox, then stops — it has no inbox and no ongoing
// lifecycle, unlike the pipeline's pooled workers.
type Seeder struct {
	Log    *zap.Logger
	Outbox ipcsock.Outbox
}

// Run publishes every URL in path, in file order, stopping at the first
// publish failure (a closed outbox or a connect fault).
func (s *Seeder) Run(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return crawlerr.Wrap(crawlerr.CodeFileNotFound, "no seed path specified", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		domain := ""
		if u, err := url.Parse(line); err == nil {
			domain = u.Host
		}

		rec := model.URLRecord{URL: line, Domain: domain}
		if err := s.Outbox.Put(ctx, rec); err != nil {
			return err
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return crawlerr.Wrap(crawlerr.CodeParseError, "failed reading seed file", err)
	}

	if s.Log != nil {
		s.Log.Info("seeded urls", zap.Int("count", count), zap.String("path", path))
	}
	return nil
}
