package analyzer

import (
	"context"
	"encoding/json"
	"os"

	"go.uber.org/zap"

	"github.com/cametumbling/crawler-shard/internal/actorcore"
	"github.com/cametumbling/crawler-shard/internal/crawlerr"
	"github.com/cametumbling/crawler-shard/internal/ipcsock"
	"github.com/cametumbling/crawler-shard/internal/linkscan"
	"github.com/cametumbling/crawler-shard/internal/model"
)

// Worker reads a fetcher's staged body file off disk, scans it for links,
// resolves each against the page's own URL, and publishes the result.
// Grounded on FileAnalyzer in workers/analyzer.py.
type Worker struct {
	actorcore.BaseWorker

	Log     *zap.Logger
	Outbox  ipcsock.Outbox
	Options Options
}

func (w *Worker) OnMessage(ctx context.Context, payload []byte) error {
	var result model.FetchResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return crawlerr.Wrap(crawlerr.CodeParseError, "malformed fetch result", err)
	}

	body, err := os.ReadFile(result.Path)
	if err != nil {
		return crawlerr.Wrap(crawlerr.CodeFileNotFound, result.Path, err)
	}

	hrefs := linkscan.ExtractURLs(body)

	urls := make([]model.URLRecord, 0, len(hrefs))
	for _, href := range hrefs {
		resolved, domain, parseErr := ParseURL(result.URL, href, w.Options)
		if parseErr != nil {
			w.Log.Debug("dropping unparseable href", zap.String("href", href), zap.Error(parseErr))
			continue
		}
		urls = append(urls, model.URLRecord{URL: resolved, Domain: domain})
	}

	analyzed := model.AnalyzedResult{
		FetchResult: result,
		URLs:        urls,
	}

	return w.Outbox.Put(ctx, analyzed)
}
