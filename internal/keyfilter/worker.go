package keyfilter

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/cametumbling/crawler-shard/internal/actorcore"
	"github.com/cametumbling/crawler-shard/internal/crawlerr"
	"github.com/cametumbling/crawler-shard/internal/ipcsock"
	"github.com/cametumbling/crawler-shard/internal/model"
)

// Worker adapts Filter to the actorcore lifecycle, consuming an
// analyzer's output (each carrying a batch of discovered URLs) and
// republishing the ones the filter decides to keep. Ported from
// KeyFilter.on_message.
type Worker struct {
	actorcore.BaseWorker

	Log    *zap.Logger
	Filter *Filter
	Outbox ipcsock.Outbox
}

func (w *Worker) OnMessage(ctx context.Context, payload []byte) error {
	var msg model.AnalyzedResult
	if err := json.Unmarshal(payload, &msg); err != nil {
		return crawlerr.Wrap(crawlerr.CodeParseError, "malformed analyzed result", err)
	}

	for _, rec := range msg.URLs {
		out, err := w.Filter.HandleURL(rec)
		if err != nil {
			w.Log.Error("filter decision failed", zap.String("url", rec.URL), zap.Error(err))
			continue
		}
		if out == nil {
			continue
		}
		if err := w.Outbox.Put(ctx, out); err != nil {
			return err
		}
	}

	return nil
}
