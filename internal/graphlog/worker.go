package graphlog

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/cametumbling/crawler-shard/internal/actorcore"
	"github.com/cametumbling/crawler-shard/internal/crawlerr"
	"github.com/cametumbling/crawler-shard/internal/model"
)

// Worker records the domains an analyzed page linked to as edges in the
// entity graph. Ported from CrawlLogger.on_message.
type Worker struct {
	actorcore.BaseWorker

	Log   *zap.Logger
	Graph *Graph
}

func (w *Worker) OnMessage(ctx context.Context, payload []byte) error {
	var msg model.AnalyzedResult
	if err := json.Unmarshal(payload, &msg); err != nil {
		return crawlerr.Wrap(crawlerr.CodeParseError, "malformed analyzed result", err)
	}

	if msg.URL == "" || len(msg.URLs) == 0 {
		w.Log.Warn("got invalid message", zap.String("url", msg.URL), zap.Int("url_count", len(msg.URLs)))
		return nil
	}

	originHost := hostOf(msg.URL)

	destinations := make([]string, 0, len(msg.URLs))
	for _, u := range msg.URLs {
		destinations = append(destinations, hostOf(u.URL))
	}

	if err := w.Graph.AddEntities(originHost, destinations, time.Now().Unix()); err != nil {
		return err
	}

	w.Log.Info("logged entities", zap.Int("count", len(msg.URLs)), zap.String("origin", originHost))
	return nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
