package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cametumbling/crawler-shard/internal/actorcore"
	"github.com/cametumbling/crawler-shard/internal/crawlerr"
	"github.com/cametumbling/crawler-shard/internal/ipcsock"
	"github.com/cametumbling/crawler-shard/internal/model"
)

// Config holds the FETCHER_* settings from spec §6.
type Config struct {
	ShardID          string
	Timeout          time.Duration
	MaxResponseBytes int64
	MaxHeaderBytes   int64
	OutputDir        string
	ProgressDir      string
	UserAgent        string
}

// Worker adapts Request to the actorcore lifecycle, one HTTP exchange per
// inbound URL record. Ported from HTTPFetcher.on_message: stages the
// response into progress_dir, renames into output_dir just before
// publishing, regardless of success.
type Worker struct {
	actorcore.BaseWorker

	Log    *zap.Logger
	Cfg    Config
	Outbox ipcsock.Outbox

	pid      int
	sequence int
}

func (w *Worker) OnInit(ctx context.Context) error {
	if err := os.MkdirAll(w.Cfg.OutputDir, 0o755); err != nil {
		return crawlerr.Wrap(crawlerr.CodeFileNotFound, "failed to create output directory", err)
	}
	if err := os.MkdirAll(w.Cfg.ProgressDir, 0o755); err != nil {
		return crawlerr.Wrap(crawlerr.CodeFileNotFound, "failed to create progress directory", err)
	}
	w.pid = os.Getpid()
	return nil
}

func (w *Worker) OnMessage(ctx context.Context, payload []byte) error {
	var rec model.URLRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return crawlerr.Wrap(crawlerr.CodeParseError, "malformed url record", err)
	}

	name := w.uniqueFileName()
	progressPath := filepath.Join(w.Cfg.ProgressDir, name)
	destPath := filepath.Join(w.Cfg.OutputDir, name)

	result := model.FetchResult{URLRecord: rec, Path: destPath}

	headers := rec.Headers
	if w.Cfg.UserAgent != "" {
		if headers == nil {
			headers = make(map[string]string, 1)
		}
		if _, ok := headers["User-Agent"]; !ok {
			headers["User-Agent"] = w.Cfg.UserAgent
		}
	}

	sink, err := os.Create(progressPath)
	if err != nil {
		return crawlerr.Wrap(crawlerr.CodeFileNotFound, "failed to open staging file", err)
	}

	req := &Request{
		URL:              rec.URL,
		Method:           rec.Method,
		Headers:          headers,
		RequestBody:      rec.Body,
		Timeout:          w.Cfg.Timeout,
		MaxResponseBytes: w.Cfg.MaxResponseBytes,
		MaxHeaderBytes:   w.Cfg.MaxHeaderBytes,
	}

	performErr := req.Perform(ctx, sink)
	sink.Close()

	if renameErr := os.Rename(progressPath, destPath); renameErr != nil {
		return crawlerr.Wrap(crawlerr.CodeFileNotFound, "failed to publish staged body", renameErr)
	}

	if performErr != nil {
		result.Success = false
		if ce, ok := performErr.(*crawlerr.Error); ok {
			result.Error = int(ce.Code)
		}
		w.Log.Error("fetch failed", zap.String("url", rec.URL), zap.Error(performErr))
	} else {
		result.Success = true
		result.MD5 = req.MD5Hash()
		if code, err := req.ResponseCode(); err == nil {
			result.HTTPCode = code
		}
		w.Log.Info("fetch succeeded", zap.String("url", rec.URL))
	}

	return w.Outbox.Put(ctx, result)
}

func (w *Worker) uniqueFileName() string {
	w.sequence++
	return fmt.Sprintf("fetcher-%s-%d-%d-%d", w.Cfg.ShardID, time.Now().Unix(), w.pid, w.sequence)
}
