package fetcher

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cametumbling/crawler-shard/internal/ipcsock"
	"github.com/cametumbling/crawler-shard/internal/model"
)

type recordingOutbox struct {
	published []any
}

func (r *recordingOutbox) Put(ctx context.Context, payload any) error {
	r.published = append(r.published, payload)
	return nil
}

func newTestWorker(t *testing.T, outbox ipcsock.Outbox) *Worker {
	t.Helper()
	dir := t.TempDir()
	w := &Worker{
		Log: zap.NewNop(),
		Cfg: Config{
			ShardID:          "shard-0",
			Timeout:          2 * time.Second,
			MaxResponseBytes: 1024,
			MaxHeaderBytes:   1024,
			OutputDir:        filepath.Join(dir, "output"),
			ProgressDir:      filepath.Join(dir, "progress"),
		},
		Outbox: outbox,
	}
	require.NoError(t, w.OnInit(context.Background()))
	return w
}

func TestWorkerOnMessageFetchesAndPublishesResult(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 4096)
		conn.Read(buf)
		conn.Write([]byte("HTTP/1.0 200 OK\r\n\r\nhello"))
	}()

	outbox := &recordingOutbox{}
	w := newTestWorker(t, outbox)

	rec := model.URLRecord{URL: "http://" + ln.Addr().String() + "/page", Domain: "example.test"}
	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	require.NoError(t, w.OnMessage(context.Background(), payload))
	require.Len(t, outbox.published, 1)

	result := outbox.published[0].(model.FetchResult)
	assert.True(t, result.Success)
	assert.Equal(t, 200, result.HTTPCode)
	assert.NotEmpty(t, result.MD5)

	body, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	_, err = os.Stat(filepath.Join(w.Cfg.ProgressDir, filepath.Base(result.Path)))
	assert.True(t, os.IsNotExist(err), "staging file should have been renamed away")
}

func TestWorkerOnMessageStillWritesStagingFileOnFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 4096)
		conn.Read(buf)
		time.Sleep(200 * time.Millisecond)
	}()

	outbox := &recordingOutbox{}
	w := newTestWorker(t, outbox)
	w.Cfg.Timeout = 20 * time.Millisecond

	rec := model.URLRecord{URL: "http://" + ln.Addr().String() + "/page", Domain: "example.test"}
	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	require.NoError(t, w.OnMessage(context.Background(), payload))
	require.Len(t, outbox.published, 1)

	result := outbox.published[0].(model.FetchResult)
	assert.False(t, result.Success)
	assert.NotZero(t, result.Error)

	_, err = os.Stat(result.Path)
	require.NoError(t, err, "staging file must be renamed into place even on failure")
}
