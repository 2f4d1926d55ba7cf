package fetcher

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cametumbling/crawler-shard/internal/crawlerr"
)

// rawServer accepts exactly one connection and hands it to fn, which is
// responsible for writing whatever raw bytes the test wants.
func rawServer(t *testing.T, fn func(conn net.Conn)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		fn(conn)
	}()

	return ln.Addr().String()
}

func TestPerformSuccessReadsBodyAndComputesMD5(t *testing.T) {
	body := "hello world"
	addr := rawServer(t, func(conn net.Conn) {
		buf := make([]byte, 4096)
		conn.Read(buf)
		conn.Write([]byte("HTTP/1.0 200 OK\r\nContent-Type: text/plain\r\n\r\n" + body))
	})

	req := &Request{
		URL:              "http://" + addr + "/page",
		Timeout:          2 * time.Second,
		MaxResponseBytes: 1024,
		MaxHeaderBytes:   1024,
	}
	var sink bytes.Buffer
	err := req.Perform(context.Background(), &sink)
	require.NoError(t, err)

	assert.Equal(t, body, sink.String())
	sum := md5.Sum([]byte(body))
	assert.Equal(t, hex.EncodeToString(sum[:]), req.MD5Hash())

	code, err := req.ResponseCode()
	require.NoError(t, err)
	assert.Equal(t, 200, code)
	assert.True(t, req.HeadersValid())
}

func TestPerformHeadStopsAfterHeaders(t *testing.T) {
	addr := rawServer(t, func(conn net.Conn) {
		buf := make([]byte, 4096)
		conn.Read(buf)
		conn.Write([]byte("HTTP/1.0 200 OK\r\n\r\nshould not be read"))
	})

	req := &Request{
		URL:              "http://" + addr + "/page",
		Method:           "HEAD",
		Timeout:          2 * time.Second,
		MaxResponseBytes: 1024,
		MaxHeaderBytes:   1024,
	}
	var sink bytes.Buffer
	err := req.Perform(context.Background(), &sink)
	require.NoError(t, err)
	assert.Empty(t, sink.String())
}

func TestPerformBodyExactlyAtMaxResponseBytesSucceeds(t *testing.T) {
	body := strings.Repeat("x", 128)
	addr := rawServer(t, func(conn net.Conn) {
		buf := make([]byte, 4096)
		conn.Read(buf)
		conn.Write([]byte("HTTP/1.0 200 OK\r\n\r\n" + body))
	})

	req := &Request{
		URL:              "http://" + addr + "/page",
		Timeout:          2 * time.Second,
		MaxResponseBytes: int64(len(body)),
		MaxHeaderBytes:   1024,
	}
	var sink bytes.Buffer
	err := req.Perform(context.Background(), &sink)
	require.NoError(t, err)
	assert.Equal(t, body, sink.String())
}

func TestPerformBodyOneByteOverMaxResponseBytesCutsOff(t *testing.T) {
	body := strings.Repeat("x", 129)
	addr := rawServer(t, func(conn net.Conn) {
		buf := make([]byte, 4096)
		conn.Read(buf)
		conn.Write([]byte("HTTP/1.0 200 OK\r\n\r\n" + body))
	})

	req := &Request{
		URL:              "http://" + addr + "/page",
		Timeout:          2 * time.Second,
		MaxResponseBytes: 128,
		MaxHeaderBytes:   1024,
	}
	var sink bytes.Buffer
	err := req.Perform(context.Background(), &sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, crawlerr.ErrReadCutoff)
}

func TestPerformHeaderOverMaxHeaderBytesCutsOffBeforeBlankLine(t *testing.T) {
	addr := rawServer(t, func(conn net.Conn) {
		buf := make([]byte, 4096)
		conn.Read(buf)
		big := "X-Padding: " + strings.Repeat("p", 200) + "\r\n"
		conn.Write([]byte("HTTP/1.0 200 OK\r\n" + big + "\r\nbody"))
	})

	req := &Request{
		URL:              "http://" + addr + "/page",
		Timeout:          2 * time.Second,
		MaxResponseBytes: 1024,
		MaxHeaderBytes:   32,
	}
	var sink bytes.Buffer
	err := req.Perform(context.Background(), &sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, crawlerr.ErrReadCutoff)
	assert.Empty(t, sink.String())
}

func TestPerformTimeoutReturnsReadTimeout(t *testing.T) {
	addr := rawServer(t, func(conn net.Conn) {
		buf := make([]byte, 4096)
		conn.Read(buf)
		time.Sleep(300 * time.Millisecond)
	})

	req := &Request{
		URL:              "http://" + addr + "/page",
		Timeout:          50 * time.Millisecond,
		MaxResponseBytes: 1024,
		MaxHeaderBytes:   1024,
	}
	var sink bytes.Buffer
	err := req.Perform(context.Background(), &sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, crawlerr.ErrReadTimeout)
}

func TestPerformRejectsURLWithoutHostname(t *testing.T) {
	req := &Request{URL: "/just-a-path", Timeout: time.Second}
	var sink bytes.Buffer
	err := req.Perform(context.Background(), &sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, crawlerr.ErrParseError)
}

func TestParseURLDefaultsPortAndPath(t *testing.T) {
	r := &Request{URL: "http://example.test"}
	require.NoError(t, r.parseURL())
	assert.Equal(t, "example.test", r.host)
	assert.Equal(t, "80", r.port)
	assert.Equal(t, "/", r.path)
	assert.False(t, r.tls)
}

func TestParseURLHTTPSDefaultsPort443(t *testing.T) {
	r := &Request{URL: "https://example.test/a/b"}
	require.NoError(t, r.parseURL())
	assert.Equal(t, "443", r.port)
	assert.Equal(t, "/a/b", r.path)
	assert.True(t, r.tls)
}
