// Package fetcher implements the streaming HTTP/1.0 fetcher (spec §4.2),
// ported from original_source/illume/clients/http.py (HTTPRequest) and
// original_source/illume/workers/http_fetcher.py (HTTPFetcher.on_message).
// Go gives us real TCP/TLS deadlines and a real bufio.Reader in place of
// the Python original's asyncio StreamReader plus a manually raced
// sleep/readline pair, but the wire-level algorithm — request
// serialization, line-by-line response reading, header-then-body
// accumulation, lazy header parsing — is carried over unchanged.
package fetcher

import (
	"bufio"
	"bytes"
	"context"
	"crypto/md5"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cametumbling/crawler-shard/internal/crawlerr"
)

const crlf = "\r\n"

// Request represents a single HTTP/1.0 transaction: one request, one
// response, streamed straight to a caller-provided sink.
type Request struct {
	URL         string
	Method      string
	Headers     map[string]string
	RequestBody string

	Timeout          time.Duration
	MaxResponseBytes int64
	MaxHeaderBytes   int64

	host string
	port string
	path string
	tls  bool

	headerBuf bytes.Buffer
	digest    hash.Hash
	bodyLen   int64

	headerState *headerParse
}

type headerParse struct {
	code    int
	headers http.Header
	err     error
}

// parseURL extracts (host, port, path, tls) the way urlsplit does in the
// original: hostname and scheme are mandatory, port defaults per scheme,
// path defaults to "/".
func (r *Request) parseURL() error {
	u, err := url.Parse(r.URL)
	if err != nil {
		return crawlerr.Wrap(crawlerr.CodeParseError, "malformed fetch URL", err)
	}
	if u.Hostname() == "" {
		return crawlerr.New(crawlerr.CodeParseError, "no hostname specified in URL")
	}

	r.tls = u.Scheme == "https"
	r.host = u.Hostname()
	r.port = u.Port()
	if r.port == "" {
		if r.tls {
			r.port = "443"
		} else {
			r.port = "80"
		}
	}
	r.path = u.Path
	if r.path == "" {
		r.path = "/"
	}
	if u.RawQuery != "" {
		r.path += "?" + u.RawQuery
	}
	return nil
}

// httpQuery builds the raw request bytes: request line, Host header,
// caller headers overlaid, an auto Content-Length when a body is present,
// terminated by CRLFCRLF and the body.
func (r *Request) httpQuery() []byte {
	method := r.Method
	if method == "" {
		method = "GET"
	}

	headers := map[string]string{"Host": net.JoinHostPort(r.host, r.port)}
	for k, v := range r.Headers {
		headers[k] = v
	}
	if r.RequestBody != "" {
		if _, ok := headers["Content-Length"]; !ok {
			headers["Content-Length"] = strconv.Itoa(len(r.RequestBody))
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s HTTP/1.0"+crlf, method, r.path)
	for k, v := range headers {
		fmt.Fprintf(&buf, "%s: %s"+crlf, k, v)
	}
	buf.WriteString(crlf)
	buf.WriteString(r.RequestBody)
	return buf.Bytes()
}

// Perform dials the origin, sends the request, and streams the response
// into sink. It returns a *crawlerr.Error on any wire-level fault. Dialing
// is bounded by the request timeout; once connected, the request write and
// the entire read phase share one further deadline of the same length —
// not a fresh deadline per line — per spec §4.2 step 4.
func (r *Request) Perform(ctx context.Context, sink io.Writer) error {
	if err := r.parseURL(); err != nil {
		return err
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	dialer := &net.Dialer{Timeout: timeout}
	addr := net.JoinHostPort(r.host, r.port)

	var conn net.Conn
	var err error
	if r.tls {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: r.host})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return crawlerr.Wrap(crawlerr.CodeReadTimeout, "failed to connect", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if err := conn.SetDeadline(deadline); err != nil {
		return crawlerr.Wrap(crawlerr.CodeReadTimeout, "failed to set deadline", err)
	}

	if _, err := conn.Write(r.httpQuery()); err != nil {
		return classifyIOErr(err)
	}

	return r.readResponse(conn, sink)
}

func (r *Request) readResponse(conn net.Conn, sink io.Writer) error {
	reader := bufio.NewReader(conn)
	method := r.Method
	if method == "" {
		method = "GET"
	}

	readingHeader := true
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) == 0 {
			if err != nil {
				if err == io.EOF {
					break
				}
				return classifyIOErr(err)
			}
			break
		}

		if readingHeader {
			if string(line) == crlf {
				readingHeader = false
				if method == "HEAD" {
					break
				}
			} else {
				r.headerBuf.Write(line)
			}
			if int64(r.headerBuf.Len()) > r.MaxHeaderBytes {
				return crawlerr.New(crawlerr.CodeReadCutoff, "header too large")
			}
		} else {
			if r.digest == nil {
				r.digest = md5.New()
			}
			r.digest.Write(line)
			if _, werr := sink.Write(line); werr != nil {
				return crawlerr.Wrap(crawlerr.CodeReadCutoff, "failed writing response sink", werr)
			}
			r.bodyLen += int64(len(line))
			if r.bodyLen > r.MaxResponseBytes {
				return crawlerr.New(crawlerr.CodeReadCutoff, "response body too large")
			}
		}

		if err != nil {
			if err == io.EOF {
				break
			}
			return classifyIOErr(err)
		}
	}

	return nil
}

func classifyIOErr(err error) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return crawlerr.Wrap(crawlerr.CodeReadTimeout, "http request took too long", err)
	}
	return crawlerr.Wrap(crawlerr.CodeReadCutoff, "connection error", err)
}

// MD5Hash returns the lowercase hex MD5 of the body bytes streamed so far.
func (r *Request) MD5Hash() string {
	if r.digest == nil {
		return hex.EncodeToString(md5.New().Sum(nil))
	}
	return hex.EncodeToString(r.digest.Sum(nil))
}

// parseHeaders lazily parses the accumulated header buffer on first access,
// caching success or failure (spec §4.2 step 7).
func (r *Request) parseHeaders() *headerParse {
	if r.headerState != nil {
		return r.headerState
	}

	buf := append(append([]byte{}, r.headerBuf.Bytes()...), []byte(crlf)...)
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(buf)), nil)
	if err != nil {
		r.headerState = &headerParse{err: crawlerr.Wrap(crawlerr.CodeParseError, "invalid response headers", err)}
		return r.headerState
	}
	r.headerState = &headerParse{code: resp.StatusCode, headers: resp.Header}
	return r.headerState
}

// ResponseCode returns the parsed HTTP status code, or an error if the
// header buffer failed to parse.
func (r *Request) ResponseCode() (int, error) {
	s := r.parseHeaders()
	if s.err != nil {
		return 0, s.err
	}
	return s.code, nil
}

// ResponseHeaders returns the parsed response headers, or an error if the
// header buffer failed to parse.
func (r *Request) ResponseHeaders() (http.Header, error) {
	s := r.parseHeaders()
	if s.err != nil {
		return nil, s.err
	}
	return s.headers, nil
}

// HeadersValid reports whether the header buffer parsed successfully,
// without raising the captured error.
func (r *Request) HeadersValid() bool {
	return r.parseHeaders().err == nil
}
