package ipcsock

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"github.com/cametumbling/crawler-shard/internal/crawlerr"
)

// Client is the producer side of a channel hop: it dials a remote Server's
// socket path and Puts messages there. Per spec §4.1, a client retries
// connection with exponential backoff up to MaxRetries attempts; after that
// many failures a NotReachable-equivalent fault is raised to the caller.
type Client struct {
	Path          string
	MaxRetries    int
	BaseBackoff   time.Duration

	mu     sync.Mutex
	conn   net.Conn
	writer *bufio.Writer
}

// NewClient constructs a Client targeting path. Defaults match the original
// UnixSocketClient: 3 retries, base backoff doubling from 2 seconds.
func NewClient(path string) *Client {
	return &Client{
		Path:        path,
		MaxRetries:  3,
		BaseBackoff: 2 * time.Second,
	}
}

// Dial connects, retrying with exponential backoff. After failed attempt n
// it waits BaseBackoff*2^(n-1) (2s, 4s, 8s with the defaults); ctx
// cancellation aborts early.
func (c *Client) Dial(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= c.MaxRetries; attempt++ {
		conn, err := net.Dial("unix", c.Path)
		if err == nil {
			c.conn = conn
			c.writer = bufio.NewWriter(conn)
			return nil
		}
		lastErr = err

		wait := c.BaseBackoff * time.Duration(1<<uint(attempt-1))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return crawlerr.Wrap(crawlerr.CodeQueueError, "socket not reachable: "+c.Path, lastErr)
}

// Put encodes and writes data as a ROUTE envelope. This is a suspension
// point per spec §5: it blocks (and, if not yet connected, dials) until the
// write completes. ctx cancels only the dial's backoff wait; the write
// itself does not observe ctx.
func (c *Client) Put(ctx context.Context, payload any) error {
	if err := c.Dial(ctx); err != nil {
		return err
	}

	env, err := Route(payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := writeEnvelope(c.writer, env); err != nil {
		return crawlerr.Wrap(crawlerr.CodeQueueError, "write failed", err)
	}

	return nil
}

// PutAdmin sends an administrative envelope (e.g. TOGGLE_PAUSE) rather than
// a ROUTE-wrapped data record.
func (c *Client) PutAdmin(ctx context.Context, op OpCode, payload any) error {
	if err := c.Dial(ctx); err != nil {
		return err
	}

	env, err := Admin(op, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := writeEnvelope(c.writer, env); err != nil {
		return crawlerr.Wrap(crawlerr.CodeQueueError, "write failed", err)
	}

	return nil
}

// Close shuts the connection down.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
