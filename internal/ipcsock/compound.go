package ipcsock

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cametumbling/crawler-shard/internal/crawlerr"
)

// Compound fans a single Put out to N downstream Clients — used to split the
// analyzer's output to the filter and logger stages (spec §4.1, §2).
//
// Get is intentionally unimplemented: the original CompoundQueue.get raises
// "not implemented" (spec §9 open question), and the design leaves get on a
// fan-out channel undefined. Only Put is supported here.
type Compound struct {
	Clients []*Client
}

// NewCompound wraps the given clients as one fan-out channel.
func NewCompound(clients ...*Client) *Compound {
	return &Compound{Clients: clients}
}

// Put writes payload to every downstream client concurrently and waits for
// all of them to finish, per the original's do_action("put", ...) semantics.
func (c *Compound) Put(ctx context.Context, payload any) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, client := range c.Clients {
		client := client
		g.Go(func() error {
			return client.Put(gctx, payload)
		})
	}

	if err := g.Wait(); err != nil {
		return crawlerr.Wrap(crawlerr.CodeQueueError, "compound put failed", err)
	}

	return nil
}

// Close closes every downstream client.
func (c *Compound) Close() error {
	var firstErr error
	for _, client := range c.Clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
