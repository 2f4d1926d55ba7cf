package ipcsock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cametumbling/crawler-shard/internal/model"
)

func TestClientServerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hop.sock")

	server := NewServer(path, 1)
	require.NoError(t, server.Listen())
	defer server.Close()

	client := NewClient(path)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	record := model.URLRecord{URL: "http://example.test/a", Domain: "example.test"}
	require.NoError(t, client.Put(ctx, record))

	env, err := server.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, OpRoute, env.OpCode)

	var got model.URLRecord
	require.NoError(t, env.Decode(&got))
	assert.Equal(t, record, got)
}

func TestClientServerPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hop.sock")

	server := NewServer(path, 1)
	require.NoError(t, server.Listen())
	defer server.Close()

	client := NewClient(path)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, client.Put(ctx, model.URLRecord{URL: string(rune('a' + i))}))
	}

	for i := 0; i < 5; i++ {
		env, err := server.Get(ctx)
		require.NoError(t, err)

		var got model.URLRecord
		require.NoError(t, env.Decode(&got))
		assert.Equal(t, string(rune('a'+i)), got.URL)
	}
}

func TestClientNotReachableAfterRetries(t *testing.T) {
	client := NewClient(filepath.Join(t.TempDir(), "missing.sock"))
	client.MaxRetries = 2
	client.BaseBackoff = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := client.Put(ctx, model.URLRecord{URL: "http://x"})
	assert.Error(t, err)
}

func TestServerRejectsExtraClients(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hop.sock")

	server := NewServer(path, 1)
	require.NoError(t, server.Listen())
	defer server.Close()

	c1 := NewClient(path)
	defer c1.Close()
	c2 := NewClient(path)
	defer c2.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, c1.Dial(ctx))
	require.NoError(t, c2.Dial(ctx))

	// Only one client should ever be accepted into the reader rotation; the
	// first client's message must still be deliverable.
	require.NoError(t, c1.Put(ctx, model.URLRecord{URL: "http://first"}))

	env, err := server.Get(ctx)
	require.NoError(t, err)

	var got model.URLRecord
	require.NoError(t, env.Decode(&got))
	assert.Equal(t, "http://first", got.URL)

	// The second connection is accepted by the listener and then closed
	// without joining the reader rotation.
	require.Eventually(t, func() bool {
		server.mu.Lock()
		defer server.mu.Unlock()
		return server.accepted == 2
	}, time.Second, 10*time.Millisecond)
	server.mu.Lock()
	kept := len(server.conns)
	server.mu.Unlock()
	assert.Equal(t, 1, kept)
}

func TestCompoundPutFansOutToAllClients(t *testing.T) {
	pathA := filepath.Join(t.TempDir(), "a.sock")
	pathB := filepath.Join(t.TempDir(), "b.sock")

	serverA := NewServer(pathA, 1)
	serverB := NewServer(pathB, 1)
	require.NoError(t, serverA.Listen())
	require.NoError(t, serverB.Listen())
	defer serverA.Close()
	defer serverB.Close()

	compound := NewCompound(NewClient(pathA), NewClient(pathB))
	defer compound.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, compound.Put(ctx, model.URLRecord{URL: "http://fanout"}))

	for _, s := range []*Server{serverA, serverB} {
		env, err := s.Get(ctx)
		require.NoError(t, err)

		var got model.URLRecord
		require.NoError(t, env.Decode(&got))
		assert.Equal(t, "http://fanout", got.URL)
	}
}
