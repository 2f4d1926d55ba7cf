package bloom

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cametumbling/crawler-shard/internal/crawlerr"
)

func TestNewSatisfiesSizingBounds(t *testing.T) {
	const n, p = 10000, 0.01

	f, err := New(n, p)
	require.NoError(t, err)

	ideal := optimalM(n, p)
	assert.GreaterOrEqual(t, float64(f.M()), 0.9*ideal)

	idealK := optimalK(ideal, n)
	assert.GreaterOrEqual(t, float64(f.K()+1), idealK)
}

func TestAddAndContains(t *testing.T) {
	f, err := New(1000, 0.01)
	require.NoError(t, err)

	require.NoError(t, f.Add([]byte("http://example.test/a")))

	assert.True(t, f.Contains([]byte("http://example.test/a")))
	assert.Equal(t, 1, f.Len())
}

func TestContainsNeverFalseNegative(t *testing.T) {
	f, err := New(500, 0.01)
	require.NoError(t, err)

	items := make([][]byte, 0, 500)
	for i := 0; i < 300; i++ {
		items = append(items, []byte(fmt.Sprintf("http://example.test/%d", i)))
	}
	for _, item := range items {
		require.NoError(t, f.Add(item))
	}
	for _, item := range items {
		assert.True(t, f.Contains(item))
	}
}

func TestAddRefusesPastMaxN(t *testing.T) {
	f, err := New(2, 0.01)
	require.NoError(t, err)

	require.NoError(t, f.Add([]byte("a")))
	require.NoError(t, f.Add([]byte("b")))

	err = f.Add([]byte("c"))
	assert.ErrorIs(t, err, crawlerr.ErrBloomSizeOverflow)
}

func TestNewRejectsNonPositiveSize(t *testing.T) {
	_, err := New(0, 0.01)
	assert.Error(t, err)
}
