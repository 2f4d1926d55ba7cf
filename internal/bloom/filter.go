package bloom

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/cametumbling/crawler-shard/internal/crawlerr"
)

// MaxAllocBits caps how large a single filter's bit array may be. The
// original guards allocation against live available-memory readings via
// psutil; no example repo's dependency set exposes a memory-introspection
// API, so this is a configurable ceiling instead (DESIGN.md).
var MaxAllocBits uint = 1 << 33 // 8Gib of bits = 1GiB bit array, generous default

// Filter is a probabilistic set over byte-string items. It never removes
// items (the original's remove() is an explicit NotImplementedError) and
// refuses further inserts once either max_n is reached or the current
// measured error rate exceeds the configured p.
type Filter struct {
	maxN int
	p    float64

	n int
	m int
	k int

	mFloat float64
	kFloat float64

	bits *bitset.BitSet
}

// New constructs a Filter sized for at most maxN insertions at false
// positive rate p. Ported from BloomFilter.__init__.
func New(maxN int, p float64) (*Filter, error) {
	mFloat := optimalM(maxN, p)
	kFloat := optimalK(mFloat, maxN)

	m := int(mFloat)
	k := int(kFloat)

	if m <= 0 {
		return nil, crawlerr.New(crawlerr.CodeAllocationValueError, "bloom filter size is non-positive")
	}
	if uint(m) > MaxAllocBits {
		return nil, crawlerr.New(crawlerr.CodeInsufficientMemory, "bloom filter exceeds configured allocation ceiling")
	}

	return &Filter{
		maxN:   maxN,
		p:      p,
		m:      m,
		k:      k,
		mFloat: mFloat,
		kFloat: kFloat,
		bits:   bitset.New(uint(m)),
	}, nil
}

// Len returns the number of items added so far.
func (f *Filter) Len() int { return f.n }

// M returns the bit-array size.
func (f *Filter) M() int { return f.m }

// K returns the hash-function count.
func (f *Filter) K() int { return f.k }

// CurrentErrorRate returns the filter's current measured false-positive
// probability. Ported from BloomFilter.current_p_float.
func (f *Filter) CurrentErrorRate() float64 {
	return errorRate(f.mFloat, f.kFloat, f.n)
}

// Add inserts item, returning a fault if the filter has reached max_n or
// already exceeds its configured error rate. Ported from
// BloomFilter.add/check_bounds.
func (f *Filter) Add(item []byte) error {
	if err := f.checkBounds(); err != nil {
		return err
	}

	for _, pos := range hashPositions(item, f.k, f.m) {
		f.bits.Set(pos)
	}
	f.n++
	return nil
}

// Contains reports whether item may be a member (false positives possible,
// false negatives never).
func (f *Filter) Contains(item []byte) bool {
	for _, pos := range hashPositions(item, f.k, f.m) {
		if !f.bits.Test(pos) {
			return false
		}
	}
	return true
}

func (f *Filter) checkBounds() error {
	if f.n == f.maxN {
		return crawlerr.New(crawlerr.CodeBloomSizeOverflow, "bloom filter reached max_n")
	}
	if f.CurrentErrorRate() > f.p {
		return crawlerr.New(crawlerr.CodeBloomExceedsErrorRate, "bloom filter exceeds configured error rate")
	}
	return nil
}
