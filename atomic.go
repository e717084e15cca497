package xxbloom

import (
	"math/bits"
	"sync/atomic"
	"unsafe"
)

// AtomicFilter is a Filter that allows concurrent adds and queries from any
// number of goroutines. It uses the same bit layout, probe sequence and
// shape rules as [Filter], so the two convert losslessly.
//
// TestAndAdd is not a single atomic operation: two goroutines adding the
// same key may both see it as absent.
type AtomicFilter struct {
	raw       []byte          // backing allocation, kept for the GC
	words     []atomic.Uint64 // numLines*8 words, cache-line aligned
	numLines  uint32
	numProbes int
	seed      uint64
}

// NewAtomic creates an empty concurrent filter. The parameters are the same
// as for [NewWithSeed].
func NewAtomic(sizeBytes, millibitsPerKey int, seed uint64) (*AtomicFilter, error) {
	return newAtomicFilter(sizeBytes, ChooseNumProbes(millibitsPerKey), seed)
}

// NewAtomicForKeys creates a concurrent filter sized for keys keys at the
// target false positive rate. Like [NewForKeys], it fails when the target
// needs more than the maximum size.
func NewAtomicForKeys(keys uint64, fpRate float64, seed uint64) (*AtomicFilter, error) {
	size, mbpk, err := sizeForKeys(keys, fpRate)
	if err != nil {
		return nil, err
	}
	return NewAtomic(size, mbpk, seed)
}

// NewAtomicFromFilter creates a concurrent filter holding a copy of f.
func NewAtomicFromFilter(f *Filter) *AtomicFilter {
	a, _ := newAtomicFilter(f.Len(), f.numProbes, f.seed)
	for i, w := range f.words {
		a.words[i].Store(w)
	}
	return a
}

func newAtomicFilter(sizeBytes, numProbes int, seed uint64) (*AtomicFilter, error) {
	if err := validateShape(sizeBytes, numProbes); err != nil {
		return nil, err
	}

	raw, words := makeAlignedAtomicUint64Slice(sizeBytes / 8)
	return &AtomicFilter{
		raw:       raw,
		words:     words,
		numLines:  uint32(sizeBytes / LineBytes),
		numProbes: numProbes,
		seed:      seed,
	}, nil
}

// makeAlignedAtomicUint64Slice allocates a cache-line aligned slice of n
// atomic.Uint64s.
func makeAlignedAtomicUint64Slice(n int) ([]byte, []atomic.Uint64) {
	// atomic.Uint64 is the same size as uint64.
	const atomicSize = 8
	raw := make([]byte, n*atomicSize+cacheLineSize-1)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	offset := (cacheLineSize - int(addr%cacheLineSize)) % cacheLineSize
	aligned := unsafe.Slice((*atomic.Uint64)(unsafe.Pointer(&raw[offset])), n)
	return raw, aligned
}

// Add inserts key.
func (f *AtomicFilter) Add(key []byte) {
	f.AddHash(hashData(key, f.seed))
}

// AddString inserts the UTF-8 bytes of s without allocating.
func (f *AtomicFilter) AddString(s string) {
	f.AddHash(hashString(s, f.seed))
}

// AddUTF16 inserts s hashed as little-endian UTF-16 code units.
func (f *AtomicFilter) AddUTF16(s string) {
	f.AddHash(hashUTF16(s, f.seed))
}

// AddHash inserts a key by its precomputed seeded 64-bit XXH3 hash.
func (f *AtomicFilter) AddHash(h uint64) {
	idx, h2 := lineIndex(h, f.numLines)
	base := int(idx) * lineWords
	for i := 0; i < f.numProbes; i++ {
		bit := bitAddress(h2)
		f.words[base+int(bit>>6)].Or(1 << (bit & 63))
		h2 *= goldenRatio32
	}
}

// MayMatch reports whether key may have been added.
func (f *AtomicFilter) MayMatch(key []byte) bool {
	return f.MayMatchHash(hashData(key, f.seed))
}

// MayMatchString is the string counterpart of [AtomicFilter.MayMatch].
func (f *AtomicFilter) MayMatchString(s string) bool {
	return f.MayMatchHash(hashString(s, f.seed))
}

// MayMatchUTF16 is the counterpart of [AtomicFilter.AddUTF16].
func (f *AtomicFilter) MayMatchUTF16(s string) bool {
	return f.MayMatchHash(hashUTF16(s, f.seed))
}

// MayMatchHash queries by precomputed hash.
func (f *AtomicFilter) MayMatchHash(h uint64) bool {
	idx, h2 := lineIndex(h, f.numLines)
	base := int(idx) * lineWords
	for i := 0; i < f.numProbes; i++ {
		bit := bitAddress(h2)
		if f.words[base+int(bit>>6)].Load()&(1<<(bit&63)) == 0 {
			return false
		}
		h2 *= goldenRatio32
	}
	return true
}

// TestAndAdd inserts key and reports whether it may have been present
// before.
func (f *AtomicFilter) TestAndAdd(key []byte) bool {
	h := hashData(key, f.seed)
	present := f.MayMatchHash(h)
	f.AddHash(h)
	return present
}

// TestAndAddString is the string counterpart of [AtomicFilter.TestAndAdd].
func (f *AtomicFilter) TestAndAddString(s string) bool {
	h := hashString(s, f.seed)
	present := f.MayMatchHash(h)
	f.AddHash(h)
	return present
}

// Snapshot returns a Filter holding the current contents. Adds racing with
// the snapshot may or may not be included.
func (f *AtomicFilter) Snapshot() *Filter {
	out, _ := newFilter(f.Len(), f.numProbes, f.seed)
	for i := range f.words {
		out.words[i] = f.words[i].Load()
	}
	return out
}

// Clear removes all keys. Adds racing with Clear may survive it.
func (f *AtomicFilter) Clear() {
	for i := range f.words {
		f.words[i].Store(0)
	}
}

// PopCount returns the number of set bits.
func (f *AtomicFilter) PopCount() int {
	var n int
	for i := range f.words {
		n += bits.OnesCount64(f.words[i].Load())
	}
	return n
}

// Len returns the filter size in bytes.
func (f *AtomicFilter) Len() int {
	return len(f.words) * 8
}

// NumProbes returns the number of bits set per key.
func (f *AtomicFilter) NumProbes() int {
	return f.numProbes
}

// Seed returns the hash seed.
func (f *AtomicFilter) Seed() uint64 {
	return f.seed
}

// NumLines returns the number of 64-byte cache lines.
func (f *AtomicFilter) NumLines() int {
	return int(f.numLines)
}

// EstimatedFillRatio returns the fraction of bits that are set.
func (f *AtomicFilter) EstimatedFillRatio() float64 {
	return float64(f.PopCount()) / float64(len(f.words)*64)
}

// EstimatedFalsePositiveRate estimates the false positive rate after keys
// distinct keys have been added.
func (f *AtomicFilter) EstimatedFalsePositiveRate(keys uint64) float64 {
	return EstimatedFpRate(keys, uint64(f.Len()), f.numProbes, keyHashBits)
}
