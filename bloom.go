package xxbloom

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"unsafe"
)

// cacheLineSize is the alignment of every filter allocation.
const cacheLineSize = 64

var (
	// ErrInvalidSize is returned when a filter length is zero, not a
	// multiple of LineBytes, or too large.
	ErrInvalidSize = errors.New("xxbloom: invalid filter size")

	// ErrInvalidProbes is returned for a probe count outside [1, MaxProbes].
	ErrInvalidProbes = errors.New("xxbloom: invalid number of probes")

	// ErrShapeMismatch is returned when two filters combined with Union or
	// Intersect differ in length, probe count, or seed.
	ErrShapeMismatch = errors.New("xxbloom: filter shapes differ")

	// ErrLengthMismatch is returned when loading or saving filter data
	// through a buffer of the wrong length.
	ErrLengthMismatch = errors.New("xxbloom: data length mismatch")
)

// Filter is a cache-line-blocked Bloom filter. Each key is hashed once with
// seeded XXH3: the low half picks a 64-byte line and the high half drives
// every probe within that line.
//
// A Filter is not safe for concurrent use when any goroutine is adding.
// Concurrent queries are fine. See [AtomicFilter] for concurrent adds.
type Filter struct {
	raw       []byte   // backing allocation, kept for the GC
	words     []uint64 // numLines*8 words, cache-line aligned
	numLines  uint32
	numProbes int
	seed      uint64
}

// New creates an empty filter of sizeBytes bytes sized for the given density
// in thousandths of a bit per key, with seed 0. Use [EstimateSize] to derive
// both from a key count and target false positive rate.
func New(sizeBytes, millibitsPerKey int) (*Filter, error) {
	return NewWithSeed(sizeBytes, millibitsPerKey, 0)
}

// NewWithSeed is like [New] with an explicit hash seed. Filters only combine
// and agree on membership when they share a seed.
func NewWithSeed(sizeBytes, millibitsPerKey int, seed uint64) (*Filter, error) {
	return newFilter(sizeBytes, ChooseNumProbes(millibitsPerKey), seed)
}

// NewWithProbes creates an empty filter of sizeBytes bytes with an explicit
// probe count in [1, MaxProbes], bypassing [ChooseNumProbes].
func NewWithProbes(sizeBytes, numProbes int, seed uint64) (*Filter, error) {
	return newFilter(sizeBytes, numProbes, seed)
}

// NewForKeys creates a filter sized for keys keys at the target false
// positive rate. It returns [ErrInvalidSize] when no filter within the
// maximum size can meet the target.
func NewForKeys(keys uint64, fpRate float64, seed uint64) (*Filter, error) {
	size, mbpk, err := sizeForKeys(keys, fpRate)
	if err != nil {
		return nil, err
	}
	return NewWithSeed(size, mbpk, seed)
}

func sizeForKeys(keys uint64, fpRate float64) (sizeBytes, millibitsPerKey int, err error) {
	size, mbpk, ok := estimateSize(keys, fpRate)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %d keys at false positive rate %g need more than %d bytes",
			ErrInvalidSize, keys, fpRate, maxFilterBytes)
	}
	return size, mbpk, nil
}

// NewFromData creates a filter over a copy of data, which must have been
// produced by a filter with the same probe count and seed.
func NewFromData(data []byte, numProbes int, seed uint64) (*Filter, error) {
	f, err := newFilter(len(data), numProbes, seed)
	if err != nil {
		return nil, err
	}
	f.loadWords(data)
	return f, nil
}

func newFilter(sizeBytes, numProbes int, seed uint64) (*Filter, error) {
	if err := validateShape(sizeBytes, numProbes); err != nil {
		return nil, err
	}

	raw, words := makeAlignedUint64Slice(sizeBytes / 8)
	return &Filter{
		raw:       raw,
		words:     words,
		numLines:  uint32(sizeBytes / LineBytes),
		numProbes: numProbes,
		seed:      seed,
	}, nil
}

func validateShape(sizeBytes, numProbes int) error {
	switch {
	case sizeBytes <= 0:
		return fmt.Errorf("%w: %d bytes", ErrInvalidSize, sizeBytes)
	case sizeBytes%LineBytes != 0:
		return fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrInvalidSize, sizeBytes, LineBytes)
	case uint64(sizeBytes/LineBytes) > maxLines:
		return fmt.Errorf("%w: %d bytes exceeds the maximum of %d", ErrInvalidSize, sizeBytes, maxFilterBytes)
	case numProbes < 1 || numProbes > MaxProbes:
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidProbes, numProbes, MaxProbes)
	}
	return nil
}

// makeAlignedUint64Slice allocates a cache-line aligned slice of n uint64s.
// The raw slice must be kept alive for as long as the aligned one is used.
func makeAlignedUint64Slice(n int) ([]byte, []uint64) {
	raw := make([]byte, n*8+cacheLineSize-1)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	offset := (cacheLineSize - int(addr%cacheLineSize)) % cacheLineSize
	aligned := unsafe.Slice((*uint64)(unsafe.Pointer(&raw[offset])), n)
	return raw, aligned
}

// Clone returns an independent copy of f.
func (f *Filter) Clone() *Filter {
	raw, words := makeAlignedUint64Slice(len(f.words))
	copy(words, f.words)
	return &Filter{
		raw:       raw,
		words:     words,
		numLines:  f.numLines,
		numProbes: f.numProbes,
		seed:      f.seed,
	}
}

func (f *Filter) line(idx uint32) *cacheLine {
	base := int(idx) * lineWords
	return (*cacheLine)(f.words[base : base+lineWords])
}

// Add inserts key.
func (f *Filter) Add(key []byte) {
	f.AddHash(hashData(key, f.seed))
}

// AddString inserts the UTF-8 bytes of s without allocating.
func (f *Filter) AddString(s string) {
	f.AddHash(hashString(s, f.seed))
}

// AddUTF16 inserts s hashed as little-endian UTF-16 code units.
func (f *Filter) AddUTF16(s string) {
	f.AddHash(hashUTF16(s, f.seed))
}

// AddHash inserts a key by its precomputed seeded 64-bit XXH3 hash.
func (f *Filter) AddHash(h uint64) {
	idx, h2 := lineIndex(h, f.numLines)
	activeProbe.add(f.line(idx), h2, f.numProbes)
}

// MayMatch reports whether key may have been added. A false result is
// definitive.
func (f *Filter) MayMatch(key []byte) bool {
	return f.MayMatchHash(hashData(key, f.seed))
}

// MayMatchString is the string counterpart of [Filter.MayMatch].
func (f *Filter) MayMatchString(s string) bool {
	return f.MayMatchHash(hashString(s, f.seed))
}

// MayMatchUTF16 is the counterpart of [Filter.AddUTF16].
func (f *Filter) MayMatchUTF16(s string) bool {
	return f.MayMatchHash(hashUTF16(s, f.seed))
}

// MayMatchHash queries by precomputed hash.
func (f *Filter) MayMatchHash(h uint64) bool {
	idx, h2 := lineIndex(h, f.numLines)
	return activeProbe.mayMatch(f.line(idx), h2, f.numProbes)
}

// TestAndAdd inserts key and reports whether it may have been present
// before.
func (f *Filter) TestAndAdd(key []byte) bool {
	h := hashData(key, f.seed)
	idx, h2 := lineIndex(h, f.numLines)
	l := f.line(idx)
	present := activeProbe.mayMatch(l, h2, f.numProbes)
	activeProbe.add(l, h2, f.numProbes)
	return present
}

// TestAndAddString is the string counterpart of [Filter.TestAndAdd].
func (f *Filter) TestAndAddString(s string) bool {
	h := hashString(s, f.seed)
	idx, h2 := lineIndex(h, f.numLines)
	l := f.line(idx)
	present := activeProbe.mayMatch(l, h2, f.numProbes)
	activeProbe.add(l, h2, f.numProbes)
	return present
}

// checkShape reports whether other can be combined with f.
func (f *Filter) checkShape(other *Filter) error {
	switch {
	case len(f.words) != len(other.words):
		return fmt.Errorf("%w: length %d != %d", ErrShapeMismatch, f.Len(), other.Len())
	case f.numProbes != other.numProbes:
		return fmt.Errorf("%w: probes %d != %d", ErrShapeMismatch, f.numProbes, other.numProbes)
	case f.seed != other.seed:
		return fmt.Errorf("%w: seed %#x != %#x", ErrShapeMismatch, f.seed, other.seed)
	}
	return nil
}

// Union adds every key of other to f. Neither filter changes on error.
func (f *Filter) Union(other *Filter) error {
	if err := f.checkShape(other); err != nil {
		return err
	}
	for i, w := range other.words {
		f.words[i] |= w
	}
	return nil
}

// Intersect keeps only the bits f shares with other. Afterwards f matches a
// key only if both filters did. Neither filter changes on error.
func (f *Filter) Intersect(other *Filter) error {
	if err := f.checkShape(other); err != nil {
		return err
	}
	for i, w := range other.words {
		f.words[i] &= w
	}
	return nil
}

// Clear removes all keys.
func (f *Filter) Clear() {
	clear(f.words)
}

// PopCount returns the number of set bits.
func (f *Filter) PopCount() int {
	var n int
	for _, w := range f.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// LoadData replaces the contents of f with data, which must be exactly
// [Filter.Len] bytes. f is unchanged on error.
func (f *Filter) LoadData(data []byte) error {
	if len(data) != f.Len() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrLengthMismatch, len(data), f.Len())
	}
	f.loadWords(data)
	return nil
}

// SaveData copies the contents of f into dst, which must be exactly
// [Filter.Len] bytes.
func (f *Filter) SaveData(dst []byte) error {
	if len(dst) != f.Len() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrLengthMismatch, len(dst), f.Len())
	}
	f.saveWords(dst)
	return nil
}

// Bytes returns a copy of the filter contents.
func (f *Filter) Bytes() []byte {
	b := make([]byte, f.Len())
	f.saveWords(b)
	return b
}

func (f *Filter) loadWords(data []byte) {
	for i := range f.words {
		f.words[i] = binary.LittleEndian.Uint64(data[i*8:])
	}
}

func (f *Filter) saveWords(dst []byte) {
	for i, w := range f.words {
		binary.LittleEndian.PutUint64(dst[i*8:], w)
	}
}

// Len returns the filter size in bytes.
func (f *Filter) Len() int {
	return len(f.words) * 8
}

// NumProbes returns the number of bits set per key.
func (f *Filter) NumProbes() int {
	return f.numProbes
}

// Seed returns the hash seed.
func (f *Filter) Seed() uint64 {
	return f.seed
}

// NumLines returns the number of 64-byte cache lines.
func (f *Filter) NumLines() int {
	return int(f.numLines)
}

// EstimatedFillRatio returns the fraction of bits that are set.
func (f *Filter) EstimatedFillRatio() float64 {
	return float64(f.PopCount()) / float64(len(f.words)*64)
}

// EstimatedFalsePositiveRate estimates the false positive rate after keys
// distinct keys have been added.
func (f *Filter) EstimatedFalsePositiveRate(keys uint64) float64 {
	return EstimatedFpRate(keys, uint64(f.Len()), f.numProbes, keyHashBits)
}

const (
	// serializeVersion is the current serialization format version.
	serializeVersion byte = 1

	// headerSize is version (1) + probes (4) + seed (8) + length (8).
	headerSize = 21
)

var (
	// ErrInvalidData is returned when serialized data is malformed.
	ErrInvalidData = errors.New("xxbloom: invalid serialized data")

	// ErrUnsupportedVersion is returned for an unknown serialization version.
	ErrUnsupportedVersion = errors.New("xxbloom: unsupported serialization version")
)

// MarshalBinary serializes the filter as:
//   - Version (1 byte)
//   - Probes (4 bytes, little-endian uint32)
//   - Seed (8 bytes, little-endian uint64)
//   - Length (8 bytes, little-endian uint64): filter size in bytes
//   - Data (Length bytes): the filter contents as returned by Bytes
func (f *Filter) MarshalBinary() ([]byte, error) {
	buf := make([]byte, headerSize+f.Len())

	buf[0] = serializeVersion
	binary.LittleEndian.PutUint32(buf[1:5], uint32(f.numProbes))
	binary.LittleEndian.PutUint64(buf[5:13], f.seed)
	binary.LittleEndian.PutUint64(buf[13:21], uint64(f.Len()))
	f.saveWords(buf[headerSize:])

	return buf, nil
}

// UnmarshalBinary decodes a filter written by [Filter.MarshalBinary].
func UnmarshalBinary(data []byte) (*Filter, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: data too short (got %d bytes, need at least %d)", ErrInvalidData, len(data), headerSize)
	}

	version := data[0]
	if version != serializeVersion {
		return nil, fmt.Errorf("%w: got version %d, expected %d", ErrUnsupportedVersion, version, serializeVersion)
	}

	numProbes := binary.LittleEndian.Uint32(data[1:5])
	seed := binary.LittleEndian.Uint64(data[5:13])
	length := binary.LittleEndian.Uint64(data[13:21])

	if numProbes == 0 || numProbes > MaxProbes {
		return nil, fmt.Errorf("%w: probes=%d out of range [1, %d]", ErrInvalidData, numProbes, MaxProbes)
	}
	if length == 0 || length%LineBytes != 0 || length/LineBytes > maxLines {
		return nil, fmt.Errorf("%w: invalid length %d", ErrInvalidData, length)
	}
	if uint64(len(data)-headerSize) != length {
		return nil, fmt.Errorf("%w: data length mismatch (got %d bytes, expected %d)", ErrInvalidData, len(data), headerSize+length)
	}

	return NewFromData(data[headerSize:], int(numProbes), seed)
}
