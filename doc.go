// Package xxbloom provides a cache-line-blocked Bloom filter keyed by XXH3.
//
// A Bloom filter is a space-efficient probabilistic set. It can answer
// "definitely not present" or "may be present": false positives are
// possible, false negatives are not.
//
// # Layout
//
// The filter is a byte buffer split into 64-byte lines, the size of a CPU
// cache line. Every key is hashed once with the seeded 64-bit XXH3 from
// [github.com/jcalabro/xxbloom/xxh3]. The low 32 bits select a line with a
// multiply-shift range reduction, and the high 32 bits drive all probes
// inside that line, so each Add or MayMatch touches exactly one cache line.
//
// Probe i tests bit h>>23 of the line, where h starts at the high hash half
// and is multiplied by 0x9e3779b9 after every probe. Bit b of a line is
// byte b/8, bit b%8 of the buffer returned by [Filter.Bytes]. The layout,
// the line selection and the probe sequence are a stable format: a buffer
// saved by one process loads into another with the same probe count and
// seed and answers identically.
//
// # Choosing Parameters
//
// Density is expressed in thousandths of a bit per key ("millibits").
// [ChooseNumProbes] maps a density to a probe count using a fixed table
// measured for this layout. [EstimateSize] picks a size and density for a
// key count and target false positive rate:
//
//	f, err := xxbloom.NewForKeys(1_000_000, 0.01, 0)
//
// [New] and [NewWithSeed] take an explicit size in bytes (a positive
// multiple of 64) and density; [NewWithProbes] takes the probe count
// directly. [NewForKeys] fails with [ErrInvalidSize] when the target rate
// would need more than the maximum filter size, just under 4 GiB. [NewFromData] restores a filter from a saved
// buffer and its out-of-band probe count and seed; [Filter.MarshalBinary]
// and [UnmarshalBinary] carry both in a small header instead.
//
// # False Positive Rate
//
// [EstimatedFpRate] combines the cache-local Bloom rate with the chance of a
// 64-bit hash collision. It is meant for sizing and diagnostics. The actual
// rate of a given filter can be measured by querying keys that were never
// added.
//
// # Combining Filters
//
// [Filter.Union] and [Filter.Intersect] combine two filters bit by bit. Both
// must have the same length, probe count and seed, otherwise
// [ErrShapeMismatch] is returned and neither filter is modified.
//
// # Thread Safety
//
// [Filter] is not safe for concurrent adds. Queries may run concurrently
// with each other.
//
// [AtomicFilter] allows concurrent Add and MayMatch through atomic 64-bit OR.
// [AtomicFilter.Snapshot] and [NewAtomicFromFilter] convert between the two.
//
// # Text Keys
//
// [Filter.AddString] hashes the UTF-8 bytes of a string without allocating.
// [Filter.AddUTF16] hashes the string as little-endian UTF-16 code units,
// for filters shared with producers that hash text that way.
//
// # References
//
//   - Cache-local Bloom filters (RocksDB): https://github.com/facebook/rocksdb/wiki/RocksDB-Bloom-Filter
//   - XXH3: https://github.com/Cyan4973/xxHash
package xxbloom
