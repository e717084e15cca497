package xxbloom

import "github.com/jcalabro/xxbloom/xxh3"

// hashData returns the seeded 64-bit XXH3 of a key.
func hashData(data []byte, seed uint64) uint64 {
	return xxh3.HashSeed(data, seed)
}

// hashString hashes the UTF-8 bytes of s without converting to []byte.
func hashString(s string, seed uint64) uint64 {
	return xxh3.HashStringSeed(s, seed)
}

// hashUTF16 hashes s as little-endian UTF-16 code units.
func hashUTF16(s string, seed uint64) uint64 {
	return xxh3.HashUTF16(s, seed)
}

// hashSplit splits a key hash into the line selector (low 32 bits) and the
// probe seed (high 32 bits). The two halves are used independently.
func hashSplit(h uint64) (h1, h2 uint32) {
	return uint32(h), uint32(h >> 32)
}

// fastRange32 maps x onto [0, n) with a multiply and shift. It is slightly
// biased compared to x % n, and the filter layout depends on it exactly.
func fastRange32(x, n uint32) uint32 {
	return uint32((uint64(x) * uint64(n)) >> 32)
}

// lineIndex returns the cache line a key hash maps to in a filter with
// numLines lines.
func lineIndex(h uint64, numLines uint32) (idx, h2 uint32) {
	h1, h2 := hashSplit(h)
	return fastRange32(h1, numLines), h2
}
