package xxh3

import (
	"math/bits"
	"unsafe"
)

// Hash returns the 64-bit XXH3 hash of b with seed 0.
func Hash(b []byte) uint64 {
	return hash64(b, 0)
}

// HashSeed returns the 64-bit XXH3 hash of b with the given seed.
func HashSeed(b []byte, seed uint64) uint64 {
	return hash64(b, seed)
}

// HashString returns the 64-bit XXH3 hash of the UTF-8 bytes of s.
func HashString(s string) uint64 {
	return hash64(stringBytes(s), 0)
}

// HashStringSeed returns the seeded 64-bit XXH3 hash of the UTF-8 bytes of s.
func HashStringSeed(s string, seed uint64) uint64 {
	return hash64(stringBytes(s), seed)
}

// stringBytes views s as a byte slice without copying. The result must
// not be written to.
func stringBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func hash64(in []byte, seed uint64) uint64 {
	n := len(in)
	switch {
	case n <= 16:
		return hashLen0To16(in, seed)
	case n <= 128:
		return hashLen17To128(in, seed)
	case n <= 240:
		return hashLen129To240(in, seed)
	default:
		return hashLong64(in, seed)
	}
}

func hashLen0To16(in []byte, seed uint64) uint64 {
	n := len(in)
	switch {
	case n > 8:
		return hashLen9To16(in, seed)
	case n >= 4:
		return hashLen4To8(in, seed)
	case n > 0:
		return hashLen1To3(in, seed)
	}
	return avalanche64(seed ^ secret64(56) ^ secret64(64))
}

func hashLen1To3(in []byte, seed uint64) uint64 {
	n := len(in)
	c1 := uint32(in[0])
	c2 := uint32(in[n>>1])
	c3 := uint32(in[n-1])
	combined := c1<<16 | c2<<24 | c3 | uint32(n)<<8
	bitflip := uint64(secret32(0)^secret32(4)) + seed
	return avalanche64(uint64(combined) ^ bitflip)
}

func hashLen4To8(in []byte, seed uint64) uint64 {
	n := len(in)
	seed ^= uint64(bits.ReverseBytes32(uint32(seed))) << 32
	in1 := readLE32(in)
	in2 := readLE32(in[n-4:])
	bitflip := (secret64(8) ^ secret64(16)) - seed
	in64 := uint64(in2) + uint64(in1)<<32
	return rrmxmx(in64^bitflip, uint64(n))
}

func hashLen9To16(in []byte, seed uint64) uint64 {
	n := len(in)
	bitflip1 := (secret64(24) ^ secret64(32)) + seed
	bitflip2 := (secret64(40) ^ secret64(48)) - seed
	lo := readLE64(in) ^ bitflip1
	hi := readLE64(in[n-8:]) ^ bitflip2
	acc := uint64(n) + bits.ReverseBytes64(lo) + hi + mul128Fold64(lo, hi)
	return avalanche(acc)
}

func hashLen17To128(in []byte, seed uint64) uint64 {
	n := len(in)
	acc := uint64(n) * prime64_1
	if n > 32 {
		if n > 64 {
			if n > 96 {
				acc += mix16B(in[48:], kSecret[96:], seed)
				acc += mix16B(in[n-64:], kSecret[112:], seed)
			}
			acc += mix16B(in[32:], kSecret[64:], seed)
			acc += mix16B(in[n-48:], kSecret[80:], seed)
		}
		acc += mix16B(in[16:], kSecret[32:], seed)
		acc += mix16B(in[n-32:], kSecret[48:], seed)
	}
	acc += mix16B(in, kSecret[0:], seed)
	acc += mix16B(in[n-16:], kSecret[16:], seed)
	return avalanche(acc)
}

func hashLen129To240(in []byte, seed uint64) uint64 {
	n := len(in)
	acc := uint64(n) * prime64_1
	rounds := n / 16
	for i := 0; i < 8; i++ {
		acc += mix16B(in[16*i:], kSecret[16*i:], seed)
	}
	acc = avalanche(acc)
	for i := 8; i < rounds; i++ {
		acc += mix16B(in[16*i:], kSecret[16*(i-8)+midSizeStartOffset:], seed)
	}
	acc += mix16B(in[n-16:], kSecret[secretSizeMin-midSizeLastOffset:], seed)
	return avalanche(acc)
}

func hashLong64(in []byte, seed uint64) uint64 {
	if seed == 0 {
		return hashLong64Secret(in, kSecret[:])
	}
	var secret [secretSize]byte
	initCustomSecret(&secret, seed)
	return hashLong64Secret(in, secret[:])
}

func hashLong64Secret(in, secret []byte) uint64 {
	acc := initAcc
	hashLongLoop(&acc, in, secret)
	return mergeAccs(&acc, secret[mergeAccsStart:], uint64(len(in))*prime64_1)
}
