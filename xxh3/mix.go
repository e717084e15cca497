package xxh3

import (
	"encoding/binary"
	"math/bits"
)

// All loads are little-endian regardless of the host byte order.

func readLE64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }
func readLE32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

func secret64(off int) uint64 { return readLE64(kSecret[off:]) }
func secret32(off int) uint32 { return readLE32(kSecret[off:]) }

// mul128 returns the full 128-bit product of a and b.
func mul128(a, b uint64) (lo, hi uint64) {
	hi, lo = bits.Mul64(a, b)
	return lo, hi
}

func mul128Fold64(a, b uint64) uint64 {
	lo, hi := mul128(a, b)
	return lo ^ hi
}

func mult32to64(a, b uint64) uint64 {
	return (a & 0xFFFFFFFF) * (b & 0xFFFFFFFF)
}

func xorshift64(v uint64, shift uint) uint64 {
	return v ^ (v >> shift)
}

// avalanche is the XXH3 final mix.
func avalanche(h uint64) uint64 {
	h = xorshift64(h, 37)
	h *= avalancheMul
	return xorshift64(h, 32)
}

// avalanche64 is the XXH64 final mix, reused by the 1..3 byte paths.
func avalanche64(h uint64) uint64 {
	h ^= h >> 33
	h *= prime64_2
	h ^= h >> 29
	h *= prime64_3
	h ^= h >> 32
	return h
}

func rrmxmx(h uint64, length uint64) uint64 {
	h ^= bits.RotateLeft64(h, 49) ^ bits.RotateLeft64(h, 24)
	h *= rrmxmxMul
	h ^= (h >> 35) + length
	h *= rrmxmxMul
	return xorshift64(h, 28)
}

// mix16B mixes 16 bytes of input with 16 bytes of secret.
func mix16B(in, secret []byte, seed uint64) uint64 {
	lo := readLE64(in)
	hi := readLE64(in[8:])
	return mul128Fold64(
		lo^(readLE64(secret)+seed),
		hi^(readLE64(secret[8:])-seed),
	)
}

// mix32B folds two 16-byte windows into a 128-bit accumulator.
func mix32B(acc Uint128, in1, in2, secret []byte, seed uint64) Uint128 {
	acc.Lo += mix16B(in1, secret, seed)
	acc.Lo ^= readLE64(in2) + readLE64(in2[8:])
	acc.Hi += mix16B(in2, secret[16:], seed)
	acc.Hi ^= readLE64(in1) + readLE64(in1[8:])
	return acc
}

// initCustomSecret derives the per-seed secret. dst never aliases kSecret.
func initCustomSecret(dst *[secretSize]byte, seed uint64) {
	for i := 0; i < secretSize; i += 16 {
		binary.LittleEndian.PutUint64(dst[i:], readLE64(kSecret[i:])+seed)
		binary.LittleEndian.PutUint64(dst[i+8:], readLE64(kSecret[i+8:])-seed)
	}
}
