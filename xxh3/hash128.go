package xxh3

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"math/bits"
)

// Uint128 is a 128-bit XXH3 digest. Hi holds the most significant 64 bits.
type Uint128 struct {
	Lo, Hi uint64
}

// String renders the digest as 32 uppercase hex digits, Hi first.
func (u Uint128) String() string {
	return fmt.Sprintf("%016X%016X", u.Hi, u.Lo)
}

// Bytes returns the digest as 16 big-endian bytes.
func (u Uint128) Bytes() [16]byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], u.Hi)
	binary.BigEndian.PutUint64(b[8:], u.Lo)
	return b
}

// Big returns the digest as a single unsigned 128-bit integer.
func (u Uint128) Big() *big.Int {
	b := u.Bytes()
	return new(big.Int).SetBytes(b[:])
}

// Hash128 returns the 128-bit XXH3 hash of b with seed 0.
func Hash128(b []byte) Uint128 {
	return hash128(b, 0)
}

// Hash128Seed returns the 128-bit XXH3 hash of b with the given seed.
func Hash128Seed(b []byte, seed uint64) Uint128 {
	return hash128(b, seed)
}

// Hash128String returns the 128-bit XXH3 hash of the UTF-8 bytes of s.
func Hash128String(s string) Uint128 {
	return hash128(stringBytes(s), 0)
}

// Hash128StringSeed returns the seeded 128-bit XXH3 hash of the UTF-8 bytes of s.
func Hash128StringSeed(s string, seed uint64) Uint128 {
	return hash128(stringBytes(s), seed)
}

func hash128(in []byte, seed uint64) Uint128 {
	n := len(in)
	switch {
	case n <= 16:
		return hash128Len0To16(in, seed)
	case n <= 128:
		return hash128Len17To128(in, seed)
	case n <= 240:
		return hash128Len129To240(in, seed)
	default:
		return hashLong128(in, seed)
	}
}

func hash128Len0To16(in []byte, seed uint64) Uint128 {
	n := len(in)
	switch {
	case n > 8:
		return hash128Len9To16(in, seed)
	case n >= 4:
		return hash128Len4To8(in, seed)
	case n > 0:
		return hash128Len1To3(in, seed)
	}
	return Uint128{
		Lo: avalanche64(seed ^ secret64(64) ^ secret64(72)),
		Hi: avalanche64(seed ^ secret64(80) ^ secret64(88)),
	}
}

func hash128Len1To3(in []byte, seed uint64) Uint128 {
	n := len(in)
	c1 := uint32(in[0])
	c2 := uint32(in[n>>1])
	c3 := uint32(in[n-1])
	combinedl := c1<<16 | c2<<24 | c3 | uint32(n)<<8
	combinedh := bits.RotateLeft32(bits.ReverseBytes32(combinedl), 13)
	bitflipl := uint64(secret32(0)^secret32(4)) + seed
	bitfliph := uint64(secret32(8)^secret32(12)) - seed
	return Uint128{
		Lo: avalanche64(uint64(combinedl) ^ bitflipl),
		Hi: avalanche64(uint64(combinedh) ^ bitfliph),
	}
}

func hash128Len4To8(in []byte, seed uint64) Uint128 {
	n := len(in)
	seed ^= uint64(bits.ReverseBytes32(uint32(seed))) << 32
	inLo := readLE32(in)
	inHi := readLE32(in[n-4:])
	in64 := uint64(inLo) + uint64(inHi)<<32
	bitflip := (secret64(16) ^ secret64(24)) + seed
	keyed := in64 ^ bitflip

	lo, hi := mul128(keyed, prime64_1+uint64(n)<<2)
	hi += lo << 1
	lo ^= hi >> 3
	lo = xorshift64(lo, 35)
	lo *= rrmxmxMul
	lo = xorshift64(lo, 28)
	return Uint128{Lo: lo, Hi: avalanche(hi)}
}

func hash128Len9To16(in []byte, seed uint64) Uint128 {
	n := len(in)
	bitflipl := (secret64(32) ^ secret64(40)) - seed
	bitfliph := (secret64(48) ^ secret64(56)) + seed
	inLo := readLE64(in)
	inHi := readLE64(in[n-8:])

	mLo, mHi := mul128(inLo^inHi^bitflipl, prime64_1)
	mLo += uint64(n-1) << 54
	inHi ^= bitfliph
	mHi += inHi + mult32to64(uint64(uint32(inHi)), prime32_2-1)
	mLo ^= bits.ReverseBytes64(mHi)

	hLo, hHi := mul128(mLo, prime64_2)
	hHi += mHi * prime64_2
	return Uint128{Lo: avalanche(hLo), Hi: avalanche(hHi)}
}

func hash128Len17To128(in []byte, seed uint64) Uint128 {
	n := len(in)
	acc := Uint128{Lo: uint64(n) * prime64_1}
	if n > 32 {
		if n > 64 {
			if n > 96 {
				acc = mix32B(acc, in[48:], in[n-64:], kSecret[96:], seed)
			}
			acc = mix32B(acc, in[32:], in[n-48:], kSecret[64:], seed)
		}
		acc = mix32B(acc, in[16:], in[n-32:], kSecret[32:], seed)
	}
	acc = mix32B(acc, in, in[n-16:], kSecret[0:], seed)
	return finalize128(acc, uint64(n), seed)
}

func hash128Len129To240(in []byte, seed uint64) Uint128 {
	n := len(in)
	acc := Uint128{Lo: uint64(n) * prime64_1}
	for i := 32; i < 160; i += 32 {
		acc = mix32B(acc, in[i-32:], in[i-16:], kSecret[i-32:], seed)
	}
	acc.Lo = avalanche(acc.Lo)
	acc.Hi = avalanche(acc.Hi)
	for i := 160; i <= n; i += 32 {
		acc = mix32B(acc, in[i-32:], in[i-16:], kSecret[midSizeStartOffset+i-160:], seed)
	}
	acc = mix32B(acc, in[n-16:], in[n-32:], kSecret[secretSizeMin-midSizeLastOffset-16:], 0-seed)
	return finalize128(acc, uint64(n), seed)
}

// finalize128 is shared by the 17..128 and 129..240 byte paths.
func finalize128(acc Uint128, n, seed uint64) Uint128 {
	lo := acc.Lo + acc.Hi
	hi := acc.Lo*prime64_1 + acc.Hi*prime64_4 + (n-seed)*prime64_2
	return Uint128{Lo: avalanche(lo), Hi: 0 - avalanche(hi)}
}

func hashLong128(in []byte, seed uint64) Uint128 {
	if seed == 0 {
		return hashLong128Secret(in, kSecret[:])
	}
	var secret [secretSize]byte
	initCustomSecret(&secret, seed)
	return hashLong128Secret(in, secret[:])
}

func hashLong128Secret(in, secret []byte) Uint128 {
	acc := initAcc
	hashLongLoop(&acc, in, secret)
	return merge128(&acc, secret, uint64(len(in)))
}

func merge128(acc *[accNB]uint64, secret []byte, n uint64) Uint128 {
	return Uint128{
		Lo: mergeAccs(acc, secret[mergeAccsStart:], n*prime64_1),
		Hi: mergeAccs(acc, secret[len(secret)-stripeLen-mergeAccsStart:], ^(n * prime64_2)),
	}
}
