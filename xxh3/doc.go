// Package xxh3 implements the XXH3 non-cryptographic hash function in its
// 64-bit and 128-bit variants, both one-shot and streaming.
//
// Digests are bit-for-bit compatible with the reference xxHash library
// (v0.8 XXH3_64bits_withSeed / XXH3_128bits_withSeed). The hash is fast and
// well distributed but makes no claim of collision resistance against an
// adversary.
//
// # Input sizes
//
// The one-shot functions dispatch on input length:
//
//	0..16     bytes   small-input mixers
//	17..128   bytes   1-4 paired 16-byte mixes from both ends
//	129..240  bytes   sequential 16-byte mixes
//	> 240     bytes   striped 8-lane accumulator over 64-byte stripes
//
// For inputs above 240 bytes with a non-zero seed a per-seed secret is
// derived from the built-in 192-byte secret. Seed 0 uses the built-in secret
// directly.
//
// # Streaming
//
// [Hasher] accepts input in chunks of any size and produces the same digest
// as the one-shot functions over the concatenated input. Reading a digest
// does not modify the Hasher, so it can be queried at any point and then
// written to again.
//
// # Strings
//
// [HashString] hashes the UTF-8 bytes of a Go string without copying.
// [HashUTF16] and [Hasher.WriteUTF16] hash the string as UTF-16 code units
// written as little-endian byte pairs, which matches hashes produced by
// runtimes whose native string representation is UTF-16.
package xxh3
