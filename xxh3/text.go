package xxh3

import (
	"encoding/binary"
	"unicode/utf16"
)

// utf16Bytes encodes s as UTF-16 code units, each written as a
// little-endian byte pair. Invalid UTF-8 sequences become U+FFFD.
func utf16Bytes(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, 2*len(units))
	for _, u := range units {
		out = binary.LittleEndian.AppendUint16(out, u)
	}
	return out
}

// HashUTF16 hashes s as little-endian UTF-16 code units. Use it to agree
// with producers that hash text in that encoding; [HashString] hashes the
// UTF-8 bytes instead and gives different digests for the same text.
func HashUTF16(s string, seed uint64) uint64 {
	return hash64(utf16Bytes(s), seed)
}

// Hash128UTF16 is the 128-bit counterpart of [HashUTF16].
func Hash128UTF16(s string, seed uint64) Uint128 {
	return hash128(utf16Bytes(s), seed)
}

// WriteUTF16 appends s as little-endian UTF-16 code units. It returns the
// number of bytes appended.
func (h *Hasher) WriteUTF16(s string) int {
	b := utf16Bytes(s)
	h.update(b)
	return len(b)
}
