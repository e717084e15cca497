package xxh3

import (
	"context"
	"encoding/binary"
	"errors"
	"hash"
	"io"
)

// DefaultReadBlockSize is the chunk size used by [Hasher.ReadFrom].
const DefaultReadBlockSize = 1 << 16

// Hasher is a streaming XXH3 state. The zero value is ready to use with seed
// 0, like [New].
//
// A Hasher is single-owner: Write and Reset must not run concurrently with
// any other method. Sum64 and Sum128 do not modify the state and may be
// called concurrently with each other.
type Hasher struct {
	acc    [accNB]uint64
	secret [secretSize]byte
	buf    [internalBufferSize]byte

	buffered     int    // bytes held in buf
	stripesSoFar int    // stripes consumed in the current block
	total        uint64 // bytes written since the last reset
	seed         uint64
	ready        bool // acc and secret are initialized
}

var (
	_ hash.Hash64     = (*Hasher)(nil)
	_ io.StringWriter = (*Hasher)(nil)
	_ io.ReaderFrom   = (*Hasher)(nil)
)

// New returns a Hasher with seed 0.
func New() *Hasher {
	return NewSeed(0)
}

// NewSeed returns a Hasher that produces the same digests as [HashSeed] and
// [Hash128Seed] with the given seed.
func NewSeed(seed uint64) *Hasher {
	h := &Hasher{}
	h.ResetSeed(seed)
	return h
}

// Reset discards all written data and keeps the current seed.
func (h *Hasher) Reset() {
	h.ResetSeed(h.seed)
}

// ResetSeed discards all written data and switches to seed.
func (h *Hasher) ResetSeed(seed uint64) {
	h.acc = initAcc
	initCustomSecret(&h.secret, seed)
	clear(h.buf[:])
	h.buffered = 0
	h.stripesSoFar = 0
	h.total = 0
	h.seed = seed
	h.ready = true
}

// Seed returns the seed the Hasher was last reset with.
func (h *Hasher) Seed() uint64 { return h.seed }

// Size returns the length in bytes of the digest appended by Sum.
func (h *Hasher) Size() int { return 8 }

// BlockSize returns the stripe length.
func (h *Hasher) BlockSize() int { return stripeLen }

// Len returns the number of bytes written since the last reset.
func (h *Hasher) Len() uint64 { return h.total }

// Write appends p to the hashed input. It never returns an error.
func (h *Hasher) Write(p []byte) (int, error) {
	h.update(p)
	return len(p), nil
}

// WriteString appends the UTF-8 bytes of s. It never returns an error.
func (h *Hasher) WriteString(s string) (int, error) {
	h.update(stringBytes(s))
	return len(s), nil
}

// WriteUint16 appends v as 2 little-endian bytes.
func (h *Hasher) WriteUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	h.update(b[:])
}

// WriteUint32 appends v as 4 little-endian bytes.
func (h *Hasher) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	h.update(b[:])
}

// WriteUint64 appends v as 8 little-endian bytes.
func (h *Hasher) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	h.update(b[:])
}

// WriteUint128 appends v as 16 little-endian bytes, low half first.
func (h *Hasher) WriteUint128(v Uint128) {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[:8], v.Lo)
	binary.LittleEndian.PutUint64(b[8:], v.Hi)
	h.update(b[:])
}

// ReadFrom appends everything read from r until EOF.
func (h *Hasher) ReadFrom(r io.Reader) (int64, error) {
	return h.ReadFromContext(context.Background(), r, DefaultReadBlockSize)
}

// ReadFromContext appends everything read from r until EOF, reading at most
// blockSize bytes at a time. ctx is checked between reads; once it is done
// no further reads happen and ctx.Err() is returned. Bytes read before that
// point remain part of the state.
func (h *Hasher) ReadFromContext(ctx context.Context, r io.Reader, blockSize int) (int64, error) {
	if blockSize <= 0 {
		blockSize = DefaultReadBlockSize
	}
	block := make([]byte, blockSize)

	var n int64
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		m, err := r.Read(block)
		if m > 0 {
			h.update(block[:m])
			n += int64(m)
		}
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
	}
}

func (h *Hasher) update(p []byte) {
	if len(p) == 0 {
		return
	}
	if !h.ready {
		h.ResetSeed(h.seed)
	}
	h.total += uint64(len(p))

	if len(p) <= internalBufferSize-h.buffered {
		h.buffered += copy(h.buf[h.buffered:], p)
		return
	}

	if h.buffered > 0 {
		n := copy(h.buf[h.buffered:], p)
		p = p[n:]
		h.consumeStripes(&h.acc, &h.stripesSoFar, h.buf[:], internalBufferStripes)
		h.buffered = 0
	}

	// At least one byte always stays buffered for the digest.
	if len(p) > internalBufferSize {
		var last []byte
		for len(p) > internalBufferSize {
			h.consumeStripes(&h.acc, &h.stripesSoFar, p, internalBufferStripes)
			last = p[internalBufferSize-stripeLen : internalBufferSize]
			p = p[internalBufferSize:]
		}
		// Keep the stripe preceding the tail for short-tail digests.
		copy(h.buf[internalBufferSize-stripeLen:], last)
	}

	h.buffered = copy(h.buf[:], p)
}

// consumeStripes accumulates n stripes from in, scrambling when the
// current block of the secret is exhausted.
func (h *Hasher) consumeStripes(acc *[accNB]uint64, soFar *int, in []byte, n int) {
	secret := h.secret[:]
	if stripesPerBlock-*soFar <= n {
		toEnd := stripesPerBlock - *soFar
		after := n - toEnd
		accumulate(acc, in, secret[*soFar*secretConsumeRate:], toEnd)
		active.scramble(acc, secret[secretLimit:])
		accumulate(acc, in[toEnd*stripeLen:], secret, after)
		*soFar = after
		return
	}
	accumulate(acc, in, secret[*soFar*secretConsumeRate:], n)
	*soFar += n
}

// digestLong finishes a scratch copy of the accumulator for inputs longer
// than 240 bytes.
func (h *Hasher) digestLong(acc *[accNB]uint64) {
	*acc = h.acc
	secret := h.secret[:]
	if h.buffered >= stripeLen {
		soFar := h.stripesSoFar
		h.consumeStripes(acc, &soFar, h.buf[:], (h.buffered-1)/stripeLen)
		active.accumulate512(acc, h.buf[h.buffered-stripeLen:], secret[secretLimit-lastAccStart:])
		return
	}

	var last [stripeLen]byte
	catchup := stripeLen - h.buffered
	copy(last[:], h.buf[internalBufferSize-catchup:])
	copy(last[catchup:], h.buf[:h.buffered])
	active.accumulate512(acc, last[:], secret[secretLimit-lastAccStart:])
}

// Sum64 returns the 64-bit digest of everything written so far.
func (h *Hasher) Sum64() uint64 {
	if h.total > 240 {
		var acc [accNB]uint64
		h.digestLong(&acc)
		return mergeAccs(&acc, h.secret[mergeAccsStart:], h.total*prime64_1)
	}
	return hash64(h.buf[:h.total], h.seed)
}

// Sum128 returns the 128-bit digest of everything written so far.
func (h *Hasher) Sum128() Uint128 {
	if h.total > 240 {
		var acc [accNB]uint64
		h.digestLong(&acc)
		return merge128(&acc, h.secret[:], h.total)
	}
	return hash128(h.buf[:h.total], h.seed)
}

// Sum appends the big-endian 64-bit digest to b.
func (h *Hasher) Sum(b []byte) []byte {
	return binary.BigEndian.AppendUint64(b, h.Sum64())
}
