package xxh3

// A kernel is one implementation of the stripe accumulate and scramble
// rounds. Every kernel must produce identical accumulators.
type kernel struct {
	name string
	// accumulate512 folds one 64-byte stripe into acc, keyed by the first
	// 64 bytes of secret.
	accumulate512 func(acc *[accNB]uint64, in, secret []byte)
	// scramble remixes acc with the first 64 bytes of secret.
	scramble func(acc *[accNB]uint64, secret []byte)
}

var scalarKernel = kernel{"scalar", accumulate512Scalar, scrambleScalar}

// active is the kernel used by the long-input loop. Tests swap it to run the
// long path through other kernel forms.
var active = scalarKernel

// accumulate folds n consecutive stripes, advancing the secret by
// secretConsumeRate bytes per stripe.
func accumulate(acc *[accNB]uint64, in, secret []byte, n int) {
	for i := 0; i < n; i++ {
		active.accumulate512(acc, in[i*stripeLen:], secret[i*secretConsumeRate:])
	}
}

// hashLongLoop runs the block/stripe schedule over in, which must be
// longer than 240 bytes.
func hashLongLoop(acc *[accNB]uint64, in, secret []byte) {
	n := len(in)
	blocks := (n - 1) / blockLen
	for b := 0; b < blocks; b++ {
		accumulate(acc, in[b*blockLen:], secret, stripesPerBlock)
		active.scramble(acc, secret[secretLimit:])
	}

	stripes := ((n - 1) - blockLen*blocks) / stripeLen
	accumulate(acc, in[blocks*blockLen:], secret, stripes)

	// The last stripe is keyed off a window deliberately misaligned from
	// both the accumulate and scramble windows.
	active.accumulate512(acc, in[n-stripeLen:], secret[secretLimit-lastAccStart:])
}

func mix2Accs(lo, hi uint64, secret []byte) uint64 {
	return mul128Fold64(lo^readLE64(secret), hi^readLE64(secret[8:]))
}

func mergeAccs(acc *[accNB]uint64, secret []byte, start uint64) uint64 {
	for i := 0; i < 4; i++ {
		start += mix2Accs(acc[2*i], acc[2*i+1], secret[16*i:])
	}
	return avalanche(start)
}

func accumulate512Scalar(acc *[accNB]uint64, in, secret []byte) {
	in = in[:stripeLen]
	secret = secret[:stripeLen]
	for lane := 0; lane < accNB; lane++ {
		data := readLE64(in[lane*8:])
		key := data ^ readLE64(secret[lane*8:])
		acc[lane^1] += data
		acc[lane] += mult32to64(key, key>>32)
	}
}

func scrambleScalar(acc *[accNB]uint64, secret []byte) {
	secret = secret[:stripeLen]
	for lane := 0; lane < accNB; lane++ {
		a := xorshift64(acc[lane], 47)
		a ^= readLE64(secret[lane*8:])
		acc[lane] = a * prime32_1
	}
}
