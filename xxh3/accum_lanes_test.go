package xxh3

// The lane-grouped kernels follow the data movement of the 128-bit and
// 256-bit vector forms: each group loads 2 or 4 lanes, swaps the data words
// pairwise, multiplies the low and high 32-bit halves of each keyed word and
// stores the group back. They cross-check the scalar kernel and give a
// vector port a layout to benchmark against.
var (
	lanes2Kernel = kernel{"lanes2", accumulate512Lanes2, scrambleLanes2}
	lanes4Kernel = kernel{"lanes4", accumulate512Lanes4, scrambleLanes4}
)

func accumulate512Lanes2(acc *[accNB]uint64, in, secret []byte) {
	in = in[:stripeLen]
	secret = secret[:stripeLen]
	for g := 0; g < accNB; g += 2 {
		d0 := readLE64(in[g*8:])
		d1 := readLE64(in[g*8+8:])
		k0 := d0 ^ readLE64(secret[g*8:])
		k1 := d1 ^ readLE64(secret[g*8+8:])

		a0 := acc[g] + d1 + (k0&0xFFFFFFFF)*(k0>>32)
		a1 := acc[g+1] + d0 + (k1&0xFFFFFFFF)*(k1>>32)
		acc[g], acc[g+1] = a0, a1
	}
}

func scrambleLanes2(acc *[accNB]uint64, secret []byte) {
	secret = secret[:stripeLen]
	for g := 0; g < accNB; g += 2 {
		k0 := acc[g] ^ acc[g]>>47 ^ readLE64(secret[g*8:])
		k1 := acc[g+1] ^ acc[g+1]>>47 ^ readLE64(secret[g*8+8:])

		// Low and high halves are multiplied separately and recombined,
		// which is equal to a full 64-bit multiply by a 32-bit prime.
		acc[g] = (k0&0xFFFFFFFF)*prime32_1 + ((k0>>32)*prime32_1)<<32
		acc[g+1] = (k1&0xFFFFFFFF)*prime32_1 + ((k1>>32)*prime32_1)<<32
	}
}

func accumulate512Lanes4(acc *[accNB]uint64, in, secret []byte) {
	in = in[:stripeLen]
	secret = secret[:stripeLen]
	for g := 0; g < accNB; g += 4 {
		var d, k [4]uint64
		for i := 0; i < 4; i++ {
			d[i] = readLE64(in[(g+i)*8:])
			k[i] = d[i] ^ readLE64(secret[(g+i)*8:])
		}
		acc[g+0] += d[1] + (k[0]&0xFFFFFFFF)*(k[0]>>32)
		acc[g+1] += d[0] + (k[1]&0xFFFFFFFF)*(k[1]>>32)
		acc[g+2] += d[3] + (k[2]&0xFFFFFFFF)*(k[2]>>32)
		acc[g+3] += d[2] + (k[3]&0xFFFFFFFF)*(k[3]>>32)
	}
}

func scrambleLanes4(acc *[accNB]uint64, secret []byte) {
	secret = secret[:stripeLen]
	for g := 0; g < accNB; g += 4 {
		var k [4]uint64
		for i := 0; i < 4; i++ {
			a := acc[g+i]
			k[i] = a ^ a>>47 ^ readLE64(secret[(g+i)*8:])
		}
		for i := 0; i < 4; i++ {
			acc[g+i] = (k[i]&0xFFFFFFFF)*prime32_1 + ((k[i]>>32)*prime32_1)<<32
		}
	}
}
