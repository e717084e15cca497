package xxbloom

// goldenRatio32 steps the probe hash between consecutive probes.
const goldenRatio32 = 0x9e3779b9

// A cacheLine is one 512-bit cache line. Bit b of the line is bit b&63 of word
// b>>6, which is byte b>>3, bit b&7 of the little-endian serialized form.
type cacheLine = [lineWords]uint64

// probeKernel sets or tests the probe bits of one key within its line.
// Every kernel must touch exactly the same bits.
type probeKernel struct {
	name     string
	add      func(l *cacheLine, h uint32, numProbes int)
	mayMatch func(l *cacheLine, h uint32, numProbes int) bool
}

var scalarProbe = probeKernel{"scalar", addScalar, mayMatchScalar}

// activeProbe is the kernel Filter and AtomicFilter probe with. Tests swap
// it to build filters through other kernel forms.
var activeProbe = scalarProbe

// bitAddress is the top 9 bits of a probe hash.
func bitAddress(h uint32) uint32 {
	return h >> (32 - 9)
}

func addScalar(l *cacheLine, h uint32, numProbes int) {
	for i := 0; i < numProbes; i++ {
		bit := bitAddress(h)
		l[bit>>6] |= 1 << (bit & 63)
		h *= goldenRatio32
	}
}

func mayMatchScalar(l *cacheLine, h uint32, numProbes int) bool {
	for i := 0; i < numProbes; i++ {
		bit := bitAddress(h)
		if l[bit>>6]&(1<<(bit&63)) == 0 {
			return false
		}
		h *= goldenRatio32
	}
	return true
}
