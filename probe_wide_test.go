package xxbloom

// goldenRatio32Pow8 is goldenRatio32^8 mod 2^32, the step between groups of
// eight probes.
const goldenRatio32Pow8 = 0xab25f4c1

// probeMultipliers holds goldenRatio32^0 .. goldenRatio32^7 mod 2^32, so
// that h*probeMultipliers[j] is the hash of probe j within a group.
var probeMultipliers = [8]uint32{
	0x00000001, 0x9e3779b9, 0xe35e67b1, 0x734297e9,
	0x35fbe861, 0xdeb7c719, 0x0448b211, 0x3459b749,
}

// wide8Probe computes probes in groups of eight from a multiplier vector,
// the shape an AVX2 port would take. It must set the same bits as the
// scalar loop.
var wide8Probe = probeKernel{"wide8", addWide8, mayMatchWide8}

// probeMask8 computes the bits of up to eight probes starting at h as a
// per-word mask over the line.
func probeMask8(h uint32, n int) (mask cacheLine) {
	for j := 0; j < n; j++ {
		bit := bitAddress(h * probeMultipliers[j])
		mask[bit>>6] |= 1 << (bit & 63)
	}
	return mask
}

func addWide8(l *cacheLine, h uint32, numProbes int) {
	for rem := numProbes; rem > 0; rem -= 8 {
		mask := probeMask8(h, min(rem, 8))
		for w := range l {
			l[w] |= mask[w]
		}
		h *= goldenRatio32Pow8
	}
}

func mayMatchWide8(l *cacheLine, h uint32, numProbes int) bool {
	for rem := numProbes; rem > 0; rem -= 8 {
		mask := probeMask8(h, min(rem, 8))
		var missing uint64
		for w := range l {
			missing |= mask[w] &^ l[w]
		}
		if missing != 0 {
			return false
		}
		h *= goldenRatio32Pow8
	}
	return true
}
