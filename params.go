package xxbloom

import (
	"math"
	"math/bits"
)

const (
	// LineBytes is the size of one cache line. Every key touches exactly one.
	LineBytes = 64
	// LineBits is the number of addressable bits in a cache line.
	LineBits = LineBytes * 8
	// lineWords is the number of uint64s per cache line.
	lineWords = LineBytes / 8

	// MaxProbes is the largest probe count ChooseNumProbes returns.
	MaxProbes = 24

	// maxLines keeps the byte length of a filter within a uint32, which the
	// line selection arithmetic depends on.
	maxLines = math.MaxUint32 / LineBytes

	// Bounds for EstimateSize. The search walks bits per key in
	// millibitsStep increments between these limits.
	minMillibitsPerKey = 1000
	maxMillibitsPerKey = 100_000
	millibitsStep      = 100

	// keyHashBits is the width of the per-key fingerprint: one 64-bit XXH3.
	keyHashBits = 64
)

// ChooseNumProbes returns the number of probes per key for a filter built
// with the given density in thousandths of a bit per key.
//
// The thresholds come from measurements of the cache-local layout rather
// than from the textbook k = ln2 * bits/key. They are part of the contract
// for existing filters and must not be re-derived. 14001 would be closer to
// 13800 if accuracy were the only concern, but it keeps more settings at 8
// probes or fewer.
func ChooseNumProbes(millibitsPerKey int) int {
	switch {
	case millibitsPerKey <= 2080:
		return 1
	case millibitsPerKey <= 3580:
		return 2
	case millibitsPerKey <= 5100:
		return 3
	case millibitsPerKey <= 6640:
		return 4
	case millibitsPerKey <= 8300:
		return 5
	case millibitsPerKey <= 10070:
		return 6
	case millibitsPerKey <= 11720:
		return 7
	case millibitsPerKey <= 14001:
		return 8
	case millibitsPerKey <= 16050:
		return 9
	case millibitsPerKey <= 18300:
		return 10
	case millibitsPerKey <= 22001:
		return 11
	case millibitsPerKey <= 25501:
		return 12
	case millibitsPerKey > 50000:
		return MaxProbes
	default:
		// e.g. 28000 -> 12, 28001 -> 13, 50000 -> 23
		return (millibitsPerKey-1)/2000 - 1
	}
}

// EstimateSize picks a filter size for the expected number of keys and the
// target false positive rate. It walks the density upwards until
// [EstimatedFpRate] for the resulting size meets the target and returns the
// size in bytes (a multiple of [LineBytes]) together with the density to
// pass to [New].
//
// A zero key count is treated as one key. Rates outside (0, 1) are clamped.
// When no filter within the maximum size meets the target, the largest
// filter is returned; [NewForKeys] reports that case as [ErrInvalidSize].
func EstimateSize(keys uint64, fpRate float64) (sizeBytes int, millibitsPerKey int) {
	sizeBytes, millibitsPerKey, _ = estimateSize(keys, fpRate)
	return sizeBytes, millibitsPerKey
}

// maxFilterBytes is the size of a filter with maxLines lines.
var maxFilterBytes uint64 = maxLines * LineBytes

// estimateSize is EstimateSize that also reports whether the target was met.
func estimateSize(keys uint64, fpRate float64) (sizeBytes int, millibitsPerKey int, ok bool) {
	if keys == 0 {
		keys = 1
	}
	if fpRate <= 0 || math.IsNaN(fpRate) {
		fpRate = 1e-9
	}
	if fpRate >= 1 {
		fpRate = 0.99
	}

	for mbpk := minMillibitsPerKey; mbpk <= maxMillibitsPerKey; mbpk += millibitsStep {
		size, fits := sizeForDensity(keys, mbpk)
		if !fits {
			break
		}
		if EstimatedFpRate(keys, uint64(size), ChooseNumProbes(mbpk), keyHashBits) <= fpRate {
			return size, mbpk, true
		}
	}
	return int(maxFilterBytes), maxMillibitsPerKey, false
}

// sizeForDensity rounds keys*millibits up to whole cache lines. fits is
// false when the result would exceed maxLines.
func sizeForDensity(keys uint64, millibitsPerKey int) (sizeBytes int, fits bool) {
	hi, millibits := bits.Mul64(keys, uint64(millibitsPerKey))
	if hi != 0 {
		return int(maxFilterBytes), false
	}
	totalBits := millibits / 1000
	if millibits%1000 != 0 {
		totalBits++
	}
	lines := (totalBits + LineBits - 1) / LineBits
	if lines > maxLines {
		return int(maxFilterBytes), false
	}
	return int(max(lines, 1) * LineBytes), true
}

// StandardFpRate is the false positive rate of a classic Bloom filter with
// the given bits per key and probe count: (1 - e^(-k/b))^k.
func StandardFpRate(bitsPerKey float64, numProbes int) float64 {
	k := float64(numProbes)
	return math.Pow(1-math.Exp(-k/bitsPerKey), k)
}

// CacheLocalFpRate is the false positive rate of a filter whose probes all
// land in one cache line of cacheLineBits bits. Keys are spread unevenly
// across lines, so the estimate averages the standard rate one standard
// deviation above and below the mean line occupancy.
func CacheLocalFpRate(bitsPerKey float64, numProbes int, cacheLineBits int) float64 {
	if bitsPerKey <= 0 {
		// Fix a discontinuity.
		return 1
	}
	lineBits := float64(cacheLineBits)
	keysPerLine := lineBits / bitsPerKey
	stddev := math.Sqrt(keysPerLine)
	crowded := StandardFpRate(lineBits/(keysPerLine+stddev), numProbes)
	uncrowded := StandardFpRate(lineBits/(keysPerLine-stddev), numProbes)
	return (crowded + uncrowded) / 2
}

// FingerprintFpRate is the chance that a new key shares its
// fingerprintBits-bit hash with one of numKeys stored keys.
func FingerprintFpRate(numKeys uint64, fingerprintBits int) float64 {
	base := float64(numKeys) * math.Pow(0.5, float64(fingerprintBits))
	if base > 0.0001 {
		return 1 - math.Exp(-base)
	}
	// Far below 1, where 1-exp loses precision.
	return base - base*base*0.5
}

// IndependentProbabilitySum returns the probability that at least one of
// two independent events with probabilities p and q happens.
func IndependentProbabilitySum(p, q float64) float64 {
	return p + q - p*q
}

// EstimatedFpRate estimates the false positive rate of a filter of the given
// size in bytes holding keys keys with numProbes probes each, where keys are
// reduced to hashBits-bit hashes. It is accurate enough for sizing and user
// feedback, not for correctness decisions.
func EstimatedFpRate(keys, bytes uint64, numProbes, hashBits int) float64 {
	return IndependentProbabilitySum(
		CacheLocalFpRate(8*float64(bytes)/float64(keys), numProbes, LineBits),
		FingerprintFpRate(keys, hashBits),
	)
}
