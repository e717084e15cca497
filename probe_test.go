package xxbloom

import (
	"math/rand"
	"strconv"
	"testing"
)

func TestProbeMultipliersArePowers(t *testing.T) {
	p := uint32(1)
	for j, m := range probeMultipliers {
		if m != p {
			t.Errorf("probeMultipliers[%d] = %#x, want %#x", j, m, p)
		}
		p *= goldenRatio32
	}
	if p != goldenRatio32Pow8 {
		t.Errorf("goldenRatio32^8 = %#x, want %#x", p, uint32(goldenRatio32Pow8))
	}
}

func TestProbeKernelsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(1343))

	for probes := 1; probes <= MaxProbes; probes++ {
		for trial := 0; trial < 200; trial++ {
			h := rng.Uint32()

			var scalar, wide cacheLine
			addScalar(&scalar, h, probes)
			addWide8(&wide, h, probes)
			if scalar != wide {
				t.Fatalf("probes=%d h=%#x: add kernels set different bits", probes, h)
			}

			// Random partially filled lines exercise both outcomes.
			var l cacheLine
			for w := range l {
				l[w] = rng.Uint64() & rng.Uint64()
			}
			if rng.Intn(2) == 0 {
				addScalar(&l, h, probes)
			}
			q := rng.Uint32()
			for _, hh := range []uint32{h, q} {
				if a, b := mayMatchScalar(&l, hh, probes), mayMatchWide8(&l, hh, probes); a != b {
					t.Fatalf("probes=%d h=%#x: mayMatch kernels disagree (%v vs %v)", probes, hh, a, b)
				}
			}
		}
	}
}

func TestProbeKernelsMatchAfterAdd(t *testing.T) {
	for _, k := range []probeKernel{scalarProbe, wide8Probe} {
		var l cacheLine
		for i := uint32(0); i < 50; i++ {
			h := i * 0x01000193
			k.add(&l, h, 7)
			if !k.mayMatch(&l, h, 7) {
				t.Fatalf("%s: no match right after add of %#x", k.name, h)
			}
		}
	}
}

func TestActiveProbeIsScalar(t *testing.T) {
	if activeProbe.name != "scalar" {
		t.Errorf("activeProbe = %s, want scalar", activeProbe.name)
	}
}

func TestFilterEveryProbeKernel(t *testing.T) {
	saved := activeProbe
	t.Cleanup(func() { activeProbe = saved })

	var contents [][]byte
	for _, k := range []probeKernel{scalarProbe, wide8Probe} {
		activeProbe = k
		f, err := NewWithSeed(64*16, 30000, 11)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 100; i++ {
			f.Add([]byte{byte(i), byte(i >> 8)})
		}
		contents = append(contents, f.Bytes())
	}
	if string(contents[0]) != string(contents[1]) {
		t.Error("filters built with different probe kernels differ")
	}
}

func TestFastRange32(t *testing.T) {
	tests := []struct{ x, n, want uint32 }{
		{0, 100, 0},
		{1<<32 - 1, 100, 99},
		{1 << 31, 100, 50},
		{1 << 31, 1, 0},
		{12345, 0, 0},
	}
	for _, tt := range tests {
		if got := fastRange32(tt.x, tt.n); got != tt.want {
			t.Errorf("fastRange32(%#x, %d) = %d, want %d", tt.x, tt.n, got, tt.want)
		}
	}

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 10000; i++ {
		n := rng.Uint32()%1000 + 1
		if got := fastRange32(rng.Uint32(), n); got >= n {
			t.Fatalf("fastRange32 result %d not below %d", got, n)
		}
	}
}

func BenchmarkProbeKernels(b *testing.B) {
	for _, k := range []probeKernel{scalarProbe, wide8Probe} {
		b.Run(k.name, func(b *testing.B) {
			var l cacheLine
			for i := 0; i < b.N; i++ {
				h := uint32(i) * goldenRatio32
				k.add(&l, h, 6)
				_ = k.mayMatch(&l, h^1, 6)
			}
		})
	}
}

// BenchmarkFilterProbeKernels runs Add and MayMatch through a whole filter
// with each kernel. "active" must never trail "scalar".
func BenchmarkFilterProbeKernels(b *testing.B) {
	saved := activeProbe
	b.Cleanup(func() { activeProbe = saved })

	kernels := []struct {
		name string
		k    probeKernel
	}{
		{"active", saved},
		{"scalar", scalarProbe},
		{"wide8", wide8Probe},
	}
	keys := make([][]byte, 1<<16)
	for i := range keys {
		keys[i] = []byte{byte(i), byte(i >> 8), 'k'}
	}

	for _, probes := range []int{6, 12} {
		for _, tc := range kernels {
			b.Run(tc.name+"/probes="+strconv.Itoa(probes), func(b *testing.B) {
				activeProbe = tc.k
				f, err := NewWithProbes(1<<20, probes, 0)
				if err != nil {
					b.Fatal(err)
				}
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					k := keys[i&(len(keys)-1)]
					f.Add(k)
					_ = f.MayMatch(k[:2])
				}
			})
		}
	}
}
