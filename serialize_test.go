package xxbloom

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
)

func TestSerializeRoundtripEmpty(t *testing.T) {
	original := mustNewForKeys(t, 1000, 0.01, 0)

	data, err := original.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	restored, err := UnmarshalBinary(data)
	if err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}

	if restored.Len() != original.Len() {
		t.Errorf("Len mismatch: got %d, want %d", restored.Len(), original.Len())
	}
	if restored.NumProbes() != original.NumProbes() {
		t.Errorf("NumProbes mismatch: got %d, want %d", restored.NumProbes(), original.NumProbes())
	}
	if restored.Seed() != original.Seed() {
		t.Errorf("Seed mismatch: got %d, want %d", restored.Seed(), original.Seed())
	}
	if restored.PopCount() != 0 {
		t.Errorf("PopCount = %d, want 0", restored.PopCount())
	}
}

func TestSerializeRoundtripWithData(t *testing.T) {
	original := mustNewForKeys(t, 10000, 0.01, 0xC0FFEE)

	items := []string{"hello", "world", "foo", "bar", "baz", "qux"}
	for _, item := range items {
		original.AddString(item)
	}
	for i := range 1000 {
		original.Add(fmt.Appendf(nil, "item-%d", i))
	}

	data, err := original.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	restored, err := UnmarshalBinary(data)
	if err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}

	if !bytes.Equal(restored.Bytes(), original.Bytes()) {
		t.Error("restored contents differ")
	}
	if restored.Seed() != 0xC0FFEE {
		t.Errorf("Seed = %#x, want 0xc0ffee", restored.Seed())
	}
	for _, item := range items {
		if !restored.MayMatchString(item) {
			t.Errorf("false negative for %q", item)
		}
	}
	for i := range 1000 {
		if !restored.MayMatch(fmt.Appendf(nil, "item-%d", i)) {
			t.Errorf("false negative for item-%d", i)
		}
	}
}

func TestSerializeRoundtripAllProbeCounts(t *testing.T) {
	for probes := 1; probes <= MaxProbes; probes++ {
		t.Run(fmt.Sprintf("probes=%d", probes), func(t *testing.T) {
			f, err := NewWithProbes(64*50, probes, uint64(probes))
			if err != nil {
				t.Fatalf("NewWithProbes: %v", err)
			}
			for i := range 100 {
				f.Add(fmt.Appendf(nil, "item-%d", i))
			}

			data, err := f.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary failed: %v", err)
			}
			restored, err := UnmarshalBinary(data)
			if err != nil {
				t.Fatalf("UnmarshalBinary failed: %v", err)
			}
			if restored.NumProbes() != probes {
				t.Errorf("NumProbes = %d, want %d", restored.NumProbes(), probes)
			}
			for i := range 100 {
				if !restored.MayMatch(fmt.Appendf(nil, "item-%d", i)) {
					t.Errorf("false negative for item-%d", i)
				}
			}
		})
	}
}

func TestSerializeDataFormat(t *testing.T) {
	f, err := NewWithSeed(64*2, 10000, 0x0102030405060708)
	if err != nil {
		t.Fatal(err)
	}
	f.AddString("format")

	data, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	if len(data) != headerSize+128 {
		t.Fatalf("len = %d, want %d", len(data), headerSize+128)
	}
	if data[0] != serializeVersion {
		t.Errorf("version = %d, want %d", data[0], serializeVersion)
	}
	if got := binary.LittleEndian.Uint32(data[1:5]); got != 6 {
		t.Errorf("probes = %d, want 6", got)
	}
	if got := binary.LittleEndian.Uint64(data[5:13]); got != 0x0102030405060708 {
		t.Errorf("seed = %#x", got)
	}
	if got := binary.LittleEndian.Uint64(data[13:21]); got != 128 {
		t.Errorf("length = %d, want 128", got)
	}
	if !bytes.Equal(data[headerSize:], f.Bytes()) {
		t.Error("payload differs from Bytes")
	}
}

func TestSerializeDataTooShort(t *testing.T) {
	for _, data := range [][]byte{nil, {}, make([]byte, headerSize-1)} {
		if _, err := UnmarshalBinary(data); !errors.Is(err, ErrInvalidData) {
			t.Errorf("len %d: error = %v, want ErrInvalidData", len(data), err)
		}
	}
}

func TestSerializeUnsupportedVersion(t *testing.T) {
	f := mustNewForKeys(t, 100, 0.01, 0)
	data, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	for _, v := range []byte{0, 2, 255} {
		data[0] = v
		if _, err := UnmarshalBinary(data); !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("version %d: error = %v, want ErrUnsupportedVersion", v, err)
		}
	}
}

func TestSerializeInvalidProbes(t *testing.T) {
	f := mustNewForKeys(t, 100, 0.01, 0)
	data, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	for _, probes := range []uint32{0, MaxProbes + 1, 1000, 1<<32 - 1} {
		dataCopy := bytes.Clone(data)
		binary.LittleEndian.PutUint32(dataCopy[1:5], probes)
		if _, err := UnmarshalBinary(dataCopy); !errors.Is(err, ErrInvalidData) {
			t.Errorf("probes=%d: error = %v, want ErrInvalidData", probes, err)
		}
	}
}

func TestSerializeInvalidLength(t *testing.T) {
	f := mustNewForKeys(t, 100, 0.01, 0)
	data, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	for _, length := range []uint64{0, 63, uint64(f.Len()) + 64, uint64(f.Len()) - 64, 1 << 62} {
		dataCopy := bytes.Clone(data)
		binary.LittleEndian.PutUint64(dataCopy[13:21], length)
		if _, err := UnmarshalBinary(dataCopy); !errors.Is(err, ErrInvalidData) {
			t.Errorf("length=%d: error = %v, want ErrInvalidData", length, err)
		}
	}

	// Payload truncated or extended relative to the header.
	if _, err := UnmarshalBinary(data[:len(data)-1]); !errors.Is(err, ErrInvalidData) {
		t.Errorf("truncated: error = %v, want ErrInvalidData", err)
	}
	if _, err := UnmarshalBinary(append(bytes.Clone(data), 0)); !errors.Is(err, ErrInvalidData) {
		t.Errorf("extended: error = %v, want ErrInvalidData", err)
	}
}

func TestSerializeCanAddAfterDeserialize(t *testing.T) {
	original := mustNewForKeys(t, 1000, 0.01, 0)
	for i := range 100 {
		original.Add(fmt.Appendf(nil, "before-%d", i))
	}

	data, err := original.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	restored, err := UnmarshalBinary(data)
	if err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}

	for i := range 100 {
		restored.Add(fmt.Appendf(nil, "after-%d", i))
	}
	for i := range 100 {
		if !restored.MayMatch(fmt.Appendf(nil, "before-%d", i)) {
			t.Errorf("false negative for before-%d", i)
		}
		if !restored.MayMatch(fmt.Appendf(nil, "after-%d", i)) {
			t.Errorf("false negative for after-%d", i)
		}
	}

	// The restored filter owns its memory.
	if err := original.Union(restored); err != nil {
		t.Fatalf("Union: %v", err)
	}
}

func TestSerializeIdempotent(t *testing.T) {
	f := mustNewForKeys(t, 1000, 0.01, 9)
	for i := range 100 {
		f.Add(fmt.Appendf(nil, "item-%d", i))
	}

	first, _ := f.MarshalBinary()
	restored, err := UnmarshalBinary(first)
	if err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	second, _ := restored.MarshalBinary()

	if !bytes.Equal(first, second) {
		t.Error("marshal -> unmarshal -> marshal is not stable")
	}
}

func FuzzSerializeRoundtrip(f *testing.F) {
	f.Add(uint32(100), 7, uint64(0), "hello")
	f.Add(uint32(1000), 3, uint64(1), "world")
	f.Add(uint32(1), 24, uint64(1<<63), "test")

	f.Fuzz(func(t *testing.T, lines uint32, probes int, seed uint64, item string) {
		if lines == 0 || lines > 10000 {
			lines = 100
		}
		if probes < 1 || probes > MaxProbes {
			probes = 6
		}

		filter, err := NewWithProbes(int(lines)*LineBytes, probes, seed)
		if err != nil {
			t.Fatalf("NewWithProbes: %v", err)
		}
		filter.AddString(item)

		data, err := filter.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary failed: %v", err)
		}
		restored, err := UnmarshalBinary(data)
		if err != nil {
			t.Fatalf("UnmarshalBinary failed: %v", err)
		}

		if !restored.MayMatchString(item) {
			t.Errorf("false negative for %q", item)
		}
		if restored.NumProbes() != probes || restored.Seed() != seed || restored.NumLines() != int(lines) {
			t.Errorf("shape mismatch after roundtrip")
		}
	})
}

func FuzzUnmarshalBinaryInvalid(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0})
	f.Add([]byte{1, 0, 0, 0, 0})
	f.Add(make([]byte, headerSize))

	filter := mustNewForKeys(f, 100, 0.01, 0)
	filter.AddString("test")
	validData, _ := filter.MarshalBinary()
	f.Add(validData)

	f.Fuzz(func(t *testing.T, data []byte) {
		// Must not panic.
		_, _ = UnmarshalBinary(data)
	})
}
