//go:build !purego

// Package cpu reports the host's vector capabilities for diagnostics. Build
// with the purego tag to report none.
package cpu

import "github.com/klauspost/cpuid/v2"

var (
	// HasAVX2 reports whether 256-bit integer vector instructions are available.
	HasAVX2 = cpuid.CPU.Supports(cpuid.AVX2)
	// HasSSE2 reports whether 128-bit integer vector instructions are available.
	HasSSE2 = cpuid.CPU.Supports(cpuid.SSE2)
)

// Name returns the detected processor brand string.
func Name() string {
	return cpuid.CPU.BrandName
}
