//go:build purego

package cpu

var (
	HasAVX2 = false
	HasSSE2 = false
)

// Name returns "purego"; capability detection is disabled in this build.
func Name() string {
	return "purego"
}
