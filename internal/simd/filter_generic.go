//go:build !amd64 && !arm64

package simd

// filterISA reports the ISA PopcountFilter32's vectorised body targets.
// Platforms other than amd64/arm64 always run the portable fallback.
func filterISA() ISA {
	return Generic
}
