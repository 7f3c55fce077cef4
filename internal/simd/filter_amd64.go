//go:build amd64

package simd

// filterISA reports which AMD64 ISA PopcountFilter32's vectorised body
// targets on this CPU. The body itself is portable Go (see filter.go); this
// only documents/exposes the capability tier so callers can log it.
func filterISA() ISA {
	if HasAVX512() {
		return AVX512
	}
	if HasAVX2() {
		return AVX2
	}
	return Generic
}
