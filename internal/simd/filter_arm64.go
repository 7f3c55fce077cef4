//go:build arm64

package simd

// filterISA reports which ARM64 ISA PopcountFilter32's vectorised body
// targets on this CPU. The body itself is portable Go (see filter.go); this
// only documents/exposes the capability tier so callers can log it.
func filterISA() ISA {
	if HasSVE2() {
		return SVE2
	}
	if HasASIMD() {
		return NEON
	}
	return Generic
}
