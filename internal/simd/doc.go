// Package simd provides the 32-bit popcount filter used by the triangle
// bucketed index to prune candidates before full 64-bit verification.
//
// # Supported Platforms
//
//   - x86-64: AVX2, AVX-512
//   - ARM64: NEON, SVE2
//
// Runtime CPU feature detection (via FilterISA) reports which ISA tier is
// available; PopcountFilter32 itself runs one portable implementation on
// every platform, so all tiers visit candidates in the same order and
// produce identical survivor sets (see PopcountFilter32's doc comment).
package simd
