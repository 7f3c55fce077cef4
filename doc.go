// Package hamidx provides the per-permutation leaf index of a multi-index
// scheme for approximate matching of fixed-width 64-bit keys under Hamming
// distance.
//
// Given a set S of 64-bit keys and a query q with error bound k, an index
// returns every x in S with popcount(q XOR x) <= k. Two bucketed variants
// are provided, each in its own package:
//
//   - index/simple: partitions keys by the high-order bits of a permuted
//     key and performs a linear popcount sweep of the candidate bucket.
//   - index/triangle: further partitions each prefix bucket by popcount
//     (cardinality), pruning the scan with the triangle inequality, and
//     filters candidates with a packed low/mid 32-bit popcount check
//     before verifying the full 64-bit distance.
//
// Both variants are immutable and safe for concurrent queries once built.
// Choosing permutations, fanning a query out across several instances of
// either variant, and deduplicating the union of results is the job of an
// outer multi-index driver and stays out of scope for this module; see
// package permutation for the collaborator contract such a driver
// supplies, and internal/fanout for a helper that issues concurrent
// queries against several already-built instances.
package hamidx
