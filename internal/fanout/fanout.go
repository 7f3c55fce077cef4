// Package fanout issues a query concurrently against several already-built
// index instances. Choosing which permutations back those instances,
// deduplicating the union of their results, and deciding how many
// instances a given error bound requires is an outer multi-index driver's
// job and stays out of scope here; this package only parallelizes the
// part that's expensive per instance: the scan itself.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Matcher is the subset of an index's Match method this package fans
// queries out across. Both index/simple.Index and index/triangle.Index
// satisfy it for any concrete permutation type parameter.
type Matcher interface {
	Match(ctx context.Context, q uint64, k int, candidatesOnly bool) (results []uint64, candidates uint64, err error)
}

// Result pairs a matcher's output with its position in the instances slice
// passed to MatchAll, so callers can tell which permutation a result set
// came from without the package itself tracking identities.
type Result struct {
	Index      int
	Results    []uint64
	Candidates uint64
}

// MatchAll runs q against every instance concurrently and returns one
// Result per instance, in the same order as instances. If any instance's
// Match returns an error, MatchAll stops launching new work, waits for
// in-flight instances to finish, and returns the first error encountered.
func MatchAll(ctx context.Context, instances []Matcher, q uint64, k int, candidatesOnly bool) ([]Result, error) {
	results := make([]Result, len(instances))

	g, ctx := errgroup.WithContext(ctx)
	for i, inst := range instances {
		i, inst := i, inst
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, candidates, err := inst.Match(ctx, q, k, candidatesOnly)
			if err != nil {
				return err
			}
			results[i] = Result{Index: i, Results: res, Candidates: candidates}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
