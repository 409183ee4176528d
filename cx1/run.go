package cx1

import "sdbgcore/sortutil"

// EmitFunc receives one sorted occurrence in final global order: core,
// then (a,b), matching exactly what sdbg.Emitter.Add expects. cx1
// never imports sdbg directly so the capability boundary stays
// one-directional (pipeline wires the two together).
type EmitFunc func(core []byte, a, b byte, count uint32) error

// Run drives CX1 phases 1-4 (histogram, memory plan, lv1 fill, lv2
// extract+sort) over src and calls emit once per occurrence, in
// ascending (core,a,b) order across the whole input, ready for
// sdbg.Emitter.Add. PartitionForOutput (phase 5) is not applied: each
// bucket's sorted occurrences go straight to emit.
func Run(src EdgeSource, opts MemoryOptions, numWorkers int, sorter sortutil.Sorter, emit EmitFunc) error {
	histogram := ComputeBucketHistogram(src, numWorkers)

	plan, err := Plan(histogram, opts)
	if err != nil {
		return err
	}

	for _, br := range plan.Batches {
		batch := FillLv1(src, br[0], br[1], DefaultDiffLimit)
		numBuckets := br[1] - br[0]
		for b := 0; b < numBuckets; b++ {
			sorted, err := ExtractAndSortBucket(src, batch, b, sorter)
			if err != nil {
				return err
			}
			for _, occ := range sorted {
				if err := emit(occ.Core, occ.A, occ.B, occ.Count); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
