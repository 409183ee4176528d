// Package simplify implements graph simplification over a frozen
// sdbg.SdBG: tip trimming and bubble popping, grounded on
// assembly_algorithms.cpp's Trim/RemoveTips and PopBubbles (here each
// tip-removal pass collects its marks in its own AtomicBitVector and
// then applies them through sdbg.SdBG.SetInvalid).
package simplify

import (
	"sync"

	"sdbgcore/bitvector"
	"sdbgcore/sdbg"
)

// Trim removes short tips at doubling length thresholds 2, 4, 8, ...
// up to and including maxTipLen, running every pass of the schedule
// even when an earlier one removed nothing; maxTipLen itself is a
// pass only when it is a power of two. It returns the total number of
// nodes invalidated across all passes.
func Trim(g *sdbg.SdBG, maxTipLen int, numWorkers int) int64 {
	var total int64
	for length := 2; length <= maxTipLen; length *= 2 {
		total += removeTipsOfLength(g, length, numWorkers)
	}
	return total
}

// removeTipsOfLength removes, in two symmetric parallel passes, every
// simple path of length strictly less than maxLen that dead-ends on
// one side and either terminates at a true path end or merges into a
// real branch point on the other: first backward from OutdegreeZero,
// IsLast nodes, then forward from IndegreeZero, IsLast nodes. Marking
// happens in both passes against the same invalidation bit; only
// after both have run are the marked nodes actually invalidated, so
// neither pass can see the other's removals mid-flight.
func removeTipsOfLength(g *sdbg.SdBG, maxLen int, numWorkers int) int64 {
	if numWorkers < 1 {
		numWorkers = 1
	}

	var backCandidates, fwdCandidates []int
	for i := 0; i < g.Size(); i++ {
		if !g.IsLast(i) || !g.IsValidNode(i) {
			continue
		}
		if g.OutdegreeZero(i) {
			backCandidates = append(backCandidates, i)
		}
		if g.IndegreeZero(i) {
			fwdCandidates = append(fwdCandidates, i)
		}
	}

	marked := bitvector.New(g.Size())
	mark := func(path []int) {
		for _, p := range path {
			marked.Set(p)
		}
	}

	runPass := func(candidates []int, walk func(g *sdbg.SdBG, start, maxLen int) ([]int, bool)) {
		if len(candidates) == 0 {
			return
		}
		jobs := make(chan int, len(candidates))
		for _, c := range candidates {
			jobs <- c
		}
		close(jobs)

		var wg sync.WaitGroup
		for w := 0; w < numWorkers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for start := range jobs {
					path, isTip := walk(g, start, maxLen)
					if isTip {
						mark(path)
					}
				}
			}()
		}
		wg.Wait()
	}

	runPass(backCandidates, walkBackFromDeadEnd)
	runPass(fwdCandidates, walkForwardFromDeadEnd)

	var removed int64
	for p := 0; p < g.Size(); p++ {
		if marked.Get(p) {
			g.SetInvalid(p)
			removed++
		}
	}
	return removed
}

// walkBackFromDeadEnd follows the unique-predecessor chain from a
// zero-outdegree node backward, stopping at a true path end (zero
// indegree) or a real branch point (a predecessor with more than one
// successor). It reports the visited path and whether it qualifies as
// a tip shorter than maxLen.
func walkBackFromDeadEnd(g *sdbg.SdBG, start, maxLen int) ([]int, bool) {
	var path []int
	cur := start
	for step := 0; step < maxLen; step++ {
		path = append(path, cur)
		if g.IndegreeZero(cur) {
			return path, len(path) < maxLen
		}
		pred := g.UniqueIncoming(cur)
		if pred == -1 {
			return path, false // multiple real predecessors converge here: not a simple tip
		}
		if g.Outdegree(pred) > 1 {
			return path, len(path) < maxLen
		}
		cur = pred
	}
	return path, false
}

// walkForwardFromDeadEnd is walkBackFromDeadEnd's symmetric
// counterpart: it follows the unique-successor chain from a
// zero-indegree node forward, stopping at a true path end (zero
// outdegree) or a real branch point (a successor with more than one
// predecessor).
func walkForwardFromDeadEnd(g *sdbg.SdBG, start, maxLen int) ([]int, bool) {
	var path []int
	cur := start
	for step := 0; step < maxLen; step++ {
		path = append(path, cur)
		if g.OutdegreeZero(cur) {
			return path, len(path) < maxLen
		}
		succ := g.UniqueOutgoing(cur)
		if succ == -1 {
			return path, false // multiple real successors diverge here: not a simple tip
		}
		if g.Indegree(succ) > 1 {
			return path, len(path) < maxLen
		}
		cur = succ
	}
	return path, false
}
