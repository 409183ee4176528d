package simplify

import (
	"sync"
	"sync/atomic"

	"sdbgcore/sdbg"
)

// BranchGroup is a candidate bubble: two or more disjoint simple paths
// leaving the same branch node that reconverge at a common merge
// node within maxBubbleLen steps (grounded on assembly_algorithms.cpp's
// BranchGroup).
type BranchGroup struct {
	Start int
	Merge int
	Paths [][]int // each path's interior node sequence, start/merge excluded
}

// Search explores up to 4 branches out of start (one per base) and
// reports a BranchGroup if at least two of them reconverge on the
// same node within maxBubbleLen steps.
func Search(g *sdbg.SdBG, start int, maxBubbleLen int) *BranchGroup {
	mergeCount := make(map[int]int)
	var byMerge = make(map[int][][]int)

	for b := byte(0); b < 4; b++ {
		next := g.SuccessorByBase(start, b)
		if next == -1 {
			continue
		}
		path, merge := walkSimplePath(g, next, maxBubbleLen)
		if merge == -1 {
			continue
		}
		mergeCount[merge]++
		byMerge[merge] = append(byMerge[merge], path)
	}

	bestMerge, bestCount := -1, 1
	for m, c := range mergeCount {
		if c > bestCount {
			bestMerge, bestCount = m, c
		}
	}
	if bestMerge == -1 {
		return nil
	}
	return &BranchGroup{Start: start, Merge: bestMerge, Paths: byMerge[bestMerge]}
}

// walkSimplePath follows a single unbranching chain (indegree==1,
// outdegree==1 at every interior node) forward from start up to
// maxLen steps, returning the visited interior nodes and the node at
// which it either reconverges with another branch (outdegree!=1
// doesn't disqualify; any node with indegree>1 other than a pure
// continuation counts as the merge point) or -1 if it runs past
// maxLen or dead-ends first.
func walkSimplePath(g *sdbg.SdBG, start int, maxLen int) ([]int, int) {
	var path []int
	cur := start
	for step := 0; step < maxLen; step++ {
		if g.Indegree(cur) > 1 {
			return path, cur
		}
		path = append(path, cur)
		if g.Outdegree(cur) != 1 {
			return path, -1
		}
		nxt := -1
		for b := byte(0); b < 4; b++ {
			if s := g.SuccessorByBase(cur, b); s != -1 {
				nxt = s
				break
			}
		}
		if nxt == -1 {
			return path, -1
		}
		cur = nxt
	}
	return path, -1
}

// pathMultiplicity sums the multiplicity recorded along a path's
// nodes, used to pick the bubble's surviving branch.
func pathMultiplicity(g *sdbg.SdBG, path []int) uint64 {
	var sum uint64
	for _, p := range path {
		sum += uint64(g.Multiplicity(p))
	}
	return sum
}

// PopBubbles finds and resolves bubbles at every valid branch node in
// parallel: each worker independently searches a candidate, then a
// serial pass removes the lower-multiplicity paths of every bubble
// group found, so two workers never invalidate the same path
// inconsistently. The serial pass does not search a group again.
func PopBubbles(g *sdbg.SdBG, maxBubbleLen int, numWorkers int) int64 {
	var candidates []int
	for i := 0; i < g.Size(); i++ {
		if g.IsLast(i) && g.IsValidNode(i) && g.Outdegree(i) > 1 {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return 0
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	jobs := make(chan int, len(candidates))
	for _, c := range candidates {
		jobs <- c
	}
	close(jobs)

	groups := make(chan *BranchGroup, len(candidates))
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				if bg := Search(g, c, maxBubbleLen); bg != nil {
					groups <- bg
				}
			}
		}()
	}
	wg.Wait()
	close(groups)

	var removed int64
	for bg := range groups {
		bestIdx, bestMult := -1, uint64(0)
		for i, p := range bg.Paths {
			m := pathMultiplicity(g, p)
			if bestIdx == -1 || m > bestMult {
				bestIdx, bestMult = i, m
			}
		}
		for i, p := range bg.Paths {
			if i == bestIdx {
				continue
			}
			for _, node := range p {
				if g.IsValidNode(node) {
					g.SetInvalid(node)
					atomic.AddInt64(&removed, 1)
				}
			}
		}
	}
	return removed
}
