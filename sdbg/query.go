package sdbg

import (
	"fmt"

	"sdbgcore/bitvector"
	"sdbgcore/bnt"
)

// node holds the precomputed navigation data for one SdBG node (one
// core-group, represented by its LAST row). Built once in Finalize by
// resolving each edge's successor/predecessor core against every
// other node's core.
type node struct {
	lastIdx       int
	indegree      int
	outdegree     int
	predecessorOf [bnt.BaseTypeNum]int // by incoming base a -> predecessor's lastIdx, or -1
	successorOf   [bnt.BaseTypeNum]int // by outgoing base b -> successor's lastIdx, or -1
}

// SdBG is the frozen, queryable succinct de Bruijn graph built from an
// Emitter's edge stream. Edge index i ranges over
// [0, Size()); GetLastIndex canonicalizes any row within a node's
// group to that node's representative (LAST) row.
type SdBG struct {
	k         int // node core width (k-1 in (k+1)-mer-edge terms)
	edges     []Edge
	lastOf    []int // edges[i] -> its node's LAST row index
	nodes     []node
	nodeOfRow []int // edges[i] -> index into nodes
	invalid   *bitvector.AtomicBitVector
}

// Finalize builds a queryable SdBG from an Emitter's accumulated edge
// stream. edges must be in the sorted (core-grouped, LAST-flagged)
// order an Emitter produces.
func Finalize(coreWidth int, edges []Edge) (*SdBG, error) {
	g := &SdBG{k: coreWidth, edges: edges}
	g.lastOf = make([]int, len(edges))
	g.nodeOfRow = make([]int, len(edges))
	g.invalid = bitvector.New(len(edges))

	coreToNode := make(map[string]int)
	runStart := 0
	for i, e := range edges {
		if e.Last {
			for r := runStart; r <= i; r++ {
				g.lastOf[r] = i
				g.nodeOfRow[r] = len(g.nodes)
			}
			n := node{lastIdx: i}
			for b := 0; b < bnt.BaseTypeNum; b++ {
				n.predecessorOf[b] = -1
				n.successorOf[b] = -1
			}
			coreToNode[string(e.Core)] = len(g.nodes)
			g.nodes = append(g.nodes, n)
			runStart = i + 1
		}
	}
	if runStart != len(edges) && len(edges) > 0 {
		return nil, fmt.Errorf("sdbg: edge stream does not end on a LAST row")
	}

	// second pass: cross-node adjacency. A node can see the same (a,b)
	// base more than once across its rows (the W=b+5 "repeat" case), so
	// degrees are derived from the populated successorOf/predecessorOf
	// tables afterwards rather than counted per row.
	for i, e := range edges {
		ni := g.nodeOfRow[i]
		n := &g.nodes[ni]
		// A==sentinel (IsDollar) means this row has no real predecessor;
		// its B side, if real, is still a genuine outgoing edge and must
		// still be resolved.
		if e.A != bnt.SentinelValue && n.predecessorOf[e.A] == -1 {
			predCore := prependShift(e.Core, e.A)
			if pi, ok := coreToNode[string(predCore)]; ok {
				n.predecessorOf[e.A] = g.nodes[pi].lastIdx
			}
		}
		if e.B != bnt.SentinelValue && n.successorOf[e.B] == -1 {
			succCore := appendShift(e.Core, e.B)
			if si, ok := coreToNode[string(succCore)]; ok {
				n.successorOf[e.B] = g.nodes[si].lastIdx
			}
		}
	}
	for ni := range g.nodes {
		n := &g.nodes[ni]
		for b := 0; b < bnt.BaseTypeNum; b++ {
			if n.predecessorOf[b] != -1 {
				n.indegree++
			}
			if n.successorOf[b] != -1 {
				n.outdegree++
			}
		}
	}

	return g, nil
}

// prependShift returns the (k-1)-mer obtained by prepending base a to
// core and dropping its last character: the predecessor node's core.
func prependShift(core []byte, a byte) []byte {
	out := make([]byte, len(core))
	out[0] = a
	copy(out[1:], core[:len(core)-1])
	return out
}

// appendShift returns the (k-1)-mer obtained by appending base b to
// core and dropping its first character: the successor node's core.
func appendShift(core []byte, b byte) []byte {
	out := make([]byte, len(core))
	copy(out, core[1:])
	out[len(out)-1] = b
	return out
}

// Size returns the total number of edge rows.
func (g *SdBG) Size() int { return len(g.edges) }

// IsValidNode reports whether row i addresses a live (non-deleted)
// node.
func (g *SdBG) IsValidNode(i int) bool {
	if i < 0 || i >= len(g.edges) {
		return false
	}
	return !g.invalid.Get(g.GetLastIndex(i))
}

// IsLast reports whether row i is the LAST row of its node's group.
func (g *SdBG) IsLast(i int) bool { return g.edges[i].Last }

// GetLastIndex canonicalizes row i to its node's representative (LAST)
// row index.
func (g *SdBG) GetLastIndex(i int) int { return g.lastOf[i] }

// IsDollar reports whether row i is a dummy (is_dollar) edge.
func (g *SdBG) IsDollar(i int) bool { return g.edges[i].IsDollar }

// Indegree returns the number of distinct real predecessors of row i's
// node.
func (g *SdBG) Indegree(i int) int { return g.nodes[g.nodeOfRow[i]].indegree }

// Outdegree returns the number of distinct real successors of row i's
// node.
func (g *SdBG) Outdegree(i int) int { return g.nodes[g.nodeOfRow[i]].outdegree }

// IndegreeZero reports whether row i's node has no real predecessor.
func (g *SdBG) IndegreeZero(i int) bool { return g.Indegree(i) == 0 }

// OutdegreeZero reports whether row i's node has no real successor.
func (g *SdBG) OutdegreeZero(i int) bool { return g.Outdegree(i) == 0 }

// UniqueOutgoing returns the LAST-row index of row i's node's sole
// successor, or -1 if the node has zero or more than one.
func (g *SdBG) UniqueOutgoing(i int) int {
	n := &g.nodes[g.nodeOfRow[i]]
	if n.outdegree != 1 {
		return -1
	}
	for b := 0; b < bnt.BaseTypeNum; b++ {
		if n.successorOf[b] != -1 {
			return n.successorOf[b]
		}
	}
	return -1
}

// UniqueIncoming returns the LAST-row index of row i's node's sole
// predecessor, or -1 if the node has zero or more than one.
func (g *SdBG) UniqueIncoming(i int) int {
	n := &g.nodes[g.nodeOfRow[i]]
	if n.indegree != 1 {
		return -1
	}
	for a := 0; a < bnt.BaseTypeNum; a++ {
		if n.predecessorOf[a] != -1 {
			return n.predecessorOf[a]
		}
	}
	return -1
}

// SetInvalid marks row i's node invalid.
func (g *SdBG) SetInvalid(i int) { g.invalid.Set(g.GetLastIndex(i)) }

// Core returns the (k-1)-mer core of row i's node.
func (g *SdBG) Core(i int) []byte { return g.edges[i].Core }

// Multiplicity returns row i's recorded count.
func (g *SdBG) Multiplicity(i int) uint32 { return g.edges[i].Count }

// W returns row i's encoded BWT character: 0 = dollar-out, b+1 for the
// first row of its group with next base b, b+5 for a repeat of b. The
// raw next base is kept separately in the row's B field.
func (g *SdBG) W(i int) byte { return g.edges[i].W }

// NodeCount returns the number of distinct nodes (core-groups).
func (g *SdBG) NodeCount() int { return len(g.nodes) }

// K returns the node-core width (k-1 in (k+1)-mer-edge terms).
func (g *SdBG) K() int { return g.k }

// SuccessorByBase returns the LAST-row index of row i's node's
// successor via base b, or -1 if no such transition exists.
func (g *SdBG) SuccessorByBase(i int, b byte) int {
	return g.nodes[g.nodeOfRow[i]].successorOf[b]
}

// PredecessorByBase returns the LAST-row index of row i's node's
// predecessor via base a, or -1 if no such transition exists.
func (g *SdBG) PredecessorByBase(i int, a byte) int {
	return g.nodes[g.nodeOfRow[i]].predecessorOf[a]
}
