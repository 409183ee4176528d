// Package sdbg implements SdBGEmitter: given sorted
// substrings grouped by shared (k-1)-core, decide each edge's W/LAST/
// IS-DOLLAR fields and multiplicity, and the frozen, queryable SdBG
// that simplify operates on.
//
// Grounded on cx1_seq2sdbg.cpp's Extract_a/Extract_b/ExtractCounting/
// IsDiffKMinusOneMer: the packed substring carries the shared (k-1)
// -mer "core" as its leading characters, with the previous base `a`
// trailing it and the next base (the BWT char `b`/W) living in
// separate low-bit metadata — so one core can host several distinct
// (a,b) transition rows, not just one row per source k-mer.
package sdbg

import (
	"fmt"

	"sdbgcore/bnt"
)

// kMaxMultiT mirrors MEGAHIT's kMaxMulti_t: the largest multiplicity
// a run can record directly before overflowing into the .mul2 side
// channel.
const kMaxMultiT = 65534

// kMulti2Sp is the .mul overflow sentinel: this value in .mul means
// "the real count lives in .mul2".
const kMulti2Sp = 65535

// kMaxDummyEdges bounds the number of is_dollar edges a single SdBG
// may contain before the build is considered a failure.
const kMaxDummyEdges = 1 << 30

// Item is one raw (core, a, b, count) occurrence fed to the Emitter,
// already known to share `core` with its neighbors in the stream.
type Item struct {
	A, B  byte // bnt.SentinelValue marks absent
	Count uint32
}

// CountMode selects how a run of equal (a,b) items collapses to one
// edge's count: the read pipeline takes min(run_length, kMaxMultiT);
// the contig pipeline takes the max multiplicity seen in the run
//.
type CountMode int

const (
	// CountRunLength is the read+solid-bitmap pipeline's mode.
	CountRunLength CountMode = iota
	// CountMaxMultiplicity is the contig+multiplicity pipeline's mode.
	CountMaxMultiplicity
)

// Edge is one emitted (k+1)-mer edge record.
type Edge struct {
	Core     []byte // the (k-1)-mer node identity, bases 0..3
	A        byte   // previous base, or bnt.SentinelValue
	W        byte   // BWT char: 0 if dollar-out, else b+1 or b+5 (repeat)
	B        byte   // raw next base (W-char), or bnt.SentinelValue
	IsDollar bool
	Last     bool
	Count    uint32
}

// Emitter consumes items in sorted (core, a, b) order, one group (a
// run of items sharing `core`) at a time, and produces Edge records
// per the two-pass group algorithm.
type Emitter struct {
	mode CountMode

	curCore      []byte
	haveCore     bool
	pending      []Item
	edges        []Edge
	numDollar    int
	totalEdges   int64
	fCounts      [bnt.BaseTypeNum]int64 // cumulative edge count once all groups with this first-char are done
	fCountsTouch [bnt.BaseTypeNum]bool
	lastFirst    int // last first-char seen, -1 initially
}

// NewEmitter returns an Emitter in the given count-aggregation mode.
func NewEmitter(mode CountMode) *Emitter {
	return &Emitter{mode: mode, lastFirst: -1}
}

// Add feeds one sorted item belonging to the given core. Cores must
// arrive non-decreasing (by the same order the cx1 sort produced);
// Add flushes the previous group automatically when core changes.
func (e *Emitter) Add(core []byte, a, b byte, count uint32) error {
	if e.haveCore && !bytesEqual(e.curCore, core) {
		if err := e.flushGroup(); err != nil {
			return err
		}
	}
	if !e.haveCore {
		e.curCore = append([]byte(nil), core...)
		e.haveCore = true
	}
	e.pending = append(e.pending, Item{A: a, B: b, Count: count})
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Finalize flushes any remaining group and returns the accumulated
// edges plus the filled-in `.f` first-char prefix-sum table.
func (e *Emitter) Finalize() ([]Edge, [bnt.BaseTypeNum]int64, int64, int, error) {
	if e.haveCore {
		if err := e.flushGroup(); err != nil {
			return nil, e.fCounts, e.totalEdges, e.numDollar, err
		}
	}
	// CSR-style fill-forward: first-chars with zero groups inherit the
	// previous cumulative total, matching a standard prefix-sum table.
	var run int64
	for c := 0; c < bnt.BaseTypeNum; c++ {
		if e.fCountsTouch[c] {
			run = e.fCounts[c]
		} else {
			e.fCounts[c] = run
		}
	}
	return e.edges, e.fCounts, e.totalEdges, e.numDollar, nil
}

func (e *Emitter) flushGroup() error {
	items := e.pending
	e.pending = nil

	// Sort by (a,b) so equal-(a,b) runs are contiguous and last_a[a]
	// is well defined.
	insertionSortByAB(items)

	var hasSolidA, hasSolidB [bnt.BaseTypeNum]bool
	for _, it := range items {
		if it.A != bnt.SentinelValue && it.B != bnt.SentinelValue {
			hasSolidA[it.A] = true
			hasSolidB[it.B] = true
		}
	}

	lastA := [bnt.BaseTypeNum]int{-1, -1, -1, -1}
	for idx, it := range items {
		if it.A == bnt.SentinelValue {
			continue
		}
		solidOutgoing := it.B != bnt.SentinelValue || !hasSolidA[it.A]
		if solidOutgoing {
			lastA[it.A] = idx
		}
	}

	var emittedB [bnt.BaseTypeNum]bool
	i := 0
	for i < len(items) {
		j := i
		for j < len(items) && items[j].A == items[i].A && items[j].B == items[i].B {
			j++
		}
		run := items[i:j]
		runEndIdx := j - 1
		a, b := items[i].A, items[i].B

		if a == bnt.SentinelValue && b != bnt.SentinelValue && hasSolidB[b] {
			i = j
			continue
		}
		if a != bnt.SentinelValue && b == bnt.SentinelValue && hasSolidA[a] {
			i = j
			continue
		}

		isDollar := a == bnt.SentinelValue
		var count uint32
		if isDollar {
			count = 0
		} else {
			count = aggregateCount(run, e.mode)
		}

		var w byte
		if b == bnt.SentinelValue {
			w = 0
		} else if emittedB[b] {
			w = b + 5
		} else {
			w = b + 1
		}
		if b != bnt.SentinelValue {
			emittedB[b] = true
		}

		last := false
		if !isDollar && lastA[a] == runEndIdx {
			last = true
		}

		core := append([]byte(nil), e.curCore...)
		e.edges = append(e.edges, Edge{
			Core:     core,
			A:        a,
			B:        b,
			W:        w,
			IsDollar: isDollar,
			Last:     last,
			Count:    count,
		})
		if isDollar {
			e.numDollar++
			if e.numDollar >= kMaxDummyEdges {
				return fmt.Errorf("sdbg: too many dummy edges (>= %d); recommend further tip removal", kMaxDummyEdges)
			}
		}
		e.totalEdges++
		i = j
	}

	if len(e.curCore) > 0 {
		fc := int(e.curCore[0])
		if fc >= 0 && fc < bnt.BaseTypeNum {
			e.fCounts[fc] = e.totalEdges
			e.fCountsTouch[fc] = true
			e.lastFirst = fc
		}
	}

	e.haveCore = false
	e.curCore = nil
	return nil
}

func aggregateCount(run []Item, mode CountMode) uint32 {
	switch mode {
	case CountMaxMultiplicity:
		var m uint32
		for _, it := range run {
			if it.Count > m {
				m = it.Count
			}
		}
		if m == 0 {
			m = 1
		}
		return m
	default: // CountRunLength
		n := uint32(len(run))
		if n > kMaxMultiT {
			n = kMaxMultiT
		}
		return n
	}
}

// insertionSortByAB sorts a short slice by (A,B); groups are small
// (bounded by outdegree/indegree <= 4 each in a real dBG) so a simple
// stable insertion sort is both correct and fast here.
func insertionSortByAB(items []Item) {
	for i := 1; i < len(items); i++ {
		v := items[i]
		j := i - 1
		for j >= 0 && lessAB(v, items[j]) {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = v
	}
}

func lessAB(a, b Item) bool {
	if a.A != b.A {
		return a.A < b.A
	}
	return a.B < b.B
}
