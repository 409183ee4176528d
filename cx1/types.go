// Package cx1 implements the CX1 external-memory-style bucket
// partitioner: a five-phase pipeline — histogram,
// memory sizing, lv1 differential-offset fill, lv2 substring
// extract+sort, and partition-for-output — that turns a stream of
// reads or contigs into sorted groups of (k-1)-core substrings ready
// for sdbg.Emitter.
//
// Grounded on cx1_seq2sdbg.cpp / cx1_read2sdbg_s2.cpp's CX1 template:
// EncodeEdgeOffset, IsDiffKMinusOneMer, Extract_a/Extract_b/
// ExtractCounting. Unlike the C++, which spills lv1/lv2 buffers to
// disk to bound peak memory on a single host, this port keeps a
// batch's lv1/lv2 arrays resident in Go slices — batching by bucket
// range is still real and testable (a small MemoryOptions.HostMemBytes
// forces multiple batches), but within a batch there is no page-level disk spill.
package cx1

import "sdbgcore/bnt"

// EdgeKind classifies one edge occurrence by where it sits in its
// source sequence.
type EdgeKind int

const (
	// Solid is an internal edge between two consecutive solid k-mers.
	Solid EdgeKind = iota
	// LeftDollar is a boundary edge from the dummy source ($) into the
	// sequence's first solid k-mer.
	LeftDollar
	// RightDollar is a boundary edge from the sequence's last solid
	// k-mer to the dummy sink ($).
	RightDollar
)

// EdgeOccurrence is one raw (core, a, b) sample an EdgeSource yields
// for a single sequence, already canonicalized to whichever strand
// sorts first.
type EdgeOccurrence struct {
	Core  []byte // the (k-1)-mer node identity, bases 0..3
	A     byte   // previous base, or bnt.SentinelValue
	B     byte   // next base (the W char), or bnt.SentinelValue
	Count uint32 // multiplicity contribution (1 for reads; contig weight for contigs)
}

// EdgeSource is the capability interface that parameterizes the CX1
// engine over its two real pipelines: the
// read+solid-bitmap source (mercy Variant R feeds from it) and the
// contig+multiplicity source used on a later assembly pass.
type EdgeSource interface {
	// NumItems returns how many sequences (reads or contigs) this
	// source holds.
	NumItems() int
	// K returns the node-core width (k-1 in (k+1)-mer-edge
	// terms): the length of the shared substring two adjacent edges
	// overlap on.
	K() int
	// CountMode reports which of sdbg's count-aggregation rules this
	// source's duplicate edges should collapse under.
	CountMode() CountMode
	// ForEachEdge enumerates every solid edge occurrence of sequence
	// seqIdx via emit. Implementations must be safe to call
	// concurrently for distinct seqIdx values.
	ForEachEdge(seqIdx int, emit func(EdgeOccurrence))
}

// CountMode mirrors sdbg.CountMode without importing the sdbg package
// from this lower-level type (cx1 is a dependency of sdbg's caller,
// not of sdbg itself, to keep the capability boundary one-directional;
// pipeline wires the two together).
type CountMode int

const (
	// CountRunLength: collapse a run of duplicate edges to its length.
	CountRunLength CountMode = iota
	// CountMaxMultiplicity: collapse to the maximum multiplicity seen.
	CountMaxMultiplicity
)

// kBucketPrefixLength is the number of leading core bases used to
// assign an edge occurrence to a bucket.
const kBucketPrefixLength = 3

// NumBuckets is the total bucket count for the configured prefix
// length: 4^kBucketPrefixLength.
func NumBuckets() int {
	n := 1
	for i := 0; i < kBucketPrefixLength; i++ {
		n *= bnt.BaseTypeNum
	}
	return n
}

// BucketOf returns the bucket index for a core whose first
// kBucketPrefixLength bases (padded with 0 if the core is shorter)
// select the bucket.
func BucketOf(core []byte) int {
	idx := 0
	for i := 0; i < kBucketPrefixLength; i++ {
		idx *= bnt.BaseTypeNum
		if i < len(core) {
			idx += int(core[i])
		}
	}
	return idx
}
