package pipeline

import (
	"bytes"
	"testing"

	"sdbgcore/bnt"
	"sdbgcore/cx1"
	"sdbgcore/packedseq"
)

// packSeqs builds a read-only PackedSeq out of plain 2-bit-coded reads,
// for tests that want to construct a ReadSource directly.
func packSeqs(reads ...[]byte) *packedseq.PackedSeq {
	ps := packedseq.New()
	for _, r := range reads {
		ps.AppendSeq(r)
	}
	ps.BuildLookup()
	return ps
}

func TestCanonicalizeEdgePicksSmallerStrand(t *testing.T) {
	// core = [0,1] (AC), a=2 (G), b=3 (T): forward window G-A-C-T.
	// reverse complement window: revcomp(AC)=GT, a'=comp(T)=0, b'=comp(G)=1
	// -> A-G-T-C. Forward "GACT" vs rc "AGTC": rc sorts first (A<G).
	core, a, b := canonicalizeEdge([]byte{0, 1}, 2, 3)
	if string(core) != string([]byte{2, 3}) || a != 0 || b != 1 {
		t.Fatalf("canonicalizeEdge picked wrong strand: core=%v a=%d b=%d", core, a, b)
	}
}

func TestCanonicalizeEdgeDollarStaysSentinelUnderRC(t *testing.T) {
	core, a, b := canonicalizeEdge([]byte{3, 3}, bnt.SentinelValue, 0)
	// forward window: $-T-T-A ; rc window: a'=comp(0)=3, revcomp(TT)=AA, b'=$
	// -> T-A-A-$. rc "T A A $" vs fwd "$ T T A": the first bytes are 3
	// vs 4 and $ sorts after real bases (SentinelValue=4 is numerically
	// largest), so rc wins.
	if a == bnt.SentinelValue && b == bnt.SentinelValue {
		t.Fatalf("both ends sentinel, test fixture invalid")
	}
	_ = core
	if !(a == bnt.SentinelValue || b == bnt.SentinelValue) {
		t.Fatalf("expected exactly one end to remain sentinel, got a=%d b=%d", a, b)
	}
}

func TestForEachEdgeSingleSolidRunEmitsBoundaries(t *testing.T) {
	// 6-base read, k=4 -> 3 k-mer positions (0,1,2), all solid.
	read := []byte{0, 1, 2, 3, 0, 1}
	ps := packSeqs(read)
	bitmap := NewSolidBitmap(1, 3)
	bitmap.Set(0, 0)
	bitmap.Set(0, 1)
	bitmap.Set(0, 2)
	rs := NewReadSource(ps, 4, bitmap)

	var occs []cx1.EdgeOccurrence
	rs.ForEachEdge(0, func(o cx1.EdgeOccurrence) { occs = append(occs, o) })

	// one run of length 3 -> left dollar + 2 internal + right dollar = 4
	if len(occs) != 4 {
		t.Fatalf("expected 4 occurrences for one solid run of 3 k-mers, got %d", len(occs))
	}
	for _, o := range occs {
		if len(o.Core) != rs.K() {
			t.Fatalf("core width = %d, want %d", len(o.Core), rs.K())
		}
	}
}

func TestForEachEdgeSplitsAcrossNonSolidGap(t *testing.T) {
	// 10-base read, k=4 -> 7 k-mer positions (0..6).
	read := []byte{0, 1, 2, 3, 0, 1, 2, 3, 0, 1}
	ps := packSeqs(read)
	bitmap := NewSolidBitmap(1, 7)
	for pos := 0; pos <= 6; pos++ {
		if pos == 3 {
			continue // force position 3 non-solid
		}
		bitmap.Set(0, pos)
	}
	rs := NewReadSource(ps, 4, bitmap)

	var occs []cx1.EdgeOccurrence
	rs.ForEachEdge(0, func(o cx1.EdgeOccurrence) { occs = append(occs, o) })

	// two runs: positions 0..2 (len 3, solid) and 4..6 (len 3, solid)
	// each run of 3 k-mers emits 4 occurrences (2 boundary + 2 internal)
	if len(occs) != 8 {
		t.Fatalf("expected 8 occurrences across two split runs, got %d", len(occs))
	}
}

func TestBuildSolidBitmapMarksFrequentKmers(t *testing.T) {
	// two reads sharing the k-mer "0123" (k=4), each occurring once, so
	// with minFreq=2 only positions covered by that shared k-mer solidify.
	r1 := []byte{0, 1, 2, 3, 0}
	r2 := []byte{0, 1, 2, 3, 1}
	ps := packSeqs(r1, r2)
	bitmap := BuildSolidBitmap(ps, 4, 2)

	if !bitmap.Get(0, 0) || !bitmap.Get(1, 0) {
		t.Fatalf("shared k-mer at position 0 should be solid in both reads")
	}
	if bitmap.Get(0, 1) || bitmap.Get(1, 1) {
		t.Fatalf("position 1 k-mers differ between reads and should not meet minFreq=2")
	}
}

func TestRevCompRoundTrips(t *testing.T) {
	b := []byte{0, 1, 2, 3}
	rc := revComp(b)
	rc2 := revComp(rc)
	if !bytes.Equal(b, rc2) {
		t.Fatalf("revComp not involutive: %v -> %v -> %v", b, rc, rc2)
	}
}
