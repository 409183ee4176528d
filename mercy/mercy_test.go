package mercy

import "testing"

func TestResolveVariantRBridgesShortGap(t *testing.T) {
	// read of 10 bases, k=4 -> 7 k-mer positions (0..6).
	read := []byte{0, 1, 2, 3, 0, 1, 2, 3, 0, 1}
	reads := [][]byte{read}
	k := 4
	// solid everywhere except position 3 (a single broken k-mer).
	solid := func(ri, pos int) bool { return pos != 3 }

	edges := ResolveVariantR(reads, k, solid)
	if len(edges) == 0 {
		t.Fatalf("expected bridging edges across the gap, got none")
	}
	for _, e := range edges {
		if len(e.Core) != k-1 {
			t.Fatalf("core len = %d, want %d", len(e.Core), k-1)
		}
	}
}

func TestResolveVariantRBridgesLongGap(t *testing.T) {
	read := make([]byte, 20)
	for i := range read {
		read[i] = byte(i % 4)
	}
	k := 4
	// a gap longer than k: positions 2..10 non-solid. Variant R has no
	// cap on gap length, only on having solid k-mers on both sides.
	solid := func(ri, pos int) bool { return pos < 2 || pos > 10 }
	edges := ResolveVariantR([][]byte{read}, k, solid)
	if len(edges) != 10 { // no_out at pos 1, no_in at pos 11: bridges positions 1..10
		t.Fatalf("expected 10 bridging edges for the gap, got %d", len(edges))
	}
}

// TestResolveVariantRRescuesScenario5 uses the worked numbers: k=5, a
// read solid at positions 0..3 and 10..14, non-solid in between. The
// no_out at position 3 and no_in at position 10 must bridge positions
// 3..9, rescuing 7 edges.
func TestResolveVariantRRescuesScenario5(t *testing.T) {
	k := 5
	read := make([]byte, 19) // numKmers = 19-5+1 = 15, positions 0..14
	for i := range read {
		read[i] = byte(i % 4)
	}
	solid := func(ri, pos int) bool {
		return (pos >= 0 && pos <= 3) || (pos >= 10 && pos <= 14)
	}
	edges := ResolveVariantR([][]byte{read}, k, solid)
	if len(edges) != 7 {
		t.Fatalf("num_mercy = %d, want 7", len(edges))
	}
	for _, e := range edges {
		if len(e.Core) != k-1 {
			t.Fatalf("core len = %d, want %d", len(e.Core), k-1)
		}
	}
}

func TestResolveVariantRNoGapNoEdges(t *testing.T) {
	read := []byte{0, 1, 2, 3, 0, 1}
	solid := func(ri, pos int) bool { return true }
	edges := ResolveVariantR([][]byte{read}, 4, solid)
	if len(edges) != 0 {
		t.Fatalf("all-solid read should need no bridging, got %d", len(edges))
	}
}

func TestLookupTableSearch(t *testing.T) {
	cores := [][]byte{
		{0, 0, 0},
		{0, 1, 2},
		{1, 2, 3},
		{3, 3, 3},
	}
	lt := BuildLookupTable(cores)
	for _, c := range cores {
		if !lt.Search(c) {
			t.Fatalf("expected to find %v", c)
		}
	}
	if lt.Search([]byte{2, 2, 2}) {
		t.Fatalf("did not expect to find {2,2,2}")
	}
}

func TestResolveVariantERescuesConnectingReads(t *testing.T) {
	k := 3
	// Known node cores of width k-1=2. Core {1,3} is absent, but its
	// one-base successor {3,0} exists.
	cores := [][]byte{
		{0, 0},
		{0, 1},
		{3, 0}, // reachable from the missing core {1,3} by appending 0
	}
	lt := BuildLookupTable(cores)
	// read 0,0,1,3: core(pos+1)={0,1} is known, core(pos+2)={1,3} is
	// missing, and probing {1,3}+0 hits {3,0}, so the edge (a=0, {0,1},
	// b=3) is rescued.
	read := []byte{0, 0, 1, 3}
	edges := ResolveVariantE([][]byte{read}, k, lt)
	if len(edges) != 1 {
		t.Fatalf("got %d rescued edges, want 1: %+v", len(edges), edges)
	}
	for _, e := range edges {
		if len(e.Core) != k-1 {
			t.Fatalf("core len = %d, want %d", len(e.Core), k-1)
		}
	}
}
