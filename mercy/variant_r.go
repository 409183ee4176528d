// Package mercy implements the two mercy-edge recovery strategies
//: Variant R runs before SdBG construction over raw
// reads and a solid-k-mer bitmap; Variant E runs after edges exist,
// using a sorted-edge binary search.
//
// Grounded on cx1_read2sdbg_s2.cpp's s2_read_mercy_prepare (no_in/
// no_out/has_solid_kmer scan with last_no_out tracking) for Variant R,
// and cx1_seq2sdbg.cpp's InitLookupTable/BinarySearchKmer for
// Variant E.
package mercy

// Edge is one rescued (k+1)-mer occurrence, in the same (core,a,b)
// shape cx1.EdgeOccurrence uses, so a mercy pass's output can be fed
// straight into the same sdbg.Emitter stream as cx1's regular edges.
type Edge struct {
	Core []byte
	A, B byte
}

// ResolveVariantR walks each read's solid-k-mer bitmap looking for a
// no_out/no_in transition: a solid run's last k-mer (no solid
// successor) followed, later in the same read, by a solid run's
// first k-mer (no solid predecessor). Everything strictly between the
// two is rescued and emitted as bridging (k+1)-mer edges, reconnecting
// what would otherwise surface as two broken tips. There is no cap on
// how far apart the two runs may be: any non-solid stretch bounded on
// both sides by solid k-mers is trusted and bridged.
//
// reads holds 2-bit bases (0..3) per read. solid(readIdx, pos) reports
// whether the k-mer starting at pos in that read is solid. k is the
// k-mer length; emitted edge cores are k-1 bases wide.
func ResolveVariantR(reads [][]byte, k int, solid func(readIdx, pos int) bool) []Edge {
	var out []Edge
	for ri, read := range reads {
		numKmers := len(read) - k + 1
		if numKmers < 2 {
			continue
		}

		lastNoOut := -1 // position of the most recent solid run's last k-mer
		for pos := 0; pos < numKmers; pos++ {
			if !solid(ri, pos) {
				continue
			}
			noIn := pos == 0 || !solid(ri, pos-1)
			noOut := pos+1 >= numKmers || !solid(ri, pos+1)

			if noIn && lastNoOut >= 0 {
				out = append(out, bridgeEdges(read, lastNoOut, pos, k)...)
				lastNoOut = -1
			}
			if noOut {
				lastNoOut = pos
			}
		}
	}
	return out
}

// bridgeEdges emits the (k+1)-mer edges for every consecutive k-mer
// pair strictly between the solid k-mer at fromPos and the solid
// k-mer at toPos (inclusive of the two transitions touching them),
// trusting the read's own bases across the gap.
func bridgeEdges(read []byte, fromPos, toPos, k int) []Edge {
	var out []Edge
	for pos := fromPos; pos < toPos; pos++ {
		core := append([]byte(nil), read[pos+1:pos+k]...)
		a := read[pos]
		b := read[pos+k]
		out = append(out, Edge{Core: core, A: a, B: b})
	}
	return out
}
