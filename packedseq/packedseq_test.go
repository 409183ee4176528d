package packedseq

import "testing"

func encode(s string) []byte {
	m := map[byte]byte{'A': 0, 'C': 1, 'G': 2, 'T': 3}
	b := make([]byte, len(s))
	for i, c := range []byte(s) {
		b[i] = m[c]
	}
	return b
}

func TestAppendAndGetBase(t *testing.T) {
	p := New()
	id0 := p.AppendSeq(encode("ACGTACGT"))
	id1 := p.AppendSeq(encode("TTTT"))
	if id0 != 0 || id1 != 1 {
		t.Fatalf("ids = %d,%d want 0,1", id0, id1)
	}
	if p.Length(0) != 8 || p.Length(1) != 4 {
		t.Fatalf("lengths wrong: %d %d", p.Length(0), p.Length(1))
	}
	want := encode("ACGTACGT")
	for i, w := range want {
		if got := p.GetBase(0, i); got != w {
			t.Fatalf("seq0[%d] = %d, want %d", i, got, w)
		}
	}
	want1 := encode("TTTT")
	for i, w := range want1 {
		if got := p.GetBase(1, i); got != w {
			t.Fatalf("seq1[%d] = %d, want %d", i, got, w)
		}
	}
}

func TestGetIDInverseOfStartIndex(t *testing.T) {
	p := New()
	lens := []int{8, 4, 1, 33, 0 + 1, 17}
	for _, l := range lens {
		seq := make([]byte, l)
		for i := range seq {
			seq[i] = byte(i % 4)
		}
		p.AppendSeq(seq)
	}
	p.BuildLookup()
	for i := 0; i < p.NumSeqs(); i++ {
		start := p.StartIndex(i)
		length := int64(p.Length(i))
		if length == 0 {
			continue
		}
		for off := start; off < start+length; off++ {
			if got := p.GetID(off); got != i {
				t.Fatalf("GetID(%d) = %d, want %d (seq %d spans [%d,%d))", off, got, i, i, start, start+length)
			}
		}
	}
}

func TestAppendFixedLenRoundTrips(t *testing.T) {
	p := New()
	// pack "ACGTACGTAC" (10 bases) into 32-bit words MSB-first, 16/word
	bases := encode("ACGTACGTAC")
	words := make([]uint32, 1)
	for i, b := range bases {
		shift := uint(15-i) * 2
		words[0] |= uint32(b) << shift
	}
	p.AppendFixedLen(words, len(bases))
	for i, w := range bases {
		if got := p.GetBase(0, i); got != w {
			t.Fatalf("pos %d: got %d want %d", i, got, w)
		}
	}
}

func TestGetBaseAtOffsetMatchesGetBase(t *testing.T) {
	p := New()
	p.AppendSeq(encode("GATTACA"))
	p.AppendSeq(encode("CAGT"))
	p.BuildLookup()
	for i := 0; i < p.NumSeqs(); i++ {
		for pos := 0; pos < p.Length(i); pos++ {
			off := p.StartIndex(i) + int64(pos)
			if p.GetBaseAtOffset(off) != p.GetBase(i, pos) {
				t.Fatalf("mismatch at seq %d pos %d", i, pos)
			}
		}
	}
}
