package kmer

import (
	"math/rand"
	"testing"

	"sdbgcore/bnt"
)

func fromString(s string) *Kmer {
	x := New(len(s))
	for i := 0; i < len(s); i++ {
		x.SetBase(i, bnt.Base2Bnt[s[i]])
	}
	return x
}

func TestBaseRoundTrip(t *testing.T) {
	x := fromString("ACGTACGTAC")
	if x.String() != "ACGTACGTAC" {
		t.Fatalf("String() = %q", x.String())
	}
}

func TestShiftAppendSlidesWindow(t *testing.T) {
	x := fromString("ACGT")
	x.ShiftAppend(bnt.Base2Bnt['A']) // CGTA
	if got := x.String(); got != "CGTA" {
		t.Fatalf("ShiftAppend: got %q want CGTA", got)
	}
	x.ShiftAppend(bnt.Base2Bnt['C']) // GTAC
	if got := x.String(); got != "GTAC" {
		t.Fatalf("ShiftAppend: got %q want GTAC", got)
	}
}

func TestShiftPreappendSlidesWindowBack(t *testing.T) {
	x := fromString("ACGT")
	x.ShiftPreappend(bnt.Base2Bnt['T']) // TACG
	if got := x.String(); got != "TACG" {
		t.Fatalf("ShiftPreappend: got %q want TACG", got)
	}
}

func TestShiftAppendMultiWord(t *testing.T) {
	// 40 bases forces 2 words (basesPerWord=32).
	s := "ACGTACGTACGTACGTACGTACGTACGTACGTACGTACGT"[:40]
	x := fromString(s)
	x.ShiftAppend(bnt.Base2Bnt['A'])
	want := s[1:] + "A"
	if got := x.String(); got != want {
		t.Fatalf("multiword ShiftAppend: got %q want %q", got, want)
	}
}

func TestReverseComplementInvolution(t *testing.T) {
	x := fromString("ACGTACGTAC")
	rc := x.ReverseComplement()
	rcrc := rc.ReverseComplement()
	if !x.Equal(rcrc) {
		t.Fatalf("rc(rc(x)) != x: x=%s rcrc=%s", x.String(), rcrc.String())
	}
	if rc.String() != "GTACGTACGT" {
		t.Fatalf("rc = %q, want GTACGTACGT", rc.String())
	}
}

func TestCmpMonotoneUnderShiftAppend(t *testing.T) {
	// Shifting a k-mer forward past its lexicographic successor must
	// eventually yield Cmp > 0, per the shift-append monotonicity property.
	x := fromString("AAAA")
	succ := fromString("AAAC")
	if x.Cmp(succ) >= 0 {
		t.Fatalf("precondition: x should sort before succ")
	}
	x.ShiftAppend(bnt.Base2Bnt['C']) // AAAC
	if x.Cmp(succ) != 0 {
		t.Fatalf("after shift x should equal succ: x=%s succ=%s", x.String(), succ.String())
	}
	x.ShiftAppend(bnt.Base2Bnt['T']) // AACT
	if x.Cmp(succ) <= 0 {
		t.Fatalf("after further shift x should sort after succ: x=%s succ=%s", x.String(), succ.String())
	}
}

func TestCmpOrdersLexicographically(t *testing.T) {
	cases := []struct{ a, b string }{
		{"AAAA", "AAAC"},
		{"AAAA", "CAAA"},
		{"ACGT", "ACGTA"[:4]},
		{"GGGG", "TTTT"},
	}
	for _, c := range cases {
		a, b := fromString(c.a), fromString(c.b)
		if c.a == c.b {
			if a.Cmp(b) != 0 {
				t.Fatalf("%s vs %s: want 0", c.a, c.b)
			}
			continue
		}
		if a.Cmp(b) >= 0 {
			t.Fatalf("%s vs %s: want a<b", c.a, c.b)
		}
		if b.Cmp(a) <= 0 {
			t.Fatalf("%s vs %s: want b>a", c.b, c.a)
		}
	}
}

func packSeq(s string) []uint32 {
	n := (len(s) + int(bnt.NumBaseInUint32) - 1) / int(bnt.NumBaseInUint32)
	words := make([]uint32, n)
	for i, c := range s {
		b := bnt.Base2Bnt[byte(c)]
		w := i / int(bnt.NumBaseInUint32)
		slot := int(bnt.NumBaseInUint32) - 1 - i%int(bnt.NumBaseInUint32)
		words[w] |= uint32(b) << uint(slot*2)
	}
	return words
}

func TestInitFromPacked(t *testing.T) {
	src := packSeq("ACGTACGTACGTACGTACGT")
	x := New(5)
	x.Init(src, 3, 5)
	if got := x.String(); got != "TACGT" {
		t.Fatalf("Init: got %q want TACGT", got)
	}
}

func TestCopySubstringRoundTrip(t *testing.T) {
	seq := "ACGTTGCATTACAGCTAGCTAGGGCCTTAA"
	src := packSeq(seq)
	const stride = 3
	const dstWords = 2 // covers up to 32 bases
	dst := make([]uint32, dstWords*stride)

	for item := 0; item < stride; item++ {
		n := 12
		off := item
		CopySubstring(dst, item, stride, dstWords, src, off, n)
		var got []byte
		for c := 0; c < n; c++ {
			w := dst[(c/16)*stride+item]
			slot := 15 - c%16
			got = append(got, byte((w>>uint(slot*2))&3))
		}
		for c := 0; c < n; c++ {
			want := bnt.Base2Bnt[seq[off+c]]
			if got[c] != want {
				t.Fatalf("item %d pos %d: got %d want %d", item, c, got[c], want)
			}
		}
	}
}

func TestCopySubstringRCIsReverseComplementOfForward(t *testing.T) {
	seq := "ACGTTGCATTACAGCTAGCTAGG"
	src := packSeq(seq)
	n := 10
	off := 2
	const stride = 1
	dstWords := 1
	fwd := make([]uint32, dstWords*stride)
	rc := make([]uint32, dstWords*stride)
	CopySubstring(fwd, 0, stride, dstWords, src, off, n)
	CopySubstringRC(rc, 0, stride, dstWords, src, off, n)

	fwdKmer := New(n)
	for c := 0; c < n; c++ {
		slot := 15 - c%16
		b := byte((fwd[0] >> uint(slot*2)) & 3)
		fwdKmer.SetBase(c, b)
	}
	want := fwdKmer.ReverseComplement()
	for c := 0; c < n; c++ {
		slot := 15 - c%16
		b := byte((rc[0] >> uint(slot*2)) & 3)
		if b != want.Base(c) {
			t.Fatalf("rc mismatch at %d: got %d want %d", c, b, want.Base(c))
		}
	}
}

func TestRandomShiftAppendAgreesWithInit(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	seq := make([]byte, 80)
	letters := "ACGT"
	for i := range seq {
		seq[i] = letters[rnd.Intn(4)]
	}
	src := packSeq(string(seq))
	k := 20
	x := New(k)
	x.Init(src, 0, k)
	for start := 1; start+k <= len(seq); start++ {
		x.ShiftAppend(bnt.Base2Bnt[seq[start+k-1]])
		want := New(k)
		want.Init(src, start, k)
		if !x.Equal(want) {
			t.Fatalf("start=%d: got %s want %s", start, x.String(), want.String())
		}
	}
}
