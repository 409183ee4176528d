// Package kmer implements KmerCodec: a fixed-width k-mer value over
// the 2-bit DNA alphabet with shift-append/shift-preappend (slide the
// window one base forward/back), reverse-complement, lexicographic
// compare, and strided substring-copy helpers feeding the cx1 lv2
// column-major layout.
//
// Storage mirrors constructcf.go's KmerBnt exactly: bases are packed
// into a big-endian multi-word integer built purely by repeated
// "value = (value<<2)|base" (constructcf.go's GetReadBntKmer /
// GetNextKmer / GetPreviousKmer), so the first base of the k-mer is
// always the most significant pair across the whole word array and
// word-by-word integer comparison is lexicographic order.
package kmer

import "sdbgcore/bnt"

const basesPerWord = 32 // 64 bits / 2 bits per base

// Kmer is a fixed-width k-mer value. The zero value is invalid; use
// New or Init.
type Kmer struct {
	words []uint64
	k     int
}

// New allocates a zero-valued k-mer of width k.
func New(k int) *Kmer {
	return &Kmer{words: make([]uint64, numWords(k)), k: k}
}

func numWords(k int) int {
	return (k + basesPerWord - 1) / basesPerWord
}

// K returns the k-mer's width.
func (x *Kmer) K() int { return x.k }

// Words exposes the underlying big-endian word storage (read-only use
// expected; Cmp and hashing can use it directly).
func (x *Kmer) Words() []uint64 { return x.words }

// Clone returns an independent copy.
func (x *Kmer) Clone() *Kmer {
	w := make([]uint64, len(x.words))
	copy(w, x.words)
	return &Kmer{words: w, k: x.k}
}

func getBaseFromPacked32(src []uint32, globalBaseIdx int) byte {
	w := globalBaseIdx / bnt.NumBaseInUint32
	slot := int(bnt.NumBaseInUint32) - 1 - globalBaseIdx%int(bnt.NumBaseInUint32)
	shift := uint(slot) * bnt.NumBitsInBase
	return byte((src[w] >> shift) & bnt.BaseMask)
}

// Init loads k bases starting at baseOffset from a packed, 16-base/
// uint32-word source (the same layout packedseq.PackedSeq uses), i.e.
// a "word_ptr, bit_offset, k" k-mer init contract
// specialized to whole-base offsets (bit_offset is always base-aligned here,
// matching every call site in cx1).
func (x *Kmer) Init(src []uint32, baseOffset, k int) {
	x.k = k
	if numWords(k) != len(x.words) {
		x.words = make([]uint64, numWords(k))
	} else {
		for i := range x.words {
			x.words[i] = 0
		}
	}
	for p := 0; p < k; p++ {
		x.SetBase(p, getBaseFromPacked32(src, baseOffset+p))
	}
}

// getPairFromLSB addresses a 2-bit slot counting from the least
// significant pair (0) of the whole word array, independent of k;
// positions >= k address the always-zero padding region.
func (x *Kmer) getPairFromLSB(n int) byte {
	totalPairs := len(x.words) * 32
	pairFromMSB := totalPairs - 1 - n
	wi := pairFromMSB / 32
	sh := uint(31-pairFromMSB%32) * 2
	return byte((x.words[wi] >> sh) & 3)
}

func (x *Kmer) setPairFromLSB(n int, v byte) {
	totalPairs := len(x.words) * 32
	pairFromMSB := totalPairs - 1 - n
	wi := pairFromMSB / 32
	sh := uint(31-pairFromMSB%32) * 2
	x.words[wi] &^= uint64(3) << sh
	x.words[wi] |= uint64(v&3) << sh
}

// Base returns the base at position pos (0 = first/most significant).
func (x *Kmer) Base(pos int) byte {
	return x.getPairFromLSB(x.k - 1 - pos)
}

// SetBase sets the base at position pos (0 = first/most significant).
func (x *Kmer) SetBase(pos int, b byte) {
	x.setPairFromLSB(x.k-1-pos, b&3)
}

func (x *Kmer) shiftLeft2() {
	n := len(x.words)
	for i := 0; i < n-1; i++ {
		x.words[i] = (x.words[i] << 2) | (x.words[i+1] >> 62)
	}
	x.words[n-1] <<= 2
}

func (x *Kmer) shiftRight2() {
	n := len(x.words)
	for i := n - 1; i > 0; i-- {
		x.words[i] = (x.words[i] >> 2) | (x.words[i-1] << 62)
	}
	x.words[0] >>= 2
}

func (x *Kmer) maskPadding() {
	totalBits := len(x.words) * 64
	padding := totalBits - x.k*2
	if padding > 0 {
		x.words[0] &^= ^uint64(0) << uint(64-padding)
	}
}

// ShiftAppend slides the k-wide window one base forward: the first
// (oldest) base is dropped and base becomes the new last base.
// Mirrors constructcf.GetNextKmer generalized to any width.
func (x *Kmer) ShiftAppend(base byte) {
	x.shiftLeft2()
	x.words[len(x.words)-1] |= uint64(base & 3)
	x.maskPadding()
}

// ShiftPreappend slides the k-wide window one base back: the last
// (newest) base is dropped and base becomes the new first base.
// Mirrors constructcf.GetPreviousKmer generalized to any width.
func (x *Kmer) ShiftPreappend(base byte) {
	x.shiftRight2()
	x.SetBase(0, base)
}

// ReverseComplement returns a new k-mer that is the reverse complement
// of x. ReverseComplement applied twice is the identity.
func (x *Kmer) ReverseComplement() *Kmer {
	rc := New(x.k)
	for p := 0; p < x.k; p++ {
		rc.SetBase(p, bnt.BntRev[x.Base(x.k-1-p)])
	}
	return rc
}

// Cmp returns -1, 0, or 1 comparing x and other lexicographically by
// base (first base most significant). Both must have equal width.
func (x *Kmer) Cmp(other *Kmer) int {
	for i := range x.words {
		if x.words[i] < other.words[i] {
			return -1
		}
		if x.words[i] > other.words[i] {
			return 1
		}
	}
	return 0
}

// Equal reports whether x and other encode the same sequence.
func (x *Kmer) Equal(other *Kmer) bool {
	return x.k == other.k && x.Cmp(other) == 0
}

// String renders the k-mer as upper-case ACGT.
func (x *Kmer) String() string {
	b := make([]byte, x.k)
	for i := 0; i < x.k; i++ {
		b[i] = bnt.BntCharUp[x.Base(i)]
	}
	return string(b)
}

// CopySubstring writes nChars bases starting at srcBaseOffset of a
// packed (16 bases/uint32-word) source into dst in the cx1 lv2
// column-major stride layout: word w of the destination item at index
// itemIndex is written to dst[w*stride+itemIndex], for w in
// [0,dstWords). Unused trailing bases (nChars < dstWords*16) are
// zero-padded, matching the sentinel convention used for the residual
// bits of a partial word.
func CopySubstring(dst []uint32, itemIndex, stride, dstWords int, src []uint32, srcBaseOffset, nChars int) {
	copySubstringGeneric(dst, itemIndex, stride, dstWords, nChars, func(c int) byte {
		return getBaseFromPacked32(src, srcBaseOffset+c)
	})
}

// CopySubstringRC is CopySubstring but reads the source in reverse
// and complements each base, producing the reverse complement of the
// source range [srcBaseOffset, srcBaseOffset+nChars).
func CopySubstringRC(dst []uint32, itemIndex, stride, dstWords int, src []uint32, srcBaseOffset, nChars int) {
	copySubstringGeneric(dst, itemIndex, stride, dstWords, nChars, func(c int) byte {
		return bnt.BntRev[getBaseFromPacked32(src, srcBaseOffset+nChars-1-c)]
	})
}

func copySubstringGeneric(dst []uint32, itemIndex, stride, dstWords, nChars int, getBase func(c int) byte) {
	for w := 0; w < dstWords; w++ {
		var word uint32
		for slot := 0; slot < int(bnt.NumBaseInUint32); slot++ {
			c := w*int(bnt.NumBaseInUint32) + slot
			var b byte
			if c < nChars {
				b = getBase(c)
			}
			shift := uint(int(bnt.NumBaseInUint32)-1-slot) * bnt.NumBitsInBase
			word |= uint32(b&3) << shift
		}
		dst[w*stride+itemIndex] = word
	}
}
