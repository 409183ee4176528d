// Package packedseq implements PackedSeq: an ordered, append-only
// database of DNA sequences packed 2 bits/base, 16 bases per 32-bit
// word (bnt.NumBaseInUint32), with an O(log S) lookup from a global
// base offset back to the owning sequence id.
//
// Modeled on constructcf.go's KmerBnt/ReadBnt bit-packing idiom
// (constructcf.go: "Seq[i/NumBaseInUint64] <<= NumBitsInBase; |=
// base") generalized from a single k-mer to a whole sequence
// collection, and on MEGAHIT's SequencePackage (get_start_index,
// EncodeEdgeOffset) which this type must interoperate with at the
// cx1/sdbg layer.
package packedseq

import (
	"fmt"
	"sort"

	"sdbgcore/bnt"
)

// PackedSeq is an append-only, 2-bit/base sequence database. Writers
// must finish appending and call BuildLookup before any concurrent
// reader touches it; there are no concurrent writers
// and PackedSeq is immutable for the pipeline's lifetime thereafter.
type PackedSeq struct {
	words      []uint32 // packed bases, 16 per word, MSB-first within a word
	startIndex []int64  // startIndex[i] = global base offset of sequence i
	length     []int32  // length[i] = base count of sequence i
	totalBases int64
	built      bool
}

// New returns an empty PackedSeq.
func New() *PackedSeq {
	return &PackedSeq{}
}

// ReserveSeqs pre-allocates room for n sequences' metadata.
func (p *PackedSeq) ReserveSeqs(n int) {
	if cap(p.startIndex) < n {
		ns := make([]int64, len(p.startIndex), n)
		copy(ns, p.startIndex)
		p.startIndex = ns
		nl := make([]int32, len(p.length), n)
		copy(nl, p.length)
		p.length = nl
	}
}

// ReserveBases pre-allocates room for n packed bases.
func (p *PackedSeq) ReserveBases(n int) {
	nw := int((int64(n) + bnt.NumBaseInUint32 - 1) / bnt.NumBaseInUint32)
	if cap(p.words) < nw {
		w := make([]uint32, len(p.words), nw)
		copy(w, p.words)
		p.words = w
	}
}

func (p *PackedSeq) growWords(extraBases int64) {
	need := p.totalBases + extraBases
	nw := int((need + bnt.NumBaseInUint32 - 1) / bnt.NumBaseInUint32)
	for len(p.words) < nw {
		p.words = append(p.words, 0)
	}
}

func (p *PackedSeq) setBaseAt(globalOffset int64, base byte) {
	w := globalOffset / bnt.NumBaseInUint32
	slot := bnt.NumBaseInUint32 - 1 - globalOffset%bnt.NumBaseInUint32
	shift := uint(slot) * bnt.NumBitsInBase
	p.words[w] &^= uint32(bnt.BaseMask) << shift
	p.words[w] |= uint32(base&bnt.BaseMask) << shift
}

func (p *PackedSeq) baseAt(globalOffset int64) byte {
	w := globalOffset / bnt.NumBaseInUint32
	slot := bnt.NumBaseInUint32 - 1 - globalOffset%bnt.NumBaseInUint32
	shift := uint(slot) * bnt.NumBitsInBase
	return byte((p.words[w] >> shift) & bnt.BaseMask)
}

// AppendSeq appends one sequence given as already-2-bit-coded bytes
// (0..3); it is the caller's job to have run raw ASCII through
// bnt.Base2Bnt first, matching GetReadBntKmer's contract in
// constructcf.go.
func (p *PackedSeq) AppendSeq(bases []byte) int {
	if p.built {
		panic("packedseq: AppendSeq after BuildLookup")
	}
	id := len(p.startIndex)
	start := p.totalBases
	p.growWords(int64(len(bases)))
	for i, b := range bases {
		if b > 3 {
			panic(fmt.Sprintf("packedseq: AppendSeq: non-ACGT code %d at position %d", b, i))
		}
		p.setBaseAt(start+int64(i), b)
	}
	p.startIndex = append(p.startIndex, start)
	p.length = append(p.length, int32(len(bases)))
	p.totalBases += int64(len(bases))
	return id
}

// AppendFixedLen appends a sequence already packed into 32-bit words
// (MSB-first, 16 bases/word — the same layout PackedSeq itself uses),
// with baseCount total bases; this is the bulk path used when the
// caller already holds packed data (e.g. re-encoding contigs).
func (p *PackedSeq) AppendFixedLen(words []uint32, baseCount int) int {
	if p.built {
		panic("packedseq: AppendFixedLen after BuildLookup")
	}
	id := len(p.startIndex)
	start := p.totalBases
	p.growWords(int64(baseCount))
	for i := 0; i < baseCount; i++ {
		w := words[i/int(bnt.NumBaseInUint32)]
		slot := int(bnt.NumBaseInUint32) - 1 - i%int(bnt.NumBaseInUint32)
		shift := uint(slot) * bnt.NumBitsInBase
		base := byte((w >> shift) & bnt.BaseMask)
		p.setBaseAt(start+int64(i), base)
	}
	p.startIndex = append(p.startIndex, start)
	p.length = append(p.length, int32(baseCount))
	p.totalBases += int64(baseCount)
	return id
}

// NumSeqs returns the number of sequences appended so far.
func (p *PackedSeq) NumSeqs() int {
	return len(p.startIndex)
}

// TotalBases returns the total base count across all sequences.
func (p *PackedSeq) TotalBases() int64 {
	return p.totalBases
}

// Length returns the base count of sequence i.
func (p *PackedSeq) Length(i int) int {
	return int(p.length[i])
}

// StartIndex returns the global base offset of sequence i.
func (p *PackedSeq) StartIndex(i int) int64 {
	return p.startIndex[i]
}

// GetBase returns the base (0..3) at position pos of sequence i. O(1).
func (p *PackedSeq) GetBase(i, pos int) byte {
	return p.baseAt(p.startIndex[i] + int64(pos))
}

// GetBaseAtOffset returns the base at a raw global offset, without
// needing to know which sequence it belongs to. O(1).
func (p *PackedSeq) GetBaseAtOffset(globalOffset int64) byte {
	return p.baseAt(globalOffset)
}

// Words exposes the raw packed-base storage (16 bases/32-bit word,
// MSB-first within a word): the same layout kmer.Kmer.Init and
// kmer.CopySubstring/CopySubstringRC expect from a packed source, so
// a PackedSeq can feed either directly by global base offset.
func (p *PackedSeq) Words() []uint32 {
	return p.words
}

// BuildLookup freezes the PackedSeq for concurrent read-only access.
// startIndex is already sorted ascending by construction (sequences
// are only ever appended), so this just marks the structure built —
// GetID panics before this is called, since lookups are only valid
// once the database is immutable for the rest of the pipeline's run.
func (p *PackedSeq) BuildLookup() {
	p.built = true
}

// GetID maps a global base offset back to its owning sequence id, in
// O(log S) via binary search over startIndex. Panics if called before
// BuildLookup or with an offset past the end of the database.
func (p *PackedSeq) GetID(globalOffset int64) int {
	if !p.built {
		panic("packedseq: GetID called before BuildLookup")
	}
	if globalOffset < 0 || globalOffset >= p.totalBases {
		panic(fmt.Sprintf("packedseq: GetID: offset %d out of range [0,%d)", globalOffset, p.totalBases))
	}
	// largest i such that startIndex[i] <= globalOffset
	i := sort.Search(len(p.startIndex), func(i int) bool {
		return p.startIndex[i] > globalOffset
	})
	return i - 1
}
