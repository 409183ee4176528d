package pipeline

import (
	"sdbgcore/bitvector"
	"sdbgcore/packedseq"
)

// SolidBitmap records, for every k-mer start position of every read,
// whether that k-mer's frequency cleared the solidity threshold. It is
// a flat bitvector.AtomicBitVector addressed by readID*stride+pos,
// where stride is the maximum number of k-mer positions any read in
// the database has (maxReadLength-k+1); reads shorter than the
// longest one simply never have their unused tail positions set.
//
// A SolidBitmap is built once, by an external k-mer counting pass, and
// is read-only for the rest of the pipeline's run: ReadSource only
// ever calls Get.
type SolidBitmap struct {
	bits   *bitvector.AtomicBitVector
	stride int
}

// NewSolidBitmap allocates a bitmap sized for numReads reads, each
// addressable at up to stride k-mer positions.
func NewSolidBitmap(numReads, stride int) *SolidBitmap {
	return &SolidBitmap{bits: bitvector.New(numReads * stride), stride: stride}
}

// Stride returns num_k1_per_read: the per-read addressing span.
func (s *SolidBitmap) Stride() int { return s.stride }

// Set marks the k-mer at position pos of read readID solid.
func (s *SolidBitmap) Set(readID, pos int) {
	s.bits.Set(readID*s.stride + pos)
}

// Get reports whether the k-mer at position pos of read readID is solid.
func (s *SolidBitmap) Get(readID, pos int) bool {
	return s.bits.Get(readID*s.stride + pos)
}

// BuildSolidBitmap tallies canonical k-mer frequencies across every
// read in a packed database and sets a bit for every k-mer occurrence
// whose strand-canonical frequency is at least minFreq, mirroring
// cx1_read2sdbg_s1.cpp's is_solid construction (a frequency pass
// followed by a second pass over the same reads testing each k-mer
// against the tally). This is the external k-mer-counting pass
// pipeline.ReadSource's solidity contract presumes has already run.
func BuildSolidBitmap(reads *packedseq.PackedSeq, k, minFreq int) *SolidBitmap {
	stride := 0
	for i := 0; i < reads.NumSeqs(); i++ {
		if n := reads.Length(i) - k + 1; n > stride {
			stride = n
		}
	}
	if stride < 0 {
		stride = 0
	}

	freq := make(map[string]int)
	for i := 0; i < reads.NumSeqs(); i++ {
		numKmers := reads.Length(i) - k + 1
		for pos := 0; pos < numKmers; pos++ {
			freq[canonicalKmerKey(kmerWindow(reads, i, pos, k))]++
		}
	}

	bitmap := NewSolidBitmap(reads.NumSeqs(), stride)
	for i := 0; i < reads.NumSeqs(); i++ {
		numKmers := reads.Length(i) - k + 1
		for pos := 0; pos < numKmers; pos++ {
			if freq[canonicalKmerKey(kmerWindow(reads, i, pos, k))] >= minFreq {
				bitmap.Set(i, pos)
			}
		}
	}
	return bitmap
}

// kmerWindow materializes the k bases starting at pos of read i.
func kmerWindow(reads *packedseq.PackedSeq, i, pos, k int) []byte {
	out := make([]byte, k)
	for j := 0; j < k; j++ {
		out[j] = reads.GetBase(i, pos+j)
	}
	return out
}
