package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/brotli/go/cbrotli"

	"sdbgcore/bnt"
	"sdbgcore/cx1"
	"sdbgcore/packedseq"
)

// readsFileFormat classifies a reads file by its suffix (dropping the
// mandatory trailing .br), mirroring constructcf.GetReadsFileFormat.
func readsFileFormat(fn string) (string, error) {
	parts := strings.Split(fn, ".")
	if len(parts) < 3 {
		return "", fmt.Errorf("pipeline: reads file %q needs suffix *.fa.br|*.fasta.br|*.fq.br|*.fastq.br", fn)
	}
	switch parts[len(parts)-2] {
	case "fa", "fasta":
		return "fa", nil
	case "fq", "fastq":
		return "fq", nil
	default:
		return "", fmt.Errorf("pipeline: reads file %q needs suffix *.fa.br|*.fasta.br|*.fq.br|*.fastq.br", fn)
	}
}

// LoadReads reads every library's files (brotli-compressed FASTA/FASTQ,
// per readsFileFormat), transforms each record's sequence to 2-bit
// codes via bnt.Base2Bnt, and appends it to a packedseq.PackedSeq,
// mirroring constructcf.GetReadSeqBucket/GetReadFileRecord/
// Transform2BntByte but packing straight into the 2-bit-per-base
// container the rest of the pipeline reads through, instead of
// collecting loose byte slices.
func LoadReads(libs []LibInfo, minLen int) (*packedseq.PackedSeq, error) {
	ps := packedseq.New()
	for _, lib := range libs {
		for _, fn := range lib.FnName {
			format, err := readsFileFormat(fn)
			if err != nil {
				return nil, err
			}
			f, err := os.Open(fn)
			if err != nil {
				return nil, err
			}
			brr := cbrotli.NewReaderSize(f, 1<<20)
			buf := bufio.NewReader(brr)
			blockLines := 2
			if format == "fq" {
				blockLines = 4
			}
			for {
				lines := make([][]byte, blockLines)
				var rerr error
				i := 0
				for ; i < blockLines; i++ {
					lines[i], rerr = buf.ReadBytes('\n')
					if rerr != nil {
						break
					}
				}
				if rerr != nil {
					if rerr == io.EOF && i == 0 {
						break
					}
					if rerr != io.EOF {
						brr.Close()
						f.Close()
						return nil, rerr
					}
				}
				if i < 2 {
					break
				}
				seqLine := lines[1]
				seqLine = bytesTrimNewline(seqLine)
				if len(seqLine) >= minLen {
					ps.AppendSeq(transform2BntByte(seqLine))
				}
				if rerr == io.EOF {
					break
				}
			}
			brr.Close()
			f.Close()
		}
	}
	ps.BuildLookup()
	return ps, nil
}

func bytesTrimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

// transform2BntByte mirrors constructcf.Transform2BntByte.
func transform2BntByte(ks []byte) []byte {
	ls := make([]byte, len(ks))
	for i, b := range ks {
		ls[i] = bnt.Base2Bnt[b]
	}
	return ls
}

// revComp returns the reverse complement of a 2-bit-coded base slice.
func revComp(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = bnt.BntRev[c]
	}
	return out
}

// canonicalKmerKey returns a map key identifying a k-mer and its
// reverse complement as the same entry: whichever orientation sorts
// first, as a string (Go string comparison over these small byte
// values is exactly lexicographic base-order comparison).
func canonicalKmerKey(kmer []byte) string {
	rc := revComp(kmer)
	if string(rc) < string(kmer) {
		return string(rc)
	}
	return string(kmer)
}

// materializeRead copies sequence i out of a PackedSeq as a plain
// 2-bit-coded byte slice, the shape mercy.ResolveVariantR/
// ResolveVariantE (lower-level, solidity-agnostic packages) consume.
func materializeRead(ps *packedseq.PackedSeq, i int) []byte {
	n := ps.Length(i)
	out := make([]byte, n)
	for pos := 0; pos < n; pos++ {
		out[pos] = ps.GetBase(i, pos)
	}
	return out
}

// materializeReads copies every sequence out of a PackedSeq into a
// plain [][]byte, for the mercy package's reads-at-once entry points.
func materializeReads(ps *packedseq.PackedSeq) [][]byte {
	out := make([][]byte, ps.NumSeqs())
	for i := range out {
		out[i] = materializeRead(ps, i)
	}
	return out
}

// ReadSource is the read+solid-bitmap cx1.EdgeSource:
// each read contributes one EdgeOccurrence per internal transition
// between two solid k-mers, plus LeftDollar/RightDollar boundary
// occurrences at the ends of each maximal solid run, every occurrence
// pre-canonicalized to whichever strand sorts first so the emitted
// stream never contains both a k-mer transition and its reverse
// complement as separate rows.
type ReadSource struct {
	reads  *packedseq.PackedSeq
	k      int
	bitmap *SolidBitmap
}

// NewReadSource builds a ReadSource over a packed read database and
// its pre-built solid-k-mer bitmap.
func NewReadSource(reads *packedseq.PackedSeq, k int, bitmap *SolidBitmap) *ReadSource {
	return &ReadSource{reads: reads, k: k, bitmap: bitmap}
}

// NumItems implements cx1.EdgeSource.
func (rs *ReadSource) NumItems() int { return rs.reads.NumSeqs() }

// K implements cx1.EdgeSource: the node-core width is k-1.
func (rs *ReadSource) K() int { return rs.k - 1 }

// CountMode implements cx1.EdgeSource.
func (rs *ReadSource) CountMode() cx1.CountMode { return cx1.CountRunLength }

func (rs *ReadSource) solidAt(readIdx, pos int) bool {
	return rs.bitmap.Get(readIdx, pos)
}

// window copies k-mer-window bases [start,end) of read readIdx out of
// the packed database.
func (rs *ReadSource) window(readIdx, start, end int) []byte {
	out := make([]byte, end-start)
	for i := range out {
		out[i] = rs.reads.GetBase(readIdx, start+i)
	}
	return out
}

// ForEachEdge implements cx1.EdgeSource.
func (rs *ReadSource) ForEachEdge(seqIdx int, emit func(cx1.EdgeOccurrence)) {
	k := rs.k
	length := rs.reads.Length(seqIdx)
	numKmers := length - k + 1
	if numKmers < 1 {
		return
	}

	runStart := -1
	flushRun := func(start, end int) {
		// left boundary: $ -> first k-mer
		core, a, b := canonicalizeEdge(rs.window(seqIdx, start, start+k-1), bnt.SentinelValue, rs.reads.GetBase(seqIdx, start+k-1))
		emit(cx1.EdgeOccurrence{Core: core, A: a, B: b, Count: 1})
		// internal transitions
		for pos := start; pos < end; pos++ {
			core, a, b := canonicalizeEdge(rs.window(seqIdx, pos+1, pos+k), rs.reads.GetBase(seqIdx, pos), rs.reads.GetBase(seqIdx, pos+k))
			emit(cx1.EdgeOccurrence{Core: core, A: a, B: b, Count: 1})
		}
		// right boundary: last k-mer -> $
		core, a, b = canonicalizeEdge(rs.window(seqIdx, end+1, end+k), rs.reads.GetBase(seqIdx, end), bnt.SentinelValue)
		emit(cx1.EdgeOccurrence{Core: core, A: a, B: b, Count: 1})
	}

	for pos := 0; pos < numKmers; pos++ {
		if rs.solidAt(seqIdx, pos) {
			if runStart == -1 {
				runStart = pos
			}
			continue
		}
		if runStart != -1 {
			flushRun(runStart, pos-1)
			runStart = -1
		}
	}
	if runStart != -1 {
		flushRun(runStart, numKmers-1)
	}
}

// canonicalizeEdge chooses between (core,a,b) and its reverse
// complement — core reversed and complemented, a/b swapped and
// complemented — returning whichever orientation's (a,core,b) byte
// window sorts first. bnt.SentinelValue complements to itself, so
// under RC a boundary edge's dollar end moves from the a side to the b
// side (or back) and stays a sentinel.
func canonicalizeEdge(core []byte, a, b byte) ([]byte, byte, byte) {
	fwd := make([]byte, 0, len(core)+2)
	fwd = append(fwd, a)
	fwd = append(fwd, core...)
	fwd = append(fwd, b)

	rcCore := revComp(core)
	rcA, rcB := bnt.BntRev[b], bnt.BntRev[a]
	rcw := make([]byte, 0, len(core)+2)
	rcw = append(rcw, rcA)
	rcw = append(rcw, rcCore...)
	rcw = append(rcw, rcB)

	if string(rcw) < string(fwd) {
		return rcCore, rcA, rcB
	}
	return core, a, b
}
