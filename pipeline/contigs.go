package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"sdbgcore/bnt"
	"sdbgcore/cx1"
)

// ContigSource is the contig+multiplicity cx1.EdgeSource: a later
// assembly pass feeds already-assembled contigs back through the same
// bucket partitioner reads went through, but a contig is trusted whole
// (no solid-run splitting) and its repeated occurrences collapse by
// maximum multiplicity rather than run length, mirroring
// cx1_seq2sdbg.cpp's treatment of the .contigs/.addi_contigs/
// .local_contigs inputs to the second SdBG-building pass.
type ContigSource struct {
	seqs [][]byte // 2-bit-coded contig bases
	mult []uint32 // per-contig multiplicity, parallel to seqs
	k    int
}

// NumItems implements cx1.EdgeSource.
func (cs *ContigSource) NumItems() int { return len(cs.seqs) }

// K implements cx1.EdgeSource.
func (cs *ContigSource) K() int { return cs.k - 1 }

// CountMode implements cx1.EdgeSource.
func (cs *ContigSource) CountMode() cx1.CountMode { return cx1.CountMaxMultiplicity }

// ForEachEdge implements cx1.EdgeSource: every contig is one solid
// run end to end, so it contributes a left-dollar boundary edge, one
// internal transition per adjacent k-mer pair, and a right-dollar
// boundary edge, all carrying the contig's own multiplicity.
func (cs *ContigSource) ForEachEdge(seqIdx int, emit func(cx1.EdgeOccurrence)) {
	k := cs.k
	seq := cs.seqs[seqIdx]
	numKmers := len(seq) - k + 1
	if numKmers < 1 {
		return
	}
	count := cs.mult[seqIdx]

	core, a, b := canonicalizeEdge(seq[0:k-1], bnt.SentinelValue, seq[k-1])
	emit(cx1.EdgeOccurrence{Core: core, A: a, B: b, Count: count})
	for pos := 0; pos < numKmers-1; pos++ {
		core, a, b := canonicalizeEdge(seq[pos+1:pos+k], seq[pos], seq[pos+k])
		emit(cx1.EdgeOccurrence{Core: core, A: a, B: b, Count: count})
	}
	last := numKmers - 1
	core, a, b = canonicalizeEdge(seq[last+1:last+k], seq[last], bnt.SentinelValue)
	emit(cx1.EdgeOccurrence{Core: core, A: a, B: b, Count: count})
}

// LoadContigSource reads a contig file: a first line "num_contigs
// num_bases", then per contig a ">id multi=<N>" header line followed
// by one ASCII sequence line, the same per-contig multiplicity
// annotation cx1_seq2sdbg.cpp's ContigReader attaches to every contig
// it feeds back into edge building. Unlike the brotli-compressed reads
// path, contig files are plain text: a later pipeline stage, not the
// raw sequencer output, produces them.
func LoadContigSource(fn string, k int) (*ContigSource, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1<<20), 1<<24)
	if !sc.Scan() {
		return nil, fmt.Errorf("pipeline: %s: empty contig file", fn)
	}
	header := strings.Fields(sc.Text())
	if len(header) != 2 {
		return nil, fmt.Errorf("pipeline: %s: malformed header %q", fn, sc.Text())
	}
	numContigs, err := strconv.Atoi(header[0])
	if err != nil {
		return nil, fmt.Errorf("pipeline: %s: bad contig count: %w", fn, err)
	}

	cs := &ContigSource{k: k}
	for i := 0; i < numContigs; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("pipeline: %s: truncated at contig %d header", fn, i)
		}
		multi, err := parseContigMulti(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("pipeline: %s: contig %d: %w", fn, i, err)
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("pipeline: %s: truncated at contig %d sequence", fn, i)
		}
		cs.seqs = append(cs.seqs, transform2BntByte(bytesTrimNewline(sc.Bytes())))
		cs.mult = append(cs.mult, multi)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return cs, nil
}

// parseContigMulti extracts N from a ">id multi=N" header line.
func parseContigMulti(line string) (uint32, error) {
	const tag = "multi="
	idx := strings.Index(line, tag)
	if idx < 0 {
		return 0, fmt.Errorf("missing %q in header %q", tag, line)
	}
	field := strings.Fields(line[idx+len(tag):])
	if len(field) == 0 {
		return 0, fmt.Errorf("no value after %q in header %q", tag, line)
	}
	n, err := strconv.ParseUint(field[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad multi value in header %q: %w", line, err)
	}
	return uint32(n), nil
}
