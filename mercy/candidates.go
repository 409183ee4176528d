package mercy

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"strconv"

	"github.com/google/brotli/go/cbrotli"
)

// WriteCandidates appends edges to a per-shard candidate file
// (<prefix>.mercy_cand.<shardID>), brotli-compressed the same way
// constructcf.WriteKmer wraps its kmer-bucket output
// (cbrotli.NewWriter(outfp, cbrotli.WriterOptions{Quality: 1})) — this
// module's equivalent intermediate spill for mercy-rescued edges
// awaiting merge into the main emission stream.
func WriteCandidates(prefix string, shardID int, edges []Edge) error {
	fn := candidateFileName(prefix, shardID)
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer f.Close()
	brw := cbrotli.NewWriter(f, cbrotli.WriterOptions{Quality: 1})
	defer brw.Close()
	bw := bufio.NewWriterSize(brw, 1<<20)

	for _, e := range edges {
		if err := writeCandidateRecord(bw, e); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadCandidates reads back a candidate file written by
// WriteCandidates, mirroring GetReadSeqBucket's
// cbrotli.NewReaderSize(fp, 1<<25) read path.
func ReadCandidates(prefix string, shardID int) ([]Edge, error) {
	fn := candidateFileName(prefix, shardID)
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	brr := cbrotli.NewReaderSize(f, 1<<20)
	defer brr.Close()
	br := bufio.NewReader(brr)

	var out []Edge
	for {
		e, err := readCandidateRecord(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func candidateFileName(prefix string, shardID int) string {
	return prefix + ".mercy_cand." + strconv.Itoa(shardID)
}

// writeCandidateRecord lays out one Edge as: core length (uint16),
// core bytes, A, B.
func writeCandidateRecord(w io.Writer, e Edge) error {
	if err := binary.Write(w, binary.LittleEndian, uint16(len(e.Core))); err != nil {
		return err
	}
	if _, err := w.Write(e.Core); err != nil {
		return err
	}
	if _, err := w.Write([]byte{e.A, e.B}); err != nil {
		return err
	}
	return nil
}

func readCandidateRecord(r io.Reader) (Edge, error) {
	var coreLen uint16
	if err := binary.Read(r, binary.LittleEndian, &coreLen); err != nil {
		return Edge{}, err
	}
	core := make([]byte, coreLen)
	if _, err := io.ReadFull(r, core); err != nil {
		return Edge{}, err
	}
	var ab [2]byte
	if _, err := io.ReadFull(r, ab[:]); err != nil {
		return Edge{}, err
	}
	return Edge{Core: core, A: ab[0], B: ab[1]}, nil
}
