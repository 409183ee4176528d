package cx1

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"strconv"

	"github.com/google/brotli/go/cbrotli"
)

// SpillOverflow persists a batch's lv1 overflow table to
// <prefix>.lv1_overflow.<batchIdx>, brotli-compressed the same way
// constructcf.WriteKmer spills its kmer buckets
// (cbrotli.NewWriter(outfp, cbrotli.WriterOptions{Quality: 1})). Run
// keeps Lv1Batch.Overflow resident for a single batch; a caller
// driving many large batches back-to-back can call SpillOverflow to
// free that memory between batches and LoadOverflow to bring it back
// only if it needs to re-resolve an Lv1Item by hand outside Run.
func SpillOverflow(prefix string, batchIdx int, overflow []int64) error {
	f, err := os.Create(overflowFileName(prefix, batchIdx))
	if err != nil {
		return err
	}
	defer f.Close()
	brw := cbrotli.NewWriter(f, cbrotli.WriterOptions{Quality: 1})
	defer brw.Close()
	bw := bufio.NewWriterSize(brw, 1<<20)
	if err := binary.Write(bw, binary.LittleEndian, int64(len(overflow))); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, overflow); err != nil {
		return err
	}
	return bw.Flush()
}

// LoadOverflow reads back an overflow table written by SpillOverflow.
func LoadOverflow(prefix string, batchIdx int) ([]int64, error) {
	f, err := os.Open(overflowFileName(prefix, batchIdx))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	brr := cbrotli.NewReaderSize(f, 1<<20)
	defer brr.Close()
	br := bufio.NewReader(brr)

	var n int64
	if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	overflow := make([]int64, n)
	if err := binary.Read(br, binary.LittleEndian, overflow); err != nil {
		return nil, err
	}
	return overflow, nil
}

func overflowFileName(prefix string, batchIdx int) string {
	return prefix + ".lv1_overflow." + strconv.Itoa(batchIdx)
}
