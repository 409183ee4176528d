package sdbg

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"sdbgcore/bnt"
)

// WriteOptions controls WriteFiles' output encoding.
type WriteOptions struct {
	// CompressOutput wraps every append stream (.w/.last/.isd/.mul) in
	// a zstd writer, mirroring constructdbg.go's
	// zstd.NewWriter(edgesfp, zstd.WithEncoderCRC(false),
	// zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(1)) for its
	// edge dumps.
	CompressOutput bool
}

// closeWriter lets WriteFiles treat a plain *os.File and a *zstd.Encoder
// uniformly: both need Close to flush their trailer.
type closeWriter interface {
	io.Writer
	Close() error
}

func wrapOutput(f *os.File, compress bool) (closeWriter, error) {
	if !compress {
		return f, nil
	}
	return zstd.NewWriter(f, zstd.WithEncoderCRC(false), zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedFastest))
}

// WriteFiles serializes edges to the on-disk SdBG format: <prefix>.w (4-bit W nibbles, two edges/byte), .last
// (1 bit/edge), .isd (1 bit/edge), .mul (16 bits/edge with a
// kMulti2Sp overflow marker), .mul2 (64-bit overflow records), .f
// (ASCII first-char prefix sum), and .dn (one int32 words-per-dummy-
// node header, then the packed dummy-node core k-mers).
func WriteFiles(prefix string, coreWidth int, edges []Edge, fCounts [bnt.BaseTypeNum]int64, totalEdges int64, numDollar int, opts WriteOptions) error {
	wFile, err := os.Create(prefix + ".w")
	if err != nil {
		return err
	}
	defer wFile.Close()
	lastFile, err := os.Create(prefix + ".last")
	if err != nil {
		return err
	}
	defer lastFile.Close()
	isdFile, err := os.Create(prefix + ".isd")
	if err != nil {
		return err
	}
	defer isdFile.Close()
	mulFile, err := os.Create(prefix + ".mul")
	if err != nil {
		return err
	}
	defer mulFile.Close()
	mul2F, err := os.Create(prefix + ".mul2")
	if err != nil {
		return err
	}
	defer mul2F.Close()
	dnF, err := os.Create(prefix + ".dn")
	if err != nil {
		return err
	}
	defer dnF.Close()

	wOut, err := wrapOutput(wFile, opts.CompressOutput)
	if err != nil {
		return err
	}
	defer wOut.Close()
	lastOut, err := wrapOutput(lastFile, opts.CompressOutput)
	if err != nil {
		return err
	}
	defer lastOut.Close()
	isdOut, err := wrapOutput(isdFile, opts.CompressOutput)
	if err != nil {
		return err
	}
	defer isdOut.Close()
	mulOut, err := wrapOutput(mulFile, opts.CompressOutput)
	if err != nil {
		return err
	}
	defer mulOut.Close()

	wBuf := bufio.NewWriter(wOut)
	lastBuf := bufio.NewWriter(lastOut)
	isdBuf := bufio.NewWriter(isdOut)
	mulBuf := bufio.NewWriter(mulOut)
	mul2Buf := bufio.NewWriter(mul2F)
	dnBuf := bufio.NewWriter(dnF)
	wordsPerDummyNode := int32((coreWidth + int(bnt.NumBaseInUint32) - 1) / int(bnt.NumBaseInUint32))
	if err := binary.Write(dnBuf, binary.LittleEndian, wordsPerDummyNode); err != nil {
		return err
	}

	var wByte, lastByte, isdByte byte
	var bitsFilled int
	var nibblesFilled int

	flushBits := func(force bool) error {
		if bitsFilled == 8 || (force && bitsFilled > 0) {
			if err := lastBuf.WriteByte(lastByte); err != nil {
				return err
			}
			if err := isdBuf.WriteByte(isdByte); err != nil {
				return err
			}
			lastByte, isdByte = 0, 0
			bitsFilled = 0
		}
		return nil
	}
	flushNibbles := func(force bool) error {
		if nibblesFilled == 2 || (force && nibblesFilled > 0) {
			if err := wBuf.WriteByte(wByte); err != nil {
				return err
			}
			wByte = 0
			nibblesFilled = 0
		}
		return nil
	}

	for i, e := range edges {
		if nibblesFilled == 0 {
			wByte = e.W & 0xF
		} else {
			wByte |= (e.W & 0xF) << 4
		}
		nibblesFilled++
		if err := flushNibbles(false); err != nil {
			return err
		}

		bitPos := uint(i % 8)
		if e.Last {
			lastByte |= 1 << bitPos
		}
		if e.IsDollar {
			isdByte |= 1 << bitPos
			if err := packDummyCore(dnBuf, e.Core); err != nil {
				return err
			}
		}
		bitsFilled++
		if bitsFilled == 8 {
			if err := flushBits(false); err != nil {
				return err
			}
		}

		if e.Count >= kMulti2Sp {
			if err := binary.Write(mulBuf, binary.LittleEndian, uint16(kMulti2Sp)); err != nil {
				return err
			}
			if err := binary.Write(mul2Buf, binary.LittleEndian, uint64(e.Count)); err != nil {
				return err
			}
		} else {
			if err := binary.Write(mulBuf, binary.LittleEndian, uint16(e.Count)); err != nil {
				return err
			}
		}
	}
	if err := flushNibbles(true); err != nil {
		return err
	}
	if err := flushBits(true); err != nil {
		return err
	}

	if err := wBuf.Flush(); err != nil {
		return err
	}
	if err := lastBuf.Flush(); err != nil {
		return err
	}
	if err := isdBuf.Flush(); err != nil {
		return err
	}
	if err := mulBuf.Flush(); err != nil {
		return err
	}
	if err := mul2Buf.Flush(); err != nil {
		return err
	}
	if err := dnBuf.Flush(); err != nil {
		return err
	}

	fF, err := os.Create(prefix + ".f")
	if err != nil {
		return err
	}
	defer fF.Close()
	return writeFFile(fF, coreWidth, fCounts, totalEdges, numDollar)
}

func packDummyCore(w io.Writer, core []byte) error {
	n := (len(core) + int(bnt.NumBaseInUint32) - 1) / int(bnt.NumBaseInUint32)
	words := make([]uint32, n)
	for i, b := range core {
		wi := i / int(bnt.NumBaseInUint32)
		slot := int(bnt.NumBaseInUint32) - 1 - i%int(bnt.NumBaseInUint32)
		words[wi] |= uint32(b&3) << uint(slot*2)
	}
	return binary.Write(w, binary.LittleEndian, words)
}

func writeFFile(w io.Writer, coreWidth int, fCounts [bnt.BaseTypeNum]int64, totalEdges int64, numDollar int) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	if _, err := fmt.Fprintln(bw, -1); err != nil {
		return err
	}
	for c := 0; c < bnt.BaseTypeNum; c++ {
		if _, err := fmt.Fprintln(bw, fCounts[c]); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(bw, totalEdges); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(bw, coreWidth+1); err != nil {
		return err
	}
	_, err := fmt.Fprintln(bw, numDollar)
	return err
}
