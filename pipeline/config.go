// Package pipeline is the Orchestrator: it loads a run's configuration,
// loads and solidity-filters reads, drives cx1.Run and the mercy
// resolvers into a single sdbg.Emitter stream, freezes the result with
// sdbg.Finalize, and runs simplify.Trim/PopBubbles before writing the
// on-disk SdBG files.
//
// Grounded on constructcf.go's CCF/ParseCfg orchestration shape: a
// config-driven main entry point that wires together the lower-level
// packages the same way ga.go's subcommands wire constructcf/
// constructdbg/preprocess.
package pipeline

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"sdbgcore/cx1"
)

// LibInfo names one input read library's files, mirroring
// constructcf.LibInfo trimmed down (no asm_flag/seq_profile/
// paired-insert bookkeeping — this pipeline reads every library the
// same way).
type LibInfo struct {
	Name   string
	FnName []string
}

// Config holds every run option, read by LoadConfig from
// a ParseCfg-style line-oriented file.
type Config struct {
	MaxRdLen int
	MinRdLen int

	NumCPUThreads    int
	NumOutputThreads int
	HostMem          int64
	GPUMem           int64
	MemFlag          cx1.MemFlag

	KmerK       int // node k-mer width; edge cores are KmerK-1 wide
	KmerFrom    int
	MinKmerFreq int
	NeedMercy   bool

	OutputPrefix string
	InputPrefix  string
	Contig       string
	AddiContig   string
	LocalContig  string

	CompressOutput bool

	Libs []LibInfo
}

// LoadConfig reads a `key = value` config file (blank lines and
// `#`/`;`-prefixed comment lines skipped), the same fields[2]-keyed
// line shape constructcf.ParseCfg reads, specialized to this
// pipeline's option set plus a `[LIB]`/`name`/`f1`/`f2`
// library block.
func LoadConfig(fn string) (Config, error) {
	var cfg Config
	cfg.MemFlag = cx1.MemFlagAuto
	cfg.MinKmerFreq = 2

	f, err := os.Open(fn)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	var lib LibInfo
	reader := bufio.NewReader(f)
	eof := false
	for !eof {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			err = nil
			eof = true
		} else if err != nil {
			return cfg, err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0][0] == '#' || fields[0][0] == ';' {
			continue
		}

		var perr error
		switch fields[0] {
		case "[global_setting]":
		case "[LIB]":
			if lib.Name != "" {
				cfg.Libs = append(cfg.Libs, lib)
				lib = LibInfo{}
			}
		case "name":
			lib.Name = fields[2]
		case "f1", "f2":
			lib.FnName = append(lib.FnName, fields[2])
		case "max_rd_len":
			cfg.MaxRdLen, perr = strconv.Atoi(fields[2])
		case "min_rd_len":
			cfg.MinRdLen, perr = strconv.Atoi(fields[2])
		case "num_cpu_threads":
			cfg.NumCPUThreads, perr = strconv.Atoi(fields[2])
		case "num_output_threads":
			cfg.NumOutputThreads, perr = strconv.Atoi(fields[2])
		case "host_mem":
			cfg.HostMem, perr = strconv.ParseInt(fields[2], 10, 64)
		case "gpu_mem":
			cfg.GPUMem, perr = strconv.ParseInt(fields[2], 10, 64)
		case "mem_flag":
			var v int
			v, perr = strconv.Atoi(fields[2])
			cfg.MemFlag = cx1.MemFlag(v)
		case "kmer_k":
			cfg.KmerK, perr = strconv.Atoi(fields[2])
		case "kmer_from":
			cfg.KmerFrom, perr = strconv.Atoi(fields[2])
		case "min_kmer_freq":
			cfg.MinKmerFreq, perr = strconv.Atoi(fields[2])
		case "need_mercy":
			cfg.NeedMercy = fields[2] == "1" || fields[2] == "true"
		case "output_prefix":
			cfg.OutputPrefix = fields[2]
		case "input_prefix":
			cfg.InputPrefix = fields[2]
		case "contig":
			cfg.Contig = fields[2]
		case "addi_contig":
			cfg.AddiContig = fields[2]
		case "local_contig":
			cfg.LocalContig = fields[2]
		case "compress_output":
			cfg.CompressOutput = fields[2] == "1" || fields[2] == "true"
		default:
			return cfg, &unknownConfigKeyError{fields[0]}
		}
		if perr != nil {
			return cfg, perr
		}
	}
	if lib.Name != "" {
		cfg.Libs = append(cfg.Libs, lib)
	}
	return cfg, nil
}

type unknownConfigKeyError struct{ key string }

func (e *unknownConfigKeyError) Error() string {
	return "pipeline: unknown config key: " + e.key
}
