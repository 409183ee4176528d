package pipeline

import (
	"os"
	"testing"

	"sdbgcore/cx1"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	f, err := os.CreateTemp("", "sdbg-cfg-*.cfg")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.WriteString(contents); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func TestLoadConfigParsesAllKeys(t *testing.T) {
	fn := writeTempConfig(t, `# a comment
num_cpu_threads = 8
num_output_threads = 2
host_mem = 2000000000
gpu_mem = 0
mem_flag = 1
kmer_k = 21
kmer_from = 15
min_kmer_freq = 3
need_mercy = 1
output_prefix = /tmp/out
input_prefix = /tmp/in
; another comment
max_rd_len = 150
min_rd_len = 50

[LIB]
name = libA
f1 = reads.1.fa.br
f2 = reads.2.fa.br
`)

	cfg, err := LoadConfig(fn)
	if err != nil {
		t.Fatalf("LoadConfig err: %v", err)
	}
	if cfg.NumCPUThreads != 8 || cfg.NumOutputThreads != 2 {
		t.Fatalf("thread counts wrong: %+v", cfg)
	}
	if cfg.HostMem != 2000000000 {
		t.Fatalf("host_mem wrong: %d", cfg.HostMem)
	}
	if cfg.MemFlag != cx1.MemFlagAuto {
		t.Fatalf("mem_flag wrong: %v", cfg.MemFlag)
	}
	if cfg.KmerK != 21 || cfg.KmerFrom != 15 {
		t.Fatalf("kmer fields wrong: %+v", cfg)
	}
	if cfg.MinKmerFreq != 3 {
		t.Fatalf("min_kmer_freq wrong: %d", cfg.MinKmerFreq)
	}
	if !cfg.NeedMercy {
		t.Fatalf("need_mercy should be true")
	}
	if cfg.OutputPrefix != "/tmp/out" || cfg.InputPrefix != "/tmp/in" {
		t.Fatalf("prefixes wrong: %+v", cfg)
	}
	if cfg.MaxRdLen != 150 || cfg.MinRdLen != 50 {
		t.Fatalf("read length bounds wrong: %+v", cfg)
	}
	if len(cfg.Libs) != 1 || cfg.Libs[0].Name != "libA" {
		t.Fatalf("libs wrong: %+v", cfg.Libs)
	}
	if len(cfg.Libs[0].FnName) != 2 {
		t.Fatalf("lib file names wrong: %+v", cfg.Libs[0].FnName)
	}
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	fn := writeTempConfig(t, "bogus_key = 1\n")
	if _, err := LoadConfig(fn); err == nil {
		t.Fatalf("expected error for unknown config key")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	fn := writeTempConfig(t, "kmer_k = 31\n")
	cfg, err := LoadConfig(fn)
	if err != nil {
		t.Fatalf("LoadConfig err: %v", err)
	}
	if cfg.MemFlag != cx1.MemFlagAuto {
		t.Fatalf("default mem_flag wrong: %v", cfg.MemFlag)
	}
	if cfg.MinKmerFreq != 2 {
		t.Fatalf("default min_kmer_freq wrong: %d", cfg.MinKmerFreq)
	}
}
