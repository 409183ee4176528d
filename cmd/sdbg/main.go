// Command sdbg is the CLI front door onto the pipeline package: it
// wires odin/cli flags the same way ga.go wires its subcommands onto
// constructcf/constructdbg, parsing global +subcommand-local flags and
// calling into pipeline.Build, log.Fatalf-ing at this boundary on any
// unrecoverable error (nothing below the CLI layer calls log.Fatalf
// or os.Exit directly).
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/jwaldrip/odin/cli"

	"sdbgcore/pipeline"
)

var app = cli.New("1.0.0", "succinct de Bruijn graph constructor", func(c cli.Command) {})

func init() {
	app.DefineStringFlag("C", "sdbg.cfg", "configure file")
	app.DefineStringFlag("p", "./out/K31", "prefix of the output files")
	app.DefineIntFlag("t", 1, "number of CPU threads used")

	build := app.DefineSubCommand("build", "build an SdBG from a read library", buildCmd)
	{
		build.DefineIntFlag("K", 31, "kmer length")
		build.DefineIntFlag("MinKmerFreq", 2, "minimum kmer frequency to call a kmer solid")
		build.DefineBoolFlag("Mercy", true, "recover mercy edges for low-depth regions")
		build.DefineBoolFlag("Compress", false, "zstd-compress the output SdBG files")
	}

	simplify := app.DefineSubCommand("simplify", "build and simplify an SdBG, reporting tip/bubble stats", buildCmd)
	{
		simplify.DefineIntFlag("K", 31, "kmer length")
		simplify.DefineIntFlag("MinKmerFreq", 2, "minimum kmer frequency to call a kmer solid")
		simplify.DefineBoolFlag("Mercy", true, "recover mercy edges for low-depth regions")
		simplify.DefineBoolFlag("Compress", false, "zstd-compress the output SdBG files")
	}
}

func buildCmd(c cli.Command) {
	gOpt, succ := checkGlobalArgs(c.Parent())
	if !succ {
		log.Fatalf("[buildCmd] check global arguments failed\n")
	}

	cfg, err := pipeline.LoadConfig(gOpt.cfgFn)
	if err != nil {
		log.Fatalf("[buildCmd] LoadConfig %q: %v\n", gOpt.cfgFn, err)
	}

	if k, ok := c.Flag("K").Get().(int); ok && k > 0 {
		cfg.KmerK = k
	}
	if f, ok := c.Flag("MinKmerFreq").Get().(int); ok && f > 0 {
		cfg.MinKmerFreq = f
	}
	if m, ok := c.Flag("Mercy").Get().(bool); ok {
		cfg.NeedMercy = m
	}
	if z, ok := c.Flag("Compress").Get().(bool); ok {
		cfg.CompressOutput = z
	}
	if cfg.NumCPUThreads == 0 {
		cfg.NumCPUThreads = gOpt.numCPU
	}
	if cfg.OutputPrefix == "" {
		cfg.OutputPrefix = gOpt.prefix
	}

	fmt.Printf("[buildCmd] cfg: %+v\n", cfg)
	t0 := time.Now()
	res, err := pipeline.Build(cfg)
	if err != nil {
		log.Fatalf("[buildCmd] pipeline.Build: %v\n", err)
	}
	fmt.Printf("[buildCmd] %d reads, %d edges, %d dollar edges, %d tips removed, %d bubbles popped, took %v\n",
		res.NumReads, res.TotalEdges, res.NumDollar, res.TipsRemoved, res.BubblesPopped, time.Since(t0))
}

type globalArgs struct {
	prefix string
	cfgFn  string
	numCPU int
}

// checkGlobalArgs mirrors utils.CheckGlobalArgs's "pull global flags
// off the parent command, log.Fatalf on a missing/mistyped one"
// convention, specialized to the flags this CLI defines.
func checkGlobalArgs(c cli.Command) (opt globalArgs, succ bool) {
	opt.prefix = c.Flag("p").String()
	if opt.prefix == "" {
		log.Fatalf("[checkGlobalArgs] arg 'p' not set\n")
	}
	opt.cfgFn = c.Flag("C").String()
	if opt.cfgFn == "" {
		log.Fatalf("[checkGlobalArgs] arg 'C' not set\n")
	}
	var ok bool
	opt.numCPU, ok = c.Flag("t").Get().(int)
	if !ok {
		log.Fatalf("[checkGlobalArgs] arg 't': %v set error\n", c.Flag("t").String())
	}
	return opt, true
}

func main() {
	app.Start()
}
