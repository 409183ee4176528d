package pipeline

import (
	"bytes"
	"fmt"
	"runtime"
	"sort"

	"sdbgcore/bnt"
	"sdbgcore/cx1"
	"sdbgcore/mercy"
	"sdbgcore/sdbg"
	"sdbgcore/simplify"
	"sdbgcore/sortutil"
)

// occurrence is the orchestrator's flat, sortable form of one
// cx1.EdgeOccurrence or mercy.Edge, merged from both sources before
// feeding sdbg.Emitter (which requires its input strictly
// core-ordered, per sdbg.Emitter.Add's contract).
type occurrence struct {
	core  []byte
	a, b  byte
	count uint32
}

// finalized bundles everything one emitter pass over a sorted
// occurrence stream produces.
type finalized struct {
	graph      *sdbg.SdBG
	edges      []sdbg.Edge
	fCounts    [bnt.BaseTypeNum]int64
	totalEdges int64
	numDollar  int
}

// Result is what Build hands back: the frozen, simplified graph plus
// the stats WriteFiles/the CLI front door report.
type Result struct {
	Graph         *sdbg.SdBG
	NumReads      int
	TotalEdges    int64
	NumDollar     int
	TipsRemoved   int64
	BubblesPopped int64
}

// Build runs the whole pipeline end to end: load reads,
// run cx1 over the read+solid-bitmap source, fold in mercy-rescued
// edges, freeze the SdBG, simplify it, and write the on-disk files.
// Mirrors constructcf.CCF/constructdbg.CDBG's orchestration shape: one
// function per phase, each returning error so a CLI front door decides
// fatality.
func Build(cfg Config) (Result, error) {
	var res Result

	reads, err := LoadReads(cfg.Libs, cfg.KmerK+10)
	if err != nil {
		return res, fmt.Errorf("pipeline.Build: LoadReads: %w", err)
	}
	res.NumReads = reads.NumSeqs()
	if reads.NumSeqs() == 0 {
		return res, fmt.Errorf("pipeline.Build: no reads of at least kmer_k+10 bases loaded")
	}

	numWorkers := cfg.NumCPUThreads
	if numWorkers < 1 {
		numWorkers = runtime.NumCPU()
	}

	bitmap := BuildSolidBitmap(reads, cfg.KmerK, cfg.MinKmerFreq)
	src := NewReadSource(reads, cfg.KmerK, bitmap)

	var occs []occurrence
	emit := func(core []byte, a, b byte, count uint32) error {
		occs = append(occs, occurrence{core: append([]byte(nil), core...), a: a, b: b, count: count})
		return nil
	}

	opts := memoryOptionsFor(cfg, src.K())
	if err := cx1.Run(src, opts, numWorkers, sortutil.RadixSorter{}, emit); err != nil {
		return res, fmt.Errorf("pipeline.Build: cx1.Run: %w", err)
	}
	fmt.Printf("[pipeline.Build] cx1 produced %d raw occurrences from %d reads\n", len(occs), reads.NumSeqs())

	for _, contigFile := range []string{cfg.Contig, cfg.AddiContig, cfg.LocalContig} {
		if contigFile == "" {
			continue
		}
		cs, err := LoadContigSource(contigFile, cfg.KmerK)
		if err != nil {
			return res, fmt.Errorf("pipeline.Build: LoadContigSource(%s): %w", contigFile, err)
		}
		if err := cx1.Run(cs, opts, numWorkers, sortutil.RadixSorter{}, emit); err != nil {
			return res, fmt.Errorf("pipeline.Build: cx1.Run(%s): %w", contigFile, err)
		}
		fmt.Printf("[pipeline.Build] folded in %d contigs from %s\n", cs.NumItems(), contigFile)
	}

	var materialized [][]byte
	if cfg.NeedMercy {
		materialized = materializeReads(reads)
		solidByIndex := func(ri, pos int) bool { return bitmap.Get(ri, pos) }
		mercyEdges := mercy.ResolveVariantR(materialized, cfg.KmerK, solidByIndex)
		fmt.Printf("[pipeline.Build] mercy Variant R rescued %d edges\n", len(mercyEdges))
		for _, e := range mercyEdges {
			occs = append(occs, occurrence{core: e.Core, a: e.A, b: e.B, count: 1})
		}
	}

	fin, err := mergeAndFinalize(occs, src.K())
	if err != nil {
		return res, fmt.Errorf("pipeline.Build: %w", err)
	}

	if cfg.NeedMercy {
		fin2, err := applyVariantE(fin, materialized, cfg.KmerK, src.K())
		if err != nil {
			return res, fmt.Errorf("pipeline.Build: applyVariantE: %w", err)
		}
		fin = fin2
	}

	tipMaxLen := cfg.KmerK * 2
	res.TipsRemoved = simplify.Trim(fin.graph, tipMaxLen, numWorkers)
	res.BubblesPopped = simplify.PopBubbles(fin.graph, tipMaxLen, numWorkers)
	fmt.Printf("[pipeline.Build] trimmed %d tip nodes, popped %d bubble nodes\n", res.TipsRemoved, res.BubblesPopped)

	res.Graph = fin.graph
	res.TotalEdges = fin.totalEdges
	res.NumDollar = fin.numDollar

	if cfg.OutputPrefix != "" {
		wopts := sdbg.WriteOptions{CompressOutput: cfg.CompressOutput}
		if err := sdbg.WriteFiles(cfg.OutputPrefix, src.K(), fin.edges, fin.fCounts, fin.totalEdges, fin.numDollar, wopts); err != nil {
			return res, fmt.Errorf("pipeline.Build: WriteFiles: %w", err)
		}
	}

	return res, nil
}

// mergeAndFinalize sorts every occurrence by (core,a,b) and replays it
// through a fresh sdbg.Emitter, the order sdbg.Emitter.Add requires.
func mergeAndFinalize(occs []occurrence, coreWidth int) (finalized, error) {
	sort.Slice(occs, func(i, j int) bool {
		if c := bytes.Compare(occs[i].core, occs[j].core); c != 0 {
			return c < 0
		}
		if occs[i].a != occs[j].a {
			return occs[i].a < occs[j].a
		}
		return occs[i].b < occs[j].b
	})

	emitter := sdbg.NewEmitter(sdbg.CountRunLength)
	for _, o := range occs {
		if err := emitter.Add(o.core, o.a, o.b, o.count); err != nil {
			return finalized{}, err
		}
	}
	edges, fCounts, totalEdges, numDollar, err := emitter.Finalize()
	if err != nil {
		return finalized{}, err
	}
	g, err := sdbg.Finalize(coreWidth, edges)
	if err != nil {
		return finalized{}, err
	}
	return finalized{graph: g, edges: edges, fCounts: fCounts, totalEdges: totalEdges, numDollar: numDollar}, nil
}

// applyVariantE runs mercy's post-edge lookup-table rescue against the
// solid node cores of an already-built graph and re-finalizes with any
// additionally rescued edges folded in.
func applyVariantE(fin finalized, reads [][]byte, k, coreWidth int) (finalized, error) {
	var cores [][]byte
	for i := 0; i < fin.graph.Size(); i++ {
		if fin.graph.IsLast(i) {
			cores = append(cores, fin.graph.Core(i))
		}
	}
	sort.Slice(cores, func(i, j int) bool { return bytes.Compare(cores[i], cores[j]) < 0 })
	lt := mercy.BuildLookupTable(cores)

	rescued := mercy.ResolveVariantE(reads, k, lt)
	if len(rescued) == 0 {
		return fin, nil
	}
	fmt.Printf("[pipeline.applyVariantE] rescued %d additional edges\n", len(rescued))

	occs := make([]occurrence, 0, len(fin.edges)+len(rescued))
	for _, e := range fin.edges {
		occs = append(occs, occurrence{core: e.Core, a: e.A, b: e.B, count: e.Count})
	}
	for _, e := range rescued {
		occs = append(occs, occurrence{core: e.Core, a: e.A, b: e.B, count: 1})
	}
	return mergeAndFinalize(occs, coreWidth)
}

func memoryOptionsFor(cfg Config, coreWidth int) cx1.MemoryOptions {
	hostMem := cfg.HostMem
	if hostMem <= 0 {
		hostMem = 1 << 30 // 1 GiB default, matching a conservative single-host run
	}
	lv2Words := (coreWidth+15)/16 + 1
	return cx1.MemoryOptions{
		HostMemBytes:    hostMem,
		ReservedBytes:   hostMem / 10,
		BytesPerLv1Item: 4,
		BytesPerLv2Item: int64(lv2Words * 4),
		MemFlag:         cfg.MemFlag,
	}
}
