package cx1

import (
	"sdbgcore/sortutil"
	"testing"
)

// fakeSource is a minimal EdgeSource for exercising the CX1 mechanics
// (histogram, batching, sort, emission order) independent of DNA
// semantics: each "item" just carries a fixed list of occurrences.
type fakeSource struct {
	k    int
	mode CountMode
	occs [][]EdgeOccurrence
}

func (f *fakeSource) NumItems() int         { return len(f.occs) }
func (f *fakeSource) K() int                { return f.k }
func (f *fakeSource) CountMode() CountMode   { return f.mode }
func (f *fakeSource) ForEachEdge(i int, emit func(EdgeOccurrence)) {
	for _, o := range f.occs[i] {
		emit(o)
	}
}

func occ(core []byte, a, b byte) EdgeOccurrence {
	return EdgeOccurrence{Core: core, A: a, B: b, Count: 1}
}

func TestComputeBucketHistogramCountsAllOccurrences(t *testing.T) {
	src := &fakeSource{k: 3, occs: [][]EdgeOccurrence{
		{occ([]byte{0, 0, 0}, 1, 2), occ([]byte{1, 1, 1}, 2, 3)},
		{occ([]byte{0, 0, 0}, 2, 3)},
	}}
	hist := ComputeBucketHistogram(src, 4)
	var total int64
	for _, c := range hist {
		total += c
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if hist[BucketOf([]byte{0, 0, 0})] != 2 {
		t.Fatalf("bucket(000) = %d, want 2", hist[BucketOf([]byte{0, 0, 0})])
	}
}

func TestPlanNeverSplitsABucketAcrossBatches(t *testing.T) {
	histogram := make([]int64, NumBuckets())
	histogram[0] = 100
	histogram[1] = 5
	opts := MemoryOptions{
		HostMemBytes:    1 << 20,
		BytesPerLv1Item: 4,
		BytesPerLv2Item: 4,
		MemFlag:         MemFlagMin,
	}
	plan, err := Plan(histogram, opts)
	if err != nil {
		t.Fatalf("Plan err: %v", err)
	}
	seen := make(map[int]bool)
	for _, br := range plan.Batches {
		for b := br[0]; b < br[1]; b++ {
			if seen[b] {
				t.Fatalf("bucket %d appears in two batches", b)
			}
			seen[b] = true
		}
	}
	if total := plan.Batches[len(plan.Batches)-1][1]; total != NumBuckets() {
		t.Fatalf("plan does not cover all buckets: last end = %d, want %d", total, NumBuckets())
	}
}

func TestRunProducesAscendingSortedOrderAndPreservesAllOccurrences(t *testing.T) {
	src := &fakeSource{k: 3, occs: [][]EdgeOccurrence{
		{
			occ([]byte{2, 2, 2}, 1, 2),
			occ([]byte{0, 0, 0}, 3, 1),
			occ([]byte{0, 0, 0}, 1, 2),
			occ([]byte{1, 1, 1}, 0, 3),
		},
	}}
	opts := MemoryOptions{
		HostMemBytes:    1 << 20,
		BytesPerLv1Item: 4,
		BytesPerLv2Item: 20,
		MemFlag:         MemFlagAuto,
	}
	var got []EdgeOccurrence
	err := Run(src, opts, 2, sortutil.RadixSorter{}, func(core []byte, a, b byte, count uint32) error {
		got = append(got, EdgeOccurrence{Core: append([]byte(nil), core...), A: a, B: b, Count: count})
		return nil
	})
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d occurrences, want 4", len(got))
	}
	for i := 1; i < len(got); i++ {
		if bucketLess(got[i], got[i-1]) {
			t.Fatalf("not ascending at %d: %+v then %+v", i, got[i-1], got[i])
		}
	}
}

func bucketLess(a, b EdgeOccurrence) bool {
	ba, bb := BucketOf(a.Core), BucketOf(b.Core)
	return ba < bb
}

func TestRunWithTinyBudgetForcesMultipleBatchesButSameResult(t *testing.T) {
	src := &fakeSource{k: 3, occs: [][]EdgeOccurrence{
		{occ([]byte{0, 0, 0}, 1, 2)},
		{occ([]byte{1, 1, 1}, 1, 2)},
		{occ([]byte{2, 2, 2}, 1, 2)},
		{occ([]byte{3, 3, 3}, 1, 2)},
	}}
	bigOpts := MemoryOptions{HostMemBytes: 1 << 30, BytesPerLv1Item: 4, BytesPerLv2Item: 20, MemFlag: MemFlagAll}
	tinyOpts := MemoryOptions{HostMemBytes: 1 << 6, BytesPerLv1Item: 4, BytesPerLv2Item: 20, MemFlag: MemFlagMin}
	if p, err := Plan(ComputeBucketHistogram(src, 1), tinyOpts); err != nil || len(p.Batches) < 2 {
		t.Fatalf("tiny budget plan = %+v, err=%v; want at least 2 batches", p, err)
	}

	collect := func(opts MemoryOptions) []EdgeOccurrence {
		var got []EdgeOccurrence
		_ = Run(src, opts, 1, sortutil.RadixSorter{}, func(core []byte, a, b byte, count uint32) error {
			got = append(got, EdgeOccurrence{Core: append([]byte(nil), core...), A: a, B: b, Count: count})
			return nil
		})
		return got
	}

	big := collect(bigOpts)
	tiny := collect(tinyOpts)
	if len(big) != len(tiny) {
		t.Fatalf("big=%d tiny=%d, want equal", len(big), len(tiny))
	}
	for i := range big {
		if string(big[i].Core) != string(tiny[i].Core) || big[i].A != tiny[i].A || big[i].B != tiny[i].B {
			t.Fatalf("mismatch at %d: big=%+v tiny=%+v", i, big[i], tiny[i])
		}
	}
}
