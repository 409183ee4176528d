package cx1

import "sdbgcore/sortutil"

// wordsPerCore returns how many strided uint32 "slots" a core of the
// given width packs into (bnt.NumBaseInUint32 bases per word). The
// extra trailing word the sort key carries to encode (a,b) is not
// included; callers add it.
func wordsPerCore(coreWidth int) int {
	const basesPerWord = 16
	return (coreWidth + basesPerWord - 1) / basesPerWord
}

// decodeBucketGlobalIndices resolves one bucket's Lv1Items back to
// absolute ledger indices (phase 3 -> phase 4 handoff).
func decodeBucketGlobalIndices(batch Lv1Batch, bucketLocal int) []int64 {
	lo, hi := batch.BucketOffsets[bucketLocal], batch.BucketOffsets[bucketLocal+1]
	out := make([]int64, 0, hi-lo)
	var prev int64 = -1
	for _, item := range batch.Items[lo:hi] {
		var g int64
		if prev == -1 {
			g = int64(item)
		} else if item < 0 {
			g = batch.Overflow[-int(item)-1]
		} else {
			g = prev + int64(item)
		}
		out = append(out, g)
		prev = g
	}
	return out
}

// ExtractAndSortBucket runs CX1 phase 4 for one bucket of a batch:
// pack each occurrence's core+(a,b) into the sortutil strided layout,
// sort, and return the occurrences in ascending (core,a,b) order
//.
func ExtractAndSortBucket(src EdgeSource, batch Lv1Batch, bucketLocal int, sorter sortutil.Sorter) ([]EdgeOccurrence, error) {
	idxs := decodeBucketGlobalIndices(batch, bucketLocal)
	n := len(idxs)
	if n == 0 {
		return nil, nil
	}

	core := wordsPerCore(src.K())
	words := core + 1
	strided := make([]uint32, words*n)
	occs := make([]EdgeOccurrence, n)
	for i, g := range idxs {
		occ := batch.Ledger[g]
		occs[i] = occ
		packCoreInto(strided, i, n, core, occ.Core)
		strided[core*n+i] = (uint32(occ.A) << 8) | uint32(occ.B)
	}

	perm, err := sorter.Sort(strided, n, words, n)
	if err != nil {
		return nil, err
	}
	sorted := make([]EdgeOccurrence, n)
	for i, p := range perm {
		sorted[i] = occs[p]
	}
	return sorted, nil
}

func packCoreInto(dst []uint32, item, stride, wordsPerCore int, core []byte) {
	const basesPerWord = 16
	for w := 0; w < wordsPerCore; w++ {
		var word uint32
		for slot := 0; slot < basesPerWord; slot++ {
			c := w*basesPerWord + slot
			var b byte
			if c < len(core) {
				b = core[c]
			}
			shift := uint(basesPerWord-1-slot) * 2
			word |= uint32(b&3) << shift
		}
		dst[w*stride+item] = word
	}
}

// PartitionForOutput splits a bucket-batch's sorted occurrences into
// up to numPartitions contiguous output partitions, never cutting a
// run of equal-core items across a partition boundary.
func PartitionForOutput(sorted []EdgeOccurrence, numPartitions int) [][2]int {
	if numPartitions < 1 {
		numPartitions = 1
	}
	n := len(sorted)
	if n == 0 {
		return nil
	}
	target := (n + numPartitions - 1) / numPartitions
	var parts [][2]int
	start := 0
	for start < n {
		end := start + target
		if end > n {
			end = n
		}
		for end < n && bytesEqualCore(sorted[end-1].Core, sorted[end].Core) {
			end++
		}
		parts = append(parts, [2]int{start, end})
		start = end
	}
	return parts
}

func bytesEqualCore(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
